// Package domain contains the business profile model.
package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
)

// Company is the single business profile owning every document.
type Company struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	Name      string       `gorm:"not null" json:"name"`
	Email     string       `gorm:"not null;default:''" json:"email"`
	Country   string       `gorm:"not null;default:''" json:"country"`
	Currency  string       `gorm:"not null;default:'EUR'" json:"currency"`
	ExemptVAT bool         `gorm:"column:exempt_vat;not null;default:false" json:"exempt_vat"`
	CreatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Company) TableName() string { return "companies" }

// VATExempt reports whether the jurisdiction-specific VAT exemption applies.
// The exemption only holds for companies located in France.
func (c Company) VATExempt() bool {
	return c.ExemptVAT && strings.ToUpper(strings.TrimSpace(c.Country)) == "FR"
}

var (
	ErrNotConfigured = errors.New("company_not_configured")
)
