// Package domain contains the billing recipient model.
package domain

import (
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

type Client struct {
	ID           snowflake.ID `gorm:"primaryKey" json:"id"`
	Name         string       `gorm:"not null" json:"name"`
	ContactEmail string       `gorm:"not null;default:''" json:"contact_email"`
	Currency     string       `gorm:"not null;default:''" json:"currency,omitempty"`
	IsActive     bool         `gorm:"not null;default:true" json:"is_active"`
	CreatedAt    time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt    time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Client) TableName() string { return "clients" }

var (
	ErrNotFound = errors.New("client_not_found")
)
