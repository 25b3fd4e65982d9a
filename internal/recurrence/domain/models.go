// Package domain contains recurrence templates and the due-date arithmetic
// that drives automatic invoice generation.
package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// Frequency is the recurrence cadence of a template.
type Frequency string

const (
	FrequencyWeekly       Frequency = "WEEKLY"
	FrequencyBiweekly     Frequency = "BIWEEKLY"
	FrequencyMonthly      Frequency = "MONTHLY"
	FrequencyBimonthly    Frequency = "BIMONTHLY"
	FrequencyQuarterly    Frequency = "QUARTERLY"
	FrequencyQuadmonthly  Frequency = "QUADMONTHLY"
	FrequencySemiannually Frequency = "SEMIANNUALLY"
	FrequencyAnnually     Frequency = "ANNUALLY"
)

// Template describes a recurring invoice: what to bill, to whom, and when.
type Template struct {
	ID       snowflake.ID `gorm:"primaryKey" json:"id"`
	ClientID snowflake.ID `gorm:"not null;index" json:"client_id"`

	Frequency Frequency `gorm:"type:text;not null;default:'MONTHLY'" json:"frequency"`

	// NextDueDate is the next calendar day the template owes a document.
	// It is only ever moved forward, never back.
	NextDueDate     time.Time  `gorm:"column:next_due_date;not null;index" json:"next_due_date"`
	LastInvoiceDate *time.Time `gorm:"column:last_invoice_date" json:"last_invoice_date,omitempty"`

	// Until bounds the schedule in time; MaxOccurrences bounds it in count.
	// Either or both may be unset.
	Until          *time.Time `gorm:"" json:"until,omitempty"`
	MaxOccurrences *int       `gorm:"column:max_occurrences" json:"max_occurrences,omitempty"`

	AutoSend       bool   `gorm:"column:auto_send;not null;default:false" json:"auto_send"`
	Currency       string `gorm:"not null;default:''" json:"currency"`
	PaymentMethod  string `gorm:"not null;default:''" json:"payment_method"`
	PaymentDetails string `gorm:"not null;default:''" json:"payment_details"`
	Notes          string `gorm:"not null;default:''" json:"notes"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Template) TableName() string { return "recurrence_templates" }

// TemplateItem is a line item blueprint copied onto every generated document.
type TemplateItem struct {
	ID          snowflake.ID `gorm:"primaryKey" json:"id"`
	TemplateID  snowflake.ID `gorm:"column:template_id;not null;index" json:"template_id"`
	Description string       `gorm:"not null;default:''" json:"description"`
	Quantity    float64      `gorm:"not null" json:"quantity"`
	UnitPrice   float64      `gorm:"not null" json:"unit_price"`
	VATRate     float64      `gorm:"column:vat_rate;not null;default:0" json:"vat_rate"`
	ItemType    string       `gorm:"column:item_type;not null;default:'SERVICE'" json:"item_type"`
	SortOrder   int          `gorm:"not null;default:0" json:"sort_order"`
}

func (TemplateItem) TableName() string { return "template_items" }

var (
	ErrNotFound = errors.New("recurrence_template_not_found")
	ErrNoItems  = errors.New("recurrence_template_has_no_items")
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, tmpl *Template, items []TemplateItem) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Template, error)
	FindItems(ctx context.Context, db *gorm.DB, templateID snowflake.ID) ([]TemplateItem, error)
	// ListDue returns every template whose next due date has been reached
	// and whose end date, if any, has not passed.
	ListDue(ctx context.Context, db *gorm.DB, today time.Time) ([]Template, error)
	// Advance moves the template's schedule forward after a generation.
	Advance(ctx context.Context, db *gorm.DB, id snowflake.ID, nextDue, lastInvoice time.Time) error
}
