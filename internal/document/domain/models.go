// Package domain contains the billing document model and the rules shared by
// quotes, invoices, and credit notes.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// Kind discriminates the billing document families.
type Kind string

const (
	KindQuote      Kind = "QUOTE"
	KindInvoice    Kind = "INVOICE"
	KindCreditNote Kind = "CREDIT_NOTE"
)

// ItemType tags a line item for rendering purposes.
type ItemType string

const (
	ItemTypeHour    ItemType = "HOUR"
	ItemTypeDay     ItemType = "DAY"
	ItemTypeDeposit ItemType = "DEPOSIT"
	ItemTypeService ItemType = "SERVICE"
	ItemTypeProduct ItemType = "PRODUCT"
)

// Document is a quote, invoice, or credit note with frozen totals.
// Amounts are set at creation/edit time and never silently recomputed.
type Document struct {
	ID     snowflake.ID `gorm:"primaryKey" json:"id"`
	Kind   Kind         `gorm:"type:text;not null" json:"kind"`
	Status Status       `gorm:"type:text;not null;default:'DRAFT'" json:"status"`

	ClientID  snowflake.ID `gorm:"not null;index" json:"client_id"`
	CompanyID snowflake.ID `gorm:"not null" json:"company_id"`

	// RecurrenceTemplateID is a weak back-reference to the template that
	// minted this document. The pair (template, generated_for_date) is
	// unique so a re-run of the scheduler cannot mint duplicates.
	RecurrenceTemplateID *snowflake.ID `gorm:"index;uniqueIndex:ux_documents_template_generated_for" json:"recurrence_template_id,omitempty"`
	GeneratedForDate     *time.Time    `gorm:"uniqueIndex:ux_documents_template_generated_for" json:"generated_for_date,omitempty"`

	Currency       string `gorm:"not null;default:''" json:"currency"`
	PaymentMethod  string `gorm:"not null;default:''" json:"payment_method"`
	PaymentDetails string `gorm:"not null;default:''" json:"payment_details"`
	Notes          string `gorm:"not null;default:''" json:"notes"`

	TotalHT  float64 `gorm:"column:total_ht;not null;default:0" json:"total_ht"`
	TotalVAT float64 `gorm:"column:total_vat;not null;default:0" json:"total_vat"`
	TotalTTC float64 `gorm:"column:total_ttc;not null;default:0" json:"total_ttc"`

	IsActive   bool       `gorm:"not null;default:true" json:"is_active"`
	PaidAt     *time.Time `gorm:"" json:"paid_at,omitempty"`
	ValidUntil *time.Time `gorm:"" json:"valid_until,omitempty"`

	Metadata  datatypes.JSONMap `gorm:"type:jsonb;not null;default:'{}'" json:"metadata,omitempty"`
	CreatedAt time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Document) TableName() string { return "documents" }

// LineItem is one ordered line on a document.
type LineItem struct {
	ID          snowflake.ID `gorm:"primaryKey" json:"id"`
	DocumentID  snowflake.ID `gorm:"not null;index" json:"document_id"`
	Description string       `gorm:"not null;default:''" json:"description"`
	Quantity    float64      `gorm:"not null" json:"quantity"`
	UnitPrice   float64      `gorm:"not null" json:"unit_price"`
	VATRate     float64      `gorm:"column:vat_rate;not null;default:0" json:"vat_rate"`
	ItemType    ItemType     `gorm:"column:item_type;type:text;not null;default:'SERVICE'" json:"item_type"`
	SortOrder   int          `gorm:"not null;default:0" json:"sort_order"`
}

func (LineItem) TableName() string { return "line_items" }
