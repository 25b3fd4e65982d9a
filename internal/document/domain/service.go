package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

// ItemInput is a line item as submitted by a caller or a recurrence template.
type ItemInput struct {
	Description string   `json:"description"`
	Quantity    float64  `json:"quantity"`
	UnitPrice   float64  `json:"unit_price"`
	VATRate     float64  `json:"vat_rate"`
	ItemType    ItemType `json:"item_type"`
	SortOrder   int      `json:"sort_order"`
}

// CreateDocumentRequest is the document factory contract.
type CreateDocumentRequest struct {
	Kind                 Kind
	ClientID             snowflake.ID
	Items                []ItemInput
	Currency             string
	PaymentMethod        string
	PaymentDetails       string
	Notes                string
	ValidUntil           *time.Time
	RecurrenceTemplateID *snowflake.ID
	GeneratedForDate     *time.Time
}

type EditDocumentRequest struct {
	ID             snowflake.ID
	Items          []ItemInput
	PaymentMethod  string
	PaymentDetails string
	Notes          string
	ValidUntil     *time.Time
}

type Service interface {
	Create(ctx context.Context, req CreateDocumentRequest) (Document, error)
	// Edit fully recomputes totals from the submitted item set and
	// deactivates any signature tied to the document.
	Edit(ctx context.Context, req EditDocumentRequest) (Document, error)
	GetByID(ctx context.Context, id snowflake.ID) (Document, error)
	ListItems(ctx context.Context, documentID snowflake.ID) ([]LineItem, error)
	// MarkAsPaid is idempotent: paying an already-paid invoice succeeds.
	MarkAsPaid(ctx context.Context, id snowflake.ID) (Document, error)
	// Transition applies a state-machine move under a per-document
	// read-modify-write; an already-current target is a no-op.
	Transition(ctx context.Context, id snowflake.ID, target Status) (Document, error)
	// Send marks the document SENT and emails it to the client. Email
	// delivery failure is logged, never fatal.
	Send(ctx context.Context, id snowflake.ID) (Document, error)
	Delete(ctx context.Context, id snowflake.ID) error
}

var (
	ErrNotFound          = errors.New("document_not_found")
	ErrInactive          = errors.New("document_inactive")
	ErrInvalidKind       = errors.New("invalid_document_kind")
	ErrInvalidItems      = errors.New("invalid_line_items")
	ErrInvalidQuantity   = errors.New("invalid_quantity")
	ErrInvalidUnitPrice  = errors.New("invalid_unit_price")
	ErrInvalidVATRate    = errors.New("invalid_vat_rate")
	ErrInvalidTransition = errors.New("invalid_status_transition")
	ErrTransitionRace    = errors.New("concurrent_status_transition")
)

// ValidateItems rejects malformed line items before any state change.
func ValidateItems(items []ItemInput) error {
	if len(items) == 0 {
		return ErrInvalidItems
	}
	for _, item := range items {
		if item.Quantity <= 0 {
			return ErrInvalidQuantity
		}
		if item.UnitPrice < 0 {
			return ErrInvalidUnitPrice
		}
		if item.VATRate < 0 || item.VATRate > 100 {
			return ErrInvalidVATRate
		}
	}
	return nil
}
