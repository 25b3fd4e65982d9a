// Package domain tracks signature records tied to documents. A signature is
// the correlation between a local document and a signing provider's external
// document id; it is deactivated the moment the document content changes.
package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Signature struct {
	ID             snowflake.ID `gorm:"primaryKey" json:"id"`
	DocumentID     snowflake.ID `gorm:"not null;index" json:"document_id"`
	Provider       string       `gorm:"not null" json:"provider"`
	ExternalID     string       `gorm:"not null;index:ix_signatures_external" json:"external_id"`
	ProviderStatus string       `gorm:"not null;default:''" json:"provider_status"`
	IsActive       bool         `gorm:"not null;default:true" json:"is_active"`
	CreatedAt      time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt      time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Signature) TableName() string { return "signatures" }

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, sig *Signature) error
	// FindActiveByExternalID resolves a provider's external document id to
	// the local signature record; nil when no active record matches.
	FindActiveByExternalID(ctx context.Context, db *gorm.DB, provider, externalID string) (*Signature, error)
	FindByDocument(ctx context.Context, db *gorm.DB, documentID snowflake.ID) ([]Signature, error)
	// DeactivateByDocument invalidates every signature referencing the
	// document. Called on content mutation so no dangling valid signature
	// survives an edit.
	DeactivateByDocument(ctx context.Context, db *gorm.DB, documentID snowflake.ID) error
	UpdateProviderStatus(ctx context.Context, db *gorm.DB, id snowflake.ID, status string) error
}

var (
	ErrNotFound = errors.New("signature_not_found")
)
