// Package domain defines the signing-provider integration surface: provider
// configuration, the adapter contract, and webhook event semantics.
package domain

import (
	"context"
	"errors"
	"net/http"
	"time"

	documentdomain "github.com/smallbiznis/billora/internal/document/domain"
	"gorm.io/gorm"
)

// ProviderConfig is one signing provider's stored credentials. The webhook
// secret is stored hashed; the cleartext is shown once at rotation time.
type ProviderConfig struct {
	Provider          string    `gorm:"primaryKey" json:"provider"`
	BaseURL           string    `gorm:"column:base_url;not null;default:''" json:"base_url"`
	APIKey            string    `gorm:"column:api_key;not null;default:''" json:"-"`
	WebhookSecretHash string    `gorm:"column:webhook_secret_hash;not null;default:''" json:"-"`
	IsActive          bool      `gorm:"not null;default:true" json:"is_active"`
	CreatedAt         time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt         time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (ProviderConfig) TableName() string { return "signing_provider_configs" }

// Event is a provider-neutral view of a webhook delivery.
type Event struct {
	// ExternalID is the provider's identifier for the signed document.
	ExternalID string
	// Status is the document status the event claims. Empty when the event
	// type carries no status meaning for us.
	Status documentdomain.Status
}

// Capability flags what an adapter can do beyond parsing webhooks.
type Capability string

const (
	CapabilityStatusAPI   Capability = "status_api"
	CapabilityWebhookAuth Capability = "webhook_auth"
)

// Descriptor identifies an adapter. It is a plain value, fixed at
// construction.
type Descriptor struct {
	ID           string
	Name         string
	Capabilities []Capability
}

func (d Descriptor) Has(c Capability) bool {
	for _, cap := range d.Capabilities {
		if cap == c {
			return true
		}
	}
	return false
}

// Adapter translates one provider's webhook dialect.
type Adapter interface {
	Describe() Descriptor
	// VerifyWebhook authenticates a delivery against the stored config.
	// It must return ErrUnauthorized on any failure, with no partial trust.
	VerifyWebhook(cfg ProviderConfig, header http.Header, body []byte) error
	// ParseEvent extracts the external document reference and the claimed
	// status from the raw payload.
	ParseEvent(body []byte) (Event, error)
}

// StatusFetcher is implemented by adapters whose provider exposes a document
// status API. When available, the fetched status is trusted over the webhook
// payload's claim.
type StatusFetcher interface {
	FetchStatus(ctx context.Context, cfg ProviderConfig, externalID string) (documentdomain.Status, error)
}

type ConfigRepository interface {
	FindByProvider(ctx context.Context, db *gorm.DB, provider string) (*ProviderConfig, error)
	Upsert(ctx context.Context, db *gorm.DB, cfg *ProviderConfig) error
}

// Service ingests signing webhooks end to end: authenticate, parse,
// reconcile with the provider, and apply the resulting status transition.
type Service interface {
	Ingest(ctx context.Context, provider string, header http.Header, body []byte) error
}

var (
	ErrUnauthorized     = errors.New("webhook_unauthorized")
	ErrProviderNotFound = errors.New("signing_provider_not_found")
	ErrMalformedEvent   = errors.New("webhook_malformed_event")
	// ErrUnknownEvent marks event types that carry no meaning for the
	// document lifecycle. Ingest treats them as a successful no-op so the
	// provider does not retry.
	ErrUnknownEvent = errors.New("webhook_unknown_event")
	ErrUpstream     = errors.New("signing_provider_upstream_error")
)
