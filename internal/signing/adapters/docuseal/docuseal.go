// Package docuseal adapts DocuSeal form webhooks. A completed form on an
// invoice means the client approved payment, so the claimed status is PAID.
package docuseal

import (
	"encoding/json"
	"net/http"
	"strconv"

	documentdomain "github.com/smallbiznis/billora/internal/document/domain"
	"github.com/smallbiznis/billora/internal/signing/domain"
)

const (
	ProviderName = "docuseal"

	secretHeader = "x-docuseal-secret"
)

type webhookBody struct {
	EventType string `json:"event_type"`
	Data      struct {
		ID json.Number `json:"id"`
	} `json:"data"`
}

type Adapter struct{}

func New() *Adapter { return &Adapter{} }

func (a *Adapter) Describe() domain.Descriptor {
	return domain.Descriptor{
		ID:   ProviderName,
		Name: "DocuSeal",
		Capabilities: []domain.Capability{
			domain.CapabilityWebhookAuth,
		},
	}
}

func (a *Adapter) VerifyWebhook(cfg domain.ProviderConfig, header http.Header, _ []byte) error {
	// DocuSeal sends the shared secret verbatim in a custom header.
	presented := header.Get(secretHeader)
	if presented == "" {
		return domain.ErrUnauthorized
	}
	if !domain.VerifyWebhookSecret(presented, cfg.WebhookSecretHash) {
		return domain.ErrUnauthorized
	}
	return nil
}

func (a *Adapter) ParseEvent(body []byte) (domain.Event, error) {
	var wb webhookBody
	if err := json.Unmarshal(body, &wb); err != nil {
		return domain.Event{}, domain.ErrMalformedEvent
	}
	if wb.EventType != "form.completed" {
		return domain.Event{}, domain.ErrUnknownEvent
	}
	id := wb.Data.ID.String()
	if id == "" {
		return domain.Event{}, domain.ErrMalformedEvent
	}
	if _, err := strconv.ParseInt(id, 10, 64); err != nil {
		return domain.Event{}, domain.ErrMalformedEvent
	}
	return domain.Event{
		ExternalID: id,
		Status:     documentdomain.StatusPaid,
	}, nil
}
