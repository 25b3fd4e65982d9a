// Package documenso adapts Documenso webhooks and its document status API.
package documenso

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	documentdomain "github.com/smallbiznis/billora/internal/document/domain"
	"github.com/smallbiznis/billora/internal/signing/domain"
)

const (
	ProviderName = "documenso"

	secretHeader = "x-documenso-secret"
)

type webhookBody struct {
	Event   string `json:"event"`
	Payload struct {
		ID         int64  `json:"id"`
		ExternalID string `json:"externalId"`
		Status     string `json:"status"`
	} `json:"payload"`
}

type documentResponse struct {
	ID         int64  `json:"id"`
	ExternalID string `json:"externalId"`
	Status     string `json:"status"`
}

type Adapter struct {
	httpClient *http.Client
}

func New() *Adapter {
	return &Adapter{
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

func (a *Adapter) Describe() domain.Descriptor {
	return domain.Descriptor{
		ID:   ProviderName,
		Name: "Documenso",
		Capabilities: []domain.Capability{
			domain.CapabilityWebhookAuth,
			domain.CapabilityStatusAPI,
		},
	}
}

func (a *Adapter) VerifyWebhook(cfg domain.ProviderConfig, header http.Header, _ []byte) error {
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
	if wb.Payload.ID == 0 {
		return domain.Event{}, domain.ErrMalformedEvent
	}
	return domain.Event{
		ExternalID: strconv.FormatInt(wb.Payload.ID, 10),
		Status:     mapStatus(wb.Payload.Status),
	}, nil
}

// FetchStatus re-queries the document from the provider so the webhook
// payload's claim is never trusted on its own.
func (a *Adapter) FetchStatus(ctx context.Context, cfg domain.ProviderConfig, externalID string) (documentdomain.Status, error) {
	url := fmt.Sprintf("%s/documents/%s", apiBaseURL(cfg.BaseURL), externalID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+cfg.APIKey)

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return "", domain.ErrUpstream
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", domain.ErrUpstream
	}

	var doc documentResponse
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return "", domain.ErrUpstream
	}
	return mapStatus(doc.Status), nil
}

// apiBaseURL normalizes an operator-supplied server URL into the API root.
func apiBaseURL(base string) string {
	base = strings.TrimSuffix(base, "/")
	if !strings.Contains(base, "/api") {
		base += "/api/v2-beta"
	}
	return base
}

func mapStatus(providerStatus string) documentdomain.Status {
	switch strings.ToUpper(providerStatus) {
	case "DRAFT":
		return documentdomain.StatusDraft
	case "PENDING":
		return documentdomain.StatusSent
	case "COMPLETED":
		return documentdomain.StatusSigned
	case "REJECTED":
		return documentdomain.StatusRejected
	default:
		return ""
	}
}
