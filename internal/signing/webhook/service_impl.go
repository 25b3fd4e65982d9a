// Package webhook ingests signing-provider callbacks and reconciles them
// into document status transitions.
package webhook

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	documentdomain "github.com/smallbiznis/billora/internal/document/domain"
	obsmetrics "github.com/smallbiznis/billora/internal/observability/metrics"
	signaturedomain "github.com/smallbiznis/billora/internal/signature/domain"
	"github.com/smallbiznis/billora/internal/signing/adapters"
	"github.com/smallbiznis/billora/internal/signing/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	Registry    *adapters.Registry
	Configs     domain.ConfigRepository
	Signatures  signaturedomain.Repository
	DocumentSvc documentdomain.Service
}

type Service struct {
	db          *gorm.DB
	log         *zap.Logger
	registry    *adapters.Registry
	configs     domain.ConfigRepository
	signatures  signaturedomain.Repository
	documentSvc documentdomain.Service
}

func New(p Params) domain.Service {
	return &Service{
		db:          p.DB,
		log:         p.Log.Named("signing.webhook"),
		registry:    p.Registry,
		configs:     p.Configs,
		signatures:  p.Signatures,
		documentSvc: p.DocumentSvc,
	}
}

// Ingest authenticates and applies one webhook delivery. Until the secret
// check passes, nothing is read from or written to application state.
func (s *Service) Ingest(ctx context.Context, provider string, header http.Header, body []byte) error {
	whMetrics := obsmetrics.Webhook()
	provider = strings.ToLower(strings.TrimSpace(provider))

	adapter := s.registry.Get(provider)
	if adapter == nil {
		whMetrics.IncEvent(provider, "unknown_provider")
		return domain.ErrProviderNotFound
	}

	cfg, err := s.configs.FindByProvider(ctx, s.db, provider)
	if err != nil {
		return err
	}
	if cfg == nil || !cfg.IsActive {
		whMetrics.IncEvent(provider, "provider_disabled")
		return domain.ErrProviderNotFound
	}

	if err := adapter.VerifyWebhook(*cfg, header, body); err != nil {
		whMetrics.IncAuthFailure(provider)
		s.log.Warn("webhook authentication failed", zap.String("provider", provider))
		return domain.ErrUnauthorized
	}

	event, err := adapter.ParseEvent(body)
	if errors.Is(err, domain.ErrUnknownEvent) {
		whMetrics.IncEvent(provider, "ignored")
		return nil
	}
	if err != nil {
		whMetrics.IncEvent(provider, "malformed")
		return err
	}

	status := event.Status
	if fetcher, ok := adapter.(domain.StatusFetcher); ok {
		// The payload's claim is advisory; the provider's status API is
		// the source of truth.
		status, err = fetcher.FetchStatus(ctx, *cfg, event.ExternalID)
		if err != nil {
			whMetrics.IncUpstreamError(provider)
			s.log.Error("provider status fetch failed",
				zap.String("provider", provider),
				zap.String("external_id", event.ExternalID),
				zap.Error(err),
			)
			return fmt.Errorf("%w: %s", domain.ErrUpstream, provider)
		}
	}
	if status == "" {
		whMetrics.IncEvent(provider, "ignored")
		return nil
	}

	sig, err := s.signatures.FindActiveByExternalID(ctx, s.db, provider, event.ExternalID)
	if err != nil {
		return err
	}
	if sig == nil {
		whMetrics.IncEvent(provider, "unmatched")
		s.log.Info("webhook for unknown or inactive signature",
			zap.String("provider", provider),
			zap.String("external_id", event.ExternalID),
		)
		return nil
	}

	if _, err := s.documentSvc.Transition(ctx, sig.DocumentID, status); err != nil {
		if errors.Is(err, documentdomain.ErrInvalidTransition) {
			// Out-of-order or stale delivery. Acknowledge so the
			// provider stops retrying.
			whMetrics.IncEvent(provider, "rejected_transition")
			s.log.Warn("webhook transition rejected",
				zap.String("provider", provider),
				zap.String("document_id", sig.DocumentID.String()),
				zap.String("target", string(status)),
			)
			return nil
		}
		return err
	}

	if err := s.signatures.UpdateProviderStatus(ctx, s.db, sig.ID, string(status)); err != nil {
		return err
	}

	whMetrics.IncEvent(provider, "applied")
	return nil
}
