package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/smallbiznis/billora/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// WebhookDispatcher POSTs events as JSON to each configured sink URL.
type WebhookDispatcher struct {
	log    *zap.Logger
	client *http.Client
	sinks  []string
}

func NewWebhookDispatcher(log *zap.Logger, sinks []string) *WebhookDispatcher {
	return &WebhookDispatcher{
		log:    log.Named("notification"),
		client: &http.Client{Timeout: 10 * time.Second},
		sinks:  sinks,
	}
}

func (d *WebhookDispatcher) Dispatch(ctx context.Context, event Event) {
	if len(d.sinks) == 0 {
		return
	}

	body, err := json.Marshal(event)
	if err != nil {
		d.log.Warn("event marshal failed", zap.String("type", event.Type), zap.Error(err))
		return
	}

	for _, sink := range d.sinks {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, sink, bytes.NewReader(body))
		if err != nil {
			d.log.Warn("notification request build failed", zap.String("sink", sink), zap.Error(err))
			continue
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := d.client.Do(req)
		if err != nil {
			d.log.Warn("notification delivery failed",
				zap.String("sink", sink),
				zap.String("type", event.Type),
				zap.Error(err),
			)
			continue
		}
		_ = resp.Body.Close()
		if resp.StatusCode >= 300 {
			d.log.Warn("notification sink rejected event",
				zap.String("sink", sink),
				zap.String("type", event.Type),
				zap.Int("status", resp.StatusCode),
			)
		}
	}
}

func NewFromConfig(cfg config.Config, log *zap.Logger) Dispatcher {
	if len(cfg.NotificationSinks) == 0 {
		return NoOpDispatcher{}
	}
	return NewWebhookDispatcher(log, cfg.NotificationSinks)
}

var Module = fx.Module("notification",
	fx.Provide(NewFromConfig),
)
