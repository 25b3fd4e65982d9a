package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// SchedulerMetrics captures recurrence scheduler health signals.
type SchedulerMetrics struct {
	runs               prometheus.Counter
	runDuration        prometheus.Observer
	templatesProcessed prometheus.Counter
	templatesSkipped   *prometheus.CounterVec
	documentsGenerated prometheus.Counter
	templateErrors     prometheus.Counter
}

// WebhookMetrics captures signing webhook ingestion signals.
type WebhookMetrics struct {
	events       *prometheus.CounterVec
	authFailures *prometheus.CounterVec
	upstream     *prometheus.CounterVec
}

var (
	once              sync.Once
	schedulerInstance *SchedulerMetrics
	webhookInstance   *WebhookMetrics
)

// Scheduler returns the singleton scheduler metrics registry.
func Scheduler() *SchedulerMetrics {
	initMetrics()
	return schedulerInstance
}

// Webhook returns the singleton webhook metrics registry.
func Webhook() *WebhookMetrics {
	initMetrics()
	return webhookInstance
}

func initMetrics() {
	once.Do(func() {
		schedulerInstance = newSchedulerMetrics(prometheus.DefaultRegisterer)
		webhookInstance = newWebhookMetrics(prometheus.DefaultRegisterer)
	})
}

func newSchedulerMetrics(registerer prometheus.Registerer) *SchedulerMetrics {
	m := &SchedulerMetrics{
		runs: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "billora_scheduler_runs_total",
			Help: "Number of recurrence scheduler runs.",
		}),
		templatesProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "billora_scheduler_templates_processed_total",
			Help: "Number of due templates processed.",
		}),
		templatesSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "billora_scheduler_templates_skipped_total",
			Help: "Number of due templates skipped, by reason.",
		}, []string{"reason"}),
		documentsGenerated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "billora_scheduler_documents_generated_total",
			Help: "Number of documents minted by the scheduler.",
		}),
		templateErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "billora_scheduler_template_errors_total",
			Help: "Number of per-template processing failures.",
		}),
	}
	duration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "billora_scheduler_run_duration_seconds",
		Help:    "Duration of scheduler runs.",
		Buckets: prometheus.DefBuckets,
	})
	m.runDuration = duration

	for _, c := range []prometheus.Collector{
		m.runs, m.templatesProcessed, m.templatesSkipped,
		m.documentsGenerated, m.templateErrors, duration,
	} {
		if err := registerer.Register(c); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
				panic(err)
			}
		}
	}
	return m
}

func newWebhookMetrics(registerer prometheus.Registerer) *WebhookMetrics {
	m := &WebhookMetrics{
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "billora_signing_webhook_events_total",
			Help: "Signing webhook events received, by provider and outcome.",
		}, []string{"provider", "outcome"}),
		authFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "billora_signing_webhook_auth_failures_total",
			Help: "Signing webhook authentication failures, by provider.",
		}, []string{"provider"}),
		upstream: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "billora_signing_webhook_upstream_errors_total",
			Help: "Failures reaching the signing provider status API.",
		}, []string{"provider"}),
	}
	for _, c := range []prometheus.Collector{m.events, m.authFailures, m.upstream} {
		if err := registerer.Register(c); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
				panic(err)
			}
		}
	}
	return m
}

func (m *SchedulerMetrics) IncRun() { m.runs.Inc() }

func (m *SchedulerMetrics) IncProcessed() { m.templatesProcessed.Inc() }

func (m *SchedulerMetrics) IncGenerated() { m.documentsGenerated.Inc() }

func (m *SchedulerMetrics) IncTemplateError() { m.templateErrors.Inc() }


func (m *SchedulerMetrics) IncSkipped(reason string) {
	m.templatesSkipped.WithLabelValues(reason).Inc()
}

func (m *SchedulerMetrics) ObserveRunDuration(d time.Duration) {
	m.runDuration.Observe(d.Seconds())
}

func (m *WebhookMetrics) IncEvent(provider, outcome string) {
	m.events.WithLabelValues(provider, outcome).Inc()
}

func (m *WebhookMetrics) IncAuthFailure(provider string) {
	m.authFailures.WithLabelValues(provider).Inc()
}

func (m *WebhookMetrics) IncUpstreamError(provider string) {
	m.upstream.WithLabelValues(provider).Inc()
}
