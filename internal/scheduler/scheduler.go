// Package scheduler drives the daily recurrence sweep: it finds templates
// whose due date has arrived, mints one document per template per due day,
// and advances each template's schedule.
package scheduler

import (
	"context"
	"errors"
	"time"

	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/billora/internal/clock"
	"github.com/smallbiznis/billora/internal/config"
	documentdomain "github.com/smallbiznis/billora/internal/document/domain"
	obsmetrics "github.com/smallbiznis/billora/internal/observability/metrics"
	recurrencedomain "github.com/smallbiznis/billora/internal/recurrence/domain"
	"github.com/smallbiznis/billora/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	Clock       clock.Clock
	AppConfig   config.Config
	Policy      *config.SchedulingConfigHolder
	Templates   recurrencedomain.Repository
	Documents   documentdomain.Repository
	DocumentSvc documentdomain.Service
	Redis       *redis.Client `optional:"true"`
	Config      Config        `optional:"true"`
}

type Scheduler struct {
	db          *gorm.DB
	log         *zap.Logger
	cfg         Config
	clock       clock.Clock
	loc         *time.Location
	policy      *config.SchedulingConfigHolder
	templates   recurrencedomain.Repository
	documents   documentdomain.Repository
	documentSvc documentdomain.Service
	locker      *Locker

	lastRunDay time.Time
}

func New(p Params) (*Scheduler, error) {
	if p.DB == nil || p.Log == nil || p.Clock == nil || p.Policy == nil || p.Templates == nil || p.Documents == nil || p.DocumentSvc == nil {
		return nil, ErrInvalidConfig
	}
	loc, err := time.LoadLocation(p.AppConfig.BusinessTimezone)
	if err != nil {
		loc = time.UTC
	}
	return &Scheduler{
		db:          p.DB,
		log:         p.Log.Named("scheduler").With(zap.String("component", "scheduler")),
		cfg:         p.Config.withDefaults(),
		clock:       p.Clock,
		loc:         loc,
		policy:      p.Policy,
		templates:   p.Templates,
		documents:   p.Documents,
		documentSvc: p.DocumentSvc,
		locker:      NewLocker(p.Redis),
	}, nil
}

// RunOnce performs one generation sweep. Errors from individual templates
// are joined and returned but never stop the sweep.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	start := s.clock.Now()
	schedMetrics := obsmetrics.Scheduler()
	schedMetrics.IncRun()
	defer func() { schedMetrics.ObserveRunDuration(time.Since(start)) }()

	if s.locker != nil {
		// One lock per calendar day, so concurrent nodes contend on
		// today's sweep only.
		lockKey := s.cfg.LockKey + ":" + recurrencedomain.DayOf(s.clock.Now(), s.loc).Format("2006-01-02")
		token, ok, err := s.locker.TryLock(ctx, lockKey, s.cfg.LockTTL)
		if err != nil {
			s.log.Warn("run lock unavailable, proceeding unlocked", zap.Error(err))
		} else if !ok {
			s.log.Info("run lock held elsewhere, skipping sweep")
			return nil
		} else {
			defer func() {
				if err := s.locker.Release(ctx, lockKey, token); err != nil {
					s.log.Warn("run lock release failed", zap.Error(err))
				}
			}()
		}
	}

	today := recurrencedomain.DayOf(s.clock.Now(), s.loc)
	policy := s.policy.Current()

	due, err := s.templates.ListDue(ctx, s.db, today)
	if err != nil {
		return err
	}

	var jobErr error
	for _, tmpl := range due {
		if ctx.Err() != nil {
			return errors.Join(jobErr, ctx.Err())
		}
		if err := s.processTemplate(ctx, tmpl, today, policy); err != nil {
			schedMetrics.IncTemplateError()
			s.log.Error("template generation failed",
				zap.String("template_id", tmpl.ID.String()),
				zap.Error(err),
			)
			jobErr = errors.Join(jobErr, err)
		}
	}
	return jobErr
}

func (s *Scheduler) processTemplate(ctx context.Context, tmpl recurrencedomain.Template, today time.Time, policy config.SchedulingConfig) error {
	schedMetrics := obsmetrics.Scheduler()

	if tmpl.MaxOccurrences != nil {
		count, err := s.documents.CountByTemplate(ctx, s.db, tmpl.ID)
		if err != nil {
			return err
		}
		if count >= int64(*tmpl.MaxOccurrences) {
			schedMetrics.IncSkipped("ceiling")
			s.log.Info("occurrence ceiling reached",
				zap.String("template_id", tmpl.ID.String()),
				zap.Int64("count", count),
			)
			return nil
		}
	}

	items, err := s.templates.FindItems(ctx, s.db, tmpl.ID)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		schedMetrics.IncSkipped("no_items")
		s.log.Warn("template has no items", zap.String("template_id", tmpl.ID.String()))
		return nil
	}

	// The pair (template, generated-for day) is unique in storage, so a
	// crashed or concurrent sweep can never mint the same day twice.
	generatedFor := asUTCDay(tmpl.NextDueDate.In(s.loc))

	doc, err := s.documentSvc.Create(ctx, documentdomain.CreateDocumentRequest{
		Kind:                 documentdomain.KindInvoice,
		ClientID:             tmpl.ClientID,
		Items:                itemInputs(items),
		Currency:             tmpl.Currency,
		PaymentMethod:        tmpl.PaymentMethod,
		PaymentDetails:       tmpl.PaymentDetails,
		Notes:                tmpl.Notes,
		RecurrenceTemplateID: &tmpl.ID,
		GeneratedForDate:     &generatedFor,
	})
	switch {
	case err == nil:
		schedMetrics.IncGenerated()
		s.log.Info("document generated",
			zap.String("template_id", tmpl.ID.String()),
			zap.String("document_id", doc.ID.String()),
			zap.Time("generated_for", generatedFor),
		)
		if tmpl.AutoSend {
			if _, err := s.documentSvc.Send(ctx, doc.ID); err != nil {
				// Auto-send failure never blocks the schedule.
				s.log.Warn("auto-send failed",
					zap.String("document_id", doc.ID.String()),
					zap.Error(err),
				)
			}
		}
	case db.IsDuplicateKeyErr(err):
		schedMetrics.IncSkipped("already_generated")
		s.log.Info("document already generated for day",
			zap.String("template_id", tmpl.ID.String()),
			zap.Time("generated_for", generatedFor),
		)
	default:
		return err
	}

	base := tmpl.NextDueDate
	if policy.CatchUp == config.CatchUpSkip && base.Before(today) {
		base = today
	}
	next := recurrencedomain.NextDueDate(base, tmpl.Frequency, policy.Weekday())
	if err := s.templates.Advance(ctx, s.db, tmpl.ID, next, today); err != nil {
		return err
	}
	schedMetrics.IncProcessed()
	return nil
}

// RunForever fires the sweep once per local day at the configured hour.
func (s *Scheduler) RunForever(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.TickInterval)
	defer ticker.Stop()

	for {
		s.Tick(ctx)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// Tick runs the sweep when today's run hour has been reached and the sweep
// has not yet run today.
func (s *Scheduler) Tick(ctx context.Context) {
	now := s.clock.Now().In(s.loc)
	today := recurrencedomain.DayOf(now, s.loc)
	if !today.After(s.lastRunDay) {
		return
	}
	if now.Hour() < s.policy.Current().DailyRunHour {
		return
	}
	if err := s.RunOnce(ctx); err != nil {
		s.log.Warn("scheduler run finished with errors", zap.Error(err))
	}
	s.lastRunDay = today
}

func itemInputs(items []recurrencedomain.TemplateItem) []documentdomain.ItemInput {
	inputs := make([]documentdomain.ItemInput, 0, len(items))
	for _, item := range items {
		inputs = append(inputs, documentdomain.ItemInput{
			Description: item.Description,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			VATRate:     item.VATRate,
			ItemType:    documentdomain.ItemType(item.ItemType),
			SortOrder:   item.SortOrder,
		})
	}
	return inputs
}

// asUTCDay keeps only the calendar date, pinned to UTC midnight, so the
// generated-for key is stable regardless of server timezone.
func asUTCDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
