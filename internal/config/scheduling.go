package config

import (
	"errors"
	"log"
	"strings"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// SchedulingConfig is the operator-tunable recurrence policy.
type SchedulingConfig struct {
	// IssueWeekday is the weekday recurring documents are issued on.
	IssueWeekday string `mapstructure:"issueWeekday"`
	// CatchUp controls behavior when a template's due date is far in the
	// past (e.g. after downtime): "skip" computes the next date from today
	// and generates a single catch-up document; "strict" computes from the
	// stored due date.
	CatchUp string `mapstructure:"catchUp"`
	// DailyRunHour is the local hour of day the daily run fires at.
	DailyRunHour int `mapstructure:"dailyRunHour"`
}

const (
	CatchUpSkip   = "skip"
	CatchUpStrict = "strict"
)

func DefaultSchedulingConfig() SchedulingConfig {
	return SchedulingConfig{
		IssueWeekday: "monday",
		CatchUp:      CatchUpSkip,
		DailyRunHour: 9,
	}
}

// Weekday resolves IssueWeekday, defaulting to Monday on bad input.
func (c SchedulingConfig) Weekday() time.Weekday {
	switch strings.ToLower(strings.TrimSpace(c.IssueWeekday)) {
	case "sunday":
		return time.Sunday
	case "monday":
		return time.Monday
	case "tuesday":
		return time.Tuesday
	case "wednesday":
		return time.Wednesday
	case "thursday":
		return time.Thursday
	case "friday":
		return time.Friday
	case "saturday":
		return time.Saturday
	default:
		return time.Monday
	}
}

func (c SchedulingConfig) withDefaults() SchedulingConfig {
	defaults := DefaultSchedulingConfig()
	if strings.TrimSpace(c.IssueWeekday) == "" {
		c.IssueWeekday = defaults.IssueWeekday
	}
	if c.CatchUp != CatchUpSkip && c.CatchUp != CatchUpStrict {
		c.CatchUp = defaults.CatchUp
	}
	if c.DailyRunHour < 0 || c.DailyRunHour > 23 {
		c.DailyRunHour = defaults.DailyRunHour
	}
	return c
}

// SchedulingConfigHolder exposes the current policy and hot-reloads it
// when the config file changes.
type SchedulingConfigHolder struct {
	current atomic.Value // holds SchedulingConfig
}

func NewSchedulingConfigHolder() (*SchedulingConfigHolder, error) {
	v := viper.New()

	v.SetConfigName("scheduling")
	v.SetConfigType("yml")
	v.AddConfigPath("/var/lib/billora/config")
	v.AddConfigPath("/etc/billora")
	v.AddConfigPath(".")

	v.SetEnvPrefix("BILLORA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	holder := &SchedulingConfigHolder{}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
		holder.current.Store(DefaultSchedulingConfig())
		return holder, nil
	}

	cfg, err := unmarshalScheduling(v)
	if err != nil {
		return nil, err
	}
	holder.current.Store(cfg)

	v.OnConfigChange(func(fsnotify.Event) {
		reloaded, err := unmarshalScheduling(v)
		if err != nil {
			log.Printf("scheduling config reload failed: %v", err)
			return
		}
		holder.current.Store(reloaded)
	})
	v.WatchConfig()

	return holder, nil
}

// StaticSchedulingHolder returns a holder pinned to cfg, with no file
// watching. Intended for tests and single-shot tooling.
func StaticSchedulingHolder(cfg SchedulingConfig) *SchedulingConfigHolder {
	holder := &SchedulingConfigHolder{}
	holder.current.Store(cfg.withDefaults())
	return holder
}

// Current returns the active scheduling policy.
func (h *SchedulingConfigHolder) Current() SchedulingConfig {
	if v, ok := h.current.Load().(SchedulingConfig); ok {
		return v
	}
	return DefaultSchedulingConfig()
}

func unmarshalScheduling(v *viper.Viper) (SchedulingConfig, error) {
	var cfg SchedulingConfig
	if err := v.UnmarshalKey("scheduling", &cfg); err != nil {
		return SchedulingConfig{}, err
	}
	return cfg.withDefaults(), nil
}
