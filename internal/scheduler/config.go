package scheduler

import (
	"errors"
	"time"
)

var ErrInvalidConfig = errors.New("scheduler_invalid_config")

// Config controls the run loop cadence and the distributed run lock.
// The scheduling policy itself (issue weekday, catch-up mode, run hour)
// is operator config and lives in the hot-reloaded scheduling file.
type Config struct {
	// TickInterval is how often the loop checks whether today's run is due.
	TickInterval time.Duration
	LockKey      string
	LockTTL      time.Duration
}

func DefaultConfig() Config {
	return Config{
		TickInterval: time.Minute,
		LockKey:      "billora:scheduler:daily_run",
		LockTTL:      10 * time.Minute,
	}
}

func (c Config) withDefaults() Config {
	defaults := DefaultConfig()
	if c.TickInterval <= 0 {
		c.TickInterval = defaults.TickInterval
	}
	if c.LockKey == "" {
		c.LockKey = defaults.LockKey
	}
	if c.LockTTL <= 0 {
		c.LockTTL = defaults.LockTTL
	}
	return c
}

func ProvideConfig() Config {
	return DefaultConfig()
}
