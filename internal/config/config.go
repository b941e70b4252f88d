// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - New() returns a Config populated with defaults.
// - Load(ctx) layers defaults, an optional YAML file and TRADEFLOW_ env vars.
// - Validation failures wrap ErrInvalidConfig.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// APIBaseURL is the upstream statistics endpoint queried by the throttler.
	APIBaseURL string `koanf:"api_base_url"`

	// MaxRecords caps the rows requested per upstream query.
	MaxRecords int `koanf:"max_records"`

	// MinIntervalMS is the minimum spacing between two upstream requests.
	MinIntervalMS int `koanf:"min_interval_ms"`

	// RetryGraceMS is added to the remaining interval when a submission is deferred.
	RetryGraceMS int `koanf:"retry_grace_ms"`

	// RequestTimeoutMS bounds a single upstream request.
	RequestTimeoutMS int `koanf:"request_timeout_ms"`

	// MaxConflictRetries is how many times a 409 answer is retried per signature.
	MaxConflictRetries int `koanf:"max_conflict_retries"`

	// JobQueueSize bounds the fetch job queue.
	JobQueueSize int `koanf:"job_queue_size"`

	// WorkerCount sets the number of fetch workers.
	WorkerCount int `koanf:"worker_count"`

	// ReferenceDir holds the reference JSON/CSV files loaded at startup.
	ReferenceDir string `koanf:"reference_dir"`

	// PanelWaitMS bounds how long a panel request waits for its data.
	PanelWaitMS int `koanf:"panel_wait_ms"`
}

// New creates a Config holding the defaults.
func New() *Config {
	return &Config{
		LogLevel:           "info",
		Addr:               ":9080",
		APIBaseURL:         "http://comtrade.un.org/api/get",
		MaxRecords:         50_000,
		MinIntervalMS:      1100,
		RetryGraceMS:       100,
		RequestTimeoutMS:   75_000,
		MaxConflictRetries: 1,
		JobQueueSize:       256,
		WorkerCount:        2,
		ReferenceDir:       "data",
		PanelWaitMS:        90_000,
	}
}

// MinInterval returns MinIntervalMS as a duration.
func (c *Config) MinInterval() time.Duration {
	return time.Duration(c.MinIntervalMS) * time.Millisecond
}

// RetryGrace returns RetryGraceMS as a duration.
func (c *Config) RetryGrace() time.Duration {
	return time.Duration(c.RetryGraceMS) * time.Millisecond
}

// RequestTimeout returns RequestTimeoutMS as a duration.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutMS) * time.Millisecond
}

// PanelWait returns PanelWaitMS as a duration.
func (c *Config) PanelWait() time.Duration {
	return time.Duration(c.PanelWaitMS) * time.Millisecond
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.Addr) == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case strings.TrimSpace(c.APIBaseURL) == "":
		return fmt.Errorf("%w: api_base_url must not be empty", ErrInvalidConfig)
	case c.MinIntervalMS < 0:
		return fmt.Errorf("%w: min_interval_ms must not be negative", ErrInvalidConfig)
	case c.RetryGraceMS < 0:
		return fmt.Errorf("%w: retry_grace_ms must not be negative", ErrInvalidConfig)
	case c.RequestTimeoutMS <= 0:
		return fmt.Errorf("%w: request_timeout_ms must be positive", ErrInvalidConfig)
	case c.MaxConflictRetries < 0:
		return fmt.Errorf("%w: max_conflict_retries must not be negative", ErrInvalidConfig)
	case c.JobQueueSize <= 0:
		return fmt.Errorf("%w: job_queue_size must be positive", ErrInvalidConfig)
	case c.WorkerCount <= 0:
		return fmt.Errorf("%w: worker_count must be positive", ErrInvalidConfig)
	}
	return nil
}
