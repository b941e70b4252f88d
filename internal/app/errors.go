package service

import "errors"

// Sentinel errors of the service layer.
var (
	ErrClosed            = errors.New("throttler closed")
	ErrNotStarted        = errors.New("service not started")
	ErrMissingDependency = errors.New("service: fetcher and reference tables are required")
	ErrConflictRetry     = errors.New("conflict persisted after retry")
	ErrEnqueue           = errors.New("fetch job rejected")
	ErrPanelTimeout      = errors.New("panel data not ready in time")
)
