// Package service wires the throttler, the fact store, the fetch workers and
// the reference tables into the object the HTTP API depends on.
package service

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/okian/tradeflow/internal/adapters/mq/queue"
	"github.com/okian/tradeflow/internal/adapters/mq/worker"
	"github.com/okian/tradeflow/internal/adapters/repository"
	"github.com/okian/tradeflow/internal/domain/model"
	"github.com/okian/tradeflow/internal/domain/panel"
	"github.com/okian/tradeflow/internal/domain/reference"
	"github.com/okian/tradeflow/pkg/logger"
	"github.com/okian/tradeflow/pkg/metrics"
)

const defaultPanelWait = 90 * time.Second

// Stats is the runtime summary served by the stats endpoint.
type Stats struct {
	Started    bool           `json:"started"`
	Facts      int            `json:"facts"`
	Throttler  ThrottlerStats `json:"throttler"`
	JobQueue   int            `json:"jobQueue"`
	Workers    int            `json:"workers"`
	Goroutines int            `json:"goroutines"`
}

// Service owns every process-wide component. It is created once at startup
// and passed to whatever needs it.
type Service struct {
	mu sync.RWMutex

	fetcher   worker.Fetcher
	refs      *reference.Tables
	store     repository.Store
	jobs      *queue.InMemoryQueue
	pool      *worker.Pool
	throttler *Throttler

	workerCount   int
	queueSize     int
	panelWait     time.Duration
	throttlerOpts []ThrottlerOption

	started bool
	logger  logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of fetch workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the capacity of the fetch job queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithPanelWait bounds how long a panel request waits for its data.
func WithPanelWait(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.panelWait = d
		}
	}
}

// WithStore replaces the fact store.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithThrottlerOptions passes options to the throttler built by Start.
func WithThrottlerOptions(opts ...ThrottlerOption) Option {
	return func(s *Service) {
		s.throttlerOpts = append(s.throttlerOpts, opts...)
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a Service fetching through fetcher and labelling through
// refs. Nothing runs until Start.
func New(fetcher worker.Fetcher, refs *reference.Tables, opts ...Option) *Service {
	s := &Service{
		fetcher:     fetcher,
		refs:        refs,
		workerCount: 2,
		queueSize:   256,
		panelWait:   defaultPanelWait,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start builds the store, the job queue, the worker pool and the throttler.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.fetcher == nil || s.refs == nil {
		return ErrMissingDependency
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}

	if s.store == nil {
		s.store = repository.NewFactStore()
	}
	s.jobs = queue.NewInMemoryQueue(queue.WithCapacity(s.queueSize))
	s.throttler = NewThrottler(s.jobs, s.throttlerOpts...)
	s.pool = worker.NewPool(s.workerCount, s.jobs, s.fetcher, s.store, worker.WithPacer(s.throttler.Pace))
	s.pool.Start(context.WithoutCancel(ctx))

	s.started = true
	s.logger.Info(ctx, "tradeflow service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.Duration("panelWait", s.panelWait),
	)
	return nil
}

// Stop cancels in-flight fetches and drains the workers.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return nil
	}
	s.logger.Info(ctx, "stopping tradeflow service...")

	s.throttler.Close()
	err := s.pool.Shutdown(ctx)

	s.started = false
	s.logger.Info(ctx, "tradeflow service stopped")
	return err
}

func (s *Service) running() (*Throttler, repository.Store, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return nil, nil, ErrNotStarted
	}
	return s.throttler, s.store, nil
}

// Submit forwards to the throttler.
func (s *Service) Submit(ctx context.Context, q model.Query, notify func(Outcome)) {
	t, _, err := s.running()
	if err != nil {
		if notify != nil {
			notify(Outcome{Err: err})
		}
		return
	}
	t.Submit(ctx, q, notify)
}

// Panel plans the panel for the selection, waits for its upstream query to
// be in the store and assembles the payload.
func (s *Service) Panel(ctx context.Context, name panel.Name, f model.Filters) (panel.Result, error) {
	t, store, err := s.running()
	if err != nil {
		return panel.Result{}, err
	}

	plan, err := panel.Build(name, f, s.refs)
	if err != nil {
		return panel.Result{}, err
	}
	if plan.Hidden {
		return panel.Assemble(plan, nil, s.refs), nil
	}

	waitCtx, cancel := context.WithTimeout(ctx, s.panelWait)
	defer cancel()
	if err := t.Await(waitCtx, plan.Query); err != nil {
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			err = fmt.Errorf("%w: %s", ErrPanelTimeout, plan.Query.Signature())
		}
		metrics.RecordErrorByComponent("service", "panel")
		s.logger.Error(ctx, "panel query failed",
			logger.String("panel", string(name)),
			logger.String("signature", plan.Query.Signature()),
			logger.Error(err),
		)
		return panel.Result{}, err
	}

	facts, err := store.Query(ctx, plan.Filter, plan.Limit)
	if err != nil {
		return panel.Result{}, fmt.Errorf("query store for %s: %w", name, err)
	}
	res := panel.Assemble(plan, facts, s.refs)
	if name == panel.YearChart {
		years, err := store.Years(ctx, plan.Filter)
		if err != nil {
			return panel.Result{}, fmt.Errorf("query years for %s: %w", name, err)
		}
		res.Years = panel.YearSpan(years)
	}
	return res, nil
}

// Reference returns the selectable entries of a reference table.
func (s *Service) Reference(table reference.Table) []reference.Entry {
	return s.refs.Select(table)
}

// Cancel aborts every in-flight fetch.
func (s *Service) Cancel(ctx context.Context) (int, error) {
	t, _, err := s.running()
	if err != nil {
		return 0, err
	}
	n := t.Cancel()
	s.logger.Info(ctx, "cancel requested", logger.Int("aborted", n))
	return n, nil
}

// Stats returns service statistics for monitoring.
func (s *Service) Stats(ctx context.Context) Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := Stats{
		Started:    s.started,
		Workers:    s.workerCount,
		Goroutines: runtime.NumGoroutine(),
	}
	if s.started {
		st.Facts = s.store.Count(ctx)
		st.Throttler = s.throttler.Stats()
		st.JobQueue = s.jobs.Len(ctx)
		metrics.UpdateSystemGoroutineCount(st.Goroutines)
	}
	return st
}
