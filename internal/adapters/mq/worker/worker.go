// Package worker executes fetch jobs: one upstream request and one store
// merge per job.
package worker

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/okian/tradeflow/internal/adapters/mq/queue"
	"github.com/okian/tradeflow/internal/adapters/repository"
	"github.com/okian/tradeflow/internal/domain/model"
	"github.com/okian/tradeflow/pkg/logger"
	"github.com/okian/tradeflow/pkg/metrics"
)

const (
	defaultWorkerCount  = 2
	poolShutdownTimeout = 30 * time.Second
)

// Fetcher runs a query against the upstream API.
type Fetcher interface {
	Fetch(ctx context.Context, q model.Query) ([]model.TradeFact, error)
}

// Merger folds fetched facts into the store.
type Merger interface {
	Merge(ctx context.Context, facts []model.TradeFact, q model.Query) (repository.MergeResult, error)
}

// Pacer blocks until the next upstream request may be sent. An error
// aborts the job without fetching.
type Pacer func(ctx context.Context) error

// Queue defines how workers receive jobs.
type Queue interface {
	Dequeue(ctx context.Context) <-chan queue.Job
}

// Worker processes fetch jobs.
type Worker interface {
	// Run starts the worker loop until ctx is canceled.
	Run(ctx context.Context)

	// Shutdown stops the worker after the job in hand.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker.
type InMemoryWorker struct {
	queue   Queue
	fetcher Fetcher
	merger  Merger
	pace    Pacer
	name    string

	shutdown     chan struct{}
	shutdownOnce sync.Once
	done         chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a new worker.
func NewInMemoryWorker(q Queue, fetcher Fetcher, merger Merger, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:    q,
		fetcher:  fetcher,
		merger:   merger,
		name:     "worker",
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
		logger:   logger.Get().Named("worker"),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.name != "worker" {
		w.logger = w.logger.Named(w.name)
	}
	return w
}

// Run starts the worker loop.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	jobs := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case job, ok := <-jobs:
			if !ok {
				return
			}
			w.process(ctx, job)
		}
	}
}

// Shutdown stops the worker.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	w.shutdownOnce.Do(func() { close(w.shutdown) })

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// process fetches and merges one job and always finishes it.
func (w *InMemoryWorker) process(ctx context.Context, job queue.Job) {
	start := time.Now()
	jobCtx, stop := mergeCancel(ctx, job.Context())
	defer stop()

	res := queue.Result{}
	var facts []model.TradeFact
	err := w.wait(jobCtx)
	if err == nil {
		facts, err = w.fetcher.Fetch(jobCtx, job.Query)
	}
	if err == nil {
		res.Merge, err = w.merger.Merge(jobCtx, facts, job.Query)
		if err != nil {
			metrics.RecordErrorByComponent("worker", "merge_error")
			err = fmt.Errorf("merge %s: %w", job.Query.Signature(), err)
		}
	}
	res.Err = err
	res.Elapsed = time.Since(start)
	metrics.RecordWorkerLatency(float64(res.Elapsed.Milliseconds()))

	if err != nil {
		w.logger.Debug(jobCtx, "fetch job failed",
			logger.String("job", job.ID),
			logger.String("signature", job.Query.Signature()),
			logger.Error(err),
		)
	} else {
		w.logger.Debug(jobCtx, "fetch job done",
			logger.String("job", job.ID),
			logger.String("signature", job.Query.Signature()),
			logger.Int("inserted", res.Merge.Inserted),
			logger.Duration("elapsed", res.Elapsed),
			logger.Duration("waited", start.Sub(job.Enqueued)),
		)
	}
	job.Finish(res)
}

func (w *InMemoryWorker) wait(ctx context.Context) error {
	if w.pace == nil {
		return nil
	}
	return w.pace(ctx)
}

// mergeCancel returns a context derived from job that is also canceled
// when the worker context ends.
func mergeCancel(worker, job context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(job)
	stop := context.AfterFunc(worker, cancel)
	return ctx, func() {
		stop()
		cancel()
	}
}

// Pool manages multiple workers.
type Pool struct {
	workers []*InMemoryWorker
	queue   Queue
	logger  logger.Logger
}

// NewPool creates a pool of workerCount workers reading from q. opts apply
// to every worker.
func NewPool(workerCount int, q Queue, fetcher Fetcher, merger Merger, opts ...Option) *Pool {
	if workerCount < 1 {
		workerCount = defaultWorkerCount
	}
	p := &Pool{
		workers: make([]*InMemoryWorker, workerCount),
		queue:   q,
		logger:  logger.Get().Named("worker-pool"),
	}
	for i := range workerCount {
		workerOpts := append([]Option{WithName("worker-" + strconv.Itoa(i))}, opts...)
		p.workers[i] = NewInMemoryWorker(q, fetcher, merger, workerOpts...)
	}
	return p
}

// Size returns the number of workers.
func (p *Pool) Size() int { return len(p.workers) }

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
	metrics.UpdateWorkerActiveCount(len(p.workers))
}

// Shutdown closes the queue and waits for the workers to drain it.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	var err error
	for i, w := range p.workers {
		select {
		case <-w.done:
		case <-shutdownCtx.Done():
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
			err = fmt.Errorf("shutdown timed out: %w", shutdownCtx.Err())
		}
	}
	metrics.UpdateWorkerActiveCount(0)
	return err
}
