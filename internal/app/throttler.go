package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/okian/tradeflow/internal/adapters/comtrade"
	"github.com/okian/tradeflow/internal/adapters/mq/queue"
	"github.com/okian/tradeflow/internal/domain/model"
	"github.com/okian/tradeflow/internal/domain/sigset"
	"github.com/okian/tradeflow/pkg/logger"
	"github.com/okian/tradeflow/pkg/metrics"
)

const (
	defaultMinInterval        = 1100 * time.Millisecond
	defaultRetryGrace         = 100 * time.Millisecond
	defaultMaxConflictRetries = 1
)

// Outcome is one notification of a submission. Ready means the data of the
// query is in the store; Ready false with a nil Err means "not yet, a retry
// is scheduled".
type Outcome struct {
	Ready bool
	Err   error
}

// Done reports whether no further notification will follow.
func (o Outcome) Done() bool { return o.Ready || o.Err != nil }

// Enqueuer accepts fetch jobs.
type Enqueuer interface {
	Enqueue(ctx context.Context, j queue.Job) error
}

// ThrottlerStats is a snapshot of the throttler bookkeeping.
type ThrottlerStats struct {
	History     int       `json:"history"`
	Queued      int       `json:"queued"`
	InFlight    int       `json:"inFlight"`
	LastRequest time.Time `json:"lastRequest"`
	LastSend    time.Time `json:"lastSend"`
}

type inflightJob struct {
	id     string
	cancel context.CancelFunc
}

// Throttler spaces upstream requests and fetches each distinct query
// signature at most once per process. A signature is in at most one of
// history and inFlight at any time. Admission is spaced by lastRequest;
// the requests themselves are spaced again at send time through Pace.
type Throttler struct {
	mu          sync.Mutex
	history     *sigset.Set
	queue       *sigset.Set // waiting for a retry
	inFlight    *sigset.Set
	lastRequest time.Time
	lastSend    time.Time
	conflicts   map[string]int
	running     map[string]inflightJob
	closed      bool

	jobs               Enqueuer
	minInterval        time.Duration
	grace              time.Duration
	maxConflictRetries int
	scheduler          Scheduler
	now                func() time.Time
	logger             logger.Logger
}

// ThrottlerOption configures a Throttler.
type ThrottlerOption func(*Throttler)

// WithMinInterval sets the minimum spacing between two upstream requests.
func WithMinInterval(d time.Duration) ThrottlerOption {
	return func(t *Throttler) {
		if d >= 0 {
			t.minInterval = d
		}
	}
}

// WithRetryGrace sets the slack added to every retry delay.
func WithRetryGrace(d time.Duration) ThrottlerOption {
	return func(t *Throttler) {
		if d >= 0 {
			t.grace = d
		}
	}
}

// WithMaxConflictRetries sets how often a 409 is retried per signature.
func WithMaxConflictRetries(n int) ThrottlerOption {
	return func(t *Throttler) {
		if n >= 0 {
			t.maxConflictRetries = n
		}
	}
}

// WithScheduler replaces the timer used for retries.
func WithScheduler(s Scheduler) ThrottlerOption {
	return func(t *Throttler) {
		if s != nil {
			t.scheduler = s
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) ThrottlerOption {
	return func(t *Throttler) {
		if now != nil {
			t.now = now
		}
	}
}

// WithThrottlerLogger sets the throttler logger.
func WithThrottlerLogger(l logger.Logger) ThrottlerOption {
	return func(t *Throttler) {
		if l != nil {
			t.logger = l
		}
	}
}

// NewThrottler creates a throttler handing its fetches to jobs.
func NewThrottler(jobs Enqueuer, opts ...ThrottlerOption) *Throttler {
	t := &Throttler{
		history:            sigset.New(),
		queue:              sigset.New(),
		inFlight:           sigset.New(),
		conflicts:          make(map[string]int),
		running:            make(map[string]inflightJob),
		jobs:               jobs,
		minInterval:        defaultMinInterval,
		grace:              defaultRetryGrace,
		maxConflictRetries: defaultMaxConflictRetries,
		scheduler:          TimerScheduler,
		now:                time.Now,
		logger:             logger.Get().Named("throttler"),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Submit makes sure the data of q ends up in the store and reports through
// notify. notify may be called several times: once with Ready false per
// deferral, and finally with Ready true or an error. It is never called with
// t.mu held.
func (t *Throttler) Submit(ctx context.Context, q model.Query, notify func(Outcome)) {
	if notify == nil {
		notify = func(Outcome) {}
	}
	sig := q.Signature()

	t.mu.Lock()
	if t.closed {
		delete(t.conflicts, sig)
		t.mu.Unlock()
		notify(Outcome{Err: ErrClosed})
		return
	}
	if err := ctx.Err(); err != nil {
		t.queue.Remove(sig)
		delete(t.conflicts, sig)
		t.publishLocked()
		t.mu.Unlock()
		notify(Outcome{Err: err})
		return
	}
	if t.history.Has(sig) {
		t.mu.Unlock()
		metrics.RecordSubmission(metrics.OutcomeCached)
		notify(Outcome{Ready: true})
		return
	}

	now := t.now()
	elapsed := now.Sub(t.lastRequest)
	if elapsed < t.minInterval || t.inFlight.Has(sig) {
		delay := max(t.minInterval-elapsed+t.grace, t.grace)
		t.queue.Add(sig)
		t.publishLocked()
		t.mu.Unlock()

		metrics.RecordSubmission(metrics.OutcomeDeferred)
		metrics.RecordRetryScheduled()
		t.logger.Debug(ctx, "submission deferred",
			logger.String("signature", sig),
			logger.Duration("delay", delay),
		)
		t.scheduler.Schedule(delay, func() { t.Submit(ctx, q, notify) })
		notify(Outcome{})
		return
	}

	t.lastRequest = now
	t.inFlight.Add(sig)
	jobCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	job := queue.NewJob(jobCtx, q, func(res queue.Result) {
		t.complete(ctx, q, res, notify)
	})
	t.running[sig] = inflightJob{id: job.ID, cancel: cancel}
	t.publishLocked()
	t.mu.Unlock()

	metrics.RecordSubmission(metrics.OutcomeFetched)
	t.logger.Debug(ctx, "fetch enqueued",
		logger.String("signature", sig),
		logger.String("job", job.ID),
	)
	if err := t.jobs.Enqueue(jobCtx, job); err != nil {
		job.Finish(queue.Result{Err: fmt.Errorf("%w: %w", ErrEnqueue, err)})
	}
}

// complete applies the result of a fetch job.
func (t *Throttler) complete(ctx context.Context, q model.Query, res queue.Result, notify func(Outcome)) {
	sig := q.Signature()
	latency := float64(res.Elapsed.Milliseconds())

	t.mu.Lock()
	cur, owned := t.running[sig]
	owned = owned && cur.id == res.JobID
	if owned {
		cur.cancel()
		delete(t.running, sig)
		t.inFlight.Remove(sig)
	}
	t.queue.Remove(sig)

	if res.Err == nil {
		// a canceled job that still succeeded must not shadow a newer fetch
		if owned || !t.inFlight.Has(sig) {
			t.history.Add(sig)
			delete(t.conflicts, sig)
		}
		t.publishLocked()
		t.mu.Unlock()

		metrics.RecordFetch(metrics.FetchSuccess, latency)
		t.logger.Info(ctx, "query fetched",
			logger.String("signature", sig),
			logger.Int("inserted", res.Merge.Inserted),
			logger.Int("duplicates", res.Merge.Duplicates),
			logger.Int("conflicts", res.Merge.Conflicts),
			logger.Duration("elapsed", res.Elapsed),
		)
		notify(Outcome{Ready: true})
		return
	}

	if errors.Is(res.Err, comtrade.ErrConflict) {
		if t.conflicts[sig] < t.maxConflictRetries {
			t.conflicts[sig]++
			t.publishLocked()
			t.mu.Unlock()

			metrics.RecordFetch(metrics.FetchConflict, latency)
			t.logger.Info(ctx, "upstream conflict, resubmitting", logger.String("signature", sig))
			t.Submit(ctx, q, notify)
			notify(Outcome{})
			return
		}
		delete(t.conflicts, sig)
		res.Err = fmt.Errorf("%w: %s: %w", ErrConflictRetry, sig, res.Err)
	}
	t.publishLocked()
	t.mu.Unlock()

	if errors.Is(res.Err, comtrade.ErrCanceled) || errors.Is(res.Err, context.Canceled) {
		metrics.RecordFetch(metrics.FetchCanceled, latency)
		t.logger.Info(ctx, "fetch canceled", logger.String("signature", sig))
	} else {
		metrics.RecordFetch(metrics.FetchError, latency)
		metrics.RecordErrorByComponent("throttler", "fetch_error")
		t.logger.Error(ctx, "fetch failed",
			logger.String("signature", sig),
			logger.Error(res.Err),
		)
	}
	notify(Outcome{Err: res.Err})
}

// Pace blocks until MinInterval has passed since the previous upstream
// request was sent, then records the send. Workers call it right before
// the network request, so jobs that waited in the queue still leave spaced.
func (t *Throttler) Pace(ctx context.Context) error {
	for {
		t.mu.Lock()
		now := t.now()
		wait := t.lastSend.Add(t.minInterval).Sub(now)
		if wait <= 0 {
			t.lastSend = now
			t.mu.Unlock()
			return nil
		}
		t.mu.Unlock()

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// Await submits q and blocks until its data is in the store, the fetch
// failed, or ctx ends.
func (t *Throttler) Await(ctx context.Context, q model.Query) error {
	done := make(chan error, 1)
	var once sync.Once
	t.Submit(ctx, q, func(o Outcome) {
		if o.Done() {
			once.Do(func() { done <- o.Err })
		}
	})
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Cancel aborts every in-flight fetch and returns how many were aborted.
// Their signatures leave inFlight and never enter history.
func (t *Throttler) Cancel() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	n := len(t.running)
	for sig, job := range t.running {
		job.cancel()
		delete(t.running, sig)
		t.inFlight.Remove(sig)
	}
	t.publishLocked()
	if n > 0 {
		t.logger.Info(context.Background(), "in-flight fetches canceled", logger.Int("count", n))
	}
	return n
}

// Close cancels in-flight fetches and rejects further submissions.
func (t *Throttler) Close() {
	t.Cancel()
	t.mu.Lock()
	t.closed = true
	t.mu.Unlock()
}

// Stats returns a snapshot of the bookkeeping.
func (t *Throttler) Stats() ThrottlerStats {
	t.mu.Lock()
	defer t.mu.Unlock()
	return ThrottlerStats{
		History:     t.history.Len(),
		Queued:      t.queue.Len(),
		InFlight:    t.inFlight.Len(),
		LastRequest: t.lastRequest,
		LastSend:    t.lastSend,
	}
}

// Fetched reports whether the signature of q is in history.
func (t *Throttler) Fetched(q model.Query) bool {
	return t.history.Has(q.Signature())
}

// Pending returns the signatures waiting for a retry, oldest first.
func (t *Throttler) Pending() []string {
	return t.queue.Items()
}

func (t *Throttler) publishLocked() {
	metrics.UpdateThrottlerState(t.history.Len(), t.queue.Len(), t.inFlight.Len())
}
