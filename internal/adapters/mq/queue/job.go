package queue

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/okian/tradeflow/internal/adapters/repository"
	"github.com/okian/tradeflow/internal/domain/model"
)

// Result is what a worker reports back for a finished job.
type Result struct {
	JobID   string
	Merge   repository.MergeResult
	Elapsed time.Duration
	Err     error
}

// Job is one outbound fetch of a query. The job carries the context of the
// submission that created it so a global cancel reaches the transport.
type Job struct {
	ID       string
	Query    model.Query
	Enqueued time.Time

	ctx  context.Context //nolint:containedctx // a job outlives the call that enqueued it
	done func(Result)
}

// NewJob creates a job for q. done is called exactly once by the worker
// that executes it.
func NewJob(ctx context.Context, q model.Query, done func(Result)) Job {
	if done == nil {
		done = func(Result) {}
	}
	return Job{
		ID:       uuid.NewString(),
		Query:    q,
		Enqueued: time.Now(),
		ctx:      ctx,
		done:     done,
	}
}

// Context returns the job context; never nil.
func (j Job) Context() context.Context {
	if j.ctx == nil {
		return context.Background()
	}
	return j.ctx
}

// Finish reports res to the submitter.
func (j Job) Finish(res Result) {
	if j.done == nil {
		return
	}
	res.JobID = j.ID
	j.done(res)
}
