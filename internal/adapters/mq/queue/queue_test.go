package queue

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/okian/tradeflow/internal/domain/model"
)

func testJob(reporter int) Job {
	return NewJob(context.Background(), model.Query{Reporter: model.ID(reporter)}, nil)
}

func TestInMemoryQueue_BasicOperations(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(2))
	ctx := context.Background()

	if l := q.Len(ctx); l != 0 {
		t.Errorf("expected length 0, got %d", l)
	}

	job := testJob(76)
	if err := q.Enqueue(ctx, job); err != nil {
		t.Fatalf("expected enqueue to succeed, got %v", err)
	}
	if l := q.Len(ctx); l != 1 {
		t.Errorf("expected length 1, got %d", l)
	}

	got := <-q.Dequeue(ctx)
	if got.ID != job.ID {
		t.Errorf("expected job %s, got %s", job.ID, got.ID)
	}
	if got.Query.Signature() != "r=76&p=all&ps=now&cc=AG2" {
		t.Errorf("unexpected signature %q", got.Query.Signature())
	}
	if l := q.Len(ctx); l != 0 {
		t.Errorf("expected length 0, got %d", l)
	}
}

func TestInMemoryQueue_Capacity(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(2))
	ctx := context.Background()

	for i := range 2 {
		if err := q.Enqueue(ctx, testJob(i)); err != nil {
			t.Fatalf("enqueue %d: %v", i, err)
		}
	}
	if err := q.Enqueue(ctx, testJob(3)); !errors.Is(err, ErrFull) {
		t.Errorf("expected ErrFull, got %v", err)
	}
	if l := q.Len(ctx); l != 2 {
		t.Errorf("expected length 2, got %d", l)
	}
}

func TestInMemoryQueue_JobIDsAreUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := range 100 {
		j := testJob(i)
		if j.ID == "" || seen[j.ID] {
			t.Fatalf("duplicate or empty job id %q", j.ID)
		}
		seen[j.ID] = true
	}
}

func TestInMemoryQueue_Close(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(4))
	ctx := context.Background()

	if err := q.Enqueue(ctx, testJob(1)); err != nil {
		t.Fatal(err)
	}
	if err := q.Close(); err != nil {
		t.Fatal(err)
	}
	if err := q.Close(); err != nil {
		t.Errorf("second close should be a no-op, got %v", err)
	}
	if !q.IsClosed() {
		t.Error("expected queue to report closed")
	}
	if err := q.Enqueue(ctx, testJob(2)); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed, got %v", err)
	}

	var drained int
	for range q.Dequeue(ctx) {
		drained++
	}
	if drained != 1 {
		t.Errorf("expected the waiting job to be delivered after close, got %d", drained)
	}
}

func TestInMemoryQueue_CanceledContext(t *testing.T) {
	q := NewInMemoryQueue()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := q.Enqueue(ctx, testJob(1)); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}

	select {
	case _, ok := <-q.Dequeue(ctx):
		if ok {
			t.Error("expected no job on a canceled dequeue")
		}
	case <-time.After(time.Second):
		t.Error("dequeue channel was not closed")
	}
}

func TestJob_Finish(t *testing.T) {
	var got Result
	j := NewJob(context.Background(), model.Query{}, func(r Result) { got = r })
	j.Finish(Result{Err: ErrFull})

	if got.JobID != j.ID {
		t.Errorf("expected job id %s on the result, got %s", j.ID, got.JobID)
	}
	if !errors.Is(got.Err, ErrFull) {
		t.Errorf("expected error to be passed through, got %v", got.Err)
	}
	if j.Context() == nil {
		t.Error("expected a non-nil context")
	}
	if (Job{}).Context() == nil {
		t.Error("expected zero job to have a background context")
	}
}

func TestInMemoryQueue_ConcurrentAccess(t *testing.T) {
	const producers, perProducer = 10, 50
	q := NewInMemoryQueue(WithCapacity(producers * perProducer))
	ctx := context.Background()

	var wg sync.WaitGroup
	for p := range producers {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			for i := range perProducer {
				if err := q.Enqueue(ctx, testJob(p*perProducer+i)); err != nil {
					t.Errorf("enqueue: %v", err)
				}
			}
		}(p)
	}
	wg.Wait()

	if l := q.Len(ctx); l != producers*perProducer {
		t.Fatalf("expected %d jobs, got %d", producers*perProducer, l)
	}
	_ = q.Close()

	var count int
	for range q.Dequeue(ctx) {
		count++
	}
	if count != producers*perProducer {
		t.Errorf("expected to drain %d jobs, got %d", producers*perProducer, count)
	}
}
