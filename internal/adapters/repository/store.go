// Package repository holds the in-memory Fact Store.
package repository

import (
	"context"

	"github.com/okian/tradeflow/internal/domain/model"
)

// MergeResult reports what a Merge did with each incoming fact.
type MergeResult struct {
	Inserted   int // appended to the store
	Duplicates int // identical fact already stored or repeated in the batch
	Conflicts  int // same key already stored with a different value; rejected
	Invalid    int // flow or commodity not storable
	Checked    int // stored facts inside the dedupe scope of the fetch
}

// Store provides read/append access to the trade facts fetched so far.
type Store interface {
	// Query returns the facts matching filter by value desc, insertion order
	// breaking ties, truncated to limit when limit > 0.
	Query(ctx context.Context, filter model.Filter, limit int) ([]model.TradeFact, error)

	// Merge appends the facts fetched for q, dropping duplicates and
	// rejecting writes that conflict with a stored value.
	Merge(ctx context.Context, facts []model.TradeFact, q model.Query) (MergeResult, error)

	// Years returns the distinct years of the facts matching filter, ascending.
	Years(ctx context.Context, filter model.Filter) ([]int, error)

	// Count returns the number of stored facts.
	Count(ctx context.Context) int
}
