package repository

import (
	"context"
	"math"
	"math/rand/v2"
	"slices"
	"sync"
	"time"

	"github.com/okian/tradeflow/internal/domain/model"
	"github.com/okian/tradeflow/pkg/logger"
	"github.com/okian/tradeflow/pkg/metrics"
)

// FactStore is an append-only, in-memory Store indexed along six
// dimensions: a treap on value and hash posting lists on reporter, partner,
// year, commodity and flow. Posting lists hold sequence numbers ascending.
type FactStore struct {
	mu    sync.RWMutex
	facts []model.TradeFact // by sequence number
	root  *node
	keys  map[model.FactKey]uint32

	byReporter  map[int][]uint32
	byPartner   map[int][]uint32
	byYear      map[int][]uint32
	byCommodity map[string][]uint32
	byFlow      map[model.Flow][]uint32

	rng      *rand.Rand
	seed     uint64
	seeded   bool
	capacity int
	logger   logger.Logger
}

var _ Store = (*FactStore)(nil)

// NewFactStore constructs an empty fact store.
func NewFactStore(opts ...Option) *FactStore {
	s := &FactStore{
		capacity: 1024,
		logger:   logger.Get().Named("factstore"),
	}
	for _, opt := range opts {
		opt(s)
	}
	if !s.seeded {
		s.seed = rand.Uint64()
	}
	s.rng = rand.New(rand.NewPCG(s.seed, s.seed^0x9e3779b97f4a7c15))
	s.facts = make([]model.TradeFact, 0, s.capacity)
	s.keys = make(map[model.FactKey]uint32, s.capacity)
	s.byReporter = make(map[int][]uint32)
	s.byPartner = make(map[int][]uint32)
	s.byYear = make(map[int][]uint32)
	s.byCommodity = make(map[string][]uint32)
	s.byFlow = make(map[model.Flow][]uint32, 2)
	return s
}

// Query implements Store.Query.
func (s *FactStore) Query(ctx context.Context, filter model.Filter, limit int) ([]model.TradeFact, error) {
	start := time.Now()
	defer func() {
		metrics.RecordStoreQueryLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()

	if limit < 0 {
		metrics.RecordErrorByComponent("repository", "invalid_limit")
		return nil, ErrInvalidLimit
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.query(filter, limit), nil
}

// query runs filter against the indexes. Caller holds s.mu.
func (s *FactStore) query(filter model.Filter, limit int) []model.TradeFact {
	postings, indexed := s.plan(filter)
	if !indexed {
		return s.scanTreap(filter, limit)
	}

	out := make([]model.TradeFact, 0, min(len(postings), max(limit, 16)))
	seqs := make([]uint32, 0, len(postings))
	for _, seq := range postings {
		if filter.Match(s.facts[seq]) {
			seqs = append(seqs, seq)
		}
	}
	slices.SortFunc(seqs, func(a, b uint32) int {
		switch {
		case less(s.facts[a].Value, a, s.facts[b].Value, b):
			return -1
		case less(s.facts[b].Value, b, s.facts[a].Value, a):
			return 1
		default:
			return 0
		}
	})
	if limit > 0 && len(seqs) > limit {
		seqs = seqs[:limit]
	}
	for _, seq := range seqs {
		out = append(out, s.facts[seq])
	}
	return out
}

// plan picks the smallest posting list among the exact-match dimensions of
// filter. indexed is false when no dimension is an exact match.
func (s *FactStore) plan(filter model.Filter) (postings []uint32, indexed bool) {
	consider := func(list []uint32) {
		if !indexed || len(list) < len(postings) {
			postings = list
		}
		indexed = true
	}
	if filter.Reporter.IsToken() {
		n, ok := filter.Reporter.Int()
		consider(s.lookupInt(s.byReporter, n, ok))
	}
	if filter.Partner.IsToken() {
		n, ok := filter.Partner.Int()
		consider(s.lookupInt(s.byPartner, n, ok))
	}
	if filter.Year.IsToken() {
		n, ok := filter.Year.Int()
		consider(s.lookupInt(s.byYear, n, ok))
	}
	switch {
	case !filter.Commodity.IsSet():
		consider(s.byCommodity[model.CommodityTotal])
	case filter.Commodity.IsToken() && !filter.Commodity.Is(model.CommodityAG2):
		consider(s.byCommodity[filter.Commodity.String()])
	}
	if filter.Flow != model.FlowAll {
		consider(s.byFlow[filter.Flow])
	}
	return postings, indexed
}

func (s *FactStore) lookupInt(idx map[int][]uint32, n int, ok bool) []uint32 {
	if !ok {
		return nil
	}
	return idx[n]
}

// scanTreap walks the value order and stops once limit facts matched.
func (s *FactStore) scanTreap(filter model.Filter, limit int) []model.TradeFact {
	var out []model.TradeFact
	walk(s.root, func(seq uint32) bool {
		if f := s.facts[seq]; filter.Match(f) {
			out = append(out, f)
		}
		return limit == 0 || len(out) < limit
	})
	return out
}

// Merge implements Store.Merge. The dedupe scope is q.DedupeFilter(); facts
// outside it are still checked against the natural-key index, so a key is
// never stored twice.
func (s *FactStore) Merge(ctx context.Context, facts []model.TradeFact, q model.Query) (MergeResult, error) {
	if err := ctx.Err(); err != nil {
		return MergeResult{}, err
	}

	var res MergeResult
	s.mu.Lock()
	existing := s.query(q.DedupeFilter(), 0)
	res.Checked = len(existing)
	seen := make(map[model.TradeFact]struct{}, len(existing)+len(facts))
	for _, f := range existing {
		seen[f] = struct{}{}
	}

	for _, f := range facts {
		if !storable(f) {
			res.Invalid++
			continue
		}
		if _, dup := seen[f]; dup {
			res.Duplicates++
			continue
		}
		if seq, ok := s.keys[f.Key()]; ok {
			if stored := s.facts[seq]; stored.Value == f.Value {
				res.Duplicates++
			} else {
				res.Conflicts++
				s.logger.Warn(ctx, "conflicting fact rejected",
					logger.Any("key", f.Key()),
					logger.Float64("stored", stored.Value),
					logger.Float64("incoming", f.Value),
					logger.String("signature", q.Signature()),
				)
			}
			continue
		}
		s.insertLocked(f)
		seen[f] = struct{}{}
		res.Inserted++
	}
	total := len(s.facts)
	s.mu.Unlock()

	metrics.RecordMerge(res.Inserted, res.Duplicates, res.Conflicts)
	metrics.UpdateFactsTotal(total)
	if res.Invalid > 0 {
		metrics.RecordErrorByComponent("repository", "invalid_fact")
	}
	return res, nil
}

// insertLocked appends f to every index. Caller holds s.mu for writing.
func (s *FactStore) insertLocked(f model.TradeFact) {
	seq := uint32(len(s.facts))
	s.facts = append(s.facts, f)
	s.keys[f.Key()] = seq
	s.root = insert(s.root, seq, f.Value, s.rng.Uint64())
	s.byReporter[f.Reporter] = append(s.byReporter[f.Reporter], seq)
	s.byPartner[f.Partner] = append(s.byPartner[f.Partner], seq)
	s.byYear[f.Year] = append(s.byYear[f.Year], seq)
	s.byCommodity[f.Commodity] = append(s.byCommodity[f.Commodity], seq)
	s.byFlow[f.Flow] = append(s.byFlow[f.Flow], seq)
}

func storable(f model.TradeFact) bool {
	return f.Flow.Valid() &&
		f.Commodity != "" &&
		f.Commodity != model.CommodityAG2 &&
		!math.IsNaN(f.Value) && !math.IsInf(f.Value, 0)
}

// Years implements Store.Years.
func (s *FactStore) Years(ctx context.Context, filter model.Filter) ([]int, error) {
	facts, err := s.Query(ctx, filter, 0)
	if err != nil {
		return nil, err
	}
	years := make([]int, 0, 8)
	for _, f := range facts {
		years = append(years, f.Year)
	}
	slices.Sort(years)
	return slices.Compact(years), nil
}

// Count implements Store.Count.
func (s *FactStore) Count(_ context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.facts)
}
