package repository

import "github.com/okian/tradeflow/pkg/logger"

// Option applies a configuration option to the FactStore.
type Option func(*FactStore)

// WithLogger sets the logger used to report rejected writes.
func WithLogger(l logger.Logger) Option {
	return func(s *FactStore) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithCapacity preallocates room for n facts.
func WithCapacity(n int) Option {
	return func(s *FactStore) {
		if n > 0 {
			s.capacity = n
		}
	}
}

// WithPrioritySeed makes treap priorities reproducible.
func WithPrioritySeed(seed uint64) Option {
	return func(s *FactStore) {
		s.seed = seed
		s.seeded = true
	}
}
