package reference

import "github.com/okian/tradeflow/pkg/logger"

// Option applies a configuration option to Tables.
type Option func(*Tables)

// WithLogger sets the logger used to report lookup misses.
func WithLogger(l logger.Logger) Option {
	return func(t *Tables) {
		if l != nil {
			t.logger = l
		}
	}
}
