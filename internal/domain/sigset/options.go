package sigset

// Option applies a configuration option to a Set.
type Option func(*Set)

// WithMaxSize bounds the set. When full, Add evicts the oldest signature.
// maxSize <= 0 leaves the set unbounded, which is the default.
func WithMaxSize(maxSize int) Option {
	return func(s *Set) {
		s.maxSize = maxSize
	}
}
