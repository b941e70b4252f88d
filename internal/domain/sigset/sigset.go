// Package sigset provides insertion-ordered sets of request signatures.
package sigset

import (
	"sync"
)

// node is one entry of the insertion-ordered list.
type node struct {
	sig        string
	prev, next *node
}

func (n *node) reset() {
	n.sig = ""
	n.prev = nil
	n.next = nil
}

// Set is a concurrency-safe set of signatures that remembers insertion order.
// The zero value is not usable; call New.
type Set struct {
	mu       sync.RWMutex
	items    map[string]*node
	head     *node // oldest
	tail     *node // newest
	maxSize  int
	nodePool sync.Pool
}

// New creates an empty Set.
func New(opts ...Option) *Set {
	s := &Set{}
	for _, opt := range opts {
		opt(s)
	}
	s.items = make(map[string]*node)
	s.nodePool = sync.Pool{
		New: func() any {
			return &node{}
		},
	}
	return s
}

// Has reports whether sig is in the set.
func (s *Set) Has(sig string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.items[sig]
	return ok
}

// Add inserts sig at the end of the order. It returns false when sig was
// already present, in which case its position is unchanged.
func (s *Set) Add(sig string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[sig]; ok {
		return false
	}
	if s.maxSize > 0 && len(s.items) >= s.maxSize {
		s.unlink(s.head)
	}

	n := s.nodePool.Get().(*node)
	n.sig = sig
	n.prev = s.tail
	if s.tail != nil {
		s.tail.next = n
	} else {
		s.head = n
	}
	s.tail = n
	s.items[sig] = n
	return true
}

// Remove deletes sig and reports whether it was present.
func (s *Set) Remove(sig string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.items[sig]
	if !ok {
		return false
	}
	s.unlink(n)
	return true
}

// unlink removes n from the list and the map. Caller holds s.mu.
func (s *Set) unlink(n *node) {
	if n == nil {
		return
	}
	if n.prev != nil {
		n.prev.next = n.next
	} else {
		s.head = n.next
	}
	if n.next != nil {
		n.next.prev = n.prev
	} else {
		s.tail = n.prev
	}
	delete(s.items, n.sig)
	n.reset()
	s.nodePool.Put(n)
}

// Len returns the number of signatures held.
func (s *Set) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// Items returns the signatures oldest first.
func (s *Set) Items() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]string, 0, len(s.items))
	for n := s.head; n != nil; n = n.next {
		out = append(out, n.sig)
	}
	return out
}
