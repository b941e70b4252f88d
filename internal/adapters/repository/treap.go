package repository

// Treap over fact sequence numbers.
//
// Ordering: value DESC, then seq ASC. "less" means ranks earlier, so an
// in-order traversal yields facts from highest to lowest value, with equal
// values in insertion order. Priorities are random, keeping the expected
// depth logarithmic whatever the insertion order of values.

type node struct {
	seq   uint32
	value float64
	prio  uint64
	left  *node
	right *node
	size  int
}

func nsize(n *node) int {
	if n == nil {
		return 0
	}
	return n.size
}

func fix(n *node) {
	if n != nil {
		n.size = 1 + nsize(n.left) + nsize(n.right)
	}
}

// less returns true if (aValue, aSeq) should appear before (bValue, bSeq).
func less(aValue float64, aSeq uint32, bValue float64, bSeq uint32) bool {
	if aValue != bValue {
		return aValue > bValue
	}
	return aSeq < bSeq
}

func rotateRight(y *node) *node {
	x := y.left
	y.left = x.right
	x.right = y
	fix(y)
	fix(x)
	return x
}

func rotateLeft(x *node) *node {
	y := x.right
	x.right = y.left
	y.left = x
	fix(x)
	fix(y)
	return y
}

func insert(n *node, seq uint32, value float64, prio uint64) *node {
	if n == nil {
		return &node{seq: seq, value: value, prio: prio, size: 1}
	}
	if less(value, seq, n.value, n.seq) {
		n.left = insert(n.left, seq, value, prio)
		if n.left.prio > n.prio {
			n = rotateRight(n)
		}
	} else {
		n.right = insert(n.right, seq, value, prio)
		if n.right.prio > n.prio {
			n = rotateLeft(n)
		}
	}
	fix(n)
	return n
}

// walk visits sequence numbers in rank order until visit returns false.
func walk(n *node, visit func(seq uint32) bool) bool {
	if n == nil {
		return true
	}
	if !walk(n.left, visit) {
		return false
	}
	if !visit(n.seq) {
		return false
	}
	return walk(n.right, visit)
}
