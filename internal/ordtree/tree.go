// Package ordtree provides an ordered binary search tree parameterized
// over a caller-supplied strict-weak-order comparator, with bounded
// range queries: the leftmost N items, the rightmost N items, and an
// ascending window of at most N items strictly after a boundary key.
//
// The tree makes no balancing promise; queries are read-only and safe
// for concurrent readers as long as no writer is active. All traversal
// is iterative (explicit stack) so query depth is bounded by tree
// height without consuming call stack.
package ordtree

// Item is a key/value snapshot returned by queries.
type Item[K, V any] struct {
	Key K
	Val V
}

type node[K, V any] struct {
	item        Item[K, V]
	left, right *node[K, V]
}

// Tree is an ordered binary search tree. The zero value is not usable;
// construct with New.
type Tree[K, V any] struct {
	less func(a, b K) bool
	root *node[K, V]
	size int
}

// New returns an empty tree ordered by less, which must define a strict
// weak order over keys. All queries on the tree share this comparator.
func New[K, V any](less func(a, b K) bool) *Tree[K, V] {
	return &Tree[K, V]{less: less}
}

// Len returns the number of items in the tree.
func (t *Tree[K, V]) Len() int { return t.size }

// Get returns the value stored under k.
func (t *Tree[K, V]) Get(k K) (V, bool) {
	n := t.root
	for n != nil {
		switch {
		case t.less(k, n.item.Key):
			n = n.left
		case t.less(n.item.Key, k):
			n = n.right
		default:
			return n.item.Val, true
		}
	}
	var zero V
	return zero, false
}

// Put inserts k with value v, replacing the value if k is already
// present.
func (t *Tree[K, V]) Put(k K, v V) {
	link := &t.root
	for *link != nil {
		n := *link
		switch {
		case t.less(k, n.item.Key):
			link = &n.left
		case t.less(n.item.Key, k):
			link = &n.right
		default:
			n.item.Key = k
			n.item.Val = v
			return
		}
	}
	*link = &node[K, V]{item: Item[K, V]{Key: k, Val: v}}
	t.size++
}

// Delete removes k and reports whether it was present.
func (t *Tree[K, V]) Delete(k K) bool {
	link := &t.root
	for *link != nil {
		n := *link
		switch {
		case t.less(k, n.item.Key):
			link = &n.left
		case t.less(n.item.Key, k):
			link = &n.right
		default:
			switch {
			case n.left == nil:
				*link = n.right
			case n.right == nil:
				*link = n.left
			default:
				// Two children: splice in the in-order successor.
				slink := &n.right
				for (*slink).left != nil {
					slink = &(*slink).left
				}
				s := *slink
				*slink = s.right
				s.left, s.right = n.left, n.right
				*link = s
			}
			t.size--
			return true
		}
	}
	return false
}

// Min returns the smallest item.
func (t *Tree[K, V]) Min() (Item[K, V], bool) {
	if t.root == nil {
		return Item[K, V]{}, false
	}
	n := t.root
	for n.left != nil {
		n = n.left
	}
	return n.item, true
}

// Max returns the largest item.
func (t *Tree[K, V]) Max() (Item[K, V], bool) {
	if t.root == nil {
		return Item[K, V]{}, false
	}
	n := t.root
	for n.right != nil {
		n = n.right
	}
	return n.item, true
}

// Items returns every item in ascending key order.
func (t *Tree[K, V]) Items() []Item[K, V] {
	return t.BottomN(t.size)
}

// BottomN returns the leftmost min(n, Len()) items in ascending key
// order. n <= 0 yields an empty result without traversal.
func (t *Tree[K, V]) BottomN(n int) []Item[K, V] {
	if n <= 0 || t.root == nil {
		return nil
	}
	if n > t.size {
		n = t.size
	}
	out := make([]Item[K, V], 0, n)
	var stack []*node[K, V]
	cur := t.root
	for cur != nil || len(stack) > 0 {
		for cur != nil {
			stack = append(stack, cur)
			cur = cur.left
		}
		cur = stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		out = append(out, cur.item)
		if len(out) == n {
			return out
		}
		cur = cur.right
	}
	return out
}

// TopN returns the rightmost min(n, Len()) items. Selection scans
// right-to-left, but the returned slice is in ascending key order, so
// for n >= Len() the result equals Items().
func (t *Tree[K, V]) TopN(n int) []Item[K, V] {
	if n <= 0 || t.root == nil {
		return nil
	}
	if n > t.size {
		n = t.size
	}
	out := make([]Item[K, V], 0, n)
	var stack []*node[K, V]
	cur := t.root
	for cur != nil || len(stack) > 0 {
		for cur != nil {
			stack = append(stack, cur)
			cur = cur.right
		}
		cur = stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		out = append(out, cur.item)
		if len(out) == n {
			break
		}
		cur = cur.left
	}
	// Collected in descending order; present ascending.
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// After returns up to max items strictly after boundary in ascending
// key order; items whose key equals *boundary are excluded. A nil
// boundary makes the whole tree eligible. max <= 0 yields an empty
// result without traversal.
func (t *Tree[K, V]) After(boundary *K, max int) []Item[K, V] {
	if max <= 0 || t.root == nil {
		return nil
	}
	var out []Item[K, V]
	var stack []*node[K, V]
	cur := t.root
	for cur != nil || len(stack) > 0 {
		for cur != nil {
			if boundary != nil && !t.less(*boundary, cur.item.Key) {
				// cur and its whole left subtree sort at or
				// before the boundary.
				cur = cur.right
				continue
			}
			stack = append(stack, cur)
			cur = cur.left
		}
		if len(stack) == 0 {
			break
		}
		cur = stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		out = append(out, cur.item)
		if len(out) == max {
			return out
		}
		cur = cur.right
	}
	return out
}
