// Package connlist provides an ordered, arena-backed doubly-linked list whose
// elements are addressed by generation-checked references.
//
// Nodes never move once inserted: a [Ref] stays valid until the node is
// removed, after which it resolves to nothing even if the slot is reused.
// This gives stable identity for handles held outside the list without
// storing pointers to list internals.
//
// The list does not track iterators. Callers that keep cursors across a
// [List.Remove] must advance any cursor parked on the node first.
package connlist

// Ref identifies a node in a List. The zero Ref is the End sentinel.
type Ref struct {
	index int32
	gen   uint32
}

// IsEnd reports whether r is the End sentinel.
func (r Ref) IsEnd() bool {
	return r.index == 0
}

// node is one arena slot. Slot 0 is the sentinel; prev/next of a freed slot
// are meaningless and next is reused as the free-list link.
type node[T any] struct {
	prev, next int32
	gen        uint32
	linked     bool
	value      T
}

// List is an ordered sequence with O(1) insert and O(1) removal by Ref.
// The zero value is an empty list ready to use.
type List[T any] struct {
	nodes []node[T]
	free  int32 // head of the free-slot chain, 0 if none
	size  int
}

// New creates an empty list with room for capacity elements.
func New[T any](capacity int) *List[T] {
	l := &List[T]{}
	l.nodes = make([]node[T], 1, capacity+1)
	return l
}

func (l *List[T]) lazyInit() {
	if len(l.nodes) == 0 {
		l.nodes = make([]node[T], 1, 8)
	}
}

// Len returns the number of linked elements.
func (l *List[T]) Len() int {
	return l.size
}

// End returns the sentinel position. It is never a real element.
func (l *List[T]) End() Ref {
	return Ref{}
}

// Front returns the first element, or End if the list is empty.
func (l *List[T]) Front() Ref {
	if l.size == 0 {
		return Ref{}
	}
	return l.ref(l.nodes[0].next)
}

// Next returns the element after r, or End. Next of End is End, and Next of
// a stale ref is End.
func (l *List[T]) Next(r Ref) Ref {
	if !l.Contains(r) {
		return Ref{}
	}
	return l.ref(l.nodes[r.index].next)
}

// Contains reports whether r refers to a currently linked element.
func (l *List[T]) Contains(r Ref) bool {
	if r.index <= 0 || int(r.index) >= len(l.nodes) {
		return false
	}
	n := &l.nodes[r.index]
	return n.linked && n.gen == r.gen
}

// Position returns an iterator positioned at r. The second result is false
// when r no longer refers to a linked element.
func (l *List[T]) Position(r Ref) (Ref, bool) {
	if !l.Contains(r) {
		return Ref{}, false
	}
	return r, true
}

// Get returns the value stored at r.
func (l *List[T]) Get(r Ref) (T, bool) {
	if !l.Contains(r) {
		var zero T
		return zero, false
	}
	return l.nodes[r.index].value, true
}

// Set replaces the value stored at r. It reports false if r is stale.
func (l *List[T]) Set(r Ref, v T) bool {
	if !l.Contains(r) {
		return false
	}
	l.nodes[r.index].value = v
	return true
}

// PushBack appends v and returns its reference.
func (l *List[T]) PushBack(v T) Ref {
	return l.InsertBefore(Ref{}, v)
}

// InsertBefore links v immediately before pos. pos may be End, which
// appends. A stale pos also appends. Other references are unaffected.
func (l *List[T]) InsertBefore(pos Ref, v T) Ref {
	l.lazyInit()

	at := int32(0)
	if l.Contains(pos) {
		at = pos.index
	}

	idx := l.alloc()
	n := &l.nodes[idx]
	n.value = v
	n.linked = true
	n.next = at
	n.prev = l.nodes[at].prev
	l.nodes[n.prev].next = idx
	l.nodes[at].prev = idx
	l.size++

	return Ref{index: idx, gen: n.gen}
}

// Remove unlinks r and returns its value. Removing a stale ref is a no-op
// that returns false.
func (l *List[T]) Remove(r Ref) (T, bool) {
	var zero T
	if !l.Contains(r) {
		return zero, false
	}

	n := &l.nodes[r.index]
	l.nodes[n.prev].next = n.next
	l.nodes[n.next].prev = n.prev

	v := n.value
	n.value = zero
	n.linked = false
	n.gen++
	n.prev = 0
	n.next = l.free
	l.free = r.index
	l.size--

	return v, true
}

// Values returns the linked values in order.
func (l *List[T]) Values() []T {
	out := make([]T, 0, l.size)
	for r := l.Front(); !r.IsEnd(); r = l.Next(r) {
		out = append(out, l.nodes[r.index].value)
	}
	return out
}

func (l *List[T]) alloc() int32 {
	if l.free != 0 {
		idx := l.free
		l.free = l.nodes[idx].next
		return idx
	}
	l.nodes = append(l.nodes, node[T]{})
	return int32(len(l.nodes) - 1)
}

func (l *List[T]) ref(idx int32) Ref {
	if idx == 0 {
		return Ref{}
	}
	return Ref{index: idx, gen: l.nodes[idx].gen}
}
