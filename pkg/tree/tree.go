// Package tree builds a forest of nodes on top of a generational pool.
//
// Nodes are pool items, so they are owned through pool handles exactly like
// any other item. Parent, child and sibling links are plain slots and never
// keep a node alive. When the last handle to a node is released, the next
// Sync unlinks it and moves its children to the top level before the slot is
// cleared:
//
//	t := tree.New[string]()
//	root := t.Insert("root")
//	leaf := t.InsertChild(root, "leaf")
//
//	root.Release()
//	t.Sync() // "leaf" is now a top-level node
package tree

import (
	"iter"

	"github.com/ajitpratap0/genpool/pkg/pool"
	"github.com/ajitpratap0/genpool/pkg/poolerrors"
)

// Node is one element of a Tree.
type Node[T any] struct {
	Data T
	link link
}

// Parent returns the parent's slot, or pool.InvalidSlot for a top-level node.
func (n *Node[T]) Parent() pool.Slot { return n.link.parent }

// FirstChild returns the first child's slot, or pool.InvalidSlot.
func (n *Node[T]) FirstChild() pool.Slot { return n.link.firstChild }

// LastChild returns the last child's slot, or pool.InvalidSlot.
func (n *Node[T]) LastChild() pool.Slot { return n.link.lastChild }

// PrevSibling returns the previous sibling's slot, or pool.InvalidSlot.
func (n *Node[T]) PrevSibling() pool.Slot { return n.link.prev }

// NextSibling returns the next sibling's slot, or pool.InvalidSlot.
func (n *Node[T]) NextSibling() pool.Slot { return n.link.next }

// Drop forwards to Data when it implements pool.Dropper.
func (n *Node[T]) Drop() {
	if d, ok := any(n.Data).(pool.Dropper); ok {
		d.Drop()
		return
	}
	if d, ok := any(&n.Data).(pool.Dropper); ok {
		d.Drop()
	}
}

// Tree is a forest of nodes stored in one pool. It is not safe for
// concurrent use.
type Tree[T any] struct {
	nodes     *pool.Pool[Node[T]]
	firstRoot pool.Slot
	lastRoot  pool.Slot
}

// New creates an empty tree. The options configure the underlying pool.
func New[T any](opts ...pool.Option) *Tree[T] {
	return &Tree[T]{
		nodes:     pool.New[Node[T]](opts...),
		firstRoot: pool.InvalidSlot,
		lastRoot:  pool.InvalidSlot,
	}
}

// The node pool is never handed out. Clearing a slot anywhere but in Sync
// would leave its relatives linked to a vacant or reused slot, so lookups and
// counters are forwarded one by one instead.

// Get returns the node w refers to.
func (t *Tree[T]) Get(w pool.WeakHandle[Node[T]]) (*Node[T], bool) {
	return t.nodes.Get(w)
}

// Contains reports whether w still resolves.
func (t *Tree[T]) Contains(w pool.WeakHandle[Node[T]]) bool {
	return t.nodes.Contains(w)
}

// Upgrade turns w back into an owning handle. See pool.Pool.Upgrade.
func (t *Tree[T]) Upgrade(w pool.WeakHandle[Node[T]]) (*pool.Handle[Node[T]], bool) {
	return t.nodes.Upgrade(w)
}

// RefCount returns the applied reference count of the node in slot.
func (t *Tree[T]) RefCount(slot pool.Slot) (pool.RefCount, bool) {
	return t.nodes.RefCount(slot)
}

// PendingEvents returns the number of handle events waiting for Sync.
func (t *Tree[T]) PendingEvents() int {
	return t.nodes.PendingEvents()
}

// Stats returns the counters of the node pool.
func (t *Tree[T]) Stats() pool.Stats {
	return t.nodes.Stats()
}

// Len returns the number of nodes present.
func (t *Tree[T]) Len() int {
	return t.nodes.Len()
}

// Insert adds a top-level node holding data.
func (t *Tree[T]) Insert(data T) *pool.Handle[Node[T]] {
	h := t.nodes.Add(Node[T]{Data: data, link: detachedLink()})
	t.appendTo(pool.InvalidSlot, h.Slot())
	return h
}

// InsertChild adds a node holding data as the last child of parent.
func (t *Tree[T]) InsertChild(parent *pool.Handle[Node[T]], data T) *pool.Handle[Node[T]] {
	// validates parent before anything is allocated
	t.nodes.At(parent)

	h := t.nodes.Add(Node[T]{Data: data, link: detachedLink()})
	t.appendTo(parent.Slot(), h.Slot())
	return h
}

// Move makes node h the last child of parent, taking its subtree along. A
// nil parent moves it to the top level. Moving a node below itself panics.
func (t *Tree[T]) Move(h, parent *pool.Handle[Node[T]]) {
	t.nodes.At(h)
	target := pool.InvalidSlot
	if parent != nil {
		t.nodes.At(parent)
		target = parent.Slot()
		if t.isAncestor(h.Slot(), target) {
			panic(poolerrors.New(poolerrors.ErrorTypeContract, "node moved below itself").
				WithDetail("slot", h.Slot()).
				WithDetail("parent", target))
		}
	}
	t.unlink(h.Slot())
	t.appendTo(target, h.Slot())
}

// Detach moves node h, with its subtree, to the top level.
func (t *Tree[T]) Detach(h *pool.Handle[Node[T]]) {
	t.Move(h, nil)
}

// At returns the node h refers to.
func (t *Tree[T]) At(h *pool.Handle[Node[T]]) *Node[T] {
	return t.nodes.At(h)
}

// NodeBySlot returns the node in slot, if any.
func (t *Tree[T]) NodeBySlot(slot pool.Slot) (*Node[T], bool) {
	return t.nodes.GetBySlot(slot)
}

// DataBySlot returns the data of the node in slot, if any.
func (t *Tree[T]) DataBySlot(slot pool.Slot) (*T, bool) {
	n, ok := t.nodes.GetBySlot(slot)
	if !ok {
		return nil, false
	}
	return &n.Data, true
}

// Parent returns the parent of the node in slot. It returns false when the
// slot is empty or the node is top-level.
func (t *Tree[T]) Parent(slot pool.Slot) (pool.Slot, bool) {
	n, ok := t.nodes.GetBySlot(slot)
	if !ok || !n.link.parent.Valid() {
		return pool.InvalidSlot, false
	}
	return n.link.parent, true
}

// Children yields the children of the node in slot, in insertion order.
func (t *Tree[T]) Children(slot pool.Slot) iter.Seq[pool.Slot] {
	return func(yield func(pool.Slot) bool) {
		n, ok := t.nodes.GetBySlot(slot)
		if !ok {
			return
		}
		t.siblingsFrom(n.link.firstChild, yield)
	}
}

// Roots yields the top-level nodes in insertion order.
func (t *Tree[T]) Roots() iter.Seq[pool.Slot] {
	return func(yield func(pool.Slot) bool) {
		t.siblingsFrom(t.firstRoot, yield)
	}
}

func (t *Tree[T]) siblingsFrom(s pool.Slot, yield func(pool.Slot) bool) {
	for s.Valid() {
		n, ok := t.nodes.GetBySlot(s)
		if !ok {
			return
		}
		next := n.link.next
		if !yield(s) {
			return
		}
		s = next
	}
}

// Walk yields the subtree rooted at slot depth-first, parents before
// children, with each node's depth relative to slot. Passing
// pool.InvalidSlot walks every top-level node, each at depth zero.
func (t *Tree[T]) Walk(slot pool.Slot) iter.Seq2[int, pool.Slot] {
	return func(yield func(int, pool.Slot) bool) {
		if slot.Valid() {
			if _, ok := t.nodes.GetBySlot(slot); ok {
				t.walk(slot, 0, yield)
			}
			return
		}
		for s := range t.Roots() {
			if !t.walk(s, 0, yield) {
				return
			}
		}
	}
}

func (t *Tree[T]) walk(s pool.Slot, depth int, yield func(int, pool.Slot) bool) bool {
	if !yield(depth, s) {
		return false
	}
	for c := range t.Children(s) {
		if !t.walk(c, depth+1, yield) {
			return false
		}
	}
	return true
}

// Sync applies pending handle events. Each node whose count reaches zero is
// unlinked, its children become top-level nodes, and its slot is cleared.
func (t *Tree[T]) Sync() pool.SyncStats {
	return t.nodes.SyncRefCounts(func(p *pool.Pool[Node[T]], slot pool.Slot) {
		t.unlink(slot)
		t.promoteChildren(slot)
		p.InvalidateUnreferenced(slot)
	})
}

func (t *Tree[T]) mustNode(s pool.Slot) *Node[T] {
	n, ok := t.nodes.GetBySlot(s)
	if !ok {
		panic(linkError("node", s))
	}
	return n
}

func linkError(role string, s pool.Slot) *poolerrors.Error {
	return poolerrors.Newf(poolerrors.ErrorTypeInternal, "tree link to missing %s", role).
		WithDetail("slot", s)
}
