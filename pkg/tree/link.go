package tree

import (
	"github.com/ajitpratap0/genpool/pkg/pool"
)

// link places a node among its relatives. All fields are slots in the same
// pool and never own anything; pool.InvalidSlot marks an absent relative.
type link struct {
	parent     pool.Slot
	firstChild pool.Slot
	lastChild  pool.Slot
	prev       pool.Slot
	next       pool.Slot
}

func detachedLink() link {
	return link{
		parent:     pool.InvalidSlot,
		firstChild: pool.InvalidSlot,
		lastChild:  pool.InvalidSlot,
		prev:       pool.InvalidSlot,
		next:       pool.InvalidSlot,
	}
}

// siblings is the head and tail of one sibling list: either a parent's
// children or the top-level nodes.
type siblings struct {
	first *pool.Slot
	last  *pool.Slot
}

// list returns the sibling list that parent heads.
func (t *Tree[T]) list(parent pool.Slot) siblings {
	if !parent.Valid() {
		return siblings{first: &t.firstRoot, last: &t.lastRoot}
	}
	n, ok := t.nodes.GetBySlot(parent)
	if !ok {
		panic(linkError("parent", parent))
	}
	return siblings{first: &n.link.firstChild, last: &n.link.lastChild}
}

// appendTo links node s as the last child of parent, or as the last
// top-level node when parent is pool.InvalidSlot. s must be detached.
func (t *Tree[T]) appendTo(parent, s pool.Slot) {
	l := t.list(parent)
	tail := *l.last

	n := t.mustNode(s)
	n.link.parent = parent
	n.link.prev = tail
	n.link.next = pool.InvalidSlot

	if tail.Valid() {
		_, prev, ok := t.nodes.Get2BySlot(s, tail)
		if !ok {
			panic(linkError("sibling", tail))
		}
		prev.link.next = s
	} else {
		*l.first = s
	}
	*l.last = s
}

// unlink removes node s from its sibling list and clears its parent. Its own
// children are untouched.
func (t *Tree[T]) unlink(s pool.Slot) {
	n := t.mustNode(s)
	parent, prev, next := n.link.parent, n.link.prev, n.link.next
	l := t.list(parent)

	if prev.Valid() {
		_, p, ok := t.nodes.Get2BySlot(s, prev)
		if !ok {
			panic(linkError("sibling", prev))
		}
		p.link.next = next
	} else {
		*l.first = next
	}

	if next.Valid() {
		_, nx, ok := t.nodes.Get2BySlot(s, next)
		if !ok {
			panic(linkError("sibling", next))
		}
		nx.link.prev = prev
	} else {
		*l.last = prev
	}

	n.link.parent = pool.InvalidSlot
	n.link.prev = pool.InvalidSlot
	n.link.next = pool.InvalidSlot
}

// promoteChildren moves every child of s to the end of the top level, in
// order.
func (t *Tree[T]) promoteChildren(s pool.Slot) {
	n := t.mustNode(s)
	child := n.link.firstChild
	n.link.firstChild = pool.InvalidSlot
	n.link.lastChild = pool.InvalidSlot

	for child.Valid() {
		c := t.mustNode(child)
		next := c.link.next
		c.link.parent = pool.InvalidSlot
		c.link.prev = pool.InvalidSlot
		c.link.next = pool.InvalidSlot
		t.appendTo(pool.InvalidSlot, child)
		child = next
	}
}

// isAncestor reports whether a is s or lies on the path from s to its top
// level node.
func (t *Tree[T]) isAncestor(a, s pool.Slot) bool {
	for s.Valid() {
		if s == a {
			return true
		}
		n, ok := t.nodes.GetBySlot(s)
		if !ok {
			return false
		}
		s = n.link.parent
	}
	return false
}
