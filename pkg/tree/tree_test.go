package tree

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/genpool/pkg/pool"
	"github.com/ajitpratap0/genpool/pkg/poolerrors"
	"github.com/ajitpratap0/genpool/pkg/testutil"
)

func dataOf[T any](t *testing.T, tr *Tree[T], slots []pool.Slot) []T {
	t.Helper()
	out := make([]T, 0, len(slots))
	for _, s := range slots {
		d, ok := tr.DataBySlot(s)
		require.True(t, ok, "slot %d", s)
		out = append(out, *d)
	}
	return out
}

func TestTree_InsertAndLinks(t *testing.T) {
	tr := New[string]()
	root := tr.Insert("root")
	a := tr.InsertChild(root, "a")
	b := tr.InsertChild(root, "b")
	a1 := tr.InsertChild(a, "a1")
	other := tr.Insert("other")

	assert.Equal(t, []string{"root", "other"}, dataOf(t, tr, slices.Collect(tr.Roots())))
	assert.Equal(t, []string{"a", "b"}, dataOf(t, tr, slices.Collect(tr.Children(root.Slot()))))
	assert.Equal(t, []string{"a1"}, dataOf(t, tr, slices.Collect(tr.Children(a.Slot()))))
	assert.Empty(t, slices.Collect(tr.Children(b.Slot())))

	parent, ok := tr.Parent(a1.Slot())
	require.True(t, ok)
	assert.Equal(t, a.Slot(), parent)
	_, ok = tr.Parent(root.Slot())
	assert.False(t, ok, "top-level node has no parent")

	n := tr.At(a)
	assert.Equal(t, "a", n.Data)
	assert.Equal(t, root.Slot(), n.Parent())
	assert.Equal(t, b.Slot(), n.NextSibling())
	assert.False(t, n.PrevSibling().Valid())
	assert.Equal(t, a1.Slot(), n.FirstChild())
	assert.Equal(t, a1.Slot(), n.LastChild())

	r := tr.At(root)
	assert.Equal(t, a.Slot(), r.FirstChild())
	assert.Equal(t, b.Slot(), r.LastChild())
	assert.Equal(t, other.Slot(), r.NextSibling())
	assert.Equal(t, 5, tr.Len())
}

func TestTree_Walk(t *testing.T) {
	tr := New[string]()
	root := tr.Insert("root")
	a := tr.InsertChild(root, "a")
	tr.InsertChild(a, "a1")
	tr.InsertChild(a, "a2")
	tr.InsertChild(root, "b")
	tr.Insert("other")

	type visit struct {
		depth int
		data  string
	}
	collect := func(seq func(func(int, pool.Slot) bool)) []visit {
		var out []visit
		for depth, s := range seq {
			d, _ := tr.DataBySlot(s)
			out = append(out, visit{depth, *d})
		}
		return out
	}

	assert.Equal(t, []visit{
		{0, "root"}, {1, "a"}, {2, "a1"}, {2, "a2"}, {1, "b"},
	}, collect(tr.Walk(root.Slot())))

	assert.Equal(t, []visit{
		{0, "a"}, {1, "a1"}, {1, "a2"},
	}, collect(tr.Walk(a.Slot())))

	assert.Equal(t, []visit{
		{0, "root"}, {1, "a"}, {2, "a1"}, {2, "a2"}, {1, "b"}, {0, "other"},
	}, collect(tr.Walk(pool.InvalidSlot)))

	n := 0
	for range tr.Walk(pool.InvalidSlot) {
		n++
		if n == 2 {
			break
		}
	}
	assert.Equal(t, 2, n)

	assert.Empty(t, collect(tr.Walk(pool.Slot(77))))
}

func TestTree_SyncPromotesChildren(t *testing.T) {
	tr := New[string]()
	first := tr.Insert("first")
	root := tr.Insert("root")
	a := tr.InsertChild(root, "a")
	b := tr.InsertChild(root, "b")
	tr.InsertChild(b, "b1")
	last := tr.Insert("last")

	w := root.Downgrade()
	stats := tr.Sync()
	assert.Equal(t, 1, stats.Invalidated)
	assert.False(t, tr.Contains(w))

	assert.Equal(t, []string{"first", "last", "a", "b"},
		dataOf(t, tr, slices.Collect(tr.Roots())))
	_, ok := tr.Parent(a.Slot())
	assert.False(t, ok)
	assert.Equal(t, []string{"b1"}, dataOf(t, tr, slices.Collect(tr.Children(b.Slot()))),
		"grandchildren stay with their parent")

	assert.Equal(t, last.Slot(), tr.At(first).NextSibling())
	assert.Equal(t, first.Slot(), tr.At(last).PrevSibling())
}

func TestTree_SyncUnlinksMiddleChild(t *testing.T) {
	tr := New[int]()
	root := tr.Insert(0)
	c1 := tr.InsertChild(root, 1)
	c2 := tr.InsertChild(root, 2)
	c3 := tr.InsertChild(root, 3)

	c2.Release()
	tr.Sync()

	assert.Equal(t, []int{1, 3}, dataOf(t, tr, slices.Collect(tr.Children(root.Slot()))))
	assert.Equal(t, c3.Slot(), tr.At(c1).NextSibling())
	assert.Equal(t, c1.Slot(), tr.At(c3).PrevSibling())

	c1.Release()
	c3.Release()
	tr.Sync()
	assert.Empty(t, slices.Collect(tr.Children(root.Slot())))
	assert.False(t, tr.At(root).FirstChild().Valid())
	assert.False(t, tr.At(root).LastChild().Valid())

	root.Release()
	tr.Sync()
	assert.Empty(t, slices.Collect(tr.Roots()))
	assert.Equal(t, 0, tr.Len())
}

func TestTree_SlotReuseAfterSync(t *testing.T) {
	tr := New[string]()
	root := tr.Insert("root")
	old := tr.InsertChild(root, "old")
	oldSlot := old.Slot()
	old.Release()
	tr.Sync()

	fresh := tr.InsertChild(root, "fresh")
	assert.Equal(t, oldSlot, fresh.Slot())
	assert.Greater(t, fresh.Generation(), old.Generation())
	assert.Equal(t, []string{"fresh"}, dataOf(t, tr, slices.Collect(tr.Children(root.Slot()))))
}

func TestTree_Move(t *testing.T) {
	tr := New[string]()
	a := tr.Insert("a")
	b := tr.Insert("b")
	a1 := tr.InsertChild(a, "a1")
	a11 := tr.InsertChild(a1, "a11")

	tr.Move(a1, b)
	assert.Empty(t, slices.Collect(tr.Children(a.Slot())))
	assert.Equal(t, []string{"a1"}, dataOf(t, tr, slices.Collect(tr.Children(b.Slot()))))
	parent, _ := tr.Parent(a11.Slot())
	assert.Equal(t, a1.Slot(), parent, "subtree moves along")

	tr.Detach(a1)
	assert.Equal(t, []string{"a", "b", "a1"}, dataOf(t, tr, slices.Collect(tr.Roots())))
	_, ok := tr.Parent(a1.Slot())
	assert.False(t, ok)

	testutil.RequirePoolPanic(t, poolerrors.ErrorTypeContract, func() { tr.Move(a1, a11) })
}

func TestTree_InsertChildRejectsReleasedParent(t *testing.T) {
	tr := New[int]()
	root := tr.Insert(1)
	root.Release()

	testutil.RequirePoolPanic(t, poolerrors.ErrorTypeContract, func() { tr.InsertChild(root, 2) })
	assert.Equal(t, 1, tr.Len(), "nothing allocated for the rejected child")
}

type resource struct {
	closed *int
}

func (r resource) Drop() { *r.closed++ }

func TestTree_DropForwardsToData(t *testing.T) {
	closed := 0
	tr := New[resource]()
	tr.Insert(resource{closed: &closed}).Release()
	tr.Sync()
	assert.Equal(t, 1, closed)
}

func TestTree_NodeBySlot(t *testing.T) {
	tr := New[int]()
	h := tr.Insert(42)

	n, ok := tr.NodeBySlot(h.Slot())
	require.True(t, ok)
	assert.Equal(t, 42, n.Data)

	n.Data = 43
	d, ok := tr.DataBySlot(h.Slot())
	require.True(t, ok)
	assert.Equal(t, 43, *d)

	_, ok = tr.NodeBySlot(pool.Slot(9))
	assert.False(t, ok)
	_, ok = tr.DataBySlot(pool.InvalidSlot)
	assert.False(t, ok)
}

// walkSlots returns every slot a full walk visits.
func walkSlots[T any](tr *Tree[T]) []pool.Slot {
	var out []pool.Slot
	for _, s := range tr.Walk(pool.InvalidSlot) {
		out = append(out, s)
	}
	return out
}

func TestTree_ReleasedParentKeepsWalkInStepWithLen(t *testing.T) {
	tr := New[string]()
	root := tr.Insert("root")
	leaf := tr.InsertChild(root, "leaf")

	root.Release()
	tr.Sync()
	assert.Len(t, walkSlots(tr), tr.Len())
	assert.Equal(t, []string{"leaf"}, dataOf(t, tr, slices.Collect(tr.Roots())))

	leaf.Release()
	assert.NotPanics(t, func() { tr.Sync() })
	assert.Zero(t, tr.Len())
	assert.Empty(t, walkSlots(tr))

	// reused slots start without stale links
	again := tr.Insert("again")
	child := tr.InsertChild(again, "child")
	assert.Equal(t, []string{"again"}, dataOf(t, tr, slices.Collect(tr.Roots())))
	assert.Equal(t, []string{"child"}, dataOf(t, tr, slices.Collect(tr.Children(again.Slot()))))
	parent, ok := tr.Parent(child.Slot())
	require.True(t, ok)
	assert.Equal(t, again.Slot(), parent)
}

func TestTree_WeakLookupsAndCounters(t *testing.T) {
	tr := New[string](pool.WithName("nodes"))
	h := tr.Insert("a")
	w := h.Weak()

	n, ok := tr.Get(w)
	require.True(t, ok)
	assert.Equal(t, "a", n.Data)

	up, ok := tr.Upgrade(w)
	require.True(t, ok)
	refs, ok := tr.RefCount(h.Slot())
	require.True(t, ok)
	assert.Equal(t, pool.RefCount(2), refs, "upgrades are counted immediately")

	h.Release()
	assert.Equal(t, 1, tr.PendingEvents())
	tr.Sync()
	assert.True(t, tr.Contains(w), "the upgraded handle keeps the node")

	up.Release()
	tr.Sync()
	assert.False(t, tr.Contains(w))
	_, ok = tr.Get(w)
	assert.False(t, ok)

	stats := tr.Stats()
	assert.Equal(t, 0, stats.Live)
	assert.Equal(t, uint64(1), stats.Invalidations)
	assert.Equal(t, uint64(2), stats.Syncs)
}
