package reactive

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	changes []Change
}

func (r *recorder) watcher() *Watcher {
	return NewWatcher(func(c Change) {
		r.changes = append(r.changes, c)
	})
}

func (r *recorder) keys() []string {
	out := make([]string, 0, len(r.changes))
	for _, c := range r.changes {
		out = append(out, c.Key)
	}
	return out
}

func TestWatchDispatch(t *testing.T) {
	testCases := []struct {
		name     string
		prop     any
		expected []string
	}{
		{"nil watches every key", nil, []string{"a", "b", "c"}},
		{"string slice", []string{"c", "a"}, []string{"a", "c"}},
		{"any slice", []any{"b"}, []string{"b"}},
		{"single key", "a", []string{"a"}},
		{"unknown key", "zzz", []string{}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			e := New()
			root := observeObject(t, e, map[string]any{"a": 1, "b": 2, "c": 3})
			rec := &recorder{}

			e.Watch(root, tc.prop, rec.watcher())
			for _, k := range root.Keys() {
				root.Set(k, 100)
			}

			assert.Equal(t, tc.expected, rec.keys())
		})
	}
}

func TestWatchIntSliceOnSequence(t *testing.T) {
	e := New()
	seq := observeSequence(t, e, "a", "b", "c")
	rec := &recorder{}

	e.Watch(seq, []int{0, 2}, rec.watcher())
	seq.SetAt(0, "A")
	seq.SetAt(1, "B")
	seq.SetAt(2, "C")

	require.Len(t, rec.changes, 2)
	assert.Equal(t, 0, rec.changes[0].Index)
	assert.Equal(t, 2, rec.changes[1].Index)
}

func TestWatchObservesRawTarget(t *testing.T) {
	e := New()
	src := map[string]any{"a": 1}
	rec := &recorder{}

	node := e.Watch(src, "a", rec.watcher())
	require.NotNil(t, node)
	assert.Same(t, node, e.Lookup(src))

	node.(*Object).Set("a", 2)
	assert.Len(t, rec.changes, 1)
}

func TestWatchScalarTargetIsNoop(t *testing.T) {
	e := New()
	rec := &recorder{}

	assert.Nil(t, e.Watch(42, nil, rec.watcher()))
	assert.Nil(t, e.Watch("text", "a", rec.watcher()))
	assert.Nil(t, e.Watch(map[string]any{"a": 1}, "a", nil))
	assert.Equal(t, 0, e.Len())
}

func TestWatchDepthLimiting(t *testing.T) {
	e := New()
	root := observeObject(t, e, map[string]any{"a": map[string]any{"b": 1}})
	rec := &recorder{}

	e.Watch(root, nil, rec.watcher(), WithDepth(0))

	root.Get("a").(*Object).Set("b", 2)
	assert.Empty(t, rec.changes, "depth 0 does not descend into children")

	root.Set("a", map[string]any{"b": 3})
	require.Len(t, rec.changes, 1)
	assert.Equal(t, "a", rec.changes[0].Key)

	root.Get("a").(*Object).Set("b", 4)
	assert.Len(t, rec.changes, 1, "replacement subtree is not watched at depth 0")
}

func TestWatchDepthOne(t *testing.T) {
	e := New()
	root := observeObject(t, e, map[string]any{
		"a": map[string]any{"b": map[string]any{"c": 1}},
	})
	rec := &recorder{}
	e.WatchAll(root, rec.watcher(), WithDepth(1))

	a := root.Get("a").(*Object)
	b := a.Get("b").(*Object)

	b.Set("c", 2)
	assert.Empty(t, rec.changes)

	a.Set("b", 5)
	require.Len(t, rec.changes, 1)
	assert.Equal(t, "b", rec.changes[0].Key)
}

func TestWatchUnlimitedFollowsReplacement(t *testing.T) {
	e := New()
	root := observeObject(t, e, map[string]any{"a": map[string]any{"b": 1}})
	rec := &recorder{}
	e.WatchAll(root, rec.watcher())

	old := root.Get("a").(*Object)
	root.Set("a", map[string]any{"b": 10})
	fresh := root.Get("a").(*Object)

	old.Set("b", 2)
	fresh.Set("b", 11)

	require.Len(t, rec.changes, 2)
	assert.Same(t, root, rec.changes[0].Node)
	assert.Same(t, fresh, rec.changes[1].Node)
	assert.Equal(t, 0, e.WatcherCount(old), "replaced subtree is released")
}

func TestWatchSequenceFollowsInsertions(t *testing.T) {
	e := New()
	seq := observeSequence(t, e, map[string]any{"x": 1})
	rec := &recorder{}
	e.WatchAll(seq, rec.watcher())

	seq.Append(map[string]any{"x": 2})
	removed := seq.RemoveFirst().(*Object)
	inserted := seq.At(0).(*Object)

	rec.changes = nil
	inserted.Set("x", 3)
	removed.Set("x", 4)

	require.Len(t, rec.changes, 1)
	assert.Same(t, inserted, rec.changes[0].Node)
}

func TestWatchSkipsCallables(t *testing.T) {
	e := New()
	root := observeObject(t, e, map[string]any{"fn": func() {}, "n": 1})
	rec := &recorder{}

	e.WatchAll(root, rec.watcher())
	assert.Nil(t, root.Cell("fn").entries)
	assert.Len(t, root.Cell("n").entries, 1)
}

func TestWatchCycleTerminates(t *testing.T) {
	e := New()
	src := map[string]any{"n": 1}
	src["self"] = src
	root := observeObject(t, e, src)
	rec := &recorder{}

	e.WatchAll(root, rec.watcher())
	root.Set("n", 2)

	assert.Len(t, rec.changes, 1)
	e.UnwatchAll(root, rec.watcher())
}

func TestMultipleEntriesCoexist(t *testing.T) {
	e := New()
	root := observeObject(t, e, map[string]any{"a": 1})
	first, second := &recorder{}, &recorder{}
	w := first.watcher()

	e.WatchOne(root, "a", w)
	e.WatchOne(root, "a", w)
	e.WatchOne(root, "a", second.watcher())
	root.Set("a", 2)

	assert.Len(t, first.changes, 2)
	assert.Len(t, second.changes, 1)
	assert.Equal(t, 3, e.WatcherCount(root))
}

func TestSymmetricUnwatch(t *testing.T) {
	testCases := []struct {
		name string
		prop any
	}{
		{"all", nil},
		{"many", []string{"a", "b"}},
		{"one", "a"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			e := New()
			root := observeObject(t, e, map[string]any{"a": map[string]any{"x": 1}, "b": 2})
			rec := &recorder{}
			w := rec.watcher()

			e.Watch(root, tc.prop, w, WithLengthTracking())
			e.Unwatch(root, tc.prop, w)

			root.Set("a", 5)
			root.Set("b", 6)
			root.Add("c", 7)

			assert.Empty(t, rec.changes)
			assert.Equal(t, 0, e.WatcherCount(root))
		})
	}
}

func TestUnwatchLeavesOtherWatchers(t *testing.T) {
	e := New()
	root := observeObject(t, e, map[string]any{"a": 1})
	gone, kept := &recorder{}, &recorder{}
	wGone, wKept := gone.watcher(), kept.watcher()

	e.WatchOne(root, "a", wGone)
	e.WatchOne(root, "a", wKept)
	e.UnwatchOne(root, "a", wGone)
	root.Set("a", 2)

	assert.Empty(t, gone.changes)
	assert.Len(t, kept.changes, 1)
}

func TestUnwatchIsNoopForUnknown(t *testing.T) {
	e := New()
	w := NewWatcher(nil)

	assert.NotPanics(t, func() {
		e.Unwatch(map[string]any{"a": 1}, "a", w)
		e.Unwatch(42, nil, w)
		root := observeObject(t, e, map[string]any{"a": 1})
		e.Unwatch(root, "missing", w)
		e.Unwatch(root, []int{3}, w)
		e.UnwatchAll(root, nil)
	})
}

func TestUnwatchSequence(t *testing.T) {
	e := New()
	seq := observeSequence(t, e, map[string]any{"x": 1}, 2)
	rec := &recorder{}
	w := rec.watcher()

	e.WatchAll(seq, w, WithLengthTracking())
	e.WatchOne(seq, 1, w)
	e.UnwatchAll(seq, w)

	seq.At(0).(*Object).Set("x", 2)
	seq.Append(3)
	seq.SetAt(1, 9)

	assert.Empty(t, rec.changes)
	assert.Equal(t, 0, e.WatcherCount(seq))
}

func TestTrackLengthOnChildSequence(t *testing.T) {
	e := New()
	root := observeObject(t, e, map[string]any{"items": []any{1}})
	rec := &recorder{}

	e.WatchOne(root, "items", rec.watcher(), WithDepth(1), WithLengthTracking())
	root.Get("items").(*Sequence).Append(2)

	kinds := make([]ChangeKind, 0, len(rec.changes))
	for _, c := range rec.changes {
		kinds = append(kinds, c.Kind)
	}
	assert.Equal(t, []ChangeKind{KindSplice, KindLength}, kinds)
}

func TestWatcherID(t *testing.T) {
	a, b := NewWatcher(nil), NewWatcher(nil)
	assert.NotEmpty(t, a.ID())
	assert.NotEqual(t, a.ID(), b.ID())
}

func TestIndexWatcherFollowsReplacement(t *testing.T) {
	e := New()
	seq := observeSequence(t, e, map[string]any{"x": 1})
	rec := &recorder{}
	e.WatchOne(seq, 0, rec.watcher())

	old := seq.At(0).(*Object)
	seq.SetAt(0, map[string]any{"x": 10})
	fresh := seq.At(0).(*Object)
	require.Len(t, rec.changes, 1)
	assert.Equal(t, KindSet, rec.changes[0].Kind)

	rec.changes = nil
	old.Set("x", 2)
	fresh.Set("x", 11)

	require.Len(t, rec.changes, 1)
	assert.Same(t, fresh, rec.changes[0].Node)
	assert.Equal(t, 0, e.WatcherCount(old))
	assert.Equal(t, 1, e.WatcherCount(fresh), "the arrived element is covered once")
}

func TestIndexWatcherFollowsShift(t *testing.T) {
	e := New()
	seq := observeSequence(t, e, map[string]any{"x": 1}, map[string]any{"x": 2})
	rec := &recorder{}
	e.WatchOne(seq, 0, rec.watcher())

	first := seq.RemoveFirst().(*Object)
	second := seq.At(0).(*Object)

	rec.changes = nil
	first.Set("x", 3)
	second.Set("x", 4)

	require.Len(t, rec.changes, 1)
	assert.Same(t, second, rec.changes[0].Node)
}

func TestSharedChildSurvivesSiblingReplacement(t *testing.T) {
	e := New()
	shared := map[string]any{"v": 1}
	root := observeObject(t, e, map[string]any{"a": shared, "b": shared})
	rec := &recorder{}
	e.WatchAll(root, rec.watcher())

	child := root.Get("b").(*Object)
	root.Set("a", 5)

	rec.changes = nil
	child.Set("v", 2)

	require.Len(t, rec.changes, 1, "still reachable through b")
	assert.Same(t, child, rec.changes[0].Node)
	assert.Equal(t, 1, e.WatcherCount(child))
}

func TestDuplicateElementSurvivesRemoval(t *testing.T) {
	e := New()
	shared := map[string]any{"v": 1}
	seq := observeSequence(t, e, shared, shared)
	rec := &recorder{}
	e.WatchAll(seq, rec.watcher())

	child := seq.RemoveFirst().(*Object)
	require.Same(t, child, seq.At(0))

	rec.changes = nil
	child.Set("v", 2)

	require.Len(t, rec.changes, 1)
	assert.Same(t, child, rec.changes[0].Node)
}

func TestSharedChildReleasedWhenLastReferenceGoes(t *testing.T) {
	e := New()
	shared := map[string]any{"v": 1}
	root := observeObject(t, e, map[string]any{"a": shared, "b": shared})
	rec := &recorder{}
	e.WatchAll(root, rec.watcher())

	child := root.Get("a").(*Object)
	root.Set("a", 5)
	root.Set("b", 6)

	rec.changes = nil
	child.Set("v", 2)

	assert.Empty(t, rec.changes)
	assert.Equal(t, 0, e.WatcherCount(child))
}

func TestDeleteReleasesSubtree(t *testing.T) {
	e := New()
	root := observeObject(t, e, map[string]any{"a": map[string]any{"x": 1}, "b": 2})
	rec := &recorder{}
	w := rec.watcher()
	e.WatchAll(root, w)

	child := root.Get("a").(*Object)
	require.True(t, root.Delete("a"))
	assert.Equal(t, 0, e.WatcherCount(child))

	e.Unwatch(root, nil, w)
	child.Set("x", 2)
	root.Set("b", 3)

	assert.Empty(t, rec.changes)
	assert.Equal(t, 0, e.WatcherCount(root))
}

func TestDeleteKeepsSharedChild(t *testing.T) {
	e := New()
	shared := map[string]any{"v": 1}
	root := observeObject(t, e, map[string]any{"a": shared, "b": shared})
	rec := &recorder{}
	e.WatchAll(root, rec.watcher())

	child := root.Get("b").(*Object)
	root.Delete("a")
	child.Set("v", 2)

	require.Len(t, rec.changes, 1)
	assert.Same(t, child, rec.changes[0].Node)
}

func TestGuardedWriteStillRetargets(t *testing.T) {
	e := New()
	root := observeObject(t, e, map[string]any{"a": map[string]any{"v": 1}})
	var replaced *Object
	rec := &recorder{}
	w := NewWatcher(func(c Change) {
		rec.changes = append(rec.changes, c)
		if c.Key == "a" && replaced == nil {
			replaced = c.New.(*Object)
			root.Set("a", map[string]any{"v": 3})
		}
	})
	e.WatchAll(root, w)

	root.Set("a", map[string]any{"v": 2})
	require.NotNil(t, replaced)
	require.Len(t, rec.changes, 1, "the nested write is not delivered")

	current := root.Get("a").(*Object)
	require.NotSame(t, replaced, current)

	rec.changes = nil
	replaced.Set("v", 20)
	current.Set("v", 30)

	require.Len(t, rec.changes, 1)
	assert.Same(t, current, rec.changes[0].Node)
	assert.Equal(t, 0, e.WatcherCount(replaced))
}
