package script

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/luckyadam/vue-explore/internal/errors"
	"github.com/luckyadam/vue-explore/internal/reactive"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type received struct {
	watcher string
	change  reactive.Change
}

func newRunner(t *testing.T, doc map[string]any) (*Runner, *reactive.Object, *[]received) {
	t.Helper()
	e := reactive.New()
	root, ok := e.Observe(doc).(*reactive.Object)
	require.True(t, ok)
	var got []received
	r := NewRunner(e, root, func(name string, c reactive.Change) {
		got = append(got, received{watcher: name, change: c})
	})
	return r, root, &got
}

func TestParse(t *testing.T) {
	input := `
- op: watch
  props: [items]
  depth: 1
  track_length: true
- op: append
  path: items
  values: [{name: c}]
- op: set
  path: items.0.name
  value: renamed
`
	steps, err := Parse(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, steps, 3)

	assert.Equal(t, OpWatch, steps[0].Op)
	assert.Equal(t, []any{"items"}, steps[0].Props)
	require.NotNil(t, steps[0].Depth)
	assert.Equal(t, 1, *steps[0].Depth)
	assert.True(t, steps[0].TrackLength)
	assert.Equal(t, []any{map[string]any{"name": "c"}}, steps[1].Values)
	assert.Equal(t, "set items.0.name", steps[2].String())

	steps, err = Parse(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, steps)

	_, err = Parse(strings.NewReader("op: set"))
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodeDecode))
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "steps.yaml")
	require.NoError(t, os.WriteFile(path, []byte("- op: reverse\n  path: items\n"), 0o600))

	steps, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []Step{{Op: OpReverse, Path: "items"}}, steps)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestResolve(t *testing.T) {
	r, root, _ := newRunner(t, map[string]any{
		"user":  map[string]any{"name": "ann"},
		"items": []any{map[string]any{"id": 1}},
	})

	tests := []struct {
		path  string
		check func(t *testing.T, v any)
	}{
		{"", func(t *testing.T, v any) { assert.Same(t, root, v) }},
		{"user.name", func(t *testing.T, v any) { assert.Equal(t, "ann", v) }},
		{"items.0.id", func(t *testing.T, v any) { assert.Equal(t, 1, v) }},
		{"items", func(t *testing.T, v any) { assert.IsType(t, &reactive.Sequence{}, v) }},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			v, err := r.Resolve(tt.path)
			require.NoError(t, err)
			tt.check(t, v)
		})
	}

	for _, bad := range []string{"missing", "items.1", "items.x", "user.name.first", "items.-1"} {
		_, err := r.Resolve(bad)
		require.Error(t, err, bad)
		assert.True(t, errors.HasCode(err, errors.ErrCodeInvalidPath), bad)
	}
}

func TestRunMutations(t *testing.T) {
	r, root, _ := newRunner(t, map[string]any{
		"title": "a",
		"items": []any{3, 1, 2},
		"tmp":   true,
	})

	steps := []Step{
		{Op: OpSet, Path: "title", Value: "b"},
		{Op: OpAdd, Path: "extra", Value: map[string]any{"n": 1}},
		{Op: OpSet, Path: "extra.n", Value: 2},
		{Op: OpDelete, Path: "tmp"},
		{Op: OpSort, Path: "items"},
		{Op: OpReverse, Path: "items"},
		{Op: OpAppend, Path: "items", Values: []any{0}},
		{Op: OpPrepend, Path: "items", Values: []any{9}},
		{Op: OpPop, Path: "items"},
		{Op: OpShift, Path: "items"},
		{Op: OpSplice, Path: "items", Start: 1, Count: 1, Values: []any{"x", "y"}},
		{Op: OpSetAt, Path: "items", Index: 10, Value: "end"},
		{Op: OpRemove, Path: "items", Value: "x"},
		{Op: OpSet, Path: "items.0", Value: 30},
		{Op: OpAdd, Path: "items.1", Value: "ins"},
		{Op: OpDelete, Path: "items.2"},
	}
	require.NoError(t, r.Run(context.Background(), steps))

	assert.Equal(t, map[string]any{
		"title": "b",
		"extra": map[string]any{"n": 2},
		"items": []any{30, "ins", 1, "end"},
	}, root.Map())
}

func TestRunWatchAndUnwatch(t *testing.T) {
	r, _, got := newRunner(t, map[string]any{"items": []any{1}, "name": "a"})

	steps := []Step{
		{Op: OpWatch, Props: []any{"items"}, TrackLength: true, Watcher: "list"},
		{Op: OpWatch, Props: []any{"name"}},
		{Op: OpAppend, Path: "items", Values: []any{2}},
		{Op: OpSet, Path: "name", Value: "b"},
		{Op: OpUnwatch, Props: []any{"name"}},
		{Op: OpSet, Path: "name", Value: "c"},
	}
	require.NoError(t, r.Run(context.Background(), steps))

	var summary []string
	for _, rec := range *got {
		summary = append(summary, rec.watcher+":"+rec.change.Kind.String())
	}
	assert.Equal(t, []string{"list:splice", "list:length", "default:set"}, summary)
	assert.Same(t, r.Watcher(""), r.Watcher(DefaultWatcher))
}

func TestRunDepthOption(t *testing.T) {
	r, root, got := newRunner(t, map[string]any{"a": map[string]any{"b": 1}})
	zero := 0

	require.NoError(t, r.Apply(context.Background(), Step{Op: OpWatch, Depth: &zero}))
	root.Get("a").(*reactive.Object).Set("b", 2)
	assert.Empty(t, *got)

	r2, root2, got2 := newRunner(t, map[string]any{"a": map[string]any{"b": 1}})
	r2.depth = 0
	require.NoError(t, r2.Apply(context.Background(), Step{Op: OpWatch}))
	root2.Get("a").(*reactive.Object).Set("b", 2)
	assert.Empty(t, *got2, "runner default depth applies")
}

func TestRunErrors(t *testing.T) {
	tests := []struct {
		name string
		step Step
		code string
	}{
		{"unknown op", Step{Op: "explode"}, errors.ErrCodeInvalidStep},
		{"missing parent", Step{Op: OpSet, Path: "nope.x", Value: 1}, errors.ErrCodeInvalidPath},
		{"empty key", Step{Op: OpSet, Path: "", Value: 1}, errors.ErrCodeInvalidPath},
		{"delete missing", Step{Op: OpDelete, Path: "ghost"}, errors.ErrCodeInvalidPath},
		{"sequence op on object", Step{Op: OpAppend, Path: "", Values: []any{1}}, errors.ErrCodeInvalidPath},
		{"bad index", Step{Op: OpSet, Path: "items.x", Value: 1}, errors.ErrCodeInvalidPath},
		{"watch scalar", Step{Op: OpWatch, Path: "items.0"}, errors.ErrCodeInvalidPath},
		{"set below scalar", Step{Op: OpSet, Path: "items.0.x", Value: 1}, errors.ErrCodeInvalidPath},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, _, _ := newRunner(t, map[string]any{"items": []any{1}})
			err := r.Run(context.Background(), []Step{tt.step})
			require.Error(t, err)
			assert.True(t, errors.HasCode(err, tt.code), err.Error())
		})
	}
}

func TestRunStopsAtFirstFailure(t *testing.T) {
	r, root, _ := newRunner(t, map[string]any{"n": 1})

	err := r.Run(context.Background(), []Step{
		{Op: OpSet, Path: "n", Value: 2},
		{Op: OpSet, Path: "missing.k", Value: 0},
		{Op: OpSet, Path: "n", Value: 3},
	})

	require.Error(t, err)
	assert.Equal(t, 2, root.Get("n"))
	assert.Equal(t, 1, errors.ContextOf(err)["step"])
}

func TestRunHonoursCancellation(t *testing.T) {
	r, root, _ := newRunner(t, map[string]any{"n": 1})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := r.Run(ctx, []Step{{Op: OpSet, Path: "n", Value: 2}})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, root.Get("n"))
}
