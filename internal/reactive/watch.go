package reactive

import (
	"context"
	"slices"

	"github.com/google/uuid"
)

// Unlimited is the depth budget that never runs out.
const Unlimited = -1

// Watcher is a callback registered with Engine.Watch. Its identity, not
// the function value, is what Unwatch matches on.
type Watcher struct {
	id string
	fn func(Change)
}

// NewWatcher wraps fn in a Watcher with a fresh ID.
func NewWatcher(fn func(Change)) *Watcher {
	return &Watcher{
		id: uuid.Must(uuid.NewV7()).String(),
		fn: fn,
	}
}

// ID returns the watcher's unique identifier.
func (w *Watcher) ID() string {
	return w.id
}

func (w *Watcher) notify(c Change) {
	if w.fn != nil {
		w.fn(c)
	}
}

// entry ties a watcher to one key, sequence or subject. depth is the budget
// that remained when the entry was installed.
type entry struct {
	watcher *Watcher
	depth   int
	length  bool
}

// WatchOption configures a Watch call.
type WatchOption func(*watchConfig)

type watchConfig struct {
	depth int
	track bool
}

// WithDepth limits how many levels below the watched keys are descended
// into. Zero watches the addressed keys only; a negative depth is Unlimited.
func WithDepth(depth int) WatchOption {
	return func(c *watchConfig) {
		if depth < 0 {
			depth = Unlimited
		}
		c.depth = depth
	}
}

// WithLengthTracking also installs length subjects so that insertions and
// removals are reported as KindLength (sequences) or KindAdd/KindDelete
// (objects).
func WithLengthTracking() WatchOption {
	return func(c *watchConfig) {
		c.track = true
	}
}

func descend(depth int) bool {
	return depth != 0
}

func next(depth int) int {
	if depth < 0 {
		return depth
	}
	return depth - 1
}

// Watch registers w on target. prop selects what is watched: nil watches
// every key, a []string, []int or []any watches each listed key in order,
// and any other value watches exactly that key or index. target is observed
// first; a target that cannot be observed is ignored and nil is returned.
func (e *Engine) Watch(target, prop any, w *Watcher, opts ...WatchOption) Node {
	switch p := prop.(type) {
	case nil:
		return e.WatchAll(target, w, opts...)
	case []string:
		return e.WatchMany(target, props(p), w, opts...)
	case []int:
		return e.WatchMany(target, props(p), w, opts...)
	case []any:
		return e.WatchMany(target, p, w, opts...)
	default:
		return e.WatchOne(target, prop, w, opts...)
	}
}

// WatchAll watches every key of target, recursing into children while the
// depth budget allows.
func (e *Engine) WatchAll(target any, w *Watcher, opts ...WatchOption) Node {
	node, t, cfg := e.begin(target, w, opts)
	if node == nil {
		return nil
	}
	t.all(node, cfg.depth, cfg.track)
	return node
}

// WatchMany watches each listed key of target in the given order.
func (e *Engine) WatchMany(target any, keys []any, w *Watcher, opts ...WatchOption) Node {
	node, t, cfg := e.begin(target, w, opts)
	if node == nil {
		return nil
	}
	t.many(node, keys, cfg.depth, cfg.track)
	return node
}

// WatchOne watches a single key or index of target.
func (e *Engine) WatchOne(target, prop any, w *Watcher, opts ...WatchOption) Node {
	node, t, cfg := e.begin(target, w, opts)
	if node == nil {
		return nil
	}
	t.one(node, prop, cfg.depth, cfg.track)
	return node
}

// Unwatch removes w using the same dispatch as Watch. Targets, keys and
// watchers that were never registered are ignored.
func (e *Engine) Unwatch(target, prop any, w *Watcher) {
	switch p := prop.(type) {
	case nil:
		e.UnwatchAll(target, w)
	case []string:
		e.UnwatchMany(target, props(p), w)
	case []int:
		e.UnwatchMany(target, props(p), w)
	case []any:
		e.UnwatchMany(target, p, w)
	default:
		e.UnwatchOne(target, prop, w)
	}
}

// UnwatchAll removes every entry of w from target and its subtree.
func (e *Engine) UnwatchAll(target any, w *Watcher) {
	if node := e.Lookup(target); node != nil && w != nil {
		e.traverse(w).removeAll(node)
	}
}

// UnwatchMany removes w from each listed key of target.
func (e *Engine) UnwatchMany(target any, keys []any, w *Watcher) {
	node := e.Lookup(target)
	if node == nil || w == nil {
		return
	}
	t := e.traverse(w)
	for _, k := range keys {
		t.removeOne(node, k)
	}
}

// UnwatchOne removes w from one key or index of target.
func (e *Engine) UnwatchOne(target, prop any, w *Watcher) {
	if node := e.Lookup(target); node != nil && w != nil {
		e.traverse(w).removeOne(node, prop)
	}
}

// WatcherCount returns the number of entries registered directly on node:
// its keys or indexes, its wildcard entries and its length subject.
func (e *Engine) WatcherCount(node Node) int {
	switch n := node.(type) {
	case *Object:
		count := len(n.shape)
		for _, c := range n.cells {
			count += len(c.entries)
		}
		return count
	case *Sequence:
		count := len(n.all) + len(n.length)
		for _, entries := range n.index {
			count += len(entries)
		}
		return count
	}
	return 0
}

func (e *Engine) begin(target any, w *Watcher, opts []WatchOption) (Node, *traversal, watchConfig) {
	cfg := watchConfig{depth: Unlimited}
	for _, opt := range opts {
		opt(&cfg)
	}
	if w == nil {
		return nil, nil, cfg
	}
	node := e.Observe(target)
	if node == nil {
		return nil, nil, cfg
	}
	e.logger.Debug(context.Background(), "watch", "watcher_id", w.id, "record_id", node.Record().ID, "depth", cfg.depth, "track_length", cfg.track)
	return node, e.traverse(w), cfg
}

// traversal walks a subtree on behalf of one watcher, visiting each node at
// most once so cyclic graphs terminate. A merging traversal folds into an
// existing entry of the same watcher instead of adding a second one.
type traversal struct {
	engine *Engine
	w      *Watcher
	seen   map[Node]struct{}
	merge  bool
}

func (e *Engine) traverse(w *Watcher) *traversal {
	return &traversal{engine: e, w: w, seen: make(map[Node]struct{})}
}

func (e *Engine) merging(w *Watcher) *traversal {
	t := e.traverse(w)
	t.merge = true
	return t
}

func (t *traversal) visit(n Node) bool {
	if _, ok := t.seen[n]; ok {
		return false
	}
	t.seen[n] = struct{}{}
	return true
}

func (t *traversal) add(entries []entry, depth int, track bool) []entry {
	if t.merge {
		for i, en := range entries {
			if en.watcher == t.w {
				entries[i].depth = deeper(en.depth, depth)
				entries[i].length = en.length || track
				return entries
			}
		}
	}
	return append(entries, entry{watcher: t.w, depth: depth, length: track})
}

func deeper(a, b int) int {
	if a < 0 || b < 0 {
		return Unlimited
	}
	return max(a, b)
}

func (t *traversal) all(n Node, depth int, track bool) {
	if !t.visit(n) {
		return
	}
	switch node := n.(type) {
	case *Sequence:
		node.all = t.add(node.all, depth, track)
		if descend(depth) {
			for _, item := range node.items {
				if child, ok := item.(Node); ok {
					t.all(child, next(depth), track)
				}
			}
		}
		if track {
			node.length = t.add(node.length, depth, track)
		}
	case *Object:
		t.many(node, props(node.keys), depth, track)
		if track {
			node.shape = t.add(node.shape, depth, track)
		}
	}
}

func (t *traversal) many(n Node, keys []any, depth int, track bool) {
	for _, k := range keys {
		t.one(n, k, depth, track)
	}
}

func (t *traversal) one(n Node, prop any, depth int, track bool) {
	switch node := n.(type) {
	case *Object:
		key, ok := keyOf(prop)
		if !ok {
			return
		}
		c := node.cells[key]
		if c == nil || isCallable(c.value) {
			return
		}
		t.descendInto(c.value, depth, track)
		c.entries = t.add(c.entries, depth, track)
	case *Sequence:
		i, ok := indexOf(prop)
		if !ok || i < 0 || i >= len(node.items) || isCallable(node.items[i]) {
			return
		}
		t.descendInto(node.items[i], depth, track)
		if node.index == nil {
			node.index = make(map[int][]entry)
		}
		node.index[i] = t.add(node.index[i], depth, track)
	}
}

func (t *traversal) descendInto(v any, depth int, track bool) {
	child, ok := v.(Node)
	if !ok || !descend(depth) {
		return
	}
	t.all(child, next(depth), false)
	if track {
		t.subject(child, depth)
	}
}

func (t *traversal) subject(n Node, depth int) {
	switch node := n.(type) {
	case *Sequence:
		node.length = t.add(node.length, depth, true)
	case *Object:
		node.shape = t.add(node.shape, depth, true)
	}
}

func (t *traversal) removeAll(n Node) {
	if !t.visit(n) {
		return
	}
	switch node := n.(type) {
	case *Sequence:
		node.all = t.without(node.all)
		node.length = t.without(node.length)
		for i := range node.index {
			node.index[i] = t.without(node.index[i])
			if len(node.index[i]) == 0 {
				delete(node.index, i)
			}
		}
		for _, item := range node.items {
			if child, ok := item.(Node); ok {
				t.removeAll(child)
			}
		}
	case *Object:
		node.shape = t.without(node.shape)
		for _, k := range node.keys {
			t.removeOne(node, k)
		}
	}
}

func (t *traversal) removeOne(n Node, prop any) {
	var child any
	switch node := n.(type) {
	case *Object:
		key, ok := keyOf(prop)
		if !ok {
			return
		}
		c := node.cells[key]
		if c == nil {
			return
		}
		c.entries = t.without(c.entries)
		child = c.value
	case *Sequence:
		i, ok := indexOf(prop)
		if !ok {
			return
		}
		if entries, found := node.index[i]; found {
			node.index[i] = t.without(entries)
			if len(node.index[i]) == 0 {
				delete(node.index, i)
			}
		}
		child = at(node.items, i)
	}
	if c, ok := child.(Node); ok {
		t.removeAll(c)
	}
}

func (t *traversal) without(entries []entry) []entry {
	return slices.DeleteFunc(entries, func(en entry) bool {
		return en.watcher == t.w
	})
}

// move is one slot of an owner whose value changed: the entries sitting on
// it, the values that left and the values that arrived. keyed slots are a
// single key or index and install length subjects on the child only;
// sequence wide slots carry length tracking down the whole subtree.
type move struct {
	entries []entry
	left    []any
	arrived []any
	keyed   bool
}

// retarget keeps watcher coverage in step with the graph. Entries allowed to
// descend are removed from subtrees that left and installed on subtrees that
// arrived; a node already covered by the same watcher is not covered twice.
// A node that left one slot may still hang off another slot of the same
// owner, so every watcher that lost coverage is re-applied over the owner's
// remaining slots afterwards.
func retarget(e *Engine, owner Node, moves ...move) {
	var lost []*Watcher
	for i := range moves {
		moves[i].entries = slices.Clone(moves[i].entries)
		for _, en := range moves[i].entries {
			if !descend(en.depth) {
				continue
			}
			for _, v := range moves[i].left {
				n, ok := v.(Node)
				if !ok {
					continue
				}
				t := e.traverse(en.watcher)
				t.seen[owner] = struct{}{}
				t.removeAll(n)
				if !slices.Contains(lost, en.watcher) {
					lost = append(lost, en.watcher)
				}
			}
		}
	}

	for _, m := range moves {
		for _, en := range m.entries {
			if !descend(en.depth) {
				continue
			}
			for _, v := range m.arrived {
				n, ok := v.(Node)
				if !ok {
					continue
				}
				t := e.merging(en.watcher)
				if m.keyed {
					t.descendInto(n, en.depth, en.length)
				} else {
					t.all(n, next(en.depth), en.length)
				}
			}
		}
	}

	for _, w := range lost {
		e.cover(owner, w)
	}
}

// cover re-applies every descending entry of w on owner's slots to the
// values they currently hold.
func (e *Engine) cover(owner Node, w *Watcher) {
	switch n := owner.(type) {
	case *Object:
		for _, k := range n.keys {
			c := n.cells[k]
			for _, en := range slices.Clone(c.entries) {
				if en.watcher == w && descend(en.depth) {
					e.merging(w).descendInto(c.value, en.depth, en.length)
				}
			}
		}
	case *Sequence:
		for _, en := range slices.Clone(n.all) {
			if en.watcher != w || !descend(en.depth) {
				continue
			}
			for _, item := range n.items {
				if child, ok := item.(Node); ok {
					e.merging(w).all(child, next(en.depth), en.length)
				}
			}
		}
		for i, entries := range n.index {
			for _, en := range slices.Clone(entries) {
				if en.watcher == w && descend(en.depth) {
					e.merging(w).descendInto(at(n.items, i), en.depth, en.length)
				}
			}
		}
	}
}
