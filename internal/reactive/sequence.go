package reactive

import (
	"fmt"
	"slices"
	"strings"
)

// Sequence is an observed slice. It owns its element buffer and performs
// every mutation itself, so newly inserted elements are observed and the
// change is delivered before the operation returns.
type Sequence struct {
	engine    *Engine
	record    *Record
	items     []any
	all       []entry
	index     map[int][]entry
	length    []entry
	notifying bool
}

// Record returns the observation record.
func (s *Sequence) Record() *Record {
	return s.record
}

// Engine returns the owning engine.
func (s *Sequence) Engine() *Engine {
	return s.engine
}

// Len returns the number of elements.
func (s *Sequence) Len() int {
	return len(s.items)
}

// At returns the element at i, or nil when i is out of range.
func (s *Sequence) At(i int) any {
	if i < 0 || i >= len(s.items) {
		return nil
	}
	return s.items[i]
}

// Values returns a copy of the element buffer.
func (s *Sequence) Values() []any {
	return slices.Clone(s.items)
}

// IndexOf returns the index of the first element identical to v, or -1.
// A plain value that the engine has already observed matches its node.
func (s *Sequence) IndexOf(v any) int {
	target := v
	if n := s.engine.Lookup(v); n != nil {
		target = n
	}
	return slices.IndexFunc(s.items, func(item any) bool {
		return identical(item, target)
	})
}

// Append adds items at the end and returns the new length.
func (s *Sequence) Append(items ...any) int {
	s.splice(len(s.items), 0, items)
	return len(s.items)
}

// Prepend adds items at the front and returns the new length.
func (s *Sequence) Prepend(items ...any) int {
	s.splice(0, 0, items)
	return len(s.items)
}

// RemoveLast removes and returns the last element, or nil when empty.
func (s *Sequence) RemoveLast() any {
	if len(s.items) == 0 {
		return nil
	}
	return s.splice(len(s.items)-1, 1, nil)[0]
}

// RemoveFirst removes and returns the first element, or nil when empty.
func (s *Sequence) RemoveFirst() any {
	if len(s.items) == 0 {
		return nil
	}
	return s.splice(0, 1, nil)[0]
}

// Splice removes deleteCount elements at start, inserts items there and
// returns the removed elements. A negative start counts from the end; start
// and deleteCount are clamped to the sequence bounds.
func (s *Sequence) Splice(start, deleteCount int, items ...any) []any {
	return s.splice(start, deleteCount, items)
}

// Sort orders the elements with cmp. A nil cmp orders by the text form of
// each element; nested nodes compare equal and keep their relative order.
func (s *Sequence) Sort(cmp func(a, b any) int) {
	if cmp == nil {
		cmp = func(a, b any) int {
			return strings.Compare(sortKey(a), sortKey(b))
		}
	}
	s.reorder(func() {
		slices.SortStableFunc(s.items, cmp)
	})
}

// Reverse reverses the elements in place.
func (s *Sequence) Reverse() {
	s.reorder(func() {
		slices.Reverse(s.items)
	})
}

// SetAt replaces the element at index and returns the previous value. An
// index at or past the end appends instead, and the previous value is nil.
func (s *Sequence) SetAt(index int, v any) any {
	if index >= len(s.items) {
		index = len(s.items)
	}
	removed := s.splice(index, 1, []any{v})
	if len(removed) == 0 {
		return nil
	}
	return removed[0]
}

// RemoveValue removes the first element identical to v and returns it.
// When v is not present nothing changes and ok is false.
func (s *Sequence) RemoveValue(v any) (removed any, ok bool) {
	i := s.IndexOf(v)
	if i < 0 {
		return nil, false
	}
	return s.RemoveAt(i)
}

// RemoveAt removes the element at index and returns it. Out of range
// indexes change nothing and ok is false.
func (s *Sequence) RemoveAt(index int) (removed any, ok bool) {
	if index < 0 || index >= len(s.items) {
		return nil, false
	}
	return s.splice(index, 1, nil)[0], true
}

// Slice returns a plain deep copy of the sequence.
func (s *Sequence) Slice() []any {
	out, _ := Export(s).([]any)
	return out
}

func (s *Sequence) export(seen map[Node]any) any {
	out := make([]any, len(s.items))
	seen[s] = out
	for i, item := range s.items {
		out[i] = export(item, seen)
	}
	return out
}

func (s *Sequence) splice(start, deleteCount int, items []any) []any {
	n := len(s.items)
	switch {
	case start < 0:
		start = max(n+start, 0)
	case start > n:
		start = n
	}
	deleteCount = min(max(deleteCount, 0), n-start)

	var before []any
	if len(s.index) > 0 {
		before = slices.Clone(s.items)
	}
	removed := slices.Clone(s.items[start : start+deleteCount])
	s.items = slices.Replace(s.items, start, start+deleteCount, items...)
	s.link(start, len(items))

	if deleteCount == 0 && len(items) == 0 {
		return removed
	}
	added := slices.Clone(s.items[start : start+len(items)])
	s.notify(Change{Kind: KindSplice, Node: s, Index: start, Added: added, Removed: removed}, before, n)
	return removed
}

func (s *Sequence) reorder(apply func()) {
	var before []any
	if len(s.index) > 0 {
		before = slices.Clone(s.items)
	}
	apply()
	s.notify(Change{Kind: KindReorder, Node: s, Index: 0}, before, len(s.items))
}

// link observes count elements starting at start, replacing containers
// with their nodes.
func (s *Sequence) link(start, count int) {
	for i := start; i < start+count; i++ {
		s.items[i] = s.engine.wrap(s.items[i])
	}
}

func (s *Sequence) notify(change Change, before []any, oldLen int) {
	e := s.engine

	moves := []move{{entries: s.all, left: change.Removed, arrived: change.Added}}
	var sets []Change
	if len(s.index) > 0 {
		indexes := make([]int, 0, len(s.index))
		for i := range s.index {
			indexes = append(indexes, i)
		}
		slices.Sort(indexes)
		for _, i := range indexes {
			old, cur := at(before, i), at(s.items, i)
			if identical(old, cur) {
				continue
			}
			moves = append(moves, move{entries: s.index[i], left: []any{old}, arrived: []any{cur}, keyed: true})
			sets = append(sets, Change{Kind: KindSet, Node: s, Index: i, Old: old, New: cur})
		}
	}
	retarget(e, s, moves...)

	if s.notifying && e.guard {
		e.suppressed("sequence", "kind", change.Kind.String())
		return
	}
	s.notifying = true
	defer func() { s.notifying = false }()

	e.deliver(s.all, change)
	for _, set := range sets {
		e.deliver(s.index[set.Index], set)
	}
	if len(s.items) != oldLen {
		e.deliver(s.length, Change{Kind: KindLength, Node: s, Index: -1, Old: oldLen, New: len(s.items)})
	}
	e.emit(change)
}

func at(items []any, i int) any {
	if i < 0 || i >= len(items) {
		return nil
	}
	return items[i]
}

func sortKey(v any) string {
	switch v.(type) {
	case *Object:
		return "[object]"
	case *Sequence:
		return "[sequence]"
	case nil:
		return ""
	}
	return fmt.Sprint(v)
}
