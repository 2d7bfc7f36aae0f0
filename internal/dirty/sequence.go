package dirty

import (
	"fmt"
	"reflect"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// EditOp is the kind of a sequence edit.
type EditOp int

const (
	EditInsert EditOp = iota
	EditDelete
)

// String returns the string representation of the EditOp
func (op EditOp) String() string {
	switch op {
	case EditInsert:
		return "insert"
	case EditDelete:
		return "delete"
	default:
		return "unknown"
	}
}

// Edit is one element inserted into or deleted from a sequence. Deletions
// are positioned in the old sequence, insertions in the new one.
type Edit struct {
	Op    EditOp
	Index int
	Value any
}

// DiffSequence aligns two slices or arrays, or pointers to them, and returns
// the insertions and deletions that turn old into new. Anything that is not
// a sequence yields no edits.
func DiffSequence(old, new any) []Edit {
	ov, nv := deref(reflect.ValueOf(old)), deref(reflect.ValueOf(new))
	if !indexable(ov) || !indexable(nv) {
		return nil
	}
	return diffRunes(ov, nv)
}

func indexable(rv reflect.Value) bool {
	return rv.IsValid() && (rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array)
}

// diffRunes summarises every element to a rune so the sequences can be
// aligned with a text diff.
func diffRunes(ov, nv reflect.Value) []Edit {
	table := make(map[string]rune)
	from, to := summarize(table, ov), summarize(table, nv)

	diffs := diffmatchpatch.New().DiffMainRunes(from, to, false)

	var edits []Edit
	fi, ti := 0, 0
	for _, d := range diffs {
		n := len([]rune(d.Text))
		switch d.Type {
		case diffmatchpatch.DiffEqual:
			fi += n
			ti += n
		case diffmatchpatch.DiffDelete:
			for k := 0; k < n; k++ {
				edits = append(edits, Edit{Op: EditDelete, Index: fi, Value: valueOf(ov.Index(fi))})
				fi++
			}
		case diffmatchpatch.DiffInsert:
			for k := 0; k < n; k++ {
				edits = append(edits, Edit{Op: EditInsert, Index: ti, Value: valueOf(nv.Index(ti))})
				ti++
			}
		}
	}
	return edits
}

func summarize(table map[string]rune, rv reflect.Value) []rune {
	rs := make([]rune, rv.Len())
	for i := range rs {
		sum := summary(rv.Index(i))
		r, ok := table[sum]
		if !ok {
			r = rune(len(table))
			if r >= 0xD800 {
				r += 0x800
			}
			table[sum] = r
		}
		rs[i] = r
	}
	return rs
}

func summary(rv reflect.Value) string {
	rv = unwrap(rv)
	if !rv.IsValid() {
		return "nil"
	}
	switch rv.Kind() {
	case reflect.Map, reflect.Func, reflect.Chan, reflect.Pointer, reflect.UnsafePointer:
		return fmt.Sprintf("%s@%x", rv.Type(), rv.Pointer())
	case reflect.Slice:
		return fmt.Sprintf("%s@%x/%d", rv.Type(), rv.Pointer(), rv.Len())
	}
	if rv.CanInterface() {
		return fmt.Sprintf("%s-%#v", rv.Type(), rv.Interface())
	}
	return fmt.Sprintf("%s-opaque", rv.Type())
}
