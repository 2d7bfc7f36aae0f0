package reactive

import (
	"reflect"
	"strconv"
)

// identical is the strict equality used to decide whether a write changes
// anything. Comparable values compare with ==; maps, funcs, channels and
// pointers compare by identity; slices by identity and length.
func identical(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	if va.Type() != vb.Type() {
		return false
	}
	switch va.Kind() {
	case reflect.Map, reflect.Func, reflect.Chan, reflect.Pointer, reflect.UnsafePointer:
		return va.UnsafePointer() == vb.UnsafePointer()
	case reflect.Slice:
		return va.UnsafePointer() == vb.UnsafePointer() && va.Len() == vb.Len()
	}
	if va.Comparable() && vb.Comparable() {
		return va.Equal(vb)
	}
	return false
}

// isCallable reports whether v is behaviour rather than state.
func isCallable(v any) bool {
	return v != nil && reflect.ValueOf(v).Kind() == reflect.Func
}

// Export converts nodes back into plain values. Scalars are returned
// unchanged and cycles are preserved rather than followed forever.
func Export(v any) any {
	return export(v, make(map[Node]any))
}

func export(v any, seen map[Node]any) any {
	n, ok := v.(Node)
	if !ok {
		return v
	}
	if out, done := seen[n]; done {
		return out
	}
	return n.export(seen)
}

func keyOf(prop any) (string, bool) {
	switch p := prop.(type) {
	case string:
		return p, true
	case int:
		return strconv.Itoa(p), true
	}
	return "", false
}

func indexOf(prop any) (int, bool) {
	switch p := prop.(type) {
	case int:
		return p, true
	case string:
		i, err := strconv.Atoi(p)
		return i, err == nil
	}
	return 0, false
}

func props[T any](items []T) []any {
	out := make([]any, len(items))
	for i, item := range items {
		out[i] = item
	}
	return out
}
