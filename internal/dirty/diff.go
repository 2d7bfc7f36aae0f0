package dirty

import (
	"cmp"
	"fmt"
	"reflect"
	"slices"
	"strings"
)

// Item is one entry of a delta: a map key, a sequence index or a struct
// field name, with the value it refers to.
type Item struct {
	Key   any
	Value any
}

// Delta describes how a polled value changed between two snapshots.
type Delta struct {
	Old, New any

	// Added holds entries present in New and absent from Old.
	Added []Item
	// Removed holds entries present in Old and absent from New.
	Removed []Item
	// Changed holds entries present in both with different values. A scalar
	// change is reported as a single item with a nil key.
	Changed []Item
	// Edits aligns sequences element by element.
	Edits []Edit
}

// Empty reports whether the delta carries no change at all.
func (d Delta) Empty() bool {
	return len(d.Added) == 0 && len(d.Removed) == 0 && len(d.Changed) == 0 && len(d.Edits) == 0
}

// String returns a short summary of the delta
func (d Delta) String() string {
	var parts []string
	for _, group := range []struct {
		sign  string
		items []Item
	}{{"+", d.Added}, {"-", d.Removed}, {"~", d.Changed}} {
		for _, item := range group.items {
			if item.Key == nil {
				parts = append(parts, fmt.Sprintf("%s%v", group.sign, item.Value))
				continue
			}
			parts = append(parts, fmt.Sprintf("%s%v=%v", group.sign, item.Key, item.Value))
		}
	}
	return strings.Join(parts, " ")
}

// Diff compares two snapshots. Maps are compared by key, slices and arrays
// by index and structs by exported field. Values of different shapes, and
// scalars, report a single change when they are not identical.
func Diff(old, new any) Delta {
	d := Delta{Old: old, New: new}
	ov, nv := deref(reflect.ValueOf(old)), deref(reflect.ValueOf(new))

	if ov.IsValid() && nv.IsValid() && ov.Type() == nv.Type() {
		switch ov.Kind() {
		case reflect.Map:
			diffMaps(&d, ov, nv)
			return d
		case reflect.Slice, reflect.Array:
			diffIndexed(&d, ov, nv)
			d.Edits = diffRunes(ov, nv)
			return d
		case reflect.Struct:
			diffStructs(&d, ov, nv)
			return d
		}
	}

	if !same(ov, nv) {
		d.Changed = []Item{{Value: new}}
	}
	return d
}

func diffMaps(d *Delta, ov, nv reflect.Value) {
	keys := ov.MapKeys()
	for _, k := range nv.MapKeys() {
		if !ov.MapIndex(k).IsValid() {
			keys = append(keys, k)
		}
	}
	slices.SortFunc(keys, func(a, b reflect.Value) int {
		return cmp.Compare(fmt.Sprint(a.Interface()), fmt.Sprint(b.Interface()))
	})

	for _, k := range keys {
		before, after := ov.MapIndex(k), nv.MapIndex(k)
		switch {
		case !before.IsValid():
			d.Added = append(d.Added, Item{Key: k.Interface(), Value: valueOf(after)})
		case !after.IsValid():
			d.Removed = append(d.Removed, Item{Key: k.Interface(), Value: valueOf(before)})
		case !same(before, after):
			d.Changed = append(d.Changed, Item{Key: k.Interface(), Value: valueOf(after)})
		}
	}
}

func diffIndexed(d *Delta, ov, nv reflect.Value) {
	for i := 0; i < max(ov.Len(), nv.Len()); i++ {
		switch {
		case i >= ov.Len():
			d.Added = append(d.Added, Item{Key: i, Value: valueOf(nv.Index(i))})
		case i >= nv.Len():
			d.Removed = append(d.Removed, Item{Key: i, Value: valueOf(ov.Index(i))})
		case !same(ov.Index(i), nv.Index(i)):
			d.Changed = append(d.Changed, Item{Key: i, Value: valueOf(nv.Index(i))})
		}
	}
}

func diffStructs(d *Delta, ov, nv reflect.Value) {
	t := ov.Type()
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}
		if !same(ov.Field(i), nv.Field(i)) {
			d.Changed = append(d.Changed, Item{Key: field.Name, Value: valueOf(nv.Field(i))})
		}
	}
}

// same is strict equality on reflected values. Maps, funcs, channels and
// pointers compare by identity, slices by identity and length.
func same(a, b reflect.Value) bool {
	a, b = unwrap(a), unwrap(b)
	if !a.IsValid() || !b.IsValid() {
		return a.IsValid() == b.IsValid()
	}
	if a.Type() != b.Type() {
		return false
	}
	switch a.Kind() {
	case reflect.Map, reflect.Func, reflect.Chan, reflect.Pointer, reflect.UnsafePointer:
		return a.Pointer() == b.Pointer()
	case reflect.Slice:
		return a.Pointer() == b.Pointer() && a.Len() == b.Len()
	}
	if a.Comparable() && b.Comparable() {
		return a.Equal(b)
	}
	return false
}

func unwrap(rv reflect.Value) reflect.Value {
	for rv.IsValid() && rv.Kind() == reflect.Interface {
		rv = rv.Elem()
	}
	return rv
}

func deref(rv reflect.Value) reflect.Value {
	rv = unwrap(rv)
	if rv.IsValid() && rv.Kind() == reflect.Pointer && !rv.IsNil() {
		return rv.Elem()
	}
	return rv
}

func valueOf(rv reflect.Value) any {
	rv = unwrap(rv)
	if !rv.IsValid() || !rv.CanInterface() {
		return nil
	}
	return rv.Interface()
}
