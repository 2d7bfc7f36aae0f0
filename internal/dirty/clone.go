// Package dirty implements the polling watch mode: values owned by foreign
// code are snapshotted, and every tick compares the fresh snapshot with the
// recorded baseline. It is an explicit alternative to the reactive engine for
// data that is mutated outside of it.
package dirty

import (
	"reflect"

	"github.com/luckyadam/vue-explore/internal/errors"
)

// Clone makes a shallow, one level copy of v.
//
// Maps and slices get a fresh container of the same type holding the same
// elements. Arrays and structs are copied by value. A non-nil pointer yields
// a pointer to a copy of its target, with map and slice targets cloned as
// above. Channels, funcs and unsafe pointers cannot be cloned.
func Clone(v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	cloned, err := cloneValue(reflect.ValueOf(v))
	if err != nil {
		return nil, err
	}
	return cloned.Interface(), nil
}

func cloneValue(rv reflect.Value) (reflect.Value, error) {
	switch rv.Kind() {
	case reflect.Map:
		if rv.IsNil() {
			return rv, nil
		}
		out := reflect.MakeMapWithSize(rv.Type(), rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			out.SetMapIndex(iter.Key(), iter.Value())
		}
		return out, nil

	case reflect.Slice:
		if rv.IsNil() {
			return rv, nil
		}
		out := reflect.MakeSlice(rv.Type(), rv.Len(), rv.Len())
		reflect.Copy(out, rv)
		return out, nil

	case reflect.Pointer:
		if rv.IsNil() {
			return rv, nil
		}
		target := rv.Elem()
		switch target.Kind() {
		case reflect.Chan, reflect.Func, reflect.UnsafePointer:
			return reflect.Value{}, errors.ErrUncloneable(rv.Type().String())
		}
		inner := target
		if target.Kind() == reflect.Map || target.Kind() == reflect.Slice {
			var err error
			if inner, err = cloneValue(target); err != nil {
				return reflect.Value{}, err
			}
		}
		out := reflect.New(target.Type())
		out.Elem().Set(inner)
		return out, nil

	case reflect.Chan, reflect.Func, reflect.UnsafePointer:
		return reflect.Value{}, errors.ErrUncloneable(rv.Kind().String())
	}

	// Scalars, arrays and structs are already copies once boxed.
	return rv, nil
}
