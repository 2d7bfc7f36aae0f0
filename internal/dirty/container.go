package dirty

import (
	"fmt"
	"reflect"
	"strconv"

	"github.com/luckyadam/vue-explore/internal/errors"
)

// accessor reads the current value of one property of a foreign container.
type accessor func() (value any, present bool)

// locate builds an accessor for obj[prop]. A nil prop addresses obj itself.
func locate(obj, prop any) (accessor, error) {
	if prop == nil {
		return func() (any, bool) { return obj, obj != nil }, nil
	}

	rv := reflect.ValueOf(obj)
	if !rv.IsValid() {
		return nil, errors.ErrUnsupportedContainer("nil")
	}

	switch rv.Kind() {
	case reflect.Map:
		if rv.IsNil() {
			return nil, errors.ErrUnsupportedContainer("nil map")
		}
		key, err := mapKey(rv.Type().Key(), prop)
		if err != nil {
			return nil, err
		}
		return func() (any, bool) {
			v := rv.MapIndex(key)
			return valueOf(v), v.IsValid()
		}, nil

	case reflect.Slice:
		i, err := index(prop)
		if err != nil {
			return nil, err
		}
		return func() (any, bool) { return element(rv, i) }, nil

	case reflect.Pointer:
		if rv.IsNil() {
			return nil, errors.ErrUnsupportedContainer("nil pointer")
		}
		target := rv.Elem()
		switch target.Kind() {
		case reflect.Slice, reflect.Array:
			i, err := index(prop)
			if err != nil {
				return nil, err
			}
			// Re-read through the pointer so appends stay visible.
			return func() (any, bool) { return element(rv.Elem(), i) }, nil
		case reflect.Struct:
			name, ok := prop.(string)
			if !ok {
				return nil, errors.ErrInvalidPath(fmt.Sprint(prop))
			}
			field, found := target.Type().FieldByName(name)
			if !found || !field.IsExported() {
				return nil, errors.ErrInvalidPath(name)
			}
			return func() (any, bool) {
				return valueOf(rv.Elem().FieldByIndex(field.Index)), true
			}, nil
		}
	}

	return nil, errors.ErrUnsupportedContainer(rv.Type().String())
}

func mapKey(kt reflect.Type, prop any) (reflect.Value, error) {
	pv := reflect.ValueOf(prop)
	switch {
	case pv.Type().AssignableTo(kt):
		return pv, nil
	case kt.Kind() == reflect.String:
		return reflect.ValueOf(fmt.Sprint(prop)).Convert(kt), nil
	case isNumber(kt.Kind()) && isNumber(pv.Kind()):
		return pv.Convert(kt), nil
	}
	return reflect.Value{}, errors.ErrInvalidPath(fmt.Sprint(prop)).
		WithContext("key_type", kt.String())
}

func isNumber(k reflect.Kind) bool {
	return (k >= reflect.Int && k <= reflect.Uint64) || k == reflect.Float32 || k == reflect.Float64
}

func index(prop any) (int, error) {
	switch p := prop.(type) {
	case int:
		if p >= 0 {
			return p, nil
		}
	case string:
		if i, err := strconv.Atoi(p); err == nil && i >= 0 {
			return i, nil
		}
	}
	return 0, errors.ErrInvalidPath(fmt.Sprint(prop))
}

func element(rv reflect.Value, i int) (any, bool) {
	if i >= rv.Len() {
		return nil, false
	}
	return valueOf(rv.Index(i)), true
}

// size is the length of v, or zero when v has none.
func size(v any) int {
	rv := deref(reflect.ValueOf(v))
	if !rv.IsValid() {
		return 0
	}
	switch rv.Kind() {
	case reflect.Map, reflect.Slice, reflect.Array, reflect.String, reflect.Chan:
		return rv.Len()
	}
	return 0
}

func sized(v any) bool {
	rv := deref(reflect.ValueOf(v))
	if !rv.IsValid() {
		return false
	}
	switch rv.Kind() {
	case reflect.Map, reflect.Slice, reflect.Array, reflect.String, reflect.Chan:
		return true
	}
	return false
}
