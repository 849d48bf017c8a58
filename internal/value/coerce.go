package value

import (
	"fmt"
	"math"
	"reflect"
)

// Coerce converts v into a reflect.Value assignable to t. Lists become slices
// of t's element type, recursively; interface targets receive Native().
func (v Value) Coerce(t reflect.Type) (reflect.Value, error) {
	if t.Kind() == reflect.Interface {
		n := v.Native()
		if n == nil {
			return reflect.Zero(t), nil
		}
		rv := reflect.ValueOf(n)
		if !rv.Type().AssignableTo(t) {
			return reflect.Value{}, mismatch(v, t)
		}
		return rv, nil
	}

	out := reflect.New(t).Elem()
	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, ok := v.AsInt()
		if !ok {
			return reflect.Value{}, mismatch(v, t)
		}
		if out.OverflowInt(n) {
			return reflect.Value{}, fmt.Errorf("value: %d overflows %s", n, t)
		}
		out.SetInt(n)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, ok := v.AsInt()
		if !ok || n < 0 {
			return reflect.Value{}, mismatch(v, t)
		}
		if out.OverflowUint(uint64(n)) {
			return reflect.Value{}, fmt.Errorf("value: %d overflows %s", n, t)
		}
		out.SetUint(uint64(n))
	case reflect.Float32, reflect.Float64:
		f, ok := v.AsFloat()
		if !ok {
			return reflect.Value{}, mismatch(v, t)
		}
		if t.Kind() == reflect.Float32 && math.Abs(f) > math.MaxFloat32 {
			return reflect.Value{}, fmt.Errorf("value: %v overflows %s", f, t)
		}
		out.SetFloat(f)
	case reflect.String:
		s, ok := v.AsString()
		if !ok {
			return reflect.Value{}, mismatch(v, t)
		}
		out.SetString(s)
	case reflect.Bool:
		b, ok := v.AsBool()
		if !ok {
			return reflect.Value{}, mismatch(v, t)
		}
		out.SetBool(b)
	case reflect.Slice:
		if v.kind != KindList {
			return reflect.Value{}, mismatch(v, t)
		}
		out = reflect.MakeSlice(t, len(v.items), len(v.items))
		for i, item := range v.items {
			ev, err := item.Coerce(t.Elem())
			if err != nil {
				return reflect.Value{}, fmt.Errorf("index %d: %w", i, err)
			}
			out.Index(i).Set(ev)
		}
	default:
		return reflect.Value{}, fmt.Errorf("value: unsupported target type %s", t)
	}
	return out, nil
}

func mismatch(v Value, t reflect.Type) error {
	return fmt.Errorf("value: cannot use %s %s as %s", v.kind, v, t)
}
