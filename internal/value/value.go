// Package value defines the closed set of values an algorithm parameter or
// output can hold: integers, floats, strings, booleans and lists of those.
package value

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Kind identifies which variant a Value holds.
type Kind uint8

const (
	KindUnset Kind = iota
	KindInt
	KindFloat
	KindString
	KindBool
	KindList
)

func (k Kind) String() string {
	switch k {
	case KindUnset:
		return "unset"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindBool:
		return "bool"
	case KindList:
		return "list"
	default:
		return "kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// Value is an immutable tagged union. The zero Value is unset.
type Value struct {
	kind  Kind
	i     int64
	f     float64
	s     string
	b     bool
	items []Value
}

// Int returns an integer Value.
func Int(n int64) Value { return Value{kind: KindInt, i: n} }

// Float returns a floating point Value.
func Float(f float64) Value { return Value{kind: KindFloat, f: f} }

// Str returns a string Value.
func Str(s string) Value { return Value{kind: KindString, s: s} }

// Bool returns a boolean Value.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// List returns a list Value holding a copy of items.
func List(items ...Value) Value {
	cp := make([]Value, len(items))
	copy(cp, items)
	return Value{kind: KindList, items: cp}
}

func (v Value) Kind() Kind  { return v.kind }
func (v Value) IsSet() bool { return v.kind != KindUnset }

// AsInt reports the integer held by v.
func (v Value) AsInt() (int64, bool) { return v.i, v.kind == KindInt }

// AsFloat reports the float held by v. Integers widen to float.
func (v Value) AsFloat() (float64, bool) {
	switch v.kind {
	case KindFloat:
		return v.f, true
	case KindInt:
		return float64(v.i), true
	}
	return 0, false
}

func (v Value) AsString() (string, bool) { return v.s, v.kind == KindString }
func (v Value) AsBool() (bool, bool)     { return v.b, v.kind == KindBool }

// Items returns the elements of a list Value, or nil for any other kind.
// The returned slice must not be modified.
func (v Value) Items() []Value {
	if v.kind != KindList {
		return nil
	}
	return v.items
}

// Len returns the number of items of a list Value.
func (v Value) Len() int { return len(v.Items()) }

// Equal reports deep equality. Int(3) and Float(3) are different values.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindUnset:
		return true
	case KindInt:
		return v.i == o.i
	case KindFloat:
		return v.f == o.f
	case KindString:
		return v.s == o.s
	case KindBool:
		return v.b == o.b
	case KindList:
		if len(v.items) != len(o.items) {
			return false
		}
		for i := range v.items {
			if !v.items[i].Equal(o.items[i]) {
				return false
			}
		}
		return true
	}
	return false
}

// String renders v in its JSON form, or "<unset>".
func (v Value) String() string {
	if v.kind == KindUnset {
		return "<unset>"
	}
	data, err := v.MarshalJSON()
	if err != nil {
		return fmt.Sprintf("<%s: %v>", v.kind, err)
	}
	return string(data)
}

// Text renders v the way a user would type it: lists are comma separated and
// nested lists are separated by semicolons.
func (v Value) Text() string {
	switch v.kind {
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindFloat:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	case KindString:
		return v.s
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindList:
		sep := ","
		for _, item := range v.items {
			if item.kind == KindList {
				sep = ";"
				break
			}
		}
		parts := make([]string, len(v.items))
		for i, item := range v.items {
			parts[i] = item.Text()
		}
		return strings.Join(parts, sep)
	}
	return ""
}

// Native converts v into plain Go values: int, float64, string, bool and
// []any. Unset becomes nil.
func (v Value) Native() any {
	switch v.kind {
	case KindInt:
		if v.i >= math.MinInt && v.i <= math.MaxInt {
			return int(v.i)
		}
		return v.i
	case KindFloat:
		return v.f
	case KindString:
		return v.s
	case KindBool:
		return v.b
	case KindList:
		out := make([]any, len(v.items))
		for i, item := range v.items {
			out[i] = item.Native()
		}
		return out
	}
	return nil
}
