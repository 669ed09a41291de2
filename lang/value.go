package lang

import (
	"iter"
	"math"
	"slices"
)

// Value is a runtime value. The set of implementations is closed:
// [Int], [Float], [Bool], [Str], [*List], [*Dict] and [Unit].
type Value interface {
	// Type returns the name of the value's type as shown in diagnostics.
	Type() string

	value()
}

type (
	// Int is a signed 64-bit integer.
	Int int64
	// Float is a 64-bit floating point number.
	Float float64
	// Bool is true or false.
	Bool bool
	// Str is an immutable string.
	Str string
	// Unit is the result of statements that produce no value.
	Unit struct{}
)

// List is a mutable, reference-identity sequence.
type List struct {
	Elems []Value
}

// NewList returns a list holding elems.
func NewList(elems ...Value) *List {
	return &List{Elems: append(make([]Value, 0, len(elems)), elems...)}
}

// Len returns the number of elements.
func (l *List) Len() int { return len(l.Elems) }

// Dict is a mutable, reference-identity mapping that remembers insertion
// order. Keys are [Int], [Float], [Bool] or [Str]; numerically equal Int and
// Float keys address the same entry.
type Dict struct {
	order   []Value // normalized keys
	entries map[Value]dictEntry
}

type dictEntry struct {
	key Value // as first inserted
	val Value
}

// NewDict returns an empty dict.
func NewDict() *Dict {
	return &Dict{entries: make(map[Value]dictEntry)}
}

// Len returns the number of entries.
func (d *Dict) Len() int { return len(d.order) }

// Get returns the value stored under key.
func (d *Dict) Get(key Value) (Value, bool) {
	e, ok := d.entries[hashKey(key)]

	return e.val, ok
}

// Set inserts or overwrites the value stored under key. An overwrite keeps the
// original key and its position.
func (d *Dict) Set(key, val Value) {
	h := hashKey(key)

	if e, ok := d.entries[h]; ok {
		e.val = val
		d.entries[h] = e

		return
	}

	d.order = append(d.order, h)
	d.entries[h] = dictEntry{key: key, val: val}
}

// Delete removes key and reports whether it was present.
func (d *Dict) Delete(key Value) bool {
	h := hashKey(key)

	if _, ok := d.entries[h]; !ok {
		return false
	}

	delete(d.entries, h)
	d.order = slices.DeleteFunc(d.order, func(k Value) bool { return k == h })

	return true
}

// All returns an iterator over entries in insertion order.
func (d *Dict) All() iter.Seq2[Value, Value] {
	return func(yield func(Value, Value) bool) {
		for _, h := range d.order {
			e := d.entries[h]
			if !yield(e.key, e.val) {
				return
			}
		}
	}
}

func (Int) Type() string   { return "int" }
func (Float) Type() string { return "float" }
func (Bool) Type() string  { return "bool" }
func (Str) Type() string   { return "str" }
func (Unit) Type() string  { return "none" }
func (*List) Type() string { return "list" }
func (*Dict) Type() string { return "dict" }

func (Int) value()   {}
func (Float) value() {}
func (Bool) value()  {}
func (Str) value()   {}
func (Unit) value()  {}
func (*List) value() {}
func (*Dict) value() {}

// IsKey reports whether v may be used as a dict key.
func IsKey(v Value) bool {
	switch v.(type) {
	case Int, Float, Bool, Str:
		return true
	}

	return false
}

func hashKey(k Value) Value {
	if f, ok := k.(Float); ok {
		if i, ok := floatToInt(float64(f)); ok {
			return i
		}
	}

	return k
}

// Normalize returns f as an [Int] when it has no fractional part and fits in
// 64 bits, and as a [Float] otherwise.
func Normalize(f float64) Value {
	if i, ok := floatToInt(f); ok {
		return i
	}

	return Float(f)
}

func floatToInt(f float64) (Int, bool) {
	// 2^63 is exactly representable; anything at or above it overflows.
	if math.IsInf(f, 0) || math.IsNaN(f) || f != math.Trunc(f) ||
		f < math.MinInt64 || f >= math.MaxInt64 {
		return 0, false
	}

	return Int(int64(f)), true
}

// Truthy reports the boolean interpretation of v. Zero numbers, false, the
// empty string, empty containers and [Unit] are false.
func Truthy(v Value) bool {
	switch x := v.(type) {
	case Int:
		return x != 0
	case Float:
		return x != 0
	case Bool:
		return bool(x)
	case Str:
		return x != ""
	case *List:
		return len(x.Elems) > 0
	case *Dict:
		return x.Len() > 0
	}

	return false
}

// Equals reports whether a and b are equal. Numbers compare by value across
// Int and Float, containers compare element by element, and values of
// different kinds are never equal.
func Equals(a, b Value) bool {
	return equals(a, b, make(map[[2]any]bool))
}

func equals(a, b Value, seen map[[2]any]bool) bool {
	if eq, ok := equalNumbers(a, b); ok {
		return eq
	}

	switch x := a.(type) {
	case Bool:
		y, ok := b.(Bool)

		return ok && x == y
	case Str:
		y, ok := b.(Str)

		return ok && x == y
	case Unit:
		_, ok := b.(Unit)

		return ok
	case *List:
		y, ok := b.(*List)
		if !ok || len(x.Elems) != len(y.Elems) {
			return false
		}

		if x == y || seen[[2]any{x, y}] {
			return true
		}

		seen[[2]any{x, y}] = true

		for i := range x.Elems {
			if !equals(x.Elems[i], y.Elems[i], seen) {
				return false
			}
		}

		return true
	case *Dict:
		y, ok := b.(*Dict)
		if !ok || x.Len() != y.Len() {
			return false
		}

		if x == y || seen[[2]any{x, y}] {
			return true
		}

		seen[[2]any{x, y}] = true

		for h, e := range x.entries {
			f, ok := y.entries[h]
			if !ok || !equals(e.val, f.val, seen) {
				return false
			}
		}

		return true
	}

	return false
}

// equalNumbers compares two numbers. Int pairs compare exactly, and an Int
// equals a Float only when the Float is integral and converts to the same
// Int. ok is false unless both operands are numbers.
func equalNumbers(a, b Value) (equal, ok bool) {
	switch x := a.(type) {
	case Int:
		switch y := b.(type) {
		case Int:
			return x == y, true
		case Float:
			return cmpIntFloat(x, float64(y)) == 0 && !math.IsNaN(float64(y)), true
		}
	case Float:
		switch y := b.(type) {
		case Int:
			return cmpIntFloat(y, float64(x)) == 0 && !math.IsNaN(float64(x)), true
		case Float:
			return x == y, true
		}
	}

	return false, false
}

// compareNumbers orders two numbers without rounding an Int through
// float64. ok is false unless both operands are numbers.
func compareNumbers(a, b Value) (c int, ok bool) {
	switch x := a.(type) {
	case Int:
		switch y := b.(type) {
		case Int:
			return cmp3(x, y), true
		case Float:
			return cmpIntFloat(x, float64(y)), true
		}
	case Float:
		switch y := b.(type) {
		case Int:
			return -cmpIntFloat(y, float64(x)), true
		case Float:
			return cmp3(x, y), true
		}
	}

	return 0, false
}

// cmpIntFloat orders i against f. Integral floats in the int64 range compare
// as integers; floats beyond it are larger or smaller than every Int.
func cmpIntFloat(i Int, f float64) int {
	if j, ok := floatToInt(f); ok {
		return cmp3(i, j)
	}

	switch {
	case f >= math.MaxInt64:
		return -1
	case f < math.MinInt64:
		return 1
	}

	// A fractional f is below 2^53 in magnitude, so rounding i cannot
	// change the order.
	return cmp3(float64(i), f)
}

// numeric returns both operands as float64 when both are Int or Float.
func numeric(a, b Value) (float64, float64, bool) {
	x, ok := toFloat(a)
	if !ok {
		return 0, 0, false
	}

	y, ok := toFloat(b)
	if !ok {
		return 0, 0, false
	}

	return x, y, true
}

func toFloat(v Value) (float64, bool) {
	switch x := v.(type) {
	case Int:
		return float64(x), true
	case Float:
		return float64(x), true
	}

	return 0, false
}

// Clone returns a deep copy of v. Aliasing within v is preserved in the copy.
func Clone(v Value) Value {
	return clone(v, make(map[any]Value))
}

func clone(v Value, seen map[any]Value) Value {
	switch x := v.(type) {
	case *List:
		if c, ok := seen[x]; ok {
			return c
		}

		c := &List{Elems: make([]Value, len(x.Elems))}
		seen[x] = c

		for i, e := range x.Elems {
			c.Elems[i] = clone(e, seen)
		}

		return c
	case *Dict:
		if c, ok := seen[x]; ok {
			return c
		}

		c := NewDict()
		seen[x] = c

		for k, e := range x.All() {
			c.Set(k, clone(e, seen))
		}

		return c
	}

	return v
}
