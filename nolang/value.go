package nolang

import (
	"fmt"
	"math"
	"strings"
)

// Value is the runtime tagged union that lives on the VM's operand stack
// and in its binding environment. Only the field matching Kind is
// meaningful; the rest hold zero values.
//
// Compound values (Variant, Tuple, Array) own their children outright —
// REF clones a Value rather than aliasing it, so there is no shared
// mutable state to reason about across bindings.
type Value struct {
	Kind TypeTag

	I64  int64
	U64  uint64
	F64  float64
	Bool bool
	Char rune

	Variant *VariantValue
	Tuple   []Value
	Array   []Value
}

// VariantValue is the payload of a Value with Kind == Variant.
type VariantValue struct {
	TagCount uint16
	Tag      uint16
	Payload  *Value
}

func NewI64(v int64) Value   { return Value{Kind: I64, I64: v} }
func NewU64(v uint64) Value  { return Value{Kind: U64, U64: v} }
func NewF64(v float64) Value { return Value{Kind: F64, F64: v} }
func NewBool(v bool) Value   { return Value{Kind: Bool, Bool: v} }
func NewChar(v rune) Value   { return Value{Kind: Char, Char: v} }
func NewUnit() Value         { return Value{Kind: Unit} }

func NewVariant(tagCount, tag uint16, payload Value) Value {
	return Value{Kind: Variant, Variant: &VariantValue{TagCount: tagCount, Tag: tag, Payload: &payload}}
}

func NewTuple(elems []Value) Value { return Value{Kind: Tuple, Tuple: elems} }
func NewArray(elems []Value) Value { return Value{Kind: Array, Array: elems} }

// TypeTag returns the value's runtime type tag.
func (v Value) TypeTag() TypeTag {
	return v.Kind
}

// Clone returns a deep copy of v. REF in the VM calls this rather than
// handing out an alias, matching the no-shared-mutable-state design.
func (v Value) Clone() Value {
	switch v.Kind {
	case Variant:
		payload := v.Variant.Payload.Clone()
		return NewVariant(v.Variant.TagCount, v.Variant.Tag, payload)
	case Tuple:
		elems := make([]Value, len(v.Tuple))
		for i, e := range v.Tuple {
			elems[i] = e.Clone()
		}
		return NewTuple(elems)
	case Array:
		elems := make([]Value, len(v.Array))
		for i, e := range v.Array {
			elems[i] = e.Clone()
		}
		return NewArray(elems)
	default:
		return v
	}
}

// Equal implements the reference's bitwise F64 equality: NaN == NaN when
// the bit patterns match, and +0.0 != -0.0. In practice the VM never
// produces NaN or infinity as a live value, but the comparison is defined
// this way regardless so Value stays well-behaved as a map/set key if ever
// needed.
func (v Value) Equal(other Value) bool {
	if v.Kind != other.Kind {
		return false
	}
	switch v.Kind {
	case I64:
		return v.I64 == other.I64
	case U64:
		return v.U64 == other.U64
	case F64:
		return math.Float64bits(v.F64) == math.Float64bits(other.F64)
	case Bool:
		return v.Bool == other.Bool
	case Char:
		return v.Char == other.Char
	case Unit:
		return true
	case Variant:
		return v.Variant.TagCount == other.Variant.TagCount &&
			v.Variant.Tag == other.Variant.Tag &&
			v.Variant.Payload.Equal(*other.Variant.Payload)
	case Tuple:
		return valueSliceEqual(v.Tuple, other.Tuple)
	case Array:
		return valueSliceEqual(v.Array, other.Array)
	default:
		return false
	}
}

func valueSliceEqual(a, b []Value) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equal(b[i]) {
			return false
		}
	}
	return true
}

// String renders a Value the way a developer debugging a trace would want
// to see it: "I64(42)", "Tuple(1, true)", "Array[10, 20, 30]", etc.
func (v Value) String() string {
	switch v.Kind {
	case I64:
		return fmt.Sprintf("I64(%d)", v.I64)
	case U64:
		return fmt.Sprintf("U64(%d)", v.U64)
	case F64:
		return fmt.Sprintf("F64(%v)", v.F64)
	case Bool:
		return fmt.Sprintf("Bool(%v)", v.Bool)
	case Char:
		return fmt.Sprintf("Char('%c')", v.Char)
	case Unit:
		return "Unit"
	case Variant:
		return fmt.Sprintf("Variant(%d/%d, %s)", v.Variant.Tag, v.Variant.TagCount, v.Variant.Payload.String())
	case Tuple:
		return "Tuple(" + joinValues(v.Tuple) + ")"
	case Array:
		return "Array[" + joinValues(v.Array) + "]"
	default:
		return "?unknown?"
	}
}

// joinValues renders Tuple/Array elements: numbers and Bools appear as
// bare values, every other element in its full String() form.
func joinValues(vs []Value) string {
	var b strings.Builder
	for i, e := range vs {
		if i > 0 {
			b.WriteString(", ")
		}
		switch e.Kind {
		case I64:
			fmt.Fprintf(&b, "%d", e.I64)
		case U64:
			fmt.Fprintf(&b, "%d", e.U64)
		case F64:
			fmt.Fprintf(&b, "%v", e.F64)
		case Bool:
			fmt.Fprintf(&b, "%v", e.Bool)
		default:
			b.WriteString(e.String())
		}
	}
	return b.String()
}
