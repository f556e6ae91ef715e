// Package value implements the polymorphic data model shared by records,
// query results, and parameters: a tagged-union Value type plus the
// Idiom-driven navigation operations (pick/put/del/patch/compare) used
// throughout parsing, planning, and execution.
package value

import (
	"fmt"
	"sort"
)

// Kind tags which variant a Value currently holds.
type Kind uint8

const (
	KindNone Kind = iota
	KindNull
	KindBool
	KindNumber
	KindString
	KindBytes
	KindRegex
	KindDuration
	KindDatetime
	KindUuid
	KindRecordID
	KindArray
	KindSet
	KindObject
	KindRange
	KindGeometry
	KindFile
	KindClosure
)

// String renders the kind's type name, as surfaced by the type::is::* and
// type() functions.
func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindBytes:
		return "bytes"
	case KindRegex:
		return "regex"
	case KindDuration:
		return "duration"
	case KindDatetime:
		return "datetime"
	case KindUuid:
		return "uuid"
	case KindRecordID:
		return "record"
	case KindArray:
		return "array"
	case KindSet:
		return "set"
	case KindObject:
		return "object"
	case KindRange:
		return "range"
	case KindGeometry:
		return "geometry"
	case KindFile:
		return "file"
	case KindClosure:
		return "closure"
	default:
		return "unknown"
	}
}

// Value is the single data type flowing through records, parameters, and
// query results. It behaves as a tagged union: kind selects which field of
// raw is meaningful. Go has no native union, so the payload is carried in
// an untyped field and recovered through the typed accessors below; callers
// outside this package should prefer the accessors over inspecting raw.
type Value struct {
	kind Kind
	raw  any
}

// None is the absence-of-a-field sentinel (distinct from Null, spec §3
// "Value" — None never appears in stored records, only transiently during
// computation).
var None = Value{kind: KindNone}

// Null is the explicit SQL-style null value.
var Null = Value{kind: KindNull}

// Kind reports which variant v holds.
func (v Value) Kind() Kind { return v.kind }

// IsNone reports whether v is the None sentinel.
func (v Value) IsNone() bool { return v.kind == KindNone }

// IsNull reports whether v is Null.
func (v Value) IsNull() bool { return v.kind == KindNull }

// IsNullish reports whether v is None or Null, the two variants that most
// idiom/function code treats interchangeably as "nothing here".
func (v Value) IsNullish() bool { return v.kind == KindNone || v.kind == KindNull }

// Bool constructs a boolean Value.
func Bool(b bool) Value { return Value{kind: KindBool, raw: b} }

// AsBool returns the boolean payload and whether v held one.
func (v Value) AsBool() (bool, bool) {
	b, ok := v.raw.(bool)
	return b, ok && v.kind == KindBool
}

// Int builds an integer-valued Number Value.
func Int(n int64) Value { return Value{kind: KindNumber, raw: Int64Number(n)} }

// Float builds a float-valued Number Value.
func Float(f float64) Value { return Value{kind: KindNumber, raw: Float64Number(f)} }

// NumberValue wraps an already-built Number.
func NumberValue(n Number) Value { return Value{kind: KindNumber, raw: n} }

// AsNumber returns the Number payload and whether v held one.
func (v Value) AsNumber() (Number, bool) {
	n, ok := v.raw.(Number)
	return n, ok && v.kind == KindNumber
}

// String builds a string Value.
func String(s string) Value { return Value{kind: KindString, raw: s} }

// AsString returns the string payload and whether v held one.
func (v Value) AsString() (string, bool) {
	s, ok := v.raw.(string)
	return s, ok && v.kind == KindString
}

// Bytes builds a byte-string Value.
func Bytes(b []byte) Value { return Value{kind: KindBytes, raw: append([]byte(nil), b...)} }

// AsBytes returns the byte-slice payload and whether v held one.
func (v Value) AsBytes() ([]byte, bool) {
	b, ok := v.raw.([]byte)
	return b, ok && v.kind == KindBytes
}

// ObjectValue wraps an *Object as a Value.
func ObjectValue(o *Object) Value { return Value{kind: KindObject, raw: o} }

// AsObject returns the *Object payload and whether v held one.
func (v Value) AsObject() (*Object, bool) {
	o, ok := v.raw.(*Object)
	return o, ok && v.kind == KindObject
}

// Array is an ordered, possibly-heterogeneous list of Values.
type Array []Value

// ArrayValue wraps an Array as a Value.
func ArrayValue(a Array) Value { return Value{kind: KindArray, raw: a} }

// AsArray returns the Array payload and whether v held one.
func (v Value) AsArray() (Array, bool) {
	a, ok := v.raw.(Array)
	return a, ok && v.kind == KindArray
}

// SetValue wraps an Array as a deduplicated, order-preserving Set Value
// (spec §3 "Value.Set": an array with set semantics on write, ordered
// iteration like Array).
func SetValue(a Array) Value {
	return Value{kind: KindSet, raw: dedupArray(a)}
}

// AsSet returns the underlying Array payload of a Set Value.
func (v Value) AsSet() (Array, bool) {
	a, ok := v.raw.(Array)
	return a, ok && v.kind == KindSet
}

func dedupArray(a Array) Array {
	out := make(Array, 0, len(a))
	for _, v := range a {
		dup := false
		for _, o := range out {
			if v.Equal(o) {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, v)
		}
	}
	return out
}

// Equal implements deep structural equality across every variant (spec §3
// "Value" invariant: "equality is deep and representation-independent").
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindNone, KindNull:
		return true
	case KindBool:
		a, _ := v.AsBool()
		b, _ := o.AsBool()
		return a == b
	case KindNumber:
		a, _ := v.AsNumber()
		b, _ := o.AsNumber()
		return a.Equal(b)
	case KindString:
		a, _ := v.AsString()
		b, _ := o.AsString()
		return a == b
	case KindBytes:
		a, _ := v.AsBytes()
		b, _ := o.AsBytes()
		return string(a) == string(b)
	case KindObject:
		a, _ := v.AsObject()
		b, _ := o.AsObject()
		return a.Equal(b)
	case KindArray, KindSet:
		var a, b Array
		if v.kind == KindArray {
			a, _ = v.AsArray()
			b, _ = o.AsArray()
		} else {
			a, _ = v.AsSet()
			b, _ = o.AsSet()
		}
		if len(a) != len(b) {
			return false
		}
		for i := range a {
			if !a[i].Equal(b[i]) {
				return false
			}
		}
		return true
	case KindRecordID:
		a, _ := v.raw.(RecordID)
		b, _ := o.raw.(RecordID)
		return a.Equal(b)
	case KindUuid:
		a, _ := v.raw.(UUID)
		b, _ := o.raw.(UUID)
		return a == b
	case KindDuration:
		a, _ := v.raw.(Duration)
		b, _ := o.raw.(Duration)
		return a == b
	case KindDatetime:
		a, _ := v.raw.(Datetime)
		b, _ := o.raw.(Datetime)
		return a.Equal(b)
	case KindRegex:
		a, _ := v.raw.(Regex)
		b, _ := o.raw.(Regex)
		return a.Pattern == b.Pattern
	case KindRange:
		a, _ := v.raw.(Range)
		b, _ := o.raw.(Range)
		return a.Equal(b)
	case KindGeometry:
		a, _ := v.raw.(Geometry)
		b, _ := o.raw.(Geometry)
		return a.Equal(b)
	case KindFile:
		a, _ := v.raw.(File)
		b, _ := o.raw.(File)
		return a == b
	case KindClosure:
		return false // closures never compare equal, even to themselves by value (function identity is ref-based)
	default:
		return false
	}
}

// String renders v the way it would be echoed back in a query result's
// textual form. It is not a serialization format; see key/codec and
// kv/codec for those.
func (v Value) String() string {
	switch v.kind {
	case KindNone:
		return "NONE"
	case KindNull:
		return "NULL"
	case KindBool:
		b, _ := v.AsBool()
		if b {
			return "true"
		}
		return "false"
	case KindNumber:
		n, _ := v.AsNumber()
		return n.String()
	case KindString:
		s, _ := v.AsString()
		return fmt.Sprintf("%q", s)
	case KindBytes:
		b, _ := v.AsBytes()
		return fmt.Sprintf("%x", b)
	case KindObject:
		o, _ := v.AsObject()
		keys := append([]string(nil), o.Keys()...)
		sort.Strings(keys)
		s := "{"
		for i, k := range keys {
			if i > 0 {
				s += ", "
			}
			val, _ := o.Get(k)
			s += fmt.Sprintf("%s: %s", k, val.String())
		}
		return s + "}"
	case KindArray, KindSet:
		var a Array
		if v.kind == KindArray {
			a, _ = v.AsArray()
		} else {
			a, _ = v.AsSet()
		}
		s := "["
		for i, e := range a {
			if i > 0 {
				s += ", "
			}
			s += e.String()
		}
		return s + "]"
	case KindRecordID:
		r, _ := v.raw.(RecordID)
		return r.String()
	case KindUuid:
		u, _ := v.raw.(UUID)
		return u.String()
	case KindDuration:
		d, _ := v.raw.(Duration)
		return d.String()
	case KindDatetime:
		d, _ := v.raw.(Datetime)
		return d.String()
	case KindClosure:
		return "closure(...)"
	default:
		return v.kind.String()
	}
}
