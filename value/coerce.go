package value

import (
	"strconv"

	"github.com/syssam/veloxdb"
)

// TypeName identifies a target type for coercion/casting (spec §4.1
// "coerce_to / cast_to"); it mirrors the DEFINE FIELD TYPE grammar rather
// than Kind directly, since "array<number>" and "option<string>" are not
// expressible as a bare Kind.
type TypeName struct {
	Kind     Kind
	Elem     *TypeName // array<Elem>, set<Elem>
	Optional bool      // option<...>
}

// Simple builds a non-optional scalar TypeName.
func Simple(k Kind) TypeName { return TypeName{Kind: k} }

var typeNamesByWord = map[string]Kind{
	"bool":     KindBool,
	"number":   KindNumber,
	"int":      KindNumber,
	"float":    KindNumber,
	"decimal":  KindNumber,
	"string":   KindString,
	"bytes":    KindBytes,
	"regex":    KindRegex,
	"duration": KindDuration,
	"datetime": KindDatetime,
	"uuid":     KindUuid,
	"record":   KindRecordID,
	"array":    KindArray,
	"set":      KindSet,
	"object":   KindObject,
	"range":    KindRange,
	"geometry": KindGeometry,
	"file":     KindFile,
}

// ParseSimpleTypeName maps a bare type-grammar word (as written in a
// DEFINE FIELD TYPE or function parameter declaration) to a scalar
// TypeName. Parameterized forms (array<T>, option<T>) are resolved by the
// caller, which has the surrounding punctuation the lexer already split out.
func ParseSimpleTypeName(word string) TypeName {
	if k, ok := typeNamesByWord[word]; ok {
		return Simple(k)
	}
	return Simple(KindNone)
}

// CoerceTo performs a strict conversion: it succeeds only when v already
// holds t's kind, or converting would lose no information (e.g. an integer
// Number into a float-typed field). It is used for DEFINE FIELD validation
// (spec §4.1).
func CoerceTo(v Value, t TypeName) (Value, error) {
	if t.Optional && v.IsNullish() {
		return v, nil
	}
	if v.Kind() == t.Kind && t.Elem == nil {
		return v, nil
	}
	switch t.Kind {
	case KindNumber:
		if n, ok := v.AsNumber(); ok {
			return NumberValue(n), nil
		}
	case KindString:
		if v.Kind() == KindNumber {
			return String(v.String()), nil
		}
	case KindArray:
		a, ok := arrayLike(v)
		if !ok {
			break
		}
		if t.Elem == nil {
			return ArrayValue(a), nil
		}
		out := make(Array, len(a))
		for i, e := range a {
			coerced, err := CoerceTo(e, *t.Elem)
			if err != nil {
				return v, err
			}
			out[i] = coerced
		}
		return ArrayValue(out), nil
	case KindSet:
		a, ok := arrayLike(v)
		if !ok {
			break
		}
		if t.Elem == nil {
			return SetValue(a), nil
		}
		out := make(Array, len(a))
		for i, e := range a {
			coerced, err := CoerceTo(e, *t.Elem)
			if err != nil {
				return v, err
			}
			out[i] = coerced
		}
		return SetValue(out), nil
	}
	return v, veloxdb.NewConvertError(v.Kind().String(), t.Kind.String())
}

// CastTo performs a permissive conversion: it attempts to reinterpret v as
// t even across kinds that CoerceTo would reject (string "42" to Number,
// any scalar to String, etc.), used for the `<type>` cast operator (spec
// §4.1).
func CastTo(v Value, t TypeName) (Value, error) {
	if t.Optional && v.IsNullish() {
		return v, nil
	}
	switch t.Kind {
	case KindString:
		return String(v.String()), nil
	case KindBool:
		switch v.Kind() {
		case KindBool:
			b, _ := v.AsBool()
			return Bool(b), nil
		case KindNumber:
			n, _ := v.AsNumber()
			return Bool(n.AsFloat64() != 0), nil
		case KindString:
			s, _ := v.AsString()
			return Bool(s != "" && s != "false" && s != "0"), nil
		}
	case KindNumber:
		switch v.Kind() {
		case KindNumber:
			n, _ := v.AsNumber()
			return NumberValue(n), nil
		case KindString:
			s, _ := v.AsString()
			if f, err := strconv.ParseFloat(s, 64); err == nil {
				return Float(f), nil
			}
		case KindBool:
			b, _ := v.AsBool()
			if b {
				return Int(1), nil
			}
			return Int(0), nil
		}
	case KindArray:
		if a, ok := arrayLike(v); ok {
			return ArrayValue(a), nil
		}
		return ArrayValue(Array{v}), nil
	case KindSet:
		if a, ok := arrayLike(v); ok {
			return SetValue(a), nil
		}
		return SetValue(Array{v}), nil
	default:
		return CoerceTo(v, t)
	}
	return v, veloxdb.NewConvertError(v.Kind().String(), t.Kind.String())
}
