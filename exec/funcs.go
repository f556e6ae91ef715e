package exec

import (
	"strings"
	"time"

	"github.com/syssam/veloxdb"
	"github.com/syssam/veloxdb/value"
)

// BuiltinFunc is one engine function callable from query text. Functions
// are pure over their arguments; anything that needs the store goes
// through an operator instead.
type BuiltinFunc func(args []value.Value) (value.Value, error)

// DefaultFuncs is the standard function library, keyed by lower-case
// name (namespaced names use the `family::name` convention of the query
// language).
var DefaultFuncs = map[string]BuiltinFunc{
	"count":             fnCount,
	"array::len":        fnArrayLen,
	"array::distinct":   fnArrayDistinct,
	"array::flatten":    fnArrayFlatten,
	"array::first":      fnArrayFirst,
	"array::last":       fnArrayLast,
	"string::len":       fnStringLen,
	"string::concat":    fnStringConcat,
	"string::lowercase": fnStringLowercase,
	"string::uppercase": fnStringUppercase,
	"string::trim":      fnStringTrim,
	"math::abs":         fnMathAbs,
	"math::min":         fnMathMin,
	"math::max":         fnMathMax,
	"math::sum":         fnMathSum,
	"math::mean":        fnMathMean,
	"time::now":         fnTimeNow,
	"rand::uuid":        fnRandUUID,
	"type::string":      fnTypeString,
}

func fnCount(args []value.Value) (value.Value, error) {
	if len(args) == 0 {
		return value.Int(1), nil
	}
	if a, ok := asArrayLike(args[0]); ok {
		return value.Int(int64(len(a))), nil
	}
	if truthy(args[0]) {
		return value.Int(1), nil
	}
	return value.Int(0), nil
}

func oneArray(name string, args []value.Value) (value.Array, error) {
	if len(args) != 1 {
		return nil, veloxdb.NewInvalidArgumentsError(name, "expected one argument")
	}
	a, ok := asArrayLike(args[0])
	if !ok {
		return nil, veloxdb.NewInvalidArgumentsError(name, "expected an array")
	}
	return a, nil
}

func fnArrayLen(args []value.Value) (value.Value, error) {
	a, err := oneArray("array::len", args)
	if err != nil {
		return value.None, err
	}
	return value.Int(int64(len(a))), nil
}

func fnArrayDistinct(args []value.Value) (value.Value, error) {
	a, err := oneArray("array::distinct", args)
	if err != nil {
		return value.None, err
	}
	out := make(value.Array, 0, len(a))
	for _, el := range a {
		dup := false
		for _, seen := range out {
			if seen.Equal(el) {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, el)
		}
	}
	return value.ArrayValue(out), nil
}

func fnArrayFlatten(args []value.Value) (value.Value, error) {
	a, err := oneArray("array::flatten", args)
	if err != nil {
		return value.None, err
	}
	out := make(value.Array, 0, len(a))
	for _, el := range a {
		if inner, ok := asArrayLike(el); ok {
			out = append(out, inner...)
			continue
		}
		out = append(out, el)
	}
	return value.ArrayValue(out), nil
}

func fnArrayFirst(args []value.Value) (value.Value, error) {
	a, err := oneArray("array::first", args)
	if err != nil {
		return value.None, err
	}
	if len(a) == 0 {
		return value.None, nil
	}
	return a[0], nil
}

func fnArrayLast(args []value.Value) (value.Value, error) {
	a, err := oneArray("array::last", args)
	if err != nil {
		return value.None, err
	}
	if len(a) == 0 {
		return value.None, nil
	}
	return a[len(a)-1], nil
}

func oneString(name string, args []value.Value) (string, error) {
	if len(args) != 1 {
		return "", veloxdb.NewInvalidArgumentsError(name, "expected one argument")
	}
	s, ok := args[0].AsString()
	if !ok {
		return "", veloxdb.NewInvalidArgumentsError(name, "expected a string")
	}
	return s, nil
}

func fnStringLen(args []value.Value) (value.Value, error) {
	s, err := oneString("string::len", args)
	if err != nil {
		return value.None, err
	}
	return value.Int(int64(len(s))), nil
}

func fnStringConcat(args []value.Value) (value.Value, error) {
	var b strings.Builder
	for _, a := range args {
		if s, ok := a.AsString(); ok {
			b.WriteString(s)
			continue
		}
		b.WriteString(a.String())
	}
	return value.String(b.String()), nil
}

func fnStringLowercase(args []value.Value) (value.Value, error) {
	s, err := oneString("string::lowercase", args)
	if err != nil {
		return value.None, err
	}
	return value.String(strings.ToLower(s)), nil
}

func fnStringUppercase(args []value.Value) (value.Value, error) {
	s, err := oneString("string::uppercase", args)
	if err != nil {
		return value.None, err
	}
	return value.String(strings.ToUpper(s)), nil
}

func fnStringTrim(args []value.Value) (value.Value, error) {
	s, err := oneString("string::trim", args)
	if err != nil {
		return value.None, err
	}
	return value.String(strings.TrimSpace(s)), nil
}

func numbersIn(name string, args []value.Value) ([]value.Number, error) {
	vals := args
	if len(args) == 1 {
		if a, ok := asArrayLike(args[0]); ok {
			vals = a
		}
	}
	out := make([]value.Number, 0, len(vals))
	for _, v := range vals {
		n, ok := v.AsNumber()
		if !ok {
			return nil, veloxdb.NewInvalidArgumentsError(name, "expected numbers")
		}
		out = append(out, n)
	}
	return out, nil
}

func fnMathAbs(args []value.Value) (value.Value, error) {
	ns, err := numbersIn("math::abs", args)
	if err != nil {
		return value.None, err
	}
	if len(ns) != 1 {
		return value.None, veloxdb.NewInvalidArgumentsError("math::abs", "expected one number")
	}
	n := ns[0]
	if n.Kind == value.NumberInt {
		if n.Int < 0 {
			return value.Int(-n.Int), nil
		}
		return value.Int(n.Int), nil
	}
	f := n.AsFloat64()
	if f < 0 {
		f = -f
	}
	return value.Float(f), nil
}

func fnMathMin(args []value.Value) (value.Value, error) {
	ns, err := numbersIn("math::min", args)
	if err != nil || len(ns) == 0 {
		return value.None, err
	}
	best := ns[0]
	for _, n := range ns[1:] {
		if n.Compare(best) < 0 {
			best = n
		}
	}
	return value.NumberValue(best), nil
}

func fnMathMax(args []value.Value) (value.Value, error) {
	ns, err := numbersIn("math::max", args)
	if err != nil || len(ns) == 0 {
		return value.None, err
	}
	best := ns[0]
	for _, n := range ns[1:] {
		if n.Compare(best) > 0 {
			best = n
		}
	}
	return value.NumberValue(best), nil
}

func fnMathSum(args []value.Value) (value.Value, error) {
	ns, err := numbersIn("math::sum", args)
	if err != nil {
		return value.None, err
	}
	sum := 0.0
	allInt := true
	var isum int64
	for _, n := range ns {
		sum += n.AsFloat64()
		if n.Kind == value.NumberInt {
			isum += n.Int
		} else {
			allInt = false
		}
	}
	if allInt {
		return value.Int(isum), nil
	}
	return value.Float(sum), nil
}

func fnMathMean(args []value.Value) (value.Value, error) {
	ns, err := numbersIn("math::mean", args)
	if err != nil {
		return value.None, err
	}
	if len(ns) == 0 {
		return value.None, nil
	}
	sum := 0.0
	for _, n := range ns {
		sum += n.AsFloat64()
	}
	return value.Float(sum / float64(len(ns))), nil
}

func fnTimeNow(args []value.Value) (value.Value, error) {
	return value.DatetimeValue(value.NewDatetime(time.Now().UTC(), 0)), nil
}

func fnRandUUID(args []value.Value) (value.Value, error) {
	return value.UUIDValue(value.NewUUID()), nil
}

func fnTypeString(args []value.Value) (value.Value, error) {
	if len(args) != 1 {
		return value.None, veloxdb.NewInvalidArgumentsError("type::string", "expected one argument")
	}
	return value.String(args[0].String()), nil
}
