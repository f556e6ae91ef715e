package value

import (
	"fmt"
	"math"
	"math/big"
	"strconv"
)

// NumberKind distinguishes the three numeric representations a Number may
// hold (spec §3 "Value.Number").
type NumberKind uint8

const (
	NumberInt NumberKind = iota
	NumberFloat
	NumberDecimal
)

// Decimal is an arbitrary-precision fixed-point number: unscaled * 10^-scale.
// No corpus dependency provides a decimal type (grounded only in the
// stdlib's math/big; see DESIGN.md), so Decimal is hand-rolled on top of
// big.Int.
type Decimal struct {
	Unscaled *big.Int
	Scale    int32
}

// NewDecimal builds a Decimal from an unscaled big.Int and a scale.
func NewDecimal(unscaled *big.Int, scale int32) Decimal {
	return Decimal{Unscaled: unscaled, Scale: scale}
}

// DecimalFromString parses a decimal literal like "-12.3400".
func DecimalFromString(s string) (Decimal, error) {
	neg := false
	if len(s) > 0 && (s[0] == '+' || s[0] == '-') {
		neg = s[0] == '-'
		s = s[1:]
	}
	intPart, fracPart, hasFrac := s, "", false
	for i, r := range s {
		if r == '.' {
			intPart, fracPart, hasFrac = s[:i], s[i+1:], true
			break
		}
	}
	digits := intPart + fracPart
	if digits == "" {
		return Decimal{}, fmt.Errorf("invalid decimal literal %q", s)
	}
	u, ok := new(big.Int).SetString(digits, 10)
	if !ok {
		return Decimal{}, fmt.Errorf("invalid decimal literal %q", s)
	}
	if neg {
		u.Neg(u)
	}
	scale := int32(0)
	if hasFrac {
		scale = int32(len(fracPart))
	}
	return Decimal{Unscaled: u, Scale: scale}, nil
}

// String renders the decimal in fixed-point notation.
func (d Decimal) String() string {
	if d.Unscaled == nil {
		return "0"
	}
	if d.Scale <= 0 {
		return new(big.Int).Mul(d.Unscaled, pow10(-d.Scale)).String()
	}
	s := new(big.Int).Abs(d.Unscaled).String()
	for int32(len(s)) <= d.Scale {
		s = "0" + s
	}
	cut := int32(len(s)) - d.Scale
	out := s[:cut] + "." + s[cut:]
	if d.Unscaled.Sign() < 0 {
		out = "-" + out
	}
	return out
}

func pow10(n int32) *big.Int {
	return new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(n)), nil)
}

// rescaled returns a and b's unscaled values aligned to the same scale.
func rescaled(a, b Decimal) (*big.Int, *big.Int) {
	if a.Scale == b.Scale {
		return a.Unscaled, b.Unscaled
	}
	if a.Scale < b.Scale {
		return new(big.Int).Mul(a.Unscaled, pow10(b.Scale-a.Scale)), b.Unscaled
	}
	return a.Unscaled, new(big.Int).Mul(b.Unscaled, pow10(a.Scale-b.Scale))
}

// Cmp returns -1, 0, or 1 comparing d to o.
func (d Decimal) Cmp(o Decimal) int {
	x, y := rescaled(d, o)
	return x.Cmp(y)
}

// Float64 converts the decimal to a float64 (lossy for very large/precise
// values, used only for cross-representation ordering and coercion).
func (d Decimal) Float64() float64 {
	f := new(big.Float).SetInt(d.Unscaled)
	scale := new(big.Float).SetInt(pow10(d.Scale))
	f.Quo(f, scale)
	out, _ := f.Float64()
	return out
}

// Number is the Value.Number payload: exactly one of Int/Float/Dec is
// meaningful, selected by Kind.
type Number struct {
	Kind  NumberKind
	Int   int64
	Float float64
	Dec   Decimal
}

// Int64Number builds an integer Number.
func Int64Number(v int64) Number { return Number{Kind: NumberInt, Int: v} }

// Float64Number builds a float Number.
func Float64Number(v float64) Number { return Number{Kind: NumberFloat, Float: v} }

// DecimalNumber builds a decimal Number.
func DecimalNumber(v Decimal) Number { return Number{Kind: NumberDecimal, Dec: v} }

// AsFloat64 widens any numeric representation to float64, used for
// cross-representation comparison (spec §3: "a single natural order spans
// all three numeric representations").
func (n Number) AsFloat64() float64 {
	switch n.Kind {
	case NumberInt:
		return float64(n.Int)
	case NumberFloat:
		return n.Float
	case NumberDecimal:
		return n.Dec.Float64()
	}
	return 0
}

// String renders the number the way it would appear in source.
func (n Number) String() string {
	switch n.Kind {
	case NumberInt:
		return strconv.FormatInt(n.Int, 10)
	case NumberFloat:
		return strconv.FormatFloat(n.Float, 'g', -1, 64)
	case NumberDecimal:
		return n.Dec.String()
	}
	return "0"
}

// Equal implements numeric equality across representations (spec §3:
// "Number equality ... follows numeric equality, not byte equality").
// NaN only equals NaN when both values are NumberFloat (byte-identity rule
// used for Literal dedup, per spec).
func (n Number) Equal(o Number) bool {
	if n.Kind == NumberFloat && math.IsNaN(n.Float) && o.Kind == NumberFloat && math.IsNaN(o.Float) {
		return true
	}
	if n.Kind == NumberDecimal && o.Kind == NumberDecimal {
		return n.Dec.Cmp(o.Dec) == 0
	}
	if n.Kind == NumberInt && o.Kind == NumberInt {
		return n.Int == o.Int
	}
	return n.AsFloat64() == o.AsFloat64()
}

// Compare implements the total numeric order across Int/Float/Decimal.
// NaN floats sort greatest; -0.0 and +0.0 compare equal (spec §3).
func (n Number) Compare(o Number) int {
	if n.Kind == NumberDecimal && o.Kind == NumberDecimal {
		return n.Dec.Cmp(o.Dec)
	}
	a, b := n.AsFloat64(), o.AsFloat64()
	aNaN, bNaN := (n.Kind == NumberFloat && math.IsNaN(n.Float)), (o.Kind == NumberFloat && math.IsNaN(o.Float))
	switch {
	case aNaN && bNaN:
		return 0
	case aNaN:
		return 1
	case bNaN:
		return -1
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
