package value

// kindOrder fixes the precedence None < Null < Bool < Number < String <
// Duration < Datetime < Uuid < Bytes < Array < Set < Object < RecordId <
// Range < Geometry < File < Regex < Closure used when comparing Values of
// different kinds (spec §3 "Value" invariant: "a total order spans every
// variant").
var kindOrder = map[Kind]int{
	KindNone:     0,
	KindNull:     1,
	KindBool:     2,
	KindNumber:   3,
	KindString:   4,
	KindDuration: 5,
	KindDatetime: 6,
	KindUuid:     7,
	KindBytes:    8,
	KindArray:    9,
	KindSet:      10,
	KindObject:   11,
	KindRecordID: 12,
	KindRange:    13,
	KindGeometry: 14,
	KindFile:     15,
	KindRegex:    16,
	KindClosure:  17,
}

// Compare implements the byte-collation total order across every Value
// variant (spec §4.1 "ordering"); it is the default comparator used by
// ORDER BY and index range scans when no COLLATE clause is present. See
// compare.go for the collation-mode variants used when a query requests
// natural or lexical comparison.
func (v Value) Compare(o Value) int {
	if v.kind != o.kind {
		return sign(kindOrder[v.kind] - kindOrder[o.kind])
	}
	switch v.kind {
	case KindNone, KindNull:
		return 0
	case KindBool:
		a, _ := v.AsBool()
		b, _ := o.AsBool()
		return sign(boolToInt(a) - boolToInt(b))
	case KindNumber:
		a, _ := v.AsNumber()
		b, _ := o.AsNumber()
		return a.Compare(b)
	case KindString:
		a, _ := v.AsString()
		b, _ := o.AsString()
		return compareBytes(a, b)
	case KindBytes:
		a, _ := v.AsBytes()
		b, _ := o.AsBytes()
		return compareBytes(string(a), string(b))
	case KindDuration:
		a, _ := v.AsDuration()
		b, _ := o.AsDuration()
		return sign64(int64(a.AsTimeDuration()) - int64(b.AsTimeDuration()))
	case KindDatetime:
		a, _ := v.AsDatetime()
		b, _ := o.AsDatetime()
		return a.Compare(b)
	case KindUuid:
		a, _ := v.AsUUID()
		b, _ := o.AsUUID()
		return compareBytes(a.String(), b.String())
	case KindArray, KindSet:
		var a, b Array
		if v.kind == KindArray {
			a, _ = v.AsArray()
			b, _ = o.AsArray()
		} else {
			a, _ = v.AsSet()
			b, _ = o.AsSet()
		}
		n := len(a)
		if len(b) < n {
			n = len(b)
		}
		for i := 0; i < n; i++ {
			if c := a[i].Compare(b[i]); c != 0 {
				return c
			}
		}
		return sign(len(a) - len(b))
	case KindObject:
		a, _ := v.AsObject()
		b, _ := o.AsObject()
		ak, bk := a.Keys(), b.Keys()
		n := len(ak)
		if len(bk) < n {
			n = len(bk)
		}
		for i := 0; i < n; i++ {
			if c := compareBytes(ak[i], bk[i]); c != 0 {
				return c
			}
			av, _ := a.Get(ak[i])
			bv, _ := b.Get(bk[i])
			if c := av.Compare(bv); c != 0 {
				return c
			}
		}
		return sign(len(ak) - len(bk))
	case KindRecordID:
		a, _ := v.raw.(RecordID)
		b, _ := o.raw.(RecordID)
		if c := compareBytes(a.Table, b.Table); c != 0 {
			return c
		}
		return compareBytes(a.Key.String(), b.Key.String())
	default:
		return compareBytes(v.String(), o.String())
	}
}

func sign(n int) int {
	switch {
	case n < 0:
		return -1
	case n > 0:
		return 1
	default:
		return 0
	}
}

func sign64(n int64) int {
	switch {
	case n < 0:
		return -1
	case n > 0:
		return 1
	default:
		return 0
	}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func compareBytes(a, b string) int {
	if a < b {
		return -1
	}
	if a > b {
		return 1
	}
	return 0
}
