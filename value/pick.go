package value

// Pick walks idm over v and returns the value found, or None if any step
// fails to resolve (spec §3 "Idiom": navigation is total, missing paths
// yield None rather than an error).
func Pick(v Value, idm Idiom) Value {
	cur := v
	for i := 0; i < len(idm); i++ {
		p := idm[i]
		switch p.Kind {
		case PartField:
			o, ok := cur.AsObject()
			if !ok {
				return None
			}
			val, present := o.Get(p.Field)
			if !present {
				return None
			}
			cur = val
		case PartIndex:
			a, ok := arrayLike(cur)
			if !ok {
				return None
			}
			idx := normalizeIndex(p.Index, len(a))
			if idx < 0 || idx >= len(a) {
				return None
			}
			cur = a[idx]
		case PartFirst:
			a, ok := arrayLike(cur)
			if !ok || len(a) == 0 {
				return None
			}
			cur = a[0]
		case PartLast:
			a, ok := arrayLike(cur)
			if !ok || len(a) == 0 {
				return None
			}
			cur = a[len(a)-1]
		case PartFlatten:
			a, ok := arrayLike(cur)
			if !ok {
				return None
			}
			out := make(Array, 0, len(a))
			for _, e := range a {
				if inner, nested := arrayLike(e); nested {
					out = append(out, inner...)
				} else {
					out = append(out, e)
				}
			}
			cur = ArrayValue(out)
		case PartAll:
			a, ok := arrayLike(cur)
			if !ok {
				// `*` over an object picks across its field values.
				o, isObj := cur.AsObject()
				if !isObj {
					return None
				}
				a = make(Array, 0, o.Len())
				o.Range(func(_ string, v Value) bool {
					a = append(a, v)
					return true
				})
			}
			rest := idm[i+1:]
			out := make(Array, 0, len(a))
			for _, e := range a {
				out = append(out, Pick(e, rest))
			}
			return ArrayValue(out)
		case PartWhere:
			a, ok := arrayLike(cur)
			if !ok {
				return None
			}
			pred, ok := p.Where.(func(Value) bool)
			if !ok {
				return None
			}
			out := make(Array, 0, len(a))
			for _, e := range a {
				if pred(e) {
					out = append(out, e)
				}
			}
			cur = ArrayValue(out)
		default:
			return None
		}
	}
	return cur
}

func arrayLike(v Value) (Array, bool) {
	if a, ok := v.AsArray(); ok {
		return a, true
	}
	if a, ok := v.AsSet(); ok {
		return a, true
	}
	return nil, false
}

// normalizeIndex turns a possibly-negative index (counts from the end) into
// a 0-based index, without bounds checking.
func normalizeIndex(i, n int) int {
	if i < 0 {
		return n + i
	}
	return i
}
