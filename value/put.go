package value

// Put returns a copy of v with idm set to newVal, creating intermediate
// objects as needed (spec §3 "Idiom": PUT/UPDATE navigation is
// copy-on-write, the original Value and any Values derived from it before
// the call are left untouched).
func Put(v Value, idm Idiom, newVal Value) Value {
	if len(idm) == 0 {
		return newVal
	}
	p := idm[0]
	rest := idm[1:]
	switch p.Kind {
	case PartField:
		o, ok := v.AsObject()
		if !ok {
			// Only an absent or explicit-null node promotes to a fresh
			// object; writing a field into any other non-object leaf is a
			// silent no-op so a scalar is never corrupted mid-path.
			if !v.IsNullish() {
				return v
			}
			o = NewObject()
		} else {
			o = o.Clone()
		}
		child, _ := o.Get(p.Field)
		o.Set(p.Field, Put(child, rest, newVal))
		return ObjectValue(o)
	case PartIndex:
		a, ok := arrayLike(v)
		if !ok {
			if !v.IsNullish() {
				return v
			}
			a = nil
		}
		a = cloneArray(a)
		idx := normalizeIndex(p.Index, len(a))
		for idx >= len(a) {
			a = append(a, None)
		}
		if idx < 0 {
			return v
		}
		a[idx] = Put(a[idx], rest, newVal)
		return ArrayValue(a)
	case PartLast:
		a, _ := arrayLike(v)
		a = cloneArray(a)
		if len(a) == 0 {
			a = append(a, None)
		}
		a[len(a)-1] = Put(a[len(a)-1], rest, newVal)
		return ArrayValue(a)
	case PartFirst:
		a, _ := arrayLike(v)
		a = cloneArray(a)
		if len(a) == 0 {
			a = append(a, None)
		}
		a[0] = Put(a[0], rest, newVal)
		return ArrayValue(a)
	case PartAll, PartFlatten:
		a, _ := arrayLike(v)
		a = cloneArray(a)
		for i := range a {
			a[i] = Put(a[i], rest, newVal)
		}
		return ArrayValue(a)
	default:
		return v
	}
}

func cloneArray(a Array) Array {
	out := make(Array, len(a))
	copy(out, a)
	return out
}
