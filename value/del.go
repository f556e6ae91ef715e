package value

// Del returns a copy of v with the field/index named by idm removed. It is
// a no-op (returns v unchanged, by value) if idm does not resolve (spec §3
// "Idiom": DELETE navigation is total, missing paths are silently ignored).
func Del(v Value, idm Idiom) Value {
	if len(idm) == 0 {
		return v
	}
	p := idm[0]
	rest := idm[1:]
	if len(rest) == 0 {
		switch p.Kind {
		case PartField:
			o, ok := v.AsObject()
			if !ok {
				return v
			}
			o = o.Clone()
			o.Delete(p.Field)
			return ObjectValue(o)
		case PartIndex:
			a, ok := arrayLike(v)
			if !ok {
				return v
			}
			idx := normalizeIndex(p.Index, len(a))
			if idx < 0 || idx >= len(a) {
				return v
			}
			out := make(Array, 0, len(a)-1)
			out = append(out, a[:idx]...)
			out = append(out, a[idx+1:]...)
			return ArrayValue(out)
		case PartAll:
			// Terminal `[*]` clears the array outright.
			if _, ok := arrayLike(v); !ok {
				return v
			}
			return ArrayValue(Array{})
		case PartFirst:
			a, ok := arrayLike(v)
			if !ok || len(a) == 0 {
				return v
			}
			return ArrayValue(cloneArray(a[1:]))
		case PartLast:
			a, ok := arrayLike(v)
			if !ok || len(a) == 0 {
				return v
			}
			return ArrayValue(cloneArray(a[:len(a)-1]))
		case PartWhere:
			// Terminal `[WHERE p]` abolishes matching elements, keeping
			// the remainder in their original order.
			a, ok := arrayLike(v)
			if !ok {
				return v
			}
			pred, ok := p.Where.(func(Value) bool)
			if !ok {
				return v
			}
			out := make(Array, 0, len(a))
			for _, el := range a {
				if !pred(el) {
					out = append(out, el)
				}
			}
			return ArrayValue(out)
		default:
			return v
		}
	}
	switch p.Kind {
	case PartField:
		o, ok := v.AsObject()
		if !ok {
			return v
		}
		child, present := o.Get(p.Field)
		if !present {
			return v
		}
		o = o.Clone()
		o.Set(p.Field, Del(child, rest))
		return ObjectValue(o)
	case PartIndex:
		a, ok := arrayLike(v)
		if !ok {
			return v
		}
		idx := normalizeIndex(p.Index, len(a))
		if idx < 0 || idx >= len(a) {
			return v
		}
		a = cloneArray(a)
		a[idx] = Del(a[idx], rest)
		return ArrayValue(a)
	case PartAll, PartFlatten:
		a, ok := arrayLike(v)
		if !ok {
			return v
		}
		a = cloneArray(a)
		for i := range a {
			a[i] = Del(a[i], rest)
		}
		return ArrayValue(a)
	default:
		return v
	}
}
