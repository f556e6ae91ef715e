package value

// Every reports whether pred holds for every Value reached under mode
// (spec §4.1 "array traversal modes"); an empty Array/Set vacuously
// satisfies Nested/Full modes.
func Every(v Value, mode ArrayMode, pred func(Value) bool) bool {
	ok := true
	Each(v, mode, func(e Value) {
		if !pred(e) {
			ok = false
		}
	})
	return ok
}

// Any reports whether pred holds for at least one Value reached under mode.
func Any(v Value, mode ArrayMode, pred func(Value) bool) bool {
	found := false
	Each(v, mode, func(e Value) {
		if pred(e) {
			found = true
		}
	})
	return found
}

// Map applies fn to every Value reached under mode and rebuilds the
// original Array/Set/scalar shape with the results.
func Map(v Value, mode ArrayMode, fn func(Value) Value) Value {
	switch mode {
	case ArrayModeIgnore:
		return fn(v)
	case ArrayModeNested:
		a, ok := arrayLike(v)
		if !ok {
			return fn(v)
		}
		out := make(Array, len(a))
		for i, e := range a {
			out[i] = fn(e)
		}
		return rewrapArray(v, out)
	case ArrayModeFull:
		return mapFull(v, fn)
	default:
		return v
	}
}

func mapFull(v Value, fn func(Value) Value) Value {
	a, ok := arrayLike(v)
	if !ok {
		return fn(v)
	}
	out := make(Array, len(a))
	for i, e := range a {
		out[i] = mapFull(e, fn)
	}
	return rewrapArray(v, out)
}

func rewrapArray(original Value, elems Array) Value {
	if original.Kind() == KindSet {
		return SetValue(elems)
	}
	return ArrayValue(elems)
}
