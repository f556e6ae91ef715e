package value

// ArrayMode controls how predicate-like walks (Each/Every, and idiom parts
// that implicitly map over arrays) treat nested Array/Set values (spec §3
// "Idiom" / §4.1 "array traversal modes").
type ArrayMode uint8

const (
	// ArrayModeIgnore applies the walk only to the top-level value, even if
	// it is itself an Array/Set.
	ArrayModeIgnore ArrayMode = iota
	// ArrayModeNested applies the walk to each direct element of a
	// top-level Array/Set, one level deep.
	ArrayModeNested
	// ArrayModeFull applies the walk recursively through every level of
	// nested Array/Set.
	ArrayModeFull
)

// Each calls fn once per Value reached under mode, in order.
func Each(v Value, mode ArrayMode, fn func(Value)) {
	switch mode {
	case ArrayModeIgnore:
		fn(v)
	case ArrayModeNested:
		a, ok := arrayLike(v)
		if !ok {
			fn(v)
			return
		}
		for _, e := range a {
			fn(e)
		}
	case ArrayModeFull:
		eachFull(v, fn)
	}
}

func eachFull(v Value, fn func(Value)) {
	if a, ok := arrayLike(v); ok {
		for _, e := range a {
			eachFull(e, fn)
		}
		return
	}
	fn(v)
}
