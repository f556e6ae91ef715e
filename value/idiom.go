package value

import "strconv"

// PartKind distinguishes the navigation steps an Idiom can be built from
// (spec §3 "Idiom": a path expression mixing field access, indexing,
// destructuring, and graph traversal).
type PartKind uint8

const (
	// PartField steps into an Object field by name.
	PartField PartKind = iota
	// PartIndex steps into an Array by integer position.
	PartIndex
	// PartAll steps into every element of an Array/Set (or every field value
	// of an Object) and applies the rest of the idiom to each, without
	// flattening the results.
	PartAll
	// PartWhere filters an Array/Set by a predicate (opaque to this package;
	// callers supply the predicate function at evaluation time).
	PartWhere
	// PartFirst takes the first element of an Array/Set.
	PartFirst
	// PartLast takes the last element of an Array/Set.
	PartLast
	// PartFlatten flattens one level of nested Array/Set.
	PartFlatten
	// PartGraph traverses a graph edge (opaque edge spec; planner/exec own
	// the traversal semantics, this package only carries the step).
	PartGraph
)

// Part is one step of an Idiom.
type Part struct {
	Kind  PartKind
	Field string // PartField
	Index int    // PartIndex (negative counts from the end)
	Where any    // PartWhere predicate, opaque to this package
	Graph any    // PartGraph edge spec, opaque to this package
}

// FieldPart builds a PartField step.
func FieldPart(name string) Part { return Part{Kind: PartField, Field: name} }

// IndexPart builds a PartIndex step.
func IndexPart(i int) Part { return Part{Kind: PartIndex, Index: i} }

// String renders a single part the way it appears in an idiom literal.
func (p Part) String() string {
	switch p.Kind {
	case PartField:
		return p.Field
	case PartIndex:
		return strconv.Itoa(p.Index)
	case PartAll:
		return "*"
	case PartWhere:
		return "WHERE ..."
	case PartFirst:
		return "FIRST"
	case PartLast:
		return "LAST"
	case PartFlatten:
		return "FLATTEN"
	case PartGraph:
		return "->..."
	default:
		return ""
	}
}

// Idiom is an ordered sequence of Parts, the vocabulary every pick/put/del
// navigation operation walks (spec §3 "Idiom").
type Idiom []Part

// NewIdiom builds an Idiom from parts.
func NewIdiom(parts ...Part) Idiom { return Idiom(parts) }

// String renders the idiom in dotted/bracketed source form.
func (idm Idiom) String() string {
	s := ""
	for i, p := range idm {
		switch p.Kind {
		case PartIndex, PartAll, PartWhere, PartFirst, PartLast, PartFlatten:
			s += "[" + p.String() + "]"
		default:
			if i > 0 {
				s += "."
			}
			s += p.String()
		}
	}
	return s
}

// IsSimple reports whether every part is a plain field step, the common
// case that lets callers skip the general navigation machinery.
func (idm Idiom) IsSimple() bool {
	for _, p := range idm {
		if p.Kind != PartField {
			return false
		}
	}
	return true
}
