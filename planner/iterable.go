package planner

import "github.com/syssam/veloxdb/value"

// Strategy names how much of a matched row an iterable needs to produce:
// a bare count, record ids only, or fully hydrated key+value pairs.
type Strategy uint8

const (
	StrategyCount Strategy = iota
	StrategyKeysOnly
	StrategyKeysAndValues
)

// Direction is the scan order, driven by ORDER BY (or its absence).
type Direction uint8

const (
	Forward Direction = iota
	Reverse
)

// LookupKind distinguishes a graph-edge walk (RecordID -> edge table ->
// RecordID) from a reference-field walk (idiom FETCH-style resolution).
type LookupKind uint8

const (
	LookupGraph LookupKind = iota
	LookupReference
)

// IterableKind tags which concrete shape an Iterable holds.
type IterableKind uint8

const (
	IterValue IterableKind = iota
	IterYield
	IterThing
	IterDefer
	IterRange
	IterTable
	IterIndex
	IterLookup
	IterMergeable
	IterRelatable
)

// Iterable is the planner's abstraction over one source of rows: a single
// literal value, a whole-table scan, an index probe, a graph/reference
// walk, or a synthetic source feeding a write statement (spec §4.6
// "Iterable selection"). Exactly one of the kind-specific fields is
// populated, selected by Kind.
type Iterable struct {
	Kind IterableKind

	// IterValue
	Value value.Value

	// IterYield / IterTable / IterIndex
	Table     string
	Strategy  Strategy
	Direction Direction

	// IterThing / IterDefer / IterMergeable / IterLookup (From)
	Thing value.RecordID

	// IterRange
	Range value.Range

	// IterIndex
	IndexName string

	// IterLookup
	LookupKind LookupKind
	EdgeTable  string

	// IterMergeable
	MergeValue value.Value

	// IterRelatable
	From, To      value.RecordID
	EdgeName      string
	RelateContent *value.Value // nil when RELATE has no CONTENT/SET
}

// ValueIterable wraps a single computed value (e.g. RETURN of a literal,
// or a FOR loop's current element fed back through SELECT).
func ValueIterable(v value.Value) Iterable { return Iterable{Kind: IterValue, Value: v} }

// TableIterable scans every live record in table.
func TableIterable(table string, strategy Strategy, dir Direction) Iterable {
	return Iterable{Kind: IterTable, Table: table, Strategy: strategy, Direction: dir}
}

// ThingIterable targets exactly one known record id.
func ThingIterable(id value.RecordID) Iterable { return Iterable{Kind: IterThing, Thing: id} }

// RangeIterable scans a table's records whose key falls within r.
func RangeIterable(table string, r value.Range, strategy Strategy, dir Direction) Iterable {
	return Iterable{Kind: IterRange, Table: table, Range: r, Strategy: strategy, Direction: dir}
}

// IndexIterable probes a named secondary index.
func IndexIterable(table, index string, strategy Strategy) Iterable {
	return Iterable{Kind: IterIndex, Table: table, IndexName: index, Strategy: strategy}
}

// LookupIterable walks a graph edge table or a reference field starting
// from a known record.
func LookupIterable(from value.RecordID, kind LookupKind, edgeTable string) Iterable {
	return Iterable{Kind: IterLookup, Thing: from, LookupKind: kind, EdgeTable: edgeTable}
}

// MergeableIterable feeds a single record id plus the patch value CREATE/
// UPDATE will merge into it.
func MergeableIterable(id value.RecordID, merge value.Value) Iterable {
	return Iterable{Kind: IterMergeable, Thing: id, MergeValue: merge}
}

// RelatableIterable feeds one RELATE edge triple.
func RelatableIterable(from value.RecordID, edgeName string, to value.RecordID, content *value.Value) Iterable {
	return Iterable{Kind: IterRelatable, From: from, EdgeName: edgeName, To: to, RelateContent: content}
}
