// Package key implements the ordered binary encoding used for every
// storage key: a byte-comparable codec over a small set of components
// (namespace/database/table/record/index segments), so a lexical range
// scan over the underlying store is also a range scan over the logical key
// space (spec §4.2 "Key codec").
package key

// Category tags the logical kind of entity a key addresses. It is encoded
// as the key's leading byte so that scanning a Category prefix yields
// exactly the rows of that kind, in a stable relative order across
// categories (spec §4.2 "Key layout").
type Category uint8

const (
	CategoryRoot Category = iota
	CategoryNamespace
	CategoryDatabase
	CategoryTable
	CategoryField
	CategoryIndex
	CategoryAccess
	CategoryUser
	CategoryAPI
	CategoryBucket
	CategoryAnalyzer
	CategoryFunction
	CategoryParam
	CategoryEvent
	CategoryLive
	CategoryRecord
	CategoryIndexEntry
	CategoryGraphEdge
	CategoryChangefeed
	CategoryReference
)

// String renders the category name for diagnostics.
func (c Category) String() string {
	switch c {
	case CategoryRoot:
		return "root"
	case CategoryNamespace:
		return "namespace"
	case CategoryDatabase:
		return "database"
	case CategoryTable:
		return "table"
	case CategoryField:
		return "field"
	case CategoryIndex:
		return "index"
	case CategoryAccess:
		return "access"
	case CategoryUser:
		return "user"
	case CategoryAPI:
		return "api"
	case CategoryBucket:
		return "bucket"
	case CategoryAnalyzer:
		return "analyzer"
	case CategoryFunction:
		return "function"
	case CategoryParam:
		return "param"
	case CategoryEvent:
		return "event"
	case CategoryLive:
		return "live"
	case CategoryRecord:
		return "record"
	case CategoryIndexEntry:
		return "index_entry"
	case CategoryGraphEdge:
		return "graph_edge"
	case CategoryChangefeed:
		return "changefeed"
	case CategoryReference:
		return "reference"
	default:
		return "unknown"
	}
}
