// Package txcache implements the transaction-scoped cache that sits in
// front of the KV store for catalog lookups: namespaces, databases,
// tables, fields, indexes, and similar entities that are read far more
// often than they change within a single transaction's lifetime (spec §4.4
// "Transaction cache"). Grounded on the original implementation's
// kvs/cache/tx module, which keys its cache by a small enum of lookup
// kinds rather than raw byte keys.
package txcache

// Lookup names which catalog entity a cache entry addresses. Using a
// closed enum instead of raw key bytes lets Invalidate drop exactly the
// entries a schema mutation can affect without re-deriving byte prefixes.
type Lookup uint8

const (
	LookupNamespace Lookup = iota
	LookupDatabase
	LookupTable
	LookupField
	LookupIndex
	LookupAccess
	LookupUser
	LookupAPI
	LookupBucket
	LookupAnalyzer
	LookupFunction
	LookupParam
	LookupEvent
	LookupLive
)

// Key identifies one cache entry: a Lookup kind plus the path of names that
// disambiguate it (e.g. LookupTable + ["test", "test", "person"]).
// Equality is by value so Keys can be used directly as map keys once
// flattened through string (see flatten in cache.go).
type Key struct {
	Lookup Lookup
	Path   [4]string
	depth  uint8
}

// NewKey builds a Key from a Lookup kind and its disambiguating path
// segments (1 to 4 of them, depending on Lookup).
func NewKey(l Lookup, path ...string) Key {
	var k Key
	k.Lookup = l
	k.depth = uint8(len(path))
	copy(k.Path[:], path)
	return k
}

// Equal reports whether two Keys address the same cache entry.
func (k Key) Equal(o Key) bool {
	if k.Lookup != o.Lookup || k.depth != o.depth {
		return false
	}
	for i := uint8(0); i < k.depth; i++ {
		if k.Path[i] != o.Path[i] {
			return false
		}
	}
	return true
}

// affectedBy reports whether a schema mutation at invalidated requires
// dropping the entry cached under k: either the same entity, or a
// descendant of an invalidated namespace/database/table whose path is
// prefixed by invalidated's path. For example, invalidating LookupTable
// "test"/"test"/"person" also invalidates any LookupField cached under
// that table, but not an unrelated LookupTable "test"/"test"/"account".
func (k Key) affectedBy(invalidated Key) bool {
	if k.Lookup == invalidated.Lookup {
		return k.sharesPrefixOfLen(invalidated, invalidated.depth)
	}
	if !isHierarchicalAncestor(invalidated.Lookup) {
		return false
	}
	if level(invalidated.Lookup) >= level(k.Lookup) {
		return false
	}
	return k.sharesPrefixOfLen(invalidated, invalidated.depth)
}

func (k Key) sharesPrefixOfLen(o Key, n uint8) bool {
	if n > k.depth || n > o.depth {
		return false
	}
	for i := uint8(0); i < n; i++ {
		if k.Path[i] != o.Path[i] {
			return false
		}
	}
	return true
}

// isHierarchicalAncestor reports whether l is one of the containment kinds
// (namespace/database/table) whose invalidation cascades to everything
// nested under it, as opposed to a leaf kind that only invalidates itself.
func isHierarchicalAncestor(l Lookup) bool {
	switch l {
	case LookupNamespace, LookupDatabase, LookupTable:
		return true
	default:
		return false
	}
}

// level ranks Lookup kinds by nesting depth in the catalog hierarchy, so a
// mutation at a shallower level can be checked against entries cached at a
// deeper one.
func level(l Lookup) int {
	switch l {
	case LookupNamespace:
		return 0
	case LookupDatabase:
		return 1
	case LookupTable, LookupAccess, LookupUser, LookupAPI, LookupBucket, LookupAnalyzer, LookupFunction, LookupParam:
		return 2
	case LookupField, LookupIndex, LookupEvent, LookupLive:
		return 3
	default:
		return 2
	}
}
