package key

import "github.com/syssam/veloxdb/value"

// Namespace builds the key for a namespace catalog entry.
func Namespace(ns string) []byte {
	return NewEncoder().PutCategory(CategoryNamespace).PutString(ns).Bytes()
}

// Database builds the key for a database catalog entry.
func Database(ns, db string) []byte {
	return NewEncoder().PutCategory(CategoryDatabase).PutString(ns).PutString(db).Bytes()
}

// Table builds the key for a table catalog entry.
func Table(ns, db, tb string) []byte {
	return NewEncoder().PutCategory(CategoryTable).PutString(ns).PutString(db).PutString(tb).Bytes()
}

// Field builds the key for a field definition entry.
func Field(ns, db, tb, fd string) []byte {
	return NewEncoder().PutCategory(CategoryField).PutString(ns).PutString(db).PutString(tb).PutString(fd).Bytes()
}

// Index builds the key for an index definition entry.
func Index(ns, db, tb, ix string) []byte {
	return NewEncoder().PutCategory(CategoryIndex).PutString(ns).PutString(db).PutString(tb).PutString(ix).Bytes()
}

// Function builds the key for a function definition entry.
func Function(ns, db, fn string) []byte {
	return NewEncoder().PutCategory(CategoryFunction).PutString(ns).PutString(db).PutString(fn).Bytes()
}

// Param builds the key for a param definition entry.
func Param(ns, db, pa string) []byte {
	return NewEncoder().PutCategory(CategoryParam).PutString(ns).PutString(db).PutString(pa).Bytes()
}

// Event builds the key for an event definition entry.
func Event(ns, db, tb, ev string) []byte {
	return NewEncoder().PutCategory(CategoryEvent).PutString(ns).PutString(db).PutString(tb).PutString(ev).Bytes()
}

// Live builds the key for a live-query registration entry.
func Live(ns, db, tb, id string) []byte {
	return NewEncoder().PutCategory(CategoryLive).PutString(ns).PutString(db).PutString(tb).PutString(id).Bytes()
}

// Access builds the key for an access-method definition entry.
func Access(ns, db, ac string) []byte {
	return NewEncoder().PutCategory(CategoryAccess).PutString(ns).PutString(db).PutString(ac).Bytes()
}

// User builds the key for a user definition entry.
func User(ns, db, us string) []byte {
	return NewEncoder().PutCategory(CategoryUser).PutString(ns).PutString(db).PutString(us).Bytes()
}

// API builds the key for an api definition entry, keyed by path.
func API(ns, db, path string) []byte {
	return NewEncoder().PutCategory(CategoryAPI).PutString(ns).PutString(db).PutString(path).Bytes()
}

// Bucket builds the key for a bucket definition entry.
func Bucket(ns, db, bu string) []byte {
	return NewEncoder().PutCategory(CategoryBucket).PutString(ns).PutString(db).PutString(bu).Bytes()
}

// Analyzer builds the key for an analyzer definition entry.
func Analyzer(ns, db, az string) []byte {
	return NewEncoder().PutCategory(CategoryAnalyzer).PutString(ns).PutString(db).PutString(az).Bytes()
}

// AnalyzersPrefix bounds a scan over every analyzer in a database.
func AnalyzersPrefix(ns, db string) []byte {
	return NewEncoder().PutCategory(CategoryAnalyzer).PutString(ns).PutString(db).Bytes()
}

// UsersPrefix bounds a scan over every user in a database scope.
func UsersPrefix(ns, db string) []byte {
	return NewEncoder().PutCategory(CategoryUser).PutString(ns).PutString(db).Bytes()
}

// NamespacesPrefix bounds a scan over every namespace entry.
func NamespacesPrefix() []byte {
	return NewEncoder().PutCategory(CategoryNamespace).Bytes()
}

// DatabasesPrefix bounds a scan over every database in a namespace.
func DatabasesPrefix(ns string) []byte {
	return NewEncoder().PutCategory(CategoryDatabase).PutString(ns).Bytes()
}

// TablesPrefix bounds a scan over every table in a database.
func TablesPrefix(ns, db string) []byte {
	return NewEncoder().PutCategory(CategoryTable).PutString(ns).PutString(db).Bytes()
}

// FieldsPrefix bounds a scan over every field defined on a table.
func FieldsPrefix(ns, db, tb string) []byte {
	return NewEncoder().PutCategory(CategoryField).PutString(ns).PutString(db).PutString(tb).Bytes()
}

// IndexesPrefix bounds a scan over every index defined on a table.
func IndexesPrefix(ns, db, tb string) []byte {
	return NewEncoder().PutCategory(CategoryIndex).PutString(ns).PutString(db).PutString(tb).Bytes()
}

// EventsPrefix bounds a scan over every event defined on a table.
func EventsPrefix(ns, db, tb string) []byte {
	return NewEncoder().PutCategory(CategoryEvent).PutString(ns).PutString(db).PutString(tb).Bytes()
}

// FunctionsPrefix bounds a scan over every function in a database.
func FunctionsPrefix(ns, db string) []byte {
	return NewEncoder().PutCategory(CategoryFunction).PutString(ns).PutString(db).Bytes()
}

// ParamsPrefix bounds a scan over every param in a database.
func ParamsPrefix(ns, db string) []byte {
	return NewEncoder().PutCategory(CategoryParam).PutString(ns).PutString(db).Bytes()
}

// DecodeLastName reads back the trailing string component of a catalog
// key (the entity's own name), validating the category byte first (spec
// §4.2: "Decoders MUST validate the category byte").
func DecodeLastName(raw []byte, want Category) (string, bool) {
	d := NewDecoder(raw)
	if d.Category() != want {
		return "", false
	}
	name := ""
	for d.Remaining() {
		name = d.String()
	}
	return name, true
}

// Record builds the key for a record's row, table:key.
func Record(ns, db, tb string, rid value.RecordIDKey) []byte {
	e := NewEncoder().PutCategory(CategoryRecord).PutString(ns).PutString(db).PutString(tb)
	putRecordIDKey(e, rid)
	return e.Bytes()
}

// RecordTablePrefix builds the prefix shared by every record key in a
// table, used as a full-table scan's start bound.
func RecordTablePrefix(ns, db, tb string) []byte {
	return NewEncoder().PutCategory(CategoryRecord).PutString(ns).PutString(db).PutString(tb).Bytes()
}

// getRecordIDKey reads back a RecordIDKey written by putRecordIDKey. Array
// and Object keys are not reconstructed component-wise here since no
// caller currently needs to decode a composite record id out of a key
// (only its opaque bytes, for comparison); decoding one returns a
// RecordIDKeyGenerated placeholder instead of panicking.
func getRecordIDKey(d *Decoder) value.RecordIDKey {
	switch d.Byte() {
	case 1:
		return value.StringKey(d.String())
	case 2:
		return value.NumberKey(d.Int64())
	case 3:
		u, _ := value.UUIDFromString(d.String())
		return value.UUIDKey(u)
	case 4, 5:
		// Composite keys aren't reconstructed component-wise; since this
		// is always the trailing component of a key, it's safe to just
		// consume the rest of the buffer rather than decode each part.
		d.pos = len(d.buf)
		return value.GeneratedKey()
	default:
		return value.GeneratedKey()
	}
}

func putRecordIDKey(e *Encoder, k value.RecordIDKey) {
	switch k.Kind {
	case value.RecordIDKeyString:
		e.PutByte(1).PutString(k.Str)
	case value.RecordIDKeyNumber:
		e.PutByte(2).PutInt64(k.Num)
	case value.RecordIDKeyUUID:
		e.PutByte(3).PutString(k.UUID.String())
	case value.RecordIDKeyArray:
		e.PutByte(4)
		for _, v := range k.Arr {
			e.PutValue(v)
		}
		e.PutByte(0)
	case value.RecordIDKeyObject:
		e.PutByte(5)
		for _, name := range k.Obj.Keys() {
			v, _ := k.Obj.Get(name)
			e.PutString(name)
			e.PutValue(v)
		}
		e.PutByte(0)
	}
}

// IndexEntry builds the key for one entry of a secondary index: the
// index's identity, the indexed value(s), then the owning record's key so
// duplicate index values still sort deterministically and a unique index
// violation can be detected by a prefix-equal neighbor scan.
func IndexEntry(ns, db, tb, ix string, parts []value.Value, rid value.RecordIDKey) []byte {
	e := NewEncoder().PutCategory(CategoryIndexEntry).PutString(ns).PutString(db).PutString(tb).PutString(ix)
	for _, v := range parts {
		e.PutValue(v)
	}
	e.PutByte(0)
	putRecordIDKey(e, rid)
	return e.Bytes()
}

// IndexEntryPrefix builds the prefix shared by every index entry with the
// given indexed value(s), used for point lookups and unique-index checks.
func IndexEntryPrefix(ns, db, tb, ix string, parts []value.Value) []byte {
	e := NewEncoder().PutCategory(CategoryIndexEntry).PutString(ns).PutString(db).PutString(tb).PutString(ix)
	for _, v := range parts {
		e.PutValue(v)
	}
	e.PutByte(0)
	return e.Bytes()
}

// GraphEdge builds the key for a graph edge row: source record, edge
// table, direction tag, then target record, mirroring the layout used by
// the planner's graph traversal operator to scan outgoing/incoming edges
// with a single prefix.
func GraphEdge(ns, db string, from value.RecordID, edgeTable string, out bool, to value.RecordID) []byte {
	e := NewEncoder().PutCategory(CategoryGraphEdge).PutString(ns).PutString(db).
		PutString(from.Table)
	putRecordIDKey(e, from.Key)
	e.PutString(edgeTable)
	if out {
		e.PutByte(1)
	} else {
		e.PutByte(0)
	}
	e.PutString(to.Table)
	putRecordIDKey(e, to.Key)
	return e.Bytes()
}

// Reference builds the key for one `<~` reference-index entry: the
// referenced record, the referencing table, optionally the referencing
// field, then the referencing record's own key. A range scan over
// ReferencePrefix(table, key, referencingTable, "") yields every
// referencing record regardless of which field holds the link; narrowing
// to one field scans a sub-range of the same prefix.
func Reference(ns, db string, referenced value.RecordID, referencingTable, referencingField string, referencing value.RecordIDKey) []byte {
	e := ReferencePrefixEncoder(ns, db, referenced, referencingTable, referencingField)
	putRecordIDKey(e, referencing)
	return e.Bytes()
}

// ReferencePrefix builds the shared prefix for every reference-index entry
// pointing at referenced, narrowed to referencingTable and, when non-empty,
// referencingField.
func ReferencePrefix(ns, db string, referenced value.RecordID, referencingTable, referencingField string) []byte {
	if referencingField == "" {
		// Stop before the field tag so entries for every field fall under it.
		e := NewEncoder().PutCategory(CategoryReference).PutString(ns).PutString(db).PutString(referenced.Table)
		putRecordIDKey(e, referenced.Key)
		return e.PutString(referencingTable).Bytes()
	}
	return ReferencePrefixEncoder(ns, db, referenced, referencingTable, referencingField).Bytes()
}

func ReferencePrefixEncoder(ns, db string, referenced value.RecordID, referencingTable, referencingField string) *Encoder {
	e := NewEncoder().PutCategory(CategoryReference).PutString(ns).PutString(db).
		PutString(referenced.Table)
	putRecordIDKey(e, referenced.Key)
	e.PutString(referencingTable)
	if referencingField != "" {
		e.PutByte(1).PutString(referencingField)
	} else {
		e.PutByte(0)
	}
	return e
}

// DecodeReference reads back the components of a key built by Reference:
// the referenced record, the referencing table/field, and the referencing
// record's own key.
func DecodeReference(raw []byte) (referenced value.RecordID, referencingTable, referencingField string, referencing value.RecordIDKey) {
	d := NewDecoder(raw)
	d.Category()
	_ = d.String() // ns
	_ = d.String() // db
	referenced.Table = d.String()
	referenced.Key = getRecordIDKey(d)
	referencingTable = d.String()
	if d.Byte() == 1 {
		referencingField = d.String()
	}
	referencing = getRecordIDKey(d)
	return
}

// GraphEdgePrefix builds the prefix shared by every edge row for source
// record from along edgeTable in the given direction, used as a forward
// traversal's scan range.
func GraphEdgePrefix(ns, db string, from value.RecordID, edgeTable string, out bool) []byte {
	e := NewEncoder().PutCategory(CategoryGraphEdge).PutString(ns).PutString(db).
		PutString(from.Table)
	putRecordIDKey(e, from.Key)
	e.PutString(edgeTable)
	if out {
		e.PutByte(1)
	} else {
		e.PutByte(0)
	}
	return e.Bytes()
}

// DecodeGraphEdgeTarget reads back the trailing "to" record id out of a
// key.GraphEdge row.
func DecodeGraphEdgeTarget(raw []byte) (table string, k value.RecordIDKey) {
	d := NewDecoder(raw)
	d.Category()
	_ = d.String() // ns
	_ = d.String() // db
	_ = d.String() // from table
	getRecordIDKey(d)
	_ = d.String() // edge table
	d.Byte()       // direction
	table = d.String()
	k = getRecordIDKey(d)
	return
}

// Changefeed builds the key for one change-feed entry in a table's durable
// mutation log. The versionstamp's Hi/Lo halves are each encoded as
// sign-preserving big-endian integers so a range scan yields changesets in
// strict (Hi, Lo) commit order (spec §4.9 "Versionstamp oracle").
func Changefeed(ns, db, tb string, versionstampHi, versionstampLo uint64) []byte {
	return NewEncoder().PutCategory(CategoryChangefeed).PutString(ns).PutString(db).PutString(tb).
		PutInt64(int64(versionstampHi)).PutInt64(int64(versionstampLo)).Bytes()
}

// ChangefeedTablePrefix builds the prefix shared by every changeset entry
// in a table's mutation log, the start bound for a full-history scan.
func ChangefeedTablePrefix(ns, db, tb string) []byte {
	return NewEncoder().PutCategory(CategoryChangefeed).PutString(ns).PutString(db).PutString(tb).Bytes()
}

// DecodeChangefeedVersionstamp reads back the Hi/Lo versionstamp halves
// from a key built by Changefeed.
func DecodeChangefeedVersionstamp(raw []byte) (hi, lo uint64) {
	d := NewDecoder(raw)
	d.Category()
	_ = d.String() // ns
	_ = d.String() // db
	_ = d.String() // tb
	hi = uint64(d.Int64())
	lo = uint64(d.Int64())
	return
}

// PrefixEnd returns the smallest key that is strictly greater than every
// key beginning with prefix, giving an exclusive upper bound for a
// prefix scan. A prefix of all 0xff bytes (vanishingly rare: it would
// require the prefix's category byte and every string component to be
// 0xff) has no successor and returns nil, meaning "scan to the end of
// the keyspace".
func PrefixEnd(prefix []byte) []byte {
	end := make([]byte, len(prefix))
	copy(end, prefix)
	for i := len(end) - 1; i >= 0; i-- {
		if end[i] < 0xff {
			end[i]++
			return end[:i+1]
		}
	}
	return nil
}
