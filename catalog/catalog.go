// Package catalog defines the schema entities a datastore tracks: the
// namespace/database/table hierarchy plus the definitions attached to a
// table (fields, indexes, events, live queries) and to a database/root
// scope (users, access methods, functions, params, analyzers, buckets,
// APIs). Every entity is "revisioned" (spec §3 "Catalog entities"): it
// carries a Version that is persisted with it. The decoders in this module
// read the Version back but do not branch on it; there is no per-revision
// upgrade path.
package catalog

// Revisioned is implemented by every catalog entity and reports the
// Version the entity was written with.
type Revisioned interface {
	Revision() uint16
}

// Namespace is the top-level catalog scope: every database lives under
// exactly one namespace.
type Namespace struct {
	Version uint16
	Name    string
	Comment string
}

// Revision implements Revisioned.
func (n Namespace) Revision() uint16 { return n.Version }

// Database is a collection of tables plus the schema entities scoped to
// it (users, access methods, functions, params, analyzers, buckets, APIs).
type Database struct {
	Version   uint16
	Namespace string
	Name      string
	Comment   string
	// ChangefeedEnabled turns on the durable mutation log for every table
	// in this database that does not override it per-table.
	ChangefeedEnabled bool
	// ChangefeedRetention bounds how long change-feed entries are kept
	// before being compacted away; zero means "no expiry".
	ChangefeedRetention int64 // nanoseconds
}

// Revision implements Revisioned.
func (d Database) Revision() uint16 { return d.Version }

// TableKind distinguishes a normal document table from a relation
// ("edge") table used by graph traversal.
type TableKind uint8

const (
	TableNormal TableKind = iota
	TableRelation
	TableView // backed by a SELECT, recomputed on read
)

// Table is a collection of records sharing a schema (possibly SCHEMALESS).
type Table struct {
	Version   uint16
	Namespace string
	Database  string
	Name      string
	Kind      TableKind
	Comment   string
	// Schemafull requires every write to satisfy the table's DEFINE FIELD
	// set; when false, undeclared fields are accepted as-is.
	Schemafull bool
	// ChangefeedEnabled overrides the database's default for this table.
	ChangefeedEnabled *bool
	// ChangefeedRetention bounds how long this table's change-feed entries
	// are kept; zero falls back to the datastore's configured default
	// retention (datastore.Config.ChangefeedRetention).
	ChangefeedRetention int64 // nanoseconds
	// Permissions is nil when the table uses the database's default
	// permission policy (FULL access for the owner role).
	Permissions *Permissions
	// ViewQuery holds the opaque AST root for a TableView; nil otherwise.
	ViewQuery any
}

// Revision implements Revisioned.
func (t Table) Revision() uint16 { return t.Version }
