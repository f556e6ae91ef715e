package datastore

import (
	"context"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/syssam/veloxdb"
	"github.com/syssam/veloxdb/catalog"
	"github.com/syssam/veloxdb/key"
	"github.com/syssam/veloxdb/kv"
	"github.com/syssam/veloxdb/kv/txcache"
	"github.com/syssam/veloxdb/syn/ast"
	"github.com/syssam/veloxdb/value"
)

// txCatalog is the catalog read/write surface bound to one transaction:
// every lookup memoizes through the transaction's cache, and every schema
// mutation invalidates exactly the cache entries it can affect — the
// DEFINE INDEX case in particular drops the table's aggregate index list,
// the omission spec §4.4/§8 call out as the signature divergence bug.
// It implements planner.Catalog.
type txCatalog struct {
	ctx   context.Context
	tx    kv.Transaction
	cache *txcache.Cache
}

func newTxCatalog(ctx context.Context, tx kv.Transaction, cache *txcache.Cache) *txCatalog {
	if cache == nil {
		cache = txcache.New()
	}
	return &txCatalog{ctx: ctx, tx: tx, cache: cache}
}

// wire mirrors: catalog entities embed opaque AST fields and function
// values that msgpack cannot round-trip, so each entity persists through
// a flat, revision-tagged struct.

type wireTable struct {
	Version             uint16
	Name                string
	Kind                uint8
	Schemafull          bool
	ChangefeedEnabled   *bool
	ChangefeedRetention int64
	Comment             string
}

type wireField struct {
	Version uint16
	Name    []string
	Type    value.TypeName
	Default []byte
	Assert  []byte
	Comment string
}

type wireIndex struct {
	Version  uint16
	Name     string
	Kind     uint8
	Fields   [][]string
	Unique   bool
	Comment  string
	FullText *catalog.FullTextParams
	Vector   *catalog.VectorParams
}

type wireFunction struct {
	Version uint16
	Name    string
	Args    []catalog.FunctionArg
	Comment string
}

type wireParam struct {
	Version uint16
	Name    string
	Value   []byte
	Comment string
}

type wireEvent struct {
	Version   uint16
	Name      string
	When      []catalog.EventTrigger
	Condition []byte
	Comment   string
}

// Namespace loads one namespace definition, or NotFound.
func (c *txCatalog) Namespace(ns string) (*catalog.Namespace, error) {
	v, err := c.cache.GetOrLoad(txcache.NewKey(txcache.LookupNamespace, ns), func() (any, error) {
		raw, err := c.tx.Get(c.ctx, key.Namespace(ns))
		if err != nil {
			return nil, err
		}
		if raw == nil {
			return nil, veloxdb.NewNotFoundError("namespace", ns)
		}
		var def catalog.Namespace
		if err := msgpack.Unmarshal(raw, &def); err != nil {
			return nil, err
		}
		return &def, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*catalog.Namespace), nil
}

// Database loads one database definition, or NotFound.
func (c *txCatalog) Database(ns, db string) (*catalog.Database, error) {
	v, err := c.cache.GetOrLoad(txcache.NewKey(txcache.LookupDatabase, ns, db), func() (any, error) {
		raw, err := c.tx.Get(c.ctx, key.Database(ns, db))
		if err != nil {
			return nil, err
		}
		if raw == nil {
			return nil, veloxdb.NewNotFoundError("database", db)
		}
		var def catalog.Database
		if err := msgpack.Unmarshal(raw, &def); err != nil {
			return nil, err
		}
		return &def, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*catalog.Database), nil
}

// Table implements planner.Catalog.
func (c *txCatalog) Table(ns, db, name string) (*catalog.Table, error) {
	v, err := c.cache.GetOrLoad(txcache.NewKey(txcache.LookupTable, ns, db, name), func() (any, error) {
		raw, err := c.tx.Get(c.ctx, key.Table(ns, db, name))
		if err != nil {
			return nil, err
		}
		if raw == nil {
			return nil, veloxdb.NewNotFoundError("table", name)
		}
		var w wireTable
		if err := msgpack.Unmarshal(raw, &w); err != nil {
			return nil, err
		}
		return &catalog.Table{
			Version:             w.Version,
			Namespace:           ns,
			Database:            db,
			Name:                w.Name,
			Kind:                catalog.TableKind(w.Kind),
			Schemafull:          w.Schemafull,
			ChangefeedEnabled:   w.ChangefeedEnabled,
			ChangefeedRetention: w.ChangefeedRetention,
			Comment:             w.Comment,
		}, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*catalog.Table), nil
}

// IndexesOn implements planner.Catalog: the aggregate per-table index
// list, cached under the three-segment key DEFINE/REMOVE INDEX must
// invalidate.
func (c *txCatalog) IndexesOn(ns, db, table string) ([]*catalog.Index, error) {
	v, err := c.cache.GetOrLoad(txcache.NewKey(txcache.LookupIndex, ns, db, table), func() (any, error) {
		prefix := key.IndexesPrefix(ns, db, table)
		pairs, err := c.tx.Scan(c.ctx, prefix, key.PrefixEnd(prefix), 0)
		if err != nil {
			return nil, err
		}
		out := make([]*catalog.Index, 0, len(pairs))
		for _, p := range pairs {
			var w wireIndex
			if err := msgpack.Unmarshal(p.Value, &w); err != nil {
				return nil, err
			}
			ix := &catalog.Index{
				Version:   w.Version,
				Namespace: ns,
				Database:  db,
				Table:     table,
				Name:      w.Name,
				Kind:      catalog.IndexKind(w.Kind),
				Unique:    w.Unique,
				Comment:   w.Comment,
				FullText:  w.FullText,
				Vector:    w.Vector,
			}
			for _, f := range w.Fields {
				idm := make(value.Idiom, 0, len(f))
				for _, seg := range f {
					idm = append(idm, value.FieldPart(seg))
				}
				ix.Fields = append(ix.Fields, idm)
			}
			out = append(out, ix)
		}
		return out, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]*catalog.Index), nil
}

// FieldsOn implements planner.Catalog.
func (c *txCatalog) FieldsOn(ns, db, table string) ([]*catalog.Field, error) {
	v, err := c.cache.GetOrLoad(txcache.NewKey(txcache.LookupField, ns, db, table), func() (any, error) {
		prefix := key.FieldsPrefix(ns, db, table)
		pairs, err := c.tx.Scan(c.ctx, prefix, key.PrefixEnd(prefix), 0)
		if err != nil {
			return nil, err
		}
		out := make([]*catalog.Field, 0, len(pairs))
		for _, p := range pairs {
			var w wireField
			if err := msgpack.Unmarshal(p.Value, &w); err != nil {
				return nil, err
			}
			fd := &catalog.Field{
				Version:   w.Version,
				Namespace: ns,
				Database:  db,
				Table:     table,
				Type:      w.Type,
				Comment:   w.Comment,
			}
			for _, seg := range w.Name {
				fd.Name = append(fd.Name, value.FieldPart(seg))
			}
			if fd.Default, err = decodedOrNil(w.Default); err != nil {
				return nil, err
			}
			if fd.Assert, err = decodedOrNil(w.Assert); err != nil {
				return nil, err
			}
			out = append(out, fd)
		}
		return out, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]*catalog.Field), nil
}

// decodedOrNil unwraps a persisted expression, keeping the catalog field
// an untyped nil when absent (a typed-nil ast.Expr in an `any` field
// would defeat the executor's nil checks).
func decodedOrNil(raw []byte) (any, error) {
	e, err := unmarshalExpr(raw)
	if err != nil {
		return nil, err
	}
	if e == nil {
		return nil, nil
	}
	return e, nil
}

// listNames scans a catalog prefix and returns the entity names, for INFO
// reporting.
func (c *txCatalog) listNames(prefix []byte, cat key.Category) ([]string, error) {
	keys, err := c.tx.StreamKeys(c.ctx, prefix, key.PrefixEnd(prefix), 0)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		if name, ok := key.DecodeLastName(k, cat); ok {
			out = append(out, name)
		}
	}
	return out, nil
}

// --- schema mutations -------------------------------------------------

func (c *txCatalog) defineNamespace(stmt *ast.DefineNamespaceStmt) error {
	k := key.Namespace(stmt.Name)
	if exists, err := c.tx.Has(c.ctx, k); err != nil {
		return err
	} else if exists {
		if stmt.IfNotExists {
			return nil
		}
		return veloxdb.NewAlreadyExistsError("namespace", stmt.Name)
	}
	raw, err := msgpack.Marshal(catalog.Namespace{Version: 1, Name: stmt.Name, Comment: stmt.Comment})
	if err != nil {
		return err
	}
	if err := c.tx.Put(c.ctx, k, raw); err != nil {
		return err
	}
	c.cache.Invalidate(txcache.NewKey(txcache.LookupNamespace, stmt.Name))
	return nil
}

func (c *txCatalog) defineDatabase(ns string, stmt *ast.DefineDatabaseStmt) error {
	k := key.Database(ns, stmt.Name)
	if exists, err := c.tx.Has(c.ctx, k); err != nil {
		return err
	} else if exists {
		if stmt.IfNotExists {
			return nil
		}
		return veloxdb.NewAlreadyExistsError("database", stmt.Name)
	}
	raw, err := msgpack.Marshal(catalog.Database{Version: 1, Namespace: ns, Name: stmt.Name, Comment: stmt.Comment})
	if err != nil {
		return err
	}
	if err := c.tx.Put(c.ctx, k, raw); err != nil {
		return err
	}
	c.cache.Invalidate(txcache.NewKey(txcache.LookupDatabase, ns, stmt.Name))
	return nil
}

func (c *txCatalog) defineTable(ns, db string, stmt *ast.DefineTableStmt) error {
	k := key.Table(ns, db, stmt.Name)
	if exists, err := c.tx.Has(c.ctx, k); err != nil {
		return err
	} else if exists {
		if stmt.IfNotExists {
			return nil
		}
		return veloxdb.NewAlreadyExistsError("table", stmt.Name)
	}
	w := wireTable{
		Version:    1,
		Name:       stmt.Name,
		Kind:       uint8(stmt.Kind),
		Schemafull: stmt.Schemafull,
		Comment:    stmt.Comment,
	}
	if stmt.HasChangefeed {
		enabled := true
		w.ChangefeedEnabled = &enabled
		w.ChangefeedRetention = stmt.Changefeed
	}
	raw, err := msgpack.Marshal(w)
	if err != nil {
		return err
	}
	if err := c.tx.Put(c.ctx, k, raw); err != nil {
		return err
	}
	c.cache.Invalidate(txcache.NewKey(txcache.LookupTable, ns, db, stmt.Name))
	return nil
}

func (c *txCatalog) defineField(ns, db string, stmt *ast.DefineFieldStmt) error {
	k := key.Field(ns, db, stmt.Table, stmt.Name)
	if exists, err := c.tx.Has(c.ctx, k); err != nil {
		return err
	} else if exists {
		if stmt.IfNotExists {
			return nil
		}
		return veloxdb.NewAlreadyExistsError("field", stmt.Name)
	}
	w := wireField{
		Version: 1,
		Name:    splitFieldPath(stmt.Name),
		Type:    value.ParseSimpleTypeName(stmt.Type),
		Comment: stmt.Comment,
	}
	var err error
	if w.Default, err = marshalExpr(stmt.Default); err != nil {
		return err
	}
	if w.Assert, err = marshalExpr(stmt.Assert); err != nil {
		return err
	}
	raw, err := msgpack.Marshal(w)
	if err != nil {
		return err
	}
	if err := c.tx.Put(c.ctx, k, raw); err != nil {
		return err
	}
	// Drops both the single-field entry and the table's aggregate list.
	c.cache.Invalidate(txcache.NewKey(txcache.LookupField, ns, db, stmt.Table))
	return nil
}

func (c *txCatalog) defineIndex(ns, db string, stmt *ast.DefineIndexStmt) error {
	k := key.Index(ns, db, stmt.Table, stmt.Name)
	if exists, err := c.tx.Has(c.ctx, k); err != nil {
		return err
	} else if exists {
		if stmt.IfNotExists {
			return nil
		}
		return veloxdb.NewAlreadyExistsError("index", stmt.Name)
	}
	w := wireIndex{
		Version:  1,
		Name:     stmt.Name,
		Kind:     uint8(stmt.Kind),
		Unique:   stmt.Unique,
		Comment:  stmt.Comment,
		FullText: stmt.FullText,
		Vector:   stmt.Vector,
	}
	for _, f := range stmt.Fields {
		w.Fields = append(w.Fields, splitFieldPath(f))
	}
	raw, err := msgpack.Marshal(w)
	if err != nil {
		return err
	}
	if err := c.tx.Put(c.ctx, k, raw); err != nil {
		return err
	}
	// Invalidating at the three-segment key drops the aggregate
	// "all indexes on this table" entry along with any single-index
	// entries; missing this is the stale-schema bug spec §8 tests for.
	c.cache.Invalidate(txcache.NewKey(txcache.LookupIndex, ns, db, stmt.Table))
	return nil
}

func (c *txCatalog) defineFunction(ns, db string, stmt *ast.DefineFunctionStmt) error {
	k := key.Function(ns, db, stmt.Name)
	if exists, err := c.tx.Has(c.ctx, k); err != nil {
		return err
	} else if exists {
		if stmt.IfNotExists {
			return nil
		}
		return veloxdb.NewAlreadyExistsError("function", stmt.Name)
	}
	raw, err := msgpack.Marshal(wireFunction{Version: 1, Name: stmt.Name, Args: stmt.Args, Comment: stmt.Comment})
	if err != nil {
		return err
	}
	if err := c.tx.Put(c.ctx, k, raw); err != nil {
		return err
	}
	c.cache.Invalidate(txcache.NewKey(txcache.LookupFunction, ns, db, stmt.Name))
	return nil
}

func (c *txCatalog) defineParam(ns, db string, stmt *ast.DefineParamStmt, val value.Value) error {
	k := key.Param(ns, db, stmt.Name)
	if exists, err := c.tx.Has(c.ctx, k); err != nil {
		return err
	} else if exists {
		if stmt.IfNotExists {
			return nil
		}
		return veloxdb.NewAlreadyExistsError("param", stmt.Name)
	}
	encoded, err := kv.EncodeValue(val)
	if err != nil {
		return err
	}
	raw, err := msgpack.Marshal(wireParam{Version: 1, Name: stmt.Name, Value: encoded, Comment: stmt.Comment})
	if err != nil {
		return err
	}
	if err := c.tx.Put(c.ctx, k, raw); err != nil {
		return err
	}
	c.cache.Invalidate(txcache.NewKey(txcache.LookupParam, ns, db, stmt.Name))
	return nil
}

func (c *txCatalog) defineEvent(ns, db string, stmt *ast.DefineEventStmt) error {
	k := key.Event(ns, db, stmt.Table, stmt.Name)
	if exists, err := c.tx.Has(c.ctx, k); err != nil {
		return err
	} else if exists {
		if stmt.IfNotExists {
			return nil
		}
		return veloxdb.NewAlreadyExistsError("event", stmt.Name)
	}
	w := wireEvent{Version: 1, Name: stmt.Name, When: stmt.When, Comment: stmt.Comment}
	var err error
	if w.Condition, err = marshalExpr(stmt.Condition); err != nil {
		return err
	}
	raw, err := msgpack.Marshal(w)
	if err != nil {
		return err
	}
	if err := c.tx.Put(c.ctx, k, raw); err != nil {
		return err
	}
	c.cache.Invalidate(txcache.NewKey(txcache.LookupEvent, ns, db, stmt.Table))
	return nil
}

type wireAnalyzer struct {
	Version    uint16
	Name       string
	Tokenizers []catalog.Tokenizer
	Filters    []catalog.Filter
	Comment    string
}

type wireAccess struct {
	Version uint16
	Name    string
	Kind    uint8
	Comment string
}

type wireUser struct {
	Version      uint16
	Name         string
	PasswordHash string
	Roles        []catalog.Role
	Comment      string
}

type wireAPI struct {
	Version uint16
	Path    string
	Comment string
}

type wireBucket struct {
	Version  uint16
	Name     string
	Backend  catalog.BucketBackend
	ReadOnly bool
	Comment  string
}

// defineSimple persists one already-encoded definition behind the shared
// exists/IF NOT EXISTS/invalidate discipline the entity-specific defines
// follow.
func (c *txCatalog) defineSimple(k []byte, ifNotExists bool, kind, name string, payload any, inval txcache.Key) error {
	if exists, err := c.tx.Has(c.ctx, k); err != nil {
		return err
	} else if exists {
		if ifNotExists {
			return nil
		}
		return veloxdb.NewAlreadyExistsError(kind, name)
	}
	raw, err := msgpack.Marshal(payload)
	if err != nil {
		return err
	}
	if err := c.tx.Put(c.ctx, k, raw); err != nil {
		return err
	}
	c.cache.Invalidate(inval)
	return nil
}

func (c *txCatalog) defineAnalyzer(ns, db string, stmt *ast.DefineAnalyzerStmt) error {
	return c.defineSimple(
		key.Analyzer(ns, db, stmt.Name), stmt.IfNotExists, "analyzer", stmt.Name,
		wireAnalyzer{Version: 1, Name: stmt.Name, Tokenizers: stmt.Tokenizers, Filters: stmt.Filters, Comment: stmt.Comment},
		txcache.NewKey(txcache.LookupAnalyzer, ns, db, stmt.Name),
	)
}

func (c *txCatalog) defineAccess(ns, db string, stmt *ast.DefineAccessStmt) error {
	return c.defineSimple(
		key.Access(ns, db, stmt.Name), stmt.IfNotExists, "access", stmt.Name,
		wireAccess{Version: 1, Name: stmt.Name, Kind: uint8(stmt.Kind), Comment: stmt.Comment},
		txcache.NewKey(txcache.LookupAccess, ns, db, stmt.Name),
	)
}

func (c *txCatalog) defineUser(ns, db string, stmt *ast.DefineUserStmt) error {
	return c.defineSimple(
		key.User(ns, db, stmt.Name), stmt.IfNotExists, "user", stmt.Name,
		wireUser{Version: 1, Name: stmt.Name, PasswordHash: stmt.Password, Roles: stmt.Roles, Comment: stmt.Comment},
		txcache.NewKey(txcache.LookupUser, ns, db, stmt.Name),
	)
}

func (c *txCatalog) defineAPI(ns, db string, stmt *ast.DefineAPIStmt) error {
	return c.defineSimple(
		key.API(ns, db, stmt.Path), stmt.IfNotExists, "api", stmt.Path,
		wireAPI{Version: 1, Path: stmt.Path, Comment: stmt.Comment},
		txcache.NewKey(txcache.LookupAPI, ns, db, stmt.Path),
	)
}

func (c *txCatalog) defineBucket(ns, db string, stmt *ast.DefineBucketStmt) error {
	return c.defineSimple(
		key.Bucket(ns, db, stmt.Name), stmt.IfNotExists, "bucket", stmt.Name,
		wireBucket{Version: 1, Name: stmt.Name, Backend: stmt.Backend, ReadOnly: stmt.ReadOnly, Comment: stmt.Comment},
		txcache.NewKey(txcache.LookupBucket, ns, db, stmt.Name),
	)
}

type wireLive struct {
	Version uint16
	ID      string
	Table   string
	Diff    bool
}

// encodeLive flattens a catalog.Live for storage (the UUID serializes as
// its canonical string; the registered statement itself is process-local
// and re-established by the owning session, not persisted).
func encodeLive(l catalog.Live) ([]byte, error) {
	return msgpack.Marshal(wireLive{Version: l.Version, ID: l.ID.String(), Table: l.Table, Diff: l.Diff})
}

// remove deletes one catalog entity by kind/name, invalidating the same
// cache keys the matching define touches.
func (c *txCatalog) remove(ns, db string, stmt *ast.RemoveStmt) error {
	var k []byte
	var inval txcache.Key
	switch stmt.Kind {
	case "namespace":
		k = key.Namespace(stmt.Name)
		inval = txcache.NewKey(txcache.LookupNamespace, stmt.Name)
	case "database":
		k = key.Database(ns, stmt.Name)
		inval = txcache.NewKey(txcache.LookupDatabase, ns, stmt.Name)
	case "table":
		k = key.Table(ns, db, stmt.Name)
		inval = txcache.NewKey(txcache.LookupTable, ns, db, stmt.Name)
	case "field":
		k = key.Field(ns, db, stmt.Table, stmt.Name)
		inval = txcache.NewKey(txcache.LookupField, ns, db, stmt.Table)
	case "index":
		k = key.Index(ns, db, stmt.Table, stmt.Name)
		inval = txcache.NewKey(txcache.LookupIndex, ns, db, stmt.Table)
	case "function":
		k = key.Function(ns, db, stmt.Name)
		inval = txcache.NewKey(txcache.LookupFunction, ns, db, stmt.Name)
	case "param":
		k = key.Param(ns, db, stmt.Name)
		inval = txcache.NewKey(txcache.LookupParam, ns, db, stmt.Name)
	case "event":
		k = key.Event(ns, db, stmt.Table, stmt.Name)
		inval = txcache.NewKey(txcache.LookupEvent, ns, db, stmt.Table)
	case "analyzer":
		k = key.Analyzer(ns, db, stmt.Name)
		inval = txcache.NewKey(txcache.LookupAnalyzer, ns, db, stmt.Name)
	case "access":
		k = key.Access(ns, db, stmt.Name)
		inval = txcache.NewKey(txcache.LookupAccess, ns, db, stmt.Name)
	case "user":
		k = key.User(ns, db, stmt.Name)
		inval = txcache.NewKey(txcache.LookupUser, ns, db, stmt.Name)
	case "api":
		k = key.API(ns, db, stmt.Name)
		inval = txcache.NewKey(txcache.LookupAPI, ns, db, stmt.Name)
	case "bucket":
		k = key.Bucket(ns, db, stmt.Name)
		inval = txcache.NewKey(txcache.LookupBucket, ns, db, stmt.Name)
	default:
		return veloxdb.NewInvalidArgumentsError("remove", "unsupported kind "+stmt.Kind)
	}
	exists, err := c.tx.Has(c.ctx, k)
	if err != nil {
		return err
	}
	if !exists {
		if stmt.IfExists {
			return nil
		}
		return veloxdb.NewNotFoundError(stmt.Kind, stmt.Name)
	}
	if err := c.tx.Delete(c.ctx, k); err != nil {
		return err
	}
	c.cache.Invalidate(inval)
	return nil
}

// splitFieldPath splits a dotted DEFINE FIELD path into its segments.
func splitFieldPath(name string) []string {
	var out []string
	start := 0
	for i := 0; i < len(name); i++ {
		if name[i] == '.' {
			out = append(out, name[start:i])
			start = i + 1
		}
	}
	return append(out, name[start:])
}
