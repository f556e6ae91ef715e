package datastore

import (
	"context"

	"github.com/syssam/veloxdb"
	"github.com/syssam/veloxdb/key"
	"github.com/syssam/veloxdb/kv"
	"github.com/syssam/veloxdb/syn/ast"
	"github.com/syssam/veloxdb/value"
)

// execInfo answers INFO FOR ROOT|NS|DB|TABLE with an object listing the
// entities defined at that scope, read through the transaction cache so a
// schema change earlier in the same transaction is visible (the
// invalidation property spec §8 tests by running DEFINE INDEX and INFO in
// one transaction).
func (s *Session) execInfo(ctx context.Context, stmt *ast.InfoStmt) (value.Value, error) {
	tx, err := s.d.store.Begin(ctx, kv.TypeRead, kv.LockOptimistic)
	if err != nil {
		return value.None, err
	}
	defer func() { _ = tx.Cancel(ctx) }()
	return s.infoInTx(ctx, newTxCatalog(ctx, tx, nil), stmt)
}

func (s *Session) infoInTx(ctx context.Context, cat *txCatalog, stmt *ast.InfoStmt) (value.Value, error) {
	out := value.NewObject()
	switch stmt.Level {
	case ast.InfoRoot:
		nss, err := cat.listNames(key.NamespacesPrefix(), key.CategoryNamespace)
		if err != nil {
			return value.None, err
		}
		out.Set("namespaces", namesValue(nss))

	case ast.InfoNamespace:
		if s.ns == "" {
			return value.None, errNoScope("namespace")
		}
		dbs, err := cat.listNames(key.DatabasesPrefix(s.ns), key.CategoryDatabase)
		if err != nil {
			return value.None, err
		}
		out.Set("databases", namesValue(dbs))

	case ast.InfoDatabase:
		if err := s.requireScope(); err != nil {
			return value.None, err
		}
		tbs, err := cat.listNames(key.TablesPrefix(s.ns, s.db), key.CategoryTable)
		if err != nil {
			return value.None, err
		}
		fns, err := cat.listNames(key.FunctionsPrefix(s.ns, s.db), key.CategoryFunction)
		if err != nil {
			return value.None, err
		}
		pas, err := cat.listNames(key.ParamsPrefix(s.ns, s.db), key.CategoryParam)
		if err != nil {
			return value.None, err
		}
		azs, err := cat.listNames(key.AnalyzersPrefix(s.ns, s.db), key.CategoryAnalyzer)
		if err != nil {
			return value.None, err
		}
		uss, err := cat.listNames(key.UsersPrefix(s.ns, s.db), key.CategoryUser)
		if err != nil {
			return value.None, err
		}
		out.Set("tables", namesValue(tbs))
		out.Set("functions", namesValue(fns))
		out.Set("params", namesValue(pas))
		out.Set("analyzers", namesValue(azs))
		out.Set("users", namesValue(uss))

	case ast.InfoTable:
		if err := s.requireScope(); err != nil {
			return value.None, err
		}
		fields, err := cat.FieldsOn(s.ns, s.db, stmt.Target)
		if err != nil {
			return value.None, err
		}
		fobj := value.NewObject()
		for _, f := range fields {
			fobj.Set(f.Name.String(), value.String(f.Type.Kind.String()))
		}
		indexes, err := cat.IndexesOn(s.ns, s.db, stmt.Target)
		if err != nil {
			return value.None, err
		}
		iobj := value.NewObject()
		for _, ix := range indexes {
			detail := value.NewObject()
			fieldNames := make(value.Array, 0, len(ix.Fields))
			for _, fi := range ix.Fields {
				fieldNames = append(fieldNames, value.String(fi.String()))
			}
			detail.Set("fields", value.ArrayValue(fieldNames))
			detail.Set("unique", value.Bool(ix.Unique))
			iobj.Set(ix.Name, value.ObjectValue(detail))
		}
		events, err := cat.listNames(key.EventsPrefix(s.ns, s.db, stmt.Target), key.CategoryEvent)
		if err != nil {
			return value.None, err
		}
		out.Set("fields", value.ObjectValue(fobj))
		out.Set("indexes", value.ObjectValue(iobj))
		out.Set("events", namesValue(events))
	}
	return value.ObjectValue(out), nil
}

func namesValue(names []string) value.Value {
	arr := make(value.Array, 0, len(names))
	for _, n := range names {
		arr = append(arr, value.String(n))
	}
	return value.ArrayValue(arr)
}

func errNoScope(kind string) error {
	return veloxdb.NewNotFoundError(kind, "(none selected)")
}
