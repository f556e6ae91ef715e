package datastore

import (
	"context"

	"github.com/syssam/veloxdb"
	"github.com/syssam/veloxdb/changefeed"
	"github.com/syssam/veloxdb/exec"
	"github.com/syssam/veloxdb/kv"
	"github.com/syssam/veloxdb/value"
)

// txChangeLogger adapts changefeed.Log to exec.ChangeLogger for one
// statement's transaction. It mints a single versionstamp lazily on the
// first logged mutation, so every row a statement writes lands in one
// ChangeSet (spec §4.9: "groups same-versionstamp mutations into a
// ChangeSet").
type txChangeLogger struct {
	log *changefeed.Log
	tx  kv.Transaction
	cat *txCatalog

	vs *changefeed.Versionstamp
}

// LogMutation implements exec.ChangeLogger. Tables without a change feed
// are a silent no-op; only the catalog decides who pays the write
// amplification.
func (l *txChangeLogger) LogMutation(ctx context.Context, ns, db, table string, id value.RecordID, kind exec.WriteKind, after value.Value) error {
	enabled, err := l.enabled(ns, db, table)
	if err != nil || !enabled {
		return err
	}
	if l.vs == nil {
		vs := l.log.Oracle.Now()
		l.vs = &vs
	}
	return l.log.AppendAt(ctx, l.tx, *l.vs, ns, db, table, id, mutationKind(kind), after)
}

func (l *txChangeLogger) enabled(ns, db, table string) (bool, error) {
	tbl, err := l.cat.Table(ns, db, table)
	if veloxdb.IsNotFound(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if tbl.ChangefeedEnabled != nil {
		return *tbl.ChangefeedEnabled, nil
	}
	dbDef, err := l.cat.Database(ns, db)
	if veloxdb.IsNotFound(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return dbDef.ChangefeedEnabled, nil
}

func mutationKind(k exec.WriteKind) changefeed.MutationKind {
	switch k {
	case exec.WriteCreate, exec.WriteInsert:
		return changefeed.MutationCreate
	case exec.WriteDelete:
		return changefeed.MutationDelete
	default:
		return changefeed.MutationUpdate
	}
}
