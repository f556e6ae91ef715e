package changefeed

import (
	"context"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/syssam/veloxdb/key"
	"github.com/syssam/veloxdb/kv"
)

// RetentionSource reports the CHANGEFEED retention window for a table, so
// the compactor doesn't need to import catalog directly (the retention
// value already lives on catalog.Table/catalog.Database — this interface
// is the narrow seam the compactor pulls it through, the same shape as
// exec.ChangeLogger and the Oracle/EpochStore seams above).
type RetentionSource interface {
	// Retention returns the table's configured retention duration and
	// whether change-feed entries for it should be compacted at all.
	Retention(ns, db, table string) (time.Duration, bool)
}

// Compactor periodically deletes changeset entries older than each
// table's configured retention window (spec §4.9: "Retention is enforced
// by a background compactor that deletes entries older than the
// configured duration"). It walks versionstamps by wall-clock age using
// the SysTimeCounter convention that Hi carries seconds-since-epoch; an
// EpochCounter-backed store has no wall-clock-comparable Hi, so its tables
// must be left out of Tables (documented at NewCompactor).
type Compactor struct {
	Store  kv.Store
	Tables []TableRef
	// now is overridable by tests.
	now func() time.Time
}

// TableRef names one (namespace, database, table) to compact.
type TableRef struct {
	Namespace, Database, Table string
}

// NewCompactor returns a Compactor over the given tables. Pass only tables
// whose versionstamp oracle is a SysTimeCounter (or another oracle whose
// Hi field is wall-clock seconds); under an EpochCounter the Hi field is a
// restart counter, not a timestamp, so age-based compaction does not apply
// and such tables should be excluded by the caller.
func NewCompactor(store kv.Store, tables []TableRef) *Compactor {
	return &Compactor{Store: store, Tables: tables, now: time.Now}
}

// RunOnce performs a single compaction pass across every configured table,
// deleting changesets whose versionstamp's wall-clock component is older
// than retention. Tables compact concurrently (each in its own
// transaction); RunOnce returns the total number of changesets removed.
func (c *Compactor) RunOnce(ctx context.Context, retention RetentionSource) (int, error) {
	var removed atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for _, t := range c.Tables {
		t := t
		d, enabled := retention.Retention(t.Namespace, t.Database, t.Table)
		if !enabled || d <= 0 {
			continue
		}
		g.Go(func() error {
			n, err := c.compactTable(gctx, t, d)
			removed.Add(int64(n))
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return int(removed.Load()), err
	}
	return int(removed.Load()), nil
}

func (c *Compactor) compactTable(ctx context.Context, t TableRef, retention time.Duration) (int, error) {
	tx, err := c.Store.Begin(ctx, kv.TypeWrite, kv.LockOptimistic)
	if err != nil {
		return 0, err
	}
	cutoff := c.now().Add(-retention).Unix()
	start := key.ChangefeedTablePrefix(t.Namespace, t.Database, t.Table)
	end := key.PrefixEnd(start)
	removed := 0
	for {
		kvs, err := tx.Scan(ctx, start, end, 256)
		if err != nil {
			_ = tx.Cancel(ctx)
			return removed, err
		}
		if len(kvs) == 0 {
			break
		}
		deletedAny := false
		for _, pair := range kvs {
			hi, _ := key.DecodeChangefeedVersionstamp(pair.Key)
			if int64(hi) >= cutoff {
				// Keys are versionstamp-ordered; once we hit one inside
				// the retention window, every later key is too.
				if err := tx.Commit(ctx); err != nil {
					return removed, err
				}
				return removed, nil
			}
			if err := tx.Delete(ctx, pair.Key); err != nil {
				_ = tx.Cancel(ctx)
				return removed, err
			}
			removed++
			deletedAny = true
			start = append(append([]byte{}, pair.Key...), 0)
		}
		if !deletedAny {
			break
		}
	}
	return removed, tx.Commit(ctx)
}
