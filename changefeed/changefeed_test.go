package changefeed

import (
	"context"
	"testing"
	"time"

	"github.com/syssam/veloxdb/kv"
	"github.com/syssam/veloxdb/kv/kvtest"
	"github.com/syssam/veloxdb/value"
)

func TestSysTimeCounterMonotonic(t *testing.T) {
	o := NewSysTimeCounter()
	prev := o.Now()
	for i := 0; i < 5; i++ {
		next := o.Now()
		if !prev.Less(next) {
			t.Fatalf("versionstamp did not strictly increase: %+v -> %+v", prev, next)
		}
		prev = next
	}
}

func TestEpochCounterMonotonic(t *testing.T) {
	o := NewEpochCounter(3)
	prev := o.Now()
	for i := 0; i < 5; i++ {
		next := o.Now()
		if !prev.Less(next) {
			t.Fatalf("versionstamp did not strictly increase: %+v -> %+v", prev, next)
		}
		if next.Hi != 3 {
			t.Fatalf("epoch changed mid-process: got Hi=%d", next.Hi)
		}
		prev = next
	}
}

func TestLogAppendAndScan(t *testing.T) {
	ctx := context.Background()
	store := kvtest.New()
	oracle := NewEpochCounter(1)
	log := NewLog(oracle)

	id1 := value.NewRecordID("person", value.StringKey("tobie"))
	id2 := value.NewRecordID("person", value.StringKey("jaime"))

	tx, err := store.Begin(ctx, kv.TypeWrite, kv.LockOptimistic)
	if err != nil {
		t.Fatal(err)
	}
	vs := oracle.Now()
	if err := log.AppendAt(ctx, tx, vs, "ns", "db", "person", id1, MutationCreate, value.ObjectValue(value.NewObject())); err != nil {
		t.Fatal(err)
	}
	if err := log.AppendAt(ctx, tx, vs, "ns", "db", "person", id2, MutationCreate, value.ObjectValue(value.NewObject())); err != nil {
		t.Fatal(err)
	}
	if err := tx.Commit(ctx); err != nil {
		t.Fatal(err)
	}

	tx2, err := store.Begin(ctx, kv.TypeRead, kv.LockOptimistic)
	if err != nil {
		t.Fatal(err)
	}
	sets, err := Scan(ctx, tx2, "ns", "db", "person", Zero, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(sets) != 1 {
		t.Fatalf("expected 1 changeset (same versionstamp), got %d", len(sets))
	}
	if len(sets[0].Mutations) != 2 {
		t.Fatalf("expected 2 mutations in the changeset, got %d", len(sets[0].Mutations))
	}

	// Scanning again since the changeset's own versionstamp should yield nothing.
	more, err := Scan(ctx, tx2, "ns", "db", "person", sets[0].Versionstamp, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(more) != 0 {
		t.Fatalf("expected no further changesets, got %d", len(more))
	}
}

func TestCompactorRemovesOldEntries(t *testing.T) {
	ctx := context.Background()
	store := kvtest.New()
	oracle := NewSysTimeCounter()
	log := NewLog(oracle)
	id := value.NewRecordID("person", value.StringKey("tobie"))

	tx, _ := store.Begin(ctx, kv.TypeWrite, kv.LockOptimistic)
	old := Versionstamp{Hi: uint64(time.Now().Add(-48 * time.Hour).Unix())}
	if err := log.AppendAt(ctx, tx, old, "ns", "db", "person", id, MutationCreate, value.ObjectValue(value.NewObject())); err != nil {
		t.Fatal(err)
	}
	recent := oracle.Now()
	if err := log.AppendAt(ctx, tx, recent, "ns", "db", "person", id, MutationUpdate, value.ObjectValue(value.NewObject())); err != nil {
		t.Fatal(err)
	}
	if err := tx.Commit(ctx); err != nil {
		t.Fatal(err)
	}

	c := NewCompactor(store, []TableRef{{Namespace: "ns", Database: "db", Table: "person"}})
	n, err := c.RunOnce(ctx, staticRetention{d: time.Hour})
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Fatalf("expected 1 changeset compacted, got %d", n)
	}

	tx2, _ := store.Begin(ctx, kv.TypeRead, kv.LockOptimistic)
	sets, err := Scan(ctx, tx2, "ns", "db", "person", Zero, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(sets) != 1 {
		t.Fatalf("expected 1 remaining changeset, got %d", len(sets))
	}
}

type staticRetention struct{ d time.Duration }

func (s staticRetention) Retention(ns, db, table string) (time.Duration, bool) { return s.d, true }
