package livequery

import (
	"context"
	"testing"
	"time"

	"github.com/syssam/veloxdb/changefeed"
	"github.com/syssam/veloxdb/kv"
	"github.com/syssam/veloxdb/kv/kvtest"
	"github.com/syssam/veloxdb/value"
)

// priceAbove is a stand-in ConditionEvaluator that checks a "price"
// field against a threshold, so these tests don't need the real
// expression interpreter to exercise the poll loop's dispatch logic.
type priceAbove struct{ threshold int64 }

func (p priceAbove) Matches(_ context.Context, _ any, doc value.Value) (bool, error) {
	obj, ok := doc.AsObject()
	if !ok {
		return false, nil
	}
	price, ok := obj.Get("price")
	if !ok {
		return false, nil
	}
	n, ok := price.AsNumber()
	if !ok {
		return false, nil
	}
	return n.AsFloat64() > float64(p.threshold), nil
}

type wholeDocProjector struct{}

func (wholeDocProjector) Project(_ context.Context, _ any, doc value.Value) (value.Value, error) {
	return doc, nil
}

func TestPollerDispatchesNotificationOnMatch(t *testing.T) {
	ctx := context.Background()
	store := kvtest.New()
	oracle := changefeed.NewEpochCounter(1)
	log := changefeed.NewLog(oracle)

	tracker := NewTracker(4)
	id := value.NewUUID()
	reg := tracker.Register(id, Selector{Namespace: "ns", Database: "db", Table: "product"}, nil, nil, false)

	poller := NewPoller(tracker, store, priceAbove{threshold: 100}, wholeDocProjector{})

	doc := value.NewObject()
	doc.Set("price", value.Int(200))
	recID := value.NewRecordID("product", value.StringKey("x"))

	tx, err := store.Begin(ctx, kv.TypeWrite, kv.LockOptimistic)
	if err != nil {
		t.Fatal(err)
	}
	if err := log.Append(ctx, tx, "ns", "db", "product", recID, changefeed.MutationCreate, value.ObjectValue(doc)); err != nil {
		t.Fatal(err)
	}
	if err := tx.Commit(ctx); err != nil {
		t.Fatal(err)
	}

	if err := poller.Tick(ctx); err != nil {
		t.Fatal(err)
	}

	select {
	case n := <-reg.Notify():
		if n.Action != ActionCreate {
			t.Fatalf("expected CREATE, got %s", n.Action)
		}
		if n.Record.Table != recID.Table || n.Record.Key.Str != recID.Key.Str {
			t.Fatalf("expected record %v, got %v", recID, n.Record)
		}
	case <-time.After(time.Second):
		t.Fatal("expected a notification, got none")
	}
}

func TestPollerSkipsNonMatching(t *testing.T) {
	ctx := context.Background()
	store := kvtest.New()
	oracle := changefeed.NewEpochCounter(1)
	log := changefeed.NewLog(oracle)

	tracker := NewTracker(4)
	id := value.NewUUID()
	// The condition is opaque to the poller; a non-nil one makes it consult priceAbove.
	reg := tracker.Register(id, Selector{Namespace: "ns", Database: "db", Table: "product"}, "price > 100", nil, false)
	poller := NewPoller(tracker, store, priceAbove{threshold: 100}, wholeDocProjector{})

	doc := value.NewObject()
	doc.Set("price", value.Int(50))
	recID := value.NewRecordID("product", value.StringKey("y"))

	tx, _ := store.Begin(ctx, kv.TypeWrite, kv.LockOptimistic)
	if err := log.Append(ctx, tx, "ns", "db", "product", recID, changefeed.MutationCreate, value.ObjectValue(doc)); err != nil {
		t.Fatal(err)
	}
	if err := tx.Commit(ctx); err != nil {
		t.Fatal(err)
	}
	if err := poller.Tick(ctx); err != nil {
		t.Fatal(err)
	}

	select {
	case n := <-reg.Notify():
		t.Fatalf("expected no notification, got %+v", n)
	default:
	}
}

func TestKillStopsFurtherNotifications(t *testing.T) {
	ctx := context.Background()
	store := kvtest.New()
	oracle := changefeed.NewEpochCounter(1)
	log := changefeed.NewLog(oracle)

	tracker := NewTracker(4)
	id := value.NewUUID()
	tracker.Register(id, Selector{Namespace: "ns", Database: "db", Table: "product"}, nil, nil, false)
	poller := NewPoller(tracker, store, priceAbove{threshold: 0}, wholeDocProjector{})

	if !Kill(tracker, id) {
		t.Fatal("expected Kill to find the registration")
	}
	if len(tracker.Registrations(Selector{Namespace: "ns", Database: "db", Table: "product"})) != 0 {
		t.Fatal("expected no live registrations after Kill")
	}

	doc := value.NewObject()
	doc.Set("price", value.Int(200))
	recID := value.NewRecordID("product", value.StringKey("z"))
	tx, _ := store.Begin(ctx, kv.TypeWrite, kv.LockOptimistic)
	if err := log.Append(ctx, tx, "ns", "db", "product", recID, changefeed.MutationCreate, value.ObjectValue(doc)); err != nil {
		t.Fatal(err)
	}
	if err := tx.Commit(ctx); err != nil {
		t.Fatal(err)
	}
	if err := poller.Tick(ctx); err != nil {
		t.Fatal(err)
	}
}
