package changefeed

import (
	"context"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/syssam/veloxdb/key"
	"github.com/syssam/veloxdb/kv"
	"github.com/syssam/veloxdb/value"
)

// MutationKind mirrors exec.WriteKind without importing the exec package,
// keeping changefeed a leaf the executor depends on rather than a
// participant in its import graph (the same narrow-seam shape as
// exec.Evaluator/exec.ChangeLogger).
type MutationKind uint8

const (
	MutationCreate MutationKind = iota
	MutationUpdate
	MutationDelete
)

// Mutation is one record-level change folded into a ChangeSet.
type Mutation struct {
	ID value.RecordID
	// Kind reports whether the record was created, updated, or deleted.
	Kind MutationKind
	// After is the full post-image for Create/Update; value.None for
	// Delete (spec §9 Open Question 2: whole-row replacement, not a
	// field-level delta).
	After value.Value
}

// ChangeSet is every mutation a single table absorbed at one versionstamp
// (spec §4.9: "groups same-versionstamp mutations into a
// ChangeSet(versionstamp, DatabaseMutation)").
type ChangeSet struct {
	Versionstamp Versionstamp
	Namespace    string
	Database     string
	Table        string
	Mutations    []Mutation
}

// wireChangeSet is ChangeSet's msgpack-serializable mirror: each
// mutation's ID/After are pre-encoded via kv.EncodeValue since msgpack
// can't serialize value.Value's unexported fields directly.
type wireChangeSet struct {
	Mutations []wireMutation
}

type wireMutation struct {
	ID    []byte
	Kind  uint8
	After []byte
}

// Log appends ChangeSets to a table's durable mutation log and lets a
// poller (livequery.Poller) read them back in commit order. It is the
// concrete type datastore wiring adapts to exec.ChangeLogger.
type Log struct {
	Oracle Oracle
}

// NewLog returns a Log driven by the given versionstamp oracle.
func NewLog(oracle Oracle) *Log { return &Log{Oracle: oracle} }

// Append writes one mutation's changeset entry for (ns, db, table) at a
// freshly minted versionstamp. Statements that write several rows should
// obtain one Versionstamp via l.Oracle.Now() up front and call AppendAt
// for each row so every write inside one statement lands in a single
// ChangeSet; Append is the convenience single-mutation form.
func (l *Log) Append(ctx context.Context, tx kv.Transaction, ns, db, table string, id value.RecordID, kind MutationKind, after value.Value) error {
	return l.AppendAt(ctx, tx, l.Oracle.Now(), ns, db, table, id, kind, after)
}

// AppendAt appends a mutation at an explicit versionstamp, merging it with
// whatever changeset already exists at that exact (ns,db,table,vs) key so
// that every write sharing a versionstamp lands in a single ChangeSet.
func (l *Log) AppendAt(ctx context.Context, tx kv.Transaction, vs Versionstamp, ns, db, table string, id value.RecordID, kind MutationKind, after value.Value) error {
	k := key.Changefeed(ns, db, table, vs.Hi, vs.Lo)
	cs, err := loadChangeSet(ctx, tx, k)
	if err != nil {
		return err
	}
	cs = append(cs, Mutation{ID: id, Kind: kind, After: after})
	buf, err := encodeMutations(cs)
	if err != nil {
		return err
	}
	return tx.Put(ctx, k, buf)
}

func loadChangeSet(ctx context.Context, tx kv.Transaction, k []byte) ([]Mutation, error) {
	raw, err := tx.Get(ctx, k)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, nil
	}
	return decodeMutations(raw)
}

func encodeMutations(ms []Mutation) ([]byte, error) {
	wire := wireChangeSet{Mutations: make([]wireMutation, len(ms))}
	for i, m := range ms {
		idBuf, err := kv.EncodeValue(value.RecordIDValue(m.ID))
		if err != nil {
			return nil, err
		}
		afterBuf, err := kv.EncodeValue(m.After)
		if err != nil {
			return nil, err
		}
		wire.Mutations[i] = wireMutation{ID: idBuf, Kind: uint8(m.Kind), After: afterBuf}
	}
	return msgpack.Marshal(wire)
}

func decodeMutations(raw []byte) ([]Mutation, error) {
	var wire wireChangeSet
	if err := msgpack.Unmarshal(raw, &wire); err != nil {
		return nil, err
	}
	out := make([]Mutation, 0, len(wire.Mutations))
	for _, wm := range wire.Mutations {
		idv, err := kv.DecodeValue(wm.ID)
		if err != nil {
			return nil, err
		}
		id, _ := idv.AsRecordID()
		after, err := kv.DecodeValue(wm.After)
		if err != nil {
			return nil, err
		}
		out = append(out, Mutation{ID: id, Kind: MutationKind(wm.Kind), After: after})
	}
	return out, nil
}

// Scan reads every ChangeSet for (ns,db,table) with a versionstamp
// strictly greater than since, in ascending commit order, the catch-up
// read livequery.Poller drives per tick (spec §4.9 "Live-query tracker").
func Scan(ctx context.Context, tx kv.Transaction, ns, db, table string, since Versionstamp, limit int) ([]ChangeSet, error) {
	start := key.PrefixEnd(key.Changefeed(ns, db, table, since.Hi, since.Lo))
	if since == Zero {
		start = key.ChangefeedTablePrefix(ns, db, table)
	}
	end := key.PrefixEnd(key.ChangefeedTablePrefix(ns, db, table))
	kvs, err := tx.Scan(ctx, start, end, limit)
	if err != nil {
		return nil, err
	}
	out := make([]ChangeSet, 0, len(kvs))
	for _, pair := range kvs {
		hi, lo := key.DecodeChangefeedVersionstamp(pair.Key)
		mutations, err := decodeMutations(pair.Value)
		if err != nil {
			return nil, err
		}
		out = append(out, ChangeSet{
			Versionstamp: Versionstamp{Hi: hi, Lo: lo},
			Namespace:    ns,
			Database:     db,
			Table:        table,
			Mutations:    mutations,
		})
	}
	return out, nil
}
