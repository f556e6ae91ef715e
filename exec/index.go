package exec

import (
	"bytes"
	"context"
	"fmt"

	"github.com/syssam/veloxdb"
	"github.com/syssam/veloxdb/catalog"
	"github.com/syssam/veloxdb/key"
	"github.com/syssam/veloxdb/value"
)

// maintainIndexes updates every secondary index on the written table for
// one row transition: the pre-image's entries are removed, the
// post-image's are written, and a unique index rejects the write when
// another record already holds the new value tuple (spec §4.8 "Write
// operators" / §8 scenario 4). Full-text and vector indexes keep the same
// entry layout here; their specialized executors only change how entries
// are probed, not how they are maintained.
func (w *WriteOperator) maintainIndexes(ctx context.Context, ec *ExecutionContext, id value.RecordID, before, after value.Value) error {
	if w.Catalog == nil {
		return nil
	}
	indexes, err := w.Catalog.IndexesOn(w.Namespace, w.Database, w.Table)
	if err != nil {
		return err
	}
	for _, ix := range indexes {
		if err := w.maintainIndex(ctx, ec, ix, id, before, after); err != nil {
			return err
		}
	}
	return nil
}

func (w *WriteOperator) maintainIndex(ctx context.Context, ec *ExecutionContext, ix *catalog.Index, id value.RecordID, before, after value.Value) error {
	oldParts, oldOK := indexedParts(ix, before)
	newParts, newOK := indexedParts(ix, after)

	if oldOK {
		k := key.IndexEntry(w.Namespace, w.Database, w.Table, ix.Name, oldParts, id.Key)
		if err := ec.Tx.Delete(ctx, k); err != nil {
			return err
		}
	}
	if !newOK {
		return nil
	}

	if ix.Unique {
		prefix := key.IndexEntryPrefix(w.Namespace, w.Database, w.Table, ix.Name, newParts)
		own := key.IndexEntry(w.Namespace, w.Database, w.Table, ix.Name, newParts, id.Key)
		existing, err := ec.Tx.StreamKeys(ctx, prefix, key.PrefixEnd(prefix), 2)
		if err != nil {
			return err
		}
		for _, ek := range existing {
			if bytes.Equal(ek, own) {
				continue
			}
			vals := make([]any, 0, len(newParts))
			for _, p := range newParts {
				vals = append(vals, p.String())
			}
			holder, err := ec.Tx.Get(ctx, ek)
			if err != nil {
				return err
			}
			return veloxdb.NewIndexAlreadyContainsError(ix.Name, vals, holderRecord(holder, w.Table))
		}
	}

	k := key.IndexEntry(w.Namespace, w.Database, w.Table, ix.Name, newParts, id.Key)
	return ec.Tx.Put(ctx, k, encodeRecordIDRef(id))
}

// ReindexRow re-derives every index entry for one existing row, the
// backfill path DEFINE INDEX uses over a populated table. Uniqueness is
// enforced the same way as on a live write.
func (w *WriteOperator) ReindexRow(ctx context.Context, ec *ExecutionContext, id value.RecordID, row value.Value) error {
	return w.maintainIndexes(ctx, ec, id, row, row)
}

// indexedParts picks the index's field tuple out of a row; a row with no
// value at any indexed field contributes no entry (NONE is not indexed,
// matching the convention that absent fields don't collide in a unique
// index).
func indexedParts(ix *catalog.Index, row value.Value) ([]value.Value, bool) {
	if row.IsNone() || row.IsNull() {
		return nil, false
	}
	parts := make([]value.Value, 0, len(ix.Fields))
	any := false
	for _, f := range ix.Fields {
		v := value.Pick(row, f)
		if !v.IsNone() {
			any = true
		}
		parts = append(parts, v)
	}
	return parts, any
}

// encodeRecordIDRef stores the owning record's rendered id as the index
// entry's payload, so a unique violation can name the colliding record
// without a second lookup.
func encodeRecordIDRef(id value.RecordID) []byte {
	return []byte(id.String())
}

func holderRecord(payload []byte, table string) string {
	if len(payload) > 0 {
		return string(payload)
	}
	return fmt.Sprintf("%s:?", table)
}
