package exec

import (
	"context"

	"github.com/syssam/veloxdb/key"
	"github.com/syssam/veloxdb/kv"
	"github.com/syssam/veloxdb/planner"
	"github.com/syssam/veloxdb/value"
)

// ScanOperator turns a planner.Iterable into a stream of record ids or
// fully hydrated rows (spec §4.8 "Scan operators"). It opens the
// appropriate key range once, on the first Next call, then paginates
// through it BatchSize rows at a time.
type ScanOperator struct {
	Iterable  planner.Iterable
	Namespace string
	Database  string
	BatchSize int

	started bool
	cursor  []byte // next scan start; nil once exhausted
	end     []byte
	count   int64 // accumulator for StrategyCount
}

func (s *ScanOperator) batchSize() int {
	if s.BatchSize > 0 {
		return s.BatchSize
	}
	return DefaultBatchSize
}

// Next implements Operator.
func (s *ScanOperator) Next(ctx context.Context, ec *ExecutionContext) (ValueBatch, ControlFlow) {
	if cf, cancelled := checkCancelled(ec); cancelled {
		return nil, cf
	}
	if err := ec.RequireLevel(planner.ContextDatabase); err != nil {
		return nil, Err(err)
	}

	switch s.Iterable.Kind {
	case planner.IterValue:
		if s.started {
			return nil, Done()
		}
		s.started = true
		return ValueBatch{s.Iterable.Value}, Normal()

	case planner.IterThing:
		if s.started {
			return nil, Done()
		}
		s.started = true
		row, err := s.fetchThing(ctx, ec, s.Iterable.Thing)
		if err != nil {
			return nil, Err(err)
		}
		if row.IsNone() {
			return ValueBatch{}, Normal()
		}
		return ValueBatch{row}, Normal()

	case planner.IterMergeable:
		// CREATE-or-merge seed: the existing row when present, otherwise
		// the iterable's seed value, so an UPSERT write always has one
		// row to apply its changes to.
		if s.started {
			return nil, Done()
		}
		s.started = true
		row, err := s.fetchThing(ctx, ec, s.Iterable.Thing)
		if err != nil {
			return nil, Err(err)
		}
		if row.IsNone() {
			row = s.Iterable.MergeValue
		}
		return ValueBatch{row}, Normal()

	case planner.IterTable:
		return s.scanTable(ctx, ec)

	case planner.IterRange:
		return s.scanTable(ctx, ec)

	default:
		return nil, Err(errUnimplementedIterable(s.Iterable.Kind))
	}
}

func (s *ScanOperator) fetchThing(ctx context.Context, ec *ExecutionContext, id value.RecordID) (value.Value, error) {
	k := key.Record(s.Namespace, s.Database, id.Table, id.Key)
	raw, err := ec.Tx.Get(ctx, k)
	if err != nil {
		return value.None, err
	}
	if raw == nil {
		return value.None, nil
	}
	return kv.DecodeValue(raw)
}

func (s *ScanOperator) scanTable(ctx context.Context, ec *ExecutionContext) (ValueBatch, ControlFlow) {
	if !s.started {
		s.started = true
		s.cursor = key.RecordTablePrefix(s.Namespace, s.Database, s.Iterable.Table)
		s.end = key.PrefixEnd(s.cursor)
	}
	if s.cursor == nil {
		return nil, Done()
	}

	if s.Iterable.Strategy == planner.StrategyCount {
		for s.cursor != nil {
			keys, err := ec.Tx.StreamKeys(ctx, s.cursor, s.end, s.batchSize())
			if err != nil {
				return nil, Err(err)
			}
			if len(keys) == 0 {
				s.cursor = nil
				break
			}
			s.count += int64(len(keys))
			s.advanceCursor(keys[len(keys)-1])
		}
		return ValueBatch{value.Int(s.count)}, Done()
	}

	if s.Iterable.Strategy == planner.StrategyKeysOnly {
		keys, err := ec.Tx.StreamKeys(ctx, s.cursor, s.end, s.batchSize())
		if err != nil {
			return nil, Err(err)
		}
		if len(keys) == 0 {
			s.cursor = nil
			return nil, Done()
		}
		batch := make(ValueBatch, 0, len(keys))
		for _, k := range keys {
			batch = append(batch, value.Bytes(k))
		}
		s.advanceCursor(keys[len(keys)-1])
		return batch, Normal()
	}

	pairs, err := ec.Tx.Scan(ctx, s.cursor, s.end, s.batchSize())
	if err != nil {
		return nil, Err(err)
	}
	if len(pairs) == 0 {
		s.cursor = nil
		return nil, Done()
	}
	batch := make(ValueBatch, 0, len(pairs))
	for _, kvpair := range pairs {
		v, err := kv.DecodeValue(kvpair.Value)
		if err != nil {
			return nil, Err(err)
		}
		batch = append(batch, v)
	}
	s.advanceCursor(pairs[len(pairs)-1].Key)
	return batch, Normal()
}

// advanceCursor moves the scan window just past lastKey. It never ends the
// scan itself; the next pull that finds no rows in range does.
func (s *ScanOperator) advanceCursor(lastKey []byte) {
	next := append(append([]byte{}, lastKey...), 0)
	s.cursor = next
}
