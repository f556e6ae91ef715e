package exec

import (
	"context"

	"github.com/syssam/veloxdb/key"
	"github.com/syssam/veloxdb/planner"
	"github.com/syssam/veloxdb/syn/ast"
	"github.com/syssam/veloxdb/value"
)

// ReferenceScanOperator implements the `<~` operator: given one or more
// source record ids, it finds every record in ReferencingTable whose
// ReferencingField (or, if empty, any tracked field) points back at the
// source (spec §4.6 "reverse reference lookup"). Unlike a graph edge,
// which is an explicit RELATE row, a reference is a byproduct of a
// record<table> field write; WriteOperator maintains the reference index
// this operator reads.
type ReferenceScanOperator struct {
	Source           ast.Expr
	ReferencingTable string
	ReferencingField string // empty means "any field"
	Namespace        string
	Database         string

	row value.Value // the row Source is evaluated against (usually none, a literal)

	started bool
	targets []value.RecordID
	ti      int
	cursor  []byte
	end     []byte
}

// Next implements Operator.
func (r *ReferenceScanOperator) Next(ctx context.Context, ec *ExecutionContext) (ValueBatch, ControlFlow) {
	if cf, cancelled := checkCancelled(ec); cancelled {
		return nil, cf
	}
	if err := ec.RequireLevel(planner.ContextDatabase); err != nil {
		return nil, Err(err)
	}
	if !r.started {
		r.started = true
		v, cf := ec.Eval.Eval(ctx, ec, r.Source, r.row)
		if cf.IsExceptional() {
			return nil, cf
		}
		r.targets = referenceTargets(v)
		if len(r.targets) == 0 {
			return nil, Done()
		}
		r.openNextTarget()
	}

	batch := make(ValueBatch, 0, DefaultBatchSize)
	for {
		if r.cursor == nil {
			r.ti++
			if r.ti >= len(r.targets) {
				if len(batch) > 0 {
					return batch, Done()
				}
				return nil, Done()
			}
			r.openNextTarget()
		}
		pairs, err := ec.Tx.Scan(ctx, r.cursor, r.end, DefaultBatchSize-len(batch))
		if err != nil {
			return nil, Err(err)
		}
		if len(pairs) == 0 {
			r.cursor = nil
			continue
		}
		for _, kvpair := range pairs {
			_, _, _, refKey := key.DecodeReference(kvpair.Key)
			refID := value.NewRecordID(r.ReferencingTable, refKey)
			batch = append(batch, value.RecordIDValue(refID))
		}
		next := append(append([]byte{}, pairs[len(pairs)-1].Key...), 0)
		r.cursor = next
		if len(batch) >= DefaultBatchSize {
			return batch, Normal()
		}
	}
}

func (r *ReferenceScanOperator) openNextTarget() {
	target := r.targets[r.ti]
	r.cursor = key.ReferencePrefix(r.Namespace, r.Database, target, r.ReferencingTable, r.ReferencingField)
	r.end = key.PrefixEnd(r.cursor)
}

func referenceTargets(v value.Value) []value.RecordID {
	if id, ok := v.AsRecordID(); ok {
		return []value.RecordID{id}
	}
	if arr, ok := v.AsArray(); ok {
		out := make([]value.RecordID, 0, len(arr))
		for _, item := range arr {
			if id, ok := item.AsRecordID(); ok {
				out = append(out, id)
			}
		}
		return out
	}
	return nil
}
