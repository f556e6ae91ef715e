package exec

import (
	"context"
	"fmt"

	"github.com/syssam/veloxdb/key"
	"github.com/syssam/veloxdb/planner"
	"github.com/syssam/veloxdb/syn/ast"
	"github.com/syssam/veloxdb/value"
)

// RelateOperator implements RELATE: for each (from, to) pair pulled from
// Child it writes one edge-table record plus the two GraphEdge index rows
// (out from `from`, in to `to`) a GraphLookupOperator later scans (spec
// §4.6 "RELATE").
type RelateOperator struct {
	Child     Operator
	EdgeTable string
	Namespace string
	Database  string
	Content   ast.Expr // nil means an empty edge record
	From, To  ast.Expr
}

// RelatePair names the two endpoints of one edge. RelateOperator does not
// consume it: it evaluates From and To against each row Child emits and
// writes one edge per row.
type RelatePair struct {
	From, To value.RecordID
}

// Next implements Operator.
func (r *RelateOperator) Next(ctx context.Context, ec *ExecutionContext) (ValueBatch, ControlFlow) {
	if cf, cancelled := checkCancelled(ec); cancelled {
		return nil, cf
	}
	if err := ec.RequireLevel(planner.ContextDatabase); err != nil {
		return nil, Err(err)
	}
	batch, cf := r.Child.Next(ctx, ec)
	if cf.IsExceptional() {
		return nil, cf
	}
	out := make(ValueBatch, 0, len(batch))
	for _, row := range batch {
		v, err := r.applyOne(ctx, ec, row)
		if err != nil {
			return nil, Err(err)
		}
		out = append(out, v)
	}
	return out, cf
}

func (r *RelateOperator) applyOne(ctx context.Context, ec *ExecutionContext, row value.Value) (value.Value, error) {
	fromV, cf := ec.Eval.Eval(ctx, ec, r.From, row)
	if cf.IsExceptional() {
		return value.None, cf.Err
	}
	toV, cf := ec.Eval.Eval(ctx, ec, r.To, row)
	if cf.IsExceptional() {
		return value.None, cf.Err
	}
	from, ok := fromV.AsRecordID()
	if !ok {
		return value.None, errRelateEndpoint(fromV)
	}
	to, ok := toV.AsRecordID()
	if !ok {
		return value.None, errRelateEndpoint(toV)
	}

	obj := value.NewObject()
	if r.Content != nil {
		v, ccf := ec.Eval.Eval(ctx, ec, r.Content, row)
		if ccf.IsExceptional() {
			return value.None, ccf.Err
		}
		if o, ok := v.AsObject(); ok {
			obj = o
		}
	}
	id := ensureRecordID(obj, r.EdgeTable)
	obj.Set("in", value.RecordIDValue(from))
	obj.Set("out", value.RecordIDValue(to))
	final := value.ObjectValue(obj)

	if err := ec.Tx.Put(ctx, key.Record(r.Namespace, r.Database, id.Table, id.Key), mustEncode(final)); err != nil {
		return value.None, err
	}
	if err := ec.Tx.Put(ctx, key.GraphEdge(r.Namespace, r.Database, from, r.EdgeTable, true, to), nil); err != nil {
		return value.None, err
	}
	if err := ec.Tx.Put(ctx, key.GraphEdge(r.Namespace, r.Database, to, r.EdgeTable, false, from), nil); err != nil {
		return value.None, err
	}
	return final, nil
}

func errRelateEndpoint(v value.Value) error {
	return fmt.Errorf("veloxdb: RELATE endpoint must be a record id, got %s", v.Kind())
}
