package exec

import (
	"context"

	"github.com/syssam/veloxdb/syn/ast"
	"github.com/syssam/veloxdb/value"
)

// ComputeOperator pre-evaluates a fixed set of expressions per row and
// stashes the results into a parallel field on the row's object, so a
// downstream Sort/Group doesn't recompute the same key expression once
// per comparison (spec §4.8 "Compute").
type ComputeOperator struct {
	Child  Operator
	Exprs  []ast.Expr
	Prefix string // field-name prefix for stashed results, e.g. "__sort_key_"
}

// Next implements Operator.
func (c *ComputeOperator) Next(ctx context.Context, ec *ExecutionContext) (ValueBatch, ControlFlow) {
	if cf, cancelled := checkCancelled(ec); cancelled {
		return nil, cf
	}
	batch, cf := c.Child.Next(ctx, ec)
	if cf.IsExceptional() {
		return nil, cf
	}
	out := make(ValueBatch, 0, len(batch))
	for _, row := range batch {
		computed := row
		if obj, ok := row.AsObject(); ok {
			clone := obj.Clone()
			for i, e := range c.Exprs {
				v, ecf := ec.Eval.Eval(ctx, ec, e, row)
				if ecf.IsExceptional() {
					return nil, ecf
				}
				clone.Set(computeKey(c.Prefix, i), v)
			}
			computed = value.ObjectValue(clone)
		}
		out = append(out, computed)
	}
	return out, cf
}

func computeKey(prefix string, i int) string {
	if prefix == "" {
		prefix = "__computed_"
	}
	return prefix + string(rune('0'+i))
}
