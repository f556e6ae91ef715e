package exec

import (
	"context"

	"github.com/syssam/veloxdb/syn/ast"
	"github.com/syssam/veloxdb/value"
)

// FilterOperator evaluates Cond per row pulled from Child, passing
// through only rows it accepts. Control flow raised inside the condition
// (RETURN/BREAK/CONTINUE/THROW) propagates unchanged (spec §4.8
// "Filter").
type FilterOperator struct {
	Child Operator
	Cond  ast.Expr
}

// Next implements Operator. It pulls from Child until it has a non-empty
// filtered batch or Child reports CFDone, so an all-rejected batch
// doesn't surface as a spurious empty-but-not-done result to the caller.
func (f *FilterOperator) Next(ctx context.Context, ec *ExecutionContext) (ValueBatch, ControlFlow) {
	if cf, cancelled := checkCancelled(ec); cancelled {
		return nil, cf
	}
	for {
		batch, cf := f.Child.Next(ctx, ec)
		if cf.IsExceptional() {
			return nil, cf
		}
		out := make(ValueBatch, 0, len(batch))
		for _, row := range batch {
			keep, kcf := evalCond(ctx, ec, f.Cond, row)
			if kcf.IsExceptional() {
				return nil, kcf
			}
			if keep {
				out = append(out, row)
			}
		}
		if cf.Kind == CFDone || len(out) > 0 {
			return out, cf
		}
	}
}

// evalCond evaluates e against row and coerces the result to a truthy
// bool, the common "WHERE clause" shape every filtering operator needs.
func evalCond(ctx context.Context, ec *ExecutionContext, e ast.Expr, row value.Value) (bool, ControlFlow) {
	if e == nil {
		return true, Normal()
	}
	v, cf := ec.Eval.Eval(ctx, ec, e, row)
	if cf.IsExceptional() {
		return false, cf
	}
	return truthy(v), Normal()
}
