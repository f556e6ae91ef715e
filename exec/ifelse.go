package exec

import (
	"context"

	"github.com/syssam/veloxdb/syn/ast"
	"github.com/syssam/veloxdb/value"
)

// IfElseBranch is one condition/body pair of an IF ... ELSE IF ... chain.
type IfElseBranch struct {
	Cond ast.Expr
	Body ast.Expr
}

// IfElseOperator evaluates IF/ELSE IF/ELSE as a scalar expression: each
// condition is tried in order and the first truthy branch's body is
// evaluated and returned as the operator's single output row (spec §4.8
// "IfElse"). Unlike the interpreter this mirrors, there is no separate
// "try the streaming planner, fall back to legacy compute" split — this
// package's Evaluator already is the one full expression evaluator, so
// branch bodies are evaluated through it directly.
type IfElseOperator struct {
	Branches []IfElseBranch
	Else     ast.Expr // nil if there is no ELSE

	row     value.Value // the row the whole IF/ELSE is evaluated against
	emitted bool
}

// Next implements Operator.
func (i *IfElseOperator) Next(ctx context.Context, ec *ExecutionContext) (ValueBatch, ControlFlow) {
	if cf, cancelled := checkCancelled(ec); cancelled {
		return nil, cf
	}
	if i.emitted {
		return nil, Done()
	}
	i.emitted = true

	for _, b := range i.Branches {
		cv, cf := ec.Eval.Eval(ctx, ec, b.Cond, i.row)
		if cf.IsExceptional() {
			return nil, cf
		}
		if truthy(cv) {
			v, bcf := ec.Eval.Eval(ctx, ec, b.Body, i.row)
			if bcf.IsExceptional() {
				return nil, bcf
			}
			return ValueBatch{v}, Done()
		}
	}
	if i.Else != nil {
		v, ecf := ec.Eval.Eval(ctx, ec, i.Else, i.row)
		if ecf.IsExceptional() {
			return nil, ecf
		}
		return ValueBatch{v}, Done()
	}
	return ValueBatch{value.None}, Done()
}
