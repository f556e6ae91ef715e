package exec

import (
	"context"

	"github.com/syssam/veloxdb/catalog"
	"github.com/syssam/veloxdb/kv"
	"github.com/syssam/veloxdb/planner"
	"github.com/syssam/veloxdb/syn/ast"
	"github.com/syssam/veloxdb/value"
)

// Evaluator is the seam between the operator graph and expression
// evaluation. exec owns row batching, scanning, sorting, grouping, and
// write/permission discipline; it delegates "what does this expression
// compute against this row" to an Evaluator so the operator graph never
// needs to duplicate the full function/idiom interpreter (the same
// decoupling shape as value.Resolver and catalog/load.Applier: a narrow
// interface keeps two large subsystems from importing each other).
type Evaluator interface {
	Eval(ctx context.Context, ec *ExecutionContext, e ast.Expr, row value.Value) (value.Value, ControlFlow)
}

// ExecutionContext is the three-tier runtime context an operator runs
// under (spec §4.8 "Execution context"). Root carries auth/capabilities/
// cancellation and is always present; Namespace adds the namespace
// catalog pointer; Database adds the database catalog pointer and the
// bound transaction. A context's Level reports how far up this ladder it
// has been populated, and RequireLevel is the single place that enforces
// an operator's declared required_context.
type ExecutionContext struct {
	Level ContextLevelValue

	Auth         any
	Capabilities any
	Cancel       context.Context

	Namespace *catalog.Namespace
	Database  *catalog.Database
	Tx        kv.Transaction

	Params map[string]value.Value
	Eval   Evaluator
}

// ContextLevelValue mirrors planner.ContextLevel; kept as a distinct type
// so exec's runtime context isn't silently interchangeable with the
// planner's static requirement without an explicit conversion.
type ContextLevelValue = planner.ContextLevel

// RequireLevel fails fast (rather than nil-pointer-panicking deep inside
// an operator) when a plan demands more context than is actually bound.
func (ec *ExecutionContext) RequireLevel(level ContextLevelValue) error {
	if ec.Level < level {
		return errInsufficientContext(level, ec.Level)
	}
	return nil
}

// Param looks up a bound query parameter, returning value.None when unset.
func (ec *ExecutionContext) Param(name string) value.Value {
	if v, ok := ec.Params[name]; ok {
		return v
	}
	return value.None
}

// Cancelled reports whether the execution's cancellation token has
// fired (TIMEOUT expiry or an explicit KILL of the owning session); every
// operator must check this between batches (spec §4.8).
func (ec *ExecutionContext) Cancelled() bool {
	if ec.Cancel == nil {
		return false
	}
	select {
	case <-ec.Cancel.Done():
		return true
	default:
		return false
	}
}
