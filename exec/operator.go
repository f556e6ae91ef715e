package exec

import (
	"context"
	"fmt"

	"github.com/syssam/veloxdb"
	"github.com/syssam/veloxdb/planner"
	"github.com/syssam/veloxdb/value"
)

var errQueryCancelled = veloxdb.ErrQueryCancelled

// ValueBatch is one pulled chunk of rows.
type ValueBatch []value.Value

// DefaultBatchSize is how many rows a Scan operator buffers per pull
// when the planner didn't override it (spec §4.8 "emit batches (default
// 1000)").
const DefaultBatchSize = 1000

// Operator is the pull-based interface every executable node implements.
// Operators are addressed through this interface rather than a closed
// enum (spec §9 redesign note: vtable dispatch, not a tagged union)
// because the set of operators grows as new index/write/scan kinds are
// added. Next returns the next batch and a ControlFlow signal: CFNormal
// with a non-empty batch to keep pulling, CFDone to signal exhaustion
// (optionally carrying one last batch the caller must still process
// before stopping, e.g. a Count scan's single final row), or one of
// Return/Break/Continue/Err to unwind the whole statement.
type Operator interface {
	Next(ctx context.Context, ec *ExecutionContext) (ValueBatch, ControlFlow)
}

// contextInsufficientError is returned by ExecutionContext.RequireLevel.
type contextInsufficientError struct {
	Need, Have ContextLevelValue
}

func (e *contextInsufficientError) Error() string {
	return fmt.Sprintf("veloxdb: operator requires context level %d, have %d", e.Need, e.Have)
}

func errInsufficientContext(need, have ContextLevelValue) error {
	return &contextInsufficientError{Need: need, Have: have}
}

func errUnimplementedIterable(kind planner.IterableKind) error {
	return veloxdb.NewUnimplementedError(fmt.Sprintf("scanning iterable kind %d", kind))
}

// checkCancelled is the one-line guard every operator calls at the top of
// Next, per spec §4.8's "operators MUST honor a cancellation token
// checked between batches."
func checkCancelled(ec *ExecutionContext) (ControlFlow, bool) {
	if ec.Cancelled() {
		return Err(errQueryCancelled), true
	}
	return ControlFlow{}, false
}
