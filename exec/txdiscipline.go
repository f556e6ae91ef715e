package exec

import (
	"context"

	"github.com/syssam/veloxdb/kv"
)

// RunStatement drains an Operator to completion, applying the commit/
// cancel discipline every implicit (non-BEGIN) statement needs: commit on
// a clean finish, cancel on any exceptional control flow (spec §4.8
// "implicit transactions", grounded on the Commit/Cancel contract
// kv.Transaction documents). Explicit `BEGIN ... COMMIT|CANCEL` blocks
// bypass this helper entirely and call ec.Tx.Commit/Cancel themselves once
// at the end of the block, rather than once per statement.
func RunStatement(ctx context.Context, ec *ExecutionContext, op Operator) (ValueBatch, error) {
	var all ValueBatch
	for {
		batch, cf := op.Next(ctx, ec)
		all = append(all, batch...)
		switch cf.Kind {
		case CFNormal:
			continue
		case CFDone:
			if err := ec.Tx.Commit(ctx); err != nil {
				return nil, err
			}
			return all, nil
		case CFReturn:
			if err := ec.Tx.Commit(ctx); err != nil {
				return nil, err
			}
			return ValueBatch{cf.Value}, nil
		default: // CFErr, CFBreak/CFContinue escaping their loop (a bug upstream, treated as an error)
			_ = ec.Tx.Cancel(ctx)
			if cf.Err != nil {
				return nil, cf.Err
			}
			return nil, errUnexpectedControlFlow(cf.Kind)
		}
	}
}

// Drain pulls op to completion without touching the transaction, leaving
// commit/cancel to the caller (an explicit BEGIN...COMMIT block commits
// once at its end, not per contained statement). RunStatement runs the
// same loop itself, adding the commit/cancel step.
func Drain(ctx context.Context, ec *ExecutionContext, op Operator) (ValueBatch, error) {
	var all ValueBatch
	for {
		batch, cf := op.Next(ctx, ec)
		all = append(all, batch...)
		switch cf.Kind {
		case CFNormal:
			continue
		case CFDone:
			return all, nil
		case CFReturn:
			return ValueBatch{cf.Value}, nil
		default:
			if cf.Err != nil {
				return nil, cf.Err
			}
			return nil, errUnexpectedControlFlow(cf.Kind)
		}
	}
}

// RunInTransaction runs body against a freshly begun transaction of typ,
// committing on success and canceling on error or panic — the discipline
// an explicit BEGIN...COMMIT|CANCEL block follows around its whole
// sequence of statements, in contrast to RunStatement's per-statement
// scope.
func RunInTransaction(ctx context.Context, store kv.Store, typ kv.Type, body func(tx kv.Transaction) error) (err error) {
	tx, err := store.Begin(ctx, typ, kv.LockOptimistic)
	if err != nil {
		return err
	}
	defer func() {
		if r := recover(); r != nil {
			_ = tx.Cancel(ctx)
			panic(r)
		}
	}()
	if err := body(tx); err != nil {
		_ = tx.Cancel(ctx)
		return err
	}
	return tx.Commit(ctx)
}

func errUnexpectedControlFlow(kind ControlFlowKind) error {
	return &unexpectedControlFlowError{Kind: kind}
}

type unexpectedControlFlowError struct {
	Kind ControlFlowKind
}

func (e *unexpectedControlFlowError) Error() string {
	return "veloxdb: unexpected control flow signal escaped statement execution"
}
