package datastore

import (
	"context"

	"github.com/syssam/veloxdb/exec"
	"github.com/syssam/veloxdb/planner"
	"github.com/syssam/veloxdb/syn/ast"
	"github.com/syssam/veloxdb/value"
)

// subqueryRunner executes statement-shaped expressions (a SELECT nested
// in a WHERE, a CREATE inside a block) against the execution context of
// the enclosing statement: same transaction, same scope, no separate
// commit (exec.SubqueryRunner).
type subqueryRunner struct {
	d *Datastore
}

// Run implements exec.SubqueryRunner.
func (r *subqueryRunner) Run(ctx context.Context, ec *exec.ExecutionContext, stmt ast.Stmt) (value.Value, exec.ControlFlow) {
	ns, db := scopeOf(ec)
	cat := newTxCatalog(ctx, ec.Tx, nil)
	fctx := &planner.FrozenContext{Namespace: ns, Database: db, Params: ec.Params}
	plan, err := planner.PlanStatement(cat, fctx, stmt)
	if err != nil {
		return value.None, exec.Err(err)
	}
	op, err := exec.Build(plan, exec.BuildDeps{
		Namespace: ns,
		Database:  db,
		Catalog:   cat,
		ChangeLog: &txChangeLogger{log: r.d.chlog, tx: ec.Tx, cat: cat},
	})
	if err != nil {
		return value.None, exec.Err(err)
	}
	batch, err := exec.Drain(ctx, ec, op)
	if err != nil {
		return value.None, exec.Err(err)
	}
	return value.ArrayValue(value.Array(batch)), exec.Normal()
}

func scopeOf(ec *exec.ExecutionContext) (string, string) {
	ns, db := "", ""
	if ec.Namespace != nil {
		ns = ec.Namespace.Name
	}
	if ec.Database != nil {
		if ns == "" {
			ns = ec.Database.Namespace
		}
		db = ec.Database.Name
	}
	return ns, db
}
