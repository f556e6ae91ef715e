package datastore

import (
	"context"

	"github.com/syssam/veloxdb/exec"
	"github.com/syssam/veloxdb/syn/ast"
	"github.com/syssam/veloxdb/value"
)

// liveEvaluator checks a live query's WHERE condition against the cursor
// document a change-feed mutation produced (livequery.ConditionEvaluator).
// Conditions here are pure over the document: no transaction is bound, so
// a condition that needs the store (a graph step, a subquery) fails the
// dispatch rather than silently matching.
type liveEvaluator struct {
	interp *exec.Interpreter
}

// Matches implements livequery.ConditionEvaluator.
func (e *liveEvaluator) Matches(ctx context.Context, condition any, doc value.Value) (bool, error) {
	expr, ok := condition.(ast.Expr)
	if !ok || expr == nil {
		return true, nil
	}
	ec := &exec.ExecutionContext{Params: map[string]value.Value{}, Eval: e.interp, Cancel: ctx}
	v, cf := e.interp.Eval(ctx, ec, expr, doc)
	if cf.IsExceptional() {
		return false, cf.Err
	}
	return exec.Truthy(v), nil
}

// liveProjector shapes the notification's Result from the cursor document
// per the LIVE SELECT's field list (livequery.Projector).
type liveProjector struct {
	interp *exec.Interpreter
}

// Project implements livequery.Projector.
func (p *liveProjector) Project(ctx context.Context, fields any, doc value.Value) (value.Value, error) {
	fs, ok := fields.([]ast.Field)
	if !ok || len(fs) == 0 {
		return doc, nil
	}
	ec := &exec.ExecutionContext{Params: map[string]value.Value{}, Eval: p.interp, Cancel: ctx}
	obj := value.NewObject()
	for i, f := range fs {
		if f.Star {
			if src, isObj := doc.AsObject(); isObj {
				src.Range(func(k string, v value.Value) bool {
					obj.Set(k, v)
					return true
				})
			}
			continue
		}
		v, cf := p.interp.Eval(ctx, ec, f.Expr, doc)
		if cf.IsExceptional() {
			return value.None, cf.Err
		}
		key := f.Alias
		if key == "" {
			if idm, isIdm := f.Expr.(*ast.IdiomExpr); isIdm && idm.Root == nil {
				key = idm.Idiom.String()
			}
		}
		if key == "" {
			key = positionalFieldKey(i)
		}
		obj.Set(key, v)
	}
	return value.ObjectValue(obj), nil
}

func positionalFieldKey(i int) string {
	const letters = "abcdefghijklmnopqrstuvwxyz"
	if i < len(letters) {
		return string(letters[i])
	}
	return "field"
}
