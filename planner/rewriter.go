package planner

import (
	"github.com/syssam/veloxdb/syn/ast"
	"github.com/syssam/veloxdb/value"
)

// KnnExpressions is the set of KNN comparison expressions the index
// planner pulled out of a WHERE clause to execute as vector index probes
// instead of a row-by-row predicate (spec §4.6 "Predicate rewriting").
// Identity is by pointer: the planner extracts these nodes directly out
// of the parsed AST, so the residual condition tree shares subexpressions
// with the original WHERE clause wherever KNN wasn't involved.
type KnnExpressions map[ast.Expr]struct{}

// Contains reports whether e is one of the extracted KNN expressions.
func (k KnnExpressions) Contains(e ast.Expr) bool {
	_, ok := k[e]
	return ok
}

// KnnConditionRewriter rebuilds a WHERE condition with every extracted KNN
// expression replaced by a literal true, so the post-filter operator does
// not re-evaluate a condition the index scan already satisfied (spec
// §4.6, grounded on idx/planner/rewriter.rs's KnnConditionRewriter).
type KnnConditionRewriter struct {
	knn KnnExpressions
}

// NewKnnConditionRewriter builds a rewriter over the given extracted set.
func NewKnnConditionRewriter(knn KnnExpressions) *KnnConditionRewriter {
	return &KnnConditionRewriter{knn: knn}
}

// Rewrite returns a new condition tree with KNN subexpressions replaced by
// `true`, or nil if cond is nil (no WHERE clause to rewrite).
func (r *KnnConditionRewriter) Rewrite(cond ast.Expr) ast.Expr {
	if cond == nil {
		return nil
	}
	return r.rewriteExpr(cond)
}

func (r *KnnConditionRewriter) rewriteExpr(e ast.Expr) ast.Expr {
	if r.knn.Contains(e) {
		return trueLiteral()
	}
	switch v := e.(type) {
	case *ast.Binary:
		return &ast.Binary{
			Op:    v.Op,
			Left:  r.rewriteExpr(v.Left),
			Right: r.rewriteExpr(v.Right),
		}
	case *ast.Unary:
		return &ast.Unary{Op: v.Op, Operand: r.rewriteExpr(v.Operand)}
	case *ast.ArrayExpr:
		elems := make([]ast.Expr, len(v.Elems))
		for i, el := range v.Elems {
			elems[i] = r.rewriteExpr(el)
		}
		return &ast.ArrayExpr{Elems: elems}
	case *ast.ObjectExpr:
		fields := make([]ast.ObjectField, len(v.Fields))
		for i, f := range v.Fields {
			fields[i] = ast.ObjectField{Key: f.Key, Value: r.rewriteExpr(f.Value)}
		}
		return &ast.ObjectExpr{Fields: fields}
	case *ast.IdiomExpr:
		if v.Root == nil {
			return v
		}
		return &ast.IdiomExpr{Root: r.rewriteExpr(v.Root), Idiom: v.Idiom}
	default:
		// Literal, ParamRef, FuncCall (args left intact: functions are
		// opaque to index rewriting), ClosureExpr, IfElse, and every
		// nested statement form pass through unchanged.
		return e
	}
}

func trueLiteral() ast.Expr {
	return &ast.Literal{Value: value.Bool(true)}
}
