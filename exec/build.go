package exec

import (
	"context"

	"github.com/syssam/veloxdb"
	"github.com/syssam/veloxdb/planner"
	"github.com/syssam/veloxdb/syn/ast"
	"github.com/syssam/veloxdb/value"
)

// BuildDeps carries the per-statement wiring Build threads into the
// operators it constructs: the scope names every key is built under, the
// catalog seam for permission/index resolution, and the change logger a
// write operator appends mutations through.
type BuildDeps struct {
	Namespace string
	Database  string
	Catalog   planner.Catalog
	ChangeLog ChangeLogger
	// Parallel permits read-only unions to drain their inputs
	// concurrently (the statement's PARALLEL clause).
	Parallel bool
}

// Build lowers an OperatorPlan DAG into the Operator graph the executor
// pulls (spec §4.7/§4.8: the planner emits metadata-tagged nodes, the
// executor owns the runtime objects). Unknown node kinds return
// Unimplemented so the engine can fall back to the interpreter path.
func Build(plan *planner.OperatorPlan, deps BuildDeps) (Operator, error) {
	if plan == nil {
		return nil, veloxdb.NewUnimplementedError("building a nil plan")
	}

	child := func() (Operator, error) {
		if len(plan.Children) != 1 {
			return nil, veloxdb.NewUnimplementedError("operator requires exactly one input")
		}
		return Build(plan.Children[0], deps)
	}

	switch plan.Kind {
	case planner.OpScan:
		if plan.Iterable.Kind == planner.IterLookup {
			if plan.Iterable.LookupKind == planner.LookupReference {
				return &ReferenceScanOperator{
					Source:           &ast.Literal{Value: value.RecordIDValue(plan.Iterable.Thing)},
					ReferencingTable: plan.Iterable.EdgeTable,
					Namespace:        deps.Namespace,
					Database:         deps.Database,
				}, nil
			}
			return &GraphLookupOperator{
				Source:    plan.Iterable.Thing,
				EdgeTable: plan.Iterable.EdgeTable,
				Direction: GraphOut,
				Namespace: deps.Namespace,
				Database:  deps.Database,
			}, nil
		}
		return &ScanOperator{
			Iterable:  plan.Iterable,
			Namespace: deps.Namespace,
			Database:  deps.Database,
		}, nil

	case planner.OpFilter:
		c, err := child()
		if err != nil {
			return nil, err
		}
		return &FilterOperator{Child: c, Cond: plan.Expr}, nil

	case planner.OpProject:
		c, err := child()
		if err != nil {
			return nil, err
		}
		return &ProjectOperator{Child: c, Fields: projectFields(plan.Fields)}, nil

	case planner.OpCompute:
		c, err := child()
		if err != nil {
			return nil, err
		}
		return &ComputeOperator{Child: c, Exprs: plan.Exprs}, nil

	case planner.OpSort:
		c, err := child()
		if err != nil {
			return nil, err
		}
		return &SortOperator{Child: c, OrderBy: plan.OrderBy}, nil

	case planner.OpShuffle:
		// Multi-child shuffle nodes are the planner's ordered unions;
		// only a single-child node is a real ORDER BY RAND() shuffle.
		if len(plan.Children) > 1 {
			ops := make([]Operator, 0, len(plan.Children))
			for _, cp := range plan.Children {
				op, err := Build(cp, deps)
				if err != nil {
					return nil, err
				}
				ops = append(ops, op)
			}
			if deps.Parallel && plan.IsReadOnly() {
				return &ParallelUnionOperator{Children: ops}, nil
			}
			return &UnionOperator{Children: ops}, nil
		}
		c, err := child()
		if err != nil {
			return nil, err
		}
		return &RandomShuffleOperator{Child: c, Limit: int(plan.Limit)}, nil

	case planner.OpGroup:
		c, err := child()
		if err != nil {
			return nil, err
		}
		return &GroupOperator{
			Child:      c,
			GroupBy:    plan.GroupBy,
			Aggregates: groupAggregates(plan.GroupBy, plan.Fields),
		}, nil

	case planner.OpLimit:
		c, err := child()
		if err != nil {
			return nil, err
		}
		return &LimitOperator{Child: c, Start: int(plan.Start), Limit: int(plan.Limit)}, nil

	case planner.OpIfElse:
		op := &IfElseOperator{}
		for i, branch := range plan.Exprs {
			if i == 0 {
				op.Branches = append(op.Branches, IfElseBranch{Cond: plan.Cond, Body: branch})
				continue
			}
			op.Else = branch
		}
		return op, nil

	case planner.OpWrite:
		return buildWrite(plan, deps)

	default:
		return nil, veloxdb.NewUnimplementedError("building this operator kind")
	}
}

func buildWrite(plan *planner.OperatorPlan, deps BuildDeps) (Operator, error) {
	spec := plan.Write
	if spec == nil {
		return nil, veloxdb.NewUnimplementedError("write node without a write spec")
	}
	c, err := Build(plan.Children[0], deps)
	if err != nil {
		return nil, err
	}
	if spec.Kind == planner.WriteRelate {
		return &RelateOperator{
			Child:     c,
			EdgeTable: spec.EdgeTable,
			Namespace: deps.Namespace,
			Database:  deps.Database,
			Content:   spec.Content,
			From:      spec.From,
			To:        spec.To,
		}, nil
	}
	var kind WriteKind
	switch spec.Kind {
	case planner.WriteCreate:
		kind = WriteCreate
	case planner.WriteUpdate:
		kind = WriteUpdate
	case planner.WriteUpsert:
		kind = WriteUpsert
	case planner.WriteDelete:
		kind = WriteDelete
	case planner.WriteInsert:
		kind = WriteInsert
	default:
		return nil, veloxdb.NewUnimplementedError("building this write kind")
	}
	return &WriteOperator{
		Child:     c,
		Kind:      kind,
		Table:     spec.Table,
		Namespace: deps.Namespace,
		Database:  deps.Database,
		Catalog:   deps.Catalog,
		Content:   spec.Content,
		Replace:   spec.Replace,
		ChangeLog: deps.ChangeLog,
	}, nil
}

// aggFuncKinds maps the function names GROUP BY folds incrementally to
// their accumulator kinds (spec §4.8 "aggregate functions are associative
// and applied incrementally").
var aggFuncKinds = map[string]AggKind{
	"count":        AggCount,
	"math::sum":    AggSum,
	"math::mean":   AggMean,
	"math::min":    AggMin,
	"math::max":    AggMax,
	"array::group": AggArrayGroup,
}

// groupAggregates derives the group node's output columns from the SELECT
// projection: recognized aggregate calls fold incrementally, group-by
// keys are emitted by the operator itself and skipped here, and any other
// expression passes through the group's first row.
func groupAggregates(groupBy []ast.Expr, fields []ast.Field) []Aggregate {
	keyNames := make(map[string]bool, len(groupBy))
	for i, e := range groupBy {
		keyNames[groupByKey(e, i)] = true
	}
	var out []Aggregate
	for i, f := range fields {
		if f.Star {
			continue
		}
		key := f.Alias
		if key == "" {
			key = fieldKey(f.Expr)
		}
		if key == "" {
			key = positionalKey(i)
		}
		if f.Alias == "" && keyNames[key] {
			continue
		}
		if call, ok := f.Expr.(*ast.FuncCall); ok {
			if kind, ok := aggFuncKinds[call.Name]; ok {
				agg := Aggregate{Kind: kind, Key: key}
				if len(call.Args) > 0 {
					agg.Expr = call.Args[0]
				}
				if f.Alias == "" {
					agg.Key = call.Name
				}
				out = append(out, agg)
				continue
			}
		}
		out = append(out, Aggregate{Kind: AggFirst, Expr: f.Expr, Key: key})
	}
	return out
}

// projectFields converts the AST projection into the executor's shape,
// deriving output keys from aliases, bare idioms, or position.
func projectFields(fields []ast.Field) []ProjectField {
	out := make([]ProjectField, 0, len(fields))
	for _, f := range fields {
		pf := ProjectField{Expr: f.Expr, Key: f.Alias, Star: f.Star}
		if pf.Key == "" && !f.Star {
			pf.Key = fieldKey(f.Expr)
		}
		out = append(out, pf)
	}
	return out
}

// fieldKey derives a projection's implicit output key from a bare idiom
// expression; non-idiom expressions fall back to a positional key.
func fieldKey(e ast.Expr) string {
	idm, ok := e.(*ast.IdiomExpr)
	if !ok || idm.Root != nil {
		return ""
	}
	return idm.Idiom.String()
}

// UnionOperator drains its children in order, concatenating their output
// streams (the executor's form of the planner's multi-target FROM and
// multi-row write fan-in).
type UnionOperator struct {
	Children []Operator

	ci int
}

// Next implements Operator.
func (u *UnionOperator) Next(ctx context.Context, ec *ExecutionContext) (ValueBatch, ControlFlow) {
	if cf, cancelled := checkCancelled(ec); cancelled {
		return nil, cf
	}
	for u.ci < len(u.Children) {
		batch, cf := u.Children[u.ci].Next(ctx, ec)
		if cf.IsExceptional() {
			return nil, cf
		}
		if cf.Kind == CFDone {
			u.ci++
			if len(batch) > 0 {
				return batch, Normal()
			}
			continue
		}
		return batch, cf
	}
	return nil, Done()
}
