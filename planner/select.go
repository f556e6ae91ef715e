package planner

import (
	"github.com/syssam/veloxdb"
	"github.com/syssam/veloxdb/catalog"
	"github.com/syssam/veloxdb/syn/ast"
)

// Catalog is the narrow read-only seam the planner needs from the
// catalog to choose an Iterable (does this table have a matching index?
// is it a relation table?). Kept as an interface so planner doesn't
// import catalog/load or depend on a live transaction.
type Catalog interface {
	Table(namespace, database, name string) (*catalog.Table, error)
	IndexesOn(namespace, database, table string) ([]*catalog.Index, error)
	FieldsOn(namespace, database, table string) ([]*catalog.Field, error)
}

// PlanSelect lowers a SelectStmt into an OperatorPlan, picking one
// Iterable per FROM target and wrapping it with Filter/Project/Sort/
// Group/Limit nodes in the order those clauses are documented (spec
// §4.6 "Iterable selection").
func PlanSelect(cat Catalog, ctx *FrozenContext, stmt *ast.SelectStmt) (*OperatorPlan, error) {
	if len(stmt.From) == 0 {
		return nil, veloxdb.NewInvalidArgumentsError("planner", "SELECT requires at least one FROM target")
	}

	var scans []*OperatorPlan
	for _, what := range stmt.From {
		scan, err := planWhat(cat, ctx, what, stmt.OrderBy)
		if err != nil {
			return nil, err
		}
		scans = append(scans, scan)
	}

	plan := scans[0]
	for _, extra := range scans[1:] {
		plan = &OperatorPlan{
			Kind:        OpShuffle,
			Access:      plan.Access.Combine(extra.Access),
			Level:       plan.Level.Max(extra.Level),
			Cardinality: Unknown(),
			Children:    []*OperatorPlan{plan, extra},
		}
	}

	if stmt.Where != nil {
		knn := extractKnnExpressions(stmt.Where)
		residual := stmt.Where
		if len(knn) > 0 {
			residual = NewKnnConditionRewriter(knn).Rewrite(stmt.Where)
		}
		plan = &OperatorPlan{
			Kind:        OpFilter,
			Access:      plan.Access,
			Level:       plan.Level,
			Cardinality: Unknown(),
			Children:    []*OperatorPlan{plan},
			Expr:        residual,
		}
	}

	grouped := len(stmt.GroupBy) > 0
	if grouped {
		// The group node owns the whole projection: aggregate fields are
		// folded incrementally as rows stream in, so no separate Project
		// node re-evaluates them per output group.
		plan = &OperatorPlan{
			Kind:        OpGroup,
			Access:      plan.Access,
			Level:       plan.Level,
			Cardinality: Unknown(),
			Children:    []*OperatorPlan{plan},
			GroupBy:     stmt.GroupBy,
			Fields:      stmt.Fields,
		}
	}

	if len(stmt.OrderBy) > 0 {
		plan = &OperatorPlan{
			Kind:        OpSort,
			Access:      plan.Access,
			Level:       plan.Level,
			Cardinality: plan.Cardinality,
			Children:    []*OperatorPlan{plan},
			OrderBy:     stmt.OrderBy,
		}
	}

	if stmt.Start != nil || stmt.Limit != nil {
		limit, start := int64(-1), int64(0)
		if c := literalCardinality(stmt.Limit); c.Known {
			limit = c.Count
		}
		if c := literalCardinality(stmt.Start); c.Known {
			start = c.Count
		}
		plan = &OperatorPlan{
			Kind:        OpLimit,
			Access:      plan.Access,
			Level:       plan.Level,
			Cardinality: literalCardinality(stmt.Limit),
			Children:    []*OperatorPlan{plan},
			Limit:       limit,
			Start:       start,
		}
	}

	// `SELECT *` alone needs no Project node: the scan's hydrated rows
	// are already the result shape. A grouped plan projects inside the
	// group node instead.
	projected := len(stmt.Fields) > 1 || (len(stmt.Fields) == 1 && !stmt.Fields[0].Star)
	if projected && !grouped {
		plan = &OperatorPlan{
			Kind:        OpProject,
			Access:      plan.Access,
			Level:       plan.Level,
			Cardinality: plan.Cardinality,
			Children:    []*OperatorPlan{plan},
			Fields:      stmt.Fields,
		}
	}

	return plan, nil
}

func planWhat(cat Catalog, ctx *FrozenContext, what ast.What, orderBy []ast.OrderBy) (*OperatorPlan, error) {
	dir := Forward
	if len(orderBy) == 1 && orderBy[0].Descending {
		dir = Reverse
	}

	switch {
	case what.Subquery != nil:
		sub, ok := what.Subquery.(*ast.SelectStmt)
		if !ok {
			return nil, veloxdb.NewUnimplementedError("planning a non-SELECT subquery source")
		}
		return PlanSelect(cat, ctx, sub)

	case len(what.Records) == 1:
		it := ThingIterable(what.Records[0])
		return Leaf(OpScan, ReadOnly, ContextDatabase, OneRow(), it), nil

	case len(what.Records) > 1:
		// Multiple explicit ids: planned as a shuffled union of single
		// Thing scans so each keeps its own exact cardinality hint.
		var plan *OperatorPlan
		for _, id := range what.Records {
			leaf := Leaf(OpScan, ReadOnly, ContextDatabase, OneRow(), ThingIterable(id))
			if plan == nil {
				plan = leaf
				continue
			}
			plan = &OperatorPlan{
				Kind:        OpShuffle,
				Access:      ReadOnly,
				Level:       ContextDatabase,
				Cardinality: Unknown(),
				Children:    []*OperatorPlan{plan, leaf},
			}
		}
		return plan, nil

	case what.Table != "":
		// A relation table scanned directly (not via a graph walk from a
		// known record) is still a flat table scan; RELATE traversal is
		// planned at Lookup sites instead, so no catalog lookup is
		// needed here beyond what index selection will eventually add.
		it := TableIterable(what.Table, StrategyKeysAndValues, dir)
		return Leaf(OpScan, ReadOnly, ContextDatabase, Unknown(), it), nil
	}

	return nil, veloxdb.NewInvalidArgumentsError("planner", "empty FROM target")
}

// extractKnnExpressions walks cond collecting every Binary node using the
// KNN operator, so the caller can both extract them for index-executor
// dispatch and rewrite the residual condition (spec §4.6 "Predicate
// rewriting").
func extractKnnExpressions(cond ast.Expr) KnnExpressions {
	out := KnnExpressions{}
	collectKnn(cond, out)
	return out
}

func collectKnn(e ast.Expr, out KnnExpressions) {
	switch v := e.(type) {
	case *ast.Binary:
		if v.Op == ast.OpKnn {
			out[e] = struct{}{}
			return
		}
		collectKnn(v.Left, out)
		collectKnn(v.Right, out)
	case *ast.Unary:
		collectKnn(v.Operand, out)
	}
}

func literalCardinality(limit ast.Expr) CardinalityHint {
	lit, ok := limit.(*ast.Literal)
	if !ok {
		return Unknown()
	}
	n, ok := lit.Value.AsNumber()
	if !ok {
		return Unknown()
	}
	return CardinalityHint{Known: true, Count: int64(n.AsFloat64())}
}
