package planner_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/veloxdb/planner"
	"github.com/syssam/veloxdb/syn/ast"
	"github.com/syssam/veloxdb/syn/parser"
)

func parseSelect(t *testing.T, src string) *ast.SelectStmt {
	t.Helper()
	block, err := parser.New(src).ParseBlock()
	require.NoError(t, err)
	require.Len(t, block.Stmts, 1)
	sel, ok := block.Stmts[0].(*ast.SelectStmt)
	require.True(t, ok)
	return sel
}

func TestPlanSelectTableScan(t *testing.T) {
	sel := parseSelect(t, "SELECT * FROM person;")
	ctx := &planner.FrozenContext{Namespace: "test", Database: "test"}
	plan, err := planner.PlanSelect(nil, ctx, sel)
	require.NoError(t, err)
	require.Equal(t, planner.OpScan, plan.Kind)
	assert.Equal(t, planner.IterTable, plan.Iterable.Kind)
	assert.Equal(t, planner.ReadOnly, plan.Access)
	assert.Equal(t, planner.ContextDatabase, plan.RequiredContext())
}

func TestPlanSelectThingScanIsOneRow(t *testing.T) {
	sel := parseSelect(t, "SELECT * FROM person:tobie;")
	ctx := &planner.FrozenContext{}
	plan, err := planner.PlanSelect(nil, ctx, sel)
	require.NoError(t, err)
	assert.Equal(t, planner.IterThing, plan.Iterable.Kind)
	assert.True(t, plan.Cardinality.Known)
	assert.Equal(t, int64(1), plan.Cardinality.Count)
}

func TestPlanSelectWrapsFilterProjectSortLimit(t *testing.T) {
	sel := parseSelect(t, "SELECT name FROM person WHERE age > 18 ORDER BY name LIMIT 10;")
	ctx := &planner.FrozenContext{}
	plan, err := planner.PlanSelect(nil, ctx, sel)
	require.NoError(t, err)
	assert.Equal(t, planner.OpProject, plan.Kind)
	require.Len(t, plan.Children, 1)
	assert.Equal(t, planner.OpLimit, plan.Children[0].Kind)
	sortNode := plan.Children[0].Children[0]
	assert.Equal(t, planner.OpSort, sortNode.Kind)
	filterNode := sortNode.Children[0]
	assert.Equal(t, planner.OpFilter, filterNode.Kind)
}

func TestPlanSelectIsReadOnly(t *testing.T) {
	sel := parseSelect(t, "SELECT * FROM person;")
	ctx := &planner.FrozenContext{}
	plan, err := planner.PlanSelect(nil, ctx, sel)
	require.NoError(t, err)
	assert.True(t, plan.IsReadOnly())
}

func TestExplainProducesOneRowPerOperator(t *testing.T) {
	sel := parseSelect(t, "SELECT name FROM person LIMIT 5;")
	ctx := &planner.FrozenContext{}
	plan, err := planner.PlanSelect(nil, ctx, sel)
	require.NoError(t, err)
	rows := planner.Explain(plan)
	assert.NotEmpty(t, rows)
}

func TestKnnConditionRewriterReplacesKnnWithTrue(t *testing.T) {
	sel := parseSelect(t, "SELECT * FROM person WHERE age > 18;")
	knn := planner.KnnExpressions{sel.Where: struct{}{}}
	rewritten := planner.NewKnnConditionRewriter(knn).Rewrite(sel.Where)
	lit, ok := rewritten.(*ast.Literal)
	require.True(t, ok)
	b, _ := lit.Value.AsBool()
	assert.True(t, b)
}

func TestFrozenContextParamLookup(t *testing.T) {
	ctx := &planner.FrozenContext{}
	assert.True(t, ctx.Param("missing").IsNone())
}
