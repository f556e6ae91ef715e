package exec

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/veloxdb/syn/ast"
	"github.com/syssam/veloxdb/syn/parser"
	"github.com/syssam/veloxdb/value"
)

func evalSrc(t *testing.T, src string, row value.Value, params map[string]value.Value) (value.Value, ControlFlow) {
	t.Helper()
	block, err := parser.New(src).ParseBlock()
	require.NoError(t, err)
	in := &Interpreter{}
	if params == nil {
		params = map[string]value.Value{}
	}
	ec := &ExecutionContext{Params: params, Eval: in}
	return in.EvalBlock(context.Background(), ec, block, row)
}

func mustEval(t *testing.T, src string, row value.Value) value.Value {
	t.Helper()
	v, cf := evalSrc(t, src, row, nil)
	if cf.Kind == CFReturn {
		return cf.Value
	}
	require.False(t, cf.IsExceptional(), "unexpected control flow: %+v", cf)
	return v
}

func TestEvalArithmeticKeepsIntegers(t *testing.T) {
	v := mustEval(t, "RETURN 1 + 2 * 3;", value.None)
	n, ok := v.AsNumber()
	require.True(t, ok)
	assert.Equal(t, value.NumberInt, n.Kind)
	assert.Equal(t, int64(7), n.Int)
}

func TestEvalDivisionPromotesToFloat(t *testing.T) {
	v := mustEval(t, "RETURN 7 / 2;", value.None)
	n, ok := v.AsNumber()
	require.True(t, ok)
	assert.Equal(t, 3.5, n.AsFloat64())
}

func TestEvalStringConcat(t *testing.T) {
	v := mustEval(t, "RETURN 'a' + 'b';", value.None)
	s, _ := v.AsString()
	assert.Equal(t, "ab", s)
}

func TestEvalShortCircuitAnd(t *testing.T) {
	// The right operand references an unknown function; AND must never
	// evaluate it when the left side is already false.
	v := mustEval(t, "RETURN false AND nosuchfn();", value.None)
	b, _ := v.AsBool()
	assert.False(t, b)
}

func TestEvalFieldAccessAgainstRow(t *testing.T) {
	row := value.ObjectValue(value.ObjectOf(
		value.KV{Key: "name", Value: value.String("tobie")},
		value.KV{Key: "age", Value: value.Int(30)},
	))
	v := mustEval(t, "RETURN age > 18;", row)
	b, _ := v.AsBool()
	assert.True(t, b)
}

func TestEvalWherePartFiltersArray(t *testing.T) {
	items := value.ArrayValue(value.Array{
		value.ObjectValue(value.ObjectOf(value.KV{Key: "n", Value: value.Int(1)})),
		value.ObjectValue(value.ObjectOf(value.KV{Key: "n", Value: value.Int(5)})),
	})
	row := value.ObjectValue(value.ObjectOf(value.KV{Key: "items", Value: items}))
	v := mustEval(t, "RETURN items[WHERE n > 3];", row)
	arr, ok := v.AsArray()
	require.True(t, ok)
	require.Len(t, arr, 1)
}

func TestEvalForLoopWithBreak(t *testing.T) {
	v := mustEval(t, `
		LET $total = 0;
		FOR $x IN [1, 2, 3, 4] {
			IF $x > 2 { BREAK; };
			LET $total = $total + $x;
		};
		RETURN $total;
	`, value.None)
	n, ok := v.AsNumber()
	require.True(t, ok)
	// LET inside the loop body is block-scoped, so the outer $total is
	// untouched by the loop body's shadowing binding.
	assert.Equal(t, int64(0), n.Int)
}

func TestEvalIfElseExpression(t *testing.T) {
	v := mustEval(t, "RETURN IF 1 > 2 { 'yes' } ELSE { 'no' };", value.None)
	s, _ := v.AsString()
	assert.Equal(t, "no", s)
}

func TestEvalThrowBecomesError(t *testing.T) {
	_, cf := evalSrc(t, "THROW 'boom';", value.None, nil)
	require.Equal(t, CFErr, cf.Kind)
	assert.Contains(t, cf.Err.Error(), "boom")
}

func TestEvalUserFunction(t *testing.T) {
	block, err := parser.New("RETURN $a + $b;").ParseBlock()
	require.NoError(t, err)
	in := &Interpreter{User: map[string]UserFunc{
		"fn::add": {Args: []string{"a", "b"}, Body: block},
	}}
	ec := &ExecutionContext{Params: map[string]value.Value{}, Eval: in}
	call := &ast.FuncCall{Name: "fn::add", Args: []ast.Expr{
		&ast.Literal{Value: value.Int(2)},
		&ast.Literal{Value: value.Int(3)},
	}}
	v, cf := in.Eval(context.Background(), ec, call, value.None)
	require.False(t, cf.IsExceptional())
	n, _ := v.AsNumber()
	assert.Equal(t, int64(5), n.Int)
}

func TestEvalBuiltinFunctions(t *testing.T) {
	v := mustEval(t, "RETURN string::uppercase('abc');", value.None)
	s, _ := v.AsString()
	assert.Equal(t, "ABC", s)

	v = mustEval(t, "RETURN count([1, 2, 3]);", value.None)
	n, _ := v.AsNumber()
	assert.Equal(t, int64(3), n.Int)
}

func TestEvalContainsAndIn(t *testing.T) {
	v := mustEval(t, "RETURN [1, 2, 3] CONTAINS 2;", value.None)
	b, _ := v.AsBool()
	assert.True(t, b)

	v = mustEval(t, "RETURN 4 IN [1, 2, 3];", value.None)
	b, _ = v.AsBool()
	assert.False(t, b)
}

func TestTruthiness(t *testing.T) {
	assert.False(t, Truthy(value.None))
	assert.False(t, Truthy(value.Null))
	assert.False(t, Truthy(value.Int(0)))
	assert.False(t, Truthy(value.String("")))
	assert.True(t, Truthy(value.Int(1)))
	assert.True(t, Truthy(value.ArrayValue(value.Array{value.Int(1)})))
	assert.False(t, Truthy(value.ArrayValue(value.Array{})))
}
