package exec

import (
	"context"
	"testing"

	"github.com/syssam/veloxdb/syn/ast"
	"github.com/syssam/veloxdb/value"
)

// graphEval is a stand-in Evaluator that ignores Inner and looks the row's
// string up in edges, returning its neighbours as an array (NONE when it
// has none). Each test supplies its own edges. It lets
// RecurseOperator's tests exercise BFS fan-out/dead-ends without needing
// the real expression interpreter.
type graphEval struct{ edges map[string][]string }

func (g graphEval) Eval(_ context.Context, _ *ExecutionContext, _ ast.Expr, row value.Value) (value.Value, ControlFlow) {
	s, _ := row.AsString()
	next, ok := g.edges[s]
	if !ok || len(next) == 0 {
		return value.None, Normal()
	}
	arr := make(value.Array, len(next))
	for i, n := range next {
		arr[i] = value.String(n)
	}
	return value.ArrayValue(arr), Normal()
}

func oneRow(v value.Value) Operator { return &literalOp{row: v} }

type literalOp struct {
	row  value.Value
	done bool
}

func (l *literalOp) Next(ctx context.Context, ec *ExecutionContext) (ValueBatch, ControlFlow) {
	if l.done {
		return nil, Done()
	}
	l.done = true
	return ValueBatch{l.row}, Done()
}

func newRecurseEC(eval Evaluator) *ExecutionContext {
	return &ExecutionContext{Level: ContextLevelValue(2), Eval: eval}
}

func TestRecurseLastLevel(t *testing.T) {
	g := graphEval{edges: map[string][]string{"a": {"b", "c"}, "b": {"d"}}}
	r := &RecurseOperator{
		Child:    oneRow(value.String("a")),
		MinDepth: 1,
		MaxDepth: 3,
		Mode:     RecurseLastLevel,
	}
	ec := newRecurseEC(g)
	var got []string
	for {
		batch, cf := r.Next(context.Background(), ec)
		for _, v := range batch {
			s, _ := v.AsString()
			got = append(got, s)
		}
		if cf.Kind == CFDone {
			break
		}
	}
	want := map[string]bool{"c": true, "d": true}
	if len(got) != 2 {
		t.Fatalf("expected 2 leaves, got %v", got)
	}
	for _, g := range got {
		if !want[g] {
			t.Fatalf("unexpected leaf %q in %v", g, got)
		}
	}
}

func TestRecursePathIncludesStart(t *testing.T) {
	g := graphEval{edges: map[string][]string{"a": {"b"}, "b": {}}}
	r := &RecurseOperator{
		Child:     oneRow(value.String("a")),
		MinDepth:  1,
		MaxDepth:  2,
		Mode:      RecursePath,
		Inclusive: true,
	}
	ec := newRecurseEC(g)
	batch, _ := r.Next(context.Background(), ec)
	if len(batch) != 1 {
		t.Fatalf("expected 1 path, got %d", len(batch))
	}
	arr, ok := batch[0].AsArray()
	if !ok || len(arr) != 2 {
		t.Fatalf("expected a 2-element path [a b], got %v", batch[0])
	}
	first, _ := arr[0].AsString()
	second, _ := arr[1].AsString()
	if first != "a" || second != "b" {
		t.Fatalf("expected [a b], got [%s %s]", first, second)
	}
}

func TestRecurseCollectDedupes(t *testing.T) {
	g := graphEval{edges: map[string][]string{"a": {"b", "c"}, "b": {"d"}, "c": {"d"}}}
	r := &RecurseOperator{
		Child:    oneRow(value.String("a")),
		MinDepth: 1,
		MaxDepth: 3,
		Mode:     RecurseCollect,
	}
	ec := newRecurseEC(g)
	var all ValueBatch
	for {
		batch, cf := r.Next(context.Background(), ec)
		all = append(all, batch...)
		if cf.Kind == CFDone {
			break
		}
	}
	seen := map[string]int{}
	for _, v := range all {
		s, _ := v.AsString()
		seen[s]++
	}
	if seen["d"] != 1 {
		t.Fatalf("expected d deduplicated to 1 occurrence, got %d (%v)", seen["d"], all)
	}
}

func TestRecurseMaxDepthForcesCompletion(t *testing.T) {
	// a -> a -> a -> ... is an infinite chain (a self-loop); MaxDepth must force
	// every active path to complete rather than looping forever.
	g := graphEval{edges: map[string][]string{"a": {"a"}}}
	r := &RecurseOperator{
		Child:    oneRow(value.String("a")),
		MinDepth: 1,
		MaxDepth: 5,
		Mode:     RecurseLastLevel,
	}
	ec := newRecurseEC(g)
	batch, cf := r.Next(context.Background(), ec)
	if cf.Kind != CFDone {
		t.Fatalf("expected completion, got %v", cf.Kind)
	}
	if len(batch) != 1 {
		t.Fatalf("expected exactly 1 completed path at max depth, got %d", len(batch))
	}
}
