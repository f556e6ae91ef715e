package exec

import (
	"context"

	"github.com/syssam/veloxdb/kv"
	"github.com/syssam/veloxdb/syn/ast"
	"github.com/syssam/veloxdb/value"
)

// RecurseMode selects what a completed path contributes to RecurseOperator's
// output (spec §4.8 "Recurse": "Other modes: collect (set of reachable
// nodes, deduped), unique (first-reach deduped), default (last-level
// values)").
type RecurseMode int

const (
	// RecurseLastLevel emits only each completed path's final value — the
	// idiom's default `.{min..max}` behavior.
	RecurseLastLevel RecurseMode = iota
	// RecursePath emits the full sequence of values visited by each
	// completed path (`.{min..max+path}`).
	RecursePath
	// RecurseCollect emits every distinct value reached at any depth
	// across every path, deduplicated (`.{min..max+collect}`).
	RecurseCollect
	// RecurseUnique emits every distinct value, kept the first time any
	// path reaches it and dropped on every later arrival.
	RecurseUnique
)

// RecurseOperator implements the `.{min..max[+path][+collect][+inclusive]}`
// idiom suffix (spec §4.8 "Recurse"). For each starting row pulled from
// Child, it BFS-expands the row's "tip" value by repeatedly evaluating
// Inner against it: each evaluation may yield zero, one, or many next
// values (e.g. a graph edge lookup that fans out). A path completes —
// stops expanding — the first time it hits a dead end (Inner yields
// nothing) at or beyond MinDepth, or unconditionally once it reaches
// MaxDepth ("at max_depth all remaining active paths complete").
type RecurseOperator struct {
	Child     Operator
	Inner     ast.Expr
	MinDepth  int
	MaxDepth  int
	Inclusive bool // include the starting value as depth 0 of the path/collect output
	Mode      RecurseMode

	out     ValueBatch
	oi      int
	started bool
}

type recursePath struct {
	values []value.Value // values[0] is the starting row; values[len-1] is the current tip
}

// Next implements Operator. It materializes every starting row from Child
// up front (recursion needs to BFS each one independently to completion
// before it can emit in collect/unique mode, since those modes dedup
// across the whole result set), then streams the resulting rows out in
// DefaultBatchSize slices.
func (r *RecurseOperator) Next(ctx context.Context, ec *ExecutionContext) (ValueBatch, ControlFlow) {
	if cf, cancelled := checkCancelled(ec); cancelled {
		return nil, cf
	}
	if !r.started {
		r.started = true
		var completed []recursePath
		for {
			batch, cf := r.Child.Next(ctx, ec)
			if cf.IsExceptional() {
				return nil, cf
			}
			for _, row := range batch {
				paths, cf2 := r.runOne(ctx, ec, row)
				if cf2.IsExceptional() {
					return nil, cf2
				}
				completed = append(completed, paths...)
			}
			if cf.Kind == CFDone {
				break
			}
		}
		r.out = r.flatten(completed)
	}

	if r.oi >= len(r.out) {
		return nil, Done()
	}
	end := r.oi + DefaultBatchSize
	if end > len(r.out) {
		end = len(r.out)
	}
	batch := r.out[r.oi:end]
	r.oi = end
	if r.oi >= len(r.out) {
		return batch, Done()
	}
	return batch, Normal()
}

// runOne BFS-expands a single starting row to completion, returning every
// completed path it produced.
func (r *RecurseOperator) runOne(ctx context.Context, ec *ExecutionContext, start value.Value) ([]recursePath, ControlFlow) {
	active := []recursePath{{values: []value.Value{start}}}
	var completed []recursePath
	depth := 0
	for len(active) > 0 {
		depth++
		var next []recursePath
		for _, p := range active {
			tip := p.values[len(p.values)-1]
			nexts, cf := r.expand(ctx, ec, tip)
			if cf.IsExceptional() {
				return nil, cf
			}
			if len(nexts) == 0 {
				if depth-1 >= r.MinDepth {
					completed = append(completed, p)
				}
				continue
			}
			for _, nv := range nexts {
				np := recursePath{values: append(append([]value.Value{}, p.values...), nv)}
				if depth >= r.MaxDepth {
					completed = append(completed, np)
					continue
				}
				next = append(next, np)
			}
		}
		active = next
		if depth >= r.MaxDepth {
			break
		}
	}
	return completed, Normal()
}

// expand evaluates Inner against tip, normalizing the result to a slice of
// next values: an array/set result fans out to one path per element, a
// scalar/record result fans out to exactly one, and None/Null means a
// dead end.
func (r *RecurseOperator) expand(ctx context.Context, ec *ExecutionContext, tip value.Value) ([]value.Value, ControlFlow) {
	v, cf := ec.Eval.Eval(ctx, ec, r.Inner, tip)
	if cf.IsExceptional() {
		return nil, cf
	}
	switch v.Kind() {
	case value.KindNone, value.KindNull:
		return nil, Normal()
	case value.KindArray:
		arr, _ := v.AsArray()
		return []value.Value(arr), Normal()
	case value.KindSet:
		set, _ := v.AsSet()
		return []value.Value(set), Normal()
	default:
		return []value.Value{v}, Normal()
	}
}

// flatten turns the raw completed paths into the operator's output rows
// according to Mode.
func (r *RecurseOperator) flatten(completed []recursePath) ValueBatch {
	out := make(ValueBatch, 0, len(completed))
	switch r.Mode {
	case RecursePath:
		for _, p := range completed {
			out = append(out, value.ArrayValue(value.Array(r.trim(p.values))))
		}
	case RecurseCollect, RecurseUnique:
		seen := make(map[string]bool)
		for _, p := range completed {
			for _, v := range r.trim(p.values) {
				k := dedupKey(v)
				if seen[k] {
					continue
				}
				seen[k] = true
				out = append(out, v)
			}
		}
	default: // RecurseLastLevel
		for _, p := range completed {
			trimmed := r.trim(p.values)
			if len(trimmed) == 0 {
				continue
			}
			out = append(out, trimmed[len(trimmed)-1])
		}
	}
	return out
}

func (r *RecurseOperator) trim(values []value.Value) []value.Value {
	if r.Inclusive || len(values) == 0 {
		return values
	}
	return values[1:]
}

func dedupKey(v value.Value) string {
	b, err := kv.EncodeValue(v)
	if err != nil {
		return ""
	}
	return string(b)
}
