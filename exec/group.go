package exec

import (
	"context"

	"github.com/syssam/veloxdb/kv"
	"github.com/syssam/veloxdb/syn/ast"
	"github.com/syssam/veloxdb/value"
)

// AggKind names one of the incremental, associative aggregate functions
// GROUP BY supports (spec §4.8 "Group": count/sum/mean/min/max/array::group
// update their running state one row at a time rather than buffering every
// row in the group).
type AggKind int

const (
	AggCount AggKind = iota
	AggSum
	AggMean
	AggMin
	AggMax
	AggArrayGroup
	AggFirst
)

// Aggregate is one output column of a GROUP BY: either an aggregate
// function applied to Expr, or (Kind AggFirst) the value of Expr for the
// group's first row. Group-by keys themselves are emitted by
// GroupOperator, not through an Aggregate.
type Aggregate struct {
	Kind AggKind
	Expr ast.Expr
	Key  string
}

// GroupOperator hash-aggregates rows pulled from Child by the tuple of
// GroupBy key expressions, maintaining one running aggState per distinct
// key and emitting one output row per group once Child is exhausted.
type GroupOperator struct {
	Child      Operator
	GroupBy    []ast.Expr
	Aggregates []Aggregate

	emitted ValueBatch
	done    bool
}

type aggState struct {
	keyRow  value.Value // first row seen for this group, for bare-key passthrough
	states  []*accum
	groupBy []value.Value
}

type accum struct {
	kind    AggKind
	count   int64
	sum     float64
	min     value.Value
	max     value.Value
	hasMM   bool
	arr     []value.Value
	first   value.Value
	hasSeen bool
}

func newAccum(kind AggKind) *accum {
	return &accum{kind: kind}
}

func (a *accum) add(v value.Value) {
	switch a.kind {
	case AggCount:
		a.count++
	case AggSum, AggMean:
		if n, ok := v.AsNumber(); ok {
			a.sum += n.AsFloat64()
		}
		a.count++
	case AggMin:
		if !a.hasMM || value.CompareWithCollation(v, a.min, value.CollationByte) < 0 {
			a.min = v
			a.hasMM = true
		}
	case AggMax:
		if !a.hasMM || value.CompareWithCollation(v, a.max, value.CollationByte) > 0 {
			a.max = v
			a.hasMM = true
		}
	case AggArrayGroup:
		a.arr = append(a.arr, v)
	case AggFirst:
		if !a.hasSeen {
			a.first = v
			a.hasSeen = true
		}
	}
}

func (a *accum) result() value.Value {
	switch a.kind {
	case AggCount:
		return value.Int(a.count)
	case AggSum:
		return value.Float(a.sum)
	case AggMean:
		if a.count == 0 {
			return value.Float(0)
		}
		return value.Float(a.sum / float64(a.count))
	case AggMin:
		return a.min
	case AggMax:
		return a.max
	case AggArrayGroup:
		return value.ArrayValue(value.Array(a.arr))
	case AggFirst:
		return a.first
	}
	return value.None
}

// Next implements Operator. It drains Child fully on the first call,
// building one aggState per distinct GroupBy key tuple, then streams the
// finished groups out in DefaultBatchSize slices.
func (g *GroupOperator) Next(ctx context.Context, ec *ExecutionContext) (ValueBatch, ControlFlow) {
	if cf, cancelled := checkCancelled(ec); cancelled {
		return nil, cf
	}
	if !g.done {
		order := make([]string, 0)
		groups := make(map[string]*aggState)
		for {
			batch, cf := g.Child.Next(ctx, ec)
			if cf.IsExceptional() {
				return nil, cf
			}
			for _, row := range batch {
				keyVals := make([]value.Value, len(g.GroupBy))
				for i, e := range g.GroupBy {
					v, kcf := ec.Eval.Eval(ctx, ec, e, row)
					if kcf.IsExceptional() {
						return nil, kcf
					}
					keyVals[i] = v
				}
				k := groupKey(keyVals)
				st, ok := groups[k]
				if !ok {
					st = &aggState{keyRow: row, groupBy: keyVals}
					st.states = make([]*accum, len(g.Aggregates))
					for i, agg := range g.Aggregates {
						st.states[i] = newAccum(agg.Kind)
					}
					groups[k] = st
					order = append(order, k)
				}
				for i, agg := range g.Aggregates {
					v, acf := ec.Eval.Eval(ctx, ec, agg.Expr, row)
					if acf.IsExceptional() {
						return nil, acf
					}
					st.states[i].add(v)
				}
			}
			if cf.Kind == CFDone {
				break
			}
		}
		out := make(ValueBatch, 0, len(order))
		for _, k := range order {
			st := groups[k]
			obj := value.NewObject()
			for i, e := range g.GroupBy {
				obj.Set(groupByKey(e, i), st.groupBy[i])
			}
			for i, agg := range g.Aggregates {
				obj.Set(agg.Key, st.states[i].result())
			}
			out = append(out, value.ObjectValue(obj))
		}
		g.emitted = out
		g.done = true
	}
	if len(g.emitted) == 0 {
		return nil, Done()
	}
	n := DefaultBatchSize
	if n > len(g.emitted) {
		n = len(g.emitted)
	}
	batch := g.emitted[:n]
	g.emitted = g.emitted[n:]
	if len(g.emitted) == 0 {
		return batch, Done()
	}
	return batch, Normal()
}

// groupKey builds a comparable string key from a row's GROUP BY values so
// distinct tuples land in distinct map buckets. It reuses the same
// msgpack wire encoding the kv layer uses for stored values, since two
// equal value tuples must always encode identically.
func groupKey(vals []value.Value) string {
	buf, err := kv.EncodeValue(value.ArrayValue(value.Array(vals)))
	if err != nil {
		return ""
	}
	return string(buf)
}

func groupByKey(e ast.Expr, i int) string {
	if idm, ok := e.(*ast.IdiomExpr); ok {
		if name := idm.Idiom.String(); name != "" {
			return name
		}
	}
	return positionalKey(i)
}
