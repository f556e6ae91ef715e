package exec

import (
	"context"
	"sort"

	"github.com/syssam/veloxdb/syn/ast"
	"github.com/syssam/veloxdb/value"
)

// SortOperator collects the whole input, evaluates every ORDER BY key
// expression once per row (column-major, spec §4.8 "batch-evaluated key
// expressions once per row"), then sorts. Each key has its own ascending/
// descending direction and collation mode.
type SortOperator struct {
	Child   Operator
	OrderBy []ast.OrderBy

	buffered ValueBatch
	sorted   bool
}

// Next implements Operator. It drains Child entirely on the first call,
// sorts, then hands the result back in DefaultBatchSize slices.
func (s *SortOperator) Next(ctx context.Context, ec *ExecutionContext) (ValueBatch, ControlFlow) {
	if cf, cancelled := checkCancelled(ec); cancelled {
		return nil, cf
	}
	if !s.sorted {
		var all ValueBatch
		for {
			batch, cf := s.Child.Next(ctx, ec)
			if cf.IsExceptional() {
				return nil, cf
			}
			all = append(all, batch...)
			if cf.Kind == CFDone {
				break
			}
		}
		keys := make([][]value.Value, len(all))
		for i, row := range all {
			keys[i] = make([]value.Value, len(s.OrderBy))
			for j, ob := range s.OrderBy {
				v, cf := ec.Eval.Eval(ctx, ec, ob.Expr, row)
				if cf.IsExceptional() {
					return nil, cf
				}
				keys[i][j] = v
			}
		}
		idx := make([]int, len(all))
		for i := range idx {
			idx[i] = i
		}
		sort.SliceStable(idx, func(a, b int) bool {
			ia, ib := idx[a], idx[b]
			for j, ob := range s.OrderBy {
				c := value.CompareWithCollation(keys[ia][j], keys[ib][j], ob.Collation)
				if c == 0 {
					continue
				}
				if ob.Descending {
					return c > 0
				}
				return c < 0
			}
			return false
		})
		sortedRows := make(ValueBatch, len(all))
		for i, k := range idx {
			sortedRows[i] = all[k]
		}
		s.buffered = sortedRows
		s.sorted = true
	}

	if len(s.buffered) == 0 {
		return nil, Done()
	}
	n := DefaultBatchSize
	if n > len(s.buffered) {
		n = len(s.buffered)
	}
	batch := s.buffered[:n]
	s.buffered = s.buffered[n:]
	if len(s.buffered) == 0 {
		return batch, Done()
	}
	return batch, Normal()
}
