package exec

import (
	"context"
	"math/rand/v2"

	"github.com/syssam/veloxdb/value"
)

// RandomShuffleOperator implements ORDER BY RAND(). With Limit set it uses
// reservoir sampling so it never buffers more than Limit rows; with no
// limit it collects everything and does a full Fisher-Yates shuffle (spec
// §4.8 "RandomShuffle").
type RandomShuffleOperator struct {
	Child Operator
	Limit int // 0 means unlimited: full shuffle

	buffered ValueBatch
	done     bool
}

// Next implements Operator.
func (r *RandomShuffleOperator) Next(ctx context.Context, ec *ExecutionContext) (ValueBatch, ControlFlow) {
	if cf, cancelled := checkCancelled(ec); cancelled {
		return nil, cf
	}
	if !r.done {
		var all ValueBatch
		seen := 0
		for {
			batch, cf := r.Child.Next(ctx, ec)
			if cf.IsExceptional() {
				return nil, cf
			}
			for _, row := range batch {
				if r.Limit > 0 {
					reservoirAdd(&all, row, seen, r.Limit)
				} else {
					all = append(all, row)
				}
				seen++
			}
			if cf.Kind == CFDone {
				break
			}
		}
		shuffle(all)
		r.buffered = all
		r.done = true
	}
	if len(r.buffered) == 0 {
		return nil, Done()
	}
	out := r.buffered
	r.buffered = nil
	return out, Done()
}

// reservoirAdd implements Algorithm R: the first limit rows fill the
// reservoir directly, then each subsequent row at position seen replaces a
// uniformly random slot with probability limit/(seen+1).
func reservoirAdd(reservoir *ValueBatch, row value.Value, seen, limit int) {
	if len(*reservoir) < limit {
		*reservoir = append(*reservoir, row)
		return
	}
	j := rand.IntN(seen + 1)
	if j < limit {
		(*reservoir)[j] = row
	}
}

func shuffle(values ValueBatch) {
	rand.Shuffle(len(values), func(i, j int) {
		values[i], values[j] = values[j], values[i]
	})
}
