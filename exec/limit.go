package exec

import "context"

// LimitOperator implements START (row-skip) and LIMIT (row-cap), fused
// into one operator since both are pure counting decisions over the same
// stream (spec §4.8 "Limit"). Skip happens before the cap is applied.
type LimitOperator struct {
	Child Operator
	Start int
	Limit int // <0 means unbounded

	skipped int
	emitted int
}

// Next implements Operator.
func (l *LimitOperator) Next(ctx context.Context, ec *ExecutionContext) (ValueBatch, ControlFlow) {
	if cf, cancelled := checkCancelled(ec); cancelled {
		return nil, cf
	}
	if l.Limit == 0 {
		return nil, Done()
	}
	for {
		batch, cf := l.Child.Next(ctx, ec)
		if cf.IsExceptional() {
			return nil, cf
		}
		out := make(ValueBatch, 0, len(batch))
		for _, row := range batch {
			if l.skipped < l.Start {
				l.skipped++
				continue
			}
			if l.Limit >= 0 && l.emitted >= l.Limit {
				return out, Done()
			}
			out = append(out, row)
			l.emitted++
		}
		reachedLimit := l.Limit >= 0 && l.emitted >= l.Limit
		if reachedLimit {
			return out, Done()
		}
		if cf.Kind == CFDone || len(out) > 0 {
			return out, cf
		}
	}
}
