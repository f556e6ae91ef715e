package exec

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"
)

// ParallelUnionOperator drains every child concurrently, one goroutine
// per child, and emits the combined rows (spec §5 "Parallel clause":
// PARALLEL on read statements fans per-partition scans out; output order
// across children is unspecified). Writes never run under this operator;
// Build only selects it for read-only unions when PARALLEL is set.
type ParallelUnionOperator struct {
	Children []Operator

	started  bool
	buffered ValueBatch
	failed   ControlFlow
}

// Next implements Operator. All children are drained on the first call;
// the combined result streams out in DefaultBatchSize slices.
func (p *ParallelUnionOperator) Next(ctx context.Context, ec *ExecutionContext) (ValueBatch, ControlFlow) {
	if cf, cancelled := checkCancelled(ec); cancelled {
		return nil, cf
	}
	if !p.started {
		p.started = true
		var mu sync.Mutex
		g, gctx := errgroup.WithContext(ctx)
		for _, child := range p.Children {
			child := child
			g.Go(func() error {
				for {
					batch, cf := child.Next(gctx, ec)
					mu.Lock()
					p.buffered = append(p.buffered, batch...)
					if cf.IsExceptional() {
						p.failed = cf
					}
					mu.Unlock()
					if cf.Kind != CFNormal {
						return nil
					}
				}
			})
		}
		_ = g.Wait()
	}
	if p.failed.IsExceptional() {
		return nil, p.failed
	}
	if len(p.buffered) == 0 {
		return nil, Done()
	}
	n := DefaultBatchSize
	if n > len(p.buffered) {
		n = len(p.buffered)
	}
	batch := p.buffered[:n]
	p.buffered = p.buffered[n:]
	if len(p.buffered) == 0 {
		return batch, Done()
	}
	return batch, Normal()
}
