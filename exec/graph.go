package exec

import (
	"context"

	"github.com/syssam/veloxdb/key"
	"github.com/syssam/veloxdb/planner"
	"github.com/syssam/veloxdb/value"
)

// GraphDirection selects which side of a RELATE edge GraphLookupOperator
// follows: Out for `->edge->`, In for `<-edge<-`, Both for `<->edge<->`.
type GraphDirection int

const (
	GraphOut GraphDirection = iota
	GraphIn
	GraphBoth
)

// GraphLookupOperator implements graph edge traversal: given a source
// record, it scans the edge rows RELATE wrote for EdgeTable and yields the
// record on the other end of each one (spec §4.6 "graph traversal").
type GraphLookupOperator struct {
	Source    value.RecordID
	EdgeTable string
	Direction GraphDirection
	Namespace string
	Database  string

	started bool
	ranges  []graphRange
	ri      int
	cursor  []byte
	end     []byte
}

type graphRange struct {
	prefix []byte
	out    bool // which direction this sub-scan covers, for decoding
}

// Next implements Operator.
func (g *GraphLookupOperator) Next(ctx context.Context, ec *ExecutionContext) (ValueBatch, ControlFlow) {
	if cf, cancelled := checkCancelled(ec); cancelled {
		return nil, cf
	}
	if err := ec.RequireLevel(planner.ContextDatabase); err != nil {
		return nil, Err(err)
	}
	if !g.started {
		g.started = true
		g.ranges = g.buildRanges()
		if len(g.ranges) == 0 {
			return nil, Done()
		}
		g.openRange(0)
	}

	batch := make(ValueBatch, 0, DefaultBatchSize)
	for {
		if g.cursor == nil {
			g.ri++
			if g.ri >= len(g.ranges) {
				if len(batch) > 0 {
					return batch, Done()
				}
				return nil, Done()
			}
			g.openRange(g.ri)
		}
		pairs, err := ec.Tx.Scan(ctx, g.cursor, g.end, DefaultBatchSize-len(batch))
		if err != nil {
			return nil, Err(err)
		}
		if len(pairs) == 0 {
			g.cursor = nil
			continue
		}
		for _, kvpair := range pairs {
			to := decodeGraphEdgeTarget(kvpair.Key)
			batch = append(batch, value.RecordIDValue(to))
		}
		next := append(append([]byte{}, pairs[len(pairs)-1].Key...), 0)
		g.cursor = next
		if len(batch) >= DefaultBatchSize {
			return batch, Normal()
		}
	}
}

func (g *GraphLookupOperator) buildRanges() []graphRange {
	edgePrefix := func(out bool) []byte {
		return key.GraphEdgePrefix(g.Namespace, g.Database, g.Source, g.EdgeTable, out)
	}
	switch g.Direction {
	case GraphOut:
		return []graphRange{{prefix: edgePrefix(true), out: true}}
	case GraphIn:
		return []graphRange{{prefix: edgePrefix(false), out: false}}
	default:
		return []graphRange{
			{prefix: edgePrefix(true), out: true},
			{prefix: edgePrefix(false), out: false},
		}
	}
}

func (g *GraphLookupOperator) openRange(i int) {
	g.cursor = g.ranges[i].prefix
	g.end = key.PrefixEnd(g.cursor)
}

// decodeGraphEdgeTarget reads the trailing "to" record id out of a
// key.GraphEdge row.
func decodeGraphEdgeTarget(raw []byte) value.RecordID {
	table, k := key.DecodeGraphEdgeTarget(raw)
	return value.NewRecordID(table, k)
}
