package planner

import (
	"github.com/syssam/veloxdb/syn/ast"
	"github.com/syssam/veloxdb/value"
)

// AccessMode tags whether an operator (and transitively, the statement it
// belongs to) only reads or may write. It propagates bottom-up: a node is
// read-only only if every child is (spec §4.7 "AccessMode propagates
// bottom-up").
type AccessMode uint8

const (
	ReadOnly AccessMode = iota
	ReadWrite
)

// Combine folds a child's AccessMode into a running aggregate.
func (m AccessMode) Combine(child AccessMode) AccessMode {
	if child == ReadWrite {
		return ReadWrite
	}
	return m
}

// ContextLevel is the minimum catalog scope an operator needs resolved
// before it can run: a statement touching only parameters needs no
// namespace/database context, one scanning a table needs Database, one
// issuing DEFINE NAMESPACE needs only Root.
type ContextLevel uint8

const (
	ContextRoot ContextLevel = iota
	ContextNamespace
	ContextDatabase
)

// Max returns the more specific of two levels (Database > Namespace > Root).
func (l ContextLevel) Max(other ContextLevel) ContextLevel {
	if other > l {
		return other
	}
	return l
}

// CardinalityHint is the planner's best-effort row-count estimate, used by
// the executor to choose batch sizes and by EXPLAIN output. It is
// advisory only: an executor must tolerate the hint being wrong.
type CardinalityHint struct {
	// Known is true when Count is an exact value (e.g. Iterable.Thing is
	// always exactly one row; Strategy.Count is exact by definition).
	Known bool
	Count int64
}

// OneRow is the hint for any operator that is known to emit at most one row.
func OneRow() CardinalityHint { return CardinalityHint{Known: true, Count: 1} }

// Unknown is the hint for a table/index scan whose size isn't known until runtime.
func Unknown() CardinalityHint { return CardinalityHint{Known: false} }

// OperatorKind names the concrete operator a plan node lowers to.
type OperatorKind uint8

const (
	OpScan OperatorKind = iota
	OpFilter
	OpProject
	OpCompute
	OpSort
	OpShuffle
	OpGroup
	OpLimit
	OpIfElse
	OpWrite
	OpRecurse
	OpReferenceScan
	OpGraph
)

// OperatorPlan is one node of the DAG the executor walks. The executable
// operators sit behind the exec.Operator interface; the plan node itself
// is a plain struct tagged by Kind, and both exec.Build (to construct the
// matching operator) and EXPLAIN rendering switch on Kind.
type OperatorPlan struct {
	Kind         OperatorKind
	Access       AccessMode
	Level        ContextLevel
	Cardinality  CardinalityHint
	Children     []*OperatorPlan

	// Iterable is populated on Scan/ReferenceScan/Graph nodes.
	Iterable Iterable

	// Filter/Compute carry the expression(s) they evaluate per row.
	Expr  ast.Expr
	Exprs []ast.Expr

	// Fields is the full SELECT projection (aliases and `*` included),
	// populated on Project nodes.
	Fields []ast.Field

	// Sort
	OrderBy []ast.OrderBy

	// Limit/Shuffle
	Limit, Start int64

	// Group
	GroupBy []ast.Expr

	// IfElse
	Cond Expr
	Then *OperatorPlan
	Else *OperatorPlan

	// Write carries which mutation this node performs plus its content.
	Write *WriteSpec
}

// Expr re-exports ast.Expr so callers of this package's IfElse field don't
// need a second import; the planner never evaluates expressions itself.
type Expr = ast.Expr

// WriteKind distinguishes the mutation an OpWrite node performs.
type WriteKind uint8

const (
	WriteCreate WriteKind = iota
	WriteUpdate
	WriteDelete
	WriteInsert
	WriteUpsert
	WriteRelate
)

// WriteSpec is the payload of an OpWrite node.
type WriteSpec struct {
	Kind    WriteKind
	Table   string
	Content ast.Expr
	Set     []ast.Assignment
	Only    bool
	// Replace marks CONTENT semantics (full row replacement) as opposed
	// to SET/MERGE semantics (merge onto the existing row).
	Replace bool
	// Relate-only: the edge table and endpoint expressions.
	EdgeTable string
	From, To  ast.Expr
}

// Leaf builds a childless Scan/ReferenceScan/Graph node over it.
func Leaf(kind OperatorKind, access AccessMode, level ContextLevel, card CardinalityHint, it Iterable) *OperatorPlan {
	return &OperatorPlan{Kind: kind, Access: access, Level: level, Cardinality: card, Iterable: it}
}

// Wrap builds a single-child node, combining the child's AccessMode and
// ContextLevel (spec §4.7 "required_context ... AccessMode propagates
// bottom-up").
func Wrap(kind OperatorKind, child *OperatorPlan) *OperatorPlan {
	return &OperatorPlan{
		Kind:        kind,
		Access:      child.Access,
		Level:       child.Level,
		Cardinality: child.Cardinality,
		Children:    []*OperatorPlan{child},
	}
}

// RequiredContext returns the minimum ContextLevel the executor must hold
// before running this plan, the max over the whole subtree.
func (p *OperatorPlan) RequiredContext() ContextLevel {
	level := p.Level
	for _, c := range p.Children {
		level = level.Max(c.RequiredContext())
	}
	if p.Then != nil {
		level = level.Max(p.Then.RequiredContext())
	}
	if p.Else != nil {
		level = level.Max(p.Else.RequiredContext())
	}
	return level
}

// IsReadOnly reports whether the whole subtree (this node plus every
// child, including IfElse branches) only reads.
func (p *OperatorPlan) IsReadOnly() bool {
	if p.Access == ReadWrite {
		return false
	}
	for _, c := range p.Children {
		if !c.IsReadOnly() {
			return false
		}
	}
	if p.Then != nil && !p.Then.IsReadOnly() {
		return false
	}
	if p.Else != nil && !p.Else.IsReadOnly() {
		return false
	}
	return true
}

// explainNode is one entry of an EXPLAIN report: an operator name plus
// whatever key/value detail pairs distinguish it (spec §4.6, grounded on
// the Explanation/ExplainItem shape of the original planner's plan module).
type explainNode struct {
	Operation string
	Detail    map[string]value.Value
}

// Explain walks the plan producing a flat EXPLAIN report, one entry per
// node in execution order (children before parents mirrors how the
// executor actually streams rows, not build order).
func Explain(p *OperatorPlan) []value.Value {
	var out []explainNode
	explainWalk(p, &out)
	rows := make([]value.Value, 0, len(out))
	for _, n := range out {
		rows = append(rows, value.ObjectValue(value.ObjectOf(
			value.KV{Key: "operation", Value: value.String(n.Operation)},
			value.KV{Key: "detail", Value: value.ObjectValue(objectFromMap(n.Detail))},
		)))
	}
	return rows
}

func objectFromMap(m map[string]value.Value) *value.Object {
	o := value.NewObject()
	for k, v := range m {
		o.Set(k, v)
	}
	return o
}

func explainWalk(p *OperatorPlan, out *[]explainNode) {
	if p == nil {
		return
	}
	for _, c := range p.Children {
		explainWalk(c, out)
	}
	explainWalk(p.Then, out)
	explainWalk(p.Else, out)
	*out = append(*out, explainOperator(p))
}

func explainOperator(p *OperatorPlan) explainNode {
	detail := map[string]value.Value{}
	name := "Unknown"
	switch p.Kind {
	case OpScan:
		name, detail = explainIterable(p.Iterable)
	case OpFilter:
		name = "Filter"
	case OpProject:
		name = "Project"
	case OpCompute:
		name = "Compute"
	case OpSort:
		name = "Sort"
	case OpShuffle:
		name = "Shuffle"
		detail["start"] = value.Int(p.Start)
		detail["limit"] = value.Int(p.Limit)
	case OpGroup:
		name = "Group"
	case OpLimit:
		name = "Limit"
		detail["count"] = value.Int(p.Limit)
	case OpIfElse:
		name = "IfElse"
	case OpWrite:
		name = "Write"
		if p.Write != nil {
			detail["kind"] = value.Int(int64(p.Write.Kind))
		}
	case OpRecurse:
		name = "Recurse"
	case OpReferenceScan:
		name = "ReferenceScan"
	case OpGraph:
		name = "Graph"
	}
	return explainNode{Operation: name, Detail: detail}
}

func explainIterable(it Iterable) (string, map[string]value.Value) {
	switch it.Kind {
	case IterValue:
		return "Iterate Value", map[string]value.Value{"value": it.Value}
	case IterYield:
		return "Iterate Yield", map[string]value.Value{"table": value.String(it.Table)}
	case IterThing:
		return "Iterate Thing", map[string]value.Value{"thing": value.RecordIDValue(it.Thing)}
	case IterDefer:
		return "Iterate Defer", map[string]value.Value{"thing": value.RecordIDValue(it.Thing)}
	case IterRange:
		return strategyName("Iterate Range", it.Strategy), map[string]value.Value{
			"table": value.String(it.Table),
		}
	case IterTable:
		return strategyName("Iterate Table", it.Strategy), map[string]value.Value{
			"table": value.String(it.Table),
		}
	case IterIndex:
		return strategyName("Iterate Index", it.Strategy), map[string]value.Value{
			"table": value.String(it.Table),
			"index": value.String(it.IndexName),
		}
	case IterLookup:
		name := "Iterate Edges"
		if it.LookupKind == LookupReference {
			name = "Iterate References"
		}
		return name, map[string]value.Value{"from": value.RecordIDValue(it.Thing)}
	case IterMergeable:
		return "Iterate Mergeable", map[string]value.Value{"thing": value.RecordIDValue(it.Thing)}
	case IterRelatable:
		return "Iterate Relatable", map[string]value.Value{
			"from": value.RecordIDValue(it.From),
			"to":   value.RecordIDValue(it.To),
		}
	}
	return "Iterate Unknown", nil
}

func strategyName(prefix string, s Strategy) string {
	switch s {
	case StrategyCount:
		return prefix + " Count"
	case StrategyKeysOnly:
		return prefix + " Keys"
	default:
		return prefix
	}
}
