package exec

import (
	"context"

	"github.com/syssam/veloxdb/syn/ast"
	"github.com/syssam/veloxdb/value"
)

// ProjectOperator evaluates each SELECT field against every row pulled
// from Child, assembling an output object per row (spec §4.8 "Project
// (Fields)"). A field with an empty Alias uses the field expression's
// idiom text as its key when it is a bare idiom, else a positional name.
type ProjectOperator struct {
	Child  Operator
	Fields []ProjectField
}

// ProjectField is one projected column: an expression and its output key
// (projectFields fills Key from a bare idiom when there is no AS alias),
// plus the VALUE and `*` forms flagged below.
type ProjectField struct {
	Expr  ast.Expr
	Key   string
	Value bool // VALUE <expr>: project this single expression as the row itself, not wrapped in an object
	Star  bool // `*`: splice every field of the input row into the output object
}

// Next implements Operator.
func (p *ProjectOperator) Next(ctx context.Context, ec *ExecutionContext) (ValueBatch, ControlFlow) {
	if cf, cancelled := checkCancelled(ec); cancelled {
		return nil, cf
	}
	batch, cf := p.Child.Next(ctx, ec)
	if cf.IsExceptional() {
		return nil, cf
	}
	out := make(ValueBatch, 0, len(batch))
	for _, row := range batch {
		if len(p.Fields) == 1 && p.Fields[0].Value {
			v, fcf := ec.Eval.Eval(ctx, ec, p.Fields[0].Expr, row)
			if fcf.IsExceptional() {
				return nil, fcf
			}
			out = append(out, v)
			continue
		}
		obj := value.NewObject()
		for i, f := range p.Fields {
			if f.Star {
				if src, ok := row.AsObject(); ok {
					src.Range(func(k string, v value.Value) bool {
						obj.Set(k, v)
						return true
					})
				}
				continue
			}
			v, fcf := ec.Eval.Eval(ctx, ec, f.Expr, row)
			if fcf.IsExceptional() {
				return nil, fcf
			}
			key := f.Key
			if key == "" {
				key = positionalKey(i)
			}
			obj.Set(key, v)
		}
		out = append(out, value.ObjectValue(obj))
	}
	return out, cf
}

func positionalKey(i int) string {
	const letters = "abcdefghijklmnopqrstuvwxyz"
	if i < len(letters) {
		return string(letters[i])
	}
	return "field"
}
