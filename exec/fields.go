package exec

import (
	"context"

	"github.com/syssam/veloxdb"
	"github.com/syssam/veloxdb/catalog"
	"github.com/syssam/veloxdb/syn/ast"
	"github.com/syssam/veloxdb/value"
)

// applyFieldDefinitions enforces the table's DEFINE FIELD set against a
// row about to be written: defaults fill absent fields, declared types
// coerce strictly, and ASSERT predicates (with $value bound to the field's
// value) reject the write on failure (spec §3 "FieldDefinition").
func (w *WriteOperator) applyFieldDefinitions(ctx context.Context, ec *ExecutionContext, row value.Value) (value.Value, error) {
	if w.Catalog == nil {
		return row, nil
	}
	fields, err := w.Catalog.FieldsOn(w.Namespace, w.Database, w.Table)
	if err != nil {
		return row, err
	}
	for _, fd := range fields {
		row, err = w.applyFieldDefinition(ctx, ec, fd, row)
		if err != nil {
			return row, err
		}
	}
	return row, nil
}

func (w *WriteOperator) applyFieldDefinition(ctx context.Context, ec *ExecutionContext, fd *catalog.Field, row value.Value) (value.Value, error) {
	v := value.Pick(row, fd.Name)

	if v.IsNone() && fd.Default != nil {
		def, ok := fd.Default.(ast.Expr)
		if !ok {
			return row, veloxdb.NewInvalidArgumentsError(fd.Name.String(), "unsupported DEFAULT expression")
		}
		dv, cf := ec.Eval.Eval(ctx, ec, def, row)
		if cf.IsExceptional() {
			return row, cf.Err
		}
		v = dv
		row = value.Put(row, fd.Name, v)
	}

	if fd.Type.Kind != value.KindNone || fd.Type.Optional {
		coerced, err := value.CoerceTo(v, fd.Type)
		if err != nil {
			return row, err
		}
		if !coerced.Equal(v) {
			v = coerced
			row = value.Put(row, fd.Name, v)
		}
	}

	if fd.Assert != nil {
		pred, ok := fd.Assert.(ast.Expr)
		if !ok {
			return row, veloxdb.NewInvalidArgumentsError(fd.Name.String(), "unsupported ASSERT expression")
		}
		scoped := scopedContext(ec)
		scoped.Params["value"] = v
		res, cf := scoped.Eval.Eval(ctx, scoped, pred, row)
		if cf.IsExceptional() {
			return row, cf.Err
		}
		if !truthy(res) {
			return row, veloxdb.NewFieldCheckError(fd.Name.String(), v.String())
		}
	}
	return row, nil
}
