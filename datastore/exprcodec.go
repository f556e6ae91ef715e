package datastore

import (
	"github.com/vmihailenco/msgpack/v5"

	"github.com/syssam/veloxdb"
	"github.com/syssam/veloxdb/kv"
	"github.com/syssam/veloxdb/syn/ast"
	"github.com/syssam/veloxdb/value"
)

// wireExpr is the persistable mirror of the expression subset that can
// appear in a DEFINE FIELD DEFAULT/ASSERT clause. Catalog entities embed
// opaque `any` AST fields that msgpack cannot round-trip, so the store
// flattens them through this tree instead (the same revisioned-decode
// discipline the entity structs themselves follow).
type wireExpr struct {
	Kind    string
	Literal []byte     // Kind "lit": kv-encoded value
	Name    string     // "param", "func", "field"
	Op      string     // "bin", "un"
	Left    *wireExpr  // "bin"
	Right   *wireExpr  // "bin"
	Operand *wireExpr  // "un"
	Args    []wireExpr // "func", "arr"
	Keys    []string   // "obj"
	Vals    []wireExpr // "obj"
	Idiom   []string   // "field": dotted path
}

func encodeExpr(e ast.Expr) (*wireExpr, error) {
	switch v := e.(type) {
	case nil:
		return nil, nil
	case *ast.Literal:
		raw, err := kv.EncodeValue(v.Value)
		if err != nil {
			return nil, err
		}
		return &wireExpr{Kind: "lit", Literal: raw}, nil
	case *ast.ParamRef:
		return &wireExpr{Kind: "param", Name: v.Name}, nil
	case *ast.IdiomExpr:
		if v.Root != nil {
			return nil, veloxdb.NewUnimplementedError("persisting a rooted idiom expression")
		}
		parts := make([]string, 0, len(v.Idiom))
		for _, p := range v.Idiom {
			if p.Kind != value.PartField {
				return nil, veloxdb.NewUnimplementedError("persisting a non-field idiom expression")
			}
			parts = append(parts, p.Field)
		}
		return &wireExpr{Kind: "field", Idiom: parts}, nil
	case *ast.Binary:
		l, err := encodeExpr(v.Left)
		if err != nil {
			return nil, err
		}
		r, err := encodeExpr(v.Right)
		if err != nil {
			return nil, err
		}
		return &wireExpr{Kind: "bin", Op: string(v.Op), Left: l, Right: r}, nil
	case *ast.Unary:
		o, err := encodeExpr(v.Operand)
		if err != nil {
			return nil, err
		}
		return &wireExpr{Kind: "un", Op: string(v.Op), Operand: o}, nil
	case *ast.FuncCall:
		args := make([]wireExpr, 0, len(v.Args))
		for _, a := range v.Args {
			w, err := encodeExpr(a)
			if err != nil {
				return nil, err
			}
			args = append(args, *w)
		}
		return &wireExpr{Kind: "func", Name: v.Name, Args: args}, nil
	case *ast.ArrayExpr:
		args := make([]wireExpr, 0, len(v.Elems))
		for _, a := range v.Elems {
			w, err := encodeExpr(a)
			if err != nil {
				return nil, err
			}
			args = append(args, *w)
		}
		return &wireExpr{Kind: "arr", Args: args}, nil
	case *ast.ObjectExpr:
		we := &wireExpr{Kind: "obj"}
		for _, f := range v.Fields {
			w, err := encodeExpr(f.Value)
			if err != nil {
				return nil, err
			}
			we.Keys = append(we.Keys, f.Key)
			we.Vals = append(we.Vals, *w)
		}
		return we, nil
	default:
		return nil, veloxdb.NewUnimplementedError("persisting this expression kind")
	}
}

func decodeExpr(w *wireExpr) (ast.Expr, error) {
	if w == nil {
		return nil, nil
	}
	switch w.Kind {
	case "lit":
		v, err := kv.DecodeValue(w.Literal)
		if err != nil {
			return nil, err
		}
		return &ast.Literal{Value: v}, nil
	case "param":
		return &ast.ParamRef{Name: w.Name}, nil
	case "field":
		idm := make(value.Idiom, 0, len(w.Idiom))
		for _, f := range w.Idiom {
			idm = append(idm, value.FieldPart(f))
		}
		return &ast.IdiomExpr{Idiom: idm}, nil
	case "bin":
		l, err := decodeExpr(w.Left)
		if err != nil {
			return nil, err
		}
		r, err := decodeExpr(w.Right)
		if err != nil {
			return nil, err
		}
		return &ast.Binary{Op: ast.BinaryOp(w.Op), Left: l, Right: r}, nil
	case "un":
		o, err := decodeExpr(w.Operand)
		if err != nil {
			return nil, err
		}
		return &ast.Unary{Op: ast.UnaryOp(w.Op), Operand: o}, nil
	case "func":
		call := &ast.FuncCall{Name: w.Name}
		for i := range w.Args {
			a, err := decodeExpr(&w.Args[i])
			if err != nil {
				return nil, err
			}
			call.Args = append(call.Args, a)
		}
		return call, nil
	case "arr":
		arr := &ast.ArrayExpr{}
		for i := range w.Args {
			a, err := decodeExpr(&w.Args[i])
			if err != nil {
				return nil, err
			}
			arr.Elems = append(arr.Elems, a)
		}
		return arr, nil
	case "obj":
		obj := &ast.ObjectExpr{}
		for i, k := range w.Keys {
			v, err := decodeExpr(&w.Vals[i])
			if err != nil {
				return nil, err
			}
			obj.Fields = append(obj.Fields, ast.ObjectField{Key: k, Value: v})
		}
		return obj, nil
	default:
		return nil, veloxdb.NewUnimplementedError("decoding expression kind " + w.Kind)
	}
}

func marshalExpr(e ast.Expr) ([]byte, error) {
	w, err := encodeExpr(e)
	if err != nil || w == nil {
		return nil, err
	}
	return msgpack.Marshal(w)
}

func unmarshalExpr(raw []byte) (ast.Expr, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var w wireExpr
	if err := msgpack.Unmarshal(raw, &w); err != nil {
		return nil, err
	}
	return decodeExpr(&w)
}
