package exec

import (
	"context"
	"strings"

	"github.com/syssam/veloxdb"
	"github.com/syssam/veloxdb/key"
	"github.com/syssam/veloxdb/kv"
	"github.com/syssam/veloxdb/syn/ast"
	"github.com/syssam/veloxdb/value"
)

// SubqueryRunner executes a statement-shaped expression (a SELECT nested
// inside another expression, a CREATE used for its returned rows) against
// the current execution context. The datastore wiring supplies it, so the
// interpreter can evaluate sub-statements without exec importing the
// planner's statement dispatch back-to-front.
type SubqueryRunner interface {
	Run(ctx context.Context, ec *ExecutionContext, stmt ast.Stmt) (value.Value, ControlFlow)
}

// Interpreter is the one full expression evaluator (spec §4.6: the
// fallback path that walks the AST directly, sharing the planner's frozen
// context). It implements Evaluator; every operator reaches expression
// evaluation through it.
type Interpreter struct {
	// Funcs resolves builtin function calls; nil uses DefaultFuncs.
	Funcs map[string]BuiltinFunc
	// User resolves DEFINE FUNCTION bodies, keyed by their call name
	// (fn::<name>). The datastore keeps this registry current as schema
	// statements run.
	User map[string]UserFunc
	// Subquery runs statement-shaped expressions; nil makes them an
	// Unimplemented error.
	Subquery SubqueryRunner
}

// UserFunc is one DEFINE FUNCTION body: positional parameter names plus
// the block the call evaluates with them bound.
type UserFunc struct {
	Args []string
	Body *ast.Block
}

// Eval implements Evaluator. A nil expression evaluates to the cursor row
// itself (the seed of a leading graph step or a bare `*`).
func (in *Interpreter) Eval(ctx context.Context, ec *ExecutionContext, e ast.Expr, row value.Value) (value.Value, ControlFlow) {
	if ec.Cancelled() {
		return value.None, Err(errQueryCancelled)
	}
	switch v := e.(type) {
	case nil:
		return row, Normal()

	case *ast.Literal:
		return v.Value, Normal()

	case *ast.ParamRef:
		return ec.Param(v.Name), Normal()

	case *ast.IdiomExpr:
		root, cf := in.Eval(ctx, ec, v.Root, row)
		if cf.IsExceptional() {
			return value.None, cf
		}
		return in.walkIdiom(ctx, ec, root, v.Idiom, row)

	case *ast.Binary:
		return in.evalBinary(ctx, ec, v, row)

	case *ast.Unary:
		operand, cf := in.Eval(ctx, ec, v.Operand, row)
		if cf.IsExceptional() {
			return value.None, cf
		}
		switch v.Op {
		case ast.OpNot:
			return value.Bool(!truthy(operand)), Normal()
		case ast.OpNeg:
			return negate(operand)
		}
		return value.None, Err(veloxdb.NewUnimplementedError("unary operator " + string(v.Op)))

	case *ast.ArrayExpr:
		out := make(value.Array, 0, len(v.Elems))
		for _, el := range v.Elems {
			ev, cf := in.Eval(ctx, ec, el, row)
			if cf.IsExceptional() {
				return value.None, cf
			}
			out = append(out, ev)
		}
		return value.ArrayValue(out), Normal()

	case *ast.ObjectExpr:
		obj := value.NewObject()
		for _, f := range v.Fields {
			fv, cf := in.Eval(ctx, ec, f.Value, row)
			if cf.IsExceptional() {
				return value.None, cf
			}
			obj.Set(f.Key, fv)
		}
		return value.ObjectValue(obj), Normal()

	case *ast.FuncCall:
		return in.evalFuncCall(ctx, ec, v, row)

	case *ast.ClosureExpr:
		capture := value.NewObject()
		for name, pv := range ec.Params {
			capture.Set(name, pv)
		}
		return value.ClosureValue(value.NewClosure(v.Params, v.Body, capture)), Normal()

	case *ast.IfElse:
		cond, cf := in.Eval(ctx, ec, v.Cond, row)
		if cf.IsExceptional() {
			return value.None, cf
		}
		if truthy(cond) {
			return in.EvalBlock(ctx, ec, v.Then, row)
		}
		if v.Else != nil {
			return in.EvalBlock(ctx, ec, v.Else, row)
		}
		return value.None, Normal()

	case *ast.Block:
		return in.EvalBlock(ctx, ec, v, row)

	case ast.Stmt:
		// A statement used as an expression (nested SELECT/CREATE/...).
		if in.Subquery == nil {
			return value.None, Err(veloxdb.NewUnimplementedError("sub-statement evaluation"))
		}
		return in.Subquery.Run(ctx, ec, v)
	}
	return value.None, Err(veloxdb.NewUnimplementedError("evaluating this expression kind"))
}

// EvalBlock runs a block's statements in a child parameter scope and
// returns the value of its final bare expression (spec §4.6 "the last
// bare value is the block's result"). RETURN/BREAK/CONTINUE and errors
// propagate as control flow for the enclosing construct to unwind.
func (in *Interpreter) EvalBlock(ctx context.Context, ec *ExecutionContext, b *ast.Block, row value.Value) (value.Value, ControlFlow) {
	scoped := scopedContext(ec)
	var last value.Value = value.None
	for _, stmt := range b.Stmts {
		v, cf := in.execStmt(ctx, scoped, stmt, row)
		if cf.IsExceptional() {
			return value.None, cf
		}
		last = v
	}
	return last, Normal()
}

func (in *Interpreter) execStmt(ctx context.Context, ec *ExecutionContext, stmt ast.Stmt, row value.Value) (value.Value, ControlFlow) {
	switch s := stmt.(type) {
	case *ast.LetStmt:
		v, cf := in.Eval(ctx, ec, s.Value, row)
		if cf.IsExceptional() {
			return value.None, cf
		}
		ec.Params[s.Name] = v
		return value.None, Normal()

	case *ast.ReturnStmt:
		v, cf := in.Eval(ctx, ec, s.Value, row)
		if cf.IsExceptional() {
			return value.None, cf
		}
		return value.None, Return(v)

	case *ast.BreakStmt:
		return value.None, Break()

	case *ast.ContinueStmt:
		return value.None, Continue()

	case *ast.ThrowStmt:
		v, cf := in.Eval(ctx, ec, s.Value, row)
		if cf.IsExceptional() {
			return value.None, cf
		}
		return value.None, Err(veloxdb.NewThrownError(v.String()))

	case *ast.ForStmt:
		return in.execFor(ctx, ec, s, row)

	case *ast.IfElse:
		return in.Eval(ctx, ec, s, row)

	case *ast.ExprStmt:
		return in.Eval(ctx, ec, s.Expr, row)

	default:
		// SELECT/CREATE/... inside a block.
		if in.Subquery == nil {
			return value.None, Err(veloxdb.NewUnimplementedError("sub-statement evaluation"))
		}
		return in.Subquery.Run(ctx, ec, stmt)
	}
}

// execFor iterates a FOR loop, catching BREAK/CONTINUE at this boundary
// (spec §7 "operators unwrap them at the boundaries of their scope").
func (in *Interpreter) execFor(ctx context.Context, ec *ExecutionContext, s *ast.ForStmt, row value.Value) (value.Value, ControlFlow) {
	iter, cf := in.Eval(ctx, ec, s.In, row)
	if cf.IsExceptional() {
		return value.None, cf
	}
	elems, ok := iter.AsArray()
	if !ok {
		elems, ok = iter.AsSet()
	}
	if !ok {
		return value.None, Err(veloxdb.NewInvalidArgumentsError("for", "FOR requires an array to iterate"))
	}
	for _, el := range elems {
		if ec.Cancelled() {
			return value.None, Err(errQueryCancelled)
		}
		ec.Params[s.Var] = el
		_, bcf := in.EvalBlock(ctx, ec, s.Body, row)
		switch bcf.Kind {
		case CFBreak:
			return value.None, Normal()
		case CFContinue, CFNormal, CFDone:
			continue
		default:
			return value.None, bcf
		}
	}
	return value.None, Normal()
}

func (in *Interpreter) evalBinary(ctx context.Context, ec *ExecutionContext, b *ast.Binary, row value.Value) (value.Value, ControlFlow) {
	// AND/OR short-circuit before the right operand is touched.
	switch b.Op {
	case "??":
		// Null-coalesce: the right side only evaluates when the left is
		// NONE/NULL.
		l, cf := in.Eval(ctx, ec, b.Left, row)
		if cf.IsExceptional() {
			return value.None, cf
		}
		if !l.IsNullish() {
			return l, Normal()
		}
		return in.Eval(ctx, ec, b.Right, row)
	case "?:":
		// Elvis: the left side when truthy, else the right.
		l, cf := in.Eval(ctx, ec, b.Left, row)
		if cf.IsExceptional() {
			return value.None, cf
		}
		if truthy(l) {
			return l, Normal()
		}
		return in.Eval(ctx, ec, b.Right, row)
	case ast.OpAnd:
		l, cf := in.Eval(ctx, ec, b.Left, row)
		if cf.IsExceptional() {
			return value.None, cf
		}
		if !truthy(l) {
			return value.Bool(false), Normal()
		}
		r, cf := in.Eval(ctx, ec, b.Right, row)
		if cf.IsExceptional() {
			return value.None, cf
		}
		return value.Bool(truthy(r)), Normal()
	case ast.OpOr:
		l, cf := in.Eval(ctx, ec, b.Left, row)
		if cf.IsExceptional() {
			return value.None, cf
		}
		if truthy(l) {
			return value.Bool(true), Normal()
		}
		r, cf := in.Eval(ctx, ec, b.Right, row)
		if cf.IsExceptional() {
			return value.None, cf
		}
		return value.Bool(truthy(r)), Normal()
	}

	l, cf := in.Eval(ctx, ec, b.Left, row)
	if cf.IsExceptional() {
		return value.None, cf
	}
	r, cf := in.Eval(ctx, ec, b.Right, row)
	if cf.IsExceptional() {
		return value.None, cf
	}

	switch b.Op {
	case ast.OpEq:
		return value.Bool(l.Equal(r)), Normal()
	case ast.OpNeq:
		return value.Bool(!l.Equal(r)), Normal()
	case ast.OpLt:
		return value.Bool(l.Compare(r) < 0), Normal()
	case ast.OpLte:
		return value.Bool(l.Compare(r) <= 0), Normal()
	case ast.OpGt:
		return value.Bool(l.Compare(r) > 0), Normal()
	case ast.OpGte:
		return value.Bool(l.Compare(r) >= 0), Normal()
	case ast.OpAdd, ast.OpSub, ast.OpMul, ast.OpDiv:
		return arithmetic(b.Op, l, r)
	case ast.OpMatch, ast.OpNMatch:
		matched, err := fuzzyMatch(l, r)
		if err != nil {
			return value.None, Err(err)
		}
		if b.Op == ast.OpNMatch {
			matched = !matched
		}
		return value.Bool(matched), Normal()
	case ast.OpIn:
		return value.Bool(arrayContains(r, l)), Normal()
	case ast.OpNIn:
		return value.Bool(!arrayContains(r, l)), Normal()
	case ast.OpContains:
		return value.Bool(containsValue(l, r)), Normal()
	case "..":
		return value.RangeValue(value.Range{
			Start: value.RangeBound{Present: true, Inclusive: true, Value: l},
			End:   value.RangeBound{Present: true, Inclusive: false, Value: r},
		}), Normal()
	}
	return value.None, Err(veloxdb.NewUnimplementedError("binary operator " + string(b.Op)))
}

func (in *Interpreter) evalFuncCall(ctx context.Context, ec *ExecutionContext, call *ast.FuncCall, row value.Value) (value.Value, ControlFlow) {
	args := make([]value.Value, 0, len(call.Args))
	for _, a := range call.Args {
		av, cf := in.Eval(ctx, ec, a, row)
		if cf.IsExceptional() {
			return value.None, cf
		}
		args = append(args, av)
	}
	if uf, ok := in.User[strings.ToLower(call.Name)]; ok {
		return in.invokeUser(ctx, ec, call.Name, uf, args, row)
	}
	funcs := in.Funcs
	if funcs == nil {
		funcs = DefaultFuncs
	}
	fn, ok := funcs[strings.ToLower(call.Name)]
	if !ok {
		return value.None, Err(veloxdb.NewInvalidArgumentsError(call.Name, "unknown function"))
	}
	out, err := fn(args)
	if err != nil {
		return value.None, Err(err)
	}
	return out, Normal()
}

// invokeUser calls a DEFINE FUNCTION body with args bound positionally.
// A RETURN inside the body is this call's result, caught here rather than
// unwinding the caller's statement (spec §7: control flow stops at the
// function-body boundary).
func (in *Interpreter) invokeUser(ctx context.Context, ec *ExecutionContext, name string, uf UserFunc, args []value.Value, row value.Value) (value.Value, ControlFlow) {
	if len(args) != len(uf.Args) {
		return value.None, Err(veloxdb.NewInvalidArgumentsError(name, "wrong number of arguments"))
	}
	scoped := scopedContext(ec)
	for i, argName := range uf.Args {
		scoped.Params[argName] = args[i]
	}
	v, cf := in.EvalBlock(ctx, scoped, uf.Body, row)
	if cf.Kind == CFReturn {
		return cf.Value, Normal()
	}
	if cf.IsExceptional() {
		return value.None, cf
	}
	return v, Normal()
}

// walkIdiom navigates cur through parts, hydrating record ids from the
// store whenever a deeper step needs the record's fields and the current
// node is still just an id (so `->bought->product.price` reads the
// product rows, not the id strings).
func (in *Interpreter) walkIdiom(ctx context.Context, ec *ExecutionContext, cur value.Value, parts value.Idiom, row value.Value) (value.Value, ControlFlow) {
	for i := 0; i < len(parts); i++ {
		p := parts[i]
		switch p.Kind {
		case value.PartField:
			hydrated, err := in.hydrate(ctx, ec, cur)
			if err != nil {
				return value.None, Err(err)
			}
			cur = hydrated
			if a, ok := asArrayLike(cur); ok {
				// Broadcast field access across array elements.
				rest := parts[i:]
				out := make(value.Array, 0, len(a))
				for _, el := range a {
					ev, cf := in.walkIdiom(ctx, ec, el, rest, row)
					if cf.IsExceptional() {
						return value.None, cf
					}
					out = append(out, ev)
				}
				return value.ArrayValue(out), Normal()
			}
			obj, ok := cur.AsObject()
			if !ok {
				return value.None, Normal()
			}
			fv, present := obj.Get(p.Field)
			if !present {
				return value.None, Normal()
			}
			cur = fv

		case value.PartIndex, value.PartFirst, value.PartLast, value.PartFlatten:
			cur = value.Pick(cur, value.Idiom{p})

		case value.PartAll:
			hydrated, err := in.hydrate(ctx, ec, cur)
			if err != nil {
				return value.None, Err(err)
			}
			cur = hydrated
			if a, ok := asArrayLike(cur); ok {
				rest := parts[i+1:]
				out := make(value.Array, 0, len(a))
				for _, el := range a {
					he, err := in.hydrate(ctx, ec, el)
					if err != nil {
						return value.None, Err(err)
					}
					if len(rest) == 0 {
						out = append(out, he)
						continue
					}
					ev, cf := in.walkIdiom(ctx, ec, he, rest, row)
					if cf.IsExceptional() {
						return value.None, cf
					}
					out = append(out, ev)
				}
				return value.ArrayValue(out), Normal()
			}
			// `*` over a single object picks across its field values.
			cur = value.Pick(cur, value.Idiom{p})

		case value.PartWhere:
			a, ok := asArrayLike(cur)
			if !ok {
				return value.None, Normal()
			}
			pred, ok := p.Where.(ast.Expr)
			if !ok {
				return value.None, Err(veloxdb.NewInvalidArgumentsError("where", "unsupported predicate in idiom"))
			}
			out := make(value.Array, 0, len(a))
			for _, el := range a {
				he, err := in.hydrate(ctx, ec, el)
				if err != nil {
					return value.None, Err(err)
				}
				keep, cf := in.Eval(ctx, ec, pred, he)
				if cf.IsExceptional() {
					return value.None, cf
				}
				if truthy(keep) {
					out = append(out, el)
				}
			}
			cur = value.ArrayValue(out)

		case value.PartGraph:
			step, ok := p.Graph.(ast.GraphStep)
			if !ok {
				return value.None, Err(veloxdb.NewInvalidArgumentsError("graph", "unsupported graph step in idiom"))
			}
			next, err := in.traverse(ctx, ec, cur, step)
			if err != nil {
				return value.None, Err(err)
			}
			cur = next

		default:
			return value.None, Normal()
		}
	}
	return cur, Normal()
}

// traverse walks one graph step from every record id reachable in cur,
// returning the array of target record ids (spec §4.8 "Lookup / Graph
// edges"). The edge key links source records directly to far-side
// records, so a chained `->edge->table` idiom reads as traverse then
// table constraint: when the current records already belong to the named
// table, the step filters instead of traversing again.
func (in *Interpreter) traverse(ctx context.Context, ec *ExecutionContext, cur value.Value, step ast.GraphStep) (value.Value, error) {
	sources := recordIDsIn(cur)
	if len(sources) > 0 {
		matching := make(value.Array, 0, len(sources))
		for _, id := range sources {
			if id.Table == step.Edge {
				matching = append(matching, value.RecordIDValue(id))
			}
		}
		if len(matching) > 0 {
			return value.ArrayValue(matching), nil
		}
	}
	if len(sources) > 0 && ec.Tx == nil {
		return value.None, veloxdb.NewUnimplementedError("graph traversal without a bound transaction")
	}
	ns, db := ec.scopeNames()
	out := make(value.Array, 0, len(sources))
	for _, src := range sources {
		var dirs []bool
		switch step.Direction {
		case ast.GraphOut:
			dirs = []bool{true}
		case ast.GraphIn:
			dirs = []bool{false}
		default:
			dirs = []bool{true, false}
		}
		for _, outDir := range dirs {
			prefix := key.GraphEdgePrefix(ns, db, src, step.Edge, outDir)
			start, end := prefix, key.PrefixEnd(prefix)
			for {
				keys, err := ec.Tx.StreamKeys(ctx, start, end, DefaultBatchSize)
				if err != nil {
					return value.None, err
				}
				if len(keys) == 0 {
					break
				}
				for _, k := range keys {
					table, rk := key.DecodeGraphEdgeTarget(k)
					out = append(out, value.RecordIDValue(value.NewRecordID(table, rk)))
				}
				if len(keys) < DefaultBatchSize {
					break
				}
				start = append(append([]byte{}, keys[len(keys)-1]...), 0)
			}
		}
	}
	return value.ArrayValue(out), nil
}

// hydrate replaces a RecordID with the stored record. Every other value,
// row objects included, passes through untouched, as does a RecordID when
// no transaction is bound.
func (in *Interpreter) hydrate(ctx context.Context, ec *ExecutionContext, v value.Value) (value.Value, error) {
	id, ok := v.AsRecordID()
	if !ok {
		return v, nil
	}
	if ec.Tx == nil {
		return v, nil
	}
	ns, db := ec.scopeNames()
	raw, err := ec.Tx.Get(ctx, key.Record(ns, db, id.Table, id.Key))
	if err != nil {
		return value.None, err
	}
	if raw == nil {
		return value.None, nil
	}
	return kv.DecodeValue(raw)
}

// recordIDsIn flattens cur into the record ids it holds: a bare id, a row
// object's id field, or an array of either.
func recordIDsIn(v value.Value) []value.RecordID {
	if id, ok := v.AsRecordID(); ok {
		return []value.RecordID{id}
	}
	if obj, ok := v.AsObject(); ok {
		if idv, ok := obj.Get("id"); ok {
			if id, ok := idv.AsRecordID(); ok {
				return []value.RecordID{id}
			}
		}
		return nil
	}
	if a, ok := asArrayLike(v); ok {
		var out []value.RecordID
		for _, el := range a {
			out = append(out, recordIDsIn(el)...)
		}
		return out
	}
	return nil
}

// scopeNames reports the current namespace/database names, empty when the
// context is not yet scoped that deep.
func (ec *ExecutionContext) scopeNames() (string, string) {
	ns, db := "", ""
	if ec.Namespace != nil {
		ns = ec.Namespace.Name
	}
	if ec.Database != nil {
		if ns == "" {
			ns = ec.Database.Namespace
		}
		db = ec.Database.Name
	}
	return ns, db
}

// scopedContext shallow-copies ec with its own parameter map, so LET
// bindings inside a block never leak into the enclosing scope.
func scopedContext(ec *ExecutionContext) *ExecutionContext {
	child := *ec
	child.Params = make(map[string]value.Value, len(ec.Params)+4)
	for k, v := range ec.Params {
		child.Params[k] = v
	}
	return &child
}

// Truthy reports v's truthiness under the engine's single rule; exported
// for collaborators (the live-query dispatcher) that evaluate conditions
// outside an operator.
func Truthy(v value.Value) bool { return truthy(v) }

// truthy is the engine's single truthiness rule: NONE/NULL and empty
// containers are false, zero numbers and empty strings are false,
// everything else is true.
func truthy(v value.Value) bool {
	switch v.Kind() {
	case value.KindNone, value.KindNull:
		return false
	case value.KindBool:
		b, _ := v.AsBool()
		return b
	case value.KindNumber:
		n, _ := v.AsNumber()
		return n.AsFloat64() != 0
	case value.KindString:
		s, _ := v.AsString()
		return s != ""
	case value.KindArray, value.KindSet:
		a, _ := asArrayLike(v)
		return len(a) > 0
	case value.KindObject:
		o, _ := v.AsObject()
		return o.Len() > 0
	default:
		return true
	}
}

func asArrayLike(v value.Value) (value.Array, bool) {
	if a, ok := v.AsArray(); ok {
		return a, true
	}
	if a, ok := v.AsSet(); ok {
		return a, true
	}
	return nil, false
}

func negate(v value.Value) (value.Value, ControlFlow) {
	n, ok := v.AsNumber()
	if !ok {
		return value.None, Err(veloxdb.NewConvertError(v.Kind().String(), "number"))
	}
	switch n.Kind {
	case value.NumberInt:
		return value.Int(-n.Int), Normal()
	default:
		return value.Float(-n.AsFloat64()), Normal()
	}
}

// arithmetic applies + - * / with int arithmetic preserved when both
// operands are ints (division always yields a float, matching the
// original engine's promotion rule; division by zero yields NONE). + on
// strings concatenates; + on arrays appends.
func arithmetic(op ast.BinaryOp, l, r value.Value) (value.Value, ControlFlow) {
	if op == ast.OpAdd {
		if ls, ok := l.AsString(); ok {
			if rs, ok := r.AsString(); ok {
				return value.String(ls + rs), Normal()
			}
		}
		if la, ok := l.AsArray(); ok {
			if ra, ok := r.AsArray(); ok {
				out := make(value.Array, 0, len(la)+len(ra))
				out = append(out, la...)
				out = append(out, ra...)
				return value.ArrayValue(out), Normal()
			}
		}
	}
	ln, lok := l.AsNumber()
	rn, rok := r.AsNumber()
	if !lok || !rok {
		return value.None, Err(veloxdb.NewConvertError(l.Kind().String()+" "+string(op)+" "+r.Kind().String(), "number"))
	}
	if ln.Kind == value.NumberInt && rn.Kind == value.NumberInt && op != ast.OpDiv {
		switch op {
		case ast.OpAdd:
			return value.Int(ln.Int + rn.Int), Normal()
		case ast.OpSub:
			return value.Int(ln.Int - rn.Int), Normal()
		case ast.OpMul:
			return value.Int(ln.Int * rn.Int), Normal()
		}
	}
	lf, rf := ln.AsFloat64(), rn.AsFloat64()
	switch op {
	case ast.OpAdd:
		return value.Float(lf + rf), Normal()
	case ast.OpSub:
		return value.Float(lf - rf), Normal()
	case ast.OpMul:
		return value.Float(lf * rf), Normal()
	case ast.OpDiv:
		if rf == 0 {
			return value.None, Normal()
		}
		return value.Float(lf / rf), Normal()
	}
	return value.None, Err(veloxdb.NewUnimplementedError("arithmetic operator " + string(op)))
}

// fuzzyMatch implements `~`: regex when the right side is one, otherwise
// case-insensitive substring containment.
func fuzzyMatch(l, r value.Value) (bool, error) {
	ls, ok := l.AsString()
	if !ok {
		return false, nil
	}
	if re, ok := r.AsRegex(); ok {
		return re.MatchString(ls), nil
	}
	rs, ok := r.AsString()
	if !ok {
		return false, veloxdb.NewInvalidArgumentsError("~", "pattern must be a string or regex")
	}
	return strings.Contains(strings.ToLower(ls), strings.ToLower(rs)), nil
}

func arrayContains(container, needle value.Value) bool {
	a, ok := asArrayLike(container)
	if !ok {
		return false
	}
	for _, el := range a {
		if el.Equal(needle) {
			return true
		}
	}
	return false
}

// containsValue implements CONTAINS: array membership, substring on
// strings, point containment on ranges.
func containsValue(container, needle value.Value) bool {
	if arrayContains(container, needle) {
		return true
	}
	if cs, ok := container.AsString(); ok {
		if ns, ok := needle.AsString(); ok {
			return strings.Contains(cs, ns)
		}
	}
	if r, ok := container.AsRange(); ok {
		return r.Contains(needle, func(a, b value.Value) int { return a.Compare(b) })
	}
	return false
}
