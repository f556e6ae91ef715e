package value

// Closure is a function value capturing parameter names, a body expression
// (opaque to this package; exec supplies the evaluator), and the variable
// bindings in scope at the point of definition. Grounded on the original
// implementation's closure representation: a closure is a first-class
// Value like any other, not a special AST node.
type Closure struct {
	Params  []ClosureParam
	Body    any // *ast.Block, opaque here to avoid an import cycle with syn/ast
	Capture *Object
}

// ClosureParam is one formal parameter: a name plus an optional declared
// type constraint (opaque Kind string, validated by exec against Kind()).
type ClosureParam struct {
	Name string
	Type string // empty when untyped
}

// NewClosure builds a Closure value.
func NewClosure(params []ClosureParam, body any, capture *Object) Closure {
	return Closure{Params: params, Body: body, Capture: capture}
}

// ClosureValue wraps a Closure as a Value.
func ClosureValue(c Closure) Value { return Value{kind: KindClosure, raw: c} }

// AsClosure returns the Closure payload and whether v held one.
func (v Value) AsClosure() (Closure, bool) {
	c, ok := v.raw.(Closure)
	return c, ok && v.kind == KindClosure
}
