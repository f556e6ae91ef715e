package catalog

import "github.com/syssam/veloxdb/value"

// FunctionArg is one declared parameter of a user-defined function.
type FunctionArg struct {
	Name string
	Type value.TypeName
}

// Function is a DEFINE FUNCTION entry: a named, typed closure stored in
// the catalog so it can be invoked as fn::name(...) from any query.
type Function struct {
	Version    uint16
	Namespace  string
	Database   string
	Name       string
	Args       []FunctionArg
	ReturnType *value.TypeName // nil when untyped
	Body       any             // opaque *ast.Block
	Comment    string
}

// Revision implements Revisioned.
func (f Function) Revision() uint16 { return f.Version }
