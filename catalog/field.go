package catalog

import "github.com/syssam/veloxdb/value"

// Field is a DEFINE FIELD entry attached to a table: a path (idiom),
// declared type, optional default/assert expressions, and a permission
// policy.
type Field struct {
	Version     uint16
	Namespace   string
	Database    string
	Table       string
	Name        value.Idiom
	Type        value.TypeName
	Default     any // opaque expression AST, evaluated by exec on write
	Assert      any // opaque predicate AST, evaluated by exec on write
	Comment     string
	Permissions *Permissions
	Readonly    bool
}

// Revision implements Revisioned.
func (f Field) Revision() uint16 { return f.Version }
