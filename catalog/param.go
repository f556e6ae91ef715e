package catalog

import "github.com/syssam/veloxdb/value"

// Param is a DEFINE PARAM entry: a named constant value available to every
// query in its scope as $name.
type Param struct {
	Version   uint16
	Namespace string
	Database  string
	Name      string
	Value     value.Value
	Comment   string
}

// Revision implements Revisioned.
func (p Param) Revision() uint16 { return p.Version }
