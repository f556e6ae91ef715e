// Package planner lowers a parsed statement into an OperatorPlan: a DAG
// of operators carrying explicit access-mode, context-level, and
// cardinality metadata the executor enforces rather than re-derives
// (spec §4.6 "Planner").
package planner

import "github.com/syssam/veloxdb/value"

// FrozenContext is the read-only view of ambient state the planner closes
// over: the current namespace/database, bound parameters, and the
// authenticated session. It never mutates once handed to the planner, so
// a single FrozenContext can be shared across an IfElse branch's deferred
// sub-plans without risk of the planner observing a half-updated world.
type FrozenContext struct {
	Namespace string
	Database  string
	Params    map[string]value.Value

	// Auth carries whatever the catalog's permission evaluator needs to
	// resolve a PermissionDecision; the planner treats it as opaque.
	Auth any
}

// Param looks up a bound query parameter, returning value.None when unset.
func (c *FrozenContext) Param(name string) value.Value {
	if c.Params == nil {
		return value.None
	}
	if v, ok := c.Params[name]; ok {
		return v
	}
	return value.None
}

// WithNamespaceDatabase returns a copy of c scoped to a different
// namespace/database, used when a subquery's FROM crosses a USE boundary.
func (c *FrozenContext) WithNamespaceDatabase(ns, db string) *FrozenContext {
	cp := *c
	cp.Namespace = ns
	cp.Database = db
	return &cp
}
