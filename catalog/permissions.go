package catalog

// PermissionDecision is the three-way outcome a permission rule can
// produce, mirroring the teacher's privacy policy decision values: Allow
// and Deny terminate evaluation immediately, Skip defers to the next rule
// (and to FULL/NONE if no rule decides).
type PermissionDecision uint8

const (
	Skip PermissionDecision = iota
	Allow
	Deny
)

// Action names one of the four operations a table/field/bucket
// permission policy can gate independently.
type Action uint8

const (
	ActionSelect Action = iota
	ActionCreate
	ActionUpdate
	ActionDelete
)

// String renders the action name as it appears in PERMISSIONS clauses.
func (a Action) String() string {
	switch a {
	case ActionSelect:
		return "select"
	case ActionCreate:
		return "create"
	case ActionUpdate:
		return "update"
	case ActionDelete:
		return "delete"
	default:
		return "unknown"
	}
}

// Rule evaluates a permission condition against the current execution
// context (auth subject, candidate row) and returns a decision. Rules are
// opaque predicate expressions at the catalog level; exec supplies the
// Rule implementation that actually evaluates the stored AST.
type Rule func(ctx any, candidate any) PermissionDecision

// Mode is a single action's policy: None always denies, Full always
// allows, and Where defers to Rule, treating Skip as deny (the table-level
// default for "no WHERE clause matched").
type Mode struct {
	None  bool
	Full  bool
	Where Rule
}

// Evaluate runs m against ctx/candidate, applying the None/Full/Where
// precedence (spec §4.9 "permissions").
func (m Mode) Evaluate(ctx any, candidate any) PermissionDecision {
	switch {
	case m.Full:
		return Allow
	case m.None:
		return Deny
	case m.Where != nil:
		d := m.Where(ctx, candidate)
		if d == Skip {
			return Deny
		}
		return d
	default:
		return Deny
	}
}

// FullMode returns a Mode that always allows.
func FullMode() Mode { return Mode{Full: true} }

// NoneMode returns a Mode that always denies.
func NoneMode() Mode { return Mode{None: true} }

// WhereMode returns a Mode gated by rule.
func WhereMode(rule Rule) Mode { return Mode{Where: rule} }

// Permissions is the four-action policy block attached to a table, field,
// or bucket (spec §4.9). A nil *Permissions on an entity means "inherit
// the table's (or, for a table, the database's) default policy" rather
// than "no permissions", which callers must resolve before evaluating.
type Permissions struct {
	Select Mode
	Create Mode
	Update Mode
	Delete Mode
}

// For returns the Mode governing action.
func (p *Permissions) For(action Action) Mode {
	if p == nil {
		return NoneMode()
	}
	switch action {
	case ActionSelect:
		return p.Select
	case ActionCreate:
		return p.Create
	case ActionUpdate:
		return p.Update
	case ActionDelete:
		return p.Delete
	default:
		return NoneMode()
	}
}

// Check evaluates the policy for action and reports whether it allows the
// operation to proceed.
func (p *Permissions) Check(action Action, ctx any, candidate any) bool {
	return p.For(action).Evaluate(ctx, candidate) == Allow
}
