package ast

import "github.com/syssam/veloxdb/value"

// What selects a statement's target: a table scan, an explicit set of
// record ids, or a subquery (spec §3 "Transaction" / §4.6 "Iterable").
type What struct {
	Table    string     // set when scanning a whole table
	Records  []value.RecordID
	Subquery Stmt // set when the target is a nested SELECT
}

// Field is one projection in a SELECT clause: an expression plus an
// optional alias. An Expr of nil with Star true means "SELECT *".
type Field struct {
	Expr  Expr
	Alias string
	Star  bool
}

// OrderBy is one ORDER BY term.
type OrderBy struct {
	Expr       Expr
	Descending bool
	Collation  value.CollationMode
}

// SelectStmt is a SELECT statement.
type SelectStmt struct {
	Fields   []Field
	From     []What
	Where    Expr
	GroupBy  []Expr
	OrderBy  []OrderBy
	Limit    Expr
	Start    Expr
	Fetch    []value.Idiom
	Split    []value.Idiom
	Only     bool
	Parallel bool
	Timeout  value.Duration
	HasTimeout bool
	// Explain asks for the operator plan report instead of execution;
	// ExplainFull records the FULL modifier; the report is the same plan
	// report, without running the plan or adding row counts.
	Explain     bool
	ExplainFull bool
}

func (*SelectStmt) stmtNode() {}
func (*SelectStmt) exprNode() {}

// CreateStmt is a CREATE statement.
type CreateStmt struct {
	What    []What
	Content Expr // SET-style field assignments are lowered to an ObjectExpr
	Only    bool
}

func (*CreateStmt) stmtNode() {}

// Assignment is one SET clause term: idm = expr.
type Assignment struct {
	Idiom value.Idiom
	Value Expr
}

// UpdateStmt is an UPDATE statement.
type UpdateStmt struct {
	What    []What
	Set     []Assignment
	Content Expr // set instead of Set when UPDATE ... CONTENT {...} is used
	Merge   Expr // UPDATE ... MERGE {...}: partial merge regardless of Content semantics
	Where   Expr
	Only    bool
	// Upsert creates the record when the target id does not exist yet
	// (UPSERT statement) instead of matching zero rows.
	Upsert bool
}

func (*UpdateStmt) stmtNode() {}

// DeleteStmt is a DELETE statement.
type DeleteStmt struct {
	What  []What
	Where Expr
	Only  bool
}

func (*DeleteStmt) stmtNode() {}

// RelateStmt is a RELATE statement connecting two records via an edge
// table (spec §3 "graph semantics").
type RelateStmt struct {
	From    Expr
	Edge    string
	To      Expr
	Content Expr
	Only    bool
}

func (*RelateStmt) stmtNode() {}

// InsertStmt is an INSERT statement: either a single content object or a
// VALUES-style batch.
type InsertStmt struct {
	Into   string
	Values []Expr
}

func (*InsertStmt) stmtNode() {}

// LiveStmt is a LIVE SELECT statement.
type LiveStmt struct {
	Select *SelectStmt
	Diff   bool
}

func (*LiveStmt) stmtNode() {}

// KillStmt deregisters a live query by id.
type KillStmt struct{ ID Expr }

func (*KillStmt) stmtNode() {}

// TransactionStmt wraps BEGIN/COMMIT/CANCEL markers around a block of
// statements executed with explicit transaction boundaries (spec §3
// "Transaction" / §4.7 "transaction discipline"). Cancel records whether
// the block was closed by CANCEL instead of COMMIT, in which case the
// executor discards every write unconditionally.
type TransactionStmt struct {
	Body   []Stmt
	Cancel bool
}

func (*TransactionStmt) stmtNode() {}

// UseStmt switches the session's current namespace and/or database.
type UseStmt struct {
	Namespace string
	Database  string
}

func (*UseStmt) stmtNode() {}

// InfoLevel selects which catalog scope an INFO statement reports on.
type InfoLevel uint8

const (
	InfoRoot InfoLevel = iota
	InfoNamespace
	InfoDatabase
	InfoTable
)

// InfoStmt is INFO FOR ROOT|NS|DB|TABLE <name>.
type InfoStmt struct {
	Level  InfoLevel
	Target string // table name when Level is InfoTable
}

func (*InfoStmt) stmtNode() {}

// OptionStmt toggles a named engine option for the session.
type OptionStmt struct {
	Name  string
	Value bool
}

func (*OptionStmt) stmtNode() {}

// GraphDirection selects which side of an edge a graph idiom step walks.
type GraphDirection uint8

const (
	GraphOut GraphDirection = iota // ->edge
	GraphIn                        // <-edge
	GraphBoth                      // <->edge
)

// GraphStep is the payload of a value.PartGraph idiom part: the edge
// table to traverse and the direction to walk it. It lives here rather
// than in value because value keeps graph steps opaque (the planner and
// executor own traversal semantics).
type GraphStep struct {
	Direction GraphDirection
	Edge      string
}
