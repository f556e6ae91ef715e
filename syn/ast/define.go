package ast

import "github.com/syssam/veloxdb/catalog"

// DefineNamespaceStmt is DEFINE NAMESPACE.
type DefineNamespaceStmt struct {
	Name       string
	IfNotExists bool
	Comment    string
}

func (*DefineNamespaceStmt) stmtNode() {}

// DefineDatabaseStmt is DEFINE DATABASE.
type DefineDatabaseStmt struct {
	Name        string
	IfNotExists bool
	Comment     string
}

func (*DefineDatabaseStmt) stmtNode() {}

// DefineTableStmt is DEFINE TABLE.
type DefineTableStmt struct {
	Name        string
	Kind        catalog.TableKind
	Schemafull  bool
	IfNotExists bool
	Permissions *catalog.Permissions
	Comment     string
	// Changefeed enables the table's durable mutation log, retaining
	// entries for the given duration (zero = the datastore's configured
	// default retention, datastore.Config.ChangefeedRetention).
	Changefeed    int64 // nanoseconds
	HasChangefeed bool
}

func (*DefineTableStmt) stmtNode() {}

// DefineFieldStmt is DEFINE FIELD.
type DefineFieldStmt struct {
	Table       string
	Name        string // dotted idiom source text, parsed by the caller
	Type        string // type grammar source text
	Default     Expr
	Assert      Expr
	Permissions *catalog.Permissions
	IfNotExists bool
	Comment     string
}

func (*DefineFieldStmt) stmtNode() {}

// DefineIndexStmt is DEFINE INDEX.
type DefineIndexStmt struct {
	Table       string
	Name        string
	Fields      []string
	Unique      bool
	Kind        catalog.IndexKind
	FullText    *catalog.FullTextParams
	Vector      *catalog.VectorParams
	IfNotExists bool
	Comment     string
}

func (*DefineIndexStmt) stmtNode() {}

// DefineFunctionStmt is DEFINE FUNCTION.
type DefineFunctionStmt struct {
	Name        string
	Args        []catalog.FunctionArg
	Body        *Block
	IfNotExists bool
	Comment     string
}

func (*DefineFunctionStmt) stmtNode() {}

// DefineParamStmt is DEFINE PARAM.
type DefineParamStmt struct {
	Name        string
	Value       Expr
	IfNotExists bool
	Comment     string
}

func (*DefineParamStmt) stmtNode() {}

// DefineEventStmt is DEFINE EVENT.
type DefineEventStmt struct {
	Table       string
	Name        string
	When        []catalog.EventTrigger
	Condition   Expr
	Then        *Block
	IfNotExists bool
	Comment     string
}

func (*DefineEventStmt) stmtNode() {}

// DefineAnalyzerStmt is DEFINE ANALYZER.
type DefineAnalyzerStmt struct {
	Name        string
	Tokenizers  []catalog.Tokenizer
	Filters     []catalog.Filter
	IfNotExists bool
	Comment     string
}

func (*DefineAnalyzerStmt) stmtNode() {}

// DefineAccessStmt is DEFINE ACCESS.
type DefineAccessStmt struct {
	Name        string
	Kind        catalog.AccessKind
	IfNotExists bool
	Comment     string
}

func (*DefineAccessStmt) stmtNode() {}

// DefineUserStmt is DEFINE USER.
type DefineUserStmt struct {
	Name        string
	Password    string // already-hashed credential; hashing is the shell's concern
	Roles       []catalog.Role
	IfNotExists bool
	Comment     string
}

func (*DefineUserStmt) stmtNode() {}

// DefineAPIStmt is DEFINE API.
type DefineAPIStmt struct {
	Path        string
	IfNotExists bool
	Comment     string
}

func (*DefineAPIStmt) stmtNode() {}

// DefineBucketStmt is DEFINE BUCKET.
type DefineBucketStmt struct {
	Name        string
	Backend     catalog.BucketBackend
	ReadOnly    bool
	IfNotExists bool
	Comment     string
}

func (*DefineBucketStmt) stmtNode() {}

// RemoveStmt generically removes a catalog entity by kind and name (spec
// §3 "Catalog entities"); the executor resolves Kind against the
// namespace/database/table context in scope.
type RemoveStmt struct {
	Kind     string // "namespace" | "database" | "table" | "field" | "index" | ...
	Table    string // set when Kind is table-scoped (field/index/event)
	Name     string
	IfExists bool
}

func (*RemoveStmt) stmtNode() {}
