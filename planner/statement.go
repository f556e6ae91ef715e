package planner

import (
	"github.com/syssam/veloxdb"
	"github.com/syssam/veloxdb/syn/ast"
	"github.com/syssam/veloxdb/value"
)

// PlanStatement lowers any plannable statement to an OperatorPlan.
// Statements the physical planner has no lowering for (FOR/LET/RETURN and
// the other block-structured forms) return Unimplemented, the signal the
// engine uses to fall back to the interpreter path over the same
// FrozenContext (spec §4.6 "Deferred planning").
func PlanStatement(cat Catalog, ctx *FrozenContext, stmt ast.Stmt) (*OperatorPlan, error) {
	switch s := stmt.(type) {
	case *ast.SelectStmt:
		return PlanSelect(cat, ctx, s)
	case *ast.CreateStmt:
		return PlanCreate(cat, ctx, s)
	case *ast.UpdateStmt:
		return PlanUpdate(cat, ctx, s)
	case *ast.DeleteStmt:
		return PlanDelete(cat, ctx, s)
	case *ast.InsertStmt:
		return PlanInsert(cat, ctx, s)
	case *ast.RelateStmt:
		return PlanRelate(cat, ctx, s)
	case *ast.IfElse:
		return PlanIfElse(cat, ctx, s)
	case *ast.ExprStmt:
		if inner, ok := s.Expr.(ast.Stmt); ok {
			return PlanStatement(cat, ctx, inner)
		}
		return nil, veloxdb.NewUnimplementedError("planning a bare expression statement")
	default:
		return nil, veloxdb.NewUnimplementedError("planning this statement kind")
	}
}

// PlanCreate lowers CREATE: each target contributes one seed row (the
// record id, or an empty row for a bare table target) that the write
// operator fills from CONTENT/SET and persists.
func PlanCreate(cat Catalog, ctx *FrozenContext, stmt *ast.CreateStmt) (*OperatorPlan, error) {
	if len(stmt.What) == 0 {
		return nil, veloxdb.NewInvalidArgumentsError("planner", "CREATE requires a target")
	}
	var plan *OperatorPlan
	for _, what := range stmt.What {
		table, seeds, err := createSeeds(what)
		if err != nil {
			return nil, err
		}
		for _, seed := range seeds {
			leaf := Leaf(OpScan, ReadOnly, ContextDatabase, OneRow(), ValueIterable(seed))
			write := Wrap(OpWrite, leaf)
			write.Access = ReadWrite
			write.Write = &WriteSpec{
				Kind:    WriteCreate,
				Table:   table,
				Content: stmt.Content,
				Only:    stmt.Only,
				Replace: true,
			}
			plan = union(plan, write)
		}
	}
	return plan, nil
}

// createSeeds expands one CREATE target into its table name and the seed
// row(s) the write operator starts from.
func createSeeds(what ast.What) (string, []value.Value, error) {
	switch {
	case len(what.Records) > 0:
		seeds := make([]value.Value, 0, len(what.Records))
		for _, id := range what.Records {
			obj := value.NewObject()
			obj.Set("id", value.RecordIDValue(id))
			seeds = append(seeds, value.ObjectValue(obj))
		}
		return what.Records[0].Table, seeds, nil
	case what.Table != "":
		return what.Table, []value.Value{value.ObjectValue(value.NewObject())}, nil
	default:
		return "", nil, veloxdb.NewInvalidArgumentsError("planner", "CREATE target must be a table or record id")
	}
}

// PlanUpdate lowers UPDATE and UPSERT. The scan child supplies the
// existing rows (for UPSERT on an explicit record id, a Mergeable
// iterable that seeds a fresh row when the record is absent); Where
// filters them; the write node applies SET/CONTENT/MERGE per row.
func PlanUpdate(cat Catalog, ctx *FrozenContext, stmt *ast.UpdateStmt) (*OperatorPlan, error) {
	if len(stmt.What) == 0 {
		return nil, veloxdb.NewInvalidArgumentsError("planner", "UPDATE requires a target")
	}
	content := stmt.Content
	replace := stmt.Content != nil
	if stmt.Merge != nil {
		content = stmt.Merge
		replace = false
	}
	if len(stmt.Set) > 0 {
		content = assignmentsToObject(stmt.Set)
		replace = false
	}

	kind := WriteUpdate
	if stmt.Upsert {
		kind = WriteUpsert
	}

	var plan *OperatorPlan
	for _, what := range stmt.What {
		scan, table, err := writeTargetScan(what, stmt.Upsert)
		if err != nil {
			return nil, err
		}
		child := scan
		if stmt.Where != nil {
			child = Wrap(OpFilter, scan)
			child.Expr = stmt.Where
		}
		write := Wrap(OpWrite, child)
		write.Access = ReadWrite
		write.Write = &WriteSpec{
			Kind:    kind,
			Table:   table,
			Content: content,
			Set:     stmt.Set,
			Only:    stmt.Only,
			Replace: replace,
		}
		plan = union(plan, write)
	}
	return plan, nil
}

// PlanDelete lowers DELETE: scan the target, filter, delete per row.
func PlanDelete(cat Catalog, ctx *FrozenContext, stmt *ast.DeleteStmt) (*OperatorPlan, error) {
	if len(stmt.What) == 0 {
		return nil, veloxdb.NewInvalidArgumentsError("planner", "DELETE requires a target")
	}
	var plan *OperatorPlan
	for _, what := range stmt.What {
		scan, table, err := writeTargetScan(what, false)
		if err != nil {
			return nil, err
		}
		child := scan
		if stmt.Where != nil {
			child = Wrap(OpFilter, scan)
			child.Expr = stmt.Where
		}
		write := Wrap(OpWrite, child)
		write.Access = ReadWrite
		write.Write = &WriteSpec{Kind: WriteDelete, Table: table, Only: stmt.Only}
		plan = union(plan, write)
	}
	return plan, nil
}

// PlanInsert lowers INSERT: one write node per VALUES row, each seeded
// with an empty row the content expression fills.
func PlanInsert(cat Catalog, ctx *FrozenContext, stmt *ast.InsertStmt) (*OperatorPlan, error) {
	if stmt.Into == "" {
		return nil, veloxdb.NewInvalidArgumentsError("planner", "INSERT requires a target table")
	}
	var plan *OperatorPlan
	for _, v := range stmt.Values {
		leaf := Leaf(OpScan, ReadOnly, ContextDatabase, OneRow(), ValueIterable(value.ObjectValue(value.NewObject())))
		write := Wrap(OpWrite, leaf)
		write.Access = ReadWrite
		write.Write = &WriteSpec{Kind: WriteInsert, Table: stmt.Into, Content: v, Replace: true}
		plan = union(plan, write)
	}
	if plan == nil {
		return nil, veloxdb.NewInvalidArgumentsError("planner", "INSERT requires at least one value")
	}
	return plan, nil
}

// PlanRelate lowers RELATE into a single write node carrying the endpoint
// expressions; the executor resolves them to record ids and writes the
// edge rows in both key directions.
func PlanRelate(cat Catalog, ctx *FrozenContext, stmt *ast.RelateStmt) (*OperatorPlan, error) {
	leaf := Leaf(OpScan, ReadOnly, ContextDatabase, OneRow(), ValueIterable(value.ObjectValue(value.NewObject())))
	write := Wrap(OpWrite, leaf)
	write.Access = ReadWrite
	write.Write = &WriteSpec{
		Kind:      WriteRelate,
		Table:     stmt.Edge,
		EdgeTable: stmt.Edge,
		Content:   stmt.Content,
		From:      stmt.From,
		To:        stmt.To,
		Only:      stmt.Only,
	}
	return write, nil
}

// PlanIfElse lowers IF/ELSE into a deferred-branch node: the guard (Cond)
// and each branch body (Exprs) stay as expressions; the executor evaluates
// the guard, then evaluates (and thereby plans) only the branch it selects
// (spec §4.6 "Deferred planning inside control flow").
func PlanIfElse(cat Catalog, ctx *FrozenContext, stmt *ast.IfElse) (*OperatorPlan, error) {
	plan := &OperatorPlan{
		Kind:        OpIfElse,
		Access:      ReadWrite, // branches are unplanned; assume the worst
		Level:       ContextDatabase,
		Cardinality: OneRow(),
		Cond:        stmt.Cond,
	}
	plan.Exprs = append(plan.Exprs, stmt.Then)
	if stmt.Else != nil {
		plan.Exprs = append(plan.Exprs, stmt.Else)
	}
	return plan, nil
}

// assignmentsToObject folds SET assignments into a single ObjectExpr so
// the write operator sees one uniform content shape. Only the leading
// field name of each assignment's idiom contributes a key; any later idiom
// parts are not represented (the parser's SET builds single-field idioms).
func assignmentsToObject(set []ast.Assignment) ast.Expr {
	obj := &ast.ObjectExpr{}
	for _, a := range set {
		if len(a.Idiom) == 0 || a.Idiom[0].Kind != value.PartField {
			continue
		}
		obj.Fields = append(obj.Fields, ast.ObjectField{Key: a.Idiom[0].Field, Value: a.Value})
	}
	return obj
}

// writeTargetScan builds the scan child a write statement iterates:
// explicit record ids become Thing scans (Mergeable for UPSERT so a
// missing record seeds a fresh row), a table name becomes a full scan.
func writeTargetScan(what ast.What, upsert bool) (*OperatorPlan, string, error) {
	switch {
	case len(what.Records) > 0:
		var plan *OperatorPlan
		for _, id := range what.Records {
			it := ThingIterable(id)
			if upsert {
				obj := value.NewObject()
				obj.Set("id", value.RecordIDValue(id))
				it = MergeableIterable(id, value.ObjectValue(obj))
			}
			plan = union(plan, Leaf(OpScan, ReadOnly, ContextDatabase, OneRow(), it))
		}
		return plan, what.Records[0].Table, nil
	case what.Table != "":
		it := TableIterable(what.Table, StrategyKeysAndValues, Forward)
		return Leaf(OpScan, ReadOnly, ContextDatabase, Unknown(), it), what.Table, nil
	default:
		return nil, "", veloxdb.NewInvalidArgumentsError("planner", "write target must be a table or record id")
	}
}

// union chains two plans as an ordered concatenation. The node reuses
// OpShuffle's kind (the executor drains multi-child shuffle nodes
// sequentially, shuffling only single-child ORDER BY RAND() nodes).
func union(a, b *OperatorPlan) *OperatorPlan {
	if a == nil {
		return b
	}
	return &OperatorPlan{
		Kind:        OpShuffle,
		Access:      a.Access.Combine(b.Access),
		Level:       a.Level.Max(b.Level),
		Cardinality: Unknown(),
		Children:    []*OperatorPlan{a, b},
	}
}
