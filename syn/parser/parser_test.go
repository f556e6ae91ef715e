package parser_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/veloxdb/syn/ast"
	"github.com/syssam/veloxdb/syn/parser"
)

func parseOne(t *testing.T, src string) ast.Stmt {
	t.Helper()
	block, err := parser.New(src).ParseBlock()
	require.NoError(t, err)
	require.Len(t, block.Stmts, 1)
	return block.Stmts[0]
}

func TestParseSelectStar(t *testing.T) {
	stmt := parseOne(t, "SELECT * FROM person;")
	sel, ok := stmt.(*ast.SelectStmt)
	require.True(t, ok)
	require.Len(t, sel.Fields, 1)
	assert.True(t, sel.Fields[0].Star)
	require.Len(t, sel.From, 1)
	assert.Equal(t, "person", sel.From[0].Table)
}

func TestParseSelectWithWhereAndLimit(t *testing.T) {
	stmt := parseOne(t, "SELECT name, age FROM person WHERE age > 18 LIMIT 10;")
	sel, ok := stmt.(*ast.SelectStmt)
	require.True(t, ok)
	assert.Len(t, sel.Fields, 2)
	assert.NotNil(t, sel.Where)
	assert.NotNil(t, sel.Limit)
}

func TestParseSelectRecordID(t *testing.T) {
	stmt := parseOne(t, "SELECT * FROM person:tobie;")
	sel, ok := stmt.(*ast.SelectStmt)
	require.True(t, ok)
	require.Len(t, sel.From, 1)
	require.Len(t, sel.From[0].Records, 1)
	assert.Equal(t, "person", sel.From[0].Records[0].Table)
}

func TestParseCreateContent(t *testing.T) {
	stmt := parseOne(t, `CREATE person CONTENT { name: "tobie" };`)
	cr, ok := stmt.(*ast.CreateStmt)
	require.True(t, ok)
	require.Len(t, cr.What, 1)
	assert.Equal(t, "person", cr.What[0].Table)
	_, isObj := cr.Content.(*ast.ObjectExpr)
	assert.True(t, isObj)
}

func TestParseCreateSet(t *testing.T) {
	stmt := parseOne(t, `CREATE person SET name = "tobie", age = 21;`)
	cr, ok := stmt.(*ast.CreateStmt)
	require.True(t, ok)
	obj, isObj := cr.Content.(*ast.ObjectExpr)
	require.True(t, isObj)
	assert.Len(t, obj.Fields, 2)
}

func TestParseUpdateSet(t *testing.T) {
	stmt := parseOne(t, `UPDATE person SET age = 22 WHERE name = "tobie";`)
	up, ok := stmt.(*ast.UpdateStmt)
	require.True(t, ok)
	require.Len(t, up.Set, 1)
	assert.NotNil(t, up.Where)
}

func TestParseDeleteWhere(t *testing.T) {
	stmt := parseOne(t, `DELETE person WHERE age < 18;`)
	del, ok := stmt.(*ast.DeleteStmt)
	require.True(t, ok)
	assert.NotNil(t, del.Where)
}

func TestParseRelate(t *testing.T) {
	stmt := parseOne(t, `RELATE person:tobie->knows->person:jaime CONTENT { since: 2020 };`)
	rel, ok := stmt.(*ast.RelateStmt)
	require.True(t, ok)
	assert.Equal(t, "knows", rel.Edge)
	assert.NotNil(t, rel.Content)
}

func TestParseLiveSelectDiff(t *testing.T) {
	stmt := parseOne(t, `LIVE SELECT DIFF FROM person;`)
	live, ok := stmt.(*ast.LiveStmt)
	require.True(t, ok)
	assert.True(t, live.Diff)
	assert.Empty(t, live.Select.Fields)
}

func TestParseKill(t *testing.T) {
	stmt := parseOne(t, `KILL $id;`)
	kill, ok := stmt.(*ast.KillStmt)
	require.True(t, ok)
	assert.NotNil(t, kill.ID)
}

func TestParseTransactionBlock(t *testing.T) {
	stmt := parseOne(t, `BEGIN TRANSACTION; CREATE person; COMMIT TRANSACTION;`)
	tx, ok := stmt.(*ast.TransactionStmt)
	require.True(t, ok)
	assert.Len(t, tx.Body, 1)
}

func TestParseDefineTable(t *testing.T) {
	stmt := parseOne(t, `DEFINE TABLE person SCHEMAFULL;`)
	def, ok := stmt.(*ast.DefineTableStmt)
	require.True(t, ok)
	assert.Equal(t, "person", def.Name)
	assert.True(t, def.Schemafull)
}

func TestParseDefineFieldWithAssert(t *testing.T) {
	stmt := parseOne(t, `DEFINE FIELD age ON TABLE person TYPE number ASSERT age >= 0;`)
	def, ok := stmt.(*ast.DefineFieldStmt)
	require.True(t, ok)
	assert.Equal(t, "age", def.Name)
	assert.Equal(t, "number", def.Type)
	assert.NotNil(t, def.Assert)
}

func TestParseDefineIndexUnique(t *testing.T) {
	stmt := parseOne(t, `DEFINE INDEX idx_email ON TABLE person FIELDS email UNIQUE;`)
	def, ok := stmt.(*ast.DefineIndexStmt)
	require.True(t, ok)
	assert.Equal(t, []string{"email"}, def.Fields)
	assert.True(t, def.Unique)
}

func TestParseRemoveTableIfExists(t *testing.T) {
	stmt := parseOne(t, `REMOVE TABLE IF EXISTS person;`)
	rm, ok := stmt.(*ast.RemoveStmt)
	require.True(t, ok)
	assert.Equal(t, "table", rm.Kind)
	assert.True(t, rm.IfExists)
}

func TestParseIfElseExpression(t *testing.T) {
	stmt := parseOne(t, `IF true { RETURN 1; } ELSE { RETURN 2; };`)
	ie, ok := stmt.(*ast.IfElse)
	require.True(t, ok)
	assert.NotNil(t, ie.Then)
	assert.NotNil(t, ie.Else)
}

func TestParseForLoop(t *testing.T) {
	stmt := parseOne(t, `FOR $x IN [1, 2, 3] { RETURN $x; };`)
	fs, ok := stmt.(*ast.ForStmt)
	require.True(t, ok)
	assert.Equal(t, "x", fs.Var)
}

func TestParseExprPrecedence(t *testing.T) {
	stmt := parseOne(t, `RETURN 1 + 2 * 3;`)
	ret, ok := stmt.(*ast.ReturnStmt)
	require.True(t, ok)
	bin, ok := ret.Value.(*ast.Binary)
	require.True(t, ok)
	assert.Equal(t, ast.OpAdd, bin.Op)
	rightBin, ok := bin.Right.(*ast.Binary)
	require.True(t, ok)
	assert.Equal(t, ast.OpMul, rightBin.Op)
}

func TestQueryRecursionLimitExceeded(t *testing.T) {
	src := ""
	for i := 0; i < 200; i++ {
		src += "IF true { "
	}
	src += "RETURN 1;"
	for i := 0; i < 200; i++ {
		src += " }"
	}
	_, err := parser.New(src).ParseBlock()
	assert.Error(t, err)
}

func TestObjectRecursionLimitExceeded(t *testing.T) {
	src := "RETURN "
	for i := 0; i < 100; i++ {
		src += "["
	}
	src += "1"
	for i := 0; i < 100; i++ {
		src += "]"
	}
	src += ";"
	_, err := parser.New(src).ParseBlock()
	assert.Error(t, err)
}

func TestParseUseNamespaceDatabase(t *testing.T) {
	stmt := parseOne(t, `USE NAMESPACE test DATABASE main;`)
	use, ok := stmt.(*ast.UseStmt)
	require.True(t, ok)
	assert.Equal(t, "test", use.Namespace)
	assert.Equal(t, "main", use.Database)
}

func TestParseInfoForTable(t *testing.T) {
	stmt := parseOne(t, `INFO FOR TABLE person;`)
	info, ok := stmt.(*ast.InfoStmt)
	require.True(t, ok)
	assert.Equal(t, ast.InfoTable, info.Level)
	assert.Equal(t, "person", info.Target)
}

func TestParseUpsertSetsFlag(t *testing.T) {
	stmt := parseOne(t, `UPSERT counter:hits SET count = 1;`)
	up, ok := stmt.(*ast.UpdateStmt)
	require.True(t, ok)
	assert.True(t, up.Upsert)
}

func TestParseSelectExplain(t *testing.T) {
	stmt := parseOne(t, `SELECT * FROM person EXPLAIN FULL;`)
	sel, ok := stmt.(*ast.SelectStmt)
	require.True(t, ok)
	assert.True(t, sel.Explain)
	assert.True(t, sel.ExplainFull)
}

func TestParseGraphIdiomProjection(t *testing.T) {
	stmt := parseOne(t, `SELECT ->bought->product AS products FROM user:tobie;`)
	sel, ok := stmt.(*ast.SelectStmt)
	require.True(t, ok)
	require.Len(t, sel.Fields, 1)
	assert.Equal(t, "products", sel.Fields[0].Alias)
	idm, ok := sel.Fields[0].Expr.(*ast.IdiomExpr)
	require.True(t, ok)
	require.Len(t, idm.Idiom, 1)
	step, ok := idm.Idiom[0].Graph.(ast.GraphStep)
	require.True(t, ok)
	assert.Equal(t, "product", step.Edge)
}

func TestParseTransactionCancelFlag(t *testing.T) {
	stmt := parseOne(t, `BEGIN; CREATE person; CANCEL;`)
	tx, ok := stmt.(*ast.TransactionStmt)
	require.True(t, ok)
	assert.True(t, tx.Cancel)
}

func TestParseDatetimeLiteral(t *testing.T) {
	stmt := parseOne(t, `RETURN d"2024-02-29T12:30:00Z";`)
	ret, ok := stmt.(*ast.ReturnStmt)
	require.True(t, ok)
	lit, ok := ret.Value.(*ast.Literal)
	require.True(t, ok)
	_, isDt := lit.Value.AsDatetime()
	assert.True(t, isDt)
}

func TestParseDatetimeNonExistentDateFails(t *testing.T) {
	_, err := parser.New(`RETURN d"2023-02-29T00:00:00Z";`).ParseBlock()
	assert.Error(t, err)
}

func TestParseNamespacedFunctionCall(t *testing.T) {
	stmt := parseOne(t, `RETURN string::uppercase('a');`)
	ret, ok := stmt.(*ast.ReturnStmt)
	require.True(t, ok)
	call, ok := ret.Value.(*ast.FuncCall)
	require.True(t, ok)
	assert.Equal(t, "string::uppercase", call.Name)
}
