// Package parser implements a recursive-descent, Pratt-precedence parser
// over the lexer's token stream, producing the ast package's
// intermediate representation (spec §4.6 "Parser"). Two independent
// recursion budgets bound pathological input: QueryRecursionLimit caps
// nested expression/statement depth, ObjectRecursionLimit caps nested
// object/array literal depth, so a single pathologically nested literal
// cannot exhaust the query-level budget meant for control flow.
package parser

import (
	"strconv"

	"github.com/syssam/veloxdb"
	"github.com/syssam/veloxdb/syn/ast"
	"github.com/syssam/veloxdb/syn/lexer"
	"github.com/syssam/veloxdb/value"
)

// Limits configures the parser's two recursion budgets.
type Limits struct {
	QueryRecursionLimit  int
	ObjectRecursionLimit int
}

// DefaultLimits matches the datastore's out-of-the-box configuration.
func DefaultLimits() Limits {
	return Limits{QueryRecursionLimit: 128, ObjectRecursionLimit: 64}
}

// Parser turns a token stream into ast nodes.
type Parser struct {
	lex         *lexer.Lexer
	limits      Limits
	queryDepth  int
	objectDepth int
}

// New returns a Parser over src using the default recursion limits.
func New(src string) *Parser { return NewWithLimits(src, DefaultLimits()) }

// NewWithLimits returns a Parser over src using custom recursion limits.
func NewWithLimits(src string, limits Limits) *Parser {
	return &Parser{lex: lexer.New(src), limits: limits}
}

func (p *Parser) enterQuery() error {
	p.queryDepth++
	if p.queryDepth > p.limits.QueryRecursionLimit {
		return veloxdb.ErrComputationDepthExceeded
	}
	return nil
}

func (p *Parser) leaveQuery() { p.queryDepth-- }

func (p *Parser) enterObject() error {
	p.objectDepth++
	if p.objectDepth > p.limits.ObjectRecursionLimit {
		return veloxdb.ErrComputationDepthExceeded
	}
	return nil
}

func (p *Parser) leaveObject() { p.objectDepth-- }

// ParseBlock parses a sequence of top-level statements separated by ';'
// until EOF.
func (p *Parser) ParseBlock() (*ast.Block, error) {
	block := &ast.Block{}
	for p.lex.Peek().Kind != lexer.EOF {
		stmt, err := p.parseStmt()
		if err != nil {
			return nil, err
		}
		block.Stmts = append(block.Stmts, stmt)
		if p.peekIsPunct(";") {
			p.lex.Next()
		}
	}
	return block, nil
}

func (p *Parser) peekIsPunct(s string) bool {
	t := p.lex.Peek()
	return t.Kind == lexer.Punct && t.Text == s
}

func (p *Parser) peekIsKeyword(s string) bool {
	t := p.lex.Peek()
	return t.Kind == lexer.Keyword && t.Text == s
}

func (p *Parser) expectPunct(s string) error {
	t := p.lex.Next()
	if t.Kind != lexer.Punct || t.Text != s {
		return veloxdb.NewInvalidArgumentsError("parser", "expected '"+s+"', got "+t.String())
	}
	return nil
}

func (p *Parser) parseStmt() (ast.Stmt, error) {
	if err := p.enterQuery(); err != nil {
		return nil, err
	}
	defer p.leaveQuery()

	tok := p.lex.Peek()
	if tok.Kind == lexer.Keyword {
		switch tok.Text {
		case "SELECT":
			return p.parseSelect()
		case "CREATE":
			return p.parseCreate()
		case "UPDATE":
			return p.parseUpdate()
		case "DELETE":
			return p.parseDelete()
		case "RELATE":
			return p.parseRelate()
		case "INSERT":
			return p.parseInsert()
		case "LIVE":
			return p.parseLive()
		case "KILL":
			return p.parseKill()
		case "BEGIN":
			// Transactions only nest at the top level; a BEGIN inside a
			// block or another transaction is a parse error.
			if p.queryDepth > 1 {
				return nil, veloxdb.NewInvalidArgumentsError("parser", "transactions cannot be nested")
			}
			return p.parseTransaction()
		case "DEFINE":
			return p.parseDefine()
		case "REMOVE":
			return p.parseRemove()
		case "RETURN":
			p.lex.Next()
			expr, err := p.parseExpr(0)
			if err != nil {
				return nil, err
			}
			return &ast.ReturnStmt{Value: expr}, nil
		case "BREAK":
			p.lex.Next()
			return &ast.BreakStmt{}, nil
		case "CONTINUE":
			p.lex.Next()
			return &ast.ContinueStmt{}, nil
		case "THROW":
			p.lex.Next()
			expr, err := p.parseExpr(0)
			if err != nil {
				return nil, err
			}
			return &ast.ThrowStmt{Value: expr}, nil
		case "LET":
			return p.parseLet()
		case "USE":
			return p.parseUse()
		case "INFO":
			return p.parseInfo()
		case "OPTION":
			return p.parseOption()
		case "UPSERT":
			return p.parseUpsert()
		case "IF":
			return p.parseIfElse()
		case "FOR":
			return p.parseFor()
		}
	}
	expr, err := p.parseExpr(0)
	if err != nil {
		return nil, err
	}
	return &ast.ExprStmt{Expr: expr}, nil
}

func (p *Parser) parseIfElse() (*ast.IfElse, error) {
	p.lex.Next() // IF
	return p.parseIfElseTail()
}

// parseIfElseTail parses everything after the IF keyword itself, shared
// with the expression grammar where the keyword was already consumed.
func (p *Parser) parseIfElseTail() (*ast.IfElse, error) {
	cond, err := p.parseExpr(0)
	if err != nil {
		return nil, err
	}
	thenBlock, err := p.parseBraceBlock()
	if err != nil {
		return nil, err
	}
	node := &ast.IfElse{Cond: cond, Then: thenBlock}
	if p.peekIsKeyword("ELSE") {
		p.lex.Next()
		if p.peekIsKeyword("IF") {
			inner, err := p.parseIfElse()
			if err != nil {
				return nil, err
			}
			node.Else = &ast.Block{Stmts: []ast.Stmt{inner}}
		} else {
			elseBlock, err := p.parseBraceBlock()
			if err != nil {
				return nil, err
			}
			node.Else = elseBlock
		}
	}
	return node, nil
}

func (p *Parser) parseFor() (*ast.ForStmt, error) {
	p.lex.Next() // FOR
	v := p.lex.Next()
	if v.Kind != lexer.Param {
		return nil, veloxdb.NewInvalidArgumentsError("parser", "expected $var after FOR")
	}
	if !p.peekIsKeyword("IN") {
		return nil, veloxdb.NewInvalidArgumentsError("parser", "expected IN in FOR loop")
	}
	p.lex.Next()
	in, err := p.parseExpr(0)
	if err != nil {
		return nil, err
	}
	body, err := p.parseBraceBlock()
	if err != nil {
		return nil, err
	}
	return &ast.ForStmt{Var: v.Text, In: in, Body: body}, nil
}

func (p *Parser) parseLet() (*ast.LetStmt, error) {
	p.lex.Next() // LET
	name := p.lex.Next()
	if name.Kind != lexer.Param {
		return nil, veloxdb.NewInvalidArgumentsError("parser", "expected $name after LET")
	}
	if err := p.expectPunct("="); err != nil {
		return nil, err
	}
	value, err := p.parseExpr(0)
	if err != nil {
		return nil, err
	}
	return &ast.LetStmt{Name: name.Text, Value: value}, nil
}

func (p *Parser) parseBraceBlock() (*ast.Block, error) {
	if err := p.expectPunct("{"); err != nil {
		return nil, err
	}
	block := &ast.Block{}
	for !p.peekIsPunct("}") {
		if p.lex.Peek().Kind == lexer.EOF {
			return nil, veloxdb.NewInvalidArgumentsError("parser", "unterminated block")
		}
		stmt, err := p.parseStmt()
		if err != nil {
			return nil, err
		}
		block.Stmts = append(block.Stmts, stmt)
		if p.peekIsPunct(";") {
			p.lex.Next()
		}
	}
	p.lex.Next() // '}'
	return block, nil
}

// parseWhat parses a single FROM/table target: a table name, an explicit
// record id, or a parenthesized subquery.
func (p *Parser) parseWhat() (ast.What, error) {
	if p.peekIsPunct("(") {
		p.lex.Next()
		stmt, err := p.parseStmt()
		if err != nil {
			return ast.What{}, err
		}
		if err := p.expectPunct(")"); err != nil {
			return ast.What{}, err
		}
		return ast.What{Subquery: stmt}, nil
	}
	tok := p.lex.Next()
	if tok.Kind != lexer.Ident {
		return ast.What{}, veloxdb.NewInvalidArgumentsError("parser", "expected table name")
	}
	if p.peekIsPunct(":") {
		p.lex.Next()
		key, err := p.parseRecordIDKey()
		if err != nil {
			return ast.What{}, err
		}
		return ast.What{Records: []value.RecordID{value.NewRecordID(tok.Text, key)}}, nil
	}
	return ast.What{Table: tok.Text}, nil
}

func (p *Parser) parseRecordIDKey() (value.RecordIDKey, error) {
	tok := p.lex.Next()
	switch tok.Kind {
	case lexer.Ident:
		return value.StringKey(tok.Text), nil
	case lexer.Number:
		n, err := strconv.ParseInt(tok.Text, 10, 64)
		if err != nil {
			return value.RecordIDKey{}, err
		}
		return value.NumberKey(n), nil
	case lexer.String:
		return value.StringKey(tok.Text), nil
	default:
		return value.RecordIDKey{}, veloxdb.NewInvalidArgumentsError("parser", "expected record id key")
	}
}
