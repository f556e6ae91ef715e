package parser

import (
	"github.com/syssam/veloxdb"
	"github.com/syssam/veloxdb/syn/ast"
	"github.com/syssam/veloxdb/syn/lexer"
)

// parseUse parses USE NAMESPACE <ns> [DATABASE <db>] (either clause may
// appear alone; at least one must).
func (p *Parser) parseUse() (*ast.UseStmt, error) {
	p.lex.Next() // USE
	stmt := &ast.UseStmt{}
	if p.peekIsKeyword("NAMESPACE") || p.peekIsKeyword("NS") {
		p.lex.Next()
		ns, err := p.expectIdent()
		if err != nil {
			return nil, err
		}
		stmt.Namespace = ns
	}
	if p.peekIsKeyword("DATABASE") || p.peekIsKeyword("DB") {
		p.lex.Next()
		db, err := p.expectIdent()
		if err != nil {
			return nil, err
		}
		stmt.Database = db
	}
	if stmt.Namespace == "" && stmt.Database == "" {
		return nil, veloxdb.NewInvalidArgumentsError("parser", "USE requires NAMESPACE or DATABASE")
	}
	return stmt, nil
}

// parseInfo parses INFO FOR ROOT|NS|DB|TABLE <name>.
func (p *Parser) parseInfo() (*ast.InfoStmt, error) {
	p.lex.Next() // INFO
	if !p.peekIsKeyword("FOR") {
		return nil, veloxdb.NewInvalidArgumentsError("parser", "expected FOR after INFO")
	}
	p.lex.Next()
	tok := p.lex.Next()
	if tok.Kind != lexer.Keyword {
		return nil, veloxdb.NewInvalidArgumentsError("parser", "expected ROOT, NS, DB or TABLE after INFO FOR")
	}
	stmt := &ast.InfoStmt{}
	switch tok.Text {
	case "ROOT":
		stmt.Level = ast.InfoRoot
	case "NS", "NAMESPACE":
		stmt.Level = ast.InfoNamespace
	case "DB", "DATABASE":
		stmt.Level = ast.InfoDatabase
	case "TABLE":
		stmt.Level = ast.InfoTable
		name, err := p.expectIdent()
		if err != nil {
			return nil, err
		}
		stmt.Target = name
	default:
		return nil, veloxdb.NewInvalidArgumentsError("parser", "unexpected INFO target "+tok.Text)
	}
	return stmt, nil
}

// parseOption parses OPTION <name> = <bool>.
func (p *Parser) parseOption() (*ast.OptionStmt, error) {
	p.lex.Next() // OPTION
	name, err := p.expectIdent()
	if err != nil {
		return nil, err
	}
	stmt := &ast.OptionStmt{Name: name, Value: true}
	if p.peekIsPunct("=") {
		p.lex.Next()
		tok := p.lex.Next()
		switch {
		case tok.Kind == lexer.Keyword && tok.Text == "TRUE":
			stmt.Value = true
		case tok.Kind == lexer.Keyword && tok.Text == "FALSE":
			stmt.Value = false
		default:
			return nil, veloxdb.NewInvalidArgumentsError("parser", "expected TRUE or FALSE after OPTION "+name)
		}
	}
	return stmt, nil
}

// parseUpsert parses UPSERT, sharing UPDATE's whole clause grammar.
func (p *Parser) parseUpsert() (*ast.UpdateStmt, error) {
	stmt, err := p.parseUpdate()
	if err != nil {
		return nil, err
	}
	stmt.Upsert = true
	return stmt, nil
}
