package parser

import (
	"github.com/syssam/veloxdb"
	"github.com/syssam/veloxdb/syn/ast"
	"github.com/syssam/veloxdb/syn/lexer"
)

func (p *Parser) parseRelate() (*ast.RelateStmt, error) {
	p.lex.Next() // RELATE
	stmt := &ast.RelateStmt{}
	if p.peekIsKeyword("ONLY") {
		p.lex.Next()
		stmt.Only = true
	}
	// Endpoints are parsed as primaries (record ids, params, subqueries)
	// so the '->' separators are not mistaken for graph idiom steps.
	from, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	stmt.From = from

	if !p.peekIsPunct("->") {
		return nil, veloxdb.NewInvalidArgumentsError("parser", "expected '->' in RELATE")
	}
	p.lex.Next()
	edge, err := p.expectIdent()
	if err != nil {
		return nil, err
	}
	stmt.Edge = edge
	if !p.peekIsPunct("->") {
		return nil, veloxdb.NewInvalidArgumentsError("parser", "expected '->' after edge name in RELATE")
	}
	p.lex.Next()

	to, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	stmt.To = to

	if p.peekIsKeyword("CONTENT") {
		p.lex.Next()
		content, err := p.parseExpr(0)
		if err != nil {
			return nil, err
		}
		stmt.Content = content
	} else if p.peekIsKeyword("SET") {
		p.lex.Next()
		obj, err := p.parseSetClauseAsObject()
		if err != nil {
			return nil, err
		}
		stmt.Content = obj
	}
	return stmt, nil
}

func (p *Parser) parseInsert() (*ast.InsertStmt, error) {
	p.lex.Next() // INSERT
	if p.peekIsKeyword("INTO") {
		p.lex.Next()
	}
	into, err := p.expectIdent()
	if err != nil {
		return nil, err
	}
	stmt := &ast.InsertStmt{Into: into}
	if p.peekIsKeyword("VALUES") {
		p.lex.Next()
		for p.peekIsPunct("(") {
			v, err := p.parseExpr(0)
			if err != nil {
				return nil, err
			}
			stmt.Values = append(stmt.Values, v)
			if p.peekIsPunct(",") {
				p.lex.Next()
				continue
			}
			break
		}
		return stmt, nil
	}
	v, err := p.parseExpr(0)
	if err != nil {
		return nil, err
	}
	stmt.Values = []ast.Expr{v}
	return stmt, nil
}

func (p *Parser) parseLive() (*ast.LiveStmt, error) {
	p.lex.Next() // LIVE
	if !p.peekIsKeyword("SELECT") {
		return nil, veloxdb.NewInvalidArgumentsError("parser", "expected SELECT after LIVE")
	}
	p.lex.Next() // SELECT
	stmt := &ast.LiveStmt{}
	noFields := false
	if p.peekIsKeyword("DIFF") {
		p.lex.Next()
		stmt.Diff = true
		noFields = true
	}
	sel, err := p.parseSelectTail(noFields)
	if err != nil {
		return nil, err
	}
	stmt.Select = sel
	return stmt, nil
}

func (p *Parser) parseKill() (*ast.KillStmt, error) {
	p.lex.Next() // KILL
	id, err := p.parseExpr(0)
	if err != nil {
		return nil, err
	}
	return &ast.KillStmt{ID: id}, nil
}

// parseTransaction parses BEGIN [TRANSACTION] ... (COMMIT|CANCEL)
// [TRANSACTION] as a single block with explicit boundaries (spec §4.7
// "transaction discipline").
func (p *Parser) parseTransaction() (*ast.TransactionStmt, error) {
	p.lex.Next() // BEGIN
	if p.peekIsKeyword("TRANSACTION") {
		p.lex.Next()
	}
	if p.peekIsPunct(";") {
		p.lex.Next()
	}
	stmt := &ast.TransactionStmt{}
	for {
		tok := p.lex.Peek()
		if tok.Kind == lexer.Keyword && (tok.Text == "COMMIT" || tok.Text == "CANCEL") {
			stmt.Cancel = tok.Text == "CANCEL"
			p.lex.Next()
			if p.peekIsKeyword("TRANSACTION") {
				p.lex.Next()
			}
			break
		}
		if tok.Kind == lexer.EOF {
			return nil, veloxdb.NewInvalidArgumentsError("parser", "unterminated transaction block")
		}
		s, err := p.parseStmt()
		if err != nil {
			return nil, err
		}
		stmt.Body = append(stmt.Body, s)
		if p.peekIsPunct(";") {
			p.lex.Next()
		}
	}
	return stmt, nil
}
