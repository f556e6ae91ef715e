package parser

import (
	"github.com/syssam/veloxdb"
	"github.com/syssam/veloxdb/syn/ast"
	"github.com/syssam/veloxdb/syn/lexer"
	"github.com/syssam/veloxdb/value"
)

func identIdiom(name string) value.Idiom {
	return value.NewIdiom(value.FieldPart(name))
}

func (p *Parser) parseSelect() (*ast.SelectStmt, error) {
	p.lex.Next() // SELECT
	return p.parseSelectTail(false)
}

// parseSelectTail parses everything after the SELECT keyword itself, so
// LIVE SELECT can special-case the DIFF marker before delegating here.
// noFields is set by LIVE SELECT DIFF, whose grammar has no field list at
// all (DIFF stands in for it).
func (p *Parser) parseSelectTail(noFields bool) (*ast.SelectStmt, error) {
	stmt := &ast.SelectStmt{}

	if noFields {
		// fall through directly to FROM
	} else if p.peekIsPunct("*") {
		p.lex.Next()
		stmt.Fields = append(stmt.Fields, ast.Field{Star: true})
	} else {
		for {
			expr, err := p.parseExpr(0)
			if err != nil {
				return nil, err
			}
			f := ast.Field{Expr: expr}
			if p.peekIsKeyword("AS") {
				p.lex.Next()
				alias := p.lex.Next()
				f.Alias = alias.Text
			}
			stmt.Fields = append(stmt.Fields, f)
			if p.peekIsPunct(",") {
				p.lex.Next()
				continue
			}
			break
		}
	}

	if !p.peekIsKeyword("FROM") {
		return nil, veloxdb.NewInvalidArgumentsError("parser", "expected FROM in SELECT")
	}
	p.lex.Next()
	if p.peekIsKeyword("ONLY") {
		p.lex.Next()
		stmt.Only = true
	}
	for {
		w, err := p.parseWhat()
		if err != nil {
			return nil, err
		}
		stmt.From = append(stmt.From, w)
		if p.peekIsPunct(",") {
			p.lex.Next()
			continue
		}
		break
	}

	if p.peekIsKeyword("WHERE") {
		p.lex.Next()
		where, err := p.parseExpr(0)
		if err != nil {
			return nil, err
		}
		stmt.Where = where
	}

	if p.peekIsKeyword("SPLIT") {
		p.lex.Next()
		for {
			idm, err := p.parseDottedIdiom()
			if err != nil {
				return nil, err
			}
			stmt.Split = append(stmt.Split, idm)
			if p.peekIsPunct(",") {
				p.lex.Next()
				continue
			}
			break
		}
	}

	if p.peekIsKeyword("GROUP") {
		p.lex.Next()
		if p.peekIsKeyword("BY") {
			p.lex.Next()
		}
		for {
			e, err := p.parseExpr(0)
			if err != nil {
				return nil, err
			}
			stmt.GroupBy = append(stmt.GroupBy, e)
			if p.peekIsPunct(",") {
				p.lex.Next()
				continue
			}
			break
		}
	}

	if p.peekIsKeyword("ORDER") {
		p.lex.Next()
		if p.peekIsKeyword("BY") {
			p.lex.Next()
		}
		for {
			e, err := p.parseExpr(0)
			if err != nil {
				return nil, err
			}
			ob := ast.OrderBy{Expr: e}
			if p.peekIsKeyword("DESC") {
				p.lex.Next()
				ob.Descending = true
			} else if p.peekIsKeyword("ASC") {
				p.lex.Next()
			}
			stmt.OrderBy = append(stmt.OrderBy, ob)
			if p.peekIsPunct(",") {
				p.lex.Next()
				continue
			}
			break
		}
	}

	if p.peekIsKeyword("LIMIT") {
		p.lex.Next()
		e, err := p.parseExpr(0)
		if err != nil {
			return nil, err
		}
		stmt.Limit = e
	}
	if p.peekIsKeyword("START") {
		p.lex.Next()
		e, err := p.parseExpr(0)
		if err != nil {
			return nil, err
		}
		stmt.Start = e
	}
	if p.peekIsKeyword("FETCH") {
		p.lex.Next()
		for {
			if tok := p.lex.Peek(); tok.Kind != lexer.Ident && tok.Kind != lexer.Keyword {
				return nil, veloxdb.NewInvalidFetchError(tok.Text)
			}
			idm, err := p.parseDottedIdiom()
			if err != nil {
				return nil, err
			}
			stmt.Fetch = append(stmt.Fetch, idm)
			if p.peekIsPunct(",") {
				p.lex.Next()
				continue
			}
			break
		}
	}
	if p.peekIsKeyword("PARALLEL") {
		p.lex.Next()
		stmt.Parallel = true
	}
	if p.peekIsKeyword("TIMEOUT") {
		p.lex.Next()
		tok := p.lex.Next()
		if tok.Kind != lexer.Duration {
			return nil, veloxdb.NewInvalidArgumentsError("parser", "expected duration after TIMEOUT")
		}
		d, err := parseDurationLiteral(tok.Text)
		if err != nil {
			return nil, err
		}
		stmt.Timeout = d
		stmt.HasTimeout = true
	}
	if p.peekIsKeyword("EXPLAIN") {
		p.lex.Next()
		stmt.Explain = true
		if p.peekIsKeyword("FULL") {
			p.lex.Next()
			stmt.ExplainFull = true
		}
	}

	return stmt, nil
}

// parseDottedIdiom parses a bare dotted path (a.b.c) into a value.Idiom,
// the shape FETCH and SPLIT clauses name fields with.
func (p *Parser) parseDottedIdiom() (value.Idiom, error) {
	name, err := p.expectIdent()
	if err != nil {
		return nil, err
	}
	idm := value.NewIdiom(value.FieldPart(name))
	for p.peekIsPunct(".") {
		p.lex.Next()
		tok := p.lex.Next()
		if tok.Kind != lexer.Ident && tok.Kind != lexer.Keyword {
			return nil, veloxdb.NewInvalidArgumentsError("parser", "expected field name after '.'")
		}
		idm = append(idm, value.FieldPart(tok.Text))
	}
	return idm, nil
}

func (p *Parser) parseCreate() (*ast.CreateStmt, error) {
	p.lex.Next() // CREATE
	stmt := &ast.CreateStmt{}
	if p.peekIsKeyword("ONLY") {
		p.lex.Next()
		stmt.Only = true
	}
	for {
		w, err := p.parseWhat()
		if err != nil {
			return nil, err
		}
		stmt.What = append(stmt.What, w)
		if p.peekIsPunct(",") {
			p.lex.Next()
			continue
		}
		break
	}
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

// parseSetClauseAsObject parses "a = 1, b = 2" and folds it into a single
// ObjectExpr so CREATE/UPDATE ... SET shares representation with CONTENT.
func (p *Parser) parseSetClauseAsObject() (ast.Expr, error) {
	obj := &ast.ObjectExpr{}
	for {
		name := p.lex.Next()
		if name.Kind != lexer.Ident {
			return nil, veloxdb.NewInvalidArgumentsError("parser", "expected field name in SET")
		}
		if err := p.expectPunct("="); err != nil {
			return nil, err
		}
		val, err := p.parseExpr(0)
		if err != nil {
			return nil, err
		}
		obj.Fields = append(obj.Fields, ast.ObjectField{Key: name.Text, Value: val})
		if p.peekIsPunct(",") {
			p.lex.Next()
			continue
		}
		break
	}
	return obj, nil
}

func (p *Parser) parseUpdate() (*ast.UpdateStmt, error) {
	p.lex.Next() // UPDATE
	stmt := &ast.UpdateStmt{}
	if p.peekIsKeyword("ONLY") {
		p.lex.Next()
		stmt.Only = true
	}
	for {
		w, err := p.parseWhat()
		if err != nil {
			return nil, err
		}
		stmt.What = append(stmt.What, w)
		if p.peekIsPunct(",") {
			p.lex.Next()
			continue
		}
		break
	}
	if p.peekIsKeyword("CONTENT") {
		p.lex.Next()
		content, err := p.parseExpr(0)
		if err != nil {
			return nil, err
		}
		stmt.Content = content
	} else if p.peekIsKeyword("MERGE") {
		p.lex.Next()
		merge, err := p.parseExpr(0)
		if err != nil {
			return nil, err
		}
		stmt.Merge = merge
	} else if p.peekIsKeyword("SET") {
		p.lex.Next()
		for {
			idm := p.lex.Next()
			if idm.Kind != lexer.Ident {
				return nil, veloxdb.NewInvalidArgumentsError("parser", "expected field name in SET")
			}
			if err := p.expectPunct("="); err != nil {
				return nil, err
			}
			val, err := p.parseExpr(0)
			if err != nil {
				return nil, err
			}
			stmt.Set = append(stmt.Set, ast.Assignment{Idiom: identIdiom(idm.Text), Value: val})
			if p.peekIsPunct(",") {
				p.lex.Next()
				continue
			}
			break
		}
	}
	if p.peekIsKeyword("WHERE") {
		p.lex.Next()
		where, err := p.parseExpr(0)
		if err != nil {
			return nil, err
		}
		stmt.Where = where
	}
	return stmt, nil
}

func (p *Parser) parseDelete() (*ast.DeleteStmt, error) {
	p.lex.Next() // DELETE
	stmt := &ast.DeleteStmt{}
	if p.peekIsKeyword("ONLY") {
		p.lex.Next()
		stmt.Only = true
	}
	for {
		w, err := p.parseWhat()
		if err != nil {
			return nil, err
		}
		stmt.What = append(stmt.What, w)
		if p.peekIsPunct(",") {
			p.lex.Next()
			continue
		}
		break
	}
	if p.peekIsKeyword("WHERE") {
		p.lex.Next()
		where, err := p.parseExpr(0)
		if err != nil {
			return nil, err
		}
		stmt.Where = where
	}
	return stmt, nil
}
