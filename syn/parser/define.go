package parser

import (
	"github.com/syssam/veloxdb"
	"github.com/syssam/veloxdb/catalog"
	"github.com/syssam/veloxdb/syn/ast"
	"github.com/syssam/veloxdb/syn/lexer"
	"github.com/syssam/veloxdb/value"
)

func (p *Parser) parseIfNotExists() bool {
	if p.peekIsKeyword("IF") {
		p.lex.Next()
		if !p.peekIsKeyword("NOT") {
			return false
		}
		p.lex.Next()
		if p.peekIsKeyword("EXISTS") {
			p.lex.Next()
		}
		return true
	}
	return false
}

func (p *Parser) parseIfExists() bool {
	if p.peekIsKeyword("IF") {
		p.lex.Next()
		if p.peekIsKeyword("EXISTS") {
			p.lex.Next()
			return true
		}
	}
	return false
}

func (p *Parser) expectIdent() (string, error) {
	tok := p.lex.Next()
	if tok.Kind != lexer.Ident && tok.Kind != lexer.Keyword {
		return "", veloxdb.NewInvalidArgumentsError("parser", "expected identifier, got "+tok.String())
	}
	return tok.Text, nil
}

func (p *Parser) parseDefine() (ast.Stmt, error) {
	p.lex.Next() // DEFINE
	kind := p.lex.Next()
	switch kind.Text {
	case "NAMESPACE":
		ifNotExists := p.parseIfNotExists()
		name, err := p.expectIdent()
		if err != nil {
			return nil, err
		}
		return &ast.DefineNamespaceStmt{Name: name, IfNotExists: ifNotExists}, nil
	case "DATABASE":
		ifNotExists := p.parseIfNotExists()
		name, err := p.expectIdent()
		if err != nil {
			return nil, err
		}
		return &ast.DefineDatabaseStmt{Name: name, IfNotExists: ifNotExists}, nil
	case "TABLE":
		ifNotExists := p.parseIfNotExists()
		name, err := p.expectIdent()
		if err != nil {
			return nil, err
		}
		stmt := &ast.DefineTableStmt{Name: name, IfNotExists: ifNotExists}
		if p.peekIsKeyword("SCHEMAFULL") {
			p.lex.Next()
			stmt.Schemafull = true
		} else if p.peekIsKeyword("SCHEMALESS") {
			p.lex.Next()
		}
		if p.peekIsKeyword("TYPE") {
			p.lex.Next()
			if p.peekIsKeyword("RELATION") {
				p.lex.Next()
				stmt.Kind = catalog.TableRelation
			} else if p.peekIsKeyword("NORMAL") {
				p.lex.Next()
			}
		}
		if p.peekIsKeyword("CHANGEFEED") {
			p.lex.Next()
			tok := p.lex.Next()
			if tok.Kind != lexer.Duration {
				return nil, veloxdb.NewInvalidArgumentsError("parser", "expected duration after CHANGEFEED")
			}
			d, err := parseDurationLiteral(tok.Text)
			if err != nil {
				return nil, err
			}
			stmt.Changefeed = int64(d.AsTimeDuration())
			stmt.HasChangefeed = true
		}
		return stmt, nil
	case "FIELD":
		name, err := p.expectIdent()
		if err != nil {
			return nil, err
		}
		if !p.peekIsKeyword("ON") {
			return nil, veloxdb.NewInvalidArgumentsError("parser", "expected ON in DEFINE FIELD")
		}
		p.lex.Next()
		if p.peekIsKeyword("TABLE") {
			p.lex.Next()
		}
		table, err := p.expectIdent()
		if err != nil {
			return nil, err
		}
		stmt := &ast.DefineFieldStmt{Table: table, Name: name}
		if p.peekIsKeyword("TYPE") {
			p.lex.Next()
			typeName, err := p.expectIdent()
			if err != nil {
				return nil, err
			}
			stmt.Type = typeName
		}
		if p.peekIsKeyword("DEFAULT") {
			p.lex.Next()
			d, err := p.parseExpr(0)
			if err != nil {
				return nil, err
			}
			stmt.Default = d
		}
		if p.peekIsKeyword("ASSERT") {
			p.lex.Next()
			a, err := p.parseExpr(0)
			if err != nil {
				return nil, err
			}
			stmt.Assert = a
		}
		return stmt, nil
	case "INDEX":
		name, err := p.expectIdent()
		if err != nil {
			return nil, err
		}
		if !p.peekIsKeyword("ON") {
			return nil, veloxdb.NewInvalidArgumentsError("parser", "expected ON in DEFINE INDEX")
		}
		p.lex.Next()
		if p.peekIsKeyword("TABLE") {
			p.lex.Next()
		}
		table, err := p.expectIdent()
		if err != nil {
			return nil, err
		}
		stmt := &ast.DefineIndexStmt{Table: table, Name: name}
		if p.peekIsKeyword("FIELDS") || p.peekIsKeyword("COLUMNS") {
			p.lex.Next()
			for {
				f, err := p.expectIdent()
				if err != nil {
					return nil, err
				}
				stmt.Fields = append(stmt.Fields, f)
				if p.peekIsPunct(",") {
					p.lex.Next()
					continue
				}
				break
			}
		}
		if p.peekIsKeyword("UNIQUE") {
			p.lex.Next()
			stmt.Unique = true
		}
		if p.peekIsKeyword("SEARCH") {
			p.lex.Next()
			stmt.Kind = catalog.IndexFullText
			stmt.FullText = &catalog.FullTextParams{}
			if p.peekIsKeyword("ANALYZER") {
				p.lex.Next()
				a, err := p.expectIdent()
				if err != nil {
					return nil, err
				}
				stmt.FullText.Analyzer = a
			}
			if p.peekIsKeyword("BM25") {
				p.lex.Next()
				stmt.FullText.BM25 = true
			}
		}
		if p.peekIsKeyword("HNSW") {
			p.lex.Next()
			stmt.Kind = catalog.IndexVector
			stmt.Vector = &catalog.VectorParams{}
			if p.peekIsKeyword("DIMENSION") {
				p.lex.Next()
				n := p.lex.Next()
				stmt.Vector.Dimension = atoiSafe(n.Text)
			}
		}
		return stmt, nil
	case "FUNCTION":
		name, err := p.expectIdent()
		if err != nil {
			return nil, err
		}
		stmt := &ast.DefineFunctionStmt{Name: name}
		if err := p.expectPunct("("); err != nil {
			return nil, err
		}
		for !p.peekIsPunct(")") {
			argName := p.lex.Next()
			if argName.Kind != lexer.Param {
				return nil, veloxdb.NewInvalidArgumentsError("parser", "expected $param in function signature")
			}
			if err := p.expectPunct(":"); err != nil {
				return nil, err
			}
			typeName, err := p.expectIdent()
			if err != nil {
				return nil, err
			}
			stmt.Args = append(stmt.Args, catalog.FunctionArg{Name: argName.Text, Type: value.ParseSimpleTypeName(typeName)})
			if p.peekIsPunct(",") {
				p.lex.Next()
			}
		}
		p.lex.Next() // ')'
		body, err := p.parseBraceBlock()
		if err != nil {
			return nil, err
		}
		stmt.Body = body
		return stmt, nil
	case "PARAM":
		tok := p.lex.Next()
		if tok.Kind != lexer.Param {
			return nil, veloxdb.NewInvalidArgumentsError("parser", "expected $name after DEFINE PARAM")
		}
		stmt := &ast.DefineParamStmt{Name: tok.Text}
		if p.peekIsKeyword("VALUE") {
			p.lex.Next()
			v, err := p.parseExpr(0)
			if err != nil {
				return nil, err
			}
			stmt.Value = v
		}
		return stmt, nil
	case "EVENT":
		name, err := p.expectIdent()
		if err != nil {
			return nil, err
		}
		if !p.peekIsKeyword("ON") {
			return nil, veloxdb.NewInvalidArgumentsError("parser", "expected ON in DEFINE EVENT")
		}
		p.lex.Next()
		if p.peekIsKeyword("TABLE") {
			p.lex.Next()
		}
		table, err := p.expectIdent()
		if err != nil {
			return nil, err
		}
		stmt := &ast.DefineEventStmt{Table: table, Name: name}
		if p.peekIsKeyword("WHEN") {
			p.lex.Next()
			cond, err := p.parseExpr(0)
			if err != nil {
				return nil, err
			}
			stmt.Condition = cond
		}
		if p.peekIsKeyword("THEN") {
			p.lex.Next()
			then, err := p.parseBraceBlock()
			if err != nil {
				return nil, err
			}
			stmt.Then = then
		}
		return stmt, nil
	case "ANALYZER":
		ifNotExists := p.parseIfNotExists()
		name, err := p.expectIdent()
		if err != nil {
			return nil, err
		}
		stmt := &ast.DefineAnalyzerStmt{Name: name, IfNotExists: ifNotExists}
		if p.peekIsKeyword("TOKENIZERS") {
			p.lex.Next()
			for {
				t, err := p.expectIdent()
				if err != nil {
					return nil, err
				}
				stmt.Tokenizers = append(stmt.Tokenizers, catalog.Tokenizer(t))
				if p.peekIsPunct(",") {
					p.lex.Next()
					continue
				}
				break
			}
		}
		if p.peekIsKeyword("FILTERS") {
			p.lex.Next()
			for {
				f, err := p.expectIdent()
				if err != nil {
					return nil, err
				}
				stmt.Filters = append(stmt.Filters, catalog.Filter(f))
				if p.peekIsPunct(",") {
					p.lex.Next()
					continue
				}
				break
			}
		}
		return stmt, nil
	case "ACCESS":
		ifNotExists := p.parseIfNotExists()
		name, err := p.expectIdent()
		if err != nil {
			return nil, err
		}
		stmt := &ast.DefineAccessStmt{Name: name, IfNotExists: ifNotExists}
		if p.peekIsKeyword("TYPE") {
			p.lex.Next()
			tok := p.lex.Next()
			switch tok.Text {
			case "RECORD":
				stmt.Kind = catalog.AccessRecord
			case "JWT":
				stmt.Kind = catalog.AccessJWT
			case "BEARER":
				stmt.Kind = catalog.AccessBearer
			default:
				return nil, veloxdb.NewInvalidArgumentsError("parser", "unknown ACCESS type "+tok.Text)
			}
		}
		return stmt, nil
	case "USER":
		ifNotExists := p.parseIfNotExists()
		name, err := p.expectIdent()
		if err != nil {
			return nil, err
		}
		stmt := &ast.DefineUserStmt{Name: name, IfNotExists: ifNotExists}
		if p.peekIsKeyword("PASSWORD") {
			p.lex.Next()
			pw := p.lex.Next()
			if pw.Kind != lexer.String {
				return nil, veloxdb.NewInvalidArgumentsError("parser", "expected string after PASSWORD")
			}
			stmt.Password = pw.Text
		}
		if p.peekIsKeyword("ROLES") {
			p.lex.Next()
			for {
				tok := p.lex.Next()
				switch tok.Text {
				case "OWNER":
					stmt.Roles = append(stmt.Roles, catalog.RoleOwner)
				case "EDITOR":
					stmt.Roles = append(stmt.Roles, catalog.RoleEditor)
				case "VIEWER":
					stmt.Roles = append(stmt.Roles, catalog.RoleViewer)
				default:
					return nil, veloxdb.NewInvalidArgumentsError("parser", "unknown role "+tok.Text)
				}
				if p.peekIsPunct(",") {
					p.lex.Next()
					continue
				}
				break
			}
		}
		return stmt, nil
	case "API":
		ifNotExists := p.parseIfNotExists()
		path := p.lex.Next()
		if path.Kind != lexer.String {
			return nil, veloxdb.NewInvalidArgumentsError("parser", "expected path string after DEFINE API")
		}
		return &ast.DefineAPIStmt{Path: path.Text, IfNotExists: ifNotExists}, nil
	case "BUCKET":
		ifNotExists := p.parseIfNotExists()
		name, err := p.expectIdent()
		if err != nil {
			return nil, err
		}
		stmt := &ast.DefineBucketStmt{Name: name, IfNotExists: ifNotExists, Backend: catalog.BackendMemory}
		if p.peekIsKeyword("READONLY") {
			p.lex.Next()
			stmt.ReadOnly = true
		}
		return stmt, nil
	}
	return nil, veloxdb.NewInvalidArgumentsError("parser", "unsupported DEFINE target "+kind.Text)
}

func (p *Parser) parseRemove() (*ast.RemoveStmt, error) {
	p.lex.Next() // REMOVE
	kind := p.lex.Next()
	stmt := &ast.RemoveStmt{}
	switch kind.Text {
	case "NAMESPACE":
		stmt.Kind = "namespace"
	case "DATABASE":
		stmt.Kind = "database"
	case "TABLE":
		stmt.Kind = "table"
	case "FIELD":
		stmt.Kind = "field"
	case "INDEX":
		stmt.Kind = "index"
	case "FUNCTION":
		stmt.Kind = "function"
	case "PARAM":
		stmt.Kind = "param"
	case "EVENT":
		stmt.Kind = "event"
	case "ANALYZER":
		stmt.Kind = "analyzer"
	case "ACCESS":
		stmt.Kind = "access"
	case "USER":
		stmt.Kind = "user"
	case "API":
		stmt.Kind = "api"
	case "BUCKET":
		stmt.Kind = "bucket"
	default:
		return nil, veloxdb.NewInvalidArgumentsError("parser", "unsupported REMOVE target "+kind.Text)
	}
	stmt.IfExists = p.parseIfExists()
	if stmt.Kind == "param" || stmt.Kind == "api" {
		// Params are $-prefixed and API paths are quoted; both arrive as
		// their own token kinds rather than bare identifiers.
		tok := p.lex.Next()
		stmt.Name = tok.Text
	} else {
		name, err := p.expectIdent()
		if err != nil {
			return nil, err
		}
		stmt.Name = name
	}
	if (stmt.Kind == "field" || stmt.Kind == "index" || stmt.Kind == "event") && p.peekIsKeyword("ON") {
		p.lex.Next()
		if p.peekIsKeyword("TABLE") {
			p.lex.Next()
		}
		table, err := p.expectIdent()
		if err != nil {
			return nil, err
		}
		stmt.Table = table
	}
	return stmt, nil
}

func atoiSafe(s string) int {
	n := 0
	for _, c := range s {
		if c < '0' || c > '9' {
			break
		}
		n = n*10 + int(c-'0')
	}
	return n
}
