package parser

import (
	"strconv"
	"time"

	"github.com/syssam/veloxdb"
	"github.com/syssam/veloxdb/syn/ast"
	"github.com/syssam/veloxdb/syn/lexer"
	"github.com/syssam/veloxdb/value"
)

// precedence gives each binary operator's binding power; higher binds
// tighter. Pratt parsing reads this table instead of a cascade of
// grammar rules per precedence level (spec §4.6 "Pratt-precedence").
var precedence = map[string]int{
	"??": 1, "?:": 1,
	"OR": 1, "AND": 2,
	"=": 3, "!=": 3, "<": 3, "<=": 3, ">": 3, ">=": 3, "~": 3, "!~": 3, "IN": 3, "CONTAINS": 3,
	"..": 3,
	"+": 4, "-": 4,
	"*": 5, "/": 5,
}

func binOpText(t lexer.Token) (string, bool) {
	if t.Kind == lexer.Keyword {
		switch t.Text {
		case "AND", "OR", "IN", "CONTAINS":
			return t.Text, true
		}
		return "", false
	}
	if t.Kind == lexer.Punct {
		if _, ok := precedence[t.Text]; ok {
			return t.Text, true
		}
	}
	return "", false
}

// parseExpr parses an expression with binding power at least minBp.
func (p *Parser) parseExpr(minBp int) (ast.Expr, error) {
	left, err := p.parsePrefix()
	if err != nil {
		return nil, err
	}
	for {
		op, ok := binOpText(p.lex.Peek())
		if !ok {
			break
		}
		bp := precedence[op]
		if bp < minBp {
			break
		}
		p.lex.Next()
		right, err := p.parseExpr(bp + 1)
		if err != nil {
			return nil, err
		}
		left = &ast.Binary{Op: ast.BinaryOp(op), Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parsePrefix() (ast.Expr, error) {
	tok := p.lex.Peek()
	switch {
	case tok.Kind == lexer.Keyword && tok.Text == "NOT":
		p.lex.Next()
		operand, err := p.parseExpr(precedence["AND"])
		if err != nil {
			return nil, err
		}
		return &ast.Unary{Op: ast.OpNot, Operand: operand}, nil
	case tok.Kind == lexer.Punct && tok.Text == "-":
		p.lex.Next()
		operand, err := p.parseExpr(precedence["*"])
		if err != nil {
			return nil, err
		}
		return &ast.Unary{Op: ast.OpNeg, Operand: operand}, nil
	}
	return p.parsePostfix()
}

func (p *Parser) parsePostfix() (ast.Expr, error) {
	root, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	var idm value.Idiom
	for {
		if p.peekIsPunct(".") {
			p.lex.Next()
			if p.peekIsPunct("*") {
				// `.*`: all fields / all elements of the current node.
				p.lex.Next()
				idm = append(idm, value.Part{Kind: value.PartAll})
				continue
			}
			field := p.lex.Next()
			if field.Kind != lexer.Ident && field.Kind != lexer.Keyword {
				return nil, veloxdb.NewInvalidArgumentsError("parser", "expected field name after '.'")
			}
			idm = append(idm, value.FieldPart(field.Text))
			continue
		}
		if p.peekIsPunct("[") {
			p.lex.Next()
			switch {
			case p.peekIsPunct("*"):
				p.lex.Next()
				idm = append(idm, value.Part{Kind: value.PartAll})
			case p.lex.Peek().Kind == lexer.Param && p.lex.Peek().Text == "":
				// `[$]`: the lexer reads a bare '$' as an empty Param.
				p.lex.Next()
				idm = append(idm, value.Part{Kind: value.PartLast})
			case p.peekIsKeyword("WHERE"):
				p.lex.Next()
				pred, err := p.parseExpr(0)
				if err != nil {
					return nil, err
				}
				idm = append(idm, value.Part{Kind: value.PartWhere, Where: pred})
			default:
				n := p.lex.Next()
				neg := false
				if n.Kind == lexer.Punct && n.Text == "-" {
					neg = true
					n = p.lex.Next()
				}
				i, _ := strconv.Atoi(n.Text)
				if neg {
					i = -i
				}
				idm = append(idm, value.IndexPart(i))
			}
			if err := p.expectPunct("]"); err != nil {
				return nil, err
			}
			continue
		}
		if dir, edge, ok, err := p.tryParseGraphStep(); err != nil {
			return nil, err
		} else if ok {
			idm = append(idm, value.Part{Kind: value.PartGraph, Graph: ast.GraphStep{Direction: dir, Edge: edge}})
			continue
		}
		break
	}
	if len(idm) == 0 {
		return root, nil
	}
	return &ast.IdiomExpr{Root: root, Idiom: idm}, nil
}

// tryParseGraphStep consumes a ->edge / <-edge / <->edge idiom step if one
// is next. An arrow, once seen, is consumed, and anything other than an
// identifier after it is a syntax error; RELATE parses its endpoints with
// parsePrimary, so its '->' separators never reach this function.
func (p *Parser) tryParseGraphStep() (ast.GraphDirection, string, bool, error) {
	var dir ast.GraphDirection
	switch {
	case p.peekIsPunct("->"):
		dir = ast.GraphOut
	case p.peekIsPunct("<-"):
		dir = ast.GraphIn
	case p.peekIsPunct("<->"):
		dir = ast.GraphBoth
	default:
		return 0, "", false, nil
	}
	p.lex.Next()
	tok := p.lex.Next()
	if tok.Kind != lexer.Ident {
		return 0, "", false, veloxdb.NewInvalidArgumentsError("parser", "expected edge table after graph arrow")
	}
	return dir, tok.Text, true, nil
}

func (p *Parser) parsePrimary() (ast.Expr, error) {
	tok := p.lex.Next()
	switch tok.Kind {
	case lexer.Number:
		if i, err := strconv.ParseInt(tok.Text, 10, 64); err == nil {
			return &ast.Literal{Value: value.Int(i)}, nil
		}
		f, err := strconv.ParseFloat(tok.Text, 64)
		if err != nil {
			return nil, veloxdb.NewInvalidArgumentsError("parser", "invalid number "+tok.Text)
		}
		return &ast.Literal{Value: value.Float(f)}, nil
	case lexer.Duration:
		d, err := parseDurationLiteral(tok.Text)
		if err != nil {
			return nil, err
		}
		// Directly adjacent Duration tokens ("1h" "2m" "3s") form one value.
		total := d.AsTimeDuration()
		for end := tok.Offset + len(tok.Text); p.lex.Peek().Kind == lexer.Duration && p.lex.Peek().Offset == end; {
			next := p.lex.Next()
			nd, err := parseDurationLiteral(next.Text)
			if err != nil {
				return nil, err
			}
			total += nd.AsTimeDuration()
			end = next.Offset + len(next.Text)
		}
		return &ast.Literal{Value: value.DurationValue(value.NewDuration(total))}, nil
	case lexer.String:
		return &ast.Literal{Value: value.String(tok.Text)}, nil
	case lexer.DatetimeLit:
		t, offset, err := lexer.ParseDatetime(tok.Text)
		if err != nil {
			return nil, err
		}
		return &ast.Literal{Value: value.DatetimeValue(value.NewDatetime(t, offset))}, nil
	case lexer.UuidLit:
		u, err := value.UUIDFromString(tok.Text)
		if err != nil {
			return nil, veloxdb.NewInvalidArgumentsError("parser", "invalid uuid literal "+tok.Text)
		}
		return &ast.Literal{Value: value.UUIDValue(u)}, nil
	case lexer.RecordLit:
		id, err := parseRecordLiteral(tok.Text)
		if err != nil {
			return nil, err
		}
		return &ast.Literal{Value: value.RecordIDValue(id)}, nil
	case lexer.Param:
		return &ast.ParamRef{Name: tok.Text}, nil
	case lexer.Keyword:
		switch tok.Text {
		case "NULL":
			return &ast.Literal{Value: value.Null}, nil
		case "NONE":
			return &ast.Literal{Value: value.None}, nil
		case "TRUE":
			return &ast.Literal{Value: value.Bool(true)}, nil
		case "FALSE":
			return &ast.Literal{Value: value.Bool(false)}, nil
		case "IF":
			return p.parseIfElseTail()
		}
		return nil, veloxdb.NewInvalidArgumentsError("parser", "unexpected keyword "+tok.Text)
	case lexer.Ident:
		if p.peekIsPunct("::") {
			// family::name function call.
			name := tok.Text
			for p.peekIsPunct("::") {
				p.lex.Next()
				part := p.lex.Next()
				if part.Kind != lexer.Ident && part.Kind != lexer.Keyword {
					return nil, veloxdb.NewInvalidArgumentsError("parser", "expected name after '::'")
				}
				name += "::" + part.Text
			}
			if !p.peekIsPunct("(") {
				return nil, veloxdb.NewInvalidArgumentsError("parser", "expected '(' after function name "+name)
			}
			return p.parseFuncCallArgs(name)
		}
		if p.peekIsPunct(":") {
			p.lex.Next()
			key, err := p.parseRecordIDKey()
			if err != nil {
				return nil, err
			}
			return &ast.Literal{Value: value.RecordIDValue(value.NewRecordID(tok.Text, key))}, nil
		}
		if p.peekIsPunct("(") {
			return p.parseFuncCallArgs(tok.Text)
		}
		return &ast.IdiomExpr{Root: nil, Idiom: value.NewIdiom(value.FieldPart(tok.Text))}, nil
	case lexer.Punct:
		switch tok.Text {
		case "(":
			inner, err := p.parseExpr(0)
			if err != nil {
				return nil, err
			}
			if err := p.expectPunct(")"); err != nil {
				return nil, err
			}
			return inner, nil
		case "[":
			return p.parseArrayLiteral()
		case "{":
			return p.parseObjectLiteral()
		case "->", "<-", "<->":
			// A leading graph arrow seeds a traversal from the current
			// document (`SELECT ->bought->product FROM user:tobie`).
			var dir ast.GraphDirection
			switch tok.Text {
			case "->":
				dir = ast.GraphOut
			case "<-":
				dir = ast.GraphIn
			default:
				dir = ast.GraphBoth
			}
			edge := p.lex.Next()
			if edge.Kind != lexer.Ident {
				return nil, veloxdb.NewInvalidArgumentsError("parser", "expected edge table after graph arrow")
			}
			return &ast.IdiomExpr{Root: nil, Idiom: value.NewIdiom(
				value.Part{Kind: value.PartGraph, Graph: ast.GraphStep{Direction: dir, Edge: edge.Text}},
			)}, nil
		}
	}
	return nil, veloxdb.NewInvalidArgumentsError("parser", "unexpected token "+tok.String())
}

func (p *Parser) parseFuncCallArgs(name string) (ast.Expr, error) {
	p.lex.Next() // '('
	var args []ast.Expr
	for !p.peekIsPunct(")") {
		arg, err := p.parseExpr(0)
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
		if p.peekIsPunct(",") {
			p.lex.Next()
		}
	}
	p.lex.Next() // ')'
	return &ast.FuncCall{Name: name, Args: args}, nil
}

func (p *Parser) parseArrayLiteral() (ast.Expr, error) {
	if err := p.enterObject(); err != nil {
		return nil, err
	}
	defer p.leaveObject()
	var elems []ast.Expr
	for !p.peekIsPunct("]") {
		e, err := p.parseExpr(0)
		if err != nil {
			return nil, err
		}
		elems = append(elems, e)
		if p.peekIsPunct(",") {
			p.lex.Next()
		}
	}
	p.lex.Next() // ']'
	return &ast.ArrayExpr{Elems: elems}, nil
}

func (p *Parser) parseObjectLiteral() (ast.Expr, error) {
	if err := p.enterObject(); err != nil {
		return nil, err
	}
	defer p.leaveObject()
	var fields []ast.ObjectField
	for !p.peekIsPunct("}") {
		key := p.lex.Next()
		if key.Kind != lexer.Ident && key.Kind != lexer.String && key.Kind != lexer.Keyword {
			return nil, veloxdb.NewInvalidArgumentsError("parser", "expected object key")
		}
		if err := p.expectPunct(":"); err != nil {
			return nil, err
		}
		val, err := p.parseExpr(0)
		if err != nil {
			return nil, err
		}
		fields = append(fields, ast.ObjectField{Key: key.Text, Value: val})
		if p.peekIsPunct(",") {
			p.lex.Next()
		}
	}
	p.lex.Next() // '}'
	return &ast.ObjectExpr{Fields: fields}, nil
}

// parseRecordLiteral parses the body of an r"table:key" literal: the key
// may quote arbitrary content, so the split happens on the first ':' and
// a purely numeric key becomes a number key.
func parseRecordLiteral(text string) (value.RecordID, error) {
	for i := 0; i < len(text); i++ {
		if text[i] == ':' {
			table, rest := text[:i], text[i+1:]
			if table == "" || rest == "" {
				break
			}
			if n, err := strconv.ParseInt(rest, 10, 64); err == nil {
				return value.NewRecordID(table, value.NumberKey(n)), nil
			}
			return value.NewRecordID(table, value.StringKey(rest)), nil
		}
	}
	return value.RecordID{}, veloxdb.NewInvalidArgumentsError("parser", "invalid record literal "+text)
}

func parseDurationLiteral(text string) (value.Duration, error) {
	// lexer guarantees a digit run followed by one known unit suffix.
	i := 0
	for i < len(text) && text[i] >= '0' && text[i] <= '9' {
		i++
	}
	n, err := strconv.ParseInt(text[:i], 10, 64)
	if err != nil {
		return value.Duration{}, err
	}
	unit := text[i:]
	var d time.Duration
	switch unit {
	case "ns":
		d = time.Duration(n)
	case "us":
		d = time.Duration(n) * time.Microsecond
	case "ms":
		d = time.Duration(n) * time.Millisecond
	case "s":
		d = time.Duration(n) * time.Second
	case "m":
		d = time.Duration(n) * time.Minute
	case "h":
		d = time.Duration(n) * time.Hour
	case "d":
		d = time.Duration(n) * 24 * time.Hour
	case "w":
		d = time.Duration(n) * 7 * 24 * time.Hour
	case "y":
		d = time.Duration(n) * 365 * 24 * time.Hour
	default:
		return value.Duration{}, veloxdb.NewInvalidArgumentsError("parser", "unknown duration unit "+unit)
	}
	return value.NewDuration(d), nil
}
