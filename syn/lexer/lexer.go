package lexer

import (
	"strings"

	"github.com/syssam/veloxdb"
)

// Lexer scans src one byte at a time, advancing a single forward cursor;
// Peek looks one token ahead without consuming it, the only lookahead the
// parser needs.
type Lexer struct {
	src     string
	pos     int
	peeked  *Token
	// depth is not updated by the lexer; nesting limits are tracked and
	// enforced by the parser (spec §4.5 "two recursion budgets").
	depth int
}

// New returns a Lexer over src.
func New(src string) *Lexer { return &Lexer{src: src} }

// Peek returns the next token without consuming it.
func (l *Lexer) Peek() Token {
	if l.peeked == nil {
		t := l.scan()
		l.peeked = &t
	}
	return *l.peeked
}

// Next consumes and returns the next token.
func (l *Lexer) Next() Token {
	if l.peeked != nil {
		t := *l.peeked
		l.peeked = nil
		return t
	}
	return l.scan()
}

func (l *Lexer) scan() Token {
	l.skipSpaceAndComments()
	start := l.pos
	if l.pos >= len(l.src) {
		return Token{Kind: EOF, Offset: start}
	}
	c := l.src[l.pos]
	switch {
	case c == '$':
		return l.scanParam(start)
	case c == '"' || c == '\'':
		return l.scanString(start, c)
	case c >= '0' && c <= '9':
		return l.scanNumber(start)
	case (c == 'u' || c == 'd' || c == 'r') && l.pos+1 < len(l.src) && (l.src[l.pos+1] == '"' || l.src[l.pos+1] == '\''):
		return l.scanPrefixedString(start, c)
	case isIdentStart(c):
		return l.scanIdentOrKeyword(start)
	default:
		return l.scanPunct(start)
	}
}

func (l *Lexer) skipSpaceAndComments() {
	for l.pos < len(l.src) {
		c := l.src[l.pos]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			l.pos++
		case c == '-' && l.pos+1 < len(l.src) && l.src[l.pos+1] == '-':
			for l.pos < len(l.src) && l.src[l.pos] != '\n' {
				l.pos++
			}
		case c == '/' && l.pos+1 < len(l.src) && l.src[l.pos+1] == '/':
			for l.pos < len(l.src) && l.src[l.pos] != '\n' {
				l.pos++
			}
		case c == '/' && l.pos+1 < len(l.src) && l.src[l.pos+1] == '*':
			l.pos += 2
			for l.pos+1 < len(l.src) && !(l.src[l.pos] == '*' && l.src[l.pos+1] == '/') {
				l.pos++
			}
			l.pos += 2
			if l.pos > len(l.src) {
				l.pos = len(l.src)
			}
		default:
			return
		}
	}
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentCont(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}

func (l *Lexer) scanIdentOrKeyword(start int) Token {
	for l.pos < len(l.src) && isIdentCont(l.src[l.pos]) {
		l.pos++
	}
	text := l.src[start:l.pos]
	if IsKeyword(strings.ToUpper(text)) {
		return Token{Kind: Keyword, Text: strings.ToUpper(text), Offset: start}
	}
	return Token{Kind: Ident, Text: text, Offset: start}
}

func (l *Lexer) scanParam(start int) Token {
	l.pos++ // consume '$'
	for l.pos < len(l.src) && isIdentCont(l.src[l.pos]) {
		l.pos++
	}
	return Token{Kind: Param, Text: l.src[start+1 : l.pos], Offset: start}
}

func (l *Lexer) scanString(start int, quote byte) Token {
	l.pos++
	for l.pos < len(l.src) && l.src[l.pos] != quote {
		if l.src[l.pos] == '\\' && l.pos+1 < len(l.src) {
			l.pos++
		}
		l.pos++
	}
	text := l.src[start+1 : min(l.pos, len(l.src))]
	if l.pos < len(l.src) {
		l.pos++ // consume closing quote
	}
	return Token{Kind: String, Text: unescape(text), Offset: start}
}

func unescape(s string) string {
	if !strings.ContainsRune(s, '\\') {
		return s
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) {
			i++
			switch s[i] {
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			default:
				b.WriteByte(s[i])
			}
			continue
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

// scanPrefixedString scans the typed string literals u"...", d"..." and
// r"..." (uuid, datetime, record id); the prefix selects the token kind
// and the body is returned unescaped for the parser to validate.
func (l *Lexer) scanPrefixedString(start int, prefix byte) Token {
	l.pos++ // consume prefix
	inner := l.scanString(l.pos, l.src[l.pos])
	kind := UuidLit
	switch prefix {
	case 'd':
		kind = DatetimeLit
	case 'r':
		kind = RecordLit
	}
	return Token{Kind: kind, Text: inner.Text, Offset: start}
}

var durationUnits = []string{"ns", "us", "ms", "s", "m", "h", "d", "w", "y"}

func (l *Lexer) scanNumber(start int) Token {
	for l.pos < len(l.src) && isDigit(l.src[l.pos]) {
		l.pos++
	}
	isFloat := false
	if l.pos < len(l.src) && l.src[l.pos] == '.' && l.pos+1 < len(l.src) && isDigit(l.src[l.pos+1]) {
		isFloat = true
		l.pos++
		for l.pos < len(l.src) && isDigit(l.src[l.pos]) {
			l.pos++
		}
	}
	// a digit run immediately followed by a known duration unit is a
	// single Duration token, e.g. "10s"; "2h30m" lexes as the adjacent
	// tokens "2h" and "30m", which parsePrimary sums into one value
	// (TIMEOUT and CHANGEFEED clauses read a single Duration token).
	for _, u := range durationUnits {
		if strings.HasPrefix(l.src[l.pos:], u) && !isFloat {
			l.pos += len(u)
			return Token{Kind: Duration, Text: l.src[start:l.pos], Offset: start}
		}
	}
	return Token{Kind: Number, Text: l.src[start:l.pos], Offset: start}
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

var punctSet = map[string]bool{
	"<=": true, ">=": true, "!=": true, "==": true, "~=": true, "!~": true,
	"&&": true, "||": true, "->": true, "<-": true, "..": true, "?:": true, "::": true,
	"??": true,
}

func (l *Lexer) scanPunct(start int) Token {
	if l.pos+2 < len(l.src) && l.src[l.pos:l.pos+3] == "<->" {
		l.pos += 3
		return Token{Kind: Punct, Text: "<->", Offset: start}
	}
	if l.pos+1 < len(l.src) {
		two := l.src[l.pos : l.pos+2]
		if punctSet[two] {
			l.pos += 2
			return Token{Kind: Punct, Text: two, Offset: start}
		}
	}
	l.pos++
	return Token{Kind: Punct, Text: l.src[start:l.pos], Offset: start}
}

// ErrUnterminatedLiteral names an EOF inside a string/param scan. Neither
// the lexer nor the parser returns it: the lexer never errors; it returns
// the best token it can and lets the parser surface a syntax error with
// position context via veloxdb's error types.
var ErrUnterminatedLiteral = veloxdb.NewInvalidArgumentsError("lexer", "unterminated literal")
