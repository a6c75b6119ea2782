// Package builtin is a hand-written lexer and recursive-descent parser for the
// subset of Kotlin that Koin module analysis needs. It never fails: syntax it does
// not understand is skipped token by token.
package builtin

import (
	"koinlint/internal/engine/syntax"
)

// TokenKind classifies a token.
type TokenKind int

// Token kinds.
const (
	TokenEOF TokenKind = iota
	TokenIdent
	TokenString
	TokenNumber
	TokenChar
	TokenPunct
)

// Token is a lexed token. NewlineBefore is set when a line break separates it
// from the previous token.
type Token struct {
	Kind          TokenKind
	Text          string
	Start         syntax.Position
	End           syntax.Position
	NewlineBefore bool
}

func (t Token) is(text string) bool {
	return (t.Kind == TokenPunct || t.Kind == TokenIdent) && t.Text == text
}

// punctuation in longest-match order
var punctuators = []string{
	"===", "!==", "..<",
	"?.", "?:", "::", "->", "==", "!=", "<=", ">=", "&&", "||", "!!", "..",
	"+=", "-=", "*=", "/=", "%=", "++", "--",
}

// Lexer tokenizes Kotlin source.
type Lexer struct {
	input   string
	pos     int  // current position in input
	readPos int  // reading position (after current char)
	ch      byte // current char under examination
	line    int  // current line number (1-based)
	col     int  // current column number (1-based)
}

// NewLexer creates a new Lexer for the given input.
func NewLexer(input string) *Lexer {
	l := &Lexer{input: input, line: 1, col: 0}
	l.readChar()
	return l
}

func (l *Lexer) readChar() {
	if l.ch == '\n' {
		l.line++
		l.col = 0
	}
	if l.readPos >= len(l.input) {
		l.ch = 0
	} else {
		l.ch = l.input[l.readPos]
	}
	l.pos = l.readPos
	l.readPos++
	l.col++
}

func (l *Lexer) peekChar() byte {
	if l.readPos >= len(l.input) {
		return 0
	}
	return l.input[l.readPos]
}

func (l *Lexer) peekAt(offset int) byte {
	i := l.pos + offset
	if i >= len(l.input) {
		return 0
	}
	return l.input[i]
}

func (l *Lexer) atEOF() bool { return l.pos >= len(l.input) }

func (l *Lexer) currentPos() syntax.Position {
	return syntax.Position{Line: l.line, Column: l.col, Offset: l.pos}
}

// Tokenize returns every token of the input, ending with an EOF token.
func (l *Lexer) Tokenize() []Token {
	tokens := make([]Token, 0, len(l.input)/4+1)
	for {
		tok := l.NextToken()
		tokens = append(tokens, tok)
		if tok.Kind == TokenEOF {
			return tokens
		}
	}
}

// NextToken returns the next token.
func (l *Lexer) NextToken() Token {
	newline := l.skipWhitespaceAndComments()
	start := l.currentPos()

	var tok Token
	switch {
	case l.atEOF():
		tok = Token{Kind: TokenEOF}
	case l.ch == '"':
		l.readString()
		tok = Token{Kind: TokenString}
	case l.ch == '\'':
		l.readCharLiteral()
		tok = Token{Kind: TokenChar}
	case l.ch == '`':
		l.readChar()
		for !l.atEOF() && l.ch != '`' && l.ch != '\n' {
			l.readChar()
		}
		if l.ch == '`' {
			l.readChar()
		}
		tok = Token{Kind: TokenIdent}
	case isDigit(l.ch):
		l.readNumber()
		tok = Token{Kind: TokenNumber}
	case isIdentStart(l.ch):
		for isIdentPart(l.ch) {
			l.readChar()
		}
		tok = Token{Kind: TokenIdent}
	default:
		l.readPunct()
		tok = Token{Kind: TokenPunct}
	}

	tok.Start = start
	tok.End = l.currentPos()
	tok.Text = l.input[start.Offset:tok.End.Offset]
	if tok.Kind == TokenIdent && len(tok.Text) > 1 && tok.Text[0] == '`' {
		tok.Text = trimBackticks(tok.Text)
	}
	tok.NewlineBefore = newline
	return tok
}

func (l *Lexer) skipWhitespaceAndComments() bool {
	newline := false
	for !l.atEOF() {
		switch {
		case l.ch == '\n':
			newline = true
			l.readChar()
		case l.ch == ' ' || l.ch == '\t' || l.ch == '\r' || l.ch == '\f':
			l.readChar()
		case l.ch == '/' && l.peekChar() == '/':
			for !l.atEOF() && l.ch != '\n' {
				l.readChar()
			}
		case l.ch == '/' && l.peekChar() == '*':
			if l.skipBlockComment() {
				newline = true
			}
		case l.ch == '#' && l.peekChar() == '!' && l.pos == 0:
			for !l.atEOF() && l.ch != '\n' {
				l.readChar()
			}
		default:
			return newline
		}
	}
	return newline
}

// Kotlin block comments nest.
func (l *Lexer) skipBlockComment() bool {
	newline := false
	depth := 0
	for !l.atEOF() {
		if l.ch == '/' && l.peekChar() == '*' {
			depth++
			l.readChar()
			l.readChar()
			continue
		}
		if l.ch == '*' && l.peekChar() == '/' {
			depth--
			l.readChar()
			l.readChar()
			if depth == 0 {
				return newline
			}
			continue
		}
		if l.ch == '\n' {
			newline = true
		}
		l.readChar()
	}
	return newline
}

func (l *Lexer) readString() {
	if l.peekAt(1) == '"' && l.peekAt(2) == '"' {
		l.readChar()
		l.readChar()
		l.readChar()
		for !l.atEOF() {
			if l.ch == '"' && l.peekAt(1) == '"' && l.peekAt(2) == '"' {
				l.readChar()
				l.readChar()
				l.readChar()
				for l.ch == '"' {
					l.readChar()
				}
				return
			}
			if l.ch == '$' && l.peekChar() == '{' {
				l.readChar()
				l.readTemplateExpr()
				continue
			}
			l.readChar()
		}
		return
	}

	l.readChar()
	for !l.atEOF() && l.ch != '"' && l.ch != '\n' {
		switch {
		case l.ch == '\\':
			l.readChar()
			if !l.atEOF() {
				l.readChar()
			}
		case l.ch == '$' && l.peekChar() == '{':
			l.readChar()
			l.readTemplateExpr()
		default:
			l.readChar()
		}
	}
	if l.ch == '"' {
		l.readChar()
	}
}

// readTemplateExpr consumes a `{ ... }` template body, including nested strings.
func (l *Lexer) readTemplateExpr() {
	depth := 0
	for !l.atEOF() {
		switch l.ch {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				l.readChar()
				return
			}
		case '"':
			l.readString()
			continue
		}
		l.readChar()
	}
}

func (l *Lexer) readCharLiteral() {
	l.readChar()
	for !l.atEOF() && l.ch != '\'' && l.ch != '\n' {
		if l.ch == '\\' {
			l.readChar()
		}
		l.readChar()
	}
	if l.ch == '\'' {
		l.readChar()
	}
}

func (l *Lexer) readNumber() {
	for {
		switch {
		case isIdentPart(l.ch):
			l.readChar()
		case l.ch == '.' && isDigit(l.peekChar()):
			l.readChar()
		case (l.ch == '+' || l.ch == '-') && (l.input[l.pos-1] == 'e' || l.input[l.pos-1] == 'E') && isDigit(l.peekChar()):
			l.readChar()
		default:
			return
		}
	}
}

func (l *Lexer) readPunct() {
	rest := l.input[l.pos:]
	for _, p := range punctuators {
		if len(rest) >= len(p) && rest[:len(p)] == p {
			for range len(p) {
				l.readChar()
			}
			return
		}
	}
	l.readChar()
}

func isDigit(ch byte) bool { return ch >= '0' && ch <= '9' }

func isIdentStart(ch byte) bool {
	return ch == '_' || (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || ch >= 0x80
}

func isIdentPart(ch byte) bool { return isIdentStart(ch) || isDigit(ch) }

func trimBackticks(s string) string {
	if len(s) >= 2 && s[0] == '`' && s[len(s)-1] == '`' {
		return s[1 : len(s)-1]
	}
	return s
}
