package lexer

import (
	"fmt"
	"strings"
)

type TokenType int

const (
	// Special
	ILLEGAL TokenType = iota
	EOF

	// Literals
	IDENTIFIER  // table_name, column_name
	STRING      // 'value'
	NUMBER      // 123, -1.23
	PLACEHOLDER // ?

	// Keywords
	AS
	JOIN
	INNER
	LEFT
	OUTER
	ON
	WHERE
	AND
	IS
	NOT
	NULL
	TRUE
	FALSE

	// Operators & Punctuation
	DOT    // .
	COLON  // :
	COMMA  // ,
	EQUALS // =
)

var keywords = map[string]TokenType{
	"AS":    AS,
	"JOIN":  JOIN,
	"INNER": INNER,
	"LEFT":  LEFT,
	"OUTER": OUTER,
	"ON":    ON,
	"WHERE": WHERE,
	"AND":   AND,
	"IS":    IS,
	"NOT":   NOT,
	"NULL":  NULL,
	"TRUE":  TRUE,
	"FALSE": FALSE,
}

type Token struct {
	Type    TokenType
	Literal string
	Line    int
	Column  int
}

// IsWord reports whether the token is an identifier or a keyword
func (t Token) IsWord() bool {
	return t.Type == IDENTIFIER || (t.Type >= AS && t.Type <= FALSE)
}

func (t Token) String() string {
	return fmt.Sprintf("Token(%d, %q)", t.Type, t.Literal)
}

type Lexer struct {
	input        string
	position     int  // current position in input (points to current char)
	readPosition int  // current reading position in input (after current char)
	ch           byte // current char under examination
	line         int
	column       int
}

func New(input string) *Lexer {
	l := &Lexer{input: input, line: 1, column: 0}
	l.readChar()
	return l
}

func (l *Lexer) readChar() {
	if l.readPosition >= len(l.input) {
		l.ch = 0
	} else {
		l.ch = l.input[l.readPosition]
	}
	l.position = l.readPosition
	l.readPosition += 1
	l.column++
}

func (l *Lexer) peekChar() byte {
	if l.readPosition >= len(l.input) {
		return 0
	}
	return l.input[l.readPosition]
}

func (l *Lexer) NextToken() Token {
	var tok Token

	l.skipWhitespace()

	line, column := l.line, l.column

	switch l.ch {
	case '.':
		tok = newToken(DOT, l.ch, line, column)
	case ':':
		tok = newToken(COLON, l.ch, line, column)
	case ',':
		tok = newToken(COMMA, l.ch, line, column)
	case '=':
		tok = newToken(EQUALS, l.ch, line, column)
	case '?':
		tok = newToken(PLACEHOLDER, l.ch, line, column)
	case '\'':
		tok = Token{Type: STRING, Literal: l.readString(), Line: line, Column: column}
		return tok
	case 0:
		return Token{Type: EOF, Line: line, Column: column}
	default:
		if isLetter(l.ch) {
			literal := l.readIdentifier()
			return Token{Type: LookupIdent(literal), Literal: literal, Line: line, Column: column}
		} else if isDigit(l.ch) || (l.ch == '-' && isDigit(l.peekChar())) {
			return Token{Type: NUMBER, Literal: l.readNumber(), Line: line, Column: column}
		}
		tok = newToken(ILLEGAL, l.ch, line, column)
	}

	l.readChar()
	return tok
}

func (l *Lexer) skipWhitespace() {
	for l.ch == ' ' || l.ch == '\t' || l.ch == '\n' || l.ch == '\r' {
		if l.ch == '\n' {
			l.line++
			l.column = 0
		}
		l.readChar()
	}
}

func (l *Lexer) readIdentifier() string {
	position := l.position
	for isLetter(l.ch) || isDigit(l.ch) {
		l.readChar()
	}
	return l.input[position:l.position]
}

func (l *Lexer) readNumber() string {
	position := l.position
	if l.ch == '-' {
		l.readChar()
	}
	for isDigit(l.ch) {
		l.readChar()
	}
	// Support simple floats
	if l.ch == '.' && isDigit(l.peekChar()) {
		l.readChar()
		for isDigit(l.ch) {
			l.readChar()
		}
	}
	return l.input[position:l.position]
}

// readString reads a quoted literal; a doubled quote ('') is an escaped quote
func (l *Lexer) readString() string {
	var out strings.Builder
	for {
		l.readChar()
		if l.ch == 0 {
			break
		}
		if l.ch == '\'' {
			if l.peekChar() != '\'' {
				break
			}
			l.readChar()
		}
		out.WriteByte(l.ch)
	}

	// Consume the closing quote
	if l.ch == '\'' {
		l.readChar()
	}

	return out.String()
}

func newToken(tokenType TokenType, ch byte, line, col int) Token {
	return Token{Type: tokenType, Literal: string(ch), Line: line, Column: col}
}

func LookupIdent(ident string) TokenType {
	if tok, ok := keywords[strings.ToUpper(ident)]; ok {
		return tok
	}
	return IDENTIFIER
}

// isLetter also accepts every byte of a multi-byte UTF-8 sequence, so
// non-ASCII identifiers lex as one word
func isLetter(ch byte) bool {
	return 'a' <= ch && ch <= 'z' || 'A' <= ch && ch <= 'Z' || ch == '_' || ch >= 0x80
}

func isDigit(ch byte) bool {
	return '0' <= ch && ch <= '9'
}

// Helper to tokenize entire string at once
func Tokenize(input string) ([]Token, error) {
	l := New(input)
	var tokens []Token
	for {
		tok := l.NextToken()
		if tok.Type == EOF {
			break
		}
		if tok.Type == ILLEGAL {
			return nil, fmt.Errorf("illegal token at line %d, col %d: %s", tok.Line, tok.Column, tok.Literal)
		}
		tokens = append(tokens, tok)
	}
	return tokens, nil
}
