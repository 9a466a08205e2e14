package parser

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/leengari/birchtree/internal/domain/errors"
	"github.com/leengari/birchtree/internal/parser/ast"
	"github.com/leengari/birchtree/internal/parser/lexer"
)

type Parser struct {
	input        string
	tokens       []lexer.Token
	curPos       int
	curTok       lexer.Token
	peekTok      lexer.Token
	placeholders int
}

func New(input string, tokens []lexer.Token) *Parser {
	p := &Parser{input: input, tokens: tokens, curPos: 0}
	// Read two tokens to set curTok and peekTok
	p.nextToken()
	p.nextToken()
	return p
}

func (p *Parser) nextToken() {
	p.curTok = p.peekTok
	if p.curPos < len(p.tokens) {
		p.peekTok = p.tokens[p.curPos]
		p.curPos++
	} else {
		p.peekTok = lexer.Token{Type: lexer.EOF}
	}
}

// ParseProjection parses one projection expression:
// "alias.column" or "alias.column AS out:put:name".
// The expression is split structurally rather than lexed, so aliases and
// columns may be keywords or contain any non-space character. The column is
// everything after the last '.', which leaves schema-qualified aliases
// ("public.users.id") intact.
func ParseProjection(input string) (*ast.Projection, error) {
	fail := func(pos int, format string, args ...interface{}) error {
		return &errors.ExpressionError{
			Expression: input,
			Reason:     fmt.Sprintf(format, args...),
			Position:   pos + 1,
		}
	}

	if strings.TrimSpace(input) == "" {
		return nil, fail(0, "empty expression")
	}

	source, alias, aliasAt := cutAS(input)
	if i := strings.IndexFunc(source, unicode.IsSpace); i >= 0 {
		return nil, fail(i, "unexpected whitespace in %q", source)
	}

	dot := strings.LastIndex(source, ".")
	if dot < 0 {
		return nil, fail(len(source), "expected '.' after %s", source)
	}
	pos := 0
	for _, segment := range strings.Split(source[:dot], ".") {
		if segment == "" {
			return nil, fail(pos, "expected table alias")
		}
		pos += len(segment) + 1
	}
	if dot == len(source)-1 {
		return nil, fail(dot+1, "expected column name")
	}

	proj := &ast.Projection{
		Source: &ast.ColumnRef{Table: source[:dot], Column: source[dot+1:]},
	}
	if aliasAt < 0 {
		return proj, nil
	}

	pos = aliasAt
	for _, segment := range strings.Split(alias, ":") {
		if segment == "" {
			return nil, fail(pos, "expected alias segment")
		}
		if i := strings.IndexFunc(segment, unicode.IsSpace); i >= 0 {
			return nil, fail(pos+i, "unexpected whitespace in alias %q", alias)
		}
		proj.Alias = append(proj.Alias, segment)
		pos += len(segment) + 1
	}
	return proj, nil
}

// cutAS splits input around the first " AS " (any case). aliasAt is the
// offset of the alias in input, or -1 when there is none.
func cutAS(input string) (source, alias string, aliasAt int) {
	const sep = " AS "
	for i := 0; i+len(sep) <= len(input); i++ {
		if strings.EqualFold(input[i:i+len(sep)], sep) {
			return input[:i], input[i+len(sep):], i + len(sep)
		}
	}
	return input, "", -1
}

// ParseFrom parses a FROM clause (without the FROM keyword):
// table [alias] { [LEFT [OUTER] | INNER] JOIN table [alias] ON cond {AND cond} } [WHERE cond {AND cond}]
func ParseFrom(input string) (*ast.FromClause, error) {
	p, err := newParser(input)
	if err != nil {
		return nil, err
	}

	table, err := p.parseTableRef()
	if err != nil {
		return nil, err
	}
	clause := &ast.FromClause{Table: table}

	for {
		kind, ok, err := p.parseJoinKind()
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}

		joined, err := p.parseTableRef()
		if err != nil {
			return nil, err
		}
		if p.curTok.Type != lexer.ON {
			return nil, p.errorf("expected ON, got %q", p.curTok.Literal)
		}
		p.nextToken()

		on, err := p.parseConditions()
		if err != nil {
			return nil, err
		}
		clause.Joins = append(clause.Joins, &ast.Join{Kind: kind, Table: joined, On: on})
	}

	// WHERE (Optional)
	if p.curTok.Type == lexer.WHERE {
		p.nextToken()
		where, err := p.parseConditions()
		if err != nil {
			return nil, err
		}
		clause.Where = where
	}

	if err := p.expectEOF(); err != nil {
		return nil, err
	}
	return clause, nil
}

func newParser(input string) (*Parser, error) {
	tokens, err := lexer.Tokenize(input)
	if err != nil {
		return nil, &errors.ExpressionError{Expression: input, Reason: err.Error()}
	}
	if len(tokens) == 0 {
		return nil, &errors.ExpressionError{Expression: input, Reason: "empty expression"}
	}
	return New(input, tokens), nil
}

// parseColumnRef parses alias.column, where the alias may itself be
// schema-qualified. Keywords are accepted in every position because a
// dot always follows the alias.
func (p *Parser) parseColumnRef() (*ast.ColumnRef, error) {
	if !p.curTok.IsWord() {
		return nil, p.errorf("expected table alias, got %q", p.curTok.Literal)
	}
	parts := []string{p.curTok.Literal}
	p.nextToken()

	if p.curTok.Type != lexer.DOT {
		return nil, p.errorf("expected '.' after %s", parts[0])
	}
	for p.curTok.Type == lexer.DOT {
		p.nextToken()
		if !p.curTok.IsWord() {
			return nil, p.errorf("expected column name, got %q", p.curTok.Literal)
		}
		parts = append(parts, p.curTok.Literal)
		p.nextToken()
	}

	last := len(parts) - 1
	return &ast.ColumnRef{Table: strings.Join(parts[:last], "."), Column: parts[last]}, nil
}

// parseTableRef parses name[.name] [[AS] alias]. After AS any word is an
// alias, keywords included; a bare alias must be a plain identifier.
func (p *Parser) parseTableRef() (*ast.TableRef, error) {
	if !p.curTok.IsWord() {
		return nil, p.errorf("expected table name, got %q", p.curTok.Literal)
	}
	ref := &ast.TableRef{Name: p.curTok.Literal}
	p.nextToken()

	for p.curTok.Type == lexer.DOT {
		p.nextToken()
		if !p.curTok.IsWord() {
			return nil, p.errorf("expected table name after '.', got %q", p.curTok.Literal)
		}
		ref.Name += "." + p.curTok.Literal
		p.nextToken()
	}

	switch {
	case p.curTok.Type == lexer.AS:
		p.nextToken()
		if !p.curTok.IsWord() {
			return nil, p.errorf("expected alias after AS, got %q", p.curTok.Literal)
		}
		ref.Alias = p.curTok.Literal
		p.nextToken()
	case p.curTok.Type == lexer.IDENTIFIER:
		ref.Alias = p.curTok.Literal
		p.nextToken()
	}
	return ref, nil
}

// parseJoinKind consumes [LEFT [OUTER] | INNER] JOIN
func (p *Parser) parseJoinKind() (ast.JoinKind, bool, error) {
	kind := ast.JoinInner
	switch p.curTok.Type {
	case lexer.JOIN:
		p.nextToken()
		return kind, true, nil
	case lexer.INNER:
		p.nextToken()
	case lexer.LEFT:
		kind = ast.JoinLeft
		p.nextToken()
		if p.curTok.Type == lexer.OUTER {
			p.nextToken()
		}
	default:
		return kind, false, nil
	}

	if p.curTok.Type != lexer.JOIN {
		return kind, false, p.errorf("expected JOIN, got %q", p.curTok.Literal)
	}
	p.nextToken()
	return kind, true, nil
}

func (p *Parser) parseConditions() ([]*ast.Condition, error) {
	var conditions []*ast.Condition
	for {
		cond, err := p.parseCondition()
		if err != nil {
			return nil, err
		}
		conditions = append(conditions, cond)

		if p.curTok.Type != lexer.AND {
			return conditions, nil
		}
		p.nextToken()
	}
}

func (p *Parser) parseCondition() (*ast.Condition, error) {
	left, err := p.parseOperand()
	if err != nil {
		return nil, err
	}

	switch p.curTok.Type {
	case lexer.EQUALS:
		p.nextToken()
		right, err := p.parseOperand()
		if err != nil {
			return nil, err
		}
		return &ast.Condition{Left: left, Operator: "=", Right: right}, nil

	case lexer.IS:
		p.nextToken()
		op := "IS NULL"
		if p.curTok.Type == lexer.NOT {
			op = "IS NOT NULL"
			p.nextToken()
		}
		if p.curTok.Type != lexer.NULL {
			return nil, p.errorf("expected NULL, got %q", p.curTok.Literal)
		}
		p.nextToken()
		return &ast.Condition{Left: left, Operator: op}, nil

	default:
		return nil, p.errorf("expected '=' or IS, got %q", p.curTok.Literal)
	}
}

func (p *Parser) parseOperand() (ast.Operand, error) {
	if p.curTok.IsWord() && p.peekTok.Type == lexer.DOT {
		return p.parseColumnRef()
	}

	switch p.curTok.Type {
	case lexer.IDENTIFIER:
		return p.parseColumnRef()
	case lexer.STRING:
		val := p.curTok.Literal
		p.nextToken()
		return &ast.Literal{TokenLiteralValue: val, Value: val}, nil
	case lexer.NUMBER:
		valStr := p.curTok.Literal
		p.nextToken()
		// Try int
		if i, err := strconv.ParseInt(valStr, 10, 64); err == nil {
			return &ast.Literal{TokenLiteralValue: valStr, Value: i}, nil
		}
		// Try float
		if f, err := strconv.ParseFloat(valStr, 64); err == nil {
			return &ast.Literal{TokenLiteralValue: valStr, Value: f}, nil
		}
		return nil, p.errorf("invalid number: %s", valStr)
	case lexer.TRUE:
		p.nextToken()
		return &ast.Literal{TokenLiteralValue: "TRUE", Value: true}, nil
	case lexer.FALSE:
		p.nextToken()
		return &ast.Literal{TokenLiteralValue: "FALSE", Value: false}, nil
	case lexer.NULL:
		p.nextToken()
		return &ast.Literal{TokenLiteralValue: "NULL", Value: nil}, nil
	case lexer.PLACEHOLDER:
		p.nextToken()
		ph := &ast.Placeholder{Index: p.placeholders}
		p.placeholders++
		return ph, nil
	default:
		return nil, p.errorf("unexpected token in expression: %q", p.curTok.Literal)
	}
}

func (p *Parser) expectEOF() error {
	if p.curTok.Type != lexer.EOF {
		return p.errorf("unexpected trailing %q", p.curTok.Literal)
	}
	return nil
}

func (p *Parser) errorf(format string, args ...interface{}) error {
	return &errors.ExpressionError{
		Expression: p.input,
		Reason:     fmt.Sprintf(format, args...),
		Position:   p.curTok.Column,
	}
}
