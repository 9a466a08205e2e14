package ast

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/leengari/birchtree/internal/parser/lexer"
)

// Node is the base interface for all AST nodes
type Node interface {
	String() string
}

// Operand is one side of a condition
type Operand interface {
	Node
	operandNode()
}

// ColumnRef is a qualified column reference (alias.column)
type ColumnRef struct {
	Table  string
	Column string
}

func (c *ColumnRef) operandNode()   {}
func (c *ColumnRef) String() string { return c.Table + "." + c.Column }

// Literal represents a fixed value (string, number, bool, NULL)
type Literal struct {
	TokenLiteralValue string
	Value             interface{} // string, int64, float64, bool, nil
}

func (l *Literal) operandNode() {}
func (l *Literal) String() string {
	if s, ok := l.Value.(string); ok {
		return "'" + strings.ReplaceAll(s, "'", "''") + "'"
	}
	return l.TokenLiteralValue
}

// Placeholder is a positional argument (?), Index is 0-based
type Placeholder struct {
	Index int
}

func (p *Placeholder) operandNode()   {}
func (p *Placeholder) String() string { return "?" }

// Projection: alias.column [AS out:put:name]
type Projection struct {
	Source *ColumnRef
	Alias  []string // output path segments, empty when unaliased
}

func (p *Projection) String() string {
	if len(p.Alias) == 0 {
		return p.Source.String()
	}
	return fmt.Sprintf("%s AS %s", p.Source.String(), p.OutputName())
}

// OutputName is the key the projected column carries in a result row
func (p *Projection) OutputName() string {
	if len(p.Alias) == 0 {
		return p.Source.Column
	}
	return strings.Join(p.Alias, ":")
}

// TableRef: name [AS] alias
type TableRef struct {
	Name  string
	Alias string
}

func (t *TableRef) String() string {
	if t.Alias == "" || t.Alias == t.Name {
		return t.Name
	}
	if lexer.LookupIdent(t.Alias) != lexer.IDENTIFIER {
		return t.Name + " AS " + t.Alias
	}
	return t.Name + " " + t.Alias
}

// Ref is the name the table is referenced by in column references
func (t *TableRef) Ref() string {
	if t.Alias != "" {
		return t.Alias
	}
	return t.Name
}

// JoinKind represents the type of JOIN operation
type JoinKind int

const (
	JoinInner JoinKind = iota // Returns only matching rows from both tables
	JoinLeft                  // Returns all rows from left side, NULLs for unmatched right rows
)

func (k JoinKind) String() string {
	switch k {
	case JoinInner:
		return "JOIN"
	case JoinLeft:
		return "LEFT JOIN"
	default:
		return "UNKNOWN JOIN"
	}
}

// Condition: Left = Right, Left IS NULL, Left IS NOT NULL
type Condition struct {
	Left     Operand
	Operator string // "=", "IS NULL", "IS NOT NULL"
	Right    Operand
}

func (c *Condition) String() string {
	if c.Right == nil {
		return fmt.Sprintf("%s %s", c.Left.String(), c.Operator)
	}
	return fmt.Sprintf("%s %s %s", c.Left.String(), c.Operator, c.Right.String())
}

// Join: [LEFT [OUTER] | INNER] JOIN table [alias] ON conditions
type Join struct {
	Kind  JoinKind
	Table *TableRef
	On    []*Condition
}

func (j *Join) String() string {
	return fmt.Sprintf("%s %s ON %s", j.Kind, j.Table, joinConditions(j.On))
}

// FromClause: table [alias] joins... [WHERE conditions]
type FromClause struct {
	Table *TableRef
	Joins []*Join
	Where []*Condition
}

func (f *FromClause) String() string {
	var out bytes.Buffer
	out.WriteString(f.Table.String())
	for _, j := range f.Joins {
		out.WriteString(" ")
		out.WriteString(j.String())
	}
	if len(f.Where) > 0 {
		out.WriteString(" WHERE ")
		out.WriteString(joinConditions(f.Where))
	}
	return out.String()
}

func joinConditions(conditions []*Condition) string {
	parts := make([]string, len(conditions))
	for i, c := range conditions {
		parts[i] = c.String()
	}
	return strings.Join(parts, " AND ")
}
