package errors

import (
	"fmt"
	"strings"
)

// InvalidDescriptorError reports a table token that cannot be parsed into
// a name and alias ("users", "users u", "users AS u")
type InvalidDescriptorError struct {
	Token  string // offending input token
	Reason string // human-readable explanation
}

func (e *InvalidDescriptorError) Error() string {
	return fmt.Sprintf("invalid table descriptor %q: %s", e.Token, e.Reason)
}

// TableNotFoundError reports a table whose introspection returned no columns
type TableNotFoundError struct {
	Table string
}

func (e *TableNotFoundError) Error() string {
	return fmt.Sprintf("table %s does not exist", e.Table)
}

// ExpressionError reports a projection expression or FROM clause that a
// row source could not parse
type ExpressionError struct {
	Expression string
	Reason     string
	Position   int // 1-based column of the failing token (0 if unknown)
}

func (e *ExpressionError) Error() string {
	var parts []string

	parts = append(parts, fmt.Sprintf("invalid expression %q", e.Expression))

	if e.Position > 0 {
		parts = append(parts, fmt.Sprintf("at col %d", e.Position))
	}

	if e.Reason != "" {
		parts = append(parts, e.Reason)
	}

	return strings.Join(parts, " - ")
}

// UnknownColumnError reports a reference to a column (or table alias) that
// the row source does not know
type UnknownColumnError struct {
	Table  string // table alias as referenced
	Column string
}

func (e *UnknownColumnError) Error() string {
	if e.Column == "" {
		return fmt.Sprintf("unknown table alias '%s'", e.Table)
	}
	return fmt.Sprintf("column '%s' does not exist in table '%s'", e.Column, e.Table)
}

func NewInvalidDescriptor(token, reason string) *InvalidDescriptorError {
	return &InvalidDescriptorError{Token: token, Reason: reason}
}

func NewTableNotFound(table string) *TableNotFoundError {
	return &TableNotFoundError{Table: table}
}
