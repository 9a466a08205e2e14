// Package source defines what a row source is asked to execute.
package source

// Query is one SELECT against a row source.
//
// Projection holds expressions of the form "alias.column" or
// "alias.column AS alias:column". From is the caller's FROM clause
// (tables, joins, WHERE) without the FROM keyword; "?" placeholders in it
// bind to Args in order.
type Query struct {
	Projection []string
	From       string
	Args       []interface{}
}
