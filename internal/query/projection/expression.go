package projection

import "strings"

// ColumnRef is one projection expression: a column of an aliased table,
// optionally renamed in the output
type ColumnRef struct {
	Table  string // table alias (e.g., "albums")
	Column string // column name (e.g., "id")
	Alias  string // optional output name (e.g., "albums:id")
}

// String renders the wire form: "table.column" or "table.column AS alias"
func (c ColumnRef) String() string {
	qualified := c.Table + "." + c.Column
	if c.Alias == "" {
		return qualified
	}
	return qualified + " AS " + c.Alias
}

// Path splits an output name into its nesting path and leaf field
func Path(outputName string) ([]string, string) {
	segments := strings.Split(outputName, Delimiter)
	return segments[:len(segments)-1], segments[len(segments)-1]
}

// qualify maps the columns of one descriptor to projection expressions.
// Only the first table keeps unaliased names; every other table is
// namespaced as alias:column.
func qualify(d Descriptor, columns []string, first bool) []string {
	result := make([]string, 0, len(columns))
	for _, column := range columns {
		ref := ColumnRef{Table: d.Alias, Column: column}
		if !first {
			ref.Alias = d.Alias + Delimiter + column
		}
		result = append(result, ref.String())
	}
	return result
}
