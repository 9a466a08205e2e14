package data

// Row is a single flat result row.
// Key = output column name, possibly a ':' delimited path (e.g. "albums:songs:id")
type Row map[string]interface{}

// Copy creates a shallow copy of the row to prevent mutation
func (r Row) Copy() Row {
	copy := make(Row, len(r))
	for k, v := range r {
		copy[k] = v
	}
	return copy
}

// Node is one object of a nested result tree.
// Values are scalars, nested Nodes, or []Node for detected collections.
type Node map[string]interface{}

// Child returns the singular nested object stored under name
func (n Node) Child(name string) (Node, bool) {
	child, ok := n[name].(Node)
	return child, ok
}

// Children returns the collection stored under name
func (n Node) Children(name string) ([]Node, bool) {
	children, ok := n[name].([]Node)
	return children, ok
}
