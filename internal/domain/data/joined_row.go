package data

// JoinedRow represents a row that combines data from multiple tables
// Column names are qualified with table aliases (e.g., "users.id", "o.product")
type JoinedRow struct {
	Data map[string]interface{}
}

// NewJoinedRow creates a new JoinedRow with initialized data map
func NewJoinedRow() JoinedRow {
	return JoinedRow{
		Data: make(map[string]interface{}),
	}
}

// Get retrieves a value by qualified column name (e.g., "users.id")
func (jr JoinedRow) Get(qualifiedName string) (interface{}, bool) {
	val, exists := jr.Data[qualifiedName]
	return val, exists
}

// Set adds or updates a value with qualified column name
func (jr JoinedRow) Set(qualifiedName string, value interface{}) {
	jr.Data[qualifiedName] = value
}

// Extend returns a copy of the joined row with the columns of row added
// under alias. A nil row adds NULL for every listed column.
func (jr JoinedRow) Extend(alias string, row Row, columns []string) JoinedRow {
	extended := JoinedRow{Data: make(map[string]interface{}, len(jr.Data)+len(columns))}
	for k, v := range jr.Data {
		extended.Data[k] = v
	}
	for _, col := range columns {
		var value interface{}
		if row != nil {
			value = row[col]
		}
		extended.Data[Qualify(alias, col)] = value
	}
	return extended
}

// Qualify builds a qualified column name
func Qualify(alias, column string) string {
	return alias + "." + column
}
