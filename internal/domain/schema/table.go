package schema

import (
	"fmt"
	"sort"
	"sync"

	"github.com/leengari/birchtree/internal/domain/data"
)

type ColumnType string

const (
	ColumnTypeInt   ColumnType = "INT"
	ColumnTypeFloat ColumnType = "FLOAT"
	ColumnTypeText  ColumnType = "TEXT"
	ColumnTypeBool  ColumnType = "BOOL"
)

type Column struct {
	Name       string     `json:"name"`
	Type       ColumnType `json:"type"`
	PrimaryKey bool       `json:"primary_key"`
	NotNull    bool       `json:"not_null"`
}

// Table represents a table with its ordered columns and rows
type Table struct {
	mu      sync.RWMutex
	Name    string
	Path    string // filesystem path to table directory, empty for in-code tables
	Columns []Column
	Rows    []data.Row
}

// NewTable creates an empty table with the given columns
func NewTable(name string, columns ...Column) *Table {
	return &Table{Name: name, Columns: columns}
}

// RLock acquires a read lock on the table for read operations
func (t *Table) RLock() {
	t.mu.RLock()
}

// RUnlock releases the read lock
func (t *Table) RUnlock() {
	t.mu.RUnlock()
}

// ColumnNames returns the column names in declaration order
func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// HasColumn reports whether the table declares column name
func (t *Table) HasColumn(name string) bool {
	for _, c := range t.Columns {
		if c.Name == name {
			return true
		}
	}
	return false
}

// Insert appends a row after checking it against the declared columns
func (t *Table) Insert(row data.Row) error {
	row = row.Copy() // prevent mutation of caller's data

	t.mu.Lock()
	defer t.mu.Unlock()

	for name := range row {
		if !t.HasColumn(name) {
			return fmt.Errorf("column %s does not exist in table %s", name, t.Name)
		}
	}
	for _, col := range t.Columns {
		value, exists := row[col.Name]
		if col.NotNull && (!exists || value == nil) {
			return fmt.Errorf("column %s in table %s: missing required value", col.Name, t.Name)
		}
		if exists {
			normalized, err := normalizeValue(col, value)
			if err != nil {
				return fmt.Errorf("table %s: %w", t.Name, err)
			}
			row[col.Name] = normalized
		}
	}

	t.Rows = append(t.Rows, row)
	return nil
}

// SelectAll returns a snapshot of all rows of the table
func (t *Table) SelectAll() []data.Row {
	t.RLock()
	defer t.RUnlock()

	rows := make([]data.Row, len(t.Rows))
	copy(rows, t.Rows)
	return rows
}

// normalizeValue checks a value against the column type. Whole-number
// floats (as decoded from JSON) are converted to int64 for INT columns.
func normalizeValue(col Column, value interface{}) (interface{}, error) {
	if value == nil {
		return nil, nil
	}
	switch col.Type {
	case ColumnTypeInt:
		if v, ok := NormalizeToInt64(value); ok {
			return v, nil
		}
		return nil, fmt.Errorf("column %s: expected INT, got %T", col.Name, value)
	case ColumnTypeFloat:
		switch v := value.(type) {
		case float64:
			return v, nil
		case int64:
			return float64(v), nil
		case int:
			return float64(v), nil
		}
		return nil, fmt.Errorf("column %s: expected FLOAT, got %T", col.Name, value)
	case ColumnTypeText:
		if _, ok := value.(string); !ok {
			return nil, fmt.Errorf("column %s: expected TEXT, got %T", col.Name, value)
		}
	case ColumnTypeBool:
		if _, ok := value.(bool); !ok {
			return nil, fmt.Errorf("column %s: expected BOOL, got %T", col.Name, value)
		}
	}
	return value, nil
}

// NormalizeToInt64 converts various numeric types to int64
// Returns the int64 value and true if successful, 0 and false otherwise
func NormalizeToInt64(val interface{}) (int64, bool) {
	switch v := val.(type) {
	case float64:
		if v == float64(int64(v)) {
			return int64(v), true
		}
	case int64:
		return v, true
	case int:
		return int64(v), true
	case int32:
		return int64(v), true
	}
	return 0, false
}

// Database is a named set of tables
type Database struct {
	mu     sync.RWMutex
	Name   string
	Path   string
	Tables map[string]*Table
}

func NewDatabase(name string) *Database {
	return &Database{Name: name, Tables: make(map[string]*Table)}
}

// AddTable registers a table, replacing any table with the same name
func (db *Database) AddTable(t *Table) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.Tables[t.Name] = t
}

// Table looks a table up by name
func (db *Database) Table(name string) (*Table, bool) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	t, ok := db.Tables[name]
	return t, ok
}

// TableNames returns the sorted table names
func (db *Database) TableNames() []string {
	db.mu.RLock()
	defer db.mu.RUnlock()
	names := make([]string, 0, len(db.Tables))
	for name := range db.Tables {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
