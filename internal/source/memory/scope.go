package memory

import (
	"fmt"

	"github.com/leengari/birchtree/internal/domain/errors"
	"github.com/leengari/birchtree/internal/domain/schema"
	"github.com/leengari/birchtree/internal/parser/ast"
)

// binding is one table of the FROM clause under the name it is referenced by
type binding struct {
	ref     string
	table   *schema.Table
	columns []string
}

type scope struct {
	bindings []*binding
	byRef    map[string]*binding
}

// bind resolves every table of the clause and validates the column
// references of each ON condition against the tables bound so far
func (s *Source) bind(from *ast.FromClause) (*scope, error) {
	sc := &scope{byRef: make(map[string]*binding)}

	if err := sc.add(s.db, from.Table); err != nil {
		return nil, err
	}
	for _, j := range from.Joins {
		if err := sc.add(s.db, j.Table); err != nil {
			return nil, err
		}
		if err := sc.checkConditions(j.On); err != nil {
			return nil, err
		}
	}
	if err := sc.checkConditions(from.Where); err != nil {
		return nil, err
	}
	return sc, nil
}

func (sc *scope) add(db *schema.Database, ref *ast.TableRef) error {
	table, ok := db.Table(ref.Name)
	if !ok {
		return errors.NewTableNotFound(ref.Name)
	}
	name := ref.Ref()
	if _, dup := sc.byRef[name]; dup {
		return &errors.ExpressionError{
			Expression: ref.String(),
			Reason:     fmt.Sprintf("table alias %s is used more than once", name),
		}
	}
	b := &binding{ref: name, table: table, columns: table.ColumnNames()}
	sc.bindings = append(sc.bindings, b)
	sc.byRef[name] = b
	return nil
}

func (sc *scope) check(col *ast.ColumnRef) error {
	b, ok := sc.byRef[col.Table]
	if !ok {
		return &errors.UnknownColumnError{Table: col.Table}
	}
	if !b.table.HasColumn(col.Column) {
		return &errors.UnknownColumnError{Table: col.Table, Column: col.Column}
	}
	return nil
}

func (sc *scope) checkConditions(conditions []*ast.Condition) error {
	for _, c := range conditions {
		for _, op := range []ast.Operand{c.Left, c.Right} {
			if col, ok := op.(*ast.ColumnRef); ok {
				if err := sc.check(col); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// rlock read-locks every distinct table once (self joins share a table)
func (sc *scope) rlock() {
	for _, t := range sc.tables() {
		t.RLock()
	}
}

func (sc *scope) runlock() {
	for _, t := range sc.tables() {
		t.RUnlock()
	}
}

func (sc *scope) tables() []*schema.Table {
	seen := make(map[*schema.Table]bool, len(sc.bindings))
	tables := make([]*schema.Table, 0, len(sc.bindings))
	for _, b := range sc.bindings {
		if !seen[b.table] {
			seen[b.table] = true
			tables = append(tables, b.table)
		}
	}
	return tables
}
