// Package memory is a row source over an in-memory database. It executes
// projection lists against a FROM clause with hash joins and implements
// both the schema-introspection and the query-execution collaborators.
package memory

import (
	"context"
	"log/slog"
	"os"

	"github.com/leengari/birchtree/internal/domain/data"
	"github.com/leengari/birchtree/internal/domain/errors"
	"github.com/leengari/birchtree/internal/domain/schema"
	"github.com/leengari/birchtree/internal/parser"
	"github.com/leengari/birchtree/internal/parser/ast"
	"github.com/leengari/birchtree/internal/source"
	"github.com/leengari/birchtree/internal/storage"
)

type Source struct {
	db *schema.Database
}

func New(db *schema.Database) *Source {
	return &Source{db: db}
}

// Open loads the JSON database stored in dir
func Open(dir string) (*Source, error) {
	db, err := storage.LoadDatabase(os.DirFS(dir), ".")
	if err != nil {
		return nil, err
	}
	return New(db), nil
}

func (s *Source) Database() *schema.Database {
	return s.db
}

// Columns returns the declared column names of table; an unknown table
// yields an empty list
func (s *Source) Columns(ctx context.Context, table string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	t, ok := s.db.Table(table)
	if !ok {
		return nil, nil
	}
	return t.ColumnNames(), nil
}

// Select executes q and returns one row per result tuple, keyed by the
// output name of each projection expression
func (s *Source) Select(ctx context.Context, q source.Query) ([]data.Row, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if len(q.Projection) == 0 {
		return nil, &errors.ExpressionError{Reason: "empty projection"}
	}
	projections := make([]*ast.Projection, 0, len(q.Projection))
	for _, expr := range q.Projection {
		p, err := parser.ParseProjection(expr)
		if err != nil {
			return nil, err
		}
		projections = append(projections, p)
	}

	from, err := parser.ParseFrom(q.From)
	if err != nil {
		return nil, err
	}
	if err := checkPlaceholders(from, q.Args); err != nil {
		return nil, err
	}

	sc, err := s.bind(from)
	if err != nil {
		return nil, err
	}
	for _, p := range projections {
		if err := sc.check(p.Source); err != nil {
			return nil, err
		}
	}

	sc.rlock()
	defer sc.runlock()

	base := sc.bindings[0]
	joined := make([]data.JoinedRow, 0, len(base.table.Rows))
	for _, row := range base.table.Rows {
		joined = append(joined, data.NewJoinedRow().Extend(base.ref, row, base.columns))
	}

	for i, j := range from.Joins {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		joined = executeJoin(joined, sc.bindings[i+1], j, q.Args)
	}

	if len(from.Where) > 0 {
		joined = filter(joined, from.Where, q.Args)
	}

	results := make([]data.Row, len(joined))
	for i, jr := range joined {
		results[i] = project(jr, projections)
	}

	slog.Debug("memory select completed",
		slog.String("from", from.Table.Name),
		slog.Int("joins", len(from.Joins)),
		slog.Int("result_rows", len(results)),
	)

	return results, nil
}

func project(jr data.JoinedRow, projections []*ast.Projection) data.Row {
	row := make(data.Row, len(projections))
	for _, p := range projections {
		value, _ := jr.Get(data.Qualify(p.Source.Table, p.Source.Column))
		row[p.OutputName()] = value
	}
	return row
}

// checkPlaceholders verifies that every "?" has an argument
func checkPlaceholders(from *ast.FromClause, args []interface{}) error {
	count := 0
	visit := func(conditions []*ast.Condition) {
		for _, c := range conditions {
			for _, op := range []ast.Operand{c.Left, c.Right} {
				if _, ok := op.(*ast.Placeholder); ok {
					count++
				}
			}
		}
	}
	for _, j := range from.Joins {
		visit(j.On)
	}
	visit(from.Where)

	if count > len(args) {
		return &errors.ExpressionError{
			Expression: from.String(),
			Reason:     "not enough arguments for placeholders",
		}
	}
	return nil
}
