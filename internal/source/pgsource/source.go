// Package pgsource is a native Postgres row source using pgx v5.
package pgsource

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/leengari/birchtree/internal/domain/data"
	"github.com/leengari/birchtree/internal/source"
	"github.com/leengari/birchtree/internal/source/dialect"
)

// querier is the subset of *pgxpool.Pool the source needs
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

type Source struct {
	pool querier
}

// Open constructs a Source and returns a Close function for cleanup.
func Open(ctx context.Context, dsn string) (*Source, func(), error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("pgxpool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("ping: %w", err)
	}
	close := func() { pool.Close() }
	return &Source{pool: pool}, close, nil
}

// Columns queries information_schema for the ordered columns of table
func (s *Source) Columns(ctx context.Context, table string) ([]string, error) {
	rows, err := s.pool.Query(ctx, dialect.Postgres.ColumnsSQL(), table)
	if err != nil {
		return nil, fmt.Errorf("failed to query columns of %s: %w", table, err)
	}
	columns, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("failed to read columns of %s: %w", table, err)
	}
	return columns, nil
}

// Select runs the projection against the caller's FROM clause. Arguments
// bind to $1..$n placeholders in the clause.
func (s *Source) Select(ctx context.Context, q source.Query) ([]data.Row, error) {
	query, err := dialect.Postgres.SelectSQL(q.Projection, q.From)
	if err != nil {
		return nil, err
	}

	slog.Debug("pg select", slog.String("query", query), slog.Int("args", len(q.Args)))

	rows, err := s.pool.Query(ctx, query, q.Args...)
	if err != nil {
		return nil, fmt.Errorf("failed to execute select: %w", err)
	}

	results, err := pgx.CollectRows(rows, rowToData)
	if err != nil {
		return nil, fmt.Errorf("failed to read rows: %w", err)
	}
	return results, nil
}

// rowToData keys each value by its result column name
func rowToData(row pgx.CollectableRow) (data.Row, error) {
	values, err := row.Values()
	if err != nil {
		return nil, err
	}
	fields := row.FieldDescriptions()
	out := make(data.Row, len(fields))
	for i, fd := range fields {
		out[fd.Name] = values[i]
	}
	return out, nil
}
