// Package sqlsource is a database/sql row source for SQLite, Postgres,
// MySQL and SQL Server.
package sqlsource

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/go-sql-driver/mysql"
	_ "github.com/microsoft/go-mssqldb"
	"github.com/microsoft/go-mssqldb/msdsn"
	"github.com/pkg/errors"
	_ "modernc.org/sqlite"

	"github.com/leengari/birchtree/internal/domain/data"
	"github.com/leengari/birchtree/internal/source"
	"github.com/leengari/birchtree/internal/source/dialect"
)

type Source struct {
	db      *sql.DB
	dialect dialect.Dialect
}

func New(db *sql.DB, d dialect.Dialect) *Source {
	return &Source{db: db, dialect: d}
}

// Open validates the DSN for the driver, opens the pool and pings it.
// The returned function closes the pool.
func Open(ctx context.Context, driver, dsn string) (*Source, func(), error) {
	d, err := dialect.Parse(driver)
	if err != nil {
		return nil, nil, err
	}

	// Validate DSN early to fail fast on obvious mistakes.
	switch d {
	case dialect.SQLServer:
		if _, err := msdsn.Parse(dsn); err != nil {
			return nil, nil, errors.Wrap(err, "mssql dsn")
		}
	case dialect.MySQL:
		if _, err := mysql.ParseDSN(dsn); err != nil {
			return nil, nil, errors.Wrap(err, "mysql dsn")
		}
	}

	db, err := sql.Open(d.DriverName(), dsn)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "failed to open %s", d)
	}
	if d == dialect.SQLite {
		// each in-memory connection is its own database
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, nil, errors.Wrapf(err, "failed to ping %s", d)
	}

	slog.Info("sql source opened", slog.String("dialect", string(d)))

	close := func() { _ = db.Close() }
	return New(db, d), close, nil
}

func (s *Source) DB() *sql.DB {
	return s.db
}

func (s *Source) Dialect() dialect.Dialect {
	return s.dialect
}

// Columns queries the catalog for the ordered columns of table
func (s *Source) Columns(ctx context.Context, table string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, s.dialect.ColumnsSQL(), table)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to query columns of %s", table)
	}
	defer rows.Close()

	var columns []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, errors.Wrapf(err, "failed to scan column of %s", table)
		}
		columns = append(columns, name)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrapf(err, "failed to read columns of %s", table)
	}
	return columns, nil
}

// Select renders the projection for the dialect and runs it with the
// caller's FROM clause and arguments
func (s *Source) Select(ctx context.Context, q source.Query) ([]data.Row, error) {
	query, err := s.dialect.SelectSQL(q.Projection, q.From)
	if err != nil {
		return nil, err
	}

	slog.Debug("sql select", slog.String("query", query), slog.Int("args", len(q.Args)))

	rows, err := s.db.QueryContext(ctx, query, q.Args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to execute select")
	}
	defer rows.Close()

	names, err := rows.Columns()
	if err != nil {
		return nil, errors.Wrap(err, "failed to read result columns")
	}

	results := make([]data.Row, 0)
	values := make([]interface{}, len(names))
	pointers := make([]interface{}, len(names))
	for i := range values {
		pointers[i] = &values[i]
	}

	for rows.Next() {
		if err := rows.Scan(pointers...); err != nil {
			return nil, errors.Wrap(err, "failed to scan row")
		}
		row := make(data.Row, len(names))
		for i, name := range names {
			row[name] = normalize(values[i])
		}
		results = append(results, row)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to read rows")
	}

	return results, nil
}

// normalize converts driver byte slices (text columns on some drivers) to strings
func normalize(v interface{}) interface{} {
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return v
}
