// Package dialect renders projection expressions for SQL back-ends.
package dialect

import (
	"fmt"
	"strings"

	"github.com/lib/pq"

	"github.com/leengari/birchtree/internal/parser"
)

type Dialect string

const (
	SQLite    Dialect = "sqlite"
	Postgres  Dialect = "postgres"
	MySQL     Dialect = "mysql"
	SQLServer Dialect = "sqlserver"
)

var aliases = map[string]Dialect{
	"sqlite":     SQLite,
	"sqlite3":    SQLite,
	"postgres":   Postgres,
	"postgresql": Postgres,
	"pgx":        Postgres,
	"mysql":      MySQL,
	"sqlserver":  SQLServer,
	"mssql":      SQLServer,
}

// Parse maps a driver or dialect name onto a Dialect
func Parse(name string) (Dialect, error) {
	d, ok := aliases[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return "", fmt.Errorf("unsupported dialect %q", name)
	}
	return d, nil
}

// DriverName is the database/sql driver the dialect registers under
func (d Dialect) DriverName() string {
	return string(d)
}

// Quote quotes one identifier
func (d Dialect) Quote(ident string) string {
	switch d {
	case Postgres:
		return pq.QuoteIdentifier(ident)
	case MySQL:
		return "`" + strings.ReplaceAll(ident, "`", "``") + "`"
	case SQLServer:
		return "[" + strings.ReplaceAll(ident, "]", "]]") + "]"
	default:
		return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
	}
}

// Render quotes a projection expression:
// "al.title AS al:title" -> "al"."title" AS "al:title"
//
// The column and output name are always quoted. The table alias must name
// the same relation the caller's unquoted FROM clause declares, so it is
// quoted only where quoting preserves its meaning.
func (d Dialect) Render(expr string) (string, error) {
	p, err := parser.ParseProjection(expr)
	if err != nil {
		return "", err
	}
	column := d.quoteRef(p.Source.Table) + "." + d.Quote(p.Source.Column)
	if len(p.Alias) == 0 {
		return column, nil
	}
	return column + " AS " + d.Quote(p.OutputName()), nil
}

// quoteRef quotes each segment of a possibly schema-qualified table alias.
// Postgres folds unquoted identifiers to lower case, so a segment with
// upper-case letters is left as written.
func (d Dialect) quoteRef(ref string) string {
	segments := strings.Split(ref, ".")
	for i, segment := range segments {
		if d == Postgres && segment != strings.ToLower(segment) {
			continue
		}
		segments[i] = d.Quote(segment)
	}
	return strings.Join(segments, ".")
}

// SelectSQL builds "SELECT <projection> FROM <from>"
func (d Dialect) SelectSQL(projection []string, from string) (string, error) {
	if len(projection) == 0 {
		return "", fmt.Errorf("empty projection")
	}
	if strings.TrimSpace(from) == "" {
		return "", fmt.Errorf("empty FROM clause")
	}

	rendered := make([]string, len(projection))
	for i, expr := range projection {
		r, err := d.Render(expr)
		if err != nil {
			return "", err
		}
		rendered[i] = r
	}
	return "SELECT " + strings.Join(rendered, ", ") + " FROM " + from, nil
}

// ColumnsSQL is the catalog query returning the ordered column names of
// the table bound to its single parameter. Unknown tables return no rows.
func (d Dialect) ColumnsSQL() string {
	switch d {
	case Postgres:
		return "SELECT column_name FROM information_schema.columns " +
			"WHERE table_schema = current_schema() AND table_name = $1 ORDER BY ordinal_position"
	case MySQL:
		return "SELECT column_name FROM information_schema.columns " +
			"WHERE table_schema = DATABASE() AND table_name = ? ORDER BY ordinal_position"
	case SQLServer:
		return "SELECT column_name FROM information_schema.columns " +
			"WHERE table_schema = SCHEMA_NAME() AND table_name = @p1 ORDER BY ordinal_position"
	default:
		return "SELECT name FROM pragma_table_info(?) ORDER BY cid"
	}
}
