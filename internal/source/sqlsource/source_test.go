package sqlsource

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/leengari/birchtree/internal/birch"
	"github.com/leengari/birchtree/internal/domain/data"
	"github.com/leengari/birchtree/internal/query/projection"
	"github.com/leengari/birchtree/internal/source"
	"github.com/leengari/birchtree/internal/source/dialect"
)

func newTestSource(t *testing.T) *Source {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	statements := []string{
		`CREATE TABLE artists (id INTEGER PRIMARY KEY, name TEXT NOT NULL)`,
		`CREATE TABLE albums (id INTEGER PRIMARY KEY, artist_id INTEGER NOT NULL, title TEXT NOT NULL)`,
		`INSERT INTO artists (id, name) VALUES (1, 'Nina Simone'), (2, 'Miles Davis'), (3, 'The Unsigned')`,
		`INSERT INTO albums (id, artist_id, title) VALUES (1, 1, 'Pastel Blues'), (2, 1, 'Wild Is the Wind'), (3, 2, 'Kind of Blue')`,
	}
	for _, stmt := range statements {
		_, err := db.Exec(stmt)
		require.NoError(t, err, stmt)
	}
	return New(db, dialect.SQLite)
}

func TestColumns(t *testing.T) {
	src := newTestSource(t)

	columns, err := src.Columns(context.Background(), "albums")
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "artist_id", "title"}, columns)

	columns, err = src.Columns(context.Background(), "missing")
	require.NoError(t, err)
	assert.Empty(t, columns)
}

func TestSelect_AliasedColumns(t *testing.T) {
	src := newTestSource(t)

	rows, err := src.Select(context.Background(), source.Query{
		Projection: []string{"a.id", "a.name", "al.id AS al:id", "al.title AS al:title"},
		From:       "artists a LEFT JOIN albums al ON al.artist_id = a.id ORDER BY a.id, al.id",
	})
	require.NoError(t, err)
	require.Len(t, rows, 4)

	assert.Equal(t, data.Row{"id": int64(1), "name": "Nina Simone", "al:id": int64(1), "al:title": "Pastel Blues"}, rows[0])
	assert.Equal(t, "Kind of Blue", rows[2]["al:title"])
	assert.Nil(t, rows[3]["al:id"])
	assert.Contains(t, rows[3], "al:title")
}

func TestSelect_Args(t *testing.T) {
	src := newTestSource(t)

	rows, err := src.Select(context.Background(), source.Query{
		Projection: []string{"al.title"},
		From:       "albums al WHERE al.artist_id = ? ORDER BY al.id",
		Args:       []interface{}{1},
	})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Wild Is the Wind", rows[1]["title"])
}

func TestSelect_EmptyResult(t *testing.T) {
	src := newTestSource(t)

	rows, err := src.Select(context.Background(), source.Query{
		Projection: []string{"a.id"},
		From:       "artists a WHERE a.id = 42",
	})
	require.NoError(t, err)
	assert.NotNil(t, rows)
	assert.Empty(t, rows)
}

func TestSelect_Errors(t *testing.T) {
	src := newTestSource(t)

	_, err := src.Select(context.Background(), source.Query{Projection: []string{"id"}, From: "artists"})
	assert.ErrorContains(t, err, "invalid expression")

	_, err = src.Select(context.Background(), source.Query{Projection: []string{"x.id"}, From: "missing x"})
	assert.ErrorContains(t, err, "failed to execute select")
}

func TestOpen(t *testing.T) {
	src, closeFn, err := Open(context.Background(), "sqlite3", ":memory:")
	require.NoError(t, err)
	defer closeFn()
	assert.Equal(t, dialect.SQLite, src.Dialect())

	_, _, err = Open(context.Background(), "oracle", "")
	assert.ErrorContains(t, err, "unsupported dialect")

	_, _, err = Open(context.Background(), "mysql", "not a dsn")
	assert.ErrorContains(t, err, "mysql dsn")
}

func TestSelect_KeywordAliasAndColumn(t *testing.T) {
	src := newTestSource(t)
	ctx := context.Background()

	_, err := src.DB().Exec(`CREATE TABLE tags (id INTEGER PRIMARY KEY, "left" TEXT)`)
	require.NoError(t, err)
	_, err = src.DB().Exec(`INSERT INTO tags (id, "left") VALUES (1, 'west')`)
	require.NoError(t, err)

	rows, err := src.Select(ctx, source.Query{
		Projection: []string{"as.id", "abms.id AS abms:id", "tags.left AS tags:left"},
		From:       `artists AS "as" JOIN albums abms ON abms.artist_id = "as".id JOIN tags ON tags.id = "as".id ORDER BY abms.id`,
	})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, data.Row{"id": int64(1), "abms:id": int64(1), "tags:left": "west"}, rows[0])

	rows, err = src.Select(ctx, source.Query{
		Projection: []string{"tags.left"},
		From:       "tags",
	})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "west", rows[0]["left"])
}

func TestSelect_GrownKeywordAlias(t *testing.T) {
	src := newTestSource(t)
	tree := birch.New(src, projection.NewProjector(src, nil))

	res, err := tree.Select(context.Background(), birch.Request{
		Tables: []string{"artists AS as", "albums abms"},
		From:   `artists AS "as" JOIN albums abms ON abms.artist_id = "as".id ORDER BY "as".id, abms.id`,
	})
	require.NoError(t, err)
	require.Len(t, res.Rows, 2)
	albums, ok := res.Rows[0].Children("abms")
	require.True(t, ok)
	assert.Len(t, albums, 2)
}
