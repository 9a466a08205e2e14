package birch

import (
	"context"
	stderrors "errors"
	"fmt"
	"testing"

	"gotest.tools/v3/assert"
	is "gotest.tools/v3/assert/cmp"

	"github.com/leengari/birchtree/internal/domain/data"
	"github.com/leengari/birchtree/internal/domain/errors"
	"github.com/leengari/birchtree/internal/domain/schema"
	"github.com/leengari/birchtree/internal/query/projection"
	"github.com/leengari/birchtree/internal/source/memory"
)

func TestRepo_Find(t *testing.T) {
	tree, _ := newTestTree(t)
	repo, err := NewRepo(tree, "albums")
	assert.NilError(t, err)

	albums, err := repo.Find(context.Background(), map[string]interface{}{"artist_id": 1})
	assert.NilError(t, err)
	assert.Assert(t, is.Len(albums, 2))
	assert.Equal(t, albums[0]["title"], "Pastel Blues")

	all, err := repo.Find(context.Background(), nil)
	assert.NilError(t, err)
	assert.Check(t, is.Len(all, 3))
}

func TestRepo_FindOne(t *testing.T) {
	tree, _ := newTestTree(t)
	repo, err := NewRepo(tree, "artists ar")
	assert.NilError(t, err)

	unsigned, err := repo.FindOne(context.Background(), map[string]interface{}{"label_id": nil})
	assert.NilError(t, err)
	assert.Equal(t, unsigned["name"], "The Unsigned")

	missing, err := repo.FindOne(context.Background(), map[string]interface{}{"name": "Nobody"})
	assert.NilError(t, err)
	assert.Check(t, missing == nil)
}

func TestRepo_FindByID(t *testing.T) {
	tree, _ := newTestTree(t)
	repo, err := NewRepo(tree, "albums AS al")
	assert.NilError(t, err)

	album, err := repo.FindByID(context.Background(), 3)
	assert.NilError(t, err)
	assert.Equal(t, album["title"], "Kind of Blue")

	albums, err := repo.FindByIDs(context.Background(), []interface{}{1, 99, 3})
	assert.NilError(t, err)
	assert.Assert(t, is.Len(albums, 2))
	assert.Equal(t, albums[1]["id"], int64(3))
}

func TestRepo_UnknownAttribute(t *testing.T) {
	tree, _ := newTestTree(t)
	repo, err := NewRepo(tree, "albums")
	assert.NilError(t, err)

	_, err = repo.Find(context.Background(), map[string]interface{}{"genre": "jazz"})
	var unknown *errors.UnknownColumnError
	assert.Assert(t, stderrors.As(err, &unknown))
	assert.Equal(t, unknown.Column, "genre")
}

func TestRepo_Placeholder(t *testing.T) {
	exec := &recordingExecutor{}
	tree, _ := newTestTree(t)
	tree.executor = exec

	repo, err := NewRepo(tree, "albums")
	assert.NilError(t, err)
	repo.Placeholder = func(n int) string { return fmt.Sprintf("$%d", n) }

	_, err = repo.Find(context.Background(), map[string]interface{}{"title": "x", "artist_id": 2})
	assert.NilError(t, err)
	assert.Equal(t, exec.last.From, "albums WHERE albums.artist_id = $1 AND albums.title = $2")
	assert.DeepEqual(t, exec.last.Args, []interface{}{2, "x"})
}

func TestNewRepo_InvalidDescriptor(t *testing.T) {
	_, err := NewRepo(nil, "albums a:b")
	var invalid *errors.InvalidDescriptorError
	assert.Assert(t, stderrors.As(err, &invalid))
}

func TestRepo_FindKeepsIdenticalRows(t *testing.T) {
	plays := schema.NewTable("plays",
		schema.Column{Name: "song_id", Type: schema.ColumnTypeInt, NotNull: true},
	)
	plays.Rows = []data.Row{{"song_id": int64(1)}, {"song_id": int64(1)}, {"song_id": int64(2)}}
	db := schema.NewDatabase("stats")
	db.AddTable(plays)

	src := memory.New(db)
	repo, err := NewRepo(New(src, projection.NewProjector(src, nil)), "plays p")
	assert.NilError(t, err)

	rows, err := repo.Find(context.Background(), map[string]interface{}{"song_id": 1})
	assert.NilError(t, err)
	assert.DeepEqual(t, rows, []data.Node{{"song_id": int64(1)}, {"song_id": int64(1)}})
}

func TestTree_RowsIsUnnested(t *testing.T) {
	tree, _ := newTestTree(t)

	rows, err := tree.Rows(context.Background(), Request{
		Tables: []string{"artists a", "albums al"},
		From:   "artists a JOIN albums al ON al.artist_id = a.id",
	})
	assert.NilError(t, err)
	assert.Assert(t, is.Len(rows, 3))
	assert.Equal(t, rows[1]["al:title"], "Wild Is the Wind")
}

func TestRepo_KeywordAlias(t *testing.T) {
	tree, _ := newTestTree(t)
	repo, err := NewRepo(tree, "artists AS as")
	assert.NilError(t, err)

	artist, err := repo.FindByID(context.Background(), 2)
	assert.NilError(t, err)
	assert.Equal(t, artist["name"], "Miles Davis")
}
