package integration_test

import (
	"context"
	"testing"

	"gotest.tools/v3/assert"

	"github.com/leengari/birchtree/databases"
	"github.com/leengari/birchtree/internal/birch"
		"github.com/leengari/birchtree/internal/query/projection"
	"github.com/leengari/birchtree/internal/source"
	"github.com/leengari/birchtree/internal/source/memory"
	"github.com/leengari/birchtree/internal/storage"
)

// setupSource loads the embedded music database into a memory source
func setupSource(t *testing.T) *memory.Source {
	t.Helper()

	db, err := storage.LoadDatabase(databases.Content, "music")
	assert.NilError(t, err)
	return memory.New(db)
}

func setupTree(t *testing.T) *birch.Tree {
	t.Helper()

	src := setupSource(t)
	return birch.New(src, projection.NewProjector(src, nil))
}

func TestMusic_ArtistsWithAlbumsAndLabel(t *testing.T) {
	tree := setupTree(t)
	ctx := context.Background()

	res, err := tree.Select(ctx, birch.Request{
		Tables: []string{"artists ar", "labels l", "albums al"},
		From: "artists ar LEFT JOIN labels l ON l.id = ar.label_id " +
			"LEFT JOIN albums al ON al.artist_id = ar.id",
	})
	assert.NilError(t, err)
	assert.Equal(t, len(res.Rows), 4)

	nina := res.Rows[0]
	assert.Equal(t, nina["name"], "Nina Simone")
	label, ok := nina.Child("l")
	assert.Assert(t, ok)
	assert.Equal(t, label["name"], "Philips")
	albums, ok := nina.Children("al")
	assert.Assert(t, ok)
	assert.Equal(t, len(albums), 2)
	assert.Equal(t, albums[0]["title"], "Pastel Blues")

	// One album nests as a single object
	miles := res.Rows[1]
	album, ok := miles.Child("al")
	assert.Assert(t, ok)
	assert.Equal(t, album["title"], "Kind of Blue")

	// No label and no albums: neither key is present
	unsigned := res.Rows[3]
	_, hasLabel := unsigned["l"]
	_, hasAlbums := unsigned["al"]
	assert.Assert(t, !hasLabel)
	assert.Assert(t, !hasAlbums)
}

func TestMusic_DeepAliasesNestThreeLevels(t *testing.T) {
	src := setupSource(t)
	tree := birch.New(src, projection.NewProjector(src, nil))
	ctx := context.Background()

	proj := []string{
		"ar.id",
		"ar.name",
		"al.id AS al:id",
		"al.title AS al:title",
		"s.id AS al:s:id",
		"s.title AS al:s:title",
	}
	rows, err := src.Select(ctx, source.Query{
		Projection: proj,
		From:       "artists ar JOIN albums al ON al.artist_id = ar.id JOIN songs s ON s.album_id = al.id WHERE ar.id = ?",
		Args:       []interface{}{1},
	})
	assert.NilError(t, err)
	assert.Equal(t, len(rows), 3)

	nodes := tree.Nest(ctx, rows)
	assert.Equal(t, len(nodes), 1)

	albums, ok := nodes[0].Children("al")
	assert.Assert(t, ok)
	assert.Equal(t, len(albums), 2)

	songs, ok := albums[0].Children("s")
	assert.Assert(t, ok)
	assert.Equal(t, len(songs), 2)
	assert.Equal(t, songs[1]["title"], "Sinnerman")

	song, ok := albums[1].Child("s")
	assert.Assert(t, ok)
	assert.Equal(t, song["title"], "Lilac Wine")
}

func TestMusic_FlattenRoundTrip(t *testing.T) {
	tree := setupTree(t)
	ctx := context.Background()

	res, err := tree.Select(ctx, birch.Request{
		Tables: []string{"albums al", "songs s"},
		From:   "albums al JOIN songs s ON s.album_id = al.id",
	})
	assert.NilError(t, err)

	flat := tree.Flatten(res.Rows)
	assert.Equal(t, len(flat), 7)
	assert.DeepEqual(t, tree.Nest(ctx, flat), res.Rows)
}

func TestMusic_RepoFindByIDs(t *testing.T) {
	tree := setupTree(t)
	ctx := context.Background()

	repo, err := birch.NewRepo(tree, "songs s")
	assert.NilError(t, err)

	songs, err := repo.FindByIDs(ctx, []interface{}{int64(4), int64(7)})
	assert.NilError(t, err)
	assert.Equal(t, len(songs), 2)

	titles := []interface{}{songs[0]["title"], songs[1]["title"]}
	assert.DeepEqual(t, titles, []interface{}{"So What", "Hocus-Pocus"})
}
