package testutil

import (
	"github.com/leengari/birchtree/internal/domain/data"
	"github.com/leengari/birchtree/internal/domain/schema"
)

// CreateArtistsTable creates an artists table with sample data for testing
func CreateArtistsTable() *schema.Table {
	table := schema.NewTable("artists",
		schema.Column{Name: "id", Type: schema.ColumnTypeInt, PrimaryKey: true, NotNull: true},
		schema.Column{Name: "name", Type: schema.ColumnTypeText, NotNull: true},
		schema.Column{Name: "label_id", Type: schema.ColumnTypeInt},
	)
	table.Rows = []data.Row{
		{"id": int64(1), "name": "Nina Simone", "label_id": int64(1)},
		{"id": int64(2), "name": "Miles Davis", "label_id": int64(2)},
		{"id": int64(3), "name": "The Unsigned", "label_id": nil},
		// Note: artist 3 has no label and no albums
	}
	return table
}

// CreateLabelsTable creates a labels table with sample data for testing
func CreateLabelsTable() *schema.Table {
	table := schema.NewTable("labels",
		schema.Column{Name: "id", Type: schema.ColumnTypeInt, PrimaryKey: true, NotNull: true},
		schema.Column{Name: "name", Type: schema.ColumnTypeText, NotNull: true},
	)
	table.Rows = []data.Row{
		{"id": int64(1), "name": "Philips"},
		{"id": int64(2), "name": "Columbia"},
	}
	return table
}

// CreateAlbumsTable creates an albums table with sample data for testing
func CreateAlbumsTable() *schema.Table {
	table := schema.NewTable("albums",
		schema.Column{Name: "id", Type: schema.ColumnTypeInt, PrimaryKey: true, NotNull: true},
		schema.Column{Name: "artist_id", Type: schema.ColumnTypeInt, NotNull: true},
		schema.Column{Name: "title", Type: schema.ColumnTypeText, NotNull: true},
		schema.Column{Name: "year", Type: schema.ColumnTypeInt},
	)
	table.Rows = []data.Row{
		{"id": int64(1), "artist_id": int64(1), "title": "Pastel Blues", "year": int64(1965)},
		{"id": int64(2), "artist_id": int64(1), "title": "Wild Is the Wind", "year": int64(1966)},
		{"id": int64(3), "artist_id": int64(2), "title": "Kind of Blue", "year": int64(1959)},
	}
	return table
}

// CreateSongsTable creates a songs table with sample data for testing
func CreateSongsTable() *schema.Table {
	table := schema.NewTable("songs",
		schema.Column{Name: "id", Type: schema.ColumnTypeInt, PrimaryKey: true, NotNull: true},
		schema.Column{Name: "album_id", Type: schema.ColumnTypeInt, NotNull: true},
		schema.Column{Name: "title", Type: schema.ColumnTypeText, NotNull: true},
		schema.Column{Name: "track", Type: schema.ColumnTypeInt},
	)
	table.Rows = []data.Row{
		{"id": int64(1), "album_id": int64(1), "title": "Be My Husband", "track": int64(1)},
		{"id": int64(2), "album_id": int64(1), "title": "Sinnerman", "track": int64(2)},
		{"id": int64(3), "album_id": int64(2), "title": "Lilac Wine", "track": int64(1)},
		{"id": int64(4), "album_id": int64(3), "title": "So What", "track": int64(1)},
		{"id": int64(5), "album_id": int64(3), "title": "Blue in Green", "track": int64(2)},
	}
	return table
}

// CreateMusicDatabase creates a database holding artists, labels, albums and songs
func CreateMusicDatabase() *schema.Database {
	db := schema.NewDatabase("music")
	db.AddTable(CreateArtistsTable())
	db.AddTable(CreateLabelsTable())
	db.AddTable(CreateAlbumsTable())
	db.AddTable(CreateSongsTable())
	return db
}
