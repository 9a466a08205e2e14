package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path"

	"github.com/leengari/birchtree/internal/domain/data"
	"github.com/leengari/birchtree/internal/domain/schema"
)

// LoadDatabase loads a database laid out as
// meta.json, <table>/meta.json and <table>/data.json under root of fsys.
// Use os.DirFS for a directory on disk.
func LoadDatabase(fsys fs.FS, root string) (*schema.Database, error) {
	metaBytes, err := fs.ReadFile(fsys, path.Join(root, "meta.json"))
	if err != nil {
		return nil, fmt.Errorf("failed to read database meta: %w", err)
	}

	var meta DatabaseMeta
	if err := json.Unmarshal(metaBytes, &meta); err != nil {
		return nil, fmt.Errorf("failed to parse database meta: %w", err)
	}

	tableNames := meta.Tables
	if len(tableNames) == 0 {
		// Fall back to every subdirectory
		entries, err := fs.ReadDir(fsys, root)
		if err != nil {
			return nil, fmt.Errorf("failed to read database directory: %w", err)
		}
		for _, entry := range entries {
			if entry.IsDir() {
				tableNames = append(tableNames, entry.Name())
			}
		}
	}

	db := schema.NewDatabase(meta.Name)
	for _, tableName := range tableNames {
		table, err := LoadTable(fsys, path.Join(root, tableName))
		if err != nil {
			return nil, fmt.Errorf("failed to load table %s: %w", tableName, err)
		}
		db.AddTable(table)
	}

	slog.Info("database loaded",
		slog.String("name", db.Name),
		slog.Int("table_count", len(tableNames)),
	)

	return db, nil
}

// LoadTable loads one table directory. A missing data.json yields an empty table.
func LoadTable(fsys fs.FS, dir string) (*schema.Table, error) {
	metaBytes, err := fs.ReadFile(fsys, path.Join(dir, "meta.json"))
	if err != nil {
		return nil, err
	}

	var meta TableMeta
	if err := json.Unmarshal(metaBytes, &meta); err != nil {
		return nil, err
	}

	columns := make([]schema.Column, 0, len(meta.Columns))
	for _, c := range meta.Columns {
		columns = append(columns, schema.Column{
			Name:       c.Name,
			Type:       schema.ColumnType(c.Type),
			PrimaryKey: c.PrimaryKey,
			NotNull:    c.NotNull,
		})
	}
	table := schema.NewTable(meta.Name, columns...)

	dataBytes, err := fs.ReadFile(fsys, path.Join(dir, "data.json"))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}
	if err == nil {
		var rows []data.Row
		if err := json.Unmarshal(dataBytes, &rows); err != nil {
			return nil, fmt.Errorf("failed to parse rows: %w", err)
		}
		for i, row := range rows {
			if err := table.Insert(row); err != nil {
				return nil, fmt.Errorf("row %d: %w", i, err)
			}
		}
	}

	slog.Debug("table loaded",
		slog.String("table", table.Name),
		slog.Int("rows", len(table.Rows)),
	)

	return table, nil
}
