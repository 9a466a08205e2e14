package writer

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/leengari/birchtree/internal/domain/data"
	"github.com/leengari/birchtree/internal/domain/schema"
	"github.com/leengari/birchtree/internal/storage"
)

// SaveTable persists both data.json and meta.json under dir
func SaveTable(t *schema.Table, dir string) error {
	if t == nil || dir == "" {
		return fmt.Errorf("cannot save table: nil or missing path")
	}

	tableName := t.Name

	// Lock table for reading during save
	t.RLock()
	defer t.RUnlock()

	// 1. Prepare meta (from current in-memory state)
	meta := storage.TableMeta{
		Name:     tableName,
		RowCount: int64(len(t.Rows)),
		Columns:  make([]storage.ColumnMeta, len(t.Columns)),
	}

	for i, col := range t.Columns {
		meta.Columns[i] = storage.ColumnMeta{
			Name:       col.Name,
			Type:       string(col.Type),
			PrimaryKey: col.PrimaryKey,
			NotNull:    col.NotNull,
		}
	}

	// 2. Marshal meta
	metaBytes, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal table meta for %s: %w", tableName, err)
	}

	// 3. Marshal data (rows)
	rows := t.Rows
	if rows == nil {
		rows = []data.Row{}
	}
	dataBytes, err := json.MarshalIndent(rows, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal rows for %s: %w", tableName, err)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create table directory for %s: %w", tableName, err)
	}

	// 4. Write both files using temp + atomic rename
	files := []struct {
		path string
		data []byte
		name string
	}{
		{filepath.Join(dir, "meta.json"), metaBytes, "meta.json"},
		{filepath.Join(dir, "data.json"), dataBytes, "data.json"},
	}

	for _, f := range files {
		if err := writeAtomic(f.path, f.data); err != nil {
			return fmt.Errorf("failed to write %s for table %s: %w", f.name, tableName, err)
		}
	}

	slog.Debug("table saved",
		slog.String("table", tableName),
		slog.String("path", dir),
		slog.Int("row_count", len(t.Rows)),
	)

	return nil
}

// SaveDatabase saves all tables and database metadata under dir
func SaveDatabase(db *schema.Database, dir string) error {
	if db == nil {
		return fmt.Errorf("cannot save nil database")
	}

	tableNames := db.TableNames()

	// 1. Save all tables first
	for _, name := range tableNames {
		table, _ := db.Table(name)
		if err := SaveTable(table, filepath.Join(dir, name)); err != nil {
			slog.Error("failed to save table during database save",
				slog.String("table", name),
				slog.Any("error", err),
			)
			return fmt.Errorf("failed to save table %s: %w", name, err)
		}
	}

	// 2. Database metadata
	dbMeta := storage.DatabaseMeta{
		Name:    db.Name,
		Version: 1,
		Tables:  tableNames,
	}

	metaBytes, err := json.MarshalIndent(dbMeta, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal database meta: %w", err)
	}

	if err := writeAtomic(filepath.Join(dir, "meta.json"), metaBytes); err != nil {
		return fmt.Errorf("failed to write database meta: %w", err)
	}

	slog.Info("database saved",
		slog.String("name", db.Name),
		slog.String("path", dir),
		slog.Int("table_count", len(tableNames)),
	)

	return nil
}

// writeAtomic writes to a temp file then renames it over path
func writeAtomic(path string, data []byte) error {
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmpPath, path)
}
