package projection

import (
	"fmt"
	"os"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"
)

// SchemaCache maps a table name (never an alias) to its ordered columns.
// Safe for concurrent use; concurrent writers for the same name are allowed
// and the last write wins.
type SchemaCache struct {
	mu     sync.RWMutex
	tables map[string][]string
}

// snapshot is the YAML layout of a saved cache
type snapshot struct {
	Tables map[string][]string `yaml:"tables"`
}

// NewSchemaCache creates an empty cache
func NewSchemaCache() *SchemaCache {
	return &SchemaCache{tables: make(map[string][]string)}
}

// Get returns a copy of the cached columns for name
func (c *SchemaCache) Get(name string) ([]string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	columns, ok := c.tables[name]
	if !ok {
		return nil, false
	}
	return append([]string(nil), columns...), true
}

// Set stores columns for name. Empty column lists are ignored: an empty
// table shape means the table does not exist and must stay retryable.
func (c *SchemaCache) Set(name string, columns []string) {
	if len(columns) == 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tables[name] = append([]string(nil), columns...)
}

// Delete evicts name, e.g. after a schema migration
func (c *SchemaCache) Delete(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.tables, name)
}

// Len returns the number of cached tables
func (c *SchemaCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.tables)
}

// Names returns the cached table names in sorted order
func (c *SchemaCache) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	names := make([]string, 0, len(c.tables))
	for name := range c.tables {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Load merges a YAML snapshot written by Save into the cache
func (c *SchemaCache) Load(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read schema cache: %w", err)
	}

	var snap snapshot
	if err := yaml.Unmarshal(data, &snap); err != nil {
		return fmt.Errorf("failed to parse schema cache %s: %w", path, err)
	}

	for name, columns := range snap.Tables {
		c.Set(name, columns)
	}
	return nil
}

// Save writes the cache as a YAML snapshot
func (c *SchemaCache) Save(path string) error {
	c.mu.RLock()
	snap := snapshot{Tables: make(map[string][]string, len(c.tables))}
	for name, columns := range c.tables {
		snap.Tables[name] = columns
	}
	c.mu.RUnlock()

	data, err := yaml.Marshal(&snap)
	if err != nil {
		return fmt.Errorf("failed to encode schema cache: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write schema cache: %w", err)
	}
	return nil
}
