package projection

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/leengari/birchtree/internal/domain/errors"
)

// warmConcurrency bounds parallel introspection calls in Warm
const warmConcurrency = 4

// Introspector returns the ordered column names of a table.
// An empty result means the table does not exist.
type Introspector interface {
	Columns(ctx context.Context, table string) ([]string, error)
}

// Projector turns table descriptors into projection lists whose output
// names encode the nesting path of every joined table
type Projector struct {
	introspector Introspector
	cache        *SchemaCache
}

// NewProjector creates a projector. A nil cache gets a private one.
func NewProjector(introspector Introspector, cache *SchemaCache) *Projector {
	if cache == nil {
		cache = NewSchemaCache()
	}
	return &Projector{
		introspector: introspector,
		cache:        cache,
	}
}

// Cache returns the schema cache owned by this projector
func (p *Projector) Cache() *SchemaCache {
	return p.cache
}

// Grow builds the projection list for tables, in input order then column
// order. The first table's columns are unaliased ("a.col"); all others are
// aliased as "b.col AS b:col".
func (p *Projector) Grow(ctx context.Context, tables ...string) ([]string, error) {
	descriptors := make([]Descriptor, 0, len(tables))
	for _, token := range tables {
		d, err := ParseDescriptor(token)
		if err != nil {
			return nil, err
		}
		descriptors = append(descriptors, d)
	}

	results := make([]string, 0)
	for i, d := range descriptors {
		columns, err := p.Columns(ctx, d.Name)
		if err != nil {
			return nil, err
		}
		results = append(results, qualify(d, columns, i == 0)...)
	}

	slog.Debug("projection grown",
		slog.Int("tables", len(descriptors)),
		slog.Int("columns", len(results)),
	)

	return results, nil
}

// Columns returns the columns of table name, introspecting on a cache miss
func (p *Projector) Columns(ctx context.Context, name string) ([]string, error) {
	if columns, ok := p.cache.Get(name); ok {
		return columns, nil
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	columns, err := p.introspector.Columns(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("failed to introspect table %s: %w", name, err)
	}
	if len(columns) == 0 {
		return nil, errors.NewTableNotFound(name)
	}

	p.cache.Set(name, columns)
	slog.Debug("schema cached",
		slog.String("table", name),
		slog.Int("columns", len(columns)),
	)

	return append([]string(nil), columns...), nil
}

// Warm introspects every uncached table concurrently.
// Tokens use the same syntax as Grow; aliases are ignored.
func (p *Projector) Warm(ctx context.Context, tables ...string) error {
	seen := make(map[string]bool, len(tables))
	var names []string
	for _, token := range tables {
		d, err := ParseDescriptor(token)
		if err != nil {
			return err
		}
		if seen[d.Name] {
			continue
		}
		seen[d.Name] = true
		names = append(names, d.Name)
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(warmConcurrency)
	for _, name := range names {
		g.Go(func() error {
			_, err := p.Columns(ctx, name)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	slog.Info("schema cache warmed", slog.Int("tables", len(names)))
	return nil
}
