package birch

import (
	"context"
	"sort"
	"strings"

	"github.com/leengari/birchtree/internal/domain/data"
	"github.com/leengari/birchtree/internal/domain/errors"
	"github.com/leengari/birchtree/internal/query/projection"
)

// Repo provides attribute lookups over one table
type Repo struct {
	tree  *Tree
	table projection.Descriptor
	key   string

	// Placeholder renders the n-th (1-based) bind parameter; nil means "?"
	Placeholder func(n int) string
}

// NewRepo creates a repo for the table descriptor token ("users" or "users u")
func NewRepo(tree *Tree, table string) (*Repo, error) {
	d, err := projection.ParseDescriptor(table)
	if err != nil {
		return nil, err
	}
	return &Repo{tree: tree, table: d, key: "id"}, nil
}

// Find returns every row whose columns equal attrs, duplicates included.
// Empty attrs match all rows.
func (r *Repo) Find(ctx context.Context, attrs map[string]interface{}) ([]data.Node, error) {
	columns, err := r.tree.Projector().Columns(ctx, r.table.Name)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(attrs))
	for name := range attrs {
		if !contains(columns, name) {
			return nil, &errors.UnknownColumnError{Table: r.table.Name, Column: name}
		}
		names = append(names, name)
	}
	sort.Strings(names)

	token := r.table.Name
	if r.table.Alias != r.table.Name {
		token += " AS " + r.table.Alias
	}

	var from strings.Builder
	from.WriteString(token)

	args := make([]interface{}, 0, len(names))
	for i, name := range names {
		if i == 0 {
			from.WriteString(" WHERE ")
		} else {
			from.WriteString(" AND ")
		}
		from.WriteString(data.Qualify(r.table.Alias, name))
		if attrs[name] == nil {
			from.WriteString(" IS NULL")
			continue
		}
		args = append(args, attrs[name])
		from.WriteString(" = " + r.placeholder(len(args)))
	}

	rows, err := r.tree.Rows(ctx, Request{
		Tables: []string{token},
		From:   from.String(),
		Args:   args,
	})
	if err != nil {
		return nil, err
	}

	// One table projects no nested keys, so every row is its own node
	nodes := make([]data.Node, len(rows))
	for i, row := range rows {
		nodes[i] = data.Node(row)
	}
	return nodes, nil
}

// FindOne returns the first matching row, or nil when nothing matches
func (r *Repo) FindOne(ctx context.Context, attrs map[string]interface{}) (data.Node, error) {
	rows, err := r.Find(ctx, attrs)
	if err != nil || len(rows) == 0 {
		return nil, err
	}
	return rows[0], nil
}

// FindByID looks a row up by its id column
func (r *Repo) FindByID(ctx context.Context, id interface{}) (data.Node, error) {
	return r.FindOne(ctx, map[string]interface{}{r.key: id})
}

// FindByIDs looks up each id in turn; ids without a row are skipped
func (r *Repo) FindByIDs(ctx context.Context, ids []interface{}) ([]data.Node, error) {
	nodes := make([]data.Node, 0, len(ids))
	for _, id := range ids {
		node, err := r.FindByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if node != nil {
			nodes = append(nodes, node)
		}
	}
	return nodes, nil
}

func (r *Repo) placeholder(n int) string {
	if r.Placeholder == nil {
		return "?"
	}
	return r.Placeholder(n)
}

func contains(values []string, v string) bool {
	for _, s := range values {
		if s == v {
			return true
		}
	}
	return false
}
