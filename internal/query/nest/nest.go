// Package nest rebuilds nested object graphs from flat rows whose keys are
// ':' delimited paths, and flattens them back.
package nest

import (
	"sort"

	"github.com/leengari/birchtree/internal/domain/data"
	"github.com/leengari/birchtree/internal/query/projection"
)

// level is one nesting prefix of the key space
type level struct {
	name     string
	fields   []field  // leaves directly under this prefix
	children []*level // child prefixes, first-appearance order
	byName   map[string]*level
	keys     []string // every key anywhere under this prefix
}

type field struct {
	name string
	key  string
}

func newLevel(name string) *level {
	return &level{name: name, byName: make(map[string]*level)}
}

func (l *level) child(name string) *level {
	if c, ok := l.byName[name]; ok {
		return c
	}
	c := newLevel(name)
	l.byName[name] = c
	l.children = append(l.children, c)
	return c
}

func (l *level) leafKeys() []string {
	keys := make([]string, len(l.fields))
	for i, f := range l.fields {
		keys[i] = f.key
	}
	return keys
}

// buildLevels decomposes every distinct key seen across rows into the
// prefix tree. Keys of a row are visited in sorted order for determinism.
func buildLevels(rows []data.Row) *level {
	root := newLevel("")
	seen := make(map[string]bool)

	for _, row := range rows {
		keys := make([]string, 0, len(row))
		for key := range row {
			if !seen[key] {
				keys = append(keys, key)
			}
		}
		sort.Strings(keys)

		for _, key := range keys {
			seen[key] = true
			path, name := projection.Path(key)

			current := root
			current.keys = append(current.keys, key)
			for _, segment := range path {
				current = current.child(segment)
				current.keys = append(current.keys, key)
			}
			current.fields = append(current.fields, field{name: name, key: key})
		}
	}
	return root
}

// Nest groups rows by their root-level values and assembles one node per
// distinct root identity, in order of first appearance.
//
// For every nested prefix, rows of the group are partitioned by the values
// of the prefix's own fields: one partition yields a single object, several
// yield a collection, and a prefix that is null throughout is omitted.
func Nest(rows []data.Row) []data.Node {
	results := make([]data.Node, 0)
	if len(rows) == 0 {
		return results
	}

	root := buildLevels(rows)
	for _, group := range groupBy(rows, root.leafKeys()) {
		results = append(results, assemble(root, group))
	}
	return results
}

func assemble(l *level, rows []data.Row) data.Node {
	node := make(data.Node, len(l.fields)+len(l.children))

	for _, f := range l.fields {
		if value, ok := firstValue(rows, f.key); ok {
			node[f.name] = value
		}
	}

	for _, c := range l.children {
		var groups [][]data.Row
		for _, group := range groupBy(rows, c.leafKeys()) {
			if !allNull(group, c.keys) {
				groups = append(groups, group)
			}
		}

		switch len(groups) {
		case 0:
			// join found nothing: no empty child object
		case 1:
			node[c.name] = assemble(c, groups[0])
		default:
			collection := make([]data.Node, len(groups))
			for i, group := range groups {
				collection[i] = assemble(c, group)
			}
			node[c.name] = collection
		}
	}

	return node
}

// firstValue reads key from the first row that carries it
func firstValue(rows []data.Row, key string) (interface{}, bool) {
	for _, row := range rows {
		if value, ok := row[key]; ok {
			return value, true
		}
	}
	return nil, false
}

func allNull(rows []data.Row, keys []string) bool {
	for _, row := range rows {
		for _, key := range keys {
			if row[key] != nil {
				return false
			}
		}
	}
	return true
}

// Flatten expands nodes into flat rows keyed by ':' delimited paths, the
// shape a joined query produces. Collections fan out into one row per
// element and sibling collections multiply, as joins would.
func Flatten(nodes []data.Node) []data.Row {
	rows := make([]data.Row, 0, len(nodes))
	for _, node := range nodes {
		rows = append(rows, flattenNode(node, "")...)
	}
	return rows
}

func flattenNode(node data.Node, prefix string) []data.Row {
	base := data.Row{}
	var expansions [][]data.Row

	names := make([]string, 0, len(node))
	for name := range node {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		childPrefix := prefix + name + projection.Delimiter

		var sub []data.Row
		switch v := node[name].(type) {
		case data.Node:
			sub = flattenNode(v, childPrefix)
		case map[string]interface{}:
			sub = flattenNode(data.Node(v), childPrefix)
		case []data.Node:
			for _, element := range v {
				sub = append(sub, flattenNode(element, childPrefix)...)
			}
		case []interface{}:
			elements, ok := asNodes(v)
			if !ok {
				base[prefix+name] = v
				continue
			}
			for _, element := range elements {
				sub = append(sub, flattenNode(element, childPrefix)...)
			}
		default:
			base[prefix+name] = v
			continue
		}

		if len(sub) > 0 {
			expansions = append(expansions, sub)
		}
	}

	rows := []data.Row{base}
	for _, expansion := range expansions {
		rows = cross(rows, expansion)
	}
	return rows
}

// asNodes converts a decoded JSON array of objects
func asNodes(values []interface{}) ([]data.Node, bool) {
	nodes := make([]data.Node, 0, len(values))
	for _, v := range values {
		switch m := v.(type) {
		case map[string]interface{}:
			nodes = append(nodes, data.Node(m))
		case data.Node:
			nodes = append(nodes, m)
		default:
			return nil, false
		}
	}
	return nodes, true
}

func cross(left, right []data.Row) []data.Row {
	result := make([]data.Row, 0, len(left)*len(right))
	for _, l := range left {
		for _, r := range right {
			merged := l.Copy()
			for k, v := range r {
				merged[k] = v
			}
			result = append(result, merged)
		}
	}
	return result
}
