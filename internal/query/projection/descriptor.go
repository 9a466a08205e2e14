package projection

import (
	"strings"

	"github.com/leengari/birchtree/internal/domain/errors"
)

// Delimiter separates nesting path segments in an output column name
const Delimiter = ":"

// Descriptor is a parsed table token: the physical table name and the alias
// it is referenced by in the query
type Descriptor struct {
	Name  string
	Alias string
}

// ParseDescriptor parses "name", "name alias" or "name AS alias".
// The name may be schema-qualified ("public.users"). The alias defaults to
// the name when unspecified.
func ParseDescriptor(token string) (Descriptor, error) {
	fields := strings.Fields(token)

	var d Descriptor
	switch len(fields) {
	case 1:
		d = Descriptor{Name: fields[0], Alias: fields[0]}
	case 2:
		d = Descriptor{Name: fields[0], Alias: fields[1]}
	case 3:
		if !strings.EqualFold(fields[1], "AS") {
			return Descriptor{}, errors.NewInvalidDescriptor(token, "expected AS between name and alias")
		}
		d = Descriptor{Name: fields[0], Alias: fields[2]}
	case 0:
		return Descriptor{}, errors.NewInvalidDescriptor(token, "empty table token")
	default:
		return Descriptor{}, errors.NewInvalidDescriptor(token, "too many words")
	}

	if strings.Contains(d.Name, Delimiter) || strings.Contains(d.Alias, Delimiter) {
		return Descriptor{}, errors.NewInvalidDescriptor(token, "name and alias must not contain '"+Delimiter+"'")
	}
	for _, segment := range strings.Split(d.Name, ".") {
		if segment == "" {
			return Descriptor{}, errors.NewInvalidDescriptor(token, "empty segment in qualified name")
		}
	}
	if d.Alias != d.Name && strings.Contains(d.Alias, ".") {
		return Descriptor{}, errors.NewInvalidDescriptor(token, "alias must not contain '.'")
	}
	return d, nil
}
