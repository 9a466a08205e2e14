package projection_test

import (
	"errors"
	"testing"

	"gotest.tools/v3/assert"

	domainerrors "github.com/leengari/birchtree/internal/domain/errors"
	"github.com/leengari/birchtree/internal/query/projection"
)

func TestParseDescriptor(t *testing.T) {
	tests := []struct {
		token string
		name  string
		alias string
	}{
		{"users", "users", "users"},
		{"users u", "users", "u"},
		{"users AS u", "users", "u"},
		{"users as u", "users", "u"},
		{"  users   As   u ", "users", "u"},
		{"public.users", "public.users", "public.users"},
		{"public.users AS u", "public.users", "u"},
		{"artists AS as", "artists", "as"},
	}

	for _, tt := range tests {
		t.Run(tt.token, func(t *testing.T) {
			d, err := projection.ParseDescriptor(tt.token)
			assert.NilError(t, err)
			assert.Equal(t, d.Name, tt.name)
			assert.Equal(t, d.Alias, tt.alias)
		})
	}
}

func TestParseDescriptor_Invalid(t *testing.T) {
	for _, token := range []string{"", "   ", "users AS u extra", "users FOR u", "users u:x", "users u.x", "public.users p.u", ".users", "public.", "a..b"} {
		t.Run(token, func(t *testing.T) {
			_, err := projection.ParseDescriptor(token)

			var invalid *domainerrors.InvalidDescriptorError
			assert.Assert(t, errors.As(err, &invalid), "expected InvalidDescriptorError, got %v", err)
			assert.Equal(t, invalid.Token, token)
		})
	}
}

func TestPath(t *testing.T) {
	path, field := projection.Path("albums:songs:author:id")
	assert.DeepEqual(t, path, []string{"albums", "songs", "author"})
	assert.Equal(t, field, "id")

	path, field = projection.Path("name")
	assert.Equal(t, len(path), 0)
	assert.Equal(t, field, "name")
}
