package parser

import (
	stderrors "errors"
	"testing"

	"github.com/leengari/birchtree/internal/domain/errors"
	"github.com/leengari/birchtree/internal/parser/ast"
)

func TestParseProjection(t *testing.T) {
	tests := []struct {
		input  string
		table  string
		column string
		alias  []string
		output string
	}{
		{"artists.id", "artists", "id", nil, "id"},
		{"al.title AS al:title", "al", "title", []string{"al", "title"}, "al:title"},
		{"s.id as al:s:id", "s", "id", []string{"al", "s", "id"}, "al:s:id"},
		{"a.name AS label", "a", "name", []string{"label"}, "label"},
		{"as.id AS as:id", "as", "id", []string{"as", "id"}, "as:id"},
		{"tags.left", "tags", "left", nil, "left"},
		{"n.null AS is:not", "n", "null", []string{"is", "not"}, "is:not"},
		{"public.users.id AS u:id", "public.users", "id", []string{"u", "id"}, "u:id"},
		{"ал.имя AS ал:имя", "ал", "имя", []string{"ал", "имя"}, "ал:имя"},
		{"a.id AS 5", "a", "id", []string{"5"}, "5"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			proj, err := ParseProjection(tt.input)
			if err != nil {
				t.Fatalf("ParseProjection(%q) error: %v", tt.input, err)
			}
			if proj.Source.Table != tt.table || proj.Source.Column != tt.column {
				t.Errorf("source = %s, want %s.%s", proj.Source, tt.table, tt.column)
			}
			if len(proj.Alias) != len(tt.alias) {
				t.Fatalf("alias = %v, want %v", proj.Alias, tt.alias)
			}
			for i := range tt.alias {
				if proj.Alias[i] != tt.alias[i] {
					t.Errorf("alias[%d] = %s, want %s", i, proj.Alias[i], tt.alias[i])
				}
			}
			if got := proj.OutputName(); got != tt.output {
				t.Errorf("OutputName() = %s, want %s", got, tt.output)
			}
		})
	}
}

func TestParseProjection_Errors(t *testing.T) {
	tests := []string{
		"",
		"artists",
		"artists.",
		"artists.id AS",
		"artists.id AS a:",
		"artists.id extra",
		"artists.id; DROP",
		".id",
		"a..id",
		"a.id AS al::id",
		" a.id",
	}

	for _, input := range tests {
		t.Run(input, func(t *testing.T) {
			_, err := ParseProjection(input)
			if err == nil {
				t.Fatalf("expected error for %q", input)
			}
			var exprErr *errors.ExpressionError
			if !stderrors.As(err, &exprErr) {
				t.Fatalf("expected ExpressionError, got %T: %v", err, err)
			}
			if exprErr.Expression != input {
				t.Errorf("Expression = %q, want %q", exprErr.Expression, input)
			}
		})
	}
}

func TestParseProjection_ErrorPosition(t *testing.T) {
	_, err := ParseProjection("a.id AS al::id")
	var exprErr *errors.ExpressionError
	if !stderrors.As(err, &exprErr) {
		t.Fatalf("expected ExpressionError, got %v", err)
	}
	if exprErr.Position != 12 {
		t.Errorf("Position = %d, want 12", exprErr.Position)
	}
}

func TestParseFrom_SingleTable(t *testing.T) {
	clause, err := ParseFrom("artists")
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if clause.Table.Name != "artists" || clause.Table.Ref() != "artists" {
		t.Errorf("unexpected table %+v", clause.Table)
	}
	if len(clause.Joins) != 0 || len(clause.Where) != 0 {
		t.Errorf("expected no joins or conditions, got %s", clause)
	}
}

func TestParseFrom_Joins(t *testing.T) {
	input := "artists a JOIN albums al ON al.artist_id = a.id " +
		"LEFT OUTER JOIN songs AS s ON s.album_id = al.id AND s.track = 1 " +
		"INNER JOIN labels l ON l.id = a.label_id"

	clause, err := ParseFrom(input)
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}

	if clause.Table.Name != "artists" || clause.Table.Alias != "a" {
		t.Errorf("unexpected base table %+v", clause.Table)
	}
	if len(clause.Joins) != 3 {
		t.Fatalf("expected 3 joins, got %d", len(clause.Joins))
	}

	kinds := []ast.JoinKind{ast.JoinInner, ast.JoinLeft, ast.JoinInner}
	refs := []string{"al", "s", "l"}
	for i, j := range clause.Joins {
		if j.Kind != kinds[i] {
			t.Errorf("join %d kind = %s, want %s", i, j.Kind, kinds[i])
		}
		if j.Table.Ref() != refs[i] {
			t.Errorf("join %d ref = %s, want %s", i, j.Table.Ref(), refs[i])
		}
	}

	songs := clause.Joins[1]
	if len(songs.On) != 2 {
		t.Fatalf("expected 2 ON conditions, got %d", len(songs.On))
	}
	lit, ok := songs.On[1].Right.(*ast.Literal)
	if !ok || lit.Value != int64(1) {
		t.Errorf("expected literal 1, got %#v", songs.On[1].Right)
	}
}

func TestParseFrom_Where(t *testing.T) {
	clause, err := ParseFrom("songs s WHERE s.album_id = ? AND s.title = 'It''s' AND s.deleted_at IS NULL AND s.id IS NOT NULL AND s.rating = ?")
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if len(clause.Where) != 5 {
		t.Fatalf("expected 5 conditions, got %d", len(clause.Where))
	}

	first, ok := clause.Where[0].Right.(*ast.Placeholder)
	if !ok || first.Index != 0 {
		t.Errorf("expected placeholder 0, got %#v", clause.Where[0].Right)
	}
	last, ok := clause.Where[4].Right.(*ast.Placeholder)
	if !ok || last.Index != 1 {
		t.Errorf("expected placeholder 1, got %#v", clause.Where[4].Right)
	}

	lit, ok := clause.Where[1].Right.(*ast.Literal)
	if !ok || lit.Value != "It's" {
		t.Errorf("expected literal It's, got %#v", clause.Where[1].Right)
	}

	if clause.Where[2].Operator != "IS NULL" || clause.Where[2].Right != nil {
		t.Errorf("unexpected condition %s", clause.Where[2])
	}
	if clause.Where[3].Operator != "IS NOT NULL" {
		t.Errorf("unexpected condition %s", clause.Where[3])
	}
}

func TestParseFrom_String(t *testing.T) {
	input := "artists a LEFT JOIN albums al ON al.artist_id = a.id WHERE a.name = 'Nina'"
	clause, err := ParseFrom(input)
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if got := clause.String(); got != input {
		t.Errorf("String() = %q, want %q", got, input)
	}
}

func TestParseFrom_KeywordAliases(t *testing.T) {
	input := "artists AS as JOIN albums abms ON abms.artist_id = as.id WHERE as.left IS NULL AND abms.on = ?"
	clause, err := ParseFrom(input)
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if clause.Table.Ref() != "as" {
		t.Errorf("base ref = %s, want as", clause.Table.Ref())
	}
	on := clause.Joins[0].On[0]
	if right, ok := on.Right.(*ast.ColumnRef); !ok || right.Table != "as" || right.Column != "id" {
		t.Errorf("unexpected ON operand %#v", on.Right)
	}
	if left, ok := clause.Where[0].Left.(*ast.ColumnRef); !ok || left.Column != "left" {
		t.Errorf("unexpected WHERE operand %#v", clause.Where[0].Left)
	}
	if got := clause.String(); got != input {
		t.Errorf("String() = %q, want %q", got, input)
	}
}

func TestParseFrom_QualifiedAndUnicodeNames(t *testing.T) {
	clause, err := ParseFrom("public.users JOIN музыка м ON м.user_id = public.users.id")
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if clause.Table.Ref() != "public.users" {
		t.Errorf("base ref = %s, want public.users", clause.Table.Ref())
	}
	if clause.Joins[0].Table.Name != "музыка" || clause.Joins[0].Table.Ref() != "м" {
		t.Errorf("unexpected joined table %+v", clause.Joins[0].Table)
	}
	right, ok := clause.Joins[0].On[0].Right.(*ast.ColumnRef)
	if !ok || right.Table != "public.users" || right.Column != "id" {
		t.Errorf("unexpected ON operand %#v", clause.Joins[0].On[0].Right)
	}
}

func TestParseFrom_Errors(t *testing.T) {
	tests := []string{
		"",
		"artists JOIN",
		"artists JOIN albums",
		"artists JOIN albums ON",
		"artists JOIN albums ON albums.id",
		"artists LEFT albums",
		"artists WHERE a.id IS 1",
		"artists WHERE",
		"artists a b c",
		"artists AS",
		"public.",
	}

	for _, input := range tests {
		t.Run(input, func(t *testing.T) {
			if _, err := ParseFrom(input); err == nil {
				t.Fatalf("expected error for %q", input)
			}
		})
	}
}
