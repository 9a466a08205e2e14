package memory

import (
	"log/slog"

	"github.com/leengari/birchtree/internal/domain/data"
	"github.com/leengari/birchtree/internal/parser/ast"
)

// executeJoin joins right onto the rows produced so far. The first
// equality between a right column and a left column drives a hash join;
// every other ON condition is applied to each candidate pair. Without
// such an equality every right row is a candidate.
func executeJoin(left []data.JoinedRow, right *binding, j *ast.Join, args []interface{}) []data.JoinedRow {
	keyColumn, probe, residual := splitJoinCondition(right.ref, j.On)

	var hashIndex map[interface{}][]int
	if keyColumn != "" {
		hashIndex = buildJoinIndex(right, keyColumn)
	}

	results := make([]data.JoinedRow, 0, len(left))
	unmatched := 0

	for _, leftRow := range left {
		var candidates []int
		if hashIndex != nil {
			probeValue := operandValue(probe, leftRow, args)
			if probeValue != nil {
				candidates = hashIndex[hashKey(probeValue)]
			}
		} else {
			candidates = allPositions(len(right.table.Rows))
		}

		matched := false
		for _, pos := range candidates {
			joined := leftRow.Extend(right.ref, right.table.Rows[pos], right.columns)
			if !matchesAll(residual, joined, args) {
				continue
			}
			matched = true
			results = append(results, joined)
		}

		if !matched && j.Kind == ast.JoinLeft {
			unmatched++
			results = append(results, leftRow.Extend(right.ref, nil, right.columns))
		}
	}

	slog.Debug("join completed",
		slog.String("kind", j.Kind.String()),
		slog.String("table", right.table.Name),
		slog.String("ref", right.ref),
		slog.Bool("hashed", hashIndex != nil),
		slog.Int("result_rows", len(results)),
		slog.Int("unmatched_left", unmatched),
	)

	return results
}

// splitJoinCondition picks the hash key: a "right.col = other.col" equality
// whose other side belongs to an earlier table. The remaining conditions
// are returned as residual predicates.
func splitJoinCondition(ref string, on []*ast.Condition) (string, ast.Operand, []*ast.Condition) {
	for i, c := range on {
		if c.Operator != "=" {
			continue
		}
		l, lok := c.Left.(*ast.ColumnRef)
		r, rok := c.Right.(*ast.ColumnRef)
		if !lok || !rok {
			continue
		}

		var key string
		var probe ast.Operand
		switch {
		case l.Table == ref && r.Table != ref:
			key, probe = l.Column, r
		case r.Table == ref && l.Table != ref:
			key, probe = r.Column, l
		default:
			continue
		}

		residual := make([]*ast.Condition, 0, len(on)-1)
		residual = append(residual, on[:i]...)
		residual = append(residual, on[i+1:]...)
		return key, probe, residual
	}
	return "", nil, on
}

// buildJoinIndex creates a hash index for the join column, skipping NULLs
func buildJoinIndex(b *binding, columnName string) map[interface{}][]int {
	hashIndex := make(map[interface{}][]int)
	for i, row := range b.table.Rows {
		value := row[columnName]
		if value == nil {
			continue
		}
		key := hashKey(value)
		hashIndex[key] = append(hashIndex[key], i)
	}
	return hashIndex
}

func allPositions(n int) []int {
	positions := make([]int, n)
	for i := range positions {
		positions[i] = i
	}
	return positions
}

// filter keeps the rows that satisfy every condition
func filter(rows []data.JoinedRow, conditions []*ast.Condition, args []interface{}) []data.JoinedRow {
	kept := make([]data.JoinedRow, 0, len(rows))
	for _, row := range rows {
		if matchesAll(conditions, row, args) {
			kept = append(kept, row)
		}
	}
	return kept
}
