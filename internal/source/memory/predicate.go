package memory

import (
	"fmt"
	"reflect"
	"time"

	"github.com/leengari/birchtree/internal/domain/data"
	"github.com/leengari/birchtree/internal/domain/schema"
	"github.com/leengari/birchtree/internal/parser/ast"
)

func matchesAll(conditions []*ast.Condition, row data.JoinedRow, args []interface{}) bool {
	for _, c := range conditions {
		if !matches(c, row, args) {
			return false
		}
	}
	return true
}

// matches evaluates one condition with SQL NULL semantics:
// NULL is never equal to anything, including NULL
func matches(c *ast.Condition, row data.JoinedRow, args []interface{}) bool {
	left := operandValue(c.Left, row, args)
	switch c.Operator {
	case "IS NULL":
		return left == nil
	case "IS NOT NULL":
		return left != nil
	case "=":
		right := operandValue(c.Right, row, args)
		if left == nil || right == nil {
			return false
		}
		return valuesEqual(left, right)
	default:
		return false
	}
}

func operandValue(op ast.Operand, row data.JoinedRow, args []interface{}) interface{} {
	switch o := op.(type) {
	case *ast.ColumnRef:
		value, _ := row.Get(data.Qualify(o.Table, o.Column))
		return value
	case *ast.Literal:
		return o.Value
	case *ast.Placeholder:
		if o.Index < len(args) {
			return args[o.Index]
		}
	}
	return nil
}

// normalize maps equal-meaning values onto one representation:
// integers and whole floats become int64, byte slices become strings
func normalize(v interface{}) interface{} {
	if i, ok := schema.NormalizeToInt64(v); ok {
		return i
	}
	switch n := v.(type) {
	case int8:
		return int64(n)
	case int16:
		return int64(n)
	case uint:
		return int64(n)
	case uint8:
		return int64(n)
	case uint16:
		return int64(n)
	case uint32:
		return int64(n)
	case float32:
		return normalize(float64(n))
	case []byte:
		return string(n)
	}
	return v
}

func valuesEqual(a, b interface{}) bool {
	a, b = normalize(a), normalize(b)
	if at, ok := a.(time.Time); ok {
		bt, ok := b.(time.Time)
		return ok && at.Equal(bt)
	}
	if isComparable(a) && isComparable(b) {
		return a == b
	}
	return reflect.DeepEqual(a, b)
}

// hashKey returns a map key such that valuesEqual(a, b) implies
// hashKey(a) == hashKey(b)
func hashKey(v interface{}) interface{} {
	v = normalize(v)
	if t, ok := v.(time.Time); ok {
		return t.UTC()
	}
	if isComparable(v) {
		return v
	}
	return fmt.Sprintf("%T:%v", v, v)
}

func isComparable(v interface{}) bool {
	if v == nil {
		return true
	}
	return reflect.TypeOf(v).Comparable()
}
