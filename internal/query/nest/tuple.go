package nest

import (
	"bytes"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"time"

	"github.com/zeebo/xxh3"

	"github.com/leengari/birchtree/internal/domain/data"
)

// tupleIndex assigns a stable group number to every distinct value tuple,
// in order of first appearance. Tuples are bucketed by hash and compared
// by full value equality.
type tupleIndex struct {
	buckets map[uint64][]int
	tuples  [][]interface{}
	buf     []byte
}

func newTupleIndex() *tupleIndex {
	return &tupleIndex{buckets: make(map[uint64][]int)}
}

// add returns the group number of tuple, registering it when unseen
func (ti *tupleIndex) add(tuple []interface{}) int {
	ti.buf = ti.buf[:0]
	for _, v := range tuple {
		ti.buf = appendValue(ti.buf, v)
		ti.buf = append(ti.buf, 0x1f)
	}
	h := xxh3.Hash(ti.buf)

	for _, id := range ti.buckets[h] {
		if tuplesEqual(ti.tuples[id], tuple) {
			return id
		}
	}

	id := len(ti.tuples)
	ti.tuples = append(ti.tuples, tuple)
	ti.buckets[h] = append(ti.buckets[h], id)
	return id
}

// groupBy partitions rows by the values of keys, preserving the order of
// first appearance. A missing key reads as nil.
func groupBy(rows []data.Row, keys []string) [][]data.Row {
	if len(keys) == 0 {
		return [][]data.Row{rows}
	}

	index := newTupleIndex()
	var groups [][]data.Row
	for _, row := range rows {
		tuple := make([]interface{}, len(keys))
		for i, key := range keys {
			tuple[i] = row[key]
		}
		id := index.add(tuple)
		if id == len(groups) {
			groups = append(groups, nil)
		}
		groups[id] = append(groups[id], row)
	}
	return groups
}

func tuplesEqual(a, b []interface{}) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !valuesEqual(a[i], b[i]) {
			return false
		}
	}
	return true
}

func valuesEqual(a, b interface{}) bool {
	switch av := a.(type) {
	case time.Time:
		bv, ok := b.(time.Time)
		return ok && av.Equal(bv)
	case []byte:
		bv, ok := b.([]byte)
		return ok && bytes.Equal(av, bv)
	}
	return reflect.DeepEqual(a, b)
}

// appendValue writes a type-tagged encoding of v. Values that valuesEqual
// treats as equal always encode identically.
func appendValue(buf []byte, v interface{}) []byte {
	switch v := v.(type) {
	case nil:
		return append(buf, 'n')
	case string:
		return append(append(buf, 's'), v...)
	case []byte:
		return append(append(buf, 'x'), v...)
	case int64:
		return strconv.AppendInt(append(buf, 'i'), v, 10)
	case int:
		return strconv.AppendInt(append(buf, 'i'), int64(v), 10)
	case int32:
		return strconv.AppendInt(append(buf, 'i'), int64(v), 10)
	case uint64:
		return strconv.AppendUint(append(buf, 'u'), v, 10)
	case float64:
		if v == 0 {
			v = 0 // -0 == 0, and both must share a bucket
		}
		return strconv.AppendUint(append(buf, 'f'), math.Float64bits(v), 16)
	case bool:
		return strconv.AppendBool(append(buf, 'b'), v)
	case time.Time:
		return v.UTC().AppendFormat(append(buf, 't'), time.RFC3339Nano)
	default:
		return fmt.Appendf(buf, "%T:%v", v, v)
	}
}
