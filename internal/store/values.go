package store

import (
	"fmt"
	"math"
	"strconv"

	"github.com/wegman-software/osm2sql-go/internal/element"
)

// Drivers return different Go types for the same SQL type (pgx gives int32
// for INTEGER, database/sql drivers int64; text may come as []byte), so rows
// are scanned into any and converted here.

func toInt64(v any) (int64, error) {
	switch x := v.(type) {
	case int64:
		return x, nil
	case int32:
		return int64(x), nil
	case int16:
		return int64(x), nil
	case int:
		return int64(x), nil
	case float64:
		if x != math.Trunc(x) {
			return 0, fmt.Errorf("non-integral value %v", x)
		}
		return int64(x), nil
	case string:
		return strconv.ParseInt(x, 10, 64)
	case []byte:
		return strconv.ParseInt(string(x), 10, 64)
	}
	return 0, fmt.Errorf("unexpected type %T", v)
}

func toFloat64(v any) (float64, error) {
	switch x := v.(type) {
	case float64:
		return x, nil
	case float32:
		return float64(x), nil
	case int64:
		return float64(x), nil
	case int32:
		return float64(x), nil
	case string:
		return strconv.ParseFloat(x, 64)
	case []byte:
		return strconv.ParseFloat(string(x), 64)
	}
	return 0, fmt.Errorf("unexpected type %T", v)
}

func toString(v any) (string, error) {
	switch x := v.(type) {
	case string:
		return x, nil
	case []byte:
		return string(x), nil
	}
	return "", fmt.Errorf("unexpected type %T", v)
}

// rowReader converts the scanned columns of one row, remembering the first
// failure so callers can read all fields and check once.
type rowReader struct {
	entity  string
	columns []string
	values  []any
	id      int64
	err     error
}

func newRowReader(entity string, columns []string) *rowReader {
	return &rowReader{
		entity:  entity,
		columns: columns,
		values:  make([]any, len(columns)),
	}
}

// dest returns scan destinations for the next row and resets the state.
func (r *rowReader) dest() []any {
	r.id = 0
	r.err = nil
	ptrs := make([]any, len(r.values))
	for i := range r.values {
		r.values[i] = nil
		ptrs[i] = &r.values[i]
	}
	return ptrs
}

func (r *rowReader) fail(i int, err error) {
	if r.err != nil {
		return
	}
	r.err = &element.FormatError{
		Entity: r.entity,
		ID:     r.id,
		Field:  r.columns[i],
		Value:  fmt.Sprint(r.values[i]),
		Err:    err,
	}
}

func (r *rowReader) present(i int) bool {
	if r.values[i] != nil {
		return true
	}
	if r.err == nil {
		r.err = &element.NoDataError{Entity: r.entity, Column: r.columns[i]}
	}
	return false
}

func (r *rowReader) getInt64(i int) int64 {
	if !r.present(i) {
		return 0
	}
	v, err := toInt64(r.values[i])
	if err != nil {
		r.fail(i, err)
	}
	return v
}

func (r *rowReader) getInt32(i int) int32 {
	v := r.getInt64(i)
	if v < math.MinInt32 || v > math.MaxInt32 {
		r.fail(i, fmt.Errorf("value out of int32 range"))
		return 0
	}
	return int32(v)
}

func (r *rowReader) getFloat64(i int) float64 {
	if !r.present(i) {
		return 0
	}
	v, err := toFloat64(r.values[i])
	if err != nil {
		r.fail(i, err)
	}
	return v
}

func (r *rowReader) getString(i int) string {
	if !r.present(i) {
		return ""
	}
	v, err := toString(r.values[i])
	if err != nil {
		r.fail(i, err)
	}
	return v
}

// cell reads an optional aggregate column; NULL is an empty cell.
func (r *rowReader) cell(i int) string {
	if r.values[i] == nil {
		return ""
	}
	v, err := toString(r.values[i])
	if err != nil {
		r.fail(i, err)
	}
	return v
}

// readID reads the id column and records it for later error messages.
func (r *rowReader) readID(i int) int64 {
	r.id = r.getInt64(i)
	return r.id
}
