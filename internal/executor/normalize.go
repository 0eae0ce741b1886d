package executor

import (
	"encoding/json"
	"math/big"
	"reflect"

	"github.com/google/uuid"
	"github.com/rahulmyzone/MiraNext/internal/record"
)

// normalize maps whatever the driver scanned into the closed Value type.
// Store-specific shapes are handled before the generic scalars: HUGEINT and
// DECIMAL from DuckDB, UUID byte arrays, and nested LIST/STRUCT values, which
// are kept as JSON text.
func normalize(x any) (record.Value, error) {
	switch t := x.(type) {
	case *big.Int:
		if t == nil {
			return record.Null(), nil
		}
		if t.IsInt64() {
			return record.Int(t.Int64()), nil
		}
		return record.Text(t.String()), nil
	case interface{ Float64() float64 }:
		return record.Float(t.Float64()), nil
	case [16]byte:
		return record.Text(uuid.UUID(t).String()), nil
	}

	v, err := record.Of(x)
	if err == nil {
		return v, nil
	}

	rv := reflect.ValueOf(x)
	switch rv.Kind() {
	case reflect.Map, reflect.Slice, reflect.Array, reflect.Struct:
		b, jerr := json.Marshal(x)
		if jerr != nil {
			return record.Value{}, jerr
		}
		return record.Text(string(b)), nil
	case reflect.Pointer:
		if rv.IsNil() {
			return record.Null(), nil
		}
		return normalize(rv.Elem().Interface())
	}
	return record.Value{}, err
}
