package value

import (
	"github.com/grafana/cqlbind/pkg/types"
)

// MapEntry is one decoded map entry.
type MapEntry struct {
	Key   interface{}
	Value interface{}
}

// FieldValue is one decoded user type field.
type FieldValue struct {
	Name  string
	Value interface{}
}

// Decode materialises v as a tree of host values. Null decodes to nil, lists,
// sets and tuples to []interface{}, maps to []MapEntry and user types to
// []FieldValue. Scalars decode to the type returned by their extractor;
// blobs and other opaque types decode to a copy of their bytes.
func (v Value) Decode() (interface{}, error) {
	if err := v.live(); err != nil {
		return nil, err
	}
	if v.IsNull() {
		return nil, nil
	}

	switch v.dt.Type {
	case types.List, types.Set:
		it, err := v.AsCollectionIterator()
		if err != nil {
			return nil, err
		}
		defer it.Close()
		out := make([]interface{}, 0, v.sizeHint())
		for it.Next() {
			elem, err := it.Value().Decode()
			if err != nil {
				return nil, err
			}
			out = append(out, elem)
		}
		return out, it.Err()

	case types.Map:
		it, err := v.AsMapIterator()
		if err != nil {
			return nil, err
		}
		defer it.Close()
		out := make([]MapEntry, 0, v.sizeHint())
		for it.Next() {
			k, err := it.Key().Decode()
			if err != nil {
				return nil, err
			}
			val, err := it.Value().Decode()
			if err != nil {
				return nil, err
			}
			out = append(out, MapEntry{Key: k, Value: val})
		}
		return out, it.Err()

	case types.UDT:
		it, err := v.AsUserTypeIterator()
		if err != nil {
			return nil, err
		}
		defer it.Close()
		out := make([]FieldValue, 0, v.sizeHint())
		for it.Next() {
			val, err := it.Value().Decode()
			if err != nil {
				return nil, err
			}
			out = append(out, FieldValue{Name: it.FieldName(), Value: val})
		}
		return out, it.Err()

	case types.Tuple:
		it, err := v.AsTupleIterator()
		if err != nil {
			return nil, err
		}
		defer it.Close()
		out := make([]interface{}, 0, v.sizeHint())
		for it.Next() {
			elem, err := it.Value().Decode()
			if err != nil {
				return nil, err
			}
			out = append(out, elem)
		}
		return out, it.Err()
	}

	return v.scalar()
}

func (v Value) scalar() (interface{}, error) {
	switch v.dt.Type {
	case types.TinyInt:
		return v.Int8()
	case types.SmallInt:
		return v.Int16()
	case types.Int:
		return v.Int32()
	case types.BigInt, types.Counter:
		return v.Int64()
	case types.Float:
		return v.Float32()
	case types.Double:
		return v.Float64()
	case types.Boolean:
		return v.Bool()
	case types.ASCII, types.Text, types.Varchar:
		return v.Text()
	case types.UUID, types.TimeUUID:
		return v.UUID()
	case types.Inet:
		return v.Inet()
	case types.Decimal:
		return v.Decimal()
	case types.Varint:
		return v.Varint()
	case types.Timestamp:
		return v.Timestamp()
	case types.Date:
		return v.Date()
	case types.Time:
		return v.Time()
	case types.Duration:
		return v.Duration()
	}
	return v.Bytes()
}

// sizeHint bounds ItemCount by the number of length prefixes the encoded
// bytes can hold, so a corrupt count cannot force a large allocation.
func (v Value) sizeHint() int {
	n := v.ItemCount()
	if m := len(v.data) / 4; n > m {
		return m
	}
	return n
}
