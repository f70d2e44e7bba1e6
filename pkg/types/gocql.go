package types

import (
	"github.com/gocql/gocql"
)

// ProtoVersion is the native protocol version used when building driver type
// infos. Collection sizes are 32-bit from version 3 on.
const ProtoVersion = 4

// FromTypeInfo converts a driver type info into a descriptor.
func FromTypeInfo(info gocql.TypeInfo) DataType {
	if info == nil {
		return UnknownType()
	}

	switch t := info.(type) {
	case gocql.CollectionType:
		switch ValueType(t.Type()) {
		case Map:
			return MapOf(FromTypeInfo(t.Key), FromTypeInfo(t.Elem))
		case Set:
			return SetOf(FromTypeInfo(t.Elem))
		default:
			return ListOf(FromTypeInfo(t.Elem))
		}
	case gocql.TupleTypeInfo:
		elems := make([]DataType, 0, len(t.Elems))
		for _, e := range t.Elems {
			elems = append(elems, FromTypeInfo(e))
		}
		return TupleOf(elems...)
	case gocql.UDTTypeInfo:
		fields := make([]Field, 0, len(t.Elements))
		for _, e := range t.Elements {
			fields = append(fields, Field{Name: e.Name, Type: FromTypeInfo(e.Type)})
		}
		return UserType(t.KeySpace, t.Name, fields...)
	}

	vt := ValueType(info.Type())
	if vt == Custom {
		return CustomType(info.Custom())
	}
	if !vt.Valid() {
		return UnknownType()
	}
	return Scalar(vt)
}

// TypeInfo converts the descriptor into a driver type info. Unknown maps to
// a blob so raw bytes pass through unchanged.
func (dt DataType) TypeInfo() gocql.TypeInfo {
	typ := dt.Type
	if typ == Unknown {
		typ = Blob
	}
	native := gocql.NewNativeType(ProtoVersion, gocql.Type(typ), dt.Custom)

	switch dt.Type {
	case List, Set:
		return gocql.CollectionType{NativeType: native, Elem: dt.Elem(0).TypeInfo()}
	case Map:
		return gocql.CollectionType{NativeType: native, Key: dt.Elem(0).TypeInfo(), Elem: dt.Elem(1).TypeInfo()}
	case Tuple:
		elems := make([]gocql.TypeInfo, 0, len(dt.Sub))
		for _, e := range dt.Sub {
			elems = append(elems, e.TypeInfo())
		}
		return gocql.TupleTypeInfo{NativeType: native, Elems: elems}
	case UDT:
		elems := make([]gocql.UDTField, 0, len(dt.Fields))
		for _, f := range dt.Fields {
			elems = append(elems, gocql.UDTField{Name: f.Name, Type: f.Type.TypeInfo()})
		}
		return gocql.UDTTypeInfo{NativeType: native, KeySpace: dt.Keyspace, Name: dt.Name, Elements: elems}
	}
	return native
}
