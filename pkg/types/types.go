// Package types describes CQL data types: the value type tags carried on the
// wire and the recursive descriptors for collections, tuples and user types.
package types

import (
	"fmt"
	"strings"
)

// ValueType is a CQL type tag. The values are the native protocol option ids.
type ValueType uint16

const (
	Custom    ValueType = 0x0000
	ASCII     ValueType = 0x0001
	BigInt    ValueType = 0x0002
	Blob      ValueType = 0x0003
	Boolean   ValueType = 0x0004
	Counter   ValueType = 0x0005
	Decimal   ValueType = 0x0006
	Double    ValueType = 0x0007
	Float     ValueType = 0x0008
	Int       ValueType = 0x0009
	Text      ValueType = 0x000A
	Timestamp ValueType = 0x000B
	UUID      ValueType = 0x000C
	Varchar   ValueType = 0x000D
	Varint    ValueType = 0x000E
	TimeUUID  ValueType = 0x000F
	Inet      ValueType = 0x0010
	Date      ValueType = 0x0011
	Time      ValueType = 0x0012
	SmallInt  ValueType = 0x0013
	TinyInt   ValueType = 0x0014
	Duration  ValueType = 0x0015
	List      ValueType = 0x0020
	Map       ValueType = 0x0021
	Set       ValueType = 0x0022
	UDT       ValueType = 0x0030
	Tuple     ValueType = 0x0031

	// Unknown marks a slot whose type has not been declared, e.g. a parameter
	// of a statement that was not prepared.
	Unknown ValueType = 0xFFFF
)

var typeNames = map[ValueType]string{
	Custom:    "custom",
	ASCII:     "ascii",
	BigInt:    "bigint",
	Blob:      "blob",
	Boolean:   "boolean",
	Counter:   "counter",
	Decimal:   "decimal",
	Double:    "double",
	Float:     "float",
	Int:       "int",
	Text:      "text",
	Timestamp: "timestamp",
	UUID:      "uuid",
	Varchar:   "varchar",
	Varint:    "varint",
	TimeUUID:  "timeuuid",
	Inet:      "inet",
	Date:      "date",
	Time:      "time",
	SmallInt:  "smallint",
	TinyInt:   "tinyint",
	Duration:  "duration",
	List:      "list",
	Map:       "map",
	Set:       "set",
	UDT:       "udt",
	Tuple:     "tuple",
	Unknown:   "unknown",
}

func (t ValueType) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("type(0x%04x)", uint16(t))
}

// Valid reports whether t is a known tag.
func (t ValueType) Valid() bool {
	_, ok := typeNames[t]
	return ok
}

// IsCollection reports whether t is LIST, SET or MAP.
func (t ValueType) IsCollection() bool {
	return t == List || t == Set || t == Map
}

// IsComposite reports whether values of t are made of nested values.
func (t ValueType) IsComposite() bool {
	return t.IsCollection() || t == UDT || t == Tuple
}

func (t ValueType) family() ValueType {
	switch t {
	case ASCII, Text, Varchar:
		return Varchar
	case BigInt, Counter, Timestamp, Time:
		return BigInt
	case UUID, TimeUUID:
		return UUID
	}
	return t
}

// Accepts reports whether a slot (or stored value) of type t can hold a host
// value whose natural encoding is natural. Text types interchange, 64-bit
// integer encodings interchange, both UUID flavours interchange and raw
// bytes fit any blob-like slot. Unknown accepts everything.
func (t ValueType) Accepts(natural ValueType) bool {
	if t == Unknown || t == natural {
		return true
	}
	if natural == Blob {
		return t == Custom || t == Varint || t == Duration
	}
	return t.family() == natural.family()
}

// Field is a named member of a user type.
type Field struct {
	Name string
	Type DataType
}

// DataType is a full type descriptor. Sub holds the element type of a list or
// set, the key and value types of a map, and the element types of a tuple.
// Fields holds the members of a user type in declaration order.
type DataType struct {
	Type     ValueType
	Custom   string
	Keyspace string
	Name     string
	Sub      []DataType
	Fields   []Field
}

// Scalar returns the descriptor of a non composite type.
func Scalar(t ValueType) DataType {
	return DataType{Type: t}
}

// UnknownType is the descriptor of an undeclared slot.
func UnknownType() DataType {
	return DataType{Type: Unknown}
}

// CustomType returns a CUSTOM descriptor for a server side class.
func CustomType(class string) DataType {
	return DataType{Type: Custom, Custom: class}
}

func ListOf(elem DataType) DataType {
	return DataType{Type: List, Sub: []DataType{elem}}
}

func SetOf(elem DataType) DataType {
	return DataType{Type: Set, Sub: []DataType{elem}}
}

func MapOf(key, value DataType) DataType {
	return DataType{Type: Map, Sub: []DataType{key, value}}
}

func TupleOf(elems ...DataType) DataType {
	return DataType{Type: Tuple, Sub: elems}
}

// UserType returns a UDT descriptor as declared by the schema.
func UserType(keyspace, name string, fields ...Field) DataType {
	return DataType{Type: UDT, Keyspace: keyspace, Name: name, Fields: fields}
}

// IsCollection reports whether the descriptor is a LIST, SET or MAP.
func (dt DataType) IsCollection() bool {
	return dt.Type.IsCollection()
}

// PrimarySubType is the element type of a list or set, or the key type of a
// map. It is Unknown for everything else.
func (dt DataType) PrimarySubType() ValueType {
	if dt.IsCollection() && len(dt.Sub) > 0 {
		return dt.Sub[0].Type
	}
	return Unknown
}

// SecondarySubType is the value type of a map and Unknown otherwise.
func (dt DataType) SecondarySubType() ValueType {
	if dt.Type == Map && len(dt.Sub) > 1 {
		return dt.Sub[1].Type
	}
	return Unknown
}

// Elem returns the i-th sub type, or an unknown descriptor when it is absent.
func (dt DataType) Elem(i int) DataType {
	if i >= 0 && i < len(dt.Sub) {
		return dt.Sub[i]
	}
	return UnknownType()
}

// FieldIndex returns the position of a user type field, or -1.
func (dt DataType) FieldIndex(name string) int {
	for i, f := range dt.Fields {
		if f.Name == name {
			return i
		}
	}
	return -1
}

// Equal compares two descriptors structurally. Text aliases are not folded.
func (dt DataType) Equal(o DataType) bool {
	if dt.Type != o.Type || dt.Custom != o.Custom || dt.Keyspace != o.Keyspace || dt.Name != o.Name {
		return false
	}
	if len(dt.Sub) != len(o.Sub) || len(dt.Fields) != len(o.Fields) {
		return false
	}
	for i := range dt.Sub {
		if !dt.Sub[i].Equal(o.Sub[i]) {
			return false
		}
	}
	for i := range dt.Fields {
		if dt.Fields[i].Name != o.Fields[i].Name || !dt.Fields[i].Type.Equal(o.Fields[i].Type) {
			return false
		}
	}
	return true
}

// Compatible reports whether a value described by o can be stored in a slot
// described by dt. Unknown sub types on either side match anything, which is
// how untyped collections built without a schema are accepted.
func (dt DataType) Compatible(o DataType) bool {
	if dt.Type == Unknown || o.Type == Unknown {
		return true
	}
	if !dt.Type.IsComposite() || !o.Type.IsComposite() {
		return dt.Type.Accepts(o.Type)
	}
	if dt.Type != o.Type {
		return false
	}
	switch dt.Type {
	case UDT:
		if o.Name != "" && dt.Name != "" && !strings.EqualFold(dt.Name, o.Name) {
			return false
		}
		return true
	default:
		if len(o.Sub) == 0 || len(dt.Sub) == 0 {
			return true
		}
		if len(dt.Sub) != len(o.Sub) {
			return false
		}
		for i := range dt.Sub {
			if !dt.Sub[i].Compatible(o.Sub[i]) {
				return false
			}
		}
		return true
	}
}

// String renders the descriptor in CQL syntax.
func (dt DataType) String() string {
	switch dt.Type {
	case List, Set:
		return fmt.Sprintf("%s<%s>", dt.Type, dt.Elem(0))
	case Map:
		return fmt.Sprintf("map<%s, %s>", dt.Elem(0), dt.Elem(1))
	case Tuple:
		elems := make([]string, 0, len(dt.Sub))
		for _, e := range dt.Sub {
			elems = append(elems, e.String())
		}
		return "tuple<" + strings.Join(elems, ", ") + ">"
	case UDT:
		if dt.Keyspace == "" {
			return "frozen<" + dt.Name + ">"
		}
		return "frozen<" + dt.Keyspace + "." + dt.Name + ">"
	case Custom:
		return "'" + dt.Custom + "'"
	default:
		return dt.Type.String()
	}
}

// MatchNames returns the positions in names that name refers to. Names are
// compared case-insensitively unless name is double quoted, in which case the
// quotes are stripped and the comparison is exact. The same name may match
// several positions.
func MatchNames(names []string, name string) []int {
	exact := len(name) >= 2 && name[0] == '"' && name[len(name)-1] == '"'
	if exact {
		name = strings.ReplaceAll(name[1:len(name)-1], `""`, `"`)
	}
	var out []int
	for i, n := range names {
		if (exact && n == name) || (!exact && strings.EqualFold(n, name)) {
			out = append(out, i)
		}
	}
	return out
}
