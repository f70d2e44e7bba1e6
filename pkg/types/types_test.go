package types

import (
	"testing"

	"github.com/gocql/gocql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func phoneNumbers() DataType {
	return UserType("examples", "phone_numbers",
		Field{Name: "phone1", Type: Scalar(Int)},
		Field{Name: "phone2", Type: Scalar(Int)},
	)
}

func address() DataType {
	return UserType("examples", "address",
		Field{Name: "street", Type: Scalar(Text)},
		Field{Name: "city", Type: Scalar(Text)},
		Field{Name: "zip", Type: Scalar(Int)},
		Field{Name: "phone", Type: SetOf(phoneNumbers())},
	)
}

func TestString(t *testing.T) {
	for _, tc := range []struct {
		dt   DataType
		want string
	}{
		{Scalar(Int), "int"},
		{ListOf(Scalar(Text)), "list<text>"},
		{MapOf(Scalar(Text), SetOf(Scalar(UUID))), "map<text, set<uuid>>"},
		{TupleOf(Scalar(Int), Scalar(Blob)), "tuple<int, blob>"},
		{address(), "frozen<examples.address>"},
		{CustomType("org.apache.Foo"), "'org.apache.Foo'"},
		{Scalar(ValueType(0x99)), "type(0x0099)"},
	} {
		assert.Equal(t, tc.want, tc.dt.String())
	}
}

func TestSubTypes(t *testing.T) {
	m := MapOf(Scalar(Text), Scalar(BigInt))
	assert.Equal(t, Text, m.PrimarySubType())
	assert.Equal(t, BigInt, m.SecondarySubType())

	s := SetOf(Scalar(Int))
	assert.Equal(t, Int, s.PrimarySubType())
	assert.Equal(t, Unknown, s.SecondarySubType())

	assert.Equal(t, Unknown, Scalar(Int).PrimarySubType())
	assert.Equal(t, Unknown, TupleOf(Scalar(Int)).PrimarySubType())
}

func TestAccepts(t *testing.T) {
	for _, tc := range []struct {
		slot, natural ValueType
		want          bool
	}{
		{Int, Int, true},
		{Text, Varchar, true},
		{ASCII, Varchar, true},
		{Counter, BigInt, true},
		{Timestamp, BigInt, true},
		{TimeUUID, UUID, true},
		{Varint, Blob, true},
		{Unknown, Float, true},
		{Int, BigInt, false},
		{Text, Int, false},
		{UUID, Blob, false},
		{Set, List, false},
	} {
		assert.Equal(t, tc.want, tc.slot.Accepts(tc.natural), "%s accepts %s", tc.slot, tc.natural)
	}
}

func TestCompatible(t *testing.T) {
	assert.True(t, SetOf(Scalar(Int)).Compatible(SetOf(UnknownType())))
	assert.True(t, SetOf(Scalar(Text)).Compatible(SetOf(Scalar(Varchar))))
	assert.False(t, SetOf(Scalar(Int)).Compatible(ListOf(Scalar(Int))))
	assert.False(t, MapOf(Scalar(Text), Scalar(Int)).Compatible(MapOf(Scalar(Text), Scalar(Text))))
	assert.True(t, address().Compatible(UserType("examples", "ADDRESS")))
	assert.False(t, address().Compatible(phoneNumbers()))
}

func TestTypeInfoRoundTrip(t *testing.T) {
	for _, dt := range []DataType{
		Scalar(Int),
		Scalar(Varchar),
		CustomType("org.apache.Foo"),
		ListOf(Scalar(Double)),
		MapOf(Scalar(Text), ListOf(Scalar(Inet))),
		TupleOf(Scalar(Int), Scalar(Text)),
		address(),
	} {
		t.Run(dt.String(), func(t *testing.T) {
			got := FromTypeInfo(dt.TypeInfo())
			require.True(t, dt.Equal(got), "got %s", got)
		})
	}
}

func TestFromTypeInfoNative(t *testing.T) {
	dt := FromTypeInfo(gocql.NewNativeType(ProtoVersion, gocql.TypeTimeUUID, ""))
	assert.Equal(t, TimeUUID, dt.Type)
	assert.Equal(t, Unknown, FromTypeInfo(nil).Type)
}

func TestFieldIndex(t *testing.T) {
	a := address()
	assert.Equal(t, 2, a.FieldIndex("zip"))
	assert.Equal(t, -1, a.FieldIndex("country"))
}

func TestMatchNames(t *testing.T) {
	names := []string{"id", "Name", "name", "ID"}
	require.Equal(t, []int{0, 3}, MatchNames(names, "Id"))
	require.Equal(t, []int{1, 2}, MatchNames(names, "NAME"))
	require.Equal(t, []int{1}, MatchNames(names, `"Name"`))
	require.Empty(t, MatchNames(names, `"NAME"`))
	require.Empty(t, MatchNames(names, "missing"))
}
