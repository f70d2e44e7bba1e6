// Package value decodes typed CQL cells. A Value is a borrowed view into a
// result buffer: it carries its type descriptor, the encoded bytes and a
// token of the resource that owns them. Scalars are extracted with the
// method matching the stored type; composites are walked lazily through
// iterators.
package value

import (
	"math/big"
	"net"
	"time"

	"github.com/gocql/gocql"
	"gopkg.in/inf.v0"

	"github.com/grafana/cqlbind/pkg/codec"
	"github.com/grafana/cqlbind/pkg/cqlerr"
	"github.com/grafana/cqlbind/pkg/resource"
	"github.com/grafana/cqlbind/pkg/types"
	"github.com/grafana/cqlbind/pkg/uuid"
)

// Value is one typed, possibly null, cell.
type Value struct {
	dt    types.DataType
	data  []byte
	owner *resource.Handle
}

// New returns a value of type dt over data. A nil data slice is null. The
// value is not tied to an owner and stays valid for as long as data does.
func New(dt types.DataType, data []byte) Value {
	return Value{dt: dt, data: data}
}

// Borrowed returns a value whose bytes belong to owner. Once owner is released
// every accessor fails.
func Borrowed(dt types.DataType, data []byte, owner *resource.Handle) Value {
	return Value{dt: dt, data: data, owner: owner}
}

// Null returns a null value of type dt.
func Null(dt types.DataType) Value {
	return Value{dt: dt}
}

// Type returns the value type tag.
func (v Value) Type() types.ValueType {
	return v.dt.Type
}

// DataType returns the full type descriptor.
func (v Value) DataType() types.DataType {
	return v.dt
}

func (v Value) IsNull() bool {
	return v.data == nil
}

// IsCollection reports whether the value is made of nested values: a list,
// set, map, tuple or user type.
func (v Value) IsCollection() bool {
	return v.dt.Type.IsComposite()
}

// PrimarySubType is the element type of a list or set and the key type of a
// map.
func (v Value) PrimarySubType() types.ValueType {
	return v.dt.PrimarySubType()
}

// SecondarySubType is the value type of a map.
func (v Value) SecondarySubType() types.ValueType {
	return v.dt.SecondarySubType()
}

// ItemCount returns the number of items an iterator over the value yields:
// the encoded count of a collection, the declared fields of a user type or
// the elements of a tuple. It is 0 for null and scalar values.
func (v Value) ItemCount() int {
	if v.data == nil {
		return 0
	}
	switch v.dt.Type {
	case types.List, types.Set, types.Map:
		n, _, err := codec.ReadSize(v.data)
		if err != nil {
			return 0
		}
		return n
	case types.UDT:
		return len(v.dt.Fields)
	case types.Tuple:
		return len(v.dt.Sub)
	}
	return 0
}

func (v Value) live() error {
	if v.owner.Released() {
		return cqlerr.Newf(cqlerr.LibBadParams, "value read after its result was released")
	}
	return nil
}

// expect checks the stored type against want, then nullness. A type mismatch
// wins over null so misuse is always reported.
func (v Value) expect(want ...types.ValueType) error {
	if err := v.live(); err != nil {
		return err
	}
	ok := false
	for _, w := range want {
		if v.dt.Type == w {
			ok = true
			break
		}
	}
	if !ok {
		return cqlerr.Newf(cqlerr.LibInvalidValueType, "cannot read %s value as %s", v.dt, want[0])
	}
	if v.data == nil {
		return cqlerr.ErrNullValue
	}
	return nil
}

func (v Value) decode(dst interface{}, want ...types.ValueType) error {
	if err := v.expect(want...); err != nil {
		return err
	}
	return codec.Unmarshal(v.dt, v.data, dst)
}

func (v Value) Int8() (int8, error) {
	var out int8
	err := v.decode(&out, types.TinyInt)
	return out, err
}

func (v Value) Int16() (int16, error) {
	var out int16
	err := v.decode(&out, types.SmallInt)
	return out, err
}

func (v Value) Int32() (int32, error) {
	var out int32
	err := v.decode(&out, types.Int)
	return out, err
}

// Int64 reads bigint, counter, timestamp (milliseconds) and time
// (nanoseconds of the day) values.
func (v Value) Int64() (int64, error) {
	var out int64
	err := v.decode(&out, types.BigInt, types.Counter, types.Timestamp, types.Time)
	return out, err
}

func (v Value) Float32() (float32, error) {
	var out float32
	err := v.decode(&out, types.Float)
	return out, err
}

func (v Value) Float64() (float64, error) {
	var out float64
	err := v.decode(&out, types.Double)
	return out, err
}

func (v Value) Bool() (bool, error) {
	var out bool
	err := v.decode(&out, types.Boolean)
	return out, err
}

// Text reads ascii, text and varchar values. Use String for rendering.
func (v Value) Text() (string, error) {
	if err := v.expect(types.ASCII, types.Text, types.Varchar); err != nil {
		return "", err
	}
	return string(v.data), nil
}

// Bytes returns a copy of the encoded bytes of any non null value.
func (v Value) Bytes() ([]byte, error) {
	if err := v.live(); err != nil {
		return nil, err
	}
	if v.data == nil {
		return nil, cqlerr.ErrNullValue
	}
	out := make([]byte, len(v.data))
	copy(out, v.data)
	return out, nil
}

func (v Value) UUID() (uuid.UUID, error) {
	var out gocql.UUID
	if err := v.decode(&out, types.UUID, types.TimeUUID); err != nil {
		return uuid.Nil, err
	}
	return uuid.UUID(out), nil
}

func (v Value) Inet() (net.IP, error) {
	var out net.IP
	err := v.decode(&out, types.Inet)
	return out, err
}

func (v Value) Decimal() (*inf.Dec, error) {
	var out *inf.Dec
	err := v.decode(&out, types.Decimal)
	return out, err
}

func (v Value) Varint() (*big.Int, error) {
	out := new(big.Int)
	if err := v.decode(out, types.Varint); err != nil {
		return nil, err
	}
	return out, nil
}

// Timestamp reads a timestamp as UTC time.
func (v Value) Timestamp() (time.Time, error) {
	var out time.Time
	err := v.decode(&out, types.Timestamp)
	return out.UTC(), err
}

// Date reads a date as midnight UTC of that day.
func (v Value) Date() (time.Time, error) {
	var out time.Time
	err := v.decode(&out, types.Date)
	return out.UTC(), err
}

// Time reads a time of day.
func (v Value) Time() (time.Duration, error) {
	var out time.Duration
	err := v.decode(&out, types.Time)
	return out, err
}

// Duration reads a duration in months, days and nanoseconds.
func (v Value) Duration() (gocql.Duration, error) {
	var out gocql.Duration
	err := v.decode(&out, types.Duration)
	return out, err
}
