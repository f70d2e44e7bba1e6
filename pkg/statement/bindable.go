// Package statement builds requests: parameterised statements, their bound
// values and options, prepared templates and batches. Values are encoded when
// they are bound, so a statement never refers to caller memory.
package statement

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

// Bindable is a value that can be bound to a statement parameter, appended to
// a collection or stored in a user type or tuple field. It is implemented by
// the scalar constructors of this package, *Collection, *UserType and *Tuple.
type Bindable interface {
	// DataType is the type the value encodes to when the slot is untyped.
	DataType() types.DataType

	// encode returns the wire form of the value for a slot of type slot. A nil
	// result is null.
	encode(slot types.DataType) ([]byte, error)
}

type scalar struct {
	natural types.ValueType
	v       interface{}
}

func (s scalar) DataType() types.DataType {
	return types.Scalar(s.natural)
}

func (s scalar) encode(slot types.DataType) ([]byte, error) {
	if !slot.Type.Accepts(s.natural) {
		return nil, mismatch(slot, s.DataType())
	}
	if s.isNil() {
		return nil, cqlerr.Newf(cqlerr.LibNullValue, "nil %s, use Null for null", s.natural)
	}
	target := slot
	if slot.Type == types.Unknown {
		target = s.DataType()
	}
	if raw, ok := s.v.([]byte); ok && s.natural == types.Blob {
		return append(make([]byte, 0, len(raw)), raw...), nil
	}
	data, err := codec.Marshal(target, s.v)
	if err != nil && target.Type != s.natural {
		return nil, cqlerr.WithCause(cqlerr.LibInvalidValueType, err, "cannot store %s in %s", s.natural, slot)
	}
	return data, err
}

// isNil reports a nil reference that the driver would silently encode as
// null.
func (s scalar) isNil() bool {
	switch v := s.v.(type) {
	case net.IP:
		return v == nil
	case *inf.Dec:
		return v == nil
	case *big.Int:
		return v == nil
	}
	return false
}

func mismatch(slot, got types.DataType) error {
	return cqlerr.Newf(cqlerr.LibInvalidValueType, "cannot store %s in %s", got, slot)
}

type null struct{}

func (null) DataType() types.DataType { return types.UnknownType() }
func (null) encode(types.DataType) ([]byte, error) { return nil, nil }

// Null is the null value.
func Null() Bindable { return null{} }

func Int8(v int8) Bindable { return scalar{types.TinyInt, v} }
func Int16(v int16) Bindable { return scalar{types.SmallInt, v} }
func Int32(v int32) Bindable { return scalar{types.Int, v} }
func Int64(v int64) Bindable { return scalar{types.BigInt, v} }
func Float32(v float32) Bindable { return scalar{types.Float, v} }
func Float64(v float64) Bindable { return scalar{types.Double, v} }
func Bool(v bool) Bindable { return scalar{types.Boolean, v} }

// Text binds ascii, text and varchar parameters.
func Text(v string) Bindable { return scalar{types.Varchar, v} }

// Bytes binds blobs and other opaque types. A nil slice is an empty blob,
// use Null for null.
func Bytes(v []byte) Bindable { return scalar{types.Blob, v} }

func UUID(v uuid.UUID) Bindable { return scalar{types.UUID, gocql.UUID(v)} }

// Inet binds an IPv4 or IPv6 address. Binding a nil IP fails with
// LibNullValue.
func Inet(v net.IP) Bindable { return scalar{types.Inet, v} }

// Decimal and Varint fail with LibNullValue when bound with a nil pointer.
func Decimal(v *inf.Dec) Bindable { return scalar{types.Decimal, v} }

func Varint(v *big.Int) Bindable { return scalar{types.Varint, v} }

// Timestamp binds a timestamp with millisecond precision.
func Timestamp(v time.Time) Bindable { return scalar{types.Timestamp, v} }

// Date binds the day of v in UTC.
func Date(v time.Time) Bindable { return scalar{types.Date, v} }

// Time binds a time of day as the offset from midnight.
func Time(v time.Duration) Bindable { return scalar{types.Time, v} }

func Duration(v gocql.Duration) Bindable { return scalar{types.Duration, v} }

// Option configures an owned builder.
type Option func(*options)

type options struct {
	tracker resource.Tracker
}

// WithTracker accounts the builder with t.
func WithTracker(t resource.Tracker) Option {
	return func(o *options) { o.tracker = t }
}

func acquire(k resource.Kind, opts []Option) *resource.Handle {
	o := options{tracker: resource.Nop}
	for _, opt := range opts {
		opt(&o)
	}
	return resource.Acquire(o.tracker, k)
}
