package statement

import (
	"math/big"
	"net"
	"time"

	"github.com/gocql/gocql"
	"gopkg.in/inf.v0"

	"github.com/grafana/cqlbind/pkg/cqlerr"
	"github.com/grafana/cqlbind/pkg/types"
	"github.com/grafana/cqlbind/pkg/uuid"
)

// Typed binders. Each Bind<T> has a Bind<T>ByName counterpart with the same
// checks as Bind and BindByName.

func (s *Statement) BindNull(i int) error { return s.Bind(i, Null()) }

func (s *Statement) BindNullByName(name string) error { return s.BindByName(name, Null()) }

func (s *Statement) BindInt8(i int, v int8) error { return s.Bind(i, Int8(v)) }

func (s *Statement) BindInt8ByName(name string, v int8) error { return s.BindByName(name, Int8(v)) }

func (s *Statement) BindInt16(i int, v int16) error { return s.Bind(i, Int16(v)) }

func (s *Statement) BindInt16ByName(name string, v int16) error { return s.BindByName(name, Int16(v)) }

func (s *Statement) BindInt32(i int, v int32) error { return s.Bind(i, Int32(v)) }

func (s *Statement) BindInt32ByName(name string, v int32) error { return s.BindByName(name, Int32(v)) }

func (s *Statement) BindInt64(i int, v int64) error { return s.Bind(i, Int64(v)) }

func (s *Statement) BindInt64ByName(name string, v int64) error { return s.BindByName(name, Int64(v)) }

func (s *Statement) BindFloat32(i int, v float32) error { return s.Bind(i, Float32(v)) }

func (s *Statement) BindFloat32ByName(name string, v float32) error { return s.BindByName(name, Float32(v)) }

func (s *Statement) BindFloat64(i int, v float64) error { return s.Bind(i, Float64(v)) }

func (s *Statement) BindFloat64ByName(name string, v float64) error { return s.BindByName(name, Float64(v)) }

func (s *Statement) BindBool(i int, v bool) error { return s.Bind(i, Bool(v)) }

func (s *Statement) BindBoolByName(name string, v bool) error { return s.BindByName(name, Bool(v)) }

func (s *Statement) BindString(i int, v string) error { return s.Bind(i, Text(v)) }

func (s *Statement) BindStringByName(name string, v string) error { return s.BindByName(name, Text(v)) }

func (s *Statement) BindBytes(i int, v []byte) error { return s.Bind(i, Bytes(v)) }

func (s *Statement) BindBytesByName(name string, v []byte) error { return s.BindByName(name, Bytes(v)) }

func (s *Statement) BindUUID(i int, v uuid.UUID) error { return s.Bind(i, UUID(v)) }

func (s *Statement) BindUUIDByName(name string, v uuid.UUID) error { return s.BindByName(name, UUID(v)) }

func (s *Statement) BindInet(i int, v net.IP) error { return s.Bind(i, Inet(v)) }

func (s *Statement) BindInetByName(name string, v net.IP) error { return s.BindByName(name, Inet(v)) }

func (s *Statement) BindDecimal(i int, v *inf.Dec) error { return s.Bind(i, Decimal(v)) }

func (s *Statement) BindDecimalByName(name string, v *inf.Dec) error { return s.BindByName(name, Decimal(v)) }

func (s *Statement) BindVarint(i int, v *big.Int) error { return s.Bind(i, Varint(v)) }

func (s *Statement) BindVarintByName(name string, v *big.Int) error { return s.BindByName(name, Varint(v)) }

func (s *Statement) BindTimestamp(i int, v time.Time) error { return s.Bind(i, Timestamp(v)) }

func (s *Statement) BindTimestampByName(name string, v time.Time) error { return s.BindByName(name, Timestamp(v)) }

func (s *Statement) BindDate(i int, v time.Time) error { return s.Bind(i, Date(v)) }

func (s *Statement) BindDateByName(name string, v time.Time) error { return s.BindByName(name, Date(v)) }

func (s *Statement) BindTime(i int, v time.Duration) error { return s.Bind(i, Time(v)) }

func (s *Statement) BindTimeByName(name string, v time.Duration) error { return s.BindByName(name, Time(v)) }

func (s *Statement) BindDuration(i int, v gocql.Duration) error { return s.Bind(i, Duration(v)) }

func (s *Statement) BindDurationByName(name string, v gocql.Duration) error { return s.BindByName(name, Duration(v)) }

func (s *Statement) BindCollection(i int, v *Collection) error { return s.Bind(i, v) }

func (s *Statement) BindCollectionByName(name string, v *Collection) error { return s.BindByName(name, v) }

func (s *Statement) BindUserType(i int, v *UserType) error { return s.Bind(i, v) }

func (s *Statement) BindUserTypeByName(name string, v *UserType) error { return s.BindByName(name, v) }

func (s *Statement) BindTuple(i int, v *Tuple) error { return s.Bind(i, v) }

func (s *Statement) BindTupleByName(name string, v *Tuple) error { return s.BindByName(name, v) }

// BindList binds a list; any other collection fails with LibInvalidValueType.
func (s *Statement) BindList(i int, v *Collection) error {
	if err := expectKind(v, types.List); err != nil {
		return err
	}
	return s.Bind(i, v)
}

func (s *Statement) BindListByName(name string, v *Collection) error {
	if err := expectKind(v, types.List); err != nil {
		return err
	}
	return s.BindByName(name, v)
}

// BindSet binds a set; any other collection fails with LibInvalidValueType.
func (s *Statement) BindSet(i int, v *Collection) error {
	if err := expectKind(v, types.Set); err != nil {
		return err
	}
	return s.Bind(i, v)
}

func (s *Statement) BindSetByName(name string, v *Collection) error {
	if err := expectKind(v, types.Set); err != nil {
		return err
	}
	return s.BindByName(name, v)
}

// BindMap binds a map; any other collection fails with LibInvalidValueType.
func (s *Statement) BindMap(i int, v *Collection) error {
	if err := expectKind(v, types.Map); err != nil {
		return err
	}
	return s.Bind(i, v)
}

func (s *Statement) BindMapByName(name string, v *Collection) error {
	if err := expectKind(v, types.Map); err != nil {
		return err
	}
	return s.BindByName(name, v)
}

func expectKind(c *Collection, want types.ValueType) error {
	if c.dt.Type != want {
		return cqlerr.Newf(cqlerr.LibInvalidValueType, "cannot bind %s as %s", c.dt, want)
	}
	return nil
}
