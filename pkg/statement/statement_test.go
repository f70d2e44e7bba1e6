package statement

import (
	"testing"
	"time"

	"github.com/gocql/gocql"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grafana/cqlbind/pkg/codec"
	"github.com/grafana/cqlbind/pkg/cqlerr"
	"github.com/grafana/cqlbind/pkg/resource"
	"github.com/grafana/cqlbind/pkg/types"
	"github.com/grafana/cqlbind/pkg/value"
)

var (
	intType  = types.Scalar(types.Int)
	textType = types.Scalar(types.Text)
)

func userPrepared() *Prepared {
	return NewPrepared("INSERT INTO users (id, name, tags) VALUES (?, ?, ?)", []Parameter{
		{Name: "id", Type: intType},
		{Name: "name", Type: textType},
		{Name: "tags", Type: types.SetOf(textType)},
	}, []int{0})
}

func TestBindOutOfRange(t *testing.T) {
	s := New("SELECT * FROM t WHERE a = ?", 1)
	defer s.Close()

	for _, err := range []error{
		s.BindInt32(1, 1),
		s.BindInt32(-1, 1),
		s.BindString(5, "x"),
		s.BindNull(1),
		s.Bind(2, Bool(true)),
		s.AddKeyIndex(1),
	} {
		require.True(t, errors.Is(err, cqlerr.ErrIndexOutOfBounds), "got %v", err)
	}
	require.NoError(t, s.BindInt32(0, 1))
}

func TestBindChecksDeclaredTypes(t *testing.T) {
	s := userPrepared().Bind()
	defer s.Close()

	err := s.BindString(0, "not an int")
	require.True(t, errors.Is(err, cqlerr.ErrInvalidValueType))
	err = s.BindInt32ByName("name", 1)
	require.True(t, errors.Is(err, cqlerr.ErrInvalidValueType))

	// Still usable after a rejected bind.
	require.NoError(t, s.BindInt32(0, 42))
	require.NoError(t, s.BindStringByName("NAME", "ok"))

	tags := NewSet()
	require.NoError(t, tags.Append(Text("a")))
	require.NoError(t, s.BindSetByName("tags", tags))
	require.NoError(t, tags.Close())

	req, err := s.Consume()
	require.NoError(t, err)
	require.Equal(t, []byte{0, 0, 0, 42}, req.Values[0])
	require.Equal(t, []byte("ok"), req.Values[1])
	require.Equal(t, []byte{0, 0, 0, 42}, req.RoutingKey)
	require.Equal(t, types.Set, req.Types[2].Type)
}

func TestBindByName(t *testing.T) {
	t.Run("untyped statement", func(t *testing.T) {
		s := New("SELECT * FROM t WHERE a = ?", 1)
		err := s.BindInt32ByName("a", 1)
		require.True(t, errors.Is(err, cqlerr.ErrNameDoesNotExist))
	})

	t.Run("every occurrence", func(t *testing.T) {
		p := NewPrepared("SELECT * FROM t WHERE a = ? AND b > ? AND a < ?", []Parameter{
			{Name: "a", Type: intType},
			{Name: "b", Type: intType},
			{Name: "a", Type: intType},
		}, nil)
		s := p.Bind()
		require.NoError(t, s.BindInt32ByName("A", 7))
		require.NoError(t, s.BindInt32(1, 8))
		req, err := s.Consume()
		require.NoError(t, err)
		require.Equal(t, req.Values[0], req.Values[2])
		require.Nil(t, req.RoutingKey)
	})

	t.Run("quoted names are exact", func(t *testing.T) {
		p := NewPrepared("q", []Parameter{{Name: "Key", Type: textType}}, nil)
		s := p.Bind()
		require.True(t, errors.Is(s.BindStringByName(`"key"`, "x"), cqlerr.ErrNameDoesNotExist))
		require.NoError(t, s.BindStringByName(`"Key"`, "x"))
		require.True(t, errors.Is(s.BindStringByName("missing", "x"), cqlerr.ErrNameDoesNotExist))
	})
}

func TestConsume(t *testing.T) {
	c := resource.NewCounter()
	s := New("INSERT INTO t (a, b) VALUES (?, ?)", 2, WithTracker(c))
	s.SetPageSize(100).
		SetPagingState([]byte{1, 2}).
		SetConsistency(gocql.LocalQuorum).
		SetSerialConsistency(gocql.LocalSerial).
		SetKeyspace("app").
		SetIdempotent(true)

	require.NoError(t, s.BindInt32(0, 1))
	_, err := s.Consume()
	require.True(t, errors.Is(err, cqlerr.ErrParameterUnset))
	require.Equal(t, 1, c.Open(resource.KindStatement))

	require.NoError(t, s.BindNull(1))
	req, err := s.Consume()
	require.NoError(t, err)
	require.Nil(t, req.Values[1])
	require.Equal(t, 100, req.PageSize)
	require.Equal(t, []byte{1, 2}, req.PagingState)
	require.Equal(t, gocql.LocalQuorum, *req.Consistency)
	require.Equal(t, gocql.LocalSerial, *req.SerialConsistency)
	require.Equal(t, "app", req.Keyspace)
	require.True(t, req.Idempotent)
	require.Equal(t, 0, c.Open(resource.KindStatement))

	_, err = s.Consume()
	require.True(t, errors.Is(err, cqlerr.ErrBadParams))
	require.True(t, errors.Is(s.BindInt32(0, 2), cqlerr.ErrBadParams))
}

func TestRoutingKey(t *testing.T) {
	s := New("q", 3)
	require.NoError(t, s.AddKeyIndex(0))
	require.NoError(t, s.AddKeyIndex(2))

	_, err := s.RoutingKey()
	require.True(t, errors.Is(err, cqlerr.ErrParameterUnset))

	require.NoError(t, s.BindString(0, "ab"))
	require.NoError(t, s.BindBytes(1, nil))
	require.NoError(t, s.BindInt8(2, 9))

	key, err := s.RoutingKey()
	require.NoError(t, err)
	require.Equal(t, []byte{0, 2, 'a', 'b', 0, 0, 1, 9, 0}, key)

	req, err := s.Consume()
	require.NoError(t, err)
	require.NotNil(t, req.Values[1])
	require.Len(t, req.Values[1], 0)
}

func TestCollections(t *testing.T) {
	list := NewList()
	require.NoError(t, list.Append(Int32(1)))
	require.NoError(t, list.Append(Int32(2)))
	require.True(t, errors.Is(list.Append(Text("x")), cqlerr.ErrInvalidValueType))
	require.True(t, errors.Is(list.Append(Null()), cqlerr.ErrNullValue))
	require.Equal(t, 2, list.ItemCount())
	require.Equal(t, "list<int>", list.DataType().String())

	s := New("q", 1)
	require.True(t, errors.Is(s.BindSet(0, list), cqlerr.ErrInvalidValueType))
	require.NoError(t, s.BindList(0, list))
	req, err := s.Consume()
	require.NoError(t, err)

	v := value.New(types.ListOf(intType), req.Values[0])
	require.Equal(t, "[1 2]", v.String())

	m, err := NewCollection(types.MapOf(textType, intType))
	require.NoError(t, err)
	require.NoError(t, m.Append(Text("a")))
	_, err = m.encode(types.UnknownType())
	require.True(t, errors.Is(err, cqlerr.ErrInvalidItemCount))
	require.True(t, errors.Is(m.Append(Text("b")), cqlerr.ErrInvalidValueType))
	require.NoError(t, m.Append(Int32(1)))
	require.Equal(t, 1, m.ItemCount())

	data, err := m.encode(types.MapOf(types.Scalar(types.Varchar), intType))
	require.NoError(t, err)
	require.Equal(t, "{a:1}", value.New(m.DataType(), data).String())

	_, err = m.encode(types.ListOf(intType))
	require.True(t, errors.Is(err, cqlerr.ErrInvalidValueType))

	_, err = NewCollection(intType)
	require.True(t, errors.Is(err, cqlerr.ErrInvalidValueType))

	c := resource.NewCounter()
	nested := NewList(WithTracker(c))
	require.NoError(t, nested.Append(list))
	require.Equal(t, "list<list<int>>", nested.DataType().String())
	require.NoError(t, nested.Close())
	require.True(t, errors.Is(nested.Append(Int32(1)), cqlerr.ErrBadParams))
	require.Equal(t, 0, c.Open(resource.KindCollection))
}

func TestUserTypeAndTuple(t *testing.T) {
	address := types.UserType("app", "address",
		types.Field{Name: "street", Type: textType},
		types.Field{Name: "number", Type: intType},
		types.Field{Name: "zip", Type: textType},
	)

	udt, err := NewUserType(address)
	require.NoError(t, err)
	require.NoError(t, udt.SetByName("Street", Text("Main")))
	require.NoError(t, udt.Set(1, Int32(12)))
	require.True(t, errors.Is(udt.Set(3, Int32(1)), cqlerr.ErrIndexOutOfBounds))
	require.True(t, errors.Is(udt.SetByName("nope", Int32(1)), cqlerr.ErrNameDoesNotExist))
	require.True(t, errors.Is(udt.Set(0, Int32(1)), cqlerr.ErrInvalidValueType))

	p := NewPrepared("q", []Parameter{{Name: "addr", Type: address}}, nil)
	s := p.Bind()
	require.NoError(t, s.BindUserTypeByName("addr", udt))
	req, err := s.Consume()
	require.NoError(t, err)
	require.NoError(t, udt.Close())
	require.Equal(t, "{street:Main number:12 zip:}", value.New(address, req.Values[0]).String())

	other, err := NewUserType(types.UserType("app", "phone"))
	require.NoError(t, err)
	s = p.Bind()
	require.True(t, errors.Is(s.BindUserType(0, other), cqlerr.ErrInvalidValueType))

	_, err = NewUserType(intType)
	require.True(t, errors.Is(err, cqlerr.ErrInvalidValueType))

	tuple := NewTupleN(2)
	require.NoError(t, tuple.Set(0, Int32(1)))
	require.Equal(t, "tuple<int, unknown>", tuple.DataType().String())
	data, err := tuple.encode(types.TupleOf(intType, textType))
	require.NoError(t, err)
	require.Equal(t, codec.EncodeSequence([][]byte{{0, 0, 0, 1}, nil}), data)
	require.True(t, errors.Is(tuple.Set(2, Int32(1)), cqlerr.ErrIndexOutOfBounds))

	typed, err := NewTuple(types.TupleOf(intType))
	require.NoError(t, err)
	require.True(t, errors.Is(typed.Set(0, Text("x")), cqlerr.ErrInvalidValueType))
}

func TestNewTupleNNegative(t *testing.T) {
	tuple := NewTupleN(-1)
	defer tuple.Close()
	require.Empty(t, tuple.DataType().Sub)
	require.True(t, errors.Is(tuple.Set(0, Int32(1)), cqlerr.ErrIndexOutOfBounds))
}

func TestBindTemporal(t *testing.T) {
	day := time.Date(2020, 9, 13, 15, 0, 0, 0, time.UTC)
	tod := 13*time.Hour + 5*time.Second
	d := gocql.Duration{Months: 1, Days: 2, Nanoseconds: 3}

	s := New("INSERT INTO events (day, at, span) VALUES (?, ?, ?)", 3)
	require.NoError(t, s.BindDate(0, day))
	require.NoError(t, s.BindTime(1, tod))
	require.NoError(t, s.BindDuration(2, d))
	req, err := s.Consume()
	require.NoError(t, err)

	want, err := codec.Marshal(types.Scalar(types.Time), tod)
	require.NoError(t, err)
	require.Equal(t, want, req.Values[1])
	want, err = codec.Marshal(types.Scalar(types.Duration), d)
	require.NoError(t, err)
	require.Equal(t, want, req.Values[2])

	var got time.Time
	require.NoError(t, codec.Unmarshal(types.Scalar(types.Date), req.Values[0], &got))
	require.Equal(t, "2020-09-13", got.UTC().Format("2006-01-02"))

	typed := userPrepared().Bind()
	defer typed.Close()
	require.True(t, errors.Is(typed.BindDate(0, day), cqlerr.ErrInvalidValueType))
}

func TestBindNilReference(t *testing.T) {
	s := New("INSERT INTO hosts (addr, weight, score) VALUES (?, ?, ?)", 3)
	defer s.Close()

	require.True(t, errors.Is(s.BindInet(0, nil), cqlerr.ErrNullValue))
	require.True(t, errors.Is(s.BindDecimal(1, nil), cqlerr.ErrNullValue))
	require.True(t, errors.Is(s.BindVarint(2, nil), cqlerr.ErrNullValue))

	list := NewList()
	defer list.Close()
	require.True(t, errors.Is(list.Append(Inet(nil)), cqlerr.ErrNullValue))

	for i := 0; i < 3; i++ {
		require.NoError(t, s.BindNull(i))
	}
}

func TestBatch(t *testing.T) {
	c := resource.NewCounter()
	b := NewBatch(Unlogged, WithTracker(c))
	b.SetConsistency(gocql.One)

	_, err := b.Consume()
	require.True(t, errors.Is(err, cqlerr.ErrInvalidItemCount))

	s := New("INSERT INTO t (a) VALUES (?)", 1, WithTracker(c))
	require.True(t, errors.Is(b.AddStatement(s), cqlerr.ErrParameterUnset))
	require.NoError(t, s.BindInt64(0, 1))
	require.NoError(t, b.AddStatement(s))
	require.True(t, errors.Is(b.AddStatement(s), cqlerr.ErrBadParams))
	require.Equal(t, 1, b.Len())

	req, err := b.Consume()
	require.NoError(t, err)
	assert.Equal(t, Unlogged, req.Type)
	assert.Equal(t, gocql.One, *req.Consistency)
	assert.Len(t, req.Entries, 1)
	assert.Equal(t, 0, c.OpenTotal())

	_, err = b.Consume()
	require.True(t, errors.Is(err, cqlerr.ErrBadParams))
}

func TestPreparedMetadata(t *testing.T) {
	p := userPrepared()
	require.Equal(t, 3, p.ParameterCount())
	name, err := p.ParameterName(1)
	require.NoError(t, err)
	require.Equal(t, "name", name)
	dt, err := p.ParameterType(2)
	require.NoError(t, err)
	require.Equal(t, "set<text>", dt.String())
	_, err = p.ParameterType(3)
	require.True(t, errors.Is(err, cqlerr.ErrIndexOutOfBounds))
	require.Equal(t, []int{0}, p.KeyIndices())

	// Statements bound from one template are independent.
	a, b := p.Bind(), p.Bind()
	require.NoError(t, a.BindInt32(0, 1))
	require.NoError(t, b.BindInt32(0, 2))
	ka, err := a.RoutingKey()
	require.NoError(t, err)
	kb, err := b.RoutingKey()
	require.NoError(t, err)
	require.NotEqual(t, ka, kb)
}
