package result

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/grafana/cqlbind/pkg/codec"
	"github.com/grafana/cqlbind/pkg/cqlerr"
	"github.com/grafana/cqlbind/pkg/resource"
	"github.com/grafana/cqlbind/pkg/types"
)

func fixture(t *testing.T, tracker resource.Tracker) *Result {
	t.Helper()
	id, err := codec.Marshal(types.Scalar(types.Int), int32(42))
	require.NoError(t, err)
	other, err := codec.Marshal(types.Scalar(types.Int), int32(7))
	require.NoError(t, err)

	cols := []Column{
		{Keyspace: "app", Table: "users", Name: "id", Type: types.Scalar(types.Int)},
		{Keyspace: "app", Table: "users", Name: "name", Type: types.Scalar(types.Text)},
	}
	return New(cols, [][][]byte{
		{id, []byte("ok")},
		{other, nil},
	}, nil, tracker)
}

func TestRowAccess(t *testing.T) {
	res := fixture(t, nil)
	defer res.Close()

	require.Equal(t, 2, res.RowCount())
	require.Equal(t, 2, res.ColumnCount())
	require.False(t, res.HasMorePages())
	require.Nil(t, res.PagingState())

	row, err := res.First()
	require.NoError(t, err)

	id, err := row.Column(0)
	require.NoError(t, err)
	i, err := id.Int32()
	require.NoError(t, err)
	require.Equal(t, int32(42), i)

	name, err := row.ColumnByName("NAME")
	require.NoError(t, err)
	s, err := name.Text()
	require.NoError(t, err)
	require.Equal(t, "ok", s)

	_, err = row.Column(2)
	require.True(t, errors.Is(err, cqlerr.ErrIndexOutOfBounds))
	_, err = row.Column(-1)
	require.True(t, errors.Is(err, cqlerr.ErrIndexOutOfBounds))
	_, err = row.ColumnByName("missing")
	require.True(t, errors.Is(err, cqlerr.ErrNameDoesNotExist))
	_, err = row.ColumnByName(`"NAME"`)
	require.True(t, errors.Is(err, cqlerr.ErrNameDoesNotExist))

	_, err = res.Row(2)
	require.True(t, errors.Is(err, cqlerr.ErrIndexOutOfBounds))

	second, err := res.Row(1)
	require.NoError(t, err)
	name, err = second.Column(1)
	require.NoError(t, err)
	require.True(t, name.IsNull())
	_, err = name.Text()
	require.True(t, errors.Is(err, cqlerr.ErrNullValue))
}

func TestRendering(t *testing.T) {
	res := fixture(t, nil)
	defer res.Close()

	row, err := res.First()
	require.NoError(t, err)
	require.Equal(t, "42\tok", row.String())
	require.Equal(t, `{id:42, name:"ok"}`, row.GoString())
	require.Equal(t, "42\tok\n7\t", res.String())
}

func TestIteratorsAreRestartableAndReleased(t *testing.T) {
	c := resource.NewCounter()
	res := fixture(t, c)

	rows := res.Rows()
	n := 0
	for rows.Next() {
		row := rows.Row()
		for pass := 0; pass < 2; pass++ {
			cols := row.Columns()
			var names []string
			for cols.Next() {
				names = append(names, cols.Column().Name)
			}
			require.NoError(t, cols.Err())
			require.Equal(t, []string{"id", "name"}, names)
		}
		n++
	}
	require.NoError(t, rows.Err())
	require.Equal(t, 2, n)
	require.Equal(t, 0, c.Open(resource.KindIterator))

	// Abandoned early.
	first, err := res.First()
	require.NoError(t, err)
	cols := first.Columns()
	require.True(t, cols.Next())
	require.Equal(t, 1, c.Open(resource.KindIterator))
	require.NoError(t, cols.Close())
	require.Equal(t, 0, c.Open(resource.KindIterator))

	rows = res.Rows()
	require.True(t, rows.Next())
	require.NoError(t, rows.Close())
	require.False(t, rows.Next())
	require.Equal(t, 0, c.Open(resource.KindIterator))

	require.Equal(t, 1, c.Open(resource.KindResult))
	require.NoError(t, res.Close())
	require.Equal(t, 0, c.OpenTotal())
}

func TestClosedResult(t *testing.T) {
	res := fixture(t, nil)
	row, err := res.First()
	require.NoError(t, err)
	v, err := row.Column(0)
	require.NoError(t, err)

	require.NoError(t, res.Close())

	_, err = v.Int32()
	require.Error(t, err)
	_, err = row.Column(0)
	require.Error(t, err)
	_, err = res.First()
	require.Error(t, err)

	rows := res.Rows()
	require.False(t, rows.Next())
	require.Error(t, rows.Err())
}
