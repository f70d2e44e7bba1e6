package codec

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grafana/cqlbind/pkg/cqlerr"
	"github.com/grafana/cqlbind/pkg/types"
)

func TestCollectionFraming(t *testing.T) {
	buf, err := EncodeCollection(3, [][]byte{{0x01}, nil, {}})
	require.NoError(t, err)
	require.Equal(t, []byte{
		0, 0, 0, 3,
		0, 0, 0, 1, 0x01,
		0xff, 0xff, 0xff, 0xff,
		0, 0, 0, 0,
	}, buf)

	n, rest, err := ReadSize(buf)
	require.NoError(t, err)
	require.Equal(t, 3, n)

	first, rest, err := ReadBytes(rest)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x01}, first)

	null, rest, err := ReadBytes(rest)
	require.NoError(t, err)
	assert.Nil(t, null)

	empty, rest, err := ReadBytes(rest)
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Len(t, empty, 0)
	assert.Len(t, rest, 0)
}

func TestReadTruncated(t *testing.T) {
	_, _, err := ReadSize([]byte{0, 0})
	require.True(t, errors.Is(err, &cqlerr.Error{Code: cqlerr.LibUnexpectedResponse}))

	_, _, err = ReadBytes([]byte{0, 0, 0, 5, 1, 2})
	require.Error(t, err)

	_, _, err = ReadSize([]byte{0xff, 0, 0, 0})
	require.Error(t, err)
}

func TestMarshalScalars(t *testing.T) {
	data, err := Marshal(types.Scalar(types.Int), int32(42))
	require.NoError(t, err)
	require.Equal(t, []byte{0, 0, 0, 42}, data)

	var out int32
	require.NoError(t, Unmarshal(types.Scalar(types.Int), data, &out))
	require.Equal(t, int32(42), out)

	_, err = Marshal(types.Scalar(types.Int), "not a number")
	require.True(t, errors.Is(err, &cqlerr.Error{Code: cqlerr.LibMessageEncode}))
}

func TestRoutingKey(t *testing.T) {
	assert.Nil(t, RoutingKey(nil))
	assert.Equal(t, []byte{1, 2}, RoutingKey([][]byte{{1, 2}}))
	assert.Equal(t, []byte{
		0, 2, 1, 2, 0,
		0, 1, 9, 0,
	}, RoutingKey([][]byte{{1, 2}, {9}}))
}

func TestEncodeSequence(t *testing.T) {
	assert.Equal(t, []byte{0, 0, 0, 1, 7, 0xff, 0xff, 0xff, 0xff}, EncodeSequence([][]byte{{7}, nil}))
	assert.NotNil(t, EncodeSequence(nil))
}
