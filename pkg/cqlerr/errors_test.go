package cqlerr

import (
	"context"
	"fmt"
	"testing"

	"github.com/gocql/gocql"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuild(t *testing.T) {
	require.NoError(t, Build(OK))

	err := Build(LibIndexOutOfBounds)
	require.Error(t, err)
	assert.Equal(t, "LIB_INDEX_OUT_OF_BOUNDS: index out of bounds", err.Error())
	assert.True(t, errors.Is(err, ErrIndexOutOfBounds))
	assert.False(t, errors.Is(err, ErrInvalidValueType))
}

func TestWrap(t *testing.T) {
	v, err := Wrap(OK, 42)
	require.NoError(t, err)
	require.Equal(t, 42, v)

	_, err = Wrap(LibNullValue, "ignored")
	require.True(t, errors.Is(err, ErrNullValue))
}

func TestSentinelsMatchAcrossMessagesAndWrapping(t *testing.T) {
	err := Newf(LibNameDoesNotExist, "column %q not found", "missing")
	wrapped := errors.Wrap(err, "reading row")

	assert.True(t, errors.Is(wrapped, ErrNameDoesNotExist))
	code, ok := CodeOf(wrapped)
	require.True(t, ok)
	assert.Equal(t, LibNameDoesNotExist, code)
	assert.Contains(t, wrapped.Error(), `column "missing" not found`)
}

func TestSources(t *testing.T) {
	for _, tc := range []struct {
		code       Code
		src        Source
		connection bool
	}{
		{LibInvalidValueType, SourceLib, false},
		{LibNoHostsAvailable, SourceLib, true},
		{ServerSyntaxError, SourceServer, false},
		{ServerBadCredentials, SourceServer, true},
		{SSLInvalidCert, SourceSSL, true},
	} {
		t.Run(tc.code.String(), func(t *testing.T) {
			err := Build(tc.code)
			assert.Equal(t, tc.src, tc.code.Source())
			assert.Equal(t, tc.src == SourceLib, IsLibrary(err))
			assert.Equal(t, tc.src == SourceServer, IsServer(err))
			assert.Equal(t, tc.src == SourceSSL, IsSSL(err))
			assert.Equal(t, tc.connection, IsConnection(err))
		})
	}

	assert.False(t, IsLibrary(nil))
	assert.False(t, IsServer(fmt.Errorf("plain")))
}

func TestUnknownCode(t *testing.T) {
	c := serverBase + 0x9999
	assert.Equal(t, "SERVER_UNKNOWN(0x009999)", c.String())
	assert.Equal(t, "unknown error", c.Description())
}

func TestFromGocql(t *testing.T) {
	for _, tc := range []struct {
		name string
		in   error
		code Code
	}{
		{"no connections", gocql.ErrNoConnections, LibNoHostsAvailable},
		{"wrapped timeout", errors.Wrap(gocql.ErrTimeoutNoResponse, "query"), LibRequestTimedOut},
		{"deadline", context.DeadlineExceeded, LibRequestTimedOut},
		{"unavailable", gocql.ErrUnavailable, ServerUnavailable},
		{"unknown", fmt.Errorf("boom"), LibUnexpectedResponse},
		{"passthrough", Build(LibBadParams), LibBadParams},
	} {
		t.Run(tc.name, func(t *testing.T) {
			err := FromGocql(tc.in)
			code, ok := CodeOf(err)
			require.True(t, ok)
			assert.Equal(t, tc.code, code)
		})
	}

	require.NoError(t, FromGocql(nil))
}

func TestStatusCode(t *testing.T) {
	assert.Equal(t, "OK", StatusCode(nil))
	assert.Equal(t, "SERVER_OVERLOADED", StatusCode(Build(ServerOverloaded)))
	assert.Equal(t, "unknown", StatusCode(fmt.Errorf("plain")))
}

func TestIsTimeout(t *testing.T) {
	assert.True(t, IsTimeout(Build(ServerReadTimeout)))
	assert.True(t, IsTimeout(FromGocql(context.DeadlineExceeded)))
	assert.False(t, IsTimeout(Build(ServerUnavailable)))
}
