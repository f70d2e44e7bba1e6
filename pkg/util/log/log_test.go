package log

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/go-kit/log/level"
	dslog "github.com/grafana/dskit/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLevelFilter(t *testing.T) {
	var lvl dslog.Level
	require.NoError(t, lvl.Set("info"))

	var buf bytes.Buffer
	logger, err := New(Config{Level: lvl, Format: "logfmt"}, &buf)
	require.NoError(t, err)

	level.Debug(logger).Log("msg", "hidden")
	level.Info(logger).Log("msg", "shown")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "msg=shown")
	assert.Contains(t, out, "level=info")
	assert.Contains(t, out, "caller=log_test.go")
}

func TestJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Config{Format: "json"}, &buf)
	require.NoError(t, err)

	level.Warn(logger).Log("msg", "slow request")

	var line map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(buf.String())), &line))
	assert.Equal(t, "slow request", line["msg"])
	assert.Equal(t, "warn", line["level"])
	assert.Contains(t, line, "ts")
}

func TestUnknownFormat(t *testing.T) {
	_, err := New(Config{Format: "xml"}, &bytes.Buffer{})
	require.Error(t, err)
}
