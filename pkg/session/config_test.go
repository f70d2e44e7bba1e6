package session

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gocql/gocql"
	"github.com/stretchr/testify/require"

	"github.com/grafana/cqlbind/pkg/cqlerr"
)

func TestSetContactPoints(t *testing.T) {
	cfg := defaultConfig()
	require.NoError(t, cfg.SetContactPoints(" 10.0.0.1, 10.0.0.2,,"))
	require.Equal(t, []string{"10.0.0.1", "10.0.0.2"}, []string(cfg.Addresses))

	err := cfg.SetContactPoints(" , ")
	code, _ := cqlerr.CodeOf(err)
	require.Equal(t, cqlerr.LibBadParams, code)
}

func TestValidate(t *testing.T) {
	for _, tc := range []struct {
		name   string
		mutate func(*Config)
		valid  bool
	}{
		{"defaults", func(*Config) {}, true},
		{"no addresses", func(c *Config) { c.Addresses = nil }, false},
		{"bad port", func(c *Config) { c.Port = 70000 }, false},
		{"bad consistency", func(c *Config) { c.Consistency = "MOST" }, false},
		{"local serial", func(c *Config) { c.SerialConsistency = "local_serial" }, true},
		{"bad serial consistency", func(c *Config) { c.SerialConsistency = "QUORUM" }, false},
		{"auth without username", func(c *Config) { c.Auth = true }, false},
		{"cert without key", func(c *Config) { c.CertPath = "/etc/cert.pem" }, false},
		{"no concurrency", func(c *Config) { c.MaxConcurrentRequests = 0 }, false},
		{"rate limited", func(c *Config) { c.RequestRate = 50 }, true},
		{"rate without burst", func(c *Config) { c.RequestRate, c.RequestBurst = 50, 0 }, false},
	} {
		t.Run(tc.name, func(t *testing.T) {
			cfg := defaultConfig()
			cfg.Addresses = []string{"127.0.0.1"}
			tc.mutate(&cfg)
			err := cfg.Validate()
			if tc.valid {
				require.NoError(t, err)
				return
			}
			code, ok := cqlerr.CodeOf(err)
			require.True(t, ok)
			require.Equal(t, cqlerr.LibBadParams, code)
		})
	}
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cql.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
addresses: cass-1,cass-2
keyspace: app
consistency: LOCAL_QUORUM
timeout: 2s
auth: true
username: reader
password: hunter2
`), 0o600))

	cfg := defaultConfig()
	require.NoError(t, LoadConfig(path, &cfg))
	require.NoError(t, cfg.Validate())
	require.Equal(t, []string{"cass-1", "cass-2"}, []string(cfg.Addresses))
	require.Equal(t, 2*time.Second, cfg.Timeout)
	require.Equal(t, 9042, cfg.Port)
	require.Equal(t, "hunter2", cfg.Password.String())

	cluster, err := cfg.cluster()
	require.NoError(t, err)
	require.Equal(t, gocql.LocalQuorum, cluster.Consistency)
	require.Equal(t, gocql.Serial, cluster.SerialConsistency)
	require.Equal(t, "app", cluster.Keyspace)
	require.Equal(t, gocql.PasswordAuthenticator{Username: "reader", Password: "hunter2"}, cluster.Authenticator)
	require.Nil(t, cluster.SslOpts)

	require.NoError(t, os.WriteFile(path, []byte("keyspaces: app\n"), 0o600))
	require.Error(t, LoadConfig(path, &cfg))
}
