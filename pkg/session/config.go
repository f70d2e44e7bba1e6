package session

import (
	"flag"
	"os"
	"strings"
	"time"

	"github.com/gocql/gocql"
	"github.com/grafana/dskit/flagext"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"

	"github.com/grafana/cqlbind/pkg/cqlerr"
)

// Config for a Session.
type Config struct {
	Addresses                flagext.StringSliceCSV `yaml:"addresses"`
	Port                     int                    `yaml:"port"`
	Keyspace                 string                 `yaml:"keyspace"`
	Consistency              string                 `yaml:"consistency"`
	SerialConsistency        string                 `yaml:"serial_consistency"`
	ProtoVersion             int                    `yaml:"protocol_version"`
	NumConnections           int                    `yaml:"num_connections"`
	DisableInitialHostLookup bool                   `yaml:"disable_initial_host_lookup"`
	SSL                      bool                   `yaml:"SSL"`
	HostVerification         bool                   `yaml:"host_verification"`
	CAPath                   string                 `yaml:"CA_path"`
	CertPath                 string                 `yaml:"tls_cert_path"`
	KeyPath                  string                 `yaml:"tls_key_path"`
	Auth                     bool                   `yaml:"auth"`
	Username                 string                 `yaml:"username"`
	Password                 flagext.Secret         `yaml:"password"`
	Timeout                  time.Duration          `yaml:"timeout"`
	ConnectTimeout           time.Duration          `yaml:"connect_timeout"`
	MaxConcurrentRequests    int                    `yaml:"max_concurrent_requests"`
	PageSize                 int                    `yaml:"page_size"`
	RequestRate              float64                `yaml:"request_rate"`
	RequestBurst             int                    `yaml:"request_burst"`
	PreparedCacheSize        int                    `yaml:"prepared_cache_size"`
}

// RegisterFlags adds the flags required to config this to the given FlagSet
func (cfg *Config) RegisterFlags(f *flag.FlagSet) {
	cfg.RegisterFlagsWithPrefix("", f)
}

// RegisterFlagsWithPrefix adds the flags required to config this to the given
// FlagSet, with every flag name prefixed.
func (cfg *Config) RegisterFlagsWithPrefix(prefix string, f *flag.FlagSet) {
	f.Var(&cfg.Addresses, prefix+"cassandra.addresses", "Comma-separated hostnames or IPs of Cassandra instances.")
	f.IntVar(&cfg.Port, prefix+"cassandra.port", 9042, "Port that Cassandra is running on")
	f.StringVar(&cfg.Keyspace, prefix+"cassandra.keyspace", "", "Keyspace to use in Cassandra.")
	f.StringVar(&cfg.Consistency, prefix+"cassandra.consistency", "QUORUM", "Consistency level for Cassandra.")
	f.StringVar(&cfg.SerialConsistency, prefix+"cassandra.serial-consistency", "SERIAL", "Serial consistency level for conditional updates (SERIAL or LOCAL_SERIAL).")
	f.IntVar(&cfg.ProtoVersion, prefix+"cassandra.protocol-version", 4, "Native protocol version to use. 0 negotiates with the server.")
	f.IntVar(&cfg.NumConnections, prefix+"cassandra.num-connections", 2, "Number of connections to open per host.")
	f.BoolVar(&cfg.DisableInitialHostLookup, prefix+"cassandra.disable-initial-host-lookup", false, "Instruct the cassandra driver to not attempt to get host info from the system.peers table.")
	f.BoolVar(&cfg.SSL, prefix+"cassandra.ssl", false, "Use SSL when connecting to cassandra instances.")
	f.BoolVar(&cfg.HostVerification, prefix+"cassandra.host-verification", true, "Require SSL certificate validation.")
	f.StringVar(&cfg.CAPath, prefix+"cassandra.ca-path", "", "Path to certificate file to verify the peer.")
	f.StringVar(&cfg.CertPath, prefix+"cassandra.tls-cert-path", "", "Path to certificate file used by TLS.")
	f.StringVar(&cfg.KeyPath, prefix+"cassandra.tls-key-path", "", "Path to private key file used by TLS.")
	f.BoolVar(&cfg.Auth, prefix+"cassandra.auth", false, "Enable password authentication when connecting to cassandra.")
	f.StringVar(&cfg.Username, prefix+"cassandra.username", "", "Username to use when connecting to cassandra.")
	f.Var(&cfg.Password, prefix+"cassandra.password", "Password to use when connecting to cassandra.")
	f.DurationVar(&cfg.Timeout, prefix+"cassandra.timeout", 600*time.Millisecond, "Timeout for a single request.")
	f.DurationVar(&cfg.ConnectTimeout, prefix+"cassandra.connect-timeout", 5*time.Second, "Timeout when connecting to cassandra.")
	f.IntVar(&cfg.MaxConcurrentRequests, prefix+"cassandra.max-concurrent-requests", 128, "Maximum number of requests in flight per session.")
	f.IntVar(&cfg.PageSize, prefix+"cassandra.page-size", 5000, "Rows per page for statements that do not set a page size.")
	f.Float64Var(&cfg.RequestRate, prefix+"cassandra.request-rate", 0, "Maximum requests per second sent by the session. 0 disables the limit.")
	f.IntVar(&cfg.RequestBurst, prefix+"cassandra.request-burst", 1, "Requests allowed above the rate limit in a burst.")
	f.IntVar(&cfg.PreparedCacheSize, prefix+"cassandra.prepared-cache-size", 1000, "Number of prepared statements kept per session. 0 disables the cache.")
}

// SetContactPoints replaces the addresses with a comma separated list.
func (cfg *Config) SetContactPoints(points string) error {
	var addrs []string
	for _, p := range strings.Split(points, ",") {
		if p = strings.TrimSpace(p); p != "" {
			addrs = append(addrs, p)
		}
	}
	if len(addrs) == 0 {
		return cqlerr.Newf(cqlerr.LibBadParams, "no contact points in %q", points)
	}
	cfg.Addresses = addrs
	return nil
}

// Validate checks the config for settings the driver would reject later.
func (cfg *Config) Validate() error {
	if len(cfg.Addresses) == 0 {
		return cqlerr.Newf(cqlerr.LibBadParams, "no contact points configured")
	}
	if cfg.Port <= 0 || cfg.Port > 65535 {
		return cqlerr.Newf(cqlerr.LibBadParams, "invalid port %d", cfg.Port)
	}
	if _, err := gocql.ParseConsistencyWrapper(cfg.Consistency); err != nil {
		return cqlerr.WithCause(cqlerr.LibBadParams, err, "invalid consistency %q", cfg.Consistency)
	}
	if _, err := parseSerialConsistency(cfg.SerialConsistency); err != nil {
		return err
	}
	if cfg.MaxConcurrentRequests <= 0 {
		return cqlerr.Newf(cqlerr.LibBadParams, "max concurrent requests must be positive")
	}
	if cfg.RequestRate < 0 || (cfg.RequestRate > 0 && cfg.RequestBurst <= 0) {
		return cqlerr.Newf(cqlerr.LibBadParams, "request rate %g needs a positive burst", cfg.RequestRate)
	}
	if cfg.Auth && cfg.Username == "" {
		return cqlerr.Newf(cqlerr.LibBadParams, "password authentication requires a username")
	}
	if (cfg.CertPath == "") != (cfg.KeyPath == "") {
		return cqlerr.Newf(cqlerr.LibBadParams, "TLS certificate and key must be set together")
	}
	return nil
}

// LoadConfig reads a YAML config from path on top of cfg. Unknown fields are
// an error.
func LoadConfig(path string, cfg *Config) error {
	buf, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrap(err, "read config")
	}
	if err := yaml.UnmarshalStrict(buf, cfg); err != nil {
		return errors.Wrapf(err, "parse config %s", path)
	}
	return nil
}

func parseSerialConsistency(s string) (gocql.SerialConsistency, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "SERIAL", "":
		return gocql.Serial, nil
	case "LOCAL_SERIAL":
		return gocql.LocalSerial, nil
	}
	return 0, cqlerr.Newf(cqlerr.LibBadParams, "invalid serial consistency %q", s)
}

func (cfg *Config) cluster() (*gocql.ClusterConfig, error) {
	consistency, err := gocql.ParseConsistencyWrapper(cfg.Consistency)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	serial, err := parseSerialConsistency(cfg.SerialConsistency)
	if err != nil {
		return nil, err
	}

	cluster := gocql.NewCluster(cfg.Addresses...)
	cluster.Port = cfg.Port
	cluster.Keyspace = cfg.Keyspace
	cluster.Consistency = consistency
	cluster.SerialConsistency = serial
	cluster.ProtoVersion = cfg.ProtoVersion
	cluster.Timeout = cfg.Timeout
	cluster.ConnectTimeout = cfg.ConnectTimeout
	if cfg.NumConnections > 0 {
		cluster.NumConns = cfg.NumConnections
	}
	if cfg.PageSize > 0 {
		cluster.PageSize = cfg.PageSize
	}
	cfg.setClusterConfig(cluster)
	return cluster, nil
}

// apply config settings to a cassandra ClusterConfig
func (cfg *Config) setClusterConfig(cluster *gocql.ClusterConfig) {
	cluster.DisableInitialHostLookup = cfg.DisableInitialHostLookup

	if cfg.SSL {
		cluster.SslOpts = &gocql.SslOptions{
			CaPath:                 cfg.CAPath,
			CertPath:               cfg.CertPath,
			KeyPath:                cfg.KeyPath,
			EnableHostVerification: cfg.HostVerification,
		}
	}
	if cfg.Auth {
		cluster.Authenticator = gocql.PasswordAuthenticator{
			Username: cfg.Username,
			Password: cfg.Password.String(),
		}
	}
}
