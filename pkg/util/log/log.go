// Package log builds the go-kit logger used by sessions.
package log

import (
	"flag"
	"fmt"
	"io"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	dslog "github.com/grafana/dskit/log"
)

// Config for the logger.
type Config struct {
	Level  dslog.Level `yaml:"log_level"`
	Format string      `yaml:"log_format"`
}

// RegisterFlags adds the flags required to config this to the given FlagSet
func (cfg *Config) RegisterFlags(f *flag.FlagSet) {
	cfg.Level.RegisterFlags(f)
	f.StringVar(&cfg.Format, "log.format", "logfmt", "Output log messages in the given format. Valid formats: [logfmt, json]")
}

// New returns a leveled logger writing to w with a timestamp and caller on
// every line.
func New(cfg Config, w io.Writer) (log.Logger, error) {
	var logger log.Logger
	switch cfg.Format {
	case "logfmt", "":
		logger = log.NewLogfmtLogger(log.NewSyncWriter(w))
	case "json":
		logger = log.NewJSONLogger(log.NewSyncWriter(w))
	default:
		return nil, fmt.Errorf("unknown log format %q", cfg.Format)
	}
	if cfg.Level.Option != nil {
		logger = level.NewFilter(logger, cfg.Level.Option)
	}
	return log.With(logger, "ts", log.DefaultTimestampUTC, "caller", log.Caller(3)), nil
}
