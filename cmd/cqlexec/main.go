// cqlexec runs one CQL statement against a cluster and prints the rows it
// returns, one per line with tab separated columns.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/go-kit/log/level"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/grafana/cqlbind/pkg/cqlerr"
	"github.com/grafana/cqlbind/pkg/session"
	"github.com/grafana/cqlbind/pkg/statement"
	util_log "github.com/grafana/cqlbind/pkg/util/log"
)

func main() {
	var (
		sessionCfg session.Config
		logCfg     util_log.Config
	)
	sessionCfg.RegisterFlags(flag.CommandLine)
	logCfg.RegisterFlags(flag.CommandLine)
	configFile := flag.String("config.file", "", "YAML file with the session config. Flags override it.")
	query := flag.String("query", "", "Statement to run.")
	allPages := flag.Bool("all-pages", false, "Keep fetching until the last page.")
	timeout := flag.Duration("wait-timeout", 30*time.Second, "How long to wait for each response.")
	debug := flag.Bool("debug", false, "Print rows in debug form.")
	flag.Parse()

	if *configFile != "" {
		if err := session.LoadConfig(*configFile, &sessionCfg); err != nil {
			fmt.Fprintf(os.Stderr, "failed loading config: %v\n", err)
			os.Exit(1)
		}
		// Flags given on the command line win over the file.
		if err := flag.CommandLine.Parse(os.Args[1:]); err != nil {
			os.Exit(2)
		}
	}
	if *query == "" {
		fmt.Fprintln(os.Stderr, "-query is required")
		os.Exit(2)
	}

	logger, err := util_log.New(logCfg, os.Stderr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed creating logger: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	s, err := session.Connect(ctx, sessionCfg, logger, prometheus.NewRegistry()).WaitTimeout(*timeout)
	if err != nil {
		level.Error(logger).Log("msg", "unable to connect", "code", cqlerr.StatusCode(err), "err", err)
		os.Exit(1)
	}
	defer s.Close()

	if err := run(ctx, s, *query, *allPages, *timeout, *debug); err != nil {
		level.Error(logger).Log("msg", "query failed", "code", cqlerr.StatusCode(err), "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, s *session.Session, query string, allPages bool, timeout time.Duration, debug bool) error {
	var state []byte
	for {
		st := statement.New(query, 0, s.Options()...)
		if state != nil {
			st.SetPagingState(state)
		}
		res, err := s.ExecuteStatement(ctx, st).WaitTimeout(timeout)
		if err != nil {
			return err
		}

		rows := res.Rows()
		for rows.Next() {
			if debug {
				fmt.Printf("%#v\n", rows.Row())
			} else {
				fmt.Println(rows.Row().String())
			}
		}
		err = rows.Err()
		more, next := res.HasMorePages(), res.PagingState()
		res.Close()
		if err != nil || !allPages || !more {
			return err
		}
		state = next
	}
}
