// Package session connects to a cluster and runs statements asynchronously.
// Every request is dispatched on its own goroutine, bounded by the configured
// number of concurrent requests, and its outcome is delivered through a
// future.
package session

import (
	"context"
	"sync"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/grafana/dskit/instrument"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"

	"github.com/grafana/cqlbind/pkg/cqlerr"
	"github.com/grafana/cqlbind/pkg/future"
	"github.com/grafana/cqlbind/pkg/resource"
	"github.com/grafana/cqlbind/pkg/result"
	"github.com/grafana/cqlbind/pkg/statement"
	"github.com/grafana/cqlbind/pkg/types"
)

type metrics struct {
	duration *instrument.HistogramCollector
	inflight prometheus.Gauge
}

func newMetrics(reg prometheus.Registerer) *metrics {
	return &metrics{
		duration: instrument.NewHistogramCollector(promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "cql",
			Name:      "request_duration_seconds",
			Help:      "Time spent running requests against the cluster.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation", "status_code"})),
		inflight: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Namespace: "cql",
			Name:      "inflight_requests",
			Help:      "Requests submitted and not yet resolved.",
		}),
	}
}

// Option configures a Session.
type Option func(*Session)

// WithTracker accounts for every result, statement and builder the session
// hands out, in addition to the session's own gauge.
func WithTracker(t resource.Tracker) Option {
	return func(s *Session) {
		s.tracker = append(s.tracker, t)
	}
}

// Session is a connected client. It is safe for concurrent use.
type Session struct {
	cfg     Config
	exec    executor
	logger  log.Logger
	metrics *metrics
	tracker resource.Multi
	sem     *semaphore.Weighted
	limiter *rate.Limiter
	cache   *lru.Cache[string, *statement.Prepared]

	mtx    sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

// Connect opens a session in the background. The future resolves once the
// cluster has been contacted.
func Connect(ctx context.Context, cfg Config, logger log.Logger, reg prometheus.Registerer, opts ...Option) *future.Future[*Session] {
	if err := cfg.Validate(); err != nil {
		return future.Resolved[*Session](nil, err)
	}

	f, resolve := future.New[*Session]()
	go func() {
		exec, err := connect(ctx, cfg)
		if err != nil {
			level.Error(logger).Log("msg", "failed to connect", "addresses", cfg.Addresses.String(), "err", err)
			resolve(nil, err)
			return
		}
		level.Info(logger).Log("msg", "connected", "addresses", cfg.Addresses.String(), "keyspace", cfg.Keyspace)
		resolve(newSession(cfg, exec, logger, reg, opts...), nil)
	}()
	return f
}

// connect creates the driver session, giving up when ctx is done. A session
// created after ctx expired is closed again.
func connect(ctx context.Context, cfg Config) (executor, error) {
	type outcome struct {
		exec *gocqlExecutor
		err  error
	}
	ch := make(chan outcome, 1)
	go func() {
		exec, err := newGocqlExecutor(cfg)
		ch <- outcome{exec, err}
	}()

	select {
	case o := <-ch:
		if o.err != nil {
			return nil, o.err
		}
		return o.exec, nil
	case <-ctx.Done():
		go func() {
			if o := <-ch; o.err == nil {
				o.exec.Close()
			}
		}()
		return nil, cqlerr.FromGocql(ctx.Err())
	}
}

func newSession(cfg Config, exec executor, logger log.Logger, reg prometheus.Registerer, opts ...Option) *Session {
	s := &Session{
		cfg:     cfg,
		exec:    exec,
		logger:  logger,
		metrics: newMetrics(reg),
		tracker: resource.Multi{resource.NewMetrics(reg)},
	}
	limit := cfg.MaxConcurrentRequests
	if limit <= 0 {
		limit = 1
	}
	s.sem = semaphore.NewWeighted(int64(limit))
	if cfg.RequestRate > 0 {
		s.limiter = rate.NewLimiter(rate.Limit(cfg.RequestRate), cfg.RequestBurst)
	}
	if cfg.PreparedCacheSize > 0 {
		// Only fails for a non positive size.
		s.cache, _ = lru.New[string, *statement.Prepared](cfg.PreparedCacheSize)
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Options returns the statement options that account builders and
// statements against this session.
func (s *Session) Options() []statement.Option {
	return []statement.Option{statement.WithTracker(s.tracker)}
}

func statusCode(err error) string {
	if err == nil {
		return "success"
	}
	return cqlerr.StatusCode(err)
}

// dispatch runs fn on a new goroutine once a request slot is free.
func dispatch[T any](ctx context.Context, s *Session, op string, fn func(context.Context) (T, error)) *future.Future[T] {
	var zero T
	s.mtx.RLock()
	defer s.mtx.RUnlock()
	if s.closed {
		return future.Resolved(zero, errClosed())
	}

	f, resolve := future.New[T]()
	s.wg.Add(1)
	s.metrics.inflight.Inc()
	go func() {
		defer s.wg.Done()
		defer s.metrics.inflight.Dec()

		if err := s.sem.Acquire(ctx, 1); err != nil {
			resolve(zero, cqlerr.FromGocql(err))
			return
		}
		defer s.sem.Release(1)
		if s.limiter != nil {
			if err := s.limiter.Wait(ctx); err != nil {
				resolve(zero, cqlerr.WithCause(cqlerr.LibRequestTimedOut, err, "rate limited"))
				return
			}
		}

		var out T
		err := instrument.CollectedRequest(ctx, op, s.metrics.duration, statusCode, func(ctx context.Context) error {
			var err error
			out, err = fn(ctx)
			return err
		})
		if err != nil {
			level.Warn(s.logger).Log("msg", "request failed", "operation", op, "code", statusCode(err), "err", err)
		}
		resolve(out, err)
	}()
	return f
}

// ErrClosed is the cause of requests submitted after Close.
var ErrClosed = errors.New("session closed")

func (s *Session) checkOpen() error {
	s.mtx.RLock()
	defer s.mtx.RUnlock()
	if s.closed {
		return errClosed()
	}
	return nil
}

func errClosed() error {
	return cqlerr.WithCause(cqlerr.LibUnableToClose, ErrClosed, "session is closed")
}

// Execute runs query with parameterCount positional parameters left unbound.
// It is meant for statements without parameters; any declared parameter
// resolves the future with LibParameterUnset.
func (s *Session) Execute(ctx context.Context, query string, parameterCount int) *future.Future[*result.Result] {
	return s.ExecuteStatement(ctx, statement.New(query, parameterCount, s.Options()...))
}

// ExecuteStatement submits st. st is consumed when the call returns,
// whatever the outcome of the request.
func (s *Session) ExecuteStatement(ctx context.Context, st *statement.Statement) *future.Future[*result.Result] {
	req, err := st.Consume()
	if err != nil {
		st.Close()
		return future.Resolved[*result.Result](nil, err)
	}
	if req.PageSize <= 0 {
		req.PageSize = s.cfg.PageSize
	}
	level.Debug(s.logger).Log("msg", "executing statement", "query", req.Query, "params", len(req.Values))

	return dispatch(ctx, s, "Execute", func(ctx context.Context) (*result.Result, error) {
		p, err := s.exec.Query(ctx, req)
		if err != nil {
			return nil, err
		}
		return result.New(p.columns, p.rows, p.pagingState, s.tracker), nil
	})
}

// ExecuteBatch submits b. It resolves with an empty result.
func (s *Session) ExecuteBatch(ctx context.Context, b *statement.Batch) *future.Future[*result.Result] {
	req, err := b.Consume()
	if err != nil {
		b.Close()
		return future.Resolved[*result.Result](nil, err)
	}
	level.Debug(s.logger).Log("msg", "executing batch", "statements", len(req.Entries))

	return dispatch(ctx, s, "Batch", func(ctx context.Context) (*result.Result, error) {
		if err := s.exec.Batch(ctx, req); err != nil {
			return nil, err
		}
		return result.Empty(s.tracker), nil
	})
}

// Prepare asks the cluster to validate query and describe its parameters.
// Templates are cached per query string, so preparing the same query again
// resolves without a round trip.
func (s *Session) Prepare(ctx context.Context, query string) *future.Future[*statement.Prepared] {
	if err := s.checkOpen(); err != nil {
		return future.Resolved[*statement.Prepared](nil, err)
	}
	if s.cache != nil {
		if p, ok := s.cache.Get(query); ok {
			return future.Resolved(p, nil)
		}
	}
	return dispatch(ctx, s, "Prepare", func(ctx context.Context) (*statement.Prepared, error) {
		p, err := s.exec.Prepare(ctx, query)
		if err != nil {
			return nil, err
		}
		out := statement.NewPrepared(query, p.params, p.keys, s.Options()...)
		if s.cache != nil {
			s.cache.Add(query, out)
		}
		return out, nil
	})
}

// UserType looks up a user defined type in the schema known to the session.
// Unquoted names are matched case insensitively.
func (s *Session) UserType(keyspace, name string) (types.DataType, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()
	if s.closed {
		return types.DataType{}, errClosed()
	}
	if keyspace == "" {
		keyspace = s.cfg.Keyspace
	}
	return s.exec.UserType(keyspace, name)
}

// NewUserType returns a builder for the user type keyspace.name.
func (s *Session) NewUserType(keyspace, name string) (*statement.UserType, error) {
	dt, err := s.UserType(keyspace, name)
	if err != nil {
		return nil, err
	}
	return statement.NewUserType(dt, s.Options()...)
}

// Close waits for in-flight requests and disconnects. Requests submitted
// afterwards fail. Closing twice is a no-op.
func (s *Session) Close() error {
	s.mtx.Lock()
	if s.closed {
		s.mtx.Unlock()
		return nil
	}
	s.closed = true
	s.mtx.Unlock()

	s.wg.Wait()
	s.exec.Close()
	level.Info(s.logger).Log("msg", "session closed")
	return nil
}
