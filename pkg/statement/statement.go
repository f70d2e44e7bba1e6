package statement

import (
	"github.com/gocql/gocql"

	"github.com/grafana/cqlbind/pkg/codec"
	"github.com/grafana/cqlbind/pkg/cqlerr"
	"github.com/grafana/cqlbind/pkg/resource"
	"github.com/grafana/cqlbind/pkg/types"
)

// Parameter is a declared statement parameter.
type Parameter struct {
	Name string
	Type types.DataType
}

// Statement is a query with its bound values and options. It is owned by the
// caller until it is submitted, which consumes it. A Statement must not be
// bound from several goroutines at once.
type Statement struct {
	query  string
	params []Parameter
	names  []string
	values [][]byte
	bound  []bool
	keys   []int

	pageSize          int
	pagingState       []byte
	consistency       *gocql.Consistency
	serialConsistency *gocql.SerialConsistency
	keyspace          string
	idempotent        bool

	handle *resource.Handle
}

// New returns a statement for query with parameterCount positional
// parameters of undeclared type. Parameters of such a statement cannot be
// bound by name; use a prepared statement for that.
func New(query string, parameterCount int, opts ...Option) *Statement {
	if parameterCount < 0 {
		parameterCount = 0
	}
	return &Statement{
		query:  query,
		values: make([][]byte, parameterCount),
		bound:  make([]bool, parameterCount),
		handle: acquire(resource.KindStatement, opts),
	}
}

func newDeclared(query string, params []Parameter, keys []int, opts []Option) *Statement {
	s := New(query, len(params), opts...)
	s.params = params
	s.names = make([]string, 0, len(params))
	for _, p := range params {
		s.names = append(s.names, p.Name)
	}
	s.keys = append(s.keys, keys...)
	return s
}

func (s *Statement) Query() string {
	return s.query
}

// ParameterCount returns the number of parameters.
func (s *Statement) ParameterCount() int {
	return len(s.values)
}

func (s *Statement) slot(i int) types.DataType {
	if s.params == nil {
		return types.UnknownType()
	}
	return s.params[i].Type
}

func (s *Statement) usable() error {
	if s.handle.Released() {
		return cqlerr.Newf(cqlerr.LibBadParams, "statement was already submitted or closed")
	}
	return nil
}

// Bind encodes v into parameter i.
func (s *Statement) Bind(i int, v Bindable) error {
	if err := s.usable(); err != nil {
		return err
	}
	if i < 0 || i >= len(s.values) {
		return cqlerr.Newf(cqlerr.LibIndexOutOfBounds, "parameter %d of %d", i, len(s.values))
	}
	data, err := v.encode(s.slot(i))
	if err != nil {
		return err
	}
	s.values[i] = data
	s.bound[i] = true
	return nil
}

// BindByName encodes v into every parameter called name. Names match
// case-insensitively unless double quoted. Nothing is bound if any of the
// matching parameters rejects v.
func (s *Statement) BindByName(name string, v Bindable) error {
	if err := s.usable(); err != nil {
		return err
	}
	if s.params == nil {
		return cqlerr.Newf(cqlerr.LibNameDoesNotExist, "parameter %q: statement has no parameter names", name)
	}
	idx := types.MatchNames(s.names, name)
	if len(idx) == 0 {
		return cqlerr.Newf(cqlerr.LibNameDoesNotExist, "parameter %q", name)
	}
	encoded := make([][]byte, len(idx))
	for n, i := range idx {
		data, err := v.encode(s.slot(i))
		if err != nil {
			return err
		}
		encoded[n] = data
	}
	for n, i := range idx {
		s.values[i] = encoded[n]
		s.bound[i] = true
	}
	return nil
}

// AddKeyIndex marks parameter i as a component of the partition key, in
// order of significance.
func (s *Statement) AddKeyIndex(i int) error {
	if err := s.usable(); err != nil {
		return err
	}
	if i < 0 || i >= len(s.values) {
		return cqlerr.Newf(cqlerr.LibIndexOutOfBounds, "key index %d of %d", i, len(s.values))
	}
	s.keys = append(s.keys, i)
	return nil
}

// RoutingKey returns the partition key built from the key parameters, or nil
// when none are marked.
func (s *Statement) RoutingKey() ([]byte, error) {
	components := make([][]byte, 0, len(s.keys))
	for _, i := range s.keys {
		if !s.bound[i] {
			return nil, cqlerr.Newf(cqlerr.LibParameterUnset, "key parameter %d is not bound", i)
		}
		if s.values[i] == nil {
			return nil, cqlerr.Newf(cqlerr.LibNullValue, "key parameter %d is null", i)
		}
		components = append(components, s.values[i])
	}
	return codec.RoutingKey(components), nil
}

// Options take effect at submission. Setting them on a submitted statement
// has no effect.

// SetPageSize sets the number of rows per page; 0 uses the session default.
func (s *Statement) SetPageSize(n int) *Statement {
	s.pageSize = n
	return s
}

// SetPagingState resumes the query after the page that returned state.
func (s *Statement) SetPagingState(state []byte) *Statement {
	s.pagingState = append([]byte(nil), state...)
	return s
}

func (s *Statement) SetConsistency(c gocql.Consistency) *Statement {
	s.consistency = &c
	return s
}

func (s *Statement) SetSerialConsistency(c gocql.SerialConsistency) *Statement {
	s.serialConsistency = &c
	return s
}

// SetKeyspace sets the keyspace the statement is routed for.
func (s *Statement) SetKeyspace(keyspace string) *Statement {
	s.keyspace = keyspace
	return s
}

// SetIdempotent marks the statement as safe to retry.
func (s *Statement) SetIdempotent(idempotent bool) *Statement {
	s.idempotent = idempotent
	return s
}

// Request is the submitted form of a statement.
type Request struct {
	Query      string
	Values     [][]byte
	Types      []types.DataType
	RoutingKey []byte

	PageSize          int
	PagingState       []byte
	Consistency       *gocql.Consistency
	SerialConsistency *gocql.SerialConsistency
	Keyspace          string
	Idempotent        bool
}

// Consume checks that every parameter is bound and hands the statement over
// for execution. On error the statement is left as it was.
func (s *Statement) Consume() (Request, error) {
	if err := s.usable(); err != nil {
		return Request{}, err
	}
	for i, ok := range s.bound {
		if !ok {
			return Request{}, cqlerr.Newf(cqlerr.LibParameterUnset, "parameter %d is not bound", i)
		}
	}
	key, err := s.RoutingKey()
	if err != nil {
		return Request{}, err
	}

	typs := make([]types.DataType, len(s.values))
	for i := range typs {
		typs[i] = s.slot(i)
	}
	req := Request{
		Query:             s.query,
		Values:            s.values,
		Types:             typs,
		RoutingKey:        key,
		PageSize:          s.pageSize,
		PagingState:       s.pagingState,
		Consistency:       s.consistency,
		SerialConsistency: s.serialConsistency,
		Keyspace:          s.keyspace,
		Idempotent:        s.idempotent,
	}
	s.handle.Release()
	return req, nil
}

// Close releases a statement that will not be submitted.
func (s *Statement) Close() error {
	s.handle.Release()
	return nil
}
