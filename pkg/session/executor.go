package session

import (
	"context"
	"strings"

	"github.com/gocql/gocql"
	"github.com/pkg/errors"

	"github.com/grafana/cqlbind/pkg/codec"
	"github.com/grafana/cqlbind/pkg/cqlerr"
	"github.com/grafana/cqlbind/pkg/result"
	"github.com/grafana/cqlbind/pkg/statement"
	"github.com/grafana/cqlbind/pkg/types"
)

// page is one page of rows as returned by the cluster. Cells are raw CQL
// encodings, nil for null.
type page struct {
	columns     []result.Column
	rows        [][][]byte
	pagingState []byte
}

type prepared struct {
	params []statement.Parameter
	keys   []int
}

// executor runs requests against the cluster. Errors carry a cqlerr code.
type executor interface {
	Query(ctx context.Context, req statement.Request) (page, error)
	Batch(ctx context.Context, req statement.BatchRequest) error
	Prepare(ctx context.Context, query string) (prepared, error)
	UserType(keyspace, name string) (types.DataType, error)
	Close()
}

type gocqlExecutor struct {
	session *gocql.Session
}

func newGocqlExecutor(cfg Config) (*gocqlExecutor, error) {
	cluster, err := cfg.cluster()
	if err != nil {
		return nil, err
	}
	session, err := cluster.CreateSession()
	if err != nil {
		return nil, errors.WithStack(cqlerr.FromGocql(err))
	}
	return &gocqlExecutor{session: session}, nil
}

// encoded passes an already encoded value through the driver untouched.
type encoded []byte

func (e encoded) MarshalCQL(gocql.TypeInfo) ([]byte, error) {
	return e, nil
}

// cell keeps a copy of the raw column bytes.
type cell struct {
	data []byte
}

func (c *cell) UnmarshalCQL(_ gocql.TypeInfo, data []byte) error {
	if data == nil {
		c.data = nil
		return nil
	}
	c.data = append(make([]byte, 0, len(data)), data...)
	return nil
}

func args(values [][]byte) []interface{} {
	out := make([]interface{}, len(values))
	for i, v := range values {
		out[i] = encoded(v)
	}
	return out
}

func (e *gocqlExecutor) Query(ctx context.Context, req statement.Request) (page, error) {
	q := e.session.Query(req.Query, args(req.Values)...).WithContext(ctx)
	// Stay on one page: the caller resumes with the paging state.
	q = q.Prefetch(0)
	if req.Consistency != nil {
		q = q.Consistency(*req.Consistency)
	}
	if req.SerialConsistency != nil {
		q = q.SerialConsistency(*req.SerialConsistency)
	}
	if req.PageSize > 0 {
		q = q.PageSize(req.PageSize)
	}
	if len(req.PagingState) > 0 {
		q = q.PageState(req.PagingState)
	}
	if req.RoutingKey != nil {
		q = q.RoutingKey(req.RoutingKey)
	}
	if req.Idempotent {
		q = q.Idempotent(true)
	}

	iter := q.Iter()
	infos := iter.Columns()
	columns := make([]result.Column, len(infos))
	var dest []interface{}
	var cells []*cell
	for i, info := range infos {
		columns[i] = result.Column{
			Keyspace: info.Keyspace,
			Table:    info.Table,
			Name:     info.Name,
			Type:     types.FromTypeInfo(info.TypeInfo),
		}
		// Tuple columns are split into one destination per element.
		n := 1
		if tuple, ok := info.TypeInfo.(gocql.TupleTypeInfo); ok {
			n = len(tuple.Elems)
		}
		for j := 0; j < n; j++ {
			c := &cell{}
			cells = append(cells, c)
			dest = append(dest, c)
		}
	}

	var rows [][][]byte
	for n := iter.NumRows(); len(rows) < n && iter.Scan(dest...); {
		rows = append(rows, collect(columns, cells))
	}
	state := iter.PageState()
	if err := iter.Close(); err != nil {
		return page{}, errors.WithStack(cqlerr.FromGocql(err))
	}
	return page{
		columns:     columns,
		rows:        rows,
		pagingState: append([]byte(nil), state...),
	}, nil
}

// collect turns the scanned cells into one row, framing tuple elements back
// into a single value.
func collect(columns []result.Column, cells []*cell) [][]byte {
	row := make([][]byte, len(columns))
	pos := 0
	for i, col := range columns {
		if col.Type.Type != types.Tuple {
			row[i] = cells[pos].data
			pos++
			continue
		}
		items := make([][]byte, len(col.Type.Sub))
		for j := range items {
			items[j] = cells[pos].data
			pos++
		}
		row[i] = codec.EncodeSequence(items)
	}
	return row
}

func (e *gocqlExecutor) Batch(ctx context.Context, req statement.BatchRequest) error {
	b := e.session.NewBatch(req.Type).WithContext(ctx)
	for _, entry := range req.Entries {
		b.Query(entry.Query, args(entry.Values)...)
	}
	if req.Consistency != nil {
		b.SetConsistency(*req.Consistency)
	}
	if req.SerialConsistency != nil {
		b.SerialConsistency(*req.SerialConsistency)
	}
	return errors.WithStack(cqlerr.FromGocql(e.session.ExecuteBatch(b)))
}

// errPrepared stops a bound query once the driver has described it.
var errPrepared = errors.New("prepared")

func (e *gocqlExecutor) Prepare(ctx context.Context, query string) (prepared, error) {
	var out prepared
	q := e.session.Bind(query, func(info *gocql.QueryInfo) ([]interface{}, error) {
		out.params = make([]statement.Parameter, len(info.Args))
		for i, arg := range info.Args {
			out.params[i] = statement.Parameter{Name: arg.Name, Type: types.FromTypeInfo(arg.TypeInfo)}
		}
		out.keys = append([]int(nil), info.PKeyColumns...)
		return nil, errPrepared
	}).WithContext(ctx)

	if err := q.Exec(); err != nil && !errors.Is(err, errPrepared) {
		return prepared{}, errors.WithStack(cqlerr.FromGocql(err))
	}
	return out, nil
}

func (e *gocqlExecutor) UserType(keyspace, name string) (types.DataType, error) {
	if keyspace == "" {
		return types.DataType{}, cqlerr.Newf(cqlerr.LibBadParams, "keyspace required")
	}
	meta, err := e.session.KeyspaceMetadata(keyspace)
	if err != nil {
		return types.DataType{}, errors.WithStack(cqlerr.FromGocql(err))
	}
	udt, ok := meta.UserTypes[schemaName(name)]
	if !ok {
		return types.DataType{}, cqlerr.Newf(cqlerr.LibNameDoesNotExist, "no user type %s.%s", keyspace, name)
	}
	fields := make([]types.Field, len(udt.FieldNames))
	for i, n := range udt.FieldNames {
		fields[i] = types.Field{Name: n, Type: types.FromTypeInfo(udt.FieldTypes[i])}
	}
	return types.UserType(udt.Keyspace, udt.Name, fields...), nil
}

func (e *gocqlExecutor) Close() {
	e.session.Close()
}

// schemaName follows CQL identifier rules: unquoted names are folded to
// lower case.
func schemaName(name string) string {
	if len(name) >= 2 && strings.HasPrefix(name, `"`) && strings.HasSuffix(name, `"`) {
		return strings.ReplaceAll(name[1:len(name)-1], `""`, `"`)
	}
	return strings.ToLower(name)
}
