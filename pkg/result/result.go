// Package result holds server responses: the column metadata, the encoded
// cells of every row and the paging state. Values handed out by rows borrow
// the result's buffers and stop working once the result is closed.
package result

import (
	"strings"

	"github.com/grafana/cqlbind/pkg/cqlerr"
	"github.com/grafana/cqlbind/pkg/resource"
	"github.com/grafana/cqlbind/pkg/types"
)

// Column describes one result column.
type Column struct {
	Keyspace string
	Table    string
	Name     string
	Type     types.DataType
}

// Result is an owned server response. It is read only and safe for
// concurrent reads; Close must be called once the rows are no longer needed.
type Result struct {
	columns []Column
	names   []string
	rows    [][][]byte
	paging  []byte
	handle  *resource.Handle
}

// New builds a result over rows of encoded cells, one slice per row with one
// entry per column; a nil cell is null. The result takes ownership of rows.
func New(columns []Column, rows [][][]byte, pagingState []byte, t resource.Tracker) *Result {
	names := make([]string, 0, len(columns))
	for _, c := range columns {
		names = append(names, c.Name)
	}
	return &Result{
		columns: columns,
		names:   names,
		rows:    rows,
		paging:  pagingState,
		handle:  resource.Acquire(t, resource.KindResult),
	}
}

// Empty returns a result without columns or rows, as produced by writes.
func Empty(t resource.Tracker) *Result {
	return New(nil, nil, nil, t)
}

func (r *Result) RowCount() int {
	return len(r.rows)
}

func (r *Result) ColumnCount() int {
	return len(r.columns)
}

// Columns returns a copy of the column metadata.
func (r *Result) Columns() []Column {
	out := make([]Column, len(r.columns))
	copy(out, r.columns)
	return out
}

// ColumnName returns the name of column i.
func (r *Result) ColumnName(i int) (string, error) {
	if i < 0 || i >= len(r.columns) {
		return "", cqlerr.Newf(cqlerr.LibIndexOutOfBounds, "column %d of %d", i, len(r.columns))
	}
	return r.columns[i].Name, nil
}

// ColumnType returns the type of column i.
func (r *Result) ColumnType(i int) (types.DataType, error) {
	if i < 0 || i >= len(r.columns) {
		return types.UnknownType(), cqlerr.Newf(cqlerr.LibIndexOutOfBounds, "column %d of %d", i, len(r.columns))
	}
	return r.columns[i].Type, nil
}

// First returns the first row.
func (r *Result) First() (Row, error) {
	return r.Row(0)
}

// Row returns row i.
func (r *Result) Row(i int) (Row, error) {
	if err := r.live(); err != nil {
		return Row{}, err
	}
	if i < 0 || i >= len(r.rows) {
		return Row{}, cqlerr.Newf(cqlerr.LibIndexOutOfBounds, "row %d of %d", i, len(r.rows))
	}
	return Row{res: r, cells: r.rows[i]}, nil
}

// Rows returns an iterator over all rows. It must be closed unless it is
// drained.
func (r *Result) Rows() *RowIterator {
	return &RowIterator{
		res:    r,
		idx:    -1,
		handle: resource.Acquire(r.handle.Tracker(), resource.KindIterator),
	}
}

// HasMorePages reports whether the server has more rows for the query. Pass
// PagingState to the next statement to fetch them.
func (r *Result) HasMorePages() bool {
	return len(r.paging) > 0
}

// PagingState returns a copy of the continuation token, nil on the last page.
func (r *Result) PagingState() []byte {
	if len(r.paging) == 0 {
		return nil
	}
	out := make([]byte, len(r.paging))
	copy(out, r.paging)
	return out
}

// Close releases the result. Values read from it become invalid.
func (r *Result) Close() error {
	r.handle.Release()
	return nil
}

func (r *Result) live() error {
	if r.handle.Released() {
		return cqlerr.Newf(cqlerr.LibBadParams, "result is closed")
	}
	return nil
}

// String renders every row on its own line.
func (r *Result) String() string {
	var b strings.Builder
	for i := range r.rows {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(Row{res: r, cells: r.rows[i]}.String())
	}
	return b.String()
}

// RowIterator walks the rows of a result.
type RowIterator struct {
	res    *Result
	idx    int
	cur    Row
	err    error
	handle *resource.Handle
}

func (it *RowIterator) Next() bool {
	if it.handle.Released() {
		return false
	}
	if err := it.res.live(); err != nil {
		it.err = err
		it.handle.Release()
		return false
	}
	it.idx++
	if it.idx >= len(it.res.rows) {
		it.cur = Row{}
		it.handle.Release()
		return false
	}
	it.cur = Row{res: it.res, cells: it.res.rows[it.idx]}
	return true
}

// Row returns the current row.
func (it *RowIterator) Row() Row {
	return it.cur
}

func (it *RowIterator) Err() error {
	return it.err
}

func (it *RowIterator) Close() error {
	it.handle.Release()
	return nil
}
