package result

import (
	"strings"

	"github.com/grafana/cqlbind/pkg/cqlerr"
	"github.com/grafana/cqlbind/pkg/resource"
	"github.com/grafana/cqlbind/pkg/types"
	"github.com/grafana/cqlbind/pkg/value"
)

// Row is one record of a result. It is a view and does not outlive the
// result; any number of column iterators may be derived from it.
type Row struct {
	res   *Result
	cells [][]byte
}

// ColumnCount returns the number of columns in the row.
func (r Row) ColumnCount() int {
	return len(r.cells)
}

// Column returns the value of column i.
func (r Row) Column(i int) (value.Value, error) {
	if r.res == nil || i < 0 || i >= len(r.cells) {
		return value.Value{}, cqlerr.Newf(cqlerr.LibIndexOutOfBounds, "column %d of %d", i, len(r.cells))
	}
	if err := r.res.live(); err != nil {
		return value.Value{}, err
	}
	return r.value(i), nil
}

// ColumnByName returns the value of the column called name. Names are
// matched case-insensitively unless double quoted. An unknown name fails with
// LibNameDoesNotExist.
func (r Row) ColumnByName(name string) (value.Value, error) {
	if r.res == nil {
		return value.Value{}, cqlerr.Newf(cqlerr.LibNameDoesNotExist, "column %q", name)
	}
	if err := r.res.live(); err != nil {
		return value.Value{}, err
	}
	idx := types.MatchNames(r.res.names, name)
	if len(idx) == 0 {
		return value.Value{}, cqlerr.Newf(cqlerr.LibNameDoesNotExist, "column %q", name)
	}
	return r.value(idx[0]), nil
}

func (r Row) value(i int) value.Value {
	return value.Borrowed(r.res.columns[i].Type, r.cells[i], r.res.handle)
}

// Columns returns an iterator over the row's values in declared order.
func (r Row) Columns() *ColumnIterator {
	var t resource.Tracker = resource.Nop
	if r.res != nil {
		t = r.res.handle.Tracker()
	}
	return &ColumnIterator{
		row:    r,
		idx:    -1,
		handle: resource.Acquire(t, resource.KindIterator),
	}
}

// String renders the column values separated by tabs.
func (r Row) String() string {
	parts := make([]string, 0, len(r.cells))
	for i := range r.cells {
		parts = append(parts, r.value(i).String())
	}
	return strings.Join(parts, "\t")
}

// GoString renders name:value pairs with debug formatting.
func (r Row) GoString() string {
	var b strings.Builder
	b.WriteByte('{')
	for i := range r.cells {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(r.res.columns[i].Name)
		b.WriteByte(':')
		b.WriteString(r.value(i).GoString())
	}
	b.WriteByte('}')
	return b.String()
}

// ColumnIterator walks the values of a row.
type ColumnIterator struct {
	row    Row
	idx    int
	cur    value.Value
	err    error
	handle *resource.Handle
}

func (it *ColumnIterator) Next() bool {
	if it.handle.Released() {
		return false
	}
	it.idx++
	if it.idx >= len(it.row.cells) {
		it.cur = value.Value{}
		it.handle.Release()
		return false
	}
	it.cur, it.err = it.row.Column(it.idx)
	if it.err != nil {
		it.handle.Release()
		return false
	}
	return true
}

// Value returns the current column value.
func (it *ColumnIterator) Value() value.Value {
	return it.cur
}

// Column returns the metadata of the current column.
func (it *ColumnIterator) Column() Column {
	if it.idx < 0 || it.idx >= len(it.row.cells) {
		return Column{}
	}
	return it.row.res.columns[it.idx]
}

func (it *ColumnIterator) Err() error {
	return it.err
}

func (it *ColumnIterator) Close() error {
	it.handle.Release()
	return nil
}
