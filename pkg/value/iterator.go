package value

import (
	"github.com/pkg/errors"

	"github.com/grafana/cqlbind/pkg/codec"
	"github.com/grafana/cqlbind/pkg/cqlerr"
	"github.com/grafana/cqlbind/pkg/resource"
	"github.com/grafana/cqlbind/pkg/types"
)

// cursor walks the items of one composite value. It holds an iterator handle
// that is released once, when the items run out, decoding fails or Close is
// called, whichever comes first.
type cursor struct {
	rest   []byte
	remain int
	owner  *resource.Handle
	handle *resource.Handle
	padded bool
	err    error
}

func newCursor(owner *resource.Handle, rest []byte, n int) cursor {
	return cursor{
		rest:   rest,
		remain: n,
		owner:  owner,
		handle: resource.Acquire(owner.Tracker(), resource.KindIterator),
	}
}

// take reads the next len(items) items. It returns false and releases the
// cursor when nothing is left. A padded cursor returns items missing from the
// end of the buffer as null, which is how user types and tuples encode
// trailing unset fields.
func (c *cursor) take(items [][]byte) bool {
	if c.err != nil || c.remain <= 0 || c.handle.Released() {
		c.handle.Release()
		return false
	}
	if c.owner.Released() {
		c.err = cqlerr.Newf(cqlerr.LibBadParams, "iterator used after its result was released")
		c.handle.Release()
		return false
	}
	for i := range items {
		if c.padded && len(c.rest) == 0 {
			items[i] = nil
			continue
		}
		var err error
		items[i], c.rest, err = codec.ReadBytes(c.rest)
		if err != nil {
			c.err = err
			c.handle.Release()
			return false
		}
	}
	c.remain--
	return true
}

func (c *cursor) Err() error {
	return c.err
}

// Close releases the cursor. Abandoning an iterator without Close leaks its
// handle.
func (c *cursor) Close() error {
	c.handle.Release()
	return nil
}

func (c *cursor) value(dt types.DataType, data []byte) Value {
	return Value{dt: dt, data: data, owner: c.owner}
}

// CollectionIterator yields the elements of a list or set.
type CollectionIterator struct {
	cursor
	elem types.DataType
	cur  Value
	buf  [1][]byte
}

// AsSetIterator iterates the elements of a set.
func (v Value) AsSetIterator() (*CollectionIterator, error) {
	return v.collectionIterator(types.Set)
}

// AsListIterator iterates the elements of a list.
func (v Value) AsListIterator() (*CollectionIterator, error) {
	return v.collectionIterator(types.List)
}

// AsCollectionIterator iterates the elements of a list or a set.
func (v Value) AsCollectionIterator() (*CollectionIterator, error) {
	return v.collectionIterator(types.List, types.Set)
}

func (v Value) collectionIterator(want ...types.ValueType) (*CollectionIterator, error) {
	c, err := v.openCollection(want...)
	if err != nil {
		return nil, err
	}
	return &CollectionIterator{cursor: c, elem: v.dt.Elem(0)}, nil
}

// openCollection validates the type and reads the item count. A null
// collection yields an empty cursor.
func (v Value) openCollection(want ...types.ValueType) (cursor, error) {
	err := v.expect(want...)
	if err != nil && !errors.Is(err, cqlerr.ErrNullValue) {
		return cursor{}, err
	}
	if v.data == nil {
		return newCursor(v.owner, nil, 0), nil
	}
	n, rest, err := codec.ReadSize(v.data)
	if err != nil {
		return cursor{}, err
	}
	return newCursor(v.owner, rest, n), nil
}

func (it *CollectionIterator) Next() bool {
	if !it.take(it.buf[:]) {
		it.cur = Value{}
		return false
	}
	it.cur = it.value(it.elem, it.buf[0])
	return true
}

// Value returns the current element.
func (it *CollectionIterator) Value() Value {
	return it.cur
}

// MapIterator yields the entries of a map.
type MapIterator struct {
	cursor
	keyType, valueType types.DataType
	key, val           Value
	buf                [2][]byte
}

func (v Value) AsMapIterator() (*MapIterator, error) {
	c, err := v.openCollection(types.Map)
	if err != nil {
		return nil, err
	}
	return &MapIterator{cursor: c, keyType: v.dt.Elem(0), valueType: v.dt.Elem(1)}, nil
}

func (it *MapIterator) Next() bool {
	if !it.take(it.buf[:]) {
		it.key, it.val = Value{}, Value{}
		return false
	}
	it.key = it.value(it.keyType, it.buf[0])
	it.val = it.value(it.valueType, it.buf[1])
	return true
}

func (it *MapIterator) Key() Value { return it.key }
func (it *MapIterator) Value() Value { return it.val }

// UserTypeIterator yields the fields of a user type in declaration order.
type UserTypeIterator struct {
	cursor
	fields []types.Field
	idx    int
	cur    Value
	buf    [1][]byte
}

func (v Value) AsUserTypeIterator() (*UserTypeIterator, error) {
	c, err := v.openSequence(types.UDT, len(v.dt.Fields))
	if err != nil {
		return nil, err
	}
	return &UserTypeIterator{cursor: c, fields: v.dt.Fields, idx: -1}, nil
}

// openSequence validates the type of a user type or tuple. A null value
// yields an empty cursor.
func (v Value) openSequence(want types.ValueType, n int) (cursor, error) {
	err := v.expect(want)
	if err != nil && !errors.Is(err, cqlerr.ErrNullValue) {
		return cursor{}, err
	}
	if v.data == nil {
		n = 0
	}
	c := newCursor(v.owner, v.data, n)
	c.padded = true
	return c, nil
}

func (it *UserTypeIterator) Next() bool {
	if !it.take(it.buf[:]) {
		it.cur = Value{}
		return false
	}
	it.idx++
	it.cur = it.value(it.fields[it.idx].Type, it.buf[0])
	return true
}

// FieldName returns the name of the current field.
func (it *UserTypeIterator) FieldName() string {
	if it.idx < 0 || it.idx >= len(it.fields) {
		return ""
	}
	return it.fields[it.idx].Name
}

func (it *UserTypeIterator) Value() Value { return it.cur }

// TupleIterator yields the elements of a tuple with their positions.
type TupleIterator struct {
	cursor
	elems []types.DataType
	idx   int
	cur   Value
	buf   [1][]byte
}

func (v Value) AsTupleIterator() (*TupleIterator, error) {
	c, err := v.openSequence(types.Tuple, len(v.dt.Sub))
	if err != nil {
		return nil, err
	}
	return &TupleIterator{cursor: c, elems: v.dt.Sub, idx: -1}, nil
}

func (it *TupleIterator) Next() bool {
	if !it.take(it.buf[:]) {
		it.cur = Value{}
		return false
	}
	it.idx++
	it.cur = it.value(it.elems[it.idx], it.buf[0])
	return true
}

// Index returns the position of the current element.
func (it *TupleIterator) Index() int { return it.idx }
func (it *TupleIterator) Value() Value { return it.cur }
