package statement

import (
	"math"

	"github.com/grafana/cqlbind/pkg/codec"
	"github.com/grafana/cqlbind/pkg/cqlerr"
	"github.com/grafana/cqlbind/pkg/resource"
	"github.com/grafana/cqlbind/pkg/types"
)

// Collection builds a list, set or map value. Map entries are appended as a
// key followed by its value. A collection built without element types adopts
// the type of the first item appended in each position; the server performs
// the final check.
type Collection struct {
	dt     types.DataType
	items  [][]byte
	handle *resource.Handle
}

// NewList, NewSet and NewMap return untyped collections.
func NewList(opts ...Option) *Collection {
	return newCollection(types.ListOf(types.UnknownType()), opts)
}

func NewSet(opts ...Option) *Collection {
	return newCollection(types.SetOf(types.UnknownType()), opts)
}

func NewMap(opts ...Option) *Collection {
	return newCollection(types.MapOf(types.UnknownType(), types.UnknownType()), opts)
}

// NewCollection returns a collection of type dt, which must be a list, set or
// map. Items are checked against the element types as they are appended.
func NewCollection(dt types.DataType, opts ...Option) (*Collection, error) {
	if !dt.IsCollection() {
		return nil, cqlerr.Newf(cqlerr.LibInvalidValueType, "%s is not a collection type", dt)
	}
	n := 1
	if dt.Type == types.Map {
		n = 2
	}
	sub := make([]types.DataType, 0, n)
	for i := 0; i < n; i++ {
		sub = append(sub, dt.Elem(i))
	}
	dt.Sub = sub
	return newCollection(dt, opts), nil
}

func newCollection(dt types.DataType, opts []Option) *Collection {
	return &Collection{dt: dt, handle: acquire(resource.KindCollection, opts)}
}

// DataType returns the collection type, with element types learned from
// appended items filled in.
func (c *Collection) DataType() types.DataType {
	return c.dt
}

// ItemCount returns the number of elements, or map entries.
func (c *Collection) ItemCount() int {
	if c.dt.Type == types.Map {
		return len(c.items) / 2
	}
	return len(c.items)
}

// Append adds an item. Collections cannot hold nulls.
func (c *Collection) Append(v Bindable) error {
	if c.handle.Released() {
		return errReleased(resource.KindCollection)
	}
	pos := 0
	if c.dt.Type == types.Map {
		pos = len(c.items) % 2
	}
	if _, ok := v.(null); ok {
		return cqlerr.Newf(cqlerr.LibNullValue, "collections cannot contain null")
	}
	if len(c.items) >= math.MaxInt32 {
		return cqlerr.Newf(cqlerr.LibInvalidItemCount, "collection is full")
	}

	slot := c.dt.Sub[pos]
	data, err := v.encode(slot)
	if err != nil {
		return err
	}
	if slot.Type == types.Unknown {
		c.dt.Sub[pos] = v.DataType()
	}
	c.items = append(c.items, data)
	return nil
}

func (c *Collection) encode(slot types.DataType) ([]byte, error) {
	if c.handle.Released() {
		return nil, errReleased(resource.KindCollection)
	}
	if !slot.Compatible(c.dt) {
		return nil, mismatch(slot, c.dt)
	}
	if c.dt.Type == types.Map && len(c.items)%2 != 0 {
		return nil, cqlerr.Newf(cqlerr.LibInvalidItemCount, "map has a key without a value")
	}
	return codec.EncodeCollection(c.ItemCount(), c.items)
}

// Close releases the collection. Values already bound from it are unaffected.
func (c *Collection) Close() error {
	c.handle.Release()
	return nil
}

// fields is the shared storage of user types and tuples.
type fields struct {
	items  [][]byte
	handle *resource.Handle
}

func (f *fields) set(kind resource.Kind, i int, slot types.DataType, v Bindable) error {
	if f.handle.Released() {
		return errReleased(kind)
	}
	if i < 0 || i >= len(f.items) {
		return cqlerr.Newf(cqlerr.LibIndexOutOfBounds, "%s field %d of %d", kind, i, len(f.items))
	}
	data, err := v.encode(slot)
	if err != nil {
		return err
	}
	f.items[i] = data
	return nil
}

func (f *fields) Close() error {
	f.handle.Release()
	return nil
}

// UserType builds a user defined type value. Fields that are never set are
// encoded as null.
type UserType struct {
	fields
	dt    types.DataType
	names []string
}

// NewUserType returns a user type value for the schema dt, usually obtained
// from the session's schema metadata.
func NewUserType(dt types.DataType, opts ...Option) (*UserType, error) {
	if dt.Type != types.UDT {
		return nil, cqlerr.Newf(cqlerr.LibInvalidValueType, "%s is not a user type", dt)
	}
	names := make([]string, 0, len(dt.Fields))
	for _, f := range dt.Fields {
		names = append(names, f.Name)
	}
	return &UserType{
		fields: fields{items: make([][]byte, len(dt.Fields)), handle: acquire(resource.KindUserType, opts)},
		dt:     dt,
		names:  names,
	}, nil
}

func (u *UserType) DataType() types.DataType {
	return u.dt
}

// Set stores v in field i.
func (u *UserType) Set(i int, v Bindable) error {
	slot := types.UnknownType()
	if i >= 0 && i < len(u.dt.Fields) {
		slot = u.dt.Fields[i].Type
	}
	return u.set(resource.KindUserType, i, slot, v)
}

// SetByName stores v in the field called name.
func (u *UserType) SetByName(name string, v Bindable) error {
	idx := types.MatchNames(u.names, name)
	if len(idx) == 0 {
		return cqlerr.Newf(cqlerr.LibNameDoesNotExist, "field %q of %s", name, u.dt)
	}
	for _, i := range idx {
		if err := u.Set(i, v); err != nil {
			return err
		}
	}
	return nil
}

func (u *UserType) encode(slot types.DataType) ([]byte, error) {
	if u.handle.Released() {
		return nil, errReleased(resource.KindUserType)
	}
	if !slot.Compatible(u.dt) {
		return nil, mismatch(slot, u.dt)
	}
	return codec.EncodeSequence(u.items), nil
}

// Tuple builds a tuple value. Unset elements are encoded as null.
type Tuple struct {
	fields
	dt types.DataType
}

// NewTuple returns a tuple of type dt.
func NewTuple(dt types.DataType, opts ...Option) (*Tuple, error) {
	if dt.Type != types.Tuple {
		return nil, cqlerr.Newf(cqlerr.LibInvalidValueType, "%s is not a tuple type", dt)
	}
	dt.Sub = append([]types.DataType(nil), dt.Sub...)
	return &Tuple{
		fields: fields{items: make([][]byte, len(dt.Sub)), handle: acquire(resource.KindTuple, opts)},
		dt:     dt,
	}, nil
}

// NewTupleN returns an untyped tuple of n elements. Element types are taken
// from the values set. A negative n is treated as 0.
func NewTupleN(n int, opts ...Option) *Tuple {
	if n < 0 {
		n = 0
	}
	sub := make([]types.DataType, n)
	for i := range sub {
		sub[i] = types.UnknownType()
	}
	t, _ := NewTuple(types.TupleOf(sub...), opts...)
	return t
}

func (t *Tuple) DataType() types.DataType {
	return t.dt
}

// Set stores v in element i.
func (t *Tuple) Set(i int, v Bindable) error {
	slot := types.UnknownType()
	if i >= 0 && i < len(t.dt.Sub) {
		slot = t.dt.Sub[i]
	}
	if err := t.set(resource.KindTuple, i, slot, v); err != nil {
		return err
	}
	if slot.Type == types.Unknown {
		t.dt.Sub[i] = v.DataType()
	}
	return nil
}

func (t *Tuple) encode(slot types.DataType) ([]byte, error) {
	if t.handle.Released() {
		return nil, errReleased(resource.KindTuple)
	}
	if !slot.Compatible(t.dt) {
		return nil, mismatch(slot, t.dt)
	}
	return codec.EncodeSequence(t.items), nil
}

func errReleased(k resource.Kind) error {
	return cqlerr.Newf(cqlerr.LibBadParams, "%s used after it was released", k)
}
