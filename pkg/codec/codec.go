// Package codec implements the framing of composite CQL values and delegates
// scalar encoding to the driver's marshaller.
//
// Collections are encoded as a 32-bit item count followed by the items; user
// types and tuples are a plain sequence of items. Every item is a 32-bit
// signed length followed by that many bytes, a negative length meaning null.
package codec

import (
	"encoding/binary"
	"math"

	"github.com/gocql/gocql"

	"github.com/grafana/cqlbind/pkg/cqlerr"
	"github.com/grafana/cqlbind/pkg/types"
)

// ReadSize reads a collection item count.
func ReadSize(data []byte) (int, []byte, error) {
	if len(data) < 4 {
		return 0, nil, cqlerr.Newf(cqlerr.LibUnexpectedResponse, "collection size: unexpected eof")
	}
	n := int32(binary.BigEndian.Uint32(data))
	if n < 0 {
		return 0, nil, cqlerr.Newf(cqlerr.LibUnexpectedResponse, "collection size: negative count %d", n)
	}
	return int(n), data[4:], nil
}

// ReadBytes reads one length prefixed item. A null item is returned as nil,
// an empty item as a non-nil empty slice. The returned item aliases data.
func ReadBytes(data []byte) (item, rest []byte, err error) {
	if len(data) < 4 {
		return nil, nil, cqlerr.Newf(cqlerr.LibUnexpectedResponse, "item length: unexpected eof")
	}
	n := int32(binary.BigEndian.Uint32(data))
	data = data[4:]
	if n < 0 {
		return nil, data, nil
	}
	if int(n) > len(data) {
		return nil, nil, cqlerr.Newf(cqlerr.LibUnexpectedResponse, "item of %d bytes: unexpected eof", n)
	}
	return data[:n:n], data[n:], nil
}

// AppendSize appends a collection item count.
func AppendSize(buf []byte, n int) ([]byte, error) {
	if n < 0 || n > math.MaxInt32 {
		return buf, cqlerr.Newf(cqlerr.LibInvalidItemCount, "collection of %d items", n)
	}
	return binary.BigEndian.AppendUint32(buf, uint32(n)), nil
}

// AppendBytes appends one length prefixed item; nil encodes null.
func AppendBytes(buf, item []byte) []byte {
	if item == nil {
		return binary.BigEndian.AppendUint32(buf, math.MaxUint32)
	}
	buf = binary.BigEndian.AppendUint32(buf, uint32(len(item)))
	return append(buf, item...)
}

// Marshal encodes a host value as dt using the driver marshaller.
func Marshal(dt types.DataType, v interface{}) ([]byte, error) {
	data, err := gocql.Marshal(dt.TypeInfo(), v)
	if err != nil {
		return nil, cqlerr.WithCause(cqlerr.LibMessageEncode, err, "encoding %T as %s", v, dt)
	}
	return data, nil
}

// Unmarshal decodes data of type dt into dst using the driver unmarshaller.
func Unmarshal(dt types.DataType, data []byte, dst interface{}) error {
	if err := gocql.Unmarshal(dt.TypeInfo(), data, dst); err != nil {
		return cqlerr.WithCause(cqlerr.LibUnexpectedResponse, err, "decoding %s into %T", dt, dst)
	}
	return nil
}

// RoutingKey builds a partition key from its encoded components. A single
// component is used verbatim, several are joined in the composite format
// (16-bit length, bytes, 0x00 end of component).
func RoutingKey(components [][]byte) []byte {
	switch len(components) {
	case 0:
		return nil
	case 1:
		return components[0]
	}
	size := 0
	for _, c := range components {
		size += 2 + len(c) + 1
	}
	buf := make([]byte, 0, size)
	for _, c := range components {
		buf = binary.BigEndian.AppendUint16(buf, uint16(len(c)))
		buf = append(buf, c...)
		buf = append(buf, 0)
	}
	return buf
}

// EncodeCollection frames items as a collection. Map callers pass keys and
// values interleaved and count the entries.
func EncodeCollection(count int, items [][]byte) ([]byte, error) {
	size := 4
	for _, it := range items {
		size += 4 + len(it)
	}
	buf, err := AppendSize(make([]byte, 0, size), count)
	if err != nil {
		return nil, err
	}
	for _, it := range items {
		buf = AppendBytes(buf, it)
	}
	return buf, nil
}

// EncodeSequence frames the fields of a user type or the elements of a tuple.
func EncodeSequence(items [][]byte) []byte {
	size := 0
	for _, it := range items {
		size += 4 + len(it)
	}
	buf := make([]byte, 0, size)
	for _, it := range items {
		buf = AppendBytes(buf, it)
	}
	return buf
}
