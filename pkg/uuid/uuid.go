// Package uuid provides the CQL uuid value type and an explicitly owned
// generator for time based (v1) and random (v4) uuids.
package uuid

import (
	"encoding/binary"

	"github.com/google/uuid"

	"github.com/grafana/cqlbind/pkg/cqlerr"
)

// StringLength is the size of the buffer needed to render a uuid as text: 36
// hyphenated hex digits plus a terminating zero byte.
const StringLength = 37

const (
	// gregorianOffset is the number of 100ns ticks between 1582-10-15 and
	// the Unix epoch.
	gregorianOffset uint64 = 0x01B21DD213814000
	ticksPerMilli   uint64 = 10000

	minClockSeqAndNode uint64 = 0x8080808080808080
	maxClockSeqAndNode uint64 = 0x7f7f7f7f7f7f7f7f
)

// UUID is a 128-bit value. It owns no resources.
type UUID uuid.UUID

// Nil is the zero uuid.
var Nil UUID

// Parse parses the 36 character hyphenated form (braces and urn prefixes are
// accepted as well).
func Parse(s string) (UUID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return Nil, cqlerr.WithCause(cqlerr.LibBadParams, err, "invalid uuid %q", s)
	}
	return UUID(u), nil
}

// MustParse is Parse for literals; it panics on malformed input.
func MustParse(s string) UUID {
	u, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return u
}

func (u UUID) String() string {
	return uuid.UUID(u).String()
}

// FillString renders u into buf as a zero terminated string. buf must hold
// at least StringLength bytes.
func (u UUID) FillString(buf []byte) error {
	if len(buf) < StringLength {
		return cqlerr.Newf(cqlerr.LibBadParams, "uuid buffer of %d bytes, need %d", len(buf), StringLength)
	}
	copy(buf, u.String())
	buf[StringLength-1] = 0
	return nil
}

// Version returns the uuid version nibble.
func (u UUID) Version() int {
	return int(uuid.UUID(u).Version())
}

// Timestamp returns the embedded time of a v1 uuid in milliseconds since the
// Unix epoch. Other versions carry no timestamp and return 0.
func (u UUID) Timestamp() uint64 {
	if u.Version() != 1 {
		return 0
	}
	ticks := u.ticks()
	if ticks < gregorianOffset {
		return 0
	}
	return (ticks - gregorianOffset) / ticksPerMilli
}

func (u UUID) ticks() uint64 {
	low := uint64(binary.BigEndian.Uint32(u[0:4]))
	mid := uint64(binary.BigEndian.Uint16(u[4:6]))
	hi := uint64(binary.BigEndian.Uint16(u[6:8]) & 0x0fff)
	return low | mid<<32 | hi<<48
}

// IsZero reports whether u is the nil uuid.
func (u UUID) IsZero() bool {
	return u == Nil
}

// MinFromTime returns the smallest v1 uuid for the given millisecond
// timestamp, suitable as an inclusive lower bound in timeuuid range queries.
func MinFromTime(ms uint64) UUID {
	return fromTicksWithTail(msToTicks(ms), minClockSeqAndNode)
}

// MaxFromTime returns the largest v1 uuid for the given millisecond timestamp.
func MaxFromTime(ms uint64) UUID {
	return fromTicksWithTail(msToTicks(ms)+ticksPerMilli-1, maxClockSeqAndNode)
}

func msToTicks(ms uint64) uint64 {
	return ms*ticksPerMilli + gregorianOffset
}

func setTime(u *UUID, ticks uint64) {
	binary.BigEndian.PutUint32(u[0:4], uint32(ticks))
	binary.BigEndian.PutUint16(u[4:6], uint16(ticks>>32))
	binary.BigEndian.PutUint16(u[6:8], uint16(ticks>>48)&0x0fff|0x1000)
}

func fromTicksWithTail(ticks, tail uint64) UUID {
	var u UUID
	setTime(&u, ticks)
	binary.BigEndian.PutUint64(u[8:16], tail)
	return u
}

func fromTicks(ticks uint64, clockSeq uint16, node uint64) UUID {
	var u UUID
	setTime(&u, ticks)
	u[8] = byte(clockSeq>>8)&0x3f | 0x80
	u[9] = byte(clockSeq)
	for i := 0; i < 6; i++ {
		u[15-i] = byte(node >> (8 * i))
	}
	return u
}
