package uuid

import (
	"crypto/md5"
	"crypto/rand"
	"encoding/binary"
	"io"
	"net"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/grafana/cqlbind/pkg/cqlerr"
	"github.com/grafana/cqlbind/pkg/resource"
)

// multicastBit marks a node id that was not taken from a hardware address.
const multicastBit uint64 = 0x010000000000

// Generator produces v1 and v4 uuids. It owns its node id and clock state and
// must be closed; a closed generator fails every call. It is safe for
// concurrent use.
type Generator struct {
	mtx      sync.Mutex
	node     uint64
	clockSeq uint16
	last     uint64

	now    func() time.Time
	rand   io.Reader
	handle *resource.Handle
}

// Option configures a Generator.
type Option func(*Generator)

// WithTracker accounts the generator with t.
func WithTracker(t resource.Tracker) Option {
	return func(g *Generator) { g.handle = resource.Acquire(t, resource.KindUUIDGen) }
}

// WithClock replaces the wall clock.
func WithClock(now func() time.Time) Option {
	return func(g *Generator) { g.now = now }
}

// WithRandom replaces the randomness source used for v4 uuids and the clock
// sequence.
func WithRandom(r io.Reader) Option {
	return func(g *Generator) { g.rand = r }
}

// NewGenerator returns a generator whose node id is derived from the host:
// the first hardware address found, or a hash of the host name.
func NewGenerator(opts ...Option) *Generator {
	return NewGeneratorWithNode(hostNode(), opts...)
}

// NewGeneratorWithNode returns a generator with an explicit 48-bit node id.
func NewGeneratorWithNode(node uint64, opts ...Option) *Generator {
	g := &Generator{
		node: node & 0xffffffffffff,
		now:  time.Now,
		rand: rand.Reader,
	}
	for _, o := range opts {
		o(g)
	}
	if g.handle == nil {
		g.handle = resource.Acquire(resource.Nop, resource.KindUUIDGen)
	}

	var seq [2]byte
	if _, err := io.ReadFull(g.rand, seq[:]); err == nil {
		g.clockSeq = binary.BigEndian.Uint16(seq[:]) & 0x3fff
	}
	return g
}

// Node returns the 48-bit node id.
func (g *Generator) Node() uint64 {
	return g.node
}

// Time returns a new v1 uuid for the current time. Uuids from one generator
// are strictly increasing in their timestamp, even if the clock steps back.
func (g *Generator) Time() (UUID, error) {
	g.mtx.Lock()
	defer g.mtx.Unlock()
	if g.handle.Released() {
		return Nil, errClosed()
	}

	ticks := uint64(g.now().UnixNano()/100) + gregorianOffset
	if ticks <= g.last {
		ticks = g.last + 1
	}
	g.last = ticks
	return fromTicks(ticks, g.clockSeq, g.node), nil
}

// FromTime returns a v1 uuid for the given millisecond timestamp with this
// generator's node id and clock sequence.
func (g *Generator) FromTime(ms uint64) (UUID, error) {
	g.mtx.Lock()
	defer g.mtx.Unlock()
	if g.handle.Released() {
		return Nil, errClosed()
	}
	return fromTicks(msToTicks(ms), g.clockSeq, g.node), nil
}

// Random returns a new v4 uuid.
func (g *Generator) Random() (UUID, error) {
	g.mtx.Lock()
	defer g.mtx.Unlock()
	if g.handle.Released() {
		return Nil, errClosed()
	}
	u, err := uuid.NewRandomFromReader(g.rand)
	if err != nil {
		return Nil, cqlerr.WithCause(cqlerr.LibUnableToInit, err, "reading random bytes")
	}
	return UUID(u), nil
}

// Close releases the generator. It is safe to call more than once.
func (g *Generator) Close() error {
	g.handle.Release()
	return nil
}

func errClosed() error {
	return cqlerr.Newf(cqlerr.LibBadParams, "uuid generator is closed")
}

func hostNode() uint64 {
	ifaces, err := net.Interfaces()
	if err == nil {
		for _, iface := range ifaces {
			if iface.Flags&net.FlagLoopback != 0 || len(iface.HardwareAddr) != 6 {
				continue
			}
			var node uint64
			for _, b := range iface.HardwareAddr {
				node = node<<8 | uint64(b)
			}
			if node != 0 {
				return node
			}
		}
	}

	host, _ := os.Hostname()
	sum := md5.Sum([]byte(host))
	var node uint64
	for _, b := range sum[:6] {
		node = node<<8 | uint64(b)
	}
	return node | multicastBit
}
