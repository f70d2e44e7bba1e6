// Package resource accounts for owned handles: results, statements, batches,
// builders, iterator cursors and uuid generators. Every handle is released
// exactly once by the scope that owns it.
package resource

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/atomic"
)

// Kind names a class of owned resource.
type Kind string

const (
	KindResult     Kind = "result"
	KindStatement  Kind = "statement"
	KindBatch      Kind = "batch"
	KindCollection Kind = "collection"
	KindUserType   Kind = "user_type"
	KindTuple      Kind = "tuple"
	KindIterator   Kind = "iterator"
	KindUUIDGen    Kind = "uuid_generator"
)

// Tracker observes acquisitions and releases.
type Tracker interface {
	Acquire(Kind)
	Release(Kind)
}

type nopTracker struct{}

func (nopTracker) Acquire(Kind) {}
func (nopTracker) Release(Kind) {}

// Nop discards every event.
var Nop Tracker = nopTracker{}

// Handle is the owning side of a resource.
type Handle struct {
	tracker  Tracker
	kind     Kind
	released atomic.Bool
}

// Acquire registers a new resource of kind k with t. A nil tracker is Nop.
func Acquire(t Tracker, k Kind) *Handle {
	if t == nil {
		t = Nop
	}
	t.Acquire(k)
	return &Handle{tracker: t, kind: k}
}

// Release releases the resource. It reports whether this call did the
// release; later calls are no-ops.
func (h *Handle) Release() bool {
	if h == nil || !h.released.CompareAndSwap(false, true) {
		return false
	}
	h.tracker.Release(h.kind)
	return true
}

// Released reports whether Release has been called.
func (h *Handle) Released() bool {
	return h != nil && h.released.Load()
}

// Tracker returns the tracker the handle reports to, so derived resources
// are accounted in the same place.
func (h *Handle) Tracker() Tracker {
	if h == nil {
		return Nop
	}
	return h.tracker
}

// Counter is an in-memory Tracker that keeps per kind counts.
type Counter struct {
	mtx      sync.Mutex
	acquired map[Kind]int
	released map[Kind]int
}

func NewCounter() *Counter {
	return &Counter{
		acquired: map[Kind]int{},
		released: map[Kind]int{},
	}
}

func (c *Counter) Acquire(k Kind) {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	c.acquired[k]++
}

func (c *Counter) Release(k Kind) {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	c.released[k]++
}

// Open returns the number of resources of kind k not yet released.
func (c *Counter) Open(k Kind) int {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	return c.acquired[k] - c.released[k]
}

// Acquired returns the number of resources of kind k ever acquired.
func (c *Counter) Acquired(k Kind) int {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	return c.acquired[k]
}

// Released returns the number of releases of kind k.
func (c *Counter) Released(k Kind) int {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	return c.released[k]
}

// OpenTotal returns the number of open resources across all kinds.
func (c *Counter) OpenTotal() int {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	total := 0
	for k, n := range c.acquired {
		total += n - c.released[k]
	}
	return total
}

// Metrics exports open resources as a gauge.
type Metrics struct {
	open *prometheus.GaugeVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		open: promauto.With(reg).NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "cql",
			Name:      "open_resources",
			Help:      "Number of owned binding resources not yet released.",
		}, []string{"kind"}),
	}
}

func (m *Metrics) Acquire(k Kind) { m.open.WithLabelValues(string(k)).Inc() }
func (m *Metrics) Release(k Kind) { m.open.WithLabelValues(string(k)).Dec() }

// Multi fans events out to several trackers.
type Multi []Tracker

func (m Multi) Acquire(k Kind) {
	for _, t := range m {
		t.Acquire(k)
	}
}

func (m Multi) Release(k Kind) {
	for _, t := range m {
		t.Release(k)
	}
}
