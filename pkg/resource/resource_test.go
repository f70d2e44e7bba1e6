package resource

import (
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestHandleReleasesOnce(t *testing.T) {
	c := NewCounter()
	h := Acquire(c, KindIterator)
	require.Equal(t, 1, c.Open(KindIterator))
	require.False(t, h.Released())

	require.True(t, h.Release())
	require.False(t, h.Release())
	require.True(t, h.Released())
	require.Equal(t, 0, c.Open(KindIterator))
	require.Equal(t, 1, c.Released(KindIterator))
}

func TestConcurrentRelease(t *testing.T) {
	c := NewCounter()
	h := Acquire(c, KindResult)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			h.Release()
		}()
	}
	wg.Wait()

	require.Equal(t, 1, c.Released(KindResult))
	require.Equal(t, 0, c.OpenTotal())
}

func TestNilTrackerAndHandle(t *testing.T) {
	h := Acquire(nil, KindStatement)
	require.True(t, h.Release())

	var nilHandle *Handle
	require.False(t, nilHandle.Release())
	require.False(t, nilHandle.Released())
	require.Equal(t, Nop, nilHandle.Tracker())
}

func TestMetricsAndMulti(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	c := NewCounter()

	h := Acquire(Multi{m, c}, KindUUIDGen)
	require.Equal(t, float64(1), testutil.ToFloat64(m.open.WithLabelValues(string(KindUUIDGen))))
	h.Release()
	require.Equal(t, float64(0), testutil.ToFloat64(m.open.WithLabelValues(string(KindUUIDGen))))
	require.Equal(t, 1, c.Acquired(KindUUIDGen))
}
