package future

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/atomic"
	"go.uber.org/goleak"

	"github.com/grafana/cqlbind/pkg/cqlerr"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestWaitIsIdempotent(t *testing.T) {
	f, resolve := New[int]()
	require.False(t, f.Ready())

	go resolve(42, nil)

	v, err := f.Wait()
	require.NoError(t, err)
	require.Equal(t, 42, v)

	resolve(7, errors.New("late"))
	v, err = f.Wait()
	require.NoError(t, err)
	require.Equal(t, 42, v)
	require.True(t, f.Ready())
}

func TestWaitTimeout(t *testing.T) {
	f, resolve := New[string]()

	_, err := f.WaitTimeout(10 * time.Millisecond)
	require.Equal(t, ErrWaitTimeout, err)
	_, ok := cqlerr.CodeOf(err)
	require.False(t, ok)
	require.False(t, f.Ready())

	resolve("ok", nil)
	v, err := f.WaitTimeout(time.Second)
	require.NoError(t, err)
	require.Equal(t, "ok", v)
}

func TestWaitContext(t *testing.T) {
	f, resolve := New[string]()
	defer resolve("", nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := f.WaitContext(ctx)
	require.Equal(t, context.Canceled, err)
}

func TestErrorOutcome(t *testing.T) {
	want := cqlerr.Newf(cqlerr.ServerSyntaxError, "line 1:0 no viable alternative")
	f := Resolved[int](0, want)

	_, err := f.Wait()
	require.True(t, errors.Is(err, &cqlerr.Error{Code: cqlerr.ServerSyntaxError}))
	_, err = f.WaitTimeout(time.Millisecond)
	require.Equal(t, want, err)
}

func TestOnComplete(t *testing.T) {
	t.Run("before resolution", func(t *testing.T) {
		f, resolve := New[int]()
		var wg sync.WaitGroup
		wg.Add(1)
		calls := atomic.NewInt32(0)
		require.NoError(t, f.OnComplete(func(v int, err error) {
			defer wg.Done()
			calls.Inc()
			assert.Equal(t, 1, v)
		}))
		require.True(t, errors.Is(f.OnComplete(func(int, error) {}), cqlerr.ErrCallbackAlreadySet))

		go resolve(1, nil)
		wg.Wait()
		resolve(2, nil)
		require.Equal(t, int32(1), calls.Load())
	})

	t.Run("after resolution", func(t *testing.T) {
		f := Resolved(5, nil)
		var got int
		require.NoError(t, f.OnComplete(func(v int, _ error) { got = v }))
		require.Equal(t, 5, got)
	})
}

func TestWaitAll(t *testing.T) {
	a, resolveA := New[int]()
	b, resolveB := New[int]()
	c, resolveC := New[int]()

	go func() {
		resolveC(3, nil)
		resolveA(1, nil)
		resolveB(0, cqlerr.Newf(cqlerr.ServerOverloaded, "busy"))
	}()

	vals, err := WaitAll(a, b, c)
	require.Error(t, err)
	require.Contains(t, err.Error(), "busy")
	require.Equal(t, []int{1, 0, 3}, vals)

	vals, err = WaitAll(a, c)
	require.NoError(t, err)
	require.Equal(t, []int{1, 3}, vals)
}
