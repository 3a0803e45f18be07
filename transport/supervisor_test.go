package transport

import (
	"errors"
	"net"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/indigo-web/flint/config"
	"github.com/stretchr/testify/require"
)

// transportMock returns from Listen immediately, unless it's blocking. In this case, it
// returns only after being stopped.
type transportMock struct {
	bindErr   error
	listenErr error
	blocking  bool
	stopch    chan struct{}
	stopOnce  sync.Once
	closed    atomic.Bool
}

func newMock(blocking bool, listenErr error) *transportMock {
	return &transportMock{
		blocking:  blocking,
		listenErr: listenErr,
		stopch:    make(chan struct{}),
	}
}

func (t *transportMock) Bind(string) error {
	return t.bindErr
}

func (t *transportMock) Listen(config.NET, func(conn net.Conn)) error {
	if t.blocking {
		<-t.stopch
	}

	return t.listenErr
}

func (t *transportMock) Stop() {
	t.stopOnce.Do(func() {
		close(t.stopch)
	})
}

func (t *transportMock) Close() {
	t.closed.Store(true)
}

func (t *transportMock) Wait() {}

func runParallel(fn func() error) chan error {
	c := make(chan error, 1)

	go func() {
		c <- fn()
	}()

	return c
}

func awaitResult(t *testing.T, c chan error) error {
	select {
	case err := <-c:
		return err
	case <-time.After(time.Second):
		require.FailNow(t, "timed out")
		return nil
	}
}

func TestSupervisor(t *testing.T) {
	newSupervisor := func(t *testing.T, ts ...*transportMock) *Supervisor {
		sup := NewSupervisor()
		for _, transport := range ts {
			require.NoError(t, sup.Add("", transport, nil))
		}

		return &sup
	}

	t.Run("first returned stops others", func(t *testing.T) {
		blocking, returning := newMock(true, nil), newMock(false, nil)
		sup := newSupervisor(t, blocking, returning)

		require.NoError(t, awaitResult(t, runParallel(func() error {
			return sup.Run(config.Default().NET)
		})))
		require.True(t, blocking.closed.Load())
		require.True(t, returning.closed.Load())
	})

	t.Run("errors are joined", func(t *testing.T) {
		first, second := errors.New("first"), errors.New("second")
		sup := newSupervisor(t, newMock(true, second), newMock(false, first))

		err := awaitResult(t, runParallel(func() error {
			return sup.Run(config.Default().NET)
		}))
		require.ErrorIs(t, err, first)
		require.ErrorIs(t, err, second)
	})

	t.Run("stop", func(t *testing.T) {
		a, b := newMock(true, nil), newMock(true, nil)
		sup := newSupervisor(t, a, b)
		c := runParallel(func() error {
			return sup.Run(config.Default().NET)
		})

		require.Eventually(t, sup.running.Load, time.Second, time.Millisecond)
		require.NoError(t, awaitResult(t, runParallel(func() error {
			sup.Stop()
			return nil
		})))
		require.NoError(t, awaitResult(t, c))
		require.True(t, a.closed.Load())
		require.True(t, b.closed.Load())

		// must not block
		sup.Stop()
	})

	t.Run("stop before run", func(t *testing.T) {
		sup := newSupervisor(t, newMock(true, nil))
		sup.Stop()

		require.NoError(t, awaitResult(t, runParallel(func() error {
			return sup.Run(config.Default().NET)
		})))
	})

	t.Run("bind failure", func(t *testing.T) {
		bound, failing := newMock(true, nil), newMock(true, nil)
		failing.bindErr = errors.New("address already in use")
		sup := newSupervisor(t, bound)

		require.EqualError(t, sup.Add("", failing, nil), "address already in use")
		require.True(t, bound.closed.Load())
	})

	t.Run("empty", func(t *testing.T) {
		sup := NewSupervisor()
		require.NoError(t, sup.Run(config.Default().NET))
		sup.Stop()
	})
}
