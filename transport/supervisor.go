package transport

import (
	"errors"
	"net"
	"sync"
	"sync/atomic"

	"github.com/indigo-web/flint/config"
)

// Transport is a listener, which calls back on every accepted connection.
type Transport interface {
	Bind(addr string) error
	Listen(cfg config.NET, cb func(conn net.Conn)) error
	Stop()
	Close()
	Wait()
}

// Supervisor runs a set of bound transports as a whole: the first one to return from
// Listen, whether it failed or not, brings all the others down.
type Supervisor struct {
	bound   []boundTransport
	halt    chan struct{}
	done    chan struct{}
	once    *sync.Once
	running *atomic.Bool
}

func NewSupervisor() Supervisor {
	return Supervisor{
		halt:    make(chan struct{}),
		done:    make(chan struct{}),
		once:    new(sync.Once),
		running: new(atomic.Bool),
	}
}

// Add binds the transport to the addr. On failure, all the already bound transports are
// closed.
func (s *Supervisor) Add(addr string, transport Transport, cb func(net.Conn)) error {
	if err := transport.Bind(addr); err != nil {
		for _, b := range s.bound {
			b.t.Close()
		}

		return err
	}

	s.bound = append(s.bound, boundTransport{t: transport, cb: cb})
	return nil
}

// Run blocks until either a transport returns or Stop is called. Afterward, every transport
// is stopped, its in-flight connections are awaited and the listener is closed. Errors of
// all the transports are joined. Must be called at most once.
func (s *Supervisor) Run(cfg config.NET) error {
	if len(s.bound) == 0 {
		return nil
	}

	s.running.Store(true)
	defer close(s.done)

	results := make(chan error, len(s.bound))
	for _, b := range s.bound {
		go func() {
			results <- b.t.Listen(cfg, b.cb)
		}()
	}

	var errs []error
	pending := len(s.bound)

	select {
	case err := <-results:
		errs = append(errs, err)
		pending--
	case <-s.halt:
	}

	for _, b := range s.bound {
		b.t.Stop()
	}

	for range pending {
		errs = append(errs, <-results)
	}

	for _, b := range s.bound {
		b.t.Wait()
		b.t.Close()
	}

	return errors.Join(errs...)
}

// Stop makes Run return and, if it's running, waits until it does. Stopping a supervisor
// which hasn't been run yet makes a later Run return immediately.
func (s *Supervisor) Stop() {
	s.once.Do(func() {
		close(s.halt)
	})

	if s.running.Load() {
		<-s.done
	}
}

type boundTransport struct {
	t  Transport
	cb func(conn net.Conn)
}
