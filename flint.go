package flint

import (
	"fmt"
	"log/slog"
	"net"
	"strconv"

	"github.com/indigo-web/flint/config"
	"github.com/indigo-web/flint/http"
	"github.com/indigo-web/flint/http/serve"
	"github.com/indigo-web/flint/internal/metrics"
	"github.com/indigo-web/flint/transport"
	"github.com/prometheus/client_golang/prometheus"
)

// App is the entry point of the server. Every accepted connection carries exactly one
// request, which is passed to the handler.
type App struct {
	cfg        *config.Config
	handler    http.Handler
	logger     *slog.Logger
	metrics    *metrics.Metrics
	metricsErr error
	hooks      hooks
	supervisor transport.Supervisor
	addr       net.Addr
}

// New returns a new App instance.
func New(handler http.Handler) *App {
	return &App{
		cfg:        config.Default(),
		handler:    handler,
		logger:     slog.Default(),
		supervisor: transport.NewSupervisor(),
	}
}

// Tune replaces default config.
func (a *App) Tune(cfg *config.Config) *App {
	a.cfg = cfg
	return a
}

// Logger replaces the default slog logger.
func (a *App) Logger(logger *slog.Logger) *App {
	a.logger = logger
	return a
}

// Metrics registers the server collectors in the registry. Without it, no metrics are
// recorded. Collectors already present in the registry are reused, so calling it again
// with the same registry is fine. A registration failure is returned by Listen.
func (a *App) Metrics(reg prometheus.Registerer) *App {
	a.metrics, a.metricsErr = metrics.New(reg)
	return a
}

// NotifyOnStart calls the callback at the moment, when the listener is bound. From this moment
// on, Addr returns the actual address.
func (a *App) NotifyOnStart(cb func()) *App {
	a.hooks.OnStart = cb
	return a
}

// NotifyOnStop calls the callback at the moment, when the server is down. It's guaranteed,
// that at the moment as the callback is called, the server isn't able to accept any new connections
// and all the clients are already disconnected
func (a *App) NotifyOnStop(cb func()) *App {
	a.hooks.OnStop = cb
	return a
}

// Listen binds config.NET.Host with the port and serves incoming connections until Stop
// is called or the listener fails. Port 0 picks a random free port.
func (a *App) Listen(port uint16) error {
	if a.metricsErr != nil {
		return fmt.Errorf("register metrics: %w", a.metricsErr)
	}

	addr := net.JoinHostPort(a.cfg.NET.Host, strconv.Itoa(int(port)))
	tcp := transport.NewTCP()
	if err := a.supervisor.Add(addr, tcp, a.onConn); err != nil {
		return fmt.Errorf("bind %s: %w", addr, err)
	}

	a.addr = tcp.Addr()
	a.logger.Info("listening", "addr", a.addr.String())
	callIfNotNil(a.hooks.OnStart)

	err := a.supervisor.Run(a.cfg.NET)
	if err != nil {
		a.logger.Error("listener failed", "error", err)
	}

	callIfNotNil(a.hooks.OnStop)
	return err
}

// Addr returns the address the server is bound to. Nil until the server is started.
func (a *App) Addr() net.Addr {
	return a.addr
}

// Stop stops accepting new connections, waits for the served ones to complete and
// makes Listen return. If the server isn't started yet, it won't start serving at all.
func (a *App) Stop() {
	a.supervisor.Stop()
}

func (a *App) onConn(conn net.Conn) {
	serve.HTTP1(a.cfg, conn, a.handler, a.logger, a.metrics)
}

type hooks struct {
	OnStart, OnStop func()
}

func callIfNotNil(f func()) {
	if f != nil {
		f()
	}
}
