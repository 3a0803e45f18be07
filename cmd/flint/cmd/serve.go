package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	stdhttp "net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/indigo-web/flint"
	"github.com/indigo-web/flint/config"
	"github.com/indigo-web/flint/http"
	"github.com/indigo-web/flint/http/mime"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
)

var port uint16

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the demo server",
	Long: `Start the demo server. Every request is logged and answered with
a plain-text "Hello World!".

Examples:
  flint serve
  flint serve --port 8080
  flint --config flint.yaml serve`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().Uint16Var(&port, "port", 3000, "port to listen on")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.Log.Level),
	}))

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	app := flint.New(hello(logger)).
		Tune(cfg).
		Logger(logger).
		Metrics(reg)

	var metricsServer *stdhttp.Server
	if len(cfg.Metrics.Addr) > 0 {
		metricsServer = serveMetrics(cfg.Metrics.Addr, reg, logger)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	done := make(chan struct{})
	defer close(done)

	app.NotifyOnStart(func() {
		go func() {
			select {
			case <-ctx.Done():
				logger.Info("shutting down")
				app.Stop()
			case <-done:
			}
		}()
	})

	err = app.Listen(port)

	if metricsServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if serr := metricsServer.Shutdown(shutdownCtx); serr != nil {
			logger.Warn("metrics server shutdown", "error", serr)
		}
	}

	return err
}

// hello is the demo handler: it logs the request line and responds with a greeting.
func hello(logger *slog.Logger) http.Handler {
	return func(request *http.Request, response http.ResponseWriter) {
		logger.Info(request.Method+" "+request.Target, "remote", request.Remote)

		_ = response.SetHeader("content-type", mime.WithCharset(mime.Plain, mime.UTF8))
		if err := response.End([]byte("Hello World!")); err != nil {
			logger.Debug("failed to respond", "error", err)
		}
	}
}

func serveMetrics(addr string, reg *prometheus.Registry, logger *slog.Logger) *stdhttp.Server {
	mux := stdhttp.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{
		ErrorLog: slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}))

	server := &stdhttp.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("serving metrics", "addr", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, stdhttp.ErrServerClosed) {
			logger.Error("metrics server failed", "error", err)
		}
	}()

	return server
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
