package serve

import (
	"log/slog"
	"net"

	"github.com/google/uuid"
	"github.com/indigo-web/flint/config"
	"github.com/indigo-web/flint/http"
	"github.com/indigo-web/flint/internal/metrics"
	"github.com/indigo-web/flint/internal/protocol/http1"
	"github.com/indigo-web/flint/transport"
)

// HTTP1 serves a single HTTP/1.1 request over the connection. Note, that the connection isn't
// closed automatically.
func HTTP1(
	cfg *config.Config,
	conn net.Conn,
	handler http.Handler,
	logger *slog.Logger,
	m *metrics.Metrics,
) {
	m.ConnectionOpened()
	defer m.ConnectionClosed()

	client := transport.NewClient(conn, cfg.NET.ReadTimeout, make([]byte, cfg.NET.ReadBufferSize))
	logger = logger.With(
		slog.String("conn", uuid.NewString()),
		slog.Any("remote", conn.RemoteAddr()),
	)

	if err := http1.New(cfg, client, handler, logger, m).Serve(); err != nil {
		logger.Debug("connection served with an error", "error", err)
	}
}
