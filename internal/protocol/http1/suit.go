package http1

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"runtime"

	"github.com/indigo-web/flint/config"
	"github.com/indigo-web/flint/http"
	"github.com/indigo-web/flint/http/mime"
	"github.com/indigo-web/flint/http/status"
	"github.com/indigo-web/flint/internal/metrics"
	"github.com/indigo-web/flint/transport"
)

// Suit serves exactly one request-response exchange over the client.
type Suit struct {
	cfg     *config.Config
	client  transport.Client
	parser  *Parser
	handler http.Handler
	logger  *slog.Logger
	metrics *metrics.Metrics
}

func New(
	cfg *config.Config,
	client transport.Client,
	handler http.Handler,
	logger *slog.Logger,
	m *metrics.Metrics,
) *Suit {
	return &Suit{
		cfg:     cfg,
		client:  client,
		parser:  NewParser(cfg, client),
		handler: handler,
		logger:  logger,
		metrics: m,
	}
}

// Serve reads the request, calls the handler and makes sure the response is ended. Bad
// requests are answered by an error response if their error carries a status code. The
// connection itself is never closed here.
func (s *Suit) Serve() error {
	request, err := s.readRequest()
	if err != nil {
		s.metrics.ParseError(errorReason(err))
		s.reject(err)
		return err
	}

	s.metrics.Request(request.Method)
	writer := NewWriter(s.cfg, s.client)
	err = s.handle(request, writer)
	if writer.HeadersSent() {
		s.metrics.Response(writer.framing.String())
	}

	return err
}

func (s *Suit) readRequest() (*http.Request, error) {
	for {
		data, err := s.client.Read()
		if len(data) > 0 {
			done, extra, perr := s.parser.Parse(data)
			if perr != nil {
				return nil, perr
			}

			if done {
				s.client.Pushback(extra)
				return s.parser.Request(), nil
			}
		}

		switch {
		case err == nil:
			if len(data) == 0 {
				// nothing is pending yet. Let other connections progress meanwhile
				runtime.Gosched()
			}
		case errors.Is(err, io.EOF):
			return nil, status.ErrIncompleteRequest
		default:
			return nil, fmt.Errorf("read request: %w", err)
		}
	}
}

func (s *Suit) handle(request *http.Request, writer *Writer) (err error) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("handler panicked", "panic", r, "method", request.Method, "target", request.Target)
			err = fmt.Errorf("handler panicked: %v", r)

			if !writer.HeadersSent() {
				_ = writer.SetStatus(status.InternalServerError, "")
				_ = writer.End(nil)
			}
		}
	}()

	s.handler(request, writer)

	if !writer.Closed() {
		return writer.End(nil)
	}

	return nil
}

// reject answers with the error's status code, if it's got one.
func (s *Suit) reject(err error) {
	var httpErr status.HTTPError
	if !errors.As(err, &httpErr) || httpErr.Code == status.CloseConnection {
		s.logger.Debug("connection closed before a request was received", "error", err)
		return
	}

	s.logger.Debug("rejecting request", "error", err, "status", int(httpErr.Code))

	writer := NewWriter(s.cfg, s.client)
	_ = writer.SetStatus(httpErr.Code, "")
	_ = writer.SetHeader("content-type", mime.WithCharset(mime.Plain, mime.UTF8))
	_ = writer.SetHeader("connection", "close")
	if err = writer.End([]byte(httpErr.Message)); err != nil {
		s.logger.Debug("failed to write error response", "error", err)
	}
}

func errorReason(err error) string {
	switch {
	case errors.Is(err, status.ErrIncompleteRequest):
		return "incomplete"
	case errors.Is(err, status.ErrMalformedRequestLine):
		return "request_line"
	case errors.Is(err, status.ErrMalformedHeaderLine):
		return "header_line"
	case errors.Is(err, status.ErrHeaderFieldsTooLarge):
		return "too_large"
	default:
		return "read"
	}
}
