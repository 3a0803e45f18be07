package http1

import (
	"bufio"
	"io"
	"log/slog"
	stdhttp "net/http"
	"strings"
	"testing"

	"github.com/indigo-web/flint/config"
	"github.com/indigo-web/flint/http"
	"github.com/indigo-web/flint/http/status"
	"github.com/indigo-web/flint/internal/metrics"
	"github.com/indigo-web/flint/transport/dummy"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func getSuit(t *testing.T, cfg *config.Config, client *dummy.Client, handler http.Handler) (*Suit, *metrics.Metrics) {
	m, err := metrics.New(prometheus.NewRegistry())
	require.NoError(t, err)
	logger := slog.New(slog.DiscardHandler)

	return New(cfg, client, handler, logger, m), m
}

func helloWorld(_ *http.Request, response http.ResponseWriter) {
	_ = response.SetHeader("Content-Type", "text/plain")
	_ = response.End([]byte("Hello World!"))
}

// interleave inserts an empty chunk before every part, so every second read has
// nothing pending.
func interleave(parts [][]byte) (chunks [][]byte) {
	for _, part := range parts {
		chunks = append(chunks, nil, part)
	}

	return chunks
}

func parseResponse(t *testing.T, raw string) (*stdhttp.Response, string) {
	resp, err := stdhttp.ReadResponse(bufio.NewReader(strings.NewReader(raw)), nil)
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())

	return resp, string(body)
}

func TestSuit(t *testing.T) {
	const raw = "GET /foo HTTP/1.1\r\nHost: x\r\n\r\n"

	testExchange := func(t *testing.T, client *dummy.Client) {
		var got *http.Request
		suit, m := getSuit(t, config.Default(), client, func(request *http.Request, response http.ResponseWriter) {
			got = request
			helloWorld(request, response)
		})

		require.NoError(t, suit.Serve())
		require.NotNil(t, got)
		require.Equal(t, "GET", got.Method)
		require.Equal(t, "/foo", got.Target)
		require.Equal(t, "1.1", got.Version)
		require.Equal(t, map[string]string{"host": "x"}, got.Headers)

		resp, body := parseResponse(t, client.Written())
		require.Equal(t, 200, resp.StatusCode)
		require.Equal(t, "text/plain", resp.Header.Get("Content-Type"))
		require.Equal(t, "Hello World!", body)
		require.True(t, client.WriteClosed())

		require.Equal(t, 1.0, testutil.ToFloat64(m.RequestsTotal.WithLabelValues("GET")))
		require.Equal(t, 1.0, testutil.ToFloat64(m.ResponsesTotal.WithLabelValues("fixed")))
	}

	t.Run("single chunk", func(t *testing.T) {
		testExchange(t, dummy.NewMockClient([]byte(raw)))
	})

	t.Run("byte by byte", func(t *testing.T) {
		testExchange(t, dummy.NewMockClient(splitIntoParts([]byte(raw), 1)...))
	})

	t.Run("with empty reads", func(t *testing.T) {
		parts := interleave(splitIntoParts([]byte(raw), 3))
		testExchange(t, dummy.NewMockClient(parts...))
	})
}

func TestSuit_Body(t *testing.T) {
	const raw = "POST /echo HTTP/1.1\r\nContent-Length: 13\r\n\r\nHello, world!"

	for _, n := range []int{1, 3, 7, len(raw)} {
		client := dummy.NewMockClient(splitIntoParts([]byte(raw), n)...)
		suit, _ := getSuit(t, config.Default(), client, func(request *http.Request, response http.ResponseWriter) {
			var body []byte
			for len(body) < 13 {
				data, err := request.Stream().Read()
				require.NoError(t, err)
				body = append(body, data...)
			}

			_ = response.End(body)
		})

		require.NoError(t, suit.Serve(), n)
		_, body := parseResponse(t, client.Written())
		require.Equal(t, "Hello, world!", body, n)
	}
}

func TestSuit_Rejects(t *testing.T) {
	handler := func(*http.Request, http.ResponseWriter) {
		require.Fail(t, "handler must not be called")
	}

	t.Run("incomplete request", func(t *testing.T) {
		client := dummy.NewMockClient([]byte("GET / HTTP/1.1\r\nHost: x\r\n"))
		suit, m := getSuit(t, config.Default(), client, handler)

		require.ErrorIs(t, suit.Serve(), status.ErrIncompleteRequest)
		require.Empty(t, client.Written())
		require.Equal(t, 1.0, testutil.ToFloat64(m.ParseErrorsTotal.WithLabelValues("incomplete")))
	})

	t.Run("empty stream", func(t *testing.T) {
		client := dummy.NewMockClient()
		suit, _ := getSuit(t, config.Default(), client, handler)

		require.ErrorIs(t, suit.Serve(), status.ErrIncompleteRequest)
		require.Empty(t, client.Written())
	})

	for _, tc := range []struct {
		Name   string
		Raw    string
		Err    error
		Code   int
		Reason string
	}{
		{
			Name:   "malformed request line",
			Raw:    "GET /\r\nHost: x\r\n\r\n",
			Err:    status.ErrMalformedRequestLine,
			Code:   400,
			Reason: "request_line",
		},
		{
			Name:   "malformed header line",
			Raw:    "GET / HTTP/1.1\r\nno colon here\r\n\r\n",
			Err:    status.ErrMalformedHeaderLine,
			Code:   400,
			Reason: "header_line",
		},
		{
			Name:   "too large",
			Raw:    "GET / HTTP/1.1\r\nX-Big: " + strings.Repeat("a", 100) + "\r\n\r\n",
			Err:    status.ErrHeaderFieldsTooLarge,
			Code:   431,
			Reason: "too_large",
		},
	} {
		t.Run(tc.Name, func(t *testing.T) {
			cfg := config.Default()
			cfg.Headers.MaxSectionSize = 64
			client := dummy.NewMockClient(splitIntoParts([]byte(tc.Raw), 5)...)
			suit, m := getSuit(t, cfg, client, handler)

			require.ErrorIs(t, suit.Serve(), tc.Err)
			resp, body := parseResponse(t, client.Written())
			require.Equal(t, tc.Code, resp.StatusCode)
			require.True(t, resp.Close)
			require.Equal(t, tc.Err.Error(), body)
			require.Equal(t, 1.0, testutil.ToFloat64(m.ParseErrorsTotal.WithLabelValues(tc.Reason)))
			require.True(t, client.WriteClosed())
		})
	}
}

func TestSuit_Handler(t *testing.T) {
	const raw = "GET / HTTP/1.1\r\n\r\n"

	t.Run("implicit end", func(t *testing.T) {
		client := dummy.NewMockClient([]byte(raw))
		suit, _ := getSuit(t, config.Default(), client, func(*http.Request, http.ResponseWriter) {})

		require.NoError(t, suit.Serve())
		resp, body := parseResponse(t, client.Written())
		require.Equal(t, 200, resp.StatusCode)
		require.Equal(t, int64(0), resp.ContentLength)
		require.Empty(t, body)
		require.True(t, client.WriteClosed())
	})

	t.Run("implicit end of chunked body", func(t *testing.T) {
		client := dummy.NewMockClient([]byte(raw))
		suit, m := getSuit(t, config.Default(), client, func(_ *http.Request, response http.ResponseWriter) {
			_, _ = response.Write([]byte("Hello, "))
			_, _ = response.Write([]byte("world!"))
		})

		require.NoError(t, suit.Serve())
		require.True(t, strings.HasSuffix(client.Written(), "\r\n0\r\n\r\n"))
		_, body := parseResponse(t, client.Written())
		require.Equal(t, "Hello, world!", body)
		require.Equal(t, 1.0, testutil.ToFloat64(m.ResponsesTotal.WithLabelValues("chunked")))
	})

	t.Run("panic", func(t *testing.T) {
		client := dummy.NewMockClient([]byte(raw))
		suit, _ := getSuit(t, config.Default(), client, func(*http.Request, http.ResponseWriter) {
			panic("oops")
		})

		require.Error(t, suit.Serve())
		resp, _ := parseResponse(t, client.Written())
		require.Equal(t, 500, resp.StatusCode)
	})

	t.Run("panic after headers sent", func(t *testing.T) {
		client := dummy.NewMockClient([]byte(raw))
		suit, _ := getSuit(t, config.Default(), client, func(_ *http.Request, response http.ResponseWriter) {
			_, _ = response.Write([]byte("partial"))
			panic("oops")
		})

		require.Error(t, suit.Serve())
		require.True(t, strings.HasPrefix(client.Written(), "HTTP/1.1 200 OK\r\n"))
		require.Equal(t, 1, strings.Count(client.Written(), "HTTP/1.1"))
	})

	t.Run("late mutations", func(t *testing.T) {
		client := dummy.NewMockClient([]byte(raw))
		suit, _ := getSuit(t, config.Default(), client, func(_ *http.Request, response http.ResponseWriter) {
			require.NoError(t, response.JSON(map[string]int{"a": 1}))
			require.ErrorIs(t, response.JSON(map[string]int{"a": 1}), status.ErrHeadersAlreadySent)
			require.ErrorIs(t, response.SetHeader("x", "y"), status.ErrHeadersAlreadySent)
			_, err := response.Write([]byte("x"))
			require.ErrorIs(t, err, status.ErrResponseClosed)
		})

		require.NoError(t, suit.Serve())
		resp, body := parseResponse(t, client.Written())
		require.Equal(t, "application/json; charset=utf-8", resp.Header.Get("Content-Type"))
		require.Equal(t, `{"a":1}`, body)
	})
}

func TestSuit_MethodLabel(t *testing.T) {
	m, err := metrics.New(prometheus.NewRegistry())
	require.NoError(t, err)
	logger := slog.New(slog.DiscardHandler)

	for _, method := range []string{"M1", "M2", "GET"} {
		client := dummy.NewMockClient([]byte(method + " / HTTP/1.1\r\n\r\n"))
		require.NoError(t, New(config.Default(), client, helloWorld, logger, m).Serve())
	}

	require.Equal(t, 2, testutil.CollectAndCount(m.RequestsTotal))
	require.Equal(t, 2.0, testutil.ToFloat64(m.RequestsTotal.WithLabelValues(metrics.OtherMethod)))
	require.Equal(t, 1.0, testutil.ToFloat64(m.RequestsTotal.WithLabelValues("GET")))
}
