package http1

import (
	"strconv"
	"time"

	"github.com/indigo-web/flint/config"
	"github.com/indigo-web/flint/http"
	"github.com/indigo-web/flint/http/mime"
	"github.com/indigo-web/flint/http/status"
	"github.com/indigo-web/flint/kv"
	"github.com/indigo-web/flint/transport"
	json "github.com/json-iterator/go"
)

var _ http.ResponseWriter = new(Writer)

type framing uint8

const (
	undetermined framing = iota
	fixedLength
	chunked
)

func (f framing) String() string {
	switch f {
	case fixedLength:
		return "fixed"
	case chunked:
		return "chunked"
	default:
		return "undetermined"
	}
}

type writerState uint8

const (
	idle writerState = iota
	headersSent
	closed
)

const chunkZeroTrailer = "0\r\n\r\n"

var zoneGMT = time.FixedZone("GMT", 0)

// Writer is the http.ResponseWriter of a single connection. Everything, except for big body
// fragments, is serialized into the internal buffer first, which is flushed at the end of
// every call.
type Writer struct {
	client  transport.Client
	code    status.Code
	text    string
	headers *kv.Storage
	state   writerState
	framing framing
	buff    []byte
	maxBuff int
	now     func() time.Time
}

func NewWriter(cfg *config.Config, client transport.Client) *Writer {
	return &Writer{
		client:  client,
		code:    status.OK,
		text:    status.Text(status.OK),
		headers: kv.NewFromMap(cfg.Headers.Default),
		buff:    make([]byte, 0, cfg.NET.WriteBufferSize.Default),
		maxBuff: cfg.NET.WriteBufferSize.Maximal,
		now:     time.Now,
	}
}

func (w *Writer) SetHeader(name, value string) error {
	if w.state != idle {
		return status.ErrHeadersAlreadySent
	}

	w.headers.Set(name, value)
	return nil
}

func (w *Writer) SetStatus(code status.Code, text string) error {
	if w.state != idle {
		return status.ErrHeadersAlreadySent
	}

	if len(text) == 0 {
		text = status.Text(code)
	}

	w.code, w.text = code, text
	return nil
}

// HeadersSent reports whether the status line and headers were written.
func (w *Writer) HeadersSent() bool {
	return w.state != idle
}

// Closed reports whether the response was ended.
func (w *Writer) Closed() bool {
	return w.state == closed
}

func (w *Writer) Write(p []byte) (n int, err error) {
	switch w.state {
	case closed:
		return 0, status.ErrResponseClosed
	case idle:
		if w.headers.Has("content-length") {
			w.framing = fixedLength
		} else {
			w.framing = chunked
			w.headers.Set("transfer-encoding", "chunked")
		}

		w.appendHeaders()
	}

	if w.framing == chunked {
		// a zero-length chunk would terminate the body prematurely
		if len(p) > 0 {
			err = w.appendChunk(p)
		}
	} else {
		err = w.appendBody(p)
	}

	if err != nil {
		return 0, err
	}

	if err = w.flush(); err != nil {
		return 0, err
	}

	return len(p), nil
}

// End writes the last piece of the body and closes the stream for writing. A nil chunk is
// fine. If this is the first body-emitting call and no content-length was set, it's set to
// the length of the chunk.
func (w *Writer) End(chunk []byte) error {
	switch w.state {
	case closed:
		return status.ErrResponseClosed
	case idle:
		if !w.headers.Has("content-length") {
			w.headers.Set("content-length", strconv.Itoa(len(chunk)))
		}

		w.framing = fixedLength
		w.appendHeaders()
	}

	w.state = closed

	err := w.finalize(chunk)
	if cerr := w.client.CloseWrite(); err == nil {
		err = cerr
	}

	return err
}

func (w *Writer) finalize(chunk []byte) error {
	if w.framing == chunked {
		if len(chunk) > 0 {
			if err := w.appendChunk(chunk); err != nil {
				return err
			}
		}

		w.buff = append(w.buff, chunkZeroTrailer...)
	} else if err := w.appendBody(chunk); err != nil {
		return err
	}

	return w.flush()
}

// JSON serializes the model and sends it with the fixed length. The model isn't
// written partially: if serialization fails, nothing is written at all and the
// response stays intact.
func (w *Writer) JSON(model any) error {
	if w.state != idle {
		return status.ErrHeadersAlreadySent
	}

	body, err := json.ConfigCompatibleWithStandardLibrary.Marshal(model)
	if err != nil {
		return err
	}

	w.headers.
		Set("content-type", mime.WithCharset(mime.JSON, mime.UTF8)).
		Set("content-length", strconv.Itoa(len(body)))

	return w.End(body)
}

// appendHeaders serializes the status line and the headers. This happens exactly once.
func (w *Writer) appendHeaders() {
	w.headers.Set("date", w.now().In(zoneGMT).Format(time.RFC1123))

	w.buff = append(w.buff, "HTTP/1.1 "...)
	w.buff = status.AppendCode(w.buff, w.code)
	w.buff = append(w.buff, ' ')
	w.buff = append(w.buff, w.text...)
	w.buff = append(w.buff, crlf...)

	for key, value := range w.headers.Pairs() {
		w.buff = append(w.buff, key...)
		w.buff = append(w.buff, ':', ' ')
		w.buff = append(w.buff, value...)
		w.buff = append(w.buff, crlf...)
	}

	w.buff = append(w.buff, crlf...)
	w.state = headersSent
}

// appendChunk frames the data as a single chunk: <hex-length>\r\n<data>\r\n
func (w *Writer) appendChunk(data []byte) error {
	w.buff = strconv.AppendUint(w.buff, uint64(len(data)), 16)
	w.buff = append(w.buff, crlf...)
	if err := w.appendBody(data); err != nil {
		return err
	}

	w.buff = append(w.buff, crlf...)
	return nil
}

// appendBody appends the data into the buffer, unless it's too big to fit. In this case,
// the buffer is flushed and the data is written directly.
func (w *Writer) appendBody(data []byte) error {
	if len(w.buff)+len(data) <= w.maxBuff {
		w.buff = append(w.buff, data...)
		return nil
	}

	if err := w.flush(); err != nil {
		return err
	}

	_, err := w.client.Write(data)
	return err
}

func (w *Writer) flush() (err error) {
	if len(w.buff) > 0 {
		_, err = w.client.Write(w.buff)
		w.buff = w.buff[:0]
	}

	return err
}
