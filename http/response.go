package http

import (
	"github.com/indigo-web/flint/http/status"
)

// ResponseWriter is bound to a single connection and serializes the response into it.
// Status and headers are kept pending until the first body-emitting call (Write, End or
// JSON), which sends them exactly once. Every later attempt to change them results in
// status.ErrHeadersAlreadySent.
//
// The framing is decided at the same moment. If content-length header is set by then, the
// body is written as is. Otherwise, Write streams it using chunked transfer encoding, while
// End computes content-length itself.
type ResponseWriter interface {
	// SetHeader sets the header, overriding the previous value. Names are case-insensitive
	// and are sent lower-cased.
	SetHeader(name, value string) error
	// SetStatus sets the status code and its reason phrase. Empty text is replaced by the
	// standard reason phrase of the code.
	SetStatus(code status.Code, text string) error
	// Write emits a body fragment.
	Write(p []byte) (n int, err error)
	// End emits the last body fragment, if any, and closes the stream for writing.
	End(chunk []byte) error
	// JSON serializes the model and sends it as a complete response.
	JSON(model any) error
	// HeadersSent reports whether the status line and headers were already written.
	HeadersSent() bool
}

// Handler processes a single request. The connection is closed as soon as it returns; a
// response which wasn't explicitly ended is ended implicitly.
type Handler func(request *Request, response ResponseWriter)
