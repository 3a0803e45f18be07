package status

// HTTPError is an error that may be rendered as a response carrying its Code. Errors
// with CloseConnection code are never rendered.
type HTTPError struct {
	Message string
	Code    Code
}

func NewError(code Code, message string) error {
	return HTTPError{
		Code:    code,
		Message: message,
	}
}

func (h HTTPError) Error() string {
	return h.Message
}

var (
	ErrIncompleteRequest    = NewError(CloseConnection, "connection closed before the request headers were complete")
	ErrMalformedRequestLine = NewError(BadRequest, "malformed request line")
	ErrMalformedHeaderLine  = NewError(BadRequest, "malformed header line")
	ErrHeaderFieldsTooLarge = NewError(RequestHeaderFieldsTooLarge, "too large headers section")

	ErrHeadersAlreadySent  = NewError(InternalServerError, "headers have already been sent")
	ErrResponseClosed      = NewError(InternalServerError, "response has already been ended")
	ErrInternalServerError = NewError(InternalServerError, "internal server error")
)
