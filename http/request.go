package http

import (
	"context"
	"net"
	"strings"

	"github.com/indigo-web/flint/transport"
)

// Request represents an HTTP request head. It's never mutated after being parsed.
type Request struct {
	// Method is the request method token as it came, e.g. GET.
	Method string
	// Target is the raw request-target. It's neither decoded nor validated.
	Target string
	// Version holds the digits after the HTTP/ prefix of the request line, e.g. 1.1.
	Version string
	// Headers maps lower-cased header names to trimmed values. If a header was repeated, the
	// latest occurrence wins.
	Headers map[string]string
	// Remote holds the remote address. Please note that this is generally not a good parameter to identify
	// a user, because there might be proxies in the middle.
	Remote net.Addr
	// Ctx is user-managed context which lives as long as the connection does.
	Ctx    context.Context
	client transport.Client
}

func NewRequest(client transport.Client, method, target, version string, headers map[string]string) *Request {
	return &Request{
		Method:  method,
		Target:  target,
		Version: version,
		Headers: headers,
		Remote:  client.Remote(),
		Ctx:     context.Background(),
		client:  client,
	}
}

// Header returns the value of the header. The lookup is case-insensitive.
func (r *Request) Header(name string) (value string, found bool) {
	value, found = r.Headers[strings.ToLower(name)]
	return value, found
}

// Stream returns the byte stream of the connection. The first bytes it returns are the
// ones which immediately followed the headers section, i.e. the beginning of the body.
func (r *Request) Stream() transport.Client {
	return r.client
}
