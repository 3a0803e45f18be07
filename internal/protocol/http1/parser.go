package http1

import (
	"bytes"
	"strings"

	"github.com/indigo-web/flint/config"
	"github.com/indigo-web/flint/http"
	"github.com/indigo-web/flint/http/status"
	"github.com/indigo-web/flint/transport"
	"github.com/indigo-web/utils/uf"
)

const (
	crlf       = "\r\n"
	terminator = crlf + crlf
)

// Parser accumulates the request head chunk by chunk until the empty line terminating the
// headers section arrives, and parses it at once. It never reads by itself, so it can't
// block: the caller feeds it whatever the stream has got.
type Parser struct {
	client  transport.Client
	maxSize int
	buff    []byte
	// scanned is the number of bytes of buff already searched for the terminator
	scanned int
	request *http.Request
}

func NewParser(cfg *config.Config, client transport.Client) *Parser {
	return &Parser{
		client:  client,
		maxSize: cfg.Headers.MaxSectionSize,
	}
}

// Parse consumes the next chunk of the stream. It returns done=false as long as the headers
// section isn't complete yet, and an empty chunk is no exception. As the section is complete,
// done is true and extra holds the bytes following it, which belong to the body and must be
// given back to the stream. The parsed request is available via Request afterward.
func (p *Parser) Parse(data []byte) (done bool, extra []byte, err error) {
	if p.request != nil {
		return true, data, nil
	}

	// the data is copied, as the stream is free to reuse its read buffer. The head is then
	// referenced by the request's strings, therefore buff is never reused.
	p.buff = append(p.buff, data...)

	// the terminator could be split between the previous chunk and the current one
	offset := max(p.scanned-len(terminator)+1, 0)
	idx := bytes.Index(p.buff[offset:], []byte(terminator))
	if idx == -1 {
		p.scanned = len(p.buff)
		// up to the last 3 bytes may be a beginning of the terminator, which doesn't count
		if p.scanned-(len(terminator)-1) > p.maxSize {
			return false, nil, status.ErrHeaderFieldsTooLarge
		}

		return false, nil, nil
	}

	end := offset + idx
	if end > p.maxSize {
		return false, nil, status.ErrHeaderFieldsTooLarge
	}

	p.request, err = p.parseHead(uf.B2S(p.buff[:end]))
	if err != nil {
		return false, nil, err
	}

	return true, p.buff[end+len(terminator):], nil
}

// Request returns the parsed request or nil, if the headers section wasn't completed yet.
func (p *Parser) Request() *http.Request {
	return p.request
}

func (p *Parser) parseHead(head string) (*http.Request, error) {
	requestLine, fields, _ := strings.Cut(head, crlf)

	tokens := strings.Split(requestLine, " ")
	if len(tokens) != 3 {
		return nil, status.ErrMalformedRequestLine
	}

	method, target, protocol := tokens[0], tokens[1], tokens[2]
	_, version, found := strings.Cut(protocol, "/")
	if !found || len(method) == 0 || len(target) == 0 {
		return nil, status.ErrMalformedRequestLine
	}

	headers := make(map[string]string)

	for len(fields) > 0 {
		var line string
		line, fields, _ = strings.Cut(fields, crlf)

		name, value, found := strings.Cut(line, ":")
		name = strings.TrimSpace(name)
		if !found || len(name) == 0 {
			return nil, status.ErrMalformedHeaderLine
		}

		headers[strings.ToLower(name)] = strings.TrimSpace(value)
	}

	return http.NewRequest(p.client, method, target, version, headers), nil
}
