package httpwire

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Request is an HTTP/1.1 request.
type Request struct {
	// Method is the request method. When empty, we use GET.
	Method Method

	// Route is the request target (path and query). When empty, we use "/".
	Route string

	// Host is the value of the Host header. When empty, we use
	// the Host found in Header, if any.
	Host string

	// Header contains the OPTIONAL headers.
	Header *Header

	// Body is the OPTIONAL body.
	Body []byte
}

// Encode serializes the request. The Host header comes first, then
// the other headers in iteration order. We add a Content-Length header
// if and only if the body is not empty, replacing any Content-Length
// found in Header.
func (r *Request) Encode() []byte {
	method := r.Method
	if method == "" {
		method = MethodGet
	}
	route := r.Route
	if route == "" {
		route = "/"
	}
	host := r.Host
	if host == "" {
		host = r.Header.Value("Host")
	}

	var buffer bytes.Buffer
	fmt.Fprintf(&buffer, "%s %s HTTP/1.1\r\n", method, route)
	if host != "" {
		fmt.Fprintf(&buffer, "Host: %s\r\n", host)
	}
	for name, value := range r.Header.All() {
		if strings.EqualFold(name, "Host") || strings.EqualFold(name, "Content-Length") {
			continue
		}
		fmt.Fprintf(&buffer, "%s: %s\r\n", name, value)
	}
	if len(r.Body) > 0 {
		fmt.Fprintf(&buffer, "Content-Length: %d\r\n", len(r.Body))
	}
	buffer.Write(crlf)
	buffer.Write(r.Body)
	return buffer.Bytes()
}

// RequestBuilder builds a serialized request.
type RequestBuilder struct {
	req *Request
}

// NewRequestBuilder creates a new RequestBuilder.
func NewRequestBuilder() *RequestBuilder {
	return &RequestBuilder{req: &Request{Header: &Header{}}}
}

// Method sets the method.
func (b *RequestBuilder) Method(method Method) *RequestBuilder {
	b.req.Method = method
	return b
}

// Route sets the request target.
func (b *RequestBuilder) Route(route string) *RequestBuilder {
	b.req.Route = route
	return b
}

// Host sets the value of the Host header.
func (b *RequestBuilder) Host(host string) *RequestBuilder {
	b.req.Host = host
	return b
}

// Headers merges the given headers into the request headers.
func (b *RequestBuilder) Headers(header *Header) *RequestBuilder {
	b.req.Header.Merge(header)
	return b
}

// Header sets a single header.
func (b *RequestBuilder) Header(name, value string) *RequestBuilder {
	b.req.Header.Set(name, value)
	return b
}

// Body sets the body.
func (b *RequestBuilder) Body(body []byte) *RequestBuilder {
	b.req.Body = body
	return b
}

// Build serializes the request and resets the builder.
func (b *RequestBuilder) Build() []byte {
	req := b.req
	b.req = &Request{Header: &Header{}}
	return req.Encode()
}

// ParseRequest parses a serialized request. The body is read using
// Content-Length or chunked framing and is otherwise empty.
func ParseRequest(data []byte) (*Request, error) {
	if len(data) <= 0 {
		return nil, newParseError(ErrEmpty, nil)
	}
	c := &cursor{data: data}
	line, found := c.line()
	if !found {
		return nil, newParseError(ErrNoHeaders, nil)
	}
	if !utf8.Valid(line) {
		return nil, newParseError(ErrTextDecode, fmt.Errorf("request line %q", line))
	}
	parts := strings.Split(string(line), " ")
	if len(parts) != 3 || parts[0] == "" || parts[1] == "" || !strings.HasPrefix(parts[2], "HTTP/1.") {
		return nil, newParseError(ErrInvalidRequestLine, fmt.Errorf("%q", line))
	}
	header, err := parseHeaderLines(c)
	if err != nil {
		return nil, err
	}
	req := &Request{
		Method: Method(parts[0]),
		Route:  parts[1],
		Host:   header.Value("Host"),
		Header: header,
		Body:   []byte{},
	}
	switch {
	case hasHeader(header, "Content-Length"):
		length, err := strconv.ParseUint(strings.TrimSpace(header.Value("Content-Length")), 10, 64)
		if err != nil {
			return nil, newParseError(ErrNumberParse, err)
		}
		body, found := c.take(length)
		if !found {
			return nil, newParseError(ErrTruncated, nil)
		}
		req.Body = append(req.Body, body...)
	case hasHeader(header, "Transfer-Encoding"):
		if !isChunked(header) {
			return nil, newParseError(ErrUnsupportedEncoding, fmt.Errorf("%q", header.Value("Transfer-Encoding")))
		}
		body, err := decodeChunked(c, false)
		if err != nil {
			return nil, err
		}
		req.Body = body
	}
	return req, nil
}

func hasHeader(header *Header, name string) bool {
	_, found := header.Get(name)
	return found
}

func isChunked(header *Header) bool {
	return strings.EqualFold(strings.TrimSpace(header.Value("Transfer-Encoding")), "chunked")
}
