package httpwire

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/ooni/minihttps/internal/model"
)

// Framing is the way in which the response body was delimited.
type Framing int

const (
	// FramingNoBody means the response has no body (e.g., 204).
	FramingNoBody = Framing(iota)

	// FramingContentLength means the body length was given by Content-Length.
	FramingContentLength

	// FramingChunked means the body used the chunked transfer encoding.
	FramingChunked

	// FramingUntilEOF means there was no framing header and the
	// body is everything that follows the headers.
	FramingUntilEOF
)

// String implements fmt.Stringer.
func (f Framing) String() string {
	switch f {
	case FramingNoBody:
		return "no_body"
	case FramingContentLength:
		return "content_length"
	case FramingChunked:
		return "chunked"
	case FramingUntilEOF:
		return "until_eof"
	default:
		return "unknown"
	}
}

// Response is a parsed HTTP/1.1 response.
type Response struct {
	// Proto is the protocol version (e.g., "HTTP/1.1").
	Proto string

	// StatusCode is the status code.
	StatusCode uint16

	// Reason is the reason phrase, which may be empty.
	Reason string

	// Header contains the response headers.
	Header *Header

	// Body is the response body.
	Body []byte

	// Framing is how the body was delimited.
	Framing Framing
}

// minStatusLineLength is the length of "HTTP/1.x NNN".
const minStatusLineLength = 12

// ParseResponse parses a serialized response. It is equivalent to
// calling Parse on a zero Decoder.
func ParseResponse(data []byte) (*Response, error) {
	return (&Decoder{}).Parse(data)
}

// Decoder parses responses.
type Decoder struct {
	// Logger is the OPTIONAL logger. We use it to warn about responses
	// without framing headers.
	Logger model.Logger
}

// Parse parses a serialized response to a request whose method is
// not known. Bytes following a framed body are ignored.
func (d *Decoder) Parse(data []byte) (*Response, error) {
	return d.ParseForMethod("", data)
}

// ParseForMethod is like Parse but takes into account that responses
// to HEAD requests never have a body.
func (d *Decoder) ParseForMethod(method Method, data []byte) (*Response, error) {
	p := &responseParser{
		cursor: cursor{data: data},
		logger: model.ValidLoggerOrDefault(d.Logger),
		method: method,
		phase:  phaseStatusLine,
		resp:   &Response{},
	}
	if err := p.run(); err != nil {
		return nil, err
	}
	return p.resp, nil
}

// ResponseLength returns the length of the first complete response
// contained in data, which we assume is the beginning of the bytes
// received in response to a request using method. If data does not
// contain a complete response yet, the error satisfies [IsIncomplete].
// A chunked body is complete only after the blank line that ends the
// trailers.
func ResponseLength(method Method, data []byte) (int, error) {
	_, length, err := firstResponse(method, data)
	return length, err
}

// SkipInterim returns data without the complete interim responses
// found at its beginning (see [IsInterim]).
func SkipInterim(data []byte) []byte {
	for {
		resp, length, err := firstResponse("", data)
		if err != nil || !IsInterim(resp.StatusCode) {
			return data
		}
		data = data[length:]
	}
}

// IsInterim returns whether code is the status of an interim response,
// which the server sends before the final response to the same request.
// A 101 response switches protocols and is therefore final.
func IsInterim(code uint16) bool {
	return code >= 100 && code < 200 && code != 101
}

func firstResponse(method Method, data []byte) (*Response, int, error) {
	if bytes.Index(data, []byte("\r\n\r\n")) < 0 {
		if len(data) <= 0 {
			return nil, 0, newParseError(ErrEmpty, nil)
		}
		return nil, 0, newParseError(ErrNoHeaders, nil)
	}
	p := &responseParser{
		cursor: cursor{data: data},
		logger: model.DiscardLogger,
		method: method,
		phase:  phaseStatusLine,
		resp:   &Response{},
		strict: true,
	}
	if err := p.run(); err != nil {
		return nil, 0, err
	}
	if p.resp.Framing == FramingUntilEOF {
		return nil, 0, newParseError(ErrBodyUntilEOF, nil)
	}
	return p.resp, p.off, nil
}

// parsePhase is the phase of the response parser.
type parsePhase int

const (
	phaseStatusLine = parsePhase(iota)
	phaseHeaders
	phaseBody
	phaseDone
)

// responseParser is the state machine parsing a response.
type responseParser struct {
	cursor
	logger model.Logger
	method Method
	phase  parsePhase
	resp   *Response
	strict bool
}

func (p *responseParser) run() error {
	if len(p.data) <= 0 {
		return newParseError(ErrEmpty, nil)
	}
	for {
		var err error
		switch p.phase {
		case phaseStatusLine:
			err = p.statusLine()
		case phaseHeaders:
			err = p.headers()
		case phaseBody:
			err = p.body()
		case phaseDone:
			return nil
		}
		if err != nil {
			return err
		}
	}
}

// statusLine parses a status line like "HTTP/1.1 200 OK".
func (p *responseParser) statusLine() error {
	line, found := p.line()
	if !found {
		line = p.rest()
	}
	if !utf8.Valid(line) {
		return newParseError(ErrTextDecode, fmt.Errorf("status line %q", line))
	}
	if len(line) < minStatusLineLength || !bytes.HasPrefix(line, []byte("HTTP/1.")) {
		return newParseError(ErrInvalidStatusLine, fmt.Errorf("%q", line))
	}
	code, err := strconv.ParseUint(string(line[9:12]), 10, 16)
	if err != nil {
		return newParseError(ErrNumberParse, err)
	}
	p.resp.Proto = string(line[:8])
	p.resp.StatusCode = uint16(code)
	if len(line) > minStatusLineLength+1 {
		p.resp.Reason = string(line[minStatusLineLength+1:])
	}
	p.phase = phaseHeaders
	return nil
}

func (p *responseParser) headers() error {
	header, err := parseHeaderLines(&p.cursor)
	if err != nil {
		return err
	}
	p.resp.Header = header
	p.phase = phaseBody
	return nil
}

// body selects the framing: no body when the method or status says
// so, then Content-Length, then chunked, then everything until EOF.
func (p *responseParser) body() error {
	header := p.resp.Header
	switch {
	case p.bodyless():
		p.resp.Body = []byte{}
		p.resp.Framing = FramingNoBody

	case hasHeader(header, "Content-Length"):
		value := strings.TrimSpace(header.Value("Content-Length"))
		length, err := strconv.ParseUint(value, 10, 64)
		if err != nil {
			return newParseError(ErrNumberParse, err)
		}
		body, found := p.take(length)
		if !found {
			return newParseError(ErrTruncated, fmt.Errorf("want %d body bytes, have %d", length, p.remaining()))
		}
		p.resp.Body = append([]byte{}, body...)
		p.resp.Framing = FramingContentLength

	case hasHeader(header, "Transfer-Encoding"):
		if !isChunked(header) {
			return newParseError(ErrUnsupportedEncoding, fmt.Errorf("%q", header.Value("Transfer-Encoding")))
		}
		body, err := decodeChunked(&p.cursor, p.strict)
		if err != nil {
			return err
		}
		p.resp.Body = body
		p.resp.Framing = FramingChunked

	default:
		p.logger.Warnf("httpwire: response without Content-Length or Transfer-Encoding: reading body until EOF")
		p.resp.Body = append([]byte{}, p.rest()...)
		p.resp.Framing = FramingUntilEOF
	}
	p.phase = phaseDone
	return nil
}

func (p *responseParser) bodyless() bool {
	code := p.resp.StatusCode
	return p.method == MethodHead || (code >= 100 && code < 200) || code == 204 || code == 304
}
