package httpwire

import (
	"bytes"
	"fmt"
	"strings"
	"unicode/utf8"
)

var crlf = []byte("\r\n")

// cursor walks over the input.
type cursor struct {
	data []byte
	off  int
}

// line returns the bytes before the next CRLF and moves past the CRLF.
// When there is no CRLF, it returns false and does not move.
func (c *cursor) line() ([]byte, bool) {
	idx := bytes.Index(c.data[c.off:], crlf)
	if idx < 0 {
		return nil, false
	}
	line := c.data[c.off : c.off+idx]
	c.off += idx + len(crlf)
	return line, true
}

// take returns the next count bytes and moves past them.
func (c *cursor) take(count uint64) ([]byte, bool) {
	if count > uint64(c.remaining()) {
		return nil, false
	}
	out := c.data[c.off : c.off+int(count)]
	c.off += int(count)
	return out, true
}

// rest returns all the remaining bytes and moves to the end.
func (c *cursor) rest() []byte {
	out := c.data[c.off:]
	c.off = len(c.data)
	return out
}

func (c *cursor) remaining() int {
	return len(c.data) - c.off
}

// headerSeparator separates a header name from its value.
const headerSeparator = ": "

// parseHeaderLines parses header lines until the blank line.
func parseHeaderLines(c *cursor) (*Header, error) {
	header := &Header{}
	for {
		line, found := c.line()
		if !found {
			return nil, newParseError(ErrNoHeaders, nil)
		}
		if len(line) <= 0 {
			return header, nil
		}
		if !utf8.Valid(line) {
			return nil, newParseError(ErrTextDecode, fmt.Errorf("header line %q", line))
		}
		name, value, found := strings.Cut(string(line), headerSeparator)
		if !found {
			return nil, newParseError(ErrInvalidHeader, fmt.Errorf("header line %q", line))
		}
		header.Set(name, value)
	}
}
