package httpwire

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
)

// decodeChunked decodes a chunked body starting at the cursor
// position and moves past the end of the trailers.
//
// Each chunk is a hexadecimal size line (extensions after ";" are
// ignored) followed by the payload and CRLF. A zero size ends the body
// and is followed by OPTIONAL trailer lines, which we skip, and a
// blank line. Unless strict is true, input ending before the blank
// line still yields the body, since nothing follows it.
func decodeChunked(c *cursor, strict bool) ([]byte, error) {
	body := []byte{}
	for {
		line, found := c.line()
		if !found {
			return nil, newParseError(ErrTruncated, nil)
		}
		token, _, _ := strings.Cut(string(line), ";")
		size, err := strconv.ParseUint(strings.TrimSpace(token), 16, 63)
		if err != nil {
			return nil, newParseError(ErrNumberParse, err)
		}
		if size == 0 {
			if err := skipTrailers(c); err != nil && strict {
				return nil, err
			}
			return body, nil
		}
		payload, found := c.take(size)
		if !found {
			return nil, newParseError(ErrTruncated, nil)
		}
		body = append(body, payload...)
		end, found := c.take(uint64(len(crlf)))
		if !found {
			return nil, newParseError(ErrTruncated, nil)
		}
		if !bytes.Equal(end, crlf) {
			return nil, newParseError(ErrInvalidChunk, fmt.Errorf("expected CRLF after %d bytes, got %q", size, end))
		}
	}
}

func skipTrailers(c *cursor) error {
	for {
		line, found := c.line()
		if !found {
			return newParseError(ErrTruncated, nil)
		}
		if len(line) <= 0 {
			return nil
		}
	}
}
