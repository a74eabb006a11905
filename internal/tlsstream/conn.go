package tlsstream

//
// Wrappers for the raw socket
//

import (
	"bufio"
	"errors"
	"net"
	"syscall"
)

// retryConn retries reads and writes interrupted by a signal.
type retryConn struct {
	net.Conn
}

// Read implements net.Conn.
func (c *retryConn) Read(p []byte) (int, error) {
	for {
		count, err := c.Conn.Read(p)
		if count <= 0 && errors.Is(err, syscall.EINTR) {
			continue
		}
		return count, err
	}
}

// Write implements net.Conn. On EINTR we resume from the first byte
// that was not written.
func (c *retryConn) Write(p []byte) (int, error) {
	var total int
	for total < len(p) {
		count, err := c.Conn.Write(p[total:])
		total += count
		if err != nil {
			if errors.Is(err, syscall.EINTR) {
				continue
			}
			return total, err
		}
	}
	return total, nil
}

// bufferedConn reads through a [*bufio.Reader] so that the engine
// does not need a syscall for each record header.
type bufferedConn struct {
	net.Conn
	reader *bufio.Reader
}

func newBufferedConn(conn net.Conn) *bufferedConn {
	return &bufferedConn{Conn: conn, reader: bufio.NewReader(conn)}
}

// Read implements net.Conn.
func (c *bufferedConn) Read(p []byte) (int, error) {
	return c.reader.Read(p)
}
