package bytecounter

//
// Counting the bytes moved by the raw socket of a stream
//

import "net"

// countingConn reports the bytes moved by each Read and Write to a
// [*Counter]. A call that fails after moving some bytes still counts
// them, so the totals match what crossed the socket.
type countingConn struct {
	net.Conn
	counter *Counter
}

// WrapConn returns a conn reporting to counter the bytes it sends and
// receives. A nil counter means we don't count and conn is returned
// as is, so callers can wrap unconditionally.
func WrapConn(conn net.Conn, counter *Counter) net.Conn {
	if counter == nil {
		return conn
	}
	return &countingConn{Conn: conn, counter: counter}
}

// Read implements net.Conn.
func (c *countingConn) Read(p []byte) (int, error) {
	count, err := c.Conn.Read(p)
	c.counter.CountBytesReceived(count)
	return count, err
}

// Write implements net.Conn.
func (c *countingConn) Write(p []byte) (int, error) {
	count, err := c.Conn.Write(p)
	c.counter.CountBytesSent(count)
	return count, err
}
