package tlsstream

import (
	"errors"
	"fmt"
	"os"
)

// ConnectError is the error returned when we cannot establish a
// working TLS session with the remote endpoint. This includes failing
// to resolve or connect, an invalid server name, a rejected handshake,
// and the peer closing the connection mid-handshake.
type ConnectError struct {
	// Address is the endpoint we were connecting to.
	Address string

	// Err is the underlying error.
	Err error
}

// Error implements error.
func (e *ConnectError) Error() string {
	return fmt.Sprintf("tlsstream: connect %s: %s", e.Address, e.Err.Error())
}

// Unwrap allows to access the underlying error.
func (e *ConnectError) Unwrap() error {
	return e.Err
}

// IOError is the error returned when reading from or writing to an
// established stream fails.
type IOError struct {
	// Op is the operation that failed (e.g., "read").
	Op string

	// Err is the underlying error.
	Err error
}

// Error implements error.
func (e *IOError) Error() string {
	return fmt.Sprintf("tlsstream: %s: %s", e.Op, e.Err.Error())
}

// Unwrap allows to access the underlying error.
func (e *IOError) Unwrap() error {
	return e.Err
}

// ErrStreamClosed indicates that the stream has already been closed.
var ErrStreamClosed = errors.New("use of closed stream")

// IsWouldBlock returns whether err means that no data was available
// before the read deadline expired. This is not fatal for the stream.
func IsWouldBlock(err error) bool {
	return errors.Is(err, os.ErrDeadlineExceeded)
}
