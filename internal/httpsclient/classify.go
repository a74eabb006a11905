package httpsclient

import (
	"errors"

	"github.com/ooni/minihttps/internal/httpwire"
	"github.com/ooni/minihttps/internal/tlsstream"
)

// Kind is the kind of an error returned by this package.
type Kind int

const (
	// KindNone means there was no error.
	KindNone = Kind(iota)

	// KindConnect means we could not connect (DNS, TCP, or TLS).
	KindConnect

	// KindIO means an I/O error after the connection was established.
	KindIO

	// KindParse means the response bytes were garbled.
	KindParse

	// KindRequest means we refused to send the request.
	KindRequest

	// KindUnknown is any other error.
	KindUnknown
)

// String implements fmt.Stringer.
func (k Kind) String() string {
	switch k {
	case KindNone:
		return "ok"
	case KindConnect:
		return "connect"
	case KindIO:
		return "io"
	case KindParse:
		return "parse"
	case KindRequest:
		return "request"
	default:
		return "unknown"
	}
}

// Classify returns the [Kind] of err. Connect errors are generally
// retryable while parse and request errors are not.
func Classify(err error) Kind {
	var (
		connectErr *tlsstream.ConnectError
		ioErr      *tlsstream.IOError
		parseErr   *httpwire.ParseError
	)
	switch {
	case err == nil:
		return KindNone
	case errors.As(err, &connectErr):
		return KindConnect
	case errors.As(err, &ioErr):
		return KindIO
	case errors.As(err, &parseErr):
		return KindParse
	case errors.Is(err, ErrInvalidRequest):
		return KindRequest
	default:
		return KindUnknown
	}
}
