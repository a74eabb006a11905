package httpwire

import "errors"

// Kinds of errors returned when parsing.
var (
	// ErrEmpty means the input is empty.
	ErrEmpty = errors.New("httpwire: empty input")

	// ErrInvalidStatusLine means the status line is malformed.
	ErrInvalidStatusLine = errors.New("httpwire: invalid status line")

	// ErrInvalidRequestLine means the request line is malformed.
	ErrInvalidRequestLine = errors.New("httpwire: invalid request line")

	// ErrNoHeaders means we did not find the blank line ending the headers.
	ErrNoHeaders = errors.New("httpwire: headers not terminated")

	// ErrInvalidHeader means a header line lacks the ": " separator.
	ErrInvalidHeader = errors.New("httpwire: invalid header line")

	// ErrNumberParse means we could not parse a number.
	ErrNumberParse = errors.New("httpwire: cannot parse number")

	// ErrTextDecode means the status line or a header line is not valid UTF-8.
	ErrTextDecode = errors.New("httpwire: invalid UTF-8")

	// ErrUnsupportedEncoding means the Transfer-Encoding is not chunked.
	ErrUnsupportedEncoding = errors.New("httpwire: unsupported transfer encoding")

	// ErrTruncated means the input ended before the end of the body.
	ErrTruncated = errors.New("httpwire: truncated input")

	// ErrInvalidChunk means a chunk payload is not followed by CRLF.
	ErrInvalidChunk = errors.New("httpwire: invalid chunk")

	// ErrBodyUntilEOF means the body length is only known once the
	// peer closes the connection.
	ErrBodyUntilEOF = errors.New("httpwire: body delimited by EOF")
)

// ParseError is the error returned when parsing fails. The Kind is one
// of the ErrXXX variables of this package and Err is the OPTIONAL
// underlying cause. Both match with errors.Is.
type ParseError struct {
	Kind error
	Err  error
}

// Error implements error.
func (e *ParseError) Error() string {
	if e.Err == nil {
		return e.Kind.Error()
	}
	return e.Kind.Error() + ": " + e.Err.Error()
}

// Unwrap allows errors.Is and errors.As to see both errors.
func (e *ParseError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func newParseError(kind, err error) *ParseError {
	return &ParseError{Kind: kind, Err: err}
}

// IsIncomplete returns whether err means that more input could
// turn a failed parse into a successful one.
func IsIncomplete(err error) bool {
	return errors.Is(err, ErrEmpty) || errors.Is(err, ErrNoHeaders) ||
		errors.Is(err, ErrTruncated) || errors.Is(err, ErrBodyUntilEOF)
}
