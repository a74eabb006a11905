package httpwire

import (
	"errors"
	"fmt"
	"strings"
)

// Method is an HTTP request method.
type Method string

// Supported methods.
const (
	MethodGet     = Method("GET")
	MethodPost    = Method("POST")
	MethodPut     = Method("PUT")
	MethodPatch   = Method("PATCH")
	MethodDelete  = Method("DELETE")
	MethodHead    = Method("HEAD")
	MethodConnect = Method("CONNECT")
	MethodOptions = Method("OPTIONS")
)

// String implements fmt.Stringer.
func (m Method) String() string {
	return string(m)
}

// Valid returns whether m is one of the supported methods.
func (m Method) Valid() bool {
	switch m {
	case MethodGet, MethodPost, MethodPut, MethodPatch, MethodDelete,
		MethodHead, MethodConnect, MethodOptions:
		return true
	default:
		return false
	}
}

// ErrUnknownMethod indicates that a method is not supported.
var ErrUnknownMethod = errors.New("httpwire: unknown method")

// ParseMethod converts s, in any case, to a supported Method.
func ParseMethod(s string) (Method, error) {
	m := Method(strings.ToUpper(s))
	if !m.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownMethod, s)
	}
	return m, nil
}
