package httpsclient

import (
	"errors"
	"fmt"

	"github.com/ooni/minihttps/internal/httpwire"
	"golang.org/x/net/http/httpguts"
)

// ErrInvalidRequest indicates that we refused to send a request.
var ErrInvalidRequest = errors.New("httpsclient: invalid request")

func validateRequest(method httpwire.Method, route string, header *httpwire.Header) error {
	if !method.Valid() {
		return fmt.Errorf("%w: unknown method %q", ErrInvalidRequest, method)
	}
	// CONNECT needs an authority-form target, which URLs cannot express
	if method == httpwire.MethodConnect {
		return fmt.Errorf("%w: CONNECT is not supported", ErrInvalidRequest)
	}
	if !validRoute(route) {
		return fmt.Errorf("%w: invalid route %q", ErrInvalidRequest, route)
	}
	for name, value := range header.All() {
		if !httpguts.ValidHeaderFieldName(name) {
			return fmt.Errorf("%w: invalid header name %q", ErrInvalidRequest, name)
		}
		if !httpguts.ValidHeaderFieldValue(value) {
			return fmt.Errorf("%w: invalid value for header %q", ErrInvalidRequest, name)
		}
	}
	return nil
}

func validRoute(route string) bool {
	if route == "" || route[0] != '/' {
		return false
	}
	for _, c := range []byte(route) {
		if c <= ' ' || c == 0x7f {
			return false
		}
	}
	return true
}
