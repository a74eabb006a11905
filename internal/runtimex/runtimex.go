// Package runtimex contains runtime extensions. This package is inspired to
// https://pkg.go.dev/github.com/m-lab/go/rtx, except that it's simpler.
package runtimex

import (
	"fmt"

	"github.com/ooni/minihttps/internal/model"
)

// PanicOnError calls panic() if err is not nil.
func PanicOnError(err error, message string) {
	if err != nil {
		panic(fmt.Errorf("%s: %w", message, err))
	}
}

// Assert calls panic if assertion is false.
func Assert(assertion bool, message string) {
	if !assertion {
		panic(message)
	}
}

// Try0 panics if err is not nil.
func Try0(err error) {
	PanicOnError(err, "Try0")
}

// Try1 is like Try0 but supports functions returning one value and an error.
func Try1[T1 any](v1 T1, err error) T1 {
	PanicOnError(err, "Try1")
	return v1
}

// Try2 is like Try1 but supports functions returning two values and an error.
func Try2[T1, T2 any](v1 T1, v2 T2, err error) (T1, T2) {
	PanicOnError(err, "Try2")
	return v1, v2
}

// CatchLogAndIgnorePanic recovers from a panic, if any, and logs it
// as a warning. It MUST be called as a deferred function.
func CatchLogAndIgnorePanic(logger model.Logger, prefix string) {
	if r := recover(); r != nil {
		logger.Warnf("%s: caught panic: %+v", prefix, r)
	}
}
