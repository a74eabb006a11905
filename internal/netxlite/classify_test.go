package netxlite

import (
	"context"
	"crypto/x509"
	"errors"
	"fmt"
	"io"
	"os"
	"syscall"
	"testing"
)

func TestClassifyGenericError(t *testing.T) {
	var cases = []struct {
		name   string
		input  error
		expect string
	}{{
		name:   "for input being already an ErrWrapper",
		input:  &ErrWrapper{Failure: FailureConnectionReset},
		expect: FailureConnectionReset,
	}, {
		name:   "for connection aborted during the handshake",
		input:  fmt.Errorf("tls: %w", ErrConnectionAborted),
		expect: FailureConnectionAborted,
	}, {
		name:   "for ECONNREFUSED",
		input:  &os.SyscallError{Syscall: "connect", Err: syscall.ECONNREFUSED},
		expect: FailureConnectionRefused,
	}, {
		name:   "for ECONNRESET",
		input:  syscall.ECONNRESET,
		expect: FailureConnectionReset,
	}, {
		name:   "for EHOSTUNREACH",
		input:  syscall.EHOSTUNREACH,
		expect: FailureHostUnreachable,
	}, {
		name:   "for ENETUNREACH",
		input:  syscall.ENETUNREACH,
		expect: FailureNetworkUnreachable,
	}, {
		name:   "for ETIMEDOUT",
		input:  syscall.ETIMEDOUT,
		expect: FailureTimedOut,
	}, {
		name:   "for context.Canceled",
		input:  context.Canceled,
		expect: FailureInterrupted,
	}, {
		name:   "for context.DeadlineExceeded",
		input:  context.DeadlineExceeded,
		expect: FailureGenericTimeoutError,
	}, {
		name:   "for os.ErrDeadlineExceeded",
		input:  os.ErrDeadlineExceeded,
		expect: FailureGenericTimeoutError,
	}, {
		name:   "for io.EOF",
		input:  io.EOF,
		expect: FailureEOFError,
	}, {
		name:   "for io.ErrUnexpectedEOF",
		input:  io.ErrUnexpectedEOF,
		expect: FailureEOFError,
	}, {
		name:   "for i/o timeout",
		input:  errors.New("read tcp 1.2.3.4:443: i/o timeout"),
		expect: FailureGenericTimeoutError,
	}, {
		name:   "for TLS handshake timeout",
		input:  errors.New("net/http: TLS handshake timeout"),
		expect: FailureGenericTimeoutError,
	}, {
		name:   "for no such host",
		input:  errors.New("lookup x.example: " + DNSNoSuchHostSuffix),
		expect: FailureDNSNXDOMAINError,
	}, {
		name:   "for use of closed network connection",
		input:  errors.New("read tcp: use of closed network connection"),
		expect: FailureConnectionAlreadyClosed,
	}, {
		name:   "for an unknown error",
		input:  errors.New("antani"),
		expect: "unknown_failure: antani",
	}}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ClassifyGenericError(tc.input); got != tc.expect {
				t.Fatalf("expected %s, got %s", tc.expect, got)
			}
		})
	}
}

func TestClassifyResolverError(t *testing.T) {
	var cases = []struct {
		input  error
		expect string
	}{
		{ErrDNSNoSuchHost, FailureDNSNXDOMAINError},
		{ErrDNSNoAnswer, FailureDNSNoAnswer},
		{ErrDNSRefused, FailureDNSRefusedError},
		{ErrDNSServfail, FailureDNSServfailError},
		{ErrDNSMisbehaving, FailureDNSServerMisbehaving},
		{ErrDNSReplyWithWrongQueryID, FailureDNSReplyWithWrongID},
		{&ErrWrapper{Failure: FailureDNSNoAnswer}, FailureDNSNoAnswer},
		{io.EOF, FailureEOFError},
	}
	for _, tc := range cases {
		t.Run(tc.input.Error(), func(t *testing.T) {
			if got := ClassifyResolverError(tc.input); got != tc.expect {
				t.Fatalf("expected %s, got %s", tc.expect, got)
			}
		})
	}
}

func TestClassifyTLSHandshakeError(t *testing.T) {
	t.Run("for x509.HostnameError", func(t *testing.T) {
		var err x509.HostnameError
		if got := ClassifyTLSHandshakeError(err); got != FailureSSLInvalidHostname {
			t.Fatal("unexpected failure", got)
		}
	})

	t.Run("for x509.UnknownAuthorityError", func(t *testing.T) {
		var err x509.UnknownAuthorityError
		if got := ClassifyTLSHandshakeError(err); got != FailureSSLUnknownAuthority {
			t.Fatal("unexpected failure", got)
		}
	})

	t.Run("for x509.CertificateInvalidError", func(t *testing.T) {
		var err x509.CertificateInvalidError
		if got := ClassifyTLSHandshakeError(err); got != FailureSSLInvalidCertificate {
			t.Fatal("unexpected failure", got)
		}
	})

	t.Run("for ErrUnexpectedALPN", func(t *testing.T) {
		err := fmt.Errorf("%w: %q", ErrUnexpectedALPN, "h2")
		if got := ClassifyTLSHandshakeError(err); got != FailureSSLUnexpectedALPN {
			t.Fatal("unexpected failure", got)
		}
	})

	t.Run("for an already wrapped error", func(t *testing.T) {
		err := &ErrWrapper{Failure: FailureConnectionAborted}
		if got := ClassifyTLSHandshakeError(err); got != FailureConnectionAborted {
			t.Fatal("unexpected failure", got)
		}
	})

	t.Run("for another kind of error", func(t *testing.T) {
		if got := ClassifyTLSHandshakeError(io.EOF); got != FailureEOFError {
			t.Fatal("unexpected failure", got)
		}
	})
}
