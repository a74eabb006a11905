package netxlite

//
// Mapping Go errors to failure strings
//

import (
	"context"
	"crypto/x509"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"syscall"
)

// Operations that may fail.
const (
	// ResolveOperation is the operation where we resolve a domain name.
	ResolveOperation = "resolve"

	// ConnectOperation is the operation where we do a TCP connect.
	ConnectOperation = "connect"

	// TLSHandshakeOperation is the TLS handshake.
	TLSHandshakeOperation = "tls_handshake"

	// ReadOperation is when we read from a connection.
	ReadOperation = "read"

	// WriteOperation is when we write to a connection.
	WriteOperation = "write"

	// CloseOperation is when we close a connection.
	CloseOperation = "close"

	// TopLevelOperation is used when the failure happens at top level.
	TopLevelOperation = "top_level"
)

// Failure strings.
const (
	FailureConnectionAborted       = "connection_aborted"
	FailureConnectionAlreadyClosed = "connection_already_closed"
	FailureConnectionRefused       = "connection_refused"
	FailureConnectionReset         = "connection_reset"
	FailureDNSNXDOMAINError        = "dns_nxdomain_error"
	FailureDNSNoAnswer             = "dns_no_answer"
	FailureDNSRefusedError         = "dns_refused_error"
	FailureDNSReplyWithWrongID     = "dns_reply_with_wrong_query_id"
	FailureDNSServerMisbehaving    = "dns_server_misbehaving"
	FailureDNSServfailError        = "dns_servfail_error"
	FailureEOFError                = "eof_error"
	FailureGenericTimeoutError     = "generic_timeout_error"
	FailureHostUnreachable         = "host_unreachable"
	FailureInterrupted             = "interrupted"
	FailureNetworkUnreachable      = "network_unreachable"
	FailureSSLInvalidCertificate   = "ssl_invalid_certificate"
	FailureSSLInvalidHostname      = "ssl_invalid_hostname"
	FailureSSLUnexpectedALPN       = "ssl_unexpected_alpn"
	FailureSSLUnknownAuthority     = "ssl_unknown_authority"
	FailureTimedOut                = "timed_out"
)

// Suffixes of errors returned by the Go resolver.
const (
	DNSNoSuchHostSuffix        = "no such host"
	DNSServerMisbehavingSuffix = "server misbehaving"
	DNSNoAnswerSuffix          = "no answer from DNS server"
)

// ErrConnectionAborted indicates the peer went away (EOF) while the
// TLS handshake was still in progress.
var ErrConnectionAborted = errors.New("connection aborted during the TLS handshake")

// ErrUnexpectedALPN indicates the server negotiated an application
// protocol that we did not ask for.
var ErrUnexpectedALPN = errors.New("unexpected ALPN protocol")

// ClassifyGenericError maps an error occurred during an operation
// to a failure string. This classifier is the most generic one and
// is usually used for mapping I/O errors.
//
// If the input error is an *ErrWrapper we don't perform
// the classification again and we return its Failure.
//
// If everything else fails, this classifier returns a string
// like "unknown_failure: XXX".
func ClassifyGenericError(err error) string {
	var errwrapper *ErrWrapper
	if errors.As(err, &errwrapper) {
		return errwrapper.Error() // we've already wrapped it
	}
	if errors.Is(err, ErrConnectionAborted) {
		return FailureConnectionAborted
	}
	if failure := classifySyscallError(err); failure != "" {
		return failure
	}
	if errors.Is(err, context.Canceled) {
		return FailureInterrupted
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, os.ErrDeadlineExceeded) {
		return FailureGenericTimeoutError
	}
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return FailureEOFError
	}
	if failure := classifyWithStringSuffix(err); failure != "" {
		return failure
	}
	return fmt.Sprintf("unknown_failure: %s", err.Error())
}

// classifySyscallError maps the errno values we care about. Only the
// unix values are matched by errors.Is; on Windows we fall back to
// classifyWithStringSuffix.
func classifySyscallError(err error) string {
	var errno syscall.Errno
	if !errors.As(err, &errno) {
		return ""
	}
	switch errno {
	case syscall.ECONNABORTED:
		return FailureConnectionAborted
	case syscall.ECONNREFUSED:
		return FailureConnectionRefused
	case syscall.ECONNRESET:
		return FailureConnectionReset
	case syscall.EHOSTUNREACH:
		return FailureHostUnreachable
	case syscall.ENETUNREACH:
		return FailureNetworkUnreachable
	case syscall.ETIMEDOUT:
		return FailureTimedOut
	case syscall.EINTR:
		return FailureInterrupted
	}
	return ""
}

// classifyWithStringSuffix performs classification by looking at
// error suffixes. It returns an empty string if it cannot classify.
func classifyWithStringSuffix(err error) string {
	s := err.Error()
	if strings.HasSuffix(s, "operation was canceled") {
		return FailureInterrupted
	}
	if strings.HasSuffix(s, "EOF") {
		return FailureEOFError
	}
	if strings.HasSuffix(s, "i/o timeout") {
		return FailureGenericTimeoutError
	}
	if strings.HasSuffix(s, "TLS handshake timeout") {
		return FailureGenericTimeoutError
	}
	if strings.HasSuffix(s, "connection refused") {
		return FailureConnectionRefused
	}
	if strings.HasSuffix(s, "connection reset by peer") {
		return FailureConnectionReset
	}
	if strings.HasSuffix(s, DNSNoSuchHostSuffix) {
		return FailureDNSNXDOMAINError
	}
	if strings.HasSuffix(s, DNSServerMisbehavingSuffix) {
		return FailureDNSServerMisbehaving
	}
	if strings.HasSuffix(s, DNSNoAnswerSuffix) {
		return FailureDNSNoAnswer
	}
	if strings.HasSuffix(s, "use of closed network connection") {
		return FailureConnectionAlreadyClosed
	}
	return "" // not found
}

// ClassifyResolverError maps DNS resolution errors to failure strings.
//
// If this classifier fails, it calls ClassifyGenericError.
func ClassifyResolverError(err error) string {
	var errwrapper *ErrWrapper
	if errors.As(err, &errwrapper) {
		return errwrapper.Error() // we've already wrapped it
	}
	switch {
	case errors.Is(err, ErrDNSNoSuchHost):
		return FailureDNSNXDOMAINError
	case errors.Is(err, ErrDNSNoAnswer):
		return FailureDNSNoAnswer
	case errors.Is(err, ErrDNSRefused):
		return FailureDNSRefusedError
	case errors.Is(err, ErrDNSServfail):
		return FailureDNSServfailError
	case errors.Is(err, ErrDNSMisbehaving):
		return FailureDNSServerMisbehaving
	case errors.Is(err, ErrDNSReplyWithWrongQueryID):
		return FailureDNSReplyWithWrongID
	}
	return ClassifyGenericError(err)
}

// ClassifyTLSHandshakeError maps errors during a TLS handshake
// to failure strings.
//
// If this classifier fails, it calls ClassifyGenericError.
func ClassifyTLSHandshakeError(err error) string {
	var errwrapper *ErrWrapper
	if errors.As(err, &errwrapper) {
		return errwrapper.Error() // we've already wrapped it
	}
	if errors.Is(err, ErrUnexpectedALPN) {
		return FailureSSLUnexpectedALPN
	}
	var x509HostnameError x509.HostnameError
	if errors.As(err, &x509HostnameError) {
		return FailureSSLInvalidHostname
	}
	var x509UnknownAuthorityError x509.UnknownAuthorityError
	if errors.As(err, &x509UnknownAuthorityError) {
		return FailureSSLUnknownAuthority
	}
	var x509CertificateInvalidError x509.CertificateInvalidError
	if errors.As(err, &x509CertificateInvalidError) {
		return FailureSSLInvalidCertificate
	}
	return ClassifyGenericError(err)
}
