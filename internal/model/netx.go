package model

//
// Network extensions
//

import (
	"context"
	"crypto/tls"
	"net"
)

// Dialer establishes network connections.
type Dialer interface {
	// DialContext behaves like net.Dialer.DialContext.
	DialContext(ctx context.Context, network, address string) (net.Conn, error)

	// CloseIdleConnections closes idle connections, if any.
	CloseIdleConnections()
}

// Resolver performs domain name resolutions.
type Resolver interface {
	// LookupHost behaves like net.Resolver.LookupHost.
	LookupHost(ctx context.Context, hostname string) (addrs []string, err error)

	// Network returns the resolver type (e.g., system, udp).
	Network() string

	// Address returns the resolver address (e.g., 8.8.8.8:53).
	Address() string

	// CloseIdleConnections closes idle connections, if any.
	CloseIdleConnections()
}

// TLSConn is a TLS session layered over a raw net.Conn. Both the
// stdlib's *tls.Conn and our uTLS wrapper implement this interface.
//
// Creating a TLSConn does not perform any I/O: the handshake runs
// when HandshakeContext is called, or lazily on the first Read or
// Write, and consumes records from the underlying connection.
type TLSConn interface {
	// ConnectionState returns the TLS connection state.
	ConnectionState() tls.ConnectionState

	// HandshakeContext runs the handshake, if not already done.
	HandshakeContext(ctx context.Context) error

	// A TLSConn is also a net.Conn.
	net.Conn
}

// TLSEngine creates the client side of TLS sessions.
type TLSEngine interface {
	// Client creates a new client TLSConn on top of conn using the
	// given config. This function does not perform any I/O and does not
	// take ownership of conn on failure.
	Client(conn net.Conn, config *tls.Config) (TLSConn, error)

	// Name returns the engine name (e.g., "stdlib", "utls_chrome").
	Name() string
}
