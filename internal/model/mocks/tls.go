package mocks

import (
	"context"
	"crypto/tls"
	"net"

	"github.com/ooni/minihttps/internal/model"
)

// TLSConn allows to mock model.TLSConn.
type TLSConn struct {
	// Conn is the embedded mockable Conn.
	Conn

	// MockConnectionState allows to mock the ConnectionState method.
	MockConnectionState func() tls.ConnectionState

	// MockHandshakeContext allows to mock the HandshakeContext method.
	MockHandshakeContext func(ctx context.Context) error
}

var _ model.TLSConn = &TLSConn{}

// ConnectionState calls MockConnectionState.
func (c *TLSConn) ConnectionState() tls.ConnectionState {
	return c.MockConnectionState()
}

// HandshakeContext calls MockHandshakeContext.
func (c *TLSConn) HandshakeContext(ctx context.Context) error {
	return c.MockHandshakeContext(ctx)
}

// TLSEngine allows to mock model.TLSEngine.
type TLSEngine struct {
	MockClient func(conn net.Conn, config *tls.Config) (model.TLSConn, error)
	MockName   func() string
}

var _ model.TLSEngine = &TLSEngine{}

// Client calls MockClient.
func (e *TLSEngine) Client(conn net.Conn, config *tls.Config) (model.TLSConn, error) {
	return e.MockClient(conn, config)
}

// Name calls MockName.
func (e *TLSEngine) Name() string {
	return e.MockName()
}
