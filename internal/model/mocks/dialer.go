package mocks

import (
	"context"
	"net"

	"github.com/ooni/minihttps/internal/model"
)

// Dialer is a mockable Dialer. A nil MockCloseIdleConnections
// makes CloseIdleConnections a no-op.
type Dialer struct {
	MockDialContext          func(ctx context.Context, network, address string) (net.Conn, error)
	MockCloseIdleConnections func()
}

var _ model.Dialer = &Dialer{}

// NewDialerWithConn returns a Dialer whose DialContext always
// returns conn, whatever the address.
func NewDialerWithConn(conn net.Conn) *Dialer {
	return &Dialer{
		MockDialContext: func(ctx context.Context, network, address string) (net.Conn, error) {
			return conn, nil
		},
	}
}

// DialContext calls MockDialContext.
func (d *Dialer) DialContext(ctx context.Context, network, address string) (net.Conn, error) {
	return d.MockDialContext(ctx, network, address)
}

// CloseIdleConnections calls MockCloseIdleConnections, if set.
func (d *Dialer) CloseIdleConnections() {
	if d.MockCloseIdleConnections != nil {
		d.MockCloseIdleConnections()
	}
}
