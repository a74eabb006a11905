package mocks

import (
	"context"
	"crypto/tls"
	"errors"
	"net"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/ooni/minihttps/internal/model"
)

func TestTLSConn(t *testing.T) {
	t.Run("ConnectionState", func(t *testing.T) {
		state := tls.ConnectionState{Version: tls.VersionTLS13}
		c := &TLSConn{
			MockConnectionState: func() tls.ConnectionState {
				return state
			},
		}
		if c.ConnectionState().Version != tls.VersionTLS13 {
			t.Fatal("unexpected connection state")
		}
	})

	t.Run("HandshakeContext", func(t *testing.T) {
		expected := errors.New("mocked error")
		c := &TLSConn{
			MockHandshakeContext: func(ctx context.Context) error {
				return expected
			},
		}
		if err := c.HandshakeContext(context.Background()); !errors.Is(err, expected) {
			t.Fatal("not the error we expected", err)
		}
	})
}

func TestTLSEngine(t *testing.T) {
	t.Run("Client", func(t *testing.T) {
		expected := errors.New("mocked error")
		e := &TLSEngine{
			MockClient: func(conn net.Conn, config *tls.Config) (model.TLSConn, error) {
				return nil, expected
			},
		}
		conn, err := e.Client(&Conn{}, &tls.Config{})
		if !errors.Is(err, expected) {
			t.Fatal("not the error we expected", err)
		}
		if conn != nil {
			t.Fatal("expected nil conn")
		}
	})

	t.Run("Name", func(t *testing.T) {
		e := &TLSEngine{
			MockName: func() string {
				return "stdlib"
			},
		}
		if diff := cmp.Diff("stdlib", e.Name()); diff != "" {
			t.Fatal(diff)
		}
	})
}
