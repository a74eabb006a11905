package mocks

import (
	"context"
	"errors"
	"net"
	"testing"
)

func TestDialer(t *testing.T) {
	t.Run("DialContext", func(t *testing.T) {
		expected := errors.New("mocked error")
		d := &Dialer{
			MockDialContext: func(ctx context.Context, network string, address string) (net.Conn, error) {
				return nil, expected
			},
		}
		conn, err := d.DialContext(context.Background(), "tcp", "8.8.8.8:53")
		if !errors.Is(err, expected) {
			t.Fatal("not the error we expected", err)
		}
		if conn != nil {
			t.Fatal("expected nil conn")
		}
	})

	t.Run("CloseIdleConnections", func(t *testing.T) {
		var called bool
		d := &Dialer{
			MockCloseIdleConnections: func() {
				called = true
			},
		}
		d.CloseIdleConnections()
		if !called {
			t.Fatal("not called")
		}
	})

	t.Run("CloseIdleConnections without mock", func(t *testing.T) {
		d := &Dialer{}
		d.CloseIdleConnections() // must not panic
	})

	t.Run("NewDialerWithConn", func(t *testing.T) {
		expected := &Conn{}
		d := NewDialerWithConn(expected)
		for _, address := range []string{"127.0.0.1:443", "www.example.com:443"} {
			conn, err := d.DialContext(context.Background(), "tcp", address)
			if err != nil {
				t.Fatal(err)
			}
			if conn != expected {
				t.Fatal("unexpected conn")
			}
		}
	})
}
