package netxlite

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/ooni/minihttps/internal/model"
	"github.com/ooni/minihttps/internal/model/mocks"
)

func TestNewStdlibResolver(t *testing.T) {
	reso := NewStdlibResolver(model.DiscardLogger)
	rl := reso.(*resolverLogger)
	if _, ok := rl.Resolver.(*resolverSystem); !ok {
		t.Fatal("invalid underlying resolver")
	}
	if reso.Network() != "system" || reso.Address() != "" {
		t.Fatal("invalid network or address")
	}
	reso.CloseIdleConnections() // should not crash
}

func TestNewResolverFromURL(t *testing.T) {
	t.Run("with empty URL", func(t *testing.T) {
		reso, err := NewResolverFromURL(model.DiscardLogger, "")
		if err != nil {
			t.Fatal(err)
		}
		if reso.Network() != "system" {
			t.Fatal("unexpected network", reso.Network())
		}
	})

	t.Run("with system URL", func(t *testing.T) {
		reso, err := NewResolverFromURL(model.DiscardLogger, "system:///")
		if err != nil {
			t.Fatal(err)
		}
		if reso.Network() != "system" {
			t.Fatal("unexpected network", reso.Network())
		}
	})

	t.Run("with UDP URL and port", func(t *testing.T) {
		reso, err := NewResolverFromURL(model.DiscardLogger, "udp://8.8.8.8:5353")
		if err != nil {
			t.Fatal(err)
		}
		if reso.Network() != "udp" || reso.Address() != "8.8.8.8:5353" {
			t.Fatal("unexpected resolver", reso.Network(), reso.Address())
		}
	})

	t.Run("with UDP URL without port", func(t *testing.T) {
		reso, err := NewResolverFromURL(model.DiscardLogger, "udp://1.1.1.1")
		if err != nil {
			t.Fatal(err)
		}
		if reso.Address() != "1.1.1.1:53" {
			t.Fatal("unexpected address", reso.Address())
		}
	})

	t.Run("with unsupported scheme", func(t *testing.T) {
		reso, err := NewResolverFromURL(model.DiscardLogger, "https://dns.google/dns-query")
		if !errors.Is(err, ErrUnsupportedResolverURL) {
			t.Fatal("not the error we expected", err)
		}
		if reso != nil {
			t.Fatal("expected nil resolver")
		}
	})

	t.Run("with invalid URL", func(t *testing.T) {
		_, err := NewResolverFromURL(model.DiscardLogger, "\t")
		if err == nil {
			t.Fatal("expected an error")
		}
	})
}

func TestResolverSystem(t *testing.T) {
	t.Run("uses the testable lookup function", func(t *testing.T) {
		r := &resolverSystem{
			testableLookupHost: func(ctx context.Context, domain string) ([]string, error) {
				return []string{"130.192.91.211"}, nil
			},
		}
		addrs, err := r.LookupHost(context.Background(), "ooni.org")
		if err != nil {
			t.Fatal(err)
		}
		if diff := cmp.Diff([]string{"130.192.91.211"}, addrs); diff != "" {
			t.Fatal(diff)
		}
	})

	t.Run("resolves localhost", func(t *testing.T) {
		r := &resolverSystem{}
		addrs, err := r.LookupHost(context.Background(), "localhost")
		if err != nil {
			t.Fatal(err)
		}
		if len(addrs) < 1 {
			t.Fatal("expected at least one address")
		}
	})
}

func TestResolverLogger(t *testing.T) {
	newResolver := func(addrs []string, err error) *mocks.Resolver {
		return &mocks.Resolver{
			MockLookupHost: func(ctx context.Context, domain string) ([]string, error) {
				return addrs, err
			},
			MockNetwork: func() string {
				return "mocked"
			},
			MockAddress: func() string {
				return "1.1.1.1:53"
			},
		}
	}

	t.Run("on success", func(t *testing.T) {
		var count int
		r := &resolverLogger{
			Resolver: newResolver([]string{"1.1.1.1"}, nil),
			Logger: &mocks.Logger{
				MockDebugf: func(format string, v ...interface{}) {
					count++
				},
			},
		}
		addrs, err := r.LookupHost(context.Background(), "dns.google")
		if err != nil {
			t.Fatal(err)
		}
		if diff := cmp.Diff([]string{"1.1.1.1"}, addrs); diff != "" {
			t.Fatal(diff)
		}
		if count != 2 {
			t.Fatal("unexpected count", count)
		}
	})

	t.Run("on failure", func(t *testing.T) {
		var count int
		r := &resolverLogger{
			Resolver: newResolver(nil, ErrDNSNoSuchHost),
			Logger: &mocks.Logger{
				MockDebugf: func(format string, v ...interface{}) {
					count++
				},
			},
		}
		addrs, err := r.LookupHost(context.Background(), "dns.google")
		if !errors.Is(err, ErrDNSNoSuchHost) {
			t.Fatal("not the error we expected", err)
		}
		if addrs != nil {
			t.Fatal("expected nil addrs")
		}
		if count != 2 {
			t.Fatal("unexpected count", count)
		}
	})
}
