package mocks

import (
	"context"

	"github.com/ooni/minihttps/internal/model"
)

// Resolver is a mockable Resolver.
type Resolver struct {
	MockLookupHost           func(ctx context.Context, domain string) ([]string, error)
	MockNetwork              func() string
	MockAddress              func() string
	MockCloseIdleConnections func()
}

var _ model.Resolver = &Resolver{}

// NewResolverWithAddrs returns a "mocked" Resolver resolving every
// domain to addrs. Tests use it to point names such as www.example.com
// to a local server.
func NewResolverWithAddrs(addrs ...string) *Resolver {
	return newStaticResolver(addrs, nil)
}

// NewResolverWithError returns a "mocked" Resolver failing every
// lookup with err.
func NewResolverWithError(err error) *Resolver {
	return newStaticResolver(nil, err)
}

func newStaticResolver(addrs []string, err error) *Resolver {
	return &Resolver{
		MockLookupHost: func(ctx context.Context, domain string) ([]string, error) {
			if err != nil {
				return nil, err
			}
			return append([]string{}, addrs...), nil
		},
		MockNetwork: func() string {
			return "mocked"
		},
		MockAddress: func() string {
			return ""
		},
		MockCloseIdleConnections: func() {},
	}
}

// LookupHost calls MockLookupHost.
func (r *Resolver) LookupHost(ctx context.Context, domain string) ([]string, error) {
	return r.MockLookupHost(ctx, domain)
}

// Network calls MockNetwork.
func (r *Resolver) Network() string {
	return r.MockNetwork()
}

// Address calls MockAddress.
func (r *Resolver) Address() string {
	return r.MockAddress()
}

// CloseIdleConnections calls MockCloseIdleConnections.
func (r *Resolver) CloseIdleConnections() {
	r.MockCloseIdleConnections()
}
