package netxlite

//
// Resolvers
//

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"time"

	"github.com/ooni/minihttps/internal/model"
)

// Errors returned by our resolvers. They end with the same suffixes
// used by the Go resolver so that string classification still works.
var (
	ErrDNSNoSuchHost            = fmt.Errorf("dnsx: %s", DNSNoSuchHostSuffix)
	ErrDNSNoAnswer              = fmt.Errorf("dnsx: %s", DNSNoAnswerSuffix)
	ErrDNSMisbehaving           = fmt.Errorf("dnsx: %s", DNSServerMisbehavingSuffix)
	ErrDNSRefused               = errors.New("dnsx: query refused")
	ErrDNSServfail              = errors.New("dnsx: server failure")
	ErrDNSReplyWithWrongQueryID = errors.New("dnsx: reply with wrong query ID")
)

// NewStdlibResolver creates a new resolver using the Go standard
// library (or getaddrinfo when cgo is enabled) with logging.
func NewStdlibResolver(logger model.DebugLogger) model.Resolver {
	return &resolverLogger{
		Resolver: &resolverSystem{},
		Logger:   logger,
	}
}

// ErrUnsupportedResolverURL indicates the resolver URL uses a scheme
// we don't know how to handle.
var ErrUnsupportedResolverURL = errors.New("unsupported resolver URL")

// NewResolverFromURL creates a resolver from its URL. Recognized
// URLs are the empty string and `system:///`, which select the
// system resolver, and `udp://<ip>:<port>`, which selects a
// DNS-over-UDP resolver talking to the given server.
func NewResolverFromURL(logger model.DebugLogger, resolverURL string) (model.Resolver, error) {
	if resolverURL == "" {
		return NewStdlibResolver(logger), nil
	}
	parsed, err := url.Parse(resolverURL)
	if err != nil {
		return nil, err
	}
	switch parsed.Scheme {
	case "system":
		return NewStdlibResolver(logger), nil
	case "udp":
		address := parsed.Host
		if _, _, err := net.SplitHostPort(address); err != nil {
			address = net.JoinHostPort(address, "53")
		}
		return NewResolverUDP(logger, &DialerSystem{}, address), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedResolverURL, resolverURL)
	}
}

// resolverSystem is the system resolver.
type resolverSystem struct {
	// testableLookupHost is the OPTIONAL lookup function used by tests.
	testableLookupHost func(ctx context.Context, domain string) ([]string, error)
}

var _ model.Resolver = &resolverSystem{}

func (r *resolverSystem) LookupHost(ctx context.Context, hostname string) ([]string, error) {
	if r.testableLookupHost != nil {
		return r.testableLookupHost(ctx, hostname)
	}
	return net.DefaultResolver.LookupHost(ctx, hostname)
}

func (r *resolverSystem) Network() string {
	return "system"
}

func (r *resolverSystem) Address() string {
	return ""
}

func (r *resolverSystem) CloseIdleConnections() {
	// nothing to do
}

// resolverLogger is a resolver that emits events.
type resolverLogger struct {
	Resolver model.Resolver
	Logger   model.DebugLogger
}

var _ model.Resolver = &resolverLogger{}

func (r *resolverLogger) LookupHost(ctx context.Context, hostname string) ([]string, error) {
	prefix := fmt.Sprintf("resolve[A,AAAA] %s with %s (%s)", hostname, r.Network(), r.Address())
	r.Logger.Debugf("%s...", prefix)
	start := time.Now()
	addrs, err := r.Resolver.LookupHost(ctx, hostname)
	elapsed := time.Since(start)
	if err != nil {
		r.Logger.Debugf("%s... %s in %s", prefix, err, elapsed)
		return nil, err
	}
	r.Logger.Debugf("%s... %+v in %s", prefix, addrs, elapsed)
	return addrs, nil
}

func (r *resolverLogger) Network() string {
	return r.Resolver.Network()
}

func (r *resolverLogger) Address() string {
	return r.Resolver.Address()
}

func (r *resolverLogger) CloseIdleConnections() {
	r.Resolver.CloseIdleConnections()
}
