package netxlite

//
// Dialers
//

import (
	"context"
	"errors"
	"net"
	"time"

	"github.com/ooni/minihttps/internal/model"
)

// NewDialerWithResolver creates a dialer using the given resolver and logger.
//
// The returned dialer guarantees:
//
// 1. logging;
//
// 2. error wrapping (resolve and connect failures are distinct);
//
// 3. resolving domain names with the given resolver and trying
// each returned address in sequence.
func NewDialerWithResolver(logger model.DebugLogger, resolver model.Resolver) model.Dialer {
	return NewDialerWithTimeout(logger, resolver, 0)
}

// NewDialerWithTimeout is like NewDialerWithResolver but overrides
// the connect timeout of the system dialer. A zero or negative
// timeout selects the default.
func NewDialerWithTimeout(logger model.DebugLogger, resolver model.Resolver, timeout time.Duration) model.Dialer {
	return &dialerLogger{
		Dialer: &dialerResolver{
			Dialer: &dialerLogger{
				Dialer: &dialerErrWrapper{
					Dialer: &DialerSystem{Timeout: timeout},
				},
				DebugLogger:     logger,
				operationSuffix: "_address",
			},
			Resolver: resolver,
		},
		DebugLogger: logger,
	}
}

// defaultDialTimeout is the default connect timeout.
const defaultDialTimeout = 15 * time.Second

// DialerSystem dials using the Go standard library.
type DialerSystem struct {
	// Timeout is the OPTIONAL connect timeout. If zero or
	// negative, we use a 15 seconds timeout.
	Timeout time.Duration
}

var _ model.Dialer = &DialerSystem{}

func (d *DialerSystem) newUnderlyingDialer() *net.Dialer {
	timeout := d.Timeout
	if timeout <= 0 {
		timeout = defaultDialTimeout
	}
	return &net.Dialer{
		Timeout:   timeout,
		KeepAlive: 15 * time.Second,
	}
}

// DialContext implements model.Dialer.DialContext.
func (d *DialerSystem) DialContext(ctx context.Context, network, address string) (net.Conn, error) {
	conn, err := d.newUnderlyingDialer().DialContext(ctx, network, address)
	if err != nil {
		return nil, err
	}
	if tcpConn, ok := conn.(*net.TCPConn); ok {
		// We write whole TLS records and want them on the wire immediately.
		_ = tcpConn.SetNoDelay(true)
	}
	return conn, nil
}

// CloseIdleConnections implements model.Dialer.CloseIdleConnections.
func (d *DialerSystem) CloseIdleConnections() {
	// nothing to do
}

// dialerResolver is a dialer that uses the configured Resolver to resolve a
// domain name to IP addresses, and the configured Dialer to connect.
type dialerResolver struct {
	// Dialer is the MANDATORY underlying Dialer.
	Dialer model.Dialer

	// Resolver is the MANDATORY underlying Resolver.
	Resolver model.Resolver
}

var _ model.Dialer = &dialerResolver{}

// DialContext implements model.Dialer.DialContext.
func (d *dialerResolver) DialContext(ctx context.Context, network, address string) (net.Conn, error) {
	onlyhost, onlyport, err := net.SplitHostPort(address)
	if err != nil {
		return nil, NewErrWrapper(ClassifyGenericError, ConnectOperation, err)
	}
	addrs, err := d.lookupHost(ctx, onlyhost)
	if err != nil {
		return nil, err
	}
	var errorslist []error
	for _, addr := range addrs {
		target := net.JoinHostPort(addr, onlyport)
		conn, err := d.Dialer.DialContext(ctx, network, target)
		if err == nil {
			return conn, nil
		}
		errorslist = append(errorslist, err)
	}
	return nil, reduceErrors(errorslist)
}

// lookupHost performs a domain name resolution unless hostname is an IP address.
func (d *dialerResolver) lookupHost(ctx context.Context, hostname string) ([]string, error) {
	if net.ParseIP(hostname) != nil {
		return []string{hostname}, nil
	}
	addrs, err := d.Resolver.LookupHost(ctx, hostname)
	if err != nil {
		return nil, NewErrWrapper(ClassifyResolverError, ResolveOperation, err)
	}
	return addrs, nil
}

// CloseIdleConnections implements model.Dialer.CloseIdleConnections.
func (d *dialerResolver) CloseIdleConnections() {
	d.Dialer.CloseIdleConnections()
	d.Resolver.CloseIdleConnections()
}

// ErrNoAddressToDial indicates the resolver returned no address.
var ErrNoAddressToDial = errors.New("no address to dial")

// reduceErrors returns the first connection_refused error, if any,
// otherwise the first error. Refusals are the most informative
// failure when several addresses have been tried.
func reduceErrors(errorslist []error) error {
	if len(errorslist) == 0 {
		return NewErrWrapper(ClassifyGenericError, ConnectOperation, ErrNoAddressToDial)
	}
	for _, err := range errorslist {
		var wrapper *ErrWrapper
		if errors.As(err, &wrapper) && wrapper.Failure == FailureConnectionRefused {
			return err
		}
	}
	return errorslist[0]
}

// dialerLogger is a Dialer with logging.
type dialerLogger struct {
	// Dialer is the MANDATORY underlying dialer.
	Dialer model.Dialer

	// DebugLogger is the MANDATORY underlying logger.
	DebugLogger model.DebugLogger

	// operationSuffix is appended to the operation name.
	//
	// We use this suffix to distinguish dialing a domain name
	// from dialing each of the IP addresses it resolves to.
	operationSuffix string
}

var _ model.Dialer = &dialerLogger{}

// DialContext implements model.Dialer.DialContext.
func (d *dialerLogger) DialContext(ctx context.Context, network, address string) (net.Conn, error) {
	d.DebugLogger.Debugf("dial%s %s/%s...", d.operationSuffix, address, network)
	start := time.Now()
	conn, err := d.Dialer.DialContext(ctx, network, address)
	elapsed := time.Since(start)
	if err != nil {
		d.DebugLogger.Debugf("dial%s %s/%s... %s in %s", d.operationSuffix,
			address, network, err, elapsed)
		return nil, err
	}
	d.DebugLogger.Debugf("dial%s %s/%s... ok in %s", d.operationSuffix,
		address, network, elapsed)
	return conn, nil
}

// CloseIdleConnections implements model.Dialer.CloseIdleConnections.
func (d *dialerLogger) CloseIdleConnections() {
	d.Dialer.CloseIdleConnections()
}

// dialerErrWrapper is a dialer that performs error wrapping.
type dialerErrWrapper struct {
	Dialer model.Dialer
}

var _ model.Dialer = &dialerErrWrapper{}

// DialContext implements model.Dialer.DialContext.
func (d *dialerErrWrapper) DialContext(ctx context.Context, network, address string) (net.Conn, error) {
	conn, err := d.Dialer.DialContext(ctx, network, address)
	if err != nil {
		return nil, NewErrWrapper(ClassifyGenericError, ConnectOperation, err)
	}
	return conn, nil
}

// CloseIdleConnections implements model.Dialer.CloseIdleConnections.
func (d *dialerErrWrapper) CloseIdleConnections() {
	d.Dialer.CloseIdleConnections()
}
