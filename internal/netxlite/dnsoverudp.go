package netxlite

//
// DNS-over-UDP resolver
//

import (
	"context"
	"time"

	"github.com/miekg/dns"
	"github.com/ooni/minihttps/internal/model"
)

// NewResolverUDP creates a resolver sending A and AAAA queries to the
// DNS server at address (e.g., 8.8.8.8:53) using the given dialer.
func NewResolverUDP(logger model.DebugLogger, dialer model.Dialer, address string) model.Resolver {
	return &resolverLogger{
		Resolver: &resolverUDP{
			address: address,
			dialer:  dialer,
			timeout: 5 * time.Second,
		},
		Logger: logger,
	}
}

// resolverUDP is a serial DNS-over-UDP resolver.
type resolverUDP struct {
	// address is the server address.
	address string

	// dialer is the dialer for creating UDP "connections".
	dialer model.Dialer

	// timeout is the per-query I/O timeout.
	timeout time.Duration
}

var _ model.Resolver = &resolverUDP{}

// LookupHost implements model.Resolver. We query for A first and for
// AAAA next; we fail only when both queries fail.
func (r *resolverUDP) LookupHost(ctx context.Context, hostname string) ([]string, error) {
	addrsA, errA := r.lookup(ctx, hostname, dns.TypeA)
	addrsAAAA, errAAAA := r.lookup(ctx, hostname, dns.TypeAAAA)
	if errA != nil && errAAAA != nil {
		return nil, errA
	}
	return append(addrsA, addrsAAAA...), nil
}

func (r *resolverUDP) lookup(ctx context.Context, hostname string, qtype uint16) ([]string, error) {
	query := new(dns.Msg)
	query.Id = dns.Id()
	query.RecursionDesired = true
	query.Question = []dns.Question{{
		Name:   dns.Fqdn(hostname),
		Qtype:  qtype,
		Qclass: dns.ClassINET,
	}}
	rawQuery, err := query.Pack()
	if err != nil {
		return nil, err
	}
	rawReply, err := r.roundTrip(ctx, rawQuery)
	if err != nil {
		return nil, err
	}
	return decodeLookupHost(qtype, rawReply, query.Id)
}

// roundTrip sends a query and receives a reply.
func (r *resolverUDP) roundTrip(ctx context.Context, rawQuery []byte) ([]byte, error) {
	conn, err := r.dialer.DialContext(ctx, "udp", r.address)
	if err != nil {
		return nil, err
	}
	defer conn.Close()
	if err := conn.SetDeadline(time.Now().Add(r.timeout)); err != nil {
		return nil, err
	}
	if _, err := conn.Write(rawQuery); err != nil {
		return nil, err
	}
	buffer := make([]byte, 1<<17)
	count, err := conn.Read(buffer)
	if err != nil {
		return nil, err
	}
	return buffer[:count], nil
}

// decodeLookupHost decodes the reply to an A or AAAA query.
func decodeLookupHost(qtype uint16, data []byte, queryID uint16) ([]string, error) {
	reply := new(dns.Msg)
	if err := reply.Unpack(data); err != nil {
		return nil, err
	}
	if reply.Id != queryID {
		return nil, ErrDNSReplyWithWrongQueryID
	}
	switch reply.Rcode {
	case dns.RcodeSuccess:
	case dns.RcodeNameError:
		return nil, ErrDNSNoSuchHost
	case dns.RcodeRefused:
		return nil, ErrDNSRefused
	case dns.RcodeServerFailure:
		return nil, ErrDNSServfail
	default:
		return nil, ErrDNSMisbehaving
	}
	var addrs []string
	for _, answer := range reply.Answer {
		switch rr := answer.(type) {
		case *dns.A:
			if qtype == dns.TypeA {
				addrs = append(addrs, rr.A.String())
			}
		case *dns.AAAA:
			if qtype == dns.TypeAAAA {
				addrs = append(addrs, rr.AAAA.String())
			}
		}
	}
	if len(addrs) <= 0 {
		return nil, ErrDNSNoAnswer
	}
	return addrs, nil
}

func (r *resolverUDP) Network() string {
	return "udp"
}

func (r *resolverUDP) Address() string {
	return r.address
}

func (r *resolverUDP) CloseIdleConnections() {
	r.dialer.CloseIdleConnections()
}
