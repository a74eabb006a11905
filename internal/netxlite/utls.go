package netxlite

//
// Code to use yawning/utls or refraction-networking/utls
//

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"

	"github.com/ooni/minihttps/internal/model"
	utls "gitlab.com/yawning/utls.git"
)

// ErrUnknownParrot indicates we don't know the requested uTLS parrot.
var ErrUnknownParrot = errors.New("unknown TLS parrot")

// utlsParrots maps parrot names to ClientHello fingerprints.
var utlsParrots = map[string]*utls.ClientHelloID{
	"chrome":  &utls.HelloChrome_Auto,
	"firefox": &utls.HelloFirefox_Auto,
}

// NewTLSEngineUTLS returns a TLS engine that parrots the ClientHello
// of the browser called name (e.g., "chrome", "firefox").
func NewTLSEngineUTLS(name string) (model.TLSEngine, error) {
	id, found := utlsParrots[name]
	if !found {
		return nil, fmt.Errorf("%w: %s", ErrUnknownParrot, name)
	}
	return &TLSEngineUTLS{ClientHelloID: id, name: name}, nil
}

// TLSEngineUTLS is the TLS engine using gitlab.com/yawning/utls.git.
type TLSEngineUTLS struct {
	// ClientHelloID is the MANDATORY fingerprint to parrot.
	ClientHelloID *utls.ClientHelloID

	name string
}

var _ model.TLSEngine = &TLSEngineUTLS{}

// Client implements model.TLSEngine.
func (e *TLSEngineUTLS) Client(conn net.Conn, config *tls.Config) (model.TLSConn, error) {
	if err := ValidateServerName(config.ServerName); err != nil {
		return nil, err
	}
	return NewUTLSConn(conn, config, e.ClientHelloID)
}

// Name implements model.TLSEngine.
func (e *TLSEngineUTLS) Name() string {
	return "utls_" + e.name
}

// utlsConn implements model.TLSConn and uses a utls UConn as its
// underlying connection.
type utlsConn struct {
	*utls.UConn
	testableHandshake func() error
}

var _ model.TLSConn = &utlsConn{}

// NewUTLSConn creates a new connection with the given client hello ID.
// The parrots offer the ALPN protocols of the browser they imitate, so
// when config.NextProtos is not empty we rewrite the ALPN extension to
// offer only those protocols. This function does not perform any I/O.
func NewUTLSConn(conn net.Conn, config *tls.Config, cid *utls.ClientHelloID) (model.TLSConn, error) {
	uConfig := &utls.Config{
		RootCAs:                     config.RootCAs,
		NextProtos:                  config.NextProtos,
		ServerName:                  config.ServerName,
		InsecureSkipVerify:          config.InsecureSkipVerify,
		DynamicRecordSizingDisabled: config.DynamicRecordSizingDisabled,
	}
	uconn := utls.UClient(conn, uConfig, *cid)
	if len(config.NextProtos) > 0 {
		if err := uconn.BuildHandshakeState(); err != nil {
			return nil, err
		}
		for _, extension := range uconn.Extensions {
			if alpn, ok := extension.(*utls.ALPNExtension); ok {
				alpn.AlpnProtocols = append([]string{}, config.NextProtos...)
			}
		}
	}
	return &utlsConn{UConn: uconn}, nil
}

// ErrUTLSHandshakePanic indicates that there was panic handshaking
// when we were using the yawning/utls library for parroting.
var ErrUTLSHandshakePanic = errors.New("utls: handshake panic")

func (c *utlsConn) HandshakeContext(ctx context.Context) (err error) {
	errch := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				errch <- fmt.Errorf("%w: %+v", ErrUTLSHandshakePanic, r)
			}
		}()
		errch <- c.handshakefn()()
	}()
	select {
	case err = <-errch:
	case <-ctx.Done():
		err = ctx.Err()
	}
	return
}

func (c *utlsConn) handshakefn() func() error {
	if c.testableHandshake != nil {
		return c.testableHandshake
	}
	return c.UConn.Handshake
}

func (c *utlsConn) ConnectionState() tls.ConnectionState {
	uState := c.Conn.ConnectionState()
	return tls.ConnectionState{
		Version:                     uState.Version,
		HandshakeComplete:           uState.HandshakeComplete,
		DidResume:                   uState.DidResume,
		CipherSuite:                 uState.CipherSuite,
		NegotiatedProtocol:          uState.NegotiatedProtocol,
		ServerName:                  uState.ServerName,
		PeerCertificates:            uState.PeerCertificates,
		VerifiedChains:              uState.VerifiedChains,
		SignedCertificateTimestamps: uState.SignedCertificateTimestamps,
		OCSPResponse:                uState.OCSPResponse,
		TLSUnique:                   uState.TLSUnique,
	}
}
