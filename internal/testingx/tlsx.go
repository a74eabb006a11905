// Package testingx contains code useful for testing.
package testingx

import (
	"bufio"
	"bytes"
	"context"
	"crypto/rsa"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"io"
	"net"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/apex/log"
	"github.com/google/martian/v3/mitm"
	"github.com/ooni/minihttps/internal/runtimex"
)

// TLSMITMProvider mints TLS certificates on the fly using the SNI
// sent by the client, signing them with a fake root CA. We use
// [github.com/google/martian/v3/mitm] under the hood.
type TLSMITMProvider struct {
	// cert is the fake CA certificate.
	cert *x509.Certificate

	// config is the MITM config to generate certificates on the fly.
	config *mitm.Config

	// key is the private key that signed cert.
	key *rsa.PrivateKey
}

// MustNewTLSMITMProvider creates a new [*TLSMITMProvider]. This
// function panics on failure.
func MustNewTLSMITMProvider() *TLSMITMProvider {
	cert, key := runtimex.Try2(mitm.NewAuthority("jafar", "OONI", 24*time.Hour))
	config := runtimex.Try1(mitm.NewConfig(cert, key))
	return &TLSMITMProvider{
		cert:   cert,
		config: config,
		key:    key,
	}
}

// CACert returns the CA certificate used by the server.
func (p *TLSMITMProvider) CACert() *x509.Certificate {
	return p.cert
}

// CertPool returns a [*x509.CertPool] containing only the CA certificate.
func (p *TLSMITMProvider) CertPool() *x509.CertPool {
	pool := x509.NewCertPool()
	pool.AddCert(p.cert)
	return pool
}

// ServerTLSConfig returns ready to use server TLS configuration.
func (p *TLSMITMProvider) ServerTLSConfig() *tls.Config {
	return p.config.TLS()
}

// TLSHandler handles TLS connections. A handler should first handle the TLS handshake
// in the GetCertificate method. If GetCertificate did not return an error, and the
// handler implements [TLSConnHandler], its HandleTLSConn method will be called after
// the handshake to handle the lifecycle of the TLS conn itself.
type TLSHandler interface {
	// GetCertificate handles the TLS handshake.
	GetCertificate(ctx context.Context, tcpConn net.Conn, chi *tls.ClientHelloInfo) (*tls.Certificate, error)
}

// TLSConn is the interface assumed by an established TLS conn.
type TLSConn interface {
	ConnectionState() tls.ConnectionState
	net.Conn
}

// TLSConnHandler is the interface implemented by handlers that want to handle
// and manage the established TLS connection after the handshake.
type TLSConnHandler interface {
	HandleTLSConn(conn TLSConn)
}

// TLSNextProtosHandler is the interface implemented by handlers that
// want the server to negotiate an application protocol using ALPN.
type TLSNextProtosHandler interface {
	NextProtos() []string
}

// TLSServer is a TLS server useful to implement test servers.
type TLSServer struct {
	// cancel unblocks background goroutines blocked on the context contolling their lifecycle.
	cancel context.CancelFunc

	// closeOnce provides "once" semantics when closing.
	closeOnce sync.Once

	// endpoint is the endpoint where we're listening.
	endpoint string

	// handler contains the TLSHandler.
	handler TLSHandler

	// listener is the listening socket controller.
	listener net.Listener

	// wg waits until the listening loop has finished running.
	wg sync.WaitGroup
}

// MustNewTLSServer creates and starts a new TLSServer listening on
// 127.0.0.1 that executes the given action during the TLS handshake.
func MustNewTLSServer(handler TLSHandler) *TLSServer {
	listener := runtimex.Try1(net.Listen("tcp", "127.0.0.1:0"))

	// create context for interrupting goroutines blocked in the background
	ctx, cancel := context.WithCancel(context.Background())

	srv := &TLSServer{
		cancel:    cancel,
		closeOnce: sync.Once{},
		endpoint:  listener.Addr().String(),
		handler:   handler,
		listener:  listener,
		wg:        sync.WaitGroup{},
	}

	srv.wg.Add(1)
	go srv.mainloop(ctx)

	return srv
}

// Endpoint returns the endpoint where the server is listening.
func (p *TLSServer) Endpoint() string {
	return p.endpoint
}

// Close closes this server as soon as possible.
func (p *TLSServer) Close() (err error) {
	p.closeOnce.Do(func() {
		err = p.listener.Close()
		p.cancel()
		p.wg.Wait()
	})
	return
}

func (p *TLSServer) mainloop(ctx context.Context) {
	defer runtimex.CatchLogAndIgnorePanic(log.Log, "TLSServer.mainloop")
	defer p.wg.Done()

	for {
		conn, err := p.listener.Accept()

		// Accept fails with net.ErrClosed once Close has been called
		runtimex.PanicOnError(err, "p.listener.Accept")

		go p.handle(ctx, conn)
	}
}

func (p *TLSServer) handle(ctx context.Context, tcpConn net.Conn) {
	defer tcpConn.Close()

	tlsConfig := &tls.Config{
		GetCertificate: func(chi *tls.ClientHelloInfo) (*tls.Certificate, error) {
			return p.handler.GetCertificate(ctx, tcpConn, chi)
		},
	}
	if h, good := p.handler.(TLSNextProtosHandler); good {
		tlsConfig.NextProtos = h.NextProtos()
	}
	tlsConn := tls.Server(tcpConn, tlsConfig)
	if err := tlsConn.HandshakeContext(ctx); err != nil {
		return
	}
	defer tlsConn.Close()

	if h, good := p.handler.(TLSConnHandler); good {
		h.HandleTLSConn(tlsConn)
	}
}

// TLSHandlerTimeout returns a [TLSHandler] that reads data and never writes
// eventually causing the client connection to timeout.
func TLSHandlerTimeout() TLSHandler {
	return &tlsHandlerTimeout{
		timeout: 300 * time.Second,
	}
}

type tlsHandlerTimeout struct {
	timeout time.Duration
}

// GetCertificate implements TLSHandler.
func (thx *tlsHandlerTimeout) GetCertificate(
	ctx context.Context, tcpConn net.Conn, chi *tls.ClientHelloInfo) (*tls.Certificate, error) {
	defer tcpConn.Close()
	select {
	case <-time.After(thx.timeout):
		return nil, errors.New("internal error")
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

const (
	// TLSAlertInternalError is the alter sent on internal errors
	TLSAlertInternalError = byte(80)

	// TLSAlertUnrecognizedName is the alert sent when the name is not recognized
	TLSAlertUnrecognizedName = byte(112)
)

// TLSHandlerSendAlert sends the alert given as argument to the client.
func TLSHandlerSendAlert(alert byte) TLSHandler {
	return &tlsHandlerSendAlert{alert}
}

type tlsHandlerSendAlert struct {
	alert byte
}

// GetCertificate implements TLSHandler.
func (thx *tlsHandlerSendAlert) GetCertificate(
	ctx context.Context, tcpConn net.Conn, chi *tls.ClientHelloInfo) (*tls.Certificate, error) {
	alertdata := []byte{
		21, // alert
		3,  // version[0]
		3,  // version[1]
		0,  // length[0]
		2,  // length[1]
		2,  // fatal
		thx.alert,
	}
	_, _ = tcpConn.Write(alertdata)
	_ = tcpConn.Close() // close connection to avoid the caller trying to send another alert
	return nil, errors.New("internal error")
}

// TLSHandlerEOF closes the connection right after receiving the
// ClientHello, causing EOF during the handshake.
func TLSHandlerEOF() TLSHandler {
	return &tlsHandlerEOF{}
}

type tlsHandlerEOF struct{}

// GetCertificate implements TLSHandler.
func (*tlsHandlerEOF) GetCertificate(ctx context.Context, tcpConn net.Conn, chi *tls.ClientHelloInfo) (*tls.Certificate, error) {
	tcpConn.Close()
	return nil, errors.New("internal error")
}

// TLSHandlerHandshakeAndWriteText returns a [TLSHandler] that completes
// the handshake, writes the given text, and closes the connection.
func TLSHandlerHandshakeAndWriteText(mitm *TLSMITMProvider, text []byte) TLSHandler {
	return &tlsHandlerHandshakeAndWriteText{mitm, text}
}

var _ TLSConnHandler = &tlsHandlerHandshakeAndWriteText{}

type tlsHandlerHandshakeAndWriteText struct {
	mitm *TLSMITMProvider
	text []byte
}

// GetCertificate implements TLSHandler.
func (thx *tlsHandlerHandshakeAndWriteText) GetCertificate(ctx context.Context, tcpConn net.Conn, chi *tls.ClientHelloInfo) (*tls.Certificate, error) {
	return thx.mitm.ServerTLSConfig().GetCertificate(chi)
}

// HandleTLSConn implements TLSConnHandler.
func (thx *tlsHandlerHandshakeAndWriteText) HandleTLSConn(conn TLSConn) {
	_, _ = conn.Write(thx.text)
}

// TLSHandlerALPN returns a [TLSHandler] that completes the handshake
// offering the given ALPN protocols, writes the negotiated protocol,
// and closes the connection.
func TLSHandlerALPN(mitm *TLSMITMProvider, protos ...string) TLSHandler {
	return &tlsHandlerALPN{mitm, protos}
}

var (
	_ TLSConnHandler       = &tlsHandlerALPN{}
	_ TLSNextProtosHandler = &tlsHandlerALPN{}
)

type tlsHandlerALPN struct {
	mitm   *TLSMITMProvider
	protos []string
}

// GetCertificate implements TLSHandler.
func (thx *tlsHandlerALPN) GetCertificate(ctx context.Context, tcpConn net.Conn, chi *tls.ClientHelloInfo) (*tls.Certificate, error) {
	return thx.mitm.ServerTLSConfig().GetCertificate(chi)
}

// NextProtos implements TLSNextProtosHandler.
func (thx *tlsHandlerALPN) NextProtos() []string {
	return thx.protos
}

// HandleTLSConn implements TLSConnHandler.
func (thx *tlsHandlerALPN) HandleTLSConn(conn TLSConn) {
	_, _ = conn.Write([]byte(conn.ConnectionState().NegotiatedProtocol))
}

// TLSHandlerHTTP is a [TLSHandler] that reads HTTP/1.1 requests from
// each connection and answers them, in order, with the canned responses.
// After the last response, or when the client closes, the server closes
// the connection. It records the raw bytes of each received request.
type TLSHandlerHTTP struct {
	// MITM is the MANDATORY certificate provider.
	MITM *TLSMITMProvider

	// Responses contains the MANDATORY canned raw responses.
	Responses [][]byte

	// KeepOpen OPTIONALLY keeps the connection open after the last
	// response until the client closes it.
	KeepOpen bool

	mu       sync.Mutex
	requests [][]byte
}

var _ TLSConnHandler = &TLSHandlerHTTP{}

// GetCertificate implements TLSHandler.
func (thx *TLSHandlerHTTP) GetCertificate(ctx context.Context, tcpConn net.Conn, chi *tls.ClientHelloInfo) (*tls.Certificate, error) {
	return thx.MITM.ServerTLSConfig().GetCertificate(chi)
}

// HandleTLSConn implements TLSConnHandler.
func (thx *TLSHandlerHTTP) HandleTLSConn(conn TLSConn) {
	reader := bufio.NewReader(conn)
	for _, response := range thx.Responses {
		request, err := ReadHTTPRequest(reader)
		if err != nil {
			return
		}
		thx.mu.Lock()
		thx.requests = append(thx.requests, request)
		thx.mu.Unlock()
		if _, err := conn.Write(response); err != nil {
			return
		}
	}
	if thx.KeepOpen {
		_, _ = io.Copy(io.Discard, reader)
	}
}

// Requests returns the raw requests received so far.
func (thx *TLSHandlerHTTP) Requests() [][]byte {
	thx.mu.Lock()
	defer thx.mu.Unlock()
	return append([][]byte{}, thx.requests...)
}

// ReadHTTPRequest reads the raw bytes of an HTTP/1.1 request whose
// body, if any, is framed by Content-Length.
func ReadHTTPRequest(reader *bufio.Reader) ([]byte, error) {
	var (
		buffer bytes.Buffer
		length int
	)
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			return nil, err
		}
		buffer.WriteString(line)
		if line == "\r\n" {
			break
		}
		name, value, found := strings.Cut(strings.TrimRight(line, "\r\n"), ":")
		if found && strings.EqualFold(name, "Content-Length") {
			length, err = strconv.Atoi(strings.TrimSpace(value))
			if err != nil {
				return nil, err
			}
		}
	}
	if _, err := io.CopyN(&buffer, reader, int64(length)); err != nil {
		return nil, err
	}
	return buffer.Bytes(), nil
}
