package tlsstream

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/ooni/minihttps/internal/bytecounter"
	"github.com/ooni/minihttps/internal/model"
	"github.com/ooni/minihttps/internal/netxlite"
)

// readToEndBufferSize is the size of the scratch buffer used by ReadToEnd.
const readToEndBufferSize = 4096

// alpnHTTP11 is the only application protocol we speak.
const alpnHTTP11 = "http/1.1"

// Stream is a TLS-protected byte stream. It is not safe for
// concurrent use by multiple goroutines.
type Stream struct {
	address    string
	config     *Config
	conn       net.Conn
	err        error
	logger     model.Logger
	serverName string
	state      State
	tlsConn    model.TLSConn
}

// Open connects to address and prepares a TLS session that will verify
// the peer identity using serverName. The handshake is deferred until
// the first Read, Write or Handshake. On failure, the returned error
// is a [*ConnectError].
func Open(ctx context.Context, config *Config, serverName, address string) (*Stream, error) {
	if config == nil {
		config = &Config{}
	}
	logger := config.logger()
	conn, err := config.dialer().DialContext(ctx, "tcp", address)
	if err != nil {
		return nil, &ConnectError{Address: address, Err: err}
	}
	conn = newBufferedConn(&retryConn{bytecounter.WrapConn(conn, config.Counter)})
	tlsConfig := netxlite.NewTLSConfig(serverName, config.RootCAs, alpnHTTP11)
	if err := netxlite.ConfigureTLSVersion(tlsConfig, config.TLSVersion); err != nil {
		conn.Close()
		return nil, &ConnectError{Address: address, Err: err}
	}
	tlsConn, err := config.engine().Client(conn, tlsConfig)
	if err != nil {
		conn.Close()
		err = netxlite.NewErrWrapper(netxlite.ClassifyTLSHandshakeError, netxlite.TLSHandshakeOperation, err)
		return nil, &ConnectError{Address: address, Err: err}
	}
	stream := &Stream{
		address:    address,
		config:     config,
		conn:       conn,
		err:        nil,
		logger:     logger,
		serverName: serverName,
		state:      StateHandshaking,
		tlsConn:    tlsConn,
	}
	return stream, nil
}

// State returns the current state of the stream.
func (s *Stream) State() State {
	return s.state
}

// ConnectionState returns the TLS connection state. The returned
// value is the zero value until the handshake is complete.
func (s *Stream) ConnectionState() tls.ConnectionState {
	if s.state != StateEstablished {
		return tls.ConnectionState{}
	}
	return s.tlsConn.ConnectionState()
}

// Handshake drives the TLS handshake to completion, if needed. The
// context bounds the handshake together with the handshake timeout.
func (s *Stream) Handshake(ctx context.Context) error {
	return s.pump(ctx, netxlite.TLSHandshakeOperation)
}

// pump makes sure the engine has completed the handshake before
// we move application data.
func (s *Stream) pump(ctx context.Context, op string) error {
	switch s.state {
	case StateEstablished:
		return nil
	case StateClosed:
		return &IOError{Op: op, Err: ErrStreamClosed}
	case StateFailed:
		return s.err
	}

	timeout := s.config.handshakeTimeout()
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	// the deadline unblocks engines whose HandshakeContext returns
	// without interrupting the underlying I/O
	_ = s.conn.SetDeadline(time.Now().Add(timeout))

	prefix := fmt.Sprintf("tls_handshake {sni=%s engine=%s}", s.serverName, s.config.engine().Name())
	s.logger.Debugf("%s...", prefix)
	start := time.Now()
	err := s.tlsConn.HandshakeContext(ctx)
	elapsed := time.Since(start)

	if err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			err = fmt.Errorf("%w: %w", netxlite.ErrConnectionAborted, err)
		}
		err = netxlite.NewErrWrapper(netxlite.ClassifyTLSHandshakeError, netxlite.TLSHandshakeOperation, err)
		s.logger.Debugf("%s... %s in %s", prefix, err, elapsed)
		return s.fail(&ConnectError{Address: s.address, Err: err})
	}

	// we only speak HTTP/1.1 whatever the engine offered
	state := s.tlsConn.ConnectionState()
	if proto := state.NegotiatedProtocol; proto != "" && proto != alpnHTTP11 {
		err := netxlite.NewErrWrapper(netxlite.ClassifyTLSHandshakeError, netxlite.TLSHandshakeOperation,
			fmt.Errorf("%w: %q", netxlite.ErrUnexpectedALPN, proto))
		s.logger.Debugf("%s... %s in %s", prefix, err, elapsed)
		return s.fail(&ConnectError{Address: s.address, Err: err})
	}

	_ = s.conn.SetDeadline(time.Time{})
	s.logger.Debugf("%s... ok in %s {version=%s cipher=%s alpn=%q}", prefix, elapsed,
		netxlite.TLSVersionString(state.Version), netxlite.TLSCipherSuiteString(state.CipherSuite),
		state.NegotiatedProtocol)
	s.state = StateEstablished
	return nil
}

// fail marks the stream as failed, closes the raw socket, and
// returns the sticky error.
func (s *Stream) fail(err error) error {
	s.state = StateFailed
	s.err = err
	s.conn.Close()
	return err
}

// Read reads decrypted application data into p. It returns io.EOF
// when the peer has closed the stream. If the read deadline expires,
// Read returns an [*IOError] for which [IsWouldBlock] is true and the
// stream remains usable.
func (s *Stream) Read(p []byte) (int, error) {
	if err := s.pump(context.Background(), netxlite.ReadOperation); err != nil {
		return 0, err
	}
	if s.config.ReadTimeout > 0 {
		_ = s.tlsConn.SetReadDeadline(time.Now().Add(s.config.ReadTimeout))
	}
	count, err := s.tlsConn.Read(p)
	switch {
	case err == nil:
		return count, nil
	case errors.Is(err, io.EOF):
		return count, io.EOF
	case IsWouldBlock(err):
		err = netxlite.NewErrWrapper(netxlite.ClassifyGenericError, netxlite.ReadOperation, err)
		return count, &IOError{Op: netxlite.ReadOperation, Err: err}
	default:
		err = netxlite.NewErrWrapper(netxlite.ClassifyGenericError, netxlite.ReadOperation, err)
		return count, s.fail(&IOError{Op: netxlite.ReadOperation, Err: err})
	}
}

// Write encrypts p and writes it to the raw socket.
func (s *Stream) Write(p []byte) (int, error) {
	if err := s.pump(context.Background(), netxlite.WriteOperation); err != nil {
		return 0, err
	}
	if s.config.WriteTimeout > 0 {
		_ = s.tlsConn.SetWriteDeadline(time.Now().Add(s.config.WriteTimeout))
	}
	count, err := s.tlsConn.Write(p)
	if err != nil {
		// after a failed write the TLS state is corrupt even on timeout
		err = netxlite.NewErrWrapper(netxlite.ClassifyGenericError, netxlite.WriteOperation, err)
		return count, s.fail(&IOError{Op: netxlite.WriteOperation, Err: err})
	}
	return count, nil
}

// ReadToEnd reads until EOF or until no data is available before the
// read deadline expires, whichever comes first, and returns all the
// data read. Other errors are returned along with the data read so far.
func (s *Stream) ReadToEnd() ([]byte, error) {
	var (
		output  bytes.Buffer
		scratch = make([]byte, readToEndBufferSize)
	)
	for {
		count, err := s.Read(scratch)
		output.Write(scratch[:count])
		switch {
		case err == nil:
			continue
		case errors.Is(err, io.EOF), IsWouldBlock(err):
			return output.Bytes(), nil
		default:
			return output.Bytes(), err
		}
	}
}

// Close closes the stream. When the handshake is complete, we also
// send a close_notify alert to the peer.
func (s *Stream) Close() error {
	var err error
	switch s.state {
	case StateClosed:
		return nil
	case StateFailed:
		// the raw socket is already closed
	case StateEstablished:
		err = s.tlsConn.Close()
	default:
		err = s.conn.Close()
	}
	if s.state != StateFailed {
		s.state = StateClosed
	}
	s.logger.Debugf("close %s/tcp... %s", s.address, model.ErrorToStringOrOK(err))
	return err
}
