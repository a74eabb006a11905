package tlsstream

import (
	"crypto/x509"
	"time"

	"github.com/ooni/minihttps/internal/bytecounter"
	"github.com/ooni/minihttps/internal/model"
	"github.com/ooni/minihttps/internal/netxlite"
)

// Default timeouts.
const (
	DefaultConnectTimeout   = 15 * time.Second
	DefaultHandshakeTimeout = 10 * time.Second
)

// Config contains the configuration for opening a [*Stream]. The
// zero value is a valid configuration.
type Config struct {
	// ConnectTimeout is the OPTIONAL connect timeout. When zero, we
	// use DefaultConnectTimeout.
	ConnectTimeout time.Duration

	// Counter is the OPTIONAL byte counter for the raw socket.
	Counter *bytecounter.Counter

	// Dialer is the OPTIONAL dialer. When nil, we use a netxlite
	// dialer with Resolver, ConnectTimeout and Logger.
	Dialer model.Dialer

	// Engine is the OPTIONAL TLS engine. When nil, we use crypto/tls.
	Engine model.TLSEngine

	// HandshakeTimeout is the OPTIONAL TLS handshake timeout. When
	// zero, we use DefaultHandshakeTimeout.
	HandshakeTimeout time.Duration

	// Logger is the OPTIONAL logger. When nil, we don't log.
	Logger model.Logger

	// ReadTimeout is the OPTIONAL read timeout. When zero, reads block
	// until data is available or the peer closes the connection.
	ReadTimeout time.Duration

	// Resolver is the OPTIONAL resolver used by the default dialer.
	// When nil, we use the system resolver.
	Resolver model.Resolver

	// RootCAs is the OPTIONAL root CA pool. When nil, we use the
	// system pool.
	RootCAs *x509.CertPool

	// TLSVersion OPTIONALLY pins the TLS version ("TLSv1.2" or "TLSv1.3").
	TLSVersion string

	// WriteTimeout is the OPTIONAL write timeout.
	WriteTimeout time.Duration
}

func (c *Config) logger() model.Logger {
	return model.ValidLoggerOrDefault(c.Logger)
}

func (c *Config) dialer() model.Dialer {
	if c.Dialer != nil {
		return c.Dialer
	}
	resolver := c.Resolver
	if resolver == nil {
		resolver = netxlite.NewStdlibResolver(c.logger())
	}
	return netxlite.NewDialerWithTimeout(c.logger(), resolver, c.connectTimeout())
}

func (c *Config) engine() model.TLSEngine {
	if c.Engine != nil {
		return c.Engine
	}
	return &netxlite.TLSEngineStdlib{}
}

func (c *Config) connectTimeout() time.Duration {
	if c.ConnectTimeout > 0 {
		return c.ConnectTimeout
	}
	return DefaultConnectTimeout
}

func (c *Config) handshakeTimeout() time.Duration {
	if c.HandshakeTimeout > 0 {
		return c.HandshakeTimeout
	}
	return DefaultHandshakeTimeout
}
