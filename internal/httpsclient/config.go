package httpsclient

import (
	"crypto/x509"
	"errors"
	"fmt"
	"maps"
	"os"
	"slices"
	"time"

	"github.com/ooni/minihttps/internal/httpwire"
	"github.com/ooni/minihttps/internal/hujsonx"
	"github.com/ooni/minihttps/internal/model"
	"github.com/ooni/minihttps/internal/netxlite"
	"github.com/ooni/minihttps/internal/tlsstream"
)

// DefaultUserAgent is the default User-Agent header value.
const DefaultUserAgent = "minihttps/0.1.0"

// Config contains the client configuration. The zero value is
// a valid configuration.
type Config struct {
	// Header contains the OPTIONAL headers to send with every
	// request. Per-call headers override these headers.
	Header *httpwire.Header

	// Logger is the OPTIONAL logger. When nil, we don't log.
	Logger model.Logger

	// Stream is the OPTIONAL configuration for the TLS streams.
	Stream tlsstream.Config

	// UserAgent is the OPTIONAL User-Agent. When empty, we
	// use DefaultUserAgent.
	UserAgent string
}

// baseHeader returns the headers to send with every request.
func (c *Config) baseHeader() *httpwire.Header {
	userAgent := c.UserAgent
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	header := httpwire.NewHeader(
		"User-Agent", userAgent,
		"Accept", "*/*",
		"Accept-Encoding", "identity",
	)
	header.Merge(c.Header)
	return header
}

// FileConfig is the on-disk client configuration, which is JSON
// with comments. Durations use the [time.ParseDuration] syntax.
type FileConfig struct {
	// CAFile is the OPTIONAL PEM file containing the root CAs.
	CAFile string `json:"ca_file"`

	// ConnectTimeout is the OPTIONAL connect timeout.
	ConnectTimeout string `json:"connect_timeout"`

	// HandshakeTimeout is the OPTIONAL TLS handshake timeout.
	HandshakeTimeout string `json:"handshake_timeout"`

	// Headers contains OPTIONAL headers for every request.
	Headers map[string]string `json:"headers"`

	// ReadTimeout is the OPTIONAL read timeout.
	ReadTimeout string `json:"read_timeout"`

	// Resolver is the OPTIONAL resolver URL (e.g., udp://8.8.8.8:53).
	Resolver string `json:"resolver"`

	// TLSEngine is the OPTIONAL TLS engine name (e.g., stdlib, chrome).
	TLSEngine string `json:"tls_engine"`

	// TLSVersion is the OPTIONAL TLS version (TLSv1.2 or TLSv1.3).
	TLSVersion string `json:"tls_version"`

	// UserAgent is the OPTIONAL User-Agent.
	UserAgent string `json:"user_agent"`

	// WriteTimeout is the OPTIONAL write timeout.
	WriteTimeout string `json:"write_timeout"`
}

// LoadConfigFile reads a [*FileConfig] from the given file.
func LoadConfigFile(filename string) (*FileConfig, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	var fc FileConfig
	if err := hujsonx.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return &fc, nil
}

// ErrNoCertificates indicates that a CA file contains no certificates.
var ErrNoCertificates = errors.New("httpsclient: no certificates in CA file")

// NewConfig creates a [*Config] using the given logger.
func (fc *FileConfig) NewConfig(logger model.Logger) (*Config, error) {
	logger = model.ValidLoggerOrDefault(logger)
	config := &Config{
		Header:    httpwire.NewHeader(),
		Logger:    logger,
		UserAgent: fc.UserAgent,
	}
	for _, name := range slices.Sorted(maps.Keys(fc.Headers)) {
		config.Header.Set(name, fc.Headers[name])
	}

	timeouts := []struct {
		value string
		field *time.Duration
	}{
		{fc.ConnectTimeout, &config.Stream.ConnectTimeout},
		{fc.HandshakeTimeout, &config.Stream.HandshakeTimeout},
		{fc.ReadTimeout, &config.Stream.ReadTimeout},
		{fc.WriteTimeout, &config.Stream.WriteTimeout},
	}
	for _, entry := range timeouts {
		if entry.value == "" {
			continue
		}
		duration, err := time.ParseDuration(entry.value)
		if err != nil {
			return nil, err
		}
		*entry.field = duration
	}

	engine, err := netxlite.NewTLSEngine(fc.TLSEngine)
	if err != nil {
		return nil, err
	}
	config.Stream.Engine = engine

	resolver, err := netxlite.NewResolverFromURL(logger, fc.Resolver)
	if err != nil {
		return nil, err
	}
	config.Stream.Resolver = resolver

	if fc.CAFile != "" {
		pool, err := LoadCertPool(fc.CAFile)
		if err != nil {
			return nil, err
		}
		config.Stream.RootCAs = pool
	}

	config.Stream.TLSVersion = fc.TLSVersion
	config.Stream.Logger = logger
	return config, nil
}

// LoadCertPool reads PEM-encoded root CAs from the given file.
func LoadCertPool(filename string) (*x509.CertPool, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(data) {
		return nil, fmt.Errorf("%w: %s", ErrNoCertificates, filename)
	}
	return pool, nil
}
