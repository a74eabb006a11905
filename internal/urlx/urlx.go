// Package urlx splits HTTPS URLs into the pieces needed to
// open a stream and to write the request line.
package urlx

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"

	"github.com/ooni/minihttps/internal/idnax"
)

// DefaultPort is the default HTTPS port.
const DefaultPort = "443"

var (
	// ErrUnsupportedScheme indicates the URL scheme is not https.
	ErrUnsupportedScheme = errors.New("urlx: unsupported scheme")

	// ErrMissingHost indicates the URL has no host.
	ErrMissingHost = errors.New("urlx: missing host")

	// ErrInvalidPort indicates the URL port is not valid.
	ErrInvalidPort = errors.New("urlx: invalid port")
)

// URL is a parsed HTTPS URL.
type URL struct {
	// Scheme is always "https".
	Scheme string

	// Domain is the domain name converted to ASCII or the IP address
	// (without brackets for IPv6).
	Domain string

	// Port is the port, which defaults to 443.
	Port string

	// Path is the escaped path, which defaults to "/".
	Path string

	// Query is the escaped query without the leading "?".
	Query string
}

// Parse parses an HTTPS URL. The fragment, if any, is discarded.
func Parse(rawURL string) (*URL, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return nil, err
	}
	if parsed.Scheme != "https" {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedScheme, parsed.Scheme)
	}
	hostname := parsed.Hostname()
	if hostname == "" {
		return nil, ErrMissingHost
	}
	domain := hostname
	if net.ParseIP(hostname) == nil {
		domain, err = idnax.ToASCII(hostname)
		if err != nil {
			return nil, err
		}
	}
	port := parsed.Port()
	if port == "" {
		port = DefaultPort
	}
	if value, err := strconv.ParseUint(port, 10, 16); err != nil || value == 0 {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPort, port)
	}
	path := parsed.EscapedPath()
	if path == "" {
		path = "/"
	}
	out := &URL{
		Scheme: "https",
		Domain: domain,
		Port:   port,
		Path:   path,
		Query:  parsed.RawQuery,
	}
	return out, nil
}

// Route returns the request target: the path followed by the query, if any.
func (u *URL) Route() string {
	if u.Query == "" {
		return u.Path
	}
	return u.Path + "?" + u.Query
}

// Address returns the endpoint to connect to (e.g., "www.example.com:443").
func (u *URL) Address() string {
	return net.JoinHostPort(u.Domain, u.Port)
}

// HostHeader returns the value of the Host header, which includes
// the port only when it is not the default port.
func (u *URL) HostHeader() string {
	if u.Port == DefaultPort {
		if strings.Contains(u.Domain, ":") {
			return "[" + u.Domain + "]"
		}
		return u.Domain
	}
	return u.Address()
}

// String returns the URL as a string.
func (u *URL) String() string {
	return "https://" + u.HostHeader() + u.Route()
}
