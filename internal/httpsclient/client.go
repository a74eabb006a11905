package httpsclient

import (
	"context"
	"fmt"
	"time"

	"github.com/ooni/minihttps/internal/bytecounter"
	"github.com/ooni/minihttps/internal/httpwire"
	"github.com/ooni/minihttps/internal/model"
	"github.com/ooni/minihttps/internal/tlsstream"
	"github.com/ooni/minihttps/internal/urlx"
)

// Client sends each request using a fresh TLS stream.
type Client struct {
	header  *httpwire.Header
	logger  model.Logger
	decoder *httpwire.Decoder
	stream  tlsstream.Config
}

// NewClient creates a new [*Client]. A nil config means the default config.
func NewClient(config *Config) *Client {
	if config == nil {
		config = &Config{}
	}
	logger := model.ValidLoggerOrDefault(config.Logger)
	stream := config.Stream
	if stream.Logger == nil {
		stream.Logger = logger
	}
	if stream.Counter == nil {
		stream.Counter = bytecounter.NewWithMetrics(metricBytesSent, metricBytesReceived)
	}
	return &Client{
		header:  config.baseHeader(),
		logger:  logger,
		decoder: &httpwire.Decoder{Logger: logger},
		stream:  stream,
	}
}

// Counter returns the byte counter shared by the client streams.
func (c *Client) Counter() *bytecounter.Counter {
	return c.stream.Counter
}

// Get sends a GET request and returns the raw response bytes.
func (c *Client) Get(ctx context.Context, rawURL string, extra *httpwire.Header) ([]byte, error) {
	return c.Request(ctx, httpwire.MethodGet, rawURL, nil, extra)
}

// Post sends a POST request and returns the raw response bytes.
func (c *Client) Post(ctx context.Context, rawURL string, body []byte, extra *httpwire.Header) ([]byte, error) {
	return c.Request(ctx, httpwire.MethodPost, rawURL, body, extra)
}

// Request sends a request with the given method, OPTIONAL body and
// OPTIONAL extra headers, which override the client headers. We ask
// the server to close the connection and read until it does so or
// until the read deadline expires.
func (c *Client) Request(ctx context.Context, method httpwire.Method,
	rawURL string, body []byte, extra *httpwire.Header) (data []byte, err error) {
	t0 := time.Now()
	defer func() {
		observeRequest(method, t0, err)
	}()

	URL, req, err := c.newRequest(method, rawURL, body, extra, true)
	if err != nil {
		return nil, err
	}
	c.logger.Debugf("> %s %s", method, URL)

	stream, err := tlsstream.Open(ctx, &c.stream, URL.Domain, URL.Address())
	if err != nil {
		return nil, err
	}
	defer stream.Close()
	if err := stream.Handshake(ctx); err != nil {
		return nil, err
	}

	if _, err := stream.Write(req); err != nil {
		return nil, err
	}
	data, err = stream.ReadToEnd()
	c.logger.Debugf("< %d bytes %s", len(data), model.ErrorToStringOrOK(err))
	return data, err
}

// Do is like Request but returns the decoded final response.
func (c *Client) Do(ctx context.Context, method httpwire.Method,
	rawURL string, body []byte, extra *httpwire.Header) (*httpwire.Response, error) {
	data, err := c.Request(ctx, method, rawURL, body, extra)
	if err != nil {
		return nil, err
	}
	return c.decoder.ParseForMethod(method, httpwire.SkipInterim(data))
}

// newRequest parses and validates the request and returns the URL
// along with the serialized request.
func (c *Client) newRequest(method httpwire.Method, rawURL string,
	body []byte, extra *httpwire.Header, closeConn bool) (*urlx.URL, []byte, error) {
	URL, err := urlx.Parse(rawURL)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	header := c.header.Clone()
	header.Merge(extra)
	if closeConn {
		if _, found := header.Get("Connection"); !found {
			header.Set("Connection", "close")
		}
	}
	if err := validateRequest(method, URL.Route(), header); err != nil {
		return nil, nil, err
	}
	req := httpwire.NewRequestBuilder().
		Method(method).
		Route(URL.Route()).
		Host(URL.HostHeader()).
		Headers(header).
		Body(body).
		Build()
	return URL, req, nil
}
