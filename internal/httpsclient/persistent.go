package httpsclient

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/ooni/minihttps/internal/httpwire"
	"github.com/ooni/minihttps/internal/model"
	"github.com/ooni/minihttps/internal/tlsstream"
	"github.com/ooni/minihttps/internal/urlx"
)

// ErrHostMismatch indicates that a request URL does not point to the
// host the [*PersistentClient] is connected to.
var ErrHostMismatch = errors.New("httpsclient: URL does not match the connected host")

// PersistentClient sends sequential requests to a single host using
// a single TLS stream. It is not safe for concurrent use.
type PersistentClient struct {
	client *Client
	stream *tlsstream.Stream
	target *urlx.URL
}

// NewPersistentClient connects to the host of rawURL and returns
// a client sending requests over this connection.
func NewPersistentClient(ctx context.Context, config *Config, rawURL string) (*PersistentClient, error) {
	target, err := urlx.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	client := NewClient(config)
	stream, err := tlsstream.Open(ctx, &client.stream, target.Domain, target.Address())
	if err != nil {
		return nil, err
	}
	if err := stream.Handshake(ctx); err != nil {
		stream.Close()
		return nil, err
	}
	pc := &PersistentClient{
		client: client,
		stream: stream,
		target: target,
	}
	return pc, nil
}

// Stream returns the underlying stream.
func (pc *PersistentClient) Stream() *tlsstream.Stream {
	return pc.stream
}

// Get is like [*Client.Get].
func (pc *PersistentClient) Get(ctx context.Context, rawURL string, extra *httpwire.Header) ([]byte, error) {
	return pc.Request(ctx, httpwire.MethodGet, rawURL, nil, extra)
}

// Post is like [*Client.Post].
func (pc *PersistentClient) Post(ctx context.Context, rawURL string, body []byte, extra *httpwire.Header) ([]byte, error) {
	return pc.Request(ctx, httpwire.MethodPost, rawURL, body, extra)
}

// Request sends a request and returns the raw bytes of the response. We
// read until the response is complete according to its framing and drop
// the interim (1xx) responses preceding it. When the framing does not
// tell us where the response ends, we read until the server closes the
// connection or the read deadline expires. After the server has closed
// the connection, every request fails.
func (pc *PersistentClient) Request(ctx context.Context, method httpwire.Method,
	rawURL string, body []byte, extra *httpwire.Header) (data []byte, err error) {
	t0 := time.Now()
	defer func() {
		observeRequest(method, t0, err)
	}()

	URL, req, err := pc.client.newRequest(method, rawURL, body, extra, false)
	if err != nil {
		return nil, err
	}
	if URL.Domain != pc.target.Domain || URL.Port != pc.target.Port {
		return nil, fmt.Errorf("%w: %w: %s", ErrInvalidRequest, ErrHostMismatch, URL.Address())
	}
	pc.client.logger.Debugf("> %s %s", method, URL)

	if _, err := pc.stream.Write(req); err != nil {
		return nil, err
	}
	data, err = pc.readResponse(method)
	pc.client.logger.Debugf("< %d bytes %s", len(data), model.ErrorToStringOrOK(err))
	return data, err
}

// Do is like Request but returns the decoded response.
func (pc *PersistentClient) Do(ctx context.Context, method httpwire.Method,
	rawURL string, body []byte, extra *httpwire.Header) (*httpwire.Response, error) {
	data, err := pc.Request(ctx, method, rawURL, body, extra)
	if err != nil {
		return nil, err
	}
	return pc.client.decoder.ParseForMethod(method, data)
}

// Close closes the underlying stream.
func (pc *PersistentClient) Close() error {
	return pc.stream.Close()
}

func (pc *PersistentClient) readResponse(method httpwire.Method) ([]byte, error) {
	var (
		output  bytes.Buffer
		scratch = make([]byte, 4096)
		framed  = true
	)
	for {
		count, err := pc.stream.Read(scratch)
		output.Write(scratch[:count])
		if framed && count > 0 {
			if skipped := output.Len() - len(httpwire.SkipInterim(output.Bytes())); skipped > 0 {
				pc.client.logger.Debugf("httpsclient: skipping %d bytes of interim responses", skipped)
				output.Next(skipped)
			}
			length, perr := httpwire.ResponseLength(method, output.Bytes())
			switch {
			case perr == nil:
				if extra := output.Len() - length; extra > 0 {
					pc.client.logger.Warnf("httpsclient: ignoring %d bytes after the response", extra)
				}
				return output.Bytes()[:length], nil
			case !httpwire.IsIncomplete(perr) || errors.Is(perr, httpwire.ErrBodyUntilEOF):
				framed = false
			}
		}
		switch {
		case err == nil:
			continue
		case errors.Is(err, io.EOF):
			pc.stream.Close()
			return output.Bytes(), nil
		case tlsstream.IsWouldBlock(err):
			return output.Bytes(), nil
		default:
			return output.Bytes(), err
		}
	}
}
