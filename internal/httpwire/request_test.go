package httpwire

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestRequestEncode(t *testing.T) {
	var cases = []struct {
		name   string
		req    *Request
		expect string
	}{{
		name:   "with all defaults",
		req:    &Request{},
		expect: "GET / HTTP/1.1\r\n\r\n",
	}, {
		name: "GET with headers",
		req: &Request{
			Method: MethodGet,
			Route:  "/robots.txt?x=1",
			Host:   "www.example.com",
			Header: NewHeader("User-Agent", "minihttps/0.1", "Accept", "*/*"),
		},
		expect: "GET /robots.txt?x=1 HTTP/1.1\r\nHost: www.example.com\r\n" +
			"User-Agent: minihttps/0.1\r\nAccept: */*\r\n\r\n",
	}, {
		name: "POST with body",
		req: &Request{
			Method: MethodPost,
			Route:  "/submit",
			Host:   "www.example.com",
			Header: NewHeader("Content-Type", "text/plain"),
			Body:   []byte("hello"),
		},
		expect: "POST /submit HTTP/1.1\r\nHost: www.example.com\r\n" +
			"Content-Type: text/plain\r\nContent-Length: 5\r\n\r\nhello",
	}, {
		name: "the caller's Content-Length is replaced",
		req: &Request{
			Method: MethodPut,
			Host:   "a.example",
			Header: NewHeader("content-length", "100"),
			Body:   []byte("abc"),
		},
		expect: "PUT / HTTP/1.1\r\nHost: a.example\r\nContent-Length: 3\r\n\r\nabc",
	}, {
		name: "no Content-Length without body",
		req: &Request{
			Method: MethodDelete,
			Host:   "a.example",
			Header: NewHeader("Content-Length", "0"),
		},
		expect: "DELETE / HTTP/1.1\r\nHost: a.example\r\n\r\n",
	}, {
		name: "Host comes first even when set in Header",
		req: &Request{
			Header: NewHeader("Accept", "*/*", "Host", "b.example"),
		},
		expect: "GET / HTTP/1.1\r\nHost: b.example\r\nAccept: */*\r\n\r\n",
	}}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if diff := cmp.Diff(tc.expect, string(tc.req.Encode())); diff != "" {
				t.Fatal(diff)
			}
		})
	}
}

func TestRequestBuilder(t *testing.T) {
	t.Run("builds the request", func(t *testing.T) {
		data := NewRequestBuilder().
			Method(MethodPost).
			Route("/api").
			Host("www.example.com").
			Headers(NewHeader("User-Agent", "x", "Accept", "*/*")).
			Header("User-Agent", "y").
			Body([]byte("{}")).
			Build()
		expect := "POST /api HTTP/1.1\r\nHost: www.example.com\r\nUser-Agent: y\r\n" +
			"Accept: */*\r\nContent-Length: 2\r\n\r\n{}"
		if diff := cmp.Diff(expect, string(data)); diff != "" {
			t.Fatal(diff)
		}
	})

	t.Run("Build resets the builder", func(t *testing.T) {
		b := NewRequestBuilder().Method(MethodPost).Host("a.example").Body([]byte("x"))
		_ = b.Build()
		data := b.Build()
		if diff := cmp.Diff("GET / HTTP/1.1\r\n\r\n", string(data)); diff != "" {
			t.Fatal(diff)
		}
	})

	t.Run("Headers does not share the caller's collection", func(t *testing.T) {
		base := NewHeader("Accept", "*/*")
		_ = NewRequestBuilder().Headers(base).Header("Accept", "text/html").Build()
		if base.Value("Accept") != "*/*" {
			t.Fatal("the builder modified the caller's header")
		}
	})
}

func TestRequestRoundTrip(t *testing.T) {
	var cases = []struct {
		name   string
		method Method
		route  string
		header *Header
		body   []byte
	}{
		{"GET no headers", MethodGet, "/", &Header{}, nil},
		{"GET with headers", MethodGet, "/a/b?c=d", NewHeader("Accept", "*/*", "X-Foo", "bar: baz"), nil},
		{"POST with body", MethodPost, "/upload", NewHeader("Content-Type", "application/json"), []byte(`{"a":1}`)},
		{"PATCH with binary body", MethodPatch, "/x", NewHeader("X-A", "1"), []byte{0, 1, 2, 0xff, '\r', '\n'}},
		{"OPTIONS", MethodOptions, "*", NewHeader("Origin", "https://a.example"), nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			data := NewRequestBuilder().
				Method(tc.method).
				Route(tc.route).
				Host("www.example.com").
				Headers(tc.header).
				Body(tc.body).
				Build()
			req, err := ParseRequest(data)
			if err != nil {
				t.Fatal(err)
			}
			if req.Method != tc.method || req.Route != tc.route {
				t.Fatal("unexpected method or route", req.Method, req.Route)
			}
			if req.Host != "www.example.com" {
				t.Fatal("unexpected host", req.Host)
			}
			for name, value := range tc.header.All() {
				if got := req.Header.Value(name); got != value {
					t.Fatalf("header %s: expected %q, got %q", name, value, got)
				}
			}
			_, hasLength := req.Header.Get("Content-Length")
			if hasLength != (len(tc.body) > 0) {
				t.Fatal("Content-Length must be present iff the body is not empty")
			}
			expectLen := tc.header.Len() + 1
			if hasLength {
				expectLen++
			}
			if req.Header.Len() != expectLen {
				t.Fatal("unexpected number of headers", req.Header.Names())
			}
			if diff := cmp.Diff(append([]byte{}, tc.body...), req.Body); diff != "" {
				t.Fatal(diff)
			}
		})
	}
}

func TestParseRequest(t *testing.T) {
	t.Run("with chunked body", func(t *testing.T) {
		data := "POST / HTTP/1.1\r\nHost: a.example\r\nTransfer-Encoding: chunked\r\n\r\n3\r\nabc\r\n0\r\n\r\n"
		req, err := ParseRequest([]byte(data))
		if err != nil {
			t.Fatal(err)
		}
		if diff := cmp.Diff("abc", string(req.Body)); diff != "" {
			t.Fatal(diff)
		}
	})

	var cases = []struct {
		name   string
		data   string
		expect error
	}{
		{"empty", "", ErrEmpty},
		{"no CRLF", "GET / HTTP/1.1", ErrNoHeaders},
		{"bad request line", "GET /\r\n\r\n", ErrInvalidRequestLine},
		{"bad protocol", "GET / SPDY/3\r\n\r\n", ErrInvalidRequestLine},
		{"bad UTF-8", "GET /\xff HTTP/1.1\r\n\r\n", ErrTextDecode},
		{"no blank line", "GET / HTTP/1.1\r\nHost: a\r\n", ErrNoHeaders},
		{"bad Content-Length", "GET / HTTP/1.1\r\nContent-Length: x\r\n\r\n", ErrNumberParse},
		{"short body", "GET / HTTP/1.1\r\nContent-Length: 9\r\n\r\nabc", ErrTruncated},
		{"gzip", "GET / HTTP/1.1\r\nTransfer-Encoding: gzip\r\n\r\n", ErrUnsupportedEncoding},
		{"bad chunk", "GET / HTTP/1.1\r\nTransfer-Encoding: chunked\r\n\r\nz\r\n", ErrNumberParse},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req, err := ParseRequest([]byte(tc.data))
			if !errors.Is(err, tc.expect) {
				t.Fatal("not the error we expected", err)
			}
			if req != nil {
				t.Fatal("expected nil request")
			}
		})
	}
}
