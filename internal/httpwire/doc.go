// Package httpwire serializes HTTP/1.1 requests and parses HTTP/1.1
// responses, with either fixed-length (Content-Length) or chunked
// (Transfer-Encoding: chunked) framing. It operates on complete byte
// slices and performs no I/O.
package httpwire
