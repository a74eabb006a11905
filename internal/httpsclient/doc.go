// Package httpsclient sends HTTP/1.1 requests over TLS streams.
//
// A [*Client] opens a fresh [*tlsstream.Stream] for each request and
// reads the response until the server closes the connection. A
// [*PersistentClient] keeps a single stream open to a single host and
// uses the response framing to know when each response is complete.
package httpsclient
