// Package tlsstream implements a TLS-protected duplex byte stream.
//
// A [*Stream] owns a raw TCP connection and a TLS engine instance
// created by a model.TLSEngine. The handshake is lazy: the first Read
// or Write (or an explicit Handshake) pumps the engine until it reports
// that the handshake is complete. After that, reads and writes move
// application data through the engine's record layer.
//
// A stream that fails is never reused: every subsequent operation
// returns the same error.
package tlsstream
