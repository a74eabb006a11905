package tlsstream

// State is the state of a [*Stream].
type State int

const (
	// StateNew means we have not connected yet.
	StateNew = State(iota)

	// StateHandshaking means we're connected and the TLS handshake
	// has not completed yet.
	StateHandshaking

	// StateEstablished means the TLS handshake is complete.
	StateEstablished

	// StateClosed means the user closed the stream.
	StateClosed

	// StateFailed means a fatal error occurred.
	StateFailed
)

// String implements fmt.Stringer.
func (s State) String() string {
	switch s {
	case StateNew:
		return "new"
	case StateHandshaking:
		return "handshaking"
	case StateEstablished:
		return "established"
	case StateClosed:
		return "closed"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}
