// Package event defines the application-level notifications that flow between
// the artifact watcher, the reload supervisor and whichever configuration
// module is currently running.
package event

// Kind classifies an Event.
type Kind int

const (
	// KindKey carries terminal input forwarded by the UI layer.
	KindKey Kind = iota
	// KindResize reports a terminal geometry change.
	KindResize
	// KindReloadRequested asks the running module to wind down so a freshly
	// built artifact can be loaded in its place.
	KindReloadRequested
	// KindQuit asks the running module to return with no open views.
	KindQuit
)

// String returns the lowercase name of the kind.
func (k Kind) String() string {
	switch k {
	case KindKey:
		return "key"
	case KindResize:
		return "resize"
	case KindReloadRequested:
		return "reload-requested"
	case KindQuit:
		return "quit"
	default:
		return "unknown"
	}
}

// Event is one notification. Payload is opaque to the runner; the UI layer
// and the configuration module agree on its shape per kind.
type Event struct {
	Kind    Kind
	Payload any
}

// Channel is the duplex endpoint pair threaded through every module
// invocation. Tx is created once and lives for the whole process. Rx is
// returned by each invocation and handed unchanged into the next one, so
// events queued while a module was winding down are delivered to its
// replacement rather than dropped.
type Channel struct {
	Tx chan<- Event
	Rx <-chan Event
}

// NewChannel returns a connected pair with room for a burst of input.
func NewChannel() Channel {
	ch := make(chan Event, 128)
	return Channel{Tx: ch, Rx: ch}
}
