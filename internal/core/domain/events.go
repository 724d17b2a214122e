package domain

// BootstrapState is a step of the bootstrap state machine.
type BootstrapState uint8

const (
	StateDiscovering BootstrapState = iota
	StateResolving
	StateUsingInstalled
	StateUsingLocal
	StateRetrieving
	StateUsingRetrieved
	StateReady
	StateFailed
)

var stateNames = [...]string{
	StateDiscovering:    "discovering",
	StateResolving:      "resolving",
	StateUsingInstalled: "using-installed",
	StateUsingLocal:     "using-local",
	StateRetrieving:     "retrieving",
	StateUsingRetrieved: "using-retrieved",
	StateReady:          "ready",
	StateFailed:         "failed",
}

func (s BootstrapState) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "unknown"
}

// EventKind classifies a bootstrap event.
type EventKind uint8

const (
	// EventState announces a state transition.
	EventState EventKind = iota
	// EventProgress reports bytes or files processed within the current state.
	EventProgress
	// EventWarning reports a non-fatal issue, such as one unreachable remote.
	EventWarning
	// EventFailed reports the terminal error of a handler.
	EventFailed
)

// Event is a progress record delivered to the shell's event sink.
type Event struct {
	Kind    EventKind
	Package string
	State   BootstrapState
	Message string
	Version Version
	// Done and Total count bytes or files for EventProgress. Total is -1 when unknown.
	Done  int64
	Total int64
	Err   error
}
