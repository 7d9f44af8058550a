package stream

// Status is the connection status of a Client. Exactly one value holds at
// a time; transitions drive whether heartbeats run and whether inbound
// frames are accepted.
type Status string

const (
	// StatusDisconnected means no transport is active and no connection
	// attempt is in progress. The initial state, and the state after an
	// explicit Disconnect or an unexpected close awaiting retry.
	StatusDisconnected Status = "disconnected"
	// StatusConnecting means a transport establishment is in flight.
	StatusConnecting Status = "connecting"
	// StatusConnected means a transport is live and inbound frames are
	// being processed.
	StatusConnected Status = "connected"
	// StatusError means the last establishment attempt failed. Terminal
	// once reconnect attempts are exhausted, until the caller calls
	// Connect again.
	StatusError Status = "error"
)

// Transport is the transport kind a Client uses to receive live data.
// Selected at configuration time via the Source field; changing it tears
// down the current transport and reconnects with the new one.
type Transport string

const (
	// TransportPersistentSocket is a full-duplex WebSocket connection.
	// The only transport that supports outbound sends and heartbeats.
	TransportPersistentSocket Transport = "persistent-socket"
	// TransportPushStream is a one-way server-to-client event stream.
	TransportPushStream Transport = "push-stream"
	// TransportPolling issues a GET to the endpoint on a fixed interval
	// and treats each response body as an inbound frame.
	TransportPolling Transport = "polling"
)

// statusTransitions is the connection state machine. A missing entry is an
// illegal transition; transitionLocked drops those instead of applying
// them, so a stale timer or callback can never move the client somewhere
// the lifecycle does not allow.
var statusTransitions = map[Status]map[Status]bool{
	StatusDisconnected: {
		StatusConnecting: true, // Connect, retry timer
	},
	StatusConnecting: {
		StatusConnected:    true, // transport open
		StatusError:        true, // establishment failure, give-up
		StatusDisconnected: true, // Disconnect
	},
	StatusConnected: {
		StatusDisconnected: true, // unexpected close, Disconnect
		StatusError:        true, // give-up on close with attempts exhausted
	},
	StatusError: {
		StatusConnecting:   true, // retry timer, caller Connect
		StatusDisconnected: true, // Disconnect
	},
}

// canTransition reports whether the state machine allows moving from one
// status to another.
func canTransition(from, to Status) bool {
	return statusTransitions[from][to]
}

// statusValue maps a status onto a numeric scale for the status gauge.
func statusValue(s Status) float64 {
	switch s {
	case StatusDisconnected:
		return 0
	case StatusConnecting:
		return 1
	case StatusConnected:
		return 2
	case StatusError:
		return 3
	default:
		return -1
	}
}
