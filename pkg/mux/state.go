package mux

// muxState is the Multiplexer's connection-level state (spec.md §4.3).
type muxState uint8

const (
	muxNotConnected muxState = iota
	muxDisconnecting
	muxNotReady
	muxReady
)

func (s muxState) String() string {
	switch s {
	case muxNotConnected:
		return "NotConnected"
	case muxDisconnecting:
		return "Disconnecting"
	case muxNotReady:
		return "NotReady"
	case muxReady:
		return "Ready"
	default:
		return "Unknown"
	}
}

// portState is a single Port's state (spec.md §4.3).
type portState uint8

const (
	portNoClient portState = iota
	portNotReady
	portReady
)

func (s portState) String() string {
	switch s {
	case portNoClient:
		return "NoClient"
	case portNotReady:
		return "NotReady"
	case portReady:
		return "Ready"
	default:
		return "Unknown"
	}
}
