package server

// serverState is the six-state machine from spec.md §4.1, collapsed from
// the two orthogonal "registered" / "running" conditions so that exactly
// one action is legal per (state, event).
type serverState uint8

const (
	stateUnregisteredAndOff serverState = iota
	stateUnregisteredAndIdle
	stateOff
	stateJustRegistered
	stateIdle
	stateProcessing
)

func (s serverState) String() string {
	switch s {
	case stateUnregisteredAndOff:
		return "UnregisteredAndOff"
	case stateUnregisteredAndIdle:
		return "UnregisteredAndIdle"
	case stateOff:
		return "Off"
	case stateJustRegistered:
		return "JustRegistered"
	case stateIdle:
		return "Idle"
	case stateProcessing:
		return "Processing"
	default:
		return "Unknown"
	}
}
