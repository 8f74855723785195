package link

// State is the lifecycle state of the persistent link.
type State int

const (
	Idle State = iota
	Connecting
	Connected
	Disconnecting
	Disconnected
)

var stateNames = [...]string{
	Idle:          "idle",
	Connecting:    "connecting",
	Connected:     "connected",
	Disconnecting: "disconnecting",
	Disconnected:  "disconnected",
}

func (s State) String() string {
	if s < Idle || s > Disconnected {
		return "unknown"
	}

	return stateNames[s]
}

var transitions = map[State][]State{
	Idle:          {Connecting},
	Connecting:    {Connected, Disconnecting},
	Connected:     {Disconnecting},
	Disconnecting: {Disconnected},
	Disconnected:  {Connecting},
}

// CanTransition reports whether to is a declared edge out of s.
func (s State) CanTransition(to State) bool {
	for _, next := range transitions[s] {
		if next == to {
			return true
		}
	}

	return false
}

// CanOpen reports whether an open request is accepted in s.
func (s State) CanOpen() bool {
	return s == Idle || s == Disconnected
}

// CanClose reports whether a close request is accepted in s.
func (s State) CanClose() bool {
	return s == Connecting || s == Connected
}
