package interaction

// State is the gesture the controller is currently tracking. Exactly
// one gesture is active per pointer-down/up cycle; drag, resize, and
// connect are mutually exclusive by construction.
type State string

const (
	StateIdle       State = "idle"
	StateDragging   State = "dragging"
	StateResizing   State = "resizing"
	StateConnecting State = "connecting"
)

// validTransitions is the gesture transition table. Every gesture
// starts from idle and returns to idle; there are no gesture-to-gesture
// edges, which is what prevents two gestures racing on one pointer
// stream.
var validTransitions = map[State][]State{
	StateIdle:       {StateDragging, StateResizing, StateConnecting},
	StateDragging:   {StateIdle},
	StateResizing:   {StateIdle},
	StateConnecting: {StateIdle},
}

func isValidTransition(from, to State) bool {
	for _, allowed := range validTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}
