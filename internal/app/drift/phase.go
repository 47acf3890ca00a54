// Package drift implements the listener-side drift corrector.
package drift

// Phase represents the listener playback phase.
type Phase int

const (
	PhaseDisconnected Phase = iota // No track loaded yet
	PhaseLoading                   // First track being loaded
	PhasePlaying                   // Tracking the broadcast
	PhaseSwapping                  // Atomic track swap in flight
	PhaseError                     // Playback or load failure
)

// String returns the string representation of the phase.
func (p Phase) String() string {
	switch p {
	case PhaseDisconnected:
		return "disconnected"
	case PhaseLoading:
		return "loading"
	case PhasePlaying:
		return "playing"
	case PhaseSwapping:
		return "swapping"
	case PhaseError:
		return "error"
	default:
		return "unknown"
	}
}

// ActionType represents what the corrector asks the local player to do.
type ActionType int

const (
	ActionNone ActionType = iota // Stay the course
	ActionSeek                   // Nudge the local position to the authoritative one
	ActionSwap                   // Load a new track URL, seek, resume
)

// String returns the string representation of the action type.
func (a ActionType) String() string {
	switch a {
	case ActionNone:
		return "none"
	case ActionSeek:
		return "seek"
	case ActionSwap:
		return "swap"
	default:
		return "unknown"
	}
}
