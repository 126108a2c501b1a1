package services

import "math"

// GatingState is the decision for a lesson's mark-complete action.
type GatingState struct {
	// Exactly one of these describes the state.
	Completed bool `json:"completed"`
	Unlocked  bool `json:"unlocked"`

	// RemainingSeconds is set only when locked: whole seconds left
	// until the watch requirement is met, rounded up.
	RemainingSeconds int `json:"remaining_seconds,omitempty"`
}

func (g GatingState) Locked() bool { return !g.Completed && !g.Unlocked }

// Label returns the state name used in pushed player events.
func (g GatingState) Label() string {
	switch {
	case g.Completed:
		return "completed"
	case g.Unlocked:
		return "unlocked"
	default:
		return "locked"
	}
}

// GatingFor decides whether a lesson's completion action is available.
// A completed lesson stays completed regardless of watch time. A
// minWatchTime of zero (or less) means any visit suffices. Callers must
// pass a freshly projected watched value, not a stale snapshot, so the
// decision at completion time closes the gap between "button enabled"
// and "button clicked".
func GatingFor(minWatchTime, watchedSeconds float64, alreadyCompleted bool) GatingState {
	if alreadyCompleted {
		return GatingState{Completed: true}
	}
	if minWatchTime <= 0 || watchedSeconds >= minWatchTime {
		return GatingState{Unlocked: true}
	}
	return GatingState{RemainingSeconds: int(math.Ceil(minWatchTime - watchedSeconds))}
}
