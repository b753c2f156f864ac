package clearance

import "strings"

// CompletionPolicy decides when a completion notification accompanies a status update.
type CompletionPolicy string

const (
	// CompletionWhenAllPreviouslyFalse fires only when a single update takes a student
	// from nothing cleared to everything cleared. Students cleared one department at a
	// time never receive the completion notice under this policy.
	CompletionWhenAllPreviouslyFalse CompletionPolicy = "all_previously_false"
	// CompletionOnTransition fires whenever an update moves a student from not fully
	// cleared to fully cleared.
	CompletionOnTransition CompletionPolicy = "on_transition"
)

// ParseCompletionPolicy falls back to CompletionWhenAllPreviouslyFalse for unknown values.
func ParseCompletionPolicy(raw string) CompletionPolicy {
	switch CompletionPolicy(strings.ToLower(strings.TrimSpace(raw))) {
	case CompletionOnTransition:
		return CompletionOnTransition
	default:
		return CompletionWhenAllPreviouslyFalse
	}
}

// ShouldNotify reports whether moving from prev to next warrants a completion notification.
func (p CompletionPolicy) ShouldNotify(prev, next Status) bool {
	if !IsFullyCleared(next) {
		return false
	}
	switch p {
	case CompletionOnTransition:
		return !IsFullyCleared(prev)
	default:
		return AllFalse(prev)
	}
}
