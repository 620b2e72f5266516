package report

type State string

const (
	StateDraft     State = "draft"
	StateSend      State = "send"
	StateSubmitted State = "submitted"
	StateApproved  State = "approved"
	StateRejected  State = "rejected"
)

var validStates = map[State]bool{
	StateDraft:     true,
	StateSend:      true,
	StateSubmitted: true,
	StateApproved:  true,
	StateRejected:  true,
}

// transitions lists every move the lifecycle may make. send -> draft covers the
// rollback of a failed submission.
var transitions = map[State][]State{
	StateDraft:    {StateSend},
	StateSend:     {StateSubmitted, StateApproved, StateRejected, StateDraft},
	StateRejected: {StateDraft},
}

func (s State) String() string {
	return string(s)
}

func (s State) IsValid() bool {
	return validStates[s]
}

// IsTerminal is true for states no local action can leave.
func (s State) IsTerminal() bool {
	return s == StateSubmitted || s == StateApproved
}

// IsAdjudicated is true once the back office has delivered a verdict.
func (s State) IsAdjudicated() bool {
	return s == StateSubmitted || s == StateApproved || s == StateRejected
}

func (s State) CanTransitionTo(next State) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// IsEditable reports whether form data may still change locally.
func (s State) IsEditable() bool {
	return s == StateDraft
}
