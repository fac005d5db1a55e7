package simulator

import "errors"

// State is the orchestrator's position in the conversation lifecycle.
type State string

const (
	StateAwaitingInitialSend State = "awaiting_initial_send" // Nothing sent yet
	StateAwaitingReply       State = "awaiting_reply"        // Polling for the counterpart
	StateReplying            State = "replying"              // Generating and sending a reply
	StateSendingFollowUp     State = "sending_follow_up"     // Optional "forgot to mention" email

	// Terminal
	StateTerminated State = "terminated"
)

// ErrInvalidTransition is returned when a state change is not allowed.
var ErrInvalidTransition = errors.New("invalid state transition")

// ValidTransitions defines allowed state changes.
var ValidTransitions = map[State][]State{
	StateAwaitingInitialSend: {StateAwaitingReply, StateTerminated},
	StateAwaitingReply:       {StateReplying, StateTerminated},
	StateReplying:            {StateAwaitingReply, StateSendingFollowUp, StateTerminated},
	StateSendingFollowUp:     {StateAwaitingReply, StateTerminated},
	StateTerminated:          {},
}

// IsTerminal reports whether no further transitions are possible.
func (s State) IsTerminal() bool {
	return s == StateTerminated
}

// String returns the string representation of the state.
func (s State) String() string {
	return string(s)
}

// CanTransitionTo checks if moving from s to target is allowed.
func (s State) CanTransitionTo(target State) bool {
	for _, t := range ValidTransitions[s] {
		if t == target {
			return true
		}
	}
	return false
}

// TransitionTo returns target, or s and ErrInvalidTransition when the move is not allowed.
func (s State) TransitionTo(target State) (State, error) {
	if !s.CanTransitionTo(target) {
		return s, ErrInvalidTransition
	}
	return target, nil
}
