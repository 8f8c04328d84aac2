package booking

// Action is a requested lifecycle change.
type Action string

const (
	ActionApprove  Action = "approve"
	ActionReject   Action = "reject"
	ActionCancel   Action = "cancel"
	ActionComplete Action = "complete"
)

// transitions is the booking state machine. A status absent from the map, or
// an action absent from a status' row, is not a legal step.
var transitions = map[Status]map[Action]Status{
	StatusPending: {
		ActionApprove: StatusConfirmed,
		ActionReject:  StatusRejected,
		ActionCancel:  StatusCancelled,
	},
	StatusConfirmed: {
		ActionCancel:   StatusCancelled,
		ActionComplete: StatusCompleted,
	},
}

func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusRejected, StatusCancelled, StatusCompleted:
		return true
	}
	return false
}

// IsTerminal reports whether no further transition is possible.
func (s Status) IsTerminal() bool {
	return len(transitions[s]) == 0
}

// IsActive reports whether a booking in this status blocks its slot.
func (s Status) IsActive() bool {
	return s == StatusPending || s == StatusConfirmed
}

// CanTransitionTo reports whether some action moves s to target in one step.
func (s Status) CanTransitionTo(target Status) bool {
	for _, to := range transitions[s] {
		if to == target {
			return true
		}
	}
	return false
}

func (a Action) IsValid() bool {
	switch a {
	case ActionApprove, ActionReject, ActionCancel, ActionComplete:
		return true
	}
	return false
}

// NextStatus returns the status reached by applying a to from.
func NextStatus(from Status, a Action) (Status, error) {
	if !a.IsValid() {
		return "", ErrInvalidAction
	}
	to, ok := transitions[from][a]
	if !ok {
		return "", ErrIllegalTransition
	}
	return to, nil
}

// ParseStatus converts a string into a Status.
func ParseStatus(s string) (Status, error) {
	st := Status(s)
	if !st.IsValid() {
		return "", ErrInvalidStatus
	}
	return st, nil
}

// ParseAction converts a string into an Action.
func ParseAction(s string) (Action, error) {
	a := Action(s)
	if !a.IsValid() {
		return "", ErrInvalidAction
	}
	return a, nil
}
