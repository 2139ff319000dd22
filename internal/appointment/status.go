package appointment

import (
	"errors"
	"fmt"
	"strings"
)

// Status is the lifecycle state of an appointment.
type Status string

const (
	StatusPending   Status = "Pending"
	StatusConfirmed Status = "Confirmed"
	StatusRejected  Status = "Rejected"
	StatusCancelled Status = "Cancelled"
	StatusCompleted Status = "Completed"
)

// Action is something a caller asks to do to an appointment.
type Action string

const (
	ActionConfirm  Action = "confirm"
	ActionReject   Action = "reject"
	ActionCancel   Action = "cancel"
	ActionComplete Action = "complete"
)

// Invoice states of a completed appointment.
const (
	InvoicePending   = "Pending"
	InvoicePaid      = "Paid"
	InvoiceCancelled = "Cancelled"
)

var ErrInvalidTransition = errors.New("invalid status transition")

var transitions = map[Status]map[Action]Status{
	StatusPending: {
		ActionConfirm: StatusConfirmed,
		ActionReject:  StatusRejected,
		ActionCancel:  StatusCancelled,
	},
	StatusConfirmed: {
		ActionComplete: StatusCompleted,
		ActionCancel:   StatusCancelled,
	},
}

// NextState returns the status reached by applying action to current. Every
// status write goes through here; Completed, Rejected and Cancelled have no
// outgoing transitions.
func NextState(current Status, action Action) (Status, error) {
	if next, ok := transitions[current][action]; ok {
		return next, nil
	}
	return "", fmt.Errorf("%w: cannot %s an appointment that is %s", ErrInvalidTransition, action, current)
}

// IsTerminal reports whether no action can move s any further.
func (s Status) IsTerminal() bool {
	return len(transitions[s]) == 0
}

// ParseStatus accepts a status name in any letter case.
func ParseStatus(s string) (Status, error) {
	for _, st := range []Status{StatusPending, StatusConfirmed, StatusRejected, StatusCancelled, StatusCompleted} {
		if strings.EqualFold(s, string(st)) {
			return st, nil
		}
	}
	return "", fmt.Errorf("unknown appointment status %q", s)
}
