package appointment

import "github.com/BruksfildServices01/hospital-scheduler/internal/httperr"

// ===============================
// Appointment Status
// ===============================

type Status string

const (
	StatusPending   Status = "Pending"
	StatusConfirmed Status = "Confirmed"
	StatusCompleted Status = "Completed"
	StatusCancelled Status = "Cancelled"
)

var (
	ErrNotFound     = httperr.ErrBusiness("appointment_not_found")
	ErrInvalidState = httperr.ErrBusiness("invalid_state")
)

// IsTerminal reports whether no further transition is allowed.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// ===============================
// Validations
// ===============================

//	Pending   -> Confirmed | Cancelled
//	Confirmed -> Completed | Cancelled
//	Pending / Confirmed -> reschedule (status kept)
func CanConfirm(current Status) error {
	if current != StatusPending {
		return ErrInvalidState
	}
	return nil
}

func CanCancel(current Status) error {
	if current != StatusPending && current != StatusConfirmed {
		return ErrInvalidState
	}
	return nil
}

func CanComplete(current Status) error {
	if current != StatusConfirmed {
		return ErrInvalidState
	}
	return nil
}

func CanReschedule(current Status) error {
	if current.IsTerminal() {
		return ErrInvalidState
	}
	return nil
}

func InitialStatus() Status {
	return StatusPending
}
