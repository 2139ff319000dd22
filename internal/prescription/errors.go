package prescription

import "errors"

var (
	ErrPrescriptionNotFound = errors.New("prescription not found")
	ErrAppointmentNotFound  = errors.New("appointment not found")
	ErrAppointmentNotReady  = errors.New("only confirmed or completed appointments can have prescriptions")
	ErrPrescriptionExists   = errors.New("a prescription already exists for this appointment")
	ErrMissingAppointment   = errors.New("appointmentId is required")
	ErrIDMismatch           = errors.New("prescription id mismatch")
	ErrInvalidLine          = errors.New("invalid medicine line")
	ErrForbidden            = errors.New("forbidden - prescription belongs to someone else's appointment")
)
