package appointment

import "errors"

var (
	ErrAppointmentNotFound  = errors.New("appointment not found")
	ErrPatientNotFound      = errors.New("patient not found")
	ErrDoctorNotFound       = errors.New("doctor not found")
	ErrMissingPatient       = errors.New("patientId is required")
	ErrMissingDoctor        = errors.New("doctorId is required")
	ErrMissingDate          = errors.New("appointmentDate is required")
	ErrDateInPast           = errors.New("appointmentDate must be in the future")
	ErrInvalidScope         = errors.New("scope must be one of all, pending, upcoming, previous")
	ErrInvalidInvoiceStatus = errors.New("invoiceStatus must be Paid")
	ErrNoInvoice            = errors.New("appointment has no invoice to pay")
	ErrStatusConflict       = errors.New("appointment was modified concurrently, reload and retry")
	ErrForbidden            = errors.New("forbidden - appointment belongs to someone else")
)
