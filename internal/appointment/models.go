package appointment

import (
	"strings"
	"time"
)

// Appointment is the API view of an appointment joined with its patient and doctor.
type Appointment struct {
	ID              int64      `json:"appointmentId"`
	PatientID       int64      `json:"patientId"`
	PatientName     string     `json:"patientName"`
	DoctorID        int64      `json:"doctorId"`
	DoctorName      string     `json:"doctorName"`
	Specialisation  string     `json:"specialisation"`
	Status          Status     `json:"appointmentStatus"`
	AppointmentDate time.Time  `json:"appointmentDate"`
	Symptoms        string     `json:"symptoms"`
	Diagnosis       string     `json:"diagnosis"`
	Medicines       string     `json:"medicines"`
	InvoiceStatus   *string    `json:"invoiceStatus"`
	InvoiceAmount   *float64   `json:"invoiceAmount"`
	StatusReason    *string    `json:"statusReason"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       *time.Time `json:"updatedAt,omitempty"`
}

type BookRequest struct {
	PatientID       int64     `json:"patientId"`
	DoctorID        int64     `json:"doctorId"`
	AppointmentDate time.Time `json:"appointmentDate"`
	Symptoms        string    `json:"symptoms"`
}

// Validate checks the fields that do not need the store. now is the
// reference for the future-date rule.
func (r BookRequest) Validate(now time.Time) error {
	if r.PatientID <= 0 {
		return ErrMissingPatient
	}
	if r.DoctorID <= 0 {
		return ErrMissingDoctor
	}
	if r.AppointmentDate.IsZero() {
		return ErrMissingDate
	}
	if !r.AppointmentDate.After(now) {
		return ErrDateInPast
	}
	return nil
}

// ReasonRequest is the optional body of reject and cancel.
type ReasonRequest struct {
	Reason string `json:"reason"`
}

type PaymentRequest struct {
	InvoiceStatus string `json:"invoiceStatus"`
}

// Scope narrows a patient or doctor listing.
type Scope string

const (
	ScopeAll      Scope = "all"
	ScopePending  Scope = "pending"
	ScopeUpcoming Scope = "upcoming"
	ScopePrevious Scope = "previous"
)

// ParseScope maps a query value onto a Scope; empty means all.
func ParseScope(s string) (Scope, error) {
	switch Scope(strings.ToLower(strings.TrimSpace(s))) {
	case "", ScopeAll:
		return ScopeAll, nil
	case ScopePending:
		return ScopePending, nil
	case ScopeUpcoming:
		return ScopeUpcoming, nil
	case ScopePrevious:
		return ScopePrevious, nil
	}
	return "", ErrInvalidScope
}
