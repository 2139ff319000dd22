package messaging

import (
	"time"

	"github.com/google/uuid"
)

// ServiceName is stamped on every event.
const ServiceName = "hospital-service"

// Event routing keys
const (
	EventUserRegistered = "user.registered"

	EventAdminApproved = "admin.approved"
	EventAdminRejected = "admin.rejected"

	EventAppointmentBooked        = "appointment.booked"
	EventAppointmentStatusChanged = "appointment.status_changed"
	EventAppointmentCompleted     = "appointment.completed"
	EventAppointmentPaid          = "appointment.paid"

	EventDoctorDeleted  = "doctor.deleted"
	EventDoctorRestored = "doctor.restored"
	EventDoctorPurged   = "doctor.purged"

	EventPatientDeleted  = "patient.deleted"
	EventPatientRestored = "patient.restored"
	EventPatientPurged   = "patient.purged"
)

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventType   string    `json:"event_type"`
	EventID     string    `json:"event_id"`
	Timestamp   time.Time `json:"timestamp"`
	ServiceName string    `json:"service_name"`
}

// NewBaseEvent creates a base event with common fields
func NewBaseEvent(eventType string) BaseEvent {
	return BaseEvent{
		EventType:   eventType,
		EventID:     uuid.New().String(),
		Timestamp:   time.Now().UTC(),
		ServiceName: ServiceName,
	}
}

// UserRegisteredEvent is published after a new account is created.
type UserRegisteredEvent struct {
	BaseEvent
	Data UserRegisteredData `json:"data"`
}

type UserRegisteredData struct {
	UserID    int64     `json:"user_id"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// AdminDecisionEvent covers approval and rejection of admin applications.
type AdminDecisionEvent struct {
	BaseEvent
	Data AdminDecisionData `json:"data"`
}

type AdminDecisionData struct {
	AdminID   int64     `json:"admin_id"`
	UserID    int64     `json:"user_id"`
	Email     string    `json:"email,omitempty"`
	DecidedBy int64     `json:"decided_by,omitempty"`
	DecidedAt time.Time `json:"decided_at"`
}

// AppointmentEvent covers booking, status changes, completion and payment.
type AppointmentEvent struct {
	BaseEvent
	Data AppointmentData `json:"data"`
}

type AppointmentData struct {
	AppointmentID   int64     `json:"appointment_id"`
	PatientID       int64     `json:"patient_id"`
	DoctorID        int64     `json:"doctor_id"`
	OldStatus       string    `json:"old_status,omitempty"`
	NewStatus       string    `json:"new_status"`
	AppointmentDate time.Time `json:"appointment_date"`
	InvoiceStatus   string    `json:"invoice_status,omitempty"`
	InvoiceAmount   float64   `json:"invoice_amount,omitempty"`
	Reason          string    `json:"reason,omitempty"`
	ChangedAt       time.Time `json:"changed_at"`
}

// RecordLifecycleEvent covers soft delete, restore and purge of doctor and
// patient records.
type RecordLifecycleEvent struct {
	BaseEvent
	Data RecordLifecycleData `json:"data"`
}

type RecordLifecycleData struct {
	RecordType string    `json:"record_type"`
	RecordID   int64     `json:"record_id"`
	UserID     int64     `json:"user_id,omitempty"`
	Actor      string    `json:"actor,omitempty"`
	Reason     string    `json:"reason,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// NewRecordLifecycleEvent builds a lifecycle event for a doctor or patient record.
func NewRecordLifecycleEvent(eventType, recordType string, recordID, userID int64, actor, reason string) RecordLifecycleEvent {
	return RecordLifecycleEvent{
		BaseEvent: NewBaseEvent(eventType),
		Data: RecordLifecycleData{
			RecordType: recordType,
			RecordID:   recordID,
			UserID:     userID,
			Actor:      actor,
			Reason:     reason,
			OccurredAt: time.Now().UTC(),
		},
	}
}
