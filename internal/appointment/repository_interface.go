package appointment

import (
	"context"
	"time"
)

// RepositoryInterface defines the contract for appointment data access
type RepositoryInterface interface {
	Create(ctx context.Context, req BookRequest) (*Appointment, error)
	GetByID(ctx context.Context, id int64) (*Appointment, error)
	ListByPatient(ctx context.Context, patientID int64, scope Scope, now time.Time) ([]Appointment, error)
	ListByDoctor(ctx context.Context, doctorID int64, scope Scope, now time.Time) ([]Appointment, error)
	List(ctx context.Context, status *Status, limit, offset int) ([]Appointment, int, error)
	PartiesActive(ctx context.Context, patientID, doctorID int64) (patientOK, doctorOK bool, err error)
	UpdateStatus(ctx context.Context, id int64, from, to Status, reason *string) (*Appointment, error)
	SetInvoiceStatus(ctx context.Context, id int64, from, to string) (*Appointment, error)
}

// Ensure Repository implements RepositoryInterface
var _ RepositoryInterface = (*Repository)(nil)
