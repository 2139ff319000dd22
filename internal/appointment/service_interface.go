package appointment

import (
	"context"

	"github.com/swasthatech/hospital-service/internal/auth"
	"github.com/swasthatech/hospital-service/internal/pagination"
)

// ServiceInterface defines the contract for appointment business logic operations
type ServiceInterface interface {
	Book(ctx context.Context, p *auth.Principal, req BookRequest) (*Appointment, error)
	Get(ctx context.Context, p *auth.Principal, id int64) (*Appointment, error)
	ListForPatient(ctx context.Context, p *auth.Principal, patientID int64, scope Scope) ([]Appointment, error)
	ListForDoctor(ctx context.Context, p *auth.Principal, doctorID int64, scope Scope) ([]Appointment, error)
	ListAll(ctx context.Context, status *Status, params pagination.Params) (*pagination.Page[Appointment], error)
	Confirm(ctx context.Context, p *auth.Principal, id int64) (*Appointment, error)
	Reject(ctx context.Context, p *auth.Principal, id int64, reason string) (*Appointment, error)
	Cancel(ctx context.Context, p *auth.Principal, id int64, reason string) (*Appointment, error)
	MarkPaid(ctx context.Context, p *auth.Principal, id int64, req PaymentRequest) (*Appointment, error)
}

var _ ServiceInterface = (*Service)(nil)
