package prescription

import (
	"context"

	"github.com/swasthatech/hospital-service/internal/auth"
	"github.com/swasthatech/hospital-service/internal/billing"
)

// ServiceInterface defines the contract for prescription business logic operations
type ServiceInterface interface {
	List(ctx context.Context, p *auth.Principal) ([]Prescription, error)
	Get(ctx context.Context, p *auth.Principal, id int64) (*Prescription, error)
	GetByAppointment(ctx context.Context, p *auth.Principal, appointmentID int64) (*Prescription, error)
	Create(ctx context.Context, p *auth.Principal, req CreatePrescriptionRequest) (*Prescription, error)
	Update(ctx context.Context, p *auth.Principal, id int64, req UpdatePrescriptionRequest) (*Prescription, error)
	Delete(ctx context.Context, p *auth.Principal, id int64) error
	SaveWithCompletion(ctx context.Context, p *auth.Principal, req CompletionRequest) (*CompletionResult, error)
	CalculateBill(ctx context.Context, req BillRequest) (*billing.Bill, error)
	PDFData(ctx context.Context, p *auth.Principal, appointmentID int64) (*PDFData, error)
}

var _ ServiceInterface = (*Service)(nil)
