package prescription

import "context"

// RepositoryInterface defines the contract for prescription data access
type RepositoryInterface interface {
	GetByID(ctx context.Context, id int64) (*Prescription, error)
	GetByAppointment(ctx context.Context, appointmentID int64) (*Prescription, error)
	List(ctx context.Context) ([]Prescription, error)
	Parties(ctx context.Context, appointmentID int64) (*Parties, error)
	Create(ctx context.Context, req CreatePrescriptionRequest) (*Prescription, error)
	Update(ctx context.Context, id int64, f Fields) (*Prescription, error)
	Delete(ctx context.Context, id int64) error
	SaveWithCompletion(ctx context.Context, appointmentID int64, f Fields, amount float64) (*Completion, error)
	PDFData(ctx context.Context, appointmentID int64) (*PDFData, error)
}

// Ensure Repository implements RepositoryInterface
var _ RepositoryInterface = (*Repository)(nil)
