package patient

import (
	"context"

	"github.com/swasthatech/hospital-service/internal/auth"
	"github.com/swasthatech/hospital-service/internal/softdelete"
)

// ServiceInterface defines the contract for patient business logic operations
type ServiceInterface interface {
	Create(ctx context.Context, p *auth.Principal, req CreatePatientRequest) (*Patient, error)
	Get(ctx context.Context, p *auth.Principal, id int64) (*Patient, error)
	List(ctx context.Context) ([]Patient, error)
	ListWithAccounts(ctx context.Context) ([]Patient, error)
	ListDeleted(ctx context.Context) ([]Patient, error)
	Update(ctx context.Context, p *auth.Principal, id int64, req UpdatePatientRequest) (*Patient, error)
	ContactExists(ctx context.Context, contactNo string, excludeID int64) (bool, error)
	AadhaarExists(ctx context.Context, aadhaarNo string, excludeID int64) (bool, error)
	SoftDelete(ctx context.Context, p *auth.Principal, id int64, req softdelete.DeleteRequest) error
	Restore(ctx context.Context, p *auth.Principal, id int64, req softdelete.RestoreRequest) error
	PermanentDelete(ctx context.Context, p *auth.Principal, id int64) (*PurgeResult, error)
}

var _ ServiceInterface = (*Service)(nil)
