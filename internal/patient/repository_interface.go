package patient

import (
	"context"
	"time"

	"github.com/swasthatech/hospital-service/internal/softdelete"
)

// RepositoryInterface defines the contract for patient profile data access
type RepositoryInterface interface {
	Create(ctx context.Context, req CreatePatientRequest) (*Patient, error)
	GetByID(ctx context.Context, id int64, vis softdelete.Visibility) (*Patient, error)
	List(ctx context.Context, vis softdelete.Visibility, order ListOrder) ([]Patient, error)
	Update(ctx context.Context, id int64, req UpdatePatientRequest) (*Patient, error)
	ContactExists(ctx context.Context, contactNo string, excludeID int64) (bool, error)
	AadhaarExists(ctx context.Context, aadhaarNo string, excludeID int64) (bool, error)
	SoftDelete(ctx context.Context, id int64, actor string) error
	Restore(ctx context.Context, id int64) error
	PermanentDelete(ctx context.Context, id int64) (*PurgeResult, error)
	ListDeletedBefore(ctx context.Context, cutoff time.Time) ([]int64, error)
}

// Ensure Repository implements RepositoryInterface
var _ RepositoryInterface = (*Repository)(nil)
