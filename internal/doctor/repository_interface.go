package doctor

import (
	"context"
	"time"

	"github.com/swasthatech/hospital-service/internal/softdelete"
)

// RepositoryInterface defines the contract for doctor profile data access
type RepositoryInterface interface {
	Create(ctx context.Context, req CreateDoctorRequest) (*Doctor, error)
	GetByID(ctx context.Context, id int64, vis softdelete.Visibility) (*Doctor, error)
	List(ctx context.Context, vis softdelete.Visibility) ([]Doctor, error)
	ListBySpecialization(ctx context.Context, specialization string) ([]Doctor, error)
	Update(ctx context.Context, id int64, req UpdateDoctorRequest) (*Doctor, error)
	ContactExists(ctx context.Context, contactNo string, excludeID int64) (bool, error)
	HPIDExists(ctx context.Context, hpid string, excludeID int64) (bool, error)
	SoftDelete(ctx context.Context, id int64, actor string) error
	Restore(ctx context.Context, id int64) error
	PermanentDelete(ctx context.Context, id int64) (*PurgeResult, error)
	ListDeletedBefore(ctx context.Context, cutoff time.Time) ([]int64, error)
}

// Ensure Repository implements RepositoryInterface
var _ RepositoryInterface = (*Repository)(nil)
