package doctor

import (
	"context"

	"github.com/swasthatech/hospital-service/internal/auth"
	"github.com/swasthatech/hospital-service/internal/softdelete"
)

// ServiceInterface defines the contract for doctor business logic operations
type ServiceInterface interface {
	Create(ctx context.Context, p *auth.Principal, req CreateDoctorRequest) (*Doctor, error)
	Get(ctx context.Context, id int64) (*Doctor, error)
	List(ctx context.Context) ([]Doctor, error)
	ListDeleted(ctx context.Context) ([]Doctor, error)
	ListBySpecialization(ctx context.Context, specialization string) ([]Doctor, error)
	Update(ctx context.Context, p *auth.Principal, id int64, req UpdateDoctorRequest) (*Doctor, error)
	ContactExists(ctx context.Context, contactNo string, excludeID int64) (bool, error)
	HPIDExists(ctx context.Context, hpid string, excludeID int64) (bool, error)
	SoftDelete(ctx context.Context, p *auth.Principal, id int64, req softdelete.DeleteRequest) error
	Restore(ctx context.Context, p *auth.Principal, id int64, req softdelete.RestoreRequest) error
	PermanentDelete(ctx context.Context, p *auth.Principal, id int64) (*PurgeResult, error)
}

var _ ServiceInterface = (*Service)(nil)
