package admin

import (
	"context"

	"github.com/swasthatech/hospital-service/internal/softdelete"
)

// RepositoryInterface defines the contract for admin profile data access
type RepositoryInterface interface {
	List(ctx context.Context, vis softdelete.Visibility) ([]Admin, error)
	ListPending(ctx context.Context) ([]Admin, error)
	GetByID(ctx context.Context, id int64, vis softdelete.Visibility) (*Admin, error)
	Approve(ctx context.Context, id, approverID int64) error
	Reject(ctx context.Context, id int64) error
	Update(ctx context.Context, id int64, req UpdateAdminRequest) error
	SoftDelete(ctx context.Context, id int64, actor string) error
	Restore(ctx context.Context, id int64) error
	Stats(ctx context.Context) (*Stats, error)
}

// Ensure Repository implements RepositoryInterface
var _ RepositoryInterface = (*Repository)(nil)
