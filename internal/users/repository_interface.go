package users

import (
	"context"

	"github.com/swasthatech/hospital-service/internal/softdelete"
)

// RepositoryInterface defines the contract for account data access
type RepositoryInterface interface {
	Create(ctx context.Context, email, passwordHash, role string, admin *AdminProfile) (*User, error)
	GetByID(ctx context.Context, id int64, vis softdelete.Visibility) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	List(ctx context.Context, vis softdelete.Visibility) ([]User, error)
	Update(ctx context.Context, id int64, email, passwordHash *string) (*User, error)
	SoftDelete(ctx context.Context, id int64, actor string) error
	Restore(ctx context.Context, id int64) error
	GetLoginProfile(ctx context.Context, userID int64, role string) (*LoginProfile, error)
}

// Ensure Repository implements RepositoryInterface
var _ RepositoryInterface = (*Repository)(nil)
