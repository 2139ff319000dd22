package users

import (
	"context"

	"github.com/swasthatech/hospital-service/internal/auth"
	"github.com/swasthatech/hospital-service/internal/softdelete"
)

// ServiceInterface defines the contract for account business logic operations
type ServiceInterface interface {
	Register(ctx context.Context, req RegisterRequest) (*RegisterResponse, error)
	Login(ctx context.Context, req LoginRequest) (*LoginResponse, error)
	List(ctx context.Context) ([]User, error)
	ListDeleted(ctx context.Context) ([]User, error)
	Get(ctx context.Context, p *auth.Principal, id int64) (*User, error)
	Update(ctx context.Context, p *auth.Principal, id int64, req UpdateUserRequest) (*User, error)
	SoftDelete(ctx context.Context, p *auth.Principal, id int64, req softdelete.DeleteRequest) error
	Restore(ctx context.Context, p *auth.Principal, id int64, req softdelete.RestoreRequest) error
}

var _ ServiceInterface = (*Service)(nil)
