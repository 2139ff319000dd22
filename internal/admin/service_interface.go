package admin

import (
	"context"

	"github.com/swasthatech/hospital-service/internal/auth"
	"github.com/swasthatech/hospital-service/internal/softdelete"
)

// ServiceInterface defines the contract for admin business logic operations
type ServiceInterface interface {
	List(ctx context.Context) ([]Admin, error)
	ListPending(ctx context.Context) ([]Admin, error)
	ListDeleted(ctx context.Context) ([]Admin, error)
	Get(ctx context.Context, id int64) (*Admin, error)
	Stats(ctx context.Context) (*Stats, error)
	Approve(ctx context.Context, p *auth.Principal, id int64, req ApproveRequest) (*Admin, error)
	Reject(ctx context.Context, p *auth.Principal, id int64) error
	Update(ctx context.Context, id int64, req UpdateAdminRequest) (*Admin, error)
	SoftDelete(ctx context.Context, p *auth.Principal, id int64, req softdelete.DeleteRequest) error
	Restore(ctx context.Context, p *auth.Principal, id int64, req softdelete.RestoreRequest) error
}

var _ ServiceInterface = (*Service)(nil)
