package medicine

import "context"

// ServiceInterface defines the contract for medicine catalog operations
type ServiceInterface interface {
	List(ctx context.Context) ([]Medicine, error)
	ListBySpecialization(ctx context.Context, specialization string) ([]Medicine, error)
	Get(ctx context.Context, id int64) (*Medicine, error)
}

var _ ServiceInterface = (*Service)(nil)
