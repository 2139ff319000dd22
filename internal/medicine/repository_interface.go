package medicine

import "context"

// RepositoryInterface defines the contract for medicine catalog access
type RepositoryInterface interface {
	List(ctx context.Context) ([]Medicine, error)
	ListBySpecialization(ctx context.Context, specialization string) ([]Medicine, error)
	GetByID(ctx context.Context, id int64) (*Medicine, error)
}

// Ensure Repository implements RepositoryInterface
var _ RepositoryInterface = (*Repository)(nil)
