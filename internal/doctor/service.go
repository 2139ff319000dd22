package doctor

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/swasthatech/hospital-service/internal/auth"
	"github.com/swasthatech/hospital-service/internal/messaging"
	"github.com/swasthatech/hospital-service/internal/softdelete"
)

const recordType = "doctor"

// LifecycleRecorder counts soft delete, restore and purge operations.
type LifecycleRecorder interface {
	RecordLifecycle(ctx context.Context, recordType, operation string)
}

type Service struct {
	repo      RepositoryInterface
	publisher messaging.PublisherInterface
	metrics   LifecycleRecorder
}

func NewService(repo RepositoryInterface, publisher messaging.PublisherInterface, metrics LifecycleRecorder) *Service {
	return &Service{
		repo:      repo,
		publisher: publisher,
		metrics:   metrics,
	}
}

// Create adds the doctor profile for an existing Doctor account. Only the
// account owner or an Admin may do so.
func (s *Service) Create(ctx context.Context, p *auth.Principal, req CreateDoctorRequest) (*Doctor, error) {
	if !p.IsAdmin() && p.UserID != req.UserID {
		return nil, ErrForbidden
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	d, err := s.repo.Create(ctx, req)
	if err != nil {
		return nil, err
	}
	log.Info().Int64("doctor_id", d.ID).Int64("user_id", d.UserID).Msg("doctor profile created")
	return d, nil
}

func (s *Service) Get(ctx context.Context, id int64) (*Doctor, error) {
	return s.repo.GetByID(ctx, id, softdelete.Active)
}

func (s *Service) List(ctx context.Context) ([]Doctor, error) {
	return s.repo.List(ctx, softdelete.Active)
}

func (s *Service) ListDeleted(ctx context.Context) ([]Doctor, error) {
	return s.repo.List(ctx, softdelete.Deleted)
}

func (s *Service) ListBySpecialization(ctx context.Context, specialization string) ([]Doctor, error) {
	specialization = strings.TrimSpace(specialization)
	if specialization == "" {
		return nil, ErrMissingSpecialization
	}
	return s.repo.ListBySpecialization(ctx, specialization)
}

// Update is open to the doctor themself and to admins.
func (s *Service) Update(ctx context.Context, p *auth.Principal, id int64, req UpdateDoctorRequest) (*Doctor, error) {
	if req.DocID != 0 && req.DocID != id {
		return nil, ErrIDMismatch
	}
	if !p.IsAdmin() && !(p.HasRole(auth.RoleDoctor) && p.ProfileID == id) {
		return nil, ErrForbidden
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return s.repo.Update(ctx, id, req)
}

func (s *Service) ContactExists(ctx context.Context, contactNo string, excludeID int64) (bool, error) {
	return s.repo.ContactExists(ctx, strings.TrimSpace(contactNo), excludeID)
}

func (s *Service) HPIDExists(ctx context.Context, hpid string, excludeID int64) (bool, error) {
	return s.repo.HPIDExists(ctx, strings.TrimSpace(hpid), excludeID)
}

func (s *Service) SoftDelete(ctx context.Context, p *auth.Principal, id int64, req softdelete.DeleteRequest) error {
	d, err := s.repo.GetByID(ctx, id, softdelete.Active)
	if err != nil {
		return err
	}
	actor := softdelete.Actor(req.DeletedBy, p.Actor())
	if err := s.repo.SoftDelete(ctx, id, actor); err != nil {
		return err
	}

	log.Info().Int64("doctor_id", id).Str("actor", actor).Str("reason", req.Reason).Msg("doctor soft deleted")
	s.record(ctx, "soft_delete")
	messaging.PublishBestEffort(ctx, s.publisher, messaging.EventDoctorDeleted,
		messaging.NewRecordLifecycleEvent(messaging.EventDoctorDeleted, recordType, id, d.UserID, actor, req.Reason))
	return nil
}

func (s *Service) Restore(ctx context.Context, p *auth.Principal, id int64, req softdelete.RestoreRequest) error {
	d, err := s.repo.GetByID(ctx, id, softdelete.Deleted)
	if err != nil {
		return err
	}
	if err := s.repo.Restore(ctx, id); err != nil {
		return err
	}

	actor := softdelete.Actor(req.RestoredBy, p.Actor())
	log.Info().Int64("doctor_id", id).Str("actor", actor).Msg("doctor restored")
	s.record(ctx, "restore")
	messaging.PublishBestEffort(ctx, s.publisher, messaging.EventDoctorRestored,
		messaging.NewRecordLifecycleEvent(messaging.EventDoctorRestored, recordType, id, d.UserID, actor, ""))
	return nil
}

// PermanentDelete purges the doctor, its appointments and its account.
func (s *Service) PermanentDelete(ctx context.Context, p *auth.Principal, id int64) (*PurgeResult, error) {
	result, err := s.repo.PermanentDelete(ctx, id)
	if err != nil {
		return nil, err
	}

	log.Info().
		Int64("doctor_id", id).
		Int64("user_id", result.UserID).
		Int64("appointments_deleted", result.Appointments).
		Str("actor", p.Actor()).
		Msg("doctor permanently deleted")
	s.record(ctx, "purge")
	messaging.PublishBestEffort(ctx, s.publisher, messaging.EventDoctorPurged,
		messaging.NewRecordLifecycleEvent(messaging.EventDoctorPurged, recordType, id, result.UserID, p.Actor(), ""))
	return result, nil
}

func (s *Service) record(ctx context.Context, operation string) {
	if s.metrics != nil {
		s.metrics.RecordLifecycle(ctx, recordType, operation)
	}
}
