package patient

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/swasthatech/hospital-service/internal/auth"
	"github.com/swasthatech/hospital-service/internal/messaging"
	"github.com/swasthatech/hospital-service/internal/softdelete"
)

const recordType = "patient"

// LifecycleRecorder counts soft delete, restore and purge operations.
type LifecycleRecorder interface {
	RecordLifecycle(ctx context.Context, recordType, operation string)
}

type Service struct {
	repo      RepositoryInterface
	publisher messaging.PublisherInterface
	metrics   LifecycleRecorder
	now       func() time.Time
}

func NewService(repo RepositoryInterface, publisher messaging.PublisherInterface, metrics LifecycleRecorder) *Service {
	return &Service{
		repo:      repo,
		publisher: publisher,
		metrics:   metrics,
		now:       time.Now,
	}
}

func isSelf(p *auth.Principal, patientID int64) bool {
	return p.HasRole(auth.RolePatient) && p.ProfileID == patientID
}

func (s *Service) withAge(patients ...*Patient) {
	today := s.now()
	for _, p := range patients {
		p.Age = AgeOn(p.DOB, today)
	}
}

func (s *Service) withAges(patients []Patient) []Patient {
	for i := range patients {
		s.withAge(&patients[i])
	}
	return patients
}

// Create adds the patient profile for an existing Patient account. Only the
// account owner or an Admin may do so.
func (s *Service) Create(ctx context.Context, p *auth.Principal, req CreatePatientRequest) (*Patient, error) {
	if !p.IsAdmin() && p.UserID != req.UserID {
		return nil, ErrForbidden
	}
	if err := req.Validate(s.now()); err != nil {
		return nil, err
	}

	pt, err := s.repo.Create(ctx, req)
	if err != nil {
		return nil, err
	}
	s.withAge(pt)
	log.Info().Int64("patient_id", pt.ID).Int64("user_id", pt.UserID).Msg("patient profile created")
	return pt, nil
}

// Get is open to admins, doctors and the patient themself.
func (s *Service) Get(ctx context.Context, p *auth.Principal, id int64) (*Patient, error) {
	if !p.IsAdmin() && !p.HasRole(auth.RoleDoctor) && !isSelf(p, id) {
		return nil, ErrForbidden
	}
	pt, err := s.repo.GetByID(ctx, id, softdelete.Active)
	if err != nil {
		return nil, err
	}
	s.withAge(pt)
	return pt, nil
}

func (s *Service) List(ctx context.Context) ([]Patient, error) {
	patients, err := s.repo.List(ctx, softdelete.Active, OrderByName)
	if err != nil {
		return nil, err
	}
	return s.withAges(patients), nil
}

// ListWithAccounts backs the admin management view, newest accounts first.
func (s *Service) ListWithAccounts(ctx context.Context) ([]Patient, error) {
	patients, err := s.repo.List(ctx, softdelete.Active, OrderByNewest)
	if err != nil {
		return nil, err
	}
	return s.withAges(patients), nil
}

func (s *Service) ListDeleted(ctx context.Context) ([]Patient, error) {
	patients, err := s.repo.List(ctx, softdelete.Deleted, OrderByNewest)
	if err != nil {
		return nil, err
	}
	return s.withAges(patients), nil
}

func (s *Service) Update(ctx context.Context, p *auth.Principal, id int64, req UpdatePatientRequest) (*Patient, error) {
	if req.PatientID != 0 && req.PatientID != id {
		return nil, ErrIDMismatch
	}
	if !p.IsAdmin() && !isSelf(p, id) {
		return nil, ErrForbidden
	}
	if err := req.Validate(s.now()); err != nil {
		return nil, err
	}
	pt, err := s.repo.Update(ctx, id, req)
	if err != nil {
		return nil, err
	}
	s.withAge(pt)
	return pt, nil
}

func (s *Service) ContactExists(ctx context.Context, contactNo string, excludeID int64) (bool, error) {
	return s.repo.ContactExists(ctx, strings.TrimSpace(contactNo), excludeID)
}

func (s *Service) AadhaarExists(ctx context.Context, aadhaarNo string, excludeID int64) (bool, error) {
	return s.repo.AadhaarExists(ctx, strings.TrimSpace(aadhaarNo), excludeID)
}

func (s *Service) SoftDelete(ctx context.Context, p *auth.Principal, id int64, req softdelete.DeleteRequest) error {
	pt, err := s.repo.GetByID(ctx, id, softdelete.Active)
	if err != nil {
		return err
	}
	actor := softdelete.Actor(req.DeletedBy, p.Actor())
	if err := s.repo.SoftDelete(ctx, id, actor); err != nil {
		return err
	}

	log.Info().Int64("patient_id", id).Str("actor", actor).Str("reason", req.Reason).Msg("patient soft deleted")
	s.record(ctx, "soft_delete")
	messaging.PublishBestEffort(ctx, s.publisher, messaging.EventPatientDeleted,
		messaging.NewRecordLifecycleEvent(messaging.EventPatientDeleted, recordType, id, pt.UserID, actor, req.Reason))
	return nil
}

func (s *Service) Restore(ctx context.Context, p *auth.Principal, id int64, req softdelete.RestoreRequest) error {
	pt, err := s.repo.GetByID(ctx, id, softdelete.Deleted)
	if err != nil {
		return err
	}
	if err := s.repo.Restore(ctx, id); err != nil {
		return err
	}

	actor := softdelete.Actor(req.RestoredBy, p.Actor())
	log.Info().Int64("patient_id", id).Str("actor", actor).Msg("patient restored")
	s.record(ctx, "restore")
	messaging.PublishBestEffort(ctx, s.publisher, messaging.EventPatientRestored,
		messaging.NewRecordLifecycleEvent(messaging.EventPatientRestored, recordType, id, pt.UserID, actor, ""))
	return nil
}

func (s *Service) PermanentDelete(ctx context.Context, p *auth.Principal, id int64) (*PurgeResult, error) {
	result, err := s.repo.PermanentDelete(ctx, id)
	if err != nil {
		return nil, err
	}

	log.Info().
		Int64("patient_id", id).
		Int64("user_id", result.UserID).
		Int64("appointments_deleted", result.Appointments).
		Str("actor", p.Actor()).
		Msg("patient permanently deleted")
	s.record(ctx, "purge")
	messaging.PublishBestEffort(ctx, s.publisher, messaging.EventPatientPurged,
		messaging.NewRecordLifecycleEvent(messaging.EventPatientPurged, recordType, id, result.UserID, p.Actor(), ""))
	return result, nil
}

func (s *Service) record(ctx context.Context, operation string) {
	if s.metrics != nil {
		s.metrics.RecordLifecycle(ctx, recordType, operation)
	}
}
