package admin

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/swasthatech/hospital-service/internal/auth"
	"github.com/swasthatech/hospital-service/internal/messaging"
	"github.com/swasthatech/hospital-service/internal/softdelete"
)

// LifecycleRecorder counts approval decisions and soft-delete operations.
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

func (s *Service) List(ctx context.Context) ([]Admin, error) {
	return s.repo.List(ctx, softdelete.Active)
}

func (s *Service) ListPending(ctx context.Context) ([]Admin, error) {
	return s.repo.ListPending(ctx)
}

func (s *Service) ListDeleted(ctx context.Context) ([]Admin, error) {
	return s.repo.List(ctx, softdelete.Deleted)
}

func (s *Service) Get(ctx context.Context, id int64) (*Admin, error) {
	return s.repo.GetByID(ctx, id, softdelete.Active)
}

func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	return s.repo.Stats(ctx)
}

// Approve approves a pending admin on behalf of the calling admin. When the
// body names an approver it must be the caller.
func (s *Service) Approve(ctx context.Context, p *auth.Principal, id int64, req ApproveRequest) (*Admin, error) {
	if !p.IsAdmin() {
		return nil, ErrForbidden
	}
	approverID := p.ProfileID
	if req.ApprovedBy != nil && *req.ApprovedBy != approverID {
		return nil, ErrApproverMismatch
	}

	if err := s.repo.Approve(ctx, id, approverID); err != nil {
		return nil, err
	}
	a, err := s.repo.GetByID(ctx, id, softdelete.Active)
	if err != nil {
		return nil, err
	}

	log.Info().Int64("admin_id", id).Int64("approved_by", approverID).Msg("admin approved")
	s.record(ctx, "approve")
	s.publishDecision(ctx, messaging.EventAdminApproved, a, approverID)
	return a, nil
}

// Reject discards a pending application by deleting its account.
func (s *Service) Reject(ctx context.Context, p *auth.Principal, id int64) error {
	if !p.IsAdmin() {
		return ErrForbidden
	}
	a, err := s.repo.GetByID(ctx, id, softdelete.Any)
	if err != nil {
		return err
	}
	if a.IsApproved {
		return ErrAlreadyApproved
	}
	if err := s.repo.Reject(ctx, id); err != nil {
		return err
	}

	log.Info().Int64("admin_id", id).Int64("user_id", a.UserID).Int64("rejected_by", p.ProfileID).Msg("admin application rejected")
	s.record(ctx, "reject")
	s.publishDecision(ctx, messaging.EventAdminRejected, a, p.ProfileID)
	return nil
}

func (s *Service) Update(ctx context.Context, id int64, req UpdateAdminRequest) (*Admin, error) {
	if req.AdminID != 0 && req.AdminID != id {
		return nil, ErrIDMismatch
	}
	if err := req.normalize(); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, id, req); err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, id, softdelete.Active)
}

func (s *Service) SoftDelete(ctx context.Context, p *auth.Principal, id int64, req softdelete.DeleteRequest) error {
	if p.ProfileID == id {
		return ErrSelfDelete
	}
	actor := softdelete.Actor(req.DeletedBy, p.Actor())
	if err := s.repo.SoftDelete(ctx, id, actor); err != nil {
		return err
	}
	log.Info().Int64("admin_id", id).Str("actor", actor).Str("reason", req.Reason).Msg("admin soft deleted")
	s.record(ctx, "soft_delete")
	return nil
}

func (s *Service) Restore(ctx context.Context, p *auth.Principal, id int64, req softdelete.RestoreRequest) error {
	if err := s.repo.Restore(ctx, id); err != nil {
		return err
	}
	log.Info().Int64("admin_id", id).Str("actor", softdelete.Actor(req.RestoredBy, p.Actor())).Msg("admin restored")
	s.record(ctx, "restore")
	return nil
}

func (s *Service) record(ctx context.Context, operation string) {
	if s.metrics != nil {
		s.metrics.RecordLifecycle(ctx, "admin", operation)
	}
}

func (s *Service) publishDecision(ctx context.Context, eventType string, a *Admin, decidedBy int64) {
	messaging.PublishBestEffort(ctx, s.publisher, eventType, messaging.AdminDecisionEvent{
		BaseEvent: messaging.NewBaseEvent(eventType),
		Data: messaging.AdminDecisionData{
			AdminID:   a.ID,
			UserID:    a.UserID,
			Email:     a.Email,
			DecidedBy: decidedBy,
			DecidedAt: time.Now().UTC(),
		},
	})
}
