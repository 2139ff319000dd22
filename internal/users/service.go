package users

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/swasthatech/hospital-service/internal/auth"
	"github.com/swasthatech/hospital-service/internal/messaging"
	"github.com/swasthatech/hospital-service/internal/softdelete"
)

// TokenIssuer signs login tokens.
type TokenIssuer interface {
	Issue(sub auth.TokenSubject) (*auth.IssuedToken, error)
}

// Recorder receives identity metrics.
type Recorder interface {
	RecordLogin(ctx context.Context, role, outcome string)
	RecordRegistration(ctx context.Context, role string)
}

type Service struct {
	repo      RepositoryInterface
	issuer    TokenIssuer
	publisher messaging.PublisherInterface
	metrics   Recorder
	orgDomain string
}

func NewService(repo RepositoryInterface, issuer TokenIssuer, publisher messaging.PublisherInterface, metrics Recorder, orgDomain string) *Service {
	return &Service{
		repo:      repo,
		issuer:    issuer,
		publisher: publisher,
		metrics:   metrics,
		orgDomain: strings.ToLower(strings.TrimSpace(orgDomain)),
	}
}

// Register creates an account. Patient and Doctor accounts get a token
// straight away so the client can submit profile details; Admin accounts
// wait for approval and get none.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*RegisterResponse, error) {
	return s.register(ctx, req, false)
}

// BootstrapAdmin creates an Admin account whose profile is approved from the
// start, with no approver. It exists so a fresh installation has someone
// able to approve the next admin.
func (s *Service) BootstrapAdmin(ctx context.Context, req RegisterRequest) (*RegisterResponse, error) {
	req.Role = auth.RoleAdmin
	resp, err := s.register(ctx, req, true)
	if err != nil {
		return nil, err
	}
	resp.Message = "Admin account created and approved"
	return resp, nil
}

func (s *Service) register(ctx context.Context, req RegisterRequest, approved bool) (*RegisterResponse, error) {
	email := NormalizeEmail(req.Email)
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if req.Password == "" {
		return nil, ErrMissingPassword
	}
	role, err := NormalizeRole(req.Role)
	if err != nil {
		return nil, err
	}
	if err := CheckEmailDomain(email, role, s.orgDomain); err != nil {
		return nil, err
	}

	var admin *AdminProfile
	if role == auth.RoleAdmin {
		admin = &AdminProfile{
			FullName:   strings.TrimSpace(req.FullName),
			Department: strings.TrimSpace(req.Department),
			ContactNo:  strings.TrimSpace(req.ContactNo),
			Approved:   approved,
		}
		if admin.FullName == "" {
			return nil, ErrMissingFullName
		}
		if admin.Department == "" {
			return nil, ErrMissingDepartment
		}
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user, err := s.repo.Create(ctx, email, hash, role, admin)
	if err != nil {
		return nil, err
	}

	log.Info().Int64("user_id", user.ID).Str("role", role).Msg("account registered")
	if s.metrics != nil {
		s.metrics.RecordRegistration(ctx, role)
	}
	messaging.PublishBestEffort(ctx, s.publisher, messaging.EventUserRegistered, messaging.UserRegisteredEvent{
		BaseEvent: messaging.NewBaseEvent(messaging.EventUserRegistered),
		Data: messaging.UserRegisteredData{
			UserID:    user.ID,
			Email:     user.Email,
			Role:      user.Role,
			CreatedAt: user.CreatedAt,
		},
	})

	resp := &RegisterResponse{
		Success: true,
		Message: "Registration successful",
		User:    user,
	}
	if role == auth.RoleAdmin {
		resp.Message = "Registration submitted. An approved admin must approve your account before you can log in."
		return resp, nil
	}

	tok, err := s.issuer.Issue(auth.TokenSubject{UserID: user.ID, Email: user.Email, Role: role})
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}
	resp.Token = tok.Token
	resp.ExpiresAt = &tok.ExpiresAt
	return resp, nil
}

func (s *Service) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	email := NormalizeEmail(req.Email)
	if email == "" {
		return nil, ErrMissingEmail
	}
	if req.Password == "" {
		return nil, ErrMissingPassword
	}

	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			s.recordLogin(ctx, "", "unknown_email")
			return nil, ErrEmailNotRegistered
		}
		return nil, err
	}

	if err := auth.CheckPassword(user.passwordHash, req.Password); err != nil {
		s.recordLogin(ctx, user.Role, "bad_password")
		return nil, ErrInvalidPassword
	}

	profile, err := s.repo.GetLoginProfile(ctx, user.ID, user.Role)
	if err != nil {
		if errors.Is(err, ErrProfileNotFound) {
			s.recordLogin(ctx, user.Role, "missing_profile")
			return nil, fmt.Errorf("%s %w", user.Role, ErrProfileNotFound)
		}
		return nil, err
	}
	if user.Role == auth.RoleAdmin && !profile.IsApproved {
		s.recordLogin(ctx, user.Role, "pending_approval")
		return nil, ErrPendingApproval
	}

	tok, err := s.issuer.Issue(auth.TokenSubject{
		UserID:    user.ID,
		Email:     user.Email,
		Role:      user.Role,
		ProfileID: profile.ProfileID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}

	resp := &LoginResponse{
		UserID:    user.ID,
		Email:     user.Email,
		Role:      user.Role,
		FullName:  profile.FullName,
		Token:     tok.Token,
		ExpiresAt: tok.ExpiresAt,
	}
	id := profile.ProfileID
	switch user.Role {
	case auth.RoleDoctor:
		resp.DoctorID = &id
	case auth.RolePatient:
		resp.PatientID = &id
	case auth.RoleAdmin:
		resp.AdminID = &id
	}

	s.recordLogin(ctx, user.Role, "success")
	log.Info().Int64("user_id", user.ID).Str("role", user.Role).Msg("login succeeded")
	return resp, nil
}

func (s *Service) recordLogin(ctx context.Context, role, outcome string) {
	if s.metrics != nil {
		s.metrics.RecordLogin(ctx, role, outcome)
	}
}

func canAccess(p *auth.Principal, userID int64) bool {
	return p.IsAdmin() || p.UserID == userID
}

func (s *Service) List(ctx context.Context) ([]User, error) {
	return s.repo.List(ctx, softdelete.Active)
}

func (s *Service) ListDeleted(ctx context.Context) ([]User, error) {
	return s.repo.List(ctx, softdelete.Deleted)
}

func (s *Service) Get(ctx context.Context, p *auth.Principal, id int64) (*User, error) {
	if !canAccess(p, id) {
		return nil, ErrForbidden
	}
	return s.repo.GetByID(ctx, id, softdelete.Active)
}

// Update changes email and/or password. A changed email must still satisfy
// the domain rule of the account's role.
func (s *Service) Update(ctx context.Context, p *auth.Principal, id int64, req UpdateUserRequest) (*User, error) {
	if req.UserID != 0 && req.UserID != id {
		return nil, ErrIDMismatch
	}
	if !canAccess(p, id) {
		return nil, ErrForbidden
	}

	current, err := s.repo.GetByID(ctx, id, softdelete.Active)
	if err != nil {
		return nil, err
	}

	var email, hash *string
	if req.Email != nil {
		e := NormalizeEmail(*req.Email)
		if err := validateEmail(e); err != nil {
			return nil, err
		}
		if err := CheckEmailDomain(e, current.Role, s.orgDomain); err != nil {
			return nil, err
		}
		email = &e
	}
	if req.Password != nil {
		h, err := auth.HashPassword(*req.Password)
		if err != nil {
			return nil, err
		}
		hash = &h
	}

	return s.repo.Update(ctx, id, email, hash)
}

func (s *Service) SoftDelete(ctx context.Context, p *auth.Principal, id int64, req softdelete.DeleteRequest) error {
	actor := softdelete.Actor(req.DeletedBy, p.Actor())
	if err := s.repo.SoftDelete(ctx, id, actor); err != nil {
		return err
	}
	log.Info().Int64("user_id", id).Str("actor", actor).Str("reason", req.Reason).Msg("user soft deleted")
	return nil
}

func (s *Service) Restore(ctx context.Context, p *auth.Principal, id int64, req softdelete.RestoreRequest) error {
	if err := s.repo.Restore(ctx, id); err != nil {
		return err
	}
	log.Info().Int64("user_id", id).Str("actor", softdelete.Actor(req.RestoredBy, p.Actor())).Msg("user restored")
	return nil
}
