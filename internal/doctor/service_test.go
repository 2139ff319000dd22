package doctor

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/swasthatech/hospital-service/internal/auth"
	"github.com/swasthatech/hospital-service/internal/messaging"
	"github.com/swasthatech/hospital-service/internal/softdelete"
	"github.com/swasthatech/hospital-service/internal/testutil"
)

type mockRepository struct {
	createFunc               func(ctx context.Context, req CreateDoctorRequest) (*Doctor, error)
	getByIDFunc              func(ctx context.Context, id int64, vis softdelete.Visibility) (*Doctor, error)
	listFunc                 func(ctx context.Context, vis softdelete.Visibility) ([]Doctor, error)
	listBySpecializationFunc func(ctx context.Context, specialization string) ([]Doctor, error)
	updateFunc               func(ctx context.Context, id int64, req UpdateDoctorRequest) (*Doctor, error)
	contactExistsFunc        func(ctx context.Context, contactNo string, excludeID int64) (bool, error)
	hpidExistsFunc           func(ctx context.Context, hpid string, excludeID int64) (bool, error)
	softDeleteFunc           func(ctx context.Context, id int64, actor string) error
	restoreFunc              func(ctx context.Context, id int64) error
	permanentDeleteFunc      func(ctx context.Context, id int64) (*PurgeResult, error)
	listDeletedBeforeFunc    func(ctx context.Context, cutoff time.Time) ([]int64, error)
}

func (m *mockRepository) Create(ctx context.Context, req CreateDoctorRequest) (*Doctor, error) {
	if m.createFunc != nil {
		return m.createFunc(ctx, req)
	}
	return nil, errors.New("not implemented")
}

func (m *mockRepository) GetByID(ctx context.Context, id int64, vis softdelete.Visibility) (*Doctor, error) {
	if m.getByIDFunc != nil {
		return m.getByIDFunc(ctx, id, vis)
	}
	return nil, errors.New("not implemented")
}

func (m *mockRepository) List(ctx context.Context, vis softdelete.Visibility) ([]Doctor, error) {
	if m.listFunc != nil {
		return m.listFunc(ctx, vis)
	}
	return nil, errors.New("not implemented")
}

func (m *mockRepository) ListBySpecialization(ctx context.Context, specialization string) ([]Doctor, error) {
	if m.listBySpecializationFunc != nil {
		return m.listBySpecializationFunc(ctx, specialization)
	}
	return nil, errors.New("not implemented")
}

func (m *mockRepository) Update(ctx context.Context, id int64, req UpdateDoctorRequest) (*Doctor, error) {
	if m.updateFunc != nil {
		return m.updateFunc(ctx, id, req)
	}
	return nil, errors.New("not implemented")
}

func (m *mockRepository) ContactExists(ctx context.Context, contactNo string, excludeID int64) (bool, error) {
	if m.contactExistsFunc != nil {
		return m.contactExistsFunc(ctx, contactNo, excludeID)
	}
	return false, errors.New("not implemented")
}

func (m *mockRepository) HPIDExists(ctx context.Context, hpid string, excludeID int64) (bool, error) {
	if m.hpidExistsFunc != nil {
		return m.hpidExistsFunc(ctx, hpid, excludeID)
	}
	return false, errors.New("not implemented")
}

func (m *mockRepository) SoftDelete(ctx context.Context, id int64, actor string) error {
	if m.softDeleteFunc != nil {
		return m.softDeleteFunc(ctx, id, actor)
	}
	return errors.New("not implemented")
}

func (m *mockRepository) Restore(ctx context.Context, id int64) error {
	if m.restoreFunc != nil {
		return m.restoreFunc(ctx, id)
	}
	return errors.New("not implemented")
}

func (m *mockRepository) PermanentDelete(ctx context.Context, id int64) (*PurgeResult, error) {
	if m.permanentDeleteFunc != nil {
		return m.permanentDeleteFunc(ctx, id)
	}
	return nil, errors.New("not implemented")
}

func (m *mockRepository) ListDeletedBefore(ctx context.Context, cutoff time.Time) ([]int64, error) {
	if m.listDeletedBeforeFunc != nil {
		return m.listDeletedBeforeFunc(ctx, cutoff)
	}
	return nil, errors.New("not implemented")
}

type lifecycleCounter struct {
	ops []string
}

func (l *lifecycleCounter) RecordLifecycle(ctx context.Context, recordType, operation string) {
	l.ops = append(l.ops, recordType+":"+operation)
}

func adminPrincipal() *auth.Principal {
	return &auth.Principal{UserID: 1, Email: "root@swasthatech.com", Roles: []string{auth.RoleAdmin}, ProfileID: 1}
}

func doctorPrincipal(userID, docID int64) *auth.Principal {
	return &auth.Principal{UserID: userID, Email: "mehta@swasthatech.com", Roles: []string{auth.RoleDoctor}, ProfileID: docID}
}

func sampleDoctor(id int64) *Doctor {
	return &Doctor{ID: id, UserID: 40, FullName: "Dr. Mehta", Specialisation: "Cardiology", HPID: "HP-1", Availability: DefaultAvailability, ContactNo: "9876543210"}
}

func validCreate(userID int64) CreateDoctorRequest {
	return CreateDoctorRequest{UserID: userID, FullName: " Dr. Mehta ", Specialisation: "Cardiology", HPID: "HP-1", ContactNo: "9876543210"}
}

func TestCreate_SelfDefaultsAvailability(t *testing.T) {
	var got CreateDoctorRequest
	repo := &mockRepository{
		createFunc: func(ctx context.Context, req CreateDoctorRequest) (*Doctor, error) {
			got = req
			return sampleDoctor(5), nil
		},
	}
	s := NewService(repo, nil, nil)

	if _, err := s.Create(context.Background(), doctorPrincipal(40, 0), validCreate(40)); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if got.Availability != DefaultAvailability {
		t.Errorf("Expected default availability, got %q", got.Availability)
	}
	if got.FullName != "Dr. Mehta" {
		t.Errorf("Expected trimmed name, got %q", got.FullName)
	}
}

func TestCreate_Failures(t *testing.T) {
	tests := []struct {
		name      string
		principal *auth.Principal
		req       CreateDoctorRequest
		repoErr   error
		wantErr   error
	}{
		{"other user", doctorPrincipal(41, 0), validCreate(40), nil, ErrForbidden},
		{"missing hpid", adminPrincipal(), CreateDoctorRequest{UserID: 40, FullName: "A", Specialisation: "B", ContactNo: "1"}, nil, ErrMissingHPID},
		{"missing user", adminPrincipal(), CreateDoctorRequest{FullName: "A"}, nil, ErrMissingUserID},
		{"not a doctor account", adminPrincipal(), validCreate(40), ErrNotDoctorAccount, ErrNotDoctorAccount},
		{"duplicate profile", adminPrincipal(), validCreate(40), ErrDetailsExist, ErrDetailsExist},
		{"duplicate hpid", adminPrincipal(), validCreate(40), ErrHPIDTaken, ErrHPIDTaken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &mockRepository{
				createFunc: func(ctx context.Context, req CreateDoctorRequest) (*Doctor, error) {
					if tt.repoErr != nil {
						return nil, tt.repoErr
					}
					return sampleDoctor(5), nil
				},
			}
			s := NewService(repo, nil, nil)
			_, err := s.Create(context.Background(), tt.principal, tt.req)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Expected %v, got: %v", tt.wantErr, err)
			}
		})
	}
}

func TestUpdate_Ownership(t *testing.T) {
	repo := &mockRepository{
		updateFunc: func(ctx context.Context, id int64, req UpdateDoctorRequest) (*Doctor, error) {
			return sampleDoctor(id), nil
		},
	}
	s := NewService(repo, nil, nil)
	name := "Dr. A. Mehta"

	if _, err := s.Update(context.Background(), doctorPrincipal(40, 5), 5, UpdateDoctorRequest{FullName: &name}); err != nil {
		t.Errorf("Expected self update to succeed, got: %v", err)
	}
	if _, err := s.Update(context.Background(), doctorPrincipal(41, 6), 5, UpdateDoctorRequest{FullName: &name}); !errors.Is(err, ErrForbidden) {
		t.Errorf("Expected ErrForbidden, got: %v", err)
	}
	if _, err := s.Update(context.Background(), adminPrincipal(), 5, UpdateDoctorRequest{DocID: 6}); !errors.Is(err, ErrIDMismatch) {
		t.Errorf("Expected ErrIDMismatch, got: %v", err)
	}

	blank := " "
	if _, err := s.Update(context.Background(), adminPrincipal(), 5, UpdateDoctorRequest{ContactNo: &blank}); !errors.Is(err, ErrMissingContact) {
		t.Errorf("Expected ErrMissingContact, got: %v", err)
	}
}

func TestListBySpecialization_RequiresValue(t *testing.T) {
	s := NewService(&mockRepository{}, nil, nil)
	if _, err := s.ListBySpecialization(context.Background(), "  "); !errors.Is(err, ErrMissingSpecialization) {
		t.Fatalf("Expected ErrMissingSpecialization, got: %v", err)
	}
}

func TestSoftDelete_PublishesEvent(t *testing.T) {
	var actor string
	repo := &mockRepository{
		getByIDFunc: func(ctx context.Context, id int64, vis softdelete.Visibility) (*Doctor, error) {
			if vis != softdelete.Active {
				t.Errorf("Expected active lookup, got %v", vis)
			}
			return sampleDoctor(id), nil
		},
		softDeleteFunc: func(ctx context.Context, id int64, a string) error {
			actor = a
			return nil
		},
	}
	pub := testutil.NewMockPublisher()
	rec := &lifecycleCounter{}
	s := NewService(repo, pub, rec)

	if err := s.SoftDelete(context.Background(), adminPrincipal(), 5, softdelete.DeleteRequest{DeletedBy: "7", Reason: "licence lapsed"}); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if actor != "7" {
		t.Errorf("Expected explicit actor, got %s", actor)
	}
	ev := pub.GetLastEventByKey(messaging.EventDoctorDeleted)
	if ev == nil {
		t.Fatal("Expected doctor.deleted event")
	}
	data := ev.EventData.(messaging.RecordLifecycleEvent).Data
	if data.RecordID != 5 || data.UserID != 40 || data.Reason != "licence lapsed" {
		t.Errorf("Unexpected event data: %+v", data)
	}
	if len(rec.ops) != 1 || rec.ops[0] != "doctor:soft_delete" {
		t.Errorf("Unexpected metrics: %v", rec.ops)
	}
}

func TestSoftDelete_MissingDoctor(t *testing.T) {
	repo := &mockRepository{
		getByIDFunc: func(ctx context.Context, id int64, vis softdelete.Visibility) (*Doctor, error) {
			return nil, ErrDoctorNotFound
		},
	}
	pub := testutil.NewMockPublisher()
	s := NewService(repo, pub, nil)

	if err := s.SoftDelete(context.Background(), adminPrincipal(), 5, softdelete.DeleteRequest{}); !errors.Is(err, ErrDoctorNotFound) {
		t.Fatalf("Expected ErrDoctorNotFound, got: %v", err)
	}
	pub.AssertEventNotPublished(t, messaging.EventDoctorDeleted)
}

func TestRestore_LooksUpDeletedRow(t *testing.T) {
	repo := &mockRepository{
		getByIDFunc: func(ctx context.Context, id int64, vis softdelete.Visibility) (*Doctor, error) {
			if vis != softdelete.Deleted {
				return nil, ErrDoctorNotFound
			}
			return sampleDoctor(id), nil
		},
		restoreFunc: func(ctx context.Context, id int64) error {
			return nil
		},
	}
	pub := testutil.NewMockPublisher()
	s := NewService(repo, pub, nil)

	if err := s.Restore(context.Background(), adminPrincipal(), 5, softdelete.RestoreRequest{}); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	pub.AssertEventCount(t, messaging.EventDoctorRestored, 1)
}

func TestPermanentDelete(t *testing.T) {
	repo := &mockRepository{
		permanentDeleteFunc: func(ctx context.Context, id int64) (*PurgeResult, error) {
			return &PurgeResult{DoctorID: id, UserID: 40, Appointments: 3}, nil
		},
	}
	pub := testutil.NewMockPublisher()
	rec := &lifecycleCounter{}
	s := NewService(repo, pub, rec)

	result, err := s.PermanentDelete(context.Background(), adminPrincipal(), 5)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if result.Appointments != 3 {
		t.Errorf("Expected 3 appointments removed, got %d", result.Appointments)
	}
	pub.AssertEventCount(t, messaging.EventDoctorPurged, 1)
	if len(rec.ops) != 1 || rec.ops[0] != "doctor:purge" {
		t.Errorf("Unexpected metrics: %v", rec.ops)
	}
}
