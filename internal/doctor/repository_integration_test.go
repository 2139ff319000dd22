//go:build integration

package doctor

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/swasthatech/hospital-service/internal/auth"
	"github.com/swasthatech/hospital-service/internal/softdelete"
	"github.com/swasthatech/hospital-service/internal/testutil"
)

func TestRepositoryCreate_Integration(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer db.Close()
	defer testutil.CleanupTestDB(t, db)

	repo := NewRepository(db)
	ctx := context.Background()

	userID := testutil.CreateTestUser(t, db, "mehta@swasthatech.com", auth.RoleDoctor)
	patientUser := testutil.CreateTestUser(t, db, "asha@example.com", auth.RolePatient)

	req := CreateDoctorRequest{UserID: userID, FullName: "Dr. Mehta", Specialisation: "Cardiology", HPID: "HP-1", Availability: DefaultAvailability, ContactNo: "9876543210"}
	d, err := repo.Create(ctx, req)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if d.Email != "mehta@swasthatech.com" || d.Availability != DefaultAvailability {
		t.Errorf("Unexpected doctor: %+v", d)
	}

	if _, err := repo.Create(ctx, req); !errors.Is(err, ErrDetailsExist) {
		t.Errorf("Expected ErrDetailsExist, got: %v", err)
	}

	req.UserID = patientUser
	if _, err := repo.Create(ctx, req); !errors.Is(err, ErrNotDoctorAccount) {
		t.Errorf("Expected ErrNotDoctorAccount, got: %v", err)
	}

	other := testutil.CreateTestUser(t, db, "rao@swasthatech.com", auth.RoleDoctor)
	req.UserID = other
	req.HPID = "HP-2"
	if _, err := repo.Create(ctx, req); !errors.Is(err, ErrContactTaken) {
		t.Errorf("Expected ErrContactTaken, got: %v", err)
	}
	req.ContactNo = "9000000000"
	req.HPID = "hp-1"
	if _, err := repo.Create(ctx, req); !errors.Is(err, ErrHPIDTaken) {
		t.Errorf("Expected case-insensitive ErrHPIDTaken, got: %v", err)
	}
}

func TestRepositoryUniquenessProbes_Integration(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer db.Close()
	defer testutil.CleanupTestDB(t, db)

	repo := NewRepository(db)
	ctx := context.Background()

	id, _ := testutil.CreateTestDoctor(t, db, "mehta@swasthatech.com", "Dr. Mehta", "Cardiology")
	d, err := repo.GetByID(ctx, id, softdelete.Active)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}

	found, err := repo.HPIDExists(ctx, d.HPID, 0)
	if err != nil || !found {
		t.Errorf("Expected HPID to exist, got %v %v", found, err)
	}
	found, err = repo.HPIDExists(ctx, d.HPID, id)
	if err != nil || found {
		t.Errorf("Expected excluded doctor to be ignored, got %v %v", found, err)
	}
	found, err = repo.ContactExists(ctx, "0000000000", 0)
	if err != nil || found {
		t.Errorf("Expected unknown contact to be free, got %v %v", found, err)
	}
}

func TestRepositoryListBySpecialization_Integration(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer db.Close()
	defer testutil.CleanupTestDB(t, db)

	repo := NewRepository(db)
	ctx := context.Background()

	testutil.CreateTestDoctor(t, db, "mehta@swasthatech.com", "Dr. Mehta", "Cardiology")
	testutil.CreateTestDoctor(t, db, "rao@swasthatech.com", "Dr. Rao", "Paediatric Cardiology")
	testutil.CreateTestDoctor(t, db, "iyer@swasthatech.com", "Dr. Iyer", "Psychiatry")

	doctors, err := repo.ListBySpecialization(ctx, "CARDIO")
	if err != nil {
		t.Fatalf("ListBySpecialization failed: %v", err)
	}
	if len(doctors) != 2 {
		t.Errorf("Expected 2 cardiology matches, got %d", len(doctors))
	}

	// Wildcard characters match literally.
	doctors, err = repo.ListBySpecialization(ctx, "%")
	if err != nil {
		t.Fatalf("ListBySpecialization failed: %v", err)
	}
	if len(doctors) != 0 {
		t.Errorf("Expected no matches for a literal %%, got %d", len(doctors))
	}
}

func TestRepositoryLifecycle_Integration(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer db.Close()
	defer testutil.CleanupTestDB(t, db)

	repo := NewRepository(db)
	ctx := context.Background()

	id, userID := testutil.CreateTestDoctor(t, db, "mehta@swasthatech.com", "Dr. Mehta", "Cardiology")
	patientID, _ := testutil.CreateTestPatient(t, db, "asha@example.com", "Asha Rao")
	apptID := testutil.CreateTestAppointment(t, db, patientID, id, "Completed", time.Now().Add(-time.Hour))
	if _, err := db.Exec(`INSERT INTO prescriptions (appointment_id, diagnosis) VALUES ($1, 'flu')`, apptID); err != nil {
		t.Fatalf("Failed to seed prescription: %v", err)
	}

	if err := repo.SoftDelete(ctx, id, "1"); err != nil {
		t.Fatalf("SoftDelete failed: %v", err)
	}
	active, _ := repo.List(ctx, softdelete.Active)
	deleted, _ := repo.List(ctx, softdelete.Deleted)
	if len(active) != 0 || len(deleted) != 1 {
		t.Fatalf("Expected doctor only in deleted list, got active=%d deleted=%d", len(active), len(deleted))
	}

	expired, err := repo.ListDeletedBefore(ctx, time.Now().Add(time.Minute))
	if err != nil || len(expired) != 1 || expired[0] != id {
		t.Fatalf("Expected doctor to be past a future cutoff, got %v %v", expired, err)
	}

	if err := repo.Restore(ctx, id); err != nil {
		t.Fatalf("Restore failed: %v", err)
	}

	result, err := repo.PermanentDelete(ctx, id)
	if err != nil {
		t.Fatalf("PermanentDelete failed: %v", err)
	}
	if result.UserID != userID || result.Appointments != 1 {
		t.Errorf("Unexpected purge result: %+v", result)
	}

	var remaining int
	db.QueryRow(`SELECT
		(SELECT COUNT(*) FROM doctors WHERE doc_id = $1) +
		(SELECT COUNT(*) FROM users WHERE user_id = $2) +
		(SELECT COUNT(*) FROM appointments WHERE doctor_id = $1) +
		(SELECT COUNT(*) FROM prescriptions WHERE appointment_id = $3)`, id, userID, apptID).Scan(&remaining)
	if remaining != 0 {
		t.Errorf("Expected cascade to remove every dependent row, %d remain", remaining)
	}

	if _, err := repo.PermanentDelete(ctx, id); !errors.Is(err, ErrDoctorNotFound) {
		t.Errorf("Expected ErrDoctorNotFound, got: %v", err)
	}
}

func TestRepository_DeletedAccountHidesProfile_Integration(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer db.Close()
	defer testutil.CleanupTestDB(t, db)

	repo := NewRepository(db)
	ctx := context.Background()
	doctorID, userID := testutil.CreateTestDoctor(t, db, "rao@swasthatech.com", "Dr. Rao", "Cardiology")

	if _, err := db.Exec(`UPDATE users SET is_deleted = TRUE, deleted_at = NOW() WHERE user_id = $1`, userID); err != nil {
		t.Fatalf("Failed to soft delete account: %v", err)
	}

	if _, err := repo.GetByID(ctx, doctorID, softdelete.Active); !errors.Is(err, ErrDoctorNotFound) {
		t.Errorf("Expected ErrDoctorNotFound for a doctor whose account is deleted, got: %v", err)
	}
	active, err := repo.List(ctx, softdelete.Active)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(active) != 0 {
		t.Errorf("Expected no active doctors, got %d", len(active))
	}
	bySpec, err := repo.ListBySpecialization(ctx, "cardio")
	if err != nil {
		t.Fatalf("ListBySpecialization failed: %v", err)
	}
	if len(bySpec) != 0 {
		t.Errorf("Expected no doctors by specialization, got %d", len(bySpec))
	}
	if _, err := repo.GetByID(ctx, doctorID, softdelete.Any); err != nil {
		t.Errorf("Expected the row to remain reachable with Any, got: %v", err)
	}
}
