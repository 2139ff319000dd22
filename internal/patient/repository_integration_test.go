//go:build integration

package patient

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

	userID := testutil.CreateTestUser(t, db, "asha@example.com", auth.RolePatient)
	doctorUser := testutil.CreateTestUser(t, db, "mehta@swasthatech.com", auth.RoleDoctor)

	req := CreatePatientRequest{
		UserID:    userID,
		FullName:  "Asha Rao",
		DOB:       NewDate(1990, time.June, 2),
		Gender:    "Female",
		ContactNo: "9123456780",
		Address:   "12 MG Road",
		AadhaarNo: "123412341234",
	}
	pt, err := repo.Create(ctx, req)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if pt.Email != "asha@example.com" || !pt.DOB.Equal(req.DOB.Time) {
		t.Errorf("Unexpected patient: %+v", pt)
	}

	if _, err := repo.Create(ctx, req); !errors.Is(err, ErrDetailsExist) {
		t.Errorf("Expected ErrDetailsExist, got: %v", err)
	}

	req.UserID = doctorUser
	if _, err := repo.Create(ctx, req); !errors.Is(err, ErrNotPatient) {
		t.Errorf("Expected ErrNotPatient, got: %v", err)
	}

	req.UserID = 999999
	if _, err := repo.Create(ctx, req); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("Expected ErrUserNotFound, got: %v", err)
	}

	other := testutil.CreateTestUser(t, db, "ravi@example.com", auth.RolePatient)
	req.UserID = other
	if _, err := repo.Create(ctx, req); !errors.Is(err, ErrContactTaken) {
		t.Errorf("Expected ErrContactTaken, got: %v", err)
	}
	req.ContactNo = "9123456781"
	if _, err := repo.Create(ctx, req); !errors.Is(err, ErrAadhaarTaken) {
		t.Errorf("Expected ErrAadhaarTaken, got: %v", err)
	}
}

func TestRepositoryListOrder_Integration(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer db.Close()
	defer testutil.CleanupTestDB(t, db)

	repo := NewRepository(db)
	ctx := context.Background()

	testutil.CreateTestPatient(t, db, "zara@example.com", "Zara Khan")
	testutil.CreateTestPatient(t, db, "asha@example.com", "Asha Rao")

	byName, err := repo.List(ctx, softdelete.Active, OrderByName)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(byName) != 2 || byName[0].FullName != "Asha Rao" {
		t.Errorf("Expected alphabetical order, got %+v", byName)
	}

	newest, err := repo.List(ctx, softdelete.Active, OrderByNewest)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(newest) != 2 || newest[0].FullName != "Asha Rao" {
		t.Errorf("Expected most recent account first, got %+v", newest)
	}
}

func TestRepositoryUpdate_Integration(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer db.Close()
	defer testutil.CleanupTestDB(t, db)

	repo := NewRepository(db)
	ctx := context.Background()

	id, _ := testutil.CreateTestPatient(t, db, "asha@example.com", "Asha Rao")
	otherID, _ := testutil.CreateTestPatient(t, db, "ravi@example.com", "Ravi Rao")
	other, err := repo.GetByID(ctx, otherID, softdelete.Active)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}

	dob := NewDate(1985, time.January, 20)
	addr := "7 Park Street"
	pt, err := repo.Update(ctx, id, UpdatePatientRequest{DOB: &dob, Address: &addr})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if !pt.DOB.Equal(dob.Time) || pt.Address != addr || pt.FullName != "Asha Rao" {
		t.Errorf("Unexpected patient after update: %+v", pt)
	}

	if _, err := repo.Update(ctx, id, UpdatePatientRequest{AadhaarNo: &other.AadhaarNo}); !errors.Is(err, ErrAadhaarTaken) {
		t.Errorf("Expected ErrAadhaarTaken, got: %v", err)
	}
	if _, err := repo.Update(ctx, 999999, UpdatePatientRequest{Address: &addr}); !errors.Is(err, ErrPatientNotFound) {
		t.Errorf("Expected ErrPatientNotFound, got: %v", err)
	}
}

func TestRepositoryLifecycle_Integration(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer db.Close()
	defer testutil.CleanupTestDB(t, db)

	repo := NewRepository(db)
	ctx := context.Background()

	id, userID := testutil.CreateTestPatient(t, db, "asha@example.com", "Asha Rao")
	doctorID, _ := testutil.CreateTestDoctor(t, db, "mehta@swasthatech.com", "Dr. Mehta", "Cardiology")
	testutil.CreateTestAppointment(t, db, id, doctorID, "Pending", time.Now().Add(24*time.Hour))
	testutil.CreateTestAppointment(t, db, id, doctorID, "Completed", time.Now().Add(-24*time.Hour))

	if err := repo.SoftDelete(ctx, id, "1"); err != nil {
		t.Fatalf("SoftDelete failed: %v", err)
	}
	if _, err := repo.GetByID(ctx, id, softdelete.Active); !errors.Is(err, ErrPatientNotFound) {
		t.Errorf("Expected deleted patient to be hidden, got: %v", err)
	}
	deleted, err := repo.GetByID(ctx, id, softdelete.Deleted)
	if err != nil {
		t.Fatalf("GetByID(Deleted) failed: %v", err)
	}
	if deleted.DeletedBy == nil || *deleted.DeletedBy != "1" {
		t.Errorf("Expected deleted_by to be recorded, got %v", deleted.DeletedBy)
	}

	if err := repo.Restore(ctx, id); err != nil {
		t.Fatalf("Restore failed: %v", err)
	}
	if err := repo.Restore(ctx, id); !errors.Is(err, ErrPatientNotFound) {
		t.Errorf("Expected restoring an active patient to fail, got: %v", err)
	}

	result, err := repo.PermanentDelete(ctx, id)
	if err != nil {
		t.Fatalf("PermanentDelete failed: %v", err)
	}
	if result.UserID != userID || result.Appointments != 2 {
		t.Errorf("Unexpected purge result: %+v", result)
	}

	var remaining int
	db.QueryRow(`SELECT
		(SELECT COUNT(*) FROM patients WHERE patient_id = $1) +
		(SELECT COUNT(*) FROM users WHERE user_id = $2) +
		(SELECT COUNT(*) FROM appointments WHERE patient_id = $1)`, id, userID).Scan(&remaining)
	if remaining != 0 {
		t.Errorf("Expected purge to remove every dependent row, %d remain", remaining)
	}
}
