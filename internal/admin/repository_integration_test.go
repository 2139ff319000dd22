//go:build integration

package admin

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/swasthatech/hospital-service/internal/appointment"
	"github.com/swasthatech/hospital-service/internal/softdelete"
	"github.com/swasthatech/hospital-service/internal/testutil"
)

func TestRepositoryApprove_Integration(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer db.Close()
	defer testutil.CleanupTestDB(t, db)

	repo := NewRepository(db)
	ctx := context.Background()

	rootID, _ := testutil.CreateTestAdmin(t, db, "root@swasthatech.com", "Root Admin", true)
	pendingID, _ := testutil.CreateTestAdmin(t, db, "neha@swasthatech.com", "Neha Kapoor", false)
	otherPendingID, _ := testutil.CreateTestAdmin(t, db, "ravi@swasthatech.com", "Ravi Iyer", false)

	if err := repo.Approve(ctx, otherPendingID, pendingID); !errors.Is(err, ErrApproverNotApproved) {
		t.Fatalf("Expected ErrApproverNotApproved, got: %v", err)
	}
	if err := repo.Approve(ctx, pendingID, 99999); !errors.Is(err, ErrApproverNotFound) {
		t.Fatalf("Expected ErrApproverNotFound, got: %v", err)
	}

	if err := repo.Approve(ctx, pendingID, rootID); err != nil {
		t.Fatalf("Approve failed: %v", err)
	}
	a, err := repo.GetByID(ctx, pendingID, softdelete.Active)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if !a.IsApproved || a.ApprovedAt == nil || a.ApprovedBy == nil || *a.ApprovedBy != rootID {
		t.Errorf("Expected approval fields to be set, got %+v", a)
	}
	if a.ApprovedByName == nil || *a.ApprovedByName != "Root Admin" {
		t.Errorf("Expected approver name, got %v", a.ApprovedByName)
	}

	if err := repo.Approve(ctx, pendingID, rootID); !errors.Is(err, ErrAlreadyApproved) {
		t.Errorf("Expected ErrAlreadyApproved, got: %v", err)
	}

	// A freshly approved admin can approve others.
	if err := repo.Approve(ctx, otherPendingID, pendingID); err != nil {
		t.Errorf("Expected chained approval to succeed, got: %v", err)
	}
}

func TestRepositoryReject_DeletesAccount_Integration(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer db.Close()
	defer testutil.CleanupTestDB(t, db)

	repo := NewRepository(db)
	ctx := context.Background()

	pendingID, userID := testutil.CreateTestAdmin(t, db, "neha@swasthatech.com", "Neha Kapoor", false)

	if err := repo.Reject(ctx, pendingID); err != nil {
		t.Fatalf("Reject failed: %v", err)
	}

	var n int
	if err := db.QueryRow(`SELECT COUNT(*) FROM users WHERE user_id = $1`, userID).Scan(&n); err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if n != 0 {
		t.Error("Expected the account row to be deleted")
	}
	if _, err := repo.GetByID(ctx, pendingID, softdelete.Any); !errors.Is(err, ErrAdminNotFound) {
		t.Errorf("Expected admin row to cascade, got: %v", err)
	}
	if err := repo.Reject(ctx, pendingID); !errors.Is(err, ErrAdminNotFound) {
		t.Errorf("Expected ErrAdminNotFound on second reject, got: %v", err)
	}
}

func TestRepositoryStats_Integration(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer db.Close()
	defer testutil.CleanupTestDB(t, db)

	repo := NewRepository(db)
	ctx := context.Background()

	testutil.CreateTestAdmin(t, db, "neha@swasthatech.com", "Neha Kapoor", false)
	doctorID, _ := testutil.CreateTestDoctor(t, db, "mehta@swasthatech.com", "Dr. Mehta", "Cardiology")
	patientID, _ := testutil.CreateTestPatient(t, db, "asha@example.com", "Asha Rao")
	deletedDoctor, _ := testutil.CreateTestDoctor(t, db, "old@swasthatech.com", "Dr. Old", "General")
	if _, err := db.Exec(`UPDATE doctors SET is_deleted = TRUE, deleted_at = NOW() WHERE doc_id = $1`, deletedDoctor); err != nil {
		t.Fatalf("Failed to soft delete doctor: %v", err)
	}

	at := time.Now().Add(24 * time.Hour)
	testutil.CreateTestAppointment(t, db, patientID, doctorID, string(appointment.StatusPending), at)
	testutil.CreateTestAppointment(t, db, patientID, doctorID, string(appointment.StatusCompleted), at)

	s, err := repo.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	want := Stats{TotalDoctors: 1, TotalPatients: 1, TotalAppointments: 2, PendingAppointments: 1, CompletedAppointments: 1, PendingAdmins: 1}
	if *s != want {
		t.Errorf("Expected %+v, got %+v", want, *s)
	}
}

func TestRepositorySoftDeleteRestore_Integration(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer db.Close()
	defer testutil.CleanupTestDB(t, db)

	repo := NewRepository(db)
	ctx := context.Background()

	id, _ := testutil.CreateTestAdmin(t, db, "neha@swasthatech.com", "Neha Kapoor", true)

	if err := repo.SoftDelete(ctx, id, "root@swasthatech.com"); err != nil {
		t.Fatalf("SoftDelete failed: %v", err)
	}
	active, _ := repo.List(ctx, softdelete.Active)
	deleted, _ := repo.List(ctx, softdelete.Deleted)
	if len(active) != 0 || len(deleted) != 1 {
		t.Fatalf("Expected admin only in deleted list, got active=%d deleted=%d", len(active), len(deleted))
	}

	if err := repo.Restore(ctx, id); err != nil {
		t.Fatalf("Restore failed: %v", err)
	}
	if err := repo.Restore(ctx, id); !errors.Is(err, ErrAdminNotFound) {
		t.Errorf("Expected ErrAdminNotFound restoring an active admin, got: %v", err)
	}
}
