//go:build integration

package prescription

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/swasthatech/hospital-service/internal/appointment"
	"github.com/swasthatech/hospital-service/internal/testutil"
)

func seedAppointment(t *testing.T, status appointment.Status) (repo *Repository, appointmentID int64, cleanup func()) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	doctorID, _ := testutil.CreateTestDoctor(t, db, "mehta@swasthatech.com", "Dr. Mehta", "Cardiology")
	patientID, _ := testutil.CreateTestPatient(t, db, "asha@example.com", "Asha Rao")
	appointmentID = testutil.CreateTestAppointment(t, db, patientID, doctorID, string(status), time.Now().Add(time.Hour))
	return NewRepository(db), appointmentID, func() {
		testutil.CleanupTestDB(t, db)
		db.Close()
	}
}

func TestRepositoryCreateRoundTrip_Integration(t *testing.T) {
	repo, apptID, cleanup := seedAppointment(t, appointment.StatusConfirmed)
	defer cleanup()
	ctx := context.Background()

	lines := Lines{
		{SlNo: 1, MedicineID: 5, Name: "Amlodipine 5mg", PricePerTablet: 5, MorningAfter: 1, Days: 30},
		{SlNo: 2, MedicineID: 1, Name: "Paracetamol 500mg", PricePerTablet: 2, MorningBefore: 1, NightAfter: 1, Days: 5},
	}
	diagnosis := "hypertension"
	pr, err := repo.Create(ctx, CreatePrescriptionRequest{AppointmentID: apptID, Fields: Fields{Diagnosis: &diagnosis, Medicines: &lines}})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	got, err := repo.GetByAppointment(ctx, apptID)
	if err != nil {
		t.Fatalf("GetByAppointment failed: %v", err)
	}
	if got.ID != pr.ID || got.Diagnosis != diagnosis {
		t.Errorf("Unexpected prescription: %+v", got)
	}
	if !reflect.DeepEqual(got.Medicines, lines) {
		t.Errorf("Expected medicines to round-trip,\n got %+v\nwant %+v", got.Medicines, lines)
	}

	if _, err := repo.Create(ctx, CreatePrescriptionRequest{AppointmentID: apptID}); !errors.Is(err, ErrPrescriptionExists) {
		t.Errorf("Expected ErrPrescriptionExists, got: %v", err)
	}
}

func TestRepositoryCreate_RequiresConfirmed_Integration(t *testing.T) {
	repo, apptID, cleanup := seedAppointment(t, appointment.StatusPending)
	defer cleanup()

	if _, err := repo.Create(context.Background(), CreatePrescriptionRequest{AppointmentID: apptID}); !errors.Is(err, ErrAppointmentNotReady) {
		t.Fatalf("Expected ErrAppointmentNotReady, got: %v", err)
	}
	if _, err := repo.Create(context.Background(), CreatePrescriptionRequest{AppointmentID: 999999}); !errors.Is(err, ErrAppointmentNotFound) {
		t.Fatalf("Expected ErrAppointmentNotFound, got: %v", err)
	}
}

func TestRepositoryUpdate_PartialFields_Integration(t *testing.T) {
	repo, apptID, cleanup := seedAppointment(t, appointment.StatusConfirmed)
	defer cleanup()
	ctx := context.Background()

	lines := Lines{{SlNo: 1, Name: "Paracetamol 500mg", PricePerTablet: 2, NightAfter: 1, Days: 3}}
	diagnosis := "fever"
	pr, err := repo.Create(ctx, CreatePrescriptionRequest{AppointmentID: apptID, Fields: Fields{Diagnosis: &diagnosis, Medicines: &lines}})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	advice := "drink fluids"
	updated, err := repo.Update(ctx, pr.ID, Fields{Advice: &advice})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if updated.Diagnosis != "fever" || updated.Advice != advice || len(updated.Medicines) != 1 {
		t.Errorf("Expected omitted fields to be kept, got %+v", updated)
	}

	empty := Lines{}
	updated, err = repo.Update(ctx, pr.ID, Fields{Medicines: &empty})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if len(updated.Medicines) != 0 {
		t.Errorf("Expected medicines to be replaced, got %+v", updated.Medicines)
	}

	if _, err := repo.Update(ctx, 999999, Fields{Advice: &advice}); !errors.Is(err, ErrPrescriptionNotFound) {
		t.Errorf("Expected ErrPrescriptionNotFound, got: %v", err)
	}
	if err := repo.Delete(ctx, pr.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if err := repo.Delete(ctx, pr.ID); !errors.Is(err, ErrPrescriptionNotFound) {
		t.Errorf("Expected ErrPrescriptionNotFound, got: %v", err)
	}
}

func TestRepositorySaveWithCompletion_Integration(t *testing.T) {
	repo, apptID, cleanup := seedAppointment(t, appointment.StatusConfirmed)
	defer cleanup()
	ctx := context.Background()

	lines := Lines{
		{SlNo: 2, Name: "Cetirizine 10mg", PricePerTablet: 3.5, NightAfter: 1, Days: 5},
		{SlNo: 1, Name: "Paracetamol 500mg", PricePerTablet: 2, MorningAfter: 1, Days: 5},
	}.sorted()
	diagnosis := "allergic rhinitis"
	c, err := repo.SaveWithCompletion(ctx, apptID, Fields{Diagnosis: &diagnosis, Medicines: &lines}, 300)
	if err != nil {
		t.Fatalf("SaveWithCompletion failed: %v", err)
	}
	if c.PreviousStatus != string(appointment.StatusConfirmed) || c.Prescription.Diagnosis != diagnosis {
		t.Errorf("Unexpected completion: %+v", c)
	}

	var status, invoiceStatus, medicines, apptDiagnosis string
	var amount float64
	err = repo.db.QueryRowContext(ctx, `
		SELECT status, invoice_status, invoice_amount, medicines, diagnosis FROM appointments WHERE appointment_id = $1
	`, apptID).Scan(&status, &invoiceStatus, &amount, &medicines, &apptDiagnosis)
	if err != nil {
		t.Fatalf("Failed to read appointment: %v", err)
	}
	if status != "Completed" || invoiceStatus != "Pending" || amount != 300 {
		t.Errorf("Unexpected appointment state: %s %s %v", status, invoiceStatus, amount)
	}
	if medicines != "Paracetamol 500mg, Cetirizine 10mg" || apptDiagnosis != diagnosis {
		t.Errorf("Unexpected summary: %q %q", medicines, apptDiagnosis)
	}

	// A second completion fails and changes nothing.
	other := "changed"
	if _, err := repo.SaveWithCompletion(ctx, apptID, Fields{Diagnosis: &other}, 999); !errors.Is(err, appointment.ErrInvalidTransition) {
		t.Fatalf("Expected ErrInvalidTransition, got: %v", err)
	}
	pr, err := repo.GetByAppointment(ctx, apptID)
	if err != nil {
		t.Fatalf("GetByAppointment failed: %v", err)
	}
	if pr.Diagnosis != diagnosis {
		t.Errorf("Expected prescription unchanged after failed completion, got %q", pr.Diagnosis)
	}
}

func TestRepositorySaveWithCompletion_PendingIsUntouched_Integration(t *testing.T) {
	repo, apptID, cleanup := seedAppointment(t, appointment.StatusPending)
	defer cleanup()
	ctx := context.Background()

	diagnosis := "flu"
	if _, err := repo.SaveWithCompletion(ctx, apptID, Fields{Diagnosis: &diagnosis}, 300); !errors.Is(err, appointment.ErrInvalidTransition) {
		t.Fatalf("Expected ErrInvalidTransition, got: %v", err)
	}
	if _, err := repo.GetByAppointment(ctx, apptID); !errors.Is(err, ErrPrescriptionNotFound) {
		t.Errorf("Expected no prescription, got: %v", err)
	}
	var status string
	repo.db.QueryRowContext(ctx, `SELECT status FROM appointments WHERE appointment_id = $1`, apptID).Scan(&status)
	if status != "Pending" {
		t.Errorf("Expected status to stay Pending, got %s", status)
	}
}

func TestRepositoryPDFData_Integration(t *testing.T) {
	repo, apptID, cleanup := seedAppointment(t, appointment.StatusConfirmed)
	defer cleanup()
	ctx := context.Background()

	if _, err := repo.PDFData(ctx, apptID); !errors.Is(err, ErrPrescriptionNotFound) {
		t.Fatalf("Expected ErrPrescriptionNotFound before prescribing, got: %v", err)
	}
	if _, err := repo.SaveWithCompletion(ctx, apptID, Fields{}, 525); err != nil {
		t.Fatalf("SaveWithCompletion failed: %v", err)
	}

	data, err := repo.PDFData(ctx, apptID)
	if err != nil {
		t.Fatalf("PDFData failed: %v", err)
	}
	if data.PatientInfo.Name != "Asha Rao" || data.DoctorInfo.Specialisation != "Cardiology" {
		t.Errorf("Unexpected pdf data: %+v", data)
	}
	if data.InvoiceAmount == nil || *data.InvoiceAmount != 525 {
		t.Errorf("Expected invoice amount 525, got %v", data.InvoiceAmount)
	}
	if data.dob.Year() != 1990 {
		t.Errorf("Expected seeded date of birth, got %v", data.dob)
	}
}
