package prescription

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/swasthatech/hospital-service/internal/appointment"
	"github.com/swasthatech/hospital-service/internal/db"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("github.com/swasthatech/hospital-service/prescription")

type Repository struct {
	db *sql.DB
}

func NewRepository(conn *sql.DB) *Repository {
	return &Repository{db: conn}
}

const prescriptionColumns = `
	p.prescription_id, p.appointment_id, p.diagnosis, p.medicines_json, p.chief_complaints,
	p.past_history, p.examination, p.advice, p.created_at, p.updated_at`

const selectPrescription = `SELECT` + prescriptionColumns + ` FROM prescriptions p`

// scanTargets returns the destinations for prescriptionColumns and a
// function that finishes decoding once Scan has run.
func scanTargets(pr *Prescription) ([]any, func() error) {
	var diagnosis, complaints, history, examination, advice sql.NullString
	var medicines []byte
	dest := []any{
		&pr.ID, &pr.AppointmentID, &diagnosis, &medicines, &complaints,
		&history, &examination, &advice, &pr.CreatedAt, &pr.UpdatedAt,
	}
	finish := func() error {
		pr.Diagnosis = diagnosis.String
		pr.ChiefComplaints = complaints.String
		pr.PastHistory = history.String
		pr.Examination = examination.String
		pr.Advice = advice.String
		pr.Medicines = Lines{}
		if len(medicines) > 0 {
			if err := json.Unmarshal(medicines, &pr.Medicines); err != nil {
				return fmt.Errorf("failed to decode medicines: %w", err)
			}
		}
		pr.Medicines = pr.Medicines.sorted()
		return nil
	}
	return dest, finish
}

func scanPrescription(row interface{ Scan(...any) error }) (*Prescription, error) {
	var pr Prescription
	dest, finish := scanTargets(&pr)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	if err := finish(); err != nil {
		return nil, err
	}
	return &pr, nil
}

// medicinesParam encodes a medicine list for a JSONB parameter; nil stays NULL.
func medicinesParam(ls *Lines) (any, error) {
	if ls == nil {
		return nil, nil
	}
	b, err := json.Marshal(*ls)
	if err != nil {
		return nil, fmt.Errorf("failed to encode medicines: %w", err)
	}
	return string(b), nil
}

func (r *Repository) one(ctx context.Context, where string, arg any) (*Prescription, error) {
	pr, err := scanPrescription(r.db.QueryRowContext(ctx, selectPrescription+` WHERE `+where, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPrescriptionNotFound
		}
		return nil, fmt.Errorf("failed to get prescription: %w", err)
	}
	return pr, nil
}

func (r *Repository) GetByID(ctx context.Context, id int64) (*Prescription, error) {
	return r.one(ctx, `p.prescription_id = $1`, id)
}

func (r *Repository) GetByAppointment(ctx context.Context, appointmentID int64) (*Prescription, error) {
	return r.one(ctx, `p.appointment_id = $1`, appointmentID)
}

func (r *Repository) List(ctx context.Context) ([]Prescription, error) {
	rows, err := r.db.QueryContext(ctx, selectPrescription+` ORDER BY p.created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query prescriptions: %w", err)
	}
	defer rows.Close()

	prescriptions := []Prescription{}
	for rows.Next() {
		pr, err := scanPrescription(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan prescription: %w", err)
		}
		prescriptions = append(prescriptions, *pr)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate prescriptions: %w", err)
	}
	return prescriptions, nil
}

// Parties returns the patient and doctor of an appointment.
func (r *Repository) Parties(ctx context.Context, appointmentID int64) (*Parties, error) {
	var p Parties
	err := r.db.QueryRowContext(ctx, `
		SELECT patient_id, doctor_id FROM appointments WHERE appointment_id = $1
	`, appointmentID).Scan(&p.PatientID, &p.DoctorID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrAppointmentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get appointment: %w", err)
	}
	return &p, nil
}

// Create adds the prescription of a Confirmed or Completed appointment that
// has none yet.
func (r *Repository) Create(ctx context.Context, req CreatePrescriptionRequest) (*Prescription, error) {
	medicines, err := medicinesParam(req.Medicines)
	if err != nil {
		return nil, err
	}

	var pr *Prescription
	err = db.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		var status string
		err := tx.QueryRowContext(ctx, `SELECT status FROM appointments WHERE appointment_id = $1 FOR UPDATE`, req.AppointmentID).Scan(&status)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrAppointmentNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to lock appointment: %w", err)
		}
		if s := appointment.Status(status); s != appointment.StatusConfirmed && s != appointment.StatusCompleted {
			return ErrAppointmentNotReady
		}

		pr, err = scanPrescription(tx.QueryRowContext(ctx, `
			INSERT INTO prescriptions AS p (appointment_id, diagnosis, medicines_json, chief_complaints, past_history, examination, advice)
			VALUES ($1, COALESCE($2, ''), COALESCE($3::jsonb, '[]'::jsonb), COALESCE($4, ''), COALESCE($5, ''), COALESCE($6, ''), COALESCE($7, ''))
			RETURNING`+prescriptionColumns,
			req.AppointmentID, req.Diagnosis, medicines, req.ChiefComplaints, req.PastHistory, req.Examination, req.Advice))
		if err != nil {
			if db.IsUniqueViolation(err) {
				return ErrPrescriptionExists
			}
			return fmt.Errorf("failed to insert prescription: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return pr, nil
}

// Update overwrites the fields that are set and keeps the others.
func (r *Repository) Update(ctx context.Context, id int64, f Fields) (*Prescription, error) {
	medicines, err := medicinesParam(f.Medicines)
	if err != nil {
		return nil, err
	}
	pr, err := scanPrescription(r.db.QueryRowContext(ctx, `
		UPDATE prescriptions AS p SET
			diagnosis = COALESCE($2, p.diagnosis),
			medicines_json = COALESCE($3::jsonb, p.medicines_json),
			chief_complaints = COALESCE($4, p.chief_complaints),
			past_history = COALESCE($5, p.past_history),
			examination = COALESCE($6, p.examination),
			advice = COALESCE($7, p.advice),
			updated_at = NOW()
		WHERE p.prescription_id = $1
		RETURNING`+prescriptionColumns,
		id, f.Diagnosis, medicines, f.ChiefComplaints, f.PastHistory, f.Examination, f.Advice))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPrescriptionNotFound
		}
		return nil, fmt.Errorf("failed to update prescription: %w", err)
	}
	return pr, nil
}

func (r *Repository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM prescriptions WHERE prescription_id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete prescription: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return ErrPrescriptionNotFound
	}
	return nil
}

// SaveWithCompletion upserts the prescription of a Confirmed appointment and
// completes it with a pending invoice of amount, in one transaction. A
// status that cannot complete returns appointment.ErrInvalidTransition and
// leaves both rows untouched.
func (r *Repository) SaveWithCompletion(ctx context.Context, appointmentID int64, f Fields, amount float64) (*Completion, error) {
	ctx, span := tracer.Start(ctx, "prescription.SaveWithCompletion")
	defer span.End()
	span.SetAttributes(
		attribute.Int64("appointment.id", appointmentID),
		attribute.Float64("invoice.amount", amount),
	)

	medicines, err := medicinesParam(f.Medicines)
	if err != nil {
		return nil, err
	}
	var summary any
	if lines := f.lines(); len(lines) > 0 {
		summary = lines.Summary()
	}

	c := &Completion{}
	err = db.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		var status string
		err := tx.QueryRowContext(ctx, `
			SELECT status, patient_id, doctor_id, appointment_date
			FROM appointments WHERE appointment_id = $1 FOR UPDATE
		`, appointmentID).Scan(&status, &c.PatientID, &c.DoctorID, &c.AppointmentDate)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrAppointmentNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to lock appointment: %w", err)
		}
		c.PreviousStatus = status

		next, err := appointment.NextState(appointment.Status(status), appointment.ActionComplete)
		if err != nil {
			return err
		}

		c.Prescription, err = scanPrescription(tx.QueryRowContext(ctx, `
			INSERT INTO prescriptions AS p (appointment_id, diagnosis, medicines_json, chief_complaints, past_history, examination, advice)
			VALUES ($1, COALESCE($2, ''), COALESCE($3::jsonb, '[]'::jsonb), COALESCE($4, ''), COALESCE($5, ''), COALESCE($6, ''), COALESCE($7, ''))
			ON CONFLICT (appointment_id) DO UPDATE SET
				diagnosis = COALESCE($2, p.diagnosis),
				medicines_json = COALESCE($3::jsonb, p.medicines_json),
				chief_complaints = COALESCE($4, p.chief_complaints),
				past_history = COALESCE($5, p.past_history),
				examination = COALESCE($6, p.examination),
				advice = COALESCE($7, p.advice),
				updated_at = NOW()
			RETURNING`+prescriptionColumns,
			appointmentID, f.Diagnosis, medicines, f.ChiefComplaints, f.PastHistory, f.Examination, f.Advice))
		if err != nil {
			return fmt.Errorf("failed to save prescription: %w", err)
		}

		_, err = tx.ExecContext(ctx, `
			UPDATE appointments SET
				status = $2,
				invoice_status = $3,
				invoice_amount = $4,
				diagnosis = NULLIF($5, ''),
				medicines = COALESCE($6, medicines),
				updated_at = NOW()
			WHERE appointment_id = $1
		`, appointmentID, string(next), appointment.InvoicePending, amount, c.Prescription.Diagnosis, summary)
		if err != nil {
			return fmt.Errorf("failed to complete appointment: %w", err)
		}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetStatus(codes.Ok, "appointment completed")
	return c, nil
}

// PDFData loads a prescription with the patient and doctor details of its
// appointment. Soft-deleted patients and doctors are included.
func (r *Repository) PDFData(ctx context.Context, appointmentID int64) (*PDFData, error) {
	data := &PDFData{Prescription: &Prescription{}}
	dest, finish := scanTargets(data.Prescription)

	var invoiceAmount sql.NullFloat64
	var dob time.Time
	dest = append(dest,
		&data.AppointmentDate, &invoiceAmount, &data.patientID, &data.doctorID,
		&data.PatientInfo.Name, &dob, &data.PatientInfo.Gender, &data.PatientInfo.ContactNo,
		&data.DoctorInfo.Name, &data.DoctorInfo.Specialisation, &data.DoctorInfo.HPID,
	)

	err := r.db.QueryRowContext(ctx, `
		SELECT`+prescriptionColumns+`,
		       a.appointment_date, a.invoice_amount, a.patient_id, a.doctor_id,
		       pt.full_name, pt.date_of_birth, pt.gender, pt.contact_no,
		       d.full_name, d.specialisation, d.hpid
		FROM prescriptions p
		JOIN appointments a ON a.appointment_id = p.appointment_id
		JOIN patients pt ON pt.patient_id = a.patient_id
		JOIN doctors d ON d.doc_id = a.doctor_id
		WHERE p.appointment_id = $1
	`, appointmentID).Scan(dest...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPrescriptionNotFound
		}
		return nil, fmt.Errorf("failed to load prescription pdf data: %w", err)
	}
	if err := finish(); err != nil {
		return nil, err
	}
	if invoiceAmount.Valid {
		data.InvoiceAmount = &invoiceAmount.Float64
	}
	data.dob = dob
	return data, nil
}
