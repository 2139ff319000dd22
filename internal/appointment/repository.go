package appointment

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const selectAppointment = `
	SELECT a.appointment_id, a.patient_id, p.full_name, a.doctor_id, d.full_name, d.specialisation,
	       a.status, a.appointment_date, a.symptoms, a.diagnosis, a.medicines,
	       a.invoice_status, a.invoice_amount, a.status_reason, a.created_at, a.updated_at
	FROM appointments a
	JOIN patients p ON p.patient_id = a.patient_id
	JOIN doctors d ON d.doc_id = a.doctor_id`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAppointment(row rowScanner) (*Appointment, error) {
	var a Appointment
	var status string
	var symptoms, diagnosis, medicines sql.NullString
	var invoiceStatus, statusReason sql.NullString
	var invoiceAmount sql.NullFloat64
	var updatedAt sql.NullTime

	err := row.Scan(
		&a.ID,
		&a.PatientID,
		&a.PatientName,
		&a.DoctorID,
		&a.DoctorName,
		&a.Specialisation,
		&status,
		&a.AppointmentDate,
		&symptoms,
		&diagnosis,
		&medicines,
		&invoiceStatus,
		&invoiceAmount,
		&statusReason,
		&a.CreatedAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	a.Status = Status(status)
	a.Symptoms = symptoms.String
	a.Diagnosis = diagnosis.String
	a.Medicines = medicines.String
	if invoiceStatus.Valid {
		a.InvoiceStatus = &invoiceStatus.String
	}
	if invoiceAmount.Valid {
		a.InvoiceAmount = &invoiceAmount.Float64
	}
	if statusReason.Valid {
		a.StatusReason = &statusReason.String
	}
	if updatedAt.Valid {
		a.UpdatedAt = &updatedAt.Time
	}
	return &a, nil
}

func (r *Repository) queryAppointments(ctx context.Context, query string, args ...any) ([]Appointment, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query appointments: %w", err)
	}
	defer rows.Close()

	appointments := []Appointment{}
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan appointment: %w", err)
		}
		appointments = append(appointments, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate appointments: %w", err)
	}
	return appointments, nil
}

// Create inserts a Pending appointment and returns it joined with names.
func (r *Repository) Create(ctx context.Context, req BookRequest) (*Appointment, error) {
	var id int64
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO appointments (patient_id, doctor_id, status, appointment_date, symptoms)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''))
		RETURNING appointment_id
	`, req.PatientID, req.DoctorID, string(StatusPending), req.AppointmentDate.UTC(), req.Symptoms).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("failed to insert appointment: %w", err)
	}
	return r.GetByID(ctx, id)
}

func (r *Repository) GetByID(ctx context.Context, id int64) (*Appointment, error) {
	a, err := scanAppointment(r.db.QueryRowContext(ctx, selectAppointment+` WHERE a.appointment_id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAppointmentNotFound
		}
		return nil, fmt.Errorf("failed to get appointment: %w", err)
	}
	return a, nil
}

// scopeFilter returns the predicate and ordering for scope. The predicate
// references $2 as the reference time when it needs one.
func scopeFilter(scope Scope) (string, string, bool) {
	switch scope {
	case ScopePending:
		return ` AND a.status = 'Pending'`, ` ORDER BY a.appointment_date ASC`, false
	case ScopeUpcoming:
		return ` AND a.status IN ('Pending', 'Confirmed') AND a.appointment_date >= $2`, ` ORDER BY a.appointment_date ASC`, true
	case ScopePrevious:
		return ` AND (a.status IN ('Completed', 'Rejected', 'Cancelled') OR a.appointment_date < $2)`, ` ORDER BY a.appointment_date DESC`, true
	default:
		return "", ` ORDER BY a.appointment_date DESC`, false
	}
}

func (r *Repository) listByParty(ctx context.Context, column string, id int64, scope Scope, now time.Time) ([]Appointment, error) {
	filter, order, needsNow := scopeFilter(scope)
	query := selectAppointment + ` WHERE a.` + column + ` = $1` + filter + order
	if needsNow {
		return r.queryAppointments(ctx, query, id, now.UTC())
	}
	return r.queryAppointments(ctx, query, id)
}

func (r *Repository) ListByPatient(ctx context.Context, patientID int64, scope Scope, now time.Time) ([]Appointment, error) {
	return r.listByParty(ctx, "patient_id", patientID, scope, now)
}

func (r *Repository) ListByDoctor(ctx context.Context, doctorID int64, scope Scope, now time.Time) ([]Appointment, error) {
	return r.listByParty(ctx, "doctor_id", doctorID, scope, now)
}

// List returns one page of all appointments, optionally filtered by status,
// together with the total number of matching rows.
func (r *Repository) List(ctx context.Context, status *Status, limit, offset int) ([]Appointment, int, error) {
	where := ` WHERE ($1::text IS NULL OR a.status = $1)`
	var statusArg sql.NullString
	if status != nil {
		statusArg = sql.NullString{String: string(*status), Valid: true}
	}

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM appointments a`+where, statusArg).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count appointments: %w", err)
	}

	items, err := r.queryAppointments(ctx,
		selectAppointment+where+` ORDER BY a.appointment_date DESC LIMIT $2 OFFSET $3`,
		statusArg, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// PartiesActive reports whether the patient and doctor both exist and
// neither the profile nor its account is soft-deleted.
func (r *Repository) PartiesActive(ctx context.Context, patientID, doctorID int64) (bool, bool, error) {
	var patientOK, doctorOK bool
	err := r.db.QueryRowContext(ctx, `
		SELECT
			EXISTS (SELECT 1 FROM patients p JOIN users u ON u.user_id = p.user_id
			        WHERE p.patient_id = $1 AND p.is_deleted = FALSE AND u.is_deleted = FALSE),
			EXISTS (SELECT 1 FROM doctors d JOIN users u ON u.user_id = d.user_id
			        WHERE d.doc_id = $2 AND d.is_deleted = FALSE AND u.is_deleted = FALSE)
	`, patientID, doctorID).Scan(&patientOK, &doctorOK)
	if err != nil {
		return false, false, fmt.Errorf("failed to check appointment parties: %w", err)
	}
	return patientOK, doctorOK, nil
}

// UpdateStatus moves an appointment from one status to another only if it
// is still in from. A lost race yields ErrStatusConflict, a missing row
// ErrAppointmentNotFound.
func (r *Repository) UpdateStatus(ctx context.Context, id int64, from, to Status, reason *string) (*Appointment, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE appointments
		SET status = $3, status_reason = COALESCE($4, status_reason), updated_at = NOW()
		WHERE appointment_id = $1 AND status = $2
	`, id, string(from), string(to), reason)
	if err != nil {
		return nil, fmt.Errorf("failed to update appointment status: %w", err)
	}
	if err := r.checkSwapped(ctx, res, id); err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

// SetInvoiceStatus is the invoice counterpart of UpdateStatus.
func (r *Repository) SetInvoiceStatus(ctx context.Context, id int64, from, to string) (*Appointment, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE appointments
		SET invoice_status = $3, updated_at = NOW()
		WHERE appointment_id = $1 AND invoice_status = $2
	`, id, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to update invoice status: %w", err)
	}
	if err := r.checkSwapped(ctx, res, id); err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

func (r *Repository) checkSwapped(ctx context.Context, res sql.Result, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n > 0 {
		return nil
	}
	var exists bool
	if err := r.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM appointments WHERE appointment_id = $1)`, id).Scan(&exists); err != nil {
		return fmt.Errorf("failed to check appointment: %w", err)
	}
	if !exists {
		return ErrAppointmentNotFound
	}
	return ErrStatusConflict
}
