package patient

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/swasthatech/hospital-service/internal/auth"
	"github.com/swasthatech/hospital-service/internal/db"
	"github.com/swasthatech/hospital-service/internal/softdelete"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("github.com/swasthatech/hospital-service/patient")

type Repository struct {
	db *sql.DB
}

func NewRepository(conn *sql.DB) *Repository {
	return &Repository{db: conn}
}

const selectPatient = `
	SELECT p.patient_id, p.user_id, p.full_name, u.email, p.date_of_birth, p.gender,
	       p.contact_no, p.address, p.aadhaar_no, p.created_at, u.created_at,
	       p.is_deleted, p.deleted_at, p.deleted_by
	FROM patients p
	JOIN users u ON u.user_id = p.user_id`

func scanPatient(row interface{ Scan(...any) error }) (*Patient, error) {
	var p Patient
	var dob time.Time
	var deletedAt sql.NullTime
	var deletedBy sql.NullString

	err := row.Scan(
		&p.ID,
		&p.UserID,
		&p.FullName,
		&p.Email,
		&dob,
		&p.Gender,
		&p.ContactNo,
		&p.Address,
		&p.AadhaarNo,
		&p.CreatedAt,
		&p.AccountCreatedAt,
		&p.IsDeleted,
		&deletedAt,
		&deletedBy,
	)
	if err != nil {
		return nil, err
	}
	p.DOB = NewDate(dob.Year(), dob.Month(), dob.Day())
	if deletedAt.Valid {
		p.DeletedAt = &deletedAt.Time
	}
	if deletedBy.Valid {
		p.DeletedBy = &deletedBy.String
	}
	return &p, nil
}

func (r *Repository) query(ctx context.Context, where string, order ListOrder, args ...any) ([]Patient, error) {
	rows, err := r.db.QueryContext(ctx, selectPatient+` WHERE `+where+` ORDER BY `+order.clause(), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query patients: %w", err)
	}
	defer rows.Close()

	patients := []Patient{}
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan patient: %w", err)
		}
		patients = append(patients, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate patients: %w", err)
	}
	return patients, nil
}

// Create inserts a patient profile for an existing Patient account.
func (r *Repository) Create(ctx context.Context, req CreatePatientRequest) (*Patient, error) {
	var id int64
	err := db.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		var role string
		err := tx.QueryRowContext(ctx, `
			SELECT role FROM users WHERE user_id = $1 AND is_deleted = FALSE FOR UPDATE
		`, req.UserID).Scan(&role)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrUserNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to load user: %w", err)
		}
		if role != auth.RolePatient {
			return ErrNotPatient
		}

		var hasProfile bool
		if err := tx.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM patients WHERE user_id = $1)`, req.UserID).Scan(&hasProfile); err != nil {
			return fmt.Errorf("failed to check existing profile: %w", err)
		}
		if hasProfile {
			return ErrDetailsExist
		}
		if err := checkUnique(ctx, tx, req.ContactNo, req.AadhaarNo, 0); err != nil {
			return err
		}

		err = tx.QueryRowContext(ctx, `
			INSERT INTO patients (user_id, full_name, date_of_birth, gender, contact_no, address, aadhaar_no)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			RETURNING patient_id
		`, req.UserID, req.FullName, req.DOB.Time, req.Gender, req.ContactNo, req.Address, req.AadhaarNo).Scan(&id)
		if err != nil {
			if db.IsUniqueViolation(err) {
				return ErrDetailsExist
			}
			return fmt.Errorf("failed to insert patient: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id, softdelete.Active)
}

type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func checkUnique(ctx context.Context, q querier, contactNo, aadhaarNo string, excludeID int64) error {
	if contactNo != "" {
		taken, err := exists(ctx, q, "contact_no", contactNo, excludeID)
		if err != nil {
			return err
		}
		if taken {
			return ErrContactTaken
		}
	}
	if aadhaarNo != "" {
		taken, err := exists(ctx, q, "aadhaar_no", aadhaarNo, excludeID)
		if err != nil {
			return err
		}
		if taken {
			return ErrAadhaarTaken
		}
	}
	return nil
}

// exists checks column against value among active patients. column is
// always a literal from this package.
func exists(ctx context.Context, q querier, column, value string, excludeID int64) (bool, error) {
	var found bool
	err := q.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM patients
			WHERE `+column+` = $1 AND is_deleted = FALSE AND ($2::bigint = 0 OR patient_id <> $2::bigint)
		)
	`, value, excludeID).Scan(&found)
	if err != nil {
		return false, fmt.Errorf("failed to check patient uniqueness: %w", err)
	}
	return found, nil
}

func (r *Repository) ContactExists(ctx context.Context, contactNo string, excludeID int64) (bool, error) {
	return exists(ctx, r.db, "contact_no", contactNo, excludeID)
}

func (r *Repository) AadhaarExists(ctx context.Context, aadhaarNo string, excludeID int64) (bool, error) {
	return exists(ctx, r.db, "aadhaar_no", aadhaarNo, excludeID)
}

func (r *Repository) GetByID(ctx context.Context, id int64, vis softdelete.Visibility) (*Patient, error) {
	p, err := scanPatient(r.db.QueryRowContext(ctx, selectPatient+` WHERE p.patient_id = $1 AND `+vis.OwnedClause("p", "u"), id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPatientNotFound
		}
		return nil, fmt.Errorf("failed to get patient: %w", err)
	}
	return p, nil
}

func (r *Repository) List(ctx context.Context, vis softdelete.Visibility, order ListOrder) ([]Patient, error) {
	return r.query(ctx, vis.OwnedClause("p", "u"), order)
}

func (r *Repository) Update(ctx context.Context, id int64, req UpdatePatientRequest) (*Patient, error) {
	var dob *time.Time
	if req.DOB != nil {
		dob = &req.DOB.Time
	}
	err := db.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		var contact, aadhaar string
		if req.ContactNo != nil {
			contact = *req.ContactNo
		}
		if req.AadhaarNo != nil {
			aadhaar = *req.AadhaarNo
		}
		if err := checkUnique(ctx, tx, contact, aadhaar, id); err != nil {
			return err
		}

		res, err := tx.ExecContext(ctx, `
			UPDATE patients
			SET full_name = COALESCE($2, full_name),
			    date_of_birth = COALESCE($3, date_of_birth),
			    gender = COALESCE($4, gender),
			    contact_no = COALESCE($5, contact_no),
			    address = COALESCE($6, address),
			    aadhaar_no = COALESCE($7, aadhaar_no)
			WHERE patient_id = $1 AND is_deleted = FALSE
		`, id, req.FullName, dob, req.Gender, req.ContactNo, req.Address, req.AadhaarNo)
		if err != nil {
			return fmt.Errorf("failed to update patient: %w", err)
		}
		return requireOneRow(res)
	})
	if err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id, softdelete.Active)
}

func (r *Repository) SoftDelete(ctx context.Context, id int64, actor string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE patients SET is_deleted = TRUE, deleted_at = NOW(), deleted_by = $2
		WHERE patient_id = $1 AND is_deleted = FALSE
	`, id, actor)
	if err != nil {
		return fmt.Errorf("failed to soft delete patient: %w", err)
	}
	return requireOneRow(res)
}

func (r *Repository) Restore(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE patients SET is_deleted = FALSE, deleted_at = NULL, deleted_by = NULL
		WHERE patient_id = $1 AND is_deleted = TRUE
	`, id)
	if err != nil {
		return fmt.Errorf("failed to restore patient: %w", err)
	}
	return requireOneRow(res)
}

// PermanentDelete removes the patient regardless of soft-delete state,
// together with its appointments, their prescriptions and the account, in
// one transaction.
func (r *Repository) PermanentDelete(ctx context.Context, id int64) (*PurgeResult, error) {
	ctx, span := tracer.Start(ctx, "patient.PermanentDelete")
	defer span.End()
	span.SetAttributes(attribute.Int64("patient.id", id))

	result := &PurgeResult{PatientID: id}
	err := db.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx, `SELECT user_id FROM patients WHERE patient_id = $1 FOR UPDATE`, id).Scan(&result.UserID)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrPatientNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to lock patient: %w", err)
		}

		res, err := tx.ExecContext(ctx, `DELETE FROM appointments WHERE patient_id = $1`, id)
		if err != nil {
			return fmt.Errorf("failed to delete appointments: %w", err)
		}
		if result.Appointments, err = res.RowsAffected(); err != nil {
			return fmt.Errorf("failed to read affected rows: %w", err)
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM users WHERE user_id = $1`, result.UserID); err != nil {
			return fmt.Errorf("failed to delete user: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM patients WHERE patient_id = $1`, id); err != nil {
			return fmt.Errorf("failed to delete patient: %w", err)
		}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(
		attribute.Int64("user.id", result.UserID),
		attribute.Int64("appointments.deleted", result.Appointments),
	)
	span.SetStatus(codes.Ok, "patient purged")
	return result, nil
}

// ListDeletedBefore returns ids of patients soft-deleted before cutoff,
// oldest first.
func (r *Repository) ListDeletedBefore(ctx context.Context, cutoff time.Time) ([]int64, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT patient_id FROM patients
		WHERE is_deleted = TRUE AND deleted_at < $1
		ORDER BY deleted_at ASC
	`, cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to query expired patients: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan patient id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func requireOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return ErrPatientNotFound
	}
	return nil
}
