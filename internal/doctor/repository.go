package doctor

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

var tracer = otel.Tracer("github.com/swasthatech/hospital-service/doctor")

type Repository struct {
	db *sql.DB
}

func NewRepository(conn *sql.DB) *Repository {
	return &Repository{db: conn}
}

const selectDoctor = `
	SELECT d.doc_id, d.user_id, d.full_name, d.specialisation, d.hpid, d.availability,
	       d.contact_no, u.email, d.created_at, d.is_deleted, d.deleted_at, d.deleted_by
	FROM doctors d
	JOIN users u ON u.user_id = d.user_id`

func scanDoctor(row interface{ Scan(...any) error }) (*Doctor, error) {
	var d Doctor
	var deletedAt sql.NullTime
	var deletedBy sql.NullString

	err := row.Scan(
		&d.ID,
		&d.UserID,
		&d.FullName,
		&d.Specialisation,
		&d.HPID,
		&d.Availability,
		&d.ContactNo,
		&d.Email,
		&d.CreatedAt,
		&d.IsDeleted,
		&deletedAt,
		&deletedBy,
	)
	if err != nil {
		return nil, err
	}
	if deletedAt.Valid {
		d.DeletedAt = &deletedAt.Time
	}
	if deletedBy.Valid {
		d.DeletedBy = &deletedBy.String
	}
	return &d, nil
}

func (r *Repository) query(ctx context.Context, where string, args ...any) ([]Doctor, error) {
	rows, err := r.db.QueryContext(ctx, selectDoctor+` WHERE `+where+` ORDER BY d.full_name`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query doctors: %w", err)
	}
	defer rows.Close()

	doctors := []Doctor{}
	for rows.Next() {
		d, err := scanDoctor(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan doctor: %w", err)
		}
		doctors = append(doctors, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate doctors: %w", err)
	}
	return doctors, nil
}

// Create inserts a doctor profile for an existing Doctor account. The account
// row is locked so two concurrent submissions cannot both pass the
// one-profile-per-account check.
func (r *Repository) Create(ctx context.Context, req CreateDoctorRequest) (*Doctor, error) {
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
		if role != auth.RoleDoctor {
			return ErrNotDoctorAccount
		}

		var hasProfile bool
		if err := tx.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM doctors WHERE user_id = $1)`, req.UserID).Scan(&hasProfile); err != nil {
			return fmt.Errorf("failed to check existing profile: %w", err)
		}
		if hasProfile {
			return ErrDetailsExist
		}
		if err := checkUnique(ctx, tx, req.ContactNo, req.HPID, 0); err != nil {
			return err
		}

		err = tx.QueryRowContext(ctx, `
			INSERT INTO doctors (user_id, full_name, specialisation, hpid, availability, contact_no)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING doc_id
		`, req.UserID, req.FullName, req.Specialisation, req.HPID, req.Availability, req.ContactNo).Scan(&id)
		if err != nil {
			if db.IsUniqueViolation(err) {
				return ErrDetailsExist
			}
			return fmt.Errorf("failed to insert doctor: %w", err)
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

// checkUnique rejects a contact number or HPID already held by another
// active doctor. Empty values are not checked.
func checkUnique(ctx context.Context, q querier, contactNo, hpid string, excludeID int64) error {
	if contactNo != "" {
		taken, err := exists(ctx, q, `contact_no = $1`, contactNo, excludeID)
		if err != nil {
			return err
		}
		if taken {
			return ErrContactTaken
		}
	}
	if hpid != "" {
		taken, err := exists(ctx, q, `LOWER(hpid) = LOWER($1)`, hpid, excludeID)
		if err != nil {
			return err
		}
		if taken {
			return ErrHPIDTaken
		}
	}
	return nil
}

func exists(ctx context.Context, q querier, predicate, value string, excludeID int64) (bool, error) {
	var found bool
	err := q.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM doctors
			WHERE `+predicate+` AND is_deleted = FALSE AND ($2::bigint = 0 OR doc_id <> $2::bigint)
		)
	`, value, excludeID).Scan(&found)
	if err != nil {
		return false, fmt.Errorf("failed to check doctor uniqueness: %w", err)
	}
	return found, nil
}

func (r *Repository) ContactExists(ctx context.Context, contactNo string, excludeID int64) (bool, error) {
	return exists(ctx, r.db, `contact_no = $1`, contactNo, excludeID)
}

func (r *Repository) HPIDExists(ctx context.Context, hpid string, excludeID int64) (bool, error) {
	return exists(ctx, r.db, `LOWER(hpid) = LOWER($1)`, hpid, excludeID)
}

func (r *Repository) GetByID(ctx context.Context, id int64, vis softdelete.Visibility) (*Doctor, error) {
	d, err := scanDoctor(r.db.QueryRowContext(ctx, selectDoctor+` WHERE d.doc_id = $1 AND `+vis.OwnedClause("d", "u"), id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrDoctorNotFound
		}
		return nil, fmt.Errorf("failed to get doctor: %w", err)
	}
	return d, nil
}

func (r *Repository) List(ctx context.Context, vis softdelete.Visibility) ([]Doctor, error) {
	return r.query(ctx, vis.OwnedClause("d", "u"))
}

// ListBySpecialization matches a case-insensitive substring of the
// specialisation among active doctors.
func (r *Repository) ListBySpecialization(ctx context.Context, specialization string) ([]Doctor, error) {
	return r.query(ctx, `strpos(LOWER(d.specialisation), LOWER($1)) > 0 AND `+softdelete.Active.OwnedClause("d", "u"), specialization)
}

func (r *Repository) Update(ctx context.Context, id int64, req UpdateDoctorRequest) (*Doctor, error) {
	err := db.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		var contact, hpid string
		if req.ContactNo != nil {
			contact = *req.ContactNo
		}
		if req.HPID != nil {
			hpid = *req.HPID
		}
		if err := checkUnique(ctx, tx, contact, hpid, id); err != nil {
			return err
		}

		res, err := tx.ExecContext(ctx, `
			UPDATE doctors
			SET full_name = COALESCE($2, full_name),
			    specialisation = COALESCE($3, specialisation),
			    hpid = COALESCE($4, hpid),
			    availability = COALESCE($5, availability),
			    contact_no = COALESCE($6, contact_no)
			WHERE doc_id = $1 AND is_deleted = FALSE
		`, id, req.FullName, req.Specialisation, req.HPID, req.Availability, req.ContactNo)
		if err != nil {
			return fmt.Errorf("failed to update doctor: %w", err)
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
		UPDATE doctors SET is_deleted = TRUE, deleted_at = NOW(), deleted_by = $2
		WHERE doc_id = $1 AND is_deleted = FALSE
	`, id, actor)
	if err != nil {
		return fmt.Errorf("failed to soft delete doctor: %w", err)
	}
	return requireOneRow(res)
}

func (r *Repository) Restore(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE doctors SET is_deleted = FALSE, deleted_at = NULL, deleted_by = NULL
		WHERE doc_id = $1 AND is_deleted = TRUE
	`, id)
	if err != nil {
		return fmt.Errorf("failed to restore doctor: %w", err)
	}
	return requireOneRow(res)
}

// PermanentDelete removes the doctor regardless of soft-delete state along
// with its appointments, their prescriptions and the owning account. All of
// it commits together or not at all.
func (r *Repository) PermanentDelete(ctx context.Context, id int64) (*PurgeResult, error) {
	ctx, span := tracer.Start(ctx, "doctor.PermanentDelete")
	defer span.End()
	span.SetAttributes(attribute.Int64("doctor.id", id))

	result := &PurgeResult{DoctorID: id}
	err := db.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx, `SELECT user_id FROM doctors WHERE doc_id = $1 FOR UPDATE`, id).Scan(&result.UserID)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrDoctorNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to lock doctor: %w", err)
		}

		res, err := tx.ExecContext(ctx, `DELETE FROM appointments WHERE doctor_id = $1`, id)
		if err != nil {
			return fmt.Errorf("failed to delete appointments: %w", err)
		}
		if result.Appointments, err = res.RowsAffected(); err != nil {
			return fmt.Errorf("failed to read affected rows: %w", err)
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM doctors WHERE doc_id = $1`, id); err != nil {
			return fmt.Errorf("failed to delete doctor: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM users WHERE user_id = $1`, result.UserID); err != nil {
			return fmt.Errorf("failed to delete user: %w", err)
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
	span.SetStatus(codes.Ok, "doctor purged")
	return result, nil
}

// ListDeletedBefore returns ids of doctors soft-deleted before cutoff,
// oldest first.
func (r *Repository) ListDeletedBefore(ctx context.Context, cutoff time.Time) ([]int64, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT doc_id FROM doctors
		WHERE is_deleted = TRUE AND deleted_at < $1
		ORDER BY deleted_at ASC
	`, cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to query expired doctors: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan doctor id: %w", err)
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
		return ErrDoctorNotFound
	}
	return nil
}
