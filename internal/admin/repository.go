package admin

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/swasthatech/hospital-service/internal/db"
	"github.com/swasthatech/hospital-service/internal/softdelete"
)

type Repository struct {
	db *sql.DB
}

func NewRepository(conn *sql.DB) *Repository {
	return &Repository{db: conn}
}

const selectAdmin = `
	SELECT a.admin_id, a.user_id, a.full_name, u.email, a.department, a.contact_no,
	       a.is_approved, a.approved_by, ap.full_name, a.approved_at, a.created_at,
	       a.is_deleted, a.deleted_at, a.deleted_by
	FROM admins a
	JOIN users u ON u.user_id = a.user_id
	LEFT JOIN admins ap ON ap.admin_id = a.approved_by`

func scanAdmin(row interface{ Scan(...any) error }) (*Admin, error) {
	var a Admin
	var contactNo, approvedByName, deletedBy sql.NullString
	var approvedBy sql.NullInt64
	var approvedAt, deletedAt sql.NullTime

	err := row.Scan(
		&a.ID,
		&a.UserID,
		&a.FullName,
		&a.Email,
		&a.Department,
		&contactNo,
		&a.IsApproved,
		&approvedBy,
		&approvedByName,
		&approvedAt,
		&a.CreatedAt,
		&a.IsDeleted,
		&deletedAt,
		&deletedBy,
	)
	if err != nil {
		return nil, err
	}
	if contactNo.Valid {
		a.ContactNo = &contactNo.String
	}
	if approvedBy.Valid {
		a.ApprovedBy = &approvedBy.Int64
	}
	if approvedByName.Valid {
		a.ApprovedByName = &approvedByName.String
	}
	if approvedAt.Valid {
		a.ApprovedAt = &approvedAt.Time
	}
	if deletedAt.Valid {
		a.DeletedAt = &deletedAt.Time
	}
	if deletedBy.Valid {
		a.DeletedBy = &deletedBy.String
	}
	return &a, nil
}

func (r *Repository) query(ctx context.Context, where string, args ...any) ([]Admin, error) {
	rows, err := r.db.QueryContext(ctx, selectAdmin+` WHERE `+where+` ORDER BY a.created_at DESC`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query admins: %w", err)
	}
	defer rows.Close()

	admins := []Admin{}
	for rows.Next() {
		a, err := scanAdmin(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan admin: %w", err)
		}
		admins = append(admins, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate admins: %w", err)
	}
	return admins, nil
}

func (r *Repository) List(ctx context.Context, vis softdelete.Visibility) ([]Admin, error) {
	return r.query(ctx, vis.OwnedClause("a", "u"))
}

// ListPending returns active admins awaiting approval.
func (r *Repository) ListPending(ctx context.Context) ([]Admin, error) {
	return r.query(ctx, `a.is_approved = FALSE AND `+softdelete.Active.OwnedClause("a", "u"))
}

func (r *Repository) GetByID(ctx context.Context, id int64, vis softdelete.Visibility) (*Admin, error) {
	a, err := scanAdmin(r.db.QueryRowContext(ctx, selectAdmin+` WHERE a.admin_id = $1 AND `+vis.OwnedClause("a", "u"), id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAdminNotFound
		}
		return nil, fmt.Errorf("failed to get admin: %w", err)
	}
	return a, nil
}

// Approve marks the target approved by approverID. The target row is locked
// for the duration so two approvers cannot both succeed, and the approver
// must itself be an active approved admin at the time of the write.
func (r *Repository) Approve(ctx context.Context, id, approverID int64) error {
	return db.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		var approved bool
		err := tx.QueryRowContext(ctx, `
			SELECT is_approved FROM admins
			WHERE admin_id = $1 AND is_deleted = FALSE
			FOR UPDATE
		`, id).Scan(&approved)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrAdminNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to lock admin: %w", err)
		}
		if approved {
			return ErrAlreadyApproved
		}

		var approverOK bool
		err = tx.QueryRowContext(ctx, `
			SELECT is_approved FROM admins
			WHERE admin_id = $1 AND is_deleted = FALSE
		`, approverID).Scan(&approverOK)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrApproverNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to load approver: %w", err)
		}
		if !approverOK {
			return ErrApproverNotApproved
		}

		_, err = tx.ExecContext(ctx, `
			UPDATE admins SET is_approved = TRUE, approved_by = $2, approved_at = NOW()
			WHERE admin_id = $1
		`, id, approverID)
		if err != nil {
			return fmt.Errorf("failed to approve admin: %w", err)
		}
		return nil
	})
}

// Reject deletes the account behind an unapproved admin application. The
// admin row goes with it through the foreign key cascade.
func (r *Repository) Reject(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM users
		WHERE user_id = (SELECT user_id FROM admins WHERE admin_id = $1 AND is_approved = FALSE)
	`, id)
	if err != nil {
		return fmt.Errorf("failed to reject admin: %w", err)
	}
	return requireOneRow(res)
}

func (r *Repository) Update(ctx context.Context, id int64, req UpdateAdminRequest) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE admins
		SET full_name = COALESCE($2, full_name),
		    department = COALESCE($3, department),
		    contact_no = COALESCE(NULLIF($4, ''), contact_no)
		WHERE admin_id = $1 AND is_deleted = FALSE
	`, id, req.FullName, req.Department, req.ContactNo)
	if err != nil {
		return fmt.Errorf("failed to update admin: %w", err)
	}
	return requireOneRow(res)
}

func (r *Repository) SoftDelete(ctx context.Context, id int64, actor string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE admins SET is_deleted = TRUE, deleted_at = NOW(), deleted_by = $2
		WHERE admin_id = $1 AND is_deleted = FALSE
	`, id, actor)
	if err != nil {
		return fmt.Errorf("failed to soft delete admin: %w", err)
	}
	return requireOneRow(res)
}

func (r *Repository) Restore(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE admins SET is_deleted = FALSE, deleted_at = NULL, deleted_by = NULL
		WHERE admin_id = $1 AND is_deleted = TRUE
	`, id)
	if err != nil {
		return fmt.Errorf("failed to restore admin: %w", err)
	}
	return requireOneRow(res)
}

func (r *Repository) Stats(ctx context.Context) (*Stats, error) {
	var s Stats
	err := r.db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM doctors d JOIN users u ON u.user_id = d.user_id WHERE d.is_deleted = FALSE AND u.is_deleted = FALSE),
			(SELECT COUNT(*) FROM patients p JOIN users u ON u.user_id = p.user_id WHERE p.is_deleted = FALSE AND u.is_deleted = FALSE),
			(SELECT COUNT(*) FROM appointments),
			(SELECT COUNT(*) FROM appointments WHERE status = 'Pending'),
			(SELECT COUNT(*) FROM appointments WHERE status = 'Completed'),
			(SELECT COUNT(*) FROM admins WHERE is_approved = FALSE AND is_deleted = FALSE)
	`).Scan(
		&s.TotalDoctors,
		&s.TotalPatients,
		&s.TotalAppointments,
		&s.PendingAppointments,
		&s.CompletedAppointments,
		&s.PendingAdmins,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load stats: %w", err)
	}
	return &s, nil
}

func requireOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return ErrAdminNotFound
	}
	return nil
}
