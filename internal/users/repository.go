package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/swasthatech/hospital-service/internal/auth"
	"github.com/swasthatech/hospital-service/internal/db"
	"github.com/swasthatech/hospital-service/internal/softdelete"
)

type Repository struct {
	db *sql.DB
}

func NewRepository(conn *sql.DB) *Repository {
	return &Repository{db: conn}
}

const selectUser = `
	SELECT user_id, email, password_hash, role, created_at, updated_at, is_deleted, deleted_at, deleted_by
	FROM users u`

func scanUser(row interface{ Scan(...any) error }) (*User, error) {
	var u User
	var updatedAt, deletedAt sql.NullTime
	var deletedBy sql.NullString

	err := row.Scan(
		&u.ID,
		&u.Email,
		&u.passwordHash,
		&u.Role,
		&u.CreatedAt,
		&updatedAt,
		&u.IsDeleted,
		&deletedAt,
		&deletedBy,
	)
	if err != nil {
		return nil, err
	}
	if updatedAt.Valid {
		u.UpdatedAt = &updatedAt.Time
	}
	if deletedAt.Valid {
		u.DeletedAt = &deletedAt.Time
	}
	if deletedBy.Valid {
		u.DeletedBy = &deletedBy.String
	}
	return &u, nil
}

// Create inserts an account. For Admin accounts admin must be set and the
// unapproved Admin profile is inserted in the same transaction.
func (r *Repository) Create(ctx context.Context, email, passwordHash, role string, admin *AdminProfile) (*User, error) {
	var u *User
	err := db.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		var err error
		u, err = scanUser(tx.QueryRowContext(ctx, `
			INSERT INTO users (email, password_hash, role)
			VALUES ($1, $2, $3)
			RETURNING user_id, email, password_hash, role, created_at, updated_at, is_deleted, deleted_at, deleted_by
		`, email, passwordHash, role))
		if err != nil {
			if db.IsUniqueViolation(err) {
				return ErrEmailTaken
			}
			return fmt.Errorf("failed to insert user: %w", err)
		}

		if role != auth.RoleAdmin || admin == nil {
			return nil
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO admins (user_id, full_name, department, contact_no, is_approved, approved_at)
			VALUES ($1, $2, $3, NULLIF($4, ''), $5, CASE WHEN $5 THEN NOW() END)
		`, u.ID, admin.FullName, admin.Department, admin.ContactNo, admin.Approved)
		if err != nil {
			return fmt.Errorf("failed to insert admin profile: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return u, nil
}

func (r *Repository) GetByID(ctx context.Context, id int64, vis softdelete.Visibility) (*User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx, selectUser+` WHERE user_id = $1 AND `+vis.Clause("u"), id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return u, nil
}

// GetByEmail looks up an active account by its normalised email.
func (r *Repository) GetByEmail(ctx context.Context, email string) (*User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx, selectUser+` WHERE email = $1 AND `+softdelete.Active.Clause("u"), email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}
	return u, nil
}

func (r *Repository) List(ctx context.Context, vis softdelete.Visibility) ([]User, error) {
	rows, err := r.db.QueryContext(ctx, selectUser+` WHERE `+vis.Clause("u")+` ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	users := []User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate users: %w", err)
	}
	return users, nil
}

// Update changes the email and/or password hash of an active account.
// Nil fields keep their stored value.
func (r *Repository) Update(ctx context.Context, id int64, email, passwordHash *string) (*User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx, `
		UPDATE users
		SET email = COALESCE($2, email),
		    password_hash = COALESCE($3, password_hash),
		    updated_at = NOW()
		WHERE user_id = $1 AND is_deleted = FALSE
		RETURNING user_id, email, password_hash, role, created_at, updated_at, is_deleted, deleted_at, deleted_by
	`, id, email, passwordHash))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		if db.IsUniqueViolation(err) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	return u, nil
}

func (r *Repository) SoftDelete(ctx context.Context, id int64, actor string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE users SET is_deleted = TRUE, deleted_at = NOW(), deleted_by = $2
		WHERE user_id = $1 AND is_deleted = FALSE
	`, id, actor)
	if err != nil {
		return fmt.Errorf("failed to soft delete user: %w", err)
	}
	return requireOneRow(res)
}

func (r *Repository) Restore(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE users SET is_deleted = FALSE, deleted_at = NULL, deleted_by = NULL, updated_at = NOW()
		WHERE user_id = $1 AND is_deleted = TRUE
	`, id)
	if err != nil {
		return fmt.Errorf("failed to restore user: %w", err)
	}
	return requireOneRow(res)
}

func requireOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return ErrUserNotFound
	}
	return nil
}

var profileQueries = map[string]string{
	auth.RolePatient: `SELECT patient_id, full_name, TRUE FROM patients WHERE user_id = $1 AND is_deleted = FALSE`,
	auth.RoleDoctor:  `SELECT doc_id, full_name, TRUE FROM doctors WHERE user_id = $1 AND is_deleted = FALSE`,
	auth.RoleAdmin:   `SELECT admin_id, full_name, is_approved FROM admins WHERE user_id = $1 AND is_deleted = FALSE`,
}

// GetLoginProfile returns the active profile matching the account's role.
func (r *Repository) GetLoginProfile(ctx context.Context, userID int64, role string) (*LoginProfile, error) {
	query, ok := profileQueries[role]
	if !ok {
		return nil, ErrInvalidRole
	}

	var p LoginProfile
	err := r.db.QueryRowContext(ctx, query, userID).Scan(&p.ProfileID, &p.FullName, &p.IsApproved)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("failed to get %s profile: %w", role, err)
	}
	return &p, nil
}
