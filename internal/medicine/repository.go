package medicine

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const selectMedicine = `SELECT medicine_id, name, specialization, price_per_tablet, generic_name FROM medicines`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMedicine(row rowScanner) (*Medicine, error) {
	var m Medicine
	var generic sql.NullString
	if err := row.Scan(&m.ID, &m.Name, &m.Specialization, &m.PricePerTablet, &generic); err != nil {
		return nil, err
	}
	if generic.Valid {
		m.GenericName = &generic.String
	}
	return &m, nil
}

func (r *Repository) query(ctx context.Context, query string, args ...any) ([]Medicine, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query medicines: %w", err)
	}
	defer rows.Close()

	medicines := []Medicine{}
	for rows.Next() {
		m, err := scanMedicine(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan medicine: %w", err)
		}
		medicines = append(medicines, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate medicines: %w", err)
	}
	return medicines, nil
}

func (r *Repository) List(ctx context.Context) ([]Medicine, error) {
	return r.query(ctx, selectMedicine+` ORDER BY name`)
}

// ListBySpecialization matches the specialization exactly.
func (r *Repository) ListBySpecialization(ctx context.Context, specialization string) ([]Medicine, error) {
	return r.query(ctx, selectMedicine+` WHERE specialization = $1 ORDER BY name`, specialization)
}

func (r *Repository) GetByID(ctx context.Context, id int64) (*Medicine, error) {
	m, err := scanMedicine(r.db.QueryRowContext(ctx, selectMedicine+` WHERE medicine_id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMedicineNotFound
		}
		return nil, fmt.Errorf("failed to get medicine: %w", err)
	}
	return m, nil
}
