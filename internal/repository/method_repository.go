package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/labregistry/lab-registry/internal/model"
)

// MethodRepo persists parameter methods.
type MethodRepo struct{ DB *sql.DB }

func NewMethodRepo(db *sql.DB) *MethodRepo { return &MethodRepo{DB: db} }

const methodColumns = "id,name,technique,unit,loq,is_active,created_at,updated_at"

// Create inserts a parameter method and returns its id.
func (r *MethodRepo) Create(ctx context.Context, m model.ParameterMethod) (uint64, error) {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO parameter_methods (name, technique, unit, loq) VALUES (?,?,?,?)",
		m.Name, m.Technique, m.Unit, m.LOQ)
	if err != nil {
		if isDuplicateKey(err) {
			return 0, ErrDuplicate
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByID fetches a parameter method by id.
func (r *MethodRepo) GetByID(ctx context.Context, id uint64) (model.ParameterMethod, error) {
	var m model.ParameterMethod
	err := r.DB.QueryRowContext(ctx,
		"SELECT "+methodColumns+" FROM parameter_methods WHERE id=? LIMIT 1", id).
		Scan(&m.ID, &m.Name, &m.Technique, &m.Unit, &m.LOQ, &m.IsActive, &m.CreatedAt, &m.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.ParameterMethod{}, ErrNotFound
	}
	return m, err
}

// List returns parameter methods, optionally only active ones.
func (r *MethodRepo) List(ctx context.Context, activeOnly bool) ([]model.ParameterMethod, error) {
	q := "SELECT " + methodColumns + " FROM parameter_methods"
	if activeOnly {
		q += " WHERE is_active=1"
	}
	q += " ORDER BY name"
	rows, err := r.DB.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.ParameterMethod
	for rows.Next() {
		var m model.ParameterMethod
		if err := rows.Scan(&m.ID, &m.Name, &m.Technique, &m.Unit, &m.LOQ,
			&m.IsActive, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// Update rewrites the descriptive fields.
func (r *MethodRepo) Update(ctx context.Context, m model.ParameterMethod) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE parameter_methods SET name=?, technique=?, unit=?, loq=? WHERE id=?",
		m.Name, m.Technique, m.Unit, m.LOQ, m.ID)
	if isDuplicateKey(err) {
		return ErrDuplicate
	}
	return err
}

// SetActive flips the soft-delete flag.
func (r *MethodRepo) SetActive(ctx context.Context, id uint64, active bool) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE parameter_methods SET is_active=? WHERE id=?", active, id)
	return err
}
