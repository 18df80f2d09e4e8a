package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/labregistry/lab-registry/internal/model"
)

// StandardRepo persists reference standards and their rule sets.
type StandardRepo struct{ DB *sql.DB }

func NewStandardRepo(db *sql.DB) *StandardRepo { return &StandardRepo{DB: db} }

const standardColumns = "id,name,authority,is_active,created_at,updated_at"

// Create inserts a reference standard and returns its id.
func (r *StandardRepo) Create(ctx context.Context, s model.ReferenceStandard) (uint64, error) {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO reference_standards (name, authority) VALUES (?,?)",
		s.Name, s.Authority)
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

// GetByID fetches a reference standard by id.
func (r *StandardRepo) GetByID(ctx context.Context, id uint64) (model.ReferenceStandard, error) {
	var s model.ReferenceStandard
	err := r.DB.QueryRowContext(ctx,
		"SELECT "+standardColumns+" FROM reference_standards WHERE id=? LIMIT 1", id).
		Scan(&s.ID, &s.Name, &s.Authority, &s.IsActive, &s.CreatedAt, &s.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.ReferenceStandard{}, ErrNotFound
	}
	return s, err
}

// List returns reference standards, optionally only active ones.
func (r *StandardRepo) List(ctx context.Context, activeOnly bool) ([]model.ReferenceStandard, error) {
	q := "SELECT " + standardColumns + " FROM reference_standards"
	if activeOnly {
		q += " WHERE is_active=1"
	}
	q += " ORDER BY name"
	rows, err := r.DB.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.ReferenceStandard
	for rows.Next() {
		var s model.ReferenceStandard
		if err := rows.Scan(&s.ID, &s.Name, &s.Authority, &s.IsActive,
			&s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Update rewrites the descriptive fields.
func (r *StandardRepo) Update(ctx context.Context, s model.ReferenceStandard) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE reference_standards SET name=?, authority=? WHERE id=?",
		s.Name, s.Authority, s.ID)
	if isDuplicateKey(err) {
		return ErrDuplicate
	}
	return err
}

// SetActive flips the soft-delete flag.
func (r *StandardRepo) SetActive(ctx context.Context, id uint64, active bool) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE reference_standards SET is_active=? WHERE id=?", active, id)
	return err
}

// Rules returns the rule set of a standard ordered by parameter name.
func (r *StandardRepo) Rules(ctx context.Context, standardID uint64) ([]model.StandardRule, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT id,standard_id,parameter,max_value,unit FROM standard_rules WHERE standard_id=? ORDER BY parameter",
		standardID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.StandardRule
	for rows.Next() {
		var sr model.StandardRule
		if err := rows.Scan(&sr.ID, &sr.StandardID, &sr.Parameter, &sr.MaxValue, &sr.Unit); err != nil {
			return nil, err
		}
		out = append(out, sr)
	}
	return out, rows.Err()
}

// ReplaceRules swaps the complete rule set of a standard inside one
// transaction: delete-then-bulk-insert, so either all rules replace or
// none do and no reader ever observes a partially written set.
func (r *StandardRepo) ReplaceRules(ctx context.Context, standardID uint64, rules []model.StandardRule) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM standard_rules WHERE standard_id=?", standardID); err != nil {
		return err
	}
	for _, sr := range rules {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO standard_rules (standard_id, parameter, max_value, unit) VALUES (?,?,?,?)",
			standardID, sr.Parameter, sr.MaxValue, sr.Unit); err != nil {
			return err
		}
	}
	return tx.Commit()
}
