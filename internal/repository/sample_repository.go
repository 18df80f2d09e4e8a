package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/labregistry/lab-registry/internal/model"
)

// SampleRepo persists samples.
type SampleRepo struct{ DB *sql.DB }

func NewSampleRepo(db *sql.DB) *SampleRepo { return &SampleRepo{DB: db} }

const sampleColumns = "id,client_id,code,description,matrix,collected_at,received_at,status,created_by,created_at,updated_at"

func scanSample(sc interface{ Scan(...any) error }) (model.Sample, error) {
	var (
		s      model.Sample
		status string
	)
	err := sc.Scan(&s.ID, &s.ClientID, &s.Code, &s.Description, &s.Matrix,
		&s.CollectedAt, &s.ReceivedAt, &status, &s.CreatedBy, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Sample{}, ErrNotFound
		}
		return model.Sample{}, err
	}
	s.Status = model.SampleStatus(status)
	return s, nil
}

// Create inserts a sample and returns its id.
func (r *SampleRepo) Create(ctx context.Context, s model.Sample) (uint64, error) {
	res, err := r.DB.ExecContext(ctx,
		`INSERT INTO samples (client_id, code, description, matrix, collected_at, received_at, status, created_by)
		 VALUES (?,?,?,?,?,?,?,?)`,
		s.ClientID, s.Code, s.Description, s.Matrix, s.CollectedAt, s.ReceivedAt,
		string(s.Status), s.CreatedBy)
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

// GetByID fetches a sample by id.
func (r *SampleRepo) GetByID(ctx context.Context, id uint64) (model.Sample, error) {
	return scanSample(r.DB.QueryRowContext(ctx,
		"SELECT "+sampleColumns+" FROM samples WHERE id=? LIMIT 1", id))
}

// ListByClient returns the samples of one client, newest first.
func (r *SampleRepo) ListByClient(ctx context.Context, clientID uint64) ([]model.Sample, error) {
	return r.list(ctx,
		"SELECT "+sampleColumns+" FROM samples WHERE client_id=? ORDER BY id DESC", clientID)
}

// List returns all samples, newest first.
func (r *SampleRepo) List(ctx context.Context) ([]model.Sample, error) {
	return r.list(ctx, "SELECT "+sampleColumns+" FROM samples ORDER BY id DESC")
}

func (r *SampleRepo) list(ctx context.Context, q string, args ...any) ([]model.Sample, error) {
	rows, err := r.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Sample
	for rows.Next() {
		s, err := scanSample(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Update rewrites the descriptive fields and status.
func (r *SampleRepo) Update(ctx context.Context, s model.Sample) error {
	_, err := r.DB.ExecContext(ctx,
		`UPDATE samples SET description=?, matrix=?, collected_at=?, received_at=?, status=?
		 WHERE id=?`,
		s.Description, s.Matrix, s.CollectedAt, s.ReceivedAt, string(s.Status), s.ID)
	return err
}

// SetStatus moves a sample through the workflow.
func (r *SampleRepo) SetStatus(ctx context.Context, id uint64, status model.SampleStatus) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE samples SET status=? WHERE id=?", string(status), id)
	return err
}
