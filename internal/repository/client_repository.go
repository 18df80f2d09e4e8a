package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/labregistry/lab-registry/internal/model"
)

// ClientRepo persists laboratory clients.
type ClientRepo struct{ DB *sql.DB }

func NewClientRepo(db *sql.DB) *ClientRepo { return &ClientRepo{DB: db} }

const clientColumns = "id,name,document,email,phone,is_active,created_at,updated_at"

// Create inserts a client and returns its id.
func (r *ClientRepo) Create(ctx context.Context, c model.Client) (uint64, error) {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO clients (name, document, email, phone) VALUES (?,?,?,?)",
		c.Name, c.Document, c.Email, c.Phone)
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

// GetByID fetches a client by id.
func (r *ClientRepo) GetByID(ctx context.Context, id uint64) (model.Client, error) {
	var c model.Client
	err := r.DB.QueryRowContext(ctx,
		"SELECT "+clientColumns+" FROM clients WHERE id=? LIMIT 1", id).
		Scan(&c.ID, &c.Name, &c.Document, &c.Email, &c.Phone, &c.IsActive, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Client{}, ErrNotFound
	}
	return c, err
}

// List returns clients, optionally only active ones.
func (r *ClientRepo) List(ctx context.Context, activeOnly bool) ([]model.Client, error) {
	q := "SELECT " + clientColumns + " FROM clients"
	if activeOnly {
		q += " WHERE is_active=1"
	}
	q += " ORDER BY name"
	rows, err := r.DB.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Client
	for rows.Next() {
		var c model.Client
		if err := rows.Scan(&c.ID, &c.Name, &c.Document, &c.Email, &c.Phone,
			&c.IsActive, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Update rewrites the mutable contact fields.
func (r *ClientRepo) Update(ctx context.Context, c model.Client) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE clients SET name=?, document=?, email=?, phone=? WHERE id=?",
		c.Name, c.Document, c.Email, c.Phone, c.ID)
	if isDuplicateKey(err) {
		return ErrDuplicate
	}
	return err
}

// SetActive flips the soft-delete flag.
func (r *ClientRepo) SetActive(ctx context.Context, id uint64, active bool) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE clients SET is_active=? WHERE id=?", active, id)
	return err
}
