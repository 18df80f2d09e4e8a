package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/labregistry/lab-registry/internal/auth"
	"github.com/labregistry/lab-registry/internal/model"
)

// UserRepo implements auth.UserStore on the `users` table.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

var _ auth.UserStore = (*UserRepo)(nil)

const userColumns = "id,email,password_hash,role,is_active,must_change_password,failed_login_attempts,created_by,created_at"

func scanUser(row *sql.Row) (model.User, error) {
	var (
		u         model.User
		role      string
		createdBy sql.NullInt64
	)
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &role, &u.IsActive,
		&u.MustChangePassword, &u.FailedLoginAttempts, &createdBy, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.User{}, auth.ErrNotFound
		}
		return model.User{}, err
	}
	u.Role = model.Role(role)
	if createdBy.Valid {
		id := uint64(createdBy.Int64)
		u.CreatedBy = &id
	}
	return u, nil
}

// GetByEmail fetches a user by exact email. The column uses a binary
// collation, so the match is case-sensitive.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	return scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE email=? LIMIT 1", email))
}

// GetByID fetches a user by id regardless of the active flag.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	return scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1", id))
}

// GetByIDIfActive fetches a user by id, treating soft-deleted rows as
// missing.
func (r *UserRepo) GetByIDIfActive(ctx context.Context, id uint64) (model.User, error) {
	return scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id=? AND is_active=1 LIMIT 1", id))
}

// Create inserts a user row and returns its id. The unique index on email
// surfaces as auth.ErrEmailExists.
func (r *UserRepo) Create(ctx context.Context, u model.User) (uint64, error) {
	var createdBy sql.NullInt64
	if u.CreatedBy != nil {
		createdBy = sql.NullInt64{Int64: int64(*u.CreatedBy), Valid: true}
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (email, password_hash, role, is_active, must_change_password, created_by) VALUES (?,?,?,?,?,?)",
		u.Email, u.PasswordHash, string(u.Role), u.IsActive, u.MustChangePassword, createdBy)
	if err != nil {
		if isDuplicateKey(err) {
			return 0, auth.ErrEmailExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// List returns all user rows, active or not, newest first.
func (r *UserRepo) List(ctx context.Context) ([]model.User, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+userColumns+" FROM users ORDER BY id DESC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.User
	for rows.Next() {
		var (
			u         model.User
			role      string
			createdBy sql.NullInt64
		)
		if err := rows.Scan(&u.ID, &u.Email, &u.PasswordHash, &role, &u.IsActive,
			&u.MustChangePassword, &u.FailedLoginAttempts, &createdBy, &u.CreatedAt); err != nil {
			return nil, err
		}
		u.Role = model.Role(role)
		if createdBy.Valid {
			id := uint64(createdBy.Int64)
			u.CreatedBy = &id
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// SetRole updates a user's role.
func (r *UserRepo) SetRole(ctx context.Context, id uint64, role model.Role) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE users SET role=? WHERE id=?", string(role), id)
	return err
}

// SetActive flips the soft-delete flag.
func (r *UserRepo) SetActive(ctx context.Context, id uint64, active bool) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE users SET is_active=? WHERE id=?", active, id)
	return err
}

// SetPassword stores a new hash and clears the must-change flag.
func (r *UserRepo) SetPassword(ctx context.Context, id uint64, hash string) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE users SET password_hash=?, must_change_password=0 WHERE id=?", hash, id)
	return err
}

// RecordLoginFailure increments the failed-attempt counter.
func (r *UserRepo) RecordLoginFailure(ctx context.Context, id uint64) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE users SET failed_login_attempts=failed_login_attempts+1 WHERE id=?", id)
	return err
}

// RecordLoginSuccess resets the failed-attempt counter.
func (r *UserRepo) RecordLoginSuccess(ctx context.Context, id uint64) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE users SET failed_login_attempts=0 WHERE id=?", id)
	return err
}
