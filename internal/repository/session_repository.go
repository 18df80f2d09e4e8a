package repository

import (
	"context"
	"database/sql"

	"github.com/labregistry/lab-registry/internal/auth"
	"github.com/labregistry/lab-registry/internal/model"
)

// SessionRepo implements auth.SessionStore on the `sessions` table (single
// `token_hash` lookup column; the raw token never reaches this layer).
type SessionRepo struct{ DB *sql.DB }

func NewSessionRepo(db *sql.DB) *SessionRepo { return &SessionRepo{DB: db} }

var _ auth.SessionStore = (*SessionRepo)(nil)

// Insert stores a session row and returns its id.
func (r *SessionRepo) Insert(ctx context.Context, s model.Session) (uint64, error) {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO sessions (user_id, token_hash, ip, user_agent, expires_at) VALUES (?,?,?,?,?)",
		s.UserID, s.TokenHash, s.IP, s.UserAgent, s.ExpiresAt)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// DeleteByTokenHash removes the row matching the hash. A zero-row delete
// is not an error, which makes logout idempotent.
func (r *SessionRepo) DeleteByTokenHash(ctx context.Context, tokenHash string) error {
	_, err := r.DB.ExecContext(ctx,
		"DELETE FROM sessions WHERE token_hash=?", tokenHash)
	return err
}

// DeleteByUserID removes every session owned by the user.
func (r *SessionRepo) DeleteByUserID(ctx context.Context, userID uint64) error {
	_, err := r.DB.ExecContext(ctx,
		"DELETE FROM sessions WHERE user_id=?", userID)
	return err
}
