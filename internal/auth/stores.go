// Package auth implements the security core: credential hashing, token
// issuance and verification, the session registry and the audit sink. It
// touches persistent state only through the narrow store contracts defined
// in this file; the database/sql implementations live in
// internal/repository.
package auth

import (
	"context"
	"errors"

	"github.com/labregistry/lab-registry/internal/model"
)

// ErrNotFound is returned by store lookups when no row matches.
var ErrNotFound = errors.New("record not found")

// ErrEmailExists is returned by UserStore.Create when the email is taken.
var ErrEmailExists = errors.New("email already exists")

// UserStore is the record-access contract for user rows. Email lookups are
// case-sensitive: the storage layer matches the address byte-for-byte.
type UserStore interface {
	GetByEmail(ctx context.Context, email string) (model.User, error)
	GetByID(ctx context.Context, id uint64) (model.User, error)
	// GetByIDIfActive behaves like GetByID but reports ErrNotFound for
	// soft-deleted users.
	GetByIDIfActive(ctx context.Context, id uint64) (model.User, error)
	Create(ctx context.Context, u model.User) (uint64, error)
	List(ctx context.Context) ([]model.User, error)
	SetRole(ctx context.Context, id uint64, role model.Role) error
	SetActive(ctx context.Context, id uint64, active bool) error
	// SetPassword stores a new hash and clears the must-change flag.
	SetPassword(ctx context.Context, id uint64, hash string) error
	RecordLoginFailure(ctx context.Context, id uint64) error
	RecordLoginSuccess(ctx context.Context, id uint64) error
}

// SessionStore is the record-access contract for session rows.
type SessionStore interface {
	Insert(ctx context.Context, s model.Session) (uint64, error)
	// DeleteByTokenHash removes the matching row if any; deleting a
	// non-existent hash is not an error.
	DeleteByTokenHash(ctx context.Context, tokenHash string) error
	DeleteByUserID(ctx context.Context, userID uint64) error
}

// AuditStore is the record-access contract for the append-only audit log.
// Insert is the only operation: no read-back, update or delete path exists.
type AuditStore interface {
	Insert(ctx context.Context, e model.AuditEntry) error
}
