package auth

import (
	"context"
	"errors"

	"github.com/labregistry/lab-registry/internal/model"
)

// SessionRegistry issues tokens and keeps one session row per active
// login. Only the SHA-256 hash of a token is persisted, so registry
// compromise cannot replay tokens; possession of the raw token remains
// sufficient to impersonate, which is the bearer-token threat model.
type SessionRegistry struct {
	Codec    *TokenCodec
	Users    UserStore
	Sessions SessionStore
}

// NewSessionRegistry wires a registry from its collaborators.
func NewSessionRegistry(codec *TokenCodec, users UserStore, sessions SessionStore) *SessionRegistry {
	if codec == nil || users == nil || sessions == nil {
		panic("nil dependency passed to NewSessionRegistry")
	}
	return &SessionRegistry{Codec: codec, Users: users, Sessions: sessions}
}

// Create issues a token for the user and persists the session row keyed by
// the token's hash. The raw token is returned to the caller and never
// stored.
func (r *SessionRegistry) Create(ctx context.Context, u model.User, ip, userAgent string) (sessionID uint64, token string, s model.Session, err error) {
	token, exp, err := r.Codec.Issue(u.ID, u.Email, u.Role)
	if err != nil {
		return 0, "", model.Session{}, err
	}
	s = model.Session{
		UserID:    u.ID,
		TokenHash: HashToken(token),
		IP:        ip,
		UserAgent: userAgent,
		ExpiresAt: exp,
	}
	sessionID, err = r.Sessions.Insert(ctx, s)
	if err != nil {
		return 0, "", model.Session{}, err
	}
	s.ID = sessionID
	return sessionID, token, s, nil
}

// RevokeByTokenHash deletes the session row matching hash. Idempotent:
// revoking an unknown hash succeeds.
func (r *SessionRegistry) RevokeByTokenHash(ctx context.Context, hash string) error {
	return r.Sessions.DeleteByTokenHash(ctx, hash)
}

// RevokeAllForUser deletes every session row owned by userID. Used when an
// account is deactivated.
func (r *SessionRegistry) RevokeAllForUser(ctx context.Context, userID uint64) error {
	return r.Sessions.DeleteByUserID(ctx, userID)
}

// Authenticate resolves a presented token to its user. It verifies the
// token cryptographically, then requires the subject to still exist and be
// active; a correctly signed token for a deactivated user fails with
// ErrInvalidToken, indistinguishable from a forged one.
//
// Session rows are not consulted here: logout is the sole, explicit
// revocation path, and a token that was never logged out stays usable for
// its full signed lifetime. See DESIGN.md for the rationale.
func (r *SessionRegistry) Authenticate(ctx context.Context, raw string) (model.User, error) {
	claims, err := r.Codec.Verify(raw)
	if err != nil {
		return model.User{}, ErrInvalidToken
	}
	u, err := r.Users.GetByIDIfActive(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return model.User{}, ErrInvalidToken
		}
		return model.User{}, err
	}
	return u, nil
}
