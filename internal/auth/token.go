package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/labregistry/lab-registry/internal/model"
)

// TokenTTL is the fixed lifetime of issued access tokens and of the
// session rows created alongside them.
const TokenTTL = 8 * time.Hour

// ErrInvalidToken is the single failure outcome of token verification.
// Bad signature, malformed structure, unknown algorithm, expired token and
// unresolvable claims all collapse into it so a caller (or an attacker)
// cannot distinguish why verification failed.
var ErrInvalidToken = errors.New("invalid token")

// Claims is the verified content of an access token.
type Claims struct {
	UserID    uint64
	Email     string
	Role      model.Role
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// TokenCodec signs and verifies HS256 access tokens. The secret is
// injected at construction; there is no package-level signing state.
type TokenCodec struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenCodec builds a codec for the given signing secret.
func NewTokenCodec(secret string) *TokenCodec {
	return &TokenCodec{secret: []byte(secret), ttl: TokenTTL, now: time.Now}
}

// Issue signs a token for the user with subject, email and role claims and
// an expiry of now + TokenTTL. It returns the serialized token and its
// expiry time.
func (tc *TokenCodec) Issue(userID uint64, email string, role model.Role) (string, time.Time, error) {
	now := tc.now().UTC()
	exp := now.Add(tc.ttl)
	// jti makes every token unique even when the same user logs in twice
	// within one second; session rows are keyed by the token hash and must
	// never collide.
	jti, err := randomHex(8)
	if err != nil {
		return "", time.Time{}, err
	}
	claims := jwt.MapClaims{
		"sub":   userID,
		"email": email,
		"role":  string(role),
		"jti":   jti,
		"iat":   now.Unix(),
		"exp":   exp.Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString(tc.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

// Verify checks the signature and expiry of raw and returns its claims.
// Every failure maps to ErrInvalidToken.
func (tc *TokenCodec) Verify(raw string) (Claims, error) {
	tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return tc.secret, nil
	}, jwt.WithTimeFunc(tc.now))
	if err != nil || !tok.Valid {
		return Claims{}, ErrInvalidToken
	}
	mc, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return Claims{}, ErrInvalidToken
	}

	sub, ok := mc["sub"].(float64)
	if !ok || sub <= 0 {
		return Claims{}, ErrInvalidToken
	}
	email, _ := mc["email"].(string)
	roleStr, _ := mc["role"].(string)
	role := model.Role(roleStr)
	if !role.Valid() {
		return Claims{}, ErrInvalidToken
	}

	c := Claims{UserID: uint64(sub), Email: email, Role: role}
	if iat, ok := mc["iat"].(float64); ok {
		c.IssuedAt = time.Unix(int64(iat), 0).UTC()
	}
	exp, ok := mc["exp"].(float64)
	if !ok {
		return Claims{}, ErrInvalidToken
	}
	c.ExpiresAt = time.Unix(int64(exp), 0).UTC()
	return c, nil
}

// randomHex returns n bytes of secure random data as a hex string.
func randomHex(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

// HashToken returns the SHA-256 hex digest of a serialized token. The
// digest is the session storage key: deterministic and non-salted so
// logout can recompute it from the presented token alone.
func HashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
