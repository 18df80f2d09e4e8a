package auth

import "golang.org/x/crypto/bcrypt"

// bcryptCost is the work factor applied to newly created credentials.
// Legacy hashes carry their own cost and still verify.
const bcryptCost = 12

// HashPassword returns the bcrypt digest of plain.
func HashPassword(plain string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plain), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// VerifyPassword compares a bcrypt digest against a plaintext candidate.
// A mismatch or a malformed digest both report false; verification failure
// is a normal outcome, not an error.
func VerifyPassword(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
