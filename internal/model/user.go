package model

import "time"

// Role is the closed set of account roles. It is stored verbatim in the
// `users.role` column and embedded in access tokens, so the literals must
// never change once data exists.
type Role string

const (
	RoleAdmin      Role = "ADMIN"
	RoleProfessor  Role = "PROFESSOR"
	RoleTecnico    Role = "TÉCNICO"
	RoleVoluntario Role = "VOLUNTÁRIO"
)

// Valid reports whether r is one of the known roles. The switch is
// exhaustive on purpose: adding a role must touch this function.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleProfessor, RoleTecnico, RoleVoluntario:
		return true
	}
	return false
}

// User mirrors the `users` table. Accounts are never hard-deleted; a
// "deleted" user is one with IsActive=false, which also blocks login and
// token authentication. Email comparison is byte-for-byte (no case
// folding), enforced unique by the storage layer.
//
// Fields:
//  ID                  – primary key.
//  Email               – unique email address.
//  PasswordHash        – bcrypt digest; must be blanked before a User is
//                        attached to a request context or response body.
//  Role                – one of the Role constants.
//  IsActive            – soft-delete flag; inactive users cannot authenticate.
//  MustChangePassword  – set on accounts created with provisional passwords,
//                        cleared by a successful password change.
//  FailedLoginAttempts – incremented on wrong password, reset on success.
//  CreatedBy           – id of the admin/professor that created the account
//                        (nil for seeded accounts).
//  CreatedAt           – timestamp of creation.
type User struct {
	ID                  uint64
	Email               string
	PasswordHash        string
	Role                Role
	IsActive            bool
	MustChangePassword  bool
	FailedLoginAttempts int
	CreatedBy           *uint64
	CreatedAt           time.Time
}

// Sanitized returns a copy of u safe to expose outside the storage and
// credential-verification paths.
func (u User) Sanitized() User {
	u.PasswordHash = ""
	return u
}
