// Package repository implements the store contracts of internal/auth plus
// the laboratory CRUD repositories on database/sql. Sentinel errors shared
// by several repositories live here so handlers can translate them to HTTP
// codes with errors.Is.
package repository

import (
	"errors"
	"strings"
)

// ErrNotFound is returned by lookups on the lab entities when no row
// matches. (The auth stores use auth.ErrNotFound, owned by the contract.)
var ErrNotFound = errors.New("not found")

// ErrDuplicate is returned when an insert or update violates a unique
// index (client document, sample code, method name, standard name).
var ErrDuplicate = errors.New("duplicate value")

// isDuplicateKey reports whether err is a MySQL 1062 unique violation.
func isDuplicateKey(err error) bool {
	return err != nil && strings.Contains(err.Error(), "1062")
}
