package repository

import (
	"context"
	"database/sql"

	"github.com/labregistry/lab-registry/internal/auth"
	"github.com/labregistry/lab-registry/internal/model"
)

// AuditRepo implements auth.AuditStore on the append-only `audit_log`
// table. Insert is deliberately the only method: no update or delete path
// may ever exist for audit rows.
type AuditRepo struct{ DB *sql.DB }

func NewAuditRepo(db *sql.DB) *AuditRepo { return &AuditRepo{DB: db} }

var _ auth.AuditStore = (*AuditRepo)(nil)

func nullableID(id *uint64) sql.NullInt64 {
	if id == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*id), Valid: true}
}

func nullableText(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// Insert appends one audit entry.
func (r *AuditRepo) Insert(ctx context.Context, e model.AuditEntry) error {
	_, err := r.DB.ExecContext(ctx,
		`INSERT INTO audit_log
		 (user_id, user_email, user_role, action, entity_type, entity_id,
		  before_state, after_state, ip, severity, metadata)
		 VALUES (?,?,?,?,?,?,?,?,?,?,?)`,
		nullableID(e.UserID), e.UserEmail, nullableText(string(e.UserRole)),
		e.Action, nullableText(e.EntityType), nullableID(e.EntityID),
		nullableText(e.BeforeState), nullableText(e.AfterState),
		e.IP, string(e.Severity), nullableText(e.Metadata))
	return err
}
