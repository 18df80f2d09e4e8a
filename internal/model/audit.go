package model

import "time"

// Severity classifies audit entries. Caller-supplied; the sink never
// reclassifies.
type Severity string

const (
	SeverityInfo     Severity = "INFO"
	SeverityWarning  Severity = "WARNING"
	SeverityCritical Severity = "CRITICAL"
)

// Audit action vocabulary. Security events use the AUTH_/UNAUTHORIZED_
// prefixes; entity lifecycle events follow the <ENTITY>_<VERB> convention.
const (
	ActionLoginSuccess       = "AUTH_LOGIN_SUCCESS"
	ActionLoginFailed        = "AUTH_LOGIN_FAILED"
	ActionLogout             = "AUTH_LOGOUT"
	ActionUnauthorizedAccess = "UNAUTHORIZED_ACCESS_ATTEMPT"
	ActionPasswordChanged    = "PASSWORD_CHANGED"
	ActionUserCreated        = "USER_CREATED"
	ActionUserUpdated        = "USER_UPDATED"
	ActionUserDeleted        = "USER_DELETED"
	ActionClientCreated      = "CLIENT_CREATED"
	ActionClientUpdated      = "CLIENT_UPDATED"
	ActionClientDeleted      = "CLIENT_DELETED"
	ActionSampleCreated      = "SAMPLE_CREATED"
	ActionSampleUpdated      = "SAMPLE_UPDATED"
	ActionSampleDeleted      = "SAMPLE_DELETED"
	ActionMethodCreated      = "METHOD_CREATED"
	ActionMethodUpdated      = "METHOD_UPDATED"
	ActionMethodDeleted      = "METHOD_DELETED"
	ActionStandardCreated    = "STANDARD_CREATED"
	ActionStandardUpdated    = "STANDARD_UPDATED"
	ActionStandardDeleted    = "STANDARD_DELETED"
	ActionStandardRulesSet   = "STANDARD_RULES_REPLACED"
)

// AuditEntry mirrors the append-only `audit_log` table. Rows are written
// once and never updated or deleted; there is deliberately no update path
// in the repository layer.
//
// BeforeState, AfterState and Metadata hold caller-constructed serialized
// text (normally JSON). They are opaque to the sink and to the schema:
// audit entries describe arbitrary entities, so no typed columns exist for
// snapshot contents.
//
// Fields:
//  ID          – primary key identifier.
//  UserID      – acting user, nil when the action was not user-attributed.
//  UserEmail   – acting user's email, or the literal "system".
//  UserRole    – acting user's role, empty for system actions.
//  Action      – one of the Action* constants.
//  EntityType  – affected record kind ("user", "sample", ...), optional.
//  EntityID    – affected record id, nil when not applicable.
//  BeforeState – serialized prior state, empty when not supplied.
//  AfterState  – serialized resulting state, empty when not supplied.
//  IP          – client address, "system" internal fallback allowed.
//  Severity    – INFO, WARNING or CRITICAL.
//  Metadata    – serialized extra context, empty when not supplied.
//  CreatedAt   – insertion timestamp.
type AuditEntry struct {
	ID          uint64
	UserID      *uint64
	UserEmail   string
	UserRole    Role
	Action      string
	EntityType  string
	EntityID    *uint64
	BeforeState string
	AfterState  string
	IP          string
	Severity    Severity
	Metadata    string
	CreatedAt   time.Time
}
