// Package queue defines message payloads exchanged over the message broker.
package queue

// AuditRecordedEvent mirrors one audit entry onto the broker so downstream
// consumers (the file logger, future SIEM forwarders) get a copy without
// querying the primary database. Snapshot and metadata fields carry the
// same opaque serialized text stored in the audit table.
type AuditRecordedEvent struct {
	UserID      *uint64 `json:"user_id,omitempty"`
	UserEmail   string  `json:"user_email"`
	UserRole    string  `json:"user_role,omitempty"`
	Action      string  `json:"action"`
	EntityType  string  `json:"entity_type,omitempty"`
	EntityID    *uint64 `json:"entity_id,omitempty"`
	BeforeState string  `json:"before_state,omitempty"`
	AfterState  string  `json:"after_state,omitempty"`
	IP          string  `json:"ip"`
	Severity    string  `json:"severity"`
	Metadata    string  `json:"metadata,omitempty"`
	RecordedAt  string  `json:"recorded_at"`
}
