package models

import "time"

// Mutation actions recorded in the audit trail.
const (
	AuditActionCreate = "CREATE"
	AuditActionUpdate = "UPDATE"
	AuditActionDelete = "DELETE"
	AuditActionLogin  = "LOGIN"
	AuditActionLogout = "LOGOUT"
)

// AuditEntry is one mutation outcome as stored in console_audit_log.
type AuditEntry struct {
	ID         string    `db:"id" json:"id"`
	Collection string    `db:"collection" json:"collection"`
	Action     string    `db:"action" json:"action"`
	RecordID   *int64    `db:"record_id" json:"record_id,omitempty"`
	Actor      string    `db:"actor" json:"actor"`
	Success    bool      `db:"success" json:"success"`
	Error      *string   `db:"error" json:"error,omitempty"`
	RequestID  string    `db:"request_id" json:"request_id"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}
