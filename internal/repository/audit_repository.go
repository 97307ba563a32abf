package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/office-admin/internal/models"
)

const auditSchema = `CREATE TABLE IF NOT EXISTS console_audit_log (
	id UUID PRIMARY KEY,
	collection TEXT NOT NULL,
	action TEXT NOT NULL,
	record_id BIGINT NULL,
	actor TEXT NOT NULL,
	success BOOLEAN NOT NULL,
	error TEXT NULL,
	request_id TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL
)`

// AuditRepository persists the console audit trail.
type AuditRepository struct {
	db *sqlx.DB
}

// NewAuditRepository constructs the repository.
func NewAuditRepository(db *sqlx.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

// EnsureSchema creates the audit table when it is missing.
func (r *AuditRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, auditSchema); err != nil {
		return fmt.Errorf("ensure audit schema: %w", err)
	}
	return nil
}

// Insert stores one audit entry.
func (r *AuditRepository) Insert(ctx context.Context, entry *models.AuditEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO console_audit_log
	(id, collection, action, record_id, actor, success, error, request_id, created_at)
	VALUES (:id, :collection, :action, :record_id, :actor, :success, :error, :request_id, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, entry); err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}

// ListRecent returns the latest entries, newest first.
func (r *AuditRepository) ListRecent(ctx context.Context, collection string, limit int) ([]models.AuditEntry, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	query := `SELECT id, collection, action, record_id, actor, success, error, request_id, created_at
	FROM console_audit_log`
	args := []interface{}{}
	if collection != "" {
		args = append(args, collection)
		query += " WHERE collection = $1"
	}
	args = append(args, limit)
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d", len(args))

	var entries []models.AuditEntry
	if err := r.db.SelectContext(ctx, &entries, query, args...); err != nil {
		return nil, fmt.Errorf("list audit entries: %w", err)
	}
	return entries, nil
}
