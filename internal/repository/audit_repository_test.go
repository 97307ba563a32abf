package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/office-admin/internal/models"
)

func newAuditRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestAuditRepositoryEnsureSchema(t *testing.T) {
	db, mock, cleanup := newAuditRepoMock(t)
	defer cleanup()

	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS console_audit_log")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, NewAuditRepository(db).EnsureSchema(context.Background()))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAuditRepositoryInsertFillsDefaults(t *testing.T) {
	db, mock, cleanup := newAuditRepoMock(t)
	defer cleanup()

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO console_audit_log")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	id := int64(7)
	entry := &models.AuditEntry{
		Collection: "tasks",
		Action:     models.AuditActionDelete,
		RecordID:   &id,
		Actor:      "admin",
		Success:    true,
	}
	require.NoError(t, NewAuditRepository(db).Insert(context.Background(), entry))

	assert.NotEmpty(t, entry.ID)
	assert.False(t, entry.CreatedAt.IsZero())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAuditRepositoryInsertError(t *testing.T) {
	db, mock, cleanup := newAuditRepoMock(t)
	defer cleanup()

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO console_audit_log")).
		WillReturnError(errors.New("connection reset"))

	err := NewAuditRepository(db).Insert(context.Background(), &models.AuditEntry{Collection: "staffs"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insert audit entry")
}

func TestAuditRepositoryListRecentFiltersByCollection(t *testing.T) {
	db, mock, cleanup := newAuditRepoMock(t)
	defer cleanup()

	rows := sqlmock.NewRows([]string{"id", "collection", "action", "record_id", "actor", "success", "error", "request_id", "created_at"}).
		AddRow("a-1", "tasks", "DELETE", int64(7), "admin", true, nil, "req-1", time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("FROM console_audit_log WHERE collection = $1 ORDER BY created_at DESC LIMIT $2")).
		WithArgs("tasks", 50).
		WillReturnRows(rows)

	entries, err := NewAuditRepository(db).ListRecent(context.Background(), "tasks", 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "a-1", entries[0].ID)
	require.NotNil(t, entries[0].RecordID)
	assert.EqualValues(t, 7, *entries[0].RecordID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAuditRepositoryListRecentAll(t *testing.T) {
	db, mock, cleanup := newAuditRepoMock(t)
	defer cleanup()

	mock.ExpectQuery(regexp.QuoteMeta("FROM console_audit_log ORDER BY created_at DESC LIMIT $1")).
		WithArgs(10).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	entries, err := NewAuditRepository(db).ListRecent(context.Background(), "", 10)
	require.NoError(t, err)
	assert.Empty(t, entries)
	require.NoError(t, mock.ExpectationsWereMet())
}
