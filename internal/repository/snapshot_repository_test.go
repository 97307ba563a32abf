package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/noah-isme/office-admin/pkg/errors"
)

type snapshotRow struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

func TestSnapshotEnvelopeRoundTrip(t *testing.T) {
	at := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	raw, err := encodeSnapshot([]snapshotRow{{ID: 1, Name: "Ali"}}, at)
	require.NoError(t, err)

	var rows []snapshotRow
	storedAt, err := decodeSnapshot(raw, &rows)
	require.NoError(t, err)
	assert.True(t, storedAt.Equal(at))
	assert.Equal(t, []snapshotRow{{ID: 1, Name: "Ali"}}, rows)
}

func TestSnapshotDecodeWithoutDataIsMiss(t *testing.T) {
	var rows []snapshotRow
	_, err := decodeSnapshot([]byte(`{"stored_at":"2024-05-01T10:00:00Z"}`), &rows)
	assert.ErrorIs(t, err, appErrors.ErrCacheMiss)
}

func TestSnapshotDecodeMalformed(t *testing.T) {
	var rows []snapshotRow
	_, err := decodeSnapshot([]byte(`not json`), &rows)
	assert.Error(t, err)
}

func TestSnapshotRepositoryWithoutClient(t *testing.T) {
	repo := NewSnapshotRepository(nil, 0, nil, nil)
	ctx := context.Background()

	var rows []snapshotRow
	_, err := repo.Load(ctx, "s:staffs", &rows)
	assert.ErrorIs(t, err, appErrors.ErrCacheMiss)
	assert.NoError(t, repo.Save(ctx, "s:staffs", rows))
	assert.NoError(t, repo.Delete(ctx, "s:staffs"))
	assert.NoError(t, repo.DeleteScope(ctx, "s"))
	assert.NoError(t, repo.Close())
	assert.Equal(t, defaultSnapshotTTL, repo.ttl)
}

func TestSnapshotKey(t *testing.T) {
	assert.Equal(t, "officeadmin:snapshot:abc:tasks", snapshotKey("abc:tasks"))
}
