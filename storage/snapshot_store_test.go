package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"energy-scraper/models"
	"energy-scraper/utils"
)

func newMemoryStore(t *testing.T, ttl time.Duration) *SQLSnapshotStore {
	t.Helper()
	store, err := NewSQLSnapshotStore("sqlite", ":memory:", ttl, utils.Discard())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	require.NoError(t, store.CreateTable(context.Background()))
	return store
}

func TestSnapshotRoundTrip(t *testing.T) {
	store := newMemoryStore(t, time.Hour)
	ctx := context.Background()

	ds := sampleDataset()
	ds.Skipped = []models.DayFailure{{Date: "2024-01-16", Cause: "feed download error"}}

	id, err := store.Save(ctx, ds)
	require.NoError(t, err)
	assert.Len(t, id, 36)

	got, err := store.Load(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, models.Price, got.Category)
	assert.Equal(t, models.FillNull, got.Fill)
	assert.Equal(t, ds.Columns, got.Columns)
	assert.Equal(t, ds.Skipped, got.Skipped)
	require.Equal(t, 2, got.Len())
	assert.Equal(t, 63.33, *got.Records[0].Values["Price"])
	v, ok := got.Records[1].Values["Price"]
	assert.True(t, ok)
	assert.Nil(t, v)
}

func TestSnapshotNotFound(t *testing.T) {
	store := newMemoryStore(t, time.Hour)
	_, err := store.Load(context.Background(), "missing")
	assert.ErrorIs(t, err, models.ErrSnapshotNotFound)
}

func TestSnapshotDelete(t *testing.T) {
	store := newMemoryStore(t, time.Hour)
	ctx := context.Background()

	id, err := store.Save(ctx, sampleDataset())
	require.NoError(t, err)
	require.NoError(t, store.Delete(ctx, id))
	require.NoError(t, store.Delete(ctx, id))

	_, err = store.Load(ctx, id)
	assert.ErrorIs(t, err, models.ErrSnapshotNotFound)
}

func TestSnapshotExpiryAndPurge(t *testing.T) {
	store := newMemoryStore(t, time.Hour)
	ctx := context.Background()

	now := time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	old, err := store.Save(ctx, sampleDataset())
	require.NoError(t, err)

	now = now.Add(90 * time.Minute)
	fresh, err := store.Save(ctx, sampleDataset())
	require.NoError(t, err)

	_, err = store.Load(ctx, old)
	assert.ErrorIs(t, err, models.ErrSnapshotNotFound)
	_, err = store.Load(ctx, fresh)
	assert.NoError(t, err)

	n, err := store.PurgeOlderThan(ctx, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = store.PurgeOlderThan(ctx, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
}

func TestRebind(t *testing.T) {
	sqlite := &SQLSnapshotStore{driver: "sqlite"}
	pg := &SQLSnapshotStore{driver: "postgres"}

	q := "DELETE FROM t WHERE id = $1 AND created_at < $12"
	assert.Equal(t, "DELETE FROM t WHERE id = ? AND created_at < ?", sqlite.rebind(q))
	assert.Equal(t, q, pg.rebind(q))
}

func TestUnsupportedDriver(t *testing.T) {
	_, err := NewSQLSnapshotStore("mysql", "dsn", time.Hour, utils.Discard())
	assert.Error(t, err)
}
