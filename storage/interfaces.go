package storage

import (
	"context"
	"time"

	"energy-scraper/models"
)

// SnapshotStore keeps fetched datasets for a short while so later steps
// (preview, stats, export, compare) can reuse them without re-scraping
type SnapshotStore interface {
	Save(ctx context.Context, ds models.Dataset) (string, error)
	Load(ctx context.Context, id string) (models.Dataset, error)
	Delete(ctx context.Context, id string) error
	PurgeOlderThan(ctx context.Context, ttl time.Duration) (int64, error)
	Close() error
}
