package interfaces

import (
	"context"
	"errors"

	"github.com/ternarybob/marketmood/internal/models"
)

// ErrNotFound is returned when a snapshot or run does not exist
var ErrNotFound = errors.New("not found")

// SnapshotStorage persists fetched markup
type SnapshotStorage interface {
	SaveSnapshot(ctx context.Context, snapshot *models.Snapshot) error
	GetSnapshot(ctx context.Context, key string) (*models.Snapshot, error)
	// GetSnapshotByURL returns the most recent snapshot fetched from url
	GetSnapshotByURL(ctx context.Context, url string) (*models.Snapshot, error)
	// LatestSnapshot returns the most recent snapshot of kind
	LatestSnapshot(ctx context.Context, kind models.SnapshotKind) (*models.Snapshot, error)
	// ListSnapshots returns snapshots of kind, newest first; an empty kind lists all
	ListSnapshots(ctx context.Context, kind models.SnapshotKind, limit int) ([]*models.Snapshot, error)
	// ListBatch returns the snapshots of kind stored by one fetch, in fetch order
	ListBatch(ctx context.Context, batch string, kind models.SnapshotKind) ([]*models.Snapshot, error)
	DeleteSnapshot(ctx context.Context, key string) error
}

// RunStorage persists run summaries
type RunStorage interface {
	SaveRun(ctx context.Context, run *models.RunSummary) error
	GetRun(ctx context.Context, id string) (*models.RunSummary, error)
	// ListRuns returns runs newest first
	ListRuns(ctx context.Context, limit int) ([]*models.RunSummary, error)
}

// StorageManager provides access to all storage
type StorageManager interface {
	SnapshotStorage() SnapshotStorage
	RunStorage() RunStorage
	Close() error
}
