package badger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/marketmood/internal/interfaces"
	"github.com/ternarybob/marketmood/internal/models"
	"github.com/timshannon/badgerhold/v4"
)

// SnapshotStorage implements the SnapshotStorage interface for Badger
type SnapshotStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewSnapshotStorage creates a new SnapshotStorage instance
func NewSnapshotStorage(db *BadgerDB, logger arbor.ILogger) interfaces.SnapshotStorage {
	return &SnapshotStorage{
		db:     db,
		logger: logger,
	}
}

func (s *SnapshotStorage) SaveSnapshot(ctx context.Context, snapshot *models.Snapshot) error {
	if snapshot.Key == "" {
		return fmt.Errorf("snapshot key is required")
	}
	if snapshot.FetchedAt.IsZero() {
		snapshot.FetchedAt = time.Now()
	}

	if err := s.db.Store().Upsert(snapshot.Key, snapshot); err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}

	s.logger.Debug().
		Str("key", snapshot.Key).
		Str("kind", string(snapshot.Kind)).
		Int("html_length", len(snapshot.HTML)).
		Msg("Snapshot saved")
	return nil
}

func (s *SnapshotStorage) GetSnapshot(ctx context.Context, key string) (*models.Snapshot, error) {
	var snapshot models.Snapshot
	if err := s.db.Store().Get(key, &snapshot); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return nil, fmt.Errorf("snapshot %s: %w", key, interfaces.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get snapshot: %w", err)
	}
	return &snapshot, nil
}

func (s *SnapshotStorage) GetSnapshotByURL(ctx context.Context, url string) (*models.Snapshot, error) {
	var snapshots []models.Snapshot
	query := badgerhold.Where("URL").Eq(url).SortBy("FetchedAt").Reverse().Limit(1)
	if err := s.db.Store().Find(&snapshots, query); err != nil {
		return nil, fmt.Errorf("failed to find snapshot by URL: %w", err)
	}
	if len(snapshots) == 0 {
		return nil, fmt.Errorf("snapshot for %s: %w", url, interfaces.ErrNotFound)
	}
	return &snapshots[0], nil
}

func (s *SnapshotStorage) LatestSnapshot(ctx context.Context, kind models.SnapshotKind) (*models.Snapshot, error) {
	snapshots, err := s.ListSnapshots(ctx, kind, 1)
	if err != nil {
		return nil, err
	}
	if len(snapshots) == 0 {
		return nil, fmt.Errorf("no %s snapshot: %w", kind, interfaces.ErrNotFound)
	}
	return snapshots[0], nil
}

func (s *SnapshotStorage) ListSnapshots(ctx context.Context, kind models.SnapshotKind, limit int) ([]*models.Snapshot, error) {
	query := badgerhold.Where("Key").Ne("") // Select all
	if kind != "" {
		query = badgerhold.Where("Kind").Eq(kind)
	}
	query = query.SortBy("FetchedAt").Reverse()
	if limit > 0 {
		query = query.Limit(limit)
	}

	var snapshots []models.Snapshot
	if err := s.db.Store().Find(&snapshots, query); err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}

	result := make([]*models.Snapshot, len(snapshots))
	for i := range snapshots {
		result[i] = &snapshots[i]
	}
	return result, nil
}

func (s *SnapshotStorage) ListBatch(ctx context.Context, batch string, kind models.SnapshotKind) ([]*models.Snapshot, error) {
	if batch == "" {
		return nil, fmt.Errorf("batch id is required")
	}
	query := badgerhold.Where("Batch").Eq(batch)
	if kind != "" {
		query = query.And("Kind").Eq(kind)
	}

	var snapshots []models.Snapshot
	if err := s.db.Store().Find(&snapshots, query.SortBy("FetchedAt")); err != nil {
		return nil, fmt.Errorf("failed to list batch %s: %w", batch, err)
	}

	result := make([]*models.Snapshot, len(snapshots))
	for i := range snapshots {
		result[i] = &snapshots[i]
	}
	return result, nil
}

func (s *SnapshotStorage) DeleteSnapshot(ctx context.Context, key string) error {
	if err := s.db.Store().Delete(key, &models.Snapshot{}); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return fmt.Errorf("snapshot %s: %w", key, interfaces.ErrNotFound)
		}
		return fmt.Errorf("failed to delete snapshot: %w", err)
	}
	return nil
}
