package repository

import (
	"context"

	"github.com/ndewijer/pnl-tracker/internal/model"
)

const snapshotKey = "snapshots"

// SnapshotRepository persists the daily snapshot history. Retention is
// unbounded here; display limits are applied by readers.
type SnapshotRepository struct {
	store *Store
}

// NewSnapshotRepository creates a new SnapshotRepository.
func NewSnapshotRepository(store *Store) *SnapshotRepository {
	return &SnapshotRepository{store: store}
}

// Load returns the persisted history, or an empty slice on first run.
func (r *SnapshotRepository) Load(ctx context.Context) ([]model.DailySnapshot, error) {
	history := []model.DailySnapshot{}
	if _, err := loadJSON(ctx, r.store, snapshotKey, &history); err != nil {
		return nil, err
	}
	return history, nil
}

// Save replaces the persisted history.
func (r *SnapshotRepository) Save(ctx context.Context, history []model.DailySnapshot) error {
	return saveJSON(ctx, r.store, snapshotKey, history)
}
