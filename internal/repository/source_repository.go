package repository

import (
	"context"

	"github.com/ndewijer/pnl-tracker/internal/model"
)

const sourcesKey = "sources"

// SourceRepository persists the list of connected exchange accounts.
type SourceRepository struct {
	store *Store
}

// NewSourceRepository creates a new SourceRepository.
func NewSourceRepository(store *Store) *SourceRepository {
	return &SourceRepository{store: store}
}

// Load returns the connected sources, or an empty slice on first run.
func (r *SourceRepository) Load(ctx context.Context) ([]model.ConnectedSource, error) {
	sources := []model.ConnectedSource{}
	if _, err := loadJSON(ctx, r.store, sourcesKey, &sources); err != nil {
		return nil, err
	}
	return sources, nil
}

// Save replaces the connected source list.
func (r *SourceRepository) Save(ctx context.Context, sources []model.ConnectedSource) error {
	return saveJSON(ctx, r.store, sourcesKey, sources)
}
