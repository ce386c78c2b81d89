package db

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/nrkno/sofie-core-sub006/internal/models"
)

// RundownRepository handles database operations for rundowns
type RundownRepository struct {
	db *DB
}

// NewRundownRepository creates a new rundown repository
func NewRundownRepository(db *DB) *RundownRepository {
	return &RundownRepository{db: db}
}

// Create inserts a new rundown into the database
func (r *RundownRepository) Create(ctx context.Context, rundown *models.Rundown) error {
	result := r.db.WithContext(ctx).Create(rundown)
	if result.Error != nil {
		return fmt.Errorf("failed to create rundown: %w", MapGormError(result.Error))
	}
	return nil
}

// GetByID retrieves a rundown by its UUID
func (r *RundownRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Rundown, error) {
	var rundown models.Rundown
	result := r.db.WithContext(ctx).Where("id = ?", id.String()).First(&rundown)
	if result.Error != nil {
		return nil, MapGormError(result.Error)
	}
	return &rundown, nil
}

// ListByPlaylist retrieves all rundowns in a playlist in playback order
func (r *RundownRepository) ListByPlaylist(ctx context.Context, playlistID uuid.UUID) ([]*models.Rundown, error) {
	var rundowns []*models.Rundown
	result := r.db.WithContext(ctx).
		Where("playlist_id = ?", playlistID.String()).
		Order("rank ASC").
		Find(&rundowns)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to list rundowns: %w", MapGormError(result.Error))
	}
	return rundowns, nil
}

// Update updates an existing rundown
func (r *RundownRepository) Update(ctx context.Context, rundown *models.Rundown) error {
	rundown.UpdatedAt = time.Now().UTC()

	result := r.db.WithContext(ctx).
		Where("id = ?", rundown.ID.String()).
		Select("rank", "name", "show_style_id", "expected_duration", "updated_at").
		Updates(rundown)
	if result.Error != nil {
		return fmt.Errorf("failed to update rundown: %w", MapGormError(result.Error))
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete deletes a rundown by its UUID (cascades to segments and parts)
func (r *RundownRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Where("id = ?", id.String()).Delete(&models.Rundown{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete rundown: %w", MapGormError(result.Error))
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
