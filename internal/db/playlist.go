package db

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/nrkno/sofie-core-sub006/internal/models"
)

// PlaylistRepository handles database operations for rundown playlists
type PlaylistRepository struct {
	db *DB
}

// NewPlaylistRepository creates a new playlist repository
func NewPlaylistRepository(db *DB) *PlaylistRepository {
	return &PlaylistRepository{db: db}
}

// Create inserts a new playlist into the database
func (r *PlaylistRepository) Create(ctx context.Context, playlist *models.RundownPlaylist) error {
	result := r.db.WithContext(ctx).Create(playlist)
	if result.Error != nil {
		return fmt.Errorf("failed to create playlist: %w", MapGormError(result.Error))
	}
	return nil
}

// GetByID retrieves a playlist by its UUID
func (r *PlaylistRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.RundownPlaylist, error) {
	var playlist models.RundownPlaylist
	result := r.db.WithContext(ctx).Where("id = ?", id.String()).First(&playlist)
	if result.Error != nil {
		return nil, MapGormError(result.Error)
	}
	return &playlist, nil
}

// List retrieves all playlists ordered by creation date (newest first)
func (r *PlaylistRepository) List(ctx context.Context) ([]*models.RundownPlaylist, error) {
	var playlists []*models.RundownPlaylist
	result := r.db.WithContext(ctx).Order("created_at DESC").Find(&playlists)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to list playlists: %w", MapGormError(result.Error))
	}
	return playlists, nil
}

// Update updates an existing playlist's selection and loop state
func (r *PlaylistRepository) Update(ctx context.Context, playlist *models.RundownPlaylist) error {
	playlist.UpdatedAt = time.Now().UTC()

	result := r.db.WithContext(ctx).
		Where("id = ?", playlist.ID.String()).
		Select("name", "activation_id", "current_part_info", "next_part_info", "previous_part_info",
			"segments_started_playback", "quick_loop", "started_playback", "updated_at").
		Updates(playlist)
	if result.Error != nil {
		return fmt.Errorf("failed to update playlist: %w", MapGormError(result.Error))
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete deletes a playlist by its UUID (cascades to rundowns)
func (r *PlaylistRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Where("id = ?", id.String()).Delete(&models.RundownPlaylist{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete playlist: %w", MapGormError(result.Error))
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
