package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/nrkno/sofie-core-sub006/internal/models"
)

// PartInstanceRepository handles database operations for part instances
type PartInstanceRepository struct {
	db *DB
}

// NewPartInstanceRepository creates a new part instance repository
func NewPartInstanceRepository(db *DB) *PartInstanceRepository {
	return &PartInstanceRepository{db: db}
}

// Create inserts a new part instance. Temporary instances only exist for the
// lifetime of a single resolution and are rejected outright.
func (r *PartInstanceRepository) Create(ctx context.Context, instance *models.PartInstance) error {
	if instance.Temporary {
		return ErrTemporaryInstance
	}
	result := r.db.WithContext(ctx).Create(instance)
	if result.Error != nil {
		return fmt.Errorf("failed to create part instance: %w", MapGormError(result.Error))
	}
	return nil
}

// GetByID retrieves a part instance by its UUID
func (r *PartInstanceRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.PartInstance, error) {
	var instance models.PartInstance
	result := r.db.WithContext(ctx).Where("id = ?", id.String()).First(&instance)
	if result.Error != nil {
		return nil, MapGormError(result.Error)
	}
	return &instance, nil
}

// ListByPlaylist retrieves all part instances in a playlist ordered by take count
func (r *PartInstanceRepository) ListByPlaylist(ctx context.Context, playlistID uuid.UUID) ([]*models.PartInstance, error) {
	var instances []*models.PartInstance
	result := r.db.WithContext(ctx).
		Where("playlist_id = ?", playlistID.String()).
		Order("take_count ASC").
		Find(&instances)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to list part instances: %w", MapGormError(result.Error))
	}
	return instances, nil
}

// ListActiveByPlaylist retrieves non-reset part instances in a playlist ordered by take count
func (r *PartInstanceRepository) ListActiveByPlaylist(ctx context.Context, playlistID uuid.UUID) ([]*models.PartInstance, error) {
	var instances []*models.PartInstance
	result := r.db.WithContext(ctx).
		Where("playlist_id = ? AND reset = ?", playlistID.String(), false).
		Order("take_count ASC").
		Find(&instances)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to list part instances: %w", MapGormError(result.Error))
	}
	return instances, nil
}

// Update updates an existing part instance's timing and flags
func (r *PartInstanceRepository) Update(ctx context.Context, instance *models.PartInstance) error {
	if instance.Temporary {
		return ErrTemporaryInstance
	}
	result := r.db.WithContext(ctx).
		Where("id = ?", instance.ID.String()).
		Select("take_count", "reset", "planned_started_playback", "planned_stopped_playback",
			"duration", "play_offset", "take_time", "set_as_next_time").
		Updates(instance)
	if result.Error != nil {
		return fmt.Errorf("failed to update part instance: %w", MapGormError(result.Error))
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ResetByPlaylist marks all part instances in a playlist as reset
func (r *PartInstanceRepository) ResetByPlaylist(ctx context.Context, playlistID uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Model(&models.PartInstance{}).
		Where("playlist_id = ?", playlistID.String()).
		Update("reset", true)
	if result.Error != nil {
		return fmt.Errorf("failed to reset part instances: %w", MapGormError(result.Error))
	}
	return nil
}

// Delete deletes a part instance by its UUID
func (r *PartInstanceRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Where("id = ?", id.String()).Delete(&models.PartInstance{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete part instance: %w", MapGormError(result.Error))
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// PieceInstanceRepository handles database operations for piece instances
type PieceInstanceRepository struct {
	db *DB
}

// NewPieceInstanceRepository creates a new piece instance repository
func NewPieceInstanceRepository(db *DB) *PieceInstanceRepository {
	return &PieceInstanceRepository{db: db}
}

// Create inserts a new piece instance. Temporary instances are rejected.
func (r *PieceInstanceRepository) Create(ctx context.Context, instance *models.PieceInstance) error {
	if instance.Temporary {
		return ErrTemporaryInstance
	}
	result := r.db.WithContext(ctx).Create(instance)
	if result.Error != nil {
		return fmt.Errorf("failed to create piece instance: %w", MapGormError(result.Error))
	}
	return nil
}

// GetByID retrieves a piece instance by its UUID
func (r *PieceInstanceRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.PieceInstance, error) {
	var instance models.PieceInstance
	result := r.db.WithContext(ctx).Where("id = ?", id.String()).First(&instance)
	if result.Error != nil {
		return nil, MapGormError(result.Error)
	}
	return &instance, nil
}

// ListByPartInstance retrieves all piece instances belonging to a part instance
func (r *PieceInstanceRepository) ListByPartInstance(ctx context.Context, partInstanceID uuid.UUID) ([]*models.PieceInstance, error) {
	var instances []*models.PieceInstance
	result := r.db.WithContext(ctx).
		Where("part_instance_id = ?", partInstanceID.String()).
		Find(&instances)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to list piece instances: %w", MapGormError(result.Error))
	}
	return instances, nil
}

// ListByPlaylist retrieves all piece instances in a playlist
func (r *PieceInstanceRepository) ListByPlaylist(ctx context.Context, playlistID uuid.UUID) ([]*models.PieceInstance, error) {
	var instances []*models.PieceInstance
	result := r.db.WithContext(ctx).
		Where("playlist_id = ?", playlistID.String()).
		Find(&instances)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to list piece instances: %w", MapGormError(result.Error))
	}
	return instances, nil
}

// Delete deletes a piece instance by its UUID
func (r *PieceInstanceRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Where("id = ?", id.String()).Delete(&models.PieceInstance{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete piece instance: %w", MapGormError(result.Error))
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
