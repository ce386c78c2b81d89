package db

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/nrkno/sofie-core-sub006/internal/models"
)

// PartRepository handles database operations for parts
type PartRepository struct {
	db *DB
}

// NewPartRepository creates a new part repository
func NewPartRepository(db *DB) *PartRepository {
	return &PartRepository{db: db}
}

// Create inserts a new part into the database
func (r *PartRepository) Create(ctx context.Context, part *models.Part) error {
	result := r.db.WithContext(ctx).Create(part)
	if result.Error != nil {
		return fmt.Errorf("failed to create part: %w", MapGormError(result.Error))
	}
	return nil
}

// GetByID retrieves a part by its UUID
func (r *PartRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Part, error) {
	var part models.Part
	result := r.db.WithContext(ctx).Where("id = ?", id.String()).First(&part)
	if result.Error != nil {
		return nil, MapGormError(result.Error)
	}
	return &part, nil
}

// ListBySegment retrieves all parts in a segment in playback order
func (r *PartRepository) ListBySegment(ctx context.Context, segmentID uuid.UUID) ([]*models.Part, error) {
	var parts []*models.Part
	result := r.db.WithContext(ctx).
		Where("segment_id = ?", segmentID.String()).
		Order("rank ASC").
		Find(&parts)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to list parts: %w", MapGormError(result.Error))
	}
	return parts, nil
}

// ListByRundown retrieves all parts in a rundown ordered by segment then rank
func (r *PartRepository) ListByRundown(ctx context.Context, rundownID uuid.UUID) ([]*models.Part, error) {
	var parts []*models.Part
	result := r.db.WithContext(ctx).
		Where("rundown_id = ?", rundownID.String()).
		Order("rank ASC").
		Find(&parts)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to list parts: %w", MapGormError(result.Error))
	}
	return parts, nil
}

// ListByRundowns retrieves parts for a set of rundowns in a single query
func (r *PartRepository) ListByRundowns(ctx context.Context, rundownIDs []uuid.UUID) ([]*models.Part, error) {
	if len(rundownIDs) == 0 {
		return nil, nil
	}
	ids := make([]string, len(rundownIDs))
	for i, id := range rundownIDs {
		ids[i] = id.String()
	}

	var parts []*models.Part
	result := r.db.WithContext(ctx).
		Where("rundown_id IN ?", ids).
		Order("rank ASC").
		Find(&parts)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to list parts: %w", MapGormError(result.Error))
	}
	return parts, nil
}

// Update updates an existing part
func (r *PartRepository) Update(ctx context.Context, part *models.Part) error {
	part.UpdatedAt = time.Now().UTC()

	result := r.db.WithContext(ctx).
		Where("id = ?", part.ID.String()).
		Select("rank", "title", "expected_duration", "display_duration", "display_duration_group",
			"auto_next", "untimed", "invalid", "floated", "gap", "updated_at").
		Updates(part)
	if result.Error != nil {
		return fmt.Errorf("failed to update part: %w", MapGormError(result.Error))
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete deletes a part by its UUID (cascades to pieces)
func (r *PartRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Where("id = ?", id.String()).Delete(&models.Part{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete part: %w", MapGormError(result.Error))
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
