package db

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/nrkno/sofie-core-sub006/internal/models"
)

// SegmentRepository handles database operations for segments
type SegmentRepository struct {
	db *DB
}

// NewSegmentRepository creates a new segment repository
func NewSegmentRepository(db *DB) *SegmentRepository {
	return &SegmentRepository{db: db}
}

// Create inserts a new segment into the database
func (r *SegmentRepository) Create(ctx context.Context, segment *models.Segment) error {
	result := r.db.WithContext(ctx).Create(segment)
	if result.Error != nil {
		return fmt.Errorf("failed to create segment: %w", MapGormError(result.Error))
	}
	return nil
}

// GetByID retrieves a segment by its UUID
func (r *SegmentRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Segment, error) {
	var segment models.Segment
	result := r.db.WithContext(ctx).Where("id = ?", id.String()).First(&segment)
	if result.Error != nil {
		return nil, MapGormError(result.Error)
	}
	return &segment, nil
}

// ListByRundown retrieves all segments in a rundown in playback order
func (r *SegmentRepository) ListByRundown(ctx context.Context, rundownID uuid.UUID) ([]*models.Segment, error) {
	var segments []*models.Segment
	result := r.db.WithContext(ctx).
		Where("rundown_id = ?", rundownID.String()).
		Order("rank ASC").
		Find(&segments)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to list segments: %w", MapGormError(result.Error))
	}
	return segments, nil
}

// ListByRundowns retrieves segments for a set of rundowns in a single query
func (r *SegmentRepository) ListByRundowns(ctx context.Context, rundownIDs []uuid.UUID) ([]*models.Segment, error) {
	if len(rundownIDs) == 0 {
		return nil, nil
	}
	ids := make([]string, len(rundownIDs))
	for i, id := range rundownIDs {
		ids[i] = id.String()
	}

	var segments []*models.Segment
	result := r.db.WithContext(ctx).
		Where("rundown_id IN ?", ids).
		Order("rank ASC").
		Find(&segments)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to list segments: %w", MapGormError(result.Error))
	}
	return segments, nil
}

// Update updates an existing segment
func (r *SegmentRepository) Update(ctx context.Context, segment *models.Segment) error {
	segment.UpdatedAt = time.Now().UTC()

	result := r.db.WithContext(ctx).
		Where("id = ?", segment.ID.String()).
		Select("rank", "name", "budget_duration", "countdown_type", "orphaned_adlib_testing", "updated_at").
		Updates(segment)
	if result.Error != nil {
		return fmt.Errorf("failed to update segment: %w", MapGormError(result.Error))
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete deletes a segment by its UUID (cascades to parts)
func (r *SegmentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Where("id = ?", id.String()).Delete(&models.Segment{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete segment: %w", MapGormError(result.Error))
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
