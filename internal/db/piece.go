package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/nrkno/sofie-core-sub006/internal/models"
)

// PieceRepository handles database operations for pieces
type PieceRepository struct {
	db *DB
}

// NewPieceRepository creates a new piece repository
func NewPieceRepository(db *DB) *PieceRepository {
	return &PieceRepository{db: db}
}

// Create inserts a new piece into the database
func (r *PieceRepository) Create(ctx context.Context, piece *models.Piece) error {
	result := r.db.WithContext(ctx).Create(piece)
	if result.Error != nil {
		return fmt.Errorf("failed to create piece: %w", MapGormError(result.Error))
	}
	return nil
}

// GetByID retrieves a piece by its UUID
func (r *PieceRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Piece, error) {
	var piece models.Piece
	result := r.db.WithContext(ctx).Where("id = ?", id.String()).First(&piece)
	if result.Error != nil {
		return nil, MapGormError(result.Error)
	}
	return &piece, nil
}

// ListByPart retrieves all pieces starting in a part ordered by in-point
func (r *PieceRepository) ListByPart(ctx context.Context, partID uuid.UUID) ([]*models.Piece, error) {
	var pieces []*models.Piece
	result := r.db.WithContext(ctx).
		Where("start_part_id = ?", partID.String()).
		Order("start ASC").
		Find(&pieces)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to list pieces: %w", MapGormError(result.Error))
	}
	return pieces, nil
}

// ListByRundowns retrieves pieces for a set of rundowns in a single query
func (r *PieceRepository) ListByRundowns(ctx context.Context, rundownIDs []uuid.UUID) ([]*models.Piece, error) {
	if len(rundownIDs) == 0 {
		return nil, nil
	}
	ids := make([]string, len(rundownIDs))
	for i, id := range rundownIDs {
		ids[i] = id.String()
	}

	var pieces []*models.Piece
	result := r.db.WithContext(ctx).
		Where("rundown_id IN ?", ids).
		Order("start ASC").
		Find(&pieces)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to list pieces: %w", MapGormError(result.Error))
	}
	return pieces, nil
}

// Delete deletes a piece by its UUID
func (r *PieceRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Where("id = ?", id.String()).Delete(&models.Piece{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete piece: %w", MapGormError(result.Error))
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
