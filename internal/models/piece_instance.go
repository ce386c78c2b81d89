package models

import (
	"time"

	"github.com/google/uuid"
)

// PieceInstanceInfinite describes a piece instance that is continuing
// from an earlier part. It records where the continuation chain began.
type PieceInstanceInfinite struct {
	// InfinitePieceID is the originating piece definition.
	InfinitePieceID uuid.UUID `json:"infinite_piece_id"`

	// InfiniteInstanceID is the piece instance that started the chain,
	// uuid.Nil when the chain began on a temporary instance.
	InfiniteInstanceID uuid.UUID `json:"infinite_instance_id"`

	// FromPreviousPart is set when the occurrence continues out of a
	// part before the one it is resolved in.
	FromPreviousPart bool `json:"from_previous_part"`
}

// PieceInstance is one playback occurrence of a piece within a part
// instance.
type PieceInstance struct {
	ID             uuid.UUID `json:"id" gorm:"type:text;primaryKey;column:id"`
	PlaylistID     uuid.UUID `json:"playlist_id" gorm:"type:text;not null;index;column:playlist_id"`
	RundownID      uuid.UUID `json:"rundown_id" gorm:"type:text;not null;index;column:rundown_id"`
	PartInstanceID uuid.UUID `json:"part_instance_id" gorm:"type:text;not null;index;column:part_instance_id"`
	PieceID        uuid.UUID `json:"piece_id" gorm:"type:text;not null;index;column:piece_id"`

	// Piece is the frozen definition snapshot.
	Piece Piece `json:"piece" gorm:"serializer:json;column:piece"`

	// Infinite is set when the occurrence continues from an earlier
	// part.
	Infinite *PieceInstanceInfinite `json:"infinite,omitempty" gorm:"serializer:json;column:infinite"`

	// Disabled instances are skipped by resolution.
	Disabled bool `json:"disabled,omitempty" gorm:"column:disabled"`

	// Reset instances are history from a previous activation.
	Reset bool `json:"reset,omitempty" gorm:"column:reset"`

	// Temporary instances were materialized by the resolver and must
	// never be persisted.
	Temporary bool `json:"temporary,omitempty" gorm:"-"`

	CreatedAt time.Time `json:"created_at" gorm:"type:datetime;default:CURRENT_TIMESTAMP;column:created_at"`
}

// MaterializePieceInstance wraps a piece definition in an unsaved
// instance for a part instance that has no persisted piece instances.
func MaterializePieceInstance(partInstance *PartInstance, piece *Piece) *PieceInstance {
	return &PieceInstance{
		ID:             uuid.Nil,
		PlaylistID:     partInstance.PlaylistID,
		RundownID:      partInstance.RundownID,
		PartInstanceID: partInstance.ID,
		PieceID:        piece.ID,
		Piece:          *piece,
		Temporary:      true,
	}
}

// ContinuesFromPrevious reports whether this occurrence started in an
// earlier part than the one it is resolved in.
func (pi *PieceInstance) ContinuesFromPrevious() bool {
	return pi.Infinite != nil && pi.Infinite.FromPreviousPart
}
