package models

import (
	"time"

	"github.com/google/uuid"
)

// Piece is a content item (video, graphic, audio) placed on a source
// layer within a part.
type Piece struct {
	ID uuid.UUID `json:"id" gorm:"type:text;primaryKey;column:id"`

	// StartPartID is the part the piece is written into. Infinite pieces
	// may stay active long after this part.
	StartPartID uuid.UUID `json:"start_part_id" gorm:"type:text;not null;index;column:start_part_id"`
	SegmentID   uuid.UUID `json:"segment_id" gorm:"type:text;not null;index;column:segment_id"`
	RundownID   uuid.UUID `json:"rundown_id" gorm:"type:text;not null;index;column:rundown_id"`

	Name          string `json:"name" gorm:"type:text;not null;column:name"`
	SourceLayerID string `json:"source_layer_id" gorm:"type:text;not null;column:source_layer_id"`
	OutputLayerID string `json:"output_layer_id" gorm:"type:text;not null;column:output_layer_id"`

	Lifespan PieceLifespan `json:"lifespan" gorm:"type:text;not null;column:lifespan"`

	// Start is the in-point relative to the part, in milliseconds.
	Start int64 `json:"start" gorm:"column:start"`

	// Duration is the planned length in milliseconds; nil means the
	// piece stays open until a boundary or a same-layer replacement.
	Duration *int64 `json:"duration,omitempty" gorm:"column:duration"`

	// Priority breaks ordering ties between pieces starting at the same
	// time on the same layer group.
	Priority int `json:"priority,omitempty" gorm:"column:priority"`

	// Virtual pieces exist only to stop an earlier infinite; they carry
	// no content of their own.
	Virtual bool `json:"virtual,omitempty" gorm:"column:virtual"`

	CreatedAt time.Time `json:"created_at" gorm:"type:datetime;default:CURRENT_TIMESTAMP;column:created_at"`
}

// NewPiece creates a piece with a generated id and a within-part
// lifespan.
func NewPiece(rundownID, segmentID, startPartID uuid.UUID, name, sourceLayerID, outputLayerID string) *Piece {
	return &Piece{
		ID:            uuid.New(),
		StartPartID:   startPartID,
		SegmentID:     segmentID,
		RundownID:     rundownID,
		Name:          name,
		SourceLayerID: sourceLayerID,
		OutputLayerID: outputLayerID,
		Lifespan:      LifespanWithinPart,
		CreatedAt:     time.Now().UTC(),
	}
}
