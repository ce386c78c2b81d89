package models

import (
	"time"

	"github.com/google/uuid"
)

// Part is a single step within a segment. The definition is what
// production staff edit between takes; playback occurrences are
// PartInstances carrying a frozen snapshot of the definition.
type Part struct {
	ID        uuid.UUID `json:"id" gorm:"type:text;primaryKey;column:id"`
	SegmentID uuid.UUID `json:"segment_id" gorm:"type:text;not null;index;column:segment_id"`
	RundownID uuid.UUID `json:"rundown_id" gorm:"type:text;not null;index;column:rundown_id"`

	// Rank is the sort key within the segment. Rank order is a total
	// order inside one segment.
	Rank  float64 `json:"rank" gorm:"type:real;not null;column:rank"`
	Title string  `json:"title" gorm:"type:text;not null;column:title"`

	// ExpectedDuration is the planned duration in milliseconds; nil when
	// the part has no planned length.
	ExpectedDuration *int64 `json:"expected_duration,omitempty" gorm:"column:expected_duration"`

	// DisplayDuration overrides how much time the part occupies on
	// screen, in milliseconds. Zero means no override.
	DisplayDuration int64 `json:"display_duration,omitempty" gorm:"column:display_duration"`

	// DisplayDurationGroup pools expected durations between consecutive
	// parts sharing the same key. Empty means not pooled.
	DisplayDurationGroup string `json:"display_duration_group,omitempty" gorm:"type:text;column:display_duration_group"`

	// AutoNext makes playback advance to the following part without an
	// operator take.
	AutoNext bool `json:"auto_next" gorm:"column:auto_next"`

	// Untimed parts are excluded from playlist totals but still get a
	// per-part display duration.
	Untimed bool `json:"untimed" gorm:"column:untimed"`

	// Invalid parts cannot play; they are timed with the fallback
	// duration and zero as-played time.
	Invalid bool `json:"invalid" gorm:"column:invalid"`

	// Floated parts are parked outside the running order.
	Floated bool `json:"floated" gorm:"column:floated"`

	// Gap marks a deliberate hole in the running order.
	Gap bool `json:"gap" gorm:"column:gap"`

	CreatedAt time.Time `json:"created_at" gorm:"type:datetime;default:CURRENT_TIMESTAMP;column:created_at"`
	UpdatedAt time.Time `json:"updated_at" gorm:"type:datetime;default:CURRENT_TIMESTAMP;column:updated_at"`
}

// NewPart creates a part with a generated id and timestamps.
func NewPart(rundownID, segmentID uuid.UUID, rank float64, title string) *Part {
	now := time.Now().UTC()
	return &Part{
		ID:        uuid.New(),
		SegmentID: segmentID,
		RundownID: rundownID,
		Rank:      rank,
		Title:     title,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// IsPlayable reports whether the part can be taken to air.
func (p *Part) IsPlayable() bool {
	return !p.Invalid && !p.Floated
}
