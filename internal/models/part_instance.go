package models

import (
	"time"

	"github.com/google/uuid"
)

// PartInstanceTimings records the playback timing facts of one part
// instance. All values are milliseconds; the playback timestamps are
// milliseconds since the Unix epoch.
type PartInstanceTimings struct {
	// PlannedStartedPlayback is set when the instance goes on air.
	PlannedStartedPlayback *int64 `json:"planned_started_playback,omitempty" gorm:"column:planned_started_playback"`

	// PlannedStoppedPlayback is set when the instance leaves air.
	PlannedStoppedPlayback *int64 `json:"planned_stopped_playback,omitempty" gorm:"column:planned_stopped_playback"`

	// Duration is the final as-played length, set once the instance has
	// finished.
	Duration *int64 `json:"duration,omitempty" gorm:"column:duration"`

	// PlayOffset shifts where inside the part playback began.
	PlayOffset int64 `json:"play_offset,omitempty" gorm:"column:play_offset"`

	// Take is when the operator took this instance to air.
	Take *int64 `json:"take,omitempty" gorm:"column:take_time"`

	// SetAsNext is when this instance was queued as next.
	SetAsNext *int64 `json:"set_as_next,omitempty" gorm:"column:set_as_next_time"`
}

// PartInstance is one playback occurrence of a part. Part carries a
// frozen snapshot of the definition taken at creation; later edits to
// the live part never change a finished instance's accounting.
type PartInstance struct {
	ID         uuid.UUID `json:"id" gorm:"type:text;primaryKey;column:id"`
	PlaylistID uuid.UUID `json:"playlist_id" gorm:"type:text;not null;index;column:playlist_id"`
	RundownID  uuid.UUID `json:"rundown_id" gorm:"type:text;not null;index;column:rundown_id"`
	SegmentID  uuid.UUID `json:"segment_id" gorm:"type:text;not null;index;column:segment_id"`
	PartID     uuid.UUID `json:"part_id" gorm:"type:text;not null;index;column:part_id"`

	// Part is the frozen definition snapshot.
	Part Part `json:"part" gorm:"serializer:json;column:part"`

	// TakeCount distinguishes multiple takes of the same part.
	TakeCount int `json:"take_count" gorm:"column:take_count"`

	// Temporary instances are synthesized on the fly (for lookahead or
	// adlib preview) and must never be persisted.
	Temporary bool `json:"temporary,omitempty" gorm:"-"`

	// Reset instances are history from a previous activation and are
	// excluded from resolution.
	Reset bool `json:"reset,omitempty" gorm:"column:reset"`

	Timings PartInstanceTimings `json:"timings" gorm:"embedded"`

	CreatedAt time.Time `json:"created_at" gorm:"type:datetime;default:CURRENT_TIMESTAMP;column:created_at"`
}

// NewTemporaryPartInstance synthesizes an unsaved instance for a part
// that has no real instance yet. It carries no instance id of its own.
func NewTemporaryPartInstance(playlistID uuid.UUID, part *Part) *PartInstance {
	return &PartInstance{
		ID:         uuid.Nil,
		PlaylistID: playlistID,
		RundownID:  part.RundownID,
		SegmentID:  part.SegmentID,
		PartID:     part.ID,
		Part:       *part,
		Temporary:  true,
	}
}

// TimingID is the key the timing context is addressed by: the instance
// id for real instances, the underlying part id for temporary ones.
func (pi *PartInstance) TimingID() string {
	if pi.Temporary || pi.ID == uuid.Nil {
		return pi.PartID.String()
	}
	return pi.ID.String()
}

// HasStartedPlayback reports whether the instance has gone on air.
func (pi *PartInstance) HasStartedPlayback() bool {
	return pi.Timings.PlannedStartedPlayback != nil
}

// IsFinished reports whether the instance has a finalized duration.
func (pi *PartInstance) IsFinished() bool {
	return pi.Timings.Duration != nil
}
