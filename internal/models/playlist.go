package models

import (
	"time"

	"github.com/google/uuid"
)

// QuickLoopMarker pins one boundary of a quick loop to a playlist,
// rundown, segment or part.
type QuickLoopMarker struct {
	Type QuickLoopMarkerType `json:"type"`

	// ID is the target rundown/segment/part id; unused for playlist
	// markers.
	ID uuid.UUID `json:"id,omitempty"`
}

// QuickLoop is a user-defined subrange of the playlist that plays
// repeatedly.
type QuickLoop struct {
	Start   QuickLoopMarker `json:"start"`
	End     QuickLoopMarker `json:"end"`
	Running bool            `json:"running"`
	Locked  bool            `json:"locked"`
}

// PartInfo identifies a selected part instance (current, next or
// previous) together with the part it was created from.
type PartInfo struct {
	PartInstanceID uuid.UUID `json:"part_instance_id"`
	PartID         uuid.UUID `json:"part_id"`

	// ManuallySelected is set when an operator picked the part out of
	// order.
	ManuallySelected bool `json:"manually_selected,omitempty"`
}

// RundownPlaylist is the ordered list of rundowns a studio plays
// through, together with its live selection state.
type RundownPlaylist struct {
	ID   uuid.UUID `json:"id" gorm:"type:text;primaryKey;column:id"`
	Name string    `json:"name" gorm:"type:text;not null;column:name"`

	// ActivationID is set while the playlist is on air; nil when the
	// playlist is inactive.
	ActivationID *uuid.UUID `json:"activation_id,omitempty" gorm:"type:text;column:activation_id"`

	// At most one current and one next part instance are selected at a
	// time.
	CurrentPartInfo  *PartInfo `json:"current_part_info,omitempty" gorm:"serializer:json;column:current_part_info"`
	NextPartInfo     *PartInfo `json:"next_part_info,omitempty" gorm:"serializer:json;column:next_part_info"`
	PreviousPartInfo *PartInfo `json:"previous_part_info,omitempty" gorm:"serializer:json;column:previous_part_info"`

	// SegmentsStartedPlayback maps segment id to the epoch-ms timestamp
	// its first part went on air during this activation.
	SegmentsStartedPlayback map[string]int64 `json:"segments_started_playback,omitempty" gorm:"serializer:json;column:segments_started_playback"`

	QuickLoop *QuickLoop `json:"quick_loop,omitempty" gorm:"serializer:json;column:quick_loop"`

	// StartedPlayback is when the activation began, epoch milliseconds.
	StartedPlayback *int64 `json:"started_playback,omitempty" gorm:"column:started_playback"`

	CreatedAt time.Time `json:"created_at" gorm:"type:datetime;default:CURRENT_TIMESTAMP;column:created_at"`
	UpdatedAt time.Time `json:"updated_at" gorm:"type:datetime;default:CURRENT_TIMESTAMP;column:updated_at"`
}

// NewRundownPlaylist creates an inactive playlist with a generated id.
func NewRundownPlaylist(name string) *RundownPlaylist {
	now := time.Now().UTC()
	return &RundownPlaylist{
		ID:        uuid.New(),
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// IsActive reports whether the playlist is currently on air.
func (p *RundownPlaylist) IsActive() bool {
	return p.ActivationID != nil
}

// CurrentPartInstanceID returns the on-air part instance id, or
// uuid.Nil when nothing is on air.
func (p *RundownPlaylist) CurrentPartInstanceID() uuid.UUID {
	if p.CurrentPartInfo == nil {
		return uuid.Nil
	}
	return p.CurrentPartInfo.PartInstanceID
}

// NextPartInstanceID returns the queued part instance id, or uuid.Nil
// when nothing is queued.
func (p *RundownPlaylist) NextPartInstanceID() uuid.UUID {
	if p.NextPartInfo == nil {
		return uuid.Nil
	}
	return p.NextPartInfo.PartInstanceID
}

// LoopRunning reports whether a quick loop is actively looping.
func (p *RundownPlaylist) LoopRunning() bool {
	return p.QuickLoop != nil && p.QuickLoop.Running
}
