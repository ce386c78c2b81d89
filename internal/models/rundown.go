package models

import (
	"time"

	"github.com/google/uuid"
)

// Rundown is one show's worth of segments within a playlist.
type Rundown struct {
	ID         uuid.UUID `json:"id" gorm:"type:text;primaryKey;column:id"`
	PlaylistID uuid.UUID `json:"playlist_id" gorm:"type:text;not null;index;column:playlist_id"`

	// Rank orders rundowns within the playlist.
	Rank float64 `json:"rank" gorm:"type:real;not null;column:rank"`
	Name string  `json:"name" gorm:"type:text;not null;column:name"`

	// ShowStyleID scopes show-style-end infinite pieces.
	ShowStyleID uuid.UUID `json:"show_style_id" gorm:"type:text;column:show_style_id"`

	// ExpectedDuration is the planned length of the whole rundown in
	// milliseconds; zero when unplanned.
	ExpectedDuration int64 `json:"expected_duration,omitempty" gorm:"column:expected_duration"`

	CreatedAt time.Time `json:"created_at" gorm:"type:datetime;default:CURRENT_TIMESTAMP;column:created_at"`
	UpdatedAt time.Time `json:"updated_at" gorm:"type:datetime;default:CURRENT_TIMESTAMP;column:updated_at"`
}

// NewRundown creates a rundown with a generated id and timestamps.
func NewRundown(playlistID uuid.UUID, rank float64, name string) *Rundown {
	now := time.Now().UTC()
	return &Rundown{
		ID:         uuid.New(),
		PlaylistID: playlistID,
		Rank:       rank,
		Name:       name,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}
