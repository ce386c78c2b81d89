package models

import (
	"time"

	"github.com/google/uuid"
)

// SegmentTiming configures how a segment is counted down.
type SegmentTiming struct {
	// BudgetDuration is a fixed time allowance for the whole segment in
	// milliseconds, independent of its parts' expected durations. Nil
	// means no budget.
	BudgetDuration *int64 `json:"budget_duration,omitempty" gorm:"column:budget_duration"`

	// CountdownType selects the countdown basis; empty defaults to
	// part expected durations.
	CountdownType SegmentCountdownType `json:"countdown_type,omitempty" gorm:"type:text;column:countdown_type"`
}

// Segment is an ordered container of parts within a rundown.
type Segment struct {
	ID        uuid.UUID `json:"id" gorm:"type:text;primaryKey;column:id"`
	RundownID uuid.UUID `json:"rundown_id" gorm:"type:text;not null;index;column:rundown_id"`

	Rank float64 `json:"rank" gorm:"type:real;not null;column:rank"`
	Name string  `json:"name" gorm:"type:text;not null;column:name"`

	Timing SegmentTiming `json:"timing" gorm:"embedded"`

	// OrphanedAdlibTesting marks an ad-lib testing segment. Infinite
	// pieces never propagate into or out of such a segment.
	OrphanedAdlibTesting bool `json:"orphaned_adlib_testing,omitempty" gorm:"column:orphaned_adlib_testing"`

	CreatedAt time.Time `json:"created_at" gorm:"type:datetime;default:CURRENT_TIMESTAMP;column:created_at"`
	UpdatedAt time.Time `json:"updated_at" gorm:"type:datetime;default:CURRENT_TIMESTAMP;column:updated_at"`
}

// NewSegment creates a segment with a generated id and timestamps.
func NewSegment(rundownID uuid.UUID, rank float64, name string) *Segment {
	now := time.Now().UTC()
	return &Segment{
		ID:        uuid.New(),
		RundownID: rundownID,
		Rank:      rank,
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// UsesBudget reports whether the segment is timed against a fixed
// budget instead of its parts' expected durations.
func (s *Segment) UsesBudget() bool {
	return s.Timing.BudgetDuration != nil
}
