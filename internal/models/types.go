// Package models defines the rundown data model: playlists, rundowns,
// segments, parts, pieces and their playback instances.
package models

import "fmt"

// PieceLifespan classifies how long a piece stays active once its
// originating part goes on air.
type PieceLifespan string

const (
	// LifespanWithinPart means the piece dies with its part.
	LifespanWithinPart PieceLifespan = "part-only"

	// LifespanOutOnSegmentChange keeps the piece alive until playback
	// moves to a different segment.
	LifespanOutOnSegmentChange PieceLifespan = "segment-change"

	// LifespanOutOnSegmentEnd keeps the piece alive until the end of its
	// originating segment.
	LifespanOutOnSegmentEnd PieceLifespan = "segment-end"

	// LifespanOutOnRundownChange keeps the piece alive until playback
	// moves to a different rundown.
	LifespanOutOnRundownChange PieceLifespan = "rundown-change"

	// LifespanOutOnRundownEnd keeps the piece alive until the end of its
	// originating rundown.
	LifespanOutOnRundownEnd PieceLifespan = "rundown-end"

	// LifespanOutOnShowStyleEnd keeps the piece alive across rundowns for
	// as long as the playlist keeps using the same show style.
	LifespanOutOnShowStyleEnd PieceLifespan = "showstyle-end"
)

// IsValid reports whether the lifespan is a known enumeration member.
func (l PieceLifespan) IsValid() bool {
	switch l {
	case LifespanWithinPart,
		LifespanOutOnSegmentChange,
		LifespanOutOnSegmentEnd,
		LifespanOutOnRundownChange,
		LifespanOutOnRundownEnd,
		LifespanOutOnShowStyleEnd:
		return true
	}
	return false
}

// IsInfinite reports whether the piece outlives its originating part.
func (l PieceLifespan) IsInfinite() bool {
	return l.IsValid() && l != LifespanWithinPart
}

// MustBeValid panics when the lifespan is not a known member. New
// lifespans silently falling through would corrupt timing invisibly, so
// this is treated as an unreachable programming error.
func (l PieceLifespan) MustBeValid() {
	if !l.IsValid() {
		panic(fmt.Sprintf("unknown piece lifespan %q", string(l)))
	}
}

// QuickLoopMarkerType scopes a quick-loop boundary marker.
type QuickLoopMarkerType string

const (
	// QuickLoopMarkerPlaylist spans the whole playlist.
	QuickLoopMarkerPlaylist QuickLoopMarkerType = "playlist"
	// QuickLoopMarkerRundown targets a single rundown.
	QuickLoopMarkerRundown QuickLoopMarkerType = "rundown"
	// QuickLoopMarkerSegment targets a single segment.
	QuickLoopMarkerSegment QuickLoopMarkerType = "segment"
	// QuickLoopMarkerPart targets a single part.
	QuickLoopMarkerPart QuickLoopMarkerType = "part"
)

// IsValid reports whether the marker type is a known enumeration member.
func (t QuickLoopMarkerType) IsValid() bool {
	switch t {
	case QuickLoopMarkerPlaylist, QuickLoopMarkerRundown, QuickLoopMarkerSegment, QuickLoopMarkerPart:
		return true
	}
	return false
}

// MustBeValid panics when the marker type is not a known member.
func (t QuickLoopMarkerType) MustBeValid() {
	if !t.IsValid() {
		panic(fmt.Sprintf("unknown quick loop marker type %q", string(t)))
	}
}

// SegmentCountdownType selects what a segment counts down against.
type SegmentCountdownType string

const (
	// CountdownPartExpectedDuration counts down against the sum of the
	// segment's part expected durations.
	CountdownPartExpectedDuration SegmentCountdownType = "part_expected_duration"
	// CountdownSegmentBudgetDuration counts down against the segment's
	// fixed time budget.
	CountdownSegmentBudgetDuration SegmentCountdownType = "segment_budget_duration"
)
