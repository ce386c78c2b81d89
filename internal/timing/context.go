// Package timing computes playlist-wide rundown timing: per-part
// durations, countdowns relative to the on-air part, playlist totals
// and quick-loop aware rebasing. It is a pure snapshot-in, values-out
// calculation with no I/O; the caller re-invokes it on every tick or
// data change.
package timing

import "github.com/google/uuid"

// LinearPart is one positional entry of the playback-ordered part walk.
type LinearPart struct {
	// TimingID is the part instance id, or the part id for temporary
	// instances.
	TimingID string `json:"timing_id"`

	// Countdown is the time in milliseconds until the part is expected
	// to play, relative to the on-air part. Nil means the part will not
	// play under current playback assumptions.
	Countdown *int64 `json:"countdown"`
}

// RundownTimingContext is the complete timing picture for one playlist
// at one instant. All durations are milliseconds; maps are keyed by
// timing id (part instance id, or part id for temporary instances).
type RundownTimingContext struct {
	// CurrentTime is the instant the context was computed for, epoch ms.
	CurrentTime int64 `json:"current_time"`

	// CurrentPartInstanceID is nil when nothing is on air.
	CurrentPartInstanceID *uuid.UUID `json:"current_part_instance_id"`

	// CurrentPartWillAutoNext is set when the on-air part advances
	// without an operator take.
	CurrentPartWillAutoNext bool `json:"current_part_will_auto_next"`

	// PartCountdowns maps timing id to the countdown for that part; nil
	// entries mean "will not play in order under current assumptions".
	PartCountdowns map[string]*int64 `json:"part_countdowns"`

	// PartDurations is the chosen duration measure per part: as-played
	// when finished, live elapsed-vs-expected while playing, otherwise
	// the expected duration.
	PartDurations map[string]int64 `json:"part_durations"`

	// PartExpectedDurations is the planned duration per part.
	PartExpectedDurations map[string]int64 `json:"part_expected_durations"`

	// PartDisplayDurations is the on-screen duration per part, after
	// display-duration pooling and fallbacks.
	PartDisplayDurations map[string]int64 `json:"part_display_durations"`

	// PartPlayed is elapsed playback per part; zero when unplayed.
	PartPlayed map[string]int64 `json:"part_played"`

	// LinearParts lists every part in playback order with its countdown.
	LinearParts []LinearPart `json:"linear_parts"`

	TotalPlaylistDuration       int64 `json:"total_playlist_duration"`
	RemainingPlaylistDuration   int64 `json:"remaining_playlist_duration"`
	AsDisplayedPlaylistDuration int64 `json:"as_displayed_playlist_duration"`
	AsPlayedPlaylistDuration    int64 `json:"as_played_playlist_duration"`

	// RundownExpectedDurations and RundownAsPlayedDurations aggregate
	// per rundown id.
	RundownExpectedDurations map[string]int64 `json:"rundown_expected_durations"`
	RundownAsPlayedDurations map[string]int64 `json:"rundown_as_played_durations"`

	// SegmentBudgetDurations maps segment id to its fixed budget, for
	// segments that declare one.
	SegmentBudgetDurations map[string]int64 `json:"segment_budget_durations"`

	// RemainingBudgetOnCurrentSegment is set while the on-air segment
	// has a budget.
	RemainingBudgetOnCurrentSegment *int64 `json:"remaining_budget_on_current_segment"`

	// RemainingTimeOnCurrentPart is set while a part is on air; clamped
	// at zero when the part has overrun.
	RemainingTimeOnCurrentPart *int64 `json:"remaining_time_on_current_part"`

	// CurrentPartElapsed is elapsed playback on the on-air part.
	CurrentPartElapsed int64 `json:"current_part_elapsed"`

	// CurrentPartIndex and NextPartIndex locate the on-air and queued
	// parts inside LinearParts; -1 when absent.
	CurrentPartIndex int `json:"current_part_index"`
	NextPartIndex    int `json:"next_part_index"`

	// IsActive mirrors the playlist activation state the context was
	// computed under.
	IsActive bool `json:"is_active"`
}

// CountdownFor resolves a countdown by instance id first, falling back
// to the part id. Temporary instances are addressed by part id only, so
// both keys must be tried.
func (c *RundownTimingContext) CountdownFor(instanceID, partID uuid.UUID) *int64 {
	if v, ok := c.PartCountdowns[instanceID.String()]; ok {
		return v
	}
	if v, ok := c.PartCountdowns[partID.String()]; ok {
		return v
	}
	return nil
}

// DurationFor resolves a part duration by instance id first, falling
// back to the part id.
func (c *RundownTimingContext) DurationFor(instanceID, partID uuid.UUID) (int64, bool) {
	return lookupTiming(c.PartDurations, instanceID, partID)
}

// DisplayDurationFor resolves a display duration by instance id first,
// falling back to the part id.
func (c *RundownTimingContext) DisplayDurationFor(instanceID, partID uuid.UUID) (int64, bool) {
	return lookupTiming(c.PartDisplayDurations, instanceID, partID)
}

// PlayedFor resolves elapsed playback by instance id first, falling
// back to the part id.
func (c *RundownTimingContext) PlayedFor(instanceID, partID uuid.UUID) (int64, bool) {
	return lookupTiming(c.PartPlayed, instanceID, partID)
}

func lookupTiming(m map[string]int64, instanceID, partID uuid.UUID) (int64, bool) {
	if v, ok := m[instanceID.String()]; ok {
		return v, true
	}
	if v, ok := m[partID.String()]; ok {
		return v, true
	}
	return 0, false
}
