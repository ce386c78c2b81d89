package timing

import (
	"github.com/google/uuid"

	"github.com/nrkno/sofie-core-sub006/internal/models"
)

// DefaultPartDurationMS is the fallback display duration used whenever
// a part has no duration source at all.
const DefaultPartDurationMS int64 = 3000

// Input is the full snapshot one recompute operates on. All collections
// are read-only for the duration of the call.
type Input struct {
	// Playlist supplies the live selection state; nil degrades to
	// "inactive, nothing selected".
	Playlist *models.RundownPlaylist

	// PartInstances is every instance of the playlist in playback
	// order, already deduplicated for quick-loop wrapping.
	PartInstances []*models.PartInstance

	// SegmentsByID resolves a part's segment for budget handling.
	SegmentsByID map[uuid.UUID]*models.Segment

	// Segments is the playback-ordered segment list. Budget
	// reconciliation walks this explicitly; it must never depend on map
	// iteration order.
	Segments []*models.Segment

	// DefaultPartDuration is the fallback duration in milliseconds;
	// zero selects DefaultPartDurationMS.
	DefaultPartDuration int64

	// PartsInQuickLoop flags loop membership per timing id, as produced
	// by PartsInQuickLoop.
	PartsInQuickLoop map[string]bool

	// CountdownUsesDisplayDuration switches the wait measure for
	// unplayed parts from expected to display durations.
	CountdownUsesDisplayDuration bool
}

// linearEntry is one scratch row of the linear pass. accum is the wait
// accumulator before this part; wait is the part's own contribution.
type linearEntry struct {
	timingID string
	accum    int64
	wait     int64
}

// Calculator runs the whole-playlist timing pass. It keeps scratch
// buffers between recomputes to cut allocation churn; every Recompute
// call still returns a fresh context value.
type Calculator struct {
	entries []linearEntry
}

// NewCalculator creates a calculator with empty scratch buffers.
func NewCalculator() *Calculator {
	return &Calculator{}
}

// Recompute walks every part instance in playback order exactly once
// and derives the complete timing context for the instant now (epoch
// milliseconds). Degenerate input (inactive playlist, no current part,
// empty instance list) yields a valid zeroed context, never an error.
func (c *Calculator) Recompute(now int64, in Input) *RundownTimingContext {
	defaultDuration := in.DefaultPartDuration
	if defaultDuration <= 0 {
		defaultDuration = DefaultPartDurationMS
	}

	ctx := &RundownTimingContext{
		CurrentTime:              now,
		PartCountdowns:           make(map[string]*int64, len(in.PartInstances)),
		PartDurations:            make(map[string]int64, len(in.PartInstances)),
		PartExpectedDurations:    make(map[string]int64, len(in.PartInstances)),
		PartDisplayDurations:     make(map[string]int64, len(in.PartInstances)),
		PartPlayed:               make(map[string]int64, len(in.PartInstances)),
		RundownExpectedDurations: make(map[string]int64),
		RundownAsPlayedDurations: make(map[string]int64),
		SegmentBudgetDurations:   make(map[string]int64),
		CurrentPartIndex:         -1,
		NextPartIndex:            -1,
	}

	currentID := uuid.Nil
	nextID := uuid.Nil
	if in.Playlist != nil {
		ctx.IsActive = in.Playlist.IsActive()
		currentID = in.Playlist.CurrentPartInstanceID()
		nextID = in.Playlist.NextPartInstanceID()
	}

	pools := NewDurationPools(in.PartInstances)
	c.entries = c.entries[:0]

	var waitAccumulator int64
	var liveRemaining int64
	playedPerBudgetSegment := make(map[string]int64)

	for _, inst := range in.PartInstances {
		if inst.Reset {
			continue
		}
		part := &inst.Part
		tid := inst.TimingID()
		rid := part.RundownID.String()

		seg := in.SegmentsByID[part.SegmentID]
		segBudget := seg != nil && seg.UsesBudget()

		expected := int64(0)
		if part.ExpectedDuration != nil {
			expected = *part.ExpectedDuration
		}
		if expected == 0 && inst.IsFinished() {
			expected = *inst.Timings.Duration
		}

		groupDraw, inGroup := pools.Consume(part)
		displayFrom := part.DisplayDuration
		if inGroup {
			displayFrom = groupDraw
		}
		playOffset := inst.Timings.PlayOffset

		isCurrent := inst.ID != uuid.Nil && inst.ID == currentID

		var partDuration, displayDuration, played int64
		switch {
		case part.Invalid && !part.Gap:
			partDuration = defaultDuration
			displayDuration = defaultDuration
		case inst.HasStartedPlayback() && !inst.IsFinished():
			start := *inst.Timings.PlannedStartedPlayback
			elapsed := max64(0, now-start)
			played = elapsed
			partDuration = max64(expected, elapsed) - playOffset
			displayDuration = max64(firstNonZero(displayFrom, expected, defaultDuration), elapsed) - playOffset
			if isCurrent {
				liveRemaining = max64(0, firstNonZero(expected, displayFrom, defaultDuration)-elapsed)
				ctx.CurrentPartElapsed = elapsed
			}
		case inst.IsFinished():
			recorded := *inst.Timings.Duration
			played = recorded
			partDuration = recorded - playOffset
			displayDuration = firstNonZero(recorded, displayFrom, expected, defaultDuration)
		default:
			partDuration = expected
			displayDuration = firstNonZero(displayFrom, expected, defaultDuration)
		}
		partDuration = max64(0, partDuration)
		displayDuration = max64(0, displayDuration)

		ctx.PartDurations[tid] = partDuration
		ctx.PartExpectedDurations[tid] = expected
		ctx.PartDisplayDurations[tid] = displayDuration
		ctx.PartPlayed[tid] = played

		wait := partWait(inst, part, expected, displayDuration, played, defaultDuration, in.CountdownUsesDisplayDuration)

		c.entries = append(c.entries, linearEntry{timingID: tid, accum: waitAccumulator, wait: wait})
		idx := len(c.entries) - 1
		if isCurrent {
			id := inst.ID
			ctx.CurrentPartInstanceID = &id
			ctx.CurrentPartWillAutoNext = part.AutoNext
			ctx.CurrentPartIndex = idx
		}
		if inst.ID != uuid.Nil && inst.ID == nextID {
			ctx.NextPartIndex = idx
		}
		waitAccumulator += wait

		// Totals. Untimed and floated parts keep their per-part values
		// but never contribute to playlist accumulation; invalid parts
		// contribute nothing but their fallback display time.
		timed := !part.Untimed && !part.Floated
		if !timed {
			continue
		}
		if segBudget {
			playedPerBudgetSegment[part.SegmentID.String()] += played
			ctx.RundownExpectedDurations[rid] += expected
			continue
		}
		if part.Invalid && !part.Gap {
			ctx.AsDisplayedPlaylistDuration += displayDuration
			continue
		}

		ctx.TotalPlaylistDuration += expected
		ctx.AsDisplayedPlaylistDuration += displayDuration
		ctx.AsPlayedPlaylistDuration += max64(expected, played)
		ctx.RundownExpectedDurations[rid] += expected
		ctx.RundownAsPlayedDurations[rid] += max64(expected, played)

		switch {
		case isCurrent:
			ctx.RemainingPlaylistDuration += liveRemaining
		case inst.IsFinished() || inst.HasStartedPlayback():
			// Played out; contributes nothing to remaining.
		default:
			ctx.RemainingPlaylistDuration += expected
		}
	}

	if ctx.CurrentPartInstanceID != nil {
		r := liveRemaining
		ctx.RemainingTimeOnCurrentPart = &r
	}

	c.fixupCountdowns(ctx, in, liveRemaining)
	c.reconcileSegmentBudgets(ctx, in, now, playedPerBudgetSegment)

	return ctx
}

// fixupCountdowns converts the absolute wait accumulators into
// countdowns relative to the on-air part, then rebases in-loop parts
// behind the playhead so they count down to their next appearance after
// the loop wraps.
func (c *Calculator) fixupCountdowns(ctx *RundownTimingContext, in Input, liveRemaining int64) {
	anchor := ctx.NextPartIndex
	if anchor < 0 && ctx.CurrentPartIndex >= 0 && ctx.CurrentPartIndex+1 < len(c.entries) {
		anchor = ctx.CurrentPartIndex + 1
	}

	ctx.LinearParts = make([]LinearPart, len(c.entries))

	if anchor < 0 {
		// Nothing selected (or inactive playlist): countdowns are the
		// absolute accumulated waits, as if playing in written order.
		for i, e := range c.entries {
			v := e.accum
			ctx.LinearParts[i] = LinearPart{TimingID: e.timingID, Countdown: &v}
			ctx.PartCountdowns[e.timingID] = &v
		}
		return
	}

	nextAccum := c.entries[anchor].accum
	for i, e := range c.entries {
		if i < anchor {
			// Will not play in order under current assumptions; an
			// active quick loop may revisit it below.
			ctx.LinearParts[i] = LinearPart{TimingID: e.timingID}
			ctx.PartCountdowns[e.timingID] = nil
			continue
		}
		v := max64(0, e.accum-nextAccum+liveRemaining)
		ctx.LinearParts[i] = LinearPart{TimingID: e.timingID, Countdown: &v}
		ctx.PartCountdowns[e.timingID] = &v
	}

	if in.Playlist == nil || !in.Playlist.LoopRunning() || len(in.PartsInQuickLoop) == 0 {
		return
	}
	if loopsWholePlaylist(in.Playlist.QuickLoop) {
		// Looping the whole playlist changes nothing about written
		// order, so parts behind the playhead keep the null sentinel.
		return
	}

	firstInLoop, lastInLoop := -1, -1
	for i, e := range c.entries {
		if !in.PartsInQuickLoop[e.timingID] {
			continue
		}
		if firstInLoop < 0 {
			firstInLoop = i
		}
		if i >= anchor {
			lastInLoop = i
		}
	}
	if firstInLoop < 0 || lastInLoop < 0 {
		return
	}

	// Time until playback reaches the loop boundary and wraps.
	untilLoopEnd := c.entries[lastInLoop].accum + c.entries[lastInLoop].wait - nextAccum + liveRemaining
	for i := 0; i < anchor; i++ {
		e := c.entries[i]
		if !in.PartsInQuickLoop[e.timingID] {
			continue
		}
		v := max64(0, untilLoopEnd+e.accum-c.entries[firstInLoop].accum)
		ctx.LinearParts[i].Countdown = &v
		ctx.PartCountdowns[e.timingID] = &v
	}
}

// reconcileSegmentBudgets folds segment-level budgets into the playlist
// totals. A budgeted segment's contribution is independent of its
// parts' individual durations, and segments with no visited part
// instances still count, so this walks the explicit ordered segment
// list.
func (c *Calculator) reconcileSegmentBudgets(ctx *RundownTimingContext, in Input, now int64, playedPerBudgetSegment map[string]int64) {
	var currentSegmentID uuid.UUID
	if in.Playlist != nil && in.Playlist.CurrentPartInfo != nil {
		for _, inst := range in.PartInstances {
			if inst.ID != uuid.Nil && inst.ID == in.Playlist.CurrentPartInfo.PartInstanceID {
				currentSegmentID = inst.SegmentID
				break
			}
		}
	}

	for _, seg := range in.Segments {
		if seg == nil || !seg.UsesBudget() {
			continue
		}
		sid := seg.ID.String()
		budget := *seg.Timing.BudgetDuration
		ctx.SegmentBudgetDurations[sid] = budget

		played := playedPerBudgetSegment[sid]
		if in.Playlist != nil {
			if started, ok := in.Playlist.SegmentsStartedPlayback[sid]; ok && seg.ID == currentSegmentID {
				played = max64(played, now-started)
			}
		}

		ctx.TotalPlaylistDuration += budget
		ctx.AsDisplayedPlaylistDuration += budget
		ctx.AsPlayedPlaylistDuration += max64(budget, played)
		ctx.RemainingPlaylistDuration += max64(0, budget-played)
		ctx.RundownAsPlayedDurations[seg.RundownID.String()] += max64(budget, played)

		if seg.ID == currentSegmentID {
			remaining := max64(0, budget-played)
			ctx.RemainingBudgetOnCurrentSegment = &remaining
		}
	}
}

// partWait picks the duration measure a part occupies on the countdown
// axis: as-played when finished, elapsed-vs-expected while playing,
// otherwise the expected (or display) duration.
func partWait(inst *models.PartInstance, part *models.Part, expected, displayDuration, played, defaultDuration int64, useDisplay bool) int64 {
	if part.Floated {
		return 0
	}
	if part.Invalid && !part.Gap {
		return defaultDuration
	}
	switch {
	case inst.IsFinished():
		return max64(0, played)
	case inst.HasStartedPlayback():
		return max64(expected, played)
	case useDisplay:
		return displayDuration
	default:
		return firstNonZero(expected, displayDuration)
	}
}

func firstNonZero(values ...int64) int64 {
	for _, v := range values {
		if v != 0 {
			return v
		}
	}
	return 0
}
