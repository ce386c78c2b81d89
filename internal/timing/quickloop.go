package timing

import (
	"github.com/google/uuid"

	"github.com/nrkno/sofie-core-sub006/internal/models"
)

// DeduplicateQuickLoopInstances removes duplicate occurrences of the
// same underlying part from a playback-ordered instance list. A wrapped
// loop view can contain the same part twice; resolving or timing it
// twice would double its contribution. The surviving occurrence is the
// one matching the on-air instance when present among the duplicates,
// otherwise a real (persisted) instance is preferred over a temporary
// one, otherwise the earliest occurrence wins.
func DeduplicateQuickLoopInstances(currentPartInstanceID uuid.UUID, instances []*models.PartInstance) []*models.PartInstance {
	if len(instances) < 2 {
		return instances
	}

	survivors := make(map[uuid.UUID]*models.PartInstance, len(instances))
	counts := make(map[uuid.UUID]int, len(instances))
	for _, inst := range instances {
		counts[inst.PartID]++
		best, seen := survivors[inst.PartID]
		if !seen {
			survivors[inst.PartID] = inst
			continue
		}
		if betterQuickLoopSurvivor(currentPartInstanceID, best, inst) {
			survivors[inst.PartID] = inst
		}
	}

	out := make([]*models.PartInstance, 0, len(survivors))
	emitted := make(map[uuid.UUID]bool, len(survivors))
	for _, inst := range instances {
		if emitted[inst.PartID] {
			continue
		}
		emitted[inst.PartID] = true
		out = append(out, survivors[inst.PartID])
	}
	return out
}

// betterQuickLoopSurvivor reports whether candidate should replace best.
func betterQuickLoopSurvivor(currentID uuid.UUID, best, candidate *models.PartInstance) bool {
	if currentID != uuid.Nil {
		if best.ID == currentID {
			return false
		}
		if candidate.ID == currentID {
			return true
		}
	}
	if best.Temporary && !candidate.Temporary {
		return true
	}
	return false
}

// PartsInQuickLoop flags, per timing id, which parts of a
// playback-ordered instance list fall inside the loop subrange.
//
// The scan toggles an inside flag when the start marker's target is
// reached. A part-scoped end marker is inclusive: its target part is
// still in the loop and the flag clears one step after it. Segment and
// rundown scoped end markers are exclusive: the flag clears on entering
// the target container. When start and end name the same target the
// loop is exactly that container (the single-part-loop case).
func PartsInQuickLoop(loop *models.QuickLoop, instances []*models.PartInstance) map[string]bool {
	set := make(map[string]bool, len(instances))
	if loop == nil {
		return set
	}
	loop.Start.Type.MustBeValid()
	loop.End.Type.MustBeValid()

	if loop.Start == loop.End {
		for _, inst := range instances {
			if markerMatches(loop.Start, inst) {
				set[inst.TimingID()] = true
			}
		}
		return set
	}

	inside := false
	for _, inst := range instances {
		if !inside && markerMatches(loop.Start, inst) {
			inside = true
		}
		if inside && markerMatches(loop.End, inst) {
			if loop.End.Type == models.QuickLoopMarkerPart {
				set[inst.TimingID()] = true
			}
			inside = false
			continue
		}
		if inside {
			set[inst.TimingID()] = true
		}
	}
	return set
}

// markerMatches reports whether an instance is covered by a marker's
// target.
func markerMatches(marker models.QuickLoopMarker, inst *models.PartInstance) bool {
	switch marker.Type {
	case models.QuickLoopMarkerPlaylist:
		return true
	case models.QuickLoopMarkerRundown:
		return inst.RundownID == marker.ID
	case models.QuickLoopMarkerSegment:
		return inst.SegmentID == marker.ID
	case models.QuickLoopMarkerPart:
		return inst.PartID == marker.ID
	default:
		marker.Type.MustBeValid()
		return false
	}
}

// loopsWholePlaylist reports whether the loop is simply "repeat the
// whole playlist".
func loopsWholePlaylist(loop *models.QuickLoop) bool {
	return loop != nil &&
		loop.Start.Type == models.QuickLoopMarkerPlaylist &&
		loop.End.Type == models.QuickLoopMarkerPlaylist
}
