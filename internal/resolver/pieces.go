// Package resolver determines which pieces are actually active within a
// part instance and assembles per-segment views for presentation. Like
// the timing package it is pure: all inputs arrive as in-memory
// snapshots and every call produces fresh output values.
package resolver

import (
	"time"

	"github.com/google/uuid"

	"github.com/nrkno/sofie-core-sub006/internal/models"
)

// SimulationWindow bounds how long a simulated piece set stays valid
// after the part was taken or set as next. The caller re-requests after
// this window so persisted data supersedes the guess.
const SimulationWindow = 3 * time.Second

// PieceCache indexes piece definitions by their starting part.
type PieceCache struct {
	byStartPart map[uuid.UUID][]*models.Piece
	byRundown   map[uuid.UUID][]*models.Piece
}

// NewPieceCache builds a cache over the given pieces.
func NewPieceCache(pieces []*models.Piece) *PieceCache {
	c := &PieceCache{
		byStartPart: make(map[uuid.UUID][]*models.Piece, len(pieces)),
		byRundown:   make(map[uuid.UUID][]*models.Piece),
	}
	for _, p := range pieces {
		c.byStartPart[p.StartPartID] = append(c.byStartPart[p.StartPartID], p)
		c.byRundown[p.RundownID] = append(c.byRundown[p.RundownID], p)
	}
	return c
}

// ForPart returns the pieces written into the given part.
func (c *PieceCache) ForPart(partID uuid.UUID) []*models.Piece {
	if c == nil {
		return nil
	}
	return c.byStartPart[partID]
}

// ForRundown returns every piece written into the given rundown.
func (c *PieceCache) ForRundown(rundownID uuid.UUID) []*models.Piece {
	if c == nil {
		return nil
	}
	return c.byRundown[rundownID]
}

// EligibleScopes lists the upstream parts and rundowns whose infinite
// pieces may continue into the part being resolved, in playback order.
// Empty scopes are normal and mean "no infinites considered".
type EligibleScopes struct {
	// PartsBeforeThisInSegment are earlier parts of the same segment.
	PartsBeforeThisInSegment []uuid.UUID

	// PartsBeforeThisInRundown are parts of earlier segments in the
	// same rundown.
	PartsBeforeThisInRundown []uuid.UUID

	// RundownsBeforeThisInPlaylist are earlier rundowns sharing the
	// playlist's show style.
	RundownsBeforeThisInPlaylist []uuid.UUID

	// IsolatedSegments flags ad-lib testing segments. Their pieces never
	// continue past the segment, so the rundown-level walks skip them.
	IsolatedSegments map[uuid.UUID]bool
}

// PieceResolutionInput is everything one piece resolution needs.
type PieceResolutionInput struct {
	PartInstance *models.PartInstance

	// PersistedPieceInstances are the stored instances for a real part
	// instance; ignored for temporary ones.
	PersistedPieceInstances []*models.PieceInstance

	Pieces *PieceCache
	Scopes EligibleScopes

	// Segment is the part's segment; nil degrades to no ad-lib-testing
	// handling.
	Segment *models.Segment

	// SimulatePieces lets a real part instance with no persisted piece
	// instances yet be filled with a synthesized set, so the view is
	// not empty while persisted data streams in.
	SimulatePieces bool

	// Now is the wall clock in epoch milliseconds, used to size the
	// simulation recheck window.
	Now int64
}

// PieceResolution is the effective piece instance set for one part
// instance. When Simulated is set the result is provisional and the
// caller should re-request after RecheckAfter.
type PieceResolution struct {
	Instances    []*models.PieceInstance
	Simulated    bool
	RecheckAfter time.Duration
}

// ResolvePieceInstances computes the complete set of piece instances
// active for one part instance. Order is not significant at this stage;
// the segment resolver establishes layer ordering and cropping.
func ResolvePieceInstances(in PieceResolutionInput) PieceResolution {
	inst := in.PartInstance
	if inst == nil {
		return PieceResolution{}
	}

	if !inst.Temporary {
		persisted := filterActive(in.PersistedPieceInstances)
		if len(persisted) > 0 {
			return PieceResolution{Instances: persisted}
		}
		if !in.SimulatePieces {
			return PieceResolution{}
		}
		return PieceResolution{
			Instances:    synthesize(in),
			Simulated:    true,
			RecheckAfter: simulationRecheck(inst, in.Now),
		}
	}

	return PieceResolution{Instances: synthesize(in)}
}

// filterActive drops disabled and reset instances.
func filterActive(instances []*models.PieceInstance) []*models.PieceInstance {
	out := make([]*models.PieceInstance, 0, len(instances))
	for _, pi := range instances {
		if pi.Disabled || pi.Reset {
			continue
		}
		out = append(out, pi)
	}
	return out
}

// simulationRecheck computes how long a simulated result stays valid,
// anchored at the later of take and set-as-next.
func simulationRecheck(inst *models.PartInstance, now int64) time.Duration {
	var anchor int64
	if inst.Timings.Take != nil {
		anchor = *inst.Timings.Take
	}
	if inst.Timings.SetAsNext != nil && *inst.Timings.SetAsNext > anchor {
		anchor = *inst.Timings.SetAsNext
	}
	if anchor == 0 {
		return SimulationWindow
	}
	deadline := anchor + SimulationWindow.Milliseconds()
	if deadline <= now {
		return 0
	}
	return time.Duration(deadline-now) * time.Millisecond
}

// synthesize materializes piece instances from definitions: the part's
// own pieces plus same-layer infinite continuations from the eligible
// upstream scopes.
func synthesize(in PieceResolutionInput) []*models.PieceInstance {
	inst := in.PartInstance
	local := in.Pieces.ForPart(inst.PartID)

	out := make([]*models.PieceInstance, 0, len(local))
	stoppedLayers := make(map[string]bool)
	for _, p := range local {
		p.Lifespan.MustBeValid()
		if p.Virtual {
			// A virtual piece at the top of the part stops a continuing
			// infinite on its layer without emitting content.
			if p.Start == 0 {
				stoppedLayers[p.SourceLayerID] = true
			}
			continue
		}
		out = append(out, models.MaterializePieceInstance(inst, p))
	}

	for _, p := range continuingInfinites(in) {
		if stoppedLayers[p.SourceLayerID] {
			continue
		}
		pi := models.MaterializePieceInstance(inst, p)
		pi.Infinite = &models.PieceInstanceInfinite{
			InfinitePieceID:  p.ID,
			FromPreviousPart: true,
		}
		out = append(out, pi)
	}
	return out
}

// continuingInfinites walks the eligible scopes from the farthest to
// the nearest and keeps, per source layer, the latest infinite piece
// that must continue into the part. A later same-layer piece replaces
// an earlier one; a virtual piece stops the chain without emitting
// anything.
func continuingInfinites(in PieceResolutionInput) []*models.Piece {
	// Ad-lib testing segments are isolated: the segment and rundown
	// scopes are forced empty so nothing propagates in.
	scopes := in.Scopes
	if in.Segment != nil && in.Segment.OrphanedAdlibTesting {
		scopes.PartsBeforeThisInSegment = nil
		scopes.PartsBeforeThisInRundown = nil
	}

	latest := make(map[string]*models.Piece)

	consider := func(p *models.Piece) {
		p.Lifespan.MustBeValid()
		prev, ok := latest[p.SourceLayerID]
		if ok && prev.StartPartID == p.StartPartID {
			// Same part: the later-starting piece wins, priority breaks
			// ties.
			if p.Start < prev.Start || (p.Start == prev.Start && p.Priority <= prev.Priority) {
				return
			}
		}
		latest[p.SourceLayerID] = p
	}

	for _, rundownID := range scopes.RundownsBeforeThisInPlaylist {
		for _, p := range in.Pieces.ForRundown(rundownID) {
			if scopes.IsolatedSegments[p.SegmentID] {
				continue
			}
			if p.Lifespan == models.LifespanOutOnShowStyleEnd {
				consider(p)
			}
		}
	}
	for _, partID := range scopes.PartsBeforeThisInRundown {
		for _, p := range in.Pieces.ForPart(partID) {
			if scopes.IsolatedSegments[p.SegmentID] {
				continue
			}
			switch p.Lifespan {
			case models.LifespanOutOnRundownChange,
				models.LifespanOutOnRundownEnd,
				models.LifespanOutOnShowStyleEnd:
				consider(p)
			}
		}
	}
	for _, partID := range scopes.PartsBeforeThisInSegment {
		for _, p := range in.Pieces.ForPart(partID) {
			if p.Lifespan.IsInfinite() {
				consider(p)
			}
		}
	}

	out := make([]*models.Piece, 0, len(latest))
	for _, p := range latest {
		if p.Virtual {
			continue
		}
		out = append(out, p)
	}
	return out
}
