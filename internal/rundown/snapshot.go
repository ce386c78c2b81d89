package rundown

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/nrkno/sofie-core-sub006/internal/db"
	"github.com/nrkno/sofie-core-sub006/internal/models"
	"github.com/nrkno/sofie-core-sub006/internal/resolver"
)

// Snapshot is an in-memory view of one playlist and everything hanging
// off it, loaded in playback order. The timing and resolution passes
// work on the snapshot only; they never touch the database themselves.
type Snapshot struct {
	Playlist *models.RundownPlaylist
	Rundowns []*models.Rundown

	// Segments and Parts are in playback order across the whole
	// playlist (rundown rank, then segment rank, then part rank).
	Segments []*models.Segment
	Parts    []*models.Part

	SegmentsByID   map[uuid.UUID]*models.Segment
	PartsBySegment map[uuid.UUID][]*models.Part

	// Instances covers every part of the playlist in playback order:
	// the stored instances where they exist, temporary stand-ins
	// elsewhere. Reset instances are not included.
	Instances []*models.PartInstance

	// PieceInstances holds the stored piece instances per part
	// instance id.
	PieceInstances map[uuid.UUID][]*models.PieceInstance

	Pieces *resolver.PieceCache
}

// LoadSnapshot reads a playlist and all of its rundown content from the
// repositories.
func LoadSnapshot(ctx context.Context, repos *db.Repositories, playlistID uuid.UUID) (*Snapshot, error) {
	playlist, err := repos.Playlists.GetByID(ctx, playlistID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, ErrPlaylistNotFound
		}
		return nil, fmt.Errorf("failed to load playlist: %w", err)
	}

	rundowns, err := repos.Rundowns.ListByPlaylist(ctx, playlistID)
	if err != nil {
		return nil, fmt.Errorf("failed to load rundowns: %w", err)
	}

	rundownIDs := make([]uuid.UUID, len(rundowns))
	for i, rd := range rundowns {
		rundownIDs[i] = rd.ID
	}

	segments, err := repos.Segments.ListByRundowns(ctx, rundownIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load segments: %w", err)
	}
	parts, err := repos.Parts.ListByRundowns(ctx, rundownIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load parts: %w", err)
	}
	pieces, err := repos.Pieces.ListByRundowns(ctx, rundownIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load pieces: %w", err)
	}
	partInstances, err := repos.PartInstances.ListActiveByPlaylist(ctx, playlistID)
	if err != nil {
		return nil, fmt.Errorf("failed to load part instances: %w", err)
	}
	pieceInstances, err := repos.PieceInstances.ListByPlaylist(ctx, playlistID)
	if err != nil {
		return nil, fmt.Errorf("failed to load piece instances: %w", err)
	}

	snap := &Snapshot{
		Playlist:       playlist,
		Rundowns:       rundowns,
		SegmentsByID:   make(map[uuid.UUID]*models.Segment, len(segments)),
		PartsBySegment: make(map[uuid.UUID][]*models.Part, len(segments)),
		PieceInstances: make(map[uuid.UUID][]*models.PieceInstance),
		Pieces:         resolver.NewPieceCache(pieces),
	}

	segmentsByRundown := make(map[uuid.UUID][]*models.Segment, len(rundowns))
	for _, seg := range segments {
		snap.SegmentsByID[seg.ID] = seg
		segmentsByRundown[seg.RundownID] = append(segmentsByRundown[seg.RundownID], seg)
	}
	for _, part := range parts {
		snap.PartsBySegment[part.SegmentID] = append(snap.PartsBySegment[part.SegmentID], part)
	}
	for _, pi := range pieceInstances {
		if pi.Reset {
			continue
		}
		snap.PieceInstances[pi.PartInstanceID] = append(snap.PieceInstances[pi.PartInstanceID], pi)
	}

	instancesByPart := make(map[uuid.UUID][]*models.PartInstance, len(partInstances))
	for _, inst := range partInstances {
		instancesByPart[inst.PartID] = append(instancesByPart[inst.PartID], inst)
	}

	// Rundowns arrive rank-ordered, as do segments and parts within
	// them, so walking the hierarchy yields playback order.
	for _, rd := range rundowns {
		for _, seg := range segmentsByRundown[rd.ID] {
			snap.Segments = append(snap.Segments, seg)
			for _, part := range snap.PartsBySegment[seg.ID] {
				snap.Parts = append(snap.Parts, part)
				if stored := instancesByPart[part.ID]; len(stored) > 0 {
					snap.Instances = append(snap.Instances, stored...)
				} else {
					snap.Instances = append(snap.Instances, models.NewTemporaryPartInstance(playlist.ID, part))
				}
			}
		}
	}

	return snap, nil
}

// ScopesFor lists the upstream parts and rundowns whose infinite pieces
// may continue into the given part, in playback order.
func (s *Snapshot) ScopesFor(partID uuid.UUID) resolver.EligibleScopes {
	var scopes resolver.EligibleScopes

	var target *models.Part
	for _, part := range s.Parts {
		if part.ID == partID {
			target = part
			break
		}
	}
	if target == nil {
		return scopes
	}

	for _, part := range s.PartsBySegment[target.SegmentID] {
		if part.ID == partID {
			break
		}
		scopes.PartsBeforeThisInSegment = append(scopes.PartsBeforeThisInSegment, part.ID)
	}

	for _, seg := range s.Segments {
		if seg.OrphanedAdlibTesting {
			// Ad-lib testing segments are isolated both ways: their
			// infinites stay inside the segment.
			if scopes.IsolatedSegments == nil {
				scopes.IsolatedSegments = make(map[uuid.UUID]bool)
			}
			scopes.IsolatedSegments[seg.ID] = true
		}
	}

	for _, seg := range s.Segments {
		if seg.ID == target.SegmentID {
			break
		}
		if seg.RundownID != target.RundownID || seg.OrphanedAdlibTesting {
			continue
		}
		for _, part := range s.PartsBySegment[seg.ID] {
			scopes.PartsBeforeThisInRundown = append(scopes.PartsBeforeThisInRundown, part.ID)
		}
	}

	var showStyle uuid.UUID
	for _, rd := range s.Rundowns {
		if rd.ID == target.RundownID {
			showStyle = rd.ShowStyleID
			break
		}
	}
	for _, rd := range s.Rundowns {
		if rd.ID == target.RundownID {
			break
		}
		if rd.ShowStyleID == showStyle {
			scopes.RundownsBeforeThisInPlaylist = append(scopes.RundownsBeforeThisInPlaylist, rd.ID)
		}
	}

	return scopes
}

// SegmentInstances returns the deduplicated instances belonging to one
// segment, preserving playback order.
func (s *Snapshot) SegmentInstances(segmentID uuid.UUID, deduped []*models.PartInstance) []*models.PartInstance {
	var out []*models.PartInstance
	for _, inst := range deduped {
		if inst.SegmentID == segmentID {
			out = append(out, inst)
		}
	}
	return out
}
