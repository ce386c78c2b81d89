package resolver

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/nrkno/sofie-core-sub006/internal/models"
	"github.com/nrkno/sofie-core-sub006/internal/timing"
)

// PieceResolverFunc resolves the effective piece instances for one part
// instance. The rundown service wires ResolvePieceInstances here; tests
// may substitute their own.
type PieceResolverFunc func(*models.PartInstance) PieceResolution

// SegmentResolutionInput is everything one segment resolution needs.
type SegmentResolutionInput struct {
	Segment *models.Segment

	// PartInstances are the segment's instances in playback order,
	// already deduplicated for quick-loop wrapping.
	PartInstances []*models.PartInstance

	CurrentPartInstanceID uuid.UUID
	NextPartInstanceID    uuid.UUID

	SourceLayers map[string]*models.SourceLayer
	OutputLayers map[string]*models.OutputLayer

	ResolvePieces PieceResolverFunc
}

// ResolvedPiece is a piece instance positioned on the layer grid.
type ResolvedPiece struct {
	Instance    *models.PieceInstance `json:"instance"`
	SourceLayer *models.SourceLayer   `json:"source_layer,omitempty"`
	OutputLayer *models.OutputLayer   `json:"output_layer,omitempty"`

	// RenderedInPoint is the start relative to the part, milliseconds.
	RenderedInPoint int64 `json:"rendered_in_point"`

	// RenderedDuration is nil while the piece is open-ended.
	RenderedDuration *int64 `json:"rendered_duration"`

	// MaxLabelWidth caps how wide a label may render once the piece has
	// been cropped by a later same-layer piece.
	MaxLabelWidth *int64 `json:"max_label_width,omitempty"`

	// FromPreviousPart is set when the piece originated in a preceding
	// part; its start-of-occurrence label is suppressed.
	FromPreviousPart bool `json:"from_previous_part"`
}

// ResolvedPart is one part of an enriched segment.
type ResolvedPart struct {
	Instance *models.PartInstance `json:"instance"`
	Pieces   []*ResolvedPiece     `json:"pieces"`

	// DisplayDuration is the on-screen duration after display-duration
	// pooling.
	DisplayDuration int64 `json:"display_duration"`

	IsLive       bool `json:"is_live"`
	IsNext       bool `json:"is_next"`
	WillAutoNext bool `json:"will_auto_next"`
}

// SegmentResolution is the enriched per-segment view a presentation
// layer renders from.
type SegmentResolution struct {
	Segment *models.Segment `json:"segment"`
	Parts   []*ResolvedPart `json:"parts"`

	IsLiveSegment    bool `json:"is_live_segment"`
	IsNextSegment    bool `json:"is_next_segment"`
	HasRemoteItems   bool `json:"has_remote_items"`
	HasGuestItems    bool `json:"has_guest_items"`
	HasAlreadyPlayed bool `json:"has_already_played"`
	AutoNextPart     bool `json:"auto_next_part"`

	// RecheckAfter is nonzero when any part's pieces were simulated and
	// the view should be re-requested.
	RecheckAfter time.Duration `json:"recheck_after,omitempty"`
}

// ResolveSegment assembles the enriched view of one segment. A segment
// with zero part instances yields an empty resolution with all flags
// false.
func ResolveSegment(in SegmentResolutionInput) *SegmentResolution {
	res := &SegmentResolution{
		Segment: in.Segment,
		Parts:   make([]*ResolvedPart, 0, len(in.PartInstances)),
	}

	pools := timing.NewDurationPools(in.PartInstances)

	for _, inst := range in.PartInstances {
		if inst.Reset {
			continue
		}
		part := &inst.Part

		rp := &ResolvedPart{
			Instance: inst,
			IsLive:   inst.ID != uuid.Nil && inst.ID == in.CurrentPartInstanceID,
			IsNext:   inst.ID != uuid.Nil && inst.ID == in.NextPartInstanceID,
		}
		rp.WillAutoNext = rp.IsLive && part.AutoNext

		if draw, ok := pools.Consume(part); ok {
			rp.DisplayDuration = draw
		} else if part.DisplayDuration > 0 {
			rp.DisplayDuration = part.DisplayDuration
		} else if part.ExpectedDuration != nil {
			rp.DisplayDuration = *part.ExpectedDuration
		}

		if in.ResolvePieces != nil {
			pr := in.ResolvePieces(inst)
			rp.Pieces = layoutPieces(pr.Instances, part.ID, in.SourceLayers, in.OutputLayers)
			if pr.Simulated && pr.RecheckAfter > 0 {
				if res.RecheckAfter == 0 || pr.RecheckAfter < res.RecheckAfter {
					res.RecheckAfter = pr.RecheckAfter
				}
			}
		}

		res.Parts = append(res.Parts, rp)

		if rp.IsLive {
			res.IsLiveSegment = true
			res.AutoNextPart = res.AutoNextPart || part.AutoNext
		}
		if rp.IsNext {
			res.IsNextSegment = true
		}
		if inst.HasStartedPlayback() {
			res.HasAlreadyPlayed = true
		}
		for _, piece := range rp.Pieces {
			if piece.SourceLayer == nil {
				continue
			}
			if piece.SourceLayer.IsRemoteInput {
				res.HasRemoteItems = true
			}
			if piece.SourceLayer.IsGuestInput {
				res.HasGuestItems = true
			}
		}
	}

	return res
}

// layoutPieces positions resolved piece instances on the layer grid and
// runs the cropping/labeling pass.
func layoutPieces(instances []*models.PieceInstance, renderPartID uuid.UUID, sourceLayers map[string]*models.SourceLayer, outputLayers map[string]*models.OutputLayer) []*ResolvedPiece {
	pieces := make([]*ResolvedPiece, 0, len(instances))
	for _, pi := range instances {
		piece := &pi.Piece
		rp := &ResolvedPiece{
			Instance:         pi,
			SourceLayer:      sourceLayers[piece.SourceLayerID],
			OutputLayer:      outputLayers[piece.OutputLayerID],
			RenderedInPoint:  piece.Start,
			FromPreviousPart: pi.ContinuesFromPrevious() || piece.StartPartID != renderPartID,
		}
		if rp.FromPreviousPart {
			// A continuation renders from the top of the part.
			rp.RenderedInPoint = 0
		}
		if piece.Duration != nil {
			d := *piece.Duration
			rp.RenderedDuration = &d
		}
		pieces = append(pieces, rp)
	}

	CropPieces(pieces)
	return pieces
}

// cropGroupKey buckets pieces that replace each other on screen: by
// source layer within an output, or by exclusive group when the output
// is flattened.
func cropGroupKey(p *ResolvedPiece) string {
	out := p.Instance.Piece.OutputLayerID
	if p.OutputLayer != nil && p.OutputLayer.IsFlattened && p.SourceLayer != nil && p.SourceLayer.ExclusiveGroup != "" {
		return out + "\x00" + p.SourceLayer.ExclusiveGroup
	}
	return out + "\x00" + p.Instance.Piece.SourceLayerID
}

// CropPieces runs the cropping/labeling pass over one part's pieces.
// Within each layer group, pieces are sorted by rendered start, then
// priority, then source layer rank. When a later piece starts while an
// earlier infinite piece is still open, the earlier piece's lifespan is
// downgraded to within-part (a one-way mutation), its rendered duration
// is clipped to the gap and its label width capped to the same gap.
// Re-running the pass over already-cropped pieces changes nothing.
func CropPieces(pieces []*ResolvedPiece) {
	groups := make(map[string][]*ResolvedPiece)
	for _, p := range pieces {
		key := cropGroupKey(p)
		groups[key] = append(groups[key], p)
	}

	for _, group := range groups {
		sort.SliceStable(group, func(i, j int) bool {
			a, b := group[i], group[j]
			if a.RenderedInPoint != b.RenderedInPoint {
				return a.RenderedInPoint < b.RenderedInPoint
			}
			pa, pb := a.Instance.Piece.Priority, b.Instance.Piece.Priority
			if pa != pb {
				return pa > pb
			}
			return sourceLayerRank(a) < sourceLayerRank(b)
		})

		for i := 0; i < len(group)-1; i++ {
			earlier, later := group[i], group[i+1]
			if !earlier.Instance.Piece.Lifespan.IsInfinite() {
				continue
			}
			openEnded := earlier.RenderedDuration == nil ||
				earlier.RenderedInPoint+*earlier.RenderedDuration > later.RenderedInPoint
			if !openEnded {
				continue
			}
			gap := later.RenderedInPoint - earlier.RenderedInPoint
			if gap < 0 {
				gap = 0
			}
			earlier.Instance.Piece.Lifespan = models.LifespanWithinPart
			clipped := gap
			earlier.RenderedDuration = &clipped
			width := gap
			earlier.MaxLabelWidth = &width
		}
	}
}

func sourceLayerRank(p *ResolvedPiece) int {
	if p.SourceLayer == nil {
		return 0
	}
	return p.SourceLayer.Rank
}
