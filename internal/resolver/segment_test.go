package resolver

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nrkno/sofie-core-sub006/internal/models"
)

func testLayers() (map[string]*models.SourceLayer, map[string]*models.OutputLayer) {
	sources := map[string]*models.SourceLayer{
		"cam":    {ID: "cam", Name: "Camera", Rank: 0},
		"gfx":    {ID: "gfx", Name: "Graphics", Rank: 1},
		"remote": {ID: "remote", Name: "Remote", Rank: 2, IsRemoteInput: true},
		"guest":  {ID: "guest", Name: "Guest", Rank: 3, IsGuestInput: true},
	}
	outputs := map[string]*models.OutputLayer{
		"pgm": {ID: "pgm", Name: "Program", Rank: 0},
	}
	return sources, outputs
}

// resolveFixtureSegment resolves a segment using the real piece
// resolver over the given piece definitions.
func resolveFixtureSegment(segment *models.Segment, instances []*models.PartInstance, pieces []*models.Piece, current, next uuid.UUID) *SegmentResolution {
	cache := NewPieceCache(pieces)
	sources, outputs := testLayers()

	scopeFor := func(inst *models.PartInstance) EligibleScopes {
		var before []uuid.UUID
		for _, other := range instances {
			if other == inst {
				break
			}
			before = append(before, other.PartID)
		}
		return EligibleScopes{PartsBeforeThisInSegment: before}
	}

	return ResolveSegment(SegmentResolutionInput{
		Segment:               segment,
		PartInstances:         instances,
		CurrentPartInstanceID: current,
		NextPartInstanceID:    next,
		SourceLayers:          sources,
		OutputLayers:          outputs,
		ResolvePieces: func(inst *models.PartInstance) PieceResolution {
			return ResolvePieceInstances(PieceResolutionInput{
				PartInstance: inst,
				Pieces:       cache,
				Scopes:       scopeFor(inst),
				Segment:      segment,
				Now:          testNow,
			})
		},
	})
}

func TestResolveSegment_EmptySegment(t *testing.T) {
	f := newRundownFixture()

	res := ResolveSegment(SegmentResolutionInput{Segment: f.segmentA})

	require.NotNil(t, res)
	assert.Empty(t, res.Parts)
	assert.False(t, res.IsLiveSegment)
	assert.False(t, res.IsNextSegment)
	assert.False(t, res.HasRemoteItems)
	assert.False(t, res.HasGuestItems)
	assert.False(t, res.HasAlreadyPlayed)
	assert.False(t, res.AutoNextPart)
}

func TestResolveSegment_InfiniteCroppedByLaterPiece(t *testing.T) {
	f := newRundownFixture()

	// An open-ended segment-end graphic in part 1, and a same-layer
	// piece starting 2000 ms into part 2.
	infinite := f.piece(f.partA1, "gfx", models.LifespanOutOnSegmentEnd)
	replacement := f.piece(f.partA2, "gfx", models.LifespanWithinPart)
	replacement.Start = 2000

	inst1 := models.NewTemporaryPartInstance(f.playlistID, f.partA1)
	inst2 := models.NewTemporaryPartInstance(f.playlistID, f.partA2)

	res := resolveFixtureSegment(f.segmentA, []*models.PartInstance{inst1, inst2},
		[]*models.Piece{infinite, replacement}, uuid.Nil, uuid.Nil)

	require.Len(t, res.Parts, 2)
	part2 := res.Parts[1]
	require.Len(t, part2.Pieces, 2)

	var continued, local *ResolvedPiece
	for _, p := range part2.Pieces {
		if p.Instance.PieceID == infinite.ID {
			continued = p
		} else {
			local = p
		}
	}
	require.NotNil(t, continued)
	require.NotNil(t, local)

	assert.True(t, continued.FromPreviousPart)
	assert.Equal(t, int64(0), continued.RenderedInPoint)
	assert.Equal(t, models.LifespanWithinPart, continued.Instance.Piece.Lifespan,
		"the cropped infinite is downgraded to within-part")
	require.NotNil(t, continued.RenderedDuration)
	assert.Equal(t, int64(2000), *continued.RenderedDuration)
	require.NotNil(t, continued.MaxLabelWidth)
	assert.Equal(t, int64(2000), *continued.MaxLabelWidth)

	assert.False(t, local.FromPreviousPart)
	assert.Nil(t, local.RenderedDuration)
}

func TestCropPieces_Idempotent(t *testing.T) {
	f := newRundownFixture()

	infinite := f.piece(f.partA1, "gfx", models.LifespanOutOnSegmentEnd)
	replacement := f.piece(f.partA2, "gfx", models.LifespanWithinPart)
	replacement.Start = 2000

	inst2 := models.NewTemporaryPartInstance(f.playlistID, f.partA2)
	cont := models.MaterializePieceInstance(inst2, infinite)
	cont.Infinite = &models.PieceInstanceInfinite{InfinitePieceID: infinite.ID, FromPreviousPart: true}
	loc := models.MaterializePieceInstance(inst2, replacement)

	sources, outputs := testLayers()
	pieces := layoutPieces([]*models.PieceInstance{cont, loc}, f.partA2.ID, sources, outputs)

	snapshot := make([]ResolvedPiece, len(pieces))
	for i, p := range pieces {
		snapshot[i] = *p
	}

	CropPieces(pieces)

	for i, p := range pieces {
		assert.Equal(t, snapshot[i].Instance.Piece.Lifespan, p.Instance.Piece.Lifespan)
		assert.Equal(t, snapshot[i].RenderedDuration, p.RenderedDuration)
		assert.Equal(t, snapshot[i].MaxLabelWidth, p.MaxLabelWidth)
	}
}

func TestResolveSegment_DisplayDurationPooling(t *testing.T) {
	f := newRundownFixture()
	expected := int64(10000)
	f.partA1.ExpectedDuration = &expected
	f.partA1.DisplayDurationGroup = "A"
	f.partA2.DisplayDurationGroup = "A"
	f.partA2.DisplayDuration = 4000

	inst1 := models.NewTemporaryPartInstance(f.playlistID, f.partA1)
	inst2 := models.NewTemporaryPartInstance(f.playlistID, f.partA2)

	res := resolveFixtureSegment(f.segmentA, []*models.PartInstance{inst1, inst2}, nil, uuid.Nil, uuid.Nil)

	require.Len(t, res.Parts, 2)
	assert.Equal(t, int64(6000), res.Parts[0].DisplayDuration)
	assert.Equal(t, int64(4000), res.Parts[1].DisplayDuration)
	assert.Equal(t, expected, res.Parts[0].DisplayDuration+res.Parts[1].DisplayDuration,
		"pooling conserves the group total")
}

func TestResolveSegment_AggregateFlags(t *testing.T) {
	f := newRundownFixture()

	remotePiece := f.piece(f.partA1, "remote", models.LifespanWithinPart)
	guestPiece := f.piece(f.partA2, "guest", models.LifespanWithinPart)

	inst1 := f.realInstance(f.partA1)
	inst1.Part.AutoNext = true
	started := testNow - 1000
	inst1.Timings.PlannedStartedPlayback = &started
	inst2 := f.realInstance(f.partA2)

	cache := NewPieceCache([]*models.Piece{remotePiece, guestPiece})
	sources, outputs := testLayers()

	res := ResolveSegment(SegmentResolutionInput{
		Segment:               f.segmentA,
		PartInstances:         []*models.PartInstance{inst1, inst2},
		CurrentPartInstanceID: inst1.ID,
		NextPartInstanceID:    inst2.ID,
		SourceLayers:          sources,
		OutputLayers:          outputs,
		ResolvePieces: func(inst *models.PartInstance) PieceResolution {
			return ResolvePieceInstances(PieceResolutionInput{
				PartInstance:   inst,
				Pieces:         cache,
				Segment:        f.segmentA,
				SimulatePieces: true,
				Now:            testNow,
			})
		},
	})

	assert.True(t, res.IsLiveSegment)
	assert.True(t, res.IsNextSegment)
	assert.True(t, res.HasRemoteItems)
	assert.True(t, res.HasGuestItems)
	assert.True(t, res.HasAlreadyPlayed)
	assert.True(t, res.AutoNextPart)

	require.Len(t, res.Parts, 2)
	assert.True(t, res.Parts[0].IsLive)
	assert.True(t, res.Parts[0].WillAutoNext)
	assert.True(t, res.Parts[1].IsNext)
	assert.Greater(t, res.RecheckAfter.Milliseconds(), int64(0),
		"simulated pieces surface a recheck window")
}

func TestResolveSegment_ResetInstancesSkipped(t *testing.T) {
	f := newRundownFixture()
	inst := f.realInstance(f.partA1)
	inst.Reset = true

	res := resolveFixtureSegment(f.segmentA, []*models.PartInstance{inst}, nil, uuid.Nil, uuid.Nil)
	assert.Empty(t, res.Parts)
}
