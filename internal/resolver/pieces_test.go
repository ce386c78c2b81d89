package resolver

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nrkno/sofie-core-sub006/internal/models"
)

const testNow int64 = 1_700_000_000_000

// rundownFixture is a two-segment rundown with one part per test need.
type rundownFixture struct {
	playlistID uuid.UUID
	rundownID  uuid.UUID
	segmentA   *models.Segment
	segmentB   *models.Segment
	partA1     *models.Part
	partA2     *models.Part
	partB1     *models.Part
}

func newRundownFixture() *rundownFixture {
	playlistID := uuid.New()
	rundownID := uuid.New()
	segA := models.NewSegment(rundownID, 0, "A")
	segB := models.NewSegment(rundownID, 1, "B")
	return &rundownFixture{
		playlistID: playlistID,
		rundownID:  rundownID,
		segmentA:   segA,
		segmentB:   segB,
		partA1:     models.NewPart(rundownID, segA.ID, 0, "A1"),
		partA2:     models.NewPart(rundownID, segA.ID, 1, "A2"),
		partB1:     models.NewPart(rundownID, segB.ID, 0, "B1"),
	}
}

func (f *rundownFixture) piece(part *models.Part, layer string, lifespan models.PieceLifespan) *models.Piece {
	p := models.NewPiece(f.rundownID, part.SegmentID, part.ID, "piece "+layer, layer, "pgm")
	p.Lifespan = lifespan
	return p
}

func (f *rundownFixture) realInstance(part *models.Part) *models.PartInstance {
	return &models.PartInstance{
		ID:         uuid.New(),
		PlaylistID: f.playlistID,
		RundownID:  f.rundownID,
		SegmentID:  part.SegmentID,
		PartID:     part.ID,
		Part:       *part,
	}
}

func TestResolvePieceInstances_PersistedFastPath(t *testing.T) {
	f := newRundownFixture()
	inst := f.realInstance(f.partA1)
	piece := f.piece(f.partA1, "gfx", models.LifespanWithinPart)

	persisted := &models.PieceInstance{
		ID:             uuid.New(),
		PartInstanceID: inst.ID,
		PieceID:        piece.ID,
		Piece:          *piece,
	}
	disabled := &models.PieceInstance{
		ID:       uuid.New(),
		Piece:    *piece,
		Disabled: true,
	}

	res := ResolvePieceInstances(PieceResolutionInput{
		PartInstance:            inst,
		PersistedPieceInstances: []*models.PieceInstance{persisted, disabled},
		Pieces:                  NewPieceCache([]*models.Piece{piece}),
		Now:                     testNow,
	})

	require.Len(t, res.Instances, 1)
	assert.Equal(t, persisted.ID, res.Instances[0].ID)
	assert.False(t, res.Simulated, "persisted instances always supersede simulation")
}

func TestResolvePieceInstances_SimulationWhenNothingPersisted(t *testing.T) {
	f := newRundownFixture()
	inst := f.realInstance(f.partA1)
	take := testNow - 1000
	inst.Timings.Take = &take

	piece := f.piece(f.partA1, "gfx", models.LifespanWithinPart)

	res := ResolvePieceInstances(PieceResolutionInput{
		PartInstance:   inst,
		Pieces:         NewPieceCache([]*models.Piece{piece}),
		SimulatePieces: true,
		Now:            testNow,
	})

	require.Len(t, res.Instances, 1)
	assert.True(t, res.Simulated)
	assert.True(t, res.Instances[0].Temporary)
	assert.Equal(t, 2*time.Second, res.RecheckAfter, "recheck window is anchored at the take time")
}

func TestResolvePieceInstances_NoSimulationWithoutFlag(t *testing.T) {
	f := newRundownFixture()
	inst := f.realInstance(f.partA1)
	piece := f.piece(f.partA1, "gfx", models.LifespanWithinPart)

	res := ResolvePieceInstances(PieceResolutionInput{
		PartInstance: inst,
		Pieces:       NewPieceCache([]*models.Piece{piece}),
		Now:          testNow,
	})

	assert.Empty(t, res.Instances)
	assert.False(t, res.Simulated)
}

func TestResolvePieceInstances_TemporarySynthesis(t *testing.T) {
	f := newRundownFixture()
	temp := models.NewTemporaryPartInstance(f.playlistID, f.partA2)

	local := f.piece(f.partA2, "cam", models.LifespanWithinPart)
	infinite := f.piece(f.partA1, "gfx", models.LifespanOutOnSegmentEnd)

	res := ResolvePieceInstances(PieceResolutionInput{
		PartInstance: temp,
		Pieces:       NewPieceCache([]*models.Piece{local, infinite}),
		Scopes: EligibleScopes{
			PartsBeforeThisInSegment: []uuid.UUID{f.partA1.ID},
		},
		Segment: f.segmentA,
		Now:     testNow,
	})

	require.Len(t, res.Instances, 2)
	assert.False(t, res.Simulated, "temporary synthesis is not provisional")

	byPiece := make(map[uuid.UUID]*models.PieceInstance)
	for _, pi := range res.Instances {
		byPiece[pi.PieceID] = pi
	}
	require.Contains(t, byPiece, local.ID)
	require.Contains(t, byPiece, infinite.ID)

	cont := byPiece[infinite.ID]
	require.NotNil(t, cont.Infinite)
	assert.True(t, cont.Infinite.FromPreviousPart)
	assert.Equal(t, infinite.ID, cont.Infinite.InfinitePieceID)
	assert.Nil(t, byPiece[local.ID].Infinite)
}

func TestResolvePieceInstances_LaterSameLayerPieceReplacesEarlier(t *testing.T) {
	f := newRundownFixture()
	temp := models.NewTemporaryPartInstance(f.playlistID, f.partB1)

	older := f.piece(f.partA1, "gfx", models.LifespanOutOnRundownEnd)
	newer := f.piece(f.partA2, "gfx", models.LifespanOutOnRundownEnd)

	res := ResolvePieceInstances(PieceResolutionInput{
		PartInstance: temp,
		Pieces:       NewPieceCache([]*models.Piece{older, newer}),
		Scopes: EligibleScopes{
			PartsBeforeThisInRundown: []uuid.UUID{f.partA1.ID, f.partA2.ID},
		},
		Segment: f.segmentB,
		Now:     testNow,
	})

	require.Len(t, res.Instances, 1)
	assert.Equal(t, newer.ID, res.Instances[0].PieceID)
}

func TestResolvePieceInstances_SegmentLifespanStopsAtSegmentBoundary(t *testing.T) {
	f := newRundownFixture()
	temp := models.NewTemporaryPartInstance(f.playlistID, f.partB1)

	segmentScoped := f.piece(f.partA1, "gfx", models.LifespanOutOnSegmentEnd)

	res := ResolvePieceInstances(PieceResolutionInput{
		PartInstance: temp,
		Pieces:       NewPieceCache([]*models.Piece{segmentScoped}),
		Scopes: EligibleScopes{
			// Part A1 lives in an earlier segment: only rundown scope.
			PartsBeforeThisInRundown: []uuid.UUID{f.partA1.ID},
		},
		Segment: f.segmentB,
		Now:     testNow,
	})

	assert.Empty(t, res.Instances, "segment lifespans die at the segment boundary")
}

func TestResolvePieceInstances_ShowStyleLifespanCrossesRundowns(t *testing.T) {
	f := newRundownFixture()
	otherRundown := uuid.New()
	temp := models.NewTemporaryPartInstance(f.playlistID, f.partB1)

	crossing := f.piece(f.partA1, "bug", models.LifespanOutOnShowStyleEnd)
	crossing.RundownID = otherRundown

	res := ResolvePieceInstances(PieceResolutionInput{
		PartInstance: temp,
		Pieces:       NewPieceCache([]*models.Piece{crossing}),
		Scopes: EligibleScopes{
			RundownsBeforeThisInPlaylist: []uuid.UUID{otherRundown},
		},
		Segment: f.segmentB,
		Now:     testNow,
	})

	require.Len(t, res.Instances, 1)
	assert.Equal(t, crossing.ID, res.Instances[0].PieceID)
}

func TestResolvePieceInstances_AdlibTestingSegmentIsIsolated(t *testing.T) {
	f := newRundownFixture()
	f.segmentB.OrphanedAdlibTesting = true
	temp := models.NewTemporaryPartInstance(f.playlistID, f.partB1)

	infinite := f.piece(f.partA1, "gfx", models.LifespanOutOnRundownEnd)

	res := ResolvePieceInstances(PieceResolutionInput{
		PartInstance: temp,
		Pieces:       NewPieceCache([]*models.Piece{infinite}),
		Scopes: EligibleScopes{
			PartsBeforeThisInRundown: []uuid.UUID{f.partA1.ID},
		},
		Segment: f.segmentB,
		Now:     testNow,
	})

	assert.Empty(t, res.Instances, "nothing propagates into an ad-lib testing segment")
}

func TestResolvePieceInstances_AdlibTestingPiecesStayInside(t *testing.T) {
	f := newRundownFixture()
	f.segmentA.OrphanedAdlibTesting = true
	temp := models.NewTemporaryPartInstance(f.playlistID, f.partB1)

	escaping := f.piece(f.partA1, "gfx", models.LifespanOutOnRundownEnd)
	crossing := f.piece(f.partA2, "bug", models.LifespanOutOnShowStyleEnd)

	res := ResolvePieceInstances(PieceResolutionInput{
		PartInstance: temp,
		Pieces:       NewPieceCache([]*models.Piece{escaping, crossing}),
		Scopes: EligibleScopes{
			PartsBeforeThisInRundown:     []uuid.UUID{f.partA1.ID, f.partA2.ID},
			RundownsBeforeThisInPlaylist: []uuid.UUID{f.rundownID},
			IsolatedSegments:             map[uuid.UUID]bool{f.segmentA.ID: true},
		},
		Segment: f.segmentB,
		Now:     testNow,
	})

	assert.Empty(t, res.Instances, "nothing propagates out of an ad-lib testing segment")
}

func TestResolvePieceInstances_VirtualPieceStopsChain(t *testing.T) {
	f := newRundownFixture()
	temp := models.NewTemporaryPartInstance(f.playlistID, f.partA2)

	infinite := f.piece(f.partA1, "gfx", models.LifespanOutOnSegmentEnd)
	stopper := f.piece(f.partA2, "gfx", models.LifespanOutOnSegmentEnd)
	stopper.Virtual = true

	res := ResolvePieceInstances(PieceResolutionInput{
		PartInstance: temp,
		Pieces:       NewPieceCache([]*models.Piece{infinite, stopper}),
		Scopes: EligibleScopes{
			PartsBeforeThisInSegment: []uuid.UUID{f.partA1.ID},
		},
		Segment: f.segmentA,
		Now:     testNow,
	})

	assert.Empty(t, res.Instances, "a virtual piece stops the infinite without emitting content")
}

func TestResolvePieceInstances_EmptyScopesAreNormal(t *testing.T) {
	f := newRundownFixture()
	temp := models.NewTemporaryPartInstance(f.playlistID, f.partA1)

	res := ResolvePieceInstances(PieceResolutionInput{
		PartInstance: temp,
		Pieces:       NewPieceCache(nil),
		Now:          testNow,
	})

	assert.Empty(t, res.Instances)
}

func TestResolvePieceInstances_NilInput(t *testing.T) {
	res := ResolvePieceInstances(PieceResolutionInput{})
	assert.Empty(t, res.Instances)
}

func TestResolvePieceInstances_UnknownLifespanPanics(t *testing.T) {
	f := newRundownFixture()
	temp := models.NewTemporaryPartInstance(f.playlistID, f.partA1)

	bad := f.piece(f.partA1, "gfx", "eternal")

	assert.Panics(t, func() {
		ResolvePieceInstances(PieceResolutionInput{
			PartInstance: temp,
			Pieces:       NewPieceCache([]*models.Piece{bad}),
			Now:          testNow,
		})
	})
}

func TestSimulationRecheck_WindowExpired(t *testing.T) {
	f := newRundownFixture()
	inst := f.realInstance(f.partA1)
	take := testNow - 10_000
	inst.Timings.Take = &take

	assert.Equal(t, time.Duration(0), simulationRecheck(inst, testNow))
}

func TestSimulationRecheck_NoAnchorUsesFullWindow(t *testing.T) {
	f := newRundownFixture()
	inst := f.realInstance(f.partA1)

	assert.Equal(t, SimulationWindow, simulationRecheck(inst, testNow))
}
