// Package rundown glues storage to the pure timing and resolution
// passes: it loads playlist snapshots, deduplicates quick-loop
// instances and exposes the computed views to the API layer.
package rundown

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nrkno/sofie-core-sub006/internal/db"
	"github.com/nrkno/sofie-core-sub006/internal/logger"
	"github.com/nrkno/sofie-core-sub006/internal/metrics"
	"github.com/nrkno/sofie-core-sub006/internal/models"
	"github.com/nrkno/sofie-core-sub006/internal/resolver"
	"github.com/nrkno/sofie-core-sub006/internal/timing"
)

// Options tunes the timing passes per deployment.
type Options struct {
	// DefaultPartDuration is the fallback part duration in
	// milliseconds; zero selects the built-in default.
	DefaultPartDuration int64

	// CountdownUsesDisplayDuration switches countdowns for unplayed
	// parts from expected to display durations.
	CountdownUsesDisplayDuration bool

	// SourceLayers and OutputLayers come from studio settings. When
	// nil, layers are derived from the pieces themselves.
	SourceLayers map[string]*models.SourceLayer
	OutputLayers map[string]*models.OutputLayer
}

// Service handles business logic for playlist timing and segment
// resolution.
type Service struct {
	repos   *db.Repositories
	metrics *metrics.Metrics
	opts    Options

	// calc reuses scratch buffers between recomputations and is not
	// safe for concurrent use.
	mu   sync.Mutex
	calc *timing.Calculator
}

// NewService creates a new rundown service instance.
func NewService(repos *db.Repositories, m *metrics.Metrics, opts Options) *Service {
	return &Service{
		repos:   repos,
		metrics: m,
		opts:    opts,
		calc:    timing.NewCalculator(),
	}
}

// ListPlaylists retrieves all playlists.
func (s *Service) ListPlaylists(ctx context.Context) ([]*models.RundownPlaylist, error) {
	playlists, err := s.repos.Playlists.List(ctx)
	if err != nil {
		logger.Log.Error().
			Err(err).
			Msg("Failed to list playlists")
		return nil, fmt.Errorf("failed to list playlists: %w", err)
	}

	if s.metrics != nil {
		active := 0
		for _, p := range playlists {
			if p.IsActive() {
				active++
			}
		}
		s.metrics.SetActivePlaylists(active)
	}

	return playlists, nil
}

// GetPlaylist retrieves a playlist by its ID.
func (s *Service) GetPlaylist(ctx context.Context, id uuid.UUID) (*models.RundownPlaylist, error) {
	playlist, err := s.repos.Playlists.GetByID(ctx, id)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, ErrPlaylistNotFound
		}
		logger.Log.Error().
			Err(err).
			Str("playlist_id", id.String()).
			Msg("Failed to get playlist by ID")
		return nil, fmt.Errorf("failed to get playlist: %w", err)
	}
	return playlist, nil
}

// Timing recomputes the full timing context of a playlist at the given
// wall-clock time.
func (s *Service) Timing(ctx context.Context, playlistID uuid.UUID, now time.Time) (*timing.RundownTimingContext, error) {
	snap, err := LoadSnapshot(ctx, s.repos, playlistID)
	if err != nil {
		return nil, err
	}

	instances := timing.DeduplicateQuickLoopInstances(snap.Playlist.CurrentPartInstanceID(), snap.Instances)

	var loopFlags map[string]bool
	if snap.Playlist.LoopRunning() {
		loopFlags = timing.PartsInQuickLoop(snap.Playlist.QuickLoop, instances)
	}

	start := time.Now()
	s.mu.Lock()
	result := s.calc.Recompute(now.UnixMilli(), timing.Input{
		Playlist:                     snap.Playlist,
		PartInstances:                instances,
		SegmentsByID:                 snap.SegmentsByID,
		Segments:                     snap.Segments,
		DefaultPartDuration:          s.opts.DefaultPartDuration,
		PartsInQuickLoop:             loopFlags,
		CountdownUsesDisplayDuration: s.opts.CountdownUsesDisplayDuration,
	})
	s.mu.Unlock()

	if s.metrics != nil {
		s.metrics.ObserveRecompute(time.Since(start))
	}

	logger.Log.Debug().
		Str("playlist_id", playlistID.String()).
		Int("part_instances", len(instances)).
		Bool("active", snap.Playlist.IsActive()).
		Msg("Recomputed playlist timing")

	return result, nil
}

// ResolveSegment assembles the enriched view of one segment, resolving
// the effective piece set of every part instance in it.
func (s *Service) ResolveSegment(ctx context.Context, playlistID, segmentID uuid.UUID, now time.Time) (*resolver.SegmentResolution, error) {
	snap, err := LoadSnapshot(ctx, s.repos, playlistID)
	if err != nil {
		return nil, err
	}

	seg, ok := snap.SegmentsByID[segmentID]
	if !ok {
		if _, err := s.repos.Segments.GetByID(ctx, segmentID); err == nil {
			return nil, ErrSegmentNotInPlaylist
		}
		return nil, ErrSegmentNotFound
	}

	instances := timing.DeduplicateQuickLoopInstances(snap.Playlist.CurrentPartInstanceID(), snap.Instances)
	segmentInstances := snap.SegmentInstances(segmentID, instances)

	sourceLayers := s.opts.SourceLayers
	outputLayers := s.opts.OutputLayers
	if sourceLayers == nil {
		sourceLayers, outputLayers = deriveLayers(snap.Pieces.ForRundown(seg.RundownID))
	}

	nowMS := now.UnixMilli()
	resolvePieces := func(inst *models.PartInstance) resolver.PieceResolution {
		res := resolver.ResolvePieceInstances(resolver.PieceResolutionInput{
			PartInstance:            inst,
			PersistedPieceInstances: snap.PieceInstances[inst.ID],
			Pieces:                  snap.Pieces,
			Scopes:                  snap.ScopesFor(inst.PartID),
			Segment:                 seg,
			SimulatePieces:          true,
			Now:                     nowMS,
		})
		if res.Simulated && s.metrics != nil {
			s.metrics.IncSimulatedResolves()
		}
		return res
	}

	resolution := resolver.ResolveSegment(resolver.SegmentResolutionInput{
		Segment:               seg,
		PartInstances:         segmentInstances,
		CurrentPartInstanceID: snap.Playlist.CurrentPartInstanceID(),
		NextPartInstanceID:    snap.Playlist.NextPartInstanceID(),
		SourceLayers:          sourceLayers,
		OutputLayers:          outputLayers,
		ResolvePieces:         resolvePieces,
	})

	if s.metrics != nil {
		s.metrics.IncSegmentResolves()
	}

	logger.Log.Debug().
		Str("playlist_id", playlistID.String()).
		Str("segment_id", segmentID.String()).
		Int("parts", len(resolution.Parts)).
		Dur("recheck_after", resolution.RecheckAfter).
		Msg("Resolved segment")

	return resolution, nil
}

// IngestPlaylist stores a playlist together with its rundown tree in a
// single transaction. Used by ingest to swap in externally authored
// content atomically.
func (s *Service) IngestPlaylist(ctx context.Context, playlist *models.RundownPlaylist, rundowns []*models.Rundown, segments []*models.Segment, parts []*models.Part, pieces []*models.Piece) error {
	err := s.repos.DB.WithTransaction(ctx, func(tx *gorm.DB) error {
		if err := tx.Create(playlist).Error; err != nil {
			return fmt.Errorf("failed to create playlist: %w", db.MapGormError(err))
		}
		for _, rd := range rundowns {
			if err := tx.Create(rd).Error; err != nil {
				return fmt.Errorf("failed to create rundown: %w", db.MapGormError(err))
			}
		}
		for _, seg := range segments {
			if err := tx.Create(seg).Error; err != nil {
				return fmt.Errorf("failed to create segment: %w", db.MapGormError(err))
			}
		}
		for _, part := range parts {
			if err := tx.Create(part).Error; err != nil {
				return fmt.Errorf("failed to create part: %w", db.MapGormError(err))
			}
		}
		for _, piece := range pieces {
			if err := tx.Create(piece).Error; err != nil {
				return fmt.Errorf("failed to create piece: %w", db.MapGormError(err))
			}
		}
		return nil
	})
	if err != nil {
		logger.Log.Error().
			Err(err).
			Str("playlist_id", playlist.ID.String()).
			Msg("Failed to ingest playlist content")
		return err
	}

	logger.Log.Info().
		Str("playlist_id", playlist.ID.String()).
		Int("rundowns", len(rundowns)).
		Int("segments", len(segments)).
		Int("parts", len(parts)).
		Int("pieces", len(pieces)).
		Msg("Ingested playlist")

	return nil
}

// deriveLayers builds layer definitions from the pieces themselves when
// no studio settings are configured. Ranks follow first appearance.
func deriveLayers(pieces []*models.Piece) (map[string]*models.SourceLayer, map[string]*models.OutputLayer) {
	sourceLayers := make(map[string]*models.SourceLayer)
	outputLayers := make(map[string]*models.OutputLayer)
	for _, p := range pieces {
		if _, ok := sourceLayers[p.SourceLayerID]; !ok {
			sourceLayers[p.SourceLayerID] = &models.SourceLayer{
				ID:   p.SourceLayerID,
				Name: p.SourceLayerID,
				Rank: len(sourceLayers),
			}
		}
		if _, ok := outputLayers[p.OutputLayerID]; !ok {
			outputLayers[p.OutputLayerID] = &models.OutputLayer{
				ID:   p.OutputLayerID,
				Name: p.OutputLayerID,
				Rank: len(outputLayers),
			}
		}
	}
	return sourceLayers, outputLayers
}
