package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/nrkno/sofie-core-sub006/internal/logger"
	"github.com/nrkno/sofie-core-sub006/internal/models"
	"github.com/nrkno/sofie-core-sub006/internal/rundown"
	"github.com/nrkno/sofie-core-sub006/internal/timing"
)

// ErrorResponse represents an error in API responses
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// Request/Response DTOs

// IngestPieceRequest describes one piece inside an ingested part
type IngestPieceRequest struct {
	Name          string `json:"name" binding:"required"`
	SourceLayerID string `json:"source_layer_id" binding:"required"`
	OutputLayerID string `json:"output_layer_id" binding:"required"`
	Lifespan      string `json:"lifespan" binding:"required"`
	Start         int64  `json:"start" binding:"gte=0"`
	Duration      *int64 `json:"duration,omitempty"`
	Priority      int    `json:"priority,omitempty"`
	Virtual       bool   `json:"virtual,omitempty"`
}

// IngestPartRequest describes one part inside an ingested segment
type IngestPartRequest struct {
	Title                string               `json:"title" binding:"required"`
	ExpectedDuration     *int64               `json:"expected_duration,omitempty"`
	DisplayDuration      int64                `json:"display_duration,omitempty"`
	DisplayDurationGroup string               `json:"display_duration_group,omitempty"`
	AutoNext             bool                 `json:"auto_next,omitempty"`
	Untimed              bool                 `json:"untimed,omitempty"`
	Invalid              bool                 `json:"invalid,omitempty"`
	Floated              bool                 `json:"floated,omitempty"`
	Gap                  bool                 `json:"gap,omitempty"`
	Pieces               []IngestPieceRequest `json:"pieces,omitempty"`
}

// IngestSegmentRequest describes one segment inside an ingested rundown
type IngestSegmentRequest struct {
	Name           string              `json:"name" binding:"required"`
	BudgetDuration *int64              `json:"budget_duration,omitempty"`
	CountdownType  string              `json:"countdown_type,omitempty"`
	Parts          []IngestPartRequest `json:"parts,omitempty"`
}

// IngestRundownRequest describes one rundown inside an ingested playlist
type IngestRundownRequest struct {
	Name             string                 `json:"name" binding:"required"`
	ShowStyleID      *string                `json:"show_style_id,omitempty"`
	ExpectedDuration int64                  `json:"expected_duration,omitempty"`
	Segments         []IngestSegmentRequest `json:"segments,omitempty"`
}

// IngestPlaylistRequest represents a request to ingest a full playlist
type IngestPlaylistRequest struct {
	Name     string                 `json:"name" binding:"required"`
	Rundowns []IngestRundownRequest `json:"rundowns" binding:"required,min=1"`
}

// PlaylistResponse represents a playlist in API responses
type PlaylistResponse struct {
	ID              string            `json:"id"`
	Name            string            `json:"name"`
	Active          bool              `json:"active"`
	CurrentPartInfo *models.PartInfo  `json:"current_part_info,omitempty"`
	NextPartInfo    *models.PartInfo  `json:"next_part_info,omitempty"`
	QuickLoop       *models.QuickLoop `json:"quick_loop,omitempty"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
}

// PlaylistListResponse represents a list of playlists
type PlaylistListResponse struct {
	Playlists []*PlaylistResponse `json:"playlists"`
}

// TimingResponse wraps a computed timing context
type TimingResponse struct {
	PlaylistID string                       `json:"playlist_id"`
	Timing     *timing.RundownTimingContext `json:"timing"`
}

// PlaylistHandler handles playlist-related API requests
type PlaylistHandler struct {
	service *rundown.Service
}

// NewPlaylistHandler creates a new playlist handler instance
func NewPlaylistHandler(service *rundown.Service) *PlaylistHandler {
	return &PlaylistHandler{service: service}
}

// toPlaylistResponse converts a playlist model to API response format
func toPlaylistResponse(p *models.RundownPlaylist) *PlaylistResponse {
	return &PlaylistResponse{
		ID:              p.ID.String(),
		Name:            p.Name,
		Active:          p.IsActive(),
		CurrentPartInfo: p.CurrentPartInfo,
		NextPartInfo:    p.NextPartInfo,
		QuickLoop:       p.QuickLoop,
		CreatedAt:       p.CreatedAt,
		UpdatedAt:       p.UpdatedAt,
	}
}

// IngestPlaylist handles POST /api/playlists
func (h *PlaylistHandler) IngestPlaylist(c *gin.Context) {
	var req IngestPlaylistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request body: " + err.Error(),
		})
		return
	}

	playlist, rundowns, segments, parts, pieces, err := buildIngestContent(&req)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: err.Error(),
		})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	if err := h.service.IngestPlaylist(ctx, playlist, rundowns, segments, parts, pieces); err != nil {
		logger.Log.Error().
			Err(err).
			Str("playlist_name", req.Name).
			Msg("Failed to ingest playlist")

		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "ingest_failed",
			Message: "Failed to ingest playlist",
		})
		return
	}

	c.JSON(http.StatusCreated, toPlaylistResponse(playlist))
}

// ListPlaylists handles GET /api/playlists
func (h *PlaylistHandler) ListPlaylists(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	playlists, err := h.service.ListPlaylists(ctx)
	if err != nil {
		logger.Log.Error().
			Err(err).
			Msg("Failed to list playlists")

		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "query_failed",
			Message: "Failed to list playlists",
		})
		return
	}

	response := PlaylistListResponse{
		Playlists: make([]*PlaylistResponse, 0, len(playlists)),
	}
	for _, p := range playlists {
		response.Playlists = append(response.Playlists, toPlaylistResponse(p))
	}

	c.JSON(http.StatusOK, response)
}

// GetPlaylist handles GET /api/playlists/:id
func (h *PlaylistHandler) GetPlaylist(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_id",
			Message: "Invalid playlist ID format",
		})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	playlist, err := h.service.GetPlaylist(ctx, id)
	if err != nil {
		if errors.Is(err, rundown.ErrPlaylistNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{
				Error:   "not_found",
				Message: "Playlist not found",
			})
			return
		}

		logger.Log.Error().
			Err(err).
			Str("playlist_id", id.String()).
			Msg("Failed to get playlist by ID")

		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "query_failed",
			Message: "Failed to retrieve playlist",
		})
		return
	}

	c.JSON(http.StatusOK, toPlaylistResponse(playlist))
}

// GetTiming handles GET /api/playlists/:id/timing
func (h *PlaylistHandler) GetTiming(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_id",
			Message: "Invalid playlist ID format",
		})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	result, err := h.service.Timing(ctx, id, time.Now())
	if err != nil {
		if errors.Is(err, rundown.ErrPlaylistNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{
				Error:   "not_found",
				Message: "Playlist not found",
			})
			return
		}

		logger.Log.Error().
			Err(err).
			Str("playlist_id", id.String()).
			Msg("Failed to compute playlist timing")

		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "timing_failed",
			Message: "Failed to compute playlist timing",
		})
		return
	}

	c.JSON(http.StatusOK, TimingResponse{
		PlaylistID: id.String(),
		Timing:     result,
	})
}

// GetSegment handles GET /api/playlists/:id/segments/:segment_id
func (h *PlaylistHandler) GetSegment(c *gin.Context) {
	playlistID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_id",
			Message: "Invalid playlist ID format",
		})
		return
	}

	segmentID, err := uuid.Parse(c.Param("segment_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_id",
			Message: "Invalid segment ID format",
		})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	resolution, err := h.service.ResolveSegment(ctx, playlistID, segmentID, time.Now())
	if err != nil {
		switch {
		case errors.Is(err, rundown.ErrPlaylistNotFound):
			c.JSON(http.StatusNotFound, ErrorResponse{
				Error:   "not_found",
				Message: "Playlist not found",
			})
		case errors.Is(err, rundown.ErrSegmentNotFound):
			c.JSON(http.StatusNotFound, ErrorResponse{
				Error:   "not_found",
				Message: "Segment not found",
			})
		case errors.Is(err, rundown.ErrSegmentNotInPlaylist):
			c.JSON(http.StatusNotFound, ErrorResponse{
				Error:   "not_found",
				Message: "Segment does not belong to playlist",
			})
		default:
			logger.Log.Error().
				Err(err).
				Str("playlist_id", playlistID.String()).
				Str("segment_id", segmentID.String()).
				Msg("Failed to resolve segment")

			c.JSON(http.StatusInternalServerError, ErrorResponse{
				Error:   "resolve_failed",
				Message: "Failed to resolve segment",
			})
		}
		return
	}

	c.JSON(http.StatusOK, resolution)
}

// buildIngestContent converts an ingest request into model records
func buildIngestContent(req *IngestPlaylistRequest) (*models.RundownPlaylist, []*models.Rundown, []*models.Segment, []*models.Part, []*models.Piece, error) {
	playlist := models.NewRundownPlaylist(req.Name)

	var (
		rundowns []*models.Rundown
		segments []*models.Segment
		parts    []*models.Part
		pieces   []*models.Piece
	)

	now := time.Now().UTC()
	for ri, rr := range req.Rundowns {
		showStyle := uuid.Nil
		if rr.ShowStyleID != nil {
			parsed, err := uuid.Parse(*rr.ShowStyleID)
			if err != nil {
				return nil, nil, nil, nil, nil, errors.New("invalid show style ID format")
			}
			showStyle = parsed
		}

		rd := &models.Rundown{
			ID:               uuid.New(),
			PlaylistID:       playlist.ID,
			Rank:             float64(ri),
			Name:             rr.Name,
			ShowStyleID:      showStyle,
			ExpectedDuration: rr.ExpectedDuration,
			CreatedAt:        now,
			UpdatedAt:        now,
		}
		rundowns = append(rundowns, rd)

		for si, sr := range rr.Segments {
			countdownType := models.SegmentCountdownType(sr.CountdownType)
			if sr.CountdownType != "" && countdownType != models.CountdownPartExpectedDuration &&
				countdownType != models.CountdownSegmentBudgetDuration {
				return nil, nil, nil, nil, nil, errors.New("invalid segment countdown type: " + sr.CountdownType)
			}

			seg := models.NewSegment(rd.ID, float64(si), sr.Name)
			seg.Timing.BudgetDuration = sr.BudgetDuration
			seg.Timing.CountdownType = countdownType
			segments = append(segments, seg)

			for pi, pr := range sr.Parts {
				part := &models.Part{
					ID:                   uuid.New(),
					SegmentID:            seg.ID,
					RundownID:            rd.ID,
					Rank:                 float64(pi),
					Title:                pr.Title,
					ExpectedDuration:     pr.ExpectedDuration,
					DisplayDuration:      pr.DisplayDuration,
					DisplayDurationGroup: pr.DisplayDurationGroup,
					AutoNext:             pr.AutoNext,
					Untimed:              pr.Untimed,
					Invalid:              pr.Invalid,
					Floated:              pr.Floated,
					Gap:                  pr.Gap,
					CreatedAt:            now,
					UpdatedAt:            now,
				}
				parts = append(parts, part)

				for _, pc := range pr.Pieces {
					lifespan := models.PieceLifespan(pc.Lifespan)
					if !lifespan.IsValid() {
						return nil, nil, nil, nil, nil, errors.New("invalid piece lifespan: " + pc.Lifespan)
					}

					pieces = append(pieces, &models.Piece{
						ID:            uuid.New(),
						StartPartID:   part.ID,
						SegmentID:     seg.ID,
						RundownID:     rd.ID,
						Name:          pc.Name,
						SourceLayerID: pc.SourceLayerID,
						OutputLayerID: pc.OutputLayerID,
						Lifespan:      lifespan,
						Start:         pc.Start,
						Duration:      pc.Duration,
						Priority:      pc.Priority,
						Virtual:       pc.Virtual,
						CreatedAt:     now,
					})
				}
			}
		}
	}

	return playlist, rundowns, segments, parts, pieces, nil
}

// SetupPlaylistRoutes registers playlist-related routes
func SetupPlaylistRoutes(apiGroup *gin.RouterGroup, service *rundown.Service) {
	handler := NewPlaylistHandler(service)

	apiGroup.POST("/playlists", handler.IngestPlaylist)
	apiGroup.GET("/playlists", handler.ListPlaylists)
	apiGroup.GET("/playlists/:id", handler.GetPlaylist)
	apiGroup.GET("/playlists/:id/timing", handler.GetTiming)
	apiGroup.GET("/playlists/:id/segments/:segment_id", handler.GetSegment)
}
