package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nrkno/sofie-core-sub006/internal/db"
	"github.com/nrkno/sofie-core-sub006/internal/models"
	"github.com/nrkno/sofie-core-sub006/internal/rundown"
)

// setupTestDB creates a test database with migrations applied
func setupTestDB(t *testing.T) (*db.DB, *db.Repositories, func()) {
	tmpFile := filepath.Join(t.TempDir(), "test.db")
	database, err := db.New(tmpFile)
	require.NoError(t, err)

	sqlDB, err := database.GetSQLDB()
	require.NoError(t, err)

	err = db.RunMigrations(sqlDB, "file://../../migrations")
	require.NoError(t, err)

	repos := db.NewRepositories(database)

	cleanup := func() {
		_ = database.Close()
	}

	return database, repos, cleanup
}

// setupPlaylistTestRouter creates a test router with playlist routes
func setupPlaylistTestRouter(repos *db.Repositories) (*gin.Engine, *rundown.Service) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	apiGroup := router.Group("/api")

	service := rundown.NewService(repos, nil, rundown.Options{DefaultPartDuration: 3000})
	SetupPlaylistRoutes(apiGroup, service)

	return router, service
}

func ingestRequestFixture() IngestPlaylistRequest {
	expected := int64(2000)
	return IngestPlaylistRequest{
		Name: "Morning Show",
		Rundowns: []IngestRundownRequest{
			{
				Name: "Main",
				Segments: []IngestSegmentRequest{
					{
						Name: "Opening",
						Parts: []IngestPartRequest{
							{
								Title:            "Titles",
								ExpectedDuration: &expected,
								Pieces: []IngestPieceRequest{
									{
										Name:          "Opening titles",
										SourceLayerID: "vt",
										OutputLayerID: "pgm",
										Lifespan:      string(models.LifespanWithinPart),
									},
								},
							},
							{
								Title:            "Welcome",
								ExpectedDuration: &expected,
							},
						},
					},
					{
						Name: "News",
						Parts: []IngestPartRequest{
							{Title: "Headlines", ExpectedDuration: &expected},
						},
					},
				},
			},
		},
	}
}

func postIngest(t *testing.T, router *gin.Engine, reqBody IngestPlaylistRequest) PlaylistResponse {
	t.Helper()

	body, err := json.Marshal(reqBody)
	require.NoError(t, err)

	req := httptest.NewRequest("POST", "/api/playlists", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp PlaylistResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestIngestPlaylist(t *testing.T) {
	_, repos, cleanup := setupTestDB(t)
	defer cleanup()

	router, _ := setupPlaylistTestRouter(repos)

	resp := postIngest(t, router, ingestRequestFixture())
	assert.Equal(t, "Morning Show", resp.Name)
	assert.False(t, resp.Active)

	id, err := uuid.Parse(resp.ID)
	require.NoError(t, err)

	rundowns, err := repos.Rundowns.ListByPlaylist(context.Background(), id)
	require.NoError(t, err)
	require.Len(t, rundowns, 1)

	segments, err := repos.Segments.ListByRundown(context.Background(), rundowns[0].ID)
	require.NoError(t, err)
	assert.Len(t, segments, 2)
}

func TestIngestPlaylist_InvalidLifespan(t *testing.T) {
	_, repos, cleanup := setupTestDB(t)
	defer cleanup()

	router, _ := setupPlaylistTestRouter(repos)

	reqBody := ingestRequestFixture()
	reqBody.Rundowns[0].Segments[0].Parts[0].Pieces[0].Lifespan = "forever"

	body, _ := json.Marshal(reqBody)
	req := httptest.NewRequest("POST", "/api/playlists", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "invalid_request", resp.Error)
}

func TestListPlaylists(t *testing.T) {
	_, repos, cleanup := setupTestDB(t)
	defer cleanup()

	router, _ := setupPlaylistTestRouter(repos)

	postIngest(t, router, ingestRequestFixture())

	req := httptest.NewRequest("GET", "/api/playlists", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp PlaylistListResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Playlists, 1)
	assert.Equal(t, "Morning Show", resp.Playlists[0].Name)
}

func TestGetPlaylist_NotFound(t *testing.T) {
	_, repos, cleanup := setupTestDB(t)
	defer cleanup()

	router, _ := setupPlaylistTestRouter(repos)

	req := httptest.NewRequest("GET", "/api/playlists/"+uuid.New().String(), nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetPlaylist_InvalidID(t *testing.T) {
	_, repos, cleanup := setupTestDB(t)
	defer cleanup()

	router, _ := setupPlaylistTestRouter(repos)

	req := httptest.NewRequest("GET", "/api/playlists/not-a-uuid", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetTiming(t *testing.T) {
	_, repos, cleanup := setupTestDB(t)
	defer cleanup()

	router, _ := setupPlaylistTestRouter(repos)

	created := postIngest(t, router, ingestRequestFixture())

	req := httptest.NewRequest("GET", "/api/playlists/"+created.ID+"/timing", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp TimingResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, created.ID, resp.PlaylistID)
	require.NotNil(t, resp.Timing)
	assert.False(t, resp.Timing.IsActive)
	assert.Equal(t, int64(6000), resp.Timing.TotalPlaylistDuration)
	assert.Len(t, resp.Timing.LinearParts, 3)
}

func TestGetSegment(t *testing.T) {
	_, repos, cleanup := setupTestDB(t)
	defer cleanup()

	router, _ := setupPlaylistTestRouter(repos)

	created := postIngest(t, router, ingestRequestFixture())

	id, err := uuid.Parse(created.ID)
	require.NoError(t, err)

	rundowns, err := repos.Rundowns.ListByPlaylist(context.Background(), id)
	require.NoError(t, err)
	segments, err := repos.Segments.ListByRundown(context.Background(), rundowns[0].ID)
	require.NoError(t, err)
	require.Len(t, segments, 2)

	req := httptest.NewRequest("GET", "/api/playlists/"+created.ID+"/segments/"+segments[0].ID.String(), nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Segment *models.Segment `json:"segment"`
		Parts   []struct {
			Pieces []json.RawMessage `json:"pieces"`
		} `json:"parts"`
		IsLiveSegment bool `json:"is_live_segment"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, segments[0].ID, resp.Segment.ID)
	assert.False(t, resp.IsLiveSegment)
	require.Len(t, resp.Parts, 2)
	assert.Len(t, resp.Parts[0].Pieces, 1)
}

func TestGetSegment_NotFound(t *testing.T) {
	_, repos, cleanup := setupTestDB(t)
	defer cleanup()

	router, _ := setupPlaylistTestRouter(repos)

	created := postIngest(t, router, ingestRequestFixture())

	req := httptest.NewRequest("GET", "/api/playlists/"+created.ID+"/segments/"+uuid.New().String(), nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHealthEndpoint(t *testing.T) {
	database, _, cleanup := setupTestDB(t)
	defer cleanup()

	gin.SetMode(gin.TestMode)
	router := gin.New()
	apiGroup := router.Group("/api")
	SetupHealthRoutes(apiGroup, database)

	req := httptest.NewRequest("GET", "/api/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "healthy", resp.Database)
	assert.NotEmpty(t, resp.Time)
}
