//go:build integration
// +build integration

package integration

import (
	"context"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/nrkno/sofie-core-sub006/internal/api"
	"github.com/nrkno/sofie-core-sub006/internal/db"
	"github.com/nrkno/sofie-core-sub006/internal/models"
	"github.com/nrkno/sofie-core-sub006/internal/rundown"
)

// setupTestDB creates an in-memory test database with migrations applied
func setupTestDB(t *testing.T) (*db.DB, *db.Repositories, func()) {
	t.Helper()

	// Create in-memory database
	database, err := db.New(":memory:")
	require.NoError(t, err, "Failed to create in-memory database")

	// Run migrations
	sqlDB, err := database.GetSQLDB()
	require.NoError(t, err, "Failed to get SQL DB")

	// Get absolute path to migrations directory relative to this file
	// This ensures tests work regardless of working directory
	_, filename, _, ok := runtime.Caller(0)
	require.True(t, ok, "Failed to get current file path")

	testDir := filepath.Dir(filename)                     // test/integration
	rootDir := filepath.Dir(filepath.Dir(testDir))        // repo root
	migrationsDir := filepath.Join(rootDir, "migrations") // migrations
	migrationsPath := "file://" + migrationsDir

	err = db.RunMigrations(sqlDB, migrationsPath)
	require.NoError(t, err, "Failed to run migrations")

	// Create repositories
	repos := db.NewRepositories(database)

	// Cleanup function
	cleanup := func() {
		database.Close()
	}

	return database, repos, cleanup
}

// setupTestRouter creates a test Gin router with playlist routes configured
func setupTestRouter(repos *db.Repositories) (*gin.Engine, *rundown.Service) {
	gin.SetMode(gin.TestMode)
	router := gin.New()

	// Add recovery middleware to catch panics in tests
	router.Use(gin.Recovery())

	service := rundown.NewService(repos, nil, rundown.Options{DefaultPartDuration: 3000})

	apiGroup := router.Group("/api")
	api.SetupPlaylistRoutes(apiGroup, service)

	return router, service
}

// takePart creates a real part instance for the given part and puts it
// on air, updating the playlist's live selection state.
func takePart(t *testing.T, repos *db.Repositories, playlist *models.RundownPlaylist, part *models.Part, startedAt time.Time, takeCount int) *models.PartInstance {
	t.Helper()

	startedMS := startedAt.UnixMilli()
	instance := &models.PartInstance{
		ID:         uuid.New(),
		PlaylistID: playlist.ID,
		RundownID:  part.RundownID,
		SegmentID:  part.SegmentID,
		PartID:     part.ID,
		Part:       *part,
		TakeCount:  takeCount,
		Timings: models.PartInstanceTimings{
			PlannedStartedPlayback: &startedMS,
			Take:                   &startedMS,
		},
	}

	ctx := context.Background()
	err := repos.PartInstances.Create(ctx, instance)
	require.NoError(t, err, "Failed to create part instance")

	if playlist.ActivationID == nil {
		activation := uuid.New()
		playlist.ActivationID = &activation
	}
	playlist.CurrentPartInfo = &models.PartInfo{
		PartInstanceID: instance.ID,
		PartID:         part.ID,
	}
	err = repos.Playlists.Update(ctx, playlist)
	require.NoError(t, err, "Failed to update playlist selection")

	return instance
}
