package db

// Repositories provides access to all database repositories
type Repositories struct {
	DB *DB

	Playlists      *PlaylistRepository
	Rundowns       *RundownRepository
	Segments       *SegmentRepository
	Parts          *PartRepository
	PartInstances  *PartInstanceRepository
	Pieces         *PieceRepository
	PieceInstances *PieceInstanceRepository
}

// NewRepositories creates a new repository collection
func NewRepositories(db *DB) *Repositories {
	return &Repositories{
		DB:             db,
		Playlists:      NewPlaylistRepository(db),
		Rundowns:       NewRundownRepository(db),
		Segments:       NewSegmentRepository(db),
		Parts:          NewPartRepository(db),
		PartInstances:  NewPartInstanceRepository(db),
		Pieces:         NewPieceRepository(db),
		PieceInstances: NewPieceInstanceRepository(db),
	}
}
