package rundown

import "errors"

// Custom rundown service errors
var (
	// ErrPlaylistNotFound indicates the requested playlist does not exist
	ErrPlaylistNotFound = errors.New("playlist not found")

	// ErrSegmentNotFound indicates the requested segment does not exist
	ErrSegmentNotFound = errors.New("segment not found")

	// ErrSegmentNotInPlaylist indicates the segment belongs to a different playlist
	ErrSegmentNotInPlaylist = errors.New("segment does not belong to playlist")
)

// IsPlaylistNotFound checks if the error is a playlist not found error
func IsPlaylistNotFound(err error) bool {
	return errors.Is(err, ErrPlaylistNotFound)
}

// IsSegmentNotFound checks if the error is a segment not found error
func IsSegmentNotFound(err error) bool {
	return errors.Is(err, ErrSegmentNotFound)
}
