package models

// SourceLayer describes one content layer (camera, VT, lower third and
// so on). Layer definitions are passed through from studio settings;
// the core only reads the fields below.
type SourceLayer struct {
	ID   string `json:"id"`
	Name string `json:"name"`

	// Rank orders layers on the grid and breaks piece ordering ties.
	Rank int `json:"rank"`

	// ExclusiveGroup groups layers that replace each other on a
	// flattened output.
	ExclusiveGroup string `json:"exclusive_group,omitempty"`

	// IsRemoteInput marks live remote sources (feeds into the segment's
	// hasRemoteItems flag).
	IsRemoteInput bool `json:"is_remote_input,omitempty"`

	// IsGuestInput marks in-studio guest sources.
	IsGuestInput bool `json:"is_guest_input,omitempty"`
}

// OutputLayer describes one output bucket pieces are grouped under.
type OutputLayer struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Rank int    `json:"rank"`

	// IsFlattened collapses the output's source layers into exclusive
	// groups when laying out pieces.
	IsFlattened bool `json:"is_flattened,omitempty"`
}
