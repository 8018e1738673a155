package reconcile

import "slices"

// SourceMovie is a movie known to the source system that has a local file.
// Key is assigned by IndexSource from Path.
type SourceMovie struct {
	Key            Key
	Title          string
	Path           string
	TMDBID         int
	CollectionID   int
	CollectionName string
}

// TargetMovie is a movie visible in the target library together with the
// collection names it belonged to when the library was read. Key is assigned
// by IndexTarget from Path.
type TargetMovie struct {
	Key         Key
	RatingKey   string
	Title       string
	Path        string
	Collections []string
}

// InCollection reports whether the snapshot lists the movie as a member of
// the named collection. Names compare exactly.
func (m TargetMovie) InCollection(name string) bool {
	return slices.Contains(m.Collections, name)
}
