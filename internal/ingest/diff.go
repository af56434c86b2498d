package ingest

import "github.com/justestif/spotify-history-logger/internal/db"

// NewArtists returns the referenced artists that are not yet persisted,
// preserving discovery order. An empty result means no metadata lookup is
// needed for the run.
func NewArtists(refs []db.ArtistRef, known map[string]struct{}) []db.ArtistRef {
	var fresh []db.ArtistRef
	for _, ref := range refs {
		if _, ok := known[ref.ID]; !ok {
			fresh = append(fresh, ref)
		}
	}
	return fresh
}

// BackfillCandidate is one member of a backfill fetch set.
type BackfillCandidate struct {
	ID   string
	Name string
	New  bool // absent from the artists table entirely
}

// BackfillSet unions two identifier sources into one fetch set: persisted
// artists with missing metadata, and historical first artists that predate
// the artists table. Members keep the order they were discovered in and
// appear once each.
func BackfillSet(missing, history []db.ArtistRef, known map[string]struct{}) []BackfillCandidate {
	seen := make(map[string]struct{})
	var set []BackfillCandidate

	for _, ref := range missing {
		if ref.ID == "" {
			continue
		}
		if _, ok := seen[ref.ID]; ok {
			continue
		}
		seen[ref.ID] = struct{}{}
		set = append(set, BackfillCandidate{ID: ref.ID, Name: ref.Name})
	}

	for _, ref := range history {
		if ref.ID == "" {
			continue
		}
		if _, ok := known[ref.ID]; ok {
			// Already persisted; it qualifies only via the missing set.
			continue
		}
		if _, ok := seen[ref.ID]; ok {
			continue
		}
		seen[ref.ID] = struct{}{}
		set = append(set, BackfillCandidate{ID: ref.ID, Name: ref.Name, New: true})
	}

	return set
}
