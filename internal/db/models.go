package db

import "time"

// PlayEvent is one row of the plays table, keyed uniquely by PlayedAt.
type PlayEvent struct {
	PlayedAt    time.Time
	TrackID     string
	TrackName   string
	ArtistNames string // display names joined with ", "
	AlbumName   string
	DurationMs  int
	Explicit    bool
	ContextURI  *string // nullable
}

// ArtistMetadata is one row of the artists table, keyed uniquely by
// ArtistID. ImageURL, Genres and Popularity stay null until a metadata
// fetch succeeds; any of them being null marks the row as needing backfill.
type ArtistMetadata struct {
	ArtistID      string
	ArtistName    string
	ImageURL      *string  // nullable
	SpotifyURL    *string  // nullable
	Genres        []string // ordered as returned upstream
	Popularity    *int     // nullable, 0-100
	FirstSeenAt   time.Time
	LastUpdatedAt time.Time
	UpdatedAt     time.Time
}

// ArtistRef is an artist identity extracted from a history item: the first
// credited artist of the played track.
type ArtistRef struct {
	ID   string
	Name string
}
