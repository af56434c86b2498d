// Package ingest implements the fetch, transform and upsert pipeline for
// listening history, plus the artist metadata backfill sweep.
package ingest

import (
	"strings"
	"time"

	"github.com/justestif/spotify-history-logger/internal/db"
	"github.com/justestif/spotify-history-logger/internal/spotify"
)

// FlattenResult holds the flat rows derived from one history response.
type FlattenResult struct {
	Events     []db.PlayEvent
	ArtistRefs []db.ArtistRef // first artist per item, discovery order, deduped
	Dropped    int            // items without a usable played_at
}

// Flatten converts a history response into play-event candidate rows.
// Rows are deduplicated by played_at with the last occurrence winning:
// consecutive fetch windows overlap, so the same play can appear twice.
// Items whose played_at is missing or unparsable cannot satisfy the
// uniqueness key and are dropped.
func Flatten(resp *spotify.HistoryResponse) FlattenResult {
	var result FlattenResult
	index := make(map[time.Time]int)
	seenArtists := make(map[string]struct{})

	for _, item := range resp.Items {
		playedAt, err := time.Parse(time.RFC3339, item.PlayedAt)
		if err != nil {
			result.Dropped++
			continue
		}

		event := db.PlayEvent{
			PlayedAt:    playedAt,
			TrackID:     item.Track.ID,
			TrackName:   item.Track.Name,
			ArtistNames: joinArtistNames(item.Track.Artists),
			AlbumName:   item.Track.Album.Name,
			DurationMs:  item.Track.DurationMs,
			Explicit:    item.Track.Explicit,
		}
		if item.Context != nil && item.Context.URI != "" {
			uri := item.Context.URI
			event.ContextURI = &uri
		}

		if i, ok := index[playedAt]; ok {
			result.Events[i] = event
		} else {
			index[playedAt] = len(result.Events)
			result.Events = append(result.Events, event)
		}

		// Only the first credited artist is tracked for metadata.
		// Secondary artists live in the joined display string only.
		if len(item.Track.Artists) > 0 {
			first := item.Track.Artists[0]
			if first.ID != "" {
				if _, ok := seenArtists[first.ID]; !ok {
					seenArtists[first.ID] = struct{}{}
					result.ArtistRefs = append(result.ArtistRefs, db.ArtistRef{ID: first.ID, Name: first.Name})
				}
			}
		}
	}

	return result
}

// joinArtistNames joins artist display names with ", ", skipping any
// artist missing a name.
func joinArtistNames(artists []spotify.TrackArtist) string {
	names := make([]string, 0, len(artists))
	for _, a := range artists {
		if a.Name != "" {
			names = append(names, a.Name)
		}
	}
	return strings.Join(names, ", ")
}
