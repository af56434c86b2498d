package ingest

import (
	"context"

	"github.com/justestif/spotify-history-logger/internal/db"
	"github.com/justestif/spotify-history-logger/internal/logger"
	"github.com/justestif/spotify-history-logger/internal/spotify"
)

// DefaultBatchSize matches the upstream batch-lookup limit.
const DefaultBatchSize = spotify.MaxIDsPerLookup

// ArtistFetcher abstracts the catalog client for testing.
type ArtistFetcher interface {
	ArtistsByIDs(ctx context.Context, ids []string) ([]spotify.Artist, error)
}

// MetadataResult aggregates the outcome of a metadata fetch pass.
type MetadataResult struct {
	Records       []db.ArtistMetadata
	Malformed     int // entities returned without an id, excluded
	FailedBatches int // batches skipped after an upstream error
}

// FetchMetadata retrieves metadata for the fetch set in batches. A failing
// batch is logged as a warning and skipped; one bad batch does not abort
// the pass. The result can be shorter than the input set, so callers must
// not assume completeness.
func FetchMetadata(ctx context.Context, fetcher ArtistFetcher, ids []string, batchSize int, log *logger.Logger) MetadataResult {
	var result MetadataResult

	for start := 0; start < len(ids); start += batchSize {
		end := min(start+batchSize, len(ids))
		batch := ids[start:end]

		artists, err := fetcher.ArtistsByIDs(ctx, batch)
		if err != nil {
			result.FailedBatches++
			log.Warn("artist metadata batch failed",
				"batch_start", start, "batch_size", len(batch), "error", err)
			continue
		}

		for _, artist := range artists {
			if artist.ID == "" {
				result.Malformed++
				continue
			}
			result.Records = append(result.Records, deriveMetadata(artist))
		}
	}

	if result.Malformed > 0 {
		log.Warn("excluded malformed artist entities", "count", result.Malformed)
	}

	return result
}

// deriveMetadata maps a catalog artist onto a metadata row. The image with
// the greatest height wins, ties broken by input order; genres keep their
// upstream order, defaulting to an empty list.
func deriveMetadata(artist spotify.Artist) db.ArtistMetadata {
	record := db.ArtistMetadata{
		ArtistID:   artist.ID,
		ArtistName: artist.Name,
		Genres:     artist.Genres,
	}
	if record.Genres == nil {
		record.Genres = []string{}
	}

	if url := largestImageURL(artist.Images); url != "" {
		record.ImageURL = &url
	}
	if artist.SpotifyURL != "" {
		url := artist.SpotifyURL
		record.SpotifyURL = &url
	}

	popularity := artist.Popularity
	record.Popularity = &popularity

	return record
}

// largestImageURL picks the URL of the tallest image; the first of equal
// maxima wins. Returns "" when there are no images.
func largestImageURL(images []spotify.Image) string {
	best := ""
	bestHeight := -1
	for _, img := range images {
		if img.Height > bestHeight {
			best = img.URL
			bestHeight = img.Height
		}
	}
	return best
}
