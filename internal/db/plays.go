package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

// PlayRepository handles play-event rows.
type PlayRepository struct{}

// UpsertBatch inserts or updates play events keyed by played_at.
// Re-ingesting a timestamp overwrites every other column (last write wins).
// No-op for empty input.
func (r *PlayRepository) UpsertBatch(ctx context.Context, tx pgx.Tx, events []PlayEvent) error {
	if len(events) == 0 {
		return nil
	}

	query := `
		INSERT INTO plays (played_at, track_id, track_name, artist_names, album_name, duration_ms, explicit, context_uri)
		SELECT * FROM unnest($1::timestamptz[], $2::text[], $3::text[], $4::text[], $5::text[], $6::int[], $7::boolean[], $8::text[])
		ON CONFLICT (played_at) DO UPDATE SET
			track_id = EXCLUDED.track_id,
			track_name = EXCLUDED.track_name,
			artist_names = EXCLUDED.artist_names,
			album_name = EXCLUDED.album_name,
			duration_ms = EXCLUDED.duration_ms,
			explicit = EXCLUDED.explicit,
			context_uri = EXCLUDED.context_uri
	`

	playedAts := make([]time.Time, len(events))
	trackIDs := make([]string, len(events))
	trackNames := make([]string, len(events))
	artistNames := make([]string, len(events))
	albumNames := make([]string, len(events))
	durations := make([]int, len(events))
	explicits := make([]bool, len(events))
	contextURIs := make([]*string, len(events))

	for i, e := range events {
		playedAts[i] = e.PlayedAt
		trackIDs[i] = e.TrackID
		trackNames[i] = e.TrackName
		artistNames[i] = e.ArtistNames
		albumNames[i] = e.AlbumName
		durations[i] = e.DurationMs
		explicits[i] = e.Explicit
		contextURIs[i] = e.ContextURI
	}

	_, err := tx.Exec(ctx, query,
		playedAts, trackIDs, trackNames, artistNames, albumNames, durations, explicits, contextURIs)
	if err != nil {
		return fmt.Errorf("batch upserting plays: %w", err)
	}
	return nil
}
