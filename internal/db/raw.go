package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

// RawRepository handles the append-only raw-payload log.
type RawRepository struct{}

// Append records the full upstream response body. The table is a log:
// every fetch inserts a new row, duplicates included, and rows are never
// updated or deleted.
func (r *RawRepository) Append(ctx context.Context, tx pgx.Tx, collectedAt time.Time, payload []byte) error {
	_, err := tx.Exec(ctx,
		`INSERT INTO raw_history (collected_at, payload) VALUES ($1, $2)`,
		collectedAt, payload)
	if err != nil {
		return fmt.Errorf("appending raw payload: %w", err)
	}
	return nil
}

// FirstArtistRefs extracts the first credited artist of every item across
// the whole raw-payload log. Plays ingested before artist tracking was
// introduced exist only here.
func (r *RawRepository) FirstArtistRefs(ctx context.Context, tx pgx.Tx) ([]ArtistRef, error) {
	query := `
		WITH items AS (
			SELECT jsonb_array_elements(payload -> 'items') AS item
			FROM raw_history
		),
		first_artists AS (
			SELECT DISTINCT
				item -> 'track' -> 'artists' -> 0 ->> 'id' AS artist_id,
				item -> 'track' -> 'artists' -> 0 ->> 'name' AS artist_name
			FROM items
			WHERE item -> 'track' -> 'artists' IS NOT NULL
			  AND jsonb_array_length(item -> 'track' -> 'artists') > 0
		)
		SELECT artist_id, artist_name
		FROM first_artists
		WHERE artist_id IS NOT NULL
		  AND artist_name IS NOT NULL
		ORDER BY artist_name
	`
	rows, err := tx.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying historical artists: %w", err)
	}
	defer rows.Close()

	var refs []ArtistRef
	for rows.Next() {
		var ref ArtistRef
		if err := rows.Scan(&ref.ID, &ref.Name); err != nil {
			return nil, fmt.Errorf("scanning historical artist: %w", err)
		}
		refs = append(refs, ref)
	}
	return refs, rows.Err()
}
