package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// ArtistRepository handles artist metadata rows.
type ArtistRepository struct{}

// Upsert inserts or updates artist metadata keyed by artist_id.
// On conflict every column is overwritten except first_seen_at, which is
// set on insert and never touched again. last_updated_at and updated_at
// advance on both branches.
func (r *ArtistRepository) Upsert(ctx context.Context, tx pgx.Tx, records []ArtistMetadata) error {
	if len(records) == 0 {
		return nil
	}

	query := `
		INSERT INTO artists (artist_id, artist_name, image_url, spotify_url, genres, popularity, first_seen_at, last_updated_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW(), NOW())
		ON CONFLICT (artist_id) DO UPDATE SET
			artist_name = EXCLUDED.artist_name,
			image_url = EXCLUDED.image_url,
			spotify_url = EXCLUDED.spotify_url,
			genres = EXCLUDED.genres,
			popularity = EXCLUDED.popularity,
			last_updated_at = NOW(),
			updated_at = NOW()
	`

	for _, rec := range records {
		if _, err := tx.Exec(ctx, query,
			rec.ArtistID, rec.ArtistName, rec.ImageURL, rec.SpotifyURL, rec.Genres, rec.Popularity); err != nil {
			return fmt.Errorf("upserting artist %s: %w", rec.ArtistID, err)
		}
	}
	return nil
}

// IDs returns every artist_id currently persisted.
func (r *ArtistRepository) IDs(ctx context.Context, tx pgx.Tx) (map[string]struct{}, error) {
	rows, err := tx.Query(ctx, `SELECT artist_id FROM artists`)
	if err != nil {
		return nil, fmt.Errorf("querying artist ids: %w", err)
	}
	defer rows.Close()

	ids := make(map[string]struct{})
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning artist id: %w", err)
		}
		ids[id] = struct{}{}
	}
	return ids, rows.Err()
}

// MissingMetadata returns artists whose image, genres or popularity has
// never been fetched, newest first.
func (r *ArtistRepository) MissingMetadata(ctx context.Context, tx pgx.Tx) ([]ArtistRef, error) {
	query := `
		SELECT artist_id, artist_name
		FROM artists
		WHERE image_url IS NULL
		   OR genres IS NULL
		   OR popularity IS NULL
		ORDER BY first_seen_at DESC
	`
	rows, err := tx.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying artists missing metadata: %w", err)
	}
	defer rows.Close()

	var refs []ArtistRef
	for rows.Next() {
		var ref ArtistRef
		if err := rows.Scan(&ref.ID, &ref.Name); err != nil {
			return nil, fmt.Errorf("scanning artist: %w", err)
		}
		refs = append(refs, ref)
	}
	return refs, rows.Err()
}
