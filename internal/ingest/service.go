package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/justestif/spotify-history-logger/internal/db"
	"github.com/justestif/spotify-history-logger/internal/logger"
	"github.com/justestif/spotify-history-logger/internal/spotify"
)

// CatalogClient is the slice of the Spotify client the pipeline uses.
type CatalogClient interface {
	RecentlyPlayed(ctx context.Context, limit int) (*spotify.HistoryResponse, []byte, error)
	ArtistFetcher
}

// Service orchestrates ingestion and backfill runs. Each persisting run
// holds one database transaction for its full duration; any failure rolls
// back every write from the run.
type Service struct {
	db        *db.DB
	client    CatalogClient
	log       *logger.Logger
	batchSize int
}

// Option configures a Service.
type Option func(*Service)

// WithBatchSize overrides the metadata lookup batch size.
func WithBatchSize(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.batchSize = n
		}
	}
}

// New creates an ingestion service.
func New(database *db.DB, client CatalogClient, log *logger.Logger, opts ...Option) *Service {
	s := &Service{
		db:        database,
		client:    client,
		log:       log,
		batchSize: DefaultBatchSize,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RunResult summarizes an ingestion run.
type RunResult struct {
	Plays          int // deduplicated play events in the response
	Dropped        int // items without a usable played_at
	NewArtists     int // first artists not seen before
	FetchedArtists int // metadata records actually retrieved
}

// Run fetches one page of listening history. With persist set, the derived
// play events, metadata for newly referenced artists, and the raw payload
// are committed in a single transaction; without it, the run stops after
// the transform and only reports what it found.
func (s *Service) Run(ctx context.Context, limit int, persist bool) (*RunResult, error) {
	log := s.log.WithRun(uuid.NewString())

	resp, raw, err := s.client.RecentlyPlayed(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("fetching recent plays: %w", err)
	}
	collectedAt := time.Now().UTC()

	flat := Flatten(resp)
	if flat.Dropped > 0 {
		log.Warn("dropped items without played_at", "count", flat.Dropped)
	}

	result := &RunResult{Plays: len(flat.Events), Dropped: flat.Dropped}
	if !persist {
		return result, nil
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }() // no-op once committed

	if err := s.db.Plays().UpsertBatch(ctx, tx, flat.Events); err != nil {
		return nil, err
	}

	known, err := s.db.Artists().IDs(ctx, tx)
	if err != nil {
		return nil, err
	}

	fresh := NewArtists(flat.ArtistRefs, known)
	result.NewArtists = len(fresh)
	if len(fresh) > 0 {
		ids := make([]string, len(fresh))
		for i, ref := range fresh {
			ids[i] = ref.ID
		}
		meta := FetchMetadata(ctx, s.client, ids, s.batchSize, log)
		result.FetchedArtists = len(meta.Records)
		if err := s.db.Artists().Upsert(ctx, tx, meta.Records); err != nil {
			return nil, err
		}
	}

	if err := s.db.Raw().Append(ctx, tx, collectedAt, raw); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("committing run: %w", err)
	}

	log.Info("ingestion run committed",
		"plays", result.Plays,
		"new_artists", result.NewArtists,
		"fetched_artists", result.FetchedArtists)
	return result, nil
}

// BackfillResult summarizes a backfill sweep.
type BackfillResult struct {
	Candidates []BackfillCandidate // the computed fetch set
	Fetched    int
	Added      int // artists inserted for the first time
	Updated    int // existing artists whose metadata was filled in
}

// Backfill reconciles previously ingested history against the artists
// table: artists with null metadata plus historical first artists absent
// from the table form the fetch set. In preview mode every read-side step
// runs but nothing is fetched or written.
func (s *Service) Backfill(ctx context.Context, preview bool) (*BackfillResult, error) {
	log := s.log.WithRun(uuid.NewString())

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	missing, err := s.db.Artists().MissingMetadata(ctx, tx)
	if err != nil {
		return nil, err
	}
	history, err := s.db.Raw().FirstArtistRefs(ctx, tx)
	if err != nil {
		return nil, err
	}
	known, err := s.db.Artists().IDs(ctx, tx)
	if err != nil {
		return nil, err
	}

	result := &BackfillResult{Candidates: BackfillSet(missing, history, known)}
	log.Info("computed backfill fetch set",
		"missing_metadata", len(missing),
		"historical", len(history),
		"fetch_set", len(result.Candidates))

	if preview || len(result.Candidates) == 0 {
		return result, nil
	}

	ids := make([]string, len(result.Candidates))
	for i, c := range result.Candidates {
		ids[i] = c.ID
	}

	meta := FetchMetadata(ctx, s.client, ids, s.batchSize, log)
	result.Fetched = len(meta.Records)
	for _, rec := range meta.Records {
		if _, ok := known[rec.ArtistID]; ok {
			result.Updated++
		} else {
			result.Added++
		}
	}

	if err := s.db.Artists().Upsert(ctx, tx, meta.Records); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("committing backfill: %w", err)
	}

	log.Info("backfill committed",
		"fetched", result.Fetched, "added", result.Added, "updated", result.Updated)
	return result, nil
}
