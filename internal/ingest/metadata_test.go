package ingest

import (
	"context"
	"fmt"
	"testing"

	"github.com/justestif/spotify-history-logger/internal/logger"
	"github.com/justestif/spotify-history-logger/internal/spotify"
)

// fakeFetcher records batches and serves canned artists, failing the call
// indexes listed in failCalls.
type fakeFetcher struct {
	calls     [][]string
	failCalls map[int]bool
	artists   map[string]spotify.Artist
}

func (f *fakeFetcher) ArtistsByIDs(_ context.Context, ids []string) ([]spotify.Artist, error) {
	call := len(f.calls)
	batch := make([]string, len(ids))
	copy(batch, ids)
	f.calls = append(f.calls, batch)

	if f.failCalls[call] {
		return nil, &spotify.UpstreamError{Op: "looking up artists", Status: 502}
	}

	var out []spotify.Artist
	for _, id := range ids {
		if a, ok := f.artists[id]; ok {
			out = append(out, a)
		}
	}
	return out, nil
}

func testLogger() *logger.Logger {
	return logger.New(logger.Config{Level: "error", Format: "text"})
}

func TestFetchMetadata_Chunking(t *testing.T) {
	ids := make([]string, 51)
	fetcher := &fakeFetcher{artists: make(map[string]spotify.Artist)}
	for i := range ids {
		id := fmt.Sprintf("artist-%02d", i)
		ids[i] = id
		fetcher.artists[id] = spotify.Artist{ID: id, Name: id}
	}

	result := FetchMetadata(context.Background(), fetcher, ids, 50, testLogger())

	if len(fetcher.calls) != 2 {
		t.Fatalf("got %d calls, want 2", len(fetcher.calls))
	}
	if len(fetcher.calls[0]) != 50 || len(fetcher.calls[1]) != 1 {
		t.Errorf("batch sizes = %d, %d, want 50, 1", len(fetcher.calls[0]), len(fetcher.calls[1]))
	}
	if len(result.Records) != 51 {
		t.Errorf("got %d records, want 51", len(result.Records))
	}
}

func TestFetchMetadata_SmallSetOneBatch(t *testing.T) {
	fetcher := &fakeFetcher{artists: map[string]spotify.Artist{
		"a1": {ID: "a1", Name: "Alpha"},
		"a2": {ID: "a2", Name: "Beta"},
	}}

	result := FetchMetadata(context.Background(), fetcher, []string{"a1", "a2"}, 50, testLogger())

	if len(fetcher.calls) != 1 {
		t.Fatalf("got %d calls, want 1", len(fetcher.calls))
	}
	if len(fetcher.calls[0]) != 2 {
		t.Errorf("batch size = %d, want 2", len(fetcher.calls[0]))
	}
	if len(result.Records) != 2 {
		t.Errorf("got %d records, want 2", len(result.Records))
	}
}

func TestFetchMetadata_BatchFailureDoesNotAbort(t *testing.T) {
	ids := make([]string, 51)
	fetcher := &fakeFetcher{
		failCalls: map[int]bool{0: true},
		artists:   make(map[string]spotify.Artist),
	}
	for i := range ids {
		id := fmt.Sprintf("artist-%02d", i)
		ids[i] = id
		fetcher.artists[id] = spotify.Artist{ID: id, Name: id}
	}

	result := FetchMetadata(context.Background(), fetcher, ids, 50, testLogger())

	if len(fetcher.calls) != 2 {
		t.Fatalf("got %d calls, want 2 (second batch must still run)", len(fetcher.calls))
	}
	if result.FailedBatches != 1 {
		t.Errorf("FailedBatches = %d, want 1", result.FailedBatches)
	}
	// Only the second batch's single artist made it through.
	if len(result.Records) != 1 {
		t.Errorf("got %d records, want 1", len(result.Records))
	}
	if result.Records[0].ArtistID != "artist-50" {
		t.Errorf("ArtistID = %q, want artist-50", result.Records[0].ArtistID)
	}
}

func TestFetchMetadata_MalformedEntitiesExcluded(t *testing.T) {
	fetcher := &fakeFetcher{artists: map[string]spotify.Artist{
		"a1": {ID: "a1", Name: "Alpha"},
		"a2": {Name: "No ID"}, // malformed
	}}

	result := FetchMetadata(context.Background(), fetcher, []string{"a1", "a2"}, 50, testLogger())

	if len(result.Records) != 1 {
		t.Fatalf("got %d records, want 1", len(result.Records))
	}
	if result.Malformed != 1 {
		t.Errorf("Malformed = %d, want 1", result.Malformed)
	}
}

func TestDeriveMetadata_ImageSelection(t *testing.T) {
	tests := []struct {
		name   string
		images []spotify.Image
		want   string // "" means nil ImageURL
	}{
		{
			name: "greatest height wins, first of equal maxima",
			images: []spotify.Image{
				{URL: "small", Height: 64},
				{URL: "first-300", Height: 300},
				{URL: "second-300", Height: 300},
			},
			want: "first-300",
		},
		{
			name:   "no images yields null",
			images: nil,
			want:   "",
		},
		{
			name:   "single image",
			images: []spotify.Image{{URL: "only", Height: 640}},
			want:   "only",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			record := deriveMetadata(spotify.Artist{ID: "a1", Name: "Alpha", Images: tt.images})

			if tt.want == "" {
				if record.ImageURL != nil {
					t.Errorf("ImageURL = %q, want nil", *record.ImageURL)
				}
				return
			}
			if record.ImageURL == nil || *record.ImageURL != tt.want {
				t.Errorf("ImageURL = %v, want %q", record.ImageURL, tt.want)
			}
		})
	}
}

func TestDeriveMetadata_Fields(t *testing.T) {
	record := deriveMetadata(spotify.Artist{
		ID:         "a1",
		Name:       "Alpha",
		SpotifyURL: "https://open.spotify.com/artist/a1",
		Genres:     []string{"shoegaze", "dream pop"},
		Popularity: 57,
	})

	if record.ArtistID != "a1" || record.ArtistName != "Alpha" {
		t.Errorf("identity = %q/%q", record.ArtistID, record.ArtistName)
	}
	if record.SpotifyURL == nil || *record.SpotifyURL != "https://open.spotify.com/artist/a1" {
		t.Errorf("SpotifyURL = %v", record.SpotifyURL)
	}
	if len(record.Genres) != 2 || record.Genres[0] != "shoegaze" {
		t.Errorf("Genres = %v, want upstream order preserved", record.Genres)
	}
	if record.Popularity == nil || *record.Popularity != 57 {
		t.Errorf("Popularity = %v, want 57", record.Popularity)
	}
}

func TestDeriveMetadata_NilGenresBecomeEmpty(t *testing.T) {
	record := deriveMetadata(spotify.Artist{ID: "a1", Name: "Alpha"})

	if record.Genres == nil {
		t.Error("Genres = nil, want empty slice")
	}
	if len(record.Genres) != 0 {
		t.Errorf("Genres = %v, want empty", record.Genres)
	}
}
