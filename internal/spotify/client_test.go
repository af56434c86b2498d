package spotify

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

const historyBody = `{
	"items": [
		{
			"played_at": "2024-01-01T00:00:00Z",
			"track": {
				"id": "t1",
				"name": "Song One",
				"duration_ms": 180000,
				"explicit": true,
				"artists": [{"id": "a1", "name": "Artist One"}],
				"album": {"name": "Album One"},
				"external_urls": {"spotify": "https://open.spotify.com/track/t1"}
			},
			"context": {"uri": "spotify:playlist:p1"}
		}
	]
}`

func TestRecentlyPlayed(t *testing.T) {
	tests := []struct {
		name          string
		status        int
		body          string
		wantItems     int
		wantErr       bool
		wantRetryable bool
	}{
		{
			name:      "parses items and returns raw body",
			status:    http.StatusOK,
			body:      historyBody,
			wantItems: 1,
		},
		{
			name:          "rate limit is retryable",
			status:        http.StatusTooManyRequests,
			body:          `{"error":{"status":429,"message":"rate limited"}}`,
			wantErr:       true,
			wantRetryable: true,
		},
		{
			name:          "server error is retryable",
			status:        http.StatusBadGateway,
			body:          `upstream down`,
			wantErr:       true,
			wantRetryable: true,
		},
		{
			name:          "auth failure is not retryable",
			status:        http.StatusUnauthorized,
			body:          `{"error":{"status":401,"message":"expired token"}}`,
			wantErr:       true,
			wantRetryable: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if got := r.URL.Query().Get("limit"); got != "10" {
					t.Errorf("limit query = %q, want %q", got, "10")
				}
				w.WriteHeader(tt.status)
				fmt.Fprint(w, tt.body)
			}))
			defer server.Close()

			client := &Client{
				httpClient: server.Client(),
				historyURL: server.URL,
			}

			resp, raw, err := client.RecentlyPlayed(context.Background(), 10)

			if tt.wantErr {
				var upstream *UpstreamError
				if !errors.As(err, &upstream) {
					t.Fatalf("RecentlyPlayed() error = %v, want *UpstreamError", err)
				}
				if upstream.Status != tt.status {
					t.Errorf("Status = %d, want %d", upstream.Status, tt.status)
				}
				if upstream.Retryable() != tt.wantRetryable {
					t.Errorf("Retryable() = %v, want %v", upstream.Retryable(), tt.wantRetryable)
				}
				return
			}

			if err != nil {
				t.Fatalf("RecentlyPlayed() error = %v", err)
			}
			if len(resp.Items) != tt.wantItems {
				t.Fatalf("got %d items, want %d", len(resp.Items), tt.wantItems)
			}
			if !bytes.Equal(raw, []byte(tt.body)) {
				t.Error("raw body was not returned verbatim")
			}

			item := resp.Items[0]
			if item.PlayedAt != "2024-01-01T00:00:00Z" {
				t.Errorf("PlayedAt = %q", item.PlayedAt)
			}
			if item.Track.ID != "t1" || item.Track.Name != "Song One" {
				t.Errorf("Track = %+v", item.Track)
			}
			if item.Track.DurationMs != 180000 || !item.Track.Explicit {
				t.Errorf("Track fields = %+v", item.Track)
			}
			if item.Context == nil || item.Context.URI != "spotify:playlist:p1" {
				t.Errorf("Context = %+v", item.Context)
			}
		})
	}
}

func TestArtistsByIDs_TooManyIDs(t *testing.T) {
	client := &Client{}

	ids := make([]string, MaxIDsPerLookup+1)
	for i := range ids {
		ids[i] = fmt.Sprintf("artist-%d", i)
	}

	_, err := client.ArtistsByIDs(context.Background(), ids)
	if !errors.Is(err, ErrTooManyIDs) {
		t.Fatalf("ArtistsByIDs() error = %v, want ErrTooManyIDs", err)
	}
}

func TestArtistsByIDs_EmptyInput(t *testing.T) {
	client := &Client{}

	artists, err := client.ArtistsByIDs(context.Background(), nil)
	if err != nil {
		t.Fatalf("ArtistsByIDs() error = %v", err)
	}
	if artists != nil {
		t.Errorf("ArtistsByIDs() = %v, want nil for empty input", artists)
	}
}
