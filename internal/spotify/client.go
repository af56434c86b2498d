// Package spotify provides a client for the Spotify Web API endpoints used
// by the history logger.
package spotify

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/zmb3/spotify/v2"
)

const (
	defaultHistoryURL = "https://api.spotify.com/v1/me/player/recently-played"

	// MaxIDsPerLookup is the upstream limit for batch artist lookup.
	MaxIDsPerLookup = 50
)

// Client wraps the Spotify Web API.
//
// Batch artist lookup goes through the typed API client. The history
// endpoint is called directly on the authenticated HTTP client because the
// response body is retained verbatim as the raw payload; round-tripping it
// through typed structs would not preserve it.
type Client struct {
	api        *spotify.Client
	httpClient *http.Client
	historyURL string
}

// New creates a Client from an authenticated API client and the HTTP
// client backing it.
func New(api *spotify.Client, httpClient *http.Client) *Client {
	return &Client{
		api:        api,
		httpClient: httpClient,
		historyURL: defaultHistoryURL,
	}
}

// RecentlyPlayed fetches one page of listening history, at most limit
// items (1-50). It returns the parsed response together with the raw
// response body. Failures are reported as *UpstreamError.
func (c *Client) RecentlyPlayed(ctx context.Context, limit int) (*HistoryResponse, []byte, error) {
	reqURL := fmt.Sprintf("%s?limit=%d", c.historyURL, limit)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("creating history request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, &UpstreamError{Op: "fetching recently played", Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, &UpstreamError{Op: "reading history response", Status: resp.StatusCode, Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		return nil, nil, &UpstreamError{Op: "fetching recently played", Status: resp.StatusCode}
	}

	var history HistoryResponse
	if err := json.Unmarshal(body, &history); err != nil {
		return nil, nil, fmt.Errorf("parsing history response: %w", err)
	}

	return &history, body, nil
}

// ArtistsByIDs looks up a batch of artists by id. At most MaxIDsPerLookup
// ids per call; larger batches are a caller error (ErrTooManyIDs).
func (c *Client) ArtistsByIDs(ctx context.Context, ids []string) ([]Artist, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	if len(ids) > MaxIDsPerLookup {
		return nil, fmt.Errorf("%w: got %d", ErrTooManyIDs, len(ids))
	}

	spotifyIDs := make([]spotify.ID, len(ids))
	for i, id := range ids {
		spotifyIDs[i] = spotify.ID(id)
	}

	full, err := c.api.GetArtists(ctx, spotifyIDs...)
	if err != nil {
		return nil, upstreamError("looking up artists", err)
	}

	artists := make([]Artist, 0, len(full))
	for _, fa := range full {
		if fa == nil {
			// Unknown id; the API returns a null slot for it.
			continue
		}
		artists = append(artists, convertArtist(fa))
	}
	return artists, nil
}

// convertArtist maps the API artist onto the pipeline's Artist record.
func convertArtist(fa *spotify.FullArtist) Artist {
	images := make([]Image, len(fa.Images))
	for i, img := range fa.Images {
		images[i] = Image{URL: img.URL, Height: int(img.Height)}
	}

	return Artist{
		ID:         fa.ID.String(),
		Name:       fa.Name,
		Images:     images,
		SpotifyURL: fa.ExternalURLs["spotify"],
		Genres:     fa.Genres,
		Popularity: int(fa.Popularity),
	}
}
