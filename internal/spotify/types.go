package spotify

// HistoryResponse is the payload returned by the recently-played endpoint.
// Items arrive newest-first; the order is preserved as given.
type HistoryResponse struct {
	Items []PlayedItem `json:"items"`
}

// PlayedItem is a single play from the listening history.
type PlayedItem struct {
	PlayedAt string       `json:"played_at"`
	Track    Track        `json:"track"`
	Context  *PlayContext `json:"context"`
}

// Track holds the track fields the pipeline uses.
type Track struct {
	ID           string            `json:"id"`
	Name         string            `json:"name"`
	DurationMs   int               `json:"duration_ms"`
	Explicit     bool              `json:"explicit"`
	Artists      []TrackArtist     `json:"artists"`
	Album        Album             `json:"album"`
	ExternalURLs map[string]string `json:"external_urls"`
}

// TrackArtist is an artist credit on a track.
type TrackArtist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Album holds the album fields the pipeline uses.
type Album struct {
	Name string `json:"name"`
}

// PlayContext is the playback context (playlist, album, ...) of a play.
type PlayContext struct {
	URI string `json:"uri"`
}

// Artist is a catalog entity from batch lookup.
type Artist struct {
	ID         string
	Name       string
	Images     []Image
	SpotifyURL string
	Genres     []string
	Popularity int
}

// Image is an artist image with its height attribute.
type Image struct {
	URL    string
	Height int
}
