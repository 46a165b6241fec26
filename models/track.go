package models

// Track is the canonical track shape used everywhere above the provider
// clients. Provider payloads are folded into it by the spotify package's
// normalizer; records without an ID never make it this far.
type Track struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Artist     string   `json:"artist"` // joined display string
	Artists    []Artist `json:"artists"`
	Album      Album    `json:"album"`
	ImageURL   string   `json:"image_url,omitempty"`
	PreviewURL *string  `json:"preview_url"` // 30s snippet; nil is valid, not an error
	SpotifyURL string   `json:"spotify_url,omitempty"`
	Popularity int      `json:"popularity"`
	// Match carries the similarity-provider score that sourced this
	// candidate. Zero when the track came from plain metadata search.
	Match float64 `json:"lastfm_match,omitempty"`
}

type Artist struct {
	Name string `json:"name"`
	ID   string `json:"id"`
}

type Album struct {
	Name   string   `json:"name"`
	Images []string `json:"images,omitempty"`
}

// ArtistIDs returns the IDs of all credited artists, skipping blanks.
func (t *Track) ArtistIDs() []string {
	ids := make([]string, 0, len(t.Artists))
	for _, a := range t.Artists {
		if a.ID != "" {
			ids = append(ids, a.ID)
		}
	}
	return ids
}

// AudioFeatures are the per-track audio attributes used by the
// feature-similarity fallback.
type AudioFeatures struct {
	ID               string  `json:"id"`
	Danceability     float64 `json:"danceability"`
	Energy           float64 `json:"energy"`
	Valence          float64 `json:"valence"`
	Tempo            float64 `json:"tempo"`
	Acousticness     float64 `json:"acousticness"`
	Instrumentalness float64 `json:"instrumentalness"`
	Speechiness      float64 `json:"speechiness"`
	Liveness         float64 `json:"liveness"`
}

// ArtistInfo is the metadata provider's artist record.
type ArtistInfo struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Genres     []string `json:"genres"`
	ImageURL   string   `json:"image_url,omitempty"`
	SpotifyURL string   `json:"spotify_url,omitempty"`
	Popularity int      `json:"popularity"`
}
