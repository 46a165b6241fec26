package spotify

import (
	"strings"

	"github.com/jaz35-hue/soundmatch/models"
)

// Normalize folds a raw provider record into the canonical track shape.
// Records without an id are rejected with nil. Normalize is pure and
// idempotent: feeding a previously normalized record back through it
// yields an equivalent track.
func Normalize(raw *RawTrack) *models.Track {
	if raw == nil || raw.ID == "" {
		return nil
	}

	track := &models.Track{
		ID:         raw.ID,
		Name:       raw.Name,
		PreviewURL: raw.PreviewURL, // pass through verbatim, nil included
		Popularity: raw.Popularity,
	}
	if track.Name == "" {
		track.Name = "Unknown Track"
	}

	// Display string: prefer an already-flattened artist field, then the
	// joined artist-object names, then the placeholder.
	switch {
	case raw.Artist != "":
		track.Artist = raw.Artist
	case len(raw.Artists) > 0:
		names := make([]string, 0, len(raw.Artists))
		for _, a := range raw.Artists {
			name := a.Name
			if name == "" {
				name = "Unknown Artist"
			}
			names = append(names, name)
		}
		track.Artist = strings.Join(names, ", ")
	default:
		track.Artist = "Unknown Artist"
	}

	for _, a := range raw.Artists {
		track.Artists = append(track.Artists, models.Artist{Name: a.Name, ID: a.ID})
	}

	track.Album.Name = raw.Album.Name
	for _, img := range raw.Album.Images {
		if img.URL != "" {
			track.Album.Images = append(track.Album.Images, img.URL)
		}
	}

	track.ImageURL = raw.ImageURL
	if track.ImageURL == "" && len(track.Album.Images) > 0 {
		track.ImageURL = track.Album.Images[0]
	}

	track.SpotifyURL = raw.SpotifyURL
	if track.SpotifyURL == "" {
		track.SpotifyURL = raw.ExternalURLs["spotify"]
	}

	return track
}

// Denormalize rebuilds the raw display form of a canonical track. Only
// used by tests to assert normalization idempotency.
func Denormalize(track *models.Track) *RawTrack {
	raw := &RawTrack{
		ID:         track.ID,
		Name:       track.Name,
		Artist:     track.Artist,
		ImageURL:   track.ImageURL,
		PreviewURL: track.PreviewURL,
		SpotifyURL: track.SpotifyURL,
		Popularity: track.Popularity,
	}
	for _, a := range track.Artists {
		raw.Artists = append(raw.Artists, RawArtist{ID: a.ID, Name: a.Name})
	}
	raw.Album.Name = track.Album.Name
	for _, url := range track.Album.Images {
		raw.Album.Images = append(raw.Album.Images, RawImage{URL: url})
	}
	return raw
}
