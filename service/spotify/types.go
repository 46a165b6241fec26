package spotify

import "github.com/jaz35-hue/soundmatch/models"

// Raw wire shapes. Spotify payloads are heterogeneous: fresh API
// records nest artist/album/external-url objects, while records that
// went through normalization once carry flattened fields. RawTrack
// accepts both; the normalizer is the only thing that reads it.
type RawTrack struct {
	ID         string      `json:"id"`
	Name       string      `json:"name"`
	Artist     string      `json:"artist"` // flattened display string, if present
	Artists    []RawArtist `json:"artists"`
	Album      RawAlbum    `json:"album"`
	ImageURL   string      `json:"image_url"`
	PreviewURL *string     `json:"preview_url"`
	SpotifyURL string      `json:"spotify_url"`
	// ExternalURLs is the nested {"spotify": "..."} map on raw records.
	ExternalURLs map[string]string `json:"external_urls"`
	Popularity   int               `json:"popularity"`
}

type RawArtist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type RawAlbum struct {
	Name   string     `json:"name"`
	Images []RawImage `json:"images"`
}

type RawImage struct {
	URL string `json:"url"`
}

type rawArtistFull struct {
	ID           string            `json:"id"`
	Name         string            `json:"name"`
	Genres       []string          `json:"genres"`
	Images       []RawImage        `json:"images"`
	ExternalURLs map[string]string `json:"external_urls"`
	Popularity   int               `json:"popularity"`
}

func (a *rawArtistFull) toInfo() *models.ArtistInfo {
	info := &models.ArtistInfo{
		ID:         a.ID,
		Name:       a.Name,
		Genres:     a.Genres,
		SpotifyURL: a.ExternalURLs["spotify"],
		Popularity: a.Popularity,
	}
	if len(a.Images) > 0 {
		info.ImageURL = a.Images[0].URL
	}
	return info
}

type searchResponse struct {
	Tracks struct {
		Items []RawTrack `json:"items"`
	} `json:"tracks"`
	Artists struct {
		Items []rawArtistFull `json:"items"`
	} `json:"artists"`
}

type topTracksResponse struct {
	Tracks []RawTrack `json:"tracks"`
}

type audioFeaturesResponse struct {
	AudioFeatures []*models.AudioFeatures `json:"audio_features"`
}

type relatedArtistsResponse struct {
	Artists []rawArtistFull `json:"artists"`
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
}

type profileResponse struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Email       string `json:"email"`
}
