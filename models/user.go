package models

import "time"

// User represents a user of the application
type User struct {
	ID           int64
	Username     string
	Email        *string    // Use pointer for nullable fields
	SpotifyID    *string    // Use pointer for nullable fields
	AccessToken  *string    // Spotify Access Token
	RefreshToken *string    // Spotify Refresh Token
	TokenExpiry  *time.Time // Spotify Token Expiry
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Preferences holds a user's recommendation tuning knobs.
type Preferences struct {
	UserID          int64     `json:"-"`
	FavoriteGenres  []string  `json:"favorite_genres"`
	FavoriteArtists []string  `json:"favorite_artists"`
	MinPopularity   int       `json:"min_popularity"`
	MaxPopularity   int       `json:"max_popularity"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Recommendation is one persisted row of recommendation history.
type Recommendation struct {
	ID           int64     `json:"id"`
	UserID       int64     `json:"-"`
	TrackID      string    `json:"track_id"`
	TrackName    string    `json:"track_name"`
	ArtistName   string    `json:"artist_name"`
	AlbumName    string    `json:"album_name,omitempty"`
	ImageURL     string    `json:"image_url,omitempty"`
	SpotifyURL   string    `json:"spotify_url,omitempty"`
	Reason       string    `json:"reason,omitempty"` // seed summary, e.g. "artists: A1; genres: jazz"
	Rating       *int      `json:"rating,omitempty"` // 1-5, nil until rated
	Saved        bool      `json:"saved"`
	Dismissed    bool      `json:"dismissed"`
	CreatedAt    time.Time `json:"created_at"`
}

// SavedTrack is a track the user pinned to their library.
type SavedTrack struct {
	ID         int64     `json:"id"`
	UserID     int64     `json:"-"`
	TrackID    string    `json:"track_id"`
	TrackName  string    `json:"track_name"`
	ArtistName string    `json:"artist_name"`
	AlbumName  string    `json:"album_name,omitempty"`
	ImageURL   string    `json:"image_url,omitempty"`
	SpotifyURL string    `json:"spotify_url,omitempty"`
	VideoURL   string    `json:"video_url,omitempty"` // optional YouTube enrichment
	Notes      string    `json:"notes,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}
