package spotify

import (
	"reflect"
	"testing"
)

func TestNormalizeRejectsMissingID(t *testing.T) {
	if got := Normalize(nil); got != nil {
		t.Errorf("Normalize(nil) = %+v, want nil", got)
	}
	if got := Normalize(&RawTrack{Name: "No ID"}); got != nil {
		t.Errorf("Normalize without id = %+v, want nil", got)
	}
}

func TestNormalizeArtistPrecedence(t *testing.T) {
	tests := []struct {
		name string
		raw  RawTrack
		want string
	}{
		{
			name: "flat field wins over artist objects",
			raw: RawTrack{
				ID:      "t1",
				Artist:  "Flat Name",
				Artists: []RawArtist{{ID: "a1", Name: "Object Name"}},
			},
			want: "Flat Name",
		},
		{
			name: "artist objects joined with comma",
			raw: RawTrack{
				ID:      "t2",
				Artists: []RawArtist{{ID: "a1", Name: "First"}, {ID: "a2", Name: "Second"}},
			},
			want: "First, Second",
		},
		{
			name: "no artist information at all",
			raw:  RawTrack{ID: "t3"},
			want: "Unknown Artist",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			track := Normalize(&tt.raw)
			if track == nil {
				t.Fatal("Normalize returned nil for valid record")
			}
			if track.Artist != tt.want {
				t.Errorf("Artist = %q, want %q", track.Artist, tt.want)
			}
		})
	}
}

func TestNormalizeImageAndURLFallbacks(t *testing.T) {
	raw := &RawTrack{
		ID:           "t1",
		Name:         "Song",
		Artists:      []RawArtist{{ID: "a1", Name: "Artist"}},
		Album:        RawAlbum{Name: "Album", Images: []RawImage{{URL: "https://img/album.jpg"}}},
		ExternalURLs: map[string]string{"spotify": "https://open.spotify.com/track/t1"},
	}

	track := Normalize(raw)
	if track == nil {
		t.Fatal("Normalize returned nil for valid record")
	}
	if track.ImageURL != "https://img/album.jpg" {
		t.Errorf("ImageURL = %q, want album image fallback", track.ImageURL)
	}
	if track.SpotifyURL != "https://open.spotify.com/track/t1" {
		t.Errorf("SpotifyURL = %q, want external_urls fallback", track.SpotifyURL)
	}

	flat := &RawTrack{
		ID:           "t2",
		ImageURL:     "https://img/flat.jpg",
		SpotifyURL:   "https://flat.example/t2",
		Album:        RawAlbum{Images: []RawImage{{URL: "https://img/album.jpg"}}},
		ExternalURLs: map[string]string{"spotify": "https://nested.example/t2"},
	}
	track = Normalize(flat)
	if track.ImageURL != "https://img/flat.jpg" {
		t.Errorf("ImageURL = %q, want flat field to win", track.ImageURL)
	}
	if track.SpotifyURL != "https://flat.example/t2" {
		t.Errorf("SpotifyURL = %q, want flat field to win", track.SpotifyURL)
	}
}

func TestNormalizePreviewURLPassthrough(t *testing.T) {
	preview := "https://preview.example/clip.mp3"

	withPreview := Normalize(&RawTrack{ID: "t1", PreviewURL: &preview})
	if withPreview.PreviewURL == nil || *withPreview.PreviewURL != preview {
		t.Errorf("PreviewURL not passed through: %v", withPreview.PreviewURL)
	}

	withoutPreview := Normalize(&RawTrack{ID: "t2"})
	if withoutPreview.PreviewURL != nil {
		t.Errorf("absent PreviewURL must stay nil, got %v", withoutPreview.PreviewURL)
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	preview := "https://preview.example/clip.mp3"
	raw := &RawTrack{
		ID:         "t1",
		Name:       "Song",
		Artists:    []RawArtist{{ID: "a1", Name: "First"}, {ID: "a2", Name: "Second"}},
		Album:      RawAlbum{Name: "Album", Images: []RawImage{{URL: "https://img/1.jpg"}, {URL: "https://img/2.jpg"}}},
		PreviewURL: &preview,
		ExternalURLs: map[string]string{
			"spotify": "https://open.spotify.com/track/t1",
		},
		Popularity: 73,
	}

	once := Normalize(raw)
	twice := Normalize(Denormalize(once))

	if !reflect.DeepEqual(once, twice) {
		t.Errorf("normalization not idempotent:\nonce:  %+v\ntwice: %+v", once, twice)
	}
}
