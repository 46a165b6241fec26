package lastfm

import (
	"encoding/json"
	"strconv"
	"strings"
)

// The Last.fm API has two habits the wire types below absorb: numeric
// fields arrive as strings ("match": "0.87", "playcount": "12345"), and
// documented lists collapse to a bare object when there is exactly one
// element. Nothing outside this file sees either quirk.

// flexFloat parses a float that may be quoted or absent.
type flexFloat float64

func (f *flexFloat) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		*f = 0
		return nil
	}
	*f = flexFloat(v)
	return nil
}

// flexInt parses an int that may be quoted or absent.
type flexInt int

func (f *flexInt) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		*f = 0
		return nil
	}
	*f = flexInt(v)
	return nil
}

// oneOrMany accepts either a JSON array or a single bare object.
type oneOrMany[T any] []T

func (l *oneOrMany[T]) UnmarshalJSON(b []byte) error {
	trimmed := strings.TrimSpace(string(b))
	if strings.HasPrefix(trimmed, "[") {
		var items []T
		if err := json.Unmarshal(b, &items); err != nil {
			return err
		}
		*l = items
		return nil
	}

	var single T
	if err := json.Unmarshal(b, &single); err != nil {
		return err
	}
	*l = []T{single}
	return nil
}

// artistField accepts the artist as either an object or a plain string.
type artistField string

func (a *artistField) UnmarshalJSON(b []byte) error {
	trimmed := strings.TrimSpace(string(b))
	if strings.HasPrefix(trimmed, "{") {
		var obj struct {
			Name string `json:"name"`
		}
		if err := json.Unmarshal(b, &obj); err != nil {
			return err
		}
		*a = artistField(obj.Name)
		return nil
	}

	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	*a = artistField(s)
	return nil
}

// ===== wire shapes =====

type rawSimilarArtist struct {
	Name  string    `json:"name"`
	MBID  string    `json:"mbid"`
	Match flexFloat `json:"match"`
	URL   string    `json:"url"`
}

type similarArtistsResponse struct {
	SimilarArtists struct {
		Artist oneOrMany[rawSimilarArtist] `json:"artist"`
	} `json:"similarartists"`
}

type rawSimilarTrack struct {
	Name   string      `json:"name"`
	Artist artistField `json:"artist"`
	Match  flexFloat   `json:"match"`
	URL    string      `json:"url"`
}

type similarTracksResponse struct {
	SimilarTracks struct {
		Track oneOrMany[rawSimilarTrack] `json:"track"`
	} `json:"similartracks"`
}

type rawTopTrack struct {
	Name      string      `json:"name"`
	Artist    artistField `json:"artist"`
	Playcount flexInt     `json:"playcount"`
	Listeners flexInt     `json:"listeners"`
	URL       string      `json:"url"`
}

type topTracksResponse struct {
	TopTracks struct {
		Track oneOrMany[rawTopTrack] `json:"track"`
	} `json:"toptracks"`
}

type rawTag struct {
	Name  string  `json:"name"`
	Count flexInt `json:"count"`
	URL   string  `json:"url"`
}

type topTagsResponse struct {
	TopTags struct {
		Tag oneOrMany[rawTag] `json:"tag"`
	} `json:"toptags"`
}

type rawTagArtist struct {
	Name      string  `json:"name"`
	MBID      string  `json:"mbid"`
	Listeners flexInt `json:"listeners"`
	URL       string  `json:"url"`
}

type tagTopArtistsResponse struct {
	TopArtists struct {
		Artist oneOrMany[rawTagArtist] `json:"artist"`
	} `json:"topartists"`
}

// ===== public shapes =====

// SimilarArtist is one edge of the artist similarity graph.
type SimilarArtist struct {
	Name  string
	MBID  string
	Match float64 // similarity weight in [0,1]
	URL   string
}

// SimilarTrack is one edge of the track similarity graph.
type SimilarTrack struct {
	Name   string
	Artist string
	Match  float64
	URL    string
}

// TopTrack is a ranked track under an artist.
type TopTrack struct {
	Name      string
	Artist    string
	Playcount int
	Listeners int
	URL       string
}

// Tag is a genre/style label with its popularity count.
type Tag struct {
	Name  string
	Count int
	URL   string
}

// TagArtist is a ranked artist under a tag.
type TagArtist struct {
	Name      string
	MBID      string
	Listeners int
	URL       string
}
