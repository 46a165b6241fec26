// Package lastfm is the similarity provider client: artist/track
// similarity edges, per-artist top tracks, and tag rankings. The whole
// provider is best effort — a missing API key or any failed call yields
// an empty list, never an error the orchestrator has to handle.
package lastfm

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/spf13/viper"
	"golang.org/x/time/rate"
)

const maxRequestLimit = 100

type Service struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *log.Logger
	apiURL     string
	apiKey     string
}

func NewService(apiKey string) *Service {
	return &Service{
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		// Last.fm unofficial rate limit is ~5 requests per second
		limiter: rate.NewLimiter(rate.Every(200*time.Millisecond), 1),
		logger:  log.New(os.Stdout, "lastfm: ", log.LstdFlags|log.Lmsgprefix),
		apiURL:  viper.GetString("lastfm.api_url"),
		apiKey:  apiKey,
	}
}

// WithEndpoint overrides the provider URL. Used by tests.
func (l *Service) WithEndpoint(apiURL string) *Service {
	l.apiURL = apiURL
	return l
}

// Enabled reports whether an API key is configured.
func (l *Service) Enabled() bool {
	return l.apiKey != ""
}

// request performs one API method call and decodes the body into out.
func (l *Service) request(ctx context.Context, method string, params url.Values, limit int, out any) error {
	if l.apiKey == "" {
		return fmt.Errorf("last.fm API key not configured")
	}

	if limit > maxRequestLimit {
		limit = maxRequestLimit
	}
	params.Set("method", method)
	params.Set("api_key", l.apiKey)
	params.Set("format", "json")
	params.Set("limit", strconv.Itoa(limit))

	apiURL := l.apiURL + "?" + params.Encode()

	if err := l.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter error: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request for %s: %w", method, err)
	}
	req.Header.Set("User-Agent", "SoundMatch/1.0")

	resp, err := l.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call %s: %w", method, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("last.fm API error for %s: status %d", method, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", method, err)
	}

	return nil
}

// SimilarArtists returns artists similar to the named one, with match
// scores in [0,1].
func (l *Service) SimilarArtists(ctx context.Context, artistName string, limit int) []SimilarArtist {
	params := url.Values{}
	params.Set("artist", artistName)

	var result similarArtistsResponse
	if err := l.request(ctx, "artist.getSimilar", params, limit, &result); err != nil {
		l.logger.Printf("similar artists for %q unavailable: %v", artistName, err)
		return nil
	}

	raw := result.SimilarArtists.Artist
	artists := make([]SimilarArtist, 0, len(raw))
	for _, a := range raw {
		if a.Name == "" {
			continue
		}
		artists = append(artists, SimilarArtist{
			Name:  a.Name,
			MBID:  a.MBID,
			Match: float64(a.Match),
			URL:   a.URL,
		})
		if len(artists) >= limit {
			break
		}
	}

	return artists
}

// SimilarTracks returns tracks similar to the named track.
func (l *Service) SimilarTracks(ctx context.Context, trackName, artistName string, limit int) []SimilarTrack {
	params := url.Values{}
	params.Set("track", trackName)
	params.Set("artist", artistName)

	var result similarTracksResponse
	if err := l.request(ctx, "track.getSimilar", params, limit, &result); err != nil {
		l.logger.Printf("similar tracks for %q / %q unavailable: %v", trackName, artistName, err)
		return nil
	}

	raw := result.SimilarTracks.Track
	tracks := make([]SimilarTrack, 0, len(raw))
	for _, t := range raw {
		if t.Name == "" {
			continue
		}
		tracks = append(tracks, SimilarTrack{
			Name:   t.Name,
			Artist: string(t.Artist),
			Match:  float64(t.Match),
			URL:    t.URL,
		})
		if len(tracks) >= limit {
			break
		}
	}

	return tracks
}

// ArtistTopTracks returns an artist's most played tracks.
func (l *Service) ArtistTopTracks(ctx context.Context, artistName string, limit int) []TopTrack {
	params := url.Values{}
	params.Set("artist", artistName)

	var result topTracksResponse
	if err := l.request(ctx, "artist.getTopTracks", params, limit, &result); err != nil {
		l.logger.Printf("top tracks for %q unavailable: %v", artistName, err)
		return nil
	}

	raw := result.TopTracks.Track
	tracks := make([]TopTrack, 0, len(raw))
	for _, t := range raw {
		if t.Name == "" {
			continue
		}
		artist := string(t.Artist)
		if artist == "" {
			artist = artistName
		}
		tracks = append(tracks, TopTrack{
			Name:      t.Name,
			Artist:    artist,
			Playcount: int(t.Playcount),
			Listeners: int(t.Listeners),
			URL:       t.URL,
		})
		if len(tracks) >= limit {
			break
		}
	}

	return tracks
}

// ArtistTopTags returns an artist's tags ranked by count.
func (l *Service) ArtistTopTags(ctx context.Context, artistName string, limit int) []Tag {
	params := url.Values{}
	params.Set("artist", artistName)

	var result topTagsResponse
	if err := l.request(ctx, "artist.getTopTags", params, limit, &result); err != nil {
		l.logger.Printf("top tags for %q unavailable: %v", artistName, err)
		return nil
	}

	raw := result.TopTags.Tag
	tags := make([]Tag, 0, len(raw))
	for _, t := range raw {
		if t.Name == "" {
			continue
		}
		tags = append(tags, Tag{
			Name:  t.Name,
			Count: int(t.Count),
			URL:   t.URL,
		})
		if len(tags) >= limit {
			break
		}
	}

	return tags
}

// TagTopArtists returns the most popular artists under a tag.
func (l *Service) TagTopArtists(ctx context.Context, tag string, limit int) []TagArtist {
	params := url.Values{}
	params.Set("tag", tag)

	var result tagTopArtistsResponse
	if err := l.request(ctx, "tag.getTopArtists", params, limit, &result); err != nil {
		l.logger.Printf("top artists for tag %q unavailable: %v", tag, err)
		return nil
	}

	raw := result.TopArtists.Artist
	artists := make([]TagArtist, 0, len(raw))
	for _, a := range raw {
		if a.Name == "" {
			continue
		}
		artists = append(artists, TagArtist{
			Name:      a.Name,
			MBID:      a.MBID,
			Listeners: int(a.Listeners),
			URL:       a.URL,
		})
		if len(artists) >= limit {
			break
		}
	}

	return artists
}
