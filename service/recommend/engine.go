// Package recommend is the recommendation orchestrator. Given seed
// artists, tracks, and genres it picks a retrieval strategy, fans out
// to the similarity and metadata providers in parallel, then merges,
// dedupes, scores, and truncates into one ranked track list. No
// provider failure inside a strategy aborts the request; the engine
// always returns whatever it accumulated.
package recommend

import (
	"context"
	"log"
	"math/rand"
	"os"
	"strings"

	"github.com/jaz35-hue/soundmatch/models"
	"github.com/jaz35-hue/soundmatch/service/lastfm"
)

const (
	defaultLimit = 20
	maxLimit     = 100
	maxSeeds     = 5
)

// MetadataProvider is the catalog side: canonical records, text search,
// and audio attributes. Satisfied by *spotify.Service.
type MetadataProvider interface {
	SearchTracks(ctx context.Context, token, query string, limit int) ([]*models.Track, error)
	GetTrack(ctx context.Context, token, trackID string) (*models.Track, error)
	GetArtist(ctx context.Context, token, artistID string) (*models.ArtistInfo, error)
	GetArtistGenres(ctx context.Context, token, artistID string) ([]string, error)
	GetAudioFeatures(ctx context.Context, token string, trackIDs []string) ([]*models.AudioFeatures, error)
	TokenForRequest(ctx context.Context) (string, bool, error)
}

// SimilarityProvider is the graph side: similarity edges and tag
// rankings, always best effort. Satisfied by *lastfm.Service.
type SimilarityProvider interface {
	Enabled() bool
	SimilarArtists(ctx context.Context, artistName string, limit int) []lastfm.SimilarArtist
	SimilarTracks(ctx context.Context, trackName, artistName string, limit int) []lastfm.SimilarTrack
	ArtistTopTracks(ctx context.Context, artistName string, limit int) []lastfm.TopTrack
	ArtistTopTags(ctx context.Context, artistName string, limit int) []lastfm.Tag
	TagTopArtists(ctx context.Context, tag string, limit int) []lastfm.TagArtist
}

type Engine struct {
	metadata   MetadataProvider
	similarity SimilarityProvider
	cleaner    *queryCleaner
	logger     *log.Logger
	shuffle    func(n int, swap func(i, j int))
}

func NewEngine(metadata MetadataProvider, similarity SimilarityProvider) *Engine {
	return &Engine{
		metadata:   metadata,
		similarity: similarity,
		cleaner:    newQueryCleaner(),
		logger:     log.New(os.Stdout, "recommend: ", log.LstdFlags|log.Lmsgprefix),
		shuffle:    rand.Shuffle,
	}
}

// Request carries the caller's seeds. Each seed list is truncated to
// its first five entries; ExcludeTrackIDs holds tracks already shown
// that must not come back.
type Request struct {
	SeedArtists     []string `json:"seed_artists"`
	SeedTracks      []string `json:"seed_tracks"`
	SeedGenres      []string `json:"seed_genres"`
	Limit           int      `json:"limit"`
	ExcludeTrackIDs []string `json:"exclude_track_ids"`
}

// Sources reports which provider actually contributed accepted tracks.
type Sources struct {
	SimilarityUsed bool `json:"similarity_used"`
	MetadataUsed   bool `json:"metadata_used"`
}

type Result struct {
	Tracks  []*models.Track `json:"tracks"`
	Sources Sources         `json:"sources"`
}

// fanout holds the per-strategy width parameters. Regeneration widens
// every knob so excluding previously seen tracks still leaves enough
// yield.
type fanout struct {
	expand            bool
	similarFetch      int // similar artists requested per seed
	similarUse        int // similar artists actually walked
	tracksPerArtist   int // top tracks sampled per similar artist
	maxSeedTracks     int // seed tracks walked in the track path
	similarTrackFetch int // similar tracks requested per seed track
	similarTrackUse   int // similar tracks actually resolved
	tagSourceArtists  int // resolved names consulted for tags
	tagsPerArtist     int // tags requested per artist
	maxTags           int // unique tags walked
	tagArtistFetch    int // top artists requested per tag
	tagArtistUse      int // top artists actually walked per tag
	tagTracksPer      int // top tracks sampled per tag artist
	fallbackArtists   int // seed artists consulted for derived genres
	genresPerArtist   int
	maxFallbackGenres int
	fallbackPerGenre  int // search hits requested per derived genre
}

func newFanout(expand bool) fanout {
	if expand {
		return fanout{
			expand: true, similarFetch: 20, similarUse: 15, tracksPerArtist: 8,
			maxSeedTracks: 5, similarTrackFetch: 15, similarTrackUse: 10,
			tagSourceArtists: 3, tagsPerArtist: 8, maxTags: 5,
			tagArtistFetch: 20, tagArtistUse: 10, tagTracksPer: 5,
			fallbackArtists: 3, genresPerArtist: 3, maxFallbackGenres: 5, fallbackPerGenre: 40,
		}
	}
	return fanout{
		similarFetch: 10, similarUse: 8, tracksPerArtist: 5,
		maxSeedTracks: 3, similarTrackFetch: 10, similarTrackUse: 5,
		tagSourceArtists: 2, tagsPerArtist: 5, maxTags: 3,
		tagArtistFetch: 10, tagArtistUse: 5, tagTracksPer: 3,
		fallbackArtists: 2, genresPerArtist: 2, maxFallbackGenres: 3, fallbackPerGenre: 20,
	}
}

// Recommend runs the full orchestration for one request. It never
// returns an error: a request with no seeds, or one where every
// provider is down, yields an empty track list with the source flags
// saying which side contributed nothing.
func (e *Engine) Recommend(ctx context.Context, req Request) *Result {
	seedArtists := truncateSeeds(req.SeedArtists)
	seedTracks := truncateSeeds(req.SeedTracks)
	seedGenres := truncateSeeds(req.SeedGenres)

	limit := req.Limit
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}

	result := &Result{Tracks: []*models.Track{}}

	if len(seedArtists) == 0 && len(seedTracks) == 0 && len(seedGenres) == 0 {
		return result
	}

	// Regeneration: the exclude set eats into every sub-strategy's
	// yield, so fetch three times the ask and widen all fan-outs
	// before filtering back down.
	expand := len(req.ExcludeTrackIDs) > 0
	searchLimit := limit
	if expand {
		searchLimit = limit * 3
	}
	p := newFanout(expand)

	token, _, err := e.metadata.TokenForRequest(ctx)
	if err != nil {
		e.logger.Printf("metadata provider unavailable: %v", err)
		return result
	}

	cs := newCandidateSet(req.ExcludeTrackIDs, seedArtists)

	switch {
	case len(seedGenres) > 0 && len(seedArtists) == 0 && len(seedTracks) == 0:
		// Genre seeds have no entry point into the similarity graph;
		// go straight to catalog search.
		e.genreOnly(ctx, token, seedGenres, searchLimit, p, cs)
		result.Sources.MetadataUsed = cs.len() > 0

	case len(seedArtists) > 0:
		fromSimilarity := e.similarityCascade(ctx, token, seedArtists, seedTracks, searchLimit, p, cs)
		result.Sources.SimilarityUsed = fromSimilarity > 0
		cs.sortByMatch()

		if cs.len() < limit && len(seedGenres) > 0 {
			added := e.genreSearch(ctx, token, seedGenres, searchLimit-cs.len(), p, cs)
			result.Sources.MetadataUsed = result.Sources.MetadataUsed || added > 0
		}
		if cs.len() < limit {
			added := e.metadataFallback(ctx, token, seedArtists, seedTracks, searchLimit-cs.len(), p, cs)
			result.Sources.MetadataUsed = result.Sources.MetadataUsed || added > 0
		}

	case len(seedTracks) > 0:
		fromSimilarity := e.trackCascade(ctx, token, seedTracks, searchLimit, p, cs)
		result.Sources.SimilarityUsed = fromSimilarity > 0
		cs.sortByMatch()
	}

	result.Tracks = cs.final(limit)
	e.logger.Printf("recommendations: %d tracks (similarity: %t, metadata: %t)",
		len(result.Tracks), result.Sources.SimilarityUsed, result.Sources.MetadataUsed)

	return result
}

func truncateSeeds(seeds []string) []string {
	out := make([]string, 0, maxSeeds)
	for _, s := range seeds {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		out = append(out, s)
		if len(out) >= maxSeeds {
			break
		}
	}
	return out
}
