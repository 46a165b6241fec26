package recommend

import (
	"context"
	"fmt"
	"strings"

	"github.com/jaz35-hue/soundmatch/models"
	"github.com/jaz35-hue/soundmatch/workers"
)

// categoryAliases maps browse-category spellings to the genre words the
// catalog search actually understands.
var categoryAliases = map[string]string{
	"hip-hop": "hip hop",
	"r-n-b":   "r&b",
}

// genreOnly is the strategy for requests seeded purely by genres. There
// is no similarity-graph entry point for a genre name, so it leans on
// catalog text search with a few query variants per genre, then
// shuffles the merged pool. The shuffle deliberately discards search
// relevance order: genre searches return the same chart-toppers first
// every time, and mixing the genres together reads better than five
// blocks of one genre each.
func (e *Engine) genreOnly(ctx context.Context, token string, seedGenres []string, searchLimit int, p fanout, cs *candidateSet) {
	genres := normalizeGenres(seedGenres)
	if len(genres) == 0 {
		return
	}

	perGenre := searchLimit/len(genres) + 10
	if p.expand {
		perGenre *= 2
	}

	workers.Collect(ctx, 5, genres, func(ctx context.Context, genre string) []*models.Track {
		return e.searchGenreVariants(ctx, token, genre, perGenre)
	}, func(tracks []*models.Track) bool {
		cs.admitAll(tracks)
		return cs.len() < searchLimit
	})

	e.shuffle(len(cs.tracks), func(i, j int) {
		cs.tracks[i], cs.tracks[j] = cs.tracks[j], cs.tracks[i]
	})
}

// searchGenreVariants gathers tracks for one genre term, widening the
// query until the per-genre quota is met or the variants run out.
func (e *Engine) searchGenreVariants(ctx context.Context, token, genre string, quota int) []*models.Track {
	limit := quota
	if limit > 50 {
		limit = 50
	}

	var tracks []*models.Track
	seen := make(map[string]struct{})

	hits, err := e.metadata.SearchTracks(ctx, token, genre, limit)
	if err != nil {
		e.logger.Printf("genre search %q failed: %v", genre, err)
	}
	for _, t := range hits {
		if t.ID == "" {
			continue
		}
		seen[t.ID] = struct{}{}
		tracks = append(tracks, t)
	}

	variants := []string{
		genre + " music",
		"popular " + genre,
		"best " + genre,
	}
	for _, query := range variants {
		if len(tracks) >= quota {
			break
		}
		want := quota - len(tracks)
		if want > 20 {
			want = 20
		}
		more, err := e.metadata.SearchTracks(ctx, token, query, want)
		if err != nil {
			continue
		}
		for _, t := range more {
			if t.ID == "" {
				continue
			}
			if _, dup := seen[t.ID]; dup {
				continue
			}
			seen[t.ID] = struct{}{}
			tracks = append(tracks, t)
		}
	}

	return tracks
}

// genreSearch tops up an artist-seeded result from the caller's own
// genre seeds. Same variant search as the genre-only strategy, without
// the shuffle: these land behind the scored similarity candidates.
func (e *Engine) genreSearch(ctx context.Context, token string, seedGenres []string, want int, p fanout, cs *candidateSet) int {
	genres := normalizeGenres(seedGenres)
	if len(genres) == 0 || want <= 0 {
		return 0
	}

	perGenre := want/len(genres) + 5

	added := 0
	workers.Collect(ctx, 3, genres, func(ctx context.Context, genre string) []*models.Track {
		return e.searchGenreVariants(ctx, token, genre, perGenre)
	}, func(tracks []*models.Track) bool {
		added += cs.admitAll(tracks)
		return added < want
	})

	return added
}

// metadataFallback is the last resort for artist-seeded requests:
// derive genre labels from the seed artists themselves and search the
// catalog for recent tracks in those genres. When seed tracks exist the
// raw search pool is re-ranked by audio-attribute similarity before
// admission, so the fallback still reflects what the seeds sound like.
func (e *Engine) metadataFallback(ctx context.Context, token string, seedArtists, seedTracks []string, want int, p fanout, cs *candidateSet) int {
	if want <= 0 {
		return 0
	}

	genres := e.derivedGenres(ctx, token, seedArtists, p)
	if len(genres) == 0 {
		return 0
	}

	var pool []*models.Track
	seen := make(map[string]struct{})
	for _, genre := range genres {
		if len(pool) >= want*2 {
			break
		}
		query := fmt.Sprintf("genre:%q year:2020-2024", genre)
		hits, err := e.metadata.SearchTracks(ctx, token, query, p.fallbackPerGenre)
		if err != nil {
			e.logger.Printf("fallback search for genre %q failed: %v", genre, err)
			continue
		}
		for _, t := range hits {
			if t.ID == "" {
				continue
			}
			if _, dup := seen[t.ID]; dup {
				continue
			}
			seen[t.ID] = struct{}{}
			pool = append(pool, t)
		}
	}

	if len(seedTracks) > 0 {
		pool = e.rankByAudioSimilarity(ctx, token, seedTracks, pool, want)
	}

	return cs.admitAll(pool)
}

// derivedGenres collects a handful of genre labels off the seed
// artists' own catalog records.
func (e *Engine) derivedGenres(ctx context.Context, token string, seedArtists []string, p fanout) []string {
	sources := seedArtists
	if len(sources) > p.fallbackArtists {
		sources = sources[:p.fallbackArtists]
	}

	var genres []string
	seen := make(map[string]struct{})
	for _, artistID := range sources {
		found, err := e.metadata.GetArtistGenres(ctx, token, artistID)
		if err != nil {
			continue
		}
		if len(found) > p.genresPerArtist {
			found = found[:p.genresPerArtist]
		}
		for _, g := range found {
			if _, dup := seen[g]; dup {
				continue
			}
			seen[g] = struct{}{}
			genres = append(genres, g)
		}
	}

	if len(genres) > p.maxFallbackGenres {
		genres = genres[:p.maxFallbackGenres]
	}
	return genres
}

func normalizeGenres(seedGenres []string) []string {
	genres := make([]string, 0, len(seedGenres))
	for _, g := range seedGenres {
		g = strings.ToLower(strings.TrimSpace(g))
		if g == "" {
			continue
		}
		if alias, ok := categoryAliases[g]; ok {
			g = alias
		}
		genres = append(genres, g)
	}
	return genres
}
