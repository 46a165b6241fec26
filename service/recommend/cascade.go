package recommend

import (
	"context"
	"sort"
	"strings"

	"github.com/jaz35-hue/soundmatch/models"
	"github.com/jaz35-hue/soundmatch/service/lastfm"
	"github.com/jaz35-hue/soundmatch/workers"
)

// Tags that are listener bookkeeping, not genres. They rank highly for
// almost every artist and would poison the tag path.
var nonGenreTags = map[string]struct{}{
	"seen live": {}, "favorites": {}, "favourite": {}, "seen": {}, "live": {}, "my music": {},
}

// similarityCascade walks the artist similarity graph: resolve seed IDs
// to names, fetch similar artists per name, sample each similar
// artist's top tracks, and resolve every (title, artist) pair back to a
// catalog record. Falls through to the track and tag paths when the
// artist path alone cannot fill the ask. Returns how many candidates
// the cascade contributed.
func (e *Engine) similarityCascade(ctx context.Context, token string, seedArtists, seedTracks []string, searchLimit int, p fanout, cs *candidateSet) int {
	names := e.resolveArtistNames(ctx, token, seedArtists)
	if len(names) == 0 && len(seedTracks) == 0 {
		return 0
	}

	added := 0

	seedNames := make(map[string]struct{}, len(names))
	for _, n := range names {
		seedNames[strings.ToLower(n)] = struct{}{}
	}

	if len(names) > 0 {
		workers.Collect(ctx, 3, names, func(ctx context.Context, name string) []*models.Track {
			return e.tracksFromSimilarArtists(ctx, token, name, seedNames, p, cs.seedArtists)
		}, func(tracks []*models.Track) bool {
			added += cs.admitAll(tracks)
			return cs.len() < searchLimit
		})
		e.logger.Printf("similar-artist path: %d candidates", added)
	}

	if len(seedTracks) > 0 && cs.len() < searchLimit {
		added += e.trackCascade(ctx, token, seedTracks, searchLimit, p, cs)
	}

	// The tag path always runs when expanding; a regeneration call
	// needs the extra diversity even if the graph paths filled up.
	if len(names) > 0 && (p.expand || cs.len() < searchLimit) {
		tagLimit := searchLimit - cs.len()
		if p.expand {
			tagLimit *= 2
		}
		if tagLimit > 0 {
			added += e.tagPath(ctx, token, names, tagLimit, p, cs)
		}
	}

	return added
}

// trackCascade is the track-similarity path: resolve each seed track ID
// to (title, artist), fetch its similar tracks, and resolve those back
// to catalog records tagged with the similarity score.
func (e *Engine) trackCascade(ctx context.Context, token string, seedTracks []string, searchLimit int, p fanout, cs *candidateSet) int {
	seeds := seedTracks
	if len(seeds) > p.maxSeedTracks {
		seeds = seeds[:p.maxSeedTracks]
	}

	added := 0
	workers.Collect(ctx, 3, seeds, func(ctx context.Context, trackID string) []*models.Track {
		return e.tracksFromSimilarTracks(ctx, token, trackID, p, cs.seedArtists)
	}, func(tracks []*models.Track) bool {
		added += cs.admitAll(tracks)
		return cs.len() < searchLimit
	})

	return added
}

// resolveArtistNames maps seed artist IDs to display names through the
// metadata provider. IDs that fail to resolve are dropped.
func (e *Engine) resolveArtistNames(ctx context.Context, token string, seedArtists []string) []string {
	ids := seedArtists
	if len(ids) > 3 {
		ids = ids[:3]
	}

	resolved := workers.Map(ctx, 3, ids, func(ctx context.Context, artistID string) string {
		artist, err := e.metadata.GetArtist(ctx, token, artistID)
		if err != nil || artist == nil {
			e.logger.Printf("could not resolve artist %s: %v", artistID, err)
			return ""
		}
		return artist.Name
	})

	names := resolved[:0]
	for _, name := range resolved {
		if name != "" {
			names = append(names, name)
		}
	}
	return names
}

// tracksFromSimilarArtists handles one seed artist: fetch its similar
// artists, keep the strongest matches, then sample each one's top
// tracks and resolve them against the catalog.
func (e *Engine) tracksFromSimilarArtists(ctx context.Context, token, artistName string, seedNames map[string]struct{}, p fanout, seedArtistIDs map[string]struct{}) []*models.Track {
	similar := e.similarity.SimilarArtists(ctx, artistName, p.similarFetch)
	if len(similar) == 0 {
		return nil
	}

	sort.SliceStable(similar, func(i, j int) bool {
		return similar[i].Match > similar[j].Match
	})

	use := make([]lastfm.SimilarArtist, 0, p.similarUse)
	for _, sa := range similar {
		if _, isSeed := seedNames[strings.ToLower(sa.Name)]; isSeed {
			continue
		}
		use = append(use, sa)
		if len(use) >= p.similarUse {
			break
		}
	}

	batches := workers.Map(ctx, 5, use, func(ctx context.Context, sa lastfm.SimilarArtist) []*models.Track {
		var tracks []*models.Track
		for _, top := range e.similarity.ArtistTopTracks(ctx, sa.Name, p.tracksPerArtist) {
			if top.Name == "" {
				continue
			}
			if hit := e.resolveTrack(ctx, token, top.Name, sa.Name, 2, seedArtistIDs); hit != nil {
				hit.Match = sa.Match
				tracks = append(tracks, hit)
			}
		}
		return tracks
	})

	return flatten(batches)
}

// tracksFromSimilarTracks handles one seed track in the track path.
func (e *Engine) tracksFromSimilarTracks(ctx context.Context, token, trackID string, p fanout, seedArtistIDs map[string]struct{}) []*models.Track {
	seed, err := e.metadata.GetTrack(ctx, token, trackID)
	if err != nil || seed == nil {
		e.logger.Printf("could not resolve seed track %s: %v", trackID, err)
		return nil
	}

	artistName := seed.Artist
	if len(seed.Artists) > 0 {
		artistName = seed.Artists[0].Name
	}
	if seed.Name == "" || artistName == "" {
		return nil
	}

	similar := e.similarity.SimilarTracks(ctx, seed.Name, artistName, p.similarTrackFetch)
	if len(similar) > p.similarTrackUse {
		similar = similar[:p.similarTrackUse]
	}

	var tracks []*models.Track
	for _, st := range similar {
		if st.Name == "" || st.Artist == "" {
			continue
		}
		if hit := e.resolveTrack(ctx, token, st.Name, st.Artist, 3, seedArtistIDs); hit != nil {
			hit.Match = st.Match
			tracks = append(tracks, hit)
		}
	}
	return tracks
}

// tagPath mines genre tags off the resolved seed artists and walks each
// tag's top artists the same way the artist path walks similar artists.
func (e *Engine) tagPath(ctx context.Context, token string, artistNames []string, limit int, p fanout, cs *candidateSet) int {
	sources := artistNames
	if len(sources) > p.tagSourceArtists {
		sources = sources[:p.tagSourceArtists]
	}

	var tags []string
	seenTags := make(map[string]struct{})
	for _, name := range sources {
		for _, tag := range e.similarity.ArtistTopTags(ctx, name, p.tagsPerArtist) {
			tagName := strings.ToLower(tag.Name)
			if tagName == "" {
				continue
			}
			if _, skip := nonGenreTags[tagName]; skip {
				continue
			}
			if _, dup := seenTags[tagName]; dup {
				continue
			}
			seenTags[tagName] = struct{}{}
			tags = append(tags, tagName)
		}
	}
	if len(tags) > p.maxTags {
		tags = tags[:p.maxTags]
	}
	if len(tags) == 0 {
		e.logger.Printf("tag path: no usable tags, skipping")
		return 0
	}

	added := 0
	workers.Collect(ctx, 3, tags, func(ctx context.Context, tag string) []*models.Track {
		return e.tracksFromTag(ctx, token, tag, p, cs.seedArtists)
	}, func(tracks []*models.Track) bool {
		added += cs.admitAll(tracks)
		return added < limit
	})

	return added
}

func (e *Engine) tracksFromTag(ctx context.Context, token, tag string, p fanout, seedArtistIDs map[string]struct{}) []*models.Track {
	topArtists := e.similarity.TagTopArtists(ctx, tag, p.tagArtistFetch)
	if len(topArtists) > p.tagArtistUse {
		topArtists = topArtists[:p.tagArtistUse]
	}

	batches := workers.Map(ctx, 5, topArtists, func(ctx context.Context, ta lastfm.TagArtist) []*models.Track {
		var tracks []*models.Track
		for _, top := range e.similarity.ArtistTopTracks(ctx, ta.Name, p.tagTracksPer) {
			if top.Name == "" {
				continue
			}
			if hit := e.resolveTrack(ctx, token, top.Name, ta.Name, 2, seedArtistIDs); hit != nil {
				tracks = append(tracks, hit)
			}
		}
		return tracks
	})

	return flatten(batches)
}

// resolveTrack turns a (title, artist) pair from the similarity
// provider into a catalog record: clean the title, search, and take the
// first hit not credited to a seed artist. Only reads immutable seed
// state, so it is safe from worker goroutines.
func (e *Engine) resolveTrack(ctx context.Context, token, title, artist string, searchLimit int, seedArtistIDs map[string]struct{}) *models.Track {
	query := e.cleaner.CleanTitle(title) + " " + artist

	hits, err := e.metadata.SearchTracks(ctx, token, query, searchLimit)
	if err != nil {
		return nil
	}

	for _, hit := range hits {
		if hit == nil || hit.ID == "" {
			continue
		}
		if artistIntersects(hit, seedArtistIDs) {
			continue
		}
		return hit
	}
	return nil
}

func artistIntersects(t *models.Track, ids map[string]struct{}) bool {
	for _, id := range t.ArtistIDs() {
		if _, ok := ids[id]; ok {
			return true
		}
	}
	return false
}

func flatten(batches [][]*models.Track) []*models.Track {
	var out []*models.Track
	for _, b := range batches {
		out = append(out, b...)
	}
	return out
}
