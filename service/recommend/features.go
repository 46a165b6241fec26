package recommend

import (
	"context"
	"math"
	"sort"

	"github.com/jaz35-hue/soundmatch/models"
)

const (
	featureBatchSize = 30
	maxFeatureSeeds  = 5
	// Tempo is BPM while every other attribute already lives in [0,1];
	// dividing by this squashes it into the same range.
	tempoScale = 250.0
)

// audioProfile is the averaged attribute vector of the seed tracks.
type audioProfile struct {
	danceability     float64
	energy           float64
	valence          float64
	tempo            float64
	acousticness     float64
	instrumentalness float64
}

// rankByAudioSimilarity re-orders a candidate pool by closeness to the
// seed tracks' averaged audio profile. Each attribute contributes
// 1 − |seed − candidate|, at most 1.0 per attribute. Candidates the
// provider has no attribute data for are dropped, not guessed at. On
// any failure the pool comes back unranked rather than empty.
func (e *Engine) rankByAudioSimilarity(ctx context.Context, token string, seedTracks []string, pool []*models.Track, topN int) []*models.Track {
	if len(pool) == 0 {
		return pool
	}

	profile := e.seedProfile(ctx, token, seedTracks)
	if profile == nil {
		return pool
	}

	byID := make(map[string]*models.Track, len(pool))
	ids := make([]string, 0, len(pool))
	for _, t := range pool {
		byID[t.ID] = t
		ids = append(ids, t.ID)
	}

	type scored struct {
		track *models.Track
		score float64
	}
	var ranked []scored

	for start := 0; start < len(ids); start += featureBatchSize {
		end := start + featureBatchSize
		if end > len(ids) {
			end = len(ids)
		}

		features, err := e.metadata.GetAudioFeatures(ctx, token, ids[start:end])
		if err != nil {
			e.logger.Printf("audio features unavailable, keeping search order: %v", err)
			return pool
		}

		for _, f := range features {
			track, ok := byID[f.ID]
			if !ok {
				continue
			}
			ranked = append(ranked, scored{track: track, score: profile.score(f)})
		}
	}

	if len(ranked) == 0 {
		return pool
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].score > ranked[j].score
	})

	if topN > 0 && len(ranked) > topN {
		ranked = ranked[:topN]
	}

	out := make([]*models.Track, 0, len(ranked))
	for _, r := range ranked {
		out = append(out, r.track)
	}
	return out
}

// seedProfile averages the audio attributes across up to five seed
// tracks. Nil when the provider has data for none of them.
func (e *Engine) seedProfile(ctx context.Context, token string, seedTracks []string) *audioProfile {
	seeds := seedTracks
	if len(seeds) > maxFeatureSeeds {
		seeds = seeds[:maxFeatureSeeds]
	}

	features, err := e.metadata.GetAudioFeatures(ctx, token, seeds)
	if err != nil || len(features) == 0 {
		return nil
	}

	var p audioProfile
	for _, f := range features {
		p.danceability += f.Danceability
		p.energy += f.Energy
		p.valence += f.Valence
		p.tempo += f.Tempo / tempoScale
		p.acousticness += f.Acousticness
		p.instrumentalness += f.Instrumentalness
	}

	n := float64(len(features))
	p.danceability /= n
	p.energy /= n
	p.valence /= n
	p.tempo /= n
	p.acousticness /= n
	p.instrumentalness /= n

	return &p
}

func (p *audioProfile) score(f *models.AudioFeatures) float64 {
	score := 0.0
	score += 1 - math.Abs(p.danceability-f.Danceability)
	score += 1 - math.Abs(p.energy-f.Energy)
	score += 1 - math.Abs(p.valence-f.Valence)
	score += 1 - math.Abs(p.tempo-f.Tempo/tempoScale)
	score += 1 - math.Abs(p.acousticness-f.Acousticness)
	score += 1 - math.Abs(p.instrumentalness-f.Instrumentalness)
	return score
}
