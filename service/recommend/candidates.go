package recommend

import (
	"sort"

	"github.com/jaz35-hue/soundmatch/models"
)

// candidateSet accumulates tracks for one request. First insertion wins:
// a track ID seen again later never replaces or re-ranks the accepted
// one. All mutation happens on the coordinating goroutine, so no lock.
type candidateSet struct {
	tracks      []*models.Track
	seen        map[string]struct{}
	exclude     map[string]struct{}
	seedArtists map[string]struct{}
}

func newCandidateSet(excludeIDs, seedArtistIDs []string) *candidateSet {
	cs := &candidateSet{
		seen:        make(map[string]struct{}),
		exclude:     make(map[string]struct{}, len(excludeIDs)),
		seedArtists: make(map[string]struct{}, len(seedArtistIDs)),
	}
	for _, id := range excludeIDs {
		cs.exclude[id] = struct{}{}
	}
	for _, id := range seedArtistIDs {
		cs.seedArtists[id] = struct{}{}
	}
	return cs
}

// admissible reports whether a track may enter the set: it has an ID,
// was not accepted before, is not excluded by the caller, and is not by
// a seed artist (an artist is never a recommendation for itself).
func (cs *candidateSet) admissible(t *models.Track) bool {
	if t == nil || t.ID == "" {
		return false
	}
	if _, ok := cs.seen[t.ID]; ok {
		return false
	}
	if _, ok := cs.exclude[t.ID]; ok {
		return false
	}
	return !cs.hasSeedArtist(t)
}

func (cs *candidateSet) hasSeedArtist(t *models.Track) bool {
	for _, id := range t.ArtistIDs() {
		if _, ok := cs.seedArtists[id]; ok {
			return true
		}
	}
	return false
}

// admit appends the track if admissible and reports whether it did.
func (cs *candidateSet) admit(t *models.Track) bool {
	if !cs.admissible(t) {
		return false
	}
	cs.seen[t.ID] = struct{}{}
	cs.tracks = append(cs.tracks, t)
	return true
}

func (cs *candidateSet) admitAll(tracks []*models.Track) int {
	added := 0
	for _, t := range tracks {
		if cs.admit(t) {
			added++
		}
	}
	return added
}

func (cs *candidateSet) len() int {
	return len(cs.tracks)
}

// sortByMatch orders candidates by descending similarity score. The
// sort is stable so untagged tracks (score zero) keep insertion order
// behind the scored ones.
func (cs *candidateSet) sortByMatch() {
	sort.SliceStable(cs.tracks, func(i, j int) bool {
		return cs.tracks[i].Match > cs.tracks[j].Match
	})
}

// final re-applies every admissibility rule over the assembled list and
// truncates to limit. The individual steps already filter, but a final
// pass catches anything a path let through.
func (cs *candidateSet) final(limit int) []*models.Track {
	out := make([]*models.Track, 0, limit)
	ids := make(map[string]struct{}, limit)
	for _, t := range cs.tracks {
		if t == nil || t.ID == "" {
			continue
		}
		if _, ok := ids[t.ID]; ok {
			continue
		}
		if _, ok := cs.exclude[t.ID]; ok {
			continue
		}
		if cs.hasSeedArtist(t) {
			continue
		}
		ids[t.ID] = struct{}{}
		out = append(out, t)
		if len(out) >= limit {
			break
		}
	}
	return out
}
