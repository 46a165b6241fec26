package recommend

import (
	"testing"

	"github.com/jaz35-hue/soundmatch/models"
)

func TestCandidateSetFirstInsertWins(t *testing.T) {
	cs := newCandidateSet(nil, nil)

	first := mkTrack("t1", "Original", "a1", "Artist")
	first.Match = 0.9
	dup := mkTrack("t1", "Duplicate", "a2", "Other")
	dup.Match = 0.1

	if !cs.admit(first) {
		t.Fatal("first insert rejected")
	}
	if cs.admit(dup) {
		t.Error("duplicate id admitted")
	}
	if cs.len() != 1 {
		t.Fatalf("len = %d, want 1", cs.len())
	}
	if cs.tracks[0].Name != "Original" {
		t.Errorf("duplicate overwrote accepted candidate: %q", cs.tracks[0].Name)
	}
}

func TestCandidateSetRejections(t *testing.T) {
	cs := newCandidateSet([]string{"excluded-id"}, []string{"seed-artist"})

	if cs.admit(nil) {
		t.Error("nil track admitted")
	}
	if cs.admit(&models.Track{Name: "No ID"}) {
		t.Error("track without id admitted")
	}
	if cs.admit(mkTrack("excluded-id", "Seen Before", "a1", "Artist")) {
		t.Error("excluded track admitted")
	}
	if cs.admit(mkTrack("t1", "Own Song", "seed-artist", "Seed")) {
		t.Error("seed artist's own track admitted")
	}
	if !cs.admit(mkTrack("t2", "Fine", "a2", "Artist")) {
		t.Error("admissible track rejected")
	}
}

func TestCandidateSetSortStable(t *testing.T) {
	cs := newCandidateSet(nil, nil)

	for _, c := range []struct {
		id    string
		match float64
	}{
		{"a", 0.5}, {"b", 0}, {"c", 0.9}, {"d", 0}, {"e", 0.5},
	} {
		track := mkTrack(c.id, c.id, "x-"+c.id, "Artist "+c.id)
		track.Match = c.match
		cs.admit(track)
	}

	cs.sortByMatch()

	want := []string{"c", "a", "e", "b", "d"}
	for i, id := range want {
		if cs.tracks[i].ID != id {
			t.Errorf("position %d = %s, want %s (stable descending sort)", i, cs.tracks[i].ID, id)
		}
	}
}

func TestCandidateSetFinalReapplies(t *testing.T) {
	cs := newCandidateSet([]string{"late-exclude"}, []string{"seed-artist"})

	// Bypass admit to simulate a path that skipped per-step filtering.
	cs.tracks = append(cs.tracks,
		mkTrack("ok-1", "Fine", "a1", "Artist"),
		mkTrack("late-exclude", "Excluded", "a2", "Artist"),
		mkTrack("by-seed", "Own", "seed-artist", "Seed"),
		mkTrack("ok-1", "Dup", "a3", "Artist"),
		&models.Track{Name: "No ID"},
		mkTrack("ok-2", "Also Fine", "a4", "Artist"),
	)

	out := cs.final(10)

	if len(out) != 2 {
		t.Fatalf("final kept %d tracks, want 2", len(out))
	}
	if out[0].ID != "ok-1" || out[1].ID != "ok-2" {
		t.Errorf("final kept %s, %s; want ok-1, ok-2", out[0].ID, out[1].ID)
	}
}

func TestCandidateSetFinalTruncates(t *testing.T) {
	cs := newCandidateSet(nil, nil)
	for i := 0; i < 10; i++ {
		cs.admit(mkTrack(string(rune('a'+i)), "Track", "x", "Artist"))
	}

	if out := cs.final(3); len(out) != 3 {
		t.Errorf("final(3) kept %d tracks", len(out))
	}
}
