package recommend

import "testing"

func TestCleanTitle(t *testing.T) {
	qc := newQueryCleaner()

	tests := []struct {
		in   string
		want string
	}{
		{"Plain Song", "Plain Song"},
		{"Song (2011 Remaster)", "Song"},
		{"Song (Radio Edit)", "Song"},
		{"Song [Live]", "Song"},
		{"Song feat. Somebody", "Song"},
		{"Song ft. Somebody Else", "Song"},
		{"Song - Remastered 2009", "Song"},
		// Parenthetical that is part of the name survives.
		{"Song (I Mean It)", "Song (I Mean It)"},
		// Unbalanced brackets are left alone entirely.
		{"Song (unfinished", "Song (unfinished"},
		{"  Padded Song  ", "Padded Song"},
	}

	for _, tt := range tests {
		if got := qc.CleanTitle(tt.in); got != tt.want {
			t.Errorf("CleanTitle(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestLikelyGuff(t *testing.T) {
	qc := newQueryCleaner()

	guffy := []string{"(2011 Remaster)", "(Radio Edit)", "[Live]", "(Deluxe Version)"}
	for _, s := range guffy {
		if !qc.likelyGuff(s) {
			t.Errorf("likelyGuff(%q) = false, want true", s)
		}
	}

	meaningful := []string{"(I Mean It)", "(What a Feeling)"}
	for _, s := range meaningful {
		if qc.likelyGuff(s) {
			t.Errorf("likelyGuff(%q) = true, want false", s)
		}
	}
}
