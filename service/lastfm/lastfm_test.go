package lastfm

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

func testService(t *testing.T, handler http.HandlerFunc) *Service {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewService("test-key").WithEndpoint(server.URL)
}

func TestSimilarArtistsParsesQuotedNumbers(t *testing.T) {
	svc := testService(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("method"); got != "artist.getSimilar" {
			t.Errorf("method = %q, want artist.getSimilar", got)
		}
		fmt.Fprint(w, `{"similarartists":{"artist":[
			{"name":"Boards of Canada","match":"0.87","mbid":"mb-1"},
			{"name":"Aphex Twin","match":1,"mbid":"mb-2"}
		]}}`)
	})

	artists := svc.SimilarArtists(context.Background(), "Autechre", 10)
	if len(artists) != 2 {
		t.Fatalf("got %d artists, want 2", len(artists))
	}
	if artists[0].Match != 0.87 {
		t.Errorf("quoted match parsed as %v, want 0.87", artists[0].Match)
	}
	if artists[1].Match != 1 {
		t.Errorf("numeric match parsed as %v, want 1", artists[1].Match)
	}
}

func TestSimilarArtistsSingleObjectCollapse(t *testing.T) {
	// With exactly one element the API emits a bare object where the
	// documentation promises an array.
	svc := testService(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"similarartists":{"artist":{"name":"Orbital","match":"0.5"}}}`)
	})

	artists := svc.SimilarArtists(context.Background(), "Underworld", 10)
	if len(artists) != 1 {
		t.Fatalf("got %d artists, want 1 from collapsed object", len(artists))
	}
	if artists[0].Name != "Orbital" {
		t.Errorf("Name = %q, want Orbital", artists[0].Name)
	}
}

func TestSimilarTracksArtistAsObjectOrString(t *testing.T) {
	svc := testService(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"similartracks":{"track":[
			{"name":"One","artist":{"name":"Object Artist"},"match":0.9},
			{"name":"Two","artist":"String Artist","match":0.4}
		]}}`)
	})

	tracks := svc.SimilarTracks(context.Background(), "Seed", "Someone", 10)
	if len(tracks) != 2 {
		t.Fatalf("got %d tracks, want 2", len(tracks))
	}
	if tracks[0].Artist != "Object Artist" {
		t.Errorf("object artist parsed as %q", tracks[0].Artist)
	}
	if tracks[1].Artist != "String Artist" {
		t.Errorf("string artist parsed as %q", tracks[1].Artist)
	}
}

func TestTopTracksQuotedCounts(t *testing.T) {
	svc := testService(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"toptracks":{"track":[
			{"name":"Hit","playcount":"12345","listeners":"678"}
		]}}`)
	})

	tracks := svc.ArtistTopTracks(context.Background(), "Someone", 5)
	if len(tracks) != 1 {
		t.Fatalf("got %d tracks, want 1", len(tracks))
	}
	if tracks[0].Playcount != 12345 || tracks[0].Listeners != 678 {
		t.Errorf("counts = %d/%d, want 12345/678", tracks[0].Playcount, tracks[0].Listeners)
	}
	if tracks[0].Artist != "Someone" {
		t.Errorf("missing artist should fall back to query name, got %q", tracks[0].Artist)
	}
}

func TestMissingAPIKeyReturnsEmpty(t *testing.T) {
	svc := NewService("").WithEndpoint("http://unused")
	if svc.Enabled() {
		t.Error("Enabled() = true with no key")
	}
	if got := svc.SimilarArtists(context.Background(), "Anyone", 10); got != nil {
		t.Errorf("expected nil result without API key, got %v", got)
	}
}

func TestProviderErrorReturnsEmpty(t *testing.T) {
	svc := testService(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})

	if got := svc.TagTopArtists(context.Background(), "idm", 10); got != nil {
		t.Errorf("expected nil result on provider error, got %v", got)
	}
	if got := svc.ArtistTopTags(context.Background(), "Anyone", 10); got != nil {
		t.Errorf("expected nil result on provider error, got %v", got)
	}
}

func TestLimitTruncation(t *testing.T) {
	svc := testService(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"toptags":{"tag":[
			{"name":"idm","count":"100"},
			{"name":"electronic","count":"80"},
			{"name":"ambient","count":"60"}
		]}}`)
	})

	tags := svc.ArtistTopTags(context.Background(), "Someone", 2)
	if len(tags) != 2 {
		t.Fatalf("got %d tags, want provider overshoot truncated to 2", len(tags))
	}
}
