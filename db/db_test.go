package db

import (
	"testing"
	"time"

	"github.com/jaz35-hue/soundmatch/models"
)

func setupTestDB(t *testing.T) *DB {
	database, err := New(":memory:")
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}
	if err := database.Initialize(); err != nil {
		t.Fatalf("Failed to initialize test database: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	return database
}

func createTestUser(t *testing.T, database *DB) int64 {
	email := "test@example.com"
	spotifyID := "spotify-user-1"
	userID, err := database.CreateUser(&models.User{
		Username:  "tester",
		Email:     &email,
		SpotifyID: &spotifyID,
	})
	if err != nil {
		t.Fatalf("Failed to create test user: %v", err)
	}
	return userID
}

func TestUserLifecycle(t *testing.T) {
	database := setupTestDB(t)
	userID := createTestUser(t, database)

	user, err := database.GetUserByID(userID)
	if err != nil {
		t.Fatalf("GetUserByID: %v", err)
	}
	if user == nil || user.Username != "tester" {
		t.Fatalf("unexpected user: %+v", user)
	}

	bySpotify, err := database.GetUserBySpotifyID("spotify-user-1")
	if err != nil {
		t.Fatalf("GetUserBySpotifyID: %v", err)
	}
	if bySpotify == nil || bySpotify.ID != userID {
		t.Errorf("lookup by spotify id returned %+v", bySpotify)
	}

	missing, err := database.GetUserBySpotifyID("nobody")
	if err != nil {
		t.Fatalf("GetUserBySpotifyID(nobody): %v", err)
	}
	if missing != nil {
		t.Errorf("expected nil for unknown spotify id, got %+v", missing)
	}

	expiry := time.Now().UTC().Add(time.Hour)
	if err := database.UpdateUserToken(userID, "new-access", "new-refresh", expiry); err != nil {
		t.Fatalf("UpdateUserToken: %v", err)
	}
	user, _ = database.GetUserByID(userID)
	if user.AccessToken == nil || *user.AccessToken != "new-access" {
		t.Errorf("access token not persisted: %+v", user.AccessToken)
	}
}

func TestPreferencesUpsert(t *testing.T) {
	database := setupTestDB(t)
	userID := createTestUser(t, database)

	none, err := database.GetPreferences(userID)
	if err != nil {
		t.Fatalf("GetPreferences: %v", err)
	}
	if none != nil {
		t.Fatalf("expected nil before first save, got %+v", none)
	}

	prefs := &models.Preferences{
		UserID:          userID,
		FavoriteGenres:  []string{"idm", "ambient"},
		FavoriteArtists: []string{"artist-1"},
		MinPopularity:   10,
		MaxPopularity:   90,
	}
	if err := database.UpsertPreferences(prefs); err != nil {
		t.Fatalf("UpsertPreferences: %v", err)
	}

	got, err := database.GetPreferences(userID)
	if err != nil {
		t.Fatalf("GetPreferences: %v", err)
	}
	if len(got.FavoriteGenres) != 2 || got.FavoriteGenres[0] != "idm" {
		t.Errorf("genres round-trip failed: %v", got.FavoriteGenres)
	}

	prefs.FavoriteGenres = []string{"jazz"}
	prefs.MinPopularity = 20
	if err := database.UpsertPreferences(prefs); err != nil {
		t.Fatalf("second UpsertPreferences: %v", err)
	}
	got, _ = database.GetPreferences(userID)
	if len(got.FavoriteGenres) != 1 || got.FavoriteGenres[0] != "jazz" || got.MinPopularity != 20 {
		t.Errorf("upsert did not replace values: %+v", got)
	}

	if err := database.DeletePreferences(userID); err != nil {
		t.Fatalf("DeletePreferences: %v", err)
	}
	if got, _ := database.GetPreferences(userID); got != nil {
		t.Errorf("preferences survived delete: %+v", got)
	}
}

func historyFixture(t *testing.T, database *DB, userID int64) []*models.Recommendation {
	tracks := []*models.Track{
		{ID: "t1", Name: "One", Artist: "Artist A", SpotifyURL: "https://sp/t1"},
		{ID: "t2", Name: "Two", Artist: "Artist B"},
		{ID: "t3", Name: "Three", Artist: "Artist C"},
	}
	if _, err := database.SaveRecommendations(userID, tracks, "artists: A1"); err != nil {
		t.Fatalf("SaveRecommendations: %v", err)
	}

	recs, err := database.GetRecommendationHistory(userID, 50)
	if err != nil {
		t.Fatalf("GetRecommendationHistory: %v", err)
	}
	if len(recs) != 3 {
		t.Fatalf("history has %d rows, want 3", len(recs))
	}
	return recs
}

func TestRecommendationHistory(t *testing.T) {
	database := setupTestDB(t)
	userID := createTestUser(t, database)
	recs := historyFixture(t, database, userID)

	rec := recs[0]
	if err := database.RateRecommendation(userID, rec.ID, 4); err != nil {
		t.Fatalf("RateRecommendation: %v", err)
	}
	got, err := database.GetRecommendation(userID, rec.ID)
	if err != nil {
		t.Fatalf("GetRecommendation: %v", err)
	}
	if got.Rating == nil || *got.Rating != 4 {
		t.Errorf("rating = %v, want 4", got.Rating)
	}

	if err := database.MarkRecommendationSaved(userID, rec.ID); err != nil {
		t.Fatalf("MarkRecommendationSaved: %v", err)
	}
	got, _ = database.GetRecommendation(userID, rec.ID)
	if !got.Saved {
		t.Error("Saved flag not set")
	}

	if err := database.DismissRecommendation(userID, recs[1].ID); err != nil {
		t.Fatalf("DismissRecommendation: %v", err)
	}
	after, _ := database.GetRecommendationHistory(userID, 50)
	if len(after) != 2 {
		t.Errorf("history lists %d rows after dismissal, want 2", len(after))
	}

	ids, err := database.RecommendedTrackIDs(userID)
	if err != nil {
		t.Fatalf("RecommendedTrackIDs: %v", err)
	}
	if len(ids) != 3 {
		t.Errorf("RecommendedTrackIDs returned %d ids, want 3 (dismissed rows still count)", len(ids))
	}

	if err := database.DeleteRecommendation(userID, recs[2].ID); err != nil {
		t.Fatalf("DeleteRecommendation: %v", err)
	}
	if err := database.DeleteRecommendation(userID, recs[2].ID); err == nil {
		t.Error("second delete of same row should fail")
	}
}

func TestRecommendationScopedToUser(t *testing.T) {
	database := setupTestDB(t)
	userID := createTestUser(t, database)
	recs := historyFixture(t, database, userID)

	otherEmail := "other@example.com"
	otherID, err := database.CreateUser(&models.User{Username: "other", Email: &otherEmail})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	if got, _ := database.GetRecommendation(otherID, recs[0].ID); got != nil {
		t.Errorf("user %d read another user's recommendation", otherID)
	}
	if err := database.RateRecommendation(otherID, recs[0].ID, 5); err == nil {
		t.Error("rating another user's recommendation should fail")
	}
}

func TestSavedTracks(t *testing.T) {
	database := setupTestDB(t)
	userID := createTestUser(t, database)

	track := &models.SavedTrack{
		UserID:     userID,
		TrackID:    "t1",
		TrackName:  "One",
		ArtistName: "Artist A",
		VideoURL:   "https://www.youtube.com/watch?v=abc",
		Notes:      "first",
	}
	id, err := database.SaveLibraryTrack(track)
	if err != nil {
		t.Fatalf("SaveLibraryTrack: %v", err)
	}

	got, err := database.GetSavedTrack(userID, id)
	if err != nil {
		t.Fatalf("GetSavedTrack: %v", err)
	}
	if got == nil || got.TrackName != "One" || got.VideoURL != track.VideoURL {
		t.Fatalf("unexpected saved track: %+v", got)
	}

	// Saving the same track id again updates in place.
	track.Notes = "second"
	if _, err := database.SaveLibraryTrack(track); err != nil {
		t.Fatalf("second SaveLibraryTrack: %v", err)
	}
	list, err := database.GetSavedTracks(userID, 50)
	if err != nil {
		t.Fatalf("GetSavedTracks: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("library has %d rows after duplicate save, want 1", len(list))
	}
	if list[0].Notes != "second" {
		t.Errorf("notes = %q, want updated value", list[0].Notes)
	}

	if err := database.UpdateSavedTrackNotes(userID, id, "edited"); err != nil {
		t.Fatalf("UpdateSavedTrackNotes: %v", err)
	}
	got, _ = database.GetSavedTrack(userID, id)
	if got.Notes != "edited" {
		t.Errorf("notes = %q, want edited", got.Notes)
	}

	if err := database.DeleteSavedTrack(userID, id); err != nil {
		t.Fatalf("DeleteSavedTrack: %v", err)
	}
	if got, _ := database.GetSavedTrack(userID, id); got != nil {
		t.Errorf("saved track survived delete: %+v", got)
	}
}
