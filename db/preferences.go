package db

import (
	"database/sql"
	"strings"
	"time"

	"github.com/jaz35-hue/soundmatch/models"
)

// Genre and artist lists are stored as comma-joined strings. Good enough
// for sqlite; would be JSONB if we ever switch to PostgreSQL.
func joinList(items []string) string {
	return strings.Join(items, ",")
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// GetPreferences returns a user's preferences, or nil if none are set.
func (db *DB) GetPreferences(userID int64) (*models.Preferences, error) {
	prefs := &models.Preferences{UserID: userID}
	var genres, artists string

	err := db.QueryRow(`
	SELECT favorite_genres, favorite_artists, min_popularity, max_popularity, updated_at
	FROM preferences WHERE user_id = ?`, userID).Scan(
		&genres, &artists, &prefs.MinPopularity, &prefs.MaxPopularity, &prefs.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}

	if err != nil {
		return nil, err
	}

	prefs.FavoriteGenres = splitList(genres)
	prefs.FavoriteArtists = splitList(artists)
	return prefs, nil
}

// UpsertPreferences creates or replaces a user's preferences
func (db *DB) UpsertPreferences(prefs *models.Preferences) error {
	now := time.Now().UTC()

	_, err := db.Exec(`
	INSERT INTO preferences (user_id, favorite_genres, favorite_artists, min_popularity, max_popularity, updated_at)
	VALUES (?, ?, ?, ?, ?, ?)
	ON CONFLICT (user_id) DO UPDATE SET
		favorite_genres = excluded.favorite_genres,
		favorite_artists = excluded.favorite_artists,
		min_popularity = excluded.min_popularity,
		max_popularity = excluded.max_popularity,
		updated_at = excluded.updated_at`,
		prefs.UserID, joinList(prefs.FavoriteGenres), joinList(prefs.FavoriteArtists),
		prefs.MinPopularity, prefs.MaxPopularity, now)

	return err
}

// DeletePreferences removes a user's preferences
func (db *DB) DeletePreferences(userID int64) error {
	_, err := db.Exec("DELETE FROM preferences WHERE user_id = ?", userID)
	return err
}
