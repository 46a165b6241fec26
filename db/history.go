package db

import (
	"database/sql"
	"time"

	"github.com/jaz35-hue/soundmatch/models"
)

// SaveRecommendations persists one batch of engine output for a user and
// returns the number of rows written.
func (db *DB) SaveRecommendations(userID int64, tracks []*models.Track, reason string) (int, error) {
	now := time.Now().UTC()
	saved := 0

	for _, track := range tracks {
		if track.ID == "" {
			continue
		}
		_, err := db.Exec(`
		INSERT INTO recommendations (user_id, track_id, track_name, artist_name, album_name, image_url, spotify_url, reason, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			userID, track.ID, track.Name, track.Artist, track.Album.Name,
			track.ImageURL, track.SpotifyURL, reason, now)
		if err != nil {
			return saved, err
		}
		saved++
	}

	return saved, nil
}

// GetRecommendationHistory lists a user's recommendation rows, newest first.
func (db *DB) GetRecommendationHistory(userID int64, limit int) ([]*models.Recommendation, error) {
	rows, err := db.Query(`
	SELECT id, track_id, track_name, artist_name, album_name, image_url, spotify_url, reason, rating, saved, dismissed, created_at
	FROM recommendations
	WHERE user_id = ? AND dismissed = 0
	ORDER BY created_at DESC, id DESC
	LIMIT ?`, userID, limit)

	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var recs []*models.Recommendation
	for rows.Next() {
		rec, err := scanRecommendation(rows, userID)
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}

	return recs, rows.Err()
}

// GetRecommendation fetches one history row scoped to a user.
func (db *DB) GetRecommendation(userID, recID int64) (*models.Recommendation, error) {
	row := db.QueryRow(`
	SELECT id, track_id, track_name, artist_name, album_name, image_url, spotify_url, reason, rating, saved, dismissed, created_at
	FROM recommendations
	WHERE user_id = ? AND id = ?`, userID, recID)

	rec, err := scanRecommendation(row, userID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// RecommendedTrackIDs returns every track id already recommended to a
// user, for server-side regeneration exclusion.
func (db *DB) RecommendedTrackIDs(userID int64) ([]string, error) {
	rows, err := db.Query(`SELECT DISTINCT track_id FROM recommendations WHERE user_id = ?`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	return ids, rows.Err()
}

// RateRecommendation sets the 1-5 rating on a history row.
func (db *DB) RateRecommendation(userID, recID int64, rating int) error {
	return db.updateRecommendation(userID, recID, "rating = ?", rating)
}

// MarkRecommendationSaved flags a history row as saved to the library.
func (db *DB) MarkRecommendationSaved(userID, recID int64) error {
	return db.updateRecommendation(userID, recID, "saved = 1")
}

// DismissRecommendation hides a history row from future listings.
func (db *DB) DismissRecommendation(userID, recID int64) error {
	return db.updateRecommendation(userID, recID, "dismissed = 1")
}

// DeleteRecommendation removes a history row entirely.
func (db *DB) DeleteRecommendation(userID, recID int64) error {
	result, err := db.Exec("DELETE FROM recommendations WHERE user_id = ? AND id = ?", userID, recID)
	if err != nil {
		return err
	}
	return requireRowChanged(result)
}

func (db *DB) updateRecommendation(userID, recID int64, set string, args ...any) error {
	args = append(args, userID, recID)
	result, err := db.Exec("UPDATE recommendations SET "+set+" WHERE user_id = ? AND id = ?", args...)
	if err != nil {
		return err
	}
	return requireRowChanged(result)
}

func requireRowChanged(result sql.Result) error {
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecommendation(row rowScanner, userID int64) (*models.Recommendation, error) {
	rec := &models.Recommendation{UserID: userID}
	var album, image, spotifyURL, reason sql.NullString
	var rating sql.NullInt64

	err := row.Scan(&rec.ID, &rec.TrackID, &rec.TrackName, &rec.ArtistName,
		&album, &image, &spotifyURL, &reason, &rating, &rec.Saved, &rec.Dismissed, &rec.CreatedAt)
	if err != nil {
		return nil, err
	}

	rec.AlbumName = album.String
	rec.ImageURL = image.String
	rec.SpotifyURL = spotifyURL.String
	rec.Reason = reason.String
	if rating.Valid {
		r := int(rating.Int64)
		rec.Rating = &r
	}

	return rec, nil
}
