package db

import (
	"database/sql"
	"time"

	"github.com/jaz35-hue/soundmatch/models"
)

// SaveLibraryTrack inserts a track into the user's library. Saving the
// same track twice updates notes and video URL in place.
func (db *DB) SaveLibraryTrack(track *models.SavedTrack) (int64, error) {
	now := time.Now().UTC()

	result, err := db.Exec(`
	INSERT INTO saved_tracks (user_id, track_id, track_name, artist_name, album_name, image_url, spotify_url, video_url, notes, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT (user_id, track_id) DO UPDATE SET
		video_url = excluded.video_url,
		notes = excluded.notes`,
		track.UserID, track.TrackID, track.TrackName, track.ArtistName, track.AlbumName,
		track.ImageURL, track.SpotifyURL, track.VideoURL, track.Notes, now)

	if err != nil {
		return 0, err
	}

	return result.LastInsertId()
}

// GetSavedTracks lists a user's library, newest first.
func (db *DB) GetSavedTracks(userID int64, limit int) ([]*models.SavedTrack, error) {
	rows, err := db.Query(`
	SELECT id, track_id, track_name, artist_name, album_name, image_url, spotify_url, video_url, notes, created_at
	FROM saved_tracks
	WHERE user_id = ?
	ORDER BY created_at DESC, id DESC
	LIMIT ?`, userID, limit)

	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tracks []*models.SavedTrack
	for rows.Next() {
		track, err := scanSavedTrack(rows, userID)
		if err != nil {
			return nil, err
		}
		tracks = append(tracks, track)
	}

	return tracks, rows.Err()
}

// GetSavedTrack fetches one library row scoped to a user.
func (db *DB) GetSavedTrack(userID, id int64) (*models.SavedTrack, error) {
	row := db.QueryRow(`
	SELECT id, track_id, track_name, artist_name, album_name, image_url, spotify_url, video_url, notes, created_at
	FROM saved_tracks
	WHERE user_id = ? AND id = ?`, userID, id)

	track, err := scanSavedTrack(row, userID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return track, nil
}

// UpdateSavedTrackNotes replaces the notes on a library row.
func (db *DB) UpdateSavedTrackNotes(userID, id int64, notes string) error {
	result, err := db.Exec(`
	UPDATE saved_tracks SET notes = ? WHERE user_id = ? AND id = ?`, notes, userID, id)
	if err != nil {
		return err
	}
	return requireRowChanged(result)
}

// DeleteSavedTrack removes a library row.
func (db *DB) DeleteSavedTrack(userID, id int64) error {
	result, err := db.Exec("DELETE FROM saved_tracks WHERE user_id = ? AND id = ?", userID, id)
	if err != nil {
		return err
	}
	return requireRowChanged(result)
}

func scanSavedTrack(row rowScanner, userID int64) (*models.SavedTrack, error) {
	track := &models.SavedTrack{UserID: userID}
	var album, image, spotifyURL, videoURL, notes sql.NullString

	err := row.Scan(&track.ID, &track.TrackID, &track.TrackName, &track.ArtistName,
		&album, &image, &spotifyURL, &videoURL, &notes, &track.CreatedAt)
	if err != nil {
		return nil, err
	}

	track.AlbumName = album.String
	track.ImageURL = image.String
	track.SpotifyURL = spotifyURL.String
	track.VideoURL = videoURL.String
	track.Notes = notes.String

	return track, nil
}
