package main

import (
	"database/sql"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/jaz35-hue/soundmatch/db"
	"github.com/jaz35-hue/soundmatch/models"
	"github.com/jaz35-hue/soundmatch/service/recommend"
	"github.com/jaz35-hue/soundmatch/service/spotify"
	"github.com/jaz35-hue/soundmatch/session"
)

func jsonResponse(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

func jsonError(w http.ResponseWriter, statusCode int, message string) {
	jsonResponse(w, statusCode, map[string]string{"error": message})
}

// pathID parses the {id} segment of a route.
func pathID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	return id, err == nil && id > 0
}

func queryLimit(r *http.Request, def, max int) int {
	limit := def
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			limit = v
		}
	}
	if limit > max {
		limit = max
	}
	return limit
}

func home(database *db.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			jsonError(w, http.StatusNotFound, "not found")
			return
		}

		status := map[string]any{
			"service":       "soundmatch",
			"status":        "ok",
			"authenticated": session.IsAuthenticated(r.Context()),
		}
		if userID, ok := session.GetUserID(r.Context()); ok {
			if user, err := database.GetUserByID(userID); err == nil && user != nil {
				status["username"] = user.Username
			}
		}
		jsonResponse(w, http.StatusOK, status)
	}
}

// recommendationRequest is the public recommendations request body.
type recommendationRequest struct {
	SeedArtists   []string `json:"seed_artists"`
	SeedTracks    []string `json:"seed_tracks"`
	SeedGenres    []string `json:"seed_genres"`
	Limit         int      `json:"limit"`
	ExcludeTracks []string `json:"exclude_tracks"`
	// ExcludeHistory asks the server to also exclude every track already
	// recommended to the logged-in caller. Ignored for anonymous calls.
	ExcludeHistory bool `json:"exclude_history"`
}

func (req recommendationRequest) toEngineRequest() recommend.Request {
	return recommend.Request{
		SeedArtists:     req.SeedArtists,
		SeedTracks:      req.SeedTracks,
		SeedGenres:      req.SeedGenres,
		Limit:           req.Limit,
		ExcludeTrackIDs: req.ExcludeTracks,
	}
}

func apiRecommendations(app *application) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req recommendationRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			jsonError(w, http.StatusBadRequest, "request body required")
			return
		}

		if len(req.SeedArtists) == 0 && len(req.SeedTracks) == 0 && len(req.SeedGenres) == 0 {
			jsonError(w, http.StatusBadRequest, "at least one seed (artist, track, or genre) required")
			return
		}

		if req.ExcludeHistory {
			if userID, ok := session.GetUserID(r.Context()); ok {
				ids, err := app.database.RecommendedTrackIDs(userID)
				if err != nil {
					log.Printf("error loading recommended track ids for user %d: %v", userID, err)
				} else {
					req.ExcludeTracks = append(req.ExcludeTracks, ids...)
				}
			}
		}

		result := app.engine.Recommend(r.Context(), req.toEngineRequest())

		response := map[string]any{
			"recommendations": result.Tracks,
			"count":           len(result.Tracks),
			"sources":         result.Sources,
			"seeds": map[string]any{
				"artists": req.SeedArtists,
				"tracks":  req.SeedTracks,
				"genres":  req.SeedGenres,
			},
		}

		// Logged-in callers get their results remembered, so history
		// and regeneration work across visits.
		if userID, ok := session.GetUserID(r.Context()); ok {
			saved, err := app.database.SaveRecommendations(userID, result.Tracks, seedSummary(req))
			if err != nil {
				log.Printf("error saving recommendations for user %d: %v", userID, err)
			} else {
				response["saved_to_history"] = saved
			}
		}

		jsonResponse(w, http.StatusOK, response)
	}
}

func seedSummary(req recommendationRequest) string {
	var parts []string
	if len(req.SeedArtists) > 0 {
		parts = append(parts, "artists: "+strings.Join(req.SeedArtists, ", "))
	}
	if len(req.SeedTracks) > 0 {
		parts = append(parts, "tracks: "+strings.Join(req.SeedTracks, ", "))
	}
	if len(req.SeedGenres) > 0 {
		parts = append(parts, "genres: "+strings.Join(req.SeedGenres, ", "))
	}
	return strings.Join(parts, "; ")
}

func apiSearchArtists(spotifyService *spotify.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := strings.TrimSpace(r.URL.Query().Get("q"))
		if query == "" {
			jsonError(w, http.StatusBadRequest, "query parameter 'q' required")
			return
		}

		token, _, err := spotifyService.TokenForRequest(r.Context())
		if err != nil {
			jsonError(w, http.StatusBadGateway, "failed to authenticate with catalog provider")
			return
		}

		artists, err := spotifyService.SearchArtists(r.Context(), token, query, queryLimit(r, 10, 50))
		if err != nil {
			log.Printf("artist search %q failed: %v", query, err)
			jsonError(w, http.StatusBadGateway, "artist search failed")
			return
		}

		jsonResponse(w, http.StatusOK, map[string]any{
			"artists": artists,
			"count":   len(artists),
		})
	}
}

func apiSearchTracks(spotifyService *spotify.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := strings.TrimSpace(r.URL.Query().Get("q"))
		if query == "" {
			jsonError(w, http.StatusBadRequest, "query parameter 'q' required")
			return
		}

		token, _, err := spotifyService.TokenForRequest(r.Context())
		if err != nil {
			jsonError(w, http.StatusBadGateway, "failed to authenticate with catalog provider")
			return
		}

		tracks, err := spotifyService.SearchTracks(r.Context(), token, query, queryLimit(r, 20, 50))
		if err != nil {
			log.Printf("track search %q failed: %v", query, err)
			jsonError(w, http.StatusBadGateway, "track search failed")
			return
		}

		jsonResponse(w, http.StatusOK, map[string]any{
			"tracks": tracks,
			"count":  len(tracks),
		})
	}
}

func apiGetArtist(spotifyService *spotify.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		artistID := r.PathValue("id")
		if artistID == "" {
			jsonError(w, http.StatusBadRequest, "artist id required")
			return
		}

		token, _, err := spotifyService.TokenForRequest(r.Context())
		if err != nil {
			jsonError(w, http.StatusBadGateway, "failed to authenticate with catalog provider")
			return
		}

		artist, err := spotifyService.GetArtist(r.Context(), token, artistID)
		if err != nil {
			jsonError(w, http.StatusNotFound, "artist not found")
			return
		}

		jsonResponse(w, http.StatusOK, artist)
	}
}

func apiRelatedArtists(spotifyService *spotify.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		artistID := r.PathValue("id")
		if artistID == "" {
			jsonError(w, http.StatusBadRequest, "artist id required")
			return
		}

		token, _, err := spotifyService.TokenForRequest(r.Context())
		if err != nil {
			jsonError(w, http.StatusBadGateway, "failed to authenticate with catalog provider")
			return
		}

		related, err := spotifyService.GetRelatedArtists(r.Context(), token, artistID)
		if err != nil {
			jsonError(w, http.StatusBadGateway, "failed to fetch related artists")
			return
		}
		if related == nil {
			related = []*models.ArtistInfo{}
		}

		jsonResponse(w, http.StatusOK, map[string]any{
			"artists": related,
			"count":   len(related),
		})
	}
}

func apiArtistTopTracks(spotifyService *spotify.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		artistID := r.PathValue("id")
		if artistID == "" {
			jsonError(w, http.StatusBadRequest, "artist id required")
			return
		}

		token, _, err := spotifyService.TokenForRequest(r.Context())
		if err != nil {
			jsonError(w, http.StatusBadGateway, "failed to authenticate with catalog provider")
			return
		}

		tracks, err := spotifyService.GetArtistTopTracks(r.Context(), token, artistID, spotifyService.Market())
		if err != nil {
			jsonError(w, http.StatusBadGateway, "failed to fetch top tracks")
			return
		}

		jsonResponse(w, http.StatusOK, map[string]any{
			"tracks": tracks,
			"count":  len(tracks),
		})
	}
}

func apiGenres() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		jsonResponse(w, http.StatusOK, map[string]any{
			"genres": seedGenres,
			"count":  len(seedGenres),
		})
	}
}

func apiMeHandler(database *db.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, _ := session.GetUserID(r.Context())
		user, err := database.GetUserByID(userID)
		if err != nil || user == nil {
			jsonError(w, http.StatusNotFound, "user not found")
			return
		}

		me := map[string]any{
			"id":             user.ID,
			"username":       user.Username,
			"spotify_linked": user.SpotifyID != nil,
		}
		if user.Email != nil {
			me["email"] = *user.Email
		}
		jsonResponse(w, http.StatusOK, me)
	}
}

func apiGetPreferences(database *db.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, _ := session.GetUserID(r.Context())
		prefs, err := database.GetPreferences(userID)
		if err != nil {
			log.Printf("error loading preferences for user %d: %v", userID, err)
			jsonError(w, http.StatusInternalServerError, "failed to load preferences")
			return
		}
		if prefs == nil {
			jsonResponse(w, http.StatusOK, &models.Preferences{MaxPopularity: 100})
			return
		}
		jsonResponse(w, http.StatusOK, prefs)
	}
}

func apiUpsertPreferences(database *db.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, _ := session.GetUserID(r.Context())

		var prefs models.Preferences
		if err := json.NewDecoder(r.Body).Decode(&prefs); err != nil {
			jsonError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if prefs.MinPopularity < 0 || prefs.MaxPopularity > 100 || prefs.MinPopularity > prefs.MaxPopularity {
			jsonError(w, http.StatusBadRequest, "popularity bounds must satisfy 0 <= min <= max <= 100")
			return
		}

		prefs.UserID = userID
		if err := database.UpsertPreferences(&prefs); err != nil {
			log.Printf("error saving preferences for user %d: %v", userID, err)
			jsonError(w, http.StatusInternalServerError, "failed to save preferences")
			return
		}
		jsonResponse(w, http.StatusOK, &prefs)
	}
}

func apiDeletePreferences(database *db.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, _ := session.GetUserID(r.Context())
		if err := database.DeletePreferences(userID); err != nil {
			log.Printf("error deleting preferences for user %d: %v", userID, err)
			jsonError(w, http.StatusInternalServerError, "failed to delete preferences")
			return
		}
		jsonResponse(w, http.StatusOK, map[string]string{"status": "deleted"})
	}
}

func apiRecommendationHistory(database *db.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, _ := session.GetUserID(r.Context())
		recs, err := database.GetRecommendationHistory(userID, queryLimit(r, 50, 200))
		if err != nil {
			log.Printf("error loading history for user %d: %v", userID, err)
			jsonError(w, http.StatusInternalServerError, "failed to load history")
			return
		}
		jsonResponse(w, http.StatusOK, map[string]any{
			"recommendations": recs,
			"count":           len(recs),
		})
	}
}

func apiGetRecommendation(database *db.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, _ := session.GetUserID(r.Context())
		recID, ok := pathID(r)
		if !ok {
			jsonError(w, http.StatusBadRequest, "invalid recommendation id")
			return
		}

		rec, err := database.GetRecommendation(userID, recID)
		if err != nil {
			jsonError(w, http.StatusInternalServerError, "failed to load recommendation")
			return
		}
		if rec == nil {
			jsonError(w, http.StatusNotFound, "recommendation not found")
			return
		}
		jsonResponse(w, http.StatusOK, rec)
	}
}

func apiRateRecommendation(database *db.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, _ := session.GetUserID(r.Context())
		recID, ok := pathID(r)
		if !ok {
			jsonError(w, http.StatusBadRequest, "invalid recommendation id")
			return
		}

		var body struct {
			Rating int `json:"rating"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Rating < 1 || body.Rating > 5 {
			jsonError(w, http.StatusBadRequest, "rating must be an integer between 1 and 5")
			return
		}

		if err := database.RateRecommendation(userID, recID, body.Rating); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				jsonError(w, http.StatusNotFound, "recommendation not found")
				return
			}
			jsonError(w, http.StatusInternalServerError, "failed to rate recommendation")
			return
		}
		jsonResponse(w, http.StatusOK, map[string]any{"status": "rated", "rating": body.Rating})
	}
}

func apiSaveRecommendation(app *application) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, _ := session.GetUserID(r.Context())
		recID, ok := pathID(r)
		if !ok {
			jsonError(w, http.StatusBadRequest, "invalid recommendation id")
			return
		}

		rec, err := app.database.GetRecommendation(userID, recID)
		if err != nil {
			jsonError(w, http.StatusInternalServerError, "failed to load recommendation")
			return
		}
		if rec == nil {
			jsonError(w, http.StatusNotFound, "recommendation not found")
			return
		}

		saved := &models.SavedTrack{
			UserID:     userID,
			TrackID:    rec.TrackID,
			TrackName:  rec.TrackName,
			ArtistName: rec.ArtistName,
			AlbumName:  rec.AlbumName,
			ImageURL:   rec.ImageURL,
			SpotifyURL: rec.SpotifyURL,
		}
		if video := app.youtubeService.FindTrackVideo(r.Context(), rec.TrackName, rec.ArtistName); video != nil {
			saved.VideoURL = video.URL
		}

		savedID, err := app.database.SaveLibraryTrack(saved)
		if err != nil {
			log.Printf("error saving track for user %d: %v", userID, err)
			jsonError(w, http.StatusInternalServerError, "failed to save track")
			return
		}
		saved.ID = savedID

		if err := app.database.MarkRecommendationSaved(userID, recID); err != nil {
			log.Printf("error marking recommendation %d saved: %v", recID, err)
		}

		jsonResponse(w, http.StatusCreated, saved)
	}
}

func apiDismissRecommendation(database *db.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, _ := session.GetUserID(r.Context())
		recID, ok := pathID(r)
		if !ok {
			jsonError(w, http.StatusBadRequest, "invalid recommendation id")
			return
		}

		if err := database.DismissRecommendation(userID, recID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				jsonError(w, http.StatusNotFound, "recommendation not found")
				return
			}
			jsonError(w, http.StatusInternalServerError, "failed to dismiss recommendation")
			return
		}
		jsonResponse(w, http.StatusOK, map[string]string{"status": "dismissed"})
	}
}

func apiDeleteRecommendation(database *db.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, _ := session.GetUserID(r.Context())
		recID, ok := pathID(r)
		if !ok {
			jsonError(w, http.StatusBadRequest, "invalid recommendation id")
			return
		}

		if err := database.DeleteRecommendation(userID, recID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				jsonError(w, http.StatusNotFound, "recommendation not found")
				return
			}
			jsonError(w, http.StatusInternalServerError, "failed to delete recommendation")
			return
		}
		jsonResponse(w, http.StatusOK, map[string]string{"status": "deleted"})
	}
}

func apiGetSavedTracks(database *db.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, _ := session.GetUserID(r.Context())
		tracks, err := database.GetSavedTracks(userID, queryLimit(r, 50, 200))
		if err != nil {
			log.Printf("error loading saved tracks for user %d: %v", userID, err)
			jsonError(w, http.StatusInternalServerError, "failed to load saved tracks")
			return
		}
		jsonResponse(w, http.StatusOK, map[string]any{
			"tracks": tracks,
			"count":  len(tracks),
		})
	}
}

func apiGetSavedTrack(database *db.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, _ := session.GetUserID(r.Context())
		id, ok := pathID(r)
		if !ok {
			jsonError(w, http.StatusBadRequest, "invalid track id")
			return
		}

		track, err := database.GetSavedTrack(userID, id)
		if err != nil {
			jsonError(w, http.StatusInternalServerError, "failed to load saved track")
			return
		}
		if track == nil {
			jsonError(w, http.StatusNotFound, "saved track not found")
			return
		}
		jsonResponse(w, http.StatusOK, track)
	}
}

func apiSaveTrack(app *application) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, _ := session.GetUserID(r.Context())

		var track models.SavedTrack
		if err := json.NewDecoder(r.Body).Decode(&track); err != nil {
			jsonError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if track.TrackID == "" || track.TrackName == "" {
			jsonError(w, http.StatusBadRequest, "track_id and track_name required")
			return
		}

		track.UserID = userID
		if track.VideoURL == "" {
			if video := app.youtubeService.FindTrackVideo(r.Context(), track.TrackName, track.ArtistName); video != nil {
				track.VideoURL = video.URL
			}
		}

		id, err := app.database.SaveLibraryTrack(&track)
		if err != nil {
			log.Printf("error saving track for user %d: %v", userID, err)
			jsonError(w, http.StatusInternalServerError, "failed to save track")
			return
		}
		track.ID = id

		jsonResponse(w, http.StatusCreated, &track)
	}
}

func apiUpdateSavedTrack(database *db.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, _ := session.GetUserID(r.Context())
		id, ok := pathID(r)
		if !ok {
			jsonError(w, http.StatusBadRequest, "invalid track id")
			return
		}

		var body struct {
			Notes string `json:"notes"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			jsonError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		if err := database.UpdateSavedTrackNotes(userID, id, body.Notes); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				jsonError(w, http.StatusNotFound, "saved track not found")
				return
			}
			jsonError(w, http.StatusInternalServerError, "failed to update saved track")
			return
		}
		jsonResponse(w, http.StatusOK, map[string]string{"status": "updated"})
	}
}

func apiDeleteSavedTrack(database *db.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, _ := session.GetUserID(r.Context())
		id, ok := pathID(r)
		if !ok {
			jsonError(w, http.StatusBadRequest, "invalid track id")
			return
		}

		if err := database.DeleteSavedTrack(userID, id); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				jsonError(w, http.StatusNotFound, "saved track not found")
				return
			}
			jsonError(w, http.StatusInternalServerError, "failed to delete saved track")
			return
		}
		jsonResponse(w, http.StatusOK, map[string]string{"status": "deleted"})
	}
}

func apiAddToLibrary(spotifyService *spotify.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			TrackID string `json:"track_id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.TrackID == "" {
			jsonError(w, http.StatusBadRequest, "track_id required")
			return
		}

		token, isUserToken, err := spotifyService.TokenForRequest(r.Context())
		if err != nil || !isUserToken {
			jsonError(w, http.StatusForbidden, "a linked Spotify account is required to modify the library")
			return
		}

		if err := spotifyService.AddToLibrary(r.Context(), token, body.TrackID); err != nil {
			log.Printf("error adding track %s to spotify library: %v", body.TrackID, err)
			jsonError(w, http.StatusBadGateway, "failed to add track to Spotify library")
			return
		}
		jsonResponse(w, http.StatusOK, map[string]string{"status": "added"})
	}
}
