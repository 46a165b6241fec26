package main

import (
	"net/http"

	"github.com/justinas/alice"
	"github.com/jaz35-hue/soundmatch/session"
)

func (app *application) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/", session.WithPossibleAuth(home(app.database), app.sessionManager))

	// OAuth routes
	mux.HandleFunc("/login/spotify", app.oauthManager.HandleLogin("spotify"))
	mux.HandleFunc("/callback/spotify", session.WithPossibleAuth(app.oauthManager.HandleCallback("spotify"), app.sessionManager))
	mux.HandleFunc("/logout", app.sessionManager.HandleLogout)

	// Public API: anyone can discover music. Logged-in callers get the
	// same endpoints with their own Spotify token behind the scenes.
	mux.HandleFunc("POST /api/public/recommendations", session.WithPossibleAuth(apiRecommendations(app), app.sessionManager))
	mux.HandleFunc("GET /api/public/search/artists", session.WithPossibleAuth(apiSearchArtists(app.spotifyService), app.sessionManager))
	mux.HandleFunc("GET /api/public/search/tracks", session.WithPossibleAuth(apiSearchTracks(app.spotifyService), app.sessionManager))
	mux.HandleFunc("GET /api/public/artist/{id}", session.WithPossibleAuth(apiGetArtist(app.spotifyService), app.sessionManager))
	mux.HandleFunc("GET /api/public/artist/{id}/related", session.WithPossibleAuth(apiRelatedArtists(app.spotifyService), app.sessionManager))
	mux.HandleFunc("GET /api/public/artist/{id}/top-tracks", session.WithPossibleAuth(apiArtistTopTracks(app.spotifyService), app.sessionManager))
	mux.HandleFunc("GET /api/public/genres", apiGenres())

	// Authenticated API
	mux.HandleFunc("GET /api/v1/me", session.WithAPIAuth(apiMeHandler(app.database), app.sessionManager))

	mux.HandleFunc("GET /api/v1/preferences", session.WithAPIAuth(apiGetPreferences(app.database), app.sessionManager))
	mux.HandleFunc("PUT /api/v1/preferences", session.WithAPIAuth(apiUpsertPreferences(app.database), app.sessionManager))
	mux.HandleFunc("DELETE /api/v1/preferences", session.WithAPIAuth(apiDeletePreferences(app.database), app.sessionManager))

	mux.HandleFunc("GET /api/v1/recommendations/history", session.WithAPIAuth(apiRecommendationHistory(app.database), app.sessionManager))
	mux.HandleFunc("GET /api/v1/recommendations/history/{id}", session.WithAPIAuth(apiGetRecommendation(app.database), app.sessionManager))
	mux.HandleFunc("POST /api/v1/recommendations/{id}/rate", session.WithAPIAuth(apiRateRecommendation(app.database), app.sessionManager))
	mux.HandleFunc("POST /api/v1/recommendations/{id}/save", session.WithAPIAuth(apiSaveRecommendation(app), app.sessionManager))
	mux.HandleFunc("POST /api/v1/recommendations/{id}/dismiss", session.WithAPIAuth(apiDismissRecommendation(app.database), app.sessionManager))
	mux.HandleFunc("DELETE /api/v1/recommendations/history/{id}", session.WithAPIAuth(apiDeleteRecommendation(app.database), app.sessionManager))

	mux.HandleFunc("GET /api/v1/saved-tracks", session.WithAPIAuth(apiGetSavedTracks(app.database), app.sessionManager))
	mux.HandleFunc("GET /api/v1/saved-tracks/{id}", session.WithAPIAuth(apiGetSavedTrack(app.database), app.sessionManager))
	mux.HandleFunc("POST /api/v1/saved-tracks", session.WithAPIAuth(apiSaveTrack(app), app.sessionManager))
	mux.HandleFunc("PUT /api/v1/saved-tracks/{id}", session.WithAPIAuth(apiUpdateSavedTrack(app.database), app.sessionManager))
	mux.HandleFunc("DELETE /api/v1/saved-tracks/{id}", session.WithAPIAuth(apiDeleteSavedTrack(app.database), app.sessionManager))

	mux.HandleFunc("POST /api/v1/spotify/add-to-library", session.WithAPIAuth(apiAddToLibrary(app.spotifyService), app.sessionManager))

	standard := alice.New(recoverPanic, logRequest, commonHeaders)
	return standard.Then(mux)
}
