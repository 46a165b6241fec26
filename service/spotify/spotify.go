// Package spotify is the metadata provider client: catalog search,
// artist records, audio features, and the token plumbing behind them.
// It never decides business-level success; empty results and errors are
// for the orchestrator to interpret.
package spotify

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
	"golang.org/x/oauth2"

	"github.com/jaz35-hue/soundmatch/db"
	"github.com/jaz35-hue/soundmatch/models"
)

const audioFeaturesBatchSize = 100

type Service struct {
	db           *db.DB
	client       *requestClient
	logger       *log.Logger
	apiURL       string
	tokenURL     string
	clientID     string
	clientSecret string
	market       string
	tokens       tokenCache
}

func NewService(database *db.DB, clientID, clientSecret string) *Service {
	logger := log.New(os.Stdout, "spotify: ", log.LstdFlags|log.Lmsgprefix)
	return &Service{
		db:           database,
		client:       newRequestClient(logger),
		logger:       logger,
		apiURL:       viper.GetString("spotify.api_url"),
		tokenURL:     viper.GetString("spotify.token_url"),
		clientID:     clientID,
		clientSecret: clientSecret,
		market:       viper.GetString("spotify.market"),
	}
}

// WithEndpoints overrides the provider URLs. Used by tests to point the
// client at a local fake.
func (s *Service) WithEndpoints(apiURL, tokenURL string) *Service {
	s.apiURL = apiURL
	s.tokenURL = tokenURL
	return s
}

// Market returns the configured storefront market code.
func (s *Service) Market() string {
	return s.market
}

// getJSON performs an authenticated GET and decodes the body into out.
// The returned status is the final HTTP status, 0 when the provider was
// unreachable.
func (s *Service) getJSON(ctx context.Context, token, path string, params url.Values, out any) (int, error) {
	header := http.Header{}
	header.Set("Authorization", "Bearer "+token)

	resp, err := s.client.do(ctx, http.MethodGet, s.apiURL+path, header, params, nil)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return resp.StatusCode, fmt.Errorf("spotify API error: status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return resp.StatusCode, fmt.Errorf("failed to decode response: %w", err)
	}

	return resp.StatusCode, nil
}

// SearchTracks searches the catalog for tracks matching query.
func (s *Service) SearchTracks(ctx context.Context, token, query string, limit int) ([]*models.Track, error) {
	if limit > 50 {
		limit = 50
	}
	params := url.Values{}
	params.Set("q", query)
	params.Set("type", "track")
	params.Set("limit", strconv.Itoa(limit))

	var result searchResponse
	if _, err := s.getJSON(ctx, token, "/search", params, &result); err != nil {
		return nil, err
	}

	tracks := make([]*models.Track, 0, len(result.Tracks.Items))
	for i := range result.Tracks.Items {
		if track := Normalize(&result.Tracks.Items[i]); track != nil {
			tracks = append(tracks, track)
		}
	}

	return tracks, nil
}

// SearchArtists searches the catalog for artists matching query.
func (s *Service) SearchArtists(ctx context.Context, token, query string, limit int) ([]*models.ArtistInfo, error) {
	if limit > 50 {
		limit = 50
	}
	params := url.Values{}
	params.Set("q", query)
	params.Set("type", "artist")
	params.Set("limit", strconv.Itoa(limit))

	var result searchResponse
	if _, err := s.getJSON(ctx, token, "/search", params, &result); err != nil {
		return nil, err
	}

	artists := make([]*models.ArtistInfo, 0, len(result.Artists.Items))
	for i := range result.Artists.Items {
		artists = append(artists, result.Artists.Items[i].toInfo())
	}

	return artists, nil
}

// GetTrack fetches a single track by ID.
func (s *Service) GetTrack(ctx context.Context, token, trackID string) (*models.Track, error) {
	var raw RawTrack
	if _, err := s.getJSON(ctx, token, "/tracks/"+trackID, nil, &raw); err != nil {
		return nil, err
	}

	track := Normalize(&raw)
	if track == nil {
		return nil, fmt.Errorf("track %s has no id", trackID)
	}
	return track, nil
}

// GetArtist fetches a single artist record by ID.
func (s *Service) GetArtist(ctx context.Context, token, artistID string) (*models.ArtistInfo, error) {
	var raw rawArtistFull
	if _, err := s.getJSON(ctx, token, "/artists/"+artistID, nil, &raw); err != nil {
		return nil, err
	}
	return raw.toInfo(), nil
}

// GetArtistGenres returns an artist's genre labels. Spotify leaves the
// field empty for plenty of artists; when that happens we retry through
// artist search, which sometimes carries the genres the direct record
// lacks.
func (s *Service) GetArtistGenres(ctx context.Context, token, artistID string) ([]string, error) {
	artist, err := s.GetArtist(ctx, token, artistID)
	if err != nil {
		return nil, err
	}

	if len(artist.Genres) > 0 {
		return artist.Genres, nil
	}

	if artist.Name == "" {
		return nil, nil
	}

	found, err := s.SearchArtists(ctx, token, fmt.Sprintf("artist:%q", artist.Name), 1)
	if err != nil || len(found) == 0 {
		return nil, nil
	}
	return found[0].Genres, nil
}

// GetArtistTopTracks fetches an artist's top tracks for a market.
func (s *Service) GetArtistTopTracks(ctx context.Context, token, artistID, market string) ([]*models.Track, error) {
	if market == "" {
		market = s.market
	}
	params := url.Values{}
	params.Set("market", market)

	var result topTracksResponse
	if _, err := s.getJSON(ctx, token, "/artists/"+artistID+"/top-tracks", params, &result); err != nil {
		return nil, err
	}

	tracks := make([]*models.Track, 0, len(result.Tracks))
	for i := range result.Tracks {
		if track := Normalize(&result.Tracks[i]); track != nil {
			tracks = append(tracks, track)
		}
	}

	return tracks, nil
}

// GetAudioFeatures fetches audio attributes for the given track IDs,
// batching at the provider's limit of 100 ids per call. Tracks the
// provider has no data for come back as nulls and are skipped.
func (s *Service) GetAudioFeatures(ctx context.Context, token string, trackIDs []string) ([]*models.AudioFeatures, error) {
	var features []*models.AudioFeatures

	for start := 0; start < len(trackIDs); start += audioFeaturesBatchSize {
		end := start + audioFeaturesBatchSize
		if end > len(trackIDs) {
			end = len(trackIDs)
		}

		params := url.Values{}
		params.Set("ids", strings.Join(trackIDs[start:end], ","))

		var result audioFeaturesResponse
		if _, err := s.getJSON(ctx, token, "/audio-features", params, &result); err != nil {
			return features, err
		}

		for _, f := range result.AudioFeatures {
			if f != nil && f.ID != "" {
				features = append(features, f)
			}
		}
	}

	return features, nil
}

// GetRelatedArtists fetches the related-artists signal. The endpoint is
// gone for newer applications, so a 404 is an empty result rather than
// an error.
func (s *Service) GetRelatedArtists(ctx context.Context, token, artistID string) ([]*models.ArtistInfo, error) {
	var result relatedArtistsResponse
	status, err := s.getJSON(ctx, token, "/artists/"+artistID+"/related-artists", nil, &result)
	if err != nil {
		if status == http.StatusNotFound {
			s.logger.Printf("related-artists endpoint unavailable (404), continuing without it")
			return nil, nil
		}
		return nil, err
	}

	artists := make([]*models.ArtistInfo, 0, len(result.Artists))
	for i := range result.Artists {
		artists = append(artists, result.Artists[i].toInfo())
	}

	return artists, nil
}

// AddToLibrary saves a track into the user's Spotify library. Requires
// a user token with the user-library-modify scope.
func (s *Service) AddToLibrary(ctx context.Context, token, trackID string) error {
	body, err := json.Marshal(map[string][]string{"ids": {trackID}})
	if err != nil {
		return err
	}

	header := http.Header{}
	header.Set("Authorization", "Bearer "+token)
	header.Set("Content-Type", "application/json")

	resp, err := s.client.do(ctx, http.MethodPut, s.apiURL+"/me/tracks", header, nil, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusNoContent {
		return fmt.Errorf("spotify API error: status %d", resp.StatusCode)
	}

	return nil
}

// SetUserToken implements oauth.TokenReceiver: it resolves the Spotify
// profile behind a fresh user token and creates or updates the matching
// local user.
func (s *Service) SetUserToken(token *oauth2.Token, currentID int64, hasSession bool) (int64, error) {
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	profile, err := s.fetchProfile(ctx, token.AccessToken)
	if err != nil {
		return 0, fmt.Errorf("error fetching spotify profile: %w", err)
	}

	expiry := token.Expiry.UTC()
	if expiry.IsZero() {
		expiry = time.Now().UTC().Add(time.Hour) // Spotify tokens last ~1 hour
	}

	user, err := s.db.GetUserBySpotifyID(profile.ID)
	if err != nil {
		return 0, err
	}

	if user == nil {
		username := profile.DisplayName
		if username == "" {
			username = profile.ID
		}
		newUser := &models.User{
			Username:     username,
			Email:        &profile.Email,
			SpotifyID:    &profile.ID,
			AccessToken:  &token.AccessToken,
			RefreshToken: &token.RefreshToken,
			TokenExpiry:  &expiry,
		}
		userID, err := s.db.CreateUser(newUser)
		if err != nil {
			return 0, err
		}
		s.logger.Printf("created user %d for spotify account %s", userID, profile.ID)
		return userID, nil
	}

	if err := s.db.UpdateUserToken(user.ID, token.AccessToken, token.RefreshToken, expiry); err != nil {
		s.logger.Printf("error updating token for user %d: %v", user.ID, err)
	}

	return user.ID, nil
}

func (s *Service) fetchProfile(ctx context.Context, token string) (*profileResponse, error) {
	var profile profileResponse
	if _, err := s.getJSON(ctx, token, "/me", nil, &profile); err != nil {
		return nil, err
	}
	if profile.ID == "" {
		return nil, fmt.Errorf("spotify profile has no id")
	}
	return &profile, nil
}
