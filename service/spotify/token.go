package spotify

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/jaz35-hue/soundmatch/models"
	"github.com/jaz35-hue/soundmatch/session"
)

// Tokens are refreshed this long before they actually expire, so a
// request never goes out with a token about to die mid-flight.
const tokenExpiryMargin = 5 * time.Minute

// tokenCache holds the client-credentials token shared by every
// request that has no logged-in user behind it. Refresh runs under the
// lock: concurrent callers wait rather than racing duplicate exchanges.
type tokenCache struct {
	mu        sync.Mutex
	token     string
	expiresAt time.Time
}

// AppToken returns a valid client-credentials token, exchanging
// credentials when the cached one is missing or inside the expiry
// margin. Failure is non-fatal to callers: they degrade per the error
// policy instead of surfacing it.
func (s *Service) AppToken(ctx context.Context) (string, error) {
	s.tokens.mu.Lock()
	defer s.tokens.mu.Unlock()

	now := time.Now().UTC()
	if s.tokens.token != "" && now.Before(s.tokens.expiresAt.Add(-tokenExpiryMargin)) {
		return s.tokens.token, nil
	}

	if s.clientID == "" || s.clientSecret == "" {
		return "", fmt.Errorf("missing spotify credentials")
	}

	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	form.Set("client_id", s.clientID)
	form.Set("client_secret", s.clientSecret)

	token, expiresIn, _, err := s.exchangeToken(ctx, form)
	if err != nil {
		return "", err
	}

	s.tokens.token = token
	s.tokens.expiresAt = now.Add(time.Duration(expiresIn) * time.Second)
	s.logger.Printf("cached new app access token (expires in %ds)", expiresIn)

	return token, nil
}

// userToken returns a valid access token for a logged-in user,
// refreshing through the refresh-token grant when the stored one is
// expired or about to be. Returns an error when the user never linked
// Spotify or the refresh fails; callers fall back to the app token.
func (s *Service) userToken(ctx context.Context, user *models.User) (string, error) {
	if user == nil || user.RefreshToken == nil || *user.RefreshToken == "" {
		return "", fmt.Errorf("user has no spotify refresh token")
	}

	if user.AccessToken != nil && user.TokenExpiry != nil &&
		time.Now().UTC().Before(user.TokenExpiry.UTC().Add(-tokenExpiryMargin)) {
		return *user.AccessToken, nil
	}

	s.logger.Printf("refreshing spotify token for user %d", user.ID)

	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", *user.RefreshToken)
	form.Set("client_id", s.clientID)
	form.Set("client_secret", s.clientSecret)

	token, expiresIn, newRefresh, err := s.exchangeToken(ctx, form)
	if err != nil {
		return "", err
	}

	// Spotify does not always rotate the refresh token.
	refresh := *user.RefreshToken
	if newRefresh != "" {
		refresh = newRefresh
	}

	expiry := time.Now().UTC().Add(time.Duration(expiresIn) * time.Second)
	if err := s.db.UpdateUserToken(user.ID, token, refresh, expiry); err != nil {
		s.logger.Printf("error persisting refreshed token for user %d: %v", user.ID, err)
	}

	return token, nil
}

// TokenForRequest picks the best available token: the session user's if
// one is logged in and refreshable, the shared app token otherwise. The
// second return reports whether a user token was chosen.
func (s *Service) TokenForRequest(ctx context.Context) (string, bool, error) {
	if userID, ok := session.GetUserID(ctx); ok && s.db != nil {
		user, err := s.db.GetUserByID(userID)
		if err == nil && user != nil {
			if token, err := s.userToken(ctx, user); err == nil {
				return token, true, nil
			}
		}
	}

	token, err := s.AppToken(ctx)
	if err != nil {
		return "", false, err
	}
	return token, false, nil
}

func (s *Service) exchangeToken(ctx context.Context, form url.Values) (token string, expiresIn int, refresh string, err error) {
	header := http.Header{}
	header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.client.do(ctx, http.MethodPost, s.tokenURL, header, nil, []byte(form.Encode()))
	if err != nil {
		return "", 0, "", fmt.Errorf("token exchange unavailable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", 0, "", fmt.Errorf("token exchange failed: status %d", resp.StatusCode)
	}

	var tr tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return "", 0, "", fmt.Errorf("failed to decode token response: %w", err)
	}

	expiresIn = tr.ExpiresIn
	if expiresIn <= 0 {
		expiresIn = 3600 // Spotify tokens last ~1 hour
	}

	return tr.AccessToken, expiresIn, tr.RefreshToken, nil
}
