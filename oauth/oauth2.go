package oauth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/spotify"

	"github.com/jaz35-hue/soundmatch/session"
)

// OAuth2Service represents an OAuth2 service with PKCE support
type OAuth2Service struct {
	config        oauth2.Config
	state         string
	codeVerifier  string
	codeChallenge string
	tokenReceiver TokenReceiver
}

// generateRandomState creates a random state string for CSRF protection
func generateRandomState() string {
	b := make([]byte, 16)
	rand.Read(b)
	return base64.URLEncoding.EncodeToString(b)
}

// NewOAuth2Service creates a new OAuth2Service with PKCE support
func NewOAuth2Service(clientID, clientSecret, redirectURI string, scopes []string, provider string, tokenReceiver TokenReceiver) *OAuth2Service {
	var endpoint oauth2.Endpoint

	switch strings.ToLower(provider) {
	case "spotify":
		endpoint = spotify.Endpoint
	default:
		// Use custom endpoints if not a predefined provider
		endpoint = oauth2.Endpoint{
			AuthURL:  "https://example.com/auth",
			TokenURL: "https://example.com/token",
		}
	}

	codeVerifier := generateCodeVerifier()
	codeChallenge := generateCodeChallenge(codeVerifier)

	return &OAuth2Service{
		config: oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURI,
			Scopes:       scopes,
			Endpoint:     endpoint,
		},
		state:         generateRandomState(),
		codeVerifier:  codeVerifier,
		codeChallenge: codeChallenge,
		tokenReceiver: tokenReceiver,
	}
}

// generateCodeVerifier creates a random code verifier for PKCE
func generateCodeVerifier() string {
	// Random string of 32-96 bytes as per RFC 7636
	b := make([]byte, 64)
	rand.Read(b)
	return base64.RawURLEncoding.EncodeToString(b)
}

// generateCodeChallenge creates a code challenge using the S256 method
func generateCodeChallenge(verifier string) string {
	h := sha256.New()
	h.Write([]byte(verifier))
	return base64.RawURLEncoding.EncodeToString(h.Sum(nil))
}

// HandleLogin redirects the user to the authorization page with PKCE
func (o *OAuth2Service) HandleLogin(w http.ResponseWriter, r *http.Request) {
	opts := []oauth2.AuthCodeOption{
		oauth2.SetAuthURLParam("code_challenge", o.codeChallenge),
		oauth2.SetAuthURLParam("code_challenge_method", "S256"),
	}

	authURL := o.config.AuthCodeURL(o.state, opts...)
	http.Redirect(w, r, authURL, http.StatusSeeOther)
}

// HandleCallback processes the callback from the OAuth provider using PKCE
func (o *OAuth2Service) HandleCallback(w http.ResponseWriter, r *http.Request) (int64, error) {
	state := r.URL.Query().Get("state")
	if state != o.state {
		return 0, fmt.Errorf("state mismatch")
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		return 0, fmt.Errorf("no code provided")
	}

	opts := []oauth2.AuthCodeOption{
		oauth2.SetAuthURLParam("code_verifier", o.codeVerifier),
	}

	token, err := o.config.Exchange(r.Context(), code, opts...)
	if err != nil {
		return 0, fmt.Errorf("error exchanging code for token: %w", err)
	}

	currentID, hasSession := session.GetUserID(r.Context())

	userID, err := o.tokenReceiver.SetUserToken(token, currentID, hasSession)
	if err != nil {
		return 0, err
	}

	return userID, nil
}
