package oauth

import (
	"net/http"

	"golang.org/x/oauth2"
)

// AuthService defines the interface for authentication services managed
// by the OAuthServiceManager.
type AuthService interface {
	// HandleLogin initiates the login flow for the specific service.
	HandleLogin(w http.ResponseWriter, r *http.Request)
	// HandleCallback handles the callback from the authentication provider,
	// exchanges the code for a token, finds or creates the user, and
	// returns the user ID. Returns 0 if authentication failed.
	HandleCallback(w http.ResponseWriter, r *http.Request) (int64, error)
}

type TokenReceiver interface {
	// SetUserToken stores the provider token for the user and returns the
	// user ID. If the caller already has a session, the current ID is
	// provided so the account can be linked instead of created.
	SetUserToken(token *oauth2.Token, currentID int64, hasSession bool) (int64, error)
}
