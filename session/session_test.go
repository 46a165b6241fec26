package session

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jaz35-hue/soundmatch/db"
)

func setupSessionManager(t *testing.T) (*SessionManager, *db.DB) {
	database, err := db.New(":memory:")
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}
	if err := database.Initialize(); err != nil {
		t.Fatalf("Failed to initialize test database: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	return NewSessionManager(database), database
}

func TestSessionRoundTrip(t *testing.T) {
	sm, _ := setupSessionManager(t)

	created := sm.CreateSession(42)
	if created.ID == "" {
		t.Fatal("session has no id")
	}
	if !created.ExpiresAt.After(time.Now().UTC()) {
		t.Errorf("new session already expired at %v", created.ExpiresAt)
	}

	got, ok := sm.GetSession(created.ID)
	if !ok {
		t.Fatal("freshly created session not found")
	}
	if got.UserID != 42 {
		t.Errorf("UserID = %d, want 42", got.UserID)
	}

	if _, ok := sm.GetSession("no-such-session"); ok {
		t.Error("unknown session id resolved")
	}
}

func TestSessionSurvivesCacheLoss(t *testing.T) {
	sm, database := setupSessionManager(t)
	created := sm.CreateSession(7)

	// A second manager over the same database simulates a process
	// restart: the in-memory cache is gone, the row is not.
	restarted := NewSessionManager(database)
	got, ok := restarted.GetSession(created.ID)
	if !ok {
		t.Fatal("session not recovered from database")
	}
	if got.UserID != 7 {
		t.Errorf("UserID = %d, want 7", got.UserID)
	}
}

func TestExpiredSessionRejected(t *testing.T) {
	sm, database := setupSessionManager(t)
	past := time.Now().UTC().Add(-time.Hour)

	// Expired while cached.
	cached := sm.CreateSession(1)
	cached.ExpiresAt = past
	if _, ok := sm.GetSession(cached.ID); ok {
		t.Error("expired cached session resolved")
	}

	// Expired in the table, cache cold.
	stored := sm.CreateSession(2)
	if _, err := database.Exec("UPDATE sessions SET expires_at = ? WHERE id = ?", past, stored.ID); err != nil {
		t.Fatalf("failed to age session row: %v", err)
	}
	sm.mu.Lock()
	delete(sm.sessions, stored.ID)
	sm.mu.Unlock()
	if _, ok := sm.GetSession(stored.ID); ok {
		t.Error("expired stored session resolved")
	}

	// Lazy expiry removes the rows for good.
	var count int
	if err := database.QueryRow("SELECT COUNT(*) FROM sessions").Scan(&count); err != nil {
		t.Fatalf("count query: %v", err)
	}
	if count != 0 {
		t.Errorf("%d expired session rows survived lookup", count)
	}
}

func TestWithAPIAuth(t *testing.T) {
	sm, _ := setupSessionManager(t)
	sess := sm.CreateSession(42)

	handler := WithAPIAuth(func(w http.ResponseWriter, r *http.Request) {
		userID, ok := GetUserID(r.Context())
		if !ok || userID != 42 {
			t.Errorf("handler saw userID %d (ok=%t), want 42", userID, ok)
		}
		w.WriteHeader(http.StatusOK)
	}, sm)

	tests := []struct {
		name       string
		cookie     *http.Cookie
		wantStatus int
	}{
		{"no cookie", nil, http.StatusUnauthorized},
		{"bogus cookie", &http.Cookie{Name: "session", Value: "bogus"}, http.StatusUnauthorized},
		{"valid cookie", &http.Cookie{Name: "session", Value: sess.ID}, http.StatusOK},
	}

	for _, tt := range tests {
		r := httptest.NewRequest(http.MethodGet, "/api/v1/me", nil)
		if tt.cookie != nil {
			r.AddCookie(tt.cookie)
		}
		w := httptest.NewRecorder()

		handler(w, r)

		if w.Code != tt.wantStatus {
			t.Errorf("%s: status = %d, want %d", tt.name, w.Code, tt.wantStatus)
		}
		if tt.wantStatus == http.StatusUnauthorized {
			if ct := w.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("%s: Content-Type = %q, want application/json", tt.name, ct)
			}
		}
	}
}

func TestWithPossibleAuth(t *testing.T) {
	sm, _ := setupSessionManager(t)
	sess := sm.CreateSession(9)

	var sawAuth bool
	var sawUserID int64
	handler := WithPossibleAuth(func(w http.ResponseWriter, r *http.Request) {
		sawAuth = IsAuthenticated(r.Context())
		sawUserID, _ = GetUserID(r.Context())
		w.WriteHeader(http.StatusOK)
	}, sm)

	// Anonymous request still reaches the handler.
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()
	handler(w, r)
	if w.Code != http.StatusOK {
		t.Fatalf("anonymous status = %d, want 200", w.Code)
	}
	if sawAuth {
		t.Error("anonymous request marked authenticated")
	}

	r = httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(&http.Cookie{Name: "session", Value: sess.ID})
	w = httptest.NewRecorder()
	handler(w, r)
	if !sawAuth {
		t.Error("session-carrying request not marked authenticated")
	}
	if sawUserID != 9 {
		t.Errorf("handler saw userID %d, want 9", sawUserID)
	}
}

func TestHandleLogout(t *testing.T) {
	sm, _ := setupSessionManager(t)
	sess := sm.CreateSession(3)

	r := httptest.NewRequest(http.MethodGet, "/logout", nil)
	r.AddCookie(&http.Cookie{Name: "session", Value: sess.ID})
	w := httptest.NewRecorder()

	sm.HandleLogout(w, r)

	if w.Code != http.StatusSeeOther {
		t.Errorf("status = %d, want 303", w.Code)
	}
	if _, ok := sm.GetSession(sess.ID); ok {
		t.Error("session survived logout")
	}

	cleared := false
	for _, c := range w.Result().Cookies() {
		if c.Name == "session" && c.MaxAge < 0 {
			cleared = true
		}
	}
	if !cleared {
		t.Error("session cookie not cleared")
	}
}
