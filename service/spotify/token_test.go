package spotify

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
)

func tokenTestService(t *testing.T, expiresIn int) (*Service, *atomic.Int32) {
	t.Helper()

	var exchanges atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("token exchange used %s, want POST", r.Method)
		}
		if err := r.ParseForm(); err != nil {
			t.Fatalf("failed to parse form: %v", err)
		}
		if got := r.PostForm.Get("grant_type"); got != "client_credentials" {
			t.Errorf("grant_type = %q, want client_credentials", got)
		}
		n := exchanges.Add(1)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"access_token":"token-%d","expires_in":%d}`, n, expiresIn)
	}))
	t.Cleanup(server.Close)

	svc := NewService(nil, "client-id", "client-secret").WithEndpoints(server.URL, server.URL)
	return svc, &exchanges
}

func TestAppTokenCached(t *testing.T) {
	svc, exchanges := tokenTestService(t, 3600)

	first, err := svc.AppToken(context.Background())
	if err != nil {
		t.Fatalf("AppToken: %v", err)
	}
	second, err := svc.AppToken(context.Background())
	if err != nil {
		t.Fatalf("AppToken: %v", err)
	}

	if first != second {
		t.Errorf("cached token changed: %q then %q", first, second)
	}
	if got := exchanges.Load(); got != 1 {
		t.Errorf("exchange count = %d, want 1 (second call served from cache)", got)
	}
}

func TestAppTokenRefreshesInsideExpiryMargin(t *testing.T) {
	// 60s lifetime is already inside the 5-minute safety margin, so
	// every call must re-exchange.
	svc, exchanges := tokenTestService(t, 60)

	if _, err := svc.AppToken(context.Background()); err != nil {
		t.Fatalf("AppToken: %v", err)
	}
	if _, err := svc.AppToken(context.Background()); err != nil {
		t.Fatalf("AppToken: %v", err)
	}

	if got := exchanges.Load(); got != 2 {
		t.Errorf("exchange count = %d, want 2 (token always inside margin)", got)
	}
}

func TestAppTokenConcurrentCallersShareOneExchange(t *testing.T) {
	svc, exchanges := tokenTestService(t, 3600)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.AppToken(context.Background()); err != nil {
				t.Errorf("AppToken: %v", err)
			}
		}()
	}
	wg.Wait()

	if got := exchanges.Load(); got != 1 {
		t.Errorf("exchange count = %d, want 1 under concurrent callers", got)
	}
}

func TestAppTokenMissingCredentials(t *testing.T) {
	svc := NewService(nil, "", "").WithEndpoints("http://unused", "http://unused")
	if _, err := svc.AppToken(context.Background()); err == nil {
		t.Fatal("expected error with no credentials configured")
	}
}
