package adplatform

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestGoogleClient(ts *httptest.Server) *GoogleAdsClient {
	return &GoogleAdsClient{
		ClientID:       "client-id",
		ClientSecret:   "client-secret",
		DeveloperToken: "dev-token",
		RedirectURI:    "https://app.example.com/callback",
		AuthorizeURL:   ts.URL + "/auth",
		TokenURL:       ts.URL + "/token",
		APIBaseURL:     ts.URL,
		HTTPClient:     ts.Client(),
	}
}

func TestGoogleAdsRefresh(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/token" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		if err := r.ParseForm(); err != nil {
			t.Fatalf("parse form: %v", err)
		}
		if got := r.PostForm.Get("grant_type"); got != "refresh_token" {
			t.Fatalf("grant_type = %q, want refresh_token", got)
		}
		if got := r.PostForm.Get("refresh_token"); got != "rt-1" {
			t.Fatalf("refresh_token = %q, want rt-1", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"at-1","expires_in":1800}`))
	}))
	defer ts.Close()

	tok, err := newTestGoogleClient(ts).Refresh(context.Background(), "rt-1")
	if err != nil {
		t.Fatalf("unexpected refresh error: %v", err)
	}
	if tok.AccessToken != "at-1" {
		t.Fatalf("access token = %q, want at-1", tok.AccessToken)
	}
	if tok.ExpiresIn != 1800 {
		t.Fatalf("expires_in = %d, want 1800 (provider value must win)", tok.ExpiresIn)
	}
}

func TestGoogleAdsRefreshRevokedGrant(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":"invalid_grant"}`))
	}))
	defer ts.Close()

	_, err := newTestGoogleClient(ts).Refresh(context.Background(), "revoked")
	if !IsAuthError(err) {
		t.Fatalf("expected AuthError for invalid_grant, got %v", err)
	}
}

func TestGoogleAdsRefreshServerError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer ts.Close()

	_, err := newTestGoogleClient(ts).Refresh(context.Background(), "rt-1")
	if !IsTransportError(err) {
		t.Fatalf("expected TransportError for 503, got %v", err)
	}
}

func TestGoogleAdsProbe(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer at-1" {
			t.Fatalf("authorization = %q", got)
		}
		if got := r.Header.Get("developer-token"); got != "dev-token" {
			t.Fatalf("developer-token = %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"resourceNames":["customers/111","customers/222"]}`))
	}))
	defer ts.Close()

	resources, err := newTestGoogleClient(ts).Probe(context.Background(), "at-1")
	if err != nil {
		t.Fatalf("unexpected probe error: %v", err)
	}
	if len(resources) != 2 {
		t.Fatalf("expected 2 customers, got %d", len(resources))
	}
	if resources[0].ID != "111" {
		t.Fatalf("first customer id = %q, want 111", resources[0].ID)
	}
}

func TestGoogleAdsProbeUnauthorized(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer ts.Close()

	_, err := newTestGoogleClient(ts).Probe(context.Background(), "expired")
	if !IsAuthError(err) {
		t.Fatalf("expected AuthError for 401, got %v", err)
	}
}

func TestGoogleAdsProbeRateLimited(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer ts.Close()

	_, err := newTestGoogleClient(ts).Probe(context.Background(), "at-1")
	if !IsRateLimitError(err) {
		t.Fatalf("expected RateLimitError for 429, got %v", err)
	}
}
