package integrations

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/AdPulseHQ/AdPulse/app/models"
	"github.com/AdPulseHQ/AdPulse/internal/pkg/adplatform"
)

func newTestVerifier(repo *memRepo, clients ...adplatform.Client) *Verifier {
	registry := adplatform.NewRegistry(clients...)
	return NewVerifier(repo, registry, newTestTokenManager(repo, registry))
}

func TestTestConnectionValidCredentials(t *testing.T) {
	client := &fakeClient{
		platform: models.PlatformTikTokAds,
		probeFn: func(string) ([]adplatform.Resource, error) {
			return []adplatform.Resource{
				{ID: "7000000001", Name: "Spring Push"},
				{ID: "7000000002", Name: "Evergreen"},
			}, nil
		},
	}
	repo := newMemRepo(models.Integration{
		ID:           1,
		UserID:       10,
		Platform:     models.PlatformTikTokAds,
		AccessToken:  "good",
		RefreshToken: "rt",
		ExpiresAt:    ptrTime(time.Now().Add(time.Hour)),
	})
	v := newTestVerifier(repo, client)

	res, err := v.TestConnection(context.Background(), 1, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Success {
		t.Fatalf("expected success, got %q", res.Message)
	}
	if res.Message != MsgConnected {
		t.Fatalf("message = %q", res.Message)
	}
	if res.Count != 2 || len(res.Resources) != 2 {
		t.Fatalf("count = %d, resources = %d", res.Count, len(res.Resources))
	}
	if n := atomic.LoadInt32(&client.refreshCalls); n != 0 {
		t.Fatalf("valid token must not be refreshed, got %d calls", n)
	}
}

// A stale token costs exactly one refresh and one probe, and the refreshed
// credential is persisted.
func TestTestConnectionRefreshesExpiredToken(t *testing.T) {
	client := &fakeClient{platform: models.PlatformGoogleAds}
	repo := newMemRepo(models.Integration{
		ID:           1,
		UserID:       10,
		Platform:     models.PlatformGoogleAds,
		AccessToken:  "expired",
		RefreshToken: "rt",
		ExpiresAt:    ptrTime(time.Now().Add(-time.Hour)),
	})
	v := newTestVerifier(repo, client)

	res, err := v.TestConnection(context.Background(), 1, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Success {
		t.Fatalf("expected success, got %q", res.Message)
	}
	if n := atomic.LoadInt32(&client.refreshCalls); n != 1 {
		t.Fatalf("refresh calls = %d, want 1", n)
	}
	if n := atomic.LoadInt32(&client.probeCalls); n != 1 {
		t.Fatalf("probe calls = %d, want 1", n)
	}

	stored, _ := repo.GetByID(1)
	if stored.AccessToken != "fresh-token" {
		t.Fatalf("refreshed token not persisted: %q", stored.AccessToken)
	}
}

func TestTestConnectionRevokedConsent(t *testing.T) {
	client := &fakeClient{
		platform: models.PlatformPinterestAds,
		refreshFn: func(string) (*adplatform.Token, error) {
			return nil, &adplatform.AuthError{Platform: models.PlatformPinterestAds, Detail: "consent revoked"}
		},
	}
	repo := newMemRepo(models.Integration{
		ID:           1,
		UserID:       10,
		Platform:     models.PlatformPinterestAds,
		AccessToken:  "stale",
		RefreshToken: "revoked",
		ExpiresAt:    ptrTime(time.Now().Add(-time.Hour)),
	})
	v := newTestVerifier(repo, client)

	res, err := v.TestConnection(context.Background(), 1, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Success {
		t.Fatalf("expected failure")
	}
	if res.Message != MsgReconnectNeeded {
		t.Fatalf("message = %q, want reconnect prompt", res.Message)
	}
	if n := atomic.LoadInt32(&client.probeCalls); n != 0 {
		t.Fatalf("probe must not run after a failed refresh, got %d calls", n)
	}

	stored, _ := repo.GetByID(1)
	if stored.RefreshToken != "revoked" || stored.AccessToken != "stale" {
		t.Fatalf("stored credentials must be untouched: %+v", stored)
	}
}

func TestTestConnectionRateLimited(t *testing.T) {
	client := &fakeClient{
		platform: models.PlatformMetaAds,
		probeFn: func(string) ([]adplatform.Resource, error) {
			return nil, &adplatform.RateLimitError{Platform: models.PlatformMetaAds}
		},
	}
	repo := newMemRepo(models.Integration{
		ID:           1,
		UserID:       10,
		Platform:     models.PlatformMetaAds,
		AccessToken:  "good",
		RefreshToken: "rt",
		ExpiresAt:    ptrTime(time.Now().Add(time.Hour)),
	})
	v := newTestVerifier(repo, client)

	res, err := v.TestConnection(context.Background(), 1, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Success || res.Message != MsgRateLimited {
		t.Fatalf("result = %+v, want rate limit message", res)
	}
}

func TestTestConnectionTransportFailure(t *testing.T) {
	client := &fakeClient{
		platform: models.PlatformGoogleAds,
		probeFn: func(string) ([]adplatform.Resource, error) {
			return nil, &adplatform.TransportError{Platform: models.PlatformGoogleAds, Detail: "status 503"}
		},
	}
	repo := newMemRepo(models.Integration{
		ID:           1,
		UserID:       10,
		Platform:     models.PlatformGoogleAds,
		AccessToken:  "good",
		RefreshToken: "rt",
		ExpiresAt:    ptrTime(time.Now().Add(time.Hour)),
	})
	v := newTestVerifier(repo, client)

	res, err := v.TestConnection(context.Background(), 1, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Success || res.Message != MsgTemporaryFailure {
		t.Fatalf("result = %+v, want temporary failure message", res)
	}
}

// Someone else's integration id reads as nonexistent, not as forbidden.
func TestTestConnectionForeignIntegration(t *testing.T) {
	client := &fakeClient{platform: models.PlatformGoogleAds}
	repo := newMemRepo(models.Integration{
		ID:          1,
		UserID:      10,
		Platform:    models.PlatformGoogleAds,
		AccessToken: "good",
		ExpiresAt:   ptrTime(time.Now().Add(time.Hour)),
	})
	v := newTestVerifier(repo, client)

	res, err := v.TestConnection(context.Background(), 1, 99)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Success || res.Message != MsgNotFound {
		t.Fatalf("result = %+v, want not-found message", res)
	}
	if n := atomic.LoadInt32(&client.probeCalls); n != 0 {
		t.Fatalf("probe must not run for a foreign integration")
	}
}

// An API-key platform verifies with the stored key and never touches the
// refresh path.
func TestTestConnectionAPIKeyCredential(t *testing.T) {
	var probedWith string
	client := &fakeClient{
		platform: models.PlatformGoogleAds,
		probeFn: func(token string) ([]adplatform.Resource, error) {
			probedWith = token
			return []adplatform.Resource{{ID: "123"}}, nil
		},
	}
	repo := newMemRepo(models.Integration{
		ID:       1,
		UserID:   10,
		Platform: models.PlatformGoogleAds,
		APIKey:   "static-key",
	})
	v := newTestVerifier(repo, client)

	res, err := v.TestConnection(context.Background(), 1, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Success {
		t.Fatalf("expected success, got %q", res.Message)
	}
	if probedWith != "static-key" {
		t.Fatalf("probe used %q, want the stored API key", probedWith)
	}
	if n := atomic.LoadInt32(&client.refreshCalls); n != 0 {
		t.Fatalf("API key integrations must not refresh")
	}
}
