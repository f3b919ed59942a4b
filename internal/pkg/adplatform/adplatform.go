// Package adplatform contains one client per supported ad platform. Each
// client hides its platform's OAuth transport and response envelope behind
// the shared Client contract so the layers above never special-case a
// platform beyond picking the right implementation.
package adplatform

import (
	"context"
	"net/http"
	"time"
)

const defaultHTTPTimeout = 15 * time.Second

// DefaultTokenTTL is assumed when a token endpoint omits expires_in.
// Provider-returned lifetimes always win when present.
const DefaultTokenTTL = 3500 * time.Second

// Token is the normalized result of a refresh or code exchange.
type Token struct {
	AccessToken  string
	RefreshToken string // empty unless the platform rotated it
	ExpiresIn    int    // seconds; 0 means the platform did not say
}

// TTL returns the token lifetime, falling back to DefaultTokenTTL when the
// platform omitted expires_in.
func (t *Token) TTL() time.Duration {
	if t.ExpiresIn > 0 {
		return time.Duration(t.ExpiresIn) * time.Second
	}
	return DefaultTokenTTL
}

// Resource is one entry of a probe result: an ad account, advertiser or
// customer reachable with the verified credential.
type Resource struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
}

// Client is the uniform capability set implemented once per ad platform.
// All operations classify failures into the package error taxonomy
// (AuthError / RateLimitError / TransportError) and never surface raw
// provider payloads.
type Client interface {
	// Platform returns the models.Platform* identifier this client serves.
	Platform() string
	// AuthCodeURL builds the user consent redirect for the initial connect.
	AuthCodeURL(state string) string
	// ExchangeCode swaps an authorization code for the first token pair.
	ExchangeCode(ctx context.Context, code string) (*Token, error)
	// Refresh mints a new access token from a stored refresh token.
	Refresh(ctx context.Context, refreshToken string) (*Token, error)
	// Probe performs a cheap, side-effect-free call proving the access
	// token works and returns the reachable accounts.
	Probe(ctx context.Context, accessToken string) ([]Resource, error)
}

func newHTTPClient() *http.Client {
	return &http.Client{Timeout: defaultHTTPTimeout}
}
