package adplatform

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/AdPulseHQ/AdPulse/app/models"
	"github.com/AdPulseHQ/AdPulse/internal/pkg/env"
)

const (
	defaultMetaAuthorizeURL = "https://www.facebook.com/v19.0/dialog/oauth"
	defaultMetaAPIBaseURL   = "https://graph.facebook.com/v19.0"

	metaAdsScope      = "ads_read,ads_management"
	instagramScope    = "instagram_basic,pages_show_list"
	metaAdsProbePath  = "/me/adaccounts"
	instagramProbeURL = "/me/accounts"
)

// MetaClient talks to the Meta Graph API and serves both meta_ads and
// instagram integrations (same app, different scopes and probe endpoints).
// Meta has no classic refresh token: long-lived tokens are renewed by
// exchanging the current token via the fb_exchange_token grant, so the
// stored "refresh token" is the previous long-lived token.
type MetaClient struct {
	AppID       string
	AppSecret   string
	RedirectURI string

	AuthorizeURL string
	APIBaseURL   string

	HTTPClient *http.Client

	platform  string
	scope     string
	probePath string
}

// NewMetaAdsClientFromEnv builds the process-wide Meta Ads client from
// environment configuration.
func NewMetaAdsClientFromEnv() *MetaClient {
	c := newMetaClientFromEnv(models.PlatformMetaAds)
	c.scope = metaAdsScope
	c.probePath = metaAdsProbePath
	return c
}

// NewInstagramClientFromEnv builds the process-wide Instagram client from
// environment configuration.
func NewInstagramClientFromEnv() *MetaClient {
	c := newMetaClientFromEnv(models.PlatformInstagram)
	c.scope = instagramScope
	c.probePath = instagramProbeURL
	return c
}

func newMetaClientFromEnv(platform string) *MetaClient {
	base := strings.TrimRight(env.GetEnv("PUBLIC_DOMAIN", ""), "/")
	redirectURI := strings.TrimSpace(env.GetEnv("META_REDIRECT_URI", ""))
	if redirectURI == "" && base != "" {
		redirectURI = base + "/api/v1/integrations/callback/" + platform
	}

	return &MetaClient{
		AppID:        strings.TrimSpace(env.GetEnv("META_APP_ID", "")),
		AppSecret:    strings.TrimSpace(env.GetEnv("META_APP_SECRET", "")),
		RedirectURI:  redirectURI,
		AuthorizeURL: strings.TrimSpace(env.GetEnv("META_AUTHORIZE_URL", defaultMetaAuthorizeURL)),
		APIBaseURL:   strings.TrimSpace(env.GetEnv("META_API_BASE_URL", defaultMetaAPIBaseURL)),
		HTTPClient:   newHTTPClient(),
		platform:     platform,
	}
}

func (c *MetaClient) Platform() string { return c.platform }

func (c *MetaClient) AuthCodeURL(state string) string {
	u, err := url.Parse(c.AuthorizeURL)
	if err != nil {
		return ""
	}
	q := u.Query()
	q.Set("response_type", "code")
	q.Set("client_id", c.AppID)
	q.Set("redirect_uri", c.RedirectURI)
	q.Set("scope", c.scope)
	q.Set("state", state)
	u.RawQuery = q.Encode()
	return u.String()
}

func (c *MetaClient) ExchangeCode(ctx context.Context, code string) (*Token, error) {
	form := url.Values{}
	form.Set("client_id", c.AppID)
	form.Set("client_secret", c.AppSecret)
	form.Set("redirect_uri", c.RedirectURI)
	form.Set("code", strings.TrimSpace(code))
	tok, err := c.tokenRequest(ctx, form)
	if err != nil {
		return nil, err
	}
	// Immediately trade the short-lived code token for a long-lived one so
	// the stored credential survives beyond an hour.
	longLived, err := c.Refresh(ctx, tok.AccessToken)
	if err != nil {
		return tok, nil
	}
	return longLived, nil
}

// Refresh exchanges the current long-lived token for a fresh one.
func (c *MetaClient) Refresh(ctx context.Context, refreshToken string) (*Token, error) {
	form := url.Values{}
	form.Set("grant_type", "fb_exchange_token")
	form.Set("client_id", c.AppID)
	form.Set("client_secret", c.AppSecret)
	form.Set("fb_exchange_token", refreshToken)
	tok, err := c.tokenRequest(ctx, form)
	if err != nil {
		return nil, err
	}
	// The new token is also the next exchange credential.
	tok.RefreshToken = tok.AccessToken
	return tok, nil
}

func (c *MetaClient) tokenRequest(ctx context.Context, form url.Values) (*Token, error) {
	u := strings.TrimRight(c.APIBaseURL, "/") + "/oauth/access_token?" + form.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, classifyTransport(c.platform, err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// Graph answers 400 with an OAuthException for dead tokens.
		if resp.StatusCode == http.StatusBadRequest {
			return nil, &AuthError{Platform: c.platform, Detail: "token exchange rejected"}
		}
		return nil, classifyStatus(c.platform, resp.StatusCode)
	}

	var out struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, &TransportError{Platform: c.platform, Detail: "malformed token response", Err: err}
	}
	if strings.TrimSpace(out.AccessToken) == "" {
		return nil, &AuthError{Platform: c.platform, Detail: "token response missing access_token"}
	}
	return &Token{AccessToken: out.AccessToken, ExpiresIn: out.ExpiresIn}, nil
}

// Probe lists the ad accounts (meta_ads) or linked pages (instagram)
// reachable with the token.
func (c *MetaClient) Probe(ctx context.Context, accessToken string) ([]Resource, error) {
	u, err := url.Parse(strings.TrimRight(c.APIBaseURL, "/") + c.probePath)
	if err != nil {
		return nil, err
	}
	q := u.Query()
	q.Set("fields", "id,name")
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, classifyTransport(c.platform, err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, classifyStatus(c.platform, resp.StatusCode)
	}

	var out struct {
		Data []struct {
			ID   string `json:"id"`
			Name string `json:"name"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, &TransportError{Platform: c.platform, Detail: "malformed account list", Err: err}
	}

	resources := make([]Resource, 0, len(out.Data))
	for _, acc := range out.Data {
		resources = append(resources, Resource{ID: acc.ID, Name: acc.Name})
	}
	return resources, nil
}
