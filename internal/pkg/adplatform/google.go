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
	defaultGoogleAuthorizeURL = "https://accounts.google.com/o/oauth2/v2/auth"
	defaultGoogleTokenURL     = "https://oauth2.googleapis.com/token"
	defaultGoogleAdsAPIURL    = "https://googleads.googleapis.com/v17"

	googleAdsScope = "https://www.googleapis.com/auth/adwords"
)

// GoogleAdsClient talks to the Google Ads OAuth and REST endpoints. Google
// additionally requires a developer token header on every API call.
type GoogleAdsClient struct {
	ClientID       string
	ClientSecret   string
	DeveloperToken string
	RedirectURI    string

	AuthorizeURL string
	TokenURL     string
	APIBaseURL   string

	HTTPClient *http.Client
}

// NewGoogleAdsClientFromEnv builds the process-wide Google Ads client from
// environment configuration.
func NewGoogleAdsClientFromEnv() *GoogleAdsClient {
	base := strings.TrimRight(env.GetEnv("PUBLIC_DOMAIN", ""), "/")
	redirectURI := strings.TrimSpace(env.GetEnv("GOOGLE_ADS_REDIRECT_URI", ""))
	if redirectURI == "" && base != "" {
		redirectURI = base + "/api/v1/integrations/callback/google_ads"
	}

	return &GoogleAdsClient{
		ClientID:       strings.TrimSpace(env.GetEnv("GOOGLE_ADS_CLIENT_ID", "")),
		ClientSecret:   strings.TrimSpace(env.GetEnv("GOOGLE_ADS_CLIENT_SECRET", "")),
		DeveloperToken: strings.TrimSpace(env.GetEnv("GOOGLE_ADS_DEVELOPER_TOKEN", "")),
		RedirectURI:    redirectURI,
		AuthorizeURL:   strings.TrimSpace(env.GetEnv("GOOGLE_ADS_AUTHORIZE_URL", defaultGoogleAuthorizeURL)),
		TokenURL:       strings.TrimSpace(env.GetEnv("GOOGLE_ADS_TOKEN_URL", defaultGoogleTokenURL)),
		APIBaseURL:     strings.TrimSpace(env.GetEnv("GOOGLE_ADS_API_BASE_URL", defaultGoogleAdsAPIURL)),
		HTTPClient:     newHTTPClient(),
	}
}

func (c *GoogleAdsClient) Platform() string { return models.PlatformGoogleAds }

func (c *GoogleAdsClient) AuthCodeURL(state string) string {
	u, err := url.Parse(c.AuthorizeURL)
	if err != nil {
		return ""
	}
	q := u.Query()
	q.Set("response_type", "code")
	q.Set("client_id", c.ClientID)
	q.Set("redirect_uri", c.RedirectURI)
	q.Set("scope", googleAdsScope)
	q.Set("access_type", "offline")
	q.Set("prompt", "consent")
	q.Set("state", state)
	u.RawQuery = q.Encode()
	return u.String()
}

func (c *GoogleAdsClient) ExchangeCode(ctx context.Context, code string) (*Token, error) {
	form := url.Values{}
	form.Set("grant_type", "authorization_code")
	form.Set("code", strings.TrimSpace(code))
	form.Set("client_id", c.ClientID)
	form.Set("client_secret", c.ClientSecret)
	form.Set("redirect_uri", c.RedirectURI)
	return c.tokenRequest(ctx, form)
}

func (c *GoogleAdsClient) Refresh(ctx context.Context, refreshToken string) (*Token, error) {
	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", refreshToken)
	form.Set("client_id", c.ClientID)
	form.Set("client_secret", c.ClientSecret)
	return c.tokenRequest(ctx, form)
}

func (c *GoogleAdsClient) tokenRequest(ctx context.Context, form url.Values) (*Token, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, classifyTransport(models.PlatformGoogleAds, err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// Google answers 400 invalid_grant for revoked refresh tokens.
		if resp.StatusCode == http.StatusBadRequest {
			return nil, &AuthError{Platform: models.PlatformGoogleAds, Detail: "token endpoint rejected grant"}
		}
		return nil, classifyStatus(models.PlatformGoogleAds, resp.StatusCode)
	}

	var out struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
		ExpiresIn    int    `json:"expires_in"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, &TransportError{Platform: models.PlatformGoogleAds, Detail: "malformed token response", Err: err}
	}
	if strings.TrimSpace(out.AccessToken) == "" {
		return nil, &AuthError{Platform: models.PlatformGoogleAds, Detail: "token response missing access_token"}
	}
	return &Token{AccessToken: out.AccessToken, RefreshToken: out.RefreshToken, ExpiresIn: out.ExpiresIn}, nil
}

// Probe lists the customers reachable with the token. This is the cheapest
// read-only Google Ads call that proves both the OAuth token and the
// developer token are accepted.
func (c *GoogleAdsClient) Probe(ctx context.Context, accessToken string) ([]Resource, error) {
	u := strings.TrimRight(c.APIBaseURL, "/") + "/customers:listAccessibleCustomers"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("developer-token", c.DeveloperToken)
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, classifyTransport(models.PlatformGoogleAds, err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, classifyStatus(models.PlatformGoogleAds, resp.StatusCode)
	}

	var out struct {
		ResourceNames []string `json:"resourceNames"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, &TransportError{Platform: models.PlatformGoogleAds, Detail: "malformed customer list", Err: err}
	}

	resources := make([]Resource, 0, len(out.ResourceNames))
	for _, rn := range out.ResourceNames {
		// resourceNames come back as "customers/<id>".
		id := strings.TrimPrefix(rn, "customers/")
		if id == "" {
			continue
		}
		resources = append(resources, Resource{ID: id})
	}
	return resources, nil
}
