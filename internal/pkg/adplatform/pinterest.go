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
	defaultPinterestAuthorizeURL = "https://www.pinterest.com/oauth"
	defaultPinterestTokenURL     = "https://api.pinterest.com/v5/oauth/token"
	defaultPinterestAPIBaseURL   = "https://api.pinterest.com/v5"

	pinterestScope = "ads:read"
)

// PinterestClient talks to the Pinterest v5 API. Pinterest authenticates
// token requests with HTTP Basic auth on the app credentials instead of
// form fields.
type PinterestClient struct {
	AppID       string
	AppSecret   string
	RedirectURI string

	AuthorizeURL string
	TokenURL     string
	APIBaseURL   string

	HTTPClient *http.Client
}

// NewPinterestClientFromEnv builds the process-wide Pinterest client from
// environment configuration.
func NewPinterestClientFromEnv() *PinterestClient {
	base := strings.TrimRight(env.GetEnv("PUBLIC_DOMAIN", ""), "/")
	redirectURI := strings.TrimSpace(env.GetEnv("PINTEREST_REDIRECT_URI", ""))
	if redirectURI == "" && base != "" {
		redirectURI = base + "/api/v1/integrations/callback/pinterest_ads"
	}

	return &PinterestClient{
		AppID:        strings.TrimSpace(env.GetEnv("PINTEREST_APP_ID", "")),
		AppSecret:    strings.TrimSpace(env.GetEnv("PINTEREST_APP_SECRET", "")),
		RedirectURI:  redirectURI,
		AuthorizeURL: strings.TrimSpace(env.GetEnv("PINTEREST_AUTHORIZE_URL", defaultPinterestAuthorizeURL)),
		TokenURL:     strings.TrimSpace(env.GetEnv("PINTEREST_TOKEN_URL", defaultPinterestTokenURL)),
		APIBaseURL:   strings.TrimSpace(env.GetEnv("PINTEREST_API_BASE_URL", defaultPinterestAPIBaseURL)),
		HTTPClient:   newHTTPClient(),
	}
}

func (c *PinterestClient) Platform() string { return models.PlatformPinterestAds }

func (c *PinterestClient) AuthCodeURL(state string) string {
	u, err := url.Parse(c.AuthorizeURL)
	if err != nil {
		return ""
	}
	q := u.Query()
	q.Set("response_type", "code")
	q.Set("client_id", c.AppID)
	q.Set("redirect_uri", c.RedirectURI)
	q.Set("scope", pinterestScope)
	q.Set("state", state)
	u.RawQuery = q.Encode()
	return u.String()
}

func (c *PinterestClient) ExchangeCode(ctx context.Context, code string) (*Token, error) {
	form := url.Values{}
	form.Set("grant_type", "authorization_code")
	form.Set("code", strings.TrimSpace(code))
	form.Set("redirect_uri", c.RedirectURI)
	return c.tokenRequest(ctx, form)
}

func (c *PinterestClient) Refresh(ctx context.Context, refreshToken string) (*Token, error) {
	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", refreshToken)
	return c.tokenRequest(ctx, form)
}

func (c *PinterestClient) tokenRequest(ctx context.Context, form url.Values) (*Token, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	req.SetBasicAuth(c.AppID, c.AppSecret)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, classifyTransport(models.PlatformPinterestAds, err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// Pinterest answers 400 invalid_grant for revoked refresh tokens.
		if resp.StatusCode == http.StatusBadRequest {
			return nil, &AuthError{Platform: models.PlatformPinterestAds, Detail: "token endpoint rejected grant"}
		}
		return nil, classifyStatus(models.PlatformPinterestAds, resp.StatusCode)
	}

	var out struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
		ExpiresIn    int    `json:"expires_in"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, &TransportError{Platform: models.PlatformPinterestAds, Detail: "malformed token response", Err: err}
	}
	if strings.TrimSpace(out.AccessToken) == "" {
		return nil, &AuthError{Platform: models.PlatformPinterestAds, Detail: "token response missing access_token"}
	}
	return &Token{AccessToken: out.AccessToken, RefreshToken: out.RefreshToken, ExpiresIn: out.ExpiresIn}, nil
}

// Probe lists the ad accounts the token can read.
func (c *PinterestClient) Probe(ctx context.Context, accessToken string) ([]Resource, error) {
	u := strings.TrimRight(c.APIBaseURL, "/") + "/ad_accounts"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, classifyTransport(models.PlatformPinterestAds, err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, classifyStatus(models.PlatformPinterestAds, resp.StatusCode)
	}

	var out struct {
		Items []struct {
			ID   string `json:"id"`
			Name string `json:"name"`
		} `json:"items"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, &TransportError{Platform: models.PlatformPinterestAds, Detail: "malformed ad account list", Err: err}
	}

	resources := make([]Resource, 0, len(out.Items))
	for _, item := range out.Items {
		resources = append(resources, Resource{ID: item.ID, Name: item.Name})
	}
	return resources, nil
}
