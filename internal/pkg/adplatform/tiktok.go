package adplatform

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/AdPulseHQ/AdPulse/app/models"
	"github.com/AdPulseHQ/AdPulse/internal/pkg/env"
)

const (
	defaultTikTokAuthorizeURL = "https://business-api.tiktok.com/portal/auth"
	defaultTikTokAPIBaseURL   = "https://business-api.tiktok.com/open_api/v1.3"

	// Application-level result codes TikTok embeds even on HTTP 200.
	tiktokCodeOK = 0
)

// TikTokAdsClient talks to the TikTok Business API. TikTok wraps every
// response in an envelope with its own code field, so HTTP status alone is
// not enough to classify a failure.
type TikTokAdsClient struct {
	AppID       string
	AppSecret   string
	RedirectURI string

	AuthorizeURL string
	APIBaseURL   string

	HTTPClient *http.Client
}

// NewTikTokAdsClientFromEnv builds the process-wide TikTok client from
// environment configuration.
func NewTikTokAdsClientFromEnv() *TikTokAdsClient {
	base := strings.TrimRight(env.GetEnv("PUBLIC_DOMAIN", ""), "/")
	redirectURI := strings.TrimSpace(env.GetEnv("TIKTOK_REDIRECT_URI", ""))
	if redirectURI == "" && base != "" {
		redirectURI = base + "/api/v1/integrations/callback/tiktok_ads"
	}

	return &TikTokAdsClient{
		AppID:        strings.TrimSpace(env.GetEnv("TIKTOK_APP_ID", "")),
		AppSecret:    strings.TrimSpace(env.GetEnv("TIKTOK_APP_SECRET", "")),
		RedirectURI:  redirectURI,
		AuthorizeURL: strings.TrimSpace(env.GetEnv("TIKTOK_AUTHORIZE_URL", defaultTikTokAuthorizeURL)),
		APIBaseURL:   strings.TrimSpace(env.GetEnv("TIKTOK_API_BASE_URL", defaultTikTokAPIBaseURL)),
		HTTPClient:   newHTTPClient(),
	}
}

func (c *TikTokAdsClient) Platform() string { return models.PlatformTikTokAds }

func (c *TikTokAdsClient) AuthCodeURL(state string) string {
	u, err := url.Parse(c.AuthorizeURL)
	if err != nil {
		return ""
	}
	q := u.Query()
	q.Set("app_id", c.AppID)
	q.Set("redirect_uri", c.RedirectURI)
	q.Set("state", state)
	u.RawQuery = q.Encode()
	return u.String()
}

func (c *TikTokAdsClient) ExchangeCode(ctx context.Context, code string) (*Token, error) {
	payload := map[string]string{
		"app_id":    c.AppID,
		"secret":    c.AppSecret,
		"auth_code": strings.TrimSpace(code),
	}
	return c.tokenRequest(ctx, "/oauth2/access_token/", payload)
}

func (c *TikTokAdsClient) Refresh(ctx context.Context, refreshToken string) (*Token, error) {
	payload := map[string]string{
		"app_id":        c.AppID,
		"secret":        c.AppSecret,
		"grant_type":    "refresh_token",
		"refresh_token": refreshToken,
	}
	return c.tokenRequest(ctx, "/oauth2/refresh_token/", payload)
}

func (c *TikTokAdsClient) tokenRequest(ctx context.Context, path string, payload map[string]string) (*Token, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	u := strings.TrimRight(c.APIBaseURL, "/") + path
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, classifyTransport(models.PlatformTikTokAds, err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, classifyStatus(models.PlatformTikTokAds, resp.StatusCode)
	}

	var out struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Data    struct {
			AccessToken  string `json:"access_token"`
			RefreshToken string `json:"refresh_token"`
			ExpiresIn    int    `json:"expires_in"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, &TransportError{Platform: models.PlatformTikTokAds, Detail: "malformed token response", Err: err}
	}
	if err := c.checkEnvelope(out.Code); err != nil {
		return nil, err
	}
	if strings.TrimSpace(out.Data.AccessToken) == "" {
		return nil, &AuthError{Platform: models.PlatformTikTokAds, Detail: "token response missing access_token"}
	}
	return &Token{
		AccessToken:  out.Data.AccessToken,
		RefreshToken: out.Data.RefreshToken,
		ExpiresIn:    out.Data.ExpiresIn,
	}, nil
}

// Probe lists the advertiser accounts the token can manage.
func (c *TikTokAdsClient) Probe(ctx context.Context, accessToken string) ([]Resource, error) {
	u, err := url.Parse(strings.TrimRight(c.APIBaseURL, "/") + "/oauth2/advertiser/get/")
	if err != nil {
		return nil, err
	}
	q := u.Query()
	q.Set("app_id", c.AppID)
	q.Set("secret", c.AppSecret)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Access-Token", accessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, classifyTransport(models.PlatformTikTokAds, err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, classifyStatus(models.PlatformTikTokAds, resp.StatusCode)
	}

	var out struct {
		Code int `json:"code"`
		Data struct {
			List []struct {
				AdvertiserID   json.Number `json:"advertiser_id"`
				AdvertiserName string      `json:"advertiser_name"`
			} `json:"list"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, &TransportError{Platform: models.PlatformTikTokAds, Detail: "malformed advertiser list", Err: err}
	}
	if err := c.checkEnvelope(out.Code); err != nil {
		return nil, err
	}

	resources := make([]Resource, 0, len(out.Data.List))
	for _, adv := range out.Data.List {
		resources = append(resources, Resource{ID: adv.AdvertiserID.String(), Name: adv.AdvertiserName})
	}
	return resources, nil
}

// checkEnvelope classifies TikTok's application-level result code. 4xxxx
// codes signal credential problems, everything else non-zero is treated as
// transient.
func (c *TikTokAdsClient) checkEnvelope(code int) error {
	switch {
	case code == tiktokCodeOK:
		return nil
	case code >= 40000 && code < 50000:
		return &AuthError{Platform: models.PlatformTikTokAds, Detail: "api code " + strconv.Itoa(code)}
	default:
		return &TransportError{Platform: models.PlatformTikTokAds, Detail: "api code " + strconv.Itoa(code)}
	}
}
