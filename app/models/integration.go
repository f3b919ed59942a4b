package models

import "time"

// Ad platform identifiers stored in Integration.Platform.
const (
	PlatformGoogleAds    = "google_ads"
	PlatformMetaAds      = "meta_ads"
	PlatformTikTokAds    = "tiktok_ads"
	PlatformPinterestAds = "pinterest_ads"
	PlatformInstagram    = "instagram"
)

// Integration stores a user's connection to one external ad platform,
// including the OAuth credentials used to act on their behalf.
// Token columns are secrets at rest and never serialize to JSON.
type Integration struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	UserID       uint       `gorm:"not null;index:ux_integrations_user_platform,unique,priority:1" json:"user_id"`
	Platform     string     `gorm:"type:varchar(50);not null;index:ux_integrations_user_platform,unique,priority:2" json:"platform"`
	APIKey       string     `gorm:"type:text" json:"-"`
	AccountID    string     `gorm:"type:varchar(191);default:''" json:"account_id"`
	AccessToken  string     `gorm:"type:text" json:"-"`
	RefreshToken string     `gorm:"type:text" json:"-"`
	ExpiresAt    *time.Time `gorm:"type:timestamp;default:null" json:"expires_at,omitempty"`
	CreatedAt    time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// KnownPlatform reports whether p is one of the supported ad platforms.
func KnownPlatform(p string) bool {
	switch p {
	case PlatformGoogleAds, PlatformMetaAds, PlatformTikTokAds, PlatformPinterestAds, PlatformInstagram:
		return true
	}
	return false
}

// UsesOAuth reports whether the platform mints short-lived access tokens
// from a refresh token. Platforms connected via a static API key skip the
// refresh cycle entirely.
func (i *Integration) UsesOAuth() bool {
	return i.RefreshToken != ""
}

// TokenValid reports whether the stored access token can still be used at
// the given instant. An unknown expiry is treated as invalid so the next
// verification forces a refresh.
func (i *Integration) TokenValid(now time.Time, margin time.Duration) bool {
	if i.AccessToken == "" {
		return false
	}
	if i.ExpiresAt == nil {
		return false
	}
	return i.ExpiresAt.After(now.Add(margin))
}
