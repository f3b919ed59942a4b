package integrations

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2/log"

	"github.com/AdPulseHQ/AdPulse/app/models"
	"github.com/AdPulseHQ/AdPulse/app/repository"
	"github.com/AdPulseHQ/AdPulse/internal/pkg/adplatform"
)

// ExpiryMargin is how long before the stored expiry a token is already
// treated as stale, so a verification never sets off with a token about to
// die mid-flight.
const ExpiryMargin = 60 * time.Second

// TokenManager guarantees callers a currently valid access token for an
// integration, refreshing at most once per stale token no matter how many
// requests arrive concurrently.
type TokenManager struct {
	repo     repository.IntegrationRepository
	registry *adplatform.Registry
	locks    *keyedMutex
	leaser   refreshLeaser // nil disables the cross-process lease
	now      func() time.Time
}

// NewTokenManager builds a token manager with the cross-process refresh
// lease enabled.
func NewTokenManager(repo repository.IntegrationRepository, registry *adplatform.Registry) *TokenManager {
	return &TokenManager{
		repo:     repo,
		registry: registry,
		locks:    newKeyedMutex(),
		leaser:   redisLeaser{},
		now:      time.Now,
	}
}

// EnsureAccessToken returns a valid access token for the integration,
// refreshing it first when absent or expiring. On success the integration's
// token fields are updated in place to mirror what was persisted. An
// *adplatform.AuthError means the stored refresh token is dead and the user
// has to reconnect; it is never retried and nothing is persisted.
func (m *TokenManager) EnsureAccessToken(ctx context.Context, integration *models.Integration) (string, error) {
	if integration.TokenValid(m.now(), ExpiryMargin) {
		return integration.AccessToken, nil
	}

	unlock := m.locks.Lock(integration.ID)
	defer unlock()

	// Re-read under the lock: a concurrent request may have refreshed and
	// persisted while we waited. The loser of that race returns the fresh
	// token without a remote call.
	stored, err := m.repo.GetByID(integration.ID)
	if err != nil {
		return "", err
	}
	if stored.TokenValid(m.now(), ExpiryMargin) {
		integration.AccessToken = stored.AccessToken
		integration.RefreshToken = stored.RefreshToken
		integration.ExpiresAt = stored.ExpiresAt
		return stored.AccessToken, nil
	}

	if !stored.UsesOAuth() {
		return "", &adplatform.AuthError{Platform: stored.Platform, Detail: "no refresh token on record"}
	}

	client, err := m.registry.ClientFor(stored.Platform)
	if err != nil {
		return "", err
	}

	if m.leaser != nil {
		if release, ok := m.leaser.Acquire(stored.ID); ok {
			defer release()
		} else {
			// Another instance is refreshing right now. Give it a moment,
			// then re-read; if it failed we refresh ourselves.
			time.Sleep(250 * time.Millisecond)
			if again, err := m.repo.GetByID(stored.ID); err == nil && again.TokenValid(m.now(), ExpiryMargin) {
				integration.AccessToken = again.AccessToken
				integration.RefreshToken = again.RefreshToken
				integration.ExpiresAt = again.ExpiresAt
				return again.AccessToken, nil
			}
		}
	}

	token, err := client.Refresh(ctx, stored.RefreshToken)
	if err != nil {
		return "", err
	}

	expiresAt := m.now().Add(token.TTL())
	if err := m.repo.UpdateTokens(stored.ID, token.AccessToken, token.RefreshToken, &expiresAt); err != nil {
		// The remote refresh succeeded but we could not store it; callers
		// must not act on a token that was never durable.
		return "", err
	}

	integration.AccessToken = token.AccessToken
	if token.RefreshToken != "" {
		integration.RefreshToken = token.RefreshToken
	}
	integration.ExpiresAt = &expiresAt

	log.Infof("[Integrations] refreshed %s token for integration %d", stored.Platform, stored.ID)
	return token.AccessToken, nil
}
