package integrations

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/AdPulseHQ/AdPulse/app/models"
	"github.com/AdPulseHQ/AdPulse/app/repository"
	"github.com/AdPulseHQ/AdPulse/internal/pkg/adplatform"
	"github.com/AdPulseHQ/AdPulse/internal/pkg/env"
	"github.com/AdPulseHQ/AdPulse/internal/pkg/security"
)

const stateTokenTTL = 15 * time.Minute

// CampaignQueue enqueues background campaign sync work. Satisfied by
// jobqueue.Queue.
type CampaignQueue interface {
	EnqueueCampaignSync(integrationID, userID uint, platform string) (string, error)
}

// CreateInput is the manual-entry payload for connecting a platform with
// static or pre-obtained credentials.
type CreateInput struct {
	Platform     string `json:"platform" validate:"required,oneof=google_ads meta_ads tiktok_ads pinterest_ads instagram"`
	APIKey       string `json:"api_key" validate:"omitempty,max=4096"`
	AccountID    string `json:"account_id" validate:"omitempty,max=191"`
	AccessToken  string `json:"access_token" validate:"omitempty,max=4096"`
	RefreshToken string `json:"refresh_token" validate:"omitempty,max=4096"`
}

// IntegrationView is the redacted read shape returned to callers. Token
// columns never leave the service.
type IntegrationView struct {
	ID        uint       `json:"id"`
	Platform  string     `json:"platform"`
	AccountID string     `json:"account_id,omitempty"`
	Connected bool       `json:"connected"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// Service exposes the integration operations consumed by the HTTP layer.
type Service struct {
	repo     repository.IntegrationRepository
	registry *adplatform.Registry
	verifier *Verifier
	tokens   *TokenManager
	queue    CampaignQueue
	nonces   nonceStore
	validate *validator.Validate
}

// NewService wires the service with its verifier and token manager.
func NewService(repo repository.IntegrationRepository, registry *adplatform.Registry, queue CampaignQueue) *Service {
	tokens := NewTokenManager(repo, registry)
	return &Service{
		repo:     repo,
		registry: registry,
		verifier: NewVerifier(repo, registry, tokens),
		tokens:   tokens,
		queue:    queue,
		nonces:   redisNonceStore{},
		validate: validator.New(),
	}
}

// Create connects a platform from manually entered credentials. A second
// integration for the same (user, platform) pair is rejected.
func (s *Service) Create(ctx context.Context, userID uint, in CreateInput) (*models.Integration, error) {
	_ = ctx
	if userID == 0 {
		return nil, ErrValidation
	}
	in.Platform = strings.ToLower(strings.TrimSpace(in.Platform))
	if err := s.validate.Struct(in); err != nil {
		return nil, ErrValidation
	}
	if in.APIKey == "" && in.AccessToken == "" && in.RefreshToken == "" {
		// Nothing to verify with later.
		return nil, ErrValidation
	}

	if _, err := s.repo.GetByUserIDAndPlatform(userID, in.Platform); err == nil {
		return nil, ErrDuplicate
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	integration := &models.Integration{
		UserID:       userID,
		Platform:     in.Platform,
		APIKey:       strings.TrimSpace(in.APIKey),
		AccountID:    strings.TrimSpace(in.AccountID),
		AccessToken:  strings.TrimSpace(in.AccessToken),
		RefreshToken: strings.TrimSpace(in.RefreshToken),
	}
	if err := s.repo.Create(integration); err != nil {
		return nil, err
	}
	log.Infof("[Integrations] user %d connected %s (integration %d)", userID, integration.Platform, integration.ID)
	return integration, nil
}

// List returns the user's integrations with secrets redacted.
func (s *Service) List(ctx context.Context, userID uint) ([]IntegrationView, error) {
	_ = ctx
	integrations, err := s.repo.GetByUserID(userID)
	if err != nil {
		return nil, err
	}
	views := make([]IntegrationView, 0, len(integrations))
	for _, i := range integrations {
		views = append(views, IntegrationView{
			ID:        i.ID,
			Platform:  i.Platform,
			AccountID: i.AccountID,
			Connected: i.AccessToken != "" || i.APIKey != "",
			ExpiresAt: i.ExpiresAt,
			CreatedAt: i.CreatedAt,
		})
	}
	return views, nil
}

// Delete removes an integration owned by the user. Returns false when
// nothing matched, without revealing whether the id exists for someone
// else.
func (s *Service) Delete(ctx context.Context, id, userID uint) (bool, error) {
	_ = ctx
	if id == 0 || userID == 0 {
		return false, ErrValidation
	}
	count, err := s.repo.DeleteByIDAndUserID(id, userID)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// TestConnection verifies the integration's credentials against the live
// platform and reports a normalized result.
func (s *Service) TestConnection(ctx context.Context, integrationID, userID uint) (*VerifierResult, error) {
	if integrationID == 0 {
		return nil, ErrValidation
	}
	return s.verifier.TestConnection(ctx, integrationID, userID)
}

// AuthCodeURL builds the consent redirect for connecting a platform. The
// state parameter is signed so the callback can bind the exchange back to
// this user.
func (s *Service) AuthCodeURL(ctx context.Context, userID uint, platform string) (string, error) {
	_ = ctx
	platform = strings.ToLower(strings.TrimSpace(platform))
	if userID == 0 || !models.KnownPlatform(platform) {
		return "", ErrValidation
	}
	client, err := s.registry.ClientFor(platform)
	if err != nil {
		return "", err
	}
	state, err := security.GenerateStateToken(userID, platform, uuid.NewString(), stateTokenTTL, stateSecret())
	if err != nil {
		return "", err
	}
	return client.AuthCodeURL(state), nil
}

// CompleteConnection finishes the OAuth consent flow: verify the state,
// exchange the code and persist the resulting credential as the user's
// integration for that platform.
func (s *Service) CompleteConnection(ctx context.Context, platform, code, state string) (*models.Integration, error) {
	platform = strings.ToLower(strings.TrimSpace(platform))
	if !models.KnownPlatform(platform) || strings.TrimSpace(code) == "" {
		return nil, ErrValidation
	}
	claims, err := security.VerifyStateToken(state, stateSecret())
	if err != nil || claims.Platform != platform {
		return nil, ErrValidation
	}
	// Each state token completes the flow once.
	if !s.nonces.Consume(claims.Nonce, stateTokenTTL) {
		return nil, ErrValidation
	}

	client, err := s.registry.ClientFor(platform)
	if err != nil {
		return nil, err
	}
	token, err := client.ExchangeCode(ctx, code)
	if err != nil {
		return nil, err
	}

	expiresAt := time.Now().Add(token.TTL())
	existing, err := s.repo.GetByUserIDAndPlatform(claims.UserID, platform)
	switch {
	case err == nil:
		// Explicit re-auth replaces the stored credential.
		if err := s.repo.UpdateTokens(existing.ID, token.AccessToken, token.RefreshToken, &expiresAt); err != nil {
			return nil, err
		}
		return s.repo.GetByID(existing.ID)
	case errors.Is(err, gorm.ErrRecordNotFound):
		integration := &models.Integration{
			UserID:       claims.UserID,
			Platform:     platform,
			AccessToken:  token.AccessToken,
			RefreshToken: token.RefreshToken,
			ExpiresAt:    &expiresAt,
		}
		if err := s.repo.Create(integration); err != nil {
			return nil, err
		}
		log.Infof("[Integrations] user %d connected %s via oauth (integration %d)", claims.UserID, platform, integration.ID)
		return integration, nil
	default:
		return nil, err
	}
}

// EnqueueCampaignSync schedules a background campaign sync for the
// integration. The sync itself is not implemented against live platform
// APIs yet; the worker records the request.
func (s *Service) EnqueueCampaignSync(ctx context.Context, integrationID, userID uint) (string, error) {
	_ = ctx
	integration, err := s.repo.GetByIDAndUserID(integrationID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrNotFound
		}
		return "", err
	}
	if s.queue == nil {
		log.Infof("[Integrations] campaign sync requested for integration %d (%s); no queue configured", integration.ID, integration.Platform)
		return "", nil
	}
	return s.queue.EnqueueCampaignSync(integration.ID, userID, integration.Platform)
}

func stateSecret() string {
	return env.GetEnv("OAUTH_STATE_SECRET", "")
}
