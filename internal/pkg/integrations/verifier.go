package integrations

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/AdPulseHQ/AdPulse/app/repository"
	"github.com/AdPulseHQ/AdPulse/internal/pkg/adplatform"
)

// User-facing result messages. Fixed strings only; platform error payloads
// never reach these.
const (
	MsgConnected        = "Connection verified."
	MsgReconnectNeeded  = "The platform rejected the stored credentials. Please reconnect this account."
	MsgRateLimited      = "The platform is rate limiting requests right now. Please try again in a few minutes."
	MsgTemporaryFailure = "The platform could not be reached. Please try again."
	MsgNotFound         = "This integration does not exist."
)

// VerifierResult is the only shape callers above the verifier ever see.
type VerifierResult struct {
	Success   bool                  `json:"success"`
	Message   string                `json:"message"`
	Count     int                   `json:"count,omitempty"`
	Resources []adplatform.Resource `json:"resources,omitempty"`
}

// Verifier implements the "test connection" operation: load the
// integration, ensure a usable access token, probe the platform and
// normalize the outcome.
type Verifier struct {
	repo     repository.IntegrationRepository
	registry *adplatform.Registry
	tokens   *TokenManager
}

// NewVerifier wires a verifier from its collaborators.
func NewVerifier(repo repository.IntegrationRepository, registry *adplatform.Registry, tokens *TokenManager) *Verifier {
	return &Verifier{repo: repo, registry: registry, tokens: tokens}
}

// TestConnection verifies that the integration's credentials still work
// against the live platform. The error return is reserved for infra
// failures (database down); every platform-side outcome lands in the
// result.
func (v *Verifier) TestConnection(ctx context.Context, integrationID, userID uint) (*VerifierResult, error) {
	integration, err := v.repo.GetByIDAndUserID(integrationID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &VerifierResult{Success: false, Message: MsgNotFound}, nil
		}
		return nil, err
	}

	accessToken := integration.APIKey
	if integration.UsesOAuth() {
		accessToken, err = v.tokens.EnsureAccessToken(ctx, integration)
		if err != nil {
			return v.failureResult(integration.Platform, integrationID, err), nil
		}
	} else if accessToken == "" {
		accessToken = integration.AccessToken
	}
	if accessToken == "" {
		return &VerifierResult{Success: false, Message: MsgReconnectNeeded}, nil
	}

	client, err := v.registry.ClientFor(integration.Platform)
	if err != nil {
		return nil, err
	}

	resources, err := client.Probe(ctx, accessToken)
	if err != nil {
		return v.failureResult(integration.Platform, integrationID, err), nil
	}

	return &VerifierResult{
		Success:   true,
		Message:   MsgConnected,
		Count:     len(resources),
		Resources: resources,
	}, nil
}

// failureResult maps a taxonomy error to its user-facing message. The
// diagnostic detail goes to the log only.
func (v *Verifier) failureResult(platform string, integrationID uint, err error) *VerifierResult {
	log.Warnf("[Integrations] verification failed for integration %d: %v", integrationID, err)

	switch {
	case adplatform.IsAuthError(err):
		return &VerifierResult{Success: false, Message: MsgReconnectNeeded}
	case adplatform.IsRateLimitError(err):
		return &VerifierResult{Success: false, Message: MsgRateLimited}
	default:
		return &VerifierResult{Success: false, Message: MsgTemporaryFailure}
	}
}
