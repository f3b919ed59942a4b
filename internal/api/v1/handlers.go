package apiv1

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/AdPulseHQ/AdPulse/app/repository"
	"github.com/AdPulseHQ/AdPulse/internal/pkg/adplatform"
	"github.com/AdPulseHQ/AdPulse/internal/pkg/integrations"
	"github.com/AdPulseHQ/AdPulse/internal/pkg/middleware"
	"github.com/AdPulseHQ/AdPulse/internal/pkg/usercontext"
)

// APIServer exposes the integration operations over HTTP. It is a thin
// mapping layer; all behavior lives in the integrations service.
type APIServer struct {
	service *integrations.Service
}

// NewAPIServer creates a new API server instance backed by the given
// service.
func NewAPIServer(service *integrations.Service) *APIServer {
	return &APIServer{service: service}
}

// NewAPIServerFromGlobals wires the server from the global repository
// factory and the default platform registry.
func NewAPIServerFromGlobals(queue integrations.CampaignQueue) *APIServer {
	repo := repository.GetGlobalFactory().GetIntegrationRepository()
	return NewAPIServer(integrations.NewService(repo, adplatform.DefaultRegistry(), queue))
}

// GetPing handles the ping endpoint
func (s *APIServer) GetPing(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"ping": "pong"})
}

// GetIntegrations lists the caller's integrations with secrets redacted.
func (s *APIServer) GetIntegrations(c *fiber.Ctx) error {
	views, err := s.service.List(c.Context(), usercontext.GetUserID(c))
	if err != nil {
		return internalError(c)
	}
	return c.JSON(fiber.Map{"integrations": views})
}

// PostIntegration connects a platform from manually entered credentials.
func (s *APIServer) PostIntegration(c *fiber.Ctx) error {
	var in integrations.CreateInput
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "invalid request body")
	}

	integration, err := s.service.Create(c.Context(), usercontext.GetUserID(c), in)
	if err != nil {
		switch {
		case errors.Is(err, integrations.ErrValidation):
			return badRequest(c, "platform and at least one credential are required")
		case errors.Is(err, integrations.ErrDuplicate):
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error":   "conflict",
				"message": "an integration for this platform already exists",
			})
		default:
			return internalError(c)
		}
	}
	return c.Status(fiber.StatusCreated).JSON(integration)
}

// DeleteIntegration disconnects a platform.
func (s *APIServer) DeleteIntegration(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return badRequest(c, "integration id missing")
	}
	deleted, err := s.service.Delete(c.Context(), id, usercontext.GetUserID(c))
	if err != nil {
		if errors.Is(err, integrations.ErrValidation) {
			return badRequest(c, "integration id missing")
		}
		return internalError(c)
	}
	if !deleted {
		return notFound(c)
	}
	return c.JSON(fiber.Map{"deleted": true})
}

// PostTestConnection runs the connection verification for an integration.
func (s *APIServer) PostTestConnection(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return badRequest(c, "integration id missing")
	}
	result, err := s.service.TestConnection(c.Context(), id, usercontext.GetUserID(c))
	if err != nil {
		if errors.Is(err, integrations.ErrValidation) {
			return badRequest(c, "integration id missing")
		}
		return internalError(c)
	}
	return c.JSON(result)
}

// GetConnectURL returns the OAuth consent URL for connecting a platform.
func (s *APIServer) GetConnectURL(c *fiber.Ctx) error {
	authURL, err := s.service.AuthCodeURL(c.Context(), usercontext.GetUserID(c), c.Params("platform"))
	if err != nil {
		if errors.Is(err, integrations.ErrValidation) {
			return badRequest(c, "unknown platform")
		}
		return internalError(c)
	}
	return c.JSON(fiber.Map{"auth_url": authURL})
}

// GetOAuthCallback completes the OAuth consent flow. The platform redirects
// the browser here with code and state query parameters.
func (s *APIServer) GetOAuthCallback(c *fiber.Ctx) error {
	integration, err := s.service.CompleteConnection(
		c.Context(),
		c.Params("platform"),
		c.Query("code"),
		c.Query("state"),
	)
	if err != nil {
		if errors.Is(err, integrations.ErrValidation) {
			return badRequest(c, "invalid or expired oauth state")
		}
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error":   "exchange_failed",
			"message": "the platform rejected the authorization code",
		})
	}
	return c.Status(fiber.StatusCreated).JSON(integration)
}

// PostCampaignSync schedules a background campaign sync.
func (s *APIServer) PostCampaignSync(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return badRequest(c, "integration id missing")
	}
	jobID, err := s.service.EnqueueCampaignSync(c.Context(), id, usercontext.GetUserID(c))
	if err != nil {
		if errors.Is(err, integrations.ErrNotFound) {
			return notFound(c)
		}
		return internalError(c)
	}
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"job_id": jobID})
}

// RegisterHandlers attaches all v1 routes to the given router group. The
// OAuth callback stays outside the auth guard because the platform's
// redirect carries identity in the signed state, not in headers.
func RegisterHandlers(r fiber.Router, s *APIServer) {
	r.Get("/ping", s.GetPing)
	r.Get("/integrations/callback/:platform", s.GetOAuthCallback)

	authed := r.Group("", middleware.RequireUser)
	authed.Get("/integrations", s.GetIntegrations)
	authed.Post("/integrations", s.PostIntegration)
	authed.Delete("/integrations/:id", s.DeleteIntegration)
	authed.Post("/integrations/:id/test", s.PostTestConnection)
	authed.Post("/integrations/:id/sync", s.PostCampaignSync)
	authed.Get("/integrations/connect/:platform", s.GetConnectURL)
}

func paramID(c *fiber.Ctx) (uint, error) {
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, errors.New("invalid id")
	}
	return uint(id), nil
}

func badRequest(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"error":   "bad_request",
		"message": message,
	})
}

func notFound(c *fiber.Ctx) error {
	return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
		"error":   "not_found",
		"message": "integration not found",
	})
}

func internalError(c *fiber.Ctx) error {
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error": "internal_error",
	})
}
