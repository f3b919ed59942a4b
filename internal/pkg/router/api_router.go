package router

import (
	apiv1 "github.com/AdPulseHQ/AdPulse/internal/api/v1"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/AdPulseHQ/AdPulse/internal/pkg/integrations"
	"github.com/AdPulseHQ/AdPulse/internal/pkg/middleware"
)

type ApiRouter struct {
	queue integrations.CampaignQueue
}

func (h ApiRouter) InstallRouter(app *fiber.App) {
	api := app.Group("/api", limiter.New())
	api.Get("/", func(ctx *fiber.Ctx) error {
		return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
			"message": "Hello from api",
		})
	})

	// API v1 routes
	v1 := api.Group("/v1", middleware.UserContextMiddleware)
	apiServer := apiv1.NewAPIServerFromGlobals(h.queue)
	apiv1.RegisterHandlers(v1, apiServer)
}

func NewApiRouter(queue integrations.CampaignQueue) *ApiRouter {
	return &ApiRouter{queue: queue}
}
