package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/AdPulseHQ/AdPulse/internal/pkg/integrations"
)

// InstallRouter attaches all routes to the app. The queue may be nil when
// background sync is disabled (tests, migrate tooling).
func InstallRouter(app *fiber.App, queue integrations.CampaignQueue) {
	setup(app, NewApiRouter(queue))
}

func setup(app *fiber.App, router ...Router) {
	for _, r := range router {
		r.InstallRouter(app)
	}
}

// Router installs a set of routes on the app
type Router interface {
	InstallRouter(app *fiber.App)
}
