package system

import (
	"go-approvals/internal/config"
	"go-approvals/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type DebugApi struct {
	controller *DebugController
	config     *config.Config
}

func NewDebugApi(controller *DebugController, cfg *config.Config) *DebugApi {
	return &DebugApi{
		controller: controller,
		config:     cfg,
	}
}

// Setup registers the identity echo outside production only.
func (h *DebugApi) Setup(app *fiber.App) {
	if h.config.IsProduction() {
		return
	}
	app.Get("/api/debug/me", middleware.AuthMiddleware(h.config.SkipAuth), h.controller.GetCurrentUser)
}
