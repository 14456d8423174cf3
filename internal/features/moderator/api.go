package moderator

import (
	"go-approvals/internal/config"
	"go-approvals/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type ModeratorApi struct {
	controller *ModeratorController
	config     *config.Config
}

func NewModeratorApi(controller *ModeratorController, config *config.Config) *ModeratorApi {
	return &ModeratorApi{
		controller: controller,
		config:     config,
	}
}

func (h *ModeratorApi) Setup(app *fiber.App) {
	auth := middleware.AuthMiddleware(h.config.SkipAuth)

	group := app.Group("/api/forms/:formId/moderators", auth)
	group.Post("/", h.controller.Assign)
	group.Get("/", h.controller.List)

	app.Delete("/api/moderators/:id", auth, h.controller.Remove)
}
