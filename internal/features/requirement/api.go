package requirement

import (
	"go-approvals/internal/config"
	"go-approvals/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type RequirementApi struct {
	controller *RequirementController
	config     *config.Config
}

func NewRequirementApi(controller *RequirementController, config *config.Config) *RequirementApi {
	return &RequirementApi{
		controller: controller,
		config:     config,
	}
}

func (h *RequirementApi) Setup(app *fiber.App) {
	auth := middleware.AuthMiddleware(h.config.SkipAuth)

	forms := app.Group("/api/forms/:formId/requirements", auth)
	forms.Post("/", h.controller.Create)
	forms.Get("/", h.controller.ListForForm)

	app.Get("/api/responses/:responseId/requirements", auth, h.controller.ListForResponse)
	app.Post("/api/response-requirements/:id/fulfill", auth, h.controller.Fulfill)
}
