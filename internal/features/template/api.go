package template

import (
	"go-approvals/internal/config"
	"go-approvals/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type TemplateApi struct {
	controller *TemplateController
	config     *config.Config
}

func NewTemplateApi(controller *TemplateController, config *config.Config) *TemplateApi {
	return &TemplateApi{
		controller: controller,
		config:     config,
	}
}

func (h *TemplateApi) Setup(app *fiber.App) {
	forms := app.Group("/api/forms/:formId/approvers", middleware.AuthMiddleware(h.config.SkipAuth))
	forms.Post("/", h.controller.AddApprovers)
	forms.Get("/", h.controller.ListActive)

	templates := app.Group("/api/approval-templates", middleware.AuthMiddleware(h.config.SkipAuth))
	templates.Put("/", h.controller.BulkUpdate)
	templates.Get("/:id", h.controller.Get)
	templates.Delete("/:id", h.controller.Deactivate)
}
