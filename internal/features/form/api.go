package form

import (
	"go-approvals/internal/config"
	"go-approvals/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type FormApi struct {
	controller *FormController
	config     *config.Config
}

func NewFormApi(controller *FormController, config *config.Config) *FormApi {
	return &FormApi{
		controller: controller,
		config:     config,
	}
}

func (h *FormApi) Setup(app *fiber.App) {
	forms := app.Group("/api/forms", middleware.AuthMiddleware(h.config.SkipAuth))
	forms.Post("/", h.controller.CreateForm)
	forms.Get("/", h.controller.ListForms)
	forms.Get("/:id", h.controller.GetForm)

	responses := app.Group("/api/responses", middleware.AuthMiddleware(h.config.SkipAuth))
	responses.Get("/:id", h.controller.GetResponse)
}
