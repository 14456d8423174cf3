package schedule

import (
	"go-approvals/internal/config"
	"go-approvals/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type ScheduleApi struct {
	controller *ScheduleController
	config     *config.Config
}

func NewScheduleApi(controller *ScheduleController, config *config.Config) *ScheduleApi {
	return &ScheduleApi{
		controller: controller,
		config:     config,
	}
}

func (h *ScheduleApi) Setup(app *fiber.App) {
	auth := middleware.AuthMiddleware(h.config.SkipAuth)

	group := app.Group("/api/forms/:formId/schedules", auth)
	group.Post("/", h.controller.Create)
	group.Get("/", h.controller.List)

	app.Delete("/api/schedules/:id", auth, h.controller.Delete)
}
