package report

import (
	"go-approvals/internal/config"
	"go-approvals/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type ReportApi struct {
	controller *ReportController
	config     *config.Config
}

func NewReportApi(controller *ReportController, config *config.Config) *ReportApi {
	return &ReportApi{
		controller: controller,
		config:     config,
	}
}

func (h *ReportApi) Setup(app *fiber.App) {
	auth := middleware.AuthMiddleware(h.config.SkipAuth)

	app.Get("/api/users/:userId/responsibilities/export", auth, h.controller.ExportResponsibilities)
	app.Get("/api/responses/:responseId/approvals/export", auth, h.controller.ExportApprovalTrail)
}
