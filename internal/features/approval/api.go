package approval

import (
	"go-approvals/internal/config"
	"go-approvals/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type ApprovalApi struct {
	controller *ApprovalController
	config     *config.Config
}

func NewApprovalApi(controller *ApprovalController, config *config.Config) *ApprovalApi {
	return &ApprovalApi{
		controller: controller,
		config:     config,
	}
}

func (h *ApprovalApi) Setup(app *fiber.App) {
	auth := middleware.AuthMiddleware(h.config.SkipAuth)

	app.Post("/api/forms/:formId/responses", auth, h.controller.Submit)

	responses := app.Group("/api/responses/:responseId", auth)
	responses.Post("/approvals/materialize", h.controller.Materialize)
	responses.Get("/approvals", h.controller.ListForResponse)
	responses.Get("/approval-status", h.controller.AggregateStatus)
	responses.Get("/next-approver", h.controller.NextApprover)

	approvals := app.Group("/api/approvals", auth)
	approvals.Get("/pending", h.controller.PendingForMe)
	approvals.Post("/:id/decision", h.controller.RecordDecision)
	approvals.Post("/:id/reconsideration", h.controller.RequestReconsideration)
	approvals.Get("/:id/eligibility", h.controller.Eligibility)
}
