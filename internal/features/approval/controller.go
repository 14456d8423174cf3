package approval

import (
	"go-approvals/internal/common/api"
	"go-approvals/internal/features/notification"

	"github.com/gofiber/fiber/v2"
)

type ApprovalController struct {
	Service  ApprovalService
	Notifier notification.NotificationService
}

func NewApprovalController(service ApprovalService, notifier notification.NotificationService) *ApprovalController {
	return &ApprovalController{
		Service:  service,
		Notifier: notifier,
	}
}

// Submit godoc
// @Summary Submit a response
// @Description Creates a response of the form and its pending approval instances
// @Tags approvals
// @Produce json
// @Param formId path string true "Form ID"
// @Success 201 {object} SubmitResult
// @Router /api/forms/{formId}/responses [post]
func (c *ApprovalController) Submit(ctx *fiber.Ctx) error {
	actorID, err := api.ActorID(ctx)
	if err != nil {
		return api.Error(ctx, err)
	}
	formID, err := api.ParamID(ctx, "formId")
	if err != nil {
		return api.Error(ctx, err)
	}

	result, err := c.Service.Submit(ctx.UserContext(), formID, actorID)
	if err != nil {
		return api.Error(ctx, err)
	}
	return ctx.Status(fiber.StatusCreated).JSON(result)
}

func (c *ApprovalController) Materialize(ctx *fiber.Ctx) error {
	responseID, err := api.ParamID(ctx, "responseId")
	if err != nil {
		return api.Error(ctx, err)
	}
	instances, err := c.Service.MaterializeForResponse(ctx.UserContext(), responseID)
	if err != nil {
		return api.Error(ctx, err)
	}
	return ctx.JSON(instances)
}

func (c *ApprovalController) ListForResponse(ctx *fiber.Ctx) error {
	responseID, err := api.ParamID(ctx, "responseId")
	if err != nil {
		return api.Error(ctx, err)
	}
	instances, err := c.Service.ListForResponse(ctx.UserContext(), responseID)
	if err != nil {
		return api.Error(ctx, err)
	}
	return ctx.JSON(instances)
}

// AggregateStatus godoc
// @Summary Overall approval status
// @Description Status and message of the most recently reviewed instance
// @Tags approvals
// @Produce json
// @Param responseId path string true "Response ID"
// @Success 200 {object} AggregateStatus
// @Router /api/responses/{responseId}/approval-status [get]
func (c *ApprovalController) AggregateStatus(ctx *fiber.Ctx) error {
	responseID, err := api.ParamID(ctx, "responseId")
	if err != nil {
		return api.Error(ctx, err)
	}
	status, err := c.Service.AggregateStatus(ctx.UserContext(), responseID)
	if err != nil {
		return api.Error(ctx, err)
	}
	return ctx.JSON(status)
}

func (c *ApprovalController) NextApprover(ctx *fiber.Ctx) error {
	responseID, err := api.ParamID(ctx, "responseId")
	if err != nil {
		return api.Error(ctx, err)
	}
	next, err := c.Service.NextMandatoryApprover(ctx.UserContext(), responseID)
	if err != nil {
		return api.Error(ctx, err)
	}
	if next == nil {
		return ctx.JSON(fiber.Map{"next": nil})
	}
	return ctx.JSON(fiber.Map{"next": next})
}

// RecordDecision godoc
// @Summary Approve or reject an instance
// @Tags approvals
// @Accept json
// @Produce json
// @Param id path string true "Instance ID"
// @Param decision body DecisionInput true "Decision"
// @Success 200 {object} DecisionResult
// @Failure 403 {object} map[string]string "Not the approver's turn"
// @Failure 409 {object} map[string]string "Wrong approver or already decided"
// @Router /api/approvals/{id}/decision [post]
func (c *ApprovalController) RecordDecision(ctx *fiber.Ctx) error {
	actorID, err := api.ActorID(ctx)
	if err != nil {
		return api.Error(ctx, err)
	}
	id, err := api.ParamID(ctx, "id")
	if err != nil {
		return api.Error(ctx, err)
	}
	var input DecisionInput
	if err := ctx.BodyParser(&input); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	result, err := c.Service.RecordDecision(ctx.UserContext(), id, actorID, input)
	if err != nil {
		return api.Error(ctx, err)
	}

	c.Notifier.Dispatch(ctx.UserContext(), result.Notification)
	return ctx.JSON(result)
}

func (c *ApprovalController) RequestReconsideration(ctx *fiber.Ctx) error {
	id, err := api.ParamID(ctx, "id")
	if err != nil {
		return api.Error(ctx, err)
	}
	inst, err := c.Service.RequestReconsideration(ctx.UserContext(), id)
	if err != nil {
		return api.Error(ctx, err)
	}
	return ctx.JSON(inst)
}

func (c *ApprovalController) Eligibility(ctx *fiber.Ctx) error {
	id, err := api.ParamID(ctx, "id")
	if err != nil {
		return api.Error(ctx, err)
	}
	e, err := c.Service.Eligibility(ctx.UserContext(), id)
	if err != nil {
		return api.Error(ctx, err)
	}
	return ctx.JSON(e)
}

// PendingForMe lists the caller's instances whose turn it is.
func (c *ApprovalController) PendingForMe(ctx *fiber.Ctx) error {
	actorID, err := api.ActorID(ctx)
	if err != nil {
		return api.Error(ctx, err)
	}
	instances, err := c.Service.PendingForApprover(ctx.UserContext(), actorID)
	if err != nil {
		return api.Error(ctx, err)
	}
	return ctx.JSON(instances)
}
