package reminder

import (
	"go-approvals/internal/common/api"

	"github.com/gofiber/fiber/v2"
)

type ReminderController struct {
	service ReminderService
}

func NewReminderController(service ReminderService) *ReminderController {
	return &ReminderController{service: service}
}

func (c *ReminderController) Run(ctx *fiber.Ctx) error {
	run, err := c.service.Sweep(ctx.UserContext(), TriggerManual)
	if err != nil {
		return api.Error(ctx, err)
	}
	return ctx.JSON(run)
}

func (c *ReminderController) ListRuns(ctx *fiber.Ctx) error {
	limit := int64(ctx.QueryInt("limit", 50))
	runs, err := c.service.ListRuns(ctx.UserContext(), limit)
	if err != nil {
		return api.Error(ctx, err)
	}
	return ctx.JSON(runs)
}
