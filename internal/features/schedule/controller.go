package schedule

import (
	"go-approvals/internal/common/api"

	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ScheduleController struct {
	service ScheduleService
}

func NewScheduleController(service ScheduleService) *ScheduleController {
	return &ScheduleController{service: service}
}

func (c *ScheduleController) Create(ctx *fiber.Ctx) error {
	formID, err := api.ParamID(ctx, "formId")
	if err != nil {
		return api.Error(ctx, err)
	}
	var body struct {
		UserID        string        `json:"user_id"`
		FrequencyType FrequencyType `json:"frequency_type"`
	}
	if err := ctx.BodyParser(&body); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	userID, err := primitive.ObjectIDFromHex(body.UserID)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid user_id"})
	}

	sched, err := c.service.CreateSchedule(ctx.UserContext(), formID, userID, body.FrequencyType)
	if err != nil {
		return api.Error(ctx, err)
	}
	return ctx.Status(fiber.StatusCreated).JSON(sched)
}

func (c *ScheduleController) List(ctx *fiber.Ctx) error {
	formID, err := api.ParamID(ctx, "formId")
	if err != nil {
		return api.Error(ctx, err)
	}
	schedules, err := c.service.ListForForm(ctx.UserContext(), formID)
	if err != nil {
		return api.Error(ctx, err)
	}
	return ctx.JSON(schedules)
}

func (c *ScheduleController) Delete(ctx *fiber.Ctx) error {
	id, err := api.ParamID(ctx, "id")
	if err != nil {
		return api.Error(ctx, err)
	}
	if err := c.service.DeleteSchedule(ctx.UserContext(), id); err != nil {
		return api.Error(ctx, err)
	}
	return ctx.SendStatus(fiber.StatusNoContent)
}
