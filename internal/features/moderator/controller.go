package moderator

import (
	"go-approvals/internal/common/api"

	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ModeratorController struct {
	service ModeratorService
}

func NewModeratorController(service ModeratorService) *ModeratorController {
	return &ModeratorController{service: service}
}

func (c *ModeratorController) Assign(ctx *fiber.Ctx) error {
	formID, err := api.ParamID(ctx, "formId")
	if err != nil {
		return api.Error(ctx, err)
	}
	var body struct {
		UserID string `json:"user_id"`
	}
	if err := ctx.BodyParser(&body); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	userID, err := primitive.ObjectIDFromHex(body.UserID)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid user_id"})
	}

	link, err := c.service.Assign(ctx.UserContext(), formID, userID)
	if err != nil {
		return api.Error(ctx, err)
	}
	return ctx.Status(fiber.StatusCreated).JSON(link)
}

func (c *ModeratorController) List(ctx *fiber.Ctx) error {
	formID, err := api.ParamID(ctx, "formId")
	if err != nil {
		return api.Error(ctx, err)
	}
	links, err := c.service.ListForForm(ctx.UserContext(), formID)
	if err != nil {
		return api.Error(ctx, err)
	}
	return ctx.JSON(links)
}

func (c *ModeratorController) Remove(ctx *fiber.Ctx) error {
	id, err := api.ParamID(ctx, "id")
	if err != nil {
		return api.Error(ctx, err)
	}
	if err := c.service.Remove(ctx.UserContext(), id); err != nil {
		return api.Error(ctx, err)
	}
	return ctx.SendStatus(fiber.StatusNoContent)
}
