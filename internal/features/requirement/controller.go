package requirement

import (
	"go-approvals/internal/common/api"

	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type RequirementController struct {
	Service RequirementService
}

func NewRequirementController(service RequirementService) *RequirementController {
	return &RequirementController{Service: service}
}

func (c *RequirementController) Create(ctx *fiber.Ctx) error {
	formID, err := api.ParamID(ctx, "formId")
	if err != nil {
		return api.Error(ctx, err)
	}
	var input RequirementInput
	if err := ctx.BodyParser(&input); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	req, created, err := c.Service.CreateRequirement(ctx.UserContext(), formID, input)
	if err != nil {
		return api.Error(ctx, err)
	}
	status := fiber.StatusOK
	if created {
		status = fiber.StatusCreated
	}
	return ctx.Status(status).JSON(fiber.Map{"requirement": req, "created": created})
}

func (c *RequirementController) ListForForm(ctx *fiber.Ctx) error {
	formID, err := api.ParamID(ctx, "formId")
	if err != nil {
		return api.Error(ctx, err)
	}
	reqs, err := c.Service.ListForForm(ctx.UserContext(), formID)
	if err != nil {
		return api.Error(ctx, err)
	}
	return ctx.JSON(reqs)
}

func (c *RequirementController) ListForResponse(ctx *fiber.Ctx) error {
	responseID, err := api.ParamID(ctx, "responseId")
	if err != nil {
		return api.Error(ctx, err)
	}
	rows, err := c.Service.ListForResponse(ctx.UserContext(), responseID)
	if err != nil {
		return api.Error(ctx, err)
	}
	return ctx.JSON(rows)
}

func (c *RequirementController) Fulfill(ctx *fiber.Ctx) error {
	id, err := api.ParamID(ctx, "id")
	if err != nil {
		return api.Error(ctx, err)
	}
	var body struct {
		FulfillingResponseID string `json:"fulfilling_response_id"`
	}
	if err := ctx.BodyParser(&body); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	fulfillingID, err := primitive.ObjectIDFromHex(body.FulfillingResponseID)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid fulfilling_response_id"})
	}

	row, err := c.Service.Fulfill(ctx.UserContext(), id, fulfillingID)
	if err != nil {
		return api.Error(ctx, err)
	}
	return ctx.JSON(row)
}
