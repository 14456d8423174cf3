package template

import (
	"go-approvals/internal/common/api"

	"github.com/gofiber/fiber/v2"
)

type TemplateController struct {
	Service TemplateService
}

func NewTemplateController(service TemplateService) *TemplateController {
	return &TemplateController{Service: service}
}

func (c *TemplateController) AddApprovers(ctx *fiber.Ctx) error {
	formID, err := api.ParamID(ctx, "formId")
	if err != nil {
		return api.Error(ctx, err)
	}

	var body struct {
		Approvers []ApproverInput `json:"approvers"`
	}
	if err := ctx.BodyParser(&body); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if len(body.Approvers) == 0 {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "approvers must not be empty"})
	}

	result, err := c.Service.AddApprovers(ctx.UserContext(), formID, body.Approvers)
	if err != nil {
		return api.Error(ctx, err)
	}

	status := fiber.StatusOK
	if result.Added > 0 {
		status = fiber.StatusCreated
	}
	return ctx.Status(status).JSON(result)
}

func (c *TemplateController) ListActive(ctx *fiber.Ctx) error {
	formID, err := api.ParamID(ctx, "formId")
	if err != nil {
		return api.Error(ctx, err)
	}
	templates, err := c.Service.ListActive(ctx.UserContext(), formID)
	if err != nil {
		return api.Error(ctx, err)
	}
	return ctx.JSON(templates)
}

func (c *TemplateController) BulkUpdate(ctx *fiber.Ctx) error {
	var body struct {
		Updates []TemplateUpdate `json:"updates"`
	}
	if err := ctx.BodyParser(&body); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	outcomes, err := c.Service.BulkUpdate(ctx.UserContext(), body.Updates)
	if err != nil {
		return api.Error(ctx, err)
	}
	return ctx.JSON(fiber.Map{"updated": outcomes})
}

func (c *TemplateController) Get(ctx *fiber.Ctx) error {
	id, err := api.ParamID(ctx, "id")
	if err != nil {
		return api.Error(ctx, err)
	}
	tpl, err := c.Service.GetByID(ctx.UserContext(), id)
	if err != nil {
		return api.Error(ctx, err)
	}
	return ctx.JSON(tpl)
}

func (c *TemplateController) Deactivate(ctx *fiber.Ctx) error {
	id, err := api.ParamID(ctx, "id")
	if err != nil {
		return api.Error(ctx, err)
	}
	if err := c.Service.Deactivate(ctx.UserContext(), id); err != nil {
		return api.Error(ctx, err)
	}
	return ctx.SendStatus(fiber.StatusNoContent)
}
