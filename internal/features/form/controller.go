package form

import (
	"go-approvals/internal/common/api"

	"github.com/gofiber/fiber/v2"
)

type FormController struct {
	Service FormService
}

func NewFormController(service FormService) *FormController {
	return &FormController{Service: service}
}

func (c *FormController) CreateForm(ctx *fiber.Ctx) error {
	actorID, err := api.ActorID(ctx)
	if err != nil {
		return api.Error(ctx, err)
	}

	var input Form
	if err := ctx.BodyParser(&input); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	input.ID = [12]byte{}
	input.CreatedBy = actorID

	if err := c.Service.CreateForm(ctx.UserContext(), &input); err != nil {
		return api.Error(ctx, err)
	}
	return ctx.Status(fiber.StatusCreated).JSON(input)
}

func (c *FormController) ListForms(ctx *fiber.Ctx) error {
	forms, err := c.Service.ListForms(ctx.UserContext())
	if err != nil {
		return api.Error(ctx, err)
	}
	return ctx.JSON(forms)
}

func (c *FormController) GetForm(ctx *fiber.Ctx) error {
	id, err := api.ParamID(ctx, "id")
	if err != nil {
		return api.Error(ctx, err)
	}
	form, err := c.Service.GetForm(ctx.UserContext(), id)
	if err != nil {
		return api.Error(ctx, err)
	}
	return ctx.JSON(form)
}

func (c *FormController) GetResponse(ctx *fiber.Ctx) error {
	id, err := api.ParamID(ctx, "id")
	if err != nil {
		return api.Error(ctx, err)
	}
	response, err := c.Service.GetResponse(ctx.UserContext(), id)
	if err != nil {
		return api.Error(ctx, err)
	}
	return ctx.JSON(response)
}
