package transfer

import (
	"go-approvals/internal/common/api"

	"github.com/gofiber/fiber/v2"
)

type TransferController struct {
	service TransferService
}

func NewTransferController(service TransferService) *TransferController {
	return &TransferController{service: service}
}

// TransferAll godoc
// @Summary Move every responsibility from one user to another
// @Tags transfers
// @Accept json
// @Produce json
// @Param body body TransferRequest true "Source and destination users"
// @Success 200 {object} TransferResult
// @Router /api/transfers/all [post]
func (c *TransferController) TransferAll(ctx *fiber.Ctx) error {
	var req TransferRequest
	if err := ctx.BodyParser(&req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	result, err := c.service.TransferAll(ctx.UserContext(), req.FromUserID, req.ToUserID)
	if err != nil {
		return api.Error(ctx, err)
	}
	return ctx.JSON(result)
}

func (c *TransferController) TransferSpecific(ctx *fiber.Ctx) error {
	var req TransferRequest
	if err := ctx.BodyParser(&req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	result, err := c.service.TransferSpecific(ctx.UserContext(), req.FromUserID, req.ToUserID, req.FormIDs, req.Kinds)
	if err != nil {
		return api.Error(ctx, err)
	}
	return ctx.JSON(result)
}

// TransferBatch answers 200 even when some items failed; check each item's error.
func (c *TransferController) TransferBatch(ctx *fiber.Ctx) error {
	var body struct {
		Transfers []TransferRequest `json:"transfers"`
	}
	if err := ctx.BodyParser(&body); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	result, err := c.service.TransferBatch(ctx.UserContext(), body.Transfers)
	if err != nil {
		return api.Error(ctx, err)
	}
	return ctx.JSON(result)
}

func (c *TransferController) Responsibilities(ctx *fiber.Ctx) error {
	userID, err := api.ParamID(ctx, "userId")
	if err != nil {
		return api.Error(ctx, err)
	}
	result, err := c.service.GetUserResponsibilities(ctx.UserContext(), userID)
	if err != nil {
		return api.Error(ctx, err)
	}
	return ctx.JSON(result)
}
