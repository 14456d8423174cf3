package notification

import (
	"strconv"

	"go-approvals/internal/common/api"

	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type NotificationController struct {
	service NotificationService
}

func NewNotificationController(service NotificationService) *NotificationController {
	return &NotificationController{
		service: service,
	}
}

func (c *NotificationController) List(ctx *fiber.Ctx) error {
	userID, err := api.ActorID(ctx)
	if err != nil {
		return api.Error(ctx, err)
	}

	page, _ := strconv.ParseInt(ctx.Query("page", "1"), 10, 64)
	limit, _ := strconv.ParseInt(ctx.Query("limit", "10"), 10, 64)

	notifications, total, err := c.service.GetUserNotifications(ctx.UserContext(), userID, page, limit)
	if err != nil {
		return api.Error(ctx, err)
	}

	return ctx.JSON(fiber.Map{
		"data":  notifications,
		"total": total,
		"page":  page,
		"limit": limit,
	})
}

func (c *NotificationController) GetUnreadCount(ctx *fiber.Ctx) error {
	userID, err := api.ActorID(ctx)
	if err != nil {
		return api.Error(ctx, err)
	}

	count, err := c.service.GetUnreadCount(ctx.UserContext(), userID)
	if err != nil {
		return api.Error(ctx, err)
	}

	return ctx.JSON(fiber.Map{"count": count})
}

func (c *NotificationController) MarkAsRead(ctx *fiber.Ctx) error {
	userID, err := api.ActorID(ctx)
	if err != nil {
		return api.Error(ctx, err)
	}
	id, err := api.ParamID(ctx, "id")
	if err != nil {
		return api.Error(ctx, err)
	}

	if err := c.service.MarkAsRead(ctx.UserContext(), id, userID); err != nil {
		return api.Error(ctx, err)
	}

	return ctx.JSON(fiber.Map{"status": "success"})
}

func (c *NotificationController) MarkAllAsRead(ctx *fiber.Ctx) error {
	userID, err := api.ActorID(ctx)
	if err != nil {
		return api.Error(ctx, err)
	}

	if err := c.service.MarkAllAsRead(ctx.UserContext(), userID); err != nil {
		return api.Error(ctx, err)
	}

	return ctx.JSON(fiber.Map{"status": "success"})
}

func (c *NotificationController) CreateRule(ctx *fiber.Ctx) error {
	formID, err := api.ParamID(ctx, "formId")
	if err != nil {
		return api.Error(ctx, err)
	}
	var body struct {
		UserID  string  `json:"user_id"`
		Trigger Trigger `json:"trigger"`
	}
	if err := ctx.BodyParser(&body); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	userID, err := primitive.ObjectIDFromHex(body.UserID)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid user_id"})
	}

	rule, err := c.service.CreateRule(ctx.UserContext(), formID, userID, body.Trigger)
	if err != nil {
		return api.Error(ctx, err)
	}
	return ctx.Status(fiber.StatusCreated).JSON(rule)
}

func (c *NotificationController) ListRules(ctx *fiber.Ctx) error {
	formID, err := api.ParamID(ctx, "formId")
	if err != nil {
		return api.Error(ctx, err)
	}
	rules, err := c.service.ListRules(ctx.UserContext(), formID)
	if err != nil {
		return api.Error(ctx, err)
	}
	return ctx.JSON(rules)
}

func (c *NotificationController) DeleteRule(ctx *fiber.Ctx) error {
	id, err := api.ParamID(ctx, "id")
	if err != nil {
		return api.Error(ctx, err)
	}
	if err := c.service.DeleteRule(ctx.UserContext(), id); err != nil {
		return api.Error(ctx, err)
	}
	return ctx.SendStatus(fiber.StatusNoContent)
}
