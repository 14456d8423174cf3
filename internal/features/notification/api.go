package notification

import (
	"go-approvals/internal/config"
	"go-approvals/internal/middleware"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
)

type NotificationApi struct {
	controller *NotificationController
	stream     *StreamController
	config     *config.Config
}

func NewNotificationApi(controller *NotificationController, stream *StreamController, config *config.Config) *NotificationApi {
	return &NotificationApi{
		controller: controller,
		stream:     stream,
		config:     config,
	}
}

func (h *NotificationApi) Setup(app *fiber.App) {
	auth := middleware.AuthMiddleware(h.config.SkipAuth)

	group := app.Group("/api/notifications", auth)
	group.Get("/", h.controller.List)
	group.Get("/unread-count", h.controller.GetUnreadCount)
	group.Put("/:id/read", h.controller.MarkAsRead)
	group.Post("/mark-all-read", h.controller.MarkAllAsRead)
	group.Get("/ws", h.stream.Upgrade, websocket.New(h.stream.Stream))

	rules := app.Group("/api/forms/:formId/notification-rules", auth)
	rules.Post("/", h.controller.CreateRule)
	rules.Get("/", h.controller.ListRules)

	app.Delete("/api/notification-rules/:id", auth, h.controller.DeleteRule)
}
