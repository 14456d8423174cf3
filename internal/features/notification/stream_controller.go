package notification

import (
	"go-approvals/pkg/utils"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// StreamController pushes new inbox entries to a connected user.
type StreamController struct {
	hub    *Hub
	logger *zap.Logger
}

func NewStreamController(hub *Hub, logger *zap.Logger) *StreamController {
	return &StreamController{
		hub:    hub,
		logger: logger,
	}
}

// Upgrade rejects plain HTTP requests and resolves the caller before the
// handshake so the socket handler only sees authenticated users.
func (c *StreamController) Upgrade(ctx *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(ctx) {
		return fiber.ErrUpgradeRequired
	}
	claims, ok := ctx.Locals(utils.UserClaimsKey).(*utils.UserClaims)
	if !ok {
		return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}
	userID, err := claims.ActorID()
	if err != nil {
		return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}
	ctx.Locals("stream_user", userID)
	return ctx.Next()
}

func (c *StreamController) Stream(conn *websocket.Conn) {
	userID, _ := conn.Locals("stream_user").(primitive.ObjectID)
	updates, cancel := c.hub.Subscribe(userID)
	defer cancel()

	c.logger.Debug("Notification stream opened", zap.String("user_id", userID.Hex()))

	// The reader only exists to notice the client going away.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-closed:
			c.logger.Debug("Notification stream closed", zap.String("user_id", userID.Hex()))
			return
		case n, ok := <-updates:
			if !ok {
				return
			}
			if err := conn.WriteJSON(n); err != nil {
				c.logger.Debug("Notification stream write failed",
					zap.String("user_id", userID.Hex()),
					zap.Error(err),
				)
				return
			}
		}
	}
}
