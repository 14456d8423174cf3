package system

import (
	"context"
	"time"

	"go-approvals/internal/database"

	"github.com/gofiber/fiber/v2"
)

type HealthApi struct {
	mongodb *database.MongodbDB
}

func NewHealthApi(mongodb *database.MongodbDB) *HealthApi {
	return &HealthApi{mongodb: mongodb}
}

// Setup registers health check routes
func (h *HealthApi) Setup(app *fiber.App) {
	app.Get("/health", h.HealthCheck)
	app.Get("/health/ready", h.Ready)
}

// HealthCheck godoc
// @Summary      Health Check
// @Description  Check if the server is up
// @Tags         health
// @Produce      plain
// @Success      200  {string}  string  "OK"
// @Router       /health [get]
func (h *HealthApi) HealthCheck(c *fiber.Ctx) error {
	return c.SendString("OK")
}

// Ready reports whether the database answers a ping.
func (h *HealthApi) Ready(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
	defer cancel()

	if err := h.mongodb.DB.Client().Ping(ctx, nil); err != nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "unavailable", "error": err.Error()})
	}
	return c.JSON(fiber.Map{"status": "ready"})
}
