package middleware

import (
	"context"
	"time"

	common_models "go-approvals/internal/common/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RequestLogger tags every request with an id (reusing an inbound X-Request-ID)
// and writes one access log line when the handler returns.
func RequestLogger(log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		requestID := c.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set("X-Request-ID", requestID)
		c.SetUserContext(context.WithValue(c.UserContext(), common_models.RequestIDKey, requestID))

		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			if e, ok := err.(*fiber.Error); ok {
				status = e.Code
			}
		}

		fields := []zap.Field{
			zap.String("request_id", requestID),
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Int("status", status),
			zap.Duration("latency", time.Since(start)),
		}
		if status >= fiber.StatusInternalServerError {
			log.Error("request failed", append(fields, zap.Error(err))...)
		} else {
			log.Info("request", fields...)
		}
		return err
	}
}
