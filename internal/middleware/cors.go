package middleware

import (
	"go-approvals/internal/config"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
)

// CORSMiddleware allows the configured front-ends. Export downloads need
// Content-Disposition exposed; the dev identity header is only accepted when
// auth is skipped.
func CORSMiddleware(cfg *config.Config) fiber.Handler {
	headers := "Content-Type,Authorization,X-Request-ID"
	if cfg.SkipAuth {
		headers += ",X-Dev-User"
	}
	return cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders:     headers,
		ExposeHeaders:    "X-Request-ID,Content-Disposition",
		AllowCredentials: true,
	})
}
