package middleware

import (
	"io"
	"net/http/httptest"
	"testing"

	"go-approvals/pkg/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

func newApp(skipAuth bool) *fiber.App {
	app := fiber.New()
	app.Get("/me", AuthMiddleware(skipAuth), func(c *fiber.Ctx) error {
		claims := c.Locals(utils.UserClaimsKey).(*utils.UserClaims)
		return c.SendString(claims.UserID)
	})
	return app
}

func TestAuthMiddlewareRejectsMissingHeader(t *testing.T) {
	resp, err := newApp(false).Test(httptest.NewRequest("GET", "/me", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestAuthMiddlewareAcceptsValidToken(t *testing.T) {
	utils.SetSecret("middleware-test")
	userID := primitive.NewObjectID()
	token, err := utils.GenerateToken(userID, "approver")
	require.NoError(t, err)

	req := httptest.NewRequest("GET", "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := newApp(false).Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestAuthMiddlewareSkipAuthUsesDevOverride(t *testing.T) {
	req := httptest.NewRequest("GET", "/me", nil)
	req.Header.Set("X-Dev-User", "64b000000000000000000042")
	resp, err := newApp(true).Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "64b000000000000000000042", string(body))
}

func TestRequestLoggerSetsRequestID(t *testing.T) {
	app := fiber.New()
	app.Use(RequestLogger(zap.NewNop()))
	app.Get("/ping", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusNoContent) })

	resp, err := app.Test(httptest.NewRequest("GET", "/ping", nil))
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))

	req := httptest.NewRequest("GET", "/ping", nil)
	req.Header.Set("X-Request-ID", "fixed")
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, "fixed", resp.Header.Get("X-Request-ID"))
}
