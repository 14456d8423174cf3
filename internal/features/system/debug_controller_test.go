package system

import (
	"encoding/json"
	"net/http/httptest"
	"testing"

	"go-approvals/internal/config"
	"go-approvals/internal/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetCurrentUserEchoesDevIdentity(t *testing.T) {
	app := fiber.New()
	app.Get("/me", middleware.AuthMiddleware(true), NewDebugController().GetCurrentUser)

	req := httptest.NewRequest("GET", "/me", nil)
	req.Header.Set("X-Dev-User", "64b000000000000000000001")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "64b000000000000000000001", body["actor_id"])
	assert.NotContains(t, body, "expires_at")
}

func TestGetCurrentUserRejects(t *testing.T) {
	tests := []struct {
		name    string
		handler []fiber.Handler
		devUser string
	}{
		{"without claims", nil, ""},
		{"identity is not a user id", []fiber.Handler{middleware.AuthMiddleware(true)}, "admin"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := fiber.New()
			handlers := append(tt.handler, NewDebugController().GetCurrentUser)
			app.Get("/me", handlers...)

			req := httptest.NewRequest("GET", "/me", nil)
			if tt.devUser != "" {
				req.Header.Set("X-Dev-User", tt.devUser)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
		})
	}
}

func TestDebugRoutesAreHiddenInProduction(t *testing.T) {
	for env, want := range map[string]int{"production": fiber.StatusNotFound, "development": fiber.StatusOK} {
		t.Run(env, func(t *testing.T) {
			app := fiber.New()
			NewDebugApi(NewDebugController(), &config.Config{Environment: env, SkipAuth: true}).Setup(app)

			resp, err := app.Test(httptest.NewRequest("GET", "/api/debug/me", nil))
			require.NoError(t, err)
			assert.Equal(t, want, resp.StatusCode)
		})
	}
}
