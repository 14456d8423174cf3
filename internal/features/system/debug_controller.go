package system

import (
	"go-approvals/pkg/utils"

	"github.com/gofiber/fiber/v2"
)

type DebugController struct{}

func NewDebugController() *DebugController {
	return &DebugController{}
}

// GetCurrentUser godoc
// @Summary      Get current user info
// @Description  Get the acting identity the approval endpoints will use
// @Tags         debug
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Router       /api/debug/me [get]
func (c *DebugController) GetCurrentUser(ctx *fiber.Ctx) error {
	claims, ok := ctx.Locals(utils.UserClaimsKey).(*utils.UserClaims)
	if !ok {
		return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "missing user claims"})
	}
	actorID, err := claims.ActorID()
	if err != nil {
		return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": err.Error()})
	}

	body := fiber.Map{
		"actor_id": actorID.Hex(),
		"name":     claims.Name,
	}
	if claims.ExpiresAt != nil {
		body["expires_at"] = claims.ExpiresAt.Time
	}
	return ctx.JSON(body)
}
