package transfer

import (
	"go-approvals/internal/config"
	"go-approvals/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type TransferApi struct {
	controller *TransferController
	config     *config.Config
}

func NewTransferApi(controller *TransferController, config *config.Config) *TransferApi {
	return &TransferApi{
		controller: controller,
		config:     config,
	}
}

func (h *TransferApi) Setup(app *fiber.App) {
	auth := middleware.AuthMiddleware(h.config.SkipAuth)

	group := app.Group("/api/transfers", auth)
	group.Post("/all", h.controller.TransferAll)
	group.Post("/specific", h.controller.TransferSpecific)
	group.Post("/batch", h.controller.TransferBatch)

	app.Get("/api/users/:userId/responsibilities", auth, h.controller.Responsibilities)
}
