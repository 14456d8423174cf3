package report

import (
	"fmt"

	"go-approvals/internal/common/api"

	"github.com/gofiber/fiber/v2"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type ReportController struct {
	ReportService ReportService
}

func NewReportController(reportService ReportService) *ReportController {
	return &ReportController{ReportService: reportService}
}

// ExportResponsibilities godoc
// @Summary Export a user's responsibilities as xlsx
// @Tags reports
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param userId path string true "User ID"
// @Router /api/users/{userId}/responsibilities/export [get]
func (c *ReportController) ExportResponsibilities(ctx *fiber.Ctx) error {
	userID, err := api.ParamID(ctx, "userId")
	if err != nil {
		return api.Error(ctx, err)
	}
	data, filename, err := c.ReportService.ExportResponsibilities(ctx.UserContext(), userID)
	if err != nil {
		return api.Error(ctx, err)
	}
	return sendFile(ctx, data, filename)
}

func (c *ReportController) ExportApprovalTrail(ctx *fiber.Ctx) error {
	responseID, err := api.ParamID(ctx, "responseId")
	if err != nil {
		return api.Error(ctx, err)
	}
	data, filename, err := c.ReportService.ExportApprovalTrail(ctx.UserContext(), responseID)
	if err != nil {
		return api.Error(ctx, err)
	}
	return sendFile(ctx, data, filename)
}

func sendFile(ctx *fiber.Ctx, data []byte, filename string) error {
	ctx.Set("Content-Type", xlsxContentType)
	ctx.Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	return ctx.Send(data)
}
