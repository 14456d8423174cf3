package report

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"go-approvals/internal/features/approval"
	"go-approvals/internal/features/moderator"
	"go-approvals/internal/features/notification"
	"go-approvals/internal/features/schedule"
	"go-approvals/internal/features/template"
	"go-approvals/internal/features/transfer"

	"github.com/xuri/excelize/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type ReportService interface {
	// ExportResponsibilities renders what a user owns as a workbook with one
	// sheet per assignment kind.
	ExportResponsibilities(ctx context.Context, userID primitive.ObjectID) ([]byte, string, error)
	// ExportApprovalTrail renders every approval instance of a response.
	ExportApprovalTrail(ctx context.Context, responseID primitive.ObjectID) ([]byte, string, error)
}

type ReportServiceImpl struct {
	Transfers transfer.TransferService
	Approvals approval.ApprovalService
	Logger    *zap.Logger
}

func NewReportService(transfers transfer.TransferService, approvals approval.ApprovalService, logger *zap.Logger) ReportService {
	return &ReportServiceImpl{
		Transfers: transfers,
		Approvals: approvals,
		Logger:    logger,
	}
}

var responsibilityColumns = []string{"ID", "Form ID", "Form", "Category", "Key", "Detail"}

func (s *ReportServiceImpl) ExportResponsibilities(ctx context.Context, userID primitive.ObjectID) ([]byte, string, error) {
	resp, err := s.Transfers.GetUserResponsibilities(ctx, userID)
	if err != nil {
		return nil, "", err
	}

	sheets := make([]sheet, 0, len(transfer.AllKinds))
	for _, kind := range transfer.AllKinds {
		rows := make([][]interface{}, 0, len(resp.Items[kind]))
		for _, item := range resp.Items[kind] {
			title, category := "", ""
			if item.Form != nil {
				title, category = item.Form.Title, item.Form.Category
			}
			rows = append(rows, []interface{}{item.ID.Hex(), item.FormID.Hex(), title, category, item.Key, detail(item.Detail)})
		}
		sheets = append(sheets, sheet{name: sheetName(kind), columns: responsibilityColumns, rows: rows})
	}

	data, err := writeWorkbook(sheets)
	if err != nil {
		return nil, "", err
	}
	s.Logger.Info("Responsibilities exported", zap.String("user_id", userID.Hex()), zap.Int("items", resp.Total))
	return data, fmt.Sprintf("responsibilities_%s.xlsx", userID.Hex()), nil
}

var trailColumns = []string{"Instance ID", "Sequence", "Approver", "Mandatory", "Status", "Reviewed At", "Message", "Due At", "Reconsideration"}

func (s *ReportServiceImpl) ExportApprovalTrail(ctx context.Context, responseID primitive.ObjectID) ([]byte, string, error) {
	instances, err := s.Approvals.ListForResponse(ctx, responseID)
	if err != nil {
		return nil, "", err
	}

	rows := make([][]interface{}, 0, len(instances))
	for _, inst := range instances {
		rows = append(rows, []interface{}{
			inst.ID.Hex(),
			inst.SequenceNumber,
			inst.ApproverID.Hex(),
			inst.IsMandatory,
			string(inst.Status),
			formatTime(inst.ReviewedAt),
			inst.Message,
			formatTime(inst.DueAt),
			inst.ReconsiderationRequested,
		})
	}

	data, err := writeWorkbook([]sheet{{name: "Approvals", columns: trailColumns, rows: rows}})
	if err != nil {
		return nil, "", err
	}
	return data, fmt.Sprintf("approvals_%s.xlsx", responseID.Hex()), nil
}

type sheet struct {
	name    string
	columns []string
	rows    [][]interface{}
}

func writeWorkbook(sheets []sheet) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E0E0E0"}, Pattern: 1},
	})

	for i, sh := range sheets {
		index, err := f.NewSheet(sh.name)
		if err != nil {
			return nil, err
		}
		if i == 0 {
			f.SetActiveSheet(index)
		}

		for col, name := range sh.columns {
			cell, _ := excelize.CoordinatesToCellName(col+1, 1)
			f.SetCellValue(sh.name, cell, name)
			f.SetCellStyle(sh.name, cell, cell, headerStyle)
		}
		for r, row := range sh.rows {
			for col, val := range row {
				cell, _ := excelize.CoordinatesToCellName(col+1, r+2)
				f.SetCellValue(sh.name, cell, val)
			}
		}
	}
	// NewFile always starts with Sheet1.
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func sheetName(kind transfer.Kind) string {
	s := string(kind)
	return strings.ToUpper(s[:1]) + s[1:]
}

func detail(v interface{}) string {
	switch d := v.(type) {
	case schedule.Schedule:
		return "frequency=" + string(d.FrequencyType)
	case template.ApprovalTemplate:
		return fmt.Sprintf("sequence=%d mandatory=%t", d.SequenceNumber, d.IsMandatory)
	case notification.Rule:
		return "trigger=" + string(d.Trigger)
	case moderator.ModeratorLink:
		return "assigned_at=" + d.AssignedAt.Format("2006-01-02 15:04:05")
	}
	return ""
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("2006-01-02 15:04:05")
}
