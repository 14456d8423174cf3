package report_test

import (
	"bytes"
	"context"
	"testing"

	"go-approvals/internal/features/report"
	"go-approvals/internal/features/schedule"
	"go-approvals/internal/features/template"
	"go-approvals/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestExportResponsibilities(t *testing.T) {
	e := testutil.NewEngine()
	ctx := context.Background()
	user := testutil.IDs(1)[0]
	f := e.Forms.AddForm("Vendor onboarding")

	_, err := e.ScheduleService.CreateSchedule(ctx, f.ID, user, schedule.FrequencyMonthly)
	require.NoError(t, err)
	_, err = e.TemplateService.AddApprovers(ctx, f.ID, []template.ApproverInput{{ApproverID: user, SequenceNumber: 2}})
	require.NoError(t, err)

	svc := report.NewReportService(e.TransferService, e.ApprovalService, testutil.Logger())
	data, filename, err := svc.ExportResponsibilities(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, "responsibilities_"+user.Hex()+".xlsx", filename)

	wb, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer wb.Close()

	assert.Equal(t, []string{"Schedules", "Approvals", "Notifications", "Moderators"}, wb.GetSheetList())

	rows, err := wb.GetRows("Schedules")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Form", rows[0][2])
	assert.Equal(t, "Vendor onboarding", rows[1][2])
	assert.Equal(t, "monthly", rows[1][4])

	rows, err = wb.GetRows("Approvals")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "sequence=2 mandatory=true", rows[1][5])

	rows, err = wb.GetRows("Moderators")
	require.NoError(t, err)
	assert.Len(t, rows, 1, "header only")
}

func TestExportApprovalTrail(t *testing.T) {
	e := testutil.NewEngine()
	ctx := context.Background()
	ids := testutil.IDs(2)
	f := e.Forms.AddForm("Refund")
	_, err := e.TemplateService.AddApprovers(ctx, f.ID, []template.ApproverInput{
		{ApproverID: ids[0], SequenceNumber: 1},
		{ApproverID: ids[1], SequenceNumber: 2},
	})
	require.NoError(t, err)
	sub, err := e.ApprovalService.Submit(ctx, f.ID, testutil.IDs(1)[0])
	require.NoError(t, err)

	svc := report.NewReportService(e.TransferService, e.ApprovalService, testutil.Logger())
	data, _, err := svc.ExportApprovalTrail(ctx, sub.Response.ID)
	require.NoError(t, err)

	wb, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer wb.Close()

	rows, err := wb.GetRows("Approvals")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "pending", rows[1][4])
	assert.Equal(t, "1", rows[1][1])
}
