package transfer_test

import (
	"context"
	"testing"

	"go-approvals/internal/common/apperror"
	common_models "go-approvals/internal/common/models"
	"go-approvals/internal/features/notification"
	"go-approvals/internal/features/schedule"
	"go-approvals/internal/features/template"
	"go-approvals/internal/features/transfer"
	"go-approvals/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type fixture struct {
	e        *testutil.Engine
	from, to primitive.ObjectID
	f1, f2   primitive.ObjectID
}

// seed gives from one assignment of each kind on f1 plus a schedule and a
// moderator link on f2; to already covers the f1 schedule and moderator link.
func seed(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	e := testutil.NewEngine()
	ids := testutil.IDs(2)
	fx := &fixture{e: e, from: ids[0], to: ids[1]}
	fx.f1 = e.Forms.AddForm("Purchase order").ID
	fx.f2 = e.Forms.AddForm("Leave request").ID

	_, err := e.ScheduleService.CreateSchedule(ctx, fx.f1, fx.from, schedule.FrequencyDaily)
	require.NoError(t, err)
	_, err = e.ScheduleService.CreateSchedule(ctx, fx.f2, fx.from, schedule.FrequencyWeekly)
	require.NoError(t, err)
	_, err = e.ScheduleService.CreateSchedule(ctx, fx.f1, fx.to, schedule.FrequencyDaily)
	require.NoError(t, err)

	_, err = e.TemplateService.AddApprovers(ctx, fx.f1, []template.ApproverInput{{ApproverID: fx.from, SequenceNumber: 1}})
	require.NoError(t, err)
	_, err = e.NotificationService.CreateRule(ctx, fx.f1, fx.from, notification.TriggerEachApproval)
	require.NoError(t, err)

	_, err = e.ModeratorService.Assign(ctx, fx.f1, fx.from)
	require.NoError(t, err)
	_, err = e.ModeratorService.Assign(ctx, fx.f2, fx.from)
	require.NoError(t, err)
	_, err = e.ModeratorService.Assign(ctx, fx.f1, fx.to)
	require.NoError(t, err)
	return fx
}

func (fx *fixture) owned(t *testing.T, user primitive.ObjectID) int {
	t.Helper()
	r, err := fx.e.TransferService.GetUserResponsibilities(context.Background(), user)
	require.NoError(t, err)
	return r.Total
}

func TestTransferAll(t *testing.T) {
	fx := seed(t)
	ctx := context.Background()

	res, err := fx.e.TransferService.TransferAll(ctx, fx.from, fx.to)
	require.NoError(t, err)

	assert.Equal(t, transfer.KindResult{Transferred: 1, SkippedDuplicate: 1}, res.Kinds[transfer.KindSchedules])
	assert.Equal(t, transfer.KindResult{Transferred: 1}, res.Kinds[transfer.KindApprovals])
	assert.Equal(t, transfer.KindResult{Transferred: 1}, res.Kinds[transfer.KindNotifications])
	assert.Equal(t, transfer.KindResult{Transferred: 1, SkippedDuplicate: 1}, res.Kinds[transfer.KindModerators])
	assert.Equal(t, transfer.KindResult{Transferred: 4, SkippedDuplicate: 2}, res.Summary)

	assert.Equal(t, 0, fx.owned(t, fx.from))
	assert.Equal(t, 6, fx.owned(t, fx.to))
	assert.Len(t, fx.e.Schedules.All(), 2, "the duplicate schedule row is deleted")
	assert.Contains(t, fx.e.Audit.Actions(), common_models.AuditActionTransfer)

	again, err := fx.e.TransferService.TransferAll(ctx, fx.from, fx.to)
	require.NoError(t, err)
	assert.Equal(t, transfer.KindResult{}, again.Summary)
}

func TestTransferDuplicateTemplateIsDeactivated(t *testing.T) {
	fx := seed(t)
	ctx := context.Background()
	_, err := fx.e.TemplateService.AddApprovers(ctx, fx.f1, []template.ApproverInput{{ApproverID: fx.to, SequenceNumber: 1}})
	require.NoError(t, err)

	res, err := fx.e.TransferService.TransferAll(ctx, fx.from, fx.to)
	require.NoError(t, err)
	assert.Equal(t, transfer.KindResult{SkippedDuplicate: 1}, res.Kinds[transfer.KindApprovals])

	rows := fx.e.Templates.All()
	require.Len(t, rows, 2, "template rows are kept as history")
	for _, r := range rows {
		assert.Equal(t, r.ApproverID == fx.to, r.IsActive)
	}
}

func TestTransferLeavesInstancesWithTheirApprover(t *testing.T) {
	fx := seed(t)
	ctx := context.Background()
	sub, err := fx.e.ApprovalService.Submit(ctx, fx.f1, primitive.NewObjectID())
	require.NoError(t, err)
	require.Len(t, sub.Instances, 1)

	_, err = fx.e.TransferService.TransferAll(ctx, fx.from, fx.to)
	require.NoError(t, err)

	instances, err := fx.e.ApprovalService.ListForResponse(ctx, sub.Response.ID)
	require.NoError(t, err)
	require.Len(t, instances, 1)
	assert.Equal(t, fx.from, instances[0].ApproverID)

	pending, err := fx.e.ApprovalService.PendingForApprover(ctx, fx.to)
	require.NoError(t, err)
	assert.Empty(t, pending)

	next, err := fx.e.ApprovalService.Submit(ctx, fx.f1, primitive.NewObjectID())
	require.NoError(t, err)
	require.Len(t, next.Instances, 1)
	assert.Equal(t, fx.to, next.Instances[0].ApproverID, "new responses snapshot the transferred template")
}

func TestTransferDuplicateSlotKeepsOneInstancePerApprover(t *testing.T) {
	fx := seed(t)
	ctx := context.Background()
	_, err := fx.e.TemplateService.AddApprovers(ctx, fx.f1, []template.ApproverInput{{ApproverID: fx.to, SequenceNumber: 1}})
	require.NoError(t, err)
	sub, err := fx.e.ApprovalService.Submit(ctx, fx.f1, primitive.NewObjectID())
	require.NoError(t, err)
	require.Len(t, sub.Instances, 2)

	_, err = fx.e.TransferService.TransferAll(ctx, fx.from, fx.to)
	require.NoError(t, err)

	instances, err := fx.e.ApprovalService.ListForResponse(ctx, sub.Response.ID)
	require.NoError(t, err)
	perApprover := map[primitive.ObjectID]int{}
	for _, inst := range instances {
		perApprover[inst.ApproverID]++
	}
	assert.Equal(t, map[primitive.ObjectID]int{fx.from: 1, fx.to: 1}, perApprover)

	pending, err := fx.e.ApprovalService.PendingForApprover(ctx, fx.to)
	require.NoError(t, err)
	assert.Len(t, pending, 1)
}

func TestTransferSummarySurvivesTransactionRetry(t *testing.T) {
	fx := seed(t)
	fx.e.Tx.TransientAborts = 1

	res, err := fx.e.TransferService.TransferAll(context.Background(), fx.from, fx.to)
	require.NoError(t, err)

	assert.Equal(t, 1, fx.e.Tx.Retries)
	assert.Equal(t, transfer.KindResult{Transferred: 4, SkippedDuplicate: 2}, res.Summary)
	assert.Equal(t, transfer.KindResult{Transferred: 1, SkippedDuplicate: 1}, res.Kinds[transfer.KindSchedules])
	assert.Equal(t, 0, fx.owned(t, fx.from))
	assert.Equal(t, 6, fx.owned(t, fx.to))
}

func TestTransferSpecific(t *testing.T) {
	tests := []struct {
		name      string
		kinds     []transfer.Kind
		wantMoved transfer.KindResult
		wantFrom  int
	}{
		{"all kinds on f2", nil, transfer.KindResult{Transferred: 2}, 4},
		{"schedules only on f2", []transfer.Kind{transfer.KindSchedules}, transfer.KindResult{Transferred: 1}, 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fx := seed(t)
			res, err := fx.e.TransferService.TransferSpecific(context.Background(), fx.from, fx.to, []primitive.ObjectID{fx.f2}, tt.kinds)
			require.NoError(t, err)
			assert.Equal(t, tt.wantMoved, res.Summary)
			assert.Equal(t, tt.wantFrom, fx.owned(t, fx.from))
		})
	}
}

// from owns every kind on three forms; only schedules and rules on two of
// them move.
func TestTransferSpecificKindsOnSelectedForms(t *testing.T) {
	ctx := context.Background()
	e := testutil.NewEngine()
	ids := testutil.IDs(2)
	from, to := ids[0], ids[1]
	forms := []primitive.ObjectID{
		e.Forms.AddForm("Purchase order").ID,
		e.Forms.AddForm("Leave request").ID,
		e.Forms.AddForm("Travel claim").ID,
	}
	for _, f := range forms {
		_, err := e.ScheduleService.CreateSchedule(ctx, f, from, schedule.FrequencyMonthly)
		require.NoError(t, err)
		_, err = e.TemplateService.AddApprovers(ctx, f, []template.ApproverInput{{ApproverID: from, SequenceNumber: 1}})
		require.NoError(t, err)
		_, err = e.NotificationService.CreateRule(ctx, f, from, notification.TriggerFinalApproval)
		require.NoError(t, err)
		_, err = e.ModeratorService.Assign(ctx, f, from)
		require.NoError(t, err)
	}

	res, err := e.TransferService.TransferSpecific(ctx, from, to, forms[:2],
		[]transfer.Kind{transfer.KindSchedules, transfer.KindNotifications})
	require.NoError(t, err)
	assert.Equal(t, transfer.KindResult{Transferred: 4}, res.Summary)
	assert.NotContains(t, res.Kinds, transfer.KindApprovals)
	assert.NotContains(t, res.Kinds, transfer.KindModerators)

	got, err := e.TransferService.GetUserResponsibilities(ctx, to)
	require.NoError(t, err)
	assert.Len(t, got.Items[transfer.KindSchedules], 2)
	assert.Len(t, got.Items[transfer.KindNotifications], 2)
	assert.Empty(t, got.Items[transfer.KindApprovals])
	assert.Empty(t, got.Items[transfer.KindModerators])

	left, err := e.TransferService.GetUserResponsibilities(ctx, from)
	require.NoError(t, err)
	assert.Len(t, left.Items[transfer.KindApprovals], 3, "approvals on the selected forms stay")
	assert.Len(t, left.Items[transfer.KindModerators], 3, "moderator links on the selected forms stay")
	require.Len(t, left.Items[transfer.KindSchedules], 1)
	assert.Equal(t, forms[2], left.Items[transfer.KindSchedules][0].FormID)
	require.Len(t, left.Items[transfer.KindNotifications], 1)
	assert.Equal(t, forms[2], left.Items[transfer.KindNotifications][0].FormID)
}

func TestTransferRollsBackEveryKind(t *testing.T) {
	fx := seed(t)
	fx.e.Moderators.FailReassign = true
	before := fx.owned(t, fx.from)

	_, err := fx.e.TransferService.TransferAll(context.Background(), fx.from, fx.to)
	require.ErrorIs(t, err, testutil.ErrInjected())

	assert.Equal(t, before, fx.owned(t, fx.from), "schedules, approvals and rules moved before the failure are restored")
	assert.Equal(t, 1, fx.e.Tx.Rollbacks)
}

func TestTransferValidation(t *testing.T) {
	fx := seed(t)
	ctx := context.Background()

	_, err := fx.e.TransferService.TransferAll(ctx, fx.from, fx.from)
	assert.True(t, apperror.Is(err, apperror.KindConflict))

	_, err = fx.e.TransferService.TransferAll(ctx, primitive.NilObjectID, fx.to)
	assert.True(t, apperror.Is(err, apperror.KindInvalid))

	_, err = fx.e.TransferService.TransferSpecific(ctx, fx.from, fx.to, []primitive.ObjectID{fx.f1}, []transfer.Kind{"tickets"})
	assert.True(t, apperror.Is(err, apperror.KindInvalid))

	_, err = fx.e.TransferService.TransferSpecific(ctx, fx.from, fx.to, nil, nil)
	assert.True(t, apperror.Is(err, apperror.KindInvalid))
}

func TestTransferBatchCommitsPerItem(t *testing.T) {
	fx := seed(t)
	third := primitive.NewObjectID()

	res, err := fx.e.TransferService.TransferBatch(context.Background(), []transfer.TransferRequest{
		{FromUserID: fx.from, ToUserID: fx.to, FormIDs: []primitive.ObjectID{fx.f2}},
		{FromUserID: fx.to, ToUserID: fx.to},
		{FromUserID: fx.to, ToUserID: third},
	})
	require.NoError(t, err)

	assert.NotEmpty(t, res.BatchID)
	assert.Equal(t, 2, res.Succeeded)
	assert.Equal(t, 1, res.Failed)
	require.Len(t, res.Items, 3)
	assert.Empty(t, res.Items[0].Error)
	assert.NotEmpty(t, res.Items[1].Error)
	assert.Nil(t, res.Items[1].Result)

	assert.Equal(t, 4, fx.owned(t, fx.from), "only the f2 assignments left from")
	assert.Equal(t, 0, fx.owned(t, fx.to))
	assert.Equal(t, 4, fx.owned(t, third))
}

func TestGetUserResponsibilitiesJoinsForms(t *testing.T) {
	fx := seed(t)

	r, err := fx.e.TransferService.GetUserResponsibilities(context.Background(), fx.from)
	require.NoError(t, err)

	assert.Equal(t, 6, r.Total)
	require.Len(t, r.Items[transfer.KindModerators], 2)
	for _, kind := range transfer.AllKinds {
		for _, item := range r.Items[kind] {
			require.NotNil(t, item.Form)
			assert.Equal(t, item.FormID, item.Form.ID)
		}
	}
	assert.Equal(t, "Purchase order", r.Items[transfer.KindApprovals][0].Form.Title)
}
