package reminder

import (
	"context"
	"testing"
	"time"

	common_models "go-approvals/internal/common/models"
	"go-approvals/internal/config"
	"go-approvals/internal/features/approval"
	"go-approvals/internal/features/notification"
	"go-approvals/internal/features/template"
	"go-approvals/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryRunRepo struct {
	runs []Run
}

func (r *memoryRunRepo) Create(ctx context.Context, run *Run) error {
	r.runs = append(r.runs, *run)
	return nil
}

func (r *memoryRunRepo) Update(ctx context.Context, run *Run) error {
	for i := range r.runs {
		if r.runs[i].ID == run.ID {
			r.runs[i] = *run
		}
	}
	return nil
}

func (r *memoryRunRepo) List(ctx context.Context, limit int64) ([]Run, error) { return r.runs, nil }

func (r *memoryRunRepo) EnsureIndexes(ctx context.Context) error { return nil }

func newService(e *testutil.Engine, cfg *config.Config) (*ReminderServiceImpl, *memoryRunRepo) {
	repo := &memoryRunRepo{}
	svc := NewReminderService(repo, e.ApprovalService, e.NotificationService, e.Audit, cfg, testutil.Logger())
	return svc.(*ReminderServiceImpl), repo
}

func TestSweepRemindsWhoseTurnItIs(t *testing.T) {
	e := testutil.NewEngine()
	ctx := context.Background()
	ids := testutil.IDs(3)
	first, second, onTime := ids[0], ids[1], ids[2]
	oneDay, tenDays := 1, 10

	chain := e.Forms.AddForm("Capex")
	_, err := e.TemplateService.AddApprovers(ctx, chain.ID, []template.ApproverInput{
		{ApproverID: first, SequenceNumber: 1, DeadlineDays: &oneDay, FollowsSequence: true},
		{ApproverID: second, SequenceNumber: 2, FollowsSequence: true},
	})
	require.NoError(t, err)
	waiting, err := e.ApprovalService.Submit(ctx, chain.ID, testutil.IDs(1)[0])
	require.NoError(t, err)

	halted, err := e.ApprovalService.Submit(ctx, chain.ID, testutil.IDs(1)[0])
	require.NoError(t, err)
	for _, inst := range halted.Instances {
		if inst.ApproverID == first {
			_, err = e.ApprovalService.RecordDecision(ctx, inst.ID, first,
				approval.DecisionInput{Status: common_models.ApprovalStatusRejected})
			require.NoError(t, err)
		}
	}

	relaxed := e.Forms.AddForm("Travel")
	_, err = e.TemplateService.AddApprovers(ctx, relaxed.ID, []template.ApproverInput{
		{ApproverID: onTime, SequenceNumber: 1, DeadlineDays: &tenDays},
	})
	require.NoError(t, err)
	_, err = e.ApprovalService.Submit(ctx, relaxed.ID, testutil.IDs(1)[0])
	require.NoError(t, err)

	svc, repo := newService(e, &config.Config{})
	svc.now = func() time.Time { return time.Now().AddDate(0, 0, 3) }

	run, err := svc.Sweep(ctx, TriggerManual)
	require.NoError(t, err)
	assert.Equal(t, RunStatusSuccess, run.Status)
	assert.Equal(t, 3, run.Scanned)
	assert.Equal(t, 2, run.Reminded)
	assert.Equal(t, 1, run.Overdue)
	assert.Equal(t, 1, run.Skipped, "the rejected chain is halted")

	inbox := e.Inbox.ForUser(first)
	require.Len(t, inbox, 1)
	assert.Equal(t, notification.NotificationTypeWarning, inbox[0].Type)
	assert.Equal(t, "/responses/"+waiting.Response.ID.Hex(), inbox[0].Link)

	require.Len(t, e.Inbox.ForUser(onTime), 1)
	assert.Equal(t, notification.NotificationTypeReminder, e.Inbox.ForUser(onTime)[0].Type)
	assert.Empty(t, e.Inbox.ForUser(second))

	require.Len(t, repo.runs, 1)
	assert.NotNil(t, repo.runs[0].EndTime)
	assert.Contains(t, e.Audit.Actions(), common_models.AuditActionReminder)
}

func TestSweepRemindsParallelApprovers(t *testing.T) {
	e := testutil.NewEngine()
	ctx := context.Background()
	ids := testutil.IDs(4)
	left, right, optional, later := ids[0], ids[1], ids[2], ids[3]

	f := e.Forms.AddForm("Vendor onboarding")
	_, err := e.TemplateService.AddApprovers(ctx, f.ID, []template.ApproverInput{
		{ApproverID: left, SequenceNumber: 1, FollowsSequence: true},
		{ApproverID: right, SequenceNumber: 1, FollowsSequence: true},
		{ApproverID: optional, SequenceNumber: 1, IsMandatory: boolPtr(false)},
		{ApproverID: later, SequenceNumber: 2, FollowsSequence: true},
	})
	require.NoError(t, err)
	_, err = e.ApprovalService.Submit(ctx, f.ID, testutil.IDs(1)[0])
	require.NoError(t, err)

	svc, _ := newService(e, &config.Config{})
	run, err := svc.Sweep(ctx, TriggerManual)
	require.NoError(t, err)

	assert.Equal(t, 1, run.Scanned)
	assert.Equal(t, 2, run.Reminded)
	assert.Equal(t, 0, run.Skipped)
	assert.Len(t, e.Inbox.ForUser(left), 1)
	assert.Len(t, e.Inbox.ForUser(right), 1)
	assert.Empty(t, e.Inbox.ForUser(optional))
	assert.Empty(t, e.Inbox.ForUser(later))
}

func boolPtr(b bool) *bool { return &b }

func TestSweepLeavesApprovalStateAlone(t *testing.T) {
	e := testutil.NewEngine()
	ctx := context.Background()
	approver := testutil.IDs(1)[0]
	f := e.Forms.AddForm("Invoice")
	_, err := e.TemplateService.AddApprovers(ctx, f.ID, []template.ApproverInput{{ApproverID: approver, SequenceNumber: 1}})
	require.NoError(t, err)
	_, err = e.ApprovalService.Submit(ctx, f.ID, testutil.IDs(1)[0])
	require.NoError(t, err)
	before := e.Instances.All()

	svc, _ := newService(e, &config.Config{})
	_, err = svc.Sweep(ctx, TriggerManual)
	require.NoError(t, err)

	assert.Equal(t, before, e.Instances.All())
}

func TestStart(t *testing.T) {
	e := testutil.NewEngine()

	disabled, _ := newService(e, &config.Config{ReminderEnabled: false, ReminderSchedule: "not a cron"})
	assert.NoError(t, disabled.Start(context.Background()))
	assert.Nil(t, disabled.scheduler)

	broken, _ := newService(e, &config.Config{ReminderEnabled: true, ReminderSchedule: "not a cron"})
	assert.Error(t, broken.Start(context.Background()))

	ok, _ := newService(e, &config.Config{ReminderEnabled: true, ReminderSchedule: "0 8 * * *"})
	require.NoError(t, ok.Start(context.Background()))
	assert.Len(t, ok.scheduler.Entries(), 1)
	assert.NoError(t, ok.Stop())
}
