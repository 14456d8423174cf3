package notification_test

import (
	"context"
	"testing"

	"go-approvals/internal/common/apperror"
	common_models "go-approvals/internal/common/models"
	"go-approvals/internal/features/notification"
	"go-approvals/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func newService() (notification.NotificationService, *testutil.RuleStore, *testutil.InboxStore) {
	rules := testutil.NewRuleStore()
	inbox := testutil.NewInboxStore()
	return notification.NewNotificationService(inbox, rules, notification.NewHub(), testutil.Logger()), rules, inbox
}

func TestCreateRuleRejectsDuplicates(t *testing.T) {
	svc, _, _ := newService()
	ctx := context.Background()
	formID, userID := primitive.NewObjectID(), primitive.NewObjectID()

	_, err := svc.CreateRule(ctx, formID, userID, notification.TriggerEachApproval)
	require.NoError(t, err)

	_, err = svc.CreateRule(ctx, formID, userID, notification.TriggerEachApproval)
	assert.True(t, apperror.Is(err, apperror.KindDuplicate))

	_, err = svc.CreateRule(ctx, formID, userID, notification.TriggerFinalApproval)
	assert.NoError(t, err, "different trigger is a different rule")

	_, err = svc.CreateRule(ctx, formID, userID, notification.Trigger("weekly"))
	assert.True(t, apperror.Is(err, apperror.KindInvalid))
}

func TestDecideRecipients(t *testing.T) {
	svc, _, _ := newService()
	ctx := context.Background()
	formID := primitive.NewObjectID()
	ids := testutil.IDs(3)

	_, err := svc.CreateRule(ctx, formID, ids[0], notification.TriggerEachApproval)
	require.NoError(t, err)
	_, err = svc.CreateRule(ctx, formID, ids[1], notification.TriggerFinalApproval)
	require.NoError(t, err)
	_, err = svc.CreateRule(ctx, formID, ids[2], notification.TriggerEachApproval)
	require.NoError(t, err)
	_, err = svc.CreateRule(ctx, formID, ids[2], notification.TriggerFinalApproval)
	require.NoError(t, err)

	tests := []struct {
		name    string
		final   bool
		trigger notification.Trigger
		want    []primitive.ObjectID
	}{
		{"intermediate decision", false, notification.TriggerEachApproval, []primitive.ObjectID{ids[0], ids[2]}},
		{"final decision", true, notification.TriggerFinalApproval, []primitive.ObjectID{ids[0], ids[1], ids[2]}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := svc.Decide(ctx, formID, primitive.NewObjectID(), primitive.NewObjectID(), common_models.ApprovalStatusApproved, tt.final)
			require.NoError(t, err)
			assert.Equal(t, tt.trigger, d.Trigger)
			assert.ElementsMatch(t, tt.want, d.Recipients)
		})
	}
}

func TestDispatchLogsAndSkipsFailures(t *testing.T) {
	svc, _, inbox := newService()
	ids := testutil.IDs(2)
	inbox.FailFor = ids[1]

	delivered := svc.Dispatch(context.Background(), &notification.Decision{
		ResponseID: primitive.NewObjectID(),
		Status:     common_models.ApprovalStatusRejected,
		Trigger:    notification.TriggerEachApproval,
		Recipients: ids,
	})
	assert.Equal(t, 1, delivered)
	require.Len(t, inbox.ForUser(ids[0]), 1)
	assert.Equal(t, notification.NotificationTypeWarning, inbox.ForUser(ids[0])[0].Type)
	assert.Equal(t, 0, svc.Dispatch(context.Background(), nil))
}

func TestInbox(t *testing.T) {
	svc, _, _ := newService()
	ctx := context.Background()
	userID := primitive.NewObjectID()

	require.NoError(t, svc.CreateNotification(ctx, userID, "a", "first", notification.NotificationTypeInfo, ""))
	require.NoError(t, svc.CreateNotification(ctx, userID, "b", "second", notification.NotificationTypeTask, ""))

	count, err := svc.GetUnreadCount(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	items, total, err := svc.GetUserNotifications(ctx, userID, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, items, 1)

	require.NoError(t, svc.MarkAsRead(ctx, items[0].ID, userID))
	count, _ = svc.GetUnreadCount(ctx, userID)
	assert.Equal(t, int64(1), count)

	err = svc.MarkAsRead(ctx, items[0].ID, primitive.NewObjectID())
	assert.True(t, apperror.Is(err, apperror.KindNotFound), "other users cannot mark it")

	require.NoError(t, svc.MarkAllAsRead(ctx, userID))
	count, _ = svc.GetUnreadCount(ctx, userID)
	assert.Equal(t, int64(0), count)
}
