package notification_test

import (
	"context"
	"testing"

	"go-approvals/internal/features/notification"
	"go-approvals/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestHubDeliversOnlyToOwner(t *testing.T) {
	hub := notification.NewHub()
	alice, bob := primitive.NewObjectID(), primitive.NewObjectID()

	updates, cancel := hub.Subscribe(alice)
	defer cancel()

	assert.Equal(t, 0, hub.Publish(notification.Notification{UserID: bob, Title: "not yours"}))
	assert.Equal(t, 1, hub.Publish(notification.Notification{UserID: alice, Title: "yours"}))

	got := <-updates
	assert.Equal(t, "yours", got.Title)
	assert.Empty(t, updates)
}

func TestHubCancelUnsubscribes(t *testing.T) {
	hub := notification.NewHub()
	userID := primitive.NewObjectID()

	updates, cancel := hub.Subscribe(userID)
	assert.Equal(t, 1, hub.Subscribers(userID))

	cancel()
	cancel()
	assert.Equal(t, 0, hub.Subscribers(userID))

	_, open := <-updates
	assert.False(t, open)
	assert.Equal(t, 0, hub.Publish(notification.Notification{UserID: userID}))
}

func TestHubDropsWhenSubscriberIsSlow(t *testing.T) {
	hub := notification.NewHub()
	userID := primitive.NewObjectID()
	_, cancel := hub.Subscribe(userID)
	defer cancel()

	delivered := 0
	for i := 0; i < 32; i++ {
		delivered += hub.Publish(notification.Notification{UserID: userID})
	}
	assert.Equal(t, 16, delivered)
}

func TestCreateNotificationPublishesStoredEntry(t *testing.T) {
	hub := notification.NewHub()
	inbox := testutil.NewInboxStore()
	svc := notification.NewNotificationService(inbox, testutil.NewRuleStore(), hub, testutil.Logger())
	userID := primitive.NewObjectID()

	updates, cancel := hub.Subscribe(userID)
	defer cancel()

	err := svc.CreateNotification(context.Background(), userID, "Approval overdue", "msg", notification.NotificationTypeWarning, "/responses/x")
	require.NoError(t, err)

	got := <-updates
	assert.False(t, got.ID.IsZero(), "published after the inbox assigned an id")
	assert.Equal(t, "Approval overdue", got.Title)
}
