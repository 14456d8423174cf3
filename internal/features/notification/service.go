package notification

import (
	"context"
	"fmt"
	"time"

	"go-approvals/internal/common/apperror"
	common_models "go-approvals/internal/common/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type NotificationService interface {
	CreateRule(ctx context.Context, formID, userID primitive.ObjectID, trigger Trigger) (*Rule, error)
	ListRules(ctx context.Context, formID primitive.ObjectID) ([]Rule, error)
	DeleteRule(ctx context.Context, id primitive.ObjectID) error

	// Decide resolves the recipients of a decision. A final decision reaches
	// both final_approval and each_approval subscribers.
	Decide(ctx context.Context, formID, responseID, instanceID primitive.ObjectID, status common_models.ApprovalStatus, final bool) (*Decision, error)
	// Dispatch writes one inbox entry per recipient. Failures are logged, not
	// retried, and never returned.
	Dispatch(ctx context.Context, decision *Decision) int

	CreateNotification(ctx context.Context, userID primitive.ObjectID, title, message string, notifType NotificationType, link string) error
	GetUserNotifications(ctx context.Context, userID primitive.ObjectID, page, limit int64) ([]Notification, int64, error)
	GetUnreadCount(ctx context.Context, userID primitive.ObjectID) (int64, error)
	MarkAsRead(ctx context.Context, id primitive.ObjectID, userID primitive.ObjectID) error
	MarkAllAsRead(ctx context.Context, userID primitive.ObjectID) error
}

type NotificationServiceImpl struct {
	repo   NotificationRepository
	rules  RuleRepository
	hub    *Hub
	logger *zap.Logger
}

func NewNotificationService(repo NotificationRepository, rules RuleRepository, hub *Hub, logger *zap.Logger) NotificationService {
	return &NotificationServiceImpl{
		repo:   repo,
		rules:  rules,
		hub:    hub,
		logger: logger,
	}
}

func (s *NotificationServiceImpl) CreateRule(ctx context.Context, formID, userID primitive.ObjectID, trigger Trigger) (*Rule, error) {
	if !trigger.Valid() {
		return nil, apperror.Invalid("trigger", "unknown trigger %q", trigger)
	}
	if formID.IsZero() || userID.IsZero() {
		return nil, apperror.Invalid("rule", "form and user are required")
	}

	exists, err := s.rules.Exists(ctx, formID, userID, trigger)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, apperror.Duplicate("notification rule", ruleKey(formID, userID, trigger))
	}

	rule := &Rule{FormID: formID, UserID: userID, Trigger: trigger, CreatedAt: time.Now()}
	if err := s.rules.Create(ctx, rule); err != nil {
		return nil, err
	}
	s.logger.Info("Notification rule created",
		zap.String("form_id", formID.Hex()),
		zap.String("user_id", userID.Hex()),
		zap.String("trigger", string(trigger)),
	)
	return rule, nil
}

func (s *NotificationServiceImpl) ListRules(ctx context.Context, formID primitive.ObjectID) ([]Rule, error) {
	return s.rules.ListForForm(ctx, formID)
}

func (s *NotificationServiceImpl) DeleteRule(ctx context.Context, id primitive.ObjectID) error {
	return s.rules.Delete(ctx, id)
}

func (s *NotificationServiceImpl) Decide(ctx context.Context, formID, responseID, instanceID primitive.ObjectID, status common_models.ApprovalStatus, final bool) (*Decision, error) {
	decision := &Decision{
		ResponseID: responseID,
		FormID:     formID,
		InstanceID: instanceID,
		Status:     status,
		Trigger:    TriggerEachApproval,
		Recipients: []primitive.ObjectID{},
	}
	triggers := []Trigger{TriggerEachApproval}
	if final {
		decision.Trigger = TriggerFinalApproval
		triggers = append(triggers, TriggerFinalApproval)
	}

	rules, err := s.rules.ListForTriggers(ctx, formID, triggers)
	if err != nil {
		return nil, err
	}
	seen := make(map[primitive.ObjectID]bool, len(rules))
	for _, r := range rules {
		if !seen[r.UserID] {
			seen[r.UserID] = true
			decision.Recipients = append(decision.Recipients, r.UserID)
		}
	}
	return decision, nil
}

func (s *NotificationServiceImpl) Dispatch(ctx context.Context, decision *Decision) int {
	if decision == nil || len(decision.Recipients) == 0 {
		return 0
	}

	title, notifType := "Approval updated", NotificationTypeInfo
	switch {
	case decision.Trigger == TriggerFinalApproval:
		title, notifType = "Response fully approved", NotificationTypeSuccess
	case decision.Status == common_models.ApprovalStatusRejected:
		title, notifType = "Response rejected", NotificationTypeWarning
	}
	message := fmt.Sprintf("Response %s was %s.", decision.ResponseID.Hex(), decision.Status)
	link := "/responses/" + decision.ResponseID.Hex()

	delivered := 0
	for _, userID := range decision.Recipients {
		err := s.CreateNotification(ctx, userID, title, message, notifType, link)
		if err != nil {
			s.logger.Warn("Notification dispatch failed",
				zap.String("user_id", userID.Hex()),
				zap.String("response_id", decision.ResponseID.Hex()),
				zap.Error(err),
			)
			continue
		}
		delivered++
	}
	return delivered
}

func (s *NotificationServiceImpl) CreateNotification(ctx context.Context, userID primitive.ObjectID, title, message string, notifType NotificationType, link string) error {
	notification := &Notification{
		UserID:  userID,
		Title:   title,
		Message: message,
		Type:    notifType,
		Link:    link,
	}
	if err := s.repo.Create(ctx, notification); err != nil {
		return err
	}
	if s.hub != nil {
		s.hub.Publish(*notification)
	}
	return nil
}

func (s *NotificationServiceImpl) GetUserNotifications(ctx context.Context, userID primitive.ObjectID, page, limit int64) ([]Notification, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}
	return s.repo.GetByUserID(ctx, userID, page, limit)
}

func (s *NotificationServiceImpl) GetUnreadCount(ctx context.Context, userID primitive.ObjectID) (int64, error) {
	return s.repo.GetUnreadCount(ctx, userID)
}

func (s *NotificationServiceImpl) MarkAsRead(ctx context.Context, id primitive.ObjectID, userID primitive.ObjectID) error {
	return s.repo.MarkAsRead(ctx, id, userID)
}

func (s *NotificationServiceImpl) MarkAllAsRead(ctx context.Context, userID primitive.ObjectID) error {
	return s.repo.MarkAllAsRead(ctx, userID)
}
