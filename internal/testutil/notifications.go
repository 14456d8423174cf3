package testutil

import (
	"context"
	"sync"
	"time"

	"go-approvals/internal/common/apperror"
	"go-approvals/internal/features/notification"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// RuleStore is an in-memory notification.RuleRepository.
type RuleStore struct {
	mu    sync.Mutex
	rules []notification.Rule
}

func NewRuleStore() *RuleStore { return &RuleStore{} }

func (s *RuleStore) Create(ctx context.Context, rule *notification.Rule) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.rules {
		if r.FormID == rule.FormID && r.UserID == rule.UserID && r.Trigger == rule.Trigger {
			return apperror.Duplicate("notification rule", r.ID.Hex())
		}
	}
	if rule.ID.IsZero() {
		rule.ID = primitive.NewObjectID()
	}
	s.rules = append(s.rules, *rule)
	return nil
}

func (s *RuleStore) FindByID(ctx context.Context, id primitive.ObjectID) (*notification.Rule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.rules {
		if r.ID == id {
			rule := r
			return &rule, nil
		}
	}
	return nil, apperror.NotFound("notification rule", id.Hex())
}

func (s *RuleStore) ListForForm(ctx context.Context, formID primitive.ObjectID) ([]notification.Rule, error) {
	return s.filter(func(r notification.Rule) bool { return r.FormID == formID }), nil
}

func (s *RuleStore) ListForTriggers(ctx context.Context, formID primitive.ObjectID, triggers []notification.Trigger) ([]notification.Rule, error) {
	return s.filter(func(r notification.Rule) bool {
		if r.FormID != formID {
			return false
		}
		for _, t := range triggers {
			if r.Trigger == t {
				return true
			}
		}
		return false
	}), nil
}

func (s *RuleStore) ListOwned(ctx context.Context, userID primitive.ObjectID, excludeForms []primitive.ObjectID) ([]notification.Rule, error) {
	excluded := idSet(excludeForms)
	return s.filter(func(r notification.Rule) bool { return r.UserID == userID && !excluded[r.FormID] }), nil
}

func (s *RuleStore) Exists(ctx context.Context, formID, userID primitive.ObjectID, trigger notification.Trigger) (bool, error) {
	return len(s.filter(func(r notification.Rule) bool {
		return r.FormID == formID && r.UserID == userID && r.Trigger == trigger
	})) > 0, nil
}

func (s *RuleStore) Reassign(ctx context.Context, id, userID primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.rules {
		if s.rules[i].ID == id {
			s.rules[i].UserID = userID
			return nil
		}
	}
	return apperror.NotFound("notification rule", id.Hex())
}

func (s *RuleStore) Delete(ctx context.Context, id primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.rules {
		if s.rules[i].ID == id {
			s.rules = append(s.rules[:i], s.rules[i+1:]...)
			return nil
		}
	}
	return apperror.NotFound("notification rule", id.Hex())
}

func (s *RuleStore) EnsureIndexes(ctx context.Context) error { return nil }

func (s *RuleStore) All() []notification.Rule {
	return s.filter(func(notification.Rule) bool { return true })
}

func (s *RuleStore) Snapshot() func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	rules := append([]notification.Rule(nil), s.rules...)
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.rules = rules
	}
}

func (s *RuleStore) filter(keep func(notification.Rule) bool) []notification.Rule {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []notification.Rule{}
	for _, r := range s.rules {
		if keep(r) {
			out = append(out, r)
		}
	}
	return out
}

// InboxStore is an in-memory notification.NotificationRepository.
type InboxStore struct {
	mu    sync.Mutex
	items []notification.Notification
	// FailFor makes Create fail for the given user.
	FailFor primitive.ObjectID
}

func NewInboxStore() *InboxStore { return &InboxStore{} }

func (s *InboxStore) Create(ctx context.Context, n *notification.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.FailFor.IsZero() && n.UserID == s.FailFor {
		return errInjected
	}
	n.ID = primitive.NewObjectID()
	n.CreatedAt = time.Now()
	n.IsRead = false
	s.items = append(s.items, *n)
	return nil
}

func (s *InboxStore) GetByUserID(ctx context.Context, userID primitive.ObjectID, page, limit int64) ([]notification.Notification, int64, error) {
	all := s.ForUser(userID)
	total := int64(len(all))
	start := (page - 1) * limit
	if start >= total {
		return []notification.Notification{}, total, nil
	}
	end := start + limit
	if end > total {
		end = total
	}
	return all[start:end], total, nil
}

func (s *InboxStore) GetUnreadCount(ctx context.Context, userID primitive.ObjectID) (int64, error) {
	var n int64
	for _, item := range s.ForUser(userID) {
		if !item.IsRead {
			n++
		}
	}
	return n, nil
}

func (s *InboxStore) MarkAsRead(ctx context.Context, id primitive.ObjectID, userID primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.items {
		if s.items[i].ID == id && s.items[i].UserID == userID {
			now := time.Now()
			s.items[i].IsRead = true
			s.items[i].ReadAt = &now
			return nil
		}
	}
	return apperror.NotFound("notification", id.Hex())
}

func (s *InboxStore) MarkAllAsRead(ctx context.Context, userID primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for i := range s.items {
		if s.items[i].UserID == userID {
			s.items[i].IsRead = true
			s.items[i].ReadAt = &now
		}
	}
	return nil
}

func (s *InboxStore) EnsureIndexes(ctx context.Context) error { return nil }

// ForUser returns the user's entries in creation order.
func (s *InboxStore) ForUser(userID primitive.ObjectID) []notification.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []notification.Notification{}
	for _, item := range s.items {
		if item.UserID == userID {
			out = append(out, item)
		}
	}
	return out
}

// Len returns the number of stored entries.
func (s *InboxStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}
