package transfer

import (
	"context"
	"strconv"
	"time"

	"go-approvals/internal/features/moderator"
	"go-approvals/internal/features/notification"
	"go-approvals/internal/features/schedule"
	"go-approvals/internal/features/template"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Store is what the transfer needs from each kind's repository.
type Store interface {
	ListOwned(ctx context.Context, userID primitive.ObjectID, excludeForms []primitive.ObjectID) ([]Assignment, error)
	// Covered reports whether userID already holds an assignment with a's natural key on a's form.
	Covered(ctx context.Context, userID primitive.ObjectID, a Assignment) (bool, error)
	// Remove drops a because toUserID already covers it.
	Remove(ctx context.Context, a Assignment, toUserID primitive.ObjectID) error
	Reassign(ctx context.Context, a Assignment, toUserID primitive.ObjectID) error
}

type scheduleStore struct {
	repo schedule.ScheduleRepository
}

func (s scheduleStore) ListOwned(ctx context.Context, userID primitive.ObjectID, excludeForms []primitive.ObjectID) ([]Assignment, error) {
	rows, err := s.repo.ListOwned(ctx, userID, excludeForms)
	if err != nil {
		return nil, err
	}
	out := make([]Assignment, 0, len(rows))
	for _, r := range rows {
		out = append(out, Assignment{ID: r.ID, FormID: r.FormID, Key: string(r.FrequencyType), Detail: r})
	}
	return out, nil
}

func (s scheduleStore) Covered(ctx context.Context, userID primitive.ObjectID, a Assignment) (bool, error) {
	return s.repo.Exists(ctx, a.FormID, userID, schedule.FrequencyType(a.Key))
}

func (s scheduleStore) Remove(ctx context.Context, a Assignment, _ primitive.ObjectID) error {
	return s.repo.Delete(ctx, a.ID)
}

func (s scheduleStore) Reassign(ctx context.Context, a Assignment, toUserID primitive.ObjectID) error {
	return s.repo.Reassign(ctx, a.ID, toUserID)
}

// approvalStore moves active template rows. Per-response instances keep the
// approver they were materialized with.
type approvalStore struct {
	repo template.TemplateRepository
}

func (s approvalStore) ListOwned(ctx context.Context, userID primitive.ObjectID, excludeForms []primitive.ObjectID) ([]Assignment, error) {
	rows, err := s.repo.ListActiveByApprover(ctx, userID, excludeForms)
	if err != nil {
		return nil, err
	}
	out := make([]Assignment, 0, len(rows))
	for _, r := range rows {
		out = append(out, Assignment{ID: r.ID, FormID: r.FormID, Key: strconv.Itoa(r.SequenceNumber), Detail: r})
	}
	return out, nil
}

func (s approvalStore) Covered(ctx context.Context, userID primitive.ObjectID, a Assignment) (bool, error) {
	tpl := a.Detail.(template.ApprovalTemplate)
	existing, err := s.repo.FindActiveSlot(ctx, a.FormID, userID, tpl.SequenceNumber)
	return existing != nil, err
}

// Remove deactivates the row; template history is never deleted.
func (s approvalStore) Remove(ctx context.Context, a Assignment, _ primitive.ObjectID) error {
	return s.repo.Deactivate(ctx, a.ID, time.Now())
}

func (s approvalStore) Reassign(ctx context.Context, a Assignment, toUserID primitive.ObjectID) error {
	return s.repo.Reassign(ctx, a.ID, toUserID)
}

type ruleStore struct {
	repo notification.RuleRepository
}

func (s ruleStore) ListOwned(ctx context.Context, userID primitive.ObjectID, excludeForms []primitive.ObjectID) ([]Assignment, error) {
	rows, err := s.repo.ListOwned(ctx, userID, excludeForms)
	if err != nil {
		return nil, err
	}
	out := make([]Assignment, 0, len(rows))
	for _, r := range rows {
		out = append(out, Assignment{ID: r.ID, FormID: r.FormID, Key: string(r.Trigger), Detail: r})
	}
	return out, nil
}

func (s ruleStore) Covered(ctx context.Context, userID primitive.ObjectID, a Assignment) (bool, error) {
	return s.repo.Exists(ctx, a.FormID, userID, notification.Trigger(a.Key))
}

func (s ruleStore) Remove(ctx context.Context, a Assignment, _ primitive.ObjectID) error {
	return s.repo.Delete(ctx, a.ID)
}

func (s ruleStore) Reassign(ctx context.Context, a Assignment, toUserID primitive.ObjectID) error {
	return s.repo.Reassign(ctx, a.ID, toUserID)
}

type moderatorStore struct {
	repo moderator.ModeratorRepository
}

func (s moderatorStore) ListOwned(ctx context.Context, userID primitive.ObjectID, excludeForms []primitive.ObjectID) ([]Assignment, error) {
	rows, err := s.repo.ListOwned(ctx, userID, excludeForms)
	if err != nil {
		return nil, err
	}
	out := make([]Assignment, 0, len(rows))
	for _, r := range rows {
		out = append(out, Assignment{ID: r.ID, FormID: r.FormID, Key: r.FormID.Hex(), Detail: r})
	}
	return out, nil
}

func (s moderatorStore) Covered(ctx context.Context, userID primitive.ObjectID, a Assignment) (bool, error) {
	return s.repo.Exists(ctx, a.FormID, userID)
}

func (s moderatorStore) Remove(ctx context.Context, a Assignment, _ primitive.ObjectID) error {
	return s.repo.Delete(ctx, a.ID)
}

func (s moderatorStore) Reassign(ctx context.Context, a Assignment, toUserID primitive.ObjectID) error {
	return s.repo.Reassign(ctx, a.ID, toUserID, time.Now())
}
