package testutil

import (
	"context"
	"sort"
	"sync"
	"time"

	"go-approvals/internal/common/apperror"
	"go-approvals/internal/features/template"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TemplateStore is an in-memory template.TemplateRepository that enforces the
// active-slot uniqueness the mongo partial index provides.
type TemplateStore struct {
	mu   sync.Mutex
	rows []template.ApprovalTemplate
	// FailInsertAfter makes the n-th Insert (1-based) fail when > 0.
	FailInsertAfter int
	inserts         int
}

func NewTemplateStore() *TemplateStore { return &TemplateStore{} }

func (s *TemplateStore) Insert(ctx context.Context, tpl *template.ApprovalTemplate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inserts++
	if s.FailInsertAfter > 0 && s.inserts >= s.FailInsertAfter {
		return errInjected
	}
	if tpl.ID.IsZero() {
		tpl.ID = primitive.NewObjectID()
	}
	if tpl.IsActive {
		for _, r := range s.rows {
			if r.IsActive && r.FormID == tpl.FormID && r.ApproverID == tpl.ApproverID && r.SequenceNumber == tpl.SequenceNumber {
				return apperror.Duplicate("approval template", tpl.ID.Hex())
			}
		}
	}
	s.rows = append(s.rows, *tpl)
	return nil
}

func (s *TemplateStore) FindByID(ctx context.Context, id primitive.ObjectID) (*template.ApprovalTemplate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.index(id); i >= 0 {
		row := s.rows[i]
		return &row, nil
	}
	return nil, apperror.NotFound("approval template", id.Hex())
}

func (s *TemplateStore) FindActiveSlot(ctx context.Context, formID, approverID primitive.ObjectID, sequence int) (*template.ApprovalTemplate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.rows {
		if r.IsActive && r.FormID == formID && r.ApproverID == approverID && r.SequenceNumber == sequence {
			row := r
			return &row, nil
		}
	}
	return nil, nil
}

func (s *TemplateStore) ListActive(ctx context.Context, formID primitive.ObjectID) ([]template.ApprovalTemplate, error) {
	return s.filter(func(r template.ApprovalTemplate) bool { return r.IsActive && r.FormID == formID }), nil
}

func (s *TemplateStore) ListActiveByApprover(ctx context.Context, approverID primitive.ObjectID, excludeForms []primitive.ObjectID) ([]template.ApprovalTemplate, error) {
	excluded := idSet(excludeForms)
	return s.filter(func(r template.ApprovalTemplate) bool {
		return r.IsActive && r.ApproverID == approverID && !excluded[r.FormID]
	}), nil
}

func (s *TemplateStore) Deactivate(ctx context.Context, id primitive.ObjectID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.index(id)
	if i < 0 || !s.rows[i].IsActive {
		return apperror.NotFound("active approval template", id.Hex())
	}
	s.rows[i].IsActive = false
	s.rows[i].DeactivatedAt = &at
	s.rows[i].UpdatedAt = at
	return nil
}

func (s *TemplateStore) UpdateInPlace(ctx context.Context, tpl *template.ApprovalTemplate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.index(tpl.ID)
	if i < 0 || !s.rows[i].IsActive {
		return apperror.NotFound("active approval template", tpl.ID.Hex())
	}
	row := &s.rows[i]
	row.DeadlineDays = tpl.DeadlineDays
	row.RequiredFormIDs = tpl.RequiredFormIDs
	row.FollowsSequence = tpl.FollowsSequence
	row.IsMandatory = tpl.IsMandatory
	row.SequenceNumber = tpl.SequenceNumber
	row.UpdatedAt = tpl.UpdatedAt
	return nil
}

func (s *TemplateStore) Reassign(ctx context.Context, id, approverID primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.index(id)
	if i < 0 || !s.rows[i].IsActive {
		return apperror.NotFound("active approval template", id.Hex())
	}
	s.rows[i].ApproverID = approverID
	return nil
}

func (s *TemplateStore) EnsureIndexes(ctx context.Context) error { return nil }

// All returns every row, active or not, in insertion order.
func (s *TemplateStore) All() []template.ApprovalTemplate {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]template.ApprovalTemplate(nil), s.rows...)
}

func (s *TemplateStore) Snapshot() func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows := append([]template.ApprovalTemplate(nil), s.rows...)
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.rows = rows
	}
}

func (s *TemplateStore) filter(keep func(template.ApprovalTemplate) bool) []template.ApprovalTemplate {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []template.ApprovalTemplate{}
	for _, r := range s.rows {
		if keep(r) {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].SequenceNumber < out[j].SequenceNumber })
	return out
}

func (s *TemplateStore) index(id primitive.ObjectID) int {
	for i, r := range s.rows {
		if r.ID == id {
			return i
		}
	}
	return -1
}
