package testutil

import (
	"context"
	"sort"
	"sync"
	"time"

	"go-approvals/internal/common/apperror"
	common_models "go-approvals/internal/common/models"
	"go-approvals/internal/features/approval"
	"go-approvals/internal/features/template"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// InstanceStore is an in-memory approval.ApprovalRepository.
type InstanceStore struct {
	mu   sync.Mutex
	rows []approval.Instance
}

func NewInstanceStore() *InstanceStore { return &InstanceStore{} }

func (s *InstanceStore) InsertMany(ctx context.Context, instances []approval.Instance) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range instances {
		if instances[i].ID.IsZero() {
			instances[i].ID = primitive.NewObjectID()
		}
		s.rows = append(s.rows, instances[i])
	}
	return nil
}

func (s *InstanceStore) FindByID(ctx context.Context, id primitive.ObjectID) (*approval.Instance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.rows {
		if r.ID == id {
			inst := r
			return &inst, nil
		}
	}
	return nil, apperror.NotFound("approval instance", id.Hex())
}

func (s *InstanceStore) ListForResponse(ctx context.Context, responseID primitive.ObjectID) ([]approval.Instance, error) {
	return s.filter(func(r approval.Instance) bool { return r.ResponseID == responseID }), nil
}

func (s *InstanceStore) CountForResponse(ctx context.Context, responseID primitive.ObjectID) (int64, error) {
	return int64(len(s.filter(func(r approval.Instance) bool { return r.ResponseID == responseID }))), nil
}

func (s *InstanceStore) ListPendingByApprover(ctx context.Context, approverID primitive.ObjectID) ([]approval.Instance, error) {
	return s.filter(func(r approval.Instance) bool {
		return r.ApproverID == approverID && r.Status == common_models.ApprovalStatusPending
	}), nil
}

func (s *InstanceStore) ResponsesWithPending(ctx context.Context) ([]primitive.ObjectID, error) {
	seen := map[primitive.ObjectID]bool{}
	out := []primitive.ObjectID{}
	for _, r := range s.All() {
		if r.Status == common_models.ApprovalStatusPending && !seen[r.ResponseID] {
			seen[r.ResponseID] = true
			out = append(out, r.ResponseID)
		}
	}
	return out, nil
}

func (s *InstanceStore) CompareAndSetDecision(ctx context.Context, current *approval.Instance, status common_models.ApprovalStatus, message string, reviewedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.rows {
		r := &s.rows[i]
		if r.ID != current.ID {
			continue
		}
		if r.Status != current.Status || r.ReconsiderationRequested != current.ReconsiderationRequested {
			return apperror.Conflict("approval instance", r.ID.Hex(), "changed concurrently")
		}
		at := reviewedAt
		r.Status = status
		r.Message = message
		r.ReviewedAt = &at
		r.ReconsiderationRequested = false
		return nil
	}
	return apperror.Conflict("approval instance", current.ID.Hex(), "changed concurrently")
}

func (s *InstanceStore) FlagReconsideration(ctx context.Context, current *approval.Instance) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.rows {
		if s.rows[i].ID == current.ID && s.rows[i].Status == current.Status {
			s.rows[i].ReconsiderationRequested = true
			return nil
		}
	}
	return apperror.Conflict("approval instance", current.ID.Hex(), "changed concurrently")
}

func (s *InstanceStore) ReassignPending(ctx context.Context, change template.SlotChange) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for i := range s.rows {
		r := &s.rows[i]
		if r.FormID == change.FormID && r.ApproverID == change.OldApproverID &&
			r.SequenceNumber == change.OldSequence && r.Status == common_models.ApprovalStatusPending {
			r.TemplateID = change.NewTemplateID
			r.ApproverID = change.NewApproverID
			r.SequenceNumber = change.NewSequence
			r.IsMandatory = change.NewMandatory
			n++
		}
	}
	return n, nil
}

func (s *InstanceStore) EnsureIndexes(ctx context.Context) error { return nil }

// SetStatus forces an instance into a status, bypassing the state machine.
func (s *InstanceStore) SetStatus(id primitive.ObjectID, status common_models.ApprovalStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.rows {
		if s.rows[i].ID == id {
			s.rows[i].Status = status
		}
	}
}

func (s *InstanceStore) All() []approval.Instance {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]approval.Instance(nil), s.rows...)
}

func (s *InstanceStore) Snapshot() func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows := append([]approval.Instance(nil), s.rows...)
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.rows = rows
	}
}

func (s *InstanceStore) filter(keep func(approval.Instance) bool) []approval.Instance {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []approval.Instance{}
	for _, r := range s.rows {
		if keep(r) {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].SequenceNumber < out[j].SequenceNumber })
	return out
}
