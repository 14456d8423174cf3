package testutil

import (
	"context"
	"sync"
	"time"

	"go-approvals/internal/common/apperror"
	"go-approvals/internal/features/requirement"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// RequirementStore is an in-memory requirement.RequirementRepository.
type RequirementStore struct {
	mu   sync.Mutex
	reqs []requirement.ApprovalRequirement
	rows []requirement.ResponseRequirement
	// LoseInsertRace makes the next InsertResponseRow store the row as if a
	// concurrent writer got there first, then report the duplicate key.
	LoseInsertRace bool
}

func NewRequirementStore() *RequirementStore { return &RequirementStore{} }

func (s *RequirementStore) Create(ctx context.Context, req *requirement.ApprovalRequirement) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.reqs {
		if r.FormID == req.FormID && r.ApproverID == req.ApproverID && r.RequiredFormID == req.RequiredFormID {
			return apperror.Duplicate("approval requirement", r.ID.Hex())
		}
	}
	if req.ID.IsZero() {
		req.ID = primitive.NewObjectID()
	}
	s.reqs = append(s.reqs, *req)
	return nil
}

func (s *RequirementStore) FindByID(ctx context.Context, id primitive.ObjectID) (*requirement.ApprovalRequirement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.reqs {
		if r.ID == id {
			req := r
			return &req, nil
		}
	}
	return nil, apperror.NotFound("approval requirement", id.Hex())
}

func (s *RequirementStore) FindByKey(ctx context.Context, formID, approverID, requiredFormID primitive.ObjectID) (*requirement.ApprovalRequirement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.reqs {
		if r.FormID == formID && r.ApproverID == approverID && r.RequiredFormID == requiredFormID {
			req := r
			return &req, nil
		}
	}
	return nil, nil
}

func (s *RequirementStore) ListForForm(ctx context.Context, formID primitive.ObjectID) ([]requirement.ApprovalRequirement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []requirement.ApprovalRequirement{}
	for _, r := range s.reqs {
		if r.FormID == formID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *RequirementStore) ListForApprover(ctx context.Context, formID, approverID primitive.ObjectID) ([]requirement.ApprovalRequirement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []requirement.ApprovalRequirement{}
	for _, r := range s.reqs {
		if r.FormID == formID && r.ApproverID == approverID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *RequirementStore) InsertResponseRow(ctx context.Context, row *requirement.ResponseRequirement) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.rows {
		if r.ResponseID == row.ResponseID && r.RequirementID == row.RequirementID {
			return apperror.Duplicate("response requirement", r.ID.Hex())
		}
	}
	if s.LoseInsertRace {
		s.LoseInsertRace = false
		winner := *row
		winner.ID = primitive.NewObjectID()
		s.rows = append(s.rows, winner)
		return apperror.Duplicate("response requirement", winner.ID.Hex())
	}
	if row.ID.IsZero() {
		row.ID = primitive.NewObjectID()
	}
	s.rows = append(s.rows, *row)
	return nil
}

func (s *RequirementStore) FindResponseRow(ctx context.Context, id primitive.ObjectID) (*requirement.ResponseRequirement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.rows {
		if r.ID == id {
			row := r
			return &row, nil
		}
	}
	return nil, apperror.NotFound("response requirement", id.Hex())
}

func (s *RequirementStore) FindResponseRowFor(ctx context.Context, responseID, requirementID primitive.ObjectID) (*requirement.ResponseRequirement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.rows {
		if r.ResponseID == responseID && r.RequirementID == requirementID {
			row := r
			return &row, nil
		}
	}
	return nil, nil
}

func (s *RequirementStore) ListResponseRows(ctx context.Context, responseID primitive.ObjectID) ([]requirement.ResponseRequirement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []requirement.ResponseRequirement{}
	for _, r := range s.rows {
		if r.ResponseID == responseID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *RequirementStore) MarkFulfilled(ctx context.Context, id, fulfillingResponseID primitive.ObjectID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.rows {
		if s.rows[i].ID == id {
			fid := fulfillingResponseID
			s.rows[i].IsFulfilled = true
			s.rows[i].FulfillingResponseID = &fid
			s.rows[i].FulfilledAt = &at
			return nil
		}
	}
	return apperror.NotFound("response requirement", id.Hex())
}

func (s *RequirementStore) EnsureIndexes(ctx context.Context) error { return nil }

// RowCount returns the number of per-response rows.
func (s *RequirementStore) RowCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rows)
}

func (s *RequirementStore) Snapshot() func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	reqs := append([]requirement.ApprovalRequirement(nil), s.reqs...)
	rows := append([]requirement.ResponseRequirement(nil), s.rows...)
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.reqs, s.rows = reqs, rows
	}
}
