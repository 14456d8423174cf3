package testutil

import (
	"context"
	"sync"

	"go-approvals/internal/common/apperror"
	"go-approvals/internal/features/schedule"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ScheduleStore is an in-memory schedule.ScheduleRepository.
type ScheduleStore struct {
	mu   sync.Mutex
	rows []schedule.Schedule
}

func NewScheduleStore() *ScheduleStore { return &ScheduleStore{} }

func (s *ScheduleStore) Create(ctx context.Context, sched *schedule.Schedule) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.rows {
		if r.FormID == sched.FormID && r.UserID == sched.UserID && r.FrequencyType == sched.FrequencyType {
			return apperror.Duplicate("schedule", r.ID.Hex())
		}
	}
	if sched.ID.IsZero() {
		sched.ID = primitive.NewObjectID()
	}
	s.rows = append(s.rows, *sched)
	return nil
}

func (s *ScheduleStore) FindByID(ctx context.Context, id primitive.ObjectID) (*schedule.Schedule, error) {
	for _, r := range s.filter(func(r schedule.Schedule) bool { return r.ID == id }) {
		return &r, nil
	}
	return nil, apperror.NotFound("schedule", id.Hex())
}

func (s *ScheduleStore) ListForForm(ctx context.Context, formID primitive.ObjectID) ([]schedule.Schedule, error) {
	return s.filter(func(r schedule.Schedule) bool { return r.FormID == formID }), nil
}

func (s *ScheduleStore) ListOwned(ctx context.Context, userID primitive.ObjectID, excludeForms []primitive.ObjectID) ([]schedule.Schedule, error) {
	excluded := idSet(excludeForms)
	return s.filter(func(r schedule.Schedule) bool { return r.UserID == userID && !excluded[r.FormID] }), nil
}

func (s *ScheduleStore) Exists(ctx context.Context, formID, userID primitive.ObjectID, frequency schedule.FrequencyType) (bool, error) {
	return len(s.filter(func(r schedule.Schedule) bool {
		return r.FormID == formID && r.UserID == userID && r.FrequencyType == frequency
	})) > 0, nil
}

func (s *ScheduleStore) Reassign(ctx context.Context, id, userID primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.rows {
		if s.rows[i].ID == id {
			s.rows[i].UserID = userID
			return nil
		}
	}
	return apperror.NotFound("schedule", id.Hex())
}

func (s *ScheduleStore) Delete(ctx context.Context, id primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.rows {
		if s.rows[i].ID == id {
			s.rows = append(s.rows[:i], s.rows[i+1:]...)
			return nil
		}
	}
	return apperror.NotFound("schedule", id.Hex())
}

func (s *ScheduleStore) EnsureIndexes(ctx context.Context) error { return nil }

func (s *ScheduleStore) All() []schedule.Schedule {
	return s.filter(func(schedule.Schedule) bool { return true })
}

func (s *ScheduleStore) Snapshot() func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows := append([]schedule.Schedule(nil), s.rows...)
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.rows = rows
	}
}

func (s *ScheduleStore) filter(keep func(schedule.Schedule) bool) []schedule.Schedule {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []schedule.Schedule{}
	for _, r := range s.rows {
		if keep(r) {
			out = append(out, r)
		}
	}
	return out
}
