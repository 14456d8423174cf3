package testutil

import (
	"context"
	"sync"
	"time"

	"go-approvals/internal/common/apperror"
	"go-approvals/internal/features/moderator"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ModeratorStore is an in-memory moderator.ModeratorRepository.
type ModeratorStore struct {
	mu    sync.Mutex
	links []moderator.ModeratorLink
	// FailReassign makes every Reassign return ErrInjected.
	FailReassign bool
}

func NewModeratorStore() *ModeratorStore { return &ModeratorStore{} }

func (s *ModeratorStore) Create(ctx context.Context, link *moderator.ModeratorLink) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, l := range s.links {
		if l.FormID == link.FormID && l.UserID == link.UserID {
			return apperror.Duplicate("moderator link", l.ID.Hex())
		}
	}
	if link.ID.IsZero() {
		link.ID = primitive.NewObjectID()
	}
	s.links = append(s.links, *link)
	return nil
}

func (s *ModeratorStore) ListForForm(ctx context.Context, formID primitive.ObjectID) ([]moderator.ModeratorLink, error) {
	return s.filter(func(l moderator.ModeratorLink) bool { return l.FormID == formID }), nil
}

func (s *ModeratorStore) ListOwned(ctx context.Context, userID primitive.ObjectID, excludeForms []primitive.ObjectID) ([]moderator.ModeratorLink, error) {
	excluded := idSet(excludeForms)
	return s.filter(func(l moderator.ModeratorLink) bool { return l.UserID == userID && !excluded[l.FormID] }), nil
}

func (s *ModeratorStore) Exists(ctx context.Context, formID, userID primitive.ObjectID) (bool, error) {
	return len(s.filter(func(l moderator.ModeratorLink) bool { return l.FormID == formID && l.UserID == userID })) > 0, nil
}

func (s *ModeratorStore) Reassign(ctx context.Context, id, userID primitive.ObjectID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailReassign {
		return errInjected
	}
	for i := range s.links {
		if s.links[i].ID == id {
			s.links[i].UserID = userID
			s.links[i].AssignedAt = at
			return nil
		}
	}
	return apperror.NotFound("moderator link", id.Hex())
}

func (s *ModeratorStore) Delete(ctx context.Context, id primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.links {
		if s.links[i].ID == id {
			s.links = append(s.links[:i], s.links[i+1:]...)
			return nil
		}
	}
	return apperror.NotFound("moderator link", id.Hex())
}

func (s *ModeratorStore) EnsureIndexes(ctx context.Context) error { return nil }

func (s *ModeratorStore) All() []moderator.ModeratorLink {
	return s.filter(func(moderator.ModeratorLink) bool { return true })
}

func (s *ModeratorStore) Snapshot() func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	links := append([]moderator.ModeratorLink(nil), s.links...)
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.links = links
	}
}

func (s *ModeratorStore) filter(keep func(moderator.ModeratorLink) bool) []moderator.ModeratorLink {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []moderator.ModeratorLink{}
	for _, l := range s.links {
		if keep(l) {
			out = append(out, l)
		}
	}
	return out
}
