package testutil

import (
	"context"
	"sync"
	"time"

	"go-approvals/internal/common/apperror"
	"go-approvals/internal/features/form"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// FormStore is an in-memory form.FormRepository.
type FormStore struct {
	mu        sync.Mutex
	order     []primitive.ObjectID
	forms     map[primitive.ObjectID]form.Form
	responses map[primitive.ObjectID]form.Response
}

func NewFormStore() *FormStore {
	return &FormStore{
		forms:     map[primitive.ObjectID]form.Form{},
		responses: map[primitive.ObjectID]form.Response{},
	}
}

// AddForm seeds a form and returns it.
func (s *FormStore) AddForm(title string) form.Form {
	f := form.Form{ID: primitive.NewObjectID(), Title: title, Format: "standard", Category: "general", CreatedAt: time.Now()}
	_ = s.CreateForm(context.Background(), &f)
	return f
}

// AddResponse seeds a response of formID and returns it.
func (s *FormStore) AddResponse(formID, submittedBy primitive.ObjectID) form.Response {
	r := form.Response{ID: primitive.NewObjectID(), FormID: formID, SubmittedBy: submittedBy, SubmittedAt: time.Now()}
	_ = s.CreateResponse(context.Background(), &r)
	return r
}

func (s *FormStore) CreateForm(ctx context.Context, f *form.Form) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if f.ID.IsZero() {
		f.ID = primitive.NewObjectID()
	}
	if _, ok := s.forms[f.ID]; ok {
		return apperror.Duplicate("form", f.ID.Hex())
	}
	s.forms[f.ID] = *f
	s.order = append(s.order, f.ID)
	return nil
}

func (s *FormStore) FindForm(ctx context.Context, id primitive.ObjectID) (*form.Form, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.forms[id]
	if !ok {
		return nil, apperror.NotFound("form", id.Hex())
	}
	return &f, nil
}

func (s *FormStore) FindForms(ctx context.Context, ids []primitive.ObjectID) ([]form.Form, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []form.Form{}
	for _, id := range ids {
		if f, ok := s.forms[id]; ok {
			out = append(out, f)
		}
	}
	return out, nil
}

func (s *FormStore) ListForms(ctx context.Context) ([]form.Form, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]form.Form, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.forms[id])
	}
	return out, nil
}

func (s *FormStore) ListFormIDs(ctx context.Context) ([]primitive.ObjectID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]primitive.ObjectID(nil), s.order...), nil
}

func (s *FormStore) CreateResponse(ctx context.Context, r *form.Response) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.forms[r.FormID]; !ok {
		return apperror.NotFound("form", r.FormID.Hex())
	}
	if r.ID.IsZero() {
		r.ID = primitive.NewObjectID()
	}
	s.responses[r.ID] = *r
	return nil
}

func (s *FormStore) FindResponse(ctx context.Context, id primitive.ObjectID) (*form.Response, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.responses[id]
	if !ok {
		return nil, apperror.NotFound("response", id.Hex())
	}
	return &r, nil
}

func (s *FormStore) EnsureIndexes(ctx context.Context) error { return nil }

func (s *FormStore) Snapshot() func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	order := append([]primitive.ObjectID(nil), s.order...)
	forms := make(map[primitive.ObjectID]form.Form, len(s.forms))
	for k, v := range s.forms {
		forms[k] = v
	}
	responses := make(map[primitive.ObjectID]form.Response, len(s.responses))
	for k, v := range s.responses {
		responses[k] = v
	}
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.order, s.forms, s.responses = order, forms, responses
	}
}
