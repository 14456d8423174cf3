package form

import (
	"context"
	"strings"
	"time"

	"go-approvals/internal/common/apperror"
	common_models "go-approvals/internal/common/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type FormService interface {
	CreateForm(ctx context.Context, form *Form) error
	GetForm(ctx context.Context, id primitive.ObjectID) (*Form, error)
	ListForms(ctx context.Context) ([]Form, error)
	GetResponse(ctx context.Context, id primitive.ObjectID) (*Response, error)
	// Summaries returns display metadata keyed by form id; unknown ids are omitted.
	Summaries(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]common_models.FormSummary, error)
}

type FormServiceImpl struct {
	Repo FormRepository
}

func NewFormService(repo FormRepository) FormService {
	return &FormServiceImpl{Repo: repo}
}

func (s *FormServiceImpl) CreateForm(ctx context.Context, form *Form) error {
	form.Title = strings.TrimSpace(form.Title)
	if form.Title == "" {
		return apperror.Invalid("title", "title is required")
	}
	form.CreatedAt = time.Now()
	return s.Repo.CreateForm(ctx, form)
}

func (s *FormServiceImpl) GetForm(ctx context.Context, id primitive.ObjectID) (*Form, error) {
	return s.Repo.FindForm(ctx, id)
}

func (s *FormServiceImpl) ListForms(ctx context.Context) ([]Form, error) {
	return s.Repo.ListForms(ctx)
}

func (s *FormServiceImpl) GetResponse(ctx context.Context, id primitive.ObjectID) (*Response, error) {
	return s.Repo.FindResponse(ctx, id)
}

func (s *FormServiceImpl) Summaries(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]common_models.FormSummary, error) {
	forms, err := s.Repo.FindForms(ctx, uniqueIDs(ids))
	if err != nil {
		return nil, err
	}
	out := make(map[primitive.ObjectID]common_models.FormSummary, len(forms))
	for _, f := range forms {
		out[f.ID] = f.Summary()
	}
	return out, nil
}

func uniqueIDs(ids []primitive.ObjectID) []primitive.ObjectID {
	seen := make(map[primitive.ObjectID]bool, len(ids))
	out := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
