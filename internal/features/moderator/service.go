package moderator

import (
	"context"
	"time"

	"go-approvals/internal/common/apperror"
	common_models "go-approvals/internal/common/models"
	"go-approvals/internal/features/audit"
	"go-approvals/internal/features/form"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type ModeratorService interface {
	Assign(ctx context.Context, formID, userID primitive.ObjectID) (*ModeratorLink, error)
	ListForForm(ctx context.Context, formID primitive.ObjectID) ([]ModeratorLink, error)
	Remove(ctx context.Context, id primitive.ObjectID) error
}

type ModeratorServiceImpl struct {
	Repo         ModeratorRepository
	Forms        form.FormRepository
	AuditService audit.AuditService
	Logger       *zap.Logger
}

func NewModeratorService(repo ModeratorRepository, forms form.FormRepository, auditService audit.AuditService, logger *zap.Logger) ModeratorService {
	return &ModeratorServiceImpl{
		Repo:         repo,
		Forms:        forms,
		AuditService: auditService,
		Logger:       logger,
	}
}

func (s *ModeratorServiceImpl) Assign(ctx context.Context, formID, userID primitive.ObjectID) (*ModeratorLink, error) {
	if userID.IsZero() {
		return nil, apperror.Invalid("user_id", "user is required")
	}
	if _, err := s.Forms.FindForm(ctx, formID); err != nil {
		return nil, err
	}

	link := &ModeratorLink{FormID: formID, UserID: userID, AssignedAt: time.Now()}
	if err := s.Repo.Create(ctx, link); err != nil {
		return nil, err
	}

	_ = s.AuditService.LogChange(ctx, common_models.AuditActionCreate, "moderator", link.ID.Hex(), map[string]common_models.Change{
		"user_id": {New: userID.Hex()},
	})
	s.Logger.Info("Moderator assigned",
		zap.String("form_id", formID.Hex()),
		zap.String("user_id", userID.Hex()),
	)
	return link, nil
}

func (s *ModeratorServiceImpl) ListForForm(ctx context.Context, formID primitive.ObjectID) ([]ModeratorLink, error) {
	return s.Repo.ListForForm(ctx, formID)
}

func (s *ModeratorServiceImpl) Remove(ctx context.Context, id primitive.ObjectID) error {
	if err := s.Repo.Delete(ctx, id); err != nil {
		return err
	}
	_ = s.AuditService.LogChange(ctx, common_models.AuditActionDelete, "moderator", id.Hex(), nil)
	return nil
}
