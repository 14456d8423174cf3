package schedule

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

type ScheduleService interface {
	CreateSchedule(ctx context.Context, formID, userID primitive.ObjectID, frequency FrequencyType) (*Schedule, error)
	ListForForm(ctx context.Context, formID primitive.ObjectID) ([]Schedule, error)
	DeleteSchedule(ctx context.Context, id primitive.ObjectID) error
}

type ScheduleServiceImpl struct {
	Repo         ScheduleRepository
	Forms        form.FormRepository
	AuditService audit.AuditService
	Logger       *zap.Logger
}

func NewScheduleService(repo ScheduleRepository, forms form.FormRepository, auditService audit.AuditService, logger *zap.Logger) ScheduleService {
	return &ScheduleServiceImpl{
		Repo:         repo,
		Forms:        forms,
		AuditService: auditService,
		Logger:       logger,
	}
}

func (s *ScheduleServiceImpl) CreateSchedule(ctx context.Context, formID, userID primitive.ObjectID, frequency FrequencyType) (*Schedule, error) {
	if !frequency.Valid() {
		return nil, apperror.Invalid("frequency_type", "unknown frequency %q", frequency)
	}
	if userID.IsZero() {
		return nil, apperror.Invalid("user_id", "user is required")
	}
	if _, err := s.Forms.FindForm(ctx, formID); err != nil {
		return nil, err
	}

	sched := &Schedule{FormID: formID, UserID: userID, FrequencyType: frequency, CreatedAt: time.Now()}
	if err := s.Repo.Create(ctx, sched); err != nil {
		return nil, err
	}

	_ = s.AuditService.LogChange(ctx, common_models.AuditActionCreate, "schedule", sched.ID.Hex(), map[string]common_models.Change{
		"user_id":        {New: userID.Hex()},
		"frequency_type": {New: frequency},
	})
	s.Logger.Info("Schedule created",
		zap.String("form_id", formID.Hex()),
		zap.String("user_id", userID.Hex()),
		zap.String("frequency", string(frequency)),
	)
	return sched, nil
}

func (s *ScheduleServiceImpl) ListForForm(ctx context.Context, formID primitive.ObjectID) ([]Schedule, error) {
	return s.Repo.ListForForm(ctx, formID)
}

func (s *ScheduleServiceImpl) DeleteSchedule(ctx context.Context, id primitive.ObjectID) error {
	if err := s.Repo.Delete(ctx, id); err != nil {
		return err
	}
	_ = s.AuditService.LogChange(ctx, common_models.AuditActionDelete, "schedule", id.Hex(), nil)
	return nil
}
