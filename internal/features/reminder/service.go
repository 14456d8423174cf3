package reminder

import (
	"context"
	"fmt"
	"sync"
	"time"

	common_models "go-approvals/internal/common/models"
	"go-approvals/internal/config"
	"go-approvals/internal/features/approval"
	"go-approvals/internal/features/audit"
	"go-approvals/internal/features/notification"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const (
	TriggerSchedule = "schedule"
	TriggerManual   = "manual"
)

// ReminderService nudges whoever's turn it is on responses still awaiting
// approval. It reads approval state and writes inbox entries only.
type ReminderService interface {
	Sweep(ctx context.Context, trigger string) (*Run, error)
	ListRuns(ctx context.Context, limit int64) ([]Run, error)
	Start(ctx context.Context) error
	Stop() error
}

type ReminderServiceImpl struct {
	repo          RunRepository
	approvals     approval.ApprovalService
	notifications notification.NotificationService
	auditService  audit.AuditService
	config        *config.Config
	logger        *zap.Logger
	now           func() time.Time

	scheduler *cron.Cron
	mu        sync.Mutex
}

func NewReminderService(
	repo RunRepository,
	approvals approval.ApprovalService,
	notifications notification.NotificationService,
	auditService audit.AuditService,
	config *config.Config,
	logger *zap.Logger,
) ReminderService {
	return &ReminderServiceImpl{
		repo:          repo,
		approvals:     approvals,
		notifications: notifications,
		auditService:  auditService,
		config:        config,
		logger:        logger,
		now:           time.Now,
	}
}

func (s *ReminderServiceImpl) Sweep(ctx context.Context, trigger string) (*Run, error) {
	// One sweep at a time; a manual run waits for a scheduled one.
	s.mu.Lock()
	defer s.mu.Unlock()

	run := &Run{Trigger: trigger, StartTime: s.now(), Status: RunStatusRunning}
	if err := s.repo.Create(ctx, run); err != nil {
		s.logger.Error("Failed to create reminder run", zap.Error(err))
	}

	sweepErr := s.sweep(ctx, run)

	end := s.now()
	run.EndTime = &end
	run.Status = RunStatusSuccess
	if sweepErr != nil {
		run.Status = RunStatusFailed
		run.Error = sweepErr.Error()
	}
	if err := s.repo.Update(ctx, run); err != nil {
		s.logger.Error("Failed to update reminder run", zap.String("run_id", run.ID.Hex()), zap.Error(err))
	}

	_ = s.auditService.LogChange(ctx, common_models.AuditActionReminder, "reminder", run.ID.Hex(), map[string]common_models.Change{
		"status":   {New: run.Status},
		"reminded": {New: run.Reminded},
		"overdue":  {New: run.Overdue},
	})
	s.logger.Info("Reminder sweep finished",
		zap.String("trigger", trigger),
		zap.Int("scanned", run.Scanned),
		zap.Int("reminded", run.Reminded),
		zap.Int("overdue", run.Overdue),
		zap.Int("skipped", run.Skipped),
	)
	return run, sweepErr
}

func (s *ReminderServiceImpl) sweep(ctx context.Context, run *Run) error {
	responseIDs, err := s.approvals.ResponsesAwaitingApproval(ctx)
	if err != nil {
		return fmt.Errorf("list responses awaiting approval: %w", err)
	}

	now := s.now()
	for _, responseID := range responseIDs {
		run.Scanned++

		instances, err := s.approvals.ListForResponse(ctx, responseID)
		if err != nil {
			return err
		}
		if approval.Halted(instances) {
			run.Skipped++
			continue
		}

		next, err := s.approvals.NextMandatoryApprover(ctx, responseID)
		if err != nil {
			return err
		}
		if next == nil {
			run.Skipped++
			continue
		}

		// Parallel mandatory approvers share the step and are all reminded.
		reminded := 0
		for _, inst := range instances {
			if !inst.IsMandatory || inst.Status != common_models.ApprovalStatusPending || inst.SequenceNumber != next.SequenceNumber {
				continue
			}
			eligible, err := s.approvals.IsEligible(ctx, inst.ID)
			if err != nil {
				return err
			}
			if !eligible {
				continue
			}
			if s.remind(ctx, run, inst, now) {
				reminded++
			}
		}
		if reminded == 0 {
			run.Skipped++
		}
	}
	return nil
}

func (s *ReminderServiceImpl) remind(ctx context.Context, run *Run, inst approval.Instance, now time.Time) bool {
	responseID := inst.ResponseID
	title := "Approval pending"
	notifType := notification.NotificationTypeReminder
	message := fmt.Sprintf("Response %s is waiting for your approval (step %d).", responseID.Hex(), inst.SequenceNumber)
	overdue := inst.DueAt != nil && now.After(*inst.DueAt)
	if overdue {
		title = "Approval overdue"
		notifType = notification.NotificationTypeWarning
		message = fmt.Sprintf("Response %s was due for approval on %s.", responseID.Hex(), inst.DueAt.Format("2006-01-02"))
	}

	link := "/responses/" + responseID.Hex()
	if err := s.notifications.CreateNotification(ctx, inst.ApproverID, title, message, notifType, link); err != nil {
		s.logger.Warn("Failed to write reminder",
			zap.String("response_id", responseID.Hex()),
			zap.String("approver_id", inst.ApproverID.Hex()),
			zap.Error(err),
		)
		return false
	}
	run.Reminded++
	if overdue {
		run.Overdue++
	}
	return true
}

func (s *ReminderServiceImpl) ListRuns(ctx context.Context, limit int64) ([]Run, error) {
	if limit <= 0 {
		limit = 50
	}
	return s.repo.List(ctx, limit)
}

// Start registers the sweep on the configured cron expression. It is a no-op
// when reminders are disabled.
func (s *ReminderServiceImpl) Start(ctx context.Context) error {
	if !s.config.ReminderEnabled {
		s.logger.Info("Reminder scheduler disabled")
		return nil
	}

	s.scheduler = cron.New()
	_, err := s.scheduler.AddFunc(s.config.ReminderSchedule, func() {
		if _, err := s.Sweep(context.Background(), TriggerSchedule); err != nil {
			s.logger.Error("Scheduled reminder sweep failed", zap.Error(err))
		}
	})
	if err != nil {
		return fmt.Errorf("invalid reminder schedule %q: %w", s.config.ReminderSchedule, err)
	}

	s.scheduler.Start()
	s.logger.Info("Reminder scheduler started", zap.String("schedule", s.config.ReminderSchedule))
	return nil
}

func (s *ReminderServiceImpl) Stop() error {
	if s.scheduler != nil {
		ctx := s.scheduler.Stop()
		<-ctx.Done()
	}
	return nil
}
