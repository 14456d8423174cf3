package approval

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go-approvals/internal/common/apperror"
	common_models "go-approvals/internal/common/models"
	"go-approvals/internal/database"
	"go-approvals/internal/features/audit"
	"go-approvals/internal/features/form"
	"go-approvals/internal/features/notification"
	"go-approvals/internal/features/requirement"
	"go-approvals/internal/features/template"
	"go-approvals/pkg/sequencer"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

const auditModule = "response_approval"

type ApprovalService interface {
	// Submit creates a response and snapshots the form's approval chain onto it.
	Submit(ctx context.Context, formID, actorID primitive.ObjectID) (*SubmitResult, error)
	MaterializeForResponse(ctx context.Context, responseID primitive.ObjectID) ([]Instance, error)

	RecordDecision(ctx context.Context, instanceID, actorID primitive.ObjectID, in DecisionInput) (*DecisionResult, error)
	RequestReconsideration(ctx context.Context, instanceID primitive.ObjectID) (*Instance, error)

	AggregateStatus(ctx context.Context, responseID primitive.ObjectID) (*AggregateStatus, error)
	Eligibility(ctx context.Context, instanceID primitive.ObjectID) (*Eligibility, error)
	IsEligible(ctx context.Context, instanceID primitive.ObjectID) (bool, error)
	NextMandatoryApprover(ctx context.Context, responseID primitive.ObjectID) (*Instance, error)
	// PendingForApprover lists pending instances of userID that are actionable now.
	PendingForApprover(ctx context.Context, userID primitive.ObjectID) ([]Instance, error)
	ListForResponse(ctx context.Context, responseID primitive.ObjectID) ([]Instance, error)
	ResponsesAwaitingApproval(ctx context.Context) ([]primitive.ObjectID, error)
}

type ApprovalServiceImpl struct {
	Repo          ApprovalRepository
	Forms         form.FormRepository
	Templates     template.TemplateService
	Requirements  requirement.RequirementService
	Notifications notification.NotificationService
	Tx            database.Transactor
	AuditService  audit.AuditService
	Logger        *zap.Logger
}

func NewApprovalService(
	repo ApprovalRepository,
	forms form.FormRepository,
	templates template.TemplateService,
	requirements requirement.RequirementService,
	notifications notification.NotificationService,
	tx database.Transactor,
	auditService audit.AuditService,
	logger *zap.Logger,
) ApprovalService {
	return &ApprovalServiceImpl{
		Repo:          repo,
		Forms:         forms,
		Templates:     templates,
		Requirements:  requirements,
		Notifications: notifications,
		Tx:            tx,
		AuditService:  auditService,
		Logger:        logger,
	}
}

func (s *ApprovalServiceImpl) Submit(ctx context.Context, formID, actorID primitive.ObjectID) (*SubmitResult, error) {
	result := &SubmitResult{}
	err := s.Tx.WithTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.Forms.FindForm(ctx, formID); err != nil {
			return err
		}

		response := form.Response{FormID: formID, SubmittedBy: actorID, SubmittedAt: time.Now()}
		if err := s.Forms.CreateResponse(ctx, &response); err != nil {
			return err
		}

		instances, err := s.MaterializeForResponse(ctx, response.ID)
		if err != nil {
			return err
		}
		rows, err := s.Requirements.EnsureRequirementRows(ctx, response.ID)
		if err != nil {
			return err
		}

		result.Response = response
		result.Instances = instances
		result.Requirements = rows
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.Logger.Info("Response submitted",
		zap.String("form_id", formID.Hex()),
		zap.String("response_id", result.Response.ID.Hex()),
		zap.Int("instances", len(result.Instances)),
	)
	return result, nil
}

func (s *ApprovalServiceImpl) MaterializeForResponse(ctx context.Context, responseID primitive.ObjectID) ([]Instance, error) {
	var instances []Instance
	err := s.Tx.WithTransaction(ctx, func(ctx context.Context) error {
		response, err := s.Forms.FindResponse(ctx, responseID)
		if err != nil {
			return err
		}

		existing, err := s.Repo.CountForResponse(ctx, responseID)
		if err != nil {
			return err
		}
		if existing > 0 {
			instances, err = s.Repo.ListForResponse(ctx, responseID)
			return err
		}

		templates, err := s.Templates.ListActive(ctx, response.FormID)
		if err != nil {
			return err
		}

		now := time.Now()
		instances = make([]Instance, 0, len(templates))
		for _, tpl := range templates {
			inst := Instance{
				ResponseID:     responseID,
				FormID:         response.FormID,
				TemplateID:     tpl.ID,
				ApproverID:     tpl.ApproverID,
				SequenceNumber: tpl.SequenceNumber,
				IsMandatory:    tpl.IsMandatory,
				Status:         common_models.ApprovalStatusPending,
				CreatedAt:      now,
				UpdatedAt:      now,
			}
			if tpl.DeadlineDays != nil {
				due := now.AddDate(0, 0, *tpl.DeadlineDays)
				inst.DueAt = &due
			}
			instances = append(instances, inst)
		}
		return s.Repo.InsertMany(ctx, instances)
	})
	if err != nil {
		return nil, err
	}
	return instances, nil
}

func (s *ApprovalServiceImpl) RecordDecision(ctx context.Context, instanceID, actorID primitive.ObjectID, in DecisionInput) (*DecisionResult, error) {
	if in.Status != common_models.ApprovalStatusApproved && in.Status != common_models.ApprovalStatusRejected {
		return nil, apperror.InvalidTransition("approval instance", instanceID.Hex(), "unsupported status %q", in.Status)
	}

	result := &DecisionResult{}
	err := s.Tx.WithTransaction(ctx, func(ctx context.Context) error {
		inst, err := s.Repo.FindByID(ctx, instanceID)
		if err != nil {
			return err
		}
		if inst.ApproverID != actorID {
			return apperror.Conflict("approval instance", instanceID.Hex(), "assigned to %s, not %s", inst.ApproverID.Hex(), actorID.Hex())
		}
		if inst.Status.IsTerminal() && !inst.ReconsiderationRequested {
			return apperror.InvalidTransition("approval instance", instanceID.Hex(), "already %s", inst.Status)
		}

		all, err := s.Repo.ListForResponse(ctx, inst.ResponseID)
		if err != nil {
			return err
		}
		reasons, err := s.blockers(ctx, inst, all)
		if err != nil {
			return err
		}
		if len(reasons) > 0 {
			return apperror.Ineligible("approval instance", instanceID.Hex(), "not actionable: %s", describe(reasons))
		}

		reviewedAt := time.Now()
		if in.ReviewedAt != nil {
			reviewedAt = *in.ReviewedAt
		}
		previous := inst.Status
		wasApproved := sequencer.FullyApproved(slots(all))
		if err := s.Repo.CompareAndSetDecision(ctx, inst, in.Status, in.Message, reviewedAt); err != nil {
			return err
		}

		inst.Status = in.Status
		inst.Message = in.Message
		inst.ReviewedAt = &reviewedAt
		inst.ReconsiderationRequested = false
		for i := range all {
			if all[i].ID == inst.ID {
				all[i] = *inst
			}
		}
		// Final only on the transition into fully approved.
		final := in.Status == common_models.ApprovalStatusApproved && !wasApproved && sequencer.FullyApproved(slots(all))

		_ = s.AuditService.LogChange(ctx, common_models.AuditActionApproval, auditModule, inst.ID.Hex(), map[string]common_models.Change{
			"status":  {Old: previous, New: in.Status},
			"message": {New: in.Message},
		})

		decision, err := s.Notifications.Decide(ctx, inst.FormID, inst.ResponseID, inst.ID, in.Status, final)
		if err != nil {
			return err
		}

		result.Instance = *inst
		result.Notification = decision
		result.Final = final
		return nil
	})
	if err != nil {
		if apperror.KindOf(err) != "" {
			s.Logger.Info("Decision refused",
				zap.String("instance_id", instanceID.Hex()),
				zap.String("actor_id", actorID.Hex()),
				zap.String("kind", string(apperror.KindOf(err))),
			)
		}
		return nil, err
	}

	s.Logger.Info("Decision recorded",
		zap.String("instance_id", instanceID.Hex()),
		zap.String("response_id", result.Instance.ResponseID.Hex()),
		zap.String("status", string(result.Instance.Status)),
		zap.Bool("final", result.Final),
		zap.Int("recipients", len(result.Notification.Recipients)),
	)
	return result, nil
}

func (s *ApprovalServiceImpl) RequestReconsideration(ctx context.Context, instanceID primitive.ObjectID) (*Instance, error) {
	inst, err := s.Repo.FindByID(ctx, instanceID)
	if err != nil {
		return nil, err
	}
	if !inst.Status.IsTerminal() {
		return nil, apperror.InvalidTransition("approval instance", instanceID.Hex(), "only decided instances can be reconsidered")
	}
	if inst.ReconsiderationRequested {
		return inst, nil
	}

	if err := s.Repo.FlagReconsideration(ctx, inst); err != nil {
		return nil, err
	}
	inst.ReconsiderationRequested = true

	_ = s.AuditService.LogChange(ctx, common_models.AuditActionReconsideration, auditModule, inst.ID.Hex(), map[string]common_models.Change{
		"reconsideration_requested": {Old: false, New: true},
	})
	s.Logger.Info("Reconsideration requested",
		zap.String("instance_id", instanceID.Hex()),
		zap.String("status", string(inst.Status)),
	)
	return inst, nil
}

func (s *ApprovalServiceImpl) AggregateStatus(ctx context.Context, responseID primitive.ObjectID) (*AggregateStatus, error) {
	all, err := s.Repo.ListForResponse(ctx, responseID)
	if err != nil {
		return nil, err
	}

	var latest *Instance
	for i := range all {
		if all[i].ReviewedAt == nil {
			continue
		}
		if latest == nil || all[i].ReviewedAt.After(*latest.ReviewedAt) {
			latest = &all[i]
		}
	}
	if latest == nil {
		return &AggregateStatus{Status: common_models.ApprovalStatusPending, Message: "no approvals"}, nil
	}
	id := latest.ID
	return &AggregateStatus{
		Status:     latest.Status,
		Message:    latest.Message,
		ReviewedAt: latest.ReviewedAt,
		InstanceID: &id,
	}, nil
}

func (s *ApprovalServiceImpl) Eligibility(ctx context.Context, instanceID primitive.ObjectID) (*Eligibility, error) {
	inst, err := s.Repo.FindByID(ctx, instanceID)
	if err != nil {
		return nil, err
	}
	all, err := s.Repo.ListForResponse(ctx, inst.ResponseID)
	if err != nil {
		return nil, err
	}
	reasons, err := s.blockers(ctx, inst, all)
	if err != nil {
		return nil, err
	}
	return &Eligibility{InstanceID: inst.ID, Eligible: len(reasons) == 0, Reasons: reasons}, nil
}

func (s *ApprovalServiceImpl) IsEligible(ctx context.Context, instanceID primitive.ObjectID) (bool, error) {
	e, err := s.Eligibility(ctx, instanceID)
	if err != nil {
		return false, err
	}
	return e.Eligible, nil
}

func (s *ApprovalServiceImpl) NextMandatoryApprover(ctx context.Context, responseID primitive.ObjectID) (*Instance, error) {
	all, err := s.Repo.ListForResponse(ctx, responseID)
	if err != nil {
		return nil, err
	}
	next, ok := sequencer.NextMandatory(slots(all))
	if !ok {
		return nil, nil
	}
	for i := range all {
		if all[i].ID.Hex() == next.ID {
			return &all[i], nil
		}
	}
	return nil, nil
}

func (s *ApprovalServiceImpl) PendingForApprover(ctx context.Context, userID primitive.ObjectID) ([]Instance, error) {
	pending, err := s.Repo.ListPendingByApprover(ctx, userID)
	if err != nil {
		return nil, err
	}

	byResponse := map[primitive.ObjectID][]Instance{}
	out := []Instance{}
	for i := range pending {
		inst := &pending[i]
		all, ok := byResponse[inst.ResponseID]
		if !ok {
			if all, err = s.Repo.ListForResponse(ctx, inst.ResponseID); err != nil {
				return nil, err
			}
			byResponse[inst.ResponseID] = all
		}
		reasons, err := s.blockers(ctx, inst, all)
		if err != nil {
			return nil, err
		}
		if len(reasons) == 0 {
			out = append(out, *inst)
		}
	}
	return out, nil
}

func (s *ApprovalServiceImpl) ListForResponse(ctx context.Context, responseID primitive.ObjectID) ([]Instance, error) {
	return s.Repo.ListForResponse(ctx, responseID)
}

func (s *ApprovalServiceImpl) ResponsesAwaitingApproval(ctx context.Context) ([]primitive.ObjectID, error) {
	return s.Repo.ResponsesWithPending(ctx)
}

// blockers evaluates inst against its response's chain and the approver's gates.
func (s *ApprovalServiceImpl) blockers(ctx context.Context, inst *Instance, all []Instance) ([]sequencer.Reason, error) {
	response, err := s.Forms.FindResponse(ctx, inst.ResponseID)
	if err != nil {
		return nil, err
	}

	// The owning row may have been deactivated since; its flag still applies.
	followsSequence := true
	tpl, err := s.Templates.GetByID(ctx, inst.TemplateID)
	switch {
	case err == nil:
		followsSequence = tpl.FollowsSequence
	case !apperror.Is(err, apperror.KindNotFound):
		return nil, err
	}

	gates, err := s.Requirements.GatesFor(ctx, response, inst.ApproverID)
	if err != nil {
		return nil, err
	}
	return sequencer.Blockers(inst.slot(), slots(all), followsSequence, gates), nil
}

func describe(reasons []sequencer.Reason) string {
	parts := make([]string, 0, len(reasons))
	for _, r := range reasons {
		parts = append(parts, fmt.Sprintf("%s(%s)", r.Code, r.Ref))
	}
	return strings.Join(parts, ", ")
}
