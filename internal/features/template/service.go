package template

import (
	"context"
	"time"

	"go-approvals/internal/common/apperror"
	common_models "go-approvals/internal/common/models"
	"go-approvals/internal/database"
	"go-approvals/internal/features/audit"
	"go-approvals/internal/features/form"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

const auditModule = "approval_template"

type TemplateService interface {
	// AddApprovers inserts a row per input unless the active slot already exists.
	AddApprovers(ctx context.Context, formID primitive.ObjectID, approvers []ApproverInput) (*AddResult, error)
	// BulkUpdate applies every update or none of them.
	BulkUpdate(ctx context.Context, updates []TemplateUpdate) ([]UpdateOutcome, error)
	Deactivate(ctx context.Context, id primitive.ObjectID) error
	ListActive(ctx context.Context, formID primitive.ObjectID) ([]ApprovalTemplate, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*ApprovalTemplate, error)
}

type TemplateServiceImpl struct {
	Repo       TemplateRepository
	Forms      form.FormRepository
	Reassigner PendingInstanceReassigner
	Tx         database.Transactor
	Audit      audit.AuditService
	Logger     *zap.Logger
}

func NewTemplateService(
	repo TemplateRepository,
	forms form.FormRepository,
	reassigner PendingInstanceReassigner,
	tx database.Transactor,
	auditService audit.AuditService,
	logger *zap.Logger,
) TemplateService {
	return &TemplateServiceImpl{
		Repo:       repo,
		Forms:      forms,
		Reassigner: reassigner,
		Tx:         tx,
		Audit:      auditService,
		Logger:     logger,
	}
}

func (s *TemplateServiceImpl) AddApprovers(ctx context.Context, formID primitive.ObjectID, approvers []ApproverInput) (*AddResult, error) {
	for _, in := range approvers {
		if err := validateInput(in); err != nil {
			return nil, err
		}
	}
	if _, err := s.Forms.FindForm(ctx, formID); err != nil {
		return nil, err
	}

	result := &AddResult{CreatedIDs: []primitive.ObjectID{}, Configured: len(approvers)}
	now := time.Now()

	for _, in := range approvers {
		existing, err := s.Repo.FindActiveSlot(ctx, formID, in.ApproverID, in.SequenceNumber)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			continue
		}

		mandatory := true
		if in.IsMandatory != nil {
			mandatory = *in.IsMandatory
		}
		tpl := &ApprovalTemplate{
			FormID:          formID,
			ApproverID:      in.ApproverID,
			SequenceNumber:  in.SequenceNumber,
			IsMandatory:     mandatory,
			DeadlineDays:    in.DeadlineDays,
			IsActive:        true,
			RequiredFormIDs: in.RequiredFormIDs,
			FollowsSequence: in.FollowsSequence,
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		if err := s.Repo.Insert(ctx, tpl); err != nil {
			// Lost a race with a concurrent add of the same slot.
			if apperror.Is(err, apperror.KindDuplicate) {
				continue
			}
			return nil, err
		}

		result.CreatedIDs = append(result.CreatedIDs, tpl.ID)
		_ = s.Audit.LogChange(ctx, common_models.AuditActionCreate, auditModule, tpl.ID.Hex(), map[string]common_models.Change{
			"approver_id":     {New: tpl.ApproverID.Hex()},
			"sequence_number": {New: tpl.SequenceNumber},
			"is_mandatory":    {New: tpl.IsMandatory},
		})
	}
	result.Added = len(result.CreatedIDs)

	s.Logger.Info("Approvers configured",
		zap.String("form_id", formID.Hex()),
		zap.Int("configured", result.Configured),
		zap.Int("added", result.Added),
	)
	return result, nil
}

func (s *TemplateServiceImpl) BulkUpdate(ctx context.Context, updates []TemplateUpdate) ([]UpdateOutcome, error) {
	for _, u := range updates {
		if err := validateUpdate(u); err != nil {
			return nil, err
		}
	}

	var outcomes []UpdateOutcome
	err := s.Tx.WithTransaction(ctx, func(ctx context.Context) error {
		outcomes = make([]UpdateOutcome, 0, len(updates))
		for _, u := range updates {
			outcome, err := s.applyUpdate(ctx, u)
			if err != nil {
				return err
			}
			outcomes = append(outcomes, outcome)
		}
		return nil
	})
	if err != nil {
		s.Logger.Warn("Bulk template update aborted", zap.Int("updates", len(updates)), zap.Error(err))
		return nil, err
	}

	s.Logger.Info("Bulk template update applied", zap.Int("updates", len(outcomes)))
	return outcomes, nil
}

func (s *TemplateServiceImpl) applyUpdate(ctx context.Context, u TemplateUpdate) (UpdateOutcome, error) {
	outcome := UpdateOutcome{ID: u.ID}

	current, err := s.Repo.FindByID(ctx, u.ID)
	if err != nil {
		return outcome, err
	}
	if !current.IsActive {
		return outcome, apperror.NotFound("active approval template", u.ID.Hex())
	}

	next := *current
	if u.ApproverID != nil {
		next.ApproverID = *u.ApproverID
	}
	if u.SequenceNumber != nil {
		next.SequenceNumber = *u.SequenceNumber
	}
	if u.IsMandatory != nil {
		next.IsMandatory = *u.IsMandatory
	}
	if u.DeadlineDays != nil {
		next.DeadlineDays = u.DeadlineDays
	}
	if u.RequiredFormIDs != nil {
		next.RequiredFormIDs = *u.RequiredFormIDs
	}
	if u.FollowsSequence != nil {
		next.FollowsSequence = *u.FollowsSequence
	}
	now := time.Now()
	next.UpdatedAt = now

	identityChanged := next.ApproverID != current.ApproverID ||
		next.SequenceNumber != current.SequenceNumber ||
		next.IsMandatory != current.IsMandatory

	if !identityChanged {
		if err := s.Repo.UpdateInPlace(ctx, &next); err != nil {
			return outcome, err
		}
		_ = s.Audit.LogChange(ctx, common_models.AuditActionUpdate, auditModule, current.ID.Hex(), diff(current, &next))
		return outcome, nil
	}

	// Deactivate first so the partial unique index allows re-using the slot.
	if err := s.Repo.Deactivate(ctx, current.ID, now); err != nil {
		return outcome, err
	}

	next.ID = primitive.NilObjectID
	next.IsActive = true
	next.CreatedAt = now
	next.DeactivatedAt = nil
	if err := s.Repo.Insert(ctx, &next); err != nil {
		return outcome, err
	}

	moved, err := s.Reassigner.ReassignPending(ctx, SlotChange{
		FormID:        current.FormID,
		OldApproverID: current.ApproverID,
		OldSequence:   current.SequenceNumber,
		NewTemplateID: next.ID,
		NewApproverID: next.ApproverID,
		NewSequence:   next.SequenceNumber,
		NewMandatory:  next.IsMandatory,
	})
	if err != nil {
		return outcome, err
	}

	newID := next.ID
	outcome.ReplacedBy = &newID
	outcome.ReassignedPending = moved

	_ = s.Audit.LogChange(ctx, common_models.AuditActionDeactivate, auditModule, current.ID.Hex(), map[string]common_models.Change{
		"replaced_by": {New: newID.Hex()},
	})
	_ = s.Audit.LogChange(ctx, common_models.AuditActionCreate, auditModule, newID.Hex(), diff(current, &next))

	s.Logger.Info("Approval template replaced",
		zap.String("template_id", current.ID.Hex()),
		zap.String("replaced_by", newID.Hex()),
		zap.Int64("reassigned_pending", moved),
	)
	return outcome, nil
}

func (s *TemplateServiceImpl) Deactivate(ctx context.Context, id primitive.ObjectID) error {
	tpl, err := s.Repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if !tpl.IsActive {
		return nil
	}
	if err := s.Repo.Deactivate(ctx, id, time.Now()); err != nil {
		return err
	}
	_ = s.Audit.LogChange(ctx, common_models.AuditActionDeactivate, auditModule, id.Hex(), map[string]common_models.Change{
		"is_active": {Old: true, New: false},
	})
	s.Logger.Info("Approval template deactivated", zap.String("template_id", id.Hex()))
	return nil
}

func (s *TemplateServiceImpl) ListActive(ctx context.Context, formID primitive.ObjectID) ([]ApprovalTemplate, error) {
	return s.Repo.ListActive(ctx, formID)
}

func (s *TemplateServiceImpl) GetByID(ctx context.Context, id primitive.ObjectID) (*ApprovalTemplate, error) {
	return s.Repo.FindByID(ctx, id)
}

func validateInput(in ApproverInput) error {
	if in.ApproverID.IsZero() {
		return apperror.Invalid("approver_id", "approver is required")
	}
	if in.SequenceNumber < 1 {
		return apperror.Invalid("sequence_number", "must be >= 1, got %d", in.SequenceNumber)
	}
	if in.DeadlineDays != nil && *in.DeadlineDays < 0 {
		return apperror.Invalid("deadline_days", "must be >= 0, got %d", *in.DeadlineDays)
	}
	return nil
}

func validateUpdate(u TemplateUpdate) error {
	if u.ID.IsZero() {
		return apperror.Invalid("id", "template id is required")
	}
	if u.ApproverID != nil && u.ApproverID.IsZero() {
		return apperror.Invalid("approver_id", "approver is required")
	}
	if u.SequenceNumber != nil && *u.SequenceNumber < 1 {
		return apperror.Invalid("sequence_number", "must be >= 1, got %d", *u.SequenceNumber)
	}
	if u.DeadlineDays != nil && *u.DeadlineDays < 0 {
		return apperror.Invalid("deadline_days", "must be >= 0, got %d", *u.DeadlineDays)
	}
	return nil
}

func diff(old, next *ApprovalTemplate) map[string]common_models.Change {
	changes := map[string]common_models.Change{}
	if old.ApproverID != next.ApproverID {
		changes["approver_id"] = common_models.Change{Old: old.ApproverID.Hex(), New: next.ApproverID.Hex()}
	}
	if old.SequenceNumber != next.SequenceNumber {
		changes["sequence_number"] = common_models.Change{Old: old.SequenceNumber, New: next.SequenceNumber}
	}
	if old.IsMandatory != next.IsMandatory {
		changes["is_mandatory"] = common_models.Change{Old: old.IsMandatory, New: next.IsMandatory}
	}
	if !sameDeadline(old.DeadlineDays, next.DeadlineDays) {
		changes["deadline_days"] = common_models.Change{Old: old.DeadlineDays, New: next.DeadlineDays}
	}
	if old.FollowsSequence != next.FollowsSequence {
		changes["follows_approval_sequence"] = common_models.Change{Old: old.FollowsSequence, New: next.FollowsSequence}
	}
	return changes
}

func sameDeadline(a, b *int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
