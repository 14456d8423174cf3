package requirement

import (
	"context"
	"time"

	"go-approvals/internal/common/apperror"
	common_models "go-approvals/internal/common/models"
	"go-approvals/internal/features/audit"
	"go-approvals/internal/features/form"
	"go-approvals/pkg/sequencer"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type RequirementService interface {
	// CreateRequirement returns the existing row and created=false when the
	// (form, approver, required form) triple is already declared.
	CreateRequirement(ctx context.Context, formID primitive.ObjectID, in RequirementInput) (*ApprovalRequirement, bool, error)
	ListForForm(ctx context.Context, formID primitive.ObjectID) ([]ApprovalRequirement, error)
	EnsureRequirementRows(ctx context.Context, responseID primitive.ObjectID) ([]ResponseRequirement, error)
	IsFulfilled(ctx context.Context, responseID, requirementID primitive.ObjectID) (bool, error)
	Fulfill(ctx context.Context, responseRequirementID, fulfillingResponseID primitive.ObjectID) (*ResponseRequirement, error)
	// GatesFor returns the gates of approverID on response, materializing rows as needed.
	GatesFor(ctx context.Context, response *form.Response, approverID primitive.ObjectID) ([]sequencer.Gate, error)
	ListForResponse(ctx context.Context, responseID primitive.ObjectID) ([]ResponseRequirement, error)
}

type RequirementServiceImpl struct {
	Repo   RequirementRepository
	Forms  form.FormRepository
	Audit  audit.AuditService
	Logger *zap.Logger
}

func NewRequirementService(repo RequirementRepository, forms form.FormRepository, auditService audit.AuditService, logger *zap.Logger) RequirementService {
	return &RequirementServiceImpl{
		Repo:   repo,
		Forms:  forms,
		Audit:  auditService,
		Logger: logger,
	}
}

func (s *RequirementServiceImpl) CreateRequirement(ctx context.Context, formID primitive.ObjectID, in RequirementInput) (*ApprovalRequirement, bool, error) {
	if in.ApproverID.IsZero() {
		return nil, false, apperror.Invalid("approver_id", "approver is required")
	}
	if in.RequiredFormID.IsZero() {
		return nil, false, apperror.Invalid("required_form_id", "required form is required")
	}
	if in.RequiredFormID == formID {
		return nil, false, apperror.Invalid("required_form_id", "a form cannot require itself")
	}
	if _, err := s.Forms.FindForm(ctx, formID); err != nil {
		return nil, false, err
	}
	if _, err := s.Forms.FindForm(ctx, in.RequiredFormID); err != nil {
		return nil, false, err
	}

	existing, err := s.Repo.FindByKey(ctx, formID, in.ApproverID, in.RequiredFormID)
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		return existing, false, nil
	}

	enforced := true
	if in.LineaAprobacion != nil {
		enforced = *in.LineaAprobacion
	}
	req := &ApprovalRequirement{
		FormID:          formID,
		ApproverID:      in.ApproverID,
		RequiredFormID:  in.RequiredFormID,
		LineaAprobacion: enforced,
		CreatedAt:       time.Now(),
	}
	if err := s.Repo.Create(ctx, req); err != nil {
		if apperror.Is(err, apperror.KindDuplicate) {
			existing, findErr := s.Repo.FindByKey(ctx, formID, in.ApproverID, in.RequiredFormID)
			if findErr == nil && existing != nil {
				return existing, false, nil
			}
		}
		return nil, false, err
	}

	_ = s.Audit.LogChange(ctx, common_models.AuditActionCreate, "approval_requirement", req.ID.Hex(), map[string]common_models.Change{
		"approver_id":      {New: req.ApproverID.Hex()},
		"required_form_id": {New: req.RequiredFormID.Hex()},
		"linea_aprobacion": {New: req.LineaAprobacion},
	})
	s.Logger.Info("Approval requirement created",
		zap.String("form_id", formID.Hex()),
		zap.String("approver_id", in.ApproverID.Hex()),
		zap.String("required_form_id", in.RequiredFormID.Hex()),
	)
	return req, true, nil
}

func (s *RequirementServiceImpl) ListForForm(ctx context.Context, formID primitive.ObjectID) ([]ApprovalRequirement, error) {
	return s.Repo.ListForForm(ctx, formID)
}

func (s *RequirementServiceImpl) EnsureRequirementRows(ctx context.Context, responseID primitive.ObjectID) ([]ResponseRequirement, error) {
	response, err := s.Forms.FindResponse(ctx, responseID)
	if err != nil {
		return nil, err
	}
	reqs, err := s.Repo.ListForForm(ctx, response.FormID)
	if err != nil {
		return nil, err
	}
	return s.ensureRows(ctx, responseID, reqs)
}

func (s *RequirementServiceImpl) ensureRows(ctx context.Context, responseID primitive.ObjectID, reqs []ApprovalRequirement) ([]ResponseRequirement, error) {
	rows := make([]ResponseRequirement, 0, len(reqs))
	for _, req := range reqs {
		row, err := s.Repo.FindResponseRowFor(ctx, responseID, req.ID)
		if err != nil {
			return nil, err
		}
		if row == nil {
			row = &ResponseRequirement{
				ResponseID:    responseID,
				RequirementID: req.ID,
				CreatedAt:     time.Now(),
			}
			if err := s.Repo.InsertResponseRow(ctx, row); err != nil {
				if !apperror.Is(err, apperror.KindDuplicate) {
					return nil, err
				}
				// A concurrent writer created the row. The duplicate key has
				// already aborted any enclosing transaction, so the caller retries.
				return nil, apperror.Conflict("response requirement", responseID.Hex()+"/"+req.ID.Hex(),
					"created concurrently, retry the operation")
			}
		}
		rows = append(rows, *row)
	}
	return rows, nil
}

func (s *RequirementServiceImpl) IsFulfilled(ctx context.Context, responseID, requirementID primitive.ObjectID) (bool, error) {
	row, err := s.Repo.FindResponseRowFor(ctx, responseID, requirementID)
	if err != nil {
		return false, err
	}
	return row != nil && row.IsFulfilled, nil
}

func (s *RequirementServiceImpl) Fulfill(ctx context.Context, responseRequirementID, fulfillingResponseID primitive.ObjectID) (*ResponseRequirement, error) {
	row, err := s.Repo.FindResponseRow(ctx, responseRequirementID)
	if err != nil {
		return nil, err
	}
	fulfilling, err := s.Forms.FindResponse(ctx, fulfillingResponseID)
	if err != nil {
		return nil, err
	}
	req, err := s.Repo.FindByID(ctx, row.RequirementID)
	if err != nil {
		return nil, err
	}
	if fulfilling.FormID != req.RequiredFormID {
		return nil, apperror.Conflict("response requirement", responseRequirementID.Hex(),
			"response %s belongs to form %s, requirement needs form %s",
			fulfillingResponseID.Hex(), fulfilling.FormID.Hex(), req.RequiredFormID.Hex())
	}

	if row.IsFulfilled && row.FulfillingResponseID != nil && *row.FulfillingResponseID == fulfillingResponseID {
		return row, nil
	}

	now := time.Now()
	if err := s.Repo.MarkFulfilled(ctx, row.ID, fulfillingResponseID, now); err != nil {
		return nil, err
	}

	var previous interface{}
	if row.FulfillingResponseID != nil {
		previous = row.FulfillingResponseID.Hex()
	}
	_ = s.Audit.LogChange(ctx, common_models.AuditActionFulfill, "response_requirement", row.ID.Hex(), map[string]common_models.Change{
		"fulfilling_response_id": {Old: previous, New: fulfillingResponseID.Hex()},
	})
	s.Logger.Info("Requirement fulfilled",
		zap.String("response_id", row.ResponseID.Hex()),
		zap.String("requirement_id", row.RequirementID.Hex()),
		zap.String("fulfilling_response_id", fulfillingResponseID.Hex()),
	)

	row.IsFulfilled = true
	row.FulfillingResponseID = &fulfillingResponseID
	row.FulfilledAt = &now
	return row, nil
}

func (s *RequirementServiceImpl) GatesFor(ctx context.Context, response *form.Response, approverID primitive.ObjectID) ([]sequencer.Gate, error) {
	reqs, err := s.Repo.ListForApprover(ctx, response.FormID, approverID)
	if err != nil {
		return nil, err
	}
	rows, err := s.ensureRows(ctx, response.ID, reqs)
	if err != nil {
		return nil, err
	}

	gates := make([]sequencer.Gate, 0, len(reqs))
	for i, req := range reqs {
		gates = append(gates, sequencer.Gate{
			RequirementID:  req.ID.Hex(),
			RequiredFormID: req.RequiredFormID.Hex(),
			Enforced:       req.LineaAprobacion,
			Fulfilled:      rows[i].IsFulfilled,
		})
	}
	return gates, nil
}

func (s *RequirementServiceImpl) ListForResponse(ctx context.Context, responseID primitive.ObjectID) ([]ResponseRequirement, error) {
	return s.EnsureRequirementRows(ctx, responseID)
}
