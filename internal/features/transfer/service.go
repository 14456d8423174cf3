package transfer

import (
	"context"
	"fmt"

	"go-approvals/internal/common/apperror"
	common_models "go-approvals/internal/common/models"
	"go-approvals/internal/database"
	"go-approvals/internal/features/audit"
	"go-approvals/internal/features/form"
	"go-approvals/internal/features/moderator"
	"go-approvals/internal/features/notification"
	"go-approvals/internal/features/schedule"
	"go-approvals/internal/features/template"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type TransferService interface {
	// TransferAll moves every assignment of every kind in one transaction.
	TransferAll(ctx context.Context, fromUserID, toUserID primitive.ObjectID) (*TransferResult, error)
	// TransferSpecific moves only assignments on formIDs for the given kinds.
	TransferSpecific(ctx context.Context, fromUserID, toUserID primitive.ObjectID, formIDs []primitive.ObjectID, kinds []Kind) (*TransferResult, error)
	TransferBatch(ctx context.Context, items []TransferRequest) (*BatchResult, error)
	GetUserResponsibilities(ctx context.Context, userID primitive.ObjectID) (*Responsibilities, error)
}

type TransferServiceImpl struct {
	Stores       map[Kind]Store
	Forms        form.FormRepository
	FormService  form.FormService
	Tx           database.Transactor
	AuditService audit.AuditService
	Logger       *zap.Logger
}

func NewTransferService(
	schedules schedule.ScheduleRepository,
	templates template.TemplateRepository,
	rules notification.RuleRepository,
	moderators moderator.ModeratorRepository,
	forms form.FormRepository,
	formService form.FormService,
	tx database.Transactor,
	auditService audit.AuditService,
	logger *zap.Logger,
) TransferService {
	return &TransferServiceImpl{
		Stores: map[Kind]Store{
			KindSchedules:     scheduleStore{repo: schedules},
			KindApprovals:     approvalStore{repo: templates},
			KindNotifications: ruleStore{repo: rules},
			KindModerators:    moderatorStore{repo: moderators},
		},
		Forms:        forms,
		FormService:  formService,
		Tx:           tx,
		AuditService: auditService,
		Logger:       logger,
	}
}

func (s *TransferServiceImpl) TransferAll(ctx context.Context, fromUserID, toUserID primitive.ObjectID) (*TransferResult, error) {
	if err := validateUsers(fromUserID, toUserID); err != nil {
		return nil, err
	}
	return s.run(ctx, fromUserID, toUserID, AllKinds, nil)
}

func (s *TransferServiceImpl) TransferSpecific(ctx context.Context, fromUserID, toUserID primitive.ObjectID, formIDs []primitive.ObjectID, kinds []Kind) (*TransferResult, error) {
	if err := validateUsers(fromUserID, toUserID); err != nil {
		return nil, err
	}
	if len(formIDs) == 0 {
		return nil, apperror.Invalid("form_ids", "at least one form is required")
	}
	kinds, err := normalizeKinds(kinds)
	if err != nil {
		return nil, err
	}

	all, err := s.Forms.ListFormIDs(ctx)
	if err != nil {
		return nil, err
	}
	keep := make(map[primitive.ObjectID]bool, len(formIDs))
	for _, id := range formIDs {
		keep[id] = true
	}
	exclude := []primitive.ObjectID{}
	for _, id := range all {
		if !keep[id] {
			exclude = append(exclude, id)
		}
	}
	return s.run(ctx, fromUserID, toUserID, kinds, exclude)
}

func (s *TransferServiceImpl) TransferBatch(ctx context.Context, items []TransferRequest) (*BatchResult, error) {
	if len(items) == 0 {
		return nil, apperror.Invalid("transfers", "batch is empty")
	}

	batch := &BatchResult{BatchID: uuid.NewString(), Items: make([]BatchItemResult, 0, len(items))}
	for i, item := range items {
		var (
			result *TransferResult
			err    error
		)
		if len(item.FormIDs) > 0 {
			result, err = s.TransferSpecific(ctx, item.FromUserID, item.ToUserID, item.FormIDs, item.Kinds)
		} else {
			result, err = s.TransferAll(ctx, item.FromUserID, item.ToUserID)
		}

		entry := BatchItemResult{Index: i, Request: item, Result: result}
		if err != nil {
			entry.Error = err.Error()
			batch.Failed++
			s.Logger.Warn("Batch transfer item failed",
				zap.String("batch_id", batch.BatchID),
				zap.Int("index", i),
				zap.Error(err),
			)
		} else {
			batch.Succeeded++
		}
		batch.Items = append(batch.Items, entry)
	}

	s.Logger.Info("Batch transfer finished",
		zap.String("batch_id", batch.BatchID),
		zap.Int("succeeded", batch.Succeeded),
		zap.Int("failed", batch.Failed),
	)
	return batch, nil
}

func (s *TransferServiceImpl) GetUserResponsibilities(ctx context.Context, userID primitive.ObjectID) (*Responsibilities, error) {
	owned := make(map[Kind][]Assignment, len(AllKinds))
	var formIDs []primitive.ObjectID
	for _, kind := range AllKinds {
		rows, err := s.Stores[kind].ListOwned(ctx, userID, nil)
		if err != nil {
			return nil, fmt.Errorf("list %s: %w", kind, err)
		}
		owned[kind] = rows
		for _, a := range rows {
			formIDs = append(formIDs, a.FormID)
		}
	}

	summaries, err := s.FormService.Summaries(ctx, formIDs)
	if err != nil {
		return nil, err
	}

	out := &Responsibilities{UserID: userID, Items: make(map[Kind][]Responsibility, len(AllKinds))}
	for _, kind := range AllKinds {
		items := make([]Responsibility, 0, len(owned[kind]))
		for _, a := range owned[kind] {
			r := Responsibility{Assignment: a}
			if summary, ok := summaries[a.FormID]; ok {
				r.Form = &summary
			}
			items = append(items, r)
		}
		out.Items[kind] = items
		out.Total += len(items)
	}
	return out, nil
}

// run applies transferKind for each kind inside a single transaction.
func (s *TransferServiceImpl) run(ctx context.Context, from, to primitive.ObjectID, kinds []Kind, exclude []primitive.ObjectID) (*TransferResult, error) {
	result := &TransferResult{FromUserID: from, ToUserID: to}
	err := s.Tx.WithTransaction(ctx, func(ctx context.Context) error {
		// The driver may rerun this callback after a transient abort.
		result.Kinds = make(map[Kind]KindResult, len(kinds))
		result.Summary = KindResult{}
		for _, kind := range kinds {
			kr, err := s.transferKind(ctx, s.Stores[kind], from, to, exclude)
			if err != nil {
				return fmt.Errorf("transfer %s: %w", kind, err)
			}
			result.Kinds[kind] = kr
			result.Summary.Transferred += kr.Transferred
			result.Summary.SkippedDuplicate += kr.SkippedDuplicate
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	changes := map[string]common_models.Change{
		"user_id": {Old: from.Hex(), New: to.Hex()},
	}
	for kind, kr := range result.Kinds {
		changes[string(kind)] = common_models.Change{New: kr}
	}
	_ = s.AuditService.LogChange(ctx, common_models.AuditActionTransfer, "transfer", from.Hex(), changes)

	s.Logger.Info("Responsibilities transferred",
		zap.String("from_user_id", from.Hex()),
		zap.String("to_user_id", to.Hex()),
		zap.Int("transferred", result.Summary.Transferred),
		zap.Int("skipped_duplicate", result.Summary.SkippedDuplicate),
	)
	return result, nil
}

func (s *TransferServiceImpl) transferKind(ctx context.Context, store Store, from, to primitive.ObjectID, exclude []primitive.ObjectID) (KindResult, error) {
	var kr KindResult
	owned, err := store.ListOwned(ctx, from, exclude)
	if err != nil {
		return kr, err
	}
	for _, a := range owned {
		covered, err := store.Covered(ctx, to, a)
		if err != nil {
			return kr, err
		}
		if covered {
			if err := store.Remove(ctx, a, to); err != nil {
				return kr, err
			}
			kr.SkippedDuplicate++
			continue
		}
		if err := store.Reassign(ctx, a, to); err != nil {
			return kr, err
		}
		kr.Transferred++
	}
	return kr, nil
}

func validateUsers(from, to primitive.ObjectID) error {
	if from.IsZero() {
		return apperror.Invalid("from_user_id", "source user is required")
	}
	if to.IsZero() {
		return apperror.Invalid("to_user_id", "destination user is required")
	}
	if from == to {
		return apperror.Conflict("transfer", from.Hex(), "source and destination are the same user")
	}
	return nil
}

func normalizeKinds(kinds []Kind) ([]Kind, error) {
	if len(kinds) == 0 {
		return AllKinds, nil
	}
	seen := make(map[Kind]bool, len(kinds))
	for _, k := range kinds {
		if !k.Valid() {
			return nil, apperror.Invalid("kinds", "unknown kind %q", k)
		}
		seen[k] = true
	}
	// Keep the canonical order regardless of request order.
	out := make([]Kind, 0, len(seen))
	for _, k := range AllKinds {
		if seen[k] {
			out = append(out, k)
		}
	}
	return out, nil
}
