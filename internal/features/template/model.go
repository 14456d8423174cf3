package template

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ApprovalTemplate is one approver slot configured on a form. Rows are never
// deleted; changing who/when/how-mandatory deactivates the row and inserts a
// replacement so instances created earlier keep pointing at history.
type ApprovalTemplate struct {
	ID              primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	FormID          primitive.ObjectID   `bson:"form_id" json:"form_id"`
	ApproverID      primitive.ObjectID   `bson:"approver_id" json:"approver_id"`
	SequenceNumber  int                  `bson:"sequence_number" json:"sequence_number"`
	IsMandatory     bool                 `bson:"is_mandatory" json:"is_mandatory"`
	DeadlineDays    *int                 `bson:"deadline_days,omitempty" json:"deadline_days,omitempty"`
	IsActive        bool                 `bson:"is_active" json:"is_active"`
	RequiredFormIDs []primitive.ObjectID `bson:"required_form_ids,omitempty" json:"required_form_ids,omitempty"`
	FollowsSequence bool                 `bson:"follows_approval_sequence" json:"follows_approval_sequence"`
	CreatedAt       time.Time            `bson:"created_at" json:"created_at"`
	UpdatedAt       time.Time            `bson:"updated_at" json:"updated_at"`
	DeactivatedAt   *time.Time           `bson:"deactivated_at,omitempty" json:"deactivated_at,omitempty"`
}

// ApproverInput configures one approver on a form. IsMandatory defaults to true.
type ApproverInput struct {
	ApproverID      primitive.ObjectID   `json:"approver_id"`
	SequenceNumber  int                  `json:"sequence_number"`
	IsMandatory     *bool                `json:"is_mandatory,omitempty"`
	DeadlineDays    *int                 `json:"deadline_days,omitempty"`
	RequiredFormIDs []primitive.ObjectID `json:"required_form_ids,omitempty"`
	FollowsSequence bool                 `json:"follows_approval_sequence"`
}

type AddResult struct {
	CreatedIDs []primitive.ObjectID `json:"created_ids"`
	Configured int                  `json:"configured"`
	Added      int                  `json:"added"`
}

// TemplateUpdate changes one active row. Nil fields are left as they are.
type TemplateUpdate struct {
	ID              primitive.ObjectID    `json:"id"`
	ApproverID      *primitive.ObjectID   `json:"approver_id,omitempty"`
	SequenceNumber  *int                  `json:"sequence_number,omitempty"`
	IsMandatory     *bool                 `json:"is_mandatory,omitempty"`
	DeadlineDays    *int                  `json:"deadline_days,omitempty"`
	RequiredFormIDs *[]primitive.ObjectID `json:"required_form_ids,omitempty"`
	FollowsSequence *bool                 `json:"follows_approval_sequence,omitempty"`
}

// UpdateOutcome reports what BulkUpdate did with one update. ReplacedBy is set
// when the row was deactivated and recreated.
type UpdateOutcome struct {
	ID                primitive.ObjectID  `json:"id"`
	ReplacedBy        *primitive.ObjectID `json:"replaced_by,omitempty"`
	ReassignedPending int64               `json:"reassigned_pending"`
}

// SlotChange describes an identity change of a template row, applied to every
// pending instance still sitting on the old (form, approver, sequence) slot.
type SlotChange struct {
	FormID        primitive.ObjectID
	OldApproverID primitive.ObjectID
	OldSequence   int
	NewTemplateID primitive.ObjectID
	NewApproverID primitive.ObjectID
	NewSequence   int
	NewMandatory  bool
}

// PendingInstanceReassigner moves pending approval instances onto a new slot.
type PendingInstanceReassigner interface {
	ReassignPending(ctx context.Context, change SlotChange) (int64, error)
}
