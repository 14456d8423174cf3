package approval

import (
	"time"

	common_models "go-approvals/internal/common/models"
	"go-approvals/internal/features/form"
	"go-approvals/internal/features/notification"
	"go-approvals/internal/features/requirement"
	"go-approvals/pkg/sequencer"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Instance is the per-response copy of one approval template row. Only the
// review fields change after creation.
type Instance struct {
	ID                       primitive.ObjectID           `bson:"_id,omitempty" json:"id"`
	ResponseID               primitive.ObjectID           `bson:"response_id" json:"response_id"`
	FormID                   primitive.ObjectID           `bson:"form_id" json:"form_id"`
	TemplateID               primitive.ObjectID           `bson:"template_id" json:"template_id"`
	ApproverID               primitive.ObjectID           `bson:"approver_id" json:"approver_id"`
	SequenceNumber           int                          `bson:"sequence_number" json:"sequence_number"`
	IsMandatory              bool                         `bson:"is_mandatory" json:"is_mandatory"`
	Status                   common_models.ApprovalStatus `bson:"status" json:"status"`
	ReviewedAt               *time.Time                   `bson:"reviewed_at,omitempty" json:"reviewed_at,omitempty"`
	Message                  string                       `bson:"message,omitempty" json:"message,omitempty"`
	ReconsiderationRequested bool                         `bson:"reconsideration_requested" json:"reconsideration_requested"`
	DueAt                    *time.Time                   `bson:"due_at,omitempty" json:"due_at,omitempty"`
	CreatedAt                time.Time                    `bson:"created_at" json:"created_at"`
	UpdatedAt                time.Time                    `bson:"updated_at" json:"updated_at"`
}

func (i Instance) slot() sequencer.Slot {
	return sequencer.Slot{
		ID:         i.ID.Hex(),
		ApproverID: i.ApproverID.Hex(),
		Sequence:   i.SequenceNumber,
		Mandatory:  i.IsMandatory,
		Status:     string(i.Status),
	}
}

func slots(instances []Instance) []sequencer.Slot {
	out := make([]sequencer.Slot, 0, len(instances))
	for _, i := range instances {
		out = append(out, i.slot())
	}
	return out
}

type DecisionInput struct {
	Status     common_models.ApprovalStatus `json:"status"`
	Message    string                       `json:"message"`
	ReviewedAt *time.Time                   `json:"reviewed_at,omitempty"`
}

type DecisionResult struct {
	Instance     Instance               `json:"instance"`
	Notification *notification.Decision `json:"notification"`
	Final        bool                   `json:"final"`
}

// AggregateStatus is the display status of a response: the latest review.
type AggregateStatus struct {
	Status     common_models.ApprovalStatus `json:"status"`
	Message    string                       `json:"message"`
	ReviewedAt *time.Time                   `json:"reviewed_at,omitempty"`
	InstanceID *primitive.ObjectID          `json:"instance_id,omitempty"`
}

type Eligibility struct {
	InstanceID primitive.ObjectID `json:"instance_id"`
	Eligible   bool               `json:"eligible"`
	Reasons    []sequencer.Reason `json:"reasons,omitempty"`
}

type SubmitResult struct {
	Response     form.Response                     `json:"response"`
	Instances    []Instance                        `json:"instances"`
	Requirements []requirement.ResponseRequirement `json:"requirements"`
}

// Halted reports whether a mandatory instance of the response was rejected.
func Halted(instances []Instance) bool {
	return sequencer.Halted(slots(instances))
}
