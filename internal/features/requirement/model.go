package requirement

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ApprovalRequirement makes an approver of FormID wait until a response of
// RequiredFormID has been linked to the response being approved. The gate is
// only enforced when LineaAprobacion is set.
type ApprovalRequirement struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	FormID          primitive.ObjectID `bson:"form_id" json:"form_id"`
	ApproverID      primitive.ObjectID `bson:"approver_id" json:"approver_id"`
	RequiredFormID  primitive.ObjectID `bson:"required_form_id" json:"required_form_id"`
	LineaAprobacion bool               `bson:"linea_aprobacion" json:"linea_aprobacion"`
	CreatedAt       time.Time          `bson:"created_at" json:"created_at"`
}

// ResponseRequirement is the per-response state of one ApprovalRequirement.
type ResponseRequirement struct {
	ID                   primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	ResponseID           primitive.ObjectID  `bson:"response_id" json:"response_id"`
	RequirementID        primitive.ObjectID  `bson:"requirement_id" json:"requirement_id"`
	FulfillingResponseID *primitive.ObjectID `bson:"fulfilling_response_id,omitempty" json:"fulfilling_response_id,omitempty"`
	IsFulfilled          bool                `bson:"is_fulfilled" json:"is_fulfilled"`
	FulfilledAt          *time.Time          `bson:"fulfilled_at,omitempty" json:"fulfilled_at,omitempty"`
	CreatedAt            time.Time           `bson:"created_at" json:"created_at"`
}

type RequirementInput struct {
	ApproverID      primitive.ObjectID `json:"approver_id"`
	RequiredFormID  primitive.ObjectID `json:"required_form_id"`
	LineaAprobacion *bool              `json:"linea_aprobacion,omitempty"`
}
