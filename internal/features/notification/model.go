package notification

import (
	"time"

	common_models "go-approvals/internal/common/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type NotificationType string

const (
	NotificationTypeInfo     NotificationType = "info"
	NotificationTypeSuccess  NotificationType = "success"
	NotificationTypeWarning  NotificationType = "warning"
	NotificationTypeError    NotificationType = "error"
	NotificationTypeTask     NotificationType = "task"
	NotificationTypeReminder NotificationType = "reminder"
)

// Notification is one in-app inbox entry.
type Notification struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID    primitive.ObjectID `bson:"user_id" json:"user_id"`
	Title     string             `bson:"title" json:"title"`
	Message   string             `bson:"message" json:"message"`
	Type      NotificationType   `bson:"type" json:"type"`
	Link      string             `bson:"link,omitempty" json:"link,omitempty"`
	IsRead    bool               `bson:"is_read" json:"is_read"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
	ReadAt    *time.Time         `bson:"read_at,omitempty" json:"read_at,omitempty"`
}

type Trigger string

const (
	TriggerEachApproval  Trigger = "each_approval"
	TriggerFinalApproval Trigger = "final_approval"
)

func (t Trigger) Valid() bool {
	return t == TriggerEachApproval || t == TriggerFinalApproval
}

// Rule subscribes a user to decisions on a form's responses.
type Rule struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	FormID    primitive.ObjectID `bson:"form_id" json:"form_id"`
	UserID    primitive.ObjectID `bson:"user_id" json:"user_id"`
	Trigger   Trigger            `bson:"trigger" json:"trigger"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
}

// Decision says who must hear about a recorded approval decision. Delivery is
// up to the caller.
type Decision struct {
	ResponseID primitive.ObjectID           `json:"response_id"`
	FormID     primitive.ObjectID           `json:"form_id"`
	InstanceID primitive.ObjectID           `json:"instance_id"`
	Status     common_models.ApprovalStatus `json:"status"`
	Trigger    Trigger                      `json:"trigger"`
	Recipients []primitive.ObjectID         `json:"recipients"`
}
