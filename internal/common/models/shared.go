package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ContextKey string

const (
	RequestIDKey ContextKey = "request_id"
)

type AuditAction string

const (
	AuditActionCreate          AuditAction = "CREATE"
	AuditActionUpdate          AuditAction = "UPDATE"
	AuditActionDelete          AuditAction = "DELETE"
	AuditActionDeactivate      AuditAction = "DEACTIVATE"
	AuditActionApproval        AuditAction = "APPROVAL"
	AuditActionReconsideration AuditAction = "RECONSIDERATION"
	AuditActionFulfill         AuditAction = "FULFILL"
	AuditActionTransfer        AuditAction = "TRANSFER"
	AuditActionReminder        AuditAction = "REMINDER"
)

type Change struct {
	Old interface{} `bson:"old" json:"old"`
	New interface{} `bson:"new" json:"new"`
}

type AuditLog struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Action    AuditAction        `bson:"action" json:"action"`
	Module    string             `bson:"module" json:"module"`                       // Feature that produced the entry
	RecordID  string             `bson:"record_id" json:"record_id"`                 // The ID of the row being modified
	ActorID   string             `bson:"actor_id" json:"actor_id"`                   // User ID who performed the action
	Changes   map[string]Change  `bson:"changes,omitempty" json:"changes,omitempty"` // field -> {old, new}
	Timestamp time.Time          `bson:"timestamp" json:"timestamp"`
}

// ApprovalStatus is the state of a single response-level approval instance.
type ApprovalStatus string

const (
	ApprovalStatusPending  ApprovalStatus = "pending"
	ApprovalStatusApproved ApprovalStatus = "approved"
	ApprovalStatusRejected ApprovalStatus = "rejected"
)

// IsTerminal reports whether no further decision is expected without reconsideration.
func (s ApprovalStatus) IsTerminal() bool {
	return s == ApprovalStatusApproved || s == ApprovalStatusRejected
}

// FormSummary is the display metadata of a form used to enrich audit views.
type FormSummary struct {
	ID          primitive.ObjectID `bson:"_id" json:"id"`
	Title       string             `bson:"title" json:"title"`
	Description string             `bson:"description" json:"description"`
	Format      string             `bson:"format" json:"format"`
	Category    string             `bson:"category" json:"category"`
}

// Log is a persisted system log line written by the logger's DB core.
type Log struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	AppID        string             `bson:"app_id" json:"app_id"`
	Message      string             `bson:"message" json:"message"`
	RequestID    string             `bson:"request_id,omitempty" json:"request_id,omitempty"`
	Caller       string             `bson:"caller,omitempty" json:"caller,omitempty"`
	LogLevelId   int                `bson:"log_level_id" json:"log_level_id"`
	CreatedOnUtc time.Time          `bson:"created_on_utc" json:"created_on_utc"`
}
