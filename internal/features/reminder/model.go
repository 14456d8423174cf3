package reminder

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type RunStatus string

const (
	RunStatusRunning RunStatus = "running"
	RunStatusSuccess RunStatus = "success"
	RunStatusFailed  RunStatus = "failed"
)

// Run records one pass of the pending-approval sweep.
type Run struct {
	ID        primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Trigger   string             `json:"trigger" bson:"trigger"` // "schedule" or "manual"
	StartTime time.Time          `json:"start_time" bson:"start_time"`
	EndTime   *time.Time         `json:"end_time,omitempty" bson:"end_time,omitempty"`
	Status    RunStatus          `json:"status" bson:"status"`
	Scanned   int                `json:"scanned" bson:"scanned"`
	Reminded  int                `json:"reminded" bson:"reminded"`
	Overdue   int                `json:"overdue" bson:"overdue"`
	Skipped   int                `json:"skipped" bson:"skipped"`
	Error     string             `json:"error,omitempty" bson:"error,omitempty"`
}
