package schedule

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type FrequencyType string

const (
	FrequencyDaily   FrequencyType = "daily"
	FrequencyWeekly  FrequencyType = "weekly"
	FrequencyMonthly FrequencyType = "monthly"
)

func (f FrequencyType) Valid() bool {
	switch f {
	case FrequencyDaily, FrequencyWeekly, FrequencyMonthly:
		return true
	}
	return false
}

// Schedule makes UserID responsible for filling FormID at the given frequency.
// (form_id, user_id, frequency_type) is unique.
type Schedule struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	FormID        primitive.ObjectID `bson:"form_id" json:"form_id"`
	UserID        primitive.ObjectID `bson:"user_id" json:"user_id"`
	FrequencyType FrequencyType      `bson:"frequency_type" json:"frequency_type"`
	CreatedAt     time.Time          `bson:"created_at" json:"created_at"`
}
