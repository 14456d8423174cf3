package moderator

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ModeratorLink lets UserID moderate responses of FormID. One link per (form, user).
type ModeratorLink struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	FormID     primitive.ObjectID `bson:"form_id" json:"form_id"`
	UserID     primitive.ObjectID `bson:"user_id" json:"user_id"`
	AssignedAt time.Time          `bson:"assigned_at" json:"assigned_at"`
}
