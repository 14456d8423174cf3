package form

import (
	"time"

	common_models "go-approvals/internal/common/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Form is a document type whose submissions go through approval.
type Form struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title       string             `bson:"title" json:"title"`
	Description string             `bson:"description" json:"description"`
	Format      string             `bson:"format" json:"format"`
	Category    string             `bson:"category" json:"category"`
	CreatedBy   primitive.ObjectID `bson:"created_by" json:"created_by"`
	CreatedAt   time.Time          `bson:"created_at" json:"created_at"`
}

// Summary returns the display metadata of the form.
func (f Form) Summary() common_models.FormSummary {
	return common_models.FormSummary{
		ID:          f.ID,
		Title:       f.Title,
		Description: f.Description,
		Format:      f.Format,
		Category:    f.Category,
	}
}

// Response is one submitted document of a form.
type Response struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	FormID      primitive.ObjectID `bson:"form_id" json:"form_id"`
	SubmittedBy primitive.ObjectID `bson:"submitted_by" json:"submitted_by"`
	SubmittedAt time.Time          `bson:"submitted_at" json:"submitted_at"`
}
