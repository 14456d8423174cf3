package template

import (
	"context"
	"fmt"
	"time"

	"go-approvals/internal/common/apperror"
	"go-approvals/internal/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type TemplateRepository interface {
	Insert(ctx context.Context, tpl *ApprovalTemplate) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*ApprovalTemplate, error)
	// FindActiveSlot returns the active row at (form, approver, sequence), or nil.
	FindActiveSlot(ctx context.Context, formID, approverID primitive.ObjectID, sequence int) (*ApprovalTemplate, error)
	ListActive(ctx context.Context, formID primitive.ObjectID) ([]ApprovalTemplate, error)
	ListActiveByApprover(ctx context.Context, approverID primitive.ObjectID, excludeForms []primitive.ObjectID) ([]ApprovalTemplate, error)
	Deactivate(ctx context.Context, id primitive.ObjectID, at time.Time) error
	UpdateInPlace(ctx context.Context, tpl *ApprovalTemplate) error
	Reassign(ctx context.Context, id, approverID primitive.ObjectID) error
	EnsureIndexes(ctx context.Context) error
}

type TemplateRepositoryImpl struct {
	Collection *mongo.Collection
}

func NewTemplateRepository(mongodb *database.MongodbDB) TemplateRepository {
	return &TemplateRepositoryImpl{
		Collection: mongodb.DB.Collection("approval_templates"),
	}
}

func (r *TemplateRepositoryImpl) Insert(ctx context.Context, tpl *ApprovalTemplate) error {
	if tpl.ID.IsZero() {
		tpl.ID = primitive.NewObjectID()
	}
	_, err := r.Collection.InsertOne(ctx, tpl)
	return apperror.FromMongo(err, "approval template", slotKey(tpl.FormID, tpl.ApproverID, tpl.SequenceNumber))
}

func (r *TemplateRepositoryImpl) FindByID(ctx context.Context, id primitive.ObjectID) (*ApprovalTemplate, error) {
	var tpl ApprovalTemplate
	if err := r.Collection.FindOne(ctx, bson.M{"_id": id}).Decode(&tpl); err != nil {
		return nil, apperror.FromMongo(err, "approval template", id.Hex())
	}
	return &tpl, nil
}

func (r *TemplateRepositoryImpl) FindActiveSlot(ctx context.Context, formID, approverID primitive.ObjectID, sequence int) (*ApprovalTemplate, error) {
	var tpl ApprovalTemplate
	err := r.Collection.FindOne(ctx, bson.M{
		"form_id":         formID,
		"approver_id":     approverID,
		"sequence_number": sequence,
		"is_active":       true,
	}).Decode(&tpl)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &tpl, nil
}

func (r *TemplateRepositoryImpl) ListActive(ctx context.Context, formID primitive.ObjectID) ([]ApprovalTemplate, error) {
	return r.find(ctx, bson.M{"form_id": formID, "is_active": true})
}

func (r *TemplateRepositoryImpl) ListActiveByApprover(ctx context.Context, approverID primitive.ObjectID, excludeForms []primitive.ObjectID) ([]ApprovalTemplate, error) {
	filter := bson.M{"approver_id": approverID, "is_active": true}
	if len(excludeForms) > 0 {
		filter["form_id"] = bson.M{"$nin": excludeForms}
	}
	return r.find(ctx, filter)
}

// find sorts by sequence, then insertion order (ObjectIDs are time-ordered).
func (r *TemplateRepositoryImpl) find(ctx context.Context, filter bson.M) ([]ApprovalTemplate, error) {
	opts := options.Find().SetSort(bson.D{{Key: "sequence_number", Value: 1}, {Key: "_id", Value: 1}})
	cursor, err := r.Collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	templates := []ApprovalTemplate{}
	if err = cursor.All(ctx, &templates); err != nil {
		return nil, err
	}
	return templates, nil
}

func (r *TemplateRepositoryImpl) Deactivate(ctx context.Context, id primitive.ObjectID, at time.Time) error {
	res, err := r.Collection.UpdateOne(ctx,
		bson.M{"_id": id, "is_active": true},
		bson.M{"$set": bson.M{"is_active": false, "deactivated_at": at, "updated_at": at}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return apperror.NotFound("active approval template", id.Hex())
	}
	return nil
}

func (r *TemplateRepositoryImpl) UpdateInPlace(ctx context.Context, tpl *ApprovalTemplate) error {
	res, err := r.Collection.UpdateOne(ctx,
		bson.M{"_id": tpl.ID, "is_active": true},
		bson.M{"$set": bson.M{
			"deadline_days":             tpl.DeadlineDays,
			"required_form_ids":         tpl.RequiredFormIDs,
			"follows_approval_sequence": tpl.FollowsSequence,
			"is_mandatory":              tpl.IsMandatory,
			"sequence_number":           tpl.SequenceNumber,
			"updated_at":                tpl.UpdatedAt,
		}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return apperror.NotFound("active approval template", tpl.ID.Hex())
	}
	return nil
}

func (r *TemplateRepositoryImpl) Reassign(ctx context.Context, id, approverID primitive.ObjectID) error {
	res, err := r.Collection.UpdateOne(ctx,
		bson.M{"_id": id, "is_active": true},
		bson.M{"$set": bson.M{"approver_id": approverID, "updated_at": time.Now()}},
	)
	if err != nil {
		return apperror.FromMongo(err, "approval template", id.Hex())
	}
	if res.MatchedCount == 0 {
		return apperror.NotFound("active approval template", id.Hex())
	}
	return nil
}

func (r *TemplateRepositoryImpl) EnsureIndexes(ctx context.Context) error {
	_, err := r.Collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "form_id", Value: 1}, {Key: "approver_id", Value: 1}, {Key: "sequence_number", Value: 1}},
			Options: options.Index().
				SetName("uniq_active_slot").
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"is_active": true}),
		},
		{
			Keys:    bson.D{{Key: "approver_id", Value: 1}, {Key: "is_active", Value: 1}},
			Options: options.Index().SetName("idx_approver_active"),
		},
	})
	return err
}

func slotKey(formID, approverID primitive.ObjectID, sequence int) string {
	return fmt.Sprintf("form=%s approver=%s sequence=%d", formID.Hex(), approverID.Hex(), sequence)
}
