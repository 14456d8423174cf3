package requirement

import (
	"context"
	"time"

	"go-approvals/internal/common/apperror"
	"go-approvals/internal/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type RequirementRepository interface {
	Create(ctx context.Context, req *ApprovalRequirement) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*ApprovalRequirement, error)
	// FindByKey returns the requirement at (form, approver, required form), or nil.
	FindByKey(ctx context.Context, formID, approverID, requiredFormID primitive.ObjectID) (*ApprovalRequirement, error)
	ListForForm(ctx context.Context, formID primitive.ObjectID) ([]ApprovalRequirement, error)
	ListForApprover(ctx context.Context, formID, approverID primitive.ObjectID) ([]ApprovalRequirement, error)

	InsertResponseRow(ctx context.Context, row *ResponseRequirement) error
	FindResponseRow(ctx context.Context, id primitive.ObjectID) (*ResponseRequirement, error)
	// FindResponseRowFor returns the row for (response, requirement), or nil.
	FindResponseRowFor(ctx context.Context, responseID, requirementID primitive.ObjectID) (*ResponseRequirement, error)
	ListResponseRows(ctx context.Context, responseID primitive.ObjectID) ([]ResponseRequirement, error)
	MarkFulfilled(ctx context.Context, id, fulfillingResponseID primitive.ObjectID, at time.Time) error

	EnsureIndexes(ctx context.Context) error
}

type RequirementRepositoryImpl struct {
	Requirements *mongo.Collection
	ResponseRows *mongo.Collection
}

func NewRequirementRepository(mongodb *database.MongodbDB) RequirementRepository {
	return &RequirementRepositoryImpl{
		Requirements: mongodb.DB.Collection("approval_requirements"),
		ResponseRows: mongodb.DB.Collection("response_approval_requirements"),
	}
}

func (r *RequirementRepositoryImpl) Create(ctx context.Context, req *ApprovalRequirement) error {
	if req.ID.IsZero() {
		req.ID = primitive.NewObjectID()
	}
	_, err := r.Requirements.InsertOne(ctx, req)
	return apperror.FromMongo(err, "approval requirement", req.FormID.Hex()+"/"+req.ApproverID.Hex()+"/"+req.RequiredFormID.Hex())
}

func (r *RequirementRepositoryImpl) FindByID(ctx context.Context, id primitive.ObjectID) (*ApprovalRequirement, error) {
	var req ApprovalRequirement
	if err := r.Requirements.FindOne(ctx, bson.M{"_id": id}).Decode(&req); err != nil {
		return nil, apperror.FromMongo(err, "approval requirement", id.Hex())
	}
	return &req, nil
}

func (r *RequirementRepositoryImpl) FindByKey(ctx context.Context, formID, approverID, requiredFormID primitive.ObjectID) (*ApprovalRequirement, error) {
	var req ApprovalRequirement
	err := r.Requirements.FindOne(ctx, bson.M{
		"form_id":          formID,
		"approver_id":      approverID,
		"required_form_id": requiredFormID,
	}).Decode(&req)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *RequirementRepositoryImpl) ListForForm(ctx context.Context, formID primitive.ObjectID) ([]ApprovalRequirement, error) {
	return r.findRequirements(ctx, bson.M{"form_id": formID})
}

func (r *RequirementRepositoryImpl) ListForApprover(ctx context.Context, formID, approverID primitive.ObjectID) ([]ApprovalRequirement, error) {
	return r.findRequirements(ctx, bson.M{"form_id": formID, "approver_id": approverID})
}

func (r *RequirementRepositoryImpl) findRequirements(ctx context.Context, filter bson.M) ([]ApprovalRequirement, error) {
	cursor, err := r.Requirements.Find(ctx, filter, options.Find().SetSort(bson.M{"_id": 1}))
	if err != nil {
		return nil, err
	}
	reqs := []ApprovalRequirement{}
	if err = cursor.All(ctx, &reqs); err != nil {
		return nil, err
	}
	return reqs, nil
}

func (r *RequirementRepositoryImpl) InsertResponseRow(ctx context.Context, row *ResponseRequirement) error {
	if row.ID.IsZero() {
		row.ID = primitive.NewObjectID()
	}
	_, err := r.ResponseRows.InsertOne(ctx, row)
	return apperror.FromMongo(err, "response requirement", row.ResponseID.Hex()+"/"+row.RequirementID.Hex())
}

func (r *RequirementRepositoryImpl) FindResponseRow(ctx context.Context, id primitive.ObjectID) (*ResponseRequirement, error) {
	var row ResponseRequirement
	if err := r.ResponseRows.FindOne(ctx, bson.M{"_id": id}).Decode(&row); err != nil {
		return nil, apperror.FromMongo(err, "response requirement", id.Hex())
	}
	return &row, nil
}

func (r *RequirementRepositoryImpl) FindResponseRowFor(ctx context.Context, responseID, requirementID primitive.ObjectID) (*ResponseRequirement, error) {
	var row ResponseRequirement
	err := r.ResponseRows.FindOne(ctx, bson.M{"response_id": responseID, "requirement_id": requirementID}).Decode(&row)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *RequirementRepositoryImpl) ListResponseRows(ctx context.Context, responseID primitive.ObjectID) ([]ResponseRequirement, error) {
	cursor, err := r.ResponseRows.Find(ctx, bson.M{"response_id": responseID}, options.Find().SetSort(bson.M{"_id": 1}))
	if err != nil {
		return nil, err
	}
	rows := []ResponseRequirement{}
	if err = cursor.All(ctx, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *RequirementRepositoryImpl) MarkFulfilled(ctx context.Context, id, fulfillingResponseID primitive.ObjectID, at time.Time) error {
	res, err := r.ResponseRows.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{
			"is_fulfilled":           true,
			"fulfilling_response_id": fulfillingResponseID,
			"fulfilled_at":           at,
		}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return apperror.NotFound("response requirement", id.Hex())
	}
	return nil
}

func (r *RequirementRepositoryImpl) EnsureIndexes(ctx context.Context) error {
	if _, err := r.Requirements.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "form_id", Value: 1}, {Key: "approver_id", Value: 1}, {Key: "required_form_id", Value: 1}},
		Options: options.Index().SetName("uniq_requirement").SetUnique(true),
	}); err != nil {
		return err
	}
	_, err := r.ResponseRows.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "response_id", Value: 1}, {Key: "requirement_id", Value: 1}},
		Options: options.Index().SetName("uniq_response_requirement").SetUnique(true),
	})
	return err
}
