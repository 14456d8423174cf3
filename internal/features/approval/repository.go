package approval

import (
	"context"
	"time"

	"go-approvals/internal/common/apperror"
	common_models "go-approvals/internal/common/models"
	"go-approvals/internal/database"
	"go-approvals/internal/features/template"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type ApprovalRepository interface {
	InsertMany(ctx context.Context, instances []Instance) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*Instance, error)
	ListForResponse(ctx context.Context, responseID primitive.ObjectID) ([]Instance, error)
	CountForResponse(ctx context.Context, responseID primitive.ObjectID) (int64, error)
	ListPendingByApprover(ctx context.Context, approverID primitive.ObjectID) ([]Instance, error)
	ResponsesWithPending(ctx context.Context) ([]primitive.ObjectID, error)
	// CompareAndSetDecision writes the decision only if the row still holds
	// the expected status and reconsideration flag.
	CompareAndSetDecision(ctx context.Context, current *Instance, status common_models.ApprovalStatus, message string, reviewedAt time.Time) error
	FlagReconsideration(ctx context.Context, current *Instance) error
	template.PendingInstanceReassigner
	EnsureIndexes(ctx context.Context) error
}

type ApprovalRepositoryImpl struct {
	Collection *mongo.Collection
}

func NewApprovalRepository(mongodb *database.MongodbDB) ApprovalRepository {
	return &ApprovalRepositoryImpl{
		Collection: mongodb.DB.Collection("response_approvals"),
	}
}

// NewPendingReassigner exposes the repository as the template store's cascade port.
func NewPendingReassigner(repo ApprovalRepository) template.PendingInstanceReassigner {
	return repo
}

func (r *ApprovalRepositoryImpl) InsertMany(ctx context.Context, instances []Instance) error {
	if len(instances) == 0 {
		return nil
	}
	docs := make([]interface{}, 0, len(instances))
	for i := range instances {
		if instances[i].ID.IsZero() {
			instances[i].ID = primitive.NewObjectID()
		}
		docs = append(docs, instances[i])
	}
	_, err := r.Collection.InsertMany(ctx, docs)
	return apperror.FromMongo(err, "approval instance", instances[0].ResponseID.Hex())
}

func (r *ApprovalRepositoryImpl) FindByID(ctx context.Context, id primitive.ObjectID) (*Instance, error) {
	var inst Instance
	if err := r.Collection.FindOne(ctx, bson.M{"_id": id}).Decode(&inst); err != nil {
		return nil, apperror.FromMongo(err, "approval instance", id.Hex())
	}
	return &inst, nil
}

func (r *ApprovalRepositoryImpl) ListForResponse(ctx context.Context, responseID primitive.ObjectID) ([]Instance, error) {
	return r.find(ctx, bson.M{"response_id": responseID})
}

func (r *ApprovalRepositoryImpl) CountForResponse(ctx context.Context, responseID primitive.ObjectID) (int64, error) {
	return r.Collection.CountDocuments(ctx, bson.M{"response_id": responseID})
}

func (r *ApprovalRepositoryImpl) ListPendingByApprover(ctx context.Context, approverID primitive.ObjectID) ([]Instance, error) {
	return r.find(ctx, bson.M{"approver_id": approverID, "status": common_models.ApprovalStatusPending})
}

func (r *ApprovalRepositoryImpl) ResponsesWithPending(ctx context.Context) ([]primitive.ObjectID, error) {
	values, err := r.Collection.Distinct(ctx, "response_id", bson.M{"status": common_models.ApprovalStatusPending})
	if err != nil {
		return nil, err
	}
	ids := make([]primitive.ObjectID, 0, len(values))
	for _, v := range values {
		if oid, ok := v.(primitive.ObjectID); ok {
			ids = append(ids, oid)
		}
	}
	return ids, nil
}

func (r *ApprovalRepositoryImpl) find(ctx context.Context, filter bson.M) ([]Instance, error) {
	opts := options.Find().SetSort(bson.D{{Key: "sequence_number", Value: 1}, {Key: "_id", Value: 1}})
	cursor, err := r.Collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	instances := []Instance{}
	if err = cursor.All(ctx, &instances); err != nil {
		return nil, err
	}
	return instances, nil
}

func (r *ApprovalRepositoryImpl) CompareAndSetDecision(ctx context.Context, current *Instance, status common_models.ApprovalStatus, message string, reviewedAt time.Time) error {
	res, err := r.Collection.UpdateOne(ctx,
		bson.M{
			"_id":                       current.ID,
			"status":                    current.Status,
			"reconsideration_requested": current.ReconsiderationRequested,
		},
		bson.M{"$set": bson.M{
			"status":                    status,
			"message":                   message,
			"reviewed_at":               reviewedAt,
			"reconsideration_requested": false,
			"updated_at":                time.Now(),
		}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return apperror.Conflict("approval instance", current.ID.Hex(), "changed concurrently")
	}
	return nil
}

func (r *ApprovalRepositoryImpl) FlagReconsideration(ctx context.Context, current *Instance) error {
	res, err := r.Collection.UpdateOne(ctx,
		bson.M{"_id": current.ID, "status": current.Status},
		bson.M{"$set": bson.M{"reconsideration_requested": true, "updated_at": time.Now()}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return apperror.Conflict("approval instance", current.ID.Hex(), "changed concurrently")
	}
	return nil
}

func (r *ApprovalRepositoryImpl) ReassignPending(ctx context.Context, change template.SlotChange) (int64, error) {
	res, err := r.Collection.UpdateMany(ctx,
		bson.M{
			"form_id":         change.FormID,
			"approver_id":     change.OldApproverID,
			"sequence_number": change.OldSequence,
			"status":          common_models.ApprovalStatusPending,
		},
		bson.M{"$set": bson.M{
			"template_id":     change.NewTemplateID,
			"approver_id":     change.NewApproverID,
			"sequence_number": change.NewSequence,
			"is_mandatory":    change.NewMandatory,
			"updated_at":      time.Now(),
		}},
	)
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

func (r *ApprovalRepositoryImpl) EnsureIndexes(ctx context.Context) error {
	_, err := r.Collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "response_id", Value: 1}, {Key: "sequence_number", Value: 1}},
			Options: options.Index().SetName("idx_response_sequence"),
		},
		{
			Keys:    bson.D{{Key: "approver_id", Value: 1}, {Key: "status", Value: 1}},
			Options: options.Index().SetName("idx_approver_status"),
		},
		{
			Keys:    bson.D{{Key: "form_id", Value: 1}, {Key: "approver_id", Value: 1}, {Key: "sequence_number", Value: 1}, {Key: "status", Value: 1}},
			Options: options.Index().SetName("idx_slot_status"),
		},
	})
	return err
}
