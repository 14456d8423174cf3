package schedule

import (
	"context"

	"go-approvals/internal/common/apperror"
	"go-approvals/internal/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type ScheduleRepository interface {
	Create(ctx context.Context, s *Schedule) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*Schedule, error)
	ListForForm(ctx context.Context, formID primitive.ObjectID) ([]Schedule, error)
	ListOwned(ctx context.Context, userID primitive.ObjectID, excludeForms []primitive.ObjectID) ([]Schedule, error)
	Exists(ctx context.Context, formID, userID primitive.ObjectID, frequency FrequencyType) (bool, error)
	Reassign(ctx context.Context, id, userID primitive.ObjectID) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	EnsureIndexes(ctx context.Context) error
}

type ScheduleRepositoryImpl struct {
	Collection *mongo.Collection
}

func NewScheduleRepository(db *database.MongodbDB) ScheduleRepository {
	return &ScheduleRepositoryImpl{
		Collection: db.DB.Collection("form_schedules"),
	}
}

func (r *ScheduleRepositoryImpl) Create(ctx context.Context, s *Schedule) error {
	if s.ID.IsZero() {
		s.ID = primitive.NewObjectID()
	}
	_, err := r.Collection.InsertOne(ctx, s)
	return apperror.FromMongo(err, "schedule", "form="+s.FormID.Hex()+" user="+s.UserID.Hex()+" frequency="+string(s.FrequencyType))
}

func (r *ScheduleRepositoryImpl) FindByID(ctx context.Context, id primitive.ObjectID) (*Schedule, error) {
	var s Schedule
	if err := r.Collection.FindOne(ctx, bson.M{"_id": id}).Decode(&s); err != nil {
		return nil, apperror.FromMongo(err, "schedule", id.Hex())
	}
	return &s, nil
}

func (r *ScheduleRepositoryImpl) ListForForm(ctx context.Context, formID primitive.ObjectID) ([]Schedule, error) {
	return r.find(ctx, bson.M{"form_id": formID})
}

func (r *ScheduleRepositoryImpl) ListOwned(ctx context.Context, userID primitive.ObjectID, excludeForms []primitive.ObjectID) ([]Schedule, error) {
	filter := bson.M{"user_id": userID}
	if len(excludeForms) > 0 {
		filter["form_id"] = bson.M{"$nin": excludeForms}
	}
	return r.find(ctx, filter)
}

func (r *ScheduleRepositoryImpl) find(ctx context.Context, filter bson.M) ([]Schedule, error) {
	cursor, err := r.Collection.Find(ctx, filter, options.Find().SetSort(bson.M{"_id": 1}))
	if err != nil {
		return nil, err
	}
	schedules := []Schedule{}
	if err = cursor.All(ctx, &schedules); err != nil {
		return nil, err
	}
	return schedules, nil
}

func (r *ScheduleRepositoryImpl) Exists(ctx context.Context, formID, userID primitive.ObjectID, frequency FrequencyType) (bool, error) {
	n, err := r.Collection.CountDocuments(ctx, bson.M{"form_id": formID, "user_id": userID, "frequency_type": frequency}, options.Count().SetLimit(1))
	return n > 0, err
}

func (r *ScheduleRepositoryImpl) Reassign(ctx context.Context, id, userID primitive.ObjectID) error {
	res, err := r.Collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"user_id": userID}})
	if err != nil {
		return apperror.FromMongo(err, "schedule", id.Hex())
	}
	if res.MatchedCount == 0 {
		return apperror.NotFound("schedule", id.Hex())
	}
	return nil
}

func (r *ScheduleRepositoryImpl) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.Collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return apperror.NotFound("schedule", id.Hex())
	}
	return nil
}

func (r *ScheduleRepositoryImpl) EnsureIndexes(ctx context.Context) error {
	_, err := r.Collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "form_id", Value: 1}, {Key: "user_id", Value: 1}, {Key: "frequency_type", Value: 1}},
			Options: options.Index().SetName("uniq_schedule").SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}},
			Options: options.Index().SetName("idx_user"),
		},
	})
	return err
}
