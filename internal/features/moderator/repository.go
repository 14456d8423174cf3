package moderator

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

type ModeratorRepository interface {
	Create(ctx context.Context, link *ModeratorLink) error
	ListForForm(ctx context.Context, formID primitive.ObjectID) ([]ModeratorLink, error)
	ListOwned(ctx context.Context, userID primitive.ObjectID, excludeForms []primitive.ObjectID) ([]ModeratorLink, error)
	Exists(ctx context.Context, formID, userID primitive.ObjectID) (bool, error)
	// Reassign moves the link to userID and stamps a fresh assignment time.
	Reassign(ctx context.Context, id, userID primitive.ObjectID, at time.Time) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	EnsureIndexes(ctx context.Context) error
}

type ModeratorRepositoryImpl struct {
	Collection *mongo.Collection
}

func NewModeratorRepository(db *database.MongodbDB) ModeratorRepository {
	return &ModeratorRepositoryImpl{
		Collection: db.DB.Collection("form_moderators"),
	}
}

func (r *ModeratorRepositoryImpl) Create(ctx context.Context, link *ModeratorLink) error {
	if link.ID.IsZero() {
		link.ID = primitive.NewObjectID()
	}
	_, err := r.Collection.InsertOne(ctx, link)
	return apperror.FromMongo(err, "moderator link", "form="+link.FormID.Hex()+" user="+link.UserID.Hex())
}

func (r *ModeratorRepositoryImpl) ListForForm(ctx context.Context, formID primitive.ObjectID) ([]ModeratorLink, error) {
	return r.find(ctx, bson.M{"form_id": formID})
}

func (r *ModeratorRepositoryImpl) ListOwned(ctx context.Context, userID primitive.ObjectID, excludeForms []primitive.ObjectID) ([]ModeratorLink, error) {
	filter := bson.M{"user_id": userID}
	if len(excludeForms) > 0 {
		filter["form_id"] = bson.M{"$nin": excludeForms}
	}
	return r.find(ctx, filter)
}

func (r *ModeratorRepositoryImpl) find(ctx context.Context, filter bson.M) ([]ModeratorLink, error) {
	cursor, err := r.Collection.Find(ctx, filter, options.Find().SetSort(bson.M{"_id": 1}))
	if err != nil {
		return nil, err
	}
	links := []ModeratorLink{}
	if err = cursor.All(ctx, &links); err != nil {
		return nil, err
	}
	return links, nil
}

func (r *ModeratorRepositoryImpl) Exists(ctx context.Context, formID, userID primitive.ObjectID) (bool, error) {
	n, err := r.Collection.CountDocuments(ctx, bson.M{"form_id": formID, "user_id": userID}, options.Count().SetLimit(1))
	return n > 0, err
}

func (r *ModeratorRepositoryImpl) Reassign(ctx context.Context, id, userID primitive.ObjectID, at time.Time) error {
	res, err := r.Collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"user_id": userID, "assigned_at": at}})
	if err != nil {
		return apperror.FromMongo(err, "moderator link", id.Hex())
	}
	if res.MatchedCount == 0 {
		return apperror.NotFound("moderator link", id.Hex())
	}
	return nil
}

func (r *ModeratorRepositoryImpl) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.Collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return apperror.NotFound("moderator link", id.Hex())
	}
	return nil
}

func (r *ModeratorRepositoryImpl) EnsureIndexes(ctx context.Context) error {
	_, err := r.Collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "form_id", Value: 1}, {Key: "user_id", Value: 1}},
			Options: options.Index().SetName("uniq_moderator").SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}},
			Options: options.Index().SetName("idx_user"),
		},
	})
	return err
}
