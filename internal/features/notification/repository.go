package notification

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

type NotificationRepository interface {
	Create(ctx context.Context, notification *Notification) error
	GetByUserID(ctx context.Context, userID primitive.ObjectID, page, limit int64) ([]Notification, int64, error)
	GetUnreadCount(ctx context.Context, userID primitive.ObjectID) (int64, error)
	MarkAsRead(ctx context.Context, id primitive.ObjectID, userID primitive.ObjectID) error
	MarkAllAsRead(ctx context.Context, userID primitive.ObjectID) error
	EnsureIndexes(ctx context.Context) error
}

type NotificationRepositoryImpl struct {
	collection *mongo.Collection
}

func NewNotificationRepository(db *database.MongodbDB) NotificationRepository {
	return &NotificationRepositoryImpl{
		collection: db.DB.Collection("notifications"),
	}
}

func (r *NotificationRepositoryImpl) Create(ctx context.Context, notification *Notification) error {
	notification.CreatedAt = time.Now()
	notification.IsRead = false
	result, err := r.collection.InsertOne(ctx, notification)
	if err != nil {
		return err
	}
	notification.ID = result.InsertedID.(primitive.ObjectID)
	return nil
}

func (r *NotificationRepositoryImpl) GetByUserID(ctx context.Context, userID primitive.ObjectID, page, limit int64) ([]Notification, int64, error) {
	skip := (page - 1) * limit
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(skip).
		SetLimit(limit)

	filter := bson.M{"user_id": userID}

	total, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)

	notifications := []Notification{}
	if err = cursor.All(ctx, &notifications); err != nil {
		return nil, 0, err
	}

	return notifications, total, nil
}

func (r *NotificationRepositoryImpl) GetUnreadCount(ctx context.Context, userID primitive.ObjectID) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{
		"user_id": userID,
		"is_read": false,
	})
}

func (r *NotificationRepositoryImpl) MarkAsRead(ctx context.Context, id primitive.ObjectID, userID primitive.ObjectID) error {
	now := time.Now()
	res, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id, "user_id": userID},
		bson.M{
			"$set": bson.M{
				"is_read": true,
				"read_at": now,
			},
		},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return apperror.NotFound("notification", id.Hex())
	}
	return nil
}

func (r *NotificationRepositoryImpl) MarkAllAsRead(ctx context.Context, userID primitive.ObjectID) error {
	now := time.Now()
	_, err := r.collection.UpdateMany(ctx,
		bson.M{"user_id": userID, "is_read": false},
		bson.M{
			"$set": bson.M{
				"is_read": true,
				"read_at": now,
			},
		},
	)
	return err
}

func (r *NotificationRepositoryImpl) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}},
		Options: options.Index().SetName("idx_user_created"),
	})
	return err
}

type RuleRepository interface {
	Create(ctx context.Context, rule *Rule) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*Rule, error)
	ListForForm(ctx context.Context, formID primitive.ObjectID) ([]Rule, error)
	ListForTriggers(ctx context.Context, formID primitive.ObjectID, triggers []Trigger) ([]Rule, error)
	ListOwned(ctx context.Context, userID primitive.ObjectID, excludeForms []primitive.ObjectID) ([]Rule, error)
	Exists(ctx context.Context, formID, userID primitive.ObjectID, trigger Trigger) (bool, error)
	Reassign(ctx context.Context, id, userID primitive.ObjectID) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	EnsureIndexes(ctx context.Context) error
}

type RuleRepositoryImpl struct {
	Collection *mongo.Collection
}

func NewRuleRepository(db *database.MongodbDB) RuleRepository {
	return &RuleRepositoryImpl{
		Collection: db.DB.Collection("notification_rules"),
	}
}

func (r *RuleRepositoryImpl) Create(ctx context.Context, rule *Rule) error {
	if rule.ID.IsZero() {
		rule.ID = primitive.NewObjectID()
	}
	_, err := r.Collection.InsertOne(ctx, rule)
	return apperror.FromMongo(err, "notification rule", ruleKey(rule.FormID, rule.UserID, rule.Trigger))
}

func (r *RuleRepositoryImpl) FindByID(ctx context.Context, id primitive.ObjectID) (*Rule, error) {
	var rule Rule
	if err := r.Collection.FindOne(ctx, bson.M{"_id": id}).Decode(&rule); err != nil {
		return nil, apperror.FromMongo(err, "notification rule", id.Hex())
	}
	return &rule, nil
}

func (r *RuleRepositoryImpl) ListForForm(ctx context.Context, formID primitive.ObjectID) ([]Rule, error) {
	return r.find(ctx, bson.M{"form_id": formID})
}

func (r *RuleRepositoryImpl) ListForTriggers(ctx context.Context, formID primitive.ObjectID, triggers []Trigger) ([]Rule, error) {
	return r.find(ctx, bson.M{"form_id": formID, "trigger": bson.M{"$in": triggers}})
}

func (r *RuleRepositoryImpl) ListOwned(ctx context.Context, userID primitive.ObjectID, excludeForms []primitive.ObjectID) ([]Rule, error) {
	filter := bson.M{"user_id": userID}
	if len(excludeForms) > 0 {
		filter["form_id"] = bson.M{"$nin": excludeForms}
	}
	return r.find(ctx, filter)
}

func (r *RuleRepositoryImpl) find(ctx context.Context, filter bson.M) ([]Rule, error) {
	cursor, err := r.Collection.Find(ctx, filter, options.Find().SetSort(bson.M{"_id": 1}))
	if err != nil {
		return nil, err
	}
	rules := []Rule{}
	if err = cursor.All(ctx, &rules); err != nil {
		return nil, err
	}
	return rules, nil
}

func (r *RuleRepositoryImpl) Exists(ctx context.Context, formID, userID primitive.ObjectID, trigger Trigger) (bool, error) {
	n, err := r.Collection.CountDocuments(ctx, bson.M{"form_id": formID, "user_id": userID, "trigger": trigger}, options.Count().SetLimit(1))
	return n > 0, err
}

func (r *RuleRepositoryImpl) Reassign(ctx context.Context, id, userID primitive.ObjectID) error {
	res, err := r.Collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"user_id": userID}})
	if err != nil {
		return apperror.FromMongo(err, "notification rule", id.Hex())
	}
	if res.MatchedCount == 0 {
		return apperror.NotFound("notification rule", id.Hex())
	}
	return nil
}

func (r *RuleRepositoryImpl) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.Collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return apperror.NotFound("notification rule", id.Hex())
	}
	return nil
}

func (r *RuleRepositoryImpl) EnsureIndexes(ctx context.Context) error {
	_, err := r.Collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "form_id", Value: 1}, {Key: "user_id", Value: 1}, {Key: "trigger", Value: 1}},
			Options: options.Index().SetName("uniq_rule").SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}},
			Options: options.Index().SetName("idx_user"),
		},
	})
	return err
}

func ruleKey(formID, userID primitive.ObjectID, trigger Trigger) string {
	return "form=" + formID.Hex() + " user=" + userID.Hex() + " trigger=" + string(trigger)
}
