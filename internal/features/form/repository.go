package form

import (
	"context"

	"go-approvals/internal/common/apperror"
	"go-approvals/internal/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type FormRepository interface {
	CreateForm(ctx context.Context, form *Form) error
	FindForm(ctx context.Context, id primitive.ObjectID) (*Form, error)
	FindForms(ctx context.Context, ids []primitive.ObjectID) ([]Form, error)
	ListForms(ctx context.Context) ([]Form, error)
	ListFormIDs(ctx context.Context) ([]primitive.ObjectID, error)
	CreateResponse(ctx context.Context, response *Response) error
	FindResponse(ctx context.Context, id primitive.ObjectID) (*Response, error)
	EnsureIndexes(ctx context.Context) error
}

type FormRepositoryImpl struct {
	Forms     *mongo.Collection
	Responses *mongo.Collection
}

func NewFormRepository(mongodb *database.MongodbDB) FormRepository {
	return &FormRepositoryImpl{
		Forms:     mongodb.Collection("forms"),
		Responses: mongodb.Collection("responses"),
	}
}

func (r *FormRepositoryImpl) CreateForm(ctx context.Context, form *Form) error {
	if form.ID.IsZero() {
		form.ID = primitive.NewObjectID()
	}
	_, err := r.Forms.InsertOne(ctx, form)
	return apperror.FromMongo(err, "form", form.ID.Hex())
}

func (r *FormRepositoryImpl) FindForm(ctx context.Context, id primitive.ObjectID) (*Form, error) {
	var form Form
	err := r.Forms.FindOne(ctx, bson.M{"_id": id}).Decode(&form)
	if err != nil {
		return nil, apperror.FromMongo(err, "form", id.Hex())
	}
	return &form, nil
}

func (r *FormRepositoryImpl) FindForms(ctx context.Context, ids []primitive.ObjectID) ([]Form, error) {
	if len(ids) == 0 {
		return []Form{}, nil
	}
	cursor, err := r.Forms.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	forms := []Form{}
	if err = cursor.All(ctx, &forms); err != nil {
		return nil, err
	}
	return forms, nil
}

func (r *FormRepositoryImpl) ListForms(ctx context.Context) ([]Form, error) {
	cursor, err := r.Forms.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}))
	if err != nil {
		return nil, err
	}
	forms := []Form{}
	if err = cursor.All(ctx, &forms); err != nil {
		return nil, err
	}
	return forms, nil
}

func (r *FormRepositoryImpl) ListFormIDs(ctx context.Context) ([]primitive.ObjectID, error) {
	cursor, err := r.Forms.Find(ctx, bson.M{}, options.Find().SetProjection(bson.M{"_id": 1}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var ids []primitive.ObjectID
	for cursor.Next(ctx) {
		var row struct {
			ID primitive.ObjectID `bson:"_id"`
		}
		if err := cursor.Decode(&row); err != nil {
			return nil, err
		}
		ids = append(ids, row.ID)
	}
	return ids, cursor.Err()
}

func (r *FormRepositoryImpl) CreateResponse(ctx context.Context, response *Response) error {
	if response.ID.IsZero() {
		response.ID = primitive.NewObjectID()
	}
	_, err := r.Responses.InsertOne(ctx, response)
	return apperror.FromMongo(err, "response", response.ID.Hex())
}

func (r *FormRepositoryImpl) FindResponse(ctx context.Context, id primitive.ObjectID) (*Response, error) {
	var response Response
	err := r.Responses.FindOne(ctx, bson.M{"_id": id}).Decode(&response)
	if err != nil {
		return nil, apperror.FromMongo(err, "response", id.Hex())
	}
	return &response, nil
}

func (r *FormRepositoryImpl) EnsureIndexes(ctx context.Context) error {
	_, err := r.Responses.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "form_id", Value: 1}, {Key: "submitted_at", Value: -1}},
			Options: options.Index().SetName("idx_form_submitted"),
		},
	})
	return err
}
