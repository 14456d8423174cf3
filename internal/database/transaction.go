package database

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"
)

// Transactor runs fn as one all-or-nothing unit. The ctx handed to fn must be
// used for every store call that belongs to the unit.
type Transactor interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type mongoTransactor struct {
	client *mongo.Client
}

// NewTransactor returns a Transactor backed by mongo session transactions.
// A replica set (or sharded cluster) is required for multi-document transactions.
func NewTransactor(mongodb *MongodbDB) Transactor {
	return &mongoTransactor{client: mongodb.DB.Client()}
}

func (t *mongoTransactor) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	// Nested calls join the enclosing transaction.
	if mongo.SessionFromContext(ctx) != nil {
		return fn(ctx)
	}

	session, err := t.client.StartSession()
	if err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (interface{}, error) {
		return nil, fn(sessCtx)
	})
	return err
}

func typeName(v any) string {
	return fmt.Sprintf("%T", v)
}
