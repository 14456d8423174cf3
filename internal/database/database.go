package database

import (
	"context"
	"time"

	"go-approvals/internal/config"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// MongodbDB wraps the application database handle.
type MongodbDB struct {
	DB *mongo.Database
}

// NewDatabase creates a new MongoDB database connection with lifecycle management
func NewDatabase(lc fx.Lifecycle, cfg *config.Config) (*MongodbDB, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		return nil, err
	}

	// Ping the database to verify connection
	if err := client.Ping(ctx, nil); err != nil {
		return nil, err
	}

	db := client.Database(cfg.DBName)

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return client.Disconnect(ctx)
		},
	})

	return &MongodbDB{DB: db}, nil
}

// Collection is a shorthand used by the repositories.
func (m *MongodbDB) Collection(name string) *mongo.Collection {
	return m.DB.Collection(name)
}

// Indexer is implemented by every repository that owns a collection.
type Indexer interface {
	EnsureIndexes(ctx context.Context) error
}

// EnsureIndexes runs each indexer once the app has started. Failures are logged,
// not fatal, so a missing index never blocks startup.
func EnsureIndexes(lc fx.Lifecycle, log *zap.Logger, indexers []Indexer) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
				defer cancel()

				for _, idx := range indexers {
					if err := idx.EnsureIndexes(ctx); err != nil {
						log.Warn("Failed to ensure indexes", zap.String("repository", typeName(idx)), zap.Error(err))
					}
				}
			}()
			return nil
		},
	})
}
