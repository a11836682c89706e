// Package repomanager binds the repositories to one storage backend and
// owns that backend's lifecycle: schema setup, health checks and shutdown.
package repomanager

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/gophlibrary/internal/dbx"
	"github.com/dmitrijs2005/gophlibrary/internal/server/config"
	"github.com/dmitrijs2005/gophlibrary/internal/server/repositories/books"
	"github.com/dmitrijs2005/gophlibrary/internal/server/repositories/users"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type RepositoryManager interface {
	Users() users.Repository
	Books() books.Repository
	// RunMigrations brings the schema (tables or indexes) up to date.
	RunMigrations(ctx context.Context) error
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

const connectTimeout = 10 * time.Second

// Open connects to the backend selected by cfg.Storage.
func Open(ctx context.Context, cfg *config.Config) (RepositoryManager, error) {
	switch cfg.Storage {
	case config.StoragePostgres:
		db, err := dbx.Open(ctx, "pgx", cfg.DatabaseDSN, connectTimeout)
		if err != nil {
			return nil, err
		}
		return NewPostgresRepositoryManager(db)

	case config.StorageMongo:
		opts := options.Client().
			ApplyURI(cfg.MongoURI).
			SetConnectTimeout(connectTimeout).
			SetServerSelectionTimeout(connectTimeout)

		client, err := mongo.Connect(ctx, opts)
		if err != nil {
			return nil, fmt.Errorf("mongo connect error: %w", err)
		}

		m := NewMongoRepositoryManager(client, cfg.MongoDatabase)
		if err := m.Ping(ctx); err != nil {
			_ = client.Disconnect(ctx)
			return nil, fmt.Errorf("mongo ping error: %w", err)
		}
		return m, nil
	}

	return nil, fmt.Errorf("unknown storage %q", cfg.Storage)
}
