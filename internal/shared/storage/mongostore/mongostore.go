package mongostore

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"clearance-backend/internal/shared/telemetry"
)

const defaultPingTimeout = 5 * time.Second

// Connect opens a client for uri, verifies connectivity, and returns the named database.
// Callers own the client and must Disconnect it.
func Connect(ctx context.Context, uri, database string) (*mongo.Client, *mongo.Database, error) {
	if strings.TrimSpace(uri) == "" {
		return nil, nil, fmt.Errorf("MONGO_URI is empty")
	}
	if strings.TrimSpace(database) == "" {
		return nil, nil, fmt.Errorf("mongo database name is empty")
	}

	opts := options.Client().
		ApplyURI(uri).
		SetServerSelectionTimeout(defaultPingTimeout)
	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, nil, fmt.Errorf("connect mongo: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, defaultPingTimeout)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, fmt.Errorf("ping mongo: %w", err)
	}

	telemetry.Info("mongo.init", map[string]any{"database": database})
	return client, client.Database(database), nil
}

// IndexInitializer is implemented by repositories that declare their own indexes.
type IndexInitializer interface {
	EnsureIndexes(ctx context.Context) error
}

// EnsureIndexes runs every initializer in order and stops at the first failure.
func EnsureIndexes(ctx context.Context, inits ...IndexInitializer) error {
	for _, init := range inits {
		if err := init.EnsureIndexes(ctx); err != nil {
			return err
		}
	}
	return nil
}
