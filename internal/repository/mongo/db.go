package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// Default connection timeout
const defaultTimeout = 10 * time.Second

// ConnectDB establishes a connection to MongoDB and pings the primary.
func ConnectDB(ctx context.Context, uri string) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}

	// The connect can succeed against an unresponsive server.
	pingCtx, pingCancel := context.WithTimeout(ctx, 5*time.Second)
	defer pingCancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		disconnectCtx, disconnectCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer disconnectCancel()
		_ = client.Disconnect(disconnectCtx)
		return nil, err
	}
	return client, nil
}

// DisconnectDB gracefully disconnects the MongoDB client.
func DisconnectDB(client *mongo.Client) error {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()
	return client.Disconnect(ctx)
}

// EnsureIndexes creates the indexes of every collection. Generation relies on
// the unique execution key index.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	var errs []error
	ensure := func(name string, fn func(context.Context, *mongo.Collection) error) {
		if err := fn(ctx, db.Collection(name)); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}
	ensure(userCollectionName, EnsureUserIndexes)
	ensure(catalogCollectionName, EnsureCatalogIndexes)
	ensure(activityCollectionName, EnsureActivityIndexes)
	ensure(planWeekCollectionName, EnsurePlanWeekIndexes)
	ensure(enrollmentCollectionName, EnsureEnrollmentIndexes)
	ensure(executionCollectionName, EnsureExecutionIndexes)
	return errors.Join(errs...)
}
