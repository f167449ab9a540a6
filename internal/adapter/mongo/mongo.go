// Package mongo implements the domain repositories on MongoDB.
package mongo

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/felixgeelhaar/fortify/retry"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection names.
const (
	usersCollection  = "users"
	moviesCollection = "movies"
)

const opTimeout = 5 * time.Second

// Unique index names on the users collection.
const (
	usernameIndex = "username_1"
	emailIndex    = "email_1"
)

// DB wraps a connected database handle.
type DB struct {
	client *mongo.Client
	db     *mongo.Database
}

// Config describes how to reach the database.
type Config struct {
	URI      string
	Database string
	// Attempts bounds connection retries at startup. Zero means 5.
	Attempts int
}

// Open connects, pings and ensures the unique indexes. Transient failures
// are retried with exponential backoff.
func Open(ctx context.Context, cfg Config, log *slog.Logger) (*DB, error) {
	if cfg.URI == "" {
		return nil, fmt.Errorf("mongodb uri not provided")
	}
	attempts := cfg.Attempts
	if attempts <= 0 {
		attempts = 5
	}

	r := retry.New[*mongo.Client](retry.Config{
		MaxAttempts:   attempts,
		InitialDelay:  500 * time.Millisecond,
		MaxDelay:      10 * time.Second,
		Multiplier:    2.0,
		BackoffPolicy: retry.BackoffExponential,
		Jitter:        true,
		IsRetryable:   func(error) bool { return ctx.Err() == nil },
	})

	client, err := r.Do(ctx, func(ctx context.Context) (*mongo.Client, error) {
		cctx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		c, err := mongo.Connect(cctx, options.Client().ApplyURI(cfg.URI))
		if err != nil {
			return nil, err
		}
		if err := c.Ping(cctx, nil); err != nil {
			_ = c.Disconnect(context.Background())
			log.Warn("mongodb not ready", "error", err)
			return nil, err
		}
		return c, nil
	})
	if err != nil {
		return nil, fmt.Errorf("connect mongodb: %w", err)
	}

	d := &DB{client: client, db: client.Database(cfg.Database)}
	if err := d.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	log.Info("connected to mongodb", "database", cfg.Database)
	return d, nil
}

func (d *DB) ensureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	_, err := d.db.Collection(usersCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetUnique(true).SetName(usernameIndex)},
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true).SetName(emailIndex)},
	})
	if err != nil {
		return fmt.Errorf("create user indexes: %w", err)
	}
	return nil
}

// Ping reports whether the server is reachable.
func (d *DB) Ping(ctx context.Context) error {
	return d.client.Ping(ctx, nil)
}

// Close disconnects the client.
func (d *DB) Close(ctx context.Context) error {
	return d.client.Disconnect(ctx)
}

// Users returns the user repository.
func (d *DB) Users() *UserRepo {
	return &UserRepo{collection: d.db.Collection(usersCollection)}
}

// Movies returns the movie repository.
func (d *DB) Movies() *MovieRepo {
	return &MovieRepo{collection: d.db.Collection(moviesCollection)}
}
