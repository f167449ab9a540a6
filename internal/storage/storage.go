// Package storage opens the configured store and exposes its repositories.
package storage

import (
	"context"
	"fmt"
	"log/slog"

	"moviecatalog/internal/adapter/memory"
	"moviecatalog/internal/adapter/mongo"
	"moviecatalog/internal/adapter/postgres"
	"moviecatalog/internal/config"
	"moviecatalog/internal/domain"
)

// Store bundles the repositories of one backend.
type Store struct {
	Kind   string
	Users  domain.UserRepository
	Movies domain.MovieRepository
	// Ping reports whether the backend is reachable.
	Ping  func(ctx context.Context) error
	close func(ctx context.Context) error
}

// Close releases the backend connection.
func (s *Store) Close(ctx context.Context) error {
	if s.close == nil {
		return nil
	}
	return s.close(ctx)
}

// Open connects to the backend named by cfg.Kind.
func Open(ctx context.Context, cfg config.StoreConfig, log *slog.Logger) (*Store, error) {
	switch cfg.Kind {
	case config.StoreMongo:
		db, err := mongo.Open(ctx, mongo.Config{URI: cfg.MongoURI, Database: cfg.MongoDatabase}, log)
		if err != nil {
			return nil, err
		}
		return &Store{
			Kind:   cfg.Kind,
			Users:  db.Users(),
			Movies: db.Movies(),
			Ping:   db.Ping,
			close:  db.Close,
		}, nil

	case config.StorePostgres:
		db, err := postgres.Open(ctx, cfg.DatabaseURL, log)
		if err != nil {
			return nil, err
		}
		return &Store{
			Kind:   cfg.Kind,
			Users:  db.Users(),
			Movies: db.Movies(),
			Ping:   db.Ping,
			close:  func(context.Context) error { return db.Close() },
		}, nil

	case config.StoreMemory:
		db := memory.New()
		log.Warn("using in-memory store; data is lost on exit")
		return &Store{
			Kind:   cfg.Kind,
			Users:  db,
			Movies: db.NewMovieRepo(),
			Ping:   func(context.Context) error { return nil },
		}, nil
	}
	return nil, fmt.Errorf("unknown store %q", cfg.Kind)
}
