// Package postgres implements the domain repositories using PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"moviecatalog/internal/adapter/postgres/migrations"
	"moviecatalog/internal/domain"

	"github.com/felixgeelhaar/fortify/retry"
	"github.com/lib/pq"
	"github.com/pressly/goose/v3"
)

// uniqueViolation is the SQLSTATE for unique constraint failures.
const uniqueViolation = "23505"

// DB wraps a *sql.DB and implements domain repository interfaces.
type DB struct {
	sql *sql.DB
}

// Open connects to PostgreSQL, pings with retries, and runs migrations.
func Open(ctx context.Context, connStr string, log *slog.Logger) (*DB, error) {
	s, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}
	s.SetMaxOpenConns(10)
	s.SetMaxIdleConns(5)
	s.SetConnMaxLifetime(5 * time.Minute)

	r := retry.New[struct{}](retry.Config{
		MaxAttempts:   5,
		InitialDelay:  500 * time.Millisecond,
		MaxDelay:      10 * time.Second,
		Multiplier:    2.0,
		BackoffPolicy: retry.BackoffExponential,
		Jitter:        true,
		IsRetryable:   func(error) bool { return ctx.Err() == nil },
	})
	_, err = r.Do(ctx, func(ctx context.Context) (struct{}, error) {
		pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := s.PingContext(pctx); err != nil {
			log.Warn("postgres not ready", "error", err)
			return struct{}{}, err
		}
		return struct{}{}, nil
	})
	if err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	d := &DB{sql: s}
	if err := d.migrate(ctx); err != nil {
		_ = s.Close()
		return nil, err
	}
	log.Info("connected to postgres")
	return d, nil
}

// Close closes the underlying database connection.
func (d *DB) Close() error {
	return d.sql.Close()
}

// Ping reports whether the database is reachable.
func (d *DB) Ping(ctx context.Context) error {
	return d.sql.PingContext(ctx)
}

func (d *DB) migrate(ctx context.Context) error {
	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	if err := goose.UpContext(ctx, d.sql, "."); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// Users returns the user repository.
func (d *DB) Users() *UserRepo { return &UserRepo{db: d.sql} }

// Movies returns the movie repository.
func (d *DB) Movies() *MovieRepo { return &MovieRepo{db: d.sql} }

// conflictFrom maps a unique violation to a *domain.ConflictError naming
// the column. Other errors pass through.
func conflictFrom(err error) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) || string(pqErr.Code) != uniqueViolation {
		return err
	}
	switch pqErr.Constraint {
	case "users_email_key":
		return &domain.ConflictError{Field: "email", Message: "email already exists"}
	case "users_username_key":
		return &domain.ConflictError{Field: "username", Message: "username already exists"}
	}
	return &domain.ConflictError{Field: pqErr.Column, Message: "already exists"}
}
