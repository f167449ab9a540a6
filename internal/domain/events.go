package domain

import (
	"context"
	"time"
)

// Catalog event types.
const (
	MovieCreated = "movie.created"
	MovieUpdated = "movie.updated"
	MovieDeleted = "movie.deleted"
)

// MovieEvent describes a committed catalog change.
type MovieEvent struct {
	Type    string    `json:"type"`
	MovieID string    `json:"movieId"`
	At      time.Time `json:"at"`
}

// EventPublisher is the port for announcing catalog changes.
type EventPublisher interface {
	Publish(ctx context.Context, ev MovieEvent) error
}
