package domain

import (
	"context"
	"time"
)

// Movie is a single catalog entry.
type Movie struct {
	ID             string    `json:"id"`
	Title          string    `json:"title"`
	PublishingYear int       `json:"publishingYear"`
	Poster         string    `json:"poster"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// MovieFields holds validated values ready to be written. Only ValidateMovie
// and MoviePatch.Validate produce it.
type MovieFields struct {
	Title          string
	PublishingYear int
	Poster         string
}

// MovieChanges holds the validated subset of fields for a partial update.
// Nil fields are left unchanged by the store.
type MovieChanges struct {
	Title          *string
	PublishingYear *int
	Poster         *string
}

// Empty reports whether no field is set.
func (c MovieChanges) Empty() bool {
	return c.Title == nil && c.PublishingYear == nil && c.Poster == nil
}

// Pagination describes where a page sits in the whole catalog.
type Pagination struct {
	CurrentPage int   `json:"currentPage"`
	TotalPages  int   `json:"totalPages"`
	TotalMovies int64 `json:"totalMovies"`
}

// MoviePage is one page of the catalog.
type MoviePage struct {
	Movies     []Movie    `json:"movies"`
	Pagination Pagination `json:"pagination"`
}

// MovieRepository is the port for catalog persistence.
//
// Get, Update and Delete return ErrNotFound for unknown ids. List returns
// movies in insertion order.
type MovieRepository interface {
	Create(ctx context.Context, f MovieFields) (*Movie, error)
	Get(ctx context.Context, id string) (*Movie, error)
	List(ctx context.Context, skip, limit int) ([]Movie, error)
	Count(ctx context.Context) (int64, error)
	Update(ctx context.Context, id string, c MovieChanges) (*Movie, error)
	Delete(ctx context.Context, id string) error
}
