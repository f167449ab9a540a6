// Package memory implements an in-memory repository for development and testing.
package memory

import (
	"context"
	"sync"
	"time"

	"moviecatalog/internal/domain"

	"github.com/google/uuid"
)

// DB implements an in-memory database storage.
type DB struct {
	mu     sync.Mutex
	users  []*domain.User
	movies []*domain.Movie
	now    func() time.Time
}

// New creates a new in-memory database.
func New() *DB {
	return &DB{now: func() time.Time { return time.Now().UTC() }}
}

// Ensure interfaces are met.
var _ domain.UserRepository = (*DB)(nil)
var _ domain.MovieRepository = (*MovieRepo)(nil)

// --- UserRepository ---

// GetByUsername retrieves a user by username.
func (db *DB) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	for _, u := range db.users {
		if u.Username == username {
			c := *u
			return &c, nil
		}
	}
	return nil, nil
}

// GetByEmail retrieves a user by email.
func (db *DB) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	for _, u := range db.users {
		if u.Email == email {
			c := *u
			return &c, nil
		}
	}
	return nil, nil
}

// GetByID retrieves a user by ID.
func (db *DB) GetByID(ctx context.Context, id string) (*domain.User, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	for _, u := range db.users {
		if u.ID == id {
			c := *u
			return &c, nil
		}
	}
	return nil, nil
}

// Create creates a new user.
func (db *DB) Create(ctx context.Context, nu domain.NewUser) (*domain.User, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	for _, u := range db.users {
		if u.Username == nu.Username {
			return nil, &domain.ConflictError{Field: "username", Message: "username already exists"}
		}
		if u.Email == nu.Email {
			return nil, &domain.ConflictError{Field: "email", Message: "email already exists"}
		}
	}

	now := db.now()
	u := &domain.User{
		ID:           uuid.NewString(),
		Username:     nu.Username,
		Email:        nu.Email,
		PasswordHash: nu.PasswordHash,
		IsAdmin:      nu.IsAdmin,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	db.users = append(db.users, u)
	c := *u
	return &c, nil
}

// --- MovieRepository ---

// MovieRepo implements catalog persistence on top of DB.
type MovieRepo struct {
	db *DB
}

// NewMovieRepo creates a new movie repository.
func (db *DB) NewMovieRepo() *MovieRepo {
	return &MovieRepo{db: db}
}

// Create appends a movie to the catalog.
func (r *MovieRepo) Create(ctx context.Context, f domain.MovieFields) (*domain.Movie, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	now := r.db.now()
	m := &domain.Movie{
		ID:             uuid.NewString(),
		Title:          f.Title,
		PublishingYear: f.PublishingYear,
		Poster:         f.Poster,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	r.db.movies = append(r.db.movies, m)
	c := *m
	return &c, nil
}

// Get retrieves a movie by ID.
func (r *MovieRepo) Get(ctx context.Context, id string) (*domain.Movie, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	i := r.indexOf(id)
	if i < 0 {
		return nil, domain.ErrNotFound
	}
	c := *r.db.movies[i]
	return &c, nil
}

// List returns up to limit movies after skipping skip, in insertion order.
func (r *MovieRepo) List(ctx context.Context, skip, limit int) ([]domain.Movie, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	result := []domain.Movie{}
	if skip >= len(r.db.movies) {
		return result, nil
	}
	end := len(r.db.movies)
	if limit < end-skip {
		end = skip + limit
	}
	for _, m := range r.db.movies[skip:end] {
		result = append(result, *m)
	}
	return result, nil
}

// Count returns the total number of movies.
func (r *MovieRepo) Count(ctx context.Context) (int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	return int64(len(r.db.movies)), nil
}

// Update applies the non-nil fields of c.
func (r *MovieRepo) Update(ctx context.Context, id string, c domain.MovieChanges) (*domain.Movie, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	i := r.indexOf(id)
	if i < 0 {
		return nil, domain.ErrNotFound
	}
	m := r.db.movies[i]
	if c.Title != nil {
		m.Title = *c.Title
	}
	if c.PublishingYear != nil {
		m.PublishingYear = *c.PublishingYear
	}
	if c.Poster != nil {
		m.Poster = *c.Poster
	}
	m.UpdatedAt = r.db.now()
	out := *m
	return &out, nil
}

// Delete removes a movie by ID.
func (r *MovieRepo) Delete(ctx context.Context, id string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	i := r.indexOf(id)
	if i < 0 {
		return domain.ErrNotFound
	}
	r.db.movies = append(r.db.movies[:i], r.db.movies[i+1:]...)
	return nil
}

// indexOf must be called with the lock held.
func (r *MovieRepo) indexOf(id string) int {
	for i, m := range r.db.movies {
		if m.ID == id {
			return i
		}
	}
	return -1
}
