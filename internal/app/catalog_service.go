package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"moviecatalog/internal/domain"
)

// Listing defaults.
const (
	DefaultPage  = 1
	DefaultLimit = 8
)

// CatalogService encapsulates the movie catalog use cases.
type CatalogService struct {
	repo   domain.MovieRepository
	events domain.EventPublisher
	log    *slog.Logger
	now    func() time.Time
}

// NewCatalogService creates a CatalogService backed by the given repository.
func NewCatalogService(repo domain.MovieRepository) *CatalogService {
	return &CatalogService{repo: repo, log: slog.Default(), now: time.Now}
}

// WithEvents announces committed changes through p. Publish failures are
// logged and never fail the write.
func (s *CatalogService) WithEvents(p domain.EventPublisher, log *slog.Logger) *CatalogService {
	s.events = p
	if log != nil {
		s.log = log
	}
	return s
}

// WithClock overrides the clock used for the publishing year upper bound.
func (s *CatalogService) WithClock(now func() time.Time) *CatalogService {
	s.now = now
	return s
}

// Create validates and stores a new movie.
func (s *CatalogService) Create(ctx context.Context, in domain.MovieInput) (*domain.Movie, error) {
	fields, err := domain.ValidateMovie(in, s.now())
	if err != nil {
		return nil, err
	}
	m, err := s.repo.Create(ctx, fields)
	if err != nil {
		return nil, fmt.Errorf("create movie: %w", err)
	}
	s.publish(ctx, domain.MovieCreated, m.ID)
	return m, nil
}

// Get returns a single movie.
func (s *CatalogService) Get(ctx context.Context, id string) (*domain.Movie, error) {
	m, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get movie %s: %w", id, err)
	}
	return m, nil
}

// List returns one page of the catalog in insertion order.
func (s *CatalogService) List(ctx context.Context, page, limit int) (*domain.MoviePage, error) {
	if page < 1 {
		return nil, domain.Invalid("page", "page must be a positive integer")
	}
	if limit < 1 {
		return nil, domain.Invalid("limit", "limit must be a positive integer")
	}

	total, err := s.repo.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("count movies: %w", err)
	}

	movies := []domain.Movie{}
	// Pages past the end are empty. Checked by division so skip cannot overflow.
	if total > 0 && int64(page-1) <= (total-1)/int64(limit) {
		skip := (page - 1) * limit
		n := int(min(int64(limit), total-int64(skip)))
		movies, err = s.repo.List(ctx, skip, n)
		if err != nil {
			return nil, fmt.Errorf("list movies: %w", err)
		}
		if len(movies) > n {
			movies = movies[:n]
		}
	}
	if movies == nil {
		movies = []domain.Movie{}
	}

	return &domain.MoviePage{
		Movies: movies,
		Pagination: domain.Pagination{
			CurrentPage: page,
			TotalPages:  TotalPages(total, limit),
			TotalMovies: total,
		},
	}, nil
}

// Update applies the supplied fields only. An empty patch returns the movie
// unchanged.
func (s *CatalogService) Update(ctx context.Context, id string, patch domain.MoviePatch) (*domain.Movie, error) {
	changes, err := patch.Validate(s.now())
	if err != nil {
		return nil, err
	}
	if changes.Empty() {
		return s.Get(ctx, id)
	}
	m, err := s.repo.Update(ctx, id, changes)
	if err != nil {
		return nil, fmt.Errorf("update movie %s: %w", id, err)
	}
	s.publish(ctx, domain.MovieUpdated, m.ID)
	return m, nil
}

// Delete removes a movie. Deleting an unknown id reports ErrNotFound.
func (s *CatalogService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete movie %s: %w", id, err)
	}
	s.publish(ctx, domain.MovieDeleted, id)
	return nil
}

func (s *CatalogService) publish(ctx context.Context, typ, id string) {
	if s.events == nil {
		return
	}
	ev := domain.MovieEvent{Type: typ, MovieID: id, At: s.now().UTC()}
	if err := s.events.Publish(ctx, ev); err != nil {
		s.log.WarnContext(ctx, "publish catalog event", "type", typ, "movie_id", id, "error", err)
	}
}

// TotalPages is ceil(total/limit).
func TotalPages(total int64, limit int) int {
	if limit < 1 {
		return 0
	}
	if total <= 0 {
		return 0
	}
	return int((total-1)/int64(limit) + 1)
}
