package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"moviecatalog/internal/domain"

	"github.com/google/uuid"
)

var _ domain.MovieRepository = (*MovieRepo)(nil)

const movieColumns = "id, title, publishing_year, poster, created_at, updated_at"

// MovieRepo implements domain.MovieRepository. The seq column keeps
// insertion order.
type MovieRepo struct {
	db *sql.DB
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMovie(row rowScanner) (domain.Movie, error) {
	var m domain.Movie
	err := row.Scan(&m.ID, &m.Title, &m.PublishingYear, &m.Poster, &m.CreatedAt, &m.UpdatedAt)
	return m, err
}

// Create inserts a movie.
func (r *MovieRepo) Create(ctx context.Context, f domain.MovieFields) (*domain.Movie, error) {
	now := time.Now().UTC()
	m := domain.Movie{
		ID:             uuid.NewString(),
		Title:          f.Title,
		PublishingYear: f.PublishingYear,
		Poster:         f.Poster,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO movies ("+movieColumns+") VALUES ($1, $2, $3, $4, $5, $6)",
		m.ID, m.Title, m.PublishingYear, m.Poster, m.CreatedAt, m.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// Get retrieves a movie by ID.
func (r *MovieRepo) Get(ctx context.Context, id string) (*domain.Movie, error) {
	m, err := scanMovie(r.db.QueryRowContext(ctx, "SELECT "+movieColumns+" FROM movies WHERE id = $1", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// List returns up to limit movies after skip, in insertion order.
func (r *MovieRepo) List(ctx context.Context, skip, limit int) ([]domain.Movie, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+movieColumns+" FROM movies ORDER BY seq LIMIT $1 OFFSET $2", limit, skip)
	if err != nil {
		return nil, err
	}
	defer rows.Close() //nolint:errcheck

	var out []domain.Movie
	for rows.Next() {
		m, err := scanMovie(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// Count returns the number of movies.
func (r *MovieRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM movies").Scan(&n)
	return n, err
}

// Update sets the non-nil fields of c. COALESCE keeps the stored value for
// NULL parameters.
func (r *MovieRepo) Update(ctx context.Context, id string, c domain.MovieChanges) (*domain.Movie, error) {
	m, err := scanMovie(r.db.QueryRowContext(ctx,
		`UPDATE movies SET
			title = COALESCE($2, title),
			publishing_year = COALESCE($3, publishing_year),
			poster = COALESCE($4, poster),
			updated_at = $5
		WHERE id = $1
		RETURNING `+movieColumns,
		id, nullString(c.Title), nullInt(c.PublishingYear), nullString(c.Poster), time.Now().UTC(),
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// Delete removes a movie.
func (r *MovieRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM movies WHERE id = $1", id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func nullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}
