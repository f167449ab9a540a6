package app

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"
	"time"

	"moviecatalog/internal/domain"
)

type mockMovieRepo struct {
	createFn func(ctx context.Context, f domain.MovieFields) (*domain.Movie, error)
	getFn    func(ctx context.Context, id string) (*domain.Movie, error)
	listFn   func(ctx context.Context, skip, limit int) ([]domain.Movie, error)
	countFn  func(ctx context.Context) (int64, error)
	updateFn func(ctx context.Context, id string, c domain.MovieChanges) (*domain.Movie, error)
	deleteFn func(ctx context.Context, id string) error
}

func (m *mockMovieRepo) Create(ctx context.Context, f domain.MovieFields) (*domain.Movie, error) {
	if m.createFn != nil {
		return m.createFn(ctx, f)
	}
	return &domain.Movie{ID: "m1", Title: f.Title, PublishingYear: f.PublishingYear, Poster: f.Poster}, nil
}

func (m *mockMovieRepo) Get(ctx context.Context, id string) (*domain.Movie, error) {
	if m.getFn != nil {
		return m.getFn(ctx, id)
	}
	return nil, domain.ErrNotFound
}

func (m *mockMovieRepo) List(ctx context.Context, skip, limit int) ([]domain.Movie, error) {
	if m.listFn != nil {
		return m.listFn(ctx, skip, limit)
	}
	return nil, nil
}

func (m *mockMovieRepo) Count(ctx context.Context) (int64, error) {
	if m.countFn != nil {
		return m.countFn(ctx)
	}
	return 0, nil
}

func (m *mockMovieRepo) Update(ctx context.Context, id string, c domain.MovieChanges) (*domain.Movie, error) {
	if m.updateFn != nil {
		return m.updateFn(ctx, id, c)
	}
	return nil, domain.ErrNotFound
}

func (m *mockMovieRepo) Delete(ctx context.Context, id string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return domain.ErrNotFound
}

type recordingPublisher struct {
	events []domain.MovieEvent
	err    error
}

func (p *recordingPublisher) Publish(ctx context.Context, ev domain.MovieEvent) error {
	p.events = append(p.events, ev)
	return p.err
}

func fixedClock() time.Time { return time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC) }

func strPtr(v string) *string { return &v }

// sliceRepo serves List and Count from an in-memory slice.
func sliceRepo(n int) *mockMovieRepo {
	movies := make([]domain.Movie, n)
	for i := range movies {
		movies[i] = domain.Movie{ID: fmt.Sprintf("m%d", i+1), Title: fmt.Sprintf("Movie %d", i+1)}
	}
	return &mockMovieRepo{
		countFn: func(ctx context.Context) (int64, error) { return int64(len(movies)), nil },
		listFn: func(ctx context.Context, skip, limit int) ([]domain.Movie, error) {
			if skip >= len(movies) {
				return nil, nil
			}
			end := min(skip+limit, len(movies))
			return movies[skip:end], nil
		},
	}
}

func TestCatalogService_Create(t *testing.T) {
	pub := &recordingPublisher{}
	svc := NewCatalogService(&mockMovieRepo{}).WithClock(fixedClock).WithEvents(pub, nil)

	m, err := svc.Create(context.Background(), domain.MovieInput{
		Title:          "  Alien ",
		PublishingYear: 1979,
		Poster:         "https://example.com/alien.jpg",
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if m.Title != "Alien" {
		t.Errorf("expected trimmed title, got %q", m.Title)
	}
	if len(pub.events) != 1 || pub.events[0].Type != domain.MovieCreated {
		t.Errorf("expected one created event, got %+v", pub.events)
	}
}

func TestCatalogService_Create_Invalid(t *testing.T) {
	repo := &mockMovieRepo{
		createFn: func(ctx context.Context, f domain.MovieFields) (*domain.Movie, error) {
			t.Fatal("invalid movie must not reach the store")
			return nil, nil
		},
	}
	svc := NewCatalogService(repo).WithClock(fixedClock)

	_, err := svc.Create(context.Background(), domain.MovieInput{
		Title:          "Future",
		PublishingYear: 2025,
		Poster:         "https://example.com/p.jpg",
	})
	var ve *domain.ValidationError
	if !errors.As(err, &ve) || ve.Field != "publishingYear" {
		t.Fatalf("expected publishingYear validation error, got %v", err)
	}
}

func TestCatalogService_Create_PublishFailureIgnored(t *testing.T) {
	pub := &recordingPublisher{err: errors.New("broker down")}
	svc := NewCatalogService(&mockMovieRepo{}).WithClock(fixedClock).WithEvents(pub, nil)

	_, err := svc.Create(context.Background(), domain.MovieInput{
		Title:          "Alien",
		PublishingYear: 1979,
		Poster:         "https://example.com/alien.jpg",
	})
	if err != nil {
		t.Fatalf("publish failure must not fail the write, got %v", err)
	}
}

func TestCatalogService_List_Pagination(t *testing.T) {
	svc := NewCatalogService(sliceRepo(10))

	tests := []struct {
		name      string
		page      int
		limit     int
		wantLen   int
		wantFirst string
		wantPages int
	}{
		{"first page", 1, 8, 8, "m1", 2},
		{"second page", 2, 8, 2, "m9", 2},
		{"past the end", 3, 8, 0, "", 2},
		{"exact fit", 1, 10, 10, "m1", 1},
		{"single", 4, 3, 1, "m10", 4},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			res, err := svc.List(context.Background(), tc.page, tc.limit)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if res.Movies == nil {
				t.Fatal("movies must be an empty slice, not nil")
			}
			if len(res.Movies) != tc.wantLen {
				t.Errorf("expected %d movies, got %d", tc.wantLen, len(res.Movies))
			}
			if tc.wantLen > 0 && res.Movies[0].ID != tc.wantFirst {
				t.Errorf("expected first movie %s, got %s", tc.wantFirst, res.Movies[0].ID)
			}
			if res.Pagination.CurrentPage != tc.page || res.Pagination.TotalPages != tc.wantPages || res.Pagination.TotalMovies != 10 {
				t.Errorf("unexpected pagination %+v", res.Pagination)
			}
		})
	}
}

func TestCatalogService_List_HugeValues(t *testing.T) {
	repo := sliceRepo(10)
	inner := repo.listFn
	var calls int
	repo.listFn = func(ctx context.Context, skip, limit int) ([]domain.Movie, error) {
		calls++
		if skip < 0 || limit < 1 || limit > 10 {
			t.Errorf("store asked for skip=%d limit=%d", skip, limit)
		}
		return inner(ctx, skip, limit)
	}
	svc := NewCatalogService(repo)

	tests := []struct {
		name      string
		page      int
		limit     int
		wantLen   int
		wantPages int
	}{
		{"page wraps to negative skip", 1 << 62, 8, 0, 2},
		{"page wraps to zero skip", 1<<61 + 1, 8, 0, 2},
		{"max page", math.MaxInt, 1, 0, 10},
		{"max limit", 1, math.MaxInt, 10, 1},
		{"max limit second page", 2, math.MaxInt, 0, 1},
		{"max page and limit", math.MaxInt, math.MaxInt, 0, 1},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			calls = 0
			res, err := svc.List(context.Background(), tc.page, tc.limit)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if res.Movies == nil || len(res.Movies) != tc.wantLen {
				t.Fatalf("expected %d movies, got %#v", tc.wantLen, res.Movies)
			}
			if tc.wantLen == 0 && calls != 0 {
				t.Errorf("store must not be queried past the last page")
			}
			if res.Pagination.CurrentPage != tc.page || res.Pagination.TotalPages != tc.wantPages {
				t.Errorf("unexpected pagination %+v", res.Pagination)
			}
		})
	}
}

func TestCatalogService_List_Empty(t *testing.T) {
	svc := NewCatalogService(sliceRepo(0))
	res, err := svc.List(context.Background(), DefaultPage, DefaultLimit)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Movies) != 0 || res.Pagination.TotalPages != 0 || res.Pagination.TotalMovies != 0 {
		t.Errorf("unexpected empty page %+v", res)
	}
}

func TestCatalogService_List_InvalidParams(t *testing.T) {
	svc := NewCatalogService(sliceRepo(3))
	for _, tc := range []struct{ page, limit int }{{0, 8}, {1, 0}, {-1, 8}, {1, -5}} {
		if _, err := svc.List(context.Background(), tc.page, tc.limit); !errors.Is(err, domain.ErrValidation) {
			t.Errorf("List(%d, %d): expected validation error, got %v", tc.page, tc.limit, err)
		}
	}
}

func TestCatalogService_Update(t *testing.T) {
	stored := domain.Movie{ID: "m1", Title: "Alien", PublishingYear: 1979, Poster: "https://example.com/a.jpg"}
	var got domain.MovieChanges
	repo := &mockMovieRepo{
		getFn: func(ctx context.Context, id string) (*domain.Movie, error) {
			if id == "m1" {
				m := stored
				return &m, nil
			}
			return nil, domain.ErrNotFound
		},
		updateFn: func(ctx context.Context, id string, c domain.MovieChanges) (*domain.Movie, error) {
			got = c
			m := stored
			if c.Title != nil {
				m.Title = *c.Title
			}
			return &m, nil
		},
	}
	pub := &recordingPublisher{}
	svc := NewCatalogService(repo).WithClock(fixedClock).WithEvents(pub, nil)

	m, err := svc.Update(context.Background(), "m1", domain.MoviePatch{Title: strPtr("Aliens")})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if m.Title != "Aliens" || m.PublishingYear != 1979 {
		t.Errorf("unexpected movie %+v", m)
	}
	if got.PublishingYear != nil || got.Poster != nil {
		t.Errorf("only the title should change, got %+v", got)
	}
	if len(pub.events) != 1 || pub.events[0].Type != domain.MovieUpdated {
		t.Errorf("expected one updated event, got %+v", pub.events)
	}

	// Empty patch reads back without writing.
	repo.updateFn = func(ctx context.Context, id string, c domain.MovieChanges) (*domain.Movie, error) {
		t.Fatal("empty patch must not write")
		return nil, nil
	}
	m, err = svc.Update(context.Background(), "m1", domain.MoviePatch{})
	if err != nil || m.Title != "Alien" {
		t.Errorf("empty patch: got %+v, %v", m, err)
	}
	if _, err := svc.Update(context.Background(), "missing", domain.MoviePatch{}); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestCatalogService_Update_Invalid(t *testing.T) {
	svc := NewCatalogService(&mockMovieRepo{}).WithClock(fixedClock)
	_, err := svc.Update(context.Background(), "m1", domain.MoviePatch{Poster: strPtr("httpfoo")})
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestCatalogService_Delete_Twice(t *testing.T) {
	deleted := map[string]bool{}
	repo := &mockMovieRepo{
		deleteFn: func(ctx context.Context, id string) error {
			if deleted[id] {
				return domain.ErrNotFound
			}
			deleted[id] = true
			return nil
		},
	}
	pub := &recordingPublisher{}
	svc := NewCatalogService(repo).WithEvents(pub, nil)

	if err := svc.Delete(context.Background(), "m1"); err != nil {
		t.Fatalf("first delete: %v", err)
	}
	if err := svc.Delete(context.Background(), "m1"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("second delete: expected ErrNotFound, got %v", err)
	}
	if len(pub.events) != 1 || pub.events[0].Type != domain.MovieDeleted || pub.events[0].MovieID != "m1" {
		t.Errorf("expected one deleted event, got %+v", pub.events)
	}
}

func TestTotalPages(t *testing.T) {
	tests := []struct {
		total int64
		limit int
		want  int
	}{
		{0, 8, 0}, {1, 8, 1}, {8, 8, 1}, {9, 8, 2}, {10, 8, 2}, {5, 0, 0},
		{10, math.MaxInt, 1}, {math.MaxInt64, 1, math.MaxInt},
	}
	for _, tc := range tests {
		if got := TotalPages(tc.total, tc.limit); got != tc.want {
			t.Errorf("TotalPages(%d, %d) = %d, want %d", tc.total, tc.limit, got, tc.want)
		}
	}
}
