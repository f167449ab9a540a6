package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"moviecatalog/internal/app"
	"moviecatalog/internal/domain"
)

type fakeLister struct {
	movies []domain.Movie
	failAt int
	calls  []int
}

func (f *fakeLister) ListMovies(ctx context.Context, page, limit int) (*domain.MoviePage, error) {
	f.calls = append(f.calls, page)
	if page == f.failAt {
		return nil, errors.New("connection reset")
	}
	start := (page - 1) * limit
	end := min(start+limit, len(f.movies))
	if start > end {
		start = end
	}
	return &domain.MoviePage{
		Movies: f.movies[start:end],
		Pagination: domain.Pagination{
			CurrentPage: page,
			TotalPages:  app.TotalPages(int64(len(f.movies)), limit),
			TotalMovies: int64(len(f.movies)),
		},
	}, nil
}

func catalogOf(n int) []domain.Movie {
	out := make([]domain.Movie, n)
	for i := range out {
		out[i] = domain.Movie{ID: fmt.Sprint(i + 1), Title: fmt.Sprintf("Movie %d", i+1)}
	}
	return out
}

func TestPageThrough(t *testing.T) {
	tests := []struct {
		name      string
		n, limit  int
		wantCalls int
	}{
		{"empty", 0, 8, 1},
		{"single page", 3, 8, 1},
		{"exact pages", 16, 8, 2},
		{"partial last page", 10, 4, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &fakeLister{movies: catalogOf(tt.n)}
			var got []string
			total, err := pageThrough(context.Background(), f, tt.limit, func(m domain.Movie) {
				got = append(got, m.ID)
			})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if total != tt.n || len(got) != tt.n {
				t.Fatalf("expected %d movies, got total=%d emitted=%d", tt.n, total, len(got))
			}
			for i, id := range got {
				if id != fmt.Sprint(i+1) {
					t.Fatalf("movie %d out of order: %s", i, strings.Join(got, ","))
				}
			}
			if len(f.calls) != tt.wantCalls {
				t.Errorf("expected %d requests, got %v", tt.wantCalls, f.calls)
			}
		})
	}
}

func TestPageThroughFailure(t *testing.T) {
	f := &fakeLister{movies: catalogOf(10), failAt: 2}
	var emitted int
	total, err := pageThrough(context.Background(), f, 4, func(domain.Movie) { emitted++ })
	if err == nil || !strings.Contains(err.Error(), "connection reset") {
		t.Fatalf("expected page error, got %v", err)
	}
	if total != 4 || emitted != 4 {
		t.Errorf("expected first page to be kept, got total=%d emitted=%d", total, emitted)
	}
}

func TestPromptPasswordFromPipe(t *testing.T) {
	isTerminal = func(int) bool { return false }
	t.Cleanup(func() { isTerminal = defaultIsTerminal })

	pw, err := promptPassword(&strings.Builder{}, strings.NewReader("hunter22\nignored\n"), "Password: ")
	if err != nil || pw != "hunter22" {
		t.Fatalf("got %q, %v", pw, err)
	}

	pw, err = promptPassword(&strings.Builder{}, strings.NewReader("no-newline"), "Password: ")
	if err != nil || pw != "no-newline" {
		t.Fatalf("got %q, %v", pw, err)
	}

	if _, err := promptPassword(&strings.Builder{}, strings.NewReader(""), "Password: "); err == nil {
		t.Fatal("expected error on empty input")
	}
}

func TestPromptPasswordFromTerminal(t *testing.T) {
	isTerminal = func(int) bool { return true }
	readPassword = func(int) ([]byte, error) { return []byte("s3cret!"), nil }
	t.Cleanup(func() {
		isTerminal = defaultIsTerminal
		readPassword = defaultReadPassword
	})

	var out strings.Builder
	pw, err := promptPassword(&out, strings.NewReader(""), "Password: ")
	if err != nil || pw != "s3cret!" {
		t.Fatalf("got %q, %v", pw, err)
	}
	if !strings.HasPrefix(out.String(), "Password: ") {
		t.Errorf("prompt not written: %q", out.String())
	}
}
