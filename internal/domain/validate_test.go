package domain_test

import (
	"errors"
	"testing"
	"time"

	"moviecatalog/internal/domain"
)

var now = time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)

func TestValidateMovie(t *testing.T) {
	tests := []struct {
		name      string
		in        domain.MovieInput
		wantField string
	}{
		{"valid", domain.MovieInput{Title: "Alien", PublishingYear: 1979, Poster: "https://img.example/alien.jpg"}, ""},
		{"lower bound", domain.MovieInput{Title: "Old", PublishingYear: 1800, Poster: "http://x.io/p.png"}, ""},
		{"current year", domain.MovieInput{Title: "New", PublishingYear: 2026, Poster: "http://x.io/p.png"}, ""},
		{"empty title", domain.MovieInput{Title: "", PublishingYear: 1979, Poster: "http://x.io/p.png"}, "title"},
		{"blank title", domain.MovieInput{Title: "   ", PublishingYear: 1979, Poster: "http://x.io/p.png"}, "title"},
		{"year too old", domain.MovieInput{Title: "A", PublishingYear: 1799, Poster: "http://x.io/p.png"}, "publishingYear"},
		{"year in future", domain.MovieInput{Title: "A", PublishingYear: 2027, Poster: "http://x.io/p.png"}, "publishingYear"},
		{"missing year", domain.MovieInput{Title: "A", Poster: "http://x.io/p.png"}, "publishingYear"},
		{"missing poster", domain.MovieInput{Title: "A", PublishingYear: 1999}, "poster"},
		{"ftp poster", domain.MovieInput{Title: "A", PublishingYear: 1999, Poster: "ftp://x.io/p.png"}, "poster"},
		{"http prefix only", domain.MovieInput{Title: "A", PublishingYear: 1999, Poster: "httpfoo"}, "poster"},
		{"title checked first", domain.MovieInput{Title: "", PublishingYear: 1, Poster: ""}, "title"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f, err := domain.ValidateMovie(tc.in, now)
			if tc.wantField == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if f.PublishingYear != tc.in.PublishingYear {
					t.Errorf("year = %d, want %d", f.PublishingYear, tc.in.PublishingYear)
				}
				return
			}
			var ve *domain.ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("expected *ValidationError, got %v", err)
			}
			if ve.Field != tc.wantField {
				t.Errorf("field = %q, want %q", ve.Field, tc.wantField)
			}
			if !errors.Is(err, domain.ErrValidation) {
				t.Error("expected errors.Is(err, ErrValidation)")
			}
		})
	}
}

func TestValidateMovie_TrimsTitle(t *testing.T) {
	f, err := domain.ValidateMovie(domain.MovieInput{Title: "  Heat ", PublishingYear: 1995, Poster: "https://p.io/h.jpg"}, now)
	if err != nil {
		t.Fatal(err)
	}
	if f.Title != "Heat" {
		t.Errorf("title = %q, want %q", f.Title, "Heat")
	}
}

func TestMoviePatch_Validate(t *testing.T) {
	title := "Blade Runner"
	empty := ""
	year := 1982
	badYear := 3000
	poster := "https://p.io/br.jpg"

	c, err := domain.MoviePatch{Title: &title}.Validate(now)
	if err != nil {
		t.Fatalf("title only: %v", err)
	}
	if c.Title == nil || *c.Title != title || c.PublishingYear != nil || c.Poster != nil {
		t.Errorf("unexpected changes: %+v", c)
	}

	c, err = domain.MoviePatch{PublishingYear: &year, Poster: &poster}.Validate(now)
	if err != nil {
		t.Fatalf("year+poster: %v", err)
	}
	if c.Title != nil || *c.PublishingYear != year || *c.Poster != poster {
		t.Errorf("unexpected changes: %+v", c)
	}

	c, err = domain.MoviePatch{}.Validate(now)
	if err != nil || !c.Empty() {
		t.Errorf("empty patch: changes=%+v err=%v", c, err)
	}

	if _, err := (domain.MoviePatch{Title: &empty}).Validate(now); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("supplied empty title: expected validation error, got %v", err)
	}
	if _, err := (domain.MoviePatch{PublishingYear: &badYear}).Validate(now); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("supplied bad year: expected validation error, got %v", err)
	}
}

func TestValidateRegistration(t *testing.T) {
	tests := []struct {
		name                      string
		username, email, password string
		wantField                 string
	}{
		{"valid", "alice", "a@b.com", "secret1", ""},
		{"no username", "", "a@b.com", "secret1", "username"},
		{"bad email", "alice", "not-an-email", "secret1", "email"},
		{"display name email", "alice", "Alice <a@b.com>", "secret1", "email"},
		{"no tld", "alice", "a@b", "secret1", "email"},
		{"short password", "alice", "a@b.com", "12345", "password"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := domain.ValidateRegistration(tc.username, tc.email, tc.password)
			if tc.wantField == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			var ve *domain.ValidationError
			if !errors.As(err, &ve) || ve.Field != tc.wantField {
				t.Fatalf("expected validation error on %q, got %v", tc.wantField, err)
			}
		})
	}
}

func TestConflictErrorIs(t *testing.T) {
	err := error(&domain.ConflictError{Field: "email", Message: "email already exists"})
	if !errors.Is(err, domain.ErrConflict) {
		t.Fatal("expected ErrConflict")
	}
	if errors.Is(err, domain.ErrValidation) {
		t.Fatal("conflict must not match ErrValidation")
	}
}
