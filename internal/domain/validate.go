package domain

import (
	"fmt"
	"net/mail"
	"net/url"
	"strings"
	"time"
)

// MinPublishingYear is the earliest accepted publishing year.
const MinPublishingYear = 1800

// MinPasswordLength is the shortest accepted signup password.
const MinPasswordLength = 6

// MovieInput is the raw create request.
type MovieInput struct {
	Title          string
	PublishingYear int
	Poster         string
}

// MoviePatch is the raw partial update request. Nil means "not supplied".
type MoviePatch struct {
	Title          *string
	PublishingYear *int
	Poster         *string
}

// ValidateMovie checks a create request field by field and returns the first
// failure as a *ValidationError.
func ValidateMovie(in MovieInput, now time.Time) (MovieFields, error) {
	title, err := validateTitle(in.Title)
	if err != nil {
		return MovieFields{}, err
	}
	if err := validateYear(in.PublishingYear, now); err != nil {
		return MovieFields{}, err
	}
	poster, err := validatePoster(in.Poster)
	if err != nil {
		return MovieFields{}, err
	}
	return MovieFields{Title: title, PublishingYear: in.PublishingYear, Poster: poster}, nil
}

// Validate checks only the supplied fields.
func (p MoviePatch) Validate(now time.Time) (MovieChanges, error) {
	var c MovieChanges
	if p.Title != nil {
		title, err := validateTitle(*p.Title)
		if err != nil {
			return MovieChanges{}, err
		}
		c.Title = &title
	}
	if p.PublishingYear != nil {
		if err := validateYear(*p.PublishingYear, now); err != nil {
			return MovieChanges{}, err
		}
		year := *p.PublishingYear
		c.PublishingYear = &year
	}
	if p.Poster != nil {
		poster, err := validatePoster(*p.Poster)
		if err != nil {
			return MovieChanges{}, err
		}
		c.Poster = &poster
	}
	return c, nil
}

func validateTitle(title string) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", Invalid("title", "title is required")
	}
	return title, nil
}

func validateYear(year int, now time.Time) error {
	if year < MinPublishingYear || year > now.Year() {
		return Invalid("publishingYear",
			fmt.Sprintf("publishing year must be between %d and %d", MinPublishingYear, now.Year()))
	}
	return nil
}

// validatePoster accepts absolute http(s) URLs with a host.
func validatePoster(poster string) (string, error) {
	poster = strings.TrimSpace(poster)
	if poster == "" {
		return "", Invalid("poster", "poster is required")
	}
	u, err := url.Parse(poster)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", Invalid("poster", "poster must be a valid http(s) URL")
	}
	return poster, nil
}

// ValidateRegistration checks signup input in order: username, email, password.
func ValidateRegistration(username, email, password string) error {
	if strings.TrimSpace(username) == "" {
		return Invalid("username", "username is required")
	}
	if !IsEmail(email) {
		return Invalid("email", "email is invalid")
	}
	if len(password) < MinPasswordLength {
		return Invalid("password", fmt.Sprintf("password must be at least %d characters long", MinPasswordLength))
	}
	return nil
}

// IsEmail reports whether s is a bare address such as "a@b.com".
func IsEmail(s string) bool {
	addr, err := mail.ParseAddress(s)
	if err != nil || addr.Address != s {
		return false
	}
	at := strings.LastIndex(s, "@")
	return at > 0 && strings.Contains(s[at+1:], ".")
}
