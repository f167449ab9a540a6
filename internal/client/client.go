// Package client is a Go client for the catalog JSON API. It keeps the
// session cookie in a jar, so a successful Login authorizes later calls.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"strings"
	"time"

	"moviecatalog/internal/domain"

	"github.com/felixgeelhaar/fortify/retry"
)

// APIError is a non-2xx response from the server.
type APIError struct {
	Status  int
	Code    string
	Message string
	Field   string
}

func (e *APIError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s (%d %s, field %s)", e.Message, e.Status, e.Code, e.Field)
	}
	return fmt.Sprintf("%s (%d %s)", e.Message, e.Status, e.Code)
}

// Is lets callers match API errors against the domain sentinels.
func (e *APIError) Is(target error) bool {
	switch target {
	case domain.ErrValidation:
		return e.Code == "VALIDATION" || e.Code == "BAD_REQUEST"
	case domain.ErrConflict:
		return e.Code == "CONFLICT"
	case domain.ErrUnauthorized:
		return e.Status == http.StatusUnauthorized
	case domain.ErrNotFound:
		return e.Status == http.StatusNotFound
	}
	return false
}

// User is the public view of an account returned by the API.
type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	IsAdmin  bool   `json:"isAdmin"`
}

// Client talks to one catalog server.
type Client struct {
	base  *url.URL
	http  *http.Client
	retry retry.Retry[*http.Response]
}

// New returns a client for the server at baseURL, e.g. "http://localhost:8080".
func New(baseURL string) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse server url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("server url must be http or https, got %q", baseURL)
	}
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}

	return &Client{
		base: u,
		http: &http.Client{
			Jar:     jar,
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout:   10 * time.Second,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				TLSHandshakeTimeout: 10 * time.Second,
				IdleConnTimeout:     90 * time.Second,
				MaxIdleConnsPerHost: 4,
			},
		},
		retry: retry.New[*http.Response](retry.Config{
			MaxAttempts:   3,
			InitialDelay:  200 * time.Millisecond,
			MaxDelay:      2 * time.Second,
			Multiplier:    2.0,
			BackoffPolicy: retry.BackoffExponential,
			Jitter:        true,
			IsRetryable:   isTransient,
		}),
	}, nil
}

// errRetryableStatus marks a 502/503/504 response on an idempotent request.
var errRetryableStatus = errors.New("server unavailable")

func isTransient(err error) bool {
	if errors.Is(err, errRetryableStatus) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

// Signup creates an account and starts a session.
func (c *Client) Signup(ctx context.Context, username, email, password string) (*User, error) {
	var out struct {
		User User `json:"user"`
	}
	body := map[string]string{"username": username, "email": email, "password": password}
	if err := c.do(ctx, http.MethodPost, "/api/signup", nil, body, &out); err != nil {
		return nil, err
	}
	return &out.User, nil
}

// Login starts a session. identifier may be an email or a username.
func (c *Client) Login(ctx context.Context, identifier, password string) (*User, error) {
	body := map[string]string{"password": password}
	if domain.IsEmail(identifier) {
		body["email"] = identifier
	} else {
		body["username"] = identifier
	}
	var out struct {
		User User `json:"user"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/login", nil, body, &out); err != nil {
		return nil, err
	}
	return &out.User, nil
}

// Logout ends the session.
func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/api/logout", nil, nil, nil)
}

// Me returns the signed-in user.
func (c *Client) Me(ctx context.Context) (*User, error) {
	var out struct {
		User User `json:"user"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/me", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out.User, nil
}

// ListMovies fetches one page of the catalog.
func (c *Client) ListMovies(ctx context.Context, page, limit int) (*domain.MoviePage, error) {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("limit", strconv.Itoa(limit))
	var out domain.MoviePage
	if err := c.do(ctx, http.MethodGet, "/api/movies", q, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetMovie fetches one movie.
func (c *Client) GetMovie(ctx context.Context, id string) (*domain.Movie, error) {
	var out struct {
		Movie domain.Movie `json:"movie"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/movies/"+url.PathEscape(id), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out.Movie, nil
}

// CreateMovie adds a movie.
func (c *Client) CreateMovie(ctx context.Context, in domain.MovieInput) (*domain.Movie, error) {
	body := map[string]any{
		"title":          in.Title,
		"publishingYear": in.PublishingYear,
		"poster":         in.Poster,
	}
	var out struct {
		Movie domain.Movie `json:"movie"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/movies", nil, body, &out); err != nil {
		return nil, err
	}
	return &out.Movie, nil
}

// UpdateMovie applies a partial update. Nil fields are not sent.
func (c *Client) UpdateMovie(ctx context.Context, id string, p domain.MoviePatch) (*domain.Movie, error) {
	body := map[string]any{}
	if p.Title != nil {
		body["title"] = *p.Title
	}
	if p.PublishingYear != nil {
		body["publishingYear"] = *p.PublishingYear
	}
	if p.Poster != nil {
		body["poster"] = *p.Poster
	}
	var out struct {
		Movie domain.Movie `json:"movie"`
	}
	if err := c.do(ctx, http.MethodPatch, "/api/movies/"+url.PathEscape(id), nil, body, &out); err != nil {
		return nil, err
	}
	return &out.Movie, nil
}

// DeleteMovie removes a movie.
func (c *Client) DeleteMovie(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/movies/"+url.PathEscape(id), nil, nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, q url.Values, in, out any) error {
	var payload []byte
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		payload = b
	}

	u := *c.base
	u.Path = c.base.Path + path
	if q != nil {
		u.RawQuery = q.Encode()
	}

	send := func(ctx context.Context) (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, method, u.String(), bytes.NewReader(payload))
		if err != nil {
			return nil, fmt.Errorf("create request: %w", err)
		}
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		req.Header.Set("Accept", "application/json")
		resp, err := c.http.Do(req)
		if err != nil {
			return nil, err
		}
		if method == http.MethodGet && resp.StatusCode >= http.StatusBadGateway && resp.StatusCode <= http.StatusGatewayTimeout {
			resp.Body.Close()
			return nil, fmt.Errorf("%s %s: %d: %w", method, path, resp.StatusCode, errRetryableStatus)
		}
		return resp, nil
	}

	var (
		resp *http.Response
		err  error
	)
	if method == http.MethodGet {
		resp, err = c.retry.Do(ctx, send)
	} else {
		resp, err = send(ctx)
	}
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	apiErr := &APIError{Status: resp.StatusCode}
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	var body struct {
		Error string `json:"error"`
		Code  string `json:"code"`
		Field string `json:"field"`
	}
	if json.Unmarshal(data, &body) == nil && body.Error != "" {
		apiErr.Message, apiErr.Code, apiErr.Field = body.Error, body.Code, body.Field
	} else {
		apiErr.Message = strings.TrimSpace(string(data))
		if apiErr.Message == "" {
			apiErr.Message = http.StatusText(resp.StatusCode)
		}
	}
	return apiErr
}
