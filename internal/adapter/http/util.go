package adapthttp

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"moviecatalog/internal/domain"
)

// Error codes carried in error bodies.
const (
	codeBadRequest   = "BAD_REQUEST"
	codeValidation   = "VALIDATION"
	codeConflict     = "CONFLICT"
	codeUnauthorized = "UNAUTHORIZED"
	codeNotFound     = "NOT_FOUND"
	codeRateLimited  = "RATE_LIMITED"
	codeInternal     = "INTERNAL"
)

type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
	Field string `json:"field,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorBody{Error: err.Error(), Code: codeBadRequest})
}

// writeDomainError maps an application error onto a status code. Internal
// failures are logged and reported with a generic message.
func (s *Server) writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		ve *domain.ValidationError
		ce *domain.ConflictError
	)
	switch {
	case errors.As(err, &ve):
		s.log.WarnContext(r.Context(), "validation failed", "field", ve.Field, "error", ve.Message, "request_id", RequestID(r.Context()))
		writeJSON(w, http.StatusBadRequest, errorBody{Error: ve.Message, Code: codeValidation, Field: ve.Field})
	case errors.As(err, &ce):
		s.log.WarnContext(r.Context(), "conflict", "field", ce.Field, "request_id", RequestID(r.Context()))
		writeJSON(w, http.StatusBadRequest, errorBody{Error: ce.Message, Code: codeConflict, Field: ce.Field})
	case errors.Is(err, domain.ErrUnauthorized):
		writeJSON(w, http.StatusUnauthorized, errorBody{Error: err.Error(), Code: codeUnauthorized})
	case errors.Is(err, domain.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody{Error: "movie not found", Code: codeNotFound})
	default:
		s.log.ErrorContext(r.Context(), "request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", RequestID(r.Context()),
			"error", err,
		)
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal error", Code: codeInternal})
	}
}

func parseJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("invalid json: %w", err)
	}
	return nil
}

// intQuery parses a positive integer query parameter. Absent means fallback;
// anything else that is not an integer >= 1 is a validation error.
func intQuery(r *http.Request, key string, fallback int) (int, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		return 0, domain.Invalid(key, key+" must be a positive integer")
	}
	return n, nil
}

func withNoCache(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-store")
		next.ServeHTTP(w, r)
	})
}

// pages maps gated page routes to files under the web directory.
var pages = map[string]string{
	"/":       "index.html",
	"/add":    "add.html",
	"/login":  "login.html",
	"/signup": "signup.html",
}

func isPageFile(reqPath string) bool {
	name := strings.ToLower(path.Base(reqPath))
	if name == "edit.html" {
		return true
	}
	for _, page := range pages {
		if name == page {
			return true
		}
	}
	return false
}

// pagesFromDisk serves the catalog pages and any other static asset in dir.
func pagesFromDisk(dir string) http.Handler {
	fileServer := http.FileServer(http.Dir(dir))

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqPath := path.Clean(r.URL.Path)
		if name, ok := pages[reqPath]; ok {
			http.ServeFile(w, r, filepath.Join(dir, name))
			return
		}
		if strings.HasPrefix(reqPath, "/edit/") {
			http.ServeFile(w, r, filepath.Join(dir, "edit.html"))
			return
		}

		// Page files are only reachable through their gated routes.
		if isPageFile(reqPath) {
			http.NotFound(w, r)
			return
		}

		staticPath := filepath.Join(dir, filepath.FromSlash(reqPath))
		if fi, err := os.Stat(staticPath); err == nil && !fi.IsDir() {
			fileServer.ServeHTTP(w, r)
			return
		}
		http.NotFound(w, r)
	})
}

const sessionCookieName = "token"

func setSessionCookie(w http.ResponseWriter, token string, expiresAt time.Time, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
		Expires:  expiresAt,
		MaxAge:   int(time.Until(expiresAt).Seconds()),
	})
}

func clearSessionCookie(w http.ResponseWriter, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})
}
