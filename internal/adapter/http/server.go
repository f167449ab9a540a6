package adapthttp

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"moviecatalog/internal/app"

	"github.com/felixgeelhaar/fortify/ratelimit"
)

// Options configures a Server.
type Options struct {
	WebDir string
	// SecureCookie marks the session cookie Secure.
	SecureCookie bool
	// VerifyTokens makes the page gate check token signatures. When false
	// the gate only looks at cookie presence.
	VerifyTokens bool
	// AuthRatePerMinute limits signup and login attempts per client IP.
	// Zero disables limiting.
	AuthRatePerMinute int
	// Ready reports whether the backing store is reachable.
	Ready  func(ctx context.Context) error
	OIDC   *OIDCConfig
	Logger *slog.Logger
}

// Server is the driving HTTP adapter that routes requests to application
// services.
type Server struct {
	auth    *app.AuthService
	catalog *app.CatalogService
	opts    Options
	log     *slog.Logger
	limiter ratelimit.RateLimiter
}

// New creates a Server wired to the given application services.
func New(auth *app.AuthService, catalog *app.CatalogService, opts Options) *Server {
	s := &Server{auth: auth, catalog: catalog, opts: opts, log: opts.Logger}
	if s.log == nil {
		s.log = slog.Default()
	}
	if opts.OIDC == nil {
		s.opts.OIDC = &OIDCConfig{}
	}
	if opts.AuthRatePerMinute > 0 {
		s.limiter = ratelimit.New(&ratelimit.Config{
			Rate:     opts.AuthRatePerMinute,
			Burst:    opts.AuthRatePerMinute,
			Interval: time.Minute,
		})
	}
	return s
}

// Close releases background resources held by the server.
func (s *Server) Close() error {
	if s.limiter != nil {
		return s.limiter.Close()
	}
	return nil
}

// Handler returns the root http.Handler for the application.
func (s *Server) Handler() http.Handler {
	api := http.NewServeMux()
	api.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	})
	api.HandleFunc("/ready", s.handleReady)

	api.Handle("/signup", s.rateLimited(http.HandlerFunc(s.handleSignup)))
	api.Handle("/login", s.rateLimited(http.HandlerFunc(s.handleLogin)))
	api.HandleFunc("/logout", s.handleLogout)
	api.Handle("/me", s.requireSession(http.HandlerFunc(s.handleMe)))

	api.HandleFunc("/sso/login", s.handleSSOLogin)
	api.HandleFunc("/sso/callback", s.handleSSOCallback)
	api.HandleFunc("/config", s.handleConfig)

	api.Handle("/movies", s.requireSession(http.HandlerFunc(s.handleMovies)))
	api.Handle("/movies/{id}", s.requireSession(http.HandlerFunc(s.handleMovie)))

	root := http.NewServeMux()
	root.Handle("/api/", withNoCache(http.StripPrefix("/api", api)))
	root.Handle("/", s.accessGate(pagesFromDisk(s.opts.WebDir)))

	return s.withRequestID(s.loggingMiddleware(s.recoverMiddleware(root)))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.opts.Ready != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.opts.Ready(ctx); err != nil {
			s.log.WarnContext(r.Context(), "readiness check failed", "error", err)
			writeJSON(w, http.StatusServiceUnavailable, map[string]any{"ok": false})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}
