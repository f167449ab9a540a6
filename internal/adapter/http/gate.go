package adapthttp

import (
	"net/http"
	"path"
	"strings"
)

// Page destinations used by the gate.
const (
	homePath  = "/"
	loginPath = "/login"
)

type routeClass int

const (
	routeOpen routeClass = iota
	routeProtected
	routeAuthOnly
)

// classify partitions page paths. Protected pages need a session; auth-only
// pages must not be visited with one.
func classify(p string) routeClass {
	p = path.Clean("/" + p)
	switch {
	case p == "/" || p == "/add" || p == "/edit" || strings.HasPrefix(p, "/edit/"):
		return routeProtected
	case p == "/login" || p == "/signup":
		return routeAuthOnly
	}
	return routeOpen
}

// gateRedirect returns where to send the request, or "" to pass through.
func gateRedirect(class routeClass, hasSession bool) string {
	switch {
	case hasSession && class == routeAuthOnly:
		return homePath
	case !hasSession && class == routeProtected:
		return loginPath
	}
	return ""
}

// accessGate redirects page requests by route class and session state.
// An unverifiable token counts as no session and its cookie is cleared.
func (s *Server) accessGate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		class := classify(r.URL.Path)
		if class == routeOpen {
			next.ServeHTTP(w, r)
			return
		}

		hasSession := false
		if cookie, err := r.Cookie(sessionCookieName); err == nil && cookie.Value != "" {
			if !s.opts.VerifyTokens {
				hasSession = true
			} else if userID, err := s.auth.VerifyToken(cookie.Value); err == nil {
				hasSession = true
				r = withUserID(r, userID)
			} else {
				clearSessionCookie(w, s.opts.SecureCookie)
			}
		}

		if target := gateRedirect(class, hasSession); target != "" {
			http.Redirect(w, r, target, http.StatusFound)
			return
		}
		next.ServeHTTP(w, r)
	})
}
