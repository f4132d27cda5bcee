package api

import (
	"crypto/subtle"
	"net/http"

	"github.com/lauolme/registro-app/internal/security"
)

// withAdmin guards admin routes with HTTP basic auth. The password is checked
// against the configured bcrypt hash; with no admin configured the route is
// closed.
func (s *Server) withAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.AdminUser == "" || s.AdminPassHash == "" {
			s.err(w, http.StatusForbidden, "admin disabled")
			return
		}
		user, pass, ok := r.BasicAuth()
		userOK := subtle.ConstantTimeCompare([]byte(user), []byte(s.AdminUser)) == 1
		if !ok || !security.CheckPassword(s.AdminPassHash, pass) || !userOK {
			s.Logger.Warn("admin auth failed",
				"request_id", requestID(r.Context()),
				"path", r.URL.Path,
				"remote", r.RemoteAddr,
			)
			w.Header().Set("WWW-Authenticate", `Basic realm="registro"`)
			s.err(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		s.Logger.Info("admin action", "request_id", requestID(r.Context()), "user", user, "path", r.URL.Path)
		next.ServeHTTP(w, r)
	})
}
