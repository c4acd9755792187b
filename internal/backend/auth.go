package backend

import (
	"context"
	"net/http"

	"github.com/Raydius/tidal-dl-mcp/internal/tidal"
)

// handleHealth is the liveness probe the supervisor polls during startup.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleLogin runs the interactive device-authorization flow. The browser wait
// dominates, so the route is bounded by the login timeout rather than the
// caller's usual short request timeout.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), tidal.LoginTimeout)
	defer cancel()

	sess, err := s.client.Login(ctx, s.config.SessionFile)
	if err != nil {
		s.logger.Error("login failed", "err", err)
		if ctx.Err() != nil {
			writeJSON(w, http.StatusRequestTimeout, map[string]string{
				"status":  "error",
				"message": "Authentication timed out",
			})
			return
		}
		writeJSON(w, http.StatusUnauthorized, map[string]string{
			"status":  "error",
			"message": "Authentication failed",
		})
		return
	}

	// The fresh session replaces whatever the cache held.
	s.sessions.Invalidate()

	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "success",
		"message": "Successfully authenticated with TIDAL",
		"user_id": sess.User.ID,
	})
}

// handleAuthStatus reports whether a valid session exists, via the cache, with
// no side effects beyond a possible revalidation.
func (s *Server) handleAuthStatus(w http.ResponseWriter, r *http.Request) {
	sess := s.sessions.GetOrCreate(r.Context())
	if sess == nil {
		writeJSON(w, http.StatusOK, map[string]any{
			"authenticated": false,
			"message":       "No valid session",
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"authenticated": true,
		"message":       "Valid TIDAL session",
		"user":          sess.User,
	})
}

// handleLogout removes the credential file and invalidates the session cache.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := tidal.RemoveCredentials(s.config.SessionFile); err != nil {
		s.fail(w, "logout failed", err)
		return
	}
	s.sessions.Invalidate()

	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "success",
		"message": "Logged out",
	})
}
