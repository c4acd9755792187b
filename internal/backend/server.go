package backend

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"

	"github.com/Raydius/tidal-dl-mcp/internal/downloader"
	"github.com/Raydius/tidal-dl-mcp/internal/session"
	"github.com/Raydius/tidal-dl-mcp/internal/shared"
	"github.com/Raydius/tidal-dl-mcp/internal/tidal"
)

// Request bounds for the route surface.
const (
	maxBatchQueries  = 100
	maxFavoriteLimit = 50
	maxSearchLimit   = 300
	maxBatchLimit    = 20
	maxRadioLimit    = 50
	maxPlaylistLimit = 500

	// remoteRequestsPerSecond bounds the rate of outbound calls the batch
	// paths make against the remote API.
	remoteRequestsPerSecond = 8
)

// Server is the backend HTTP process. It owns the session cache, the TIDAL
// client, and the download CLI integration; each inbound request is handled on
// its own goroutine, so the cache and the batch accumulators are the only
// cross-request shared mutable state.
type Server struct {
	config     *shared.Config
	logger     *log.Logger
	client     *tidal.Client
	sessions   *session.Cache
	downloader *downloader.Downloader
	limiter    *rate.Limiter
	router     *Router
}

// NewServer wires a backend Server. The session cache restores sessions from
// the credential file named by the config.
func NewServer(cfg *shared.Config, logger *log.Logger, client *tidal.Client, opts ...session.Option) *Server {
	restore := func(ctx context.Context) (*tidal.Session, error) {
		return client.Restore(ctx, cfg.SessionFile)
	}

	s := &Server{
		config:     cfg,
		logger:     logger,
		client:     client,
		sessions:   session.NewCache(restore, logger, opts...),
		downloader: downloader.New(logger),
		limiter:    rate.NewLimiter(rate.Limit(remoteRequestsPerSecond), remoteRequestsPerSecond),
	}
	s.router = s.routes()
	return s
}

// Sessions exposes the session cache (used by tests and the login route).
func (s *Server) Sessions() *session.Cache {
	return s.sessions
}

// Handler returns the fully wired HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// routes registers every route on a fresh router.
func (s *Server) routes() *Router {
	r := NewRouter()
	r.Use(RecoverMiddleware(s.logger), LoggingMiddleware(s.logger))

	r.HandleFunc(http.MethodGet, "/api/health", s.handleHealth)
	r.HandleFunc(http.MethodGet, "/api/auth/login", s.handleLogin)
	r.HandleFunc(http.MethodGet, "/api/auth/status", s.handleAuthStatus)
	r.HandleFunc(http.MethodPost, "/api/auth/logout", s.handleLogout)

	r.HandleFunc(http.MethodGet, "/api/tracks", s.requireSession(s.handleFavoriteTracks))
	r.HandleFunc(http.MethodGet, "/api/search", s.requireSession(s.handleSearch))
	r.HandleFunc(http.MethodPost, "/api/search/batch", s.requireSession(s.handleBatchSearch))

	r.HandleFunc(http.MethodGet, "/api/recommendations/track/{id}", s.requireSession(s.handleTrackRecommendations))
	r.HandleFunc(http.MethodPost, "/api/recommendations/batch", s.requireSession(s.handleBatchRecommendations))

	r.HandleFunc(http.MethodPost, "/api/playlists", s.requireSession(s.handleCreatePlaylist))
	r.HandleFunc(http.MethodGet, "/api/playlists", s.requireSession(s.handleListPlaylists))
	r.HandleFunc(http.MethodGet, "/api/playlists/{id}/tracks", s.requireSession(s.handlePlaylistTracks))
	r.HandleFunc(http.MethodPost, "/api/playlists/{id}/tracks", s.requireSession(s.handleAddPlaylistTracks))
	r.HandleFunc(http.MethodDelete, "/api/playlists/{id}", s.requireSession(s.handleDeletePlaylist))

	r.HandleFunc(http.MethodGet, "/api/download/status", s.handleDownloadStatus)
	r.HandleFunc(http.MethodPost, "/api/download/track", s.handleDownloadTrack)
	r.HandleFunc(http.MethodPost, "/api/download/album", s.handleDownloadAlbum)
	r.HandleFunc(http.MethodPost, "/api/download/playlist", s.handleDownloadPlaylist)
	r.HandleFunc(http.MethodPost, "/api/download/favorites", s.handleDownloadFavorites)

	return r
}

// sessionHandler is a route handler that requires an authenticated session.
// The session is bound for the duration of the single request only.
type sessionHandler func(w http.ResponseWriter, r *http.Request, sess *tidal.Session)

// requireSession gates a handler behind the session cache contract: absence of
// a session yields 401 with a stable "Not authenticated" error, never a
// generic failure.
func (s *Server) requireSession(h sessionHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := s.sessions.GetOrCreate(r.Context())
		if sess == nil {
			writeError(w, http.StatusUnauthorized, "Not authenticated")
			return
		}
		h(w, r, sess)
	}
}

// fail maps a downstream error to the route response. A not-authenticated
// error also invalidates the cache so the next request revalidates.
func (s *Server) fail(w http.ResponseWriter, context string, err error) {
	switch {
	case errors.Is(err, shared.ErrNotAuthenticated):
		s.sessions.Invalidate()
		writeError(w, http.StatusUnauthorized, "Not authenticated")
	case errors.Is(err, shared.ErrNotFound), errors.Is(err, shared.ErrPlaylistNotFound):
		writeError(w, http.StatusNotFound, fmt.Sprintf("%s: %v", context, err))
	case errors.Is(err, shared.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, fmt.Sprintf("%s: %v", context, err))
	default:
		s.logger.Error(context, "err", err)
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("%s: %v", context, err))
	}
}

// Run serves the RPC surface on the configured loopback port until the context
// is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf("127.0.0.1:%d", s.config.Port),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("backend listening", "addr", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
