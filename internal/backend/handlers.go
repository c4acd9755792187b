package backend

import (
	"net/http"
	"strconv"

	"github.com/Raydius/tidal-dl-mcp/internal/models"
	"github.com/Raydius/tidal-dl-mcp/internal/tidal"
)

// intQuery parses an integer query parameter, falling back to def when the
// parameter is absent or malformed.
func intQuery(r *http.Request, name string, def int) int {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

// handleFavoriteTracks returns the user's favorite tracks, newest first.
// limit is clamped to [1, 50], default 10.
func (s *Server) handleFavoriteTracks(w http.ResponseWriter, r *http.Request, sess *tidal.Session) {
	limit := models.BoundLimit(intQuery(r, "limit", 10), maxFavoriteLimit)

	tracks, err := sess.FavoriteTracks(r.Context(), limit)
	if err != nil {
		s.fail(w, "Error fetching tracks", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"tracks": tracks})
}

// handleSearch searches the catalog for one query.
// limit is clamped to [1, 300], default 50.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request, sess *tidal.Session) {
	query := r.URL.Query().Get("q")
	if query == "" {
		writeError(w, http.StatusBadRequest, "Query parameter 'q' is required")
		return
	}

	searchType := r.URL.Query().Get("type")
	if searchType == "" {
		searchType = "all"
	}
	if !models.ValidSearchType(searchType) {
		writeError(w, http.StatusBadRequest,
			"Invalid search type '"+searchType+"'. Must be one of: track, album, artist, playlist, all")
		return
	}

	limit := models.BoundLimit(intQuery(r, "limit", 50), maxSearchLimit)

	results, err := sess.Search(r.Context(), query, searchType, limit)
	if err != nil {
		s.fail(w, "Search failed", err)
		return
	}

	writeJSON(w, http.StatusOK, results)
}

// handleTrackRecommendations returns radio tracks for one seed.
// limit is clamped to [1, 50], default 10.
func (s *Server) handleTrackRecommendations(w http.ResponseWriter, r *http.Request, sess *tidal.Session) {
	trackID := r.PathValue("id")
	limit := models.BoundLimit(intQuery(r, "limit", 10), maxRadioLimit)

	recommendations, err := sess.TrackRadio(r.Context(), trackID, limit)
	if err != nil {
		s.fail(w, "Error fetching recommendations", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"recommendations": recommendations})
}
