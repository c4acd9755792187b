package backend

import (
	"encoding/json"
	"net/http"
	"sort"
	"strings"

	"github.com/Raydius/tidal-dl-mcp/internal/models"
	"github.com/Raydius/tidal-dl-mcp/internal/tidal"
)

type createPlaylistRequest struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	TrackIDs    []seedID `json:"track_ids"`
}

// handleCreatePlaylist creates a playlist and populates it in one operation.
// The playlist exists even if populating it fails; that outcome is reported as
// an error so the caller can retry the add.
func (s *Server) handleCreatePlaylist(w http.ResponseWriter, r *http.Request, sess *tidal.Session) {
	var req createPlaylistRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.Title) == "" {
		writeError(w, http.StatusBadRequest, "Missing 'title' in request body")
		return
	}
	if len(req.TrackIDs) == 0 {
		writeError(w, http.StatusBadRequest, "Missing 'track_ids' in request body")
		return
	}

	playlist, err := sess.CreatePlaylist(r.Context(), req.Title, req.Description)
	if err != nil {
		s.fail(w, "Failed to create playlist", err)
		return
	}

	trackIDs := make([]string, len(req.TrackIDs))
	for i, id := range req.TrackIDs {
		trackIDs[i] = string(id)
	}

	added, err := sess.AddPlaylistTracks(r.Context(), playlist.ID, trackIDs, false)
	if err != nil {
		s.logger.Error("created playlist but failed to add tracks", "playlist_id", playlist.ID, "err", err)
		writeJSON(w, http.StatusInternalServerError, map[string]any{
			"status":   "error",
			"message":  "Playlist created but adding tracks failed",
			"playlist": playlist,
		})
		return
	}

	s.logger.Info("playlist created", "playlist_id", playlist.ID, "tracks_added", added)

	writeJSON(w, http.StatusOK, map[string]any{
		"status":       "success",
		"message":      "Playlist created",
		"playlist":     playlist,
		"tracks_added": added,
	})
}

// handleListPlaylists returns all of the user's playlists, most recently
// updated first.
func (s *Server) handleListPlaylists(w http.ResponseWriter, r *http.Request, sess *tidal.Session) {
	playlists, err := sess.Playlists(r.Context())
	if err != nil {
		s.fail(w, "Error fetching playlists", err)
		return
	}

	sort.SliceStable(playlists, func(i, j int) bool {
		return playlists[i].LastUpdated > playlists[j].LastUpdated
	})

	writeJSON(w, http.StatusOK, map[string]any{"playlists": playlists})
}

// handlePlaylistTracks returns one page of a playlist's tracks.
// limit is clamped to [1, 500], default 100; offset is clamped to >= 0.
func (s *Server) handlePlaylistTracks(w http.ResponseWriter, r *http.Request, sess *tidal.Session) {
	playlistID := r.PathValue("id")

	limit := models.BoundLimit(intQuery(r, "limit", 100), maxPlaylistLimit)
	offset := intQuery(r, "offset", 0)
	if offset < 0 {
		offset = 0
	}

	playlist, _, err := sess.Playlist(r.Context(), playlistID)
	if err != nil {
		s.fail(w, "Error fetching playlist", err)
		return
	}

	tracks, err := sess.PlaylistItems(r.Context(), playlistID, limit, offset)
	if err != nil {
		s.fail(w, "Error fetching playlist tracks", err)
		return
	}
	if tracks == nil {
		tracks = []models.Track{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"playlist_id":     playlistID,
		"playlist_title":  playlist.Title,
		"tracks":          tracks,
		"total_tracks":    len(tracks),
		"total_available": playlist.NumTracks,
		"offset":          offset,
		"limit":           limit,
	})
}

type addTracksRequest struct {
	TrackIDs        []seedID `json:"track_ids"`
	AllowDuplicates bool     `json:"allow_duplicates"`
}

// handleAddPlaylistTracks appends tracks to an existing playlist. Duplicates
// already in the playlist are skipped unless allow_duplicates is set.
func (s *Server) handleAddPlaylistTracks(w http.ResponseWriter, r *http.Request, sess *tidal.Session) {
	playlistID := r.PathValue("id")

	var req addTracksRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if len(req.TrackIDs) == 0 {
		writeError(w, http.StatusBadRequest, "Missing 'track_ids' in request body")
		return
	}

	trackIDs := make([]string, len(req.TrackIDs))
	for i, id := range req.TrackIDs {
		trackIDs[i] = string(id)
	}

	added, err := sess.AddPlaylistTracks(r.Context(), playlistID, trackIDs, req.AllowDuplicates)
	if err != nil {
		s.fail(w, "Failed to add tracks", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":       "success",
		"message":      "Tracks added to playlist",
		"playlist_id":  playlistID,
		"tracks_added": added,
	})
}

// handleDeletePlaylist removes a playlist from the user's account.
func (s *Server) handleDeletePlaylist(w http.ResponseWriter, r *http.Request, sess *tidal.Session) {
	playlistID := r.PathValue("id")

	if err := sess.DeletePlaylist(r.Context(), playlistID); err != nil {
		s.fail(w, "Failed to delete playlist", err)
		return
	}

	s.logger.Info("playlist deleted", "playlist_id", playlistID)

	writeJSON(w, http.StatusOK, map[string]any{
		"status":      "success",
		"message":     "Playlist deleted",
		"playlist_id": playlistID,
	})
}
