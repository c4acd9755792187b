package backend

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/Raydius/tidal-dl-mcp/internal/downloader"
	"github.com/Raydius/tidal-dl-mcp/internal/models"
	"github.com/Raydius/tidal-dl-mcp/internal/shared"
)

// handleDownloadStatus reports whether the download CLI is installed. It does
// not require a session; CLI auth is independent of the backend's.
func (s *Server) handleDownloadStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.downloader.CheckStatus(r.Context()))
}

type downloadRequest struct {
	ID seedID `json:"id"`
}

// handleDownloadTrack downloads one track via the CLI.
func (s *Server) handleDownloadTrack(w http.ResponseWriter, r *http.Request) {
	s.downloadContent(w, r, "track", downloader.TrackTimeout)
}

// handleDownloadAlbum downloads a full album via the CLI.
func (s *Server) handleDownloadAlbum(w http.ResponseWriter, r *http.Request) {
	s.downloadContent(w, r, "album", downloader.AlbumTimeout)
}

// handleDownloadPlaylist downloads a full playlist via the CLI.
func (s *Server) handleDownloadPlaylist(w http.ResponseWriter, r *http.Request) {
	s.downloadContent(w, r, "playlist", downloader.PlaylistTimeout)
}

// downloadContent runs a CLI download for one content URL, with the timeout
// chosen by content type.
func (s *Server) downloadContent(w http.ResponseWriter, r *http.Request, contentType string, timeout time.Duration) {
	var req downloadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ID == "" {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Missing '%s_id' in request body", contentType))
		return
	}

	url := models.ContentURL(contentType, string(req.ID))
	result, err := s.downloader.DownloadURL(r.Context(), url, timeout)
	if err != nil {
		s.downloadError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "success",
		"message": fmt.Sprintf("Downloaded %s %s", contentType, req.ID),
		"url":     url,
		"output":  result.Output,
	})
}

type downloadFavoritesRequest struct {
	Type string `json:"type"`
}

// handleDownloadFavorites downloads a whole favorites category.
func (s *Server) handleDownloadFavorites(w http.ResponseWriter, r *http.Request) {
	req := downloadFavoritesRequest{Type: "tracks"}
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&req)
	}
	if req.Type == "" {
		req.Type = "tracks"
	}

	result, err := s.downloader.DownloadFavorites(r.Context(), req.Type, downloader.FavoritesTimeout)
	if err != nil {
		s.downloadError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "success",
		"message": fmt.Sprintf("Downloaded favorite %s", req.Type),
		"output":  result.Output,
	})
}

// downloadError maps downloader failures to distinct response shapes so the
// tool-server can surface an actionable message for each.
func (s *Server) downloadError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, shared.ErrToolNotInstalled):
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status":  "error",
			"message": "tidal-dl-ng is not installed. Install with: pip install tidal-dl-ng",
		})
	case errors.Is(err, shared.ErrToolNotAuthenticated):
		writeJSON(w, http.StatusUnauthorized, map[string]string{
			"status":  "error",
			"message": "tidal-dl-ng is not authenticated. Run 'tdn login' in a terminal first",
		})
	case errors.Is(err, shared.ErrTimeout):
		writeJSON(w, http.StatusGatewayTimeout, map[string]string{
			"status":  "error",
			"message": err.Error(),
		})
	case errors.Is(err, shared.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		s.logger.Error("download failed", "err", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"status":  "error",
			"message": err.Error(),
		})
	}
}
