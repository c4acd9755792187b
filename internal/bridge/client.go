// package bridge is the tool-server's typed client for the backend's loopback
// HTTP surface. Every tool call crosses this boundary; the client classifies
// transport failures so tools can tell "backend not running" apart from
// "request timed out" and "not authenticated".
package bridge

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/charmbracelet/log"

	"github.com/Raydius/tidal-dl-mcp/internal/downloader"
	"github.com/Raydius/tidal-dl-mcp/internal/models"
	"github.com/Raydius/tidal-dl-mcp/internal/shared"
	"github.com/Raydius/tidal-dl-mcp/internal/tidal"
)

// Per-operation timeouts. Download calls get the backend's subprocess budget
// plus headroom so the backend, not the bridge, is what times out first.
const (
	defaultTimeout  = 15 * time.Second
	extendedTimeout = 60 * time.Second
	timeoutHeadroom = 20 * time.Second
)

// Client talks to the backend over loopback HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *log.Logger
}

// New creates a bridge client for the backend at baseURL.
func New(baseURL string, logger *log.Logger) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{},
		logger:     logger,
	}
}

// apiError is the backend's error envelope.
type apiError struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func (e apiError) text() string {
	if e.Error != "" {
		return e.Error
	}
	return e.Message
}

// call performs one request against the backend and decodes the JSON response
// into out. Transport failures map to the shared error taxonomy.
func (c *Client) call(ctx context.Context, method, path string, query url.Values, body any, timeout time.Duration, out any) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	apiURL := c.baseURL + path
	if len(query) > 0 {
		apiURL += "?" + query.Encode()
	}

	var reqBody *bytes.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reqBody = bytes.NewReader(encoded)
	} else {
		reqBody = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, apiURL, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return fmt.Errorf("%w: %s %s exceeded %s", shared.ErrTimeout, method, path, timeout)
		}
		return fmt.Errorf("%w: %v", shared.ErrBackendUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var envelope apiError
		_ = json.NewDecoder(resp.Body).Decode(&envelope)
		msg := envelope.text()
		if msg == "" {
			msg = fmt.Sprintf("status %d", resp.StatusCode)
		}
		if resp.StatusCode == http.StatusUnauthorized {
			return fmt.Errorf("%w: %s", shared.ErrNotAuthenticated, msg)
		}
		return fmt.Errorf("backend error: %s", msg)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values, timeout time.Duration, out any) error {
	return c.call(ctx, http.MethodGet, path, query, nil, timeout, out)
}

func (c *Client) post(ctx context.Context, path string, body any, timeout time.Duration, out any) error {
	return c.call(ctx, http.MethodPost, path, nil, body, timeout, out)
}

// Health probes the backend's liveness route.
func (c *Client) Health(ctx context.Context) error {
	return c.get(ctx, "/api/health", nil, 5*time.Second, nil)
}

// LoginResult is the outcome of an interactive login.
type LoginResult struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	UserID  string `json:"user_id"`
}

// Login triggers the backend's interactive device-authorization flow. The user
// completes it in a browser, so the call may block for minutes.
func (c *Client) Login(ctx context.Context) (*LoginResult, error) {
	var result LoginResult
	if err := c.get(ctx, "/api/auth/login", nil, tidal.LoginTimeout+timeoutHeadroom, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// AuthStatus reports whether the backend holds a valid session.
type AuthStatus struct {
	Authenticated bool         `json:"authenticated"`
	Message       string       `json:"message"`
	User          *models.User `json:"user,omitempty"`
}

// CheckAuth returns the backend's current authentication state.
func (c *Client) CheckAuth(ctx context.Context) (*AuthStatus, error) {
	var status AuthStatus
	if err := c.get(ctx, "/api/auth/status", nil, defaultTimeout, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// Logout clears stored credentials on the backend.
func (c *Client) Logout(ctx context.Context) error {
	return c.post(ctx, "/api/auth/logout", nil, defaultTimeout, nil)
}

// FavoriteTracks returns the user's favorite tracks, newest first.
func (c *Client) FavoriteTracks(ctx context.Context, limit int) ([]models.Track, error) {
	query := url.Values{}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}

	var resp struct {
		Tracks []models.Track `json:"tracks"`
	}
	if err := c.get(ctx, "/api/tracks", query, defaultTimeout, &resp); err != nil {
		return nil, err
	}
	return resp.Tracks, nil
}

// Search runs a single catalog search.
func (c *Client) Search(ctx context.Context, q, searchType string, limit int) (*models.SearchResults, error) {
	query := url.Values{}
	query.Set("q", q)
	if searchType != "" {
		query.Set("type", searchType)
	}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}

	var results models.SearchResults
	if err := c.get(ctx, "/api/search", query, defaultTimeout, &results); err != nil {
		return nil, err
	}
	return &results, nil
}

// BatchSearchResponse is the backend's batch search envelope.
type BatchSearchResponse struct {
	Results []models.BatchSearchResult `json:"results"`
	Total   int                        `json:"total"`
}

// BatchSearch runs up to 100 searches in one backend round trip.
func (c *Client) BatchSearch(ctx context.Context, queries []models.QueryItem, limitPerQuery int) (*BatchSearchResponse, error) {
	body := map[string]any{"queries": queries}
	if limitPerQuery > 0 {
		body["limit_per_query"] = limitPerQuery
	}

	var resp BatchSearchResponse
	if err := c.post(ctx, "/api/search/batch", body, extendedTimeout, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// TrackRecommendations returns radio tracks for one seed.
func (c *Client) TrackRecommendations(ctx context.Context, trackID string, limit int) ([]models.Track, error) {
	query := url.Values{}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}

	var resp struct {
		Recommendations []models.Track `json:"recommendations"`
	}
	path := "/api/recommendations/track/" + url.PathEscape(trackID)
	if err := c.get(ctx, path, query, defaultTimeout, &resp); err != nil {
		return nil, err
	}
	return resp.Recommendations, nil
}

// BatchRecommendations fans radio lookups across all seeds in one backend
// round trip. The merged result is unordered.
func (c *Client) BatchRecommendations(ctx context.Context, trackIDs []string, limitPerTrack int, removeDuplicates bool) ([]models.Track, error) {
	body := map[string]any{
		"track_ids":         trackIDs,
		"remove_duplicates": removeDuplicates,
	}
	if limitPerTrack > 0 {
		body["limit_per_track"] = limitPerTrack
	}

	var resp struct {
		Recommendations []models.Track `json:"recommendations"`
	}
	if err := c.post(ctx, "/api/recommendations/batch", body, extendedTimeout, &resp); err != nil {
		return nil, err
	}
	return resp.Recommendations, nil
}

// CreatePlaylistResult is the outcome of a create-and-populate operation.
type CreatePlaylistResult struct {
	Status      string           `json:"status"`
	Message     string           `json:"message"`
	Playlist    *models.Playlist `json:"playlist,omitempty"`
	TracksAdded int              `json:"tracks_added"`
}

// CreatePlaylist creates a playlist and fills it with the given tracks.
func (c *Client) CreatePlaylist(ctx context.Context, title, description string, trackIDs []string) (*CreatePlaylistResult, error) {
	body := map[string]any{
		"title":       title,
		"description": description,
		"track_ids":   trackIDs,
	}

	var result CreatePlaylistResult
	if err := c.post(ctx, "/api/playlists", body, extendedTimeout, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Playlists returns the user's playlists, most recently updated first.
func (c *Client) Playlists(ctx context.Context) ([]models.Playlist, error) {
	var resp struct {
		Playlists []models.Playlist `json:"playlists"`
	}
	if err := c.get(ctx, "/api/playlists", nil, defaultTimeout, &resp); err != nil {
		return nil, err
	}
	return resp.Playlists, nil
}

// PlaylistTracksResult is one page of a playlist's tracks.
type PlaylistTracksResult struct {
	PlaylistID     string         `json:"playlist_id"`
	PlaylistTitle  string         `json:"playlist_title"`
	Tracks         []models.Track `json:"tracks"`
	TotalTracks    int            `json:"total_tracks"`
	TotalAvailable int            `json:"total_available"`
	Offset         int            `json:"offset"`
	Limit          int            `json:"limit"`
}

// PlaylistTracks returns one page of a playlist's tracks.
func (c *Client) PlaylistTracks(ctx context.Context, playlistID string, limit, offset int) (*PlaylistTracksResult, error) {
	query := url.Values{}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}
	if offset > 0 {
		query.Set("offset", strconv.Itoa(offset))
	}

	var result PlaylistTracksResult
	path := "/api/playlists/" + url.PathEscape(playlistID) + "/tracks"
	if err := c.get(ctx, path, query, defaultTimeout, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// AddTracksResult is the outcome of appending tracks to a playlist.
type AddTracksResult struct {
	Status      string `json:"status"`
	Message     string `json:"message"`
	PlaylistID  string `json:"playlist_id"`
	TracksAdded int    `json:"tracks_added"`
}

// AddPlaylistTracks appends tracks to an existing playlist.
func (c *Client) AddPlaylistTracks(ctx context.Context, playlistID string, trackIDs []string, allowDuplicates bool) (*AddTracksResult, error) {
	body := map[string]any{
		"track_ids":        trackIDs,
		"allow_duplicates": allowDuplicates,
	}

	var result AddTracksResult
	path := "/api/playlists/" + url.PathEscape(playlistID) + "/tracks"
	if err := c.post(ctx, path, body, extendedTimeout, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// DeletePlaylist removes a playlist from the user's account.
func (c *Client) DeletePlaylist(ctx context.Context, playlistID string) error {
	path := "/api/playlists/" + url.PathEscape(playlistID)
	return c.call(ctx, http.MethodDelete, path, nil, nil, defaultTimeout, nil)
}

// DownloadStatus reports whether the download CLI is available.
func (c *Client) DownloadStatus(ctx context.Context) (*downloader.Status, error) {
	var status downloader.Status
	if err := c.get(ctx, "/api/download/status", nil, defaultTimeout, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// DownloadResult is the outcome of a CLI download.
type DownloadResult struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	URL     string `json:"url,omitempty"`
	Output  string `json:"output,omitempty"`
}

// DownloadTrack downloads one track via the backend's CLI integration.
func (c *Client) DownloadTrack(ctx context.Context, trackID string) (*DownloadResult, error) {
	return c.download(ctx, "/api/download/track", trackID, downloader.TrackTimeout)
}

// DownloadAlbum downloads a full album.
func (c *Client) DownloadAlbum(ctx context.Context, albumID string) (*DownloadResult, error) {
	return c.download(ctx, "/api/download/album", albumID, downloader.AlbumTimeout)
}

// DownloadPlaylist downloads a full playlist.
func (c *Client) DownloadPlaylist(ctx context.Context, playlistID string) (*DownloadResult, error) {
	return c.download(ctx, "/api/download/playlist", playlistID, downloader.PlaylistTimeout)
}

func (c *Client) download(ctx context.Context, path, id string, backendTimeout time.Duration) (*DownloadResult, error) {
	var result DownloadResult
	body := map[string]string{"id": id}
	if err := c.post(ctx, path, body, backendTimeout+timeoutHeadroom, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// DownloadFavorites downloads a whole favorites category.
func (c *Client) DownloadFavorites(ctx context.Context, favoriteType string) (*DownloadResult, error) {
	var result DownloadResult
	body := map[string]string{"type": favoriteType}
	timeout := downloader.FavoritesTimeout + timeoutHeadroom
	if err := c.post(ctx, "/api/download/favorites", body, timeout, &result); err != nil {
		return nil, err
	}
	return &result, nil
}
