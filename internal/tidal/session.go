package tidal

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/Raydius/tidal-dl-mcp/internal/models"
	"github.com/Raydius/tidal-dl-mcp/internal/shared"
)

// Session is an authenticated handle to one TIDAL account. It carries no
// mutable state beyond the token and is safe for concurrent use; requests go
// through the owning client's HTTP client.
type Session struct {
	client      *Client
	accessToken string
	countryCode string

	User models.User
}

// apiError is the error envelope returned by the TIDAL API.
type apiError struct {
	Status      int    `json:"status"`
	SubStatus   int    `json:"subStatus"`
	UserMessage string `json:"userMessage"`
}

type apiArtist struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type apiAlbum struct {
	ID             int64      `json:"id"`
	Title          string     `json:"title"`
	ReleaseDate    string     `json:"releaseDate"`
	NumberOfTracks int        `json:"numberOfTracks"`
	Duration       int        `json:"duration"`
	Artist         *apiArtist `json:"artist"`
}

type apiTrack struct {
	ID       int64      `json:"id"`
	Title    string     `json:"title"`
	Duration int        `json:"duration"`
	Artist   *apiArtist `json:"artist"`
	Album    *apiAlbum  `json:"album"`
}

type apiPlaylist struct {
	UUID           string `json:"uuid"`
	Title          string `json:"title"`
	Description    string `json:"description"`
	Created        string `json:"created"`
	LastUpdated    string `json:"lastUpdated"`
	NumberOfTracks int    `json:"numberOfTracks"`
	Duration       int    `json:"duration"`
}

type trackPage struct {
	Items []apiTrack `json:"items"`
}

// do performs an authenticated request against the API. Responses outside the
// 2xx range are decoded into the API error envelope.
func (s *Session) do(ctx context.Context, method, endpoint string, query url.Values, body io.Reader, contentType string, result any) (http.Header, error) {
	if query == nil {
		query = url.Values{}
	}
	if s.countryCode != "" {
		query.Set("countryCode", s.countryCode)
	}

	apiURL := s.client.baseURL + endpoint
	if len(query) > 0 {
		apiURL += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, apiURL, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.accessToken)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := s.client.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr apiError
		_ = json.NewDecoder(resp.Body).Decode(&apiErr)
		switch resp.StatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			return nil, fmt.Errorf("%w: status %d", shared.ErrNotAuthenticated, resp.StatusCode)
		case http.StatusNotFound:
			return nil, fmt.Errorf("%w: %s", shared.ErrNotFound, strings.TrimPrefix(endpoint, "/"))
		default:
			msg := apiErr.UserMessage
			if msg == "" {
				msg = fmt.Sprintf("status %d", resp.StatusCode)
			}
			return nil, fmt.Errorf("%w: %s", shared.ErrAPIRequest, msg)
		}
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return nil, fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return resp.Header, nil
}

func (s *Session) get(ctx context.Context, endpoint string, query url.Values, result any) error {
	_, err := s.do(ctx, http.MethodGet, endpoint, query, nil, "", result)
	return err
}

func (s *Session) postForm(ctx context.Context, endpoint string, form url.Values, header http.Header, result any) error {
	apiURL := s.client.baseURL + endpoint
	q := url.Values{}
	if s.countryCode != "" {
		q.Set("countryCode", s.countryCode)
		apiURL += "?" + q.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.accessToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	resp, err := s.client.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if resp.StatusCode == http.StatusNotFound {
			return fmt.Errorf("%w: %s", shared.ErrNotFound, strings.TrimPrefix(endpoint, "/"))
		}
		return fmt.Errorf("%w: status %d", shared.ErrAPIRequest, resp.StatusCode)
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

// FavoriteTracks retrieves the user's favorite tracks, most recently added first.
func (s *Session) FavoriteTracks(ctx context.Context, limit int) ([]models.Track, error) {
	query := url.Values{}
	query.Set("limit", strconv.Itoa(limit))
	query.Set("order", "DATE")
	query.Set("orderDirection", "DESC")

	var page struct {
		Items []struct {
			Item apiTrack `json:"item"`
		} `json:"items"`
	}
	endpoint := fmt.Sprintf("/users/%s/favorites/tracks", s.User.ID)
	if err := s.get(ctx, endpoint, query, &page); err != nil {
		return nil, err
	}

	tracks := make([]models.Track, 0, len(page.Items))
	for _, item := range page.Items {
		tracks = append(tracks, item.Item.toModel())
	}
	return tracks, nil
}

// searchTypeParams maps content types to the API's types parameter.
var searchTypeParams = map[string]string{
	"track":    "TRACKS",
	"album":    "ALBUMS",
	"artist":   "ARTISTS",
	"playlist": "PLAYLISTS",
	"all":      "TRACKS,ALBUMS,ARTISTS,PLAYLISTS",
}

// Search queries the catalog. searchType must be one of track, album, artist,
// playlist, or all; limit applies per content type.
func (s *Session) Search(ctx context.Context, q, searchType string, limit int) (*models.SearchResults, error) {
	types, ok := searchTypeParams[searchType]
	if !ok {
		return nil, fmt.Errorf("%w: search type %q", shared.ErrInvalidInput, searchType)
	}

	query := url.Values{}
	query.Set("query", q)
	query.Set("types", types)
	query.Set("limit", strconv.Itoa(limit))

	var raw struct {
		Tracks trackPage `json:"tracks"`
		Albums struct {
			Items []apiAlbum `json:"items"`
		} `json:"albums"`
		Artists struct {
			Items []apiArtist `json:"items"`
		} `json:"artists"`
		Playlists struct {
			Items []apiPlaylist `json:"items"`
		} `json:"playlists"`
		TopHit *struct {
			Type  string          `json:"type"`
			Value json.RawMessage `json:"value"`
		} `json:"topHit"`
	}
	if err := s.get(ctx, "/search", query, &raw); err != nil {
		return nil, err
	}

	results := &models.SearchResults{}
	for _, t := range raw.Tracks.Items {
		results.Tracks = append(results.Tracks, t.toModel())
	}
	for _, a := range raw.Albums.Items {
		results.Albums = append(results.Albums, a.toModel())
	}
	for _, a := range raw.Artists.Items {
		results.Artists = append(results.Artists, a.toModel())
	}
	for _, p := range raw.Playlists.Items {
		results.Playlists = append(results.Playlists, p.toModel())
	}
	if raw.TopHit != nil {
		results.TopHit = decodeTopHit(raw.TopHit.Type, raw.TopHit.Value)
	}
	return results, nil
}

// decodeTopHit converts the API's top hit envelope into a typed record.
// An unrecognized type yields nil rather than an error.
func decodeTopHit(kind string, value json.RawMessage) *models.TopHit {
	switch strings.ToUpper(kind) {
	case "TRACKS", "TRACK":
		var t apiTrack
		if json.Unmarshal(value, &t) == nil {
			return &models.TopHit{Type: "track", Data: t.toModel()}
		}
	case "ALBUMS", "ALBUM":
		var a apiAlbum
		if json.Unmarshal(value, &a) == nil {
			return &models.TopHit{Type: "album", Data: a.toModel()}
		}
	case "ARTISTS", "ARTIST":
		var a apiArtist
		if json.Unmarshal(value, &a) == nil {
			return &models.TopHit{Type: "artist", Data: a.toModel()}
		}
	case "PLAYLISTS", "PLAYLIST":
		var p apiPlaylist
		if json.Unmarshal(value, &p) == nil {
			return &models.TopHit{Type: "playlist", Data: p.toModel()}
		}
	}
	return nil
}

// TrackRadio returns tracks related to the seed track via the radio feature.
// Each result is tagged with the seed's ID.
func (s *Session) TrackRadio(ctx context.Context, trackID string, limit int) ([]models.Track, error) {
	query := url.Values{}
	query.Set("limit", strconv.Itoa(limit))

	var page trackPage
	endpoint := fmt.Sprintf("/tracks/%s/radio", url.PathEscape(trackID))
	if err := s.get(ctx, endpoint, query, &page); err != nil {
		return nil, err
	}

	tracks := make([]models.Track, 0, len(page.Items))
	for _, t := range page.Items {
		track := t.toModel()
		track.SourceTrackID = trackID
		tracks = append(tracks, track)
	}
	return tracks, nil
}

// Playlists retrieves all of the user's playlists.
func (s *Session) Playlists(ctx context.Context) ([]models.Playlist, error) {
	var page struct {
		Items []apiPlaylist `json:"items"`
	}
	endpoint := fmt.Sprintf("/users/%s/playlists", s.User.ID)
	if err := s.get(ctx, endpoint, nil, &page); err != nil {
		return nil, err
	}

	playlists := make([]models.Playlist, 0, len(page.Items))
	for _, p := range page.Items {
		playlists = append(playlists, p.toModel())
	}
	return playlists, nil
}

// CreatePlaylist creates an empty playlist in the user's account.
func (s *Session) CreatePlaylist(ctx context.Context, title, description string) (*models.Playlist, error) {
	form := url.Values{}
	form.Set("title", title)
	form.Set("description", description)

	var created apiPlaylist
	endpoint := fmt.Sprintf("/users/%s/playlists", s.User.ID)
	if err := s.postForm(ctx, endpoint, form, nil, &created); err != nil {
		return nil, err
	}

	playlist := created.toModel()
	return &playlist, nil
}

// Playlist retrieves a playlist's metadata together with its entity tag, which
// guards subsequent mutations.
func (s *Session) Playlist(ctx context.Context, playlistID string) (*models.Playlist, string, error) {
	var p apiPlaylist
	endpoint := fmt.Sprintf("/playlists/%s", url.PathEscape(playlistID))
	header, err := s.do(ctx, http.MethodGet, endpoint, nil, nil, "", &p)
	if err != nil {
		return nil, "", err
	}

	playlist := p.toModel()
	return &playlist, header.Get("ETag"), nil
}

// PlaylistItems retrieves a page of a playlist's tracks.
func (s *Session) PlaylistItems(ctx context.Context, playlistID string, limit, offset int) ([]models.Track, error) {
	query := url.Values{}
	query.Set("limit", strconv.Itoa(limit))
	query.Set("offset", strconv.Itoa(offset))

	var page struct {
		Items []struct {
			Item apiTrack `json:"item"`
		} `json:"items"`
	}
	endpoint := fmt.Sprintf("/playlists/%s/items", url.PathEscape(playlistID))
	if err := s.get(ctx, endpoint, query, &page); err != nil {
		return nil, err
	}

	tracks := make([]models.Track, 0, len(page.Items))
	for _, item := range page.Items {
		tracks = append(tracks, item.Item.toModel())
	}
	return tracks, nil
}

// AddPlaylistTracks appends tracks to a playlist and returns how many were
// added. Unless allowDuplicates is set, tracks already present are skipped.
func (s *Session) AddPlaylistTracks(ctx context.Context, playlistID string, trackIDs []string, allowDuplicates bool) (int, error) {
	// Mutations require the playlist's current entity tag.
	_, etag, err := s.Playlist(ctx, playlistID)
	if err != nil {
		return 0, err
	}

	onDupes := "SKIP"
	if allowDuplicates {
		onDupes = "ADD"
	}

	form := url.Values{}
	form.Set("trackIds", strings.Join(trackIDs, ","))
	form.Set("onDupes", onDupes)
	form.Set("onArtifactNotFound", "SKIP")

	header := http.Header{}
	if etag != "" {
		header.Set("If-None-Match", etag)
	}

	var result struct {
		AddedItemIDs []int64 `json:"addedItemIds"`
	}
	endpoint := fmt.Sprintf("/playlists/%s/items", url.PathEscape(playlistID))
	if err := s.postForm(ctx, endpoint, form, header, &result); err != nil {
		return 0, err
	}
	return len(result.AddedItemIDs), nil
}

// DeletePlaylist removes a playlist from the user's account.
func (s *Session) DeletePlaylist(ctx context.Context, playlistID string) error {
	endpoint := fmt.Sprintf("/playlists/%s", url.PathEscape(playlistID))
	_, err := s.do(ctx, http.MethodDelete, endpoint, nil, nil, "", nil)
	return err
}

func (t apiTrack) toModel() models.Track {
	id := strconv.FormatInt(t.ID, 10)
	track := models.Track{
		ID:       id,
		Title:    t.Title,
		Artist:   "Unknown",
		Album:    "Unknown",
		Duration: t.Duration,
		URL:      models.TrackURL(id),
	}
	if t.Artist != nil && t.Artist.Name != "" {
		track.Artist = t.Artist.Name
	}
	if t.Album != nil && t.Album.Title != "" {
		track.Album = t.Album.Title
	}
	return track
}

func (a apiAlbum) toModel() models.Album {
	id := strconv.FormatInt(a.ID, 10)
	album := models.Album{
		ID:          id,
		Title:       a.Title,
		Artist:      "Unknown",
		ReleaseDate: a.ReleaseDate,
		NumTracks:   a.NumberOfTracks,
		Duration:    a.Duration,
		URL:         models.AlbumURL(id),
	}
	if a.Artist != nil && a.Artist.Name != "" {
		album.Artist = a.Artist.Name
	}
	return album
}

func (a apiArtist) toModel() models.Artist {
	id := strconv.FormatInt(a.ID, 10)
	return models.Artist{
		ID:   id,
		Name: a.Name,
		URL:  models.ArtistURL(id),
	}
}

func (p apiPlaylist) toModel() models.Playlist {
	return models.Playlist{
		ID:          p.UUID,
		Title:       p.Title,
		Description: p.Description,
		Created:     p.Created,
		LastUpdated: p.LastUpdated,
		NumTracks:   p.NumberOfTracks,
		Duration:    p.Duration,
		URL:         models.PlaylistURL(p.UUID),
	}
}
