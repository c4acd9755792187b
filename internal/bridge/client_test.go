package bridge

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Raydius/tidal-dl-mcp/internal/models"
	"github.com/Raydius/tidal-dl-mcp/internal/shared"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return New(server.URL, shared.NewLogger(io.Discard))
}

func TestClient(t *testing.T) {
	ctx := context.Background()

	t.Run("Error Classification", func(t *testing.T) {
		t.Run("Connection Refused Maps To Backend Unavailable", func(t *testing.T) {
			// A server that is already closed guarantees a refused connection.
			server := httptest.NewServer(http.NotFoundHandler())
			server.Close()

			client := New(server.URL, shared.NewLogger(io.Discard))
			err := client.Health(ctx)
			assert.ErrorIs(t, err, shared.ErrBackendUnavailable)
		})

		t.Run("Expired Context Maps To Timeout", func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				time.Sleep(time.Second)
			})

			expired, cancel := context.WithDeadline(ctx, time.Now().Add(10*time.Millisecond))
			defer cancel()

			err := client.Health(expired)
			assert.ErrorIs(t, err, shared.ErrTimeout)
		})

		t.Run("401 Maps To Not Authenticated", func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusUnauthorized)
				json.NewEncoder(w).Encode(map[string]string{"error": "Not authenticated"})
			})

			_, err := client.FavoriteTracks(ctx, 10)
			assert.ErrorIs(t, err, shared.ErrNotAuthenticated)
			assert.Contains(t, err.Error(), "Not authenticated")
		})

		t.Run("Other Errors Carry The Backend Message", func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
				json.NewEncoder(w).Encode(map[string]string{"error": "upstream exploded"})
			})

			_, err := client.Search(ctx, "q", "track", 5)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "upstream exploded")
		})
	})

	t.Run("FavoriteTracks", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/api/tracks", r.URL.Path)
			assert.Equal(t, "25", r.URL.Query().Get("limit"))
			json.NewEncoder(w).Encode(map[string]any{
				"tracks": []models.Track{{ID: "1", Title: "A"}},
			})
		})

		tracks, err := client.FavoriteTracks(ctx, 25)
		require.NoError(t, err)
		require.Len(t, tracks, 1)
		assert.Equal(t, "A", tracks[0].Title)
	})

	t.Run("BatchSearch", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "/api/search/batch", r.URL.Path)

			var req struct {
				Queries       []models.QueryItem `json:"queries"`
				LimitPerQuery int                `json:"limit_per_query"`
			}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Len(t, req.Queries, 2)
			assert.Equal(t, 5, req.LimitPerQuery)

			json.NewEncoder(w).Encode(BatchSearchResponse{
				Results: []models.BatchSearchResult{{Query: "a"}, {Query: "b"}},
				Total:   2,
			})
		})

		resp, err := client.BatchSearch(ctx, []models.QueryItem{{Query: "a"}, {Query: "b"}}, 5)
		require.NoError(t, err)
		assert.Equal(t, 2, resp.Total)
		assert.Equal(t, "a", resp.Results[0].Query)
	})

	t.Run("BatchRecommendations Sends Dedup Flag", func(t *testing.T) {
		var gotBody map[string]any
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
			json.NewEncoder(w).Encode(map[string]any{"recommendations": []models.Track{}})
		})

		_, err := client.BatchRecommendations(ctx, []string{"1"}, 10, false)
		require.NoError(t, err)
		assert.Equal(t, false, gotBody["remove_duplicates"])
	})

	t.Run("DeletePlaylist Uses DELETE", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodDelete, r.Method)
			assert.Equal(t, "/api/playlists/pl-1", r.URL.Path)
			json.NewEncoder(w).Encode(map[string]string{"status": "success"})
		})

		assert.NoError(t, client.DeletePlaylist(ctx, "pl-1"))
	})

	t.Run("PlaylistTracks Paginates", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "100", r.URL.Query().Get("limit"))
			assert.Equal(t, "200", r.URL.Query().Get("offset"))
			json.NewEncoder(w).Encode(PlaylistTracksResult{PlaylistID: "pl-1", Offset: 200})
		})

		page, err := client.PlaylistTracks(ctx, "pl-1", 100, 200)
		require.NoError(t, err)
		assert.Equal(t, 200, page.Offset)
	})
}
