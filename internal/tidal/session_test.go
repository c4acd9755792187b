package tidal

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/Raydius/tidal-dl-mcp/internal/shared"
)

// newTestSession builds an authenticated session against a fake API server.
func newTestSession(t *testing.T, handler http.Handler) *Session {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/sessions", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"sessionId":   "sess-1",
			"userId":      42,
			"countryCode": "US",
		})
	})
	if handler != nil {
		mux.Handle("/", handler)
	}

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	credPath := filepath.Join(t.TempDir(), "session.json")
	creds := &Credentials{
		AccessToken: "test-token",
		ExpiresAt:   time.Now().Add(time.Hour),
		CountryCode: "US",
	}
	if err := SaveCredentials(credPath, creds); err != nil {
		t.Fatal(err)
	}

	client := NewClient(shared.NewLogger(io.Discard), WithBaseURL(server.URL))
	session, err := client.Restore(context.Background(), credPath)
	if err != nil {
		t.Fatalf("restore failed: %v", err)
	}
	return session
}

func TestSession(t *testing.T) {
	ctx := context.Background()

	t.Run("Restore Binds Identity", func(t *testing.T) {
		session := newTestSession(t, nil)
		if session.User.ID != "42" {
			t.Errorf("expected user id '42', got %s", session.User.ID)
		}
	})

	t.Run("FavoriteTracks", func(t *testing.T) {
		session := newTestSession(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/users/42/favorites/tracks" {
				t.Errorf("unexpected path %s", r.URL.Path)
			}
			if got := r.URL.Query().Get("order"); got != "DATE" {
				t.Errorf("expected order=DATE, got %s", got)
			}
			if got := r.URL.Query().Get("orderDirection"); got != "DESC" {
				t.Errorf("expected orderDirection=DESC, got %s", got)
			}
			json.NewEncoder(w).Encode(map[string]any{
				"items": []map[string]any{
					{"item": map[string]any{
						"id": 100, "title": "First", "duration": 200,
						"artist": map[string]any{"id": 1, "name": "Artist A"},
						"album":  map[string]any{"id": 2, "title": "Album A"},
					}},
					{"item": map[string]any{"id": 101, "title": "Second"}},
				},
			})
		}))

		tracks, err := session.FavoriteTracks(ctx, 10)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(tracks) != 2 {
			t.Fatalf("expected 2 tracks, got %d", len(tracks))
		}
		if tracks[0].Artist != "Artist A" {
			t.Errorf("expected artist name, got %s", tracks[0].Artist)
		}
		if tracks[1].Artist != "Unknown" {
			t.Errorf("expected 'Unknown' for missing artist, got %s", tracks[1].Artist)
		}
		if tracks[0].URL == "" {
			t.Error("expected a browse URL")
		}
	})

	t.Run("Search", func(t *testing.T) {
		t.Run("Maps Types Parameter", func(t *testing.T) {
			var gotTypes string
			session := newTestSession(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotTypes = r.URL.Query().Get("types")
				json.NewEncoder(w).Encode(map[string]any{})
			}))

			if _, err := session.Search(ctx, "query", "track", 5); err != nil {
				t.Fatal(err)
			}
			if gotTypes != "TRACKS" {
				t.Errorf("expected types=TRACKS, got %s", gotTypes)
			}
		})

		t.Run("Rejects Invalid Type", func(t *testing.T) {
			session := newTestSession(t, nil)
			if _, err := session.Search(ctx, "query", "podcast", 5); !errors.Is(err, shared.ErrInvalidInput) {
				t.Errorf("expected ErrInvalidInput, got %v", err)
			}
		})

		t.Run("Decodes Top Hit", func(t *testing.T) {
			session := newTestSession(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				json.NewEncoder(w).Encode(map[string]any{
					"tracks": map[string]any{"items": []map[string]any{{"id": 7, "title": "Hit"}}},
					"topHit": map[string]any{
						"type":  "TRACKS",
						"value": map[string]any{"id": 7, "title": "Hit"},
					},
				})
			}))

			results, err := session.Search(ctx, "hit", "all", 5)
			if err != nil {
				t.Fatal(err)
			}
			if results.TopHit == nil || results.TopHit.Type != "track" {
				t.Fatalf("expected track top hit, got %+v", results.TopHit)
			}
		})
	})

	t.Run("TrackRadio Tags Seed", func(t *testing.T) {
		session := newTestSession(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/tracks/55/radio" {
				t.Errorf("unexpected path %s", r.URL.Path)
			}
			json.NewEncoder(w).Encode(map[string]any{
				"items": []map[string]any{{"id": 900, "title": "Related"}},
			})
		}))

		tracks, err := session.TrackRadio(ctx, "55", 10)
		if err != nil {
			t.Fatal(err)
		}
		if len(tracks) != 1 || tracks[0].SourceTrackID != "55" {
			t.Errorf("expected source track id '55', got %+v", tracks)
		}
	})

	t.Run("AddPlaylistTracks", func(t *testing.T) {
		t.Run("Passes ETag And Dedup Policy", func(t *testing.T) {
			var gotETag, gotOnDupes string
			session := newTestSession(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				switch r.Method {
				case http.MethodGet:
					w.Header().Set("ETag", "42-etag")
					json.NewEncoder(w).Encode(map[string]any{"uuid": "pl-1", "title": "P"})
				case http.MethodPost:
					gotETag = r.Header.Get("If-None-Match")
					r.ParseForm()
					gotOnDupes = r.FormValue("onDupes")
					json.NewEncoder(w).Encode(map[string]any{"addedItemIds": []int64{1, 2}})
				}
			}))

			added, err := session.AddPlaylistTracks(ctx, "pl-1", []string{"1", "2", "3"}, false)
			if err != nil {
				t.Fatal(err)
			}
			if added != 2 {
				t.Errorf("expected 2 added, got %d", added)
			}
			if gotETag != "42-etag" {
				t.Errorf("expected If-None-Match header, got %q", gotETag)
			}
			if gotOnDupes != "SKIP" {
				t.Errorf("expected onDupes=SKIP, got %s", gotOnDupes)
			}
		})

		t.Run("Allows Duplicates", func(t *testing.T) {
			var gotOnDupes string
			session := newTestSession(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				switch r.Method {
				case http.MethodGet:
					json.NewEncoder(w).Encode(map[string]any{"uuid": "pl-1"})
				case http.MethodPost:
					r.ParseForm()
					gotOnDupes = r.FormValue("onDupes")
					json.NewEncoder(w).Encode(map[string]any{"addedItemIds": []int64{1}})
				}
			}))

			if _, err := session.AddPlaylistTracks(ctx, "pl-1", []string{"1"}, true); err != nil {
				t.Fatal(err)
			}
			if gotOnDupes != "ADD" {
				t.Errorf("expected onDupes=ADD, got %s", gotOnDupes)
			}
		})
	})

	t.Run("Error Mapping", func(t *testing.T) {
		tc := []struct {
			name   string
			status int
			want   error
		}{
			{"Unauthorized", http.StatusUnauthorized, shared.ErrNotAuthenticated},
			{"Forbidden", http.StatusForbidden, shared.ErrNotAuthenticated},
			{"Not Found", http.StatusNotFound, shared.ErrNotFound},
			{"Server Error", http.StatusInternalServerError, shared.ErrAPIRequest},
		}

		for _, tt := range tc {
			t.Run(tt.name, func(t *testing.T) {
				session := newTestSession(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					w.WriteHeader(tt.status)
				}))

				_, err := session.FavoriteTracks(ctx, 10)
				if !errors.Is(err, tt.want) {
					t.Errorf("expected %v, got %v", tt.want, err)
				}
			})
		}
	})
}
