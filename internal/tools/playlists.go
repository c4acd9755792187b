package tools

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Raydius/tidal-dl-mcp/internal/models"
)

func (t *Toolset) userPlaylists(ctx context.Context, _ *mcp.CallToolRequest, _ emptyArgs) (*mcp.CallToolResult, any, error) {
	playlists, err := t.api.Playlists(ctx)
	if err != nil {
		return t.fail(err)
	}
	return result(map[string]any{"playlists": playlists, "total": len(playlists)})
}

type playlistTracksArgs struct {
	PlaylistID string `json:"playlist_id"`
	Limit      int    `json:"limit,omitempty"`
	Offset     int    `json:"offset,omitempty"`
}

func (t *Toolset) playlistTracks(ctx context.Context, _ *mcp.CallToolRequest, args playlistTracksArgs) (*mcp.CallToolResult, any, error) {
	if args.PlaylistID == "" {
		return failure("'playlist_id' is required")
	}
	page, err := t.api.PlaylistTracks(ctx, args.PlaylistID, args.Limit, args.Offset)
	if err != nil {
		return t.fail(err)
	}
	return result(page)
}

type createPlaylistArgs struct {
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	TrackIDs    []string `json:"track_ids"`
}

func (t *Toolset) createPlaylist(ctx context.Context, _ *mcp.CallToolRequest, args createPlaylistArgs) (*mcp.CallToolResult, any, error) {
	if args.Title == "" {
		return failure("'title' is required")
	}
	if len(args.TrackIDs) == 0 {
		return failure("'track_ids' must be a non-empty list")
	}
	created, err := t.api.CreatePlaylist(ctx, args.Title, args.Description, args.TrackIDs)
	if err != nil {
		return t.fail(err)
	}
	return result(created)
}

type createFromSongsArgs struct {
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Songs       []string `json:"songs"`
}

// createPlaylistFromSongs resolves each song name via batch search and builds a
// playlist from the best matches. Unmatched songs are reported, not fatal.
func (t *Toolset) createPlaylistFromSongs(ctx context.Context, _ *mcp.CallToolRequest, args createFromSongsArgs) (*mcp.CallToolResult, any, error) {
	if args.Title == "" {
		return failure("'title' is required")
	}
	if len(args.Songs) == 0 {
		return failure("'songs' must be a non-empty list")
	}

	queries := make([]models.QueryItem, len(args.Songs))
	for i, song := range args.Songs {
		queries[i] = models.QueryItem{Query: song, Type: "track"}
	}

	searched, err := t.api.BatchSearch(ctx, queries, 1)
	if err != nil {
		return t.fail(err)
	}

	var trackIDs []string
	var matched []models.Track
	var notFound []string
	for i, slot := range searched.Results {
		if slot.Error != "" || len(slot.Tracks) == 0 {
			notFound = append(notFound, args.Songs[i])
			continue
		}
		trackIDs = append(trackIDs, slot.Tracks[0].ID)
		matched = append(matched, slot.Tracks[0])
	}

	if len(trackIDs) == 0 {
		return failure("None of the songs could be found on TIDAL")
	}

	created, err := t.api.CreatePlaylist(ctx, args.Title, args.Description, trackIDs)
	if err != nil {
		return t.fail(err)
	}

	return result(map[string]any{
		"status":         created.Status,
		"message":        fmt.Sprintf("Created playlist with %d of %d songs", len(matched), len(args.Songs)),
		"playlist":       created.Playlist,
		"tracks_added":   created.TracksAdded,
		"matched_tracks": matched,
		"not_found":      notFound,
	})
}

type addTracksArgs struct {
	PlaylistID      string   `json:"playlist_id"`
	TrackIDs        []string `json:"track_ids"`
	AllowDuplicates bool     `json:"allow_duplicates,omitempty"`
}

func (t *Toolset) addTracksToPlaylist(ctx context.Context, _ *mcp.CallToolRequest, args addTracksArgs) (*mcp.CallToolResult, any, error) {
	if args.PlaylistID == "" {
		return failure("'playlist_id' is required")
	}
	if len(args.TrackIDs) == 0 {
		return failure("'track_ids' must be a non-empty list")
	}
	outcome, err := t.api.AddPlaylistTracks(ctx, args.PlaylistID, args.TrackIDs, args.AllowDuplicates)
	if err != nil {
		return t.fail(err)
	}
	return result(outcome)
}

type deletePlaylistArgs struct {
	PlaylistID string `json:"playlist_id"`
}

func (t *Toolset) deletePlaylist(ctx context.Context, _ *mcp.CallToolRequest, args deletePlaylistArgs) (*mcp.CallToolResult, any, error) {
	if args.PlaylistID == "" {
		return failure("'playlist_id' is required")
	}
	if err := t.api.DeletePlaylist(ctx, args.PlaylistID); err != nil {
		return t.fail(err)
	}
	return result(map[string]string{
		"status":      "success",
		"message":     "Playlist deleted",
		"playlist_id": args.PlaylistID,
	})
}
