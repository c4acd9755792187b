// package tools registers the MCP tool surface. Tools never touch the
// streaming API directly; every call goes through the bridge client to the
// backend process.
package tools

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Raydius/tidal-dl-mcp/internal/bridge"
	"github.com/Raydius/tidal-dl-mcp/internal/shared"
)

// Toolset holds the dependencies shared by every tool handler.
type Toolset struct {
	api    *bridge.Client
	logger *log.Logger
}

// New creates a Toolset backed by the given bridge client.
func New(api *bridge.Client, logger *log.Logger) *Toolset {
	return &Toolset{api: api, logger: logger}
}

// Register adds every tool to the server.
func (t *Toolset) Register(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "tidal_login",
		Description: "Authenticate with TIDAL. Opens a browser window where the user approves access; blocks until the flow completes or times out.",
	}, t.login)
	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_auth_status",
		Description: "Check whether a valid TIDAL session exists, without triggering a login.",
	}, t.authStatus)
	mcp.AddTool(server, &mcp.Tool{
		Name:        "tidal_logout",
		Description: "Log out of TIDAL and remove stored credentials.",
	}, t.logout)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_favorite_tracks",
		Description: "Get the user's favorite TIDAL tracks, most recently added first.",
	}, t.favoriteTracks)
	mcp.AddTool(server, &mcp.Tool{
		Name:        "search_tidal",
		Description: "Search the TIDAL catalog for tracks, albums, artists, or playlists.",
	}, t.search)
	mcp.AddTool(server, &mcp.Tool{
		Name:        "batch_search_tidal",
		Description: "Run up to 100 TIDAL searches in one call. Results come back in the same order as the queries; a failed query reports its error without affecting the others.",
	}, t.batchSearch)
	mcp.AddTool(server, &mcp.Tool{
		Name:        "recommend_tracks",
		Description: "Get track recommendations. Seeds from the given track IDs, or from up to limit_from_favorite of the user's favorites when none are given. An optional filter_criteria string is echoed back for post-filtering the results.",
	}, t.recommendTracks)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_user_playlists",
		Description: "List the user's TIDAL playlists, most recently updated first.",
	}, t.userPlaylists)
	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_playlist_tracks",
		Description: "Get the tracks of a TIDAL playlist, with pagination.",
	}, t.playlistTracks)
	mcp.AddTool(server, &mcp.Tool{
		Name:        "create_tidal_playlist",
		Description: "Create a TIDAL playlist from a list of track IDs.",
	}, t.createPlaylist)
	mcp.AddTool(server, &mcp.Tool{
		Name:        "create_playlist_from_songs",
		Description: "Create a TIDAL playlist from song names. Each song is searched on TIDAL and the best match is added; songs with no match are reported.",
	}, t.createPlaylistFromSongs)
	mcp.AddTool(server, &mcp.Tool{
		Name:        "add_tracks_to_playlist",
		Description: "Add tracks to an existing TIDAL playlist. Tracks already present are skipped unless allow_duplicates is set.",
	}, t.addTracksToPlaylist)
	mcp.AddTool(server, &mcp.Tool{
		Name:        "delete_tidal_playlist",
		Description: "Delete a TIDAL playlist by its ID.",
	}, t.deletePlaylist)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_download_status",
		Description: "Check whether the tidal-dl-ng download CLI is installed and authenticated.",
	}, t.downloadStatus)
	mcp.AddTool(server, &mcp.Tool{
		Name:        "download_track",
		Description: "Download a TIDAL track by ID using tidal-dl-ng.",
	}, t.downloadTrack)
	mcp.AddTool(server, &mcp.Tool{
		Name:        "download_album",
		Description: "Download a full TIDAL album by ID using tidal-dl-ng.",
	}, t.downloadAlbum)
	mcp.AddTool(server, &mcp.Tool{
		Name:        "download_playlist",
		Description: "Download a full TIDAL playlist by ID using tidal-dl-ng.",
	}, t.downloadPlaylist)
	mcp.AddTool(server, &mcp.Tool{
		Name:        "download_favorites",
		Description: "Download the user's favorite tracks, albums, artists, or videos using tidal-dl-ng.",
	}, t.downloadFavorites)
}

// result wraps a payload as a JSON text content block.
func result(payload any) (*mcp.CallToolResult, any, error) {
	encoded, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return failure(fmt.Sprintf("failed to encode result: %v", err))
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: string(encoded)}},
	}, nil, nil
}

// failure wraps an error message as a tool error result. Tool failures are
// reported in-band so the model can read and act on them.
func failure(message string) (*mcp.CallToolResult, any, error) {
	payload, _ := json.MarshalIndent(map[string]string{
		"status":  "error",
		"message": message,
	}, "", "  ")
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{&mcp.TextContent{Text: string(payload)}},
	}, nil, nil
}

// fail converts a bridge error into an actionable tool error.
func (t *Toolset) fail(err error) (*mcp.CallToolResult, any, error) {
	switch {
	case errors.Is(err, shared.ErrBackendUnavailable):
		return failure("The TIDAL backend is not running. Restart the MCP server and try again.")
	case errors.Is(err, shared.ErrNotAuthenticated):
		return failure("Not authenticated with TIDAL. Use the tidal_login tool to log in first.")
	case errors.Is(err, shared.ErrTimeout):
		return failure(fmt.Sprintf("The request timed out: %v", err))
	default:
		t.logger.Error("tool call failed", "err", err)
		return failure(err.Error())
	}
}
