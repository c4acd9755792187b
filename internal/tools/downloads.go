package tools

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Raydius/tidal-dl-mcp/internal/bridge"
)

func (t *Toolset) downloadStatus(ctx context.Context, _ *mcp.CallToolRequest, _ emptyArgs) (*mcp.CallToolResult, any, error) {
	status, err := t.api.DownloadStatus(ctx)
	if err != nil {
		return t.fail(err)
	}
	return result(status)
}

type downloadArgs struct {
	ID string `json:"id"`
}

func (t *Toolset) downloadTrack(ctx context.Context, _ *mcp.CallToolRequest, args downloadArgs) (*mcp.CallToolResult, any, error) {
	return t.download(args.ID, func() (*bridge.DownloadResult, error) {
		return t.api.DownloadTrack(ctx, args.ID)
	})
}

func (t *Toolset) downloadAlbum(ctx context.Context, _ *mcp.CallToolRequest, args downloadArgs) (*mcp.CallToolResult, any, error) {
	return t.download(args.ID, func() (*bridge.DownloadResult, error) {
		return t.api.DownloadAlbum(ctx, args.ID)
	})
}

func (t *Toolset) downloadPlaylist(ctx context.Context, _ *mcp.CallToolRequest, args downloadArgs) (*mcp.CallToolResult, any, error) {
	return t.download(args.ID, func() (*bridge.DownloadResult, error) {
		return t.api.DownloadPlaylist(ctx, args.ID)
	})
}

func (t *Toolset) download(id string, run func() (*bridge.DownloadResult, error)) (*mcp.CallToolResult, any, error) {
	if id == "" {
		return failure("'id' is required")
	}
	outcome, err := run()
	if err != nil {
		return t.fail(err)
	}
	return result(outcome)
}

type downloadFavoritesArgs struct {
	Type string `json:"type,omitempty"`
}

func (t *Toolset) downloadFavorites(ctx context.Context, _ *mcp.CallToolRequest, args downloadFavoritesArgs) (*mcp.CallToolResult, any, error) {
	favoriteType := args.Type
	if favoriteType == "" {
		favoriteType = "tracks"
	}
	outcome, err := t.api.DownloadFavorites(ctx, favoriteType)
	if err != nil {
		return t.fail(err)
	}
	return result(outcome)
}
