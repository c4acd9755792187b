package tools

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Raydius/tidal-dl-mcp/internal/models"
)

type favoriteTracksArgs struct {
	Limit int `json:"limit,omitempty"`
}

func (t *Toolset) favoriteTracks(ctx context.Context, _ *mcp.CallToolRequest, args favoriteTracksArgs) (*mcp.CallToolResult, any, error) {
	tracks, err := t.api.FavoriteTracks(ctx, args.Limit)
	if err != nil {
		return t.fail(err)
	}
	return result(map[string]any{"tracks": tracks, "total": len(tracks)})
}

type searchArgs struct {
	Query string `json:"query"`
	Type  string `json:"type,omitempty"`
	Limit int    `json:"limit,omitempty"`
}

func (t *Toolset) search(ctx context.Context, _ *mcp.CallToolRequest, args searchArgs) (*mcp.CallToolResult, any, error) {
	if args.Query == "" {
		return failure("'query' is required")
	}
	results, err := t.api.Search(ctx, args.Query, args.Type, args.Limit)
	if err != nil {
		return t.fail(err)
	}
	return result(results)
}

type batchSearchArgs struct {
	Queries       []models.QueryItem `json:"queries"`
	LimitPerQuery int                `json:"limit_per_query,omitempty"`
}

func (t *Toolset) batchSearch(ctx context.Context, _ *mcp.CallToolRequest, args batchSearchArgs) (*mcp.CallToolResult, any, error) {
	if len(args.Queries) == 0 {
		return failure("'queries' must be a non-empty list")
	}
	resp, err := t.api.BatchSearch(ctx, args.Queries, args.LimitPerQuery)
	if err != nil {
		return t.fail(err)
	}
	return result(resp)
}

type recommendTracksArgs struct {
	TrackIDs           []string `json:"track_ids,omitempty"`
	LimitPerTrack      int      `json:"limit_per_track,omitempty"`
	LimitFromFavorites int      `json:"limit_from_favorite,omitempty"`
	FilterCriteria     string   `json:"filter_criteria,omitempty"`
	RemoveDuplicates   *bool    `json:"remove_duplicates,omitempty"`
}

// defaultSeedFavorites is how many favorites seed the recommendations when the
// caller gives neither track IDs nor a seed limit.
const defaultSeedFavorites = 20

func (t *Toolset) recommendTracks(ctx context.Context, _ *mcp.CallToolRequest, args recommendTracksArgs) (*mcp.CallToolResult, any, error) {
	seeds := args.TrackIDs
	seededFromFavorites := false

	if len(seeds) == 0 {
		seedLimit := args.LimitFromFavorites
		if seedLimit <= 0 {
			seedLimit = defaultSeedFavorites
		}
		favorites, err := t.api.FavoriteTracks(ctx, seedLimit)
		if err != nil {
			return t.fail(err)
		}
		if len(favorites) == 0 {
			return failure("No track IDs given and no favorite tracks to seed from. Add favorites on TIDAL or pass track_ids.")
		}
		for _, track := range favorites {
			seeds = append(seeds, track.ID)
		}
		seededFromFavorites = true
	}

	dedupe := true
	if args.RemoveDuplicates != nil {
		dedupe = *args.RemoveDuplicates
	}

	recommendations, err := t.api.BatchRecommendations(ctx, seeds, args.LimitPerTrack, dedupe)
	if err != nil {
		return t.fail(err)
	}

	// filter_criteria is not applied server-side; it is echoed back so the
	// caller can post-filter the flat list.
	return result(map[string]any{
		"recommendations":       recommendations,
		"total":                 len(recommendations),
		"seeded_from_favorites": seededFromFavorites,
		"seed_count":            len(seeds),
		"filter_criteria":       args.FilterCriteria,
		"message":               fmt.Sprintf("Found %d recommendations from %d seed tracks", len(recommendations), len(seeds)),
	})
}
