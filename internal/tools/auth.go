package tools

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type emptyArgs struct{}

func (t *Toolset) login(ctx context.Context, _ *mcp.CallToolRequest, _ emptyArgs) (*mcp.CallToolResult, any, error) {
	t.logger.Info("starting login flow")

	outcome, err := t.api.Login(ctx)
	if err != nil {
		return t.fail(err)
	}
	if outcome.Status != "success" {
		return failure(outcome.Message)
	}

	return result(map[string]string{
		"status":  "success",
		"message": "Successfully authenticated with TIDAL",
		"user_id": outcome.UserID,
	})
}

func (t *Toolset) authStatus(ctx context.Context, _ *mcp.CallToolRequest, _ emptyArgs) (*mcp.CallToolResult, any, error) {
	status, err := t.api.CheckAuth(ctx)
	if err != nil {
		return t.fail(err)
	}
	return result(status)
}

func (t *Toolset) logout(ctx context.Context, _ *mcp.CallToolRequest, _ emptyArgs) (*mcp.CallToolResult, any, error) {
	if err := t.api.Logout(ctx); err != nil {
		return t.fail(err)
	}
	return result(map[string]string{
		"status":  "success",
		"message": "Logged out of TIDAL",
	})
}
