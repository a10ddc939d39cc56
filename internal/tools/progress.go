package tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/mgalvin/swarmwatch/internal/config"
)

// CheckProgressTool handles swarm_check_progress, the primary polling
// operation: everything that happened since a caller-held checkpoint.
type CheckProgressTool struct {
	store config.Store
}

// NewCheckProgressTool creates a CheckProgressTool.
func NewCheckProgressTool(store config.Store) *CheckProgressTool {
	return &CheckProgressTool{store: store}
}

// Definition returns the MCP tool definition for registration.
func (t *CheckProgressTool) Definition() mcp.Tool {
	return mcp.NewTool("swarm_check_progress",
		mcp.WithDescription(
			"Report fleet progress since a checkpoint: new commits across all "+
				"branches, story status transitions, fresh log summaries, and "+
				"worker membership. Persist the returned latest_commit and pass "+
				"it back as since_commit on the next call to get non-overlapping "+
				"deltas. Omit since_commit for the full history since the "+
				"beginning. The call is read-only and never fails: unavailable "+
				"subsystems appear as empty fields.",
		),
		mcp.WithString("since_commit",
			mcp.Description("Checkpoint commit from a previous call's latest_commit. "+
				"Opaque — do not construct it yourself. Optional."),
		),
		mcp.WithString("project_path",
			mcp.Description("Project root directory. Optional — discovered by "+
				"walking up from the working directory."),
		),
	)
}

// Handle processes the swarm_check_progress tool call.
func (t *CheckProgressTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	root, p, err := resolveProject(t.store, req.GetString("project_path", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := newAggregator(root, p).ComputeDelta(ctx, p.Name, req.GetString("since_commit", ""))
	return jsonResult(result)
}
