package tools

import (
	"context"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/mgalvin/swarmwatch/internal/config"
	"github.com/mgalvin/swarmwatch/internal/prd"
)

// PRDUpdateStoryTool handles swarm_prd_update_story, the serialized ledger
// write path. Unlike the observation tools it surfaces hard, step-labelled
// errors: a half-applied ledger write would corrupt shared state, so
// nothing here degrades silently.
type PRDUpdateStoryTool struct {
	store config.Store
}

// NewPRDUpdateStoryTool creates a PRDUpdateStoryTool.
func NewPRDUpdateStoryTool(store config.Store) *PRDUpdateStoryTool {
	return &PRDUpdateStoryTool{store: store}
}

// Definition returns the MCP tool definition for registration.
func (t *PRDUpdateStoryTool) Definition() mcp.Tool {
	return mcp.NewTool("swarm_prd_update_story",
		mcp.WithDescription(
			"Update lifecycle fields of one story in the shared ledger and "+
				"push the change. Only supplied fields are touched; an empty "+
				"claimed_by releases the claim. Fails with the failing step "+
				"named (read, parse, clone, write, commit, push) — a rejected "+
				"push means a concurrent writer won; retry the call.",
		),
		mcp.WithString("story_id",
			mcp.Required(),
			mcp.Description("The story to update, e.g. US-3."),
		),
		mcp.WithBoolean("passes",
			mcp.Description("Whether the story's acceptance criteria pass."),
		),
		mcp.WithString("claimed_by",
			mcp.Description("Claimant agent name. Empty string releases the claim."),
		),
		mcp.WithBoolean("verified",
			mcp.Description("Verification outcome. Setting this stamps verified_at."),
		),
		mcp.WithString("verified_by",
			mcp.Description("Who verified the story."),
		),
		mcp.WithString("verification_notes",
			mcp.Description("Free-text verification notes."),
		),
		mcp.WithString("notes",
			mcp.Description("Free-text story notes."),
		),
		mcp.WithString("project_path",
			mcp.Description("Project root directory. Optional."),
		),
	)
}

// Handle processes the swarm_prd_update_story tool call.
func (t *PRDUpdateStoryTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	storyID := strings.TrimSpace(req.GetString("story_id", ""))
	if storyID == "" {
		return mcp.NewToolResultError("'story_id' is required — which story should be updated?"), nil
	}

	up := prd.StoryUpdate{
		Passes:            optBoolArg(req, "passes"),
		ClaimedBy:         optStringArg(req, "claimed_by"),
		Verified:          optBoolArg(req, "verified"),
		VerifiedBy:        optStringArg(req, "verified_by"),
		VerificationNotes: optStringArg(req, "verification_notes"),
		Notes:             optStringArg(req, "notes"),
	}
	if up.Passes == nil && up.ClaimedBy == nil && up.Verified == nil &&
		up.VerifiedBy == nil && up.VerificationNotes == nil && up.Notes == nil {
		return mcp.NewToolResultError("no fields to update — supply at least one of passes, claimed_by, verified, verified_by, verification_notes, notes"), nil
	}

	root, p, err := resolveProject(t.store, req.GetString("project_path", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	editor := prd.NewEditor(config.RepoPath(root, p), p.PRDFile)
	if err := editor.UpdateStory(ctx, storyID, up); err != nil {
		return nil, err
	}

	return jsonResult(map[string]any{
		"updated": storyID,
		"project": p.Name,
	})
}
