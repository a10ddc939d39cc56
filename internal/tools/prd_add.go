package tools

import (
	"context"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/mgalvin/swarmwatch/internal/config"
	"github.com/mgalvin/swarmwatch/internal/prd"
)

// PRDAddStoryTool handles swarm_prd_add_story: append a new story to the
// shared ledger through the same clone-commit-push path as updates.
type PRDAddStoryTool struct {
	store config.Store
}

// NewPRDAddStoryTool creates a PRDAddStoryTool.
func NewPRDAddStoryTool(store config.Store) *PRDAddStoryTool {
	return &PRDAddStoryTool{store: store}
}

// Definition returns the MCP tool definition for registration.
func (t *PRDAddStoryTool) Definition() mcp.Tool {
	return mcp.NewTool("swarm_prd_add_story",
		mcp.WithDescription(
			"Add a new story to the shared ledger and push it. The id is "+
				"assigned automatically (next free US-<n>) unless given. The "+
				"ledger must already exist and parse — this tool never creates "+
				"or repairs a ledger.",
		),
		mcp.WithString("title",
			mcp.Required(),
			mcp.Description("Short story title."),
		),
		mcp.WithString("description",
			mcp.Description("Free-text story description."),
		),
		mcp.WithString("acceptance_criteria",
			mcp.Description("Acceptance criteria, one per line."),
		),
		mcp.WithNumber("priority",
			mcp.Description("Integer priority; lower is more urgent."),
		),
		mcp.WithString("id",
			mcp.Description("Explicit story id. Optional; must be unused."),
		),
		mcp.WithString("project_path",
			mcp.Description("Project root directory. Optional."),
		),
	)
}

// Handle processes the swarm_prd_add_story tool call.
func (t *PRDAddStoryTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	title := strings.TrimSpace(req.GetString("title", ""))
	if title == "" {
		return mcp.NewToolResultError("'title' is required — what is the story about?"), nil
	}

	story := prd.Story{
		ID:          strings.TrimSpace(req.GetString("id", "")),
		Title:       title,
		Description: req.GetString("description", ""),
		Priority:    intArg(req, "priority", 0),
	}
	for _, line := range strings.Split(req.GetString("acceptance_criteria", ""), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			story.AcceptanceCriteria = append(story.AcceptanceCriteria, line)
		}
	}

	root, p, err := resolveProject(t.store, req.GetString("project_path", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	editor := prd.NewEditor(config.RepoPath(root, p), p.PRDFile)
	id, err := editor.AddStory(ctx, story)
	if err != nil {
		return nil, err
	}

	return jsonResult(map[string]any{
		"added":   id,
		"title":   title,
		"project": p.Name,
	})
}
