package tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/mgalvin/swarmwatch/internal/config"
	"github.com/mgalvin/swarmwatch/internal/prd"
)

// PRDStatusTool handles swarm_prd_status: the full ledger as of the most
// recent ledger-touching commit, grouped by derived status. A
// current-state view with no delta bookkeeping.
type PRDStatusTool struct {
	store config.Store
}

// NewPRDStatusTool creates a PRDStatusTool.
func NewPRDStatusTool(store config.Store) *PRDStatusTool {
	return &PRDStatusTool{store: store}
}

// Definition returns the MCP tool definition for registration.
func (t *PRDStatusTool) Definition() mcp.Tool {
	return mcp.NewTool("swarm_prd_status",
		mcp.WithDescription(
			"Read the current requirements ledger, grouped by derived story "+
				"status (available, claimed by <agent>, verifying, done). Uses "+
				"the newest ledger commit on any branch, not just the default "+
				"one. Use swarm_check_progress instead when you want changes "+
				"since a checkpoint.",
		),
		mcp.WithString("project_path",
			mcp.Description("Project root directory. Optional."),
		),
	)
}

// storyLine is one ledger entry in the status report.
type storyLine struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Priority int    `json:"priority"`
	Status   string `json:"status"`
}

// prdStatusResult is the swarm_prd_status document.
type prdStatusResult struct {
	Project           string                 `json:"project"`
	Ref               string                 `json:"ref"`
	LedgerPresent     bool                   `json:"ledger_present"`
	VerificationInUse bool                   `json:"verification_in_use"`
	Total             int                    `json:"total"`
	ByStatus          map[string][]storyLine `json:"by_status"`
	Stories           []storyLine            `json:"stories"`
}

// Handle processes the swarm_prd_status tool call.
func (t *PRDStatusTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	root, p, err := resolveProject(t.store, req.GetString("project_path", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	agg := newAggregator(root, p)
	ref := agg.Git.ResolveLedgerRef(ctx, p.PRDFile)
	doc := prd.ReadLedger(ctx, agg.Git, ref, p.PRDFile, config.PRDFallbackPath(root, p))

	result := prdStatusResult{
		Project:  p.Name,
		Ref:      ref,
		ByStatus: map[string][]storyLine{},
		Stories:  []storyLine{},
	}
	if doc != nil {
		result.LedgerPresent = true
		result.VerificationInUse = doc.VerificationInUse()
		result.Total = len(doc.Stories)
		for i := range doc.Stories {
			s := &doc.Stories[i]
			line := storyLine{
				ID:       s.ID,
				Title:    s.Title,
				Priority: s.Priority,
				Status:   prd.DeriveStatus(s, result.VerificationInUse),
			}
			result.Stories = append(result.Stories, line)
			result.ByStatus[line.Status] = append(result.ByStatus[line.Status], line)
		}
	}
	return jsonResult(result)
}
