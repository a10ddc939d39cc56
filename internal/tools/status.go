package tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/mgalvin/swarmwatch/internal/config"
	"github.com/mgalvin/swarmwatch/internal/prd"
	"github.com/mgalvin/swarmwatch/internal/workers"
)

// SwarmStatusTool handles swarm_status: a point-in-time process + ledger
// snapshot without any commit-range history.
type SwarmStatusTool struct {
	store config.Store

	// listWorkers is swappable for tests.
	listWorkers func(ctx context.Context, prefix string) []workers.Worker
}

// NewSwarmStatusTool creates a SwarmStatusTool.
func NewSwarmStatusTool(store config.Store) *SwarmStatusTool {
	return &SwarmStatusTool{store: store, listWorkers: workers.List}
}

// Definition returns the MCP tool definition for registration.
func (t *SwarmStatusTool) Definition() mcp.Tool {
	return mcp.NewTool("swarm_status",
		mcp.WithDescription(
			"Snapshot the fleet right now: running workers and story "+
				"completion counts. No history — use swarm_check_progress for "+
				"what changed since a checkpoint.",
		),
		mcp.WithString("project_path",
			mcp.Description("Project root directory. Optional."),
		),
	)
}

// swarmStatusResult is the swarm_status document.
type swarmStatusResult struct {
	Project string           `json:"project"`
	Workers []workers.Worker `json:"workers"`
	Stories storyCounts      `json:"stories"`
}

type storyCounts struct {
	Total     int `json:"total"`
	Done      int `json:"done"`
	Remaining int `json:"remaining"`
}

// Handle processes the swarm_status tool call.
func (t *SwarmStatusTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	root, p, err := resolveProject(t.store, req.GetString("project_path", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	agg := newAggregator(root, p)
	ref := agg.Git.ResolveLedgerRef(ctx, p.PRDFile)
	doc := prd.ReadLedger(ctx, agg.Git, ref, p.PRDFile, config.PRDFallbackPath(root, p))

	result := swarmStatusResult{
		Project: p.Name,
		Workers: t.listWorkers(ctx, p.WorkerPrefix),
	}
	if result.Workers == nil {
		result.Workers = []workers.Worker{}
	}
	if doc != nil {
		inUse := doc.VerificationInUse()
		result.Stories.Total = len(doc.Stories)
		for i := range doc.Stories {
			if prd.DeriveStatus(&doc.Stories[i], inUse) == prd.StatusDone {
				result.Stories.Done++
			}
		}
		result.Stories.Remaining = result.Stories.Total - result.Stories.Done
	}
	return jsonResult(result)
}
