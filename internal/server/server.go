// Package server wires all MCP components and creates the server instance.
//
// This is the composition root: it creates concrete implementations and
// injects them into the tools that depend on abstractions. No observation
// or ledger logic lives here — only wiring.
package server

import (
	"github.com/mark3labs/mcp-go/server"

	"github.com/mgalvin/swarmwatch/internal/config"
	"github.com/mgalvin/swarmwatch/internal/tools"
)

// Version is set at build time via ldflags.
var Version = "dev"

// New creates and configures the MCP server with all tools registered.
// This is the single place where all dependencies are resolved.
func New() *server.MCPServer {
	store := config.NewFileStore()

	s := server.NewMCPServer(
		"swarmwatch",
		Version,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions(serverInstructions()),
	)

	// --- Observation tools (read-only, fail soft) ---

	progress := tools.NewCheckProgressTool(store)
	s.AddTool(progress.Definition(), progress.Handle)

	prdStatus := tools.NewPRDStatusTool(store)
	s.AddTool(prdStatus.Definition(), prdStatus.Handle)

	status := tools.NewSwarmStatusTool(store)
	s.AddTool(status.Definition(), status.Handle)

	logs := tools.NewWorkerLogsTool(store)
	s.AddTool(logs.Definition(), logs.Handle)

	// --- Ledger mutation tools (serialized write path, hard errors) ---

	updateStory := tools.NewPRDUpdateStoryTool(store)
	s.AddTool(updateStory.Definition(), updateStory.Handle)

	addStory := tools.NewPRDAddStoryTool(store)
	s.AddTool(addStory.Definition(), addStory.Handle)

	return s
}

// serverInstructions tells the AI how to observe the fleet effectively.
func serverInstructions() string {
	return `You have access to swarmwatch, which observes a fleet of autonomous
coding agents collaborating through a shared git repository. The repository
carries a requirements ledger (prd.json) of user stories; agents claim
stories, push work to disposable per-story branches, and mark stories as
passing and verified.

## The polling contract

swarm_check_progress is the primary tool and is built for a polling loop:

1. Call swarm_check_progress (omit since_commit on the first call).
2. Persist the latest_commit value from the result.
3. Next time, pass it back as since_commit.

Each call then reports exactly what happened between the two calls — new
commits (on any branch, merged or not), story status transitions, fresh log
summaries, and workers that likely started in the window. Consecutive calls
never report the same commit twice.

Do NOT construct since_commit yourself; it is an opaque checkpoint token
that only has meaning because a previous call returned it.

## Reading the results

- story_transitions use derived statuses: available, claimed by <agent>,
  verifying, done. A from-status of "new" means the story did not exist at
  the checkpoint.
- workers.likely_new is a heuristic from coarse container uptime strings;
  treat it as a hint, not a guarantee.
- Empty fields mean "nothing happened" OR "that subsystem is unavailable"
  (no container runtime, no logs yet). Both are normal; the tool never
  fails because of them.

## Current-state tools

- swarm_prd_status: the whole ledger grouped by status, no history.
- swarm_status: running workers plus story counts.
- swarm_worker_logs: tail a specific worker's logs on demand.

## Changing the ledger

swarm_prd_update_story and swarm_prd_add_story push real commits to the
shared repository. They require a valid existing ledger and fail loudly,
naming the failing step. A failed push means another writer got there
first — just retry the call. Never edit prd.json through any other route
while agents are running.`
}
