package tools

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/mgalvin/swarmwatch/internal/config"
	"github.com/mgalvin/swarmwatch/internal/logscan"
)

const (
	// defaultLogFiles and maxLogFiles bound how many files one call returns.
	defaultLogFiles = 5
	maxLogFiles     = 10

	// defaultTailLines and maxTailLines bound the per-file tail.
	defaultTailLines = 20
	maxTailLines     = 100
)

// WorkerLogsTool handles swarm_worker_logs: on-demand bounded log tails,
// optionally filtered to one worker. Unlike the delta scan this has no
// since-window — it is the "show me what agent-3 is doing" tool.
type WorkerLogsTool struct {
	store config.Store
}

// NewWorkerLogsTool creates a WorkerLogsTool.
func NewWorkerLogsTool(store config.Store) *WorkerLogsTool {
	return &WorkerLogsTool{store: store}
}

// Definition returns the MCP tool definition for registration.
func (t *WorkerLogsTool) Definition() mcp.Tool {
	return mcp.NewTool("swarm_worker_logs",
		mcp.WithDescription(
			"Tail the newest worker log files. Filter to one worker with the "+
				"worker argument (matched against file names). Returns at most "+
				"10 files and 100 lines per file, newest file first.",
		),
		mcp.WithString("worker",
			mcp.Description("Worker name to filter log files by. Optional."),
		),
		mcp.WithNumber("limit",
			mcp.Description("How many log files to return (default 5, max 10)."),
		),
		mcp.WithNumber("lines",
			mcp.Description("Tail length per file (default 20, max 100)."),
		),
		mcp.WithString("project_path",
			mcp.Description("Project root directory. Optional."),
		),
	)
}

// workerLogsResult is the swarm_worker_logs document.
type workerLogsResult struct {
	Project string            `json:"project"`
	Logs    []logscan.Summary `json:"logs"`
}

// Handle processes the swarm_worker_logs tool call.
func (t *WorkerLogsTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	root, p, err := resolveProject(t.store, req.GetString("project_path", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	worker := req.GetString("worker", "")
	limit := clamp(intArg(req, "limit", defaultLogFiles), 1, maxLogFiles)
	lines := clamp(intArg(req, "lines", defaultTailLines), 1, maxTailLines)

	logsDir := config.LogsPath(root, p)
	result := workerLogsResult{Project: p.Name, Logs: []logscan.Summary{}}

	entries, err := os.ReadDir(logsDir)
	if err != nil {
		// No logs yet is a normal state.
		return jsonResult(result)
	}

	type candidate struct {
		name    string
		modTime time.Time
	}
	var files []candidate
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), logscan.LogSuffix) {
			continue
		}
		if worker != "" && !strings.Contains(entry.Name(), worker) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		files = append(files, candidate{name: entry.Name(), modTime: info.ModTime()})
	}
	sort.Slice(files, func(i, j int) bool {
		return files[i].modTime.After(files[j].modTime)
	})

	for _, f := range files {
		if len(result.Logs) == limit {
			break
		}
		data, err := os.ReadFile(filepath.Join(logsDir, f.name))
		if err != nil {
			continue
		}
		result.Logs = append(result.Logs, logscan.Summary{
			File: f.name,
			Tail: logscan.LastLines(string(data), lines),
		})
	}
	return jsonResult(result)
}

// clamp bounds v to [lo, hi].
func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
