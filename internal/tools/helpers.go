// Package tools implements the MCP tool handlers.
//
// Each tool is a struct that receives its dependencies via constructor and
// exposes a Definition for registration plus a Handle compatible with
// mcp-go's CallToolRequest signature. One file per tool. All delta and
// ledger semantics live in the internal packages below this one; handlers
// only map arguments in and serialize the JSON document out.
package tools

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/mgalvin/swarmwatch/internal/config"
	"github.com/mgalvin/swarmwatch/internal/delta"
	"github.com/mgalvin/swarmwatch/internal/gitstore"
)

// findProjectRoot walks up from the current working directory looking for
// a swarmwatch.json. If none is found, returns cwd — the config store then
// supplies defaults relative to it.
func findProjectRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("getting working directory: %w", err)
	}

	current := dir
	for {
		if config.Exists(current) {
			return current, nil
		}
		parent := filepath.Dir(current)
		if parent == current {
			// Reached filesystem root; fall back to the original cwd.
			return dir, nil
		}
		current = parent
	}
}

// resolveProject loads the project for an explicit path argument, or for
// the discovered project root when the argument is empty.
func resolveProject(store config.Store, pathArg string) (root string, p *config.Project, err error) {
	root = pathArg
	if root == "" {
		root, err = findProjectRoot()
		if err != nil {
			return "", nil, err
		}
	}
	p, err = store.Load(root)
	if err != nil {
		return "", nil, err
	}
	return root, p, nil
}

// newAggregator builds the delta aggregator for a loaded project.
func newAggregator(root string, p *config.Project) *delta.Aggregator {
	return delta.New(
		gitstore.New(config.RepoPath(root, p)),
		p.PRDFile,
		config.PRDFallbackPath(root, p),
		config.LogsPath(root, p),
		p.WorkerPrefix,
	)
}

// jsonResult serializes a tool's result document.
func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding result: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}

// intArg extracts an integer argument from a tool request.
func intArg(req mcp.CallToolRequest, key string, defaultVal int) int {
	v, ok := req.GetArguments()[key].(float64)
	if !ok {
		return defaultVal
	}
	return int(v)
}

// optBoolArg returns a pointer to the boolean argument, or nil when the
// caller did not supply it. The mutation tools need absent-vs-false.
func optBoolArg(req mcp.CallToolRequest, key string) *bool {
	v, ok := req.GetArguments()[key].(bool)
	if !ok {
		return nil
	}
	return &v
}

// optStringArg returns a pointer to the string argument, or nil when the
// caller did not supply it. An explicit empty string is a valid value (it
// clears fields on the mutation path).
func optStringArg(req mcp.CallToolRequest, key string) *string {
	v, ok := req.GetArguments()[key].(string)
	if !ok {
		return nil
	}
	return &v
}
