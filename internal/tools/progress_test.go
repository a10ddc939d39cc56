package tools

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/mgalvin/swarmwatch/internal/config"
	"github.com/mgalvin/swarmwatch/internal/delta"
)

func TestCheckProgressTool_FirstPoll(t *testing.T) {
	root := setupTestProject(t, `{"stories":[{"id":"US-1","title":"Login","passes":false}]}`)
	tool := NewCheckProgressTool(config.NewFileStore())

	result, err := tool.Handle(context.Background(), request(root, nil))
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if isErrorResult(result) {
		t.Fatalf("unexpected tool error: %s", getResultText(result))
	}

	var doc delta.Result
	decodeResult(t, result, &doc)
	if doc.Project != "test-fleet" {
		t.Errorf("Project = %s, want test-fleet", doc.Project)
	}
	if doc.LatestCommit == "" {
		t.Error("LatestCommit should be resolved")
	}
	// First poll starts at the root commit, which is also the only commit.
	if doc.SinceCommit != doc.LatestCommit {
		t.Errorf("since %s != latest %s on single-commit history", doc.SinceCommit, doc.LatestCommit)
	}
}

func TestCheckProgressTool_PollLoop(t *testing.T) {
	root := setupTestProject(t, `{"stories":[{"id":"US-1","title":"Login","passes":false}]}`)
	tool := NewCheckProgressTool(config.NewFileStore())
	ctx := context.Background()

	var first delta.Result
	res, err := tool.Handle(ctx, request(root, nil))
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	decodeResult(t, res, &first)

	// An agent pushes progress to a working branch of the shared repo.
	clone := t.TempDir()
	runGit(t, clone, "clone", filepath.Join(root, "repo.git"), clone)
	runGit(t, clone, "config", "user.name", "agent")
	runGit(t, clone, "config", "user.email", "agent@example.com")
	runGit(t, clone, "checkout", "-b", "story/us-1")
	if err := os.WriteFile(filepath.Join(clone, "prd.json"),
		[]byte(`{"stories":[{"id":"US-1","title":"Login","passes":true}]}`), 0o644); err != nil {
		t.Fatal(err)
	}
	runGit(t, clone, "add", "prd.json")
	runGit(t, clone, "commit", "-m", "US-1 passes")
	runGit(t, clone, "push", "origin", "story/us-1")

	var second delta.Result
	res, err = tool.Handle(ctx, request(root, map[string]interface{}{
		"since_commit": first.LatestCommit,
	}))
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	decodeResult(t, res, &second)

	if len(second.NewCommits) != 1 || second.NewCommits[0].Message != "US-1 passes" {
		t.Errorf("NewCommits = %v, want the working-branch commit", second.NewCommits)
	}
	if len(second.StoryTransitions) != 1 {
		t.Fatalf("StoryTransitions = %v, want one", second.StoryTransitions)
	}
	tr := second.StoryTransitions[0]
	if tr.From != "available" || tr.To != "done" {
		t.Errorf("transition = %+v, want available->done", tr)
	}
}

func TestCheckProgressTool_MissingRepo_StillSucceeds(t *testing.T) {
	requireGit(t)
	root := t.TempDir()
	if err := config.NewFileStore().Save(root, config.NewProject("empty")); err != nil {
		t.Fatal(err)
	}
	tool := NewCheckProgressTool(config.NewFileStore())

	result, err := tool.Handle(context.Background(), request(root, nil))
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if isErrorResult(result) {
		t.Fatalf("observation must fail soft, got: %s", getResultText(result))
	}

	var doc delta.Result
	decodeResult(t, result, &doc)
	if len(doc.NewCommits) != 0 || len(doc.StoryTransitions) != 0 {
		t.Errorf("expected neutral delta, got %+v", doc)
	}
}
