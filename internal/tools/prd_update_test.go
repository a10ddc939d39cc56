package tools

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mgalvin/swarmwatch/internal/config"
	"github.com/mgalvin/swarmwatch/internal/prd"
)

// ledgerAtHead reads the ledger back from the project's bare repository.
func ledgerAtHead(t *testing.T, root string) *prd.Document {
	t.Helper()
	out := runGit(t, filepath.Join(root, "repo.git"), "show", "HEAD:prd.json")
	doc, err := prd.Parse([]byte(out))
	if err != nil {
		t.Fatalf("parsing pushed ledger: %v", err)
	}
	return doc
}

// --- swarm_prd_update_story ---

func TestPRDUpdateStoryTool_ClaimAndPass(t *testing.T) {
	root := setupTestProject(t, `{"stories":[{"id":"US-1","title":"Login","passes":false}]}`)
	tool := NewPRDUpdateStoryTool(config.NewFileStore())

	result, err := tool.Handle(context.Background(), request(root, map[string]interface{}{
		"story_id":   "US-1",
		"passes":     true,
		"claimed_by": "agent-2",
	}))
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if isErrorResult(result) {
		t.Fatalf("tool error: %s", getResultText(result))
	}

	s := ledgerAtHead(t, root).FindStory("US-1")
	if s == nil || !s.Passes || s.ClaimedBy != "agent-2" {
		t.Errorf("pushed story = %+v", s)
	}
}

func TestPRDUpdateStoryTool_ReleaseClaim(t *testing.T) {
	root := setupTestProject(t, `{"stories":[{"id":"US-1","title":"Login","claimed_by":"agent-2","claimed_at":"2024-01-01T00:00:00Z"}]}`)
	tool := NewPRDUpdateStoryTool(config.NewFileStore())

	result, err := tool.Handle(context.Background(), request(root, map[string]interface{}{
		"story_id":   "US-1",
		"claimed_by": "",
	}))
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if isErrorResult(result) {
		t.Fatalf("tool error: %s", getResultText(result))
	}

	s := ledgerAtHead(t, root).FindStory("US-1")
	if s.ClaimedBy != "" || s.ClaimedAt != "" {
		t.Errorf("claim not released: %+v", s)
	}
}

func TestPRDUpdateStoryTool_MissingStoryID(t *testing.T) {
	root := setupTestProject(t, `{"stories":[]}`)
	tool := NewPRDUpdateStoryTool(config.NewFileStore())

	result, err := tool.Handle(context.Background(), request(root, map[string]interface{}{
		"passes": true,
	}))
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if !isErrorResult(result) {
		t.Error("missing story_id should be a tool error")
	}
}

func TestPRDUpdateStoryTool_NoFields(t *testing.T) {
	root := setupTestProject(t, `{"stories":[{"id":"US-1"}]}`)
	tool := NewPRDUpdateStoryTool(config.NewFileStore())

	result, err := tool.Handle(context.Background(), request(root, map[string]interface{}{
		"story_id": "US-1",
	}))
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if !isErrorResult(result) {
		t.Error("update with no fields should be a tool error")
	}
}

func TestPRDUpdateStoryTool_MalformedLedger_HardError(t *testing.T) {
	root := setupTestProject(t, `{broken`)
	tool := NewPRDUpdateStoryTool(config.NewFileStore())

	_, err := tool.Handle(context.Background(), request(root, map[string]interface{}{
		"story_id": "US-1",
		"passes":   true,
	}))
	if err == nil {
		t.Fatal("mutation against a malformed ledger must be a hard error")
	}
	if !strings.Contains(err.Error(), "parse") {
		t.Errorf("error should name the failing step: %v", err)
	}
}

// --- swarm_prd_add_story ---

func TestPRDAddStoryTool_AppendsAndPushes(t *testing.T) {
	root := setupTestProject(t, `{"stories":[{"id":"US-1","title":"Login"}]}`)
	tool := NewPRDAddStoryTool(config.NewFileStore())

	result, err := tool.Handle(context.Background(), request(root, map[string]interface{}{
		"title":               "Export CSV",
		"description":         "Users can export their data",
		"acceptance_criteria": "Has a download button\nProduces valid CSV",
		"priority":            float64(2),
	}))
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if isErrorResult(result) {
		t.Fatalf("tool error: %s", getResultText(result))
	}

	var doc struct {
		Added string `json:"added"`
	}
	decodeResult(t, result, &doc)
	if doc.Added != "US-2" {
		t.Errorf("added id = %s, want US-2", doc.Added)
	}

	s := ledgerAtHead(t, root).FindStory("US-2")
	if s == nil {
		t.Fatal("US-2 missing from pushed ledger")
	}
	if len(s.AcceptanceCriteria) != 2 {
		t.Errorf("AcceptanceCriteria = %v, want 2 entries", s.AcceptanceCriteria)
	}
	if s.Priority != 2 {
		t.Errorf("Priority = %d, want 2", s.Priority)
	}
}

func TestPRDAddStoryTool_MissingTitle(t *testing.T) {
	root := setupTestProject(t, `{"stories":[]}`)
	tool := NewPRDAddStoryTool(config.NewFileStore())

	result, err := tool.Handle(context.Background(), request(root, nil))
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if !isErrorResult(result) {
		t.Error("missing title should be a tool error")
	}
}

func TestPRDAddStoryTool_DuplicateExplicitID(t *testing.T) {
	root := setupTestProject(t, `{"stories":[{"id":"US-1","title":"Login"}]}`)
	tool := NewPRDAddStoryTool(config.NewFileStore())

	_, err := tool.Handle(context.Background(), request(root, map[string]interface{}{
		"title": "Duplicate",
		"id":    "US-1",
	}))
	if err == nil {
		t.Error("duplicate id should be a hard error")
	}
}
