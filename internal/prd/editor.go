package prd

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Editor is the serialized ledger mutation path: clone the shared
// repository into a private temporary workspace, modify the ledger there,
// commit, push, discard the workspace. The private copy makes each
// mutation naturally exclusive; a concurrent writer shows up as a rejected
// push, which is surfaced for the caller to retry.
//
// Unlike the read paths, every step here is a hard error. A mutation must
// never proceed from a missing or unparseable base document — writing a
// guessed-at ledger would corrupt shared state for the whole fleet.
type Editor struct {
	// RepoDir is the shared (usually bare) repository.
	RepoDir string
	// PRDPath is the ledger path inside the repository.
	PRDPath string
}

// NewEditor creates an Editor for the repository at repoDir.
func NewEditor(repoDir, prdPath string) *Editor {
	return &Editor{RepoDir: repoDir, PRDPath: prdPath}
}

// timeNow is a package-level variable for testability.
var timeNow = time.Now

// StoryUpdate carries the mutable lifecycle fields of one story. Nil
// pointers mean "leave unchanged"; for ClaimedBy and Notes an explicit
// empty string clears the field.
type StoryUpdate struct {
	Passes            *bool
	ClaimedBy         *string
	Verified          *bool
	VerifiedBy        *string
	VerificationNotes *string
	Notes             *string
}

// UpdateStory applies an update to one story by id and pushes the result.
func (e *Editor) UpdateStory(ctx context.Context, id string, up StoryUpdate) error {
	return e.mutate(ctx, fmt.Sprintf("update story %s", id), func(doc *Document) error {
		s := doc.FindStory(id)
		if s == nil {
			return fmt.Errorf("story %q not found in ledger", id)
		}
		now := timeNow().UTC().Format(time.RFC3339)

		if up.Passes != nil {
			s.Passes = *up.Passes
		}
		if up.ClaimedBy != nil {
			s.ClaimedBy = *up.ClaimedBy
			if *up.ClaimedBy == "" {
				s.ClaimedAt = ""
			} else {
				s.ClaimedAt = now
			}
		}
		if up.Verified != nil {
			s.Verified = up.Verified
			s.VerifiedAt = now
		}
		if up.VerifiedBy != nil {
			s.VerifiedBy = *up.VerifiedBy
		}
		if up.VerificationNotes != nil {
			s.VerificationNotes = *up.VerificationNotes
		}
		if up.Notes != nil {
			s.Notes = *up.Notes
		}
		return nil
	})
}

// AddStory appends a new story and pushes the result. When the story has no
// id, the next free "US-<n>" is assigned. Returns the id used.
func (e *Editor) AddStory(ctx context.Context, story Story) (string, error) {
	assigned := story.ID
	err := e.mutate(ctx, "add story", func(doc *Document) error {
		if assigned == "" {
			assigned = nextStoryID(doc)
			story.ID = assigned
		}
		if doc.FindStory(story.ID) != nil {
			return fmt.Errorf("story id %q already exists in ledger", story.ID)
		}
		doc.Stories = append(doc.Stories, story)
		return nil
	})
	if err != nil {
		return "", err
	}
	return assigned, nil
}

// nextStoryID scans existing "US-<n>" ids and returns one past the highest.
func nextStoryID(doc *Document) string {
	max := 0
	for i := range doc.Stories {
		rest, ok := strings.CutPrefix(doc.Stories[i].ID, "US-")
		if !ok {
			continue
		}
		if n, err := strconv.Atoi(rest); err == nil && n > max {
			max = n
		}
	}
	return fmt.Sprintf("US-%d", max+1)
}

// mutate runs the clone-modify-commit-push cycle around apply. Error text
// names the failing step (clone, read, parse, write, commit, push) plus the
// underlying tool diagnostic, so operators can tell "ledger missing" from
// "push rejected by a concurrent write".
func (e *Editor) mutate(ctx context.Context, commitMsg string, apply func(*Document) error) error {
	workspace := filepath.Join(os.TempDir(), "swarmwatch-edit-"+uuid.NewString())
	defer func() { _ = os.RemoveAll(workspace) }()

	if out, err := gitRun(ctx, "", "clone", e.RepoDir, workspace); err != nil {
		return fmt.Errorf("clone: %w: %s", err, out)
	}

	ledgerPath := filepath.Join(workspace, e.PRDPath)
	data, err := os.ReadFile(ledgerPath)
	if err != nil {
		return fmt.Errorf("read: ledger %s: %w", e.PRDPath, err)
	}

	doc, err := Parse(data)
	if err != nil {
		return fmt.Errorf("parse: %w", err)
	}

	if err := apply(doc); err != nil {
		return err
	}

	encoded, err := Marshal(doc)
	if err != nil {
		return fmt.Errorf("write: %w", err)
	}
	if err := os.WriteFile(ledgerPath, encoded, 0o644); err != nil {
		return fmt.Errorf("write: %w", err)
	}

	if out, err := gitRun(ctx, workspace, "add", e.PRDPath); err != nil {
		return fmt.Errorf("commit: %w: %s", err, out)
	}
	if out, err := gitRun(ctx, workspace,
		"-c", "user.name=swarmwatch",
		"-c", "user.email=swarmwatch@localhost",
		"commit", "-m", commitMsg); err != nil {
		return fmt.Errorf("commit: %w: %s", err, out)
	}
	if out, err := gitRun(ctx, workspace, "push", "origin", "HEAD"); err != nil {
		return fmt.Errorf("push: %w: %s", err, out)
	}
	return nil
}

// gitRun executes git in dir and returns combined output for diagnostics.
func gitRun(ctx context.Context, dir string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	if dir != "" {
		cmd.Dir = dir
	}
	out, err := cmd.CombinedOutput()
	return strings.TrimSpace(string(out)), err
}
