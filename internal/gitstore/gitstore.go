// Package gitstore is the versioned-store accessor: read-only queries
// against the shared repository the agents push to.
//
// Everything here shells out to the git binary. The repository is usually
// bare and receives pushes to disposable per-story branches, so the default
// head (HEAD of the default branch) is routinely stale; ResolveLedgerRef
// exists to find current truth across all branches instead.
//
// No state is held between calls: every query re-reads the commit graph, so
// branches appearing and disappearing between polls are handled naturally.
package gitstore

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// Commit is one entry in a commit range listing.
type Commit struct {
	Hash    string `json:"hash"`
	Message string `json:"message"`
}

// Store wraps a repository directory (bare or not).
type Store struct {
	dir string
}

// New creates a Store for the repository at dir. The directory is not
// validated here; the first query against a missing repository fails and
// callers degrade per their own contracts.
func New(dir string) *Store {
	return &Store{dir: dir}
}

// Dir returns the repository path the store was created with.
func (s *Store) Dir() string {
	return s.dir
}

// git runs a git subcommand against the store's repository and returns
// trimmed stdout. Stderr is folded into the error text so callers can
// surface git's own diagnostics.
func (s *Store) git(ctx context.Context, args ...string) (string, error) {
	full := append([]string{"-C", s.dir}, args...)
	cmd := exec.CommandContext(ctx, "git", full...)
	out, err := cmd.CombinedOutput()
	text := strings.TrimSpace(string(out))
	if err != nil {
		return "", fmt.Errorf("git %s: %w: %s", args[0], err, text)
	}
	return text, nil
}

// Head resolves the tip of the repository's default symbolic pointer.
func (s *Store) Head(ctx context.Context) (string, error) {
	return s.git(ctx, "rev-parse", "HEAD")
}

// RootCommit resolves the repository's first, parentless commit. With
// multiple roots (rare, but grafted histories have them) the first one
// listed wins.
func (s *Store) RootCommit(ctx context.Context) (string, error) {
	out, err := s.git(ctx, "rev-list", "--max-parents=0", "HEAD")
	if err != nil {
		return "", err
	}
	lines := strings.Split(out, "\n")
	return strings.TrimSpace(lines[0]), nil
}

// LatestTouching returns the most recent commit, across all branches, that
// modified path. Returns empty string (no error) when no commit anywhere
// touched the path.
func (s *Store) LatestTouching(ctx context.Context, path string) (string, error) {
	out, err := s.git(ctx, "log", "--all", "-1", "--format=%H", "--", path)
	if err != nil {
		return "", err
	}
	return out, nil
}

// ResolveLedgerRef returns the commit that represents current truth for the
// ledger at path: the newest ledger-touching commit on any branch. The
// default head is only a fallback, because agents push to working branches
// that are never fast-forwarded into the default line.
//
// This never returns an error. If nothing touched the path, or the lookup
// fails outright, it degrades to Head; if even that fails, it returns ""
// and a later dereference at that ref fails in the caller's own fail-soft
// path.
func (s *Store) ResolveLedgerRef(ctx context.Context, path string) string {
	ref, err := s.LatestTouching(ctx, path)
	if err == nil && ref != "" {
		return ref
	}
	head, err := s.Head(ctx)
	if err != nil {
		return ""
	}
	return head
}

// FileAtRef reads a file's content as it existed at ref. The error carries
// git's diagnostic, which distinguishes a missing path from a bad ref.
func (s *Store) FileAtRef(ctx context.Context, ref, path string) ([]byte, error) {
	// Not via s.git: trimming would corrupt file content.
	cmd := exec.CommandContext(ctx, "git", "-C", s.dir, "show", ref+":"+path)
	out, err := cmd.Output()
	if err != nil {
		detail := ""
		if ee, ok := err.(*exec.ExitError); ok {
			detail = strings.TrimSpace(string(ee.Stderr))
		}
		return nil, fmt.Errorf("git show %s:%s: %w: %s", ref, path, err, detail)
	}
	return out, nil
}

// CommitsBetween lists commits reachable from head but not from baseline,
// searched across all branches so work on unmerged side branches is
// included. Order is git's native listing (newest first).
func (s *Store) CommitsBetween(ctx context.Context, baseline, head string) ([]Commit, error) {
	out, err := s.git(ctx, "log", "--all", "--format=%H%x09%s", head, "^"+baseline)
	if err != nil {
		return nil, err
	}
	if out == "" {
		return nil, nil
	}

	var commits []Commit
	for _, line := range strings.Split(out, "\n") {
		hash, subject, _ := strings.Cut(line, "\t")
		commits = append(commits, Commit{Hash: hash, Message: subject})
	}
	return commits, nil
}

// CommitTime returns the committer timestamp of ref.
func (s *Store) CommitTime(ctx context.Context, ref string) (time.Time, error) {
	out, err := s.git(ctx, "log", "-1", "--format=%ct", ref)
	if err != nil {
		return time.Time{}, err
	}
	secs, err := strconv.ParseInt(out, 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing commit time %q: %w", out, err)
	}
	return time.Unix(secs, 0), nil
}
