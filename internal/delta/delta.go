// Package delta assembles the incremental fleet-progress view: what
// changed in the shared repository, the ledger, the logs, and the worker
// set since a caller-held checkpoint.
//
// ComputeDelta is designed for a polling loop: each call's LatestCommit
// becomes the next call's sinceCommit, giving monotonically advancing,
// non-overlapping deltas. The engine itself keeps no state between calls.
//
// The five external lookups (commit range, two ledger reads, worker list,
// log scan) touch disjoint resources and run concurrently. Each one fails
// soft to its documented neutral value, so a missing log directory or an
// absent container runtime never nulls out the rest of the snapshot.
package delta

import (
	"context"
	"sync"
	"time"

	"github.com/mgalvin/swarmwatch/internal/gitstore"
	"github.com/mgalvin/swarmwatch/internal/logscan"
	"github.com/mgalvin/swarmwatch/internal/prd"
	"github.com/mgalvin/swarmwatch/internal/workers"
)

// WorkerView is the worker membership portion of a delta.
type WorkerView struct {
	Current   []workers.Worker `json:"current"`
	LikelyNew []string         `json:"likely_new"`
}

// Result is the single JSON document a delta call produces.
type Result struct {
	Project          string            `json:"project"`
	SinceCommit      string            `json:"since_commit"`
	LatestCommit     string            `json:"latest_commit"`
	NewCommits       []gitstore.Commit `json:"new_commits"`
	StoryTransitions []prd.Transition  `json:"story_transitions"`
	NewLogEntries    logscan.Result    `json:"new_log_entries"`
	Workers          WorkerView        `json:"workers"`
}

// Aggregator computes progress deltas for one project.
type Aggregator struct {
	Git          *gitstore.Store
	PRDPath      string // ledger path inside the repository
	FallbackPath string // plain on-disk ledger copy
	LogsDir      string
	WorkerPrefix string

	// listWorkers and timeNow are swappable for tests.
	listWorkers func(ctx context.Context, prefix string) []workers.Worker
	timeNow     func() time.Time
}

// New creates an Aggregator with the real process-list accessor and clock.
func New(git *gitstore.Store, prdPath, fallbackPath, logsDir, workerPrefix string) *Aggregator {
	return &Aggregator{
		Git:          git,
		PRDPath:      prdPath,
		FallbackPath: fallbackPath,
		LogsDir:      logsDir,
		WorkerPrefix: workerPrefix,
		listWorkers:  workers.List,
		timeNow:      time.Now,
	}
}

// ComputeDelta derives everything that happened since sinceCommit. An empty
// sinceCommit means "since the beginning" and resolves to the repository's
// root commit. The call is read-only and never fails: every sub-lookup
// degrades independently to its neutral value.
func (a *Aggregator) ComputeDelta(ctx context.Context, project, sinceCommit string) *Result {
	if sinceCommit == "" {
		if root, err := a.Git.RootCommit(ctx); err == nil {
			sinceCommit = root
		}
	}

	headCommit := a.Git.ResolveLedgerRef(ctx, a.PRDPath)

	// Timestamp of the checkpoint, for log and freshness windowing.
	// Unresolvable checkpoint means everything counts as new.
	sinceTime := time.Unix(0, 0)
	if ts, err := a.Git.CommitTime(ctx, sinceCommit); err == nil {
		sinceTime = ts
	}

	// Fan out the five independent lookups. No shared mutable state:
	// each goroutine owns exactly one result slot, and the WaitGroup
	// joins them all regardless of individual failures.
	var (
		newCommits   []gitstore.Commit
		ledgerBefore *prd.Document
		ledgerNow    *prd.Document
		current      []workers.Worker
		logEntries   logscan.Result
	)

	var wg sync.WaitGroup
	wg.Add(5)
	go func() {
		defer wg.Done()
		if cs, err := a.Git.CommitsBetween(ctx, sinceCommit, headCommit); err == nil {
			newCommits = cs
		}
	}()
	go func() {
		defer wg.Done()
		ledgerBefore = prd.ReadLedger(ctx, a.Git, sinceCommit, a.PRDPath, a.FallbackPath)
	}()
	go func() {
		defer wg.Done()
		ledgerNow = prd.ReadLedger(ctx, a.Git, headCommit, a.PRDPath, a.FallbackPath)
	}()
	go func() {
		defer wg.Done()
		current = a.listWorkers(ctx, a.WorkerPrefix)
	}()
	go func() {
		defer wg.Done()
		logEntries = logscan.ScanNewLogs(a.LogsDir, sinceTime)
	}()
	wg.Wait()

	result := &Result{
		Project:          project,
		SinceCommit:      sinceCommit,
		LatestCommit:     headCommit,
		NewCommits:       newCommits,
		StoryTransitions: prd.DiffStories(ledgerBefore, ledgerNow),
		NewLogEntries:    logEntries,
		Workers: WorkerView{
			Current:   current,
			LikelyNew: workers.LikelyNew(current, sinceTime, a.timeNow()),
		},
	}
	result.normalize()
	return result
}

// normalize replaces nil slices so the serialized document carries empty
// arrays, never null — callers index into these fields unconditionally.
func (r *Result) normalize() {
	if r.NewCommits == nil {
		r.NewCommits = []gitstore.Commit{}
	}
	if r.StoryTransitions == nil {
		r.StoryTransitions = []prd.Transition{}
	}
	if r.NewLogEntries.Summaries == nil {
		r.NewLogEntries.Summaries = []logscan.Summary{}
	}
	if r.Workers.Current == nil {
		r.Workers.Current = []workers.Worker{}
	}
	if r.Workers.LikelyNew == nil {
		r.Workers.LikelyNew = []string{}
	}
}
