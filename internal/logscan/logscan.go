// Package logscan finds what the workers logged since a reference time.
//
// Logs are append-only files, one per worker iteration, dropped into a
// single directory. The scanner is incremental by modification time: the
// caller supplies the timestamp of its last checkpoint and gets back only
// files touched after it, newest first, with bounded tails. Nothing here
// writes or remembers anything.
package logscan

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

const (
	// LogSuffix selects which directory entries count as worker logs.
	LogSuffix = ".log"

	// maxSummaries caps how many file tails one scan returns.
	maxSummaries = 5

	// tailLines is the per-file tail bound.
	tailLines = 10
)

// Summary is the bounded tail of one qualifying log file.
type Summary struct {
	File string `json:"file"`
	Tail string `json:"tail"`
}

// Result is the outcome of one incremental scan. NewCount counts every
// qualifying file; Summaries holds at most the five most recently modified.
type Result struct {
	NewCount  int       `json:"new_count"`
	Summaries []Summary `json:"summaries"`
}

// ScanNewLogs returns the log files in dir modified strictly after since,
// newest first. A missing or unreadable directory is a normal state for a
// project that has not produced logs yet and yields an empty result.
func ScanNewLogs(dir string, since time.Time) Result {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return Result{}
	}

	type candidate struct {
		name    string
		modTime time.Time
	}
	var fresh []candidate
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), LogSuffix) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(since) {
			fresh = append(fresh, candidate{name: entry.Name(), modTime: info.ModTime()})
		}
	}

	sort.Slice(fresh, func(i, j int) bool {
		return fresh[i].modTime.After(fresh[j].modTime)
	})

	result := Result{NewCount: len(fresh)}
	for _, c := range fresh {
		if len(result.Summaries) == maxSummaries {
			break
		}
		data, err := os.ReadFile(filepath.Join(dir, c.name))
		if err != nil {
			continue
		}
		result.Summaries = append(result.Summaries, Summary{
			File: c.name,
			Tail: LastLines(string(data), tailLines),
		})
	}
	return result
}

// LastLines returns the final n lines of content joined with newlines.
func LastLines(content string, n int) string {
	lines := strings.Split(strings.TrimRight(content, "\n"), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "\n")
}
