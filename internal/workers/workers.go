// Package workers observes the fleet's worker containers.
//
// Workers are launched elsewhere; this package only lists them and guesses
// which ones started recently. The container runtime reports uptime as a
// rounded human string ("Up 42 seconds", "Up 3 minutes"), so freshness is
// a heuristic over coarse buckets, not a guarantee — a worker started just
// before the reference instant can be misclassified in either direction.
package workers

import (
	"context"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Worker is one running container belonging to the fleet.
type Worker struct {
	Name   string `json:"name"`
	Status string `json:"status"`
	Uptime string `json:"uptime"`
}

// runDocker is a package-level variable for testability: tests substitute
// canned `docker ps` output without a container runtime.
var runDocker = func(ctx context.Context) (string, error) {
	cmd := exec.CommandContext(ctx, "docker", "ps", "--format", "{{.Names}}\t{{.Status}}")
	out, err := cmd.Output()
	return string(out), err
}

// List returns the fleet's current workers: running containers whose name
// carries the given prefix. An unavailable container runtime degrades to an
// empty list — observing a fleet with no runtime present is a normal state.
func List(ctx context.Context, prefix string) []Worker {
	out, err := runDocker(ctx)
	if err != nil {
		return nil
	}
	return parseProcessList(out, prefix)
}

// parseProcessList turns `docker ps` tab-separated output into Workers.
func parseProcessList(out, prefix string) []Worker {
	var list []Worker
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		name, status, ok := strings.Cut(line, "\t")
		if !ok || !strings.HasPrefix(name, prefix) {
			continue
		}
		list = append(list, Worker{
			Name:   name,
			Status: status,
			Uptime: uptimeFromStatus(status),
		})
	}
	return list
}

// uptimeFromStatus strips the runtime's "Up " prefix, leaving the coarse
// human uptime ("42 seconds"). Unrecognized status text passes through
// unchanged; the classifier's pattern match handles it conservatively.
func uptimeFromStatus(status string) string {
	return strings.TrimPrefix(status, "Up ")
}

// --- Freshness classification ---

// uptimePattern matches the "<integer> <unit>" core of a coarse uptime
// string. Compound forms ("About a minute") deliberately do not match.
var uptimePattern = regexp.MustCompile(`(\d+)\s+(second|minute|hour|day)s?`)

// unitMillis converts an uptime unit to milliseconds.
var unitMillis = map[string]int64{
	"second": 1000,
	"minute": 60_000,
	"hour":   3_600_000,
	"day":    86_400_000,
}

// ParseUptimeMillis extracts the uptime in milliseconds from a coarse
// human uptime string. The second return is false when the string does not
// carry a recognizable "<integer> <unit>" form.
func ParseUptimeMillis(uptime string) (int64, bool) {
	m := uptimePattern.FindStringSubmatch(uptime)
	if m == nil {
		return 0, false
	}
	n, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return 0, false
	}
	return n * unitMillis[m[2]], true
}

// LikelyNew returns the names of workers whose parsed uptime is strictly
// less than the elapsed time between since and now — workers that likely
// started after the caller's last checkpoint. Workers with unparseable
// uptime strings are never flagged.
func LikelyNew(list []Worker, since, now time.Time) []string {
	window := now.Sub(since).Milliseconds()

	var names []string
	for _, w := range list {
		up, ok := ParseUptimeMillis(w.Uptime)
		if !ok {
			continue
		}
		if up < window {
			names = append(names, w.Name)
		}
	}
	return names
}
