// Package config defines the swarmwatch project file and its conventional
// on-disk layout.
//
// A swarmwatch project is a directory containing swarmwatch.json plus the
// shared bare repository the agents push to and the directory their logs
// land in. The config file is optional: every field has a default relative
// to the project root, so a project that has never been configured still
// resolves to sensible paths.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const (
	// ConfigFile is the project file name, written at the project root.
	ConfigFile = "swarmwatch.json"

	// DefaultRepoDir is the bare repository the agents push to.
	DefaultRepoDir = "repo.git"

	// DefaultLogsDir is where per-worker log files accumulate.
	DefaultLogsDir = "logs"

	// DefaultPRDFile is the requirements ledger path, both inside the
	// repository and as the plain working-directory fallback copy.
	DefaultPRDFile = "prd.json"

	// DefaultWorkerPrefix filters the container list to this fleet's workers.
	DefaultWorkerPrefix = "swarm-agent-"
)

// Project is the root configuration, persisted as swarmwatch.json.
type Project struct {
	Name         string `json:"name"`
	RepoDir      string `json:"repo_dir"`
	LogsDir      string `json:"logs_dir"`
	PRDFile      string `json:"prd_file"`
	WorkerPrefix string `json:"worker_prefix"`
	CreatedAt    string `json:"created_at"`
	UpdatedAt    string `json:"updated_at"`
}

// timeNow is a package-level variable for testability.
var timeNow = time.Now

// NewProject creates a Project with all defaults filled in.
func NewProject(name string) *Project {
	now := timeNow().UTC().Format(time.RFC3339)
	return &Project{
		Name:         name,
		RepoDir:      DefaultRepoDir,
		LogsDir:      DefaultLogsDir,
		PRDFile:      DefaultPRDFile,
		WorkerPrefix: DefaultWorkerPrefix,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// applyDefaults fills zero-valued fields after loading an older or
// hand-edited config file.
func (p *Project) applyDefaults() {
	if p.RepoDir == "" {
		p.RepoDir = DefaultRepoDir
	}
	if p.LogsDir == "" {
		p.LogsDir = DefaultLogsDir
	}
	if p.PRDFile == "" {
		p.PRDFile = DefaultPRDFile
	}
	if p.WorkerPrefix == "" {
		p.WorkerPrefix = DefaultWorkerPrefix
	}
}

// --- Path helpers ---

// ConfigPath returns the location of swarmwatch.json under a project root.
func ConfigPath(projectRoot string) string {
	return filepath.Join(projectRoot, ConfigFile)
}

// RepoPath returns the bare repository path for a project.
func RepoPath(projectRoot string, p *Project) string {
	return filepath.Join(projectRoot, p.RepoDir)
}

// LogsPath returns the worker log directory for a project.
func LogsPath(projectRoot string, p *Project) string {
	return filepath.Join(projectRoot, p.LogsDir)
}

// PRDFallbackPath returns the plain on-disk ledger copy consulted when the
// repository cannot serve the ledger.
func PRDFallbackPath(projectRoot string, p *Project) string {
	return filepath.Join(projectRoot, p.PRDFile)
}

// Exists reports whether a project file is present at the root. Used by the
// tools' project-root discovery walk.
func Exists(projectRoot string) bool {
	_, err := os.Stat(ConfigPath(projectRoot))
	return err == nil
}

// --- Store ---

// Store abstracts config persistence so tools depend on an interface.
type Store interface {
	Load(projectRoot string) (*Project, error)
	Save(projectRoot string, p *Project) error
}

// FileStore persists the project config as JSON at ConfigPath.
type FileStore struct{}

// NewFileStore creates a FileStore.
func NewFileStore() *FileStore {
	return &FileStore{}
}

// Load reads swarmwatch.json. A missing file is not an error: it returns a
// default Project named after the root directory, so unconfigured projects
// work out of the box. A present-but-malformed file is an error.
func (fs *FileStore) Load(projectRoot string) (*Project, error) {
	data, err := os.ReadFile(ConfigPath(projectRoot))
	if err != nil {
		if os.IsNotExist(err) {
			return NewProject(filepath.Base(projectRoot)), nil
		}
		return nil, fmt.Errorf("reading %s: %w", ConfigFile, err)
	}

	var p Project
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", ConfigFile, err)
	}
	p.applyDefaults()
	return &p, nil
}

// Save writes the config with an updated timestamp.
func (fs *FileStore) Save(projectRoot string, p *Project) error {
	p.UpdatedAt = timeNow().UTC().Format(time.RFC3339)

	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	if err := os.WriteFile(ConfigPath(projectRoot), data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", ConfigFile, err)
	}
	return nil
}
