package state

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Paths is the canonical runtime folder layout under the data dir.
type Paths struct {
	Data   string // base data dir
	State  string // runtime state root
	Audit  string // audit log sink
	Crash  string // crash dumps and abort markers
	Events string // activity stream spool
	Tmp    string // scratch space
	Tel    string // telemetry JSONL sink
}

// PathsFor derives the full layout from a base data dir.
func PathsFor(dataDir string) Paths {
	statePath := filepath.Join(dataDir, "state")
	return Paths{
		Data:   dataDir,
		State:  statePath,
		Audit:  filepath.Join(statePath, "audit"),
		Crash:  filepath.Join(statePath, "crash"),
		Events: filepath.Join(statePath, "events"),
		Tmp:    filepath.Join(statePath, "tmp"),
		Tel:    filepath.Join(statePath, "telemetry"),
	}
}

// EnsureStateDirs ensures the canonical runtime folder layout exists under
// the provided data dir. It verifies paths are not symlinks and have
// restrictive permissions, and that they are writable by the process.
func EnsureStateDirs(dataDir string) error {
	p := PathsFor(dataDir)
	dirs := []string{p.Audit, p.Crash, p.Events, p.Tmp, p.Tel}

	for _, d := range dirs {
		// ensure parent exists
		if err := os.MkdirAll(filepath.Dir(d), 0o700); err != nil {
			return fmt.Errorf("cannot create parent for %s: %w", d, err)
		}

		// if path exists, reject symlinks and non-directories
		if fi, err := os.Lstat(d); err == nil {
			if fi.Mode()&os.ModeSymlink != 0 {
				return fmt.Errorf("path is a symlink: %s", d)
			}
			if !fi.IsDir() {
				return fmt.Errorf("path exists and is not a directory: %s", d)
			}
			if fi.Mode().Perm()&0o022 != 0 {
				return fmt.Errorf("path has permissive mode (group/other write): %s", d)
			}
		}

		// create directory if missing
		if err := os.MkdirAll(d, 0o700); err != nil {
			return fmt.Errorf("cannot create path %s: %w", d, err)
		}

		// double-check no symlink after creation
		if fi2, err := os.Lstat(d); err == nil {
			if fi2.Mode()&os.ModeSymlink != 0 {
				return fmt.Errorf("path is a symlink after creation: %s", d)
			}
			if fi2.Mode().Perm()&0o022 != 0 {
				return fmt.Errorf("path has permissive mode after creation: %s", d)
			}
		}

		// writability check: create and remove a temp file
		tmp, err := os.CreateTemp(d, ".validate-*")
		if err != nil {
			return fmt.Errorf("path not writable: %s: %w", d, err)
		}
		tmp.Close()
		_ = os.Remove(tmp.Name())
	}

	return nil
}

var (
	// PathsVar holds the resolved layout after a successful Init.
	PathsVar Paths
	initOnce sync.Once
	initErr  error
)

// Init resolves the runtime layout for the given data dir and ensures it
// exists on disk. Subsequent calls are no-ops and return the first result.
func Init(dataDir string) error {
	initOnce.Do(func() {
		path := strings.TrimSpace(dataDir)
		if path == "" {
			path = "./data"
		}
		path = filepath.Clean(path)
		PathsVar = PathsFor(path)
		initErr = EnsureStateDirs(path)
	})
	return initErr
}
