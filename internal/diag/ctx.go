// Package diag carries the supporting run context: where the manifest,
// lock file, and snapshot live, and where log output goes, so callers
// don't reach for globals.
package diag

import (
	"path/filepath"

	"github.com/tylerdiaz/supergemlock/internal/dlog"
)

// Ctx is the tool's run context: where its three files live, and its
// logger.
type Ctx struct {
	WorkingDir   string
	ManifestName string // default "Gemfile"
	LockName     string // default "Gemfile.lock"
	SnapshotName string // default "Gemfile.lock.bin"

	Log *dlog.Logger
}

// ManifestPath returns the absolute path to the manifest file.
func (c *Ctx) ManifestPath() string { return filepath.Join(c.WorkingDir, c.ManifestName) }

// LockPath returns the absolute path to the text lock file.
func (c *Ctx) LockPath() string { return filepath.Join(c.WorkingDir, c.LockName) }

// SnapshotPath returns the absolute path to the binary snapshot file.
func (c *Ctx) SnapshotPath() string { return filepath.Join(c.WorkingDir, c.SnapshotName) }
