// Package orchestrator drives one end-to-end run: check the fast-path
// snapshot gate, then parse the manifest, resolve dependencies, emit the
// text lock file, and emit the binary snapshot.
package orchestrator

import (
	"bytes"
	"context"
	"os"

	"github.com/pkg/errors"

	"github.com/tylerdiaz/supergemlock/internal/catalog"
	"github.com/tylerdiaz/supergemlock/internal/diag"
	"github.com/tylerdiaz/supergemlock/internal/lockfile"
	"github.com/tylerdiaz/supergemlock/internal/manifest"
	"github.com/tylerdiaz/supergemlock/internal/resolver"
	"github.com/tylerdiaz/supergemlock/internal/snapshot"
)

// Result is what a run produced; FastPath is true when the run short
// circuited on an unchanged manifest digest. On a fast-path hit, Snapshot
// carries the cached selection read back from the binary snapshot so a
// caller can still report which libraries are in effect without paying
// for a full resolution.
type Result struct {
	FastPath   bool
	Manifest   *manifest.Manifest
	Resolution *resolver.Resolution
	Stats      resolver.Stats
	Snapshot   *snapshot.Snapshot
}

// Run executes the full dispatch sequence against ctx, populating the
// catalog from source.
func Run(ctx context.Context, dctx *diag.Ctx, source catalog.Source) (*Result, error) {
	manifestBytes, err := os.ReadFile(dctx.ManifestPath())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Errorf("no %s found in %s", dctx.ManifestName, dctx.WorkingDir)
		}
		return nil, errors.Wrap(err, "reading manifest")
	}

	gate := snapshot.Gate{SnapshotPath: dctx.SnapshotPath()}
	skip, err := gate.ShouldSkip(manifestBytes)
	if err != nil {
		return nil, errors.Wrap(err, "checking fast-path snapshot")
	}
	if skip {
		snap, err := snapshot.Read(dctx.SnapshotPath())
		if err != nil {
			return nil, errors.Wrap(err, "reading cached snapshot")
		}
		if dctx.Log != nil {
			dctx.Log.Info("using cached resolution")
		}
		return &Result{FastPath: true, Snapshot: snap}, nil
	}

	m, err := manifest.Parse(bytes.NewReader(manifestBytes))
	if err != nil {
		return nil, errors.Wrap(err, "parsing manifest")
	}

	cache := catalog.New()
	if err := source.Load(cache); err != nil {
		return nil, errors.Wrap(err, "loading catalog")
	}

	res, stats, err := resolver.Resolve(ctx, m.Requirements, cache)
	if err != nil {
		return nil, errors.Wrap(err, "resolving dependencies")
	}

	lockFile, err := os.Create(dctx.LockPath())
	if err != nil {
		return nil, errors.Wrap(err, "creating lock file")
	}
	emitErr := lockfile.Emit(lockFile, res, m.Requirements, m.Registry)
	closeErr := lockFile.Close()
	if emitErr != nil {
		return nil, errors.Wrap(emitErr, "writing lock file")
	}
	if closeErr != nil {
		return nil, errors.Wrap(closeErr, "closing lock file")
	}

	if err := gate.Write(res, manifestBytes); err != nil {
		return nil, errors.Wrap(err, "writing snapshot")
	}

	if dctx.Log != nil {
		dctx.Log.Infof("%d gems resolved in %s", len(res.Sequence), stats.Duration)
		for _, name := range stats.Dropped {
			dctx.Log.Verbosef("dropped %s: no satisfying version in catalog", name)
		}
	}

	return &Result{Manifest: m, Resolution: res, Stats: stats}, nil
}
