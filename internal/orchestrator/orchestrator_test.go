package orchestrator

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/tylerdiaz/supergemlock/internal/catalog"
	"github.com/tylerdiaz/supergemlock/internal/diag"
	"github.com/tylerdiaz/supergemlock/internal/catalog/fixture"
)

func newCtx(t *testing.T, dir string) *diag.Ctx {
	t.Helper()
	return &diag.Ctx{
		WorkingDir:   dir,
		ManifestName: "Gemfile",
		LockName:     "Gemfile.lock",
		SnapshotName: "Gemfile.lock.bin",
	}
}

func seedCatalog(t *testing.T, dir string) *fixture.Source {
	t.Helper()
	catDir := filepath.Join(dir, "catalog")
	if err := os.Mkdir(catDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(catDir, "rack"), []byte("2.2.8\n3.0.0\n3.0.8\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	return fixture.New(catDir)
}

func TestRunFullResolution(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "Gemfile"), []byte("gem 'rack', '~> 3.0'\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	src := seedCatalog(t, dir)

	res, err := Run(context.Background(), newCtx(t, dir), src)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.FastPath {
		t.Fatal("expected a full resolution on first run")
	}
	if _, err := os.Stat(filepath.Join(dir, "Gemfile.lock")); err != nil {
		t.Errorf("expected Gemfile.lock to be written: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "Gemfile.lock.bin")); err != nil {
		t.Errorf("expected Gemfile.lock.bin to be written: %v", err)
	}
}

// TestRunFastPathHitThenMiss checks that an unchanged manifest hits the
// fast path and a modified one forces a fresh resolution.
func TestRunFastPathHitThenMiss(t *testing.T) {
	dir := t.TempDir()
	manifestPath := filepath.Join(dir, "Gemfile")
	if err := os.WriteFile(manifestPath, []byte("gem 'rack', '~> 3.0'\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	src := seedCatalog(t, dir)
	ctx := newCtx(t, dir)

	if _, err := Run(context.Background(), ctx, src); err != nil {
		t.Fatalf("first Run: %v", err)
	}

	lockInfo, err := os.Stat(ctx.LockPath())
	if err != nil {
		t.Fatal(err)
	}

	second, err := Run(context.Background(), ctx, src)
	if err != nil {
		t.Fatalf("second Run: %v", err)
	}
	if !second.FastPath {
		t.Error("expected a fast-path hit on an unchanged manifest")
	}
	if second.Snapshot == nil || len(second.Snapshot.Records) != 1 || second.Snapshot.Records[0].Name != "rack" {
		t.Errorf("expected the fast-path result to carry the cached selection, got %#v", second.Snapshot)
	}
	lockInfo2, err := os.Stat(ctx.LockPath())
	if err != nil {
		t.Fatal(err)
	}
	if lockInfo.ModTime() != lockInfo2.ModTime() {
		t.Error("fast-path run must not modify Gemfile.lock")
	}

	// Append a space to the manifest; expect a full resolution.
	data, err := os.ReadFile(manifestPath)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(manifestPath, append(data, ' '), 0o644); err != nil {
		t.Fatal(err)
	}

	third, err := Run(context.Background(), ctx, src)
	if err != nil {
		t.Fatalf("third Run: %v", err)
	}
	if third.FastPath {
		t.Error("expected a fast-path miss after modifying the manifest")
	}
}

func TestRunMissingManifestIsInputError(t *testing.T) {
	dir := t.TempDir()
	src := catalog.New()
	_, err := Run(context.Background(), newCtx(t, dir), &staticSource{cache: src})
	if err == nil {
		t.Error("expected an error for a missing manifest")
	}
}

type staticSource struct{ cache *catalog.Cache }

func (s *staticSource) Load(c *catalog.Cache) error { return nil }
