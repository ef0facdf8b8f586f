package fixture

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/tylerdiaz/supergemlock/internal/catalog"
	"github.com/tylerdiaz/supergemlock/internal/version"
)

func writeFixture(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestLoadSimpleVersions(t *testing.T) {
	dir := t.TempDir()
	writeFixture(t, dir, "rack", "2.2.8\n3.0.0\n3.0.8\n")

	c := catalog.New()
	if err := New(dir).Load(c); err != nil {
		t.Fatalf("Load: %v", err)
	}

	got := c.VersionsFor("rack")
	if len(got) != 3 {
		t.Fatalf("VersionsFor(rack) = %#v", got)
	}
}

func TestLoadWithDependencies(t *testing.T) {
	dir := t.TempDir()
	writeFixture(t, dir, "rails", "7.0.0 activesupport@= 7.0.0\n")
	writeFixture(t, dir, "activesupport", "7.0.0\n")

	c := catalog.New()
	if err := New(dir).Load(c); err != nil {
		t.Fatalf("Load: %v", err)
	}

	rails := c.VersionsFor("rails")
	if len(rails) != 1 {
		t.Fatalf("rails entries = %#v", rails)
	}
	deps := rails[0].Dependencies
	if len(deps) != 1 || deps[0].Name != "activesupport" {
		t.Fatalf("rails dependencies = %#v", deps)
	}
	if !version.Satisfies(version.MustParse("7.0.0"), deps[0].Constraints[0]) {
		t.Error("expected activesupport dependency constraint to accept 7.0.0")
	}
}
