package resolver

import (
	"context"
	"testing"

	"github.com/tylerdiaz/supergemlock/internal/catalog"
	"github.com/tylerdiaz/supergemlock/internal/manifest"
	"github.com/tylerdiaz/supergemlock/internal/version"
)

func mustConstraint(t *testing.T, s string) version.Constraint {
	t.Helper()
	c, err := version.ParseConstraint(s)
	if err != nil {
		t.Fatal(err)
	}
	return c
}

func TestResolveTrivialManifest(t *testing.T) {
	c := catalog.New()
	for _, v := range []string{"2.2.8", "3.0.0", "3.0.8"} {
		c.Add(catalog.Entry{Name: "rack", Version: version.MustParse(v)})
	}

	roots := []manifest.RootRequirement{
		{Name: "rack", Constraints: []version.Constraint{mustConstraint(t, "~> 3.0")}},
	}

	res, _, err := Resolve(context.Background(), roots, c)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(res.Map) != 1 {
		t.Fatalf("Map = %#v", res.Map)
	}
	if got, want := res.Map["rack"], version.MustParse("3.0.8"); got != want {
		t.Errorf("rack = %v, want %v", got, want)
	}
}

func TestResolveTransitiveDependency(t *testing.T) {
	c := catalog.New()
	c.Add(catalog.Entry{
		Name:    "rails",
		Version: version.MustParse("7.0.0"),
		Dependencies: []catalog.Dependency{
			{Name: "activesupport", Constraints: []version.Constraint{mustConstraint(t, "= 7.0.0")}},
		},
	})
	c.Add(catalog.Entry{Name: "activesupport", Version: version.MustParse("7.0.0")})

	roots := []manifest.RootRequirement{
		{Name: "rails", Constraints: []version.Constraint{mustConstraint(t, "= 7.0.0")}},
	}

	res, _, err := Resolve(context.Background(), roots, c)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(res.Map) != 2 {
		t.Fatalf("Map = %#v", res.Map)
	}
	var rails ResolvedLibrary
	for _, lib := range res.Sequence {
		if lib.Name == "rails" {
			rails = lib
		}
	}
	if len(rails.DependencyNames) != 1 || rails.DependencyNames[0] != "activesupport" {
		t.Errorf("rails dependency names = %#v", rails.DependencyNames)
	}
}

func TestResolveMultiConstraintMerge(t *testing.T) {
	c := catalog.New()
	for _, v := range []string{"0.9.0", "1.0.0", "1.5.4", "2.0.0"} {
		c.Add(catalog.Entry{Name: "pg", Version: version.MustParse(v)})
	}

	roots := []manifest.RootRequirement{
		{Name: "pg", Constraints: []version.Constraint{
			mustConstraint(t, ">= 1.0"),
			mustConstraint(t, "< 2.0"),
		}},
	}

	res, _, err := Resolve(context.Background(), roots, c)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got, want := res.Map["pg"], version.MustParse("1.5.4"); got != want {
		t.Errorf("pg = %v, want %v", got, want)
	}
}

func TestUnknownNameIsSilentlyDropped(t *testing.T) {
	c := catalog.New()
	roots := []manifest.RootRequirement{
		{Name: "ghost", Constraints: []version.Constraint{mustConstraint(t, ">= 0.0.0")}},
	}

	res, stats, err := Resolve(context.Background(), roots, c)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(res.Map) != 0 {
		t.Errorf("Map = %#v, want empty", res.Map)
	}
	if len(stats.Dropped) != 1 || stats.Dropped[0] != "ghost" {
		t.Errorf("Dropped = %#v", stats.Dropped)
	}
}

func TestGroupedRequirementsNeverEnterWorkSet(t *testing.T) {
	c := catalog.New()
	c.Add(catalog.Entry{Name: "rspec", Version: version.MustParse("3.0.0")})

	roots := []manifest.RootRequirement{
		{Name: "rspec", Constraints: []version.Constraint{mustConstraint(t, ">= 0.0.0")}, Groups: []string{"test"}},
	}

	res, _, err := Resolve(context.Background(), roots, c)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(res.Map) != 0 {
		t.Errorf("Map = %#v, want empty (grouped requirement must not resolve)", res.Map)
	}
}

func TestSelectionMaximality(t *testing.T) {
	c := catalog.New()
	for _, v := range []string{"1.0.0", "1.2.0", "1.9.0", "2.0.0"} {
		c.Add(catalog.Entry{Name: "foo", Version: version.MustParse(v)})
	}
	roots := []manifest.RootRequirement{
		{Name: "foo", Constraints: []version.Constraint{mustConstraint(t, "~> 1.0")}},
	}

	res, _, err := Resolve(context.Background(), roots, c)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got, want := res.Map["foo"], version.MustParse("1.9.0"); got != want {
		t.Errorf("foo = %v, want %v", got, want)
	}
}

func TestVCSRootResolvesWithEmptyCatalog(t *testing.T) {
	c := catalog.New() // no entries at all: widget is never in the registry

	src := manifest.Source{Kind: manifest.SourceVCS, URL: "https://github.com/acme/widget.git"}
	roots := []manifest.RootRequirement{
		{Name: "widget", Constraints: []version.Constraint{mustConstraint(t, ">= 0.0.0")}, Source: src},
	}

	res, stats, err := Resolve(context.Background(), roots, c)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(stats.Dropped) != 0 {
		t.Fatalf("Dropped = %#v, want none", stats.Dropped)
	}
	if len(res.Sequence) != 1 || res.Sequence[0].Name != "widget" {
		t.Fatalf("Sequence = %#v", res.Sequence)
	}
	if res.Sequence[0].Source.Kind != manifest.SourceVCS || res.Sequence[0].Source.URL != src.URL {
		t.Errorf("Source = %#v, want passed through unchanged", res.Sequence[0].Source)
	}
}

func TestDeterminismAcrossRuns(t *testing.T) {
	c := catalog.New()
	for _, v := range []string{"1.0.0", "1.5.0"} {
		c.Add(catalog.Entry{Name: "a", Version: version.MustParse(v)})
	}
	c.Add(catalog.Entry{Name: "b", Version: version.MustParse("1.0.0")})
	roots := []manifest.RootRequirement{
		{Name: "a", Constraints: []version.Constraint{mustConstraint(t, ">= 0.0.0")}},
		{Name: "b", Constraints: []version.Constraint{mustConstraint(t, ">= 0.0.0")}},
	}

	first, _, err := Resolve(context.Background(), roots, c)
	if err != nil {
		t.Fatal(err)
	}
	second, _, err := Resolve(context.Background(), roots, c)
	if err != nil {
		t.Fatal(err)
	}
	if len(first.Sequence) != len(second.Sequence) {
		t.Fatalf("sequence lengths differ: %d vs %d", len(first.Sequence), len(second.Sequence))
	}
	for i := range first.Sequence {
		if first.Sequence[i].Name != second.Sequence[i].Name || first.Sequence[i].Version != second.Sequence[i].Version {
			t.Errorf("sequence[%d] differs: %#v vs %#v", i, first.Sequence[i], second.Sequence[i])
		}
	}
}
