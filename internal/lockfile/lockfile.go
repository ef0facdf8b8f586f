// Package lockfile serializes a Resolution into the canonical textual lock
// format, byte-for-byte reproducible from the same resolution.
package lockfile

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/tylerdiaz/supergemlock/internal/manifest"
	"github.com/tylerdiaz/supergemlock/internal/resolver"
)

// FixedPlatforms is the PLATFORMS section's fixed list of supported
// platform strings.
var FixedPlatforms = []string{"ruby"}

// FixedRubyVersion is the RUBY VERSION section's single line.
const FixedRubyVersion = "ruby 3.2.2p53"

// FixedBundlerVersion is the BUNDLED WITH section's version marker.
const FixedBundlerVersion = "2.4.10"

// implicitConstraint is the rendering the parser produces when a gem line
// gave no explicit version; DEPENDENCIES omits the parenthesized
// constraint list entirely in that case.
const implicitConstraint = ">= 0.0.0"

// Emit writes the textual lock file for res to w, using registry as the GEM
// section's remote and roots for the DEPENDENCIES section. Sections with
// no applicable entries are omitted.
func Emit(w io.Writer, res *resolver.Resolution, roots []manifest.RootRequirement, registry string) error {
	bw := bufio.NewWriter(w)

	byName := make(map[string]resolver.ResolvedLibrary, len(res.Sequence))
	var registryLibs, gitLibs, pathLibs []resolver.ResolvedLibrary
	for _, lib := range res.Sequence {
		byName[lib.Name] = lib
		switch lib.Source.Kind {
		case manifest.SourceVCS:
			gitLibs = append(gitLibs, lib)
		case manifest.SourcePath:
			pathLibs = append(pathLibs, lib)
		default:
			registryLibs = append(registryLibs, lib)
		}
	}
	sortByName(registryLibs)
	sortByName(gitLibs)
	sortByName(pathLibs)

	wroteSection := false

	if len(registryLibs) > 0 {
		writeSectionHeader(bw, &wroteSection)
		fmt.Fprintln(bw, "GEM")
		fmt.Fprintf(bw, "  remote: %s\n", registry)
		fmt.Fprintln(bw, "  specs:")
		for _, lib := range registryLibs {
			fmt.Fprintf(bw, "    %s (%s)\n", lib.Name, lib.Version)
			for _, dep := range sortedDeps(lib.DependencyNames, byName) {
				fmt.Fprintf(bw, "      %s (= %s)\n", dep.Name, dep.Version)
			}
		}
	}

	for _, lib := range gitLibs {
		writeSectionHeader(bw, &wroteSection)
		fmt.Fprintln(bw, "GIT")
		fmt.Fprintf(bw, "  remote: %s\n", lib.Source.URL)
		fmt.Fprintf(bw, "  revision: %s\n", syntheticRevision(lib.Source))
		if lib.Source.Branch != "" {
			fmt.Fprintf(bw, "  branch: %s\n", lib.Source.Branch)
		}
		if lib.Source.Tag != "" {
			fmt.Fprintf(bw, "  tag: %s\n", lib.Source.Tag)
		}
		if lib.Source.Ref != "" {
			fmt.Fprintf(bw, "  ref: %s\n", lib.Source.Ref)
		}
		fmt.Fprintln(bw, "  specs:")
		fmt.Fprintf(bw, "    %s (%s)\n", lib.Name, lib.Version)
		for _, dep := range sortedDeps(lib.DependencyNames, byName) {
			fmt.Fprintf(bw, "      %s (= %s)\n", dep.Name, dep.Version)
		}
	}

	for _, lib := range pathLibs {
		writeSectionHeader(bw, &wroteSection)
		fmt.Fprintln(bw, "PATH")
		fmt.Fprintf(bw, "  remote: %s\n", lib.Source.LocalPath)
		fmt.Fprintln(bw, "  specs:")
		fmt.Fprintf(bw, "    %s (%s)\n", lib.Name, lib.Version)
		for _, dep := range sortedDeps(lib.DependencyNames, byName) {
			fmt.Fprintf(bw, "      %s (= %s)\n", dep.Name, dep.Version)
		}
	}

	writeSectionHeader(bw, &wroteSection)
	fmt.Fprintln(bw, "PLATFORMS")
	for _, p := range FixedPlatforms {
		fmt.Fprintf(bw, "  %s\n", p)
	}

	writeSectionHeader(bw, &wroteSection)
	fmt.Fprintln(bw, "RUBY VERSION")
	fmt.Fprintf(bw, "   %s\n", FixedRubyVersion)

	writeSectionHeader(bw, &wroteSection)
	fmt.Fprintln(bw, "DEPENDENCIES")
	for _, line := range dependencyLines(roots) {
		fmt.Fprintf(bw, "  %s\n", line)
	}

	writeSectionHeader(bw, &wroteSection)
	fmt.Fprintln(bw, "BUNDLED WITH")
	fmt.Fprintf(bw, "   %s\n", FixedBundlerVersion)

	return bw.Flush()
}

func writeSectionHeader(w io.Writer, wrote *bool) {
	if *wrote {
		fmt.Fprintln(w)
	}
	*wrote = true
}

type resolvedDep struct {
	Name    string
	Version string
}

func sortedDeps(names []string, byName map[string]resolver.ResolvedLibrary) []resolvedDep {
	var out []resolvedDep
	for _, n := range names {
		if lib, ok := byName[n]; ok {
			out = append(out, resolvedDep{Name: n, Version: lib.Version.String()})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func sortByName(libs []resolver.ResolvedLibrary) {
	sort.Slice(libs, func(i, j int) bool { return libs[i].Name < libs[j].Name })
}

// dependencyLines renders the DEPENDENCIES section: alphabetical by name,
// constraints parenthesized and comma-separated, a trailing "!" for
// non-registry sources. A requirement whose only constraint is the
// implicit ">= 0.0.0" omits the parenthesized part entirely.
func dependencyLines(roots []manifest.RootRequirement) []string {
	type entry struct {
		name string
		line string
	}
	entries := make([]entry, 0, len(roots))
	for _, r := range roots {
		parts := make([]string, 0, len(r.Constraints))
		for _, c := range r.Constraints {
			if c.String() != implicitConstraint {
				parts = append(parts, c.String())
			}
		}

		line := r.Name
		if len(parts) > 0 {
			line += " (" + strings.Join(parts, ", ") + ")"
		}
		if r.Source.Kind != manifest.SourceRegistry {
			line += "!"
		}
		entries = append(entries, entry{name: r.Name, line: line})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].name < entries[j].name })

	lines := make([]string, len(entries))
	for i, e := range entries {
		lines[i] = e.line
	}
	return lines
}

// syntheticRevision derives a stable-looking 40-hex placeholder from the
// source URL and ref, standing in for a real commit identifier that would
// otherwise come from querying the remote.
func syntheticRevision(src manifest.Source) string {
	key := src.URL + "@" + src.Branch + src.Tag + src.Ref
	return sha1Hex40(key)
}
