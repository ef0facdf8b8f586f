// Package fixture is a CatalogSource that seeds a catalog.Cache from a
// directory of small per-library text files, one file per library.
//
// File format, one version per line:
//
//	<version> [<dep-name>@<op> <dep-version>[, <dep-name>@<op> <dep-version>...]]
//
// e.g. a file named "rails" containing:
//
//	7.0.0 activesupport@= 7.0.0
//	6.1.7
package fixture

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"

	"github.com/karrick/godirwalk"
	"github.com/pkg/errors"

	"github.com/tylerdiaz/supergemlock/internal/catalog"
	"github.com/tylerdiaz/supergemlock/internal/version"
)

// Source walks Dir and loads one catalog.Entry per line of each regular
// file it finds.
type Source struct {
	Dir string
}

// New returns a fixture Source rooted at dir.
func New(dir string) *Source {
	return &Source{Dir: dir}
}

// Load implements catalog.Source.
func (s *Source) Load(c *catalog.Cache) error {
	return godirwalk.Walk(s.Dir, &godirwalk.Options{
		Callback: func(path string, de *godirwalk.Dirent) error {
			if de.IsDir() {
				return nil
			}
			name := filepath.Base(path)
			if strings.HasPrefix(name, ".") {
				return nil
			}
			return loadFile(c, name, path)
		},
		Unsorted: false,
	})
}

func loadFile(c *catalog.Cache, libName, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrapf(err, "opening catalog fixture %s", path)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		entry, err := parseLine(libName, line)
		if err != nil {
			return errors.Wrapf(err, "%s", path)
		}
		c.Add(entry)
	}
	return errors.Wrapf(scanner.Err(), "reading %s", path)
}

func parseLine(libName, line string) (catalog.Entry, error) {
	fields := strings.SplitN(line, " ", 2)
	v, err := version.Parse(strings.TrimSpace(fields[0]))
	if err != nil {
		return catalog.Entry{}, errors.Wrapf(err, "invalid version in line %q", line)
	}

	entry := catalog.Entry{Name: libName, Version: v}
	if len(fields) < 2 {
		return entry, nil
	}

	for _, tok := range strings.Split(fields[1], ",") {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		depName, rest, ok := strings.Cut(tok, "@")
		if !ok {
			continue
		}
		c, err := version.ParseConstraint(strings.TrimSpace(rest))
		if err != nil {
			continue
		}
		entry.Dependencies = append(entry.Dependencies, catalog.Dependency{
			Name:        strings.TrimSpace(depName),
			Constraints: []version.Constraint{c},
		})
	}
	return entry, nil
}
