package catalog

import (
	"sync"
	"testing"

	"github.com/tylerdiaz/supergemlock/internal/version"
)

func TestAddAndVersionsFor(t *testing.T) {
	c := New()
	c.Add(Entry{Name: "rack", Version: version.MustParse("2.2.8")})
	c.Add(Entry{Name: "rack", Version: version.MustParse("3.0.0")})
	c.Add(Entry{Name: "rails", Version: version.MustParse("7.0.0")})

	got := c.VersionsFor("rack")
	if len(got) != 2 {
		t.Fatalf("VersionsFor(rack) = %#v", got)
	}
	if len(c.VersionsFor("nope")) != 0 {
		t.Error("VersionsFor on unknown name should be empty")
	}
}

func TestNamesAlphabetical(t *testing.T) {
	c := New()
	for _, n := range []string{"zeitwerk", "activesupport", "rails"} {
		c.Add(Entry{Name: n, Version: version.MustParse("1.0.0")})
	}
	got := c.Names()
	want := []string{"activesupport", "rails", "zeitwerk"}
	if len(got) != len(want) {
		t.Fatalf("Names() = %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Names()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestConcurrentReadersDontRace(t *testing.T) {
	c := New()
	c.Add(Entry{Name: "rack", Version: version.MustParse("1.0.0")})

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.VersionsFor("rack")
			c.Names()
		}()
	}
	wg.Wait()
}
